package executors

import (
	"bytes"
	"sync"
)

// MaxOutputBytes caps the stdout and stderr captured from one shell action, combined
const MaxOutputBytes = 1024 * 1024

// outputCapture holds the stdout and stderr of one process under a shared
// byte budget. Writes past the budget are dropped and reported as written so
// the child never sees a broken pipe.
type outputCapture struct {
	mu        sync.Mutex
	remaining int
	truncated bool
	stdout    bytes.Buffer
	stderr    bytes.Buffer
}

func newOutputCapture(limit int) *outputCapture {
	return &outputCapture{remaining: limit}
}

func (c *outputCapture) write(buf *bytes.Buffer, p []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := len(p)
	if n > c.remaining {
		p = p[:c.remaining]
		c.truncated = true
	}
	buf.Write(p)
	c.remaining -= len(p)

	return n, nil
}

func (c *outputCapture) Stdout() *captureWriter {
	return &captureWriter{capture: c, buf: &c.stdout}
}

func (c *outputCapture) Stderr() *captureWriter {
	return &captureWriter{capture: c, buf: &c.stderr}
}

func (c *outputCapture) result() (stdout, stderr string, truncated bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stdout.String(), c.stderr.String(), c.truncated
}

type captureWriter struct {
	capture *outputCapture
	buf     *bytes.Buffer
}

func (w *captureWriter) Write(p []byte) (int, error) {
	return w.capture.write(w.buf, p)
}

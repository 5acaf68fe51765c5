package executors

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOutputCapture_SharedBudget(t *testing.T) {
	capture := newOutputCapture(8)

	n, err := capture.Stdout().Write([]byte("hello"))
	assert.NoError(t, err)
	assert.Equal(t, 5, n)

	n, err = capture.Stderr().Write([]byte("world!"))
	assert.NoError(t, err)
	assert.Equal(t, 6, n, "dropped bytes are still reported as written")

	n, err = capture.Stdout().Write([]byte("more"))
	assert.NoError(t, err)
	assert.Equal(t, 4, n)

	stdout, stderr, truncated := capture.result()
	assert.Equal(t, "hello", stdout)
	assert.Equal(t, "wor", stderr)
	assert.True(t, truncated)
}

func TestOutputCapture_UnderLimit(t *testing.T) {
	capture := newOutputCapture(MaxOutputBytes)

	_, _ = capture.Stdout().Write([]byte("ok"))

	stdout, stderr, truncated := capture.result()
	assert.Equal(t, "ok", stdout)
	assert.Empty(t, stderr)
	assert.False(t, truncated)
}

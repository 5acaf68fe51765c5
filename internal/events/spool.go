package events

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// RejectedSuffix is appended to spool files that do not decode
const RejectedSuffix = ".rejected"

// DefaultSettleDelay is how long a file that does not decode may go without
// further writes before it is rejected
const DefaultSettleDelay = 2 * time.Second

// Spool turns JSON files dropped into a directory into published events.
//
// Producers should write to a temporary name and rename the finished file to
// *.json inside the directory. Each file is published once and removed. A
// file written in place that does not decode yet is retried on every write
// and rejected once it has been quiet for the settle delay.
type Spool struct {
	dir    string
	pub    Publisher
	logger zerolog.Logger
	ready  chan struct{}
	settle time.Duration

	pending map[string]time.Time
}

// NewSpool creates a spool over dir
func NewSpool(dir string, pub Publisher, logger zerolog.Logger) *Spool {
	return &Spool{
		dir:    dir,
		pub:    pub,
		logger: logger,
		ready:  make(chan struct{}),
		settle: DefaultSettleDelay,
	}
}

// Dir returns the watched directory
func (s *Spool) Dir() string {
	return s.dir
}

// Ready is closed once the watcher is installed and existing files are drained
func (s *Spool) Ready() <-chan struct{} {
	return s.ready
}

// Run watches the directory until ctx is done
func (s *Spool) Run(ctx context.Context) error {
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return fmt.Errorf("failed to create spool directory; %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create spool watcher; %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(s.dir); err != nil {
		return fmt.Errorf("failed to watch spool directory; %w", err)
	}

	s.logger.Info().Str("dir", s.dir).Msg("watching event spool")

	s.pending = make(map[string]time.Time)
	if err := s.drain(); err != nil {
		s.logger.Warn().Err(err).Msg("failed to drain event spool")
	}
	close(s.ready)

	ticker := time.NewTicker(max(s.settle/4, 10*time.Millisecond))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case now := <-ticker.C:
			s.rejectSettled(now)
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Has(fsnotify.Create) || event.Has(fsnotify.Write) {
				s.attempt(event.Name)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			s.logger.Warn().Err(err).Msg("event spool watcher error")
		}
	}
}

func (s *Spool) drain() error {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return fmt.Errorf("failed to list spool directory; %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		s.attempt(filepath.Join(s.dir, entry.Name()))
	}

	return nil
}

// attempt consumes path, parking it as pending when it does not decode yet
func (s *Spool) attempt(path string) {
	if s.consume(path, false) {
		s.pending[path] = time.Now()
		return
	}
	delete(s.pending, path)
}

// rejectSettled makes a final attempt on pending files that saw no writes
// during the settle delay
func (s *Spool) rejectSettled(now time.Time) {
	for path, last := range s.pending {
		if now.Sub(last) < s.settle {
			continue
		}
		delete(s.pending, path)
		s.consume(path, true)
	}
}

// consume publishes and removes path. It reports true when the file does not
// decode yet and final is false; the caller retries it later.
func (s *Spool) consume(path string, final bool) bool {
	if !strings.HasSuffix(path, ".json") {
		return false
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			s.logger.Warn().Err(err).Str("file", path).Msg("failed to read spool file")
		}
		return false
	}

	msg, err := DecodeBytes(data)
	if err != nil {
		if !final {
			return true
		}
		s.logger.Warn().Err(err).Str("file", path).Msg("rejecting malformed spool file")
		if err := os.Rename(path, path+RejectedSuffix); err != nil && !errors.Is(err, os.ErrNotExist) {
			s.logger.Warn().Err(err).Str("file", path).Msg("failed to reject spool file")
		}
		return false
	}

	// Removing first claims the file, so duplicate create/write events publish once
	if err := os.Remove(path); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			s.logger.Warn().Err(err).Str("file", path).Msg("failed to remove spool file")
		}
		return false
	}

	s.logger.Debug().Str("event_type", msg.Type).Str("file", filepath.Base(path)).Msg("event received from spool")
	s.pub.Publish(msg)
	return false
}

package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/leefowlercu/event-hooks/internal/events"
	"github.com/leefowlercu/event-hooks/pkg/types"
)

// Recorder receives the report of every dispatch that ran at least one hook
type Recorder interface {
	Record(ctx context.Context, report Report) error
}

// ServiceOption configures a Service
type ServiceOption func(*Service)

// WithTopic replaces the subscribed message type
func WithTopic(topic string) ServiceOption {
	return func(s *Service) {
		if topic = strings.TrimSpace(topic); topic != "" {
			s.topic = topic
		}
	}
}

// WithRecorder sets the recorder for dispatch reports
func WithRecorder(recorder Recorder) ServiceOption {
	return func(s *Service) {
		s.recorder = recorder
	}
}

// WithDispatcherOptions passes options through to the service's Dispatcher
func WithDispatcherOptions(opts ...Option) ServiceOption {
	return func(s *Service) {
		s.dispatcherOpts = append(s.dispatcherOpts, opts...)
	}
}

// Service subscribes to an event source and dispatches every auto-mode
// event in its own goroutine. Construct it once at startup and Close it on
// teardown.
type Service struct {
	source         events.Source
	dispatcher     *Dispatcher
	dispatcherOpts []Option
	recorder       Recorder
	topic          string
	logger         zerolog.Logger

	mu          sync.Mutex
	unsubscribe func()
	closed      bool
	inflight    sync.WaitGroup

	ctx    context.Context
	cancel context.CancelFunc
}

// NewService creates a service wired to its event source and settings
func NewService(source events.Source, settings SettingsProvider, logger zerolog.Logger, opts ...ServiceOption) *Service {
	ctx, cancel := context.WithCancel(context.Background())

	s := &Service{
		source: source,
		topic:  events.DefaultTopic,
		logger: logger,
		ctx:    ctx,
		cancel: cancel,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.dispatcher = NewDispatcher(settings, logger, s.dispatcherOpts...)

	return s
}

// Dispatcher returns the dispatcher the service runs events through
func (s *Service) Dispatcher() *Dispatcher {
	return s.dispatcher
}

// Start subscribes to the source. Calling it again is a no-op.
func (s *Service) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return errors.New("failed to start event hook service; service is closed")
	}
	if s.unsubscribe != nil {
		return nil
	}
	if s.source == nil {
		return errors.New("failed to start event hook service; no event source")
	}

	s.unsubscribe = s.source.Subscribe(s.handle)
	s.logger.Info().Str("topic", s.topic).Msg("event hook service started")

	return nil
}

// handle runs on the publisher's goroutine and must return promptly
func (s *Service) handle(msg events.Message) {
	if msg.Type != s.topic {
		return
	}

	var payload types.Payload
	if len(msg.Payload) > 0 {
		if err := json.Unmarshal(msg.Payload, &payload); err != nil {
			s.logger.Warn().Err(err).Msg("ignoring malformed event payload")
			return
		}
	}

	if payload.Type == nil || *payload.Type == "" {
		s.logger.Debug().Msg("ignoring event without a type")
		return
	}
	eventType := *payload.Type

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.inflight.Add(1)
	s.mu.Unlock()

	go func() {
		defer s.inflight.Done()
		report := s.dispatcher.Dispatch(s.ctx, eventType, payload)
		s.record(report)
	}()
}

func (s *Service) record(report Report) {
	if s.recorder == nil || report.Skipped || len(report.Results) == 0 {
		return
	}

	if err := s.recorder.Record(context.WithoutCancel(s.ctx), report); err != nil {
		s.logger.Warn().Err(err).Msg("failed to record dispatch")
	}
}

// Shutdown unsubscribes and waits for in-flight dispatches. When ctx ends
// first the remaining dispatches are cancelled and ctx's error is returned.
// Shutdown is idempotent.
func (s *Service) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	unsubscribe := s.unsubscribe
	s.unsubscribe = nil
	s.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}

	done := make(chan struct{})
	go func() {
		s.inflight.Wait()
		close(done)
	}()

	var err error
	select {
	case <-done:
	case <-ctx.Done():
		s.logger.Warn().Msg("cancelling in-flight dispatches")
		s.cancel()
		<-done
		err = ctx.Err()
	}
	s.cancel()

	s.mu.Lock()
	s.source = nil
	s.mu.Unlock()

	s.logger.Info().Msg("event hook service stopped")

	return err
}

// Close is Shutdown without a deadline
func (s *Service) Close() error {
	return s.Shutdown(context.Background())
}

package processor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/rs/zerolog"

	"github.com/leefowlercu/event-hooks/internal/dispatch"
	"github.com/leefowlercu/event-hooks/internal/events"
	"github.com/leefowlercu/event-hooks/pkg/types"
)

// Options wires a Processor to its collaborators
type Options struct {
	Settings   dispatch.SettingsProvider
	Recorder   dispatch.Recorder // Optional
	Topic      string            // Defaults to events.DefaultTopic
	Logger     zerolog.Logger
	Dispatcher []dispatch.Option
}

// Processor handles a single event read from a stream
type Processor struct {
	dispatcher *dispatch.Dispatcher
	recorder   dispatch.Recorder
	topic      string
	logger     zerolog.Logger
}

// NewProcessor creates a new processor instance
func NewProcessor(opts Options) *Processor {
	topic := opts.Topic
	if topic == "" {
		topic = events.DefaultTopic
	}

	return &Processor{
		dispatcher: dispatch.NewDispatcher(opts.Settings, opts.Logger, opts.Dispatcher...),
		recorder:   opts.Recorder,
		topic:      topic,
		logger:     opts.Logger,
	}
}

// Process reads one event from stdin, dispatches it synchronously and
// writes the summary to stdout
func Process(ctx context.Context, stdin io.Reader, stdout io.Writer, opts Options) (dispatch.Report, error) {
	return NewProcessor(opts).ProcessEvent(ctx, stdin, stdout)
}

// ProcessEvent processes a single event notification
func (p *Processor) ProcessEvent(ctx context.Context, stdin io.Reader, stdout io.Writer) (dispatch.Report, error) {
	msg, err := events.Decode(stdin)
	if err != nil {
		p.logger.Error().Err(err).Msg("failed to read event")
		return dispatch.Report{}, fmt.Errorf("failed to read event; %w", err)
	}

	if msg.Type != p.topic {
		p.logger.Warn().Str("type", msg.Type).Str("topic", p.topic).Msg("message is not an auto-mode event")
		return dispatch.Report{}, fmt.Errorf("message type %q does not match topic %q", msg.Type, p.topic)
	}

	var payload types.Payload
	if len(msg.Payload) > 0 {
		if err := json.Unmarshal(msg.Payload, &payload); err != nil {
			p.logger.Error().Err(err).Msg("failed to parse event payload")
			return dispatch.Report{}, fmt.Errorf("failed to parse event payload; %w", err)
		}
	}

	if payload.Type == nil || *payload.Type == "" {
		return dispatch.Report{}, errors.New("event payload has no type")
	}

	p.logger.Info().Str("event_type", *payload.Type).Msg("processing event")

	report := p.dispatcher.Dispatch(ctx, *payload.Type, payload)

	if p.recorder != nil && !report.Skipped && len(report.Results) > 0 {
		if err := p.recorder.Record(ctx, report); err != nil {
			p.logger.Warn().Err(err).Msg("failed to record dispatch")
		}
	}

	if _, err := fmt.Fprintln(stdout, dispatch.Summary(report)); err != nil {
		return report, fmt.Errorf("failed to write output; %w", err)
	}

	p.logger.Info().
		Int("hooks", len(report.Results)).
		Int("failed", report.Failed()).
		Dur("duration", report.Duration).
		Msg("event processing completed")

	return report, nil
}

// Package dispatch selects the hooks bound to an auto-mode event and runs
// them concurrently, isolating every hook's failure from its siblings.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/leefowlercu/event-hooks/internal/dispatch/executors"
	"github.com/leefowlercu/event-hooks/internal/trigger"
	"github.com/leefowlercu/event-hooks/pkg/types"
)

// SettingsProvider returns the host's current global settings
type SettingsProvider interface {
	GlobalSettings(ctx context.Context) (types.Settings, error)
}

// SettingsFunc adapts a function to SettingsProvider
type SettingsFunc func(ctx context.Context) (types.Settings, error)

// GlobalSettings calls f
func (f SettingsFunc) GlobalSettings(ctx context.Context) (types.Settings, error) {
	return f(ctx)
}

// ShellRunner executes shell actions
type ShellRunner interface {
	Run(ctx context.Context, action types.ShellAction, hc types.HookContext, label string) (executors.ShellOutcome, error)
}

// HTTPRunner executes HTTP actions
type HTTPRunner interface {
	Run(ctx context.Context, action types.HTTPAction, hc types.HookContext, label string) (executors.HTTPOutcome, error)
}

// Dispatcher runs the hooks for one event at a time. It is safe for
// concurrent use; dispatches share no mutable state.
type Dispatcher struct {
	settings SettingsProvider
	shell    ShellRunner
	http     HTTPRunner
	logger   zerolog.Logger
	now      func() time.Time
}

// Option configures a Dispatcher
type Option func(*Dispatcher)

// WithShellRunner replaces the shell executor
func WithShellRunner(runner ShellRunner) Option {
	return func(d *Dispatcher) {
		d.shell = runner
	}
}

// WithHTTPRunner replaces the HTTP executor
func WithHTTPRunner(runner HTTPRunner) Option {
	return func(d *Dispatcher) {
		d.http = runner
	}
}

// WithClock replaces the time source used for context timestamps
func WithClock(now func() time.Time) Option {
	return func(d *Dispatcher) {
		if now != nil {
			d.now = now
		}
	}
}

// NewDispatcher creates a dispatcher reading hooks from settings. A nil
// settings provider is tolerated and yields no hooks.
func NewDispatcher(settings SettingsProvider, logger zerolog.Logger, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		settings: settings,
		logger:   logger,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}

	if d.shell == nil {
		d.shell = executors.NewShellExecutor(logger)
	}
	if d.http == nil {
		d.http = executors.NewHTTPExecutor(nil, logger)
	}

	return d
}

// Dispatch classifies the event, runs every matching hook concurrently and
// waits for all of them to settle. It never panics and reports failures
// only through logs and the returned Report.
func (d *Dispatcher) Dispatch(ctx context.Context, eventType string, payload types.Payload) (report Report) {
	startTime := time.Now()
	now := d.now()
	report = Report{EventType: eventType, Timestamp: now}

	defer func() {
		if r := recover(); r != nil {
			d.logger.Error().
				Str("event_type", eventType).
				Interface("panic", r).
				Msg("dispatch panicked")
		}
		report.Duration = time.Since(startTime)
	}()

	kind, ok := trigger.Classify(eventType, payload)
	if !ok {
		d.logger.Debug().Str("event_type", eventType).Msg("event produces no hooks")
		report.Skipped = true
		return report
	}
	report.Trigger = kind

	hc := trigger.BuildContext(payload, kind, now)

	hooks := Select(d.loadHooks(ctx), kind)
	if len(hooks) == 0 {
		d.logger.Debug().Str("trigger", kind.String()).Msg("no hooks configured for trigger")
		return report
	}

	d.logger.Info().
		Str("trigger", kind.String()).
		Int("hooks", len(hooks)).
		Msg("executing hooks for trigger")

	report.Results = d.fanOut(ctx, hooks, hc)
	return report
}

func (d *Dispatcher) loadHooks(ctx context.Context) []types.Hook {
	if d.settings == nil {
		d.logger.Warn().Msg("settings service not available")
		return nil
	}

	settings, err := d.settings.GlobalSettings(ctx)
	if err != nil {
		d.logger.Warn().Err(err).Msg("failed to load hook settings")
		return nil
	}

	return settings.Hooks()
}

// fanOut starts one goroutine per hook and joins on all of them. Results keep
// the hooks' order regardless of completion order.
func (d *Dispatcher) fanOut(ctx context.Context, hooks []types.Hook, hc types.HookContext) []HookResult {
	results := make([]HookResult, len(hooks))

	var wg sync.WaitGroup
	for i, hook := range hooks {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = d.runHook(ctx, hook, hc)
		}()
	}
	wg.Wait()

	return results
}

// runHook executes a single hook and converts every outcome, including a
// panic, into a HookResult
func (d *Dispatcher) runHook(ctx context.Context, hook types.Hook, hc types.HookContext) (result HookResult) {
	label := hook.Label()
	result = HookResult{HookID: hook.ID, Label: label}
	startTime := time.Now()

	defer func() {
		if r := recover(); r != nil {
			result = failedResult(result, &executors.ExecError{
				Kind: executors.FailurePanic,
				Hook: label,
				Err:  fmt.Errorf("panic: %v", r),
			})
		}
		result.Duration = time.Since(startTime)
		d.logResult(result, hc.EventType)
	}()

	switch action := hook.Action.(type) {
	case types.ShellAction:
		result.ActionKind = types.ActionShell
		if _, err := d.shell.Run(ctx, action, hc, label); err != nil {
			return failedResult(result, err)
		}
		result.Success = true
		result.Message = "command exited with status 0"

	case types.HTTPAction:
		result.ActionKind = types.ActionHTTP
		outcome, err := d.http.Run(ctx, action, hc, label)
		result.StatusCode = outcome.StatusCode
		if err != nil {
			return failedResult(result, err)
		}
		result.Success = true
		result.Warning = !outcome.OK()
		result.Message = fmt.Sprintf("%s %s returned %d", outcome.Method, outcome.URL, outcome.StatusCode)

	default:
		return failedResult(result, &executors.ExecError{
			Kind: executors.FailureInvalidAction,
			Hook: label,
			Err:  errors.New("unsupported action type"),
		})
	}

	return result
}

func failedResult(result HookResult, err error) HookResult {
	result.Success = false
	result.Warning = false
	result.Failure = executors.KindOf(err)
	result.Message = err.Error()
	result.Err = err
	return result
}

func (d *Dispatcher) logResult(result HookResult, kind types.TriggerKind) {
	if result.Success {
		event := d.logger.Info().
			Str("hook_id", result.HookID).
			Str("hook", result.Label).
			Str("trigger", kind.String()).
			Str("action", string(result.ActionKind)).
			Dur("duration", result.Duration)
		if result.StatusCode != 0 {
			event = event.Int("status", result.StatusCode)
		}
		event.Msg("hook completed")
		return
	}

	d.logger.Error().
		Err(result.Err).
		Str("hook_id", result.HookID).
		Str("hook", result.Label).
		Str("trigger", kind.String()).
		Str("action", string(result.ActionKind)).
		Str("failure", string(result.Failure)).
		Dur("duration", result.Duration).
		Msg("hook failed")
}

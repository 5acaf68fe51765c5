package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leefowlercu/event-hooks/internal/dispatch/executors"
	"github.com/leefowlercu/event-hooks/internal/events"
	"github.com/leefowlercu/event-hooks/pkg/types"
)

type memoryRecorder struct {
	mu      sync.Mutex
	reports []Report
	err     error
}

func (r *memoryRecorder) Record(_ context.Context, report Report) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reports = append(r.reports, report)
	return r.err
}

func (r *memoryRecorder) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.reports)
}

func message(t *testing.T, topic string, payload types.Payload) events.Message {
	t.Helper()
	data, err := json.Marshal(payload)
	require.NoError(t, err)
	return events.Message{Type: topic, Payload: data}
}

func TestService_DispatchesSubscribedEvents(t *testing.T) {
	bus := events.NewBus()
	recorder := &memoryRecorder{}

	ran := make(chan string, 4)
	runner := shellFunc(func(_ context.Context, action types.ShellAction, _ types.HookContext, _ string) (executors.ShellOutcome, error) {
		ran <- action.Command
		return executors.ShellOutcome{}, nil
	})

	svc := NewService(bus, staticSettings(shellHook("a", types.TriggerAutoModeComplete, "idle")), zerolog.Nop(),
		WithRecorder(recorder),
		WithDispatcherOptions(WithShellRunner(runner)),
	)
	require.NoError(t, svc.Start())
	require.NoError(t, svc.Start())
	assert.Equal(t, 1, bus.Len())

	bus.Publish(message(t, "agent:stream", types.Payload{Type: types.Ptr("auto_mode_idle")}))
	bus.Publish(message(t, events.DefaultTopic, types.Payload{Type: types.Ptr("auto_mode_feature_start")}))
	bus.Publish(events.Message{Type: events.DefaultTopic, Payload: json.RawMessage(`{"passes":"yes"}`)})
	bus.Publish(events.Message{Type: events.DefaultTopic})
	bus.Publish(message(t, events.DefaultTopic, types.Payload{Type: types.Ptr("auto_mode_idle")}))

	select {
	case command := <-ran:
		assert.Equal(t, "idle", command)
	case <-time.After(5 * time.Second):
		t.Fatal("hook did not run")
	}

	require.NoError(t, svc.Close())
	assert.Equal(t, 0, bus.Len())
	assert.Len(t, ran, 0)
	assert.Equal(t, 1, recorder.len())
}

func TestService_CustomTopic(t *testing.T) {
	bus := events.NewBus()
	ran := make(chan struct{}, 1)
	runner := shellFunc(func(context.Context, types.ShellAction, types.HookContext, string) (executors.ShellOutcome, error) {
		ran <- struct{}{}
		return executors.ShellOutcome{}, nil
	})

	svc := NewService(bus, staticSettings(shellHook("a", types.TriggerAutoModeComplete, "x")), zerolog.Nop(),
		WithTopic("automation"),
		WithDispatcherOptions(WithShellRunner(runner)),
	)
	require.NoError(t, svc.Start())
	defer svc.Close()

	bus.Publish(message(t, "automation", types.Payload{Type: types.Ptr("auto_mode_idle")}))

	select {
	case <-ran:
	case <-time.After(5 * time.Second):
		t.Fatal("hook did not run")
	}
}

func TestService_WronglyTypedFieldsStillDispatch(t *testing.T) {
	bus := events.NewBus()
	contexts := make(chan types.HookContext, 1)
	runner := shellFunc(func(_ context.Context, _ types.ShellAction, hc types.HookContext, _ string) (executors.ShellOutcome, error) {
		contexts <- hc
		return executors.ShellOutcome{}, nil
	})

	svc := NewService(bus, staticSettings(shellHook("a", types.TriggerFeatureError, "notify")), zerolog.Nop(),
		WithDispatcherOptions(WithShellRunner(runner)),
	)
	require.NoError(t, svc.Start())
	defer svc.Close()

	bus.Publish(events.Message{
		Type:    events.DefaultTopic,
		Payload: json.RawMessage(`{"type":"auto_mode_error","featureId":"F1","error":{"message":"boom"},"errorType":3,"message":"fallback"}`),
	})

	select {
	case hc := <-contexts:
		assert.Equal(t, types.TriggerFeatureError, hc.EventType)
		require.NotNil(t, hc.FeatureID)
		assert.Equal(t, "F1", *hc.FeatureID)
		require.NotNil(t, hc.Error)
		assert.Equal(t, "fallback", *hc.Error)
		assert.Nil(t, hc.ErrorType)
	case <-time.After(5 * time.Second):
		t.Fatal("hook did not run")
	}
}

func TestService_CloseIsIdempotent(t *testing.T) {
	bus := events.NewBus()
	svc := NewService(bus, nil, zerolog.Nop())
	require.NoError(t, svc.Start())

	require.NoError(t, svc.Close())
	require.NoError(t, svc.Close())
	assert.Error(t, svc.Start())
	assert.Equal(t, 0, bus.Len())

	// Events after close are ignored
	bus.Publish(message(t, events.DefaultTopic, types.Payload{Type: types.Ptr("auto_mode_idle")}))
}

func TestService_StartWithoutSource(t *testing.T) {
	svc := NewService(nil, nil, zerolog.Nop())
	assert.Error(t, svc.Start())
}

func TestService_ShutdownCancelsInflight(t *testing.T) {
	bus := events.NewBus()
	started := make(chan struct{})
	runner := shellFunc(func(ctx context.Context, _ types.ShellAction, _ types.HookContext, label string) (executors.ShellOutcome, error) {
		close(started)
		<-ctx.Done()
		return executors.ShellOutcome{}, &executors.ExecError{Kind: executors.FailureCanceled, Hook: label, Err: ctx.Err()}
	})

	recorder := &memoryRecorder{err: errors.New("journal unavailable")}
	svc := NewService(bus, staticSettings(shellHook("a", types.TriggerAutoModeComplete, "x")), zerolog.Nop(),
		WithRecorder(recorder),
		WithDispatcherOptions(WithShellRunner(runner)),
	)
	require.NoError(t, svc.Start())

	bus.Publish(message(t, events.DefaultTopic, types.Payload{Type: types.Ptr("auto_mode_idle")}))

	select {
	case <-started:
	case <-time.After(5 * time.Second):
		t.Fatal("hook did not start")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := svc.Shutdown(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	require.Equal(t, 1, recorder.len())
	assert.Equal(t, executors.FailureCanceled, recorder.reports[0].Results[0].Failure)
}

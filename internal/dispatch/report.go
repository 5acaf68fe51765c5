package dispatch

import (
	"time"

	"github.com/leefowlercu/event-hooks/internal/dispatch/executors"
	"github.com/leefowlercu/event-hooks/pkg/types"
)

// Report records what one dispatch did. It is an observation for the CLI and
// the journal; nothing in the dispatch path depends on it.
type Report struct {
	EventType string            // Raw event type of the notification
	Trigger   types.TriggerKind // Empty when Skipped
	Skipped   bool              // The event type produces no hooks
	Results   []HookResult      // One entry per selected hook, in selection order
	Timestamp time.Time
	Duration  time.Duration
}

// Succeeded returns the number of hooks that completed
func (r Report) Succeeded() int {
	count := 0
	for _, result := range r.Results {
		if result.Success {
			count++
		}
	}
	return count
}

// Failed returns the number of hooks that failed
func (r Report) Failed() int {
	return len(r.Results) - r.Succeeded()
}

// HookResult is the settled outcome of one hook
type HookResult struct {
	HookID     string
	Label      string
	ActionKind types.ActionKind      // Empty when the action type was not understood
	Success    bool
	Warning    bool                  // Completed but worth attention, e.g. a non-2xx response
	Failure    executors.FailureKind // Set when Success is false
	Message    string
	StatusCode int // HTTP actions only
	Duration   time.Duration
	Err        error
}

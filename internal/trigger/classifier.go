// Package trigger maps auto-mode event notifications onto hook trigger kinds
// and builds the substitution context for a dispatch.
package trigger

import (
	"github.com/leefowlercu/event-hooks/pkg/types"
)

// Internal auto-mode event types that can produce hooks
const (
	EventFeatureComplete = "auto_mode_feature_complete"
	EventError           = "auto_mode_error"
	EventIdle            = "auto_mode_idle"
)

// Classify resolves the trigger kind for an event. The boolean is false when
// the event type produces no hooks.
func Classify(eventType string, payload types.Payload) (types.TriggerKind, bool) {
	switch eventType {
	case EventFeatureComplete:
		if payload.Passes != nil && *payload.Passes {
			return types.TriggerFeatureSuccess, true
		}
		return types.TriggerFeatureError, true
	case EventError:
		// An error carrying a feature ID belongs to that feature, otherwise
		// auto mode itself failed
		if hasValue(payload.FeatureID) {
			return types.TriggerFeatureError, true
		}
		return types.TriggerAutoModeError, true
	case EventIdle:
		return types.TriggerAutoModeComplete, true
	default:
		return "", false
	}
}

func hasValue(s *string) bool {
	return s != nil && *s != ""
}

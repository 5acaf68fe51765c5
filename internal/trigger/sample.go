package trigger

import (
	"github.com/leefowlercu/event-hooks/pkg/types"
)

// SampleEvent returns an event type and payload that classify as kind, for
// exercising a hook outside a real automation run
func SampleEvent(kind types.TriggerKind, projectPath string) (string, types.Payload) {
	payload := types.Payload{}
	if projectPath != "" {
		payload.ProjectPath = types.Ptr(projectPath)
	}

	switch kind {
	case types.TriggerFeatureSuccess:
		payload.Type = types.Ptr(EventFeatureComplete)
		payload.FeatureID = types.Ptr("sample-feature")
		payload.FeatureName = types.Ptr("Sample feature")
		payload.Passes = types.Ptr(true)
		return EventFeatureComplete, payload
	case types.TriggerFeatureError:
		payload.Type = types.Ptr(EventError)
		payload.FeatureID = types.Ptr("sample-feature")
		payload.FeatureName = types.Ptr("Sample feature")
		payload.Error = types.Ptr("sample feature failure")
		payload.ErrorType = types.Ptr("sample")
		return EventError, payload
	case types.TriggerAutoModeError:
		payload.Type = types.Ptr(EventError)
		payload.Error = types.Ptr("sample auto mode failure")
		payload.ErrorType = types.Ptr("sample")
		return EventError, payload
	default:
		payload.Type = types.Ptr(EventIdle)
		payload.Message = types.Ptr("sample batch complete")
		return EventIdle, payload
	}
}

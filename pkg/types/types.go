package types

import (
	"encoding/json"
	"fmt"
	"strings"
)

// TriggerKind is the closed set of event categories a hook can react to
type TriggerKind string

const (
	TriggerFeatureSuccess   TriggerKind = "feature_success"    // A feature completed and passed
	TriggerFeatureError     TriggerKind = "feature_error"      // A feature failed, or an error was scoped to a feature
	TriggerAutoModeComplete TriggerKind = "auto_mode_complete" // Auto mode went idle after finishing its batch
	TriggerAutoModeError    TriggerKind = "auto_mode_error"    // Auto mode failed at the process level
)

// AllTriggerKinds returns every trigger kind in declaration order
func AllTriggerKinds() []TriggerKind {
	return []TriggerKind{
		TriggerFeatureSuccess,
		TriggerFeatureError,
		TriggerAutoModeComplete,
		TriggerAutoModeError,
	}
}

// IsValid reports whether t is one of the four known trigger kinds
func (t TriggerKind) IsValid() bool {
	switch t {
	case TriggerFeatureSuccess, TriggerFeatureError, TriggerAutoModeComplete, TriggerAutoModeError:
		return true
	default:
		return false
	}
}

// String returns the wire form of the trigger kind
func (t TriggerKind) String() string {
	return string(t)
}

// ParseTriggerKind converts a string into a TriggerKind
func ParseTriggerKind(s string) (TriggerKind, error) {
	t := TriggerKind(strings.TrimSpace(s))
	if !t.IsValid() {
		return "", fmt.Errorf("unknown trigger %q; expected one of %v", s, AllTriggerKinds())
	}
	return t, nil
}

// Payload is the loosely structured body of an auto-mode event notification.
// Every field is optional; a nil pointer means the emitter did not send it.
type Payload struct {
	Type        *string `json:"type,omitempty"`        // Internal event type, e.g. "auto_mode_feature_complete"
	FeatureID   *string `json:"featureId,omitempty"`   // Feature the event is about
	FeatureName *string `json:"featureName,omitempty"` // Human readable feature title
	Passes      *bool   `json:"passes,omitempty"`      // Success flag for feature completion
	Message     *string `json:"message,omitempty"`     // Free-form message, used as error fallback
	Error       *string `json:"error,omitempty"`       // Error description
	ErrorType   *string `json:"errorType,omitempty"`   // Error classification from the emitter
	ProjectPath *string `json:"projectPath,omitempty"` // Absolute path of the project being automated
}

// UnmarshalJSON decodes an event payload field by field. A field with the
// wrong JSON type is left absent; only a document that is not an object fails.
func (p *Payload) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return fmt.Errorf("failed to decode event payload; %w", err)
	}

	*p = Payload{
		Type:        optionalField[string](fields, "type"),
		FeatureID:   optionalField[string](fields, "featureId"),
		FeatureName: optionalField[string](fields, "featureName"),
		Passes:      optionalField[bool](fields, "passes"),
		Message:     optionalField[string](fields, "message"),
		Error:       optionalField[string](fields, "error"),
		ErrorType:   optionalField[string](fields, "errorType"),
		ProjectPath: optionalField[string](fields, "projectPath"),
	}

	return nil
}

func optionalField[T any](fields map[string]json.RawMessage, key string) *T {
	raw, ok := fields[key]
	if !ok {
		return nil
	}

	var v *T
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil
	}
	return v
}

// HookContext is the per-dispatch set of values available for placeholder substitution.
// It is built once per event and only read afterwards.
type HookContext struct {
	FeatureID   *string     // Copied from the payload
	FeatureName *string     // Copied from the payload
	ProjectPath *string     // Copied from the payload
	ProjectName *string     // Last segment of ProjectPath
	Error       *string     // Payload error, or message when error is absent
	ErrorType   *string     // Copied from the payload
	Timestamp   string      // ISO-8601 instant of the dispatch
	EventType   TriggerKind // Resolved trigger
}

// Variable names recognised in templates
const (
	VarFeatureID   = "featureId"
	VarFeatureName = "featureName"
	VarProjectPath = "projectPath"
	VarProjectName = "projectName"
	VarError       = "error"
	VarErrorType   = "errorType"
	VarTimestamp   = "timestamp"
	VarEventType   = "eventType"
)

// Lookup resolves a template variable. The boolean is false when the
// variable is unknown or absent from this context.
func (c HookContext) Lookup(name string) (string, bool) {
	switch name {
	case VarFeatureID:
		return deref(c.FeatureID)
	case VarFeatureName:
		return deref(c.FeatureName)
	case VarProjectPath:
		return deref(c.ProjectPath)
	case VarProjectName:
		return deref(c.ProjectName)
	case VarError:
		return deref(c.Error)
	case VarErrorType:
		return deref(c.ErrorType)
	case VarTimestamp:
		return c.Timestamp, true
	case VarEventType:
		return string(c.EventType), true
	default:
		return "", false
	}
}

// Settings is the slice of the host's global settings this module reads
type Settings struct {
	EventHooks []Hook `json:"eventHooks"`
}

// Hooks returns the configured hooks, never nil
func (s Settings) Hooks() []Hook {
	if s.EventHooks == nil {
		return []Hook{}
	}
	return s.EventHooks
}

// Ptr returns a pointer to v
func Ptr[T any](v T) *T {
	return &v
}

func deref(s *string) (string, bool) {
	if s == nil {
		return "", false
	}
	return *s, true
}

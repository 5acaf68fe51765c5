package types

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// ActionKind discriminates the two action variants on the wire
type ActionKind string

const (
	ActionShell ActionKind = "shell"
	ActionHTTP  ActionKind = "http"
)

// DefaultShellTimeout applies when a shell action does not set its own timeout
const DefaultShellTimeout = 30 * time.Second

// HTTPTimeout is the fixed deadline for every HTTP action
const HTTPTimeout = 10 * time.Second

// Action is either a ShellAction or an HTTPAction. The interface is sealed.
type Action interface {
	ActionKind() ActionKind
	isAction()
}

// ShellAction runs a command line through the host shell
type ShellAction struct {
	Command string // Command template
	Timeout *int   // Timeout in milliseconds, nil for the default
}

func (ShellAction) ActionKind() ActionKind { return ActionShell }
func (ShellAction) isAction()              {}

// EffectiveTimeout returns the configured timeout or DefaultShellTimeout
func (a ShellAction) EffectiveTimeout() time.Duration {
	if a.Timeout == nil || *a.Timeout <= 0 {
		return DefaultShellTimeout
	}
	return time.Duration(*a.Timeout) * time.Millisecond
}

// HTTPMethod is one of the request methods an HTTP action may use
type HTTPMethod string

const (
	MethodGet   HTTPMethod = "GET"
	MethodPost  HTTPMethod = "POST"
	MethodPut   HTTPMethod = "PUT"
	MethodPatch HTTPMethod = "PATCH"
)

// IsValid reports whether m is GET, POST, PUT or PATCH
func (m HTTPMethod) IsValid() bool {
	switch m {
	case MethodGet, MethodPost, MethodPut, MethodPatch:
		return true
	default:
		return false
	}
}

// HTTPAction sends a webhook request
type HTTPAction struct {
	URL     string            // URL template
	Method  HTTPMethod        // Empty means POST
	Headers map[string]string // Header name -> value template
	Body    *string           // Body template; nil selects the default JSON body
}

func (HTTPAction) ActionKind() ActionKind { return ActionHTTP }
func (HTTPAction) isAction()              {}

// EffectiveMethod returns the upper-cased method, defaulting to POST
func (a HTTPAction) EffectiveMethod() HTTPMethod {
	m := HTTPMethod(strings.ToUpper(strings.TrimSpace(string(a.Method))))
	if m == "" {
		return MethodPost
	}
	return m
}

// Hook binds a trigger kind to an action
type Hook struct {
	ID      string      // Stable unique identifier
	Name    *string     // Optional display name
	Enabled bool        // Disabled hooks never run
	Trigger TriggerKind // Event category the hook reacts to
	Action  Action      // Nil when the stored action type is not understood

	rawAction json.RawMessage // Original action document, kept for unknown action types
}

// Label is the name used in logs: the display name when set, else the ID
func (h Hook) Label() string {
	if h.Name != nil && strings.TrimSpace(*h.Name) != "" {
		return *h.Name
	}
	return h.ID
}

type hookDocument struct {
	ID      string          `json:"id" yaml:"id"`
	Name    *string         `json:"name,omitempty" yaml:"name,omitempty"`
	Enabled bool            `json:"enabled" yaml:"enabled"`
	Trigger TriggerKind     `json:"trigger" yaml:"trigger"`
	Action  json.RawMessage `json:"action,omitempty" yaml:"-"`
}

type actionDocument struct {
	Type    ActionKind        `json:"type" yaml:"type"`
	Command string            `json:"command,omitempty" yaml:"command,omitempty"`
	Timeout *int              `json:"timeout,omitempty" yaml:"timeout,omitempty"`
	URL     string            `json:"url,omitempty" yaml:"url,omitempty"`
	Method  HTTPMethod        `json:"method,omitempty" yaml:"method,omitempty"`
	Headers map[string]string `json:"headers,omitempty" yaml:"headers,omitempty"`
	Body    *string           `json:"body,omitempty" yaml:"body,omitempty"`
}

func toActionDocument(a Action) (actionDocument, bool) {
	switch act := a.(type) {
	case ShellAction:
		return actionDocument{Type: ActionShell, Command: act.Command, Timeout: act.Timeout}, true
	case HTTPAction:
		return actionDocument{
			Type:    ActionHTTP,
			URL:     act.URL,
			Method:  act.Method,
			Headers: act.Headers,
			Body:    act.Body,
		}, true
	default:
		return actionDocument{}, false
	}
}

// MarshalJSON encodes the hook with a type-tagged action object
func (h Hook) MarshalJSON() ([]byte, error) {
	doc := hookDocument{ID: h.ID, Name: h.Name, Enabled: h.Enabled, Trigger: h.Trigger}

	if ad, ok := toActionDocument(h.Action); ok {
		data, err := json.Marshal(ad)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal hook action; %w", err)
		}
		doc.Action = data
	} else if len(h.rawAction) > 0 {
		doc.Action = h.rawAction
	}

	return json.Marshal(doc)
}

// UnmarshalJSON decodes a hook. An action with an unknown type leaves Action
// nil so one bad entry does not hide the rest of the hook list.
func (h *Hook) UnmarshalJSON(data []byte) error {
	var doc hookDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("failed to decode hook; %w", err)
	}

	*h = Hook{
		ID:      doc.ID,
		Name:    doc.Name,
		Enabled: doc.Enabled,
		Trigger: doc.Trigger,
	}

	if len(doc.Action) == 0 || string(doc.Action) == "null" {
		return nil
	}
	h.rawAction = append(json.RawMessage(nil), doc.Action...)

	var ad actionDocument
	if err := json.Unmarshal(doc.Action, &ad); err != nil {
		return fmt.Errorf("failed to decode action of hook %q; %w", doc.ID, err)
	}

	switch ad.Type {
	case ActionShell:
		h.Action = ShellAction{Command: ad.Command, Timeout: ad.Timeout}
	case ActionHTTP:
		h.Action = HTTPAction{URL: ad.URL, Method: ad.Method, Headers: ad.Headers, Body: ad.Body}
	}

	return nil
}

// MarshalYAML renders the hook in the same shape as its JSON form
func (h Hook) MarshalYAML() (any, error) {
	out := struct {
		ID      string          `yaml:"id"`
		Name    *string         `yaml:"name,omitempty"`
		Enabled bool            `yaml:"enabled"`
		Trigger TriggerKind     `yaml:"trigger"`
		Action  *actionDocument `yaml:"action,omitempty"`
	}{ID: h.ID, Name: h.Name, Enabled: h.Enabled, Trigger: h.Trigger}

	if ad, ok := toActionDocument(h.Action); ok {
		out.Action = &ad
	}

	return out, nil
}

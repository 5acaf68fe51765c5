// Package events carries lifecycle event notifications from the automation
// engine to subscribers.
package events

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"sync"
)

// DefaultTopic is the message type auto-mode notifications are published under
const DefaultTopic = "auto-mode:event"

// Message is one event notification. Payload is opaque and untrusted.
type Message struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Handler receives published messages. Handlers run on the publisher's
// goroutine and must not block.
type Handler func(Message)

// Source is anything hooks can subscribe to
type Source interface {
	// Subscribe registers handler and returns a function that removes it
	Subscribe(handler Handler) (unsubscribe func())
}

// Bus is an in-process publish/subscribe emitter
type Bus struct {
	mu       sync.RWMutex
	nextID   int
	handlers map[int]Handler
}

var _ Source = (*Bus)(nil)

// NewBus creates an empty bus
func NewBus() *Bus {
	return &Bus{handlers: make(map[int]Handler)}
}

// Subscribe implements Source. The returned function is idempotent.
func (b *Bus) Subscribe(handler Handler) func() {
	if handler == nil {
		return func() {}
	}

	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.handlers[id] = handler
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.handlers, id)
			b.mu.Unlock()
		})
	}
}

// Publish delivers msg to every current subscriber in subscription order
func (b *Bus) Publish(msg Message) {
	b.mu.RLock()
	ids := make([]int, 0, len(b.handlers))
	for id := range b.handlers {
		ids = append(ids, id)
	}
	handlers := make([]Handler, 0, len(ids))
	slices.Sort(ids)
	for _, id := range ids {
		handlers = append(handlers, b.handlers[id])
	}
	b.mu.RUnlock()

	for _, handler := range handlers {
		handler(msg)
	}
}

// Len returns the number of active subscribers
func (b *Bus) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.handlers)
}

// Decode reads one notification. Both the envelope form
// {"type": "...", "payload": {...}} and a bare auto-mode payload are
// accepted; a bare payload is wrapped under DefaultTopic.
func Decode(r io.Reader) (Message, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Message{}, fmt.Errorf("failed to read event; %w", err)
	}
	return DecodeBytes(data)
}

// DecodeBytes is Decode over an in-memory document
func DecodeBytes(data []byte) (Message, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return Message{}, fmt.Errorf("event is empty")
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return Message{}, fmt.Errorf("failed to decode event JSON; %w", err)
	}

	if raw, ok := fields["payload"]; ok {
		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			return Message{}, fmt.Errorf("failed to decode event envelope; %w", err)
		}
		msg.Payload = raw
		if msg.Type == "" {
			msg.Type = DefaultTopic
		}
		return msg, nil
	}

	return Message{Type: DefaultTopic, Payload: append(json.RawMessage(nil), data...)}, nil
}

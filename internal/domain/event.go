package domain

import (
	"context"
	"time"
)

// EventType identifies the kind of event being published.
type EventType string

const (
	// Frame channel lifecycle.
	EventStateChanged  EventType = "relay.state.changed"
	EventFrameReceived EventType = "relay.frame.received"

	// Command dispatch.
	EventCommandSent   EventType = "relay.command.sent"
	EventCommandFailed EventType = "relay.command.failed"
	EventNavCompleted  EventType = "relay.nav.completed"

	// Activity log updates.
	EventActivity EventType = "relay.activity"
)

// Event is the envelope published on the event bus. Events are edge
// triggers: they say that something changed, not what the current state
// is. Consumers read the authoritative snapshot (session state, latest
// frame, activity entries) after waking up, so a dropped or reordered
// event costs at most one refresh.
type Event struct {
	Type       EventType `json:"type"`
	Timestamp  time.Time `json:"timestamp"`
	Generation uint64    `json:"generation,omitempty"`
	Payload    any       `json:"payload,omitempty"`
}

// StateChangedPayload accompanies EventStateChanged.
type StateChangedPayload struct {
	State ConnState `json:"state"`
}

// CommandPayload accompanies EventCommandSent and EventCommandFailed.
type CommandPayload struct {
	Kind  CommandKind `json:"kind"`
	Error string      `json:"error,omitempty"`
}

// EventHandler is a callback invoked when an event is received.
type EventHandler func(ctx context.Context, event Event)

// EventBus provides a publish/subscribe mechanism for relay events.
type EventBus interface {
	// Publish sends an event to all matching subscribers.
	Publish(ctx context.Context, event Event)
	// Subscribe registers a handler for a specific event type.
	// Returns an unsubscribe function.
	Subscribe(eventType EventType, handler EventHandler) func()
	// SubscribeAll registers a handler that receives every event.
	// Returns an unsubscribe function.
	SubscribeAll(handler EventHandler) func()
	// Close drains in-flight handlers and prevents new publishes.
	Close()
}

package interfaces

import (
	"context"
	"time"
)

// EventType identifies a bridge lifecycle event
type EventType string

const (
	EventCommandEnqueued  EventType = "command_enqueued"
	EventCommandCompleted EventType = "command_completed"
	EventCommandFailed    EventType = "command_failed"
	EventQueueCleared     EventType = "queue_cleared"
)

// Event is a bridge lifecycle notification published to subscribers
type Event struct {
	Type      EventType   `json:"type"`
	Payload   interface{} `json:"payload,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

// EventHandler processes a published event
type EventHandler func(ctx context.Context, event Event)

// EventService is the in-process pub/sub used to fan command lifecycle
// events out to the WebSocket stream and any other subscribers.
type EventService interface {
	Subscribe(eventType EventType, handler EventHandler)
	SubscribeAll(handler EventHandler)
	Publish(ctx context.Context, event Event)
}

package interfaces

import "time"

// EventLevel classifies operational events streamed to websocket clients.
type EventLevel string

const (
	EventLevelInfo  EventLevel = "info"
	EventLevelWarn  EventLevel = "warn"
	EventLevelError EventLevel = "error"
)

// Event is a single operational event (analysis started, insight degraded,
// report rendered) pushed to connected websocket clients.
type Event struct {
	Timestamp time.Time  `json:"timestamp"`
	Level     EventLevel `json:"level"`
	Source    string     `json:"source"`
	Message   string     `json:"message"`
}

// EventService fans operational events out to subscribers.
type EventService interface {
	// Publish delivers an event to all subscribers. Never blocks on slow
	// consumers.
	Publish(event Event)

	// Subscribe registers a channel that receives subsequent events.
	// Returns an unsubscribe function.
	Subscribe(buffer int) (<-chan Event, func())

	// Close shuts down the event service
	Close() error
}

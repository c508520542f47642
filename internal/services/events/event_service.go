package events

import (
	"sync"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/insightx/internal/interfaces"
)

const defaultBuffer = 64

// Service implements EventService with channel-based fan-out. Each
// subscriber owns a buffered channel; a full buffer drops the event for
// that subscriber rather than stalling the publisher.
type Service struct {
	subscribers map[int]chan interfaces.Event
	nextID      int
	closed      bool
	mu          sync.RWMutex
	logger      arbor.ILogger
}

// NewService creates a new event service
func NewService(logger arbor.ILogger) interfaces.EventService {
	return &Service{
		subscribers: make(map[int]chan interfaces.Event),
		logger:      logger,
	}
}

// Publish sends an event to all subscribers without blocking
func (s *Service) Publish(event interfaces.Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	// Sends happen under the read lock so unsubscribe cannot close a
	// channel mid-delivery.
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return
	}

	for id, ch := range s.subscribers {
		select {
		case ch <- event:
		default:
			s.logger.Debug().
				Int("subscriber_id", id).
				Str("source", event.Source).
				Msg("Dropped event for slow subscriber")
		}
	}
}

// Subscribe registers a new subscriber channel and returns it with an
// unsubscribe function. Unsubscribing closes the channel.
func (s *Service) Subscribe(buffer int) (<-chan interfaces.Event, func()) {
	if buffer <= 0 {
		buffer = defaultBuffer
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	ch := make(chan interfaces.Event, buffer)
	if s.closed {
		close(ch)
		return ch, func() {}
	}

	id := s.nextID
	s.nextID++
	s.subscribers[id] = ch

	s.logger.Debug().
		Int("subscriber_id", id).
		Int("subscriber_count", len(s.subscribers)).
		Msg("Event subscriber registered")

	unsubscribe := func() {
		s.mu.Lock()
		defer s.mu.Unlock()

		if _, ok := s.subscribers[id]; !ok {
			return
		}
		delete(s.subscribers, id)
		close(ch)

		s.logger.Debug().
			Int("subscriber_id", id).
			Msg("Event subscriber removed")
	}

	return ch, unsubscribe
}

// Close shuts down the event service and closes all subscriber channels
func (s *Service) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	for id, ch := range s.subscribers {
		delete(s.subscribers, id)
		close(ch)
	}

	s.logger.Info().Msg("Event service closed")
	return nil
}

package events

import (
	"context"
	"sync"

	"meloch/internal/logger"
)

// MemoryPublisher keeps published events in memory. It backs the server
// when no broker is configured and serves as a recorder in tests.
type MemoryPublisher struct {
	mu     sync.Mutex
	events []Event
	limit  int
}

// NewMemoryPublisher keeps at most limit events; zero means unbounded.
func NewMemoryPublisher(limit int) *MemoryPublisher {
	return &MemoryPublisher{limit: limit}
}

func (m *MemoryPublisher) Publish(_ context.Context, e Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.events = append(m.events, e)
	if m.limit > 0 && len(m.events) > m.limit {
		m.events = m.events[len(m.events)-m.limit:]
	}
	logger.Get().Debugw("event recorded", "type", e.Type, "user_id", e.UserID)
	return nil
}

// Events returns a copy of the recorded events, oldest first.
func (m *MemoryPublisher) Events() []Event {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]Event, len(m.events))
	copy(out, m.events)
	return out
}

func (m *MemoryPublisher) Close() error { return nil }

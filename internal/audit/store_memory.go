package audit

import (
	"context"
	"sync"
)

// InMemoryStore keeps audit events in memory for development and tests.
type InMemoryStore struct {
	mu     sync.RWMutex
	events []Event
}

// NewInMemoryStore constructs an empty in-memory audit store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{}
}

func (s *InMemoryStore) Append(_ context.Context, event Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

// ListByIdentifier returns all events recorded for a certificate.
func (s *InMemoryStore) ListByIdentifier(_ context.Context, identifier string) ([]Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Event
	for _, event := range s.events {
		if event.Identifier == identifier {
			out = append(out, event)
		}
	}
	return out, nil
}

// All returns a copy of every recorded event.
func (s *InMemoryStore) All() []Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Event{}, s.events...)
}

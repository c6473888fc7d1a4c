package issuer

import (
	"context"
	"sync"

	"veriseal/pkg/platform/sentinel"
)

// InMemoryStore keeps issuers in memory. Issuer onboarding is an
// operator-driven, low-volume concern, so the in-memory store seeded at
// startup covers deployments without a directory backend.
type InMemoryStore struct {
	mu      sync.RWMutex
	issuers map[string]Issuer
}

// NewInMemoryStore constructs an empty in-memory issuer store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{issuers: make(map[string]Issuer)}
}

func (s *InMemoryStore) Save(_ context.Context, issuer Issuer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.issuers[issuer.ID]; exists {
		return sentinel.ErrConflict
	}
	s.issuers[issuer.ID] = issuer
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, id string) (Issuer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if issuer, ok := s.issuers[id]; ok {
		return issuer, nil
	}
	return Issuer{}, sentinel.ErrNotFound
}

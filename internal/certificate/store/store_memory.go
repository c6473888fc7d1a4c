package store

import (
	"context"
	"sort"
	"sync"

	"veriseal/internal/certificate/models"
	"veriseal/pkg/platform/sentinel"
)

// InMemoryStore keeps certificates in process memory. It intentionally
// favors clarity over performance and backs local development and tests.
type InMemoryStore struct {
	mu           sync.RWMutex
	byIdentifier map[string]*models.Certificate
	byDigest     map[string]string // digest -> identifier
}

// NewInMemoryStore constructs an empty in-memory certificate store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		byIdentifier: make(map[string]*models.Certificate),
		byDigest:     make(map[string]string),
	}
}

func (s *InMemoryStore) Insert(_ context.Context, cert *models.Certificate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.byIdentifier[cert.Identifier]; exists {
		return sentinel.ErrConflict
	}
	if _, exists := s.byDigest[cert.Digest]; exists {
		return sentinel.ErrConflict
	}
	clone := cloneCertificate(cert)
	s.byIdentifier[cert.Identifier] = clone
	s.byDigest[cert.Digest] = cert.Identifier
	return nil
}

func (s *InMemoryStore) Update(_ context.Context, cert *models.Certificate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.byIdentifier[cert.Identifier]
	if !ok {
		return sentinel.ErrNotFound
	}
	existing.Status = cert.Status
	existing.UpdatedAt = cert.UpdatedAt
	return nil
}

func (s *InMemoryStore) FindByIdentifier(_ context.Context, identifier string) (*models.Certificate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if cert, ok := s.byIdentifier[identifier]; ok {
		return cloneCertificate(cert), nil
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemoryStore) FindByIdentifierOrDigest(_ context.Context, identifier, digest string) (*models.Certificate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if cert, ok := s.byIdentifier[identifier]; ok {
		return cloneCertificate(cert), nil
	}
	if id, ok := s.byDigest[digest]; ok {
		if cert, ok := s.byIdentifier[id]; ok {
			return cloneCertificate(cert), nil
		}
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemoryStore) List(_ context.Context, statuses []models.Status) ([]*models.Certificate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	wanted := make(map[models.Status]bool, len(statuses))
	for _, status := range statuses {
		wanted[status] = true
	}
	out := make([]*models.Certificate, 0, len(s.byIdentifier))
	for _, cert := range s.byIdentifier {
		if len(wanted) > 0 && !wanted[cert.Status] {
			continue
		}
		out = append(out, cloneCertificate(cert))
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

// MutateForTest applies fn to the stored record in place, bypassing the
// immutability the public API enforces. Exists so tamper-detection tests can
// simulate an out-of-band storage edit.
func (s *InMemoryStore) MutateForTest(identifier string, fn func(*models.Certificate)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	cert, ok := s.byIdentifier[identifier]
	if !ok {
		return false
	}
	fn(cert)
	return true
}

func cloneCertificate(cert *models.Certificate) *models.Certificate {
	clone := *cert
	if cert.Extra != nil {
		clone.Extra = make(map[string]any, len(cert.Extra))
		for k, v := range cert.Extra {
			clone.Extra[k] = v
		}
	}
	return &clone
}

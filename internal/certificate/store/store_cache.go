package store

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"veriseal/internal/certificate/models"
)

const cacheKeyPrefix = "cert:irn:"

// CachedStore decorates a Store with a Redis read-through cache on the
// lookup paths the public verify endpoint hits. The cache is never
// authoritative: writes and revocations invalidate, and any Redis failure
// falls through to the primary store so a cache outage degrades latency,
// not correctness.
type CachedStore struct {
	next   Store
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// NewCachedStore wraps next with a Redis cache.
func NewCachedStore(next Store, client *redis.Client, ttl time.Duration, logger *slog.Logger) *CachedStore {
	return &CachedStore{next: next, client: client, ttl: ttl, logger: logger}
}

func (s *CachedStore) Insert(ctx context.Context, cert *models.Certificate) error {
	return s.next.Insert(ctx, cert)
}

func (s *CachedStore) Update(ctx context.Context, cert *models.Certificate) error {
	if err := s.next.Update(ctx, cert); err != nil {
		return err
	}
	// Invalidate after the primary write so a revocation is visible on the
	// next lookup rather than a TTL later.
	if err := s.client.Del(ctx, cacheKeyPrefix+cert.Identifier).Err(); err != nil {
		s.logger.WarnContext(ctx, "cache invalidation failed",
			"identifier", cert.Identifier,
			"error", err.Error(),
		)
	}
	return nil
}

func (s *CachedStore) FindByIdentifier(ctx context.Context, identifier string) (*models.Certificate, error) {
	if cert := s.cached(ctx, identifier); cert != nil {
		return cert, nil
	}
	cert, err := s.next.FindByIdentifier(ctx, identifier)
	if err != nil {
		return nil, err
	}
	s.fill(ctx, cert)
	return cert, nil
}

func (s *CachedStore) FindByIdentifierOrDigest(ctx context.Context, identifier, digest string) (*models.Certificate, error) {
	// Only the identifier leg is cacheable by key; digest queries go to the
	// primary store and still warm the cache for the record they resolve.
	if cert := s.cached(ctx, identifier); cert != nil {
		return cert, nil
	}
	cert, err := s.next.FindByIdentifierOrDigest(ctx, identifier, digest)
	if err != nil {
		return nil, err
	}
	s.fill(ctx, cert)
	return cert, nil
}

func (s *CachedStore) List(ctx context.Context, statuses []models.Status) ([]*models.Certificate, error) {
	return s.next.List(ctx, statuses)
}

func (s *CachedStore) cached(ctx context.Context, identifier string) *models.Certificate {
	raw, err := s.client.Get(ctx, cacheKeyPrefix+identifier).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	if err != nil {
		s.logger.WarnContext(ctx, "cache read failed", "error", err.Error())
		return nil
	}
	var cert models.Certificate
	if err := json.Unmarshal(raw, &cert); err != nil {
		s.logger.WarnContext(ctx, "cache entry corrupt", "identifier", identifier)
		_ = s.client.Del(ctx, cacheKeyPrefix+identifier).Err()
		return nil
	}
	return &cert
}

func (s *CachedStore) fill(ctx context.Context, cert *models.Certificate) {
	raw, err := json.Marshal(cert)
	if err != nil {
		return
	}
	if err := s.client.Set(ctx, cacheKeyPrefix+cert.Identifier, raw, s.ttl).Err(); err != nil {
		s.logger.WarnContext(ctx, "cache write failed", "error", err.Error())
	}
}

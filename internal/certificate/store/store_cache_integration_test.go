//go:build integration

package store

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"veriseal/internal/certificate/models"
	"veriseal/pkg/testutil/containers"
)

type CachedStoreSuite struct {
	suite.Suite
	redis   *containers.RedisContainer
	primary *InMemoryStore
	store   *CachedStore
	ctx     context.Context
}

func TestCachedStoreSuite(t *testing.T) {
	suite.Run(t, new(CachedStoreSuite))
}

func (s *CachedStoreSuite) SetupSuite() {
	s.ctx = context.Background()
	s.redis = containers.NewRedisContainer(s.T())
}

func (s *CachedStoreSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(s.ctx))
	s.primary = NewInMemoryStore()
	s.store = NewCachedStore(s.primary, s.redis.Client, time.Minute, slog.Default())
}

func (s *CachedStoreSuite) seed(identifier, digest string) *models.Certificate {
	now := time.Now().UTC()
	cert := &models.Certificate{
		Identifier:  identifier,
		Kind:        models.KindGeneral,
		SubjectName: "Jane Doe",
		IssuedAt:    now,
		Status:      models.StatusValid,
		Digest:      digest,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	s.Require().NoError(s.store.Insert(s.ctx, cert))
	return cert
}

func (s *CachedStoreSuite) TestReadThrough() {
	s.seed("2503-AAAAAA-000001", "digest-1")

	// First read misses and warms the cache.
	found, err := s.store.FindByIdentifier(s.ctx, "2503-AAAAAA-000001")
	s.Require().NoError(err)
	s.Equal("Jane Doe", found.SubjectName)

	exists, err := s.redis.Client.Exists(s.ctx, "cert:irn:2503-AAAAAA-000001").Result()
	s.Require().NoError(err)
	s.EqualValues(1, exists)

	// Second read is served from Redis: mutating the primary out of band
	// must not show through while the entry is live.
	s.Require().True(s.primary.MutateForTest("2503-AAAAAA-000001", func(c *models.Certificate) {
		c.SubjectName = "Mallory"
	}))
	cached, err := s.store.FindByIdentifier(s.ctx, "2503-AAAAAA-000001")
	s.Require().NoError(err)
	s.Equal("Jane Doe", cached.SubjectName)
}

func (s *CachedStoreSuite) TestDigestLookupWarmsCache() {
	s.seed("2503-BBBBBB-000001", "digest-2")

	found, err := s.store.FindByIdentifierOrDigest(s.ctx, "DIGEST-2", "digest-2")
	s.Require().NoError(err)
	s.Equal("2503-BBBBBB-000001", found.Identifier)

	exists, err := s.redis.Client.Exists(s.ctx, "cert:irn:2503-BBBBBB-000001").Result()
	s.Require().NoError(err)
	s.EqualValues(1, exists)
}

func (s *CachedStoreSuite) TestRevocationInvalidates() {
	cert := s.seed("2503-CCCCCC-000001", "digest-3")

	// Warm the cache with the valid record.
	_, err := s.store.FindByIdentifier(s.ctx, "2503-CCCCCC-000001")
	s.Require().NoError(err)

	cert.Status = models.StatusRevoked
	cert.UpdatedAt = time.Now().UTC()
	s.Require().NoError(s.store.Update(s.ctx, cert))

	// The revocation must be visible immediately, not a TTL later.
	found, err := s.store.FindByIdentifier(s.ctx, "2503-CCCCCC-000001")
	s.Require().NoError(err)
	s.Equal(models.StatusRevoked, found.Status)
}

func (s *CachedStoreSuite) TestCorruptEntryFallsThrough() {
	s.seed("2503-DDDDDD-000001", "digest-4")
	s.Require().NoError(s.redis.Client.Set(s.ctx, "cert:irn:2503-DDDDDD-000001", "{not json", time.Minute).Err())

	found, err := s.store.FindByIdentifier(s.ctx, "2503-DDDDDD-000001")
	s.Require().NoError(err)
	s.Equal("Jane Doe", found.SubjectName)
}

// Package issuer manages the organizations allowed to mint certificates and
// authenticates their API credentials.
package issuer

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"veriseal/internal/issuer/secrets"
	dErrors "veriseal/pkg/domain-errors"
	"veriseal/pkg/platform/sentinel"
)

// Store is the persistence surface the service needs.
type Store interface {
	Save(ctx context.Context, issuer Issuer) error
	FindByID(ctx context.Context, id string) (Issuer, error)
}

// Service authenticates issuer credentials and registers new issuers.
type Service struct {
	store  Store
	logger *slog.Logger
}

// New constructs a Service.
func New(store Store, logger *slog.Logger) *Service {
	return &Service{store: store, logger: logger}
}

// Register creates an issuer with the given plaintext secret, storing only
// its bcrypt hash.
func (s *Service) Register(ctx context.Context, id, name, secret string) error {
	if id == "" {
		return dErrors.New(dErrors.CodeValidation, "issuer id cannot be empty")
	}
	hash, err := secrets.Hash(secret)
	if err != nil {
		return err
	}
	err = s.store.Save(ctx, Issuer{
		ID:         id,
		Name:       name,
		SecretHash: hash,
		CreatedAt:  time.Now().UTC(),
	})
	if errors.Is(err, sentinel.ErrConflict) {
		return dErrors.New(dErrors.CodeConflict, "issuer already registered")
	}
	return err
}

// Authenticate verifies an issuer id and secret pair. Unknown issuer and
// wrong secret return the same error so probing cannot distinguish them.
func (s *Service) Authenticate(ctx context.Context, id, secret string) error {
	found, err := s.store.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeUnauthorized, "invalid issuer credentials")
		}
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "issuer store unavailable")
	}
	if err := secrets.Verify(secret, found.SecretHash); err != nil {
		if dErrors.HasCode(err, dErrors.CodeUnauthorized) {
			return dErrors.New(dErrors.CodeUnauthorized, "invalid issuer credentials")
		}
		return err
	}
	return nil
}

// Package store persists certificate records. Implementations return
// sentinel errors for infrastructure facts; services translate them into
// domain errors at the boundary.
package store

import (
	"context"

	"veriseal/internal/certificate/models"
)

// Store is the persistence contract shared by the in-memory, PostgreSQL,
// and cache-decorated implementations. Both identifier and digest must be
// backed by unique indexes: the identifier index is the real guard against
// the generate/check race during issuance.
type Store interface {
	// Insert persists a new record. Returns sentinel.ErrConflict when the
	// identifier or digest is already taken.
	Insert(ctx context.Context, cert *models.Certificate) error
	// Update rewrites the mutable fields (status, updated_at) of an existing
	// record. The digest and identifier are never updated.
	Update(ctx context.Context, cert *models.Certificate) error
	// FindByIdentifier looks up a record by its exact identifier.
	FindByIdentifier(ctx context.Context, identifier string) (*models.Certificate, error)
	// FindByIdentifierOrDigest resolves a verification query: identifier
	// equality on the first argument OR digest equality on the second. The
	// caller passes the uppercased form for the identifier leg and the raw
	// query for the digest leg, since digests are case-sensitive.
	FindByIdentifierOrDigest(ctx context.Context, identifier, digest string) (*models.Certificate, error)
	// List returns records filtered by status; an empty filter returns all.
	List(ctx context.Context, statuses []models.Status) ([]*models.Certificate, error)
}

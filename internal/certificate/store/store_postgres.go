package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"

	"veriseal/internal/certificate/models"
	"veriseal/pkg/platform/sentinel"
)

const uniqueViolation = "23505"

// PostgresStore persists certificates in PostgreSQL. The certificates table
// carries unique indexes on identifier and digest; a violation surfaces as
// sentinel.ErrConflict so the issuing service can regenerate and retry.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore constructs a PostgreSQL-backed certificate store.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Insert(ctx context.Context, cert *models.Certificate) error {
	extra, err := marshalExtra(cert.Extra)
	if err != nil {
		return err
	}
	query := `
		INSERT INTO certificates (
			identifier, kind, subject_name, enrollment_ref, course_ref,
			issued_at, status, digest, extra, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err = s.db.ExecContext(ctx, query,
		cert.Identifier,
		string(cert.Kind),
		cert.SubjectName,
		cert.EnrollmentRef,
		cert.CourseRef,
		cert.IssuedAt,
		string(cert.Status),
		cert.Digest,
		extra,
		cert.CreatedAt,
		cert.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert certificate: %w", err)
	}
	return nil
}

func (s *PostgresStore) Update(ctx context.Context, cert *models.Certificate) error {
	query := `
		UPDATE certificates
		SET status = $2, updated_at = $3
		WHERE identifier = $1
	`
	res, err := s.db.ExecContext(ctx, query, cert.Identifier, string(cert.Status), cert.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update certificate: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update certificate: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) FindByIdentifier(ctx context.Context, identifier string) (*models.Certificate, error) {
	row := s.db.QueryRowContext(ctx, selectCertificate+` WHERE identifier = $1`, identifier)
	return scanCertificate(row)
}

func (s *PostgresStore) FindByIdentifierOrDigest(ctx context.Context, identifier, digest string) (*models.Certificate, error) {
	row := s.db.QueryRowContext(ctx, selectCertificate+` WHERE identifier = $1 OR digest = $2`, identifier, digest)
	return scanCertificate(row)
}

func (s *PostgresStore) List(ctx context.Context, statuses []models.Status) ([]*models.Certificate, error) {
	query := selectCertificate
	args := []any{}
	if len(statuses) > 0 {
		raw := make([]string, len(statuses))
		for i, status := range statuses {
			raw[i] = string(status)
		}
		query += ` WHERE status = ANY($1)`
		args = append(args, pq.Array(raw))
	}
	query += ` ORDER BY created_at`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list certificates: %w", err)
	}
	defer rows.Close()

	var out []*models.Certificate
	for rows.Next() {
		cert, err := scanCertificate(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, cert)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list certificates: %w", err)
	}
	return out, nil
}

const selectCertificate = `
	SELECT identifier, kind, subject_name, enrollment_ref, course_ref,
	       issued_at, status, digest, extra, created_at, updated_at
	FROM certificates`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCertificate(row rowScanner) (*models.Certificate, error) {
	var (
		cert  models.Certificate
		kind  string
		state string
		extra []byte
	)
	err := row.Scan(
		&cert.Identifier,
		&kind,
		&cert.SubjectName,
		&cert.EnrollmentRef,
		&cert.CourseRef,
		&cert.IssuedAt,
		&state,
		&cert.Digest,
		&extra,
		&cert.CreatedAt,
		&cert.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("scan certificate: %w", err)
	}
	cert.Kind = models.Kind(kind)
	cert.Status = models.Status(state)
	if len(extra) > 0 {
		if err := json.Unmarshal(extra, &cert.Extra); err != nil {
			return nil, fmt.Errorf("decode certificate extra: %w", err)
		}
	}
	return &cert, nil
}

func marshalExtra(extra map[string]any) ([]byte, error) {
	if extra == nil {
		return []byte("{}"), nil
	}
	raw, err := json.Marshal(extra)
	if err != nil {
		return nil, fmt.Errorf("encode certificate extra: %w", err)
	}
	return raw, nil
}

// Migrate creates the certificates table. Both identifier and digest carry
// unique indexes; the identifier one is what actually defends against the
// generate/check race between concurrent issuances.
func Migrate(ctx context.Context, db *sql.DB) error {
	query := `
		CREATE TABLE IF NOT EXISTS certificates (
			identifier     TEXT PRIMARY KEY,
			kind           TEXT NOT NULL,
			subject_name   TEXT NOT NULL,
			enrollment_ref TEXT NOT NULL DEFAULT '',
			course_ref     TEXT NOT NULL DEFAULT '',
			issued_at      TIMESTAMPTZ NOT NULL,
			status         TEXT NOT NULL,
			digest         TEXT NOT NULL UNIQUE,
			extra          JSONB NOT NULL DEFAULT '{}',
			created_at     TIMESTAMPTZ NOT NULL,
			updated_at     TIMESTAMPTZ NOT NULL
		)
	`
	if _, err := db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("migrate certificates: %w", err)
	}
	return nil
}

package service

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"veriseal/internal/audit"
	"veriseal/internal/certificate/digest"
	"veriseal/internal/certificate/metrics"
	"veriseal/internal/certificate/models"
	"veriseal/internal/platform/middleware"
	dErrors "veriseal/pkg/domain-errors"
	"veriseal/pkg/platform/sentinel"
)

// maxIdentifierAttempts bounds the generate/check loop. The identifier
// format has ~2 billion random combinations per month-millisecond bucket, so
// hitting this bound means something is systematically wrong, not unlucky.
const maxIdentifierAttempts = 10

// CertificateStore is the persistence surface the service needs.
type CertificateStore interface {
	Insert(ctx context.Context, cert *models.Certificate) error
	Update(ctx context.Context, cert *models.Certificate) error
	FindByIdentifier(ctx context.Context, identifier string) (*models.Certificate, error)
	List(ctx context.Context, statuses []models.Status) ([]*models.Certificate, error)
}

// IdentifierGenerator produces candidate reference numbers.
type IdentifierGenerator interface {
	Generate() string
}

// AuditPublisher records issuance and revocation events.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Service orchestrates certificate issuance and lifecycle management.
type Service struct {
	store     CertificateStore
	generator IdentifierGenerator
	logger    *slog.Logger
	publisher AuditPublisher
	metrics   *metrics.Metrics
	now       func() time.Time
}

// Option configures a Service.
type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) {
		s.publisher = publisher
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// New constructs a Service.
func New(store CertificateStore, generator IdentifierGenerator, opts ...Option) *Service {
	s := &Service{
		store:     store,
		generator: generator,
		logger:    slog.Default(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Issue creates a certificate: allocate a unique reference number, freeze
// the digest over the hashed fields, persist. The pre-insert existence check
// keeps collisions cheap; the store's unique index is the actual guard, and
// a conflict on insert loops back into regeneration.
func (s *Service) Issue(ctx context.Context, req models.IssueRequest) (*models.Certificate, error) {
	start := s.now()

	cert, err := models.NewCertificate("", req.Kind, strings.TrimSpace(req.SubjectName),
		strings.TrimSpace(req.EnrollmentRef), strings.TrimSpace(req.CourseRef),
		req.IssuedAt, start.UTC(), req.Extra)
	if err != nil {
		return nil, err
	}

	for attempt := 0; attempt < maxIdentifierAttempts; attempt++ {
		candidate := s.generator.Generate()

		_, err := s.store.FindByIdentifier(ctx, candidate)
		if err == nil {
			s.metrics.IncrementIdentifierRetries()
			continue
		}
		if !errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "could not check reference number availability")
		}

		cert.Identifier = candidate
		cert.Digest = digest.Compute(cert.HashFields())

		if err := s.store.Insert(ctx, cert); err != nil {
			if errors.Is(err, sentinel.ErrConflict) {
				// Lost the race to a concurrent issuance; regenerate.
				s.metrics.IncrementIdentifierRetries()
				continue
			}
			return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "could not persist certificate")
		}

		s.metrics.IncrementIssued(string(cert.Kind))
		s.metrics.ObserveIssueLatency(s.now().Sub(start).Seconds())
		s.emit(ctx, audit.Event{
			Action:     audit.ActionCertificateIssued,
			ActorID:    middleware.GetIssuerID(ctx),
			Identifier: cert.Identifier,
			RequestID:  middleware.GetRequestID(ctx),
		})
		s.logger.InfoContext(ctx, "certificate issued",
			"identifier", cert.Identifier,
			"kind", string(cert.Kind),
		)
		return cert, nil
	}

	s.logger.ErrorContext(ctx, "reference number space exhausted",
		"attempts", maxIdentifierAttempts,
	)
	return nil, dErrors.New(dErrors.CodeInternal, "could not allocate a unique reference number")
}

// Revoke transitions a certificate from valid to revoked. The transition is
// one-way; revoking an already revoked certificate is an invariant
// violation.
func (s *Service) Revoke(ctx context.Context, identifier string) (*models.Certificate, error) {
	identifier = normalizeIdentifier(identifier)
	if identifier == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "reference number is required")
	}

	cert, err := s.store.FindByIdentifier(ctx, identifier)
	if err != nil {
		return nil, translateLookupErr(err)
	}

	if err := cert.Revoke(s.now().UTC()); err != nil {
		return nil, err
	}
	if err := s.store.Update(ctx, cert); err != nil {
		return nil, translateLookupErr(err)
	}

	s.metrics.IncrementRevoked()
	s.emit(ctx, audit.Event{
		Action:     audit.ActionCertificateRevoked,
		ActorID:    middleware.GetIssuerID(ctx),
		Identifier: cert.Identifier,
		RequestID:  middleware.GetRequestID(ctx),
	})
	s.logger.InfoContext(ctx, "certificate revoked", "identifier", cert.Identifier)
	return cert, nil
}

// Get fetches one certificate by reference number.
func (s *Service) Get(ctx context.Context, identifier string) (*models.Certificate, error) {
	identifier = normalizeIdentifier(identifier)
	if identifier == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "reference number is required")
	}
	cert, err := s.store.FindByIdentifier(ctx, identifier)
	if err != nil {
		return nil, translateLookupErr(err)
	}
	return cert, nil
}

// List returns certificates, optionally filtered by status.
func (s *Service) List(ctx context.Context, statuses []models.Status) ([]*models.Certificate, error) {
	certs, err := s.store.List(ctx, statuses)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "could not list certificates")
	}
	return certs, nil
}

func (s *Service) emit(ctx context.Context, event audit.Event) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Emit(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "audit emit failed", "error", err.Error())
	}
}

func normalizeIdentifier(identifier string) string {
	return strings.ToUpper(strings.TrimSpace(identifier))
}

func translateLookupErr(err error) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, "certificate not found")
	}
	return dErrors.Wrap(err, dErrors.CodeUnavailable, "certificate store unavailable")
}

// Package verify implements the public trust check: given a reference
// number or a digest, classify the matching certificate as valid, tampered,
// revoked, or invalid.
package verify

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"veriseal/internal/audit"
	"veriseal/internal/certificate/digest"
	"veriseal/internal/certificate/models"
	"veriseal/internal/platform/middleware"
	"veriseal/internal/verify/metrics"
	dErrors "veriseal/pkg/domain-errors"
	"veriseal/pkg/platform/sentinel"
)

var tracer = otel.Tracer("veriseal/verify")

// CertificateStore is the lookup surface verification needs. Reads may come
// through the cache decorator; nothing here writes.
type CertificateStore interface {
	FindByIdentifierOrDigest(ctx context.Context, identifier, digest string) (*models.Certificate, error)
}

// AuditPublisher records verification events.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Service is the verification engine. It is stateless: one storage read,
// one digest recomputation, one classification.
type Service struct {
	store     CertificateStore
	logger    *slog.Logger
	publisher AuditPublisher
	metrics   *metrics.Metrics
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

// New constructs a Service.
func New(store CertificateStore, opts ...Option) *Service {
	s := &Service{store: store, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Verify resolves a presented query to a trust verdict.
//
// The query may be a reference number or a digest; the caller does not say
// which. The identifier leg of the lookup is uppercase-normalized, the
// digest leg is matched on the raw trimmed query since digests are
// canonically lowercase hex. An empty query is a validation error and a
// storage failure an infrastructure error - both travel on the error
// channel, never as a classification.
func (s *Service) Verify(ctx context.Context, query string) (*Result, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "verification query is required")
	}

	ctx, span := tracer.Start(ctx, "verify.Verify")
	defer span.End()
	start := time.Now()

	cert, err := s.store.FindByIdentifierOrDigest(ctx, strings.ToUpper(query), query)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			// No detail about which index was consulted leaks out.
			result := &Result{
				Status:  ClassificationInvalid,
				Message: "Certificate not found. It may never have been issued.",
			}
			s.finish(ctx, span, start, result, "")
			return result, nil
		}
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "could not look up certificate")
	}

	classification, hashMatch := Classify(cert, func(c *models.Certificate) string {
		return digest.Compute(c.HashFields())
	})

	result := &Result{
		Status:      classification,
		HashMatch:   hashMatch,
		Certificate: detailOf(cert),
	}
	switch classification {
	case ClassificationRevoked:
		result.Message = "Certificate has been revoked by the issuer."
	case ClassificationTampered:
		result.Message = "Certificate data does not match its integrity digest."
		result.HashMessage = "Stored digest disagrees with recomputation; the record was altered after issuance."
	default:
		result.Message = "Certificate is authentic."
		result.HashMessage = "Stored digest matches recomputation."
	}

	s.finish(ctx, span, start, result, cert.Identifier)
	return result, nil
}

func (s *Service) finish(ctx context.Context, span trace.Span, start time.Time, result *Result, identifier string) {
	span.SetAttributes(attribute.String("verify.verdict", string(result.Status)))
	s.metrics.IncrementVerdict(string(result.Status))
	s.metrics.ObserveVerifyLatency(time.Since(start))

	meta := middleware.GetClientMeta(ctx)
	s.emit(ctx, audit.Event{
		Action:     audit.ActionCertificateVerified,
		Identifier: identifier,
		Verdict:    string(result.Status),
		RequestID:  middleware.GetRequestID(ctx),
		RemoteAddr: meta.RemoteAddr,
		Browser:    meta.Browser,
		OS:         meta.OS,
	})

	if result.Status != ClassificationValid {
		s.logger.InfoContext(ctx, "verification verdict",
			"verdict", string(result.Status),
			"identifier", identifier,
		)
	}
}

func (s *Service) emit(ctx context.Context, event audit.Event) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Emit(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "audit emit failed", "error", err.Error())
	}
}

package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"veriseal/internal/audit"
	"veriseal/internal/certificate/digest"
	"veriseal/internal/certificate/models"
	"veriseal/internal/certificate/service/mocks"
	dErrors "veriseal/pkg/domain-errors"
	"veriseal/pkg/platform/sentinel"
)

type serviceFixture struct {
	store     *mocks.MockCertificateStore
	generator *mocks.MockIdentifierGenerator
	publisher *mocks.MockAuditPublisher
	service   *Service
}

func newServiceFixture(t *testing.T) *serviceFixture {
	ctrl := gomock.NewController(t)
	f := &serviceFixture{
		store:     mocks.NewMockCertificateStore(ctrl),
		generator: mocks.NewMockIdentifierGenerator(ctrl),
		publisher: mocks.NewMockAuditPublisher(ctrl),
	}
	f.service = New(f.store, f.generator,
		WithAuditPublisher(f.publisher),
		WithClock(func() time.Time {
			return time.Date(2025, time.March, 14, 9, 26, 53, 0, time.UTC)
		}),
	)
	return f
}

func TestIssue(t *testing.T) {
	ctx := context.Background()
	req := models.IssueRequest{
		Kind:          models.KindMarksheet,
		SubjectName:   "Jane Doe",
		EnrollmentRef: "ENR001",
		CourseRef:     "CompSci",
	}

	t.Run("happy path freezes digest at issuance", func(t *testing.T) {
		f := newServiceFixture(t)
		f.generator.EXPECT().Generate().Return("2503-AB12CD-456789")
		f.store.EXPECT().FindByIdentifier(ctx, "2503-AB12CD-456789").Return(nil, sentinel.ErrNotFound)

		var inserted *models.Certificate
		f.store.EXPECT().Insert(ctx, gomock.Any()).DoAndReturn(
			func(_ context.Context, cert *models.Certificate) error {
				inserted = cert
				return nil
			})
		f.publisher.EXPECT().Emit(ctx, gomock.Any()).DoAndReturn(
			func(_ context.Context, event audit.Event) error {
				assert.Equal(t, audit.ActionCertificateIssued, event.Action)
				assert.Equal(t, "2503-AB12CD-456789", event.Identifier)
				return nil
			})

		cert, err := f.service.Issue(ctx, req)
		require.NoError(t, err)
		assert.Same(t, inserted, cert)
		assert.Equal(t, "2503-AB12CD-456789", cert.Identifier)
		assert.Equal(t, models.StatusValid, cert.Status)
		assert.Equal(t, digest.Compute("Jane Doe", "ENR001", "CompSci", "2503-AB12CD-456789"), cert.Digest)
	})

	t.Run("input whitespace is trimmed before hashing", func(t *testing.T) {
		f := newServiceFixture(t)
		f.generator.EXPECT().Generate().Return("2503-AB12CD-456789")
		f.store.EXPECT().FindByIdentifier(ctx, "2503-AB12CD-456789").Return(nil, sentinel.ErrNotFound)
		f.store.EXPECT().Insert(ctx, gomock.Any()).Return(nil)
		f.publisher.EXPECT().Emit(ctx, gomock.Any()).Return(nil)

		cert, err := f.service.Issue(ctx, models.IssueRequest{
			Kind:          models.KindMarksheet,
			SubjectName:   "  Jane Doe  ",
			EnrollmentRef: " ENR001 ",
			CourseRef:     " CompSci ",
		})
		require.NoError(t, err)
		assert.Equal(t, "Jane Doe", cert.SubjectName)
		assert.Equal(t, digest.Compute("Jane Doe", "ENR001", "CompSci", "2503-AB12CD-456789"), cert.Digest)
	})

	t.Run("taken candidates are retried until a free one", func(t *testing.T) {
		f := newServiceFixture(t)
		taken := &models.Certificate{Identifier: "taken"}
		gomock.InOrder(
			f.generator.EXPECT().Generate().Return("2503-TAKEN1-000001"),
			f.store.EXPECT().FindByIdentifier(ctx, "2503-TAKEN1-000001").Return(taken, nil),
			f.generator.EXPECT().Generate().Return("2503-TAKEN2-000002"),
			f.store.EXPECT().FindByIdentifier(ctx, "2503-TAKEN2-000002").Return(taken, nil),
			f.generator.EXPECT().Generate().Return("2503-FREE00-000003"),
			f.store.EXPECT().FindByIdentifier(ctx, "2503-FREE00-000003").Return(nil, sentinel.ErrNotFound),
			f.store.EXPECT().Insert(ctx, gomock.Any()).Return(nil),
		)
		f.publisher.EXPECT().Emit(ctx, gomock.Any()).Return(nil)

		cert, err := f.service.Issue(ctx, req)
		require.NoError(t, err)
		assert.Equal(t, "2503-FREE00-000003", cert.Identifier)
	})

	t.Run("insert conflict regenerates", func(t *testing.T) {
		// The pre-insert check can race with a concurrent issuance; the
		// unique index reports the loss and the loop picks a fresh number.
		f := newServiceFixture(t)
		gomock.InOrder(
			f.generator.EXPECT().Generate().Return("2503-RACE00-000001"),
			f.store.EXPECT().FindByIdentifier(ctx, "2503-RACE00-000001").Return(nil, sentinel.ErrNotFound),
			f.store.EXPECT().Insert(ctx, gomock.Any()).Return(sentinel.ErrConflict),
			f.generator.EXPECT().Generate().Return("2503-RACE00-000002"),
			f.store.EXPECT().FindByIdentifier(ctx, "2503-RACE00-000002").Return(nil, sentinel.ErrNotFound),
			f.store.EXPECT().Insert(ctx, gomock.Any()).Return(nil),
		)
		f.publisher.EXPECT().Emit(ctx, gomock.Any()).Return(nil)

		cert, err := f.service.Issue(ctx, req)
		require.NoError(t, err)
		assert.Equal(t, "2503-RACE00-000002", cert.Identifier)
	})

	t.Run("gives up after bounded attempts", func(t *testing.T) {
		f := newServiceFixture(t)
		taken := &models.Certificate{Identifier: "taken"}
		f.generator.EXPECT().Generate().Return("2503-TAKEN0-000000").Times(maxIdentifierAttempts)
		f.store.EXPECT().FindByIdentifier(ctx, "2503-TAKEN0-000000").Return(taken, nil).Times(maxIdentifierAttempts)

		_, err := f.service.Issue(ctx, req)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInternal))
	})

	t.Run("store outage surfaces as unavailable", func(t *testing.T) {
		f := newServiceFixture(t)
		f.generator.EXPECT().Generate().Return("2503-DOWN00-000001")
		f.store.EXPECT().FindByIdentifier(ctx, "2503-DOWN00-000001").Return(nil, errors.New("connection refused"))

		_, err := f.service.Issue(ctx, req)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnavailable))
	})

	t.Run("invalid request never reaches the store", func(t *testing.T) {
		f := newServiceFixture(t)
		_, err := f.service.Issue(ctx, models.IssueRequest{Kind: models.KindGeneral, SubjectName: "   "})
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})
}

func TestRevoke(t *testing.T) {
	ctx := context.Background()

	t.Run("valid certificate is revoked once", func(t *testing.T) {
		f := newServiceFixture(t)
		cert := &models.Certificate{Identifier: "2503-AB12CD-456789", Status: models.StatusValid}
		f.store.EXPECT().FindByIdentifier(ctx, "2503-AB12CD-456789").Return(cert, nil)
		f.store.EXPECT().Update(ctx, cert).Return(nil)
		f.publisher.EXPECT().Emit(ctx, gomock.Any()).DoAndReturn(
			func(_ context.Context, event audit.Event) error {
				assert.Equal(t, audit.ActionCertificateRevoked, event.Action)
				return nil
			})

		revoked, err := f.service.Revoke(ctx, "2503-AB12CD-456789")
		require.NoError(t, err)
		assert.Equal(t, models.StatusRevoked, revoked.Status)
	})

	t.Run("identifier is normalized before lookup", func(t *testing.T) {
		f := newServiceFixture(t)
		cert := &models.Certificate{Identifier: "2503-AB12CD-456789", Status: models.StatusValid}
		f.store.EXPECT().FindByIdentifier(ctx, "2503-AB12CD-456789").Return(cert, nil)
		f.store.EXPECT().Update(ctx, cert).Return(nil)
		f.publisher.EXPECT().Emit(ctx, gomock.Any()).Return(nil)

		_, err := f.service.Revoke(ctx, "  2503-ab12cd-456789  ")
		require.NoError(t, err)
	})

	t.Run("already revoked is rejected without an update", func(t *testing.T) {
		f := newServiceFixture(t)
		cert := &models.Certificate{Identifier: "2503-AB12CD-456789", Status: models.StatusRevoked}
		f.store.EXPECT().FindByIdentifier(ctx, "2503-AB12CD-456789").Return(cert, nil)

		_, err := f.service.Revoke(ctx, "2503-AB12CD-456789")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvariantViolation))
	})

	t.Run("unknown identifier", func(t *testing.T) {
		f := newServiceFixture(t)
		f.store.EXPECT().FindByIdentifier(ctx, "2503-ZZZZZZ-000000").Return(nil, sentinel.ErrNotFound)

		_, err := f.service.Revoke(ctx, "2503-ZZZZZZ-000000")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	t.Run("blank identifier", func(t *testing.T) {
		f := newServiceFixture(t)
		_, err := f.service.Revoke(ctx, "   ")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})
}

func TestGet(t *testing.T) {
	ctx := context.Background()

	t.Run("found", func(t *testing.T) {
		f := newServiceFixture(t)
		cert := &models.Certificate{Identifier: "2503-AB12CD-456789"}
		f.store.EXPECT().FindByIdentifier(ctx, "2503-AB12CD-456789").Return(cert, nil)

		got, err := f.service.Get(ctx, "2503-ab12cd-456789")
		require.NoError(t, err)
		assert.Same(t, cert, got)
	})

	t.Run("not found", func(t *testing.T) {
		f := newServiceFixture(t)
		f.store.EXPECT().FindByIdentifier(ctx, "2503-ZZZZZZ-000000").Return(nil, sentinel.ErrNotFound)

		_, err := f.service.Get(ctx, "2503-ZZZZZZ-000000")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func TestList(t *testing.T) {
	ctx := context.Background()

	t.Run("passes filter through", func(t *testing.T) {
		f := newServiceFixture(t)
		want := []*models.Certificate{{Identifier: "2503-AB12CD-456789"}}
		f.store.EXPECT().List(ctx, []models.Status{models.StatusValid}).Return(want, nil)

		got, err := f.service.List(ctx, []models.Status{models.StatusValid})
		require.NoError(t, err)
		assert.Equal(t, want, got)
	})

	t.Run("store failure", func(t *testing.T) {
		f := newServiceFixture(t)
		f.store.EXPECT().List(ctx, gomock.Nil()).Return(nil, errors.New("connection refused"))

		_, err := f.service.List(ctx, nil)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnavailable))
	})
}

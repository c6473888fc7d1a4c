package handler

import (
	"context"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"veriseal/internal/certificate/models"
	"veriseal/internal/jwtauth"
	dErrors "veriseal/pkg/domain-errors"
	"veriseal/pkg/testutil"
)

type stubService struct {
	issueFn  func(ctx context.Context, req models.IssueRequest) (*models.Certificate, error)
	revokeFn func(ctx context.Context, identifier string) (*models.Certificate, error)
	getFn    func(ctx context.Context, identifier string) (*models.Certificate, error)
	listFn   func(ctx context.Context, statuses []models.Status) ([]*models.Certificate, error)
}

func (s *stubService) Issue(ctx context.Context, req models.IssueRequest) (*models.Certificate, error) {
	return s.issueFn(ctx, req)
}

func (s *stubService) Revoke(ctx context.Context, identifier string) (*models.Certificate, error) {
	return s.revokeFn(ctx, identifier)
}

func (s *stubService) Get(ctx context.Context, identifier string) (*models.Certificate, error) {
	return s.getFn(ctx, identifier)
}

func (s *stubService) List(ctx context.Context, statuses []models.Status) ([]*models.Certificate, error) {
	return s.listFn(ctx, statuses)
}

type testEnv struct {
	router http.Handler
	tokens *jwtauth.Service
}

func newTestEnv(svc *stubService) *testEnv {
	tokens := jwtauth.New("test-signing-key", "veriseal", "veriseal-api")
	r := chi.NewRouter()
	New(svc, slog.Default(), tokens).Register(r)
	return &testEnv{router: r, tokens: tokens}
}

func (e *testEnv) authorize(t *testing.T, req *http.Request) *http.Request {
	t.Helper()
	token, err := e.tokens.GenerateToken("issuer-1", time.Minute)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}

func sampleCertificate() *models.Certificate {
	return &models.Certificate{
		Identifier:  "2503-AB12CD-456789",
		Kind:        models.KindGeneral,
		SubjectName: "Jane Doe",
		Status:      models.StatusValid,
		Digest:      "1152f6c25b42854324498543ed83e2842fce12764c07d8885980f319bae26548",
	}
}

func TestAuth(t *testing.T) {
	env := newTestEnv(&stubService{
		listFn: func(context.Context, []models.Status) ([]*models.Certificate, error) {
			return nil, nil
		},
	})

	t.Run("missing token", func(t *testing.T) {
		rr := testutil.DoRequest(env.router, testutil.NewRequest(t, http.MethodGet, "/api/certificates"))
		testutil.AssertStatus(t, rr, http.StatusUnauthorized)
	})

	t.Run("garbage token", func(t *testing.T) {
		req := testutil.NewRequest(t, http.MethodGet, "/api/certificates")
		req.Header.Set("Authorization", "Bearer not-a-jwt")
		rr := testutil.DoRequest(env.router, req)
		testutil.AssertStatus(t, rr, http.StatusUnauthorized)
	})

	t.Run("token signed with another key", func(t *testing.T) {
		foreign := jwtauth.New("other-key", "veriseal", "veriseal-api")
		token, err := foreign.GenerateToken("issuer-1", time.Minute)
		require.NoError(t, err)

		req := testutil.NewRequest(t, http.MethodGet, "/api/certificates")
		req.Header.Set("Authorization", "Bearer "+token)
		rr := testutil.DoRequest(env.router, req)
		testutil.AssertStatus(t, rr, http.StatusUnauthorized)
	})

	t.Run("valid token passes", func(t *testing.T) {
		rr := testutil.DoRequest(env.router,
			env.authorize(t, testutil.NewRequest(t, http.MethodGet, "/api/certificates")))
		testutil.AssertStatusOK(t, rr)
	})
}

func TestHandleIssue(t *testing.T) {
	t.Run("created", func(t *testing.T) {
		env := newTestEnv(&stubService{
			issueFn: func(_ context.Context, req models.IssueRequest) (*models.Certificate, error) {
				assert.Equal(t, models.KindGeneral, req.Kind)
				assert.Equal(t, "Jane Doe", req.SubjectName)
				return sampleCertificate(), nil
			},
		})

		rr := testutil.DoRequest(env.router, env.authorize(t,
			testutil.NewJSONRequest(t, http.MethodPost, "/api/certificates",
				map[string]any{"kind": "General", "subject_name": "Jane Doe"})))
		testutil.AssertStatus(t, rr, http.StatusCreated)
		testutil.AssertJSONContains(t, rr, "identifier", "2503-AB12CD-456789")
		testutil.AssertJSONHasKey(t, rr, "digest")
	})

	t.Run("malformed body", func(t *testing.T) {
		env := newTestEnv(&stubService{
			issueFn: func(context.Context, models.IssueRequest) (*models.Certificate, error) {
				t.Fatal("service must not run for a malformed body")
				return nil, nil
			},
		})

		rr := testutil.DoRequest(env.router, env.authorize(t,
			testutil.NewRequestWithBody(t, http.MethodPost, "/api/certificates", "{not json")))
		testutil.AssertStatusAndError(t, rr, http.StatusBadRequest, string(dErrors.CodeBadRequest))
	})

	t.Run("validation failure", func(t *testing.T) {
		env := newTestEnv(&stubService{
			issueFn: func(context.Context, models.IssueRequest) (*models.Certificate, error) {
				return nil, dErrors.New(dErrors.CodeValidation, "subject name is required")
			},
		})

		rr := testutil.DoRequest(env.router, env.authorize(t,
			testutil.NewJSONRequest(t, http.MethodPost, "/api/certificates",
				map[string]any{"kind": "General"})))
		testutil.AssertStatusAndError(t, rr, http.StatusBadRequest, string(dErrors.CodeValidation))
	})

	t.Run("exhausted identifier space", func(t *testing.T) {
		env := newTestEnv(&stubService{
			issueFn: func(context.Context, models.IssueRequest) (*models.Certificate, error) {
				return nil, dErrors.New(dErrors.CodeInternal, "could not allocate a unique reference number")
			},
		})

		rr := testutil.DoRequest(env.router, env.authorize(t,
			testutil.NewJSONRequest(t, http.MethodPost, "/api/certificates",
				map[string]any{"kind": "General", "subject_name": "Jane Doe"})))
		testutil.AssertStatusAndError(t, rr, http.StatusInternalServerError, string(dErrors.CodeInternal))
	})
}

func TestHandleGet(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		env := newTestEnv(&stubService{
			getFn: func(_ context.Context, identifier string) (*models.Certificate, error) {
				assert.Equal(t, "2503-AB12CD-456789", identifier)
				return sampleCertificate(), nil
			},
		})

		rr := testutil.DoRequest(env.router, env.authorize(t,
			testutil.NewRequest(t, http.MethodGet, "/api/certificates/2503-AB12CD-456789")))
		testutil.AssertStatusOK(t, rr)
		testutil.AssertJSONContains(t, rr, "subject_name", "Jane Doe")
	})

	t.Run("not found", func(t *testing.T) {
		env := newTestEnv(&stubService{
			getFn: func(context.Context, string) (*models.Certificate, error) {
				return nil, dErrors.New(dErrors.CodeNotFound, "certificate not found")
			},
		})

		rr := testutil.DoRequest(env.router, env.authorize(t,
			testutil.NewRequest(t, http.MethodGet, "/api/certificates/2503-ZZZZZZ-000000")))
		testutil.AssertStatusAndError(t, rr, http.StatusNotFound, string(dErrors.CodeNotFound))
	})
}

func TestHandleList(t *testing.T) {
	env := newTestEnv(&stubService{
		listFn: func(_ context.Context, statuses []models.Status) ([]*models.Certificate, error) {
			assert.Equal(t, []models.Status{models.StatusRevoked}, statuses)
			return []*models.Certificate{sampleCertificate()}, nil
		},
	})

	rr := testutil.DoRequest(env.router, env.authorize(t,
		testutil.NewRequest(t, http.MethodGet, "/api/certificates?status=revoked")))
	testutil.AssertStatusOK(t, rr)
	testutil.AssertJSONHasKey(t, rr, "certificates")
}

func TestHandleRevoke(t *testing.T) {
	t.Run("revoked", func(t *testing.T) {
		env := newTestEnv(&stubService{
			revokeFn: func(_ context.Context, identifier string) (*models.Certificate, error) {
				assert.Equal(t, "2503-AB12CD-456789", identifier)
				cert := sampleCertificate()
				cert.Status = models.StatusRevoked
				return cert, nil
			},
		})

		rr := testutil.DoRequest(env.router, env.authorize(t,
			testutil.NewRequest(t, http.MethodPost, "/api/certificates/2503-AB12CD-456789/revoke")))
		testutil.AssertStatusOK(t, rr)
		testutil.AssertJSONContains(t, rr, "status", "revoked")
	})

	t.Run("already revoked conflicts", func(t *testing.T) {
		env := newTestEnv(&stubService{
			revokeFn: func(context.Context, string) (*models.Certificate, error) {
				return nil, dErrors.New(dErrors.CodeInvariantViolation, "certificate is already revoked")
			},
		})

		rr := testutil.DoRequest(env.router, env.authorize(t,
			testutil.NewRequest(t, http.MethodPost, "/api/certificates/2503-AB12CD-456789/revoke")))
		testutil.AssertStatusAndError(t, rr, http.StatusConflict, string(dErrors.CodeInvariantViolation))
	})
}

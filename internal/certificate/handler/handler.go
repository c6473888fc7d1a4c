package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"veriseal/internal/certificate/models"
	"veriseal/internal/platform/middleware"
	"veriseal/internal/transport/http/shared"
	dErrors "veriseal/pkg/domain-errors"
)

// Service defines the interface for certificate lifecycle operations.
type Service interface {
	Issue(ctx context.Context, req models.IssueRequest) (*models.Certificate, error)
	Revoke(ctx context.Context, identifier string) (*models.Certificate, error)
	Get(ctx context.Context, identifier string) (*models.Certificate, error)
	List(ctx context.Context, statuses []models.Status) ([]*models.Certificate, error)
}

// Handler handles the issuer-facing certificate endpoints.
type Handler struct {
	logger       *slog.Logger
	certificates Service
	jwtValidator middleware.JWTValidator
}

// New creates a certificate Handler.
func New(certificates Service, logger *slog.Logger, jwtValidator middleware.JWTValidator) *Handler {
	return &Handler{
		logger:       logger,
		certificates: certificates,
		jwtValidator: jwtValidator,
	}
}

// Register registers the certificate routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	certRouter := chi.NewRouter()
	certRouter.Use(middleware.Timeout(30 * time.Second))
	certRouter.Use(middleware.ContentTypeJSON)
	certRouter.Use(middleware.RequireAuth(h.jwtValidator, h.logger))
	certRouter.Post("/", h.handleIssue)
	certRouter.Get("/", h.handleList)
	certRouter.Get("/{irn}", h.handleGet)
	certRouter.Post("/{irn}/revoke", h.handleRevoke)

	r.Mount("/api/certificates", certRouter)
}

func (h *Handler) handleIssue(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req models.IssueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.WarnContext(ctx, "invalid issue request",
			"request_id", middleware.GetRequestID(ctx),
			"error", err.Error(),
		)
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	cert, err := h.certificates.Issue(ctx, req)
	if err != nil {
		h.writeServiceError(w, r, "issue certificate", err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, cert)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	cert, err := h.certificates.Get(r.Context(), chi.URLParam(r, "irn"))
	if err != nil {
		h.writeServiceError(w, r, "get certificate", err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, cert)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	var statuses []models.Status
	for _, raw := range r.URL.Query()["status"] {
		statuses = append(statuses, models.Status(raw))
	}
	certs, err := h.certificates.List(r.Context(), statuses)
	if err != nil {
		h.writeServiceError(w, r, "list certificates", err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{"certificates": certs})
}

func (h *Handler) handleRevoke(w http.ResponseWriter, r *http.Request) {
	cert, err := h.certificates.Revoke(r.Context(), chi.URLParam(r, "irn"))
	if err != nil {
		h.writeServiceError(w, r, "revoke certificate", err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, cert)
}

func (h *Handler) writeServiceError(w http.ResponseWriter, r *http.Request, op string, err error) {
	ctx := r.Context()
	code := dErrors.CodeOf(err)
	switch code {
	case dErrors.CodeValidation, dErrors.CodeBadRequest, dErrors.CodeNotFound, dErrors.CodeInvariantViolation:
		h.logger.WarnContext(ctx, "rejected "+op,
			"request_id", middleware.GetRequestID(ctx),
			"error", err.Error(),
		)
	default:
		h.logger.ErrorContext(ctx, "failed to "+op,
			"request_id", middleware.GetRequestID(ctx),
			"error", err.Error(),
		)
	}
	shared.WriteError(w, err)
}

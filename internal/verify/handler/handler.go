package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"veriseal/internal/platform/middleware"
	"veriseal/internal/transport/http/shared"
	"veriseal/internal/verify"
	dErrors "veriseal/pkg/domain-errors"
)

// Service defines the interface for verification.
type Service interface {
	Verify(ctx context.Context, query string) (*verify.Result, error)
}

// Handler handles the public verification endpoints. No authentication:
// anyone holding a certificate may check it.
type Handler struct {
	logger   *slog.Logger
	verifier Service
}

// New creates a verification Handler.
func New(verifier Service, logger *slog.Logger) *Handler {
	return &Handler{logger: logger, verifier: verifier}
}

// Register registers the verification routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	verifyRouter := chi.NewRouter()
	verifyRouter.Use(middleware.Timeout(10 * time.Second))
	verifyRouter.Use(middleware.CollectClientMeta)
	verifyRouter.Get("/{query}", h.handleVerifyPath)
	verifyRouter.Post("/", h.handleVerifyBody)

	r.Mount("/verify", verifyRouter)
}

func (h *Handler) handleVerifyPath(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, chi.URLParam(r, "query"))
}

func (h *Handler) handleVerifyBody(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Query string `json:"query"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	h.respond(w, r, req.Query)
}

// respond runs the verification and writes the verdict. All four
// classifications are 200s - they are answers, not errors. Only a malformed
// query or an unreachable store surfaces as an HTTP failure.
func (h *Handler) respond(w http.ResponseWriter, r *http.Request, query string) {
	ctx := r.Context()
	result, err := h.verifier.Verify(ctx, query)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeValidation) {
			shared.WriteError(w, err)
			return
		}
		h.logger.ErrorContext(ctx, "verification failed",
			"request_id", middleware.GetRequestID(ctx),
			"error", err.Error(),
		)
		shared.WriteError(w, dErrors.New(dErrors.CodeUnavailable, "verification temporarily unavailable"))
		return
	}
	shared.WriteJSON(w, http.StatusOK, result)
}

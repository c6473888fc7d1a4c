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
	dErrors "veriseal/pkg/domain-errors"
)

// Authenticator verifies issuer credentials.
type Authenticator interface {
	Authenticate(ctx context.Context, id, secret string) error
}

// TokenMinter mints issuer access tokens.
type TokenMinter interface {
	GenerateToken(issuerID string, expiresIn time.Duration) (string, error)
}

// Handler exchanges issuer credentials for bearer tokens.
type Handler struct {
	logger   *slog.Logger
	issuers  Authenticator
	tokens   TokenMinter
	tokenTTL time.Duration
}

// New creates a token Handler.
func New(issuers Authenticator, tokens TokenMinter, tokenTTL time.Duration, logger *slog.Logger) *Handler {
	return &Handler{
		logger:   logger,
		issuers:  issuers,
		tokens:   tokens,
		tokenTTL: tokenTTL,
	}
}

// Register registers the token route with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/api/tokens", h.handleCreateToken)
}

func (h *Handler) handleCreateToken(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req struct {
		IssuerID string `json:"issuer_id"`
		Secret   string `json:"secret"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	if err := h.issuers.Authenticate(ctx, req.IssuerID, req.Secret); err != nil {
		h.logger.WarnContext(ctx, "issuer authentication failed",
			"request_id", middleware.GetRequestID(ctx),
			"issuer_id", req.IssuerID,
		)
		shared.WriteError(w, err)
		return
	}

	token, err := h.tokens.GenerateToken(req.IssuerID, h.tokenTTL)
	if err != nil {
		h.logger.ErrorContext(ctx, "token mint failed",
			"request_id", middleware.GetRequestID(ctx),
			"error", err.Error(),
		)
		shared.WriteError(w, dErrors.New(dErrors.CodeInternal, "could not issue token"))
		return
	}

	shared.WriteJSON(w, http.StatusOK, map[string]any{
		"access_token": token,
		"token_type":   "Bearer",
		"expires_in":   int(h.tokenTTL.Seconds()),
	})
}

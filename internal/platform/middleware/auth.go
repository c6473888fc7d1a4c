package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
)

// JWTValidator defines the interface for validating JWT tokens
type JWTValidator interface {
	ValidateToken(tokenString string) (*JWTClaims, error)
}

// JWTClaims represents the claims we expect from the JWT validator
type JWTClaims struct {
	IssuerID string
	Subject  string
}

type contextKeyIssuerID struct{}

// GetIssuerID retrieves the authenticated issuer ID from the context.
func GetIssuerID(ctx context.Context) string {
	issuerID, ok := ctx.Value(contextKeyIssuerID{}).(string)
	if !ok {
		return ""
	}
	return issuerID
}

// RequireAuth enforces a Bearer token on issuer-facing endpoints and places
// the authenticated issuer ID in the request context.
func RequireAuth(validator JWTValidator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" || !strings.HasPrefix(header, "Bearer ") {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			claims, err := validator.ValidateToken(strings.TrimPrefix(header, "Bearer "))
			if err != nil {
				logger.WarnContext(r.Context(), "rejected bearer token",
					"error", err.Error(),
					"request_id", GetRequestID(r.Context()),
				)
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			ctx := context.WithValue(r.Context(), contextKeyIssuerID{}, claims.IssuerID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

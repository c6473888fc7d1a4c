package httpserver

import (
	"net/http"
	"time"
)

// New builds the HTTP server. The header timeout guards against
// slow-loris connections; per-request deadlines live in the feature
// routers' timeout middleware.
func New(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}

package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/mssola/useragent"
)

// ClientMeta describes the caller of a public endpoint. It feeds audit
// events only; nothing in the verification decision reads it.
type ClientMeta struct {
	RemoteAddr string
	Browser    string
	OS         string
	Mobile     bool
	Bot        bool
}

type contextKeyClientMeta struct{}

// CollectClientMeta parses the User-Agent header once per request and stores
// the result in the context for audit enrichment.
func CollectClientMeta(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ua := useragent.New(r.UserAgent())
		browser, version := ua.Browser()

		meta := ClientMeta{
			RemoteAddr: remoteAddr(r),
			Browser:    strings.TrimSpace(browser + " " + version),
			OS:         ua.OS(),
			Mobile:     ua.Mobile(),
			Bot:        ua.Bot(),
		}
		ctx := context.WithValue(r.Context(), contextKeyClientMeta{}, meta)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetClientMeta retrieves the client metadata from the context.
func GetClientMeta(ctx context.Context) ClientMeta {
	meta, ok := ctx.Value(contextKeyClientMeta{}).(ClientMeta)
	if !ok {
		return ClientMeta{}
	}
	return meta
}

func remoteAddr(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		parts := strings.Split(fwd, ",")
		return strings.TrimSpace(parts[0])
	}
	return r.RemoteAddr
}

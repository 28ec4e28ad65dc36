package middleware

import (
	"crypto/subtle"
	"log/slog"
	"net/http"
	"strings"

	"github.com/novuscrm/syncwork/internal/infrastructure/http/response"
)

// CronAuth is HTTP middleware authenticating the cron-triggered endpoints
// against a single shared bearer token. The webhook endpoint does not use
// it; webhook deliveries are checked by signature in the ingress service.
type CronAuth struct {
	token string
}

// NewCronAuth creates cron-trigger auth middleware for the given shared
// secret. token must be non-empty; an empty token means cron auth was
// misconfigured and every request is rejected.
func NewCronAuth(token string) *CronAuth {
	return &CronAuth{token: token}
}

// Validate is a Chi middleware that checks "Authorization: Bearer <token>"
// against the configured shared secret using a constant-time comparison.
func (a *CronAuth) Validate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			slog.WarnContext(r.Context(), "cron auth failed: missing Authorization header",
				"path", r.URL.Path, "method", r.Method)
			response.Unauthorized(w, "missing Authorization header")
			return
		}

		provided, found := strings.CutPrefix(authHeader, "Bearer ")
		if !found {
			slog.WarnContext(r.Context(), "cron auth failed: invalid Authorization header format",
				"path", r.URL.Path, "method", r.Method)
			response.Unauthorized(w, "invalid Authorization header format, expected: Bearer <token>")
			return
		}

		if a.token == "" || subtle.ConstantTimeCompare([]byte(provided), []byte(a.token)) != 1 {
			slog.WarnContext(r.Context(), "cron auth failed: token mismatch",
				"path", r.URL.Path, "method", r.Method)
			response.Unauthorized(w, "invalid token")
			return
		}

		next.ServeHTTP(w, r)
	})
}

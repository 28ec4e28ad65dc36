// Package middleware holds the cron/webhook HTTP surface's request
// middleware: body size limiting and cron bearer-token authentication.
package middleware

import (
	"bytes"
	"io"
	"log/slog"
	"net/http"

	"github.com/novuscrm/syncwork/internal/infrastructure/http/response"
)

// MaxBodyBytes limits request body size with a fast Content-Length check
// followed by a MaxBytesReader guard against spoofed or chunked bodies.
func MaxBodyBytes(maxBytes int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.ContentLength > 0 && r.ContentLength > maxBytes {
				response.PayloadTooLarge(w, "request body exceeds size limit")
				return
			}

			body := http.MaxBytesReader(w, r.Body, maxBytes)
			buf, err := io.ReadAll(body)
			if err != nil {
				slog.WarnContext(r.Context(), "request body size limit exceeded",
					"method", r.Method, "path", r.URL.Path, "content_length", r.ContentLength, "limit", maxBytes)
				response.PayloadTooLarge(w, "request body exceeds size limit")
				return
			}

			r.Body = io.NopCloser(bytes.NewReader(buf))
			next.ServeHTTP(w, r)
		})
	}
}

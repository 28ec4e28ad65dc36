// Package http assembles the cron-trigger and webhook HTTP surface:
// a thin layer over the queue, document-queue, and sync packages with no
// business logic of its own.
package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	mw "github.com/novuscrm/syncwork/internal/infrastructure/http/middleware"
)

// RouterConfig bundles the handlers and middleware config setupRouter needs.
type RouterConfig struct {
	Cron *CronHandler
	Webhooks *WebhookHandler
	CronAuthToken string
	MaxBodyBytes int64
}

// NewRouter builds the chi router: an open health check, bearer-token-gated
// cron tick endpoints, and the open webhook endpoint (authenticated instead
// by HMAC signature inside WebhookHandler, per ).
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(func(next http.Handler) http.Handler {
 return otelhttp.NewHandler(next, "syncwork.http")
	})
	r.Use(mw.MaxBodyBytes(cfg.MaxBodyBytes))

	r.Get("/health", healthCheck)

	r.Route("/cron", func(r chi.Router) {
 cronAuth:= mw.NewCronAuth(cfg.CronAuthToken)
 r.Use(cronAuth.Validate)

 r.Get("/jobs", cfg.Cron.Jobs)
 r.Get("/document-queue", cfg.Cron.DocumentQueue)
 r.Get("/sync-queue", cfg.Cron.SyncQueue)
 r.Get("/jira-refresh", cfg.Cron.JiraRefresh)
 r.Get("/email-monitor", cfg.Cron.EmailMonitor)
 r.Get("/team-sync", cfg.Cron.TeamSync)
	})

	r.Post("/webhooks/{board}", cfg.Webhooks.Handle)

	return r
}

func healthCheck(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/novuscrm/syncwork/internal/infrastructure/http/response"
	"github.com/novuscrm/syncwork/internal/sync"
)

// WebhookHandler exposes POST /webhooks/<board>, the external board's
// event-delivery endpoint.
type WebhookHandler struct {
	ingress *sync.IngressService
}

// NewWebhookHandler builds a WebhookHandler.
func NewWebhookHandler(ingress *sync.IngressService) *WebhookHandler {
	return &WebhookHandler{ingress: ingress}
}

// Handle reads and dispatches one webhook delivery, distinguishing
// size/auth failures (413/401) from a malformed body (400) as required by
// 's acceptance criteria.
func (h *WebhookHandler) Handle(w http.ResponseWriter, r *http.Request) {
	board:= chi.URLParam(r, "board")

	body, err:= sync.ReadBody(r)
	if err != nil {
 if errors.Is(err, sync.ErrPayloadTooLarge) {
 response.PayloadTooLarge(w, "webhook payload exceeds size limit")
 return
 }
 response.BadRequest(w, "failed to read request body")
 return
	}

	challenge, result, err:= h.ingress.HandleWebhook(r.Context(), body)
	if err != nil {
 if errors.Is(err, sync.ErrInvalidSignature) {
 response.Unauthorized(w, "invalid webhook signature")
 return
 }
 var syntaxErr *json.SyntaxError
 if errors.As(err, &syntaxErr) {
 response.BadRequest(w, "malformed webhook payload")
 return
 }
 slog.ErrorContext(r.Context(), "webhook handling failed", "board", board, "error", err)
 response.FromDomainError(w, r, err)
 return
	}

	if challenge != nil {
 response.OK(w, challenge)
 return
	}
	response.OK(w, result)
}

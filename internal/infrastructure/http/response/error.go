package response

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/novuscrm/syncwork/internal/domain"
)

// ErrorResponse is the standard error response format.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains error information.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error sends a generic error response.
func Error(w http.ResponseWriter, code, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(ErrorResponse{Error: ErrorDetail{Code: code, Message: message}}); err != nil {
		slog.Error("failed to encode error response", "error", err)
	}
}

// BadRequest sends a 400 Bad Request error.
func BadRequest(w http.ResponseWriter, message string) {
	Error(w, "INVALID_REQUEST", message, http.StatusBadRequest)
}

// NotFound sends a 404 Not Found error.
func NotFound(w http.ResponseWriter, resource string) {
	Error(w, "NOT_FOUND", resource+" not found", http.StatusNotFound)
}

// Unauthorized sends a 401 Unauthorized error.
func Unauthorized(w http.ResponseWriter, message string) {
	Error(w, "UNAUTHORIZED", message, http.StatusUnauthorized)
}

// PayloadTooLarge sends a 413 Request Entity Too Large error.
func PayloadTooLarge(w http.ResponseWriter, message string) {
	Error(w, "PAYLOAD_TOO_LARGE", message, http.StatusRequestEntityTooLarge)
}

// InternalError logs the actual error server-side and returns a generic
// message to the client to avoid information disclosure.
func InternalError(w http.ResponseWriter, r *http.Request, err error) {
	if err != nil {
		slog.ErrorContext(r.Context(), "internal server error", "error", err)
	}
	Error(w, "INTERNAL_ERROR", "an internal error occurred", http.StatusInternalServerError)
}

// FromDomainError maps a domain sentinel error to the matching HTTP response.
func FromDomainError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidArgument), errors.Is(err, domain.ErrInvalidID):
		BadRequest(w, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		NotFound(w, "resource")
	case errors.Is(err, domain.ErrUnauthorized):
		Unauthorized(w, "invalid or missing credentials")
	case errors.Is(err, domain.ErrForbidden):
		Error(w, "FORBIDDEN", "forbidden", http.StatusForbidden)
	case errors.Is(err, domain.ErrDuplicate):
		Error(w, "CONFLICT", err.Error(), http.StatusConflict)
	case errors.Is(err, domain.ErrConfigurationError):
		Error(w, "CONFIGURATION_ERROR", err.Error(), http.StatusUnprocessableEntity)
	default:
		InternalError(w, r, err)
	}
}

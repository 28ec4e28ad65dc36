package domain

import "errors"

// Domain errors returned by repositories and services. Handlers and HTTP
// adapters use errors.Is/errors.As against these to classify failures.
var (
	// ErrNotFound indicates the requested resource does not exist.
	ErrNotFound = errors.New("resource not found")

	// ErrInvalidID indicates a malformed UID.
	ErrInvalidID = errors.New("invalid ID format")

	// ErrInvalidArgument indicates a caller-supplied value failed validation.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrConfigurationError indicates the integration/board is not configured.
	ErrConfigurationError = errors.New("configuration error")

	// ErrUnauthorized indicates a failed authentication check.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden indicates an authenticated caller lacking permission.
	ErrForbidden = errors.New("forbidden")

	// ErrDuplicate indicates a uniqueness constraint violation (e.g. tag name).
	ErrDuplicate = errors.New("duplicate")

	// ErrNoHandler indicates no handler is registered for a job type.
	ErrNoHandler = errors.New("no handler registered")

	// ErrJobNotPending indicates an operation that requires a pending job
	// (e.g. cancel) was attempted on a job in another state.
	ErrJobNotPending = errors.New("job is not pending")

	// ErrFileNotFoundInStorage indicates the storage adapter found no object
	// at the document's storage path. Non-retryable.
	ErrFileNotFoundInStorage = errors.New("file not found in storage")

	// ErrUnsupportedMimeType indicates the text extractor has no support for
	// the document's MIME type. Non-retryable.
	ErrUnsupportedMimeType = errors.New("unsupported MIME type")
)

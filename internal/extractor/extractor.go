// Package extractor defines the text-extraction external collaborator:
// turning a document's raw bytes into plain text, given its MIME
// type. File-type-specific extraction is explicitly out of scope for this
// system; callers inject a concrete implementation.
package extractor

import (
	"context"
	"fmt"

	"github.com/novuscrm/syncwork/internal/domain"
)

// Extractor turns document bytes into text. Implementations should wrap an
// unsupported MIME type in domain.ErrUnsupportedMimeType so the
// document-processing pipeline classifies it as a permanent failure.
type Extractor interface {
	Extract(ctx context.Context, content []byte, mimeType string) (string, error)
}

// UnsupportedMimeTypeError reports the specific MIME type a caller asked
// for, wrapping domain.ErrUnsupportedMimeType for errors.Is matching.
type UnsupportedMimeTypeError struct {
	MimeType string
}

func (e *UnsupportedMimeTypeError) Error() string {
	return fmt.Sprintf("unsupported MIME type: %s", e.MimeType)
}

func (e *UnsupportedMimeTypeError) Unwrap() error {
	return domain.ErrUnsupportedMimeType
}

package extractor

import "context"

// PlainTextExtractor handles the one MIME type this system can extract
// without an external service: plain text passed through unchanged.
// File-type text extraction is explicitly out of scope; this thin
// stand-in lets the document-processing pipeline run end to end against
// text/plain uploads without requiring PDF/office-doc parsing libraries
// that aren't part of this system's scope.
type PlainTextExtractor struct{}

// NewPlainTextExtractor builds a PlainTextExtractor.
func NewPlainTextExtractor() *PlainTextExtractor {
	return &PlainTextExtractor{}
}

// Extract returns content unchanged for "text/plain", and
// ErrUnsupportedMimeType for anything else.
func (e *PlainTextExtractor) Extract(_ context.Context, content []byte, mimeType string) (string, error) {
	if mimeType != "text/plain" {
 return "", &UnsupportedMimeTypeError{MimeType: mimeType}
	}
	return string(content), nil
}

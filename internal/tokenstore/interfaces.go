package tokenstore

import "context"

// Backend reads and writes the serialized token document.
//
// A missing document is reported as fs.ErrNotExist so callers can
// distinguish "never persisted" from an actual storage failure.
type Backend interface {
	// Read returns the stored document. Returns an error wrapping
	// fs.ErrNotExist if no document has been persisted yet.
	Read(ctx context.Context) ([]byte, error)

	// Write persists the document to storage. Returns an error if the
	// backend is read-only (e.g., environment variables) or if the write
	// operation fails.
	Write(ctx context.Context, data []byte) error
}

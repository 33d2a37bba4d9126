package interfaces

import "context"

// BlobStorage persists attachment payloads that are too large to inline in
// the database.
type BlobStorage interface {
	// Put stores the payload under a storage-relative key and returns the
	// path to record on the attachment row.
	Put(ctx context.Context, key string, data []byte, contentType string) (string, error)

	// Get reads back a payload by the recorded path.
	Get(ctx context.Context, path string) ([]byte, error)
}

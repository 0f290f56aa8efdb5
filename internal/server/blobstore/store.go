// Package blobstore adapts an S3-compatible object store for file content.
// It only moves opaque bytes; ownership and sharing decisions stay in the
// service layer, with the owner recorded on each object as metadata.
package blobstore

import (
	"context"
	"io"

	"filevault/internal/server/models"
)

// Store is the boundary to the external object store.
type Store interface {
	// Put streams r into the store under key, recording the content type and
	// the owning identity on the object.
	Put(ctx context.Context, key, contentType string, owner models.UserID, size int64, r io.Reader) error

	// Get opens the object under key for reading. The caller must close the
	// returned reader.
	Get(ctx context.Context, key string) (io.ReadCloser, error)

	// Delete removes the object under key.
	Delete(ctx context.Context, key string) error
}

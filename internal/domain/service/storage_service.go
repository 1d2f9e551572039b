package service

import (
	"context"
	"errors"
)

// ErrObjectNotFound is returned by BlobStorage when a key does not exist
var ErrObjectNotFound = errors.New("object not found")

// BlobStorage stores small binary objects such as uploaded profile banners.
// Keys are slash separated and relative to the backend's root.
type BlobStorage interface {
	// Put writes the object, replacing any existing one
	Put(ctx context.Context, key string, data []byte, contentType string) error

	// Get returns the object bytes and content type
	Get(ctx context.Context, key string) ([]byte, string, error)

	// Delete removes the object; deleting a missing key is not an error
	Delete(ctx context.Context, key string) error

	// Exists reports whether the object exists
	Exists(ctx context.Context, key string) (bool, error)
}

// Package archive keeps sweep reports in object storage.
package archive

import (
	"context"
	"errors"
)

// Common errors for object store operations.
var (
	ErrObjectNotFound = errors.New("object not found")
	ErrPutFailed      = errors.New("put failed")
	ErrGetFailed      = errors.New("get failed")
)

// ObjectStore is the minimal object storage surface needed for reports.
// Implementations include the local filesystem and S3.
type ObjectStore interface {
	// Put writes data under key, replacing any existing object.
	Put(ctx context.Context, key string, data []byte) error

	// Get reads the object stored under key.
	// Returns ErrObjectNotFound if there is none.
	Get(ctx context.Context, key string) ([]byte, error)

	// List returns all keys under the given prefix.
	List(ctx context.Context, prefix string) ([]string, error)
}

// Package storage owns the blob namespace: opaque keys mapped to immutable
// byte payloads, on local disk or an S3-compatible object store.
package storage

import (
	"context"
	"errors"
	"io"
)

// ErrNotFound is returned by Open when no blob exists under the key.
var ErrNotFound = errors.New("blob not found")

// Store persists blobs under caller-chosen keys. Put is all-or-nothing:
// after a failed Put the key must not be resolvable.
type Store interface {
	Put(ctx context.Context, key string, r io.Reader, size int64) error
	Exists(ctx context.Context, key string) (bool, error)
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
}

// Package storage defines the common interface for object storage adapters.
// It abstracts storage operations so the result archiver can write to
// different backends (e.g., GCS, local file system) through a unified API.
package storage

import (
	"context"
	"io"
)

// Connection represents one configured storage backend.
type Connection interface {
	// Upload uploads data to the specified bucket and object name.
	// 'data' is the stream of data to upload. 'contentType' is the MIME type
	// of the data.
	Upload(ctx context.Context, bucket, objectName string, data io.Reader, contentType string) error
	// Download downloads data from the specified bucket and object name.
	// It returns a ReadCloser which must be closed by the caller after use.
	Download(ctx context.Context, bucket, objectName string) (io.ReadCloser, error)
	// DeleteObject deletes the specified object from the bucket.
	DeleteObject(ctx context.Context, bucket, objectName string) error
	// Close releases resources held by the connection.
	Close() error
	// Type returns the storage type identifier (e.g., "local", "gcs").
	Type() string
	// Name returns the configured connection name.
	Name() string
}

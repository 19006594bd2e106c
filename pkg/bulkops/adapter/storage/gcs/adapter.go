// Package gcs provides a Google Cloud Storage implementation of the storage
// adapter interface.
package gcs

import (
	"context"
	"fmt"
	"io"

	gcstorage "cloud.google.com/go/storage"
	"google.golang.org/api/option"

	storageAdapter "github.com/nerdfunk-net/cockpit-ng-sub003/pkg/bulkops/adapter/storage"
	logger "github.com/nerdfunk-net/cockpit-ng-sub003/pkg/bulkops/support/util/logger"
)

// ProviderType defines the type identifier for this GCS storage adapter.
const ProviderType = "gcs"

// init registers the GCS adapter factory with the storage registry.
func init() {
	storageAdapter.RegisterFactory(ProviderType, func(cfg storageAdapter.StorageConfig, name string) (storageAdapter.Connection, error) {
		return NewGCSAdapter(context.Background(), cfg, name)
	})
}

// gcsAdapter implements storage.Connection against Google Cloud Storage.
type gcsAdapter struct {
	cfg    storageAdapter.StorageConfig
	name   string
	client *gcstorage.Client
}

// NewGCSAdapter creates a new gcsAdapter instance. When a credentials file is
// configured it is used explicitly; otherwise application default credentials
// apply.
func NewGCSAdapter(ctx context.Context, cfg storageAdapter.StorageConfig, name string) (storageAdapter.Connection, error) {
	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}

	client, err := gcstorage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("gcs storage adapter '%s': failed to create client: %w", name, err)
	}

	return &gcsAdapter{cfg: cfg, name: name, client: client}, nil
}

// Close releases the underlying GCS client.
func (a *gcsAdapter) Close() error {
	logger.Debugf("GCS storage adapter '%s' closed.", a.name)
	return a.client.Close()
}

// Type returns "gcs".
func (a *gcsAdapter) Type() string {
	return ProviderType
}

// Name returns the name of this connection.
func (a *gcsAdapter) Name() string {
	return a.name
}

// Upload streams data into the object. The write is committed on Close; an
// error there means the object was not created.
func (a *gcsAdapter) Upload(ctx context.Context, bucket, objectName string, data io.Reader, contentType string) error {
	writer := a.client.Bucket(a.bucketName(bucket)).Object(objectName).NewWriter(ctx)
	writer.ContentType = contentType

	if _, err := io.Copy(writer, data); err != nil {
		writer.Close()
		return fmt.Errorf("failed to write object '%s': %w", objectName, err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to finalize object '%s': %w", objectName, err)
	}
	logger.Debugf("Uploaded object '%s' to bucket '%s' (GCS adapter '%s').", objectName, a.bucketName(bucket), a.name)
	return nil
}

// Download opens the object for reading. The returned ReadCloser must be
// closed by the caller.
func (a *gcsAdapter) Download(ctx context.Context, bucket, objectName string) (io.ReadCloser, error) {
	reader, err := a.client.Bucket(a.bucketName(bucket)).Object(objectName).NewReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to open object '%s': %w", objectName, err)
	}
	return reader, nil
}

// DeleteObject deletes the object. A missing object is logged and ignored.
func (a *gcsAdapter) DeleteObject(ctx context.Context, bucket, objectName string) error {
	err := a.client.Bucket(a.bucketName(bucket)).Object(objectName).Delete(ctx)
	if err != nil {
		if err == gcstorage.ErrObjectNotExist {
			logger.Warnf("Attempted to delete non-existent object '%s' (GCS adapter '%s').", objectName, a.name)
			return nil
		}
		return fmt.Errorf("failed to delete object '%s': %w", objectName, err)
	}
	return nil
}

func (a *gcsAdapter) bucketName(bucket string) string {
	if bucket != "" {
		return bucket
	}
	return a.cfg.BucketName
}

var _ storageAdapter.Connection = (*gcsAdapter)(nil)

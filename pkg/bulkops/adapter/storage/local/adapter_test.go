package local_test

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	storageAdapter "github.com/nerdfunk-net/cockpit-ng-sub003/pkg/bulkops/adapter/storage"
	"github.com/nerdfunk-net/cockpit-ng-sub003/pkg/bulkops/adapter/storage/local"
)

func newAdapter(t *testing.T) (storageAdapter.Connection, string) {
	t.Helper()
	baseDir := t.TempDir()
	conn, err := local.NewLocalAdapter(storageAdapter.StorageConfig{
		Type:       local.ProviderType,
		BaseDir:    baseDir,
		BucketName: "default-bucket",
	}, "test")
	assert.NoError(t, err)
	return conn, baseDir
}

func TestNewLocalAdapterRequiresBaseDir(t *testing.T) {
	_, err := local.NewLocalAdapter(storageAdapter.StorageConfig{Type: local.ProviderType}, "test")
	assert.Error(t, err)
}

func TestNewLocalAdapterCreatesBaseDir(t *testing.T) {
	baseDir := filepath.Join(t.TempDir(), "nested", "data")
	_, err := local.NewLocalAdapter(storageAdapter.StorageConfig{
		Type:    local.ProviderType,
		BaseDir: baseDir,
	}, "test")

	assert.NoError(t, err)
	info, err := os.Stat(baseDir)
	assert.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestUploadAndDownloadRoundTrip(t *testing.T) {
	conn, baseDir := newAdapter(t)

	err := conn.Upload(context.Background(), "results", "a/b/file.parquet", strings.NewReader("payload"), "application/octet-stream")
	assert.NoError(t, err)

	_, err = os.Stat(filepath.Join(baseDir, "results", "a", "b", "file.parquet"))
	assert.NoError(t, err)

	reader, err := conn.Download(context.Background(), "results", "a/b/file.parquet")
	assert.NoError(t, err)
	defer reader.Close()

	data, err := io.ReadAll(reader)
	assert.NoError(t, err)
	assert.Equal(t, "payload", string(data))
}

func TestEmptyBucketFallsBackToConfiguredBucket(t *testing.T) {
	conn, baseDir := newAdapter(t)

	err := conn.Upload(context.Background(), "", "file.txt", strings.NewReader("x"), "text/plain")
	assert.NoError(t, err)

	_, err = os.Stat(filepath.Join(baseDir, "default-bucket", "file.txt"))
	assert.NoError(t, err)
}

func TestDeleteObject(t *testing.T) {
	conn, baseDir := newAdapter(t)
	assert.NoError(t, conn.Upload(context.Background(), "results", "file.txt", strings.NewReader("x"), "text/plain"))

	assert.NoError(t, conn.DeleteObject(context.Background(), "results", "file.txt"))
	_, err := os.Stat(filepath.Join(baseDir, "results", "file.txt"))
	assert.True(t, os.IsNotExist(err))
}

func TestDeleteMissingObjectIsNoOp(t *testing.T) {
	conn, _ := newAdapter(t)
	assert.NoError(t, conn.DeleteObject(context.Background(), "results", "never-there.txt"))
}

func TestPathEscapeIsRejected(t *testing.T) {
	conn, _ := newAdapter(t)

	err := conn.Upload(context.Background(), "results", "../../etc/passwd", strings.NewReader("x"), "text/plain")
	assert.Error(t, err)
}

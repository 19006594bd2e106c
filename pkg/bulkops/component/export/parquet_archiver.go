// Package export persists terminal composite results as Parquet objects so
// that past bulk operations can be inspected after their handle is cleared.
package export

import (
	"bytes"
	"context"
	"fmt"
	"math/rand"
	"path"
	"strings"
	"time"

	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/writer"

	storageAdapter "github.com/nerdfunk-net/cockpit-ng-sub003/pkg/bulkops/adapter/storage"
	port "github.com/nerdfunk-net/cockpit-ng-sub003/pkg/bulkops/core/application/port"
	config "github.com/nerdfunk-net/cockpit-ng-sub003/pkg/bulkops/core/config"
	model "github.com/nerdfunk-net/cockpit-ng-sub003/pkg/bulkops/core/domain/model"
	"github.com/nerdfunk-net/cockpit-ng-sub003/pkg/bulkops/support/util/exception"
	logger "github.com/nerdfunk-net/cockpit-ng-sub003/pkg/bulkops/support/util/logger"
)

const moduleName = "result_archiver"

// resultRow is the Parquet row shape of one archived item result.
type resultRow struct {
	Key            string `parquet:"name=key, type=BYTE_ARRAY, convertedtype=UTF8"`
	Outcome        string `parquet:"name=outcome, type=BYTE_ARRAY, convertedtype=UTF8"`
	Message        string `parquet:"name=message, type=BYTE_ARRAY, convertedtype=UTF8"`
	CompositeState string `parquet:"name=composite_state, type=BYTE_ARRAY, convertedtype=UTF8"`
	Processed      int32  `parquet:"name=processed, type=INT32"`
	Total          int32  `parquet:"name=total, type=INT32"`
	ArchivedAt     string `parquet:"name=archived_at, type=BYTE_ARRAY, convertedtype=UTF8"`
}

// ParquetArchiver implements port.ResultArchiver by writing the composite
// result into a Parquet object on a configured storage backend.
type ParquetArchiver struct {
	conn    storageAdapter.Connection
	bucket  string
	baseDir string
}

// NewParquetArchiver creates an archiver writing to the given connection.
func NewParquetArchiver(conn storageAdapter.Connection, bucket, baseDir string) *ParquetArchiver {
	if baseDir == "" {
		baseDir = "bulkops/results"
	}
	return &ParquetArchiver{conn: conn, bucket: bucket, baseDir: baseDir}
}

// NewParquetArchiverFromConfig resolves the archive storage reference from
// the application configuration. It returns (nil, nil) when archiving is
// disabled, so callers can wire it unconditionally.
func NewParquetArchiverFromConfig(cfg *config.Config) (*ParquetArchiver, error) {
	archive := cfg.Cockpit.Orchestrator.Archive
	if !archive.Enabled {
		return nil, nil
	}
	if archive.StorageRef == "" {
		return nil, fmt.Errorf("archive is enabled but no storageRef is configured")
	}

	conn, err := storageAdapter.Open(cfg, archive.StorageRef)
	if err != nil {
		return nil, err
	}
	return NewParquetArchiver(conn, archive.Bucket, ""), nil
}

// Archive writes the composite's item results as one Parquet object and
// returns the object name. An empty item list still produces an object, so
// the fact that the operation ran is recorded either way.
func (a *ParquetArchiver) Archive(ctx context.Context, composite model.CompositeStatus) (string, error) {
	archivedAt := time.Now().UTC()

	rows := make([]resultRow, 0, len(composite.Items))
	for _, item := range composite.Items {
		rows = append(rows, resultRow{
			Key:            item.Key,
			Outcome:        string(item.Outcome),
			Message:        item.Message,
			CompositeState: composite.State.String(),
			Processed:      int32(composite.Processed),
			Total:          int32(composite.Total),
			ArchivedAt:     archivedAt.Format(time.RFC3339),
		})
	}

	buf := new(bytes.Buffer)
	rowGroupSize := int64(len(rows))
	if rowGroupSize == 0 {
		rowGroupSize = 1
	}
	pw, err := writer.NewParquetWriterFromWriter(buf, new(resultRow), rowGroupSize)
	if err != nil {
		return "", exception.NewOrchestrationError(moduleName, "failed to create Parquet writer", err, false)
	}
	pw.CompressionType = parquet.CompressionCodec_SNAPPY

	for _, row := range rows {
		if err := pw.Write(row); err != nil {
			return "", exception.NewOrchestrationError(moduleName, "failed to write result row", err, false)
		}
	}
	if err := writeStop(pw); err != nil {
		return "", exception.NewOrchestrationError(moduleName, "failed to finalize Parquet file", err, false)
	}

	// Hive-style date partition plus a collision-resistant filename.
	partition := fmt.Sprintf("dt=%s", archivedAt.Format("2006-01-02"))
	fileName := fmt.Sprintf("results_%s_%s.parquet", archivedAt.Format("20060102150405"), randomSuffix(8))
	objectName := path.Join(a.baseDir, partition, fileName)

	if err := a.conn.Upload(ctx, a.bucket, objectName, buf, "application/octet-stream"); err != nil {
		return "", exception.NewOrchestrationError(moduleName, "failed to upload Parquet file", err, true)
	}

	logger.Infof("ResultArchiver: Archived %d item results to '%s'.", len(rows), objectName)
	return objectName, nil
}

// writeStop finalizes the Parquet writer, converting library panics into
// errors.
func writeStop(pw *writer.ParquetWriter) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("parquet writer panicked during WriteStop: %v", r)
		}
	}()
	return pw.WriteStop()
}

// randomSuffix generates a random string of the specified length, used to
// keep archive filenames unique within one second.
func randomSuffix(length int) string {
	const charset = "abcdefghijklmnopqrstuvwxyz0123456789"
	seededRand := rand.New(rand.NewSource(time.Now().UnixNano()))
	b := make([]byte, length)
	for i := range b {
		b[i] = charset[seededRand.Intn(len(charset))]
	}
	return strings.ToLower(string(b))
}

var _ port.ResultArchiver = (*ParquetArchiver)(nil)

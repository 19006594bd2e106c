package gormstore

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	port "github.com/nerdfunk-net/cockpit-ng-sub003/pkg/bulkops/core/application/port"
	model "github.com/nerdfunk-net/cockpit-ng-sub003/pkg/bulkops/core/domain/model"
	"github.com/nerdfunk-net/cockpit-ng-sub003/pkg/bulkops/support/util/exception"
	logger "github.com/nerdfunk-net/cockpit-ng-sub003/pkg/bulkops/support/util/logger"
)

const moduleName = "handle_store"

// DefaultScope is the scope used when no explicit session scope is given.
const DefaultScope = "default"

// handleRecord is the persistence shape of a JobHandle. One row per scope; a
// scope holds at most one in-flight operation.
type handleRecord struct {
	Scope     string    `gorm:"column:scope;primaryKey"`
	JobID     string    `gorm:"column:job_id"`
	Kind      string    `gorm:"column:kind"`
	CreatedAt time.Time `gorm:"column:created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

// TableName implements the GORM table name convention.
func (handleRecord) TableName() string {
	return "bulk_job_handles"
}

// GormHandleStore is a database-backed implementation of the HandleStore
// interface. Concurrent writers to the same scope follow last-write-wins;
// two sessions sharing one scope are not coordinated.
type GormHandleStore struct {
	db    *gorm.DB
	scope string
}

// NewGormHandleStore creates a store bound to the given scope. An empty
// scope falls back to DefaultScope.
func NewGormHandleStore(db *gorm.DB, scope string) *GormHandleStore {
	if scope == "" {
		scope = DefaultScope
	}
	return &GormHandleStore{db: db, scope: scope}
}

// Save upserts the handle row for this store's scope.
func (s *GormHandleStore) Save(ctx context.Context, handle model.JobHandle) error {
	record := handleRecord{
		Scope:     s.scope,
		JobID:     handle.JobID,
		Kind:      string(handle.Kind),
		CreatedAt: handle.CreatedAt,
		UpdatedAt: time.Now(),
	}

	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "scope"}},
		DoUpdates: clause.AssignmentColumns([]string{"job_id", "kind", "created_at", "updated_at"}),
	}).Create(&record).Error
	if err != nil {
		return exception.NewOrchestrationError(moduleName, "failed to save job handle", err, true)
	}
	return nil
}

// Load fetches the handle row for this store's scope. A missing row or a row
// failing validation is reported as (nil, nil): a malformed stored value must
// degrade to "nothing to resume", never block startup.
func (s *GormHandleStore) Load(ctx context.Context) (*model.JobHandle, error) {
	var record handleRecord
	err := s.db.WithContext(ctx).Where("scope = ?", s.scope).First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, exception.NewOrchestrationError(moduleName, "failed to load job handle", err, true)
	}

	handle := model.JobHandle{
		JobID:     record.JobID,
		Kind:      model.HandleKind(record.Kind),
		CreatedAt: record.CreatedAt,
	}
	if err := handle.Validate(); err != nil {
		logger.Warnf("HandleStore: Stored handle for scope '%s' is invalid, treating it as absent: %v", s.scope, err)
		return nil, nil
	}
	return &handle, nil
}

// Clear deletes the handle row for this store's scope. Clearing an absent
// row is a no-op.
func (s *GormHandleStore) Clear(ctx context.Context) error {
	err := s.db.WithContext(ctx).Where("scope = ?", s.scope).Delete(&handleRecord{}).Error
	if err != nil {
		return exception.NewOrchestrationError(moduleName, "failed to clear job handle", err, true)
	}
	return nil
}

var _ port.HandleStore = (*GormHandleStore)(nil)

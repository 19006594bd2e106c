// Package inmemory provides an in-memory implementation of the HandleStore
// interface. It keeps the handle in process memory, suitable for testing and
// for single-process sessions where restart resilience is not required.
package inmemory

import (
	"context"
	"sync"

	port "github.com/nerdfunk-net/cockpit-ng-sub003/pkg/bulkops/core/application/port"
	model "github.com/nerdfunk-net/cockpit-ng-sub003/pkg/bulkops/core/domain/model"
	logger "github.com/nerdfunk-net/cockpit-ng-sub003/pkg/bulkops/support/util/logger"
)

// InMemoryHandleStore is an in-memory implementation of the HandleStore
// interface.
type InMemoryHandleStore struct {
	mu     sync.RWMutex
	handle *model.JobHandle
}

// NewInMemoryHandleStore creates and initializes a new instance of
// InMemoryHandleStore.
func NewInMemoryHandleStore() *InMemoryHandleStore {
	return &InMemoryHandleStore{}
}

// Save stores a copy of the handle, replacing any previous one. The store
// holds at most one handle; concurrent writers follow last-write-wins.
func (s *InMemoryHandleStore) Save(ctx context.Context, handle model.JobHandle) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := handle
	s.handle = &stored
	return nil
}

// Load returns the stored handle, or (nil, nil) when none is stored or the
// stored value fails validation.
func (s *InMemoryHandleStore) Load(ctx context.Context) (*model.JobHandle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.handle == nil {
		return nil, nil
	}
	if err := s.handle.Validate(); err != nil {
		logger.Warnf("HandleStore: Stored handle is invalid, treating it as absent: %v", err)
		return nil, nil
	}
	stored := *s.handle
	return &stored, nil
}

// Clear removes the stored handle. Clearing an empty store is a no-op.
func (s *InMemoryHandleStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handle = nil
	return nil
}

var _ port.HandleStore = (*InMemoryHandleStore)(nil)

package hoststore

import (
	"context"
	"fmt"
	"sync"
)

// InMemorySuspendedRunStore implements SuspendedRunStore in memory, for
// tests and single-process deployments that don't need a suspended run
// to survive a restart.
type InMemorySuspendedRunStore struct {
	mu      sync.Mutex
	records map[string]SuspendedRecord
}

// NewInMemorySuspendedRunStore constructs an empty store.
func NewInMemorySuspendedRunStore() *InMemorySuspendedRunStore {
	return &InMemorySuspendedRunStore{records: make(map[string]SuspendedRecord)}
}

func (s *InMemorySuspendedRunStore) Save(ctx context.Context, record SuspendedRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[record.ExecutionID] = record
	return nil
}

func (s *InMemorySuspendedRunStore) Get(ctx context.Context, executionID string) (SuspendedRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.records[executionID]
	if !ok {
		return SuspendedRecord{}, fmt.Errorf("suspended run %s not found", executionID)
	}
	return record, nil
}

func (s *InMemorySuspendedRunStore) Delete(ctx context.Context, executionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, executionID)
	return nil
}

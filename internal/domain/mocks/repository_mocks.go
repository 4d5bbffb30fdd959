package mocks

import (
	"context"
	"fmt"
	"sync"

	"github.com/auditflow/rule-engine/internal/domain"
)

// MockEventStreamRepository is a mock implementation of
// domain.EventStreamRepository for testing. Each ReadBatch call pops the
// next batch from Batches; once exhausted it behaves like an idle stream.
type MockEventStreamRepository struct {
	mu             sync.Mutex
	Batches        [][]domain.StreamEntry
	AckedIDs       []string
	ReadErr        error
	AckErr         error
	EnsureGroupRan bool
}

func (m *MockEventStreamRepository) EnsureGroup(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.EnsureGroupRan = true
}

func (m *MockEventStreamRepository) ReadBatch(ctx context.Context) ([]domain.StreamEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ReadErr != nil {
		return nil, m.ReadErr
	}
	if len(m.Batches) == 0 {
		return nil, nil
	}
	batch := m.Batches[0]
	m.Batches = m.Batches[1:]
	return batch, nil
}

func (m *MockEventStreamRepository) Ack(ctx context.Context, entryIDs ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.AckErr != nil {
		return m.AckErr
	}
	m.AckedIDs = append(m.AckedIDs, entryIDs...)
	return nil
}

// AckedCount returns the number of acknowledged entries. Safe to call
// while a consumer goroutine is still running.
func (m *MockEventStreamRepository) AckedCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.AckedIDs)
}

// MockAlertRepository is a mock implementation of domain.AlertRepository
// for testing. Inserted candidates are recorded and their (event id, rule)
// pairs become visible to Exists, mirroring the durable store.
type MockAlertRepository struct {
	mu            sync.Mutex
	Inserted      []domain.AlertCandidate
	StatusUpdates map[int64]domain.AlertStatus
	existing      map[string]bool
	nextID        int64
	SchemaErr     error
	ExistsErr     error
	InsertErr     error
	UpdateErr     error
	ExistsCalls   int
}

func (m *MockAlertRepository) EnsureSchema(ctx context.Context) error {
	return m.SchemaErr
}

func (m *MockAlertRepository) Exists(ctx context.Context, eventID *int64, ruleName string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ExistsCalls++
	if m.ExistsErr != nil {
		return false, m.ExistsErr
	}
	if eventID == nil {
		return false, nil
	}
	return m.existing[pairKey(*eventID, ruleName)], nil
}

func (m *MockAlertRepository) Insert(ctx context.Context, candidate domain.AlertCandidate) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.InsertErr != nil {
		return 0, m.InsertErr
	}
	m.Inserted = append(m.Inserted, candidate)
	if candidate.EventID != nil {
		if m.existing == nil {
			m.existing = make(map[string]bool)
		}
		m.existing[pairKey(*candidate.EventID, candidate.RuleName)] = true
	}
	m.nextID++
	return m.nextID, nil
}

func (m *MockAlertRepository) UpdateStatus(ctx context.Context, alertID int64, status domain.AlertStatus) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.UpdateErr != nil {
		return false, m.UpdateErr
	}
	if alertID <= 0 || alertID > m.nextID {
		return false, nil
	}
	if m.StatusUpdates == nil {
		m.StatusUpdates = make(map[int64]domain.AlertStatus)
	}
	m.StatusUpdates[alertID] = status
	return true, nil
}

// SeedExisting marks a (event id, rule name) pair as already persisted.
func (m *MockAlertRepository) SeedExisting(eventID int64, ruleName string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.existing == nil {
		m.existing = make(map[string]bool)
	}
	m.existing[pairKey(eventID, ruleName)] = true
}

func pairKey(eventID int64, ruleName string) string {
	return fmt.Sprintf("%d-%s", eventID, ruleName)
}

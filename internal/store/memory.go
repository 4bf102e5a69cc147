package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/sells-group/pokescan/internal/model"
)

// MemoryStore is an in-process Store. An explicitly owned instance
// rather than module-level state, so tests get a fresh store each.
type MemoryStore struct {
	mu    sync.RWMutex
	scans map[string]model.ScanRecord
}

// NewMemory creates an empty in-memory store.
func NewMemory() *MemoryStore {
	return &MemoryStore{scans: make(map[string]model.ScanRecord)}
}

func (s *MemoryStore) CreateScan(_ context.Context, record model.ScanRecord) (*model.ScanRecord, error) {
	now := time.Now().UTC()
	record.ScanID = uuid.New().String()
	record.CreatedAt = now
	record.UpdatedAt = now
	if record.Status == "" {
		record.Status = model.ScanStatusAnalyzed
	}

	s.mu.Lock()
	s.scans[record.ScanID] = record
	s.mu.Unlock()

	return &record, nil
}

func (s *MemoryStore) GetScan(_ context.Context, scanID string) (*model.ScanRecord, error) {
	s.mu.RLock()
	record, ok := s.scans[scanID]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	return &record, nil
}

func (s *MemoryStore) ConfirmScan(_ context.Context, scanID string) (*model.ScanRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.scans[scanID]
	if !ok {
		return nil, ErrNotFound
	}
	if record.Status != model.ScanStatusConfirmed {
		record.Status = model.ScanStatusConfirmed
		record.UpdatedAt = time.Now().UTC()
		s.scans[scanID] = record
	}
	return &record, nil
}

func (s *MemoryStore) ListScans(_ context.Context, filter ScanFilter) ([]model.ScanRecord, error) {
	s.mu.RLock()
	records := make([]model.ScanRecord, 0, len(s.scans))
	for _, record := range s.scans {
		if filter.Status != "" && record.Status != filter.Status {
			continue
		}
		records = append(records, record)
	}
	s.mu.RUnlock()

	sort.Slice(records, func(i, j int) bool {
		return records[i].CreatedAt.After(records[j].CreatedAt)
	})

	if filter.Offset > 0 {
		if filter.Offset >= len(records) {
			return nil, nil
		}
		records = records[filter.Offset:]
	}
	if filter.Limit > 0 && len(records) > filter.Limit {
		records = records[:filter.Limit]
	}
	return records, nil
}

func (s *MemoryStore) Migrate(context.Context) error { return nil }

func (s *MemoryStore) Close() error { return nil }

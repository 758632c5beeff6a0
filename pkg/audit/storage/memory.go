package storage

import (
	"context"
	"sort"
	"sync"

	"parapet-hq/parapet/pkg/audit"
)

// MemoryStorage keeps decision records in a map. Intended for tests and
// runs that do not need the audit trail to survive a restart.
type MemoryStorage struct {
	mu      sync.RWMutex
	records map[string]*audit.DecisionRecord
}

// NewMemoryStorage creates an empty in-memory backend.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{records: make(map[string]*audit.DecisionRecord)}
}

// Store persists a copy of the record.
func (s *MemoryStorage) Store(_ context.Context, record *audit.DecisionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *record
	s.records[record.ID] = &cp
	return nil
}

// Query returns matching records, newest first.
func (s *MemoryStorage) Query(_ context.Context, query *audit.Query) ([]*audit.DecisionRecord, error) {
	s.mu.RLock()
	var results []*audit.DecisionRecord
	for _, r := range s.records {
		if query.Matches(r) {
			cp := *r
			results = append(results, &cp)
		}
	}
	s.mu.RUnlock()

	sort.Slice(results, func(i, j int) bool {
		return results[i].Time.After(results[j].Time)
	})

	if query.Offset > 0 {
		if query.Offset >= len(results) {
			return nil, nil
		}
		results = results[query.Offset:]
	}
	if query.Limit > 0 && len(results) > query.Limit {
		results = results[:query.Limit]
	}
	return results, nil
}

// Count returns how many records match.
func (s *MemoryStorage) Count(_ context.Context, query *audit.Query) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var n int64
	for _, r := range s.records {
		if query.Matches(r) {
			n++
		}
	}
	return n, nil
}

// Delete removes matching records.
func (s *MemoryStorage) Delete(_ context.Context, query *audit.Query) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for id, r := range s.records {
		if query.Matches(r) {
			delete(s.records, id)
			n++
		}
	}
	return n, nil
}

// Close is a no-op.
func (s *MemoryStorage) Close() error { return nil }

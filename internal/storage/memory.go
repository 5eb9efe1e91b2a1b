package storage

import (
	"context"
	"sync"

	"neurochord/internal/model"
)

// MemoryStore keeps analysis records in process memory. It is the default
// backend and the reference behavior for the persistent ones.
type MemoryStore struct {
	mu          sync.RWMutex
	initialized bool
	analyses    map[string]model.AnalysisRecord
	order       []string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Init(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.initialized = true
	s.analyses = make(map[string]model.AnalysisRecord)
	s.order = nil
	return nil
}

func (s *MemoryStore) SaveAnalysis(_ context.Context, record model.AnalysisRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.analyses[record.RunID]; !exists {
		s.order = append(s.order, record.RunID)
	}
	s.analyses[record.RunID] = record
	return nil
}

func (s *MemoryStore) GetAnalysis(_ context.Context, runID string) (model.AnalysisRecord, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.analyses[runID]
	return record, ok, nil
}

// ListAnalyses returns records in insertion order, oldest first.
func (s *MemoryStore) ListAnalyses(_ context.Context) ([]model.AnalysisRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records := make([]model.AnalysisRecord, 0, len(s.order))
	for _, id := range s.order {
		records = append(records, s.analyses[id])
	}
	return records, nil
}

func (s *MemoryStore) DeleteAnalysis(_ context.Context, runID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.analyses[runID]; !ok {
		return nil
	}
	delete(s.analyses, runID)
	for i, id := range s.order {
		if id == runID {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

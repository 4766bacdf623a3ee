package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/custodia-labs/musictruth-cli/internal/core/domain"
	"github.com/custodia-labs/musictruth-cli/internal/core/ports/driven"
)

// Ensure VerdictStore implements the interface.
var _ driven.VerdictStore = (*VerdictStore)(nil)

// VerdictStore is an in-memory implementation of driven.VerdictStore.
type VerdictStore struct {
	mu       sync.RWMutex
	verdicts map[string]domain.Verdict
}

// NewVerdictStore creates a new in-memory verdict store.
func NewVerdictStore() *VerdictStore {
	return &VerdictStore{
		verdicts: make(map[string]domain.Verdict),
	}
}

// Save stores or replaces a verdict.
func (s *VerdictStore) Save(_ context.Context, verdict domain.Verdict) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.verdicts[verdict.ID] = verdict
	return nil
}

// Get retrieves a verdict by ID.
func (s *VerdictStore) Get(_ context.Context, id string) (*domain.Verdict, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.verdicts[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &v, nil
}

// List returns the most recent verdicts, newest first.
func (s *VerdictStore) List(_ context.Context, limit int) ([]domain.VerdictSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.summaries(func(domain.Verdict) bool { return true }, limit), nil
}

// ListBySubject returns verdicts for one subject, newest first.
func (s *VerdictStore) ListBySubject(_ context.Context, subjectID string) ([]domain.VerdictSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.summaries(func(v domain.Verdict) bool { return v.SubjectID == subjectID }, 0), nil
}

// Delete removes a verdict.
func (s *VerdictStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.verdicts[id]; !ok {
		return domain.ErrNotFound
	}
	delete(s.verdicts, id)
	return nil
}

// summaries must be called with the lock held.
func (s *VerdictStore) summaries(keep func(domain.Verdict) bool, limit int) []domain.VerdictSummary {
	result := make([]domain.VerdictSummary, 0, len(s.verdicts))
	for _, v := range s.verdicts {
		if keep(v) {
			result = append(result, v.Summarise())
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.After(result[j].CreatedAt)
		}
		return result[i].ID < result[j].ID
	})
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result
}

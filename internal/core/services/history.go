package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/custodia-labs/musictruth-cli/internal/core/domain"
	"github.com/custodia-labs/musictruth-cli/internal/core/ports/driven"
	"github.com/custodia-labs/musictruth-cli/internal/core/ports/driving"
)

// Ensure HistoryService implements the interface.
var _ driving.HistoryService = (*HistoryService)(nil)

// HistoryService exposes stored verdicts.
type HistoryService struct {
	store driven.VerdictStore
}

// NewHistoryService creates a new history service.
func NewHistoryService(store driven.VerdictStore) *HistoryService {
	return &HistoryService{store: store}
}

// Get retrieves a verdict by ID.
func (s *HistoryService) Get(ctx context.Context, id string) (*domain.Verdict, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: verdict id is required", domain.ErrInvalidInput)
	}
	if s.store == nil {
		return nil, errors.New("verdict store not configured")
	}
	return s.store.Get(ctx, id)
}

// List returns recent verdicts, newest first.
func (s *HistoryService) List(ctx context.Context, limit int) ([]domain.VerdictSummary, error) {
	if s.store == nil {
		return nil, errors.New("verdict store not configured")
	}
	return s.store.List(ctx, limit)
}

// ListBySubject returns verdicts for one unit or group.
func (s *HistoryService) ListBySubject(ctx context.Context, subjectID string) ([]domain.VerdictSummary, error) {
	if subjectID == "" {
		return nil, fmt.Errorf("%w: subject id is required", domain.ErrInvalidInput)
	}
	if s.store == nil {
		return nil, errors.New("verdict store not configured")
	}
	return s.store.ListBySubject(ctx, subjectID)
}

// Delete removes a verdict.
func (s *HistoryService) Delete(ctx context.Context, id string) error {
	if id == "" {
		return fmt.Errorf("%w: verdict id is required", domain.ErrInvalidInput)
	}
	if s.store == nil {
		return errors.New("verdict store not configured")
	}
	return s.store.Delete(ctx, id)
}

package driving

import (
	"context"

	"github.com/custodia-labs/musictruth-cli/internal/core/domain"
)

// HistoryService exposes stored verdicts.
type HistoryService interface {
	// Get retrieves a verdict by ID.
	Get(ctx context.Context, id string) (*domain.Verdict, error)

	// List returns recent verdicts, newest first.
	List(ctx context.Context, limit int) ([]domain.VerdictSummary, error)

	// ListBySubject returns verdicts for one unit or group.
	ListBySubject(ctx context.Context, subjectID string) ([]domain.VerdictSummary, error)

	// Delete removes a verdict.
	Delete(ctx context.Context, id string) error
}

package driven

import (
	"context"

	"github.com/custodia-labs/musictruth-cli/internal/core/domain"
)

// VerdictStore persists verdict history.
type VerdictStore interface {
	// Save stores a verdict. Saving an existing ID replaces it.
	Save(ctx context.Context, verdict domain.Verdict) error

	// Get retrieves a verdict by ID.
	// Returns domain.ErrNotFound if the verdict does not exist.
	Get(ctx context.Context, id string) (*domain.Verdict, error)

	// List returns the most recent verdicts, newest first.
	// A limit of zero or less returns all verdicts.
	List(ctx context.Context, limit int) ([]domain.VerdictSummary, error)

	// ListBySubject returns verdicts for one unit or group, newest first.
	ListBySubject(ctx context.Context, subjectID string) ([]domain.VerdictSummary, error)

	// Delete removes a verdict.
	Delete(ctx context.Context, id string) error
}

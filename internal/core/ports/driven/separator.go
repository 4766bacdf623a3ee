package driven

import (
	"context"

	"github.com/custodia-labs/musictruth-cli/internal/core/domain"
)

// StemSeparator is the processing collaborator that isolates stems.
type StemSeparator interface {
	// Separate returns the requested stem for the unit.
	// Fails with domain.ErrSeparationUnavailable when the stem cannot be produced.
	Separate(ctx context.Context, unit domain.AudioUnit, stem domain.Stem) (*domain.AudioBuffer, error)

	// Forget releases anything held for the unit, including cached failures.
	// A later Separate for the same unit ID separates again.
	Forget(unitID string)
}

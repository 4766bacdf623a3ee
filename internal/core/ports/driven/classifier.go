package driven

import (
	"context"

	"github.com/custodia-labs/musictruth-cli/internal/core/domain"
)

// Classifier is a pretrained binary model scoring an evidence vector.
// Implementations must be deterministic: no sampling, inference mode only.
type Classifier interface {
	// Predict returns the probability that the unit is AI-generated.
	// Fails with domain.ErrClassifierUnavailable when the model cannot run.
	Predict(ctx context.Context, ev domain.EvidenceVector) (float64, error)

	// Name identifies the loaded model.
	Name() string
}

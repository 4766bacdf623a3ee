package driven

import (
	"context"

	"github.com/custodia-labs/musictruth-cli/internal/core/domain"
)

// AudioDecoder is the ingestion collaborator that produces sample buffers.
type AudioDecoder interface {
	// Decode reads the file at path into a normalised buffer.
	// Fails with domain.ErrUnsupportedFormat for formats it cannot read.
	Decode(ctx context.Context, path string) (*domain.AudioBuffer, error)
}

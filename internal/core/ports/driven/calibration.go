package driven

import "github.com/custodia-labs/musictruth-cli/internal/core/domain"

// CalibrationStore loads threshold tables and genre profiles.
type CalibrationStore interface {
	// Load returns the calibration, falling back to built-in defaults
	// for anything the store does not override.
	Load() (domain.Calibration, error)

	// Path returns the calibration file path.
	Path() string
}

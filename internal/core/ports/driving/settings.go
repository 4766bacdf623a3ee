package driving

import "github.com/custodia-labs/musictruth-cli/internal/core/domain"

// SettingsService manages application settings.
type SettingsService interface {
	// Get retrieves current application settings.
	Get() (*domain.AppSettings, error)

	// Save persists application settings.
	Save(settings *domain.AppSettings) error

	// SetMode updates the default analysis mode.
	SetMode(mode domain.AnalysisMode) error

	// SetGenre updates the calibration profile. Empty clears it.
	SetGenre(genre string) error

	// SetClassifier configures the classifier model path and weight.
	SetClassifier(modelPath string, weight float64) error

	// AddProvider appends a provider to the priority list, replacing any
	// existing entry for the same provider.
	AddProvider(provider domain.AIProvider, model, apiKey string, retries int) error

	// RemoveProvider drops a provider from the priority list.
	RemoveProvider(provider domain.AIProvider) error

	// Validate checks that current settings are internally consistent.
	Validate() error

	// GetDefaults returns default settings.
	GetDefaults() domain.AppSettings

	// ValidateProviders pings every configured provider and returns
	// the failures keyed by provider name.
	ValidateProviders() map[string]error
}

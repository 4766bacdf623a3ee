package driven

import "github.com/custodia-labs/musictruth-cli/internal/core/domain"

// AIConfigValidator validates AI provider configurations.
// Implementations verify that configurations are valid by testing connectivity
// to the underlying AI services.
type AIConfigValidator interface {
	// ValidateProvider validates a provider configuration by pinging it.
	// Returns nil if configuration is valid or not configured.
	ValidateProvider(config *domain.ProviderSettings) error
}

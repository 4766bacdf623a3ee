package services

import (
	"fmt"
	"time"

	"github.com/custodia-labs/musictruth-cli/internal/core/domain"
	"github.com/custodia-labs/musictruth-cli/internal/core/ports/driven"
	"github.com/custodia-labs/musictruth-cli/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	keyAnalysisMode    = "analysis.mode"
	keyAnalysisGenre   = "analysis.genre"
	keyRelaxFloor      = "analysis.relax_floor"
	keyWorkers         = "analysis.workers"
	keyGroupTimeout    = "analysis.group_timeout_seconds"
	keyClassifierPath  = "classifier.model_path"
	keyClassifierWt    = "classifier.weight"
	keyTolerance       = "consistency.tolerance"
	keyPairTolerance   = "consistency.pair_tolerance"
	keyAgentsEnabled   = "agents.enabled"
	keyAgentProviders  = "agents.providers"
	keyCallTimeout     = "agents.call_timeout_seconds"
	keyBackoff         = "agents.backoff_ms"
	providerKeyPrefix  = "providers."
	modeKeyPrefix      = "modes."
	extractorKeyPrefix = "extractors."
)

// extractorConfigKeys are the tuning keys extractors understand.
var extractorConfigKeys = []string{
	"rolloff", "low_hz", "voicing", "silence_db", "band_share",
	"quantile", "similarity", "flatness",
}

// SettingsService manages application settings.
type SettingsService struct {
	configStore driven.ConfigStore
	aiValidator driven.AIConfigValidator
	calibration driven.CalibrationStore
}

// NewSettingsService creates a new settings service.
// The validator and calibration store are optional.
func NewSettingsService(
	configStore driven.ConfigStore,
	aiValidator driven.AIConfigValidator,
	calibration driven.CalibrationStore,
) *SettingsService {
	return &SettingsService{
		configStore: configStore,
		aiValidator: aiValidator,
		calibration: calibration,
	}
}

// Get retrieves current application settings.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	defaults := domain.DefaultAppSettings()

	settings := &domain.AppSettings{
		Analysis: domain.AnalysisSettings{
			Mode:         s.getMode(defaults.Analysis.Mode),
			Genre:        s.configStore.GetString(keyAnalysisGenre),
			RelaxFloor:   s.getBool(keyRelaxFloor, defaults.Analysis.RelaxFloor),
			Workers:      s.getInt(keyWorkers, defaults.Analysis.Workers),
			GroupTimeout: s.getSeconds(keyGroupTimeout, defaults.Analysis.GroupTimeout),
		},
		Classifier: domain.ClassifierSettings{
			ModelPath: s.configStore.GetString(keyClassifierPath),
			Weight:    s.getFloat(keyClassifierWt, defaults.Classifier.Weight),
		},
		Consistency: domain.ConsistencySettings{
			Tolerance:     s.getFloat(keyTolerance, defaults.Consistency.Tolerance),
			PairTolerance: s.getFloat(keyPairTolerance, defaults.Consistency.PairTolerance),
		},
		Agents: domain.AgentSettings{
			Enabled:     s.getBool(keyAgentsEnabled, defaults.Agents.Enabled),
			Providers:   s.getProviders(),
			CallTimeout: s.getSeconds(keyCallTimeout, defaults.Agents.CallTimeout),
			Backoff:     s.getMillis(keyBackoff, defaults.Agents.Backoff),
		},
	}

	return settings, nil
}

// Save persists application settings.
func (s *SettingsService) Save(settings *domain.AppSettings) error {
	// Save analysis settings
	if err := s.configStore.Set(keyAnalysisMode, settings.Analysis.Mode.String()); err != nil {
		return fmt.Errorf("save analysis mode: %w", err)
	}
	if err := s.configStore.Set(keyAnalysisGenre, settings.Analysis.Genre); err != nil {
		return fmt.Errorf("save analysis genre: %w", err)
	}
	if err := s.configStore.Set(keyRelaxFloor, settings.Analysis.RelaxFloor); err != nil {
		return fmt.Errorf("save relax floor: %w", err)
	}
	if err := s.configStore.Set(keyWorkers, settings.Analysis.Workers); err != nil {
		return fmt.Errorf("save workers: %w", err)
	}
	if err := s.configStore.Set(keyGroupTimeout, int(settings.Analysis.GroupTimeout/time.Second)); err != nil {
		return fmt.Errorf("save group timeout: %w", err)
	}

	// Save classifier settings
	if err := s.configStore.Set(keyClassifierPath, settings.Classifier.ModelPath); err != nil {
		return fmt.Errorf("save classifier model_path: %w", err)
	}
	if err := s.configStore.Set(keyClassifierWt, settings.Classifier.Weight); err != nil {
		return fmt.Errorf("save classifier weight: %w", err)
	}

	// Save consistency settings
	if err := s.configStore.Set(keyTolerance, settings.Consistency.Tolerance); err != nil {
		return fmt.Errorf("save consistency tolerance: %w", err)
	}
	if err := s.configStore.Set(keyPairTolerance, settings.Consistency.PairTolerance); err != nil {
		return fmt.Errorf("save consistency pair_tolerance: %w", err)
	}

	// Save agent settings
	if err := s.configStore.Set(keyAgentsEnabled, settings.Agents.Enabled); err != nil {
		return fmt.Errorf("save agents enabled: %w", err)
	}
	if err := s.configStore.Set(keyCallTimeout, int(settings.Agents.CallTimeout/time.Second)); err != nil {
		return fmt.Errorf("save call timeout: %w", err)
	}
	if err := s.configStore.Set(keyBackoff, int(settings.Agents.Backoff/time.Millisecond)); err != nil {
		return fmt.Errorf("save backoff: %w", err)
	}

	names := make([]string, 0, len(settings.Agents.Providers))
	for _, p := range settings.Agents.Providers {
		names = append(names, p.Provider.String())
		if err := s.saveProvider(p); err != nil {
			return err
		}
	}
	if err := s.configStore.Set(keyAgentProviders, names); err != nil {
		return fmt.Errorf("save provider list: %w", err)
	}

	return nil
}

func (s *SettingsService) saveProvider(p domain.ProviderSettings) error {
	prefix := providerKeyPrefix + p.Provider.String() + "."
	if err := s.configStore.Set(prefix+"model", p.Model); err != nil {
		return fmt.Errorf("save %s model: %w", p.Provider, err)
	}
	if err := s.configStore.Set(prefix+"base_url", p.BaseURL); err != nil {
		return fmt.Errorf("save %s base_url: %w", p.Provider, err)
	}
	if p.APIKey != "" {
		if err := s.configStore.Set(prefix+"api_key", p.APIKey); err != nil {
			return fmt.Errorf("save %s api_key: %w", p.Provider, err)
		}
	}
	if err := s.configStore.Set(prefix+"retries", p.Retries); err != nil {
		return fmt.Errorf("save %s retries: %w", p.Provider, err)
	}
	return nil
}

// SetMode updates the default analysis mode.
func (s *SettingsService) SetMode(mode domain.AnalysisMode) error {
	if !mode.IsValid() {
		return fmt.Errorf("%w: %s", domain.ErrInvalidMode, mode)
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}
	settings.Analysis.Mode = mode
	return s.Save(settings)
}

// SetGenre updates the calibration profile. Empty clears it.
func (s *SettingsService) SetGenre(genre string) error {
	if genre != "" && s.calibration != nil {
		cal, err := s.calibration.Load()
		if err != nil {
			return fmt.Errorf("load calibration: %w", err)
		}
		if _, err := cal.TableFor(genre); err != nil {
			return err
		}
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}
	settings.Analysis.Genre = genre
	return s.Save(settings)
}

// SetClassifier configures the classifier model path and weight.
func (s *SettingsService) SetClassifier(modelPath string, weight float64) error {
	if weight < 0 {
		return fmt.Errorf("%w: classifier weight must not be negative", domain.ErrInvalidInput)
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}
	settings.Classifier.ModelPath = modelPath
	settings.Classifier.Weight = weight
	return s.Save(settings)
}

// AddProvider appends a provider to the priority list. An existing entry
// for the same provider is replaced in place.
func (s *SettingsService) AddProvider(provider domain.AIProvider, model, apiKey string, retries int) error {
	if !provider.IsValid() {
		return fmt.Errorf("invalid LLM provider: %s", provider)
	}

	// Validate API key if required
	if provider.RequiresAPIKey() && apiKey == "" {
		return fmt.Errorf("API key required for %s", provider)
	}
	if retries < 0 {
		return fmt.Errorf("%w: retries must not be negative", domain.ErrInvalidInput)
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}

	// Set model - use provided or default
	if model == "" {
		model = domain.DefaultLLMModels()[provider]
	}
	entry := domain.ProviderSettings{
		Provider: provider,
		Model:    model,
		APIKey:   apiKey,
		Retries:  retries,
	}

	// Local providers need a base URL
	if provider.IsLocal() {
		entry.BaseURL = domain.DefaultBaseURLs()[provider]
	}

	replaced := false
	for i, p := range settings.Agents.Providers {
		if p.Provider == provider {
			settings.Agents.Providers[i] = entry
			replaced = true
			break
		}
	}
	if !replaced {
		settings.Agents.Providers = append(settings.Agents.Providers, entry)
	}

	return s.Save(settings)
}

// RemoveProvider drops a provider from the priority list.
func (s *SettingsService) RemoveProvider(provider domain.AIProvider) error {
	settings, err := s.Get()
	if err != nil {
		return err
	}

	kept := settings.Agents.Providers[:0]
	found := false
	for _, p := range settings.Agents.Providers {
		if p.Provider == provider {
			found = true
			continue
		}
		kept = append(kept, p)
	}
	if !found {
		return fmt.Errorf("%w: provider %s is not configured", domain.ErrNotFound, provider)
	}
	settings.Agents.Providers = kept

	return s.Save(settings)
}

// Validate checks that current settings are internally consistent.
func (s *SettingsService) Validate() error {
	settings, err := s.Get()
	if err != nil {
		return err
	}

	if !settings.Analysis.Mode.IsValid() {
		return fmt.Errorf("%w: %s", domain.ErrInvalidMode, settings.Analysis.Mode)
	}
	if settings.Classifier.Weight < 0 {
		return fmt.Errorf("%w: classifier weight must not be negative", domain.ErrInvalidInput)
	}
	if settings.Consistency.Tolerance <= 0 || settings.Consistency.PairTolerance <= 0 {
		return fmt.Errorf("%w: consistency tolerances must be positive", domain.ErrInvalidInput)
	}

	for _, p := range settings.Agents.Providers {
		if !p.Provider.IsValid() {
			return fmt.Errorf("invalid LLM provider: %s", p.Provider)
		}
		if !p.IsConfigured() {
			return fmt.Errorf("provider %q is not fully configured", p.Provider.Description())
		}
	}

	if settings.Analysis.Genre != "" && s.calibration != nil {
		cal, err := s.calibration.Load()
		if err != nil {
			return fmt.Errorf("load calibration: %w", err)
		}
		if _, err := cal.TableFor(settings.Analysis.Genre); err != nil {
			return err
		}
	}

	return nil
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

// ValidateProviders pings every configured provider. Failures are keyed by
// provider name; an empty map means every provider answered.
func (s *SettingsService) ValidateProviders() map[string]error {
	failures := make(map[string]error)
	if s.aiValidator == nil {
		return failures
	}
	settings, err := s.Get()
	if err != nil {
		failures["settings"] = err
		return failures
	}
	for i := range settings.Agents.Providers {
		p := &settings.Agents.Providers[i]
		if err := s.aiValidator.ValidateProvider(p); err != nil {
			failures[p.Provider.String()] = err
		}
	}
	return failures
}

// ModeProfiles returns the mode profiles with config overrides applied.
// Keys: modes.<mode>.extractors, .floor, .min_extractors and .min_valid.
func (s *SettingsService) ModeProfiles() map[domain.AnalysisMode]domain.ModeProfile {
	profiles := domain.DefaultModeProfiles()
	for mode, profile := range profiles {
		prefix := modeKeyPrefix + mode.String() + "."
		if names := s.configStore.GetStringSlice(prefix + "extractors"); len(names) > 0 {
			profile.Extractors = names
		}
		if _, exists := s.configStore.Get(prefix + "floor"); exists {
			profile.CompletenessFloor = s.configStore.GetFloat(prefix + "floor")
		}
		if _, exists := s.configStore.Get(prefix + "min_extractors"); exists {
			profile.MinExtractors = s.configStore.GetInt(prefix + "min_extractors")
		}
		if _, exists := s.configStore.Get(prefix + "min_valid"); exists {
			profile.MinValid = s.configStore.GetInt(prefix + "min_valid")
		}
		profiles[mode] = profile
	}
	return profiles
}

// ExtractorConfigs returns per-extractor tuning from extractors.<name>.<key>.
// Extractors without overrides are omitted.
func (s *SettingsService) ExtractorConfigs(names []string) map[string]domain.ExtractorConfig {
	configs := make(map[string]domain.ExtractorConfig)
	for _, name := range names {
		prefix := extractorKeyPrefix + name + "."
		cfg := make(domain.ExtractorConfig)
		for _, key := range extractorConfigKeys {
			if _, exists := s.configStore.Get(prefix + key); exists {
				cfg[key] = s.configStore.GetFloat(prefix + key)
			}
		}
		if len(cfg) > 0 {
			configs[name] = cfg
		}
	}
	return configs
}

// Helper methods for reading config with defaults.

func (s *SettingsService) getString(key, defaultVal string) string {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getInt(key string, defaultVal int) int {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetInt(key)
}

func (s *SettingsService) getFloat(key string, defaultVal float64) float64 {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetFloat(key)
}

func (s *SettingsService) getBool(key string, defaultVal bool) bool {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetBool(key)
}

func (s *SettingsService) getSeconds(key string, defaultVal time.Duration) time.Duration {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return time.Duration(s.configStore.GetInt(key)) * time.Second
}

func (s *SettingsService) getMillis(key string, defaultVal time.Duration) time.Duration {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return time.Duration(s.configStore.GetInt(key)) * time.Millisecond
}

func (s *SettingsService) getMode(defaultVal domain.AnalysisMode) domain.AnalysisMode {
	val := s.configStore.GetString(keyAnalysisMode)
	if val == "" {
		return defaultVal
	}
	mode := domain.AnalysisMode(val)
	if !mode.IsValid() {
		return defaultVal
	}
	return mode
}

// getProviders reads the priority list. Unknown names are skipped.
func (s *SettingsService) getProviders() []domain.ProviderSettings {
	var providers []domain.ProviderSettings
	for _, name := range s.configStore.GetStringSlice(keyAgentProviders) {
		provider := domain.AIProvider(name)
		if !provider.IsValid() {
			continue
		}
		prefix := providerKeyPrefix + name + "."
		providers = append(providers, domain.ProviderSettings{
			Provider: provider,
			Model:    s.getString(prefix+"model", domain.DefaultLLMModels()[provider]),
			BaseURL:  s.configStore.GetString(prefix + "base_url"),
			APIKey:   s.configStore.GetString(prefix + "api_key"),
			Retries:  s.getInt(prefix+"retries", domain.DefaultProviderRetries),
		})
	}
	return providers
}

package domain

import "time"

const unknownDescription = "Unknown"

// AIProvider identifies a language model provider.
type AIProvider string

// Available AI providers.
const (
	// AIProviderOllama is local Ollama instance.
	AIProviderOllama AIProvider = "ollama"

	// AIProviderOpenAI is OpenAI cloud API.
	AIProviderOpenAI AIProvider = "openai"

	// AIProviderAnthropic is Anthropic cloud API.
	AIProviderAnthropic AIProvider = "anthropic"

	// AIProviderGemini is Google Gemini cloud API.
	AIProviderGemini AIProvider = "gemini"

	// AIProviderOpenRouter is the OpenRouter aggregator (OpenAI-compatible).
	AIProviderOpenRouter AIProvider = "openrouter"

	// AIProviderDeepSeek is DeepSeek cloud API (OpenAI-compatible).
	AIProviderDeepSeek AIProvider = "deepseek"

	// AIProviderLMStudio is a local LM Studio server (OpenAI-compatible).
	AIProviderLMStudio AIProvider = "lmstudio"
)

// IsValid returns true if the AI provider is recognised.
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderOllama, AIProviderOpenAI, AIProviderAnthropic, AIProviderGemini,
		AIProviderOpenRouter, AIProviderDeepSeek, AIProviderLMStudio:
		return true
	default:
		return false
	}
}

// RequiresAPIKey returns true if this provider needs an API key.
func (p AIProvider) RequiresAPIKey() bool {
	return p.IsValid() && !p.IsLocal()
}

// IsLocal returns true if this provider runs locally.
func (p AIProvider) IsLocal() bool {
	return p == AIProviderOllama || p == AIProviderLMStudio
}

// IsOpenAICompatible returns true if the provider speaks the OpenAI chat API.
func (p AIProvider) IsOpenAICompatible() bool {
	switch p {
	case AIProviderOpenAI, AIProviderOpenRouter, AIProviderDeepSeek, AIProviderLMStudio:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (p AIProvider) String() string {
	return string(p)
}

// Description returns a human-readable description of the provider.
func (p AIProvider) Description() string {
	switch p {
	case AIProviderOllama:
		return "Ollama (local)"
	case AIProviderOpenAI:
		return "OpenAI (cloud)"
	case AIProviderAnthropic:
		return "Anthropic (cloud)"
	case AIProviderGemini:
		return "Gemini (cloud)"
	case AIProviderOpenRouter:
		return "OpenRouter (aggregator)"
	case AIProviderDeepSeek:
		return "DeepSeek (cloud)"
	case AIProviderLMStudio:
		return "LM Studio (local)"
	default:
		return unknownDescription
	}
}

// AllLLMProviders returns providers that support LLM operations.
func AllLLMProviders() []AIProvider {
	return []AIProvider{
		AIProviderOllama,
		AIProviderOpenAI,
		AIProviderAnthropic,
		AIProviderGemini,
		AIProviderOpenRouter,
		AIProviderDeepSeek,
		AIProviderLMStudio,
	}
}

// DefaultLLMModels returns default models for each LLM provider.
func DefaultLLMModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama:     "llama3.2",
		AIProviderOpenAI:     "gpt-4o-mini",
		AIProviderAnthropic:  "claude-3-5-sonnet-latest",
		AIProviderGemini:     "gemini-1.5-flash",
		AIProviderOpenRouter: "openai/gpt-4o-mini",
		AIProviderDeepSeek:   "deepseek-chat",
		AIProviderLMStudio:   "local-model",
	}
}

// DefaultBaseURLs returns the endpoint used when none is configured.
func DefaultBaseURLs() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama:     "http://localhost:11434",
		AIProviderOpenAI:     "https://api.openai.com/v1",
		AIProviderAnthropic:  "https://api.anthropic.com",
		AIProviderGemini:     "https://generativelanguage.googleapis.com/v1beta",
		AIProviderOpenRouter: "https://openrouter.ai/api/v1",
		AIProviderDeepSeek:   "https://api.deepseek.com/v1",
		AIProviderLMStudio:   "http://localhost:1234/v1",
	}
}

// ProviderSettings configures one entry of the provider priority list.
type ProviderSettings struct {
	// Provider is the LLM service provider.
	Provider AIProvider

	// Model is the LLM model name.
	Model string

	// BaseURL is the API endpoint. Empty uses the provider default.
	BaseURL string

	// APIKey is the API key for cloud providers.
	APIKey string

	// Retries is how many times a failed call is repeated before failover.
	Retries int
}

// IsConfigured returns true if the provider is set up.
func (p ProviderSettings) IsConfigured() bool {
	if !p.Provider.IsValid() {
		return false
	}
	if p.Provider.RequiresAPIKey() && p.APIKey == "" {
		return false
	}
	return true
}

// AnalysisSettings holds extraction and aggregation behaviour.
type AnalysisSettings struct {
	// Mode is the default analysis mode.
	Mode AnalysisMode

	// Genre selects a calibration profile. Empty uses the default table.
	Genre string

	// RelaxFloor allows falling back to the quick completeness floor.
	RelaxFloor bool

	// Workers bounds concurrent extraction. Zero uses the CPU count.
	Workers int

	// GroupTimeout bounds the consistency barrier. Zero waits indefinitely.
	GroupTimeout time.Duration
}

// ClassifierSettings configures the pretrained classifier source.
type ClassifierSettings struct {
	// ModelPath points at the JSON model file. Empty disables the classifier.
	ModelPath string

	// Weight is the classifier's weight in the ensemble average.
	Weight float64
}

// Enabled returns true if a model is configured with a positive weight.
func (c ClassifierSettings) Enabled() bool {
	return c.ModelPath != "" && c.Weight > 0
}

// ConsistencySettings configures the group consistency analyser.
type ConsistencySettings struct {
	// Tolerance is the MAD multiple beyond which a member deviates.
	Tolerance float64

	// PairTolerance is the relative difference tolerated between two variants.
	PairTolerance float64
}

// AgentSettings configures the narrative agent pipeline.
type AgentSettings struct {
	// Enabled turns the agent pipeline on. Disabled runs use templates only.
	Enabled bool

	// Providers is the priority-ordered provider list.
	Providers []ProviderSettings

	// CallTimeout bounds each outbound call.
	CallTimeout time.Duration

	// Backoff is the initial delay between retries against one provider.
	Backoff time.Duration
}

// AppSettings holds all application settings.
type AppSettings struct {
	Analysis    AnalysisSettings
	Classifier  ClassifierSettings
	Consistency ConsistencySettings
	Agents      AgentSettings
}

// Defaults for settings not present in the config store.
const (
	DefaultClassifierWeight     = 0.5
	DefaultConsistencyTolerance = 2.0
	DefaultPairTolerance        = 0.15
	DefaultProviderRetries      = 1
	DefaultCallTimeout          = 60 * time.Second
	DefaultBackoff              = 500 * time.Millisecond
)

// DefaultAppSettings returns settings with sensible defaults.
// Providers are left unconfigured; runs without providers use templates.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		Analysis: AnalysisSettings{
			Mode: ModeStandard,
		},
		Classifier: ClassifierSettings{
			Weight: DefaultClassifierWeight,
		},
		Consistency: ConsistencySettings{
			Tolerance:     DefaultConsistencyTolerance,
			PairTolerance: DefaultPairTolerance,
		},
		Agents: AgentSettings{
			Enabled:     true,
			CallTimeout: DefaultCallTimeout,
			Backoff:     DefaultBackoff,
		},
	}
}

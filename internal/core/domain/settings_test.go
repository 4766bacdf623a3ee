package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAIProvider_IsValid(t *testing.T) {
	for _, p := range AllLLMProviders() {
		assert.True(t, p.IsValid(), p.String())
		assert.NotEqual(t, unknownDescription, p.Description())
	}
	assert.False(t, AIProvider("").IsValid())
	assert.False(t, AIProvider("unknown").IsValid())
}

func TestAIProvider_Capabilities(t *testing.T) {
	tests := []struct {
		provider  AIProvider
		local     bool
		apiKey    bool
		openaiAPI bool
	}{
		{AIProviderOllama, true, false, false},
		{AIProviderLMStudio, true, false, true},
		{AIProviderOpenAI, false, true, true},
		{AIProviderAnthropic, false, true, false},
		{AIProviderGemini, false, true, false},
		{AIProviderOpenRouter, false, true, true},
		{AIProviderDeepSeek, false, true, true},
	}

	for _, tt := range tests {
		t.Run(tt.provider.String(), func(t *testing.T) {
			assert.Equal(t, tt.local, tt.provider.IsLocal())
			assert.Equal(t, tt.apiKey, tt.provider.RequiresAPIKey())
			assert.Equal(t, tt.openaiAPI, tt.provider.IsOpenAICompatible())
		})
	}
}

func TestDefaultLLMModels_CoverAllProviders(t *testing.T) {
	models := DefaultLLMModels()
	urls := DefaultBaseURLs()
	for _, p := range AllLLMProviders() {
		assert.NotEmpty(t, models[p], p.String())
		assert.NotEmpty(t, urls[p], p.String())
	}
}

func TestProviderSettings_IsConfigured(t *testing.T) {
	tests := []struct {
		name     string
		settings ProviderSettings
		expected bool
	}{
		{"empty", ProviderSettings{}, false},
		{"ollama without key", ProviderSettings{Provider: AIProviderOllama}, true},
		{"openai without key", ProviderSettings{Provider: AIProviderOpenAI}, false},
		{"openai with key", ProviderSettings{Provider: AIProviderOpenAI, APIKey: "sk-test"}, true},
		{"unknown provider", ProviderSettings{Provider: "mystery", APIKey: "k"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.settings.IsConfigured())
		})
	}
}

func TestAnalysisMode(t *testing.T) {
	for i, m := range AllAnalysisModes() {
		assert.True(t, m.IsValid())
		assert.Equal(t, i, m.Rank())
		assert.NotEqual(t, unknownDescription, m.Description())
	}
	assert.False(t, AnalysisMode("custom").IsValid())
	assert.Equal(t, -1, AnalysisMode("custom").Rank())
}

func TestDefaultModeProfiles_GrowWithMode(t *testing.T) {
	profiles := DefaultModeProfiles()

	prev := ModeProfile{}
	for _, m := range AllAnalysisModes() {
		p, ok := profiles[m]
		assert.True(t, ok, m.String())
		assert.GreaterOrEqual(t, len(p.Extractors), len(prev.Extractors))
		assert.GreaterOrEqual(t, p.CompletenessFloor, prev.CompletenessFloor)
		assert.LessOrEqual(t, p.MinExtractors, len(p.Extractors))
		assert.LessOrEqual(t, p.MinValid, p.MinExtractors)
		assert.Greater(t, p.MinValid, prev.MinValid, m.String())
		prev = p
	}
	assert.Greater(t, profiles[ModeForensic].CompletenessFloor, profiles[ModeQuick].CompletenessFloor)
	assert.Greater(t, len(profiles[ModeForensic].Extractors), len(profiles[ModeDeep].Extractors))
}

func TestDefaultAppSettings(t *testing.T) {
	s := DefaultAppSettings()

	assert.Equal(t, ModeStandard, s.Analysis.Mode)
	assert.Equal(t, DefaultClassifierWeight, s.Classifier.Weight)
	assert.False(t, s.Classifier.Enabled())
	assert.Equal(t, DefaultConsistencyTolerance, s.Consistency.Tolerance)
	assert.Equal(t, DefaultPairTolerance, s.Consistency.PairTolerance)
	assert.True(t, s.Agents.Enabled)
	assert.Empty(t, s.Agents.Providers)
}

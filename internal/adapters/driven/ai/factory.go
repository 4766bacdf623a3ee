// Package ai provides factory functions for creating AI service adapters.
package ai

import (
	"context"
	"fmt"
	"time"

	anthropicllm "github.com/custodia-labs/musictruth-cli/internal/adapters/driven/llm/anthropic"
	geminillm "github.com/custodia-labs/musictruth-cli/internal/adapters/driven/llm/gemini"
	ollamallm "github.com/custodia-labs/musictruth-cli/internal/adapters/driven/llm/ollama"
	openaillm "github.com/custodia-labs/musictruth-cli/internal/adapters/driven/llm/openai"
	"github.com/custodia-labs/musictruth-cli/internal/classifier"
	"github.com/custodia-labs/musictruth-cli/internal/core/domain"
	"github.com/custodia-labs/musictruth-cli/internal/core/ports/driven"
)

// pingTimeout is the maximum time to wait for service connectivity validation.
const pingTimeout = 5 * time.Second

// InitResult contains the AI services built from settings.
type InitResult struct {
	Providers  []driven.ProviderEntry // Priority-ordered agent providers.
	Classifier *classifier.Queue      // Nil when disabled or unloadable.
	Warnings   []string               // Non-fatal issues that caused a service to be skipped.
}

// Close releases all resources held by InitResult.
func (r *InitResult) Close() {
	for _, p := range r.Providers {
		if p.Service != nil {
			_ = p.Service.Close()
		}
	}
	if r.Classifier != nil {
		_ = r.Classifier.Close()
	}
}

// Init builds the provider chain and classifier. Providers that cannot be
// created and a classifier that cannot load are skipped with a warning;
// analysis then runs degraded rather than failing.
func Init(settings *domain.AppSettings) *InitResult {
	result := &InitResult{}
	if settings == nil {
		return result
	}

	if settings.Agents.Enabled {
		for i := range settings.Agents.Providers {
			p := &settings.Agents.Providers[i]
			svc, err := CreateLLMService(p)
			if err != nil {
				result.Warnings = append(result.Warnings, fmt.Sprintf("provider %s skipped: %v", p.Provider, err))
				continue
			}
			if svc == nil {
				result.Warnings = append(result.Warnings, fmt.Sprintf("provider %s skipped: not configured", p.Provider))
				continue
			}
			result.Providers = append(result.Providers, driven.ProviderEntry{
				Name:    p.Provider.String(),
				Service: svc,
				Retries: p.Retries,
			})
		}
	}

	if settings.Classifier.Enabled() {
		q, err := CreateClassifier(settings.Classifier)
		if err != nil {
			result.Warnings = append(result.Warnings, err.Error())
		} else {
			result.Classifier = q
		}
	}
	return result
}

// CreateClassifier loads the model and starts its inference queue.
func CreateClassifier(settings domain.ClassifierSettings) (*classifier.Queue, error) {
	if !settings.Enabled() {
		return nil, fmt.Errorf("%w: classifier disabled", domain.ErrClassifierUnavailable)
	}
	model, err := classifier.LoadModel(settings.ModelPath)
	if err != nil {
		return nil, err
	}
	return classifier.NewQueue(model), nil
}

// CreateAndValidateLLMService creates an LLM service and validates connectivity.
// Returns the service if successful, or an error with guidance.
func CreateAndValidateLLMService(settings *domain.ProviderSettings) (driven.LLMService, error) {
	if settings == nil || !settings.IsConfigured() {
		return nil, nil
	}

	svc, err := CreateLLMService(settings)
	if err != nil {
		return nil, fmt.Errorf("%w: %w. Run 'musictruth settings providers add' to fix",
			domain.ErrLLMUnavailable, err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()

	if err := svc.Ping(ctx); err != nil {
		_ = svc.Close()
		return nil, fmt.Errorf("%w: service unreachable (%w)", domain.ErrLLMUnavailable, err)
	}
	return svc, nil
}

// ValidateProviderConfig creates a service for the settings and pings it.
func ValidateProviderConfig(settings *domain.ProviderSettings) error {
	if settings == nil || !settings.IsConfigured() {
		return fmt.Errorf("%w: provider is not configured", domain.ErrLLMUnavailable)
	}

	svc, err := CreateLLMService(settings)
	if err != nil {
		return err
	}
	defer svc.Close()

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	return svc.Ping(ctx)
}

// CreateLLMService creates the LLM adapter for a provider.
// Returns nil if the provider is not configured.
func CreateLLMService(settings *domain.ProviderSettings) (driven.LLMService, error) {
	if settings == nil || !settings.IsConfigured() {
		return nil, nil
	}

	baseURL := settings.BaseURL
	if baseURL == "" {
		baseURL = domain.DefaultBaseURLs()[settings.Provider]
	}

	switch {
	case settings.Provider == domain.AIProviderOllama:
		return ollamallm.NewLLMService(ollamallm.LLMConfig{
			BaseURL: baseURL,
			Model:   settings.Model,
		}), nil

	case settings.Provider == domain.AIProviderAnthropic:
		return anthropicllm.NewLLMService(anthropicllm.Config{
			APIKey:  settings.APIKey,
			BaseURL: baseURL,
			Model:   settings.Model,
		})

	case settings.Provider == domain.AIProviderGemini:
		return geminillm.NewLLMService(geminillm.Config{
			APIKey:  settings.APIKey,
			BaseURL: baseURL,
			Model:   settings.Model,
		})

	case settings.Provider.IsOpenAICompatible():
		return openaillm.NewLLMService(openaillm.LLMConfig{
			Name:       settings.Provider.String(),
			APIKey:     settings.APIKey,
			AllowNoKey: settings.Provider.IsLocal(),
			BaseURL:    baseURL,
			Model:      settings.Model,
		})

	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", settings.Provider)
	}
}

package driven

import "context"

// LLMService provides language model operations for the agent roles.
// This is an optional service - when nil, roles degrade to deterministic templates.
//
// Implementations may include:
//   - OpenAI and OpenAI-compatible servers (OpenRouter, DeepSeek, LM Studio)
//   - Anthropic (Claude)
//   - Gemini
//   - Ollama (local models)
type LLMService interface {
	// Chat conducts a multi-turn conversation.
	Chat(ctx context.Context, messages []ChatMessage, opts ChatOptions) (string, error)

	// ModelName returns the name of the LLM model being used.
	ModelName() string

	// Ping validates the service is reachable by making a lightweight test request.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}

// ChatMessage represents a single message in a conversation.
type ChatMessage struct {
	// Role is one of "system", "user", or "assistant".
	Role string

	// Content is the message text.
	Content string
}

// ChatOptions configures chat behaviour.
type ChatOptions struct {
	// MaxTokens is the maximum number of tokens to generate.
	MaxTokens int

	// Temperature controls randomness (0.0 = deterministic, 1.0 = creative).
	Temperature float64
}

// ProviderEntry is one resolved entry of the provider priority list.
type ProviderEntry struct {
	// Name identifies the provider in agent messages.
	Name string

	// Service performs the calls.
	Service LLMService

	// Retries is how many times a failed call is repeated before failover.
	Retries int
}

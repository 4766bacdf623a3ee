package anthropic

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/musictruth-cli/internal/core/domain"
	"github.com/custodia-labs/musictruth-cli/internal/core/ports/driven"
)

func TestNewLLMService_RequiresKey(t *testing.T) {
	_, err := NewLLMService(Config{})
	assert.Error(t, err)
}

func TestChat_LiftsSystemPrompt(t *testing.T) {
	var got messagesRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "key", r.Header.Get("x-api-key"))
		assert.Equal(t, anthropicVersion, r.Header.Get("anthropic-version"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"content":[{"type":"text","text":"part one "},{"type":"text","text":"part two"}]}`))
	}))
	defer server.Close()

	svc, err := NewLLMService(Config{APIKey: "key", BaseURL: server.URL + "/"})
	require.NoError(t, err)

	out, err := svc.Chat(context.Background(), []driven.ChatMessage{
		{Role: "system", Content: "critic"},
		{Role: "user", Content: "digest"},
	}, driven.ChatOptions{})
	require.NoError(t, err)
	assert.Equal(t, "part one part two", out)
	assert.Equal(t, "critic", got.System)
	require.Len(t, got.Messages, 1)
	assert.Equal(t, DefaultMaxTokens, got.MaxTokens)
}

func TestChat_StatusErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	svc, _ := NewLLMService(Config{APIKey: "key", BaseURL: server.URL})
	_, err := svc.Chat(context.Background(), []driven.ChatMessage{{Role: "user", Content: "hi"}}, driven.ChatOptions{})
	assert.ErrorIs(t, err, domain.ErrRateLimited)
	assert.ErrorIs(t, svc.Ping(context.Background()), domain.ErrProviderFailure)
}

func TestChat_EmptyContent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"content":[]}`))
	}))
	defer server.Close()

	svc, _ := NewLLMService(Config{APIKey: "key", BaseURL: server.URL})
	_, err := svc.Chat(context.Background(), []driven.ChatMessage{{Role: "user", Content: "x"}}, driven.ChatOptions{})
	assert.ErrorIs(t, err, domain.ErrProviderFailure)
}

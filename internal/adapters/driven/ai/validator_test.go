package ai

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/custodia-labs/musictruth-cli/internal/core/domain"
	"github.com/custodia-labs/musictruth-cli/internal/core/ports/driven"
)

func TestConfigValidator_ImplementsInterface(t *testing.T) {
	var _ driven.AIConfigValidator = NewConfigValidator()
}

func TestConfigValidator_ValidateProvider(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/tags" {
			_, _ = w.Write([]byte(`{"models":[]}`))
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	v := NewConfigValidator()
	assert.Error(t, v.ValidateProvider(nil))
	assert.Error(t, v.ValidateProvider(&domain.ProviderSettings{Provider: domain.AIProviderOpenAI}))
	assert.NoError(t, v.ValidateProvider(&domain.ProviderSettings{
		Provider: domain.AIProviderOllama,
		BaseURL:  server.URL,
	}))
	assert.Error(t, v.ValidateProvider(&domain.ProviderSettings{
		Provider: domain.AIProviderLMStudio,
		BaseURL:  server.URL,
	}))
}

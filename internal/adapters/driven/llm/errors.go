// Package llm holds helpers shared by the LLM provider adapters.
package llm

import (
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/custodia-labs/musictruth-cli/internal/core/domain"
)

// maxErrorBody bounds how much of an error response is quoted.
const maxErrorBody = 512

// StatusError maps a non-2xx provider response to a domain error.
// 429 wraps ErrRateLimited; every failure wraps ErrProviderFailure.
func StatusError(provider string, resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	msg := strings.TrimSpace(string(body))
	if msg == "" {
		msg = http.StatusText(resp.StatusCode)
	}
	if resp.StatusCode == http.StatusTooManyRequests {
		return fmt.Errorf("%w: %w: %s returned 429: %s", domain.ErrProviderFailure, domain.ErrRateLimited, provider, msg)
	}
	return fmt.Errorf("%w: %s returned status %d: %s", domain.ErrProviderFailure, provider, resp.StatusCode, msg)
}

// APIError wraps an error message embedded in a provider response body.
func APIError(provider, msg string) error {
	return fmt.Errorf("%w: %s error: %s", domain.ErrProviderFailure, provider, msg)
}

// EmptyResponse reports a response with no generated text.
func EmptyResponse(provider string) error {
	return fmt.Errorf("%w: %s returned no content", domain.ErrProviderFailure, provider)
}

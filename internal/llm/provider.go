package llm

import (
	"context"
	"fmt"

	"github.com/canoncourt/canoncourt/internal/model"
)

// Provider defines the interface for hosted model backends
type Provider interface {
	// Name returns the provider name
	Name() string

	// Complete issues a single prompt-completion request
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)

	// IsAvailable checks if the provider is properly configured and accessible
	IsAvailable(ctx context.Context) bool
}

// CompletionRequest contains the input for one model call
type CompletionRequest struct {
	// Model is the specific model to use (provider-specific)
	Model string

	// System is the system instruction prefixed to the conversation
	System string

	// Prompt is the user-role prompt text
	Prompt string

	// MaxTokens limits the response length
	MaxTokens int

	// Temperature controls sampling randomness
	Temperature float64
}

// CompletionResponse contains the model's output
type CompletionResponse struct {
	// Text is the completion, whitespace-trimmed
	Text string

	// Model is the model that generated the response
	Model string

	// TokensUsed tracks token consumption where the API reports it
	TokensUsed int
}

// DefaultSystemPrompt is shared by all deliberation stages
const DefaultSystemPrompt = "You are a precise reasoning system. Follow instructions exactly and output only the requested format."

// Config holds provider configuration
type Config struct {
	// Provider name: "openai", "anthropic", "ollama"
	Provider string

	// APIKey for OpenAI-compatible and Anthropic endpoints
	APIKey string

	// BaseURL for custom endpoints (Groq, Ollama, proxies)
	BaseURL string

	// Timeout for API requests, in seconds
	Timeout int

	// Proxy settings
	HTTPProxy  string
	HTTPSProxy string
	NoProxy    string
}

// ConfigFromModel converts model.LLMConfig to llm.Config
func ConfigFromModel(mc model.LLMConfig, timeoutSeconds int) Config {
	return Config{
		Provider:   mc.Provider,
		APIKey:     mc.APIKey,
		BaseURL:    mc.BaseURL,
		Timeout:    timeoutSeconds,
		HTTPProxy:  mc.HTTPProxy,
		HTTPSProxy: mc.HTTPSProxy,
		NoProxy:    mc.NoProxy,
	}
}

// APIError normalizes HTTP-level failures across providers so callers can
// classify them without importing provider SDKs.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error (%d): %s", e.StatusCode, e.Message)
}

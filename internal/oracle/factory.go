package oracle

import (
	"fmt"
	"time"
)

// Options configures an oracle provider.
type Options struct {
	// Provider selects the backend: "gemini", "ollama" or "scripted".
	Provider string
	// BaseURL overrides the provider endpoint.
	BaseURL string
	// APIKey authenticates hosted providers.
	APIKey string
	// Model names the model to query.
	Model string
	// Temperature controls sampling randomness.
	Temperature float64
	// MaxTokens caps the response length.
	MaxTokens int
	// Timeout bounds one provider call.
	Timeout time.Duration
	// RateLimitRPS throttles request rate (0 = unlimited).
	RateLimitRPS int
	// Retry configures backoff for transient failures.
	Retry RetryConfig
}

// New creates an oracle for the configured provider.
func New(opts Options) (Oracle, error) {
	if opts.Timeout == 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.Retry == (RetryConfig{}) {
		opts.Retry = DefaultRetryConfig()
	}

	switch opts.Provider {
	case "gemini":
		return NewGeminiOracle(opts)
	case "ollama":
		return NewOllamaOracle(opts)
	case "scripted", "offline":
		return NewPushScript(50, 0, 1000)
	default:
		return nil, fmt.Errorf("unknown oracle provider %q (use gemini, ollama or scripted)", opts.Provider)
	}
}

// WithRetries wraps an oracle so Decide and Reflect retry transient
// failures per the options' retry policy.
func WithRetries(o Oracle, cfg RetryConfig) Oracle {
	return &retryingOracle{inner: o, cfg: cfg}
}

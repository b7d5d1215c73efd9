package generator

import (
	"context"
	"fmt"
	"os"
	"strings"
)

// Environment variables consulted when a Config leaves fields empty
const (
	EnvProvider     = "DOCFLOW_PROVIDER"
	EnvGeminiAPIKey = "GEMINI_API_KEY"
	EnvOpenAIAPIKey = "OPENAI_API_KEY"
)

// Config holds generator configuration
type Config struct {
	Provider   string
	Model      string
	APIKey     string
	BaseURL    string
	MaxRetries int
}

// Key identifies the session a Config produces. Configs with the same key
// share a session.
func (c Config) Key() string {
	return ComputeHash(strings.ToLower(c.Provider), c.Model, c.BaseURL, c.APIKey)
}

// NewFromEnv creates a generator based on environment variables
// Priority:
// 1. DOCFLOW_PROVIDER (gemini, openai, echo)
// 2. Check for API keys: GEMINI_API_KEY, OPENAI_API_KEY
// 3. Default to echo if no API keys found
func NewFromEnv(ctx context.Context) (Generator, error) {
	return New(ctx, Config{Provider: DetectProvider()})
}

// New creates a generator with explicit configuration. An empty provider
// is resolved with DetectProvider.
func New(ctx context.Context, cfg Config) (Generator, error) {
	retry := DefaultRetryConfig().withMaxRetries(cfg.MaxRetries)

	provider := strings.ToLower(cfg.Provider)
	if provider == "" {
		provider = DetectProvider()
	}

	switch provider {
	case ProviderGemini:
		return NewGeminiProvider(ctx, cfg.APIKey, cfg.Model, retry)
	case ProviderOpenAI:
		return NewOpenAIProvider(cfg.APIKey, cfg.Model, cfg.BaseURL, retry)
	case ProviderEcho:
		return NewEchoProvider(), nil
	default:
		return nil, fmt.Errorf("%w: unknown provider %s", ErrUnsupportedProvider, cfg.Provider)
	}
}

// DetectProvider returns the provider that would be used based on current environment
func DetectProvider() string {
	provider := os.Getenv(EnvProvider)
	if provider != "" {
		return strings.ToLower(provider)
	}

	if os.Getenv(EnvGeminiAPIKey) != "" {
		return ProviderGemini
	}
	if os.Getenv(EnvOpenAIAPIKey) != "" {
		return ProviderOpenAI
	}

	return ProviderEcho
}

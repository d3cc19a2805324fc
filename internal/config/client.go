package config

import (
	"fmt"
	"log/slog"

	"github.com/MerlinChiodo/multi-agent-orchestration/core/client"
	"github.com/MerlinChiodo/multi-agent-orchestration/core/client/middleware"
	"github.com/MerlinChiodo/multi-agent-orchestration/core/guard"
	"github.com/MerlinChiodo/multi-agent-orchestration/providers/ai"
	"github.com/MerlinChiodo/multi-agent-orchestration/providers/ai/ollama"
	"github.com/MerlinChiodo/multi-agent-orchestration/providers/ai/openai"
	"github.com/MerlinChiodo/multi-agent-orchestration/providers/observability"
)

// NewProvider returns the backend named by c.Provider.
func (c Config) NewProvider() (ai.Provider, error) {
	var provider ai.Provider
	switch c.Provider {
	case ProviderOllama, "":
		provider = ollama.NewOllamaProvider()
		if c.BaseURL != "" {
			provider = provider.WithBaseURL(c.BaseURL)
		}
	case ProviderOpenAI:
		provider = openai.NewOpenAIProvider()
		// The Ollama default is not an OpenAI endpoint.
		if c.BaseURL != "" && c.BaseURL != ollama.DefaultBaseURL {
			provider = provider.WithBaseURL(c.BaseURL)
		}
		if c.APIKey != "" {
			provider = provider.WithAPIKey(c.APIKey)
		}
	default:
		return nil, fmt.Errorf("%w: unknown provider %q", ErrInvalidConfig, c.Provider)
	}
	return provider, nil
}

// ClientOptions adds optional instrumentation to NewClient.
type ClientOptions struct {
	Observer observability.Provider
	Logger   *slog.Logger
	LogLevel middleware.LogLevel
}

// NewClient builds the model client shared by every stage of a run.
func (c Config) NewClient(options ClientOptions) (*client.Client, error) {
	provider, err := c.NewProvider()
	if err != nil {
		return nil, err
	}

	opts := []client.Option{
		client.WithDefaultModel(c.Model),
		client.WithGenerationConfig(c.GenerationConfig()),
	}
	if options.Observer != nil {
		opts = append(opts, client.WithObserver(options.Observer))
	}
	if options.Logger != nil {
		opts = append(opts, client.WithMiddleware(middleware.NewLoggingMiddleware(options.Logger, options.LogLevel)))
	}
	if c.Retries > 0 {
		opts = append(opts, client.WithMiddleware(middleware.NewRetryMiddleware(middleware.RetryConfig{MaxRetries: c.Retries})))
	}
	// Innermost, so every retry attempt gets the full request timeout.
	opts = append(opts, client.WithMiddleware(middleware.NewTimeoutMiddleware(guard.Seconds(c.TimeoutSeconds))))

	return client.New(provider, opts...)
}

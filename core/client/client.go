package client

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/MerlinChiodo/multi-agent-orchestration/core/overview"
	"github.com/MerlinChiodo/multi-agent-orchestration/providers/ai"
	"github.com/MerlinChiodo/multi-agent-orchestration/providers/observability"
)

// ErrNilProvider is returned by New when no provider is supplied.
var ErrNilProvider = errors.New("client: provider must not be nil")

// Client is an immutable, stateless model client. It is safe for concurrent
// use by multiple goroutines.
type Client struct {
	provider         ai.Provider
	observer         observability.Provider
	systemPrompt     string
	defaultModel     string
	generationConfig *ai.GenerationConfig
	send             SendFunc
}

// Option configures a Client during New.
type Option func(*clientOptions)

type clientOptions struct {
	observer         observability.Provider
	systemPrompt     string
	defaultModel     string
	generationConfig *ai.GenerationConfig
	middlewares      []MiddlewareConfig
}

// WithObserver enables tracing, metrics and logging for every call. The
// observability middleware is installed as the outermost wrapper so it sees
// the final outcome after retries and timeouts.
func WithObserver(observer observability.Provider) Option {
	return func(options *clientOptions) {
		options.observer = observer
	}
}

// WithSystemPrompt sets a system prompt sent with every request.
func WithSystemPrompt(prompt string) Option {
	return func(options *clientOptions) {
		options.systemPrompt = prompt
	}
}

// WithDefaultModel sets the model used when a request names none.
func WithDefaultModel(model string) Option {
	return func(options *clientOptions) {
		options.defaultModel = model
	}
}

// WithGenerationConfig sets sampling and runtime options for every request.
func WithGenerationConfig(config ai.GenerationConfig) Option {
	return func(options *clientOptions) {
		options.generationConfig = &config
	}
}

// WithMiddleware appends middlewares to the chain. The first middleware passed
// is the outermost.
func WithMiddleware(middlewares ...MiddlewareConfig) Option {
	return func(options *clientOptions) {
		options.middlewares = append(options.middlewares, middlewares...)
	}
}

// New builds a Client around provider.
func New(provider ai.Provider, opts ...Option) (*Client, error) {
	if provider == nil {
		return nil, ErrNilProvider
	}

	options := &clientOptions{}
	for _, opt := range opts {
		opt(options)
	}

	var errs []error
	for i, middleware := range options.middlewares {
		if middleware.Send == nil {
			errs = append(errs, fmt.Errorf("client: middleware at index %d has a nil Send function", i))
		}
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	middlewares := options.middlewares
	if options.observer != nil {
		middlewares = append([]MiddlewareConfig{NewObservabilityMiddleware(options.observer, options.defaultModel)}, middlewares...)
	}

	return &Client{
		provider:         provider,
		observer:         options.observer,
		systemPrompt:     options.systemPrompt,
		defaultModel:     options.defaultModel,
		generationConfig: options.generationConfig,
		send:             buildSendChain(provider, middlewares),
	}, nil
}

// Observer returns the configured observability provider, or nil.
func (c *Client) Observer() observability.Provider {
	return c.observer
}

// Model returns the default model name.
func (c *Client) Model() string {
	return c.defaultModel
}

// ProviderName identifies the backend.
func (c *Client) ProviderName() string {
	return c.provider.Name()
}

// SendMessage sends prompt as a single user message and returns the raw
// response. Usage is recorded in the context's overview when present.
func (c *Client) SendMessage(ctx context.Context, prompt string) (*ai.ChatResponse, error) {
	request := ai.ChatRequest{
		Model:            c.defaultModel,
		SystemPrompt:     c.systemPrompt,
		Messages:         []ai.Message{{Role: ai.RoleUser, Content: prompt}},
		GenerationConfig: c.generationConfig,
	}

	response, err := c.send(ctx, request)

	if tracker := overview.FromContext(ctx); tracker != nil {
		if err != nil {
			tracker.RecordFailure()
		} else {
			tracker.RecordResponse(response)
		}
	}

	if err != nil {
		return nil, err
	}
	if response == nil {
		return nil, fmt.Errorf("client: provider %s returned no response", c.provider.Name())
	}
	return response, nil
}

// Complete is SendMessage reduced to the trimmed response text.
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	response, err := c.SendMessage(ctx, prompt)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(response.Content), nil
}

package ollama

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/MerlinChiodo/multi-agent-orchestration/internal/utils"
	"github.com/MerlinChiodo/multi-agent-orchestration/providers/ai"
)

const (
	// DefaultBaseURL is the address of a locally running Ollama server.
	DefaultBaseURL = "http://127.0.0.1:11434"

	chatEndpoint = "/api/chat"

	defaultTemperature = 0.0
	defaultNumCtx      = 4096
	defaultNumPredict  = 192
	defaultKeepAlive   = "30m"
)

// ErrEmptyModel is returned when a request names no model.
var ErrEmptyModel = errors.New("ollama: model is not set")

// Provider talks to Ollama's native chat endpoint.
type Provider struct {
	baseURL string
	client  *http.Client
}

// NewOllamaProvider returns a provider for OLLAMA_BASE_URL, falling back to
// DefaultBaseURL.
func NewOllamaProvider() *Provider {
	baseURL := os.Getenv("OLLAMA_BASE_URL")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	return &Provider{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 10 * time.Minute},
	}
}

var _ ai.Provider = (*Provider)(nil)

func (p *Provider) Name() string { return "ollama" }

// WithAPIKey is a no-op: a local Ollama server is unauthenticated.
func (p *Provider) WithAPIKey(_ string) ai.Provider {
	return p
}

func (p *Provider) WithBaseURL(baseURL string) ai.Provider {
	p.baseURL = strings.TrimRight(baseURL, "/")
	return p
}

func (p *Provider) WithHttpClient(httpClient *http.Client) ai.Provider {
	p.client = httpClient
	return p
}

// SendMessage implements ai.Provider.
func (p *Provider) SendMessage(ctx context.Context, request ai.ChatRequest) (*ai.ChatResponse, error) {
	if request.Model == "" {
		return nil, ErrEmptyModel
	}

	httpResponse, resp, err := utils.DoPostSync[chatResponse](ctx, p.client, p.baseURL+chatEndpoint, "", requestFromGeneric(request))
	if err != nil {
		return nil, fmt.Errorf("ollama chat: %w", err)
	}
	if resp == nil {
		return nil, fmt.Errorf("ollama chat: empty response (%s)", httpResponse.Status)
	}
	if resp.Error != "" {
		return nil, fmt.Errorf("ollama chat: %s", resp.Error)
	}

	return responseToGeneric(*resp), nil
}

func requestFromGeneric(request ai.ChatRequest) chatRequest {
	opts := options{
		Temperature: defaultTemperature,
		NumCtx:      defaultNumCtx,
		NumPredict:  defaultNumPredict,
		NumThread:   runtime.NumCPU(),
	}
	keepAlive := defaultKeepAlive

	if config := request.GenerationConfig; config != nil {
		if config.Temperature != nil {
			opts.Temperature = *config.Temperature
		}
		if config.ContextWindow > 0 {
			opts.NumCtx = config.ContextWindow
		}
		if config.MaxTokens > 0 {
			opts.NumPredict = config.MaxTokens
		}
		if config.NumThreads > 0 {
			opts.NumThread = config.NumThreads
		}
		if config.KeepAlive != "" {
			keepAlive = config.KeepAlive
		}
	}

	messages := ai.BuildMessages(request)
	wire := make([]chatMessage, 0, len(messages))
	for _, message := range messages {
		wire = append(wire, chatMessage{Role: string(message.Role), Content: message.Content})
	}

	return chatRequest{
		Model:     request.Model,
		Messages:  wire,
		Stream:    false,
		Options:   opts,
		KeepAlive: keepAlive,
	}
}

func responseToGeneric(resp chatResponse) *ai.ChatResponse {
	var created int64
	if parsed, err := time.Parse(time.RFC3339Nano, resp.CreatedAt); err == nil {
		created = parsed.Unix()
	}

	finishReason := resp.DoneReason
	if finishReason == "" && resp.Done {
		finishReason = "stop"
	}

	return &ai.ChatResponse{
		Model:        resp.Model,
		Created:      created,
		Content:      resp.Message.Content,
		FinishReason: finishReason,
		Usage: &ai.Usage{
			PromptTokens:     resp.PromptEvalCount,
			CompletionTokens: resp.EvalCount,
			TotalTokens:      resp.PromptEvalCount + resp.EvalCount,
		},
	}
}

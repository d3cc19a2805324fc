package openai

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"os"

	goopenai "github.com/sashabaranov/go-openai"

	"github.com/MerlinChiodo/multi-agent-orchestration/providers/ai"
)

// ErrNoChoices is returned when the endpoint answers without any choice.
var ErrNoChoices = errors.New("openai: response contained no choices")

// Provider implements ai.Provider for OpenAI-compatible APIs.
type Provider struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// NewOpenAIProvider reads OPENAI_API_KEY and OPENAI_BASE_URL. An empty base
// URL means the public OpenAI endpoint.
func NewOpenAIProvider() *Provider {
	return &Provider{
		apiKey:  os.Getenv("OPENAI_API_KEY"),
		baseURL: os.Getenv("OPENAI_BASE_URL"),
	}
}

var _ ai.Provider = (*Provider)(nil)

func (p *Provider) Name() string { return "openai" }

func (p *Provider) WithAPIKey(apiKey string) ai.Provider {
	p.apiKey = apiKey
	return p
}

func (p *Provider) WithBaseURL(baseURL string) ai.Provider {
	p.baseURL = baseURL
	return p
}

func (p *Provider) WithHttpClient(httpClient *http.Client) ai.Provider {
	p.httpClient = httpClient
	return p
}

func (p *Provider) client() *goopenai.Client {
	config := goopenai.DefaultConfig(p.apiKey)
	if p.baseURL != "" {
		config.BaseURL = p.baseURL
	}
	if p.httpClient != nil {
		config.HTTPClient = p.httpClient
	}
	return goopenai.NewClientWithConfig(config)
}

// SendMessage implements ai.Provider.
func (p *Provider) SendMessage(ctx context.Context, request ai.ChatRequest) (*ai.ChatResponse, error) {
	resp, err := p.client().CreateChatCompletion(ctx, requestFromGeneric(request))
	if err != nil {
		return nil, fmt.Errorf("openai chat completion: %w", err)
	}

	if len(resp.Choices) == 0 {
		return nil, ErrNoChoices
	}

	return &ai.ChatResponse{
		Id:           resp.ID,
		Model:        resp.Model,
		Created:      resp.Created,
		Content:      resp.Choices[0].Message.Content,
		FinishReason: string(resp.Choices[0].FinishReason),
		Usage: &ai.Usage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		},
	}, nil
}

func requestFromGeneric(request ai.ChatRequest) goopenai.ChatCompletionRequest {
	messages := ai.BuildMessages(request)
	wire := make([]goopenai.ChatCompletionMessage, 0, len(messages))
	for _, message := range messages {
		wire = append(wire, goopenai.ChatCompletionMessage{
			Role:    roleToWire(message.Role),
			Content: message.Content,
		})
	}

	completion := goopenai.ChatCompletionRequest{
		Model:    request.Model,
		Messages: wire,
	}

	if config := request.GenerationConfig; config != nil {
		if config.Temperature != nil {
			completion.Temperature = float32(*config.Temperature)
			// go-openai omits a zero temperature; the smallest float keeps
			// decoding greedy while still being serialized.
			if completion.Temperature == 0 {
				completion.Temperature = math.SmallestNonzeroFloat32
			}
		}
		if config.MaxTokens > 0 {
			completion.MaxTokens = config.MaxTokens
		}
	}

	return completion
}

func roleToWire(role ai.MessageRole) string {
	switch role {
	case ai.RoleSystem:
		return goopenai.ChatMessageRoleSystem
	case ai.RoleAssistant:
		return goopenai.ChatMessageRoleAssistant
	default:
		return goopenai.ChatMessageRoleUser
	}
}

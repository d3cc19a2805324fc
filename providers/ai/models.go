package ai

/*
	##### PROVIDER INPUT #####
*/

// ChatRequest represents a request to send a chat message
type ChatRequest struct {
	Model            string            `json:"model,omitempty"`             // Model name or identifier
	Messages         []Message         `json:"messages"`                    // Conversation messages, excluding the system prompt
	SystemPrompt     string            `json:"system_prompt,omitempty"`     // Optional system prompt
	GenerationConfig *GenerationConfig `json:"generation_config,omitempty"` // Optional generation configuration
}

// Message represents a single message in a conversation
type Message struct {
	Role    MessageRole `json:"role"`
	Content string      `json:"content,omitempty"`
}

// GenerationConfig carries sampling and runtime options. Temperature is a
// pointer so that an explicit 0 (greedy decoding) is distinguishable from
// "use the backend default".
type GenerationConfig struct {
	MaxTokens     int      `json:"max_tokens,omitempty"`     // Upper bound on generated tokens (num_predict for Ollama)
	Temperature   *float64 `json:"temperature,omitempty"`    // Sampling temperature [0..2]
	ContextWindow int      `json:"context_window,omitempty"` // Context length in tokens (num_ctx for Ollama)
	KeepAlive     string   `json:"keep_alive,omitempty"`     // How long a local runtime keeps the model loaded, e.g. "30m"
	NumThreads    int      `json:"num_threads,omitempty"`    // CPU threads for local inference
}

// Float64 returns a pointer to value, for GenerationConfig.Temperature.
func Float64(value float64) *float64 {
	return &value
}

/*
	##### PROVIDER OUTPUT #####
*/

type Usage struct {
	PromptTokens     int `json:"prompt_tokens,omitempty"`
	CompletionTokens int `json:"completion_tokens,omitempty"`
	TotalTokens      int `json:"total_tokens,omitempty"`
}

// ChatResponse represents the response from a chat completion
type ChatResponse struct {
	Id           string `json:"id,omitempty"`
	Model        string `json:"model"`
	Created      int64  `json:"created,omitempty"`
	Content      string `json:"content"`
	FinishReason string `json:"finish_reason,omitempty"`
	Usage        *Usage `json:"usage,omitempty"`
}

/*
	##### ENUMS #####
*/

// MessageRole represents the role of a message; compatible with string
type MessageRole string

const (
	RoleSystem    MessageRole = "system"    // System instructions/configuration
	RoleUser      MessageRole = "user"      // End-user message
	RoleAssistant MessageRole = "assistant" // Model response
)

// BuildMessages prepends the system prompt (if any) to the conversation in
// the order most chat APIs expect.
func BuildMessages(request ChatRequest) []Message {
	messages := make([]Message, 0, len(request.Messages)+1)
	if request.SystemPrompt != "" {
		messages = append(messages, Message{Role: RoleSystem, Content: request.SystemPrompt})
	}
	return append(messages, request.Messages...)
}

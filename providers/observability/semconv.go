package observability

// Semantic conventions for observability attributes.
// These constants define standard attribute names to ensure consistency
// across different components of the system.

// --- LLM Provider Attributes ---

const (
	// AttrLLMProvider is the name of the LLM provider (e.g., "ollama", "openai")
	AttrLLMProvider = "llm.provider"

	// AttrLLMModel is the model identifier (e.g., "qwen2.5:1.5b")
	AttrLLMModel = "llm.model"

	// AttrLLMEndpoint is the API endpoint URL
	AttrLLMEndpoint = "llm.endpoint"

	// AttrLLMFinishReason is the reason the generation finished
	AttrLLMFinishReason = "llm.finish_reason"

	// AttrLLMTemperature is the sampling temperature used
	AttrLLMTemperature = "llm.temperature"

	// AttrLLMMaxTokens is the maximum tokens allowed
	AttrLLMMaxTokens = "llm.max_tokens" // #nosec G101 -- Not a credential, token refers to LLM tokens
)

// --- Token Usage Attributes ---

const (
	// AttrLLMTokensPrompt is the number of prompt tokens
	AttrLLMTokensPrompt = "llm.tokens.prompt" // #nosec G101 -- Not a credential, token refers to LLM tokens

	// AttrLLMTokensCompletion is the number of completion tokens
	AttrLLMTokensCompletion = "llm.tokens.completion" // #nosec G101 -- Not a credential, token refers to LLM tokens

	// AttrLLMTokensTotal is the total number of tokens
	AttrLLMTokensTotal = "llm.tokens.total" // #nosec G101 -- Not a credential, token refers to LLM tokens
)

// --- Request Attributes ---

const (
	// AttrRequestMessagesCount is the number of messages in the request
	AttrRequestMessagesCount = "request.messages_count"

	// AttrClientPrompt is the user prompt/input
	AttrClientPrompt = "client.prompt"

	// AttrResponseContent is the response content from LLM
	AttrResponseContent = "response.content"
)

// --- HTTP Attributes ---

const (
	// AttrHTTPMethod is the HTTP method (GET, POST, etc.)
	AttrHTTPMethod = "http.method"

	// AttrHTTPStatusCode is the HTTP response status code
	AttrHTTPStatusCode = "http.status_code"

	// AttrHTTPURL is the full request URL
	AttrHTTPURL = "http.url"

	// AttrHTTPRequestBodySize is the request body size in bytes
	AttrHTTPRequestBodySize = "http.request.body.size"

	// AttrHTTPResponseBodySize is the response body size in bytes
	AttrHTTPResponseBodySize = "http.response.body.size"
)

// --- Pipeline Attributes ---

const (
	// AttrEngine identifies the workflow engine ("langgraph", "langchain")
	AttrEngine = "pipeline.engine"

	// AttrRunID is the unique identifier of one pipeline execution
	AttrRunID = "pipeline.run_id"

	// AttrStage is the name of the stage being executed (reader, critic, ...)
	AttrStage = "pipeline.stage"

	// AttrInputChars is the size of the analysed text
	AttrInputChars = "pipeline.input_chars"

	// AttrTimedOut marks a stage whose model call hit the guard deadline
	AttrTimedOut = "pipeline.timed_out"

	// AttrCriticLoops is the number of rework loops taken
	AttrCriticLoops = "pipeline.critic_loops"

	// AttrRoute is the transition chosen by the router
	AttrRoute = "pipeline.route"
)

// --- General Attributes ---

const (
	// AttrError is the error message
	AttrError = "error"

	// AttrDuration is the operation duration
	AttrDuration = "duration"

	// AttrStatus is the operation status
	AttrStatus = "status"
)

// --- Span Names ---

const (
	// SpanClientSendMessage is the span name for client message sending
	SpanClientSendMessage = "client.send_message"

	// SpanPipelineRun is the span name for a complete workflow execution
	SpanPipelineRun = "pipeline.run"

	// SpanTelemetryWrite is the span name for persisting a telemetry row
	SpanTelemetryWrite = "telemetry.write"
)

// --- Metric Names ---

const (
	// MetricClientRequestCount is the counter for client requests
	MetricClientRequestCount = "mao.client.request.count"

	// MetricClientRequestDuration is the histogram for request duration
	MetricClientRequestDuration = "mao.client.request.duration"

	// MetricClientTokensTotal is the counter for total tokens
	MetricClientTokensTotal = "mao.client.tokens.total"

	// MetricClientTokensPrompt is the counter for prompt tokens
	MetricClientTokensPrompt = "mao.client.tokens.prompt"

	// MetricClientTokensCompletion is the counter for completion tokens
	MetricClientTokensCompletion = "mao.client.tokens.completion"

	// MetricStageTimeouts counts model calls abandoned by the timeout guard
	MetricStageTimeouts = "mao.stage.timeouts"

	// MetricPipelineScore records the judge aggregate of each run
	MetricPipelineScore = "mao.pipeline.judge_aggregate"
)

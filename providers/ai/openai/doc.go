// Package openai implements ai.Provider for OpenAI-compatible chat completion
// endpoints (OpenAI itself, vLLM, LM Studio, Ollama's /v1 shim) on top of
// github.com/sashabaranov/go-openai.
package openai

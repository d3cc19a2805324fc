// Package ai defines the provider-agnostic request and response types shared
// by every model backend. Each provider (ollama, openai) maps [ChatRequest]
// to its own wire format and returns a [ChatResponse], keeping the stage
// runners decoupled from provider-specific details.
package ai

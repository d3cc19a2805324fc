// Package ollama implements ai.Provider against a local Ollama runtime using
// the native /api/chat endpoint, which accepts runtime options (num_ctx,
// num_predict, num_thread, keep_alive) that the OpenAI-compatible endpoint
// ignores.
package ollama

// Package client provides the stateless model client used by every pipeline
// stage. A Client is bound to one provider and one generation configuration
// (model, temperature, token budget) at construction time and maps a prompt to
// text; it keeps no conversation history between calls.
//
// The primary entry point is [New], which accepts an [ai.Provider] and a set of
// functional options ([WithObserver], [WithDefaultModel],
// [WithGenerationConfig], [WithMiddleware]). Cross-cutting behaviour such as
// timeouts, retries and logging is layered on with middleware from the
// middleware sub-package.
package client

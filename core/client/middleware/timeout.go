package middleware

import (
	"context"
	"time"

	"github.com/MerlinChiodo/multi-agent-orchestration/core/client"
	"github.com/MerlinChiodo/multi-agent-orchestration/providers/ai"
)

// NewTimeoutMiddleware bounds every provider call with its own deadline. A
// shorter deadline already present on the caller's context still wins.
//
// This differs from the stage guard used by the pipelines: the guard returns a
// sentinel and lets the graph continue, while this middleware surfaces
// context.DeadlineExceeded to whoever called the client.
func NewTimeoutMiddleware(timeout time.Duration) client.MiddlewareConfig {
	return client.MiddlewareConfig{
		Send: func(next client.SendFunc) client.SendFunc {
			return func(ctx context.Context, request ai.ChatRequest) (*ai.ChatResponse, error) {
				if timeout <= 0 {
					return next(ctx, request)
				}

				ctx, cancel := context.WithTimeout(ctx, timeout)
				defer cancel()

				return next(ctx, request)
			}
		},
	}
}

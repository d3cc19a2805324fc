// Package middleware provides send middlewares for [client.Client]. Each
// constructor returns a [client.MiddlewareConfig] for [client.WithMiddleware].
//
//   - [NewTimeoutMiddleware]: per-request deadline.
//   - [NewRetryMiddleware]: exponential backoff with jitter for transient
//     provider failures (rate limits, 5xx, a local model server still starting).
//   - [NewLoggingMiddleware]: request/response slog entries at three verbosity
//     levels.
//
// The first middleware passed to WithMiddleware is the outermost:
//
//	c, err := client.New(provider,
//	    client.WithMiddleware(
//	        middleware.NewRetryMiddleware(middleware.RetryConfig{}),
//	        middleware.NewTimeoutMiddleware(60*time.Second),
//	    ),
//	)
//
// Here every attempt gets its own 60s deadline.
package middleware

// Package overview tracks model-call statistics (call count, failures, token
// usage, models used) for a single pipeline execution. Use
// [OverviewFromContext] to obtain or create an instance bound to a
// [context.Context]; the client records into it automatically.
package overview

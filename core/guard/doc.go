// Package guard bounds a unit of work by a deadline without ever blocking past
// it.
//
// Work runs on its own goroutine with a cancellable context. If it does not
// finish in time the caller gets [ErrTimeout] (or the [Sentinel] text via
// [Text]) straight away, the work's context is cancelled, and its eventual
// result is dropped. Timeouts below one second are raised to one second.
//
//	notes, timedOut, err := guard.Text(ctx, 45, func(ctx context.Context) (string, error) {
//	    return llm.Complete(ctx, prompt)
//	})
package guard

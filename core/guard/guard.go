package guard

import (
	"context"
	"errors"
	"time"
)

// Sentinel is the reserved text a guarded stage produces when its work did not
// finish before the deadline.
const Sentinel = "__TIMEOUT__"

// ErrTimeout is returned by Do when the deadline passes first.
var ErrTimeout = errors.New("guard: deadline exceeded")

// Seconds normalizes a configured timeout: values below one second become one
// second.
func Seconds(timeoutSeconds float64) time.Duration {
	if timeoutSeconds < 1 {
		timeoutSeconds = 1
	}
	return time.Duration(timeoutSeconds * float64(time.Second))
}

type outcome[T any] struct {
	value T
	err   error
}

// Do runs work on its own goroutine with a derived, cancellable context and
// waits at most timeout for it. When the deadline passes, the work's context is
// cancelled, ErrTimeout is returned immediately and whatever the work later
// produces is discarded. A cancelled parent context is reported as its own
// error without waiting either.
//
// The result channel is buffered so an abandoned goroutine can always finish.
func Do[T any](ctx context.Context, timeout time.Duration, work func(context.Context) (T, error)) (T, error) {
	if timeout < time.Second {
		timeout = time.Second
	}

	workCtx, cancel := context.WithCancel(ctx)
	done := make(chan outcome[T], 1)

	go func() {
		var result outcome[T]
		defer func() {
			if recovered := recover(); recovered != nil {
				result.err = &PanicError{Value: recovered}
			}
			done <- result
		}()
		result.value, result.err = work(workCtx)
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	var zero T
	select {
	case result := <-done:
		cancel()
		return result.value, result.err
	case <-timer.C:
		cancel()
		return zero, ErrTimeout
	case <-ctx.Done():
		cancel()
		return zero, ctx.Err()
	}
}

// Text runs a text-producing stage. On timeout it returns Sentinel and true;
// other errors are returned as-is so the caller can decide how to degrade.
func Text(ctx context.Context, timeoutSeconds float64, work func(context.Context) (string, error)) (string, bool, error) {
	text, err := Do(ctx, Seconds(timeoutSeconds), work)
	if errors.Is(err, ErrTimeout) {
		return Sentinel, true, nil
	}
	return text, false, err
}


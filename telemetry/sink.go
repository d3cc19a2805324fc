package telemetry

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// Sink persists telemetry rows. Implementations own their schema and must be
// safe for concurrent use.
type Sink interface {
	Write(ctx context.Context, row *Row) error
	Close() error
}

// DefaultFields are the leading CSV columns, present even when a row does
// not set them.
var DefaultFields = []string{
	"engine",
	"input_chars",
	"summary_len",
	"meta_len",
	"latency_s",
	"reader_s",
	"summarizer_s",
	"critic_s",
	"integrator_s",
}

// Nop discards every row.
type Nop struct{}

func (Nop) Write(context.Context, *Row) error { return nil }
func (Nop) Close() error                      { return nil }

// Multi writes every row to all of its sinks concurrently.
type Multi []Sink

// NewMulti drops nil sinks. With no sinks left it returns Nop.
func NewMulti(sinks ...Sink) Sink {
	var kept Multi
	for _, sink := range sinks {
		if sink != nil {
			kept = append(kept, sink)
		}
	}
	switch len(kept) {
	case 0:
		return Nop{}
	case 1:
		return kept[0]
	default:
		return kept
	}
}

// Write reports the failures of all sinks joined together. One failing sink
// does not stop the others.
func (m Multi) Write(ctx context.Context, row *Row) error {
	errs := make([]error, len(m))
	var group errgroup.Group
	for i, sink := range m {
		group.Go(func() error {
			if err := sink.Write(ctx, row); err != nil {
				errs[i] = fmt.Errorf("sink %d (%T): %w", i, sink, err)
			}
			return nil
		})
	}
	_ = group.Wait()
	return errors.Join(errs...)
}

func (m Multi) Close() error {
	var errs []error
	for _, sink := range m {
		if err := sink.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

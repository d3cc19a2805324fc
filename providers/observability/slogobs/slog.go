package slogobs

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/MerlinChiodo/multi-agent-orchestration/providers/observability"
)

// Observer implements observability.Provider using log/slog. Spans and metric
// updates are written as structured records; counter totals and histogram
// sums are kept in memory so tests can read them back.
//
// Records logged under a context carrying a pipeline stage
// (observability.ContextWithStage) get a pipeline.stage attribute.
type Observer struct {
	logger  *slog.Logger
	metrics *metricsStore
}

// New creates a new slog-based observer with functional options.
//
//	observer := slogobs.New(
//	    slogobs.WithFormat(slogobs.FormatJSON),
//	    slogobs.WithLevel(slog.LevelDebug),
//	)
func New(opts ...Option) *Observer {
	return &Observer{
		logger:  NewLogger(opts...),
		metrics: newMetricsStore(),
	}
}

var _ observability.Provider = (*Observer)(nil)

// Logger exposes the underlying slog logger, e.g. for the logging middleware.
func (o *Observer) Logger() *slog.Logger {
	return o.logger
}

// Component returns an Observer whose records carry a component attribute.
// Metrics are shared with the parent.
func (o *Observer) Component(name string) *Observer {
	return &Observer{
		logger:  o.logger.With(slog.String("component", name)),
		metrics: o.metrics,
	}
}

// CounterValue returns the accumulated value of a counter, or zero if the
// counter was never touched.
func (o *Observer) CounterValue(name string) int64 {
	counter, ok := lookup(o.metrics, o.metrics.counters, name)
	if !ok {
		return 0
	}
	counter.mu.Lock()
	defer counter.mu.Unlock()
	return counter.value
}

// HistogramSummary returns how many values a histogram recorded and their sum.
func (o *Observer) HistogramSummary(name string) (count int64, sum float64) {
	histogram, ok := lookup(o.metrics, o.metrics.histograms, name)
	if !ok {
		return 0, 0
	}
	histogram.mu.Lock()
	defer histogram.mu.Unlock()
	return histogram.count, histogram.sum
}

// --- TRACING ---

// StartSpan begins a named span and logs its start at debug level. The span
// is attached to the returned context so that HTTP helpers can add events.
func (o *Observer) StartSpan(ctx context.Context, name string, attrs ...observability.Attribute) (context.Context, observability.Span) {
	span := &slogSpan{
		name:   name,
		start:  time.Now(),
		logger: o.logger,
		attrs:  withStage(ctx, attrs),
	}
	o.logger.LogAttrs(ctx, slog.LevelDebug, "span started", span.record("span.start")...)
	return observability.ContextWithSpan(ctx, span), span
}

type slogSpan struct {
	mu     sync.Mutex
	name   string
	start  time.Time
	logger *slog.Logger
	attrs  []observability.Attribute
	status observability.StatusCode
}

func (s *slogSpan) record(event string, extra ...slog.Attr) []slog.Attr {
	attrs := append([]slog.Attr{slog.String("span", s.name), slog.String("event", event)}, extra...)
	return append(attrs, toSlogAttrs(s.attrs)...)
}

// End logs the span with its duration and accumulated attributes. Failed
// spans are logged at warn level.
func (s *slogSpan) End() {
	s.mu.Lock()
	defer s.mu.Unlock()

	level := slog.LevelDebug
	if s.status == observability.StatusError {
		level = slog.LevelWarn
	}
	s.logger.LogAttrs(context.Background(), level, "span ended",
		s.record("span.end", slog.Duration("duration", time.Since(s.start)))...)
}

func (s *slogSpan) SetAttributes(attrs ...observability.Attribute) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attrs = append(s.attrs, attrs...)
}

func (s *slogSpan) SetStatus(code observability.StatusCode, description string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.status = code
	s.attrs = append(s.attrs, observability.String(observability.AttrStatus, code.String()))
	if description != "" {
		s.attrs = append(s.attrs, observability.String("status_description", description))
	}
}

func (s *slogSpan) RecordError(err error) {
	if err == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attrs = append(s.attrs, observability.Error(err))
}

func (s *slogSpan) AddEvent(name string, attrs ...observability.Attribute) {
	logAttrs := append([]slog.Attr{slog.String("span", s.name), slog.String("event", name)}, toSlogAttrs(attrs)...)
	s.logger.LogAttrs(context.Background(), slog.LevelDebug, "span event", logAttrs...)
}

// --- METRICS ---

// Counter returns the named counter, creating it on first use.
func (o *Observer) Counter(name string) observability.Counter {
	return getOrCreate(o.metrics, o.metrics.counters, name, func() *slogCounter {
		return &slogCounter{name: name, logger: o.logger}
	})
}

// Histogram returns the named histogram, creating it on first use.
func (o *Observer) Histogram(name string) observability.Histogram {
	return getOrCreate(o.metrics, o.metrics.histograms, name, func() *slogHistogram {
		return &slogHistogram{name: name, logger: o.logger}
	})
}

type metricsStore struct {
	mu         sync.RWMutex
	counters   map[string]*slogCounter
	histograms map[string]*slogHistogram
}

func newMetricsStore() *metricsStore {
	return &metricsStore{
		counters:   make(map[string]*slogCounter),
		histograms: make(map[string]*slogHistogram),
	}
}

func lookup[T any](store *metricsStore, metrics map[string]T, name string) (T, bool) {
	store.mu.RLock()
	defer store.mu.RUnlock()
	metric, ok := metrics[name]
	return metric, ok
}

func getOrCreate[T any](store *metricsStore, metrics map[string]T, name string, create func() T) T {
	if metric, ok := lookup(store, metrics, name); ok {
		return metric
	}

	store.mu.Lock()
	defer store.mu.Unlock()
	if metric, ok := metrics[name]; ok {
		return metric
	}
	metric := create()
	metrics[name] = metric
	return metric
}

type slogCounter struct {
	mu     sync.Mutex
	name   string
	logger *slog.Logger
	value  int64
}

func (c *slogCounter) Add(ctx context.Context, value int64, attrs ...observability.Attribute) {
	c.mu.Lock()
	c.value += value
	total := c.value
	c.mu.Unlock()

	logAttrs := append([]slog.Attr{
		slog.String("metric", c.name),
		slog.String("type", "counter"),
		slog.Int64("value", total),
		slog.Int64("delta", value),
	}, toSlogAttrs(attrs)...)
	c.logger.LogAttrs(ctx, slog.LevelDebug, "counter", logAttrs...)
}

type slogHistogram struct {
	mu     sync.Mutex
	name   string
	logger *slog.Logger
	count  int64
	sum    float64
}

func (h *slogHistogram) Record(ctx context.Context, value float64, attrs ...observability.Attribute) {
	h.mu.Lock()
	h.count++
	h.sum += value
	h.mu.Unlock()

	logAttrs := append([]slog.Attr{
		slog.String("metric", h.name),
		slog.String("type", "histogram"),
		slog.Float64("value", value),
	}, toSlogAttrs(attrs)...)
	h.logger.LogAttrs(ctx, slog.LevelDebug, "histogram", logAttrs...)
}

// --- LOGGING ---

// Trace logs below DEBUG; it is filtered out unless the level is TRACE.
func (o *Observer) Trace(ctx context.Context, msg string, attrs ...observability.Attribute) {
	o.log(ctx, LevelTrace, msg, attrs...)
}

func (o *Observer) Debug(ctx context.Context, msg string, attrs ...observability.Attribute) {
	o.log(ctx, slog.LevelDebug, msg, attrs...)
}

func (o *Observer) Info(ctx context.Context, msg string, attrs ...observability.Attribute) {
	o.log(ctx, slog.LevelInfo, msg, attrs...)
}

func (o *Observer) Warn(ctx context.Context, msg string, attrs ...observability.Attribute) {
	o.log(ctx, slog.LevelWarn, msg, attrs...)
}

func (o *Observer) Error(ctx context.Context, msg string, attrs ...observability.Attribute) {
	o.log(ctx, slog.LevelError, msg, attrs...)
}

func (o *Observer) log(ctx context.Context, level slog.Level, msg string, attrs ...observability.Attribute) {
	if !o.logger.Enabled(ctx, level) {
		return
	}
	o.logger.LogAttrs(ctx, level, msg, toSlogAttrs(withStage(ctx, attrs))...)
}

// withStage appends the context's stage unless attrs already name one.
func withStage(ctx context.Context, attrs []observability.Attribute) []observability.Attribute {
	stage := observability.StageFromContext(ctx)
	if stage == "" {
		return attrs
	}
	for _, attr := range attrs {
		if attr.Key == observability.AttrStage {
			return attrs
		}
	}
	return append(attrs[:len(attrs):len(attrs)], observability.String(observability.AttrStage, stage))
}

func toSlogAttrs(attrs []observability.Attribute) []slog.Attr {
	logAttrs := make([]slog.Attr, 0, len(attrs))
	for _, attr := range attrs {
		logAttrs = append(logAttrs, slog.Any(attr.Key, attr.Value))
	}
	return logAttrs
}

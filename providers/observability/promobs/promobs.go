package promobs

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/MerlinChiodo/multi-agent-orchestration/providers/observability"
)

const (
	namespace = "mao"

	// spanDurationMetric is recorded for every ended span.
	spanDurationMetric = "span.duration.seconds"
)

// Observer implements observability.Provider. Metric names use the dotted
// semconv style and are converted to Prometheus names ("mao.client.request.count"
// becomes "mao_client_request_count"). The label set of a metric is fixed by
// the attribute keys of its first observation; later observations fill
// missing labels with "" and drop unknown keys.
type Observer struct {
	delegate observability.Provider
	registry *prometheus.Registry
	factory  promauto.Factory

	mu         sync.Mutex
	counters   map[string]*counterVec
	histograms map[string]*histogramVec
}

// New creates an Observer registering its collectors on a fresh registry.
// delegate receives all logging and span calls and must not be nil.
func New(delegate observability.Provider) *Observer {
	registry := prometheus.NewRegistry()
	return &Observer{
		delegate:   delegate,
		registry:   registry,
		factory:    promauto.With(registry),
		counters:   make(map[string]*counterVec),
		histograms: make(map[string]*histogramVec),
	}
}

var _ observability.Provider = (*Observer)(nil)

// Registry exposes the underlying registry, mainly for Gather in tests.
func (o *Observer) Registry() *prometheus.Registry {
	return o.registry
}

// Handler serves the registry in the Prometheus text exposition format.
func (o *Observer) Handler() http.Handler {
	return promhttp.HandlerFor(o.registry, promhttp.HandlerOpts{})
}

// Serve exposes /metrics on addr until ctx is cancelled.
func (o *Observer) Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", o.Handler())

	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return fmt.Errorf("metrics server: %w", err)
	}
}

// --- METRICS ---

func (o *Observer) Counter(name string) observability.Counter {
	o.mu.Lock()
	defer o.mu.Unlock()

	counter, exists := o.counters[name]
	if !exists {
		counter = &counterVec{observer: o, name: name}
		o.counters[name] = counter
	}
	return counter
}

func (o *Observer) Histogram(name string) observability.Histogram {
	o.mu.Lock()
	defer o.mu.Unlock()

	histogram, exists := o.histograms[name]
	if !exists {
		histogram = &histogramVec{observer: o, name: name}
		o.histograms[name] = histogram
	}
	return histogram
}

type counterVec struct {
	observer *Observer
	name     string

	once   sync.Once
	labels []string
	vec    *prometheus.CounterVec
}

func (c *counterVec) Add(_ context.Context, value int64, attrs ...observability.Attribute) {
	c.once.Do(func() {
		c.labels = labelNames(attrs)
		c.vec = c.observer.factory.NewCounterVec(prometheus.CounterOpts{
			Name: metricName(c.name),
			Help: "Counter " + c.name,
		}, c.labels)
	})
	c.vec.WithLabelValues(labelValues(c.labels, attrs)...).Add(float64(value))
}

type histogramVec struct {
	observer *Observer
	name     string

	once   sync.Once
	labels []string
	vec    *prometheus.HistogramVec
}

func (h *histogramVec) Record(_ context.Context, value float64, attrs ...observability.Attribute) {
	h.once.Do(func() {
		h.labels = labelNames(attrs)
		h.vec = h.observer.factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    metricName(h.name),
			Help:    "Histogram " + h.name,
			Buckets: bucketsFor(h.name),
		}, h.labels)
	})
	h.vec.WithLabelValues(labelValues(h.labels, attrs)...).Observe(value)
}

// bucketsFor picks unit-appropriate buckets: scores live in [0,1], everything
// else is a latency in seconds.
func bucketsFor(name string) []float64 {
	if strings.Contains(name, "judge_aggregate") || strings.Contains(name, "score") {
		return prometheus.LinearBuckets(0, 0.1, 11)
	}
	return []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20, 45, 90}
}

func metricName(name string) string {
	name = strings.NewReplacer(".", "_", "-", "_").Replace(name)
	if !strings.HasPrefix(name, namespace+"_") {
		name = namespace + "_" + name
	}
	return name
}

func labelNames(attrs []observability.Attribute) []string {
	names := make([]string, 0, len(attrs))
	seen := make(map[string]bool, len(attrs))
	for _, attr := range attrs {
		label := strings.NewReplacer(".", "_", "-", "_").Replace(attr.Key)
		if seen[label] {
			continue
		}
		seen[label] = true
		names = append(names, label)
	}
	return names
}

func labelValues(labels []string, attrs []observability.Attribute) []string {
	byLabel := make(map[string]string, len(attrs))
	for _, attr := range attrs {
		label := strings.NewReplacer(".", "_", "-", "_").Replace(attr.Key)
		byLabel[label] = fmt.Sprint(attr.Value)
	}

	values := make([]string, len(labels))
	for i, label := range labels {
		values[i] = byLabel[label]
	}
	return values
}

// --- TRACING ---

// StartSpan delegates to the wrapped provider and records the span's duration
// when it ends.
func (o *Observer) StartSpan(ctx context.Context, name string, attrs ...observability.Attribute) (context.Context, observability.Span) {
	ctx, inner := o.delegate.StartSpan(ctx, name, attrs...)
	span := &timedSpan{
		Span:      inner,
		name:      name,
		startTime: time.Now(),
		histogram: o.Histogram(spanDurationMetric),
	}
	return observability.ContextWithSpan(ctx, span), span
}

type timedSpan struct {
	observability.Span
	name      string
	startTime time.Time
	histogram observability.Histogram
	status    observability.StatusCode
}

func (s *timedSpan) SetStatus(code observability.StatusCode, description string) {
	s.status = code
	s.Span.SetStatus(code, description)
}

func (s *timedSpan) End() {
	s.histogram.Record(context.Background(), time.Since(s.startTime).Seconds(),
		observability.String("span", s.name),
		observability.String(observability.AttrStatus, s.status.String()),
	)
	s.Span.End()
}

// --- LOGGING ---

func (o *Observer) Trace(ctx context.Context, msg string, attrs ...observability.Attribute) {
	o.delegate.Trace(ctx, msg, attrs...)
}

func (o *Observer) Debug(ctx context.Context, msg string, attrs ...observability.Attribute) {
	o.delegate.Debug(ctx, msg, attrs...)
}

func (o *Observer) Info(ctx context.Context, msg string, attrs ...observability.Attribute) {
	o.delegate.Info(ctx, msg, attrs...)
}

func (o *Observer) Warn(ctx context.Context, msg string, attrs ...observability.Attribute) {
	o.delegate.Warn(ctx, msg, attrs...)
}

func (o *Observer) Error(ctx context.Context, msg string, attrs ...observability.Attribute) {
	o.delegate.Error(ctx, msg, attrs...)
}

package promobs

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http/httptest"
	"strings"
	"testing"

	dto "github.com/prometheus/client_model/go"

	"github.com/MerlinChiodo/multi-agent-orchestration/providers/observability"
	"github.com/MerlinChiodo/multi-agent-orchestration/providers/observability/slogobs"
)

func newTestObserver(testingHelper *testing.T) (*Observer, *bytes.Buffer) {
	testingHelper.Helper()
	var buf bytes.Buffer
	return New(slogobs.New(slogobs.WithOutput(&buf), slogobs.WithLevel(slog.LevelInfo))), &buf
}

func findFamily(testingHelper *testing.T, observer *Observer, name string) *dto.MetricFamily {
	testingHelper.Helper()
	families, err := observer.Registry().Gather()
	if err != nil {
		testingHelper.Fatalf("Gather: %v", err)
	}
	for _, family := range families {
		if family.GetName() == name {
			return family
		}
	}
	testingHelper.Fatalf("metric family %q not found", name)
	return nil
}

func TestObserver_CounterWithLabels(testCase *testing.T) {
	observer, _ := newTestObserver(testCase)
	ctx := context.Background()

	counter := observer.Counter(observability.MetricClientRequestCount)
	counter.Add(ctx, 1, observability.String(observability.AttrStatus, "ok"))
	counter.Add(ctx, 2, observability.String(observability.AttrStatus, "ok"))
	observer.Counter(observability.MetricClientRequestCount).Add(ctx, 1, observability.String(observability.AttrStatus, "error"))

	family := findFamily(testCase, observer, "mao_client_request_count")
	if len(family.GetMetric()) != 2 {
		testCase.Fatalf("expected 2 label combinations, got %d", len(family.GetMetric()))
	}

	totals := map[string]float64{}
	for _, metric := range family.GetMetric() {
		totals[metric.GetLabel()[0].GetValue()] = metric.GetCounter().GetValue()
	}
	if totals["ok"] != 3 || totals["error"] != 1 {
		testCase.Errorf("unexpected totals: %v", totals)
	}
}

func TestObserver_MissingLabelsBecomeEmpty(testCase *testing.T) {
	observer, _ := newTestObserver(testCase)
	ctx := context.Background()

	counter := observer.Counter(observability.MetricStageTimeouts)
	counter.Add(ctx, 1, observability.String(observability.AttrStage, "critic"))
	counter.Add(ctx, 1, observability.Int("unknown", 7))

	family := findFamily(testCase, observer, "mao_stage_timeouts")
	if len(family.GetMetric()) != 2 {
		testCase.Fatalf("expected 2 series, got %d", len(family.GetMetric()))
	}
}

func TestObserver_HistogramAndSpanDuration(testCase *testing.T) {
	observer, _ := newTestObserver(testCase)
	ctx := context.Background()

	observer.Histogram(observability.MetricPipelineScore).Record(ctx, 0.7, observability.String(observability.AttrEngine, "langgraph"))

	spanCtx, span := observer.StartSpan(ctx, observability.SpanPipelineRun)
	if observability.SpanFromContext(spanCtx) != span {
		testCase.Fatal("span should be attached to context")
	}
	span.SetStatus(observability.StatusOK, "")
	span.End()

	score := findFamily(testCase, observer, "mao_pipeline_judge_aggregate")
	if got := score.GetMetric()[0].GetHistogram().GetSampleSum(); got != 0.7 {
		testCase.Errorf("sample sum = %v, want 0.7", got)
	}

	spans := findFamily(testCase, observer, "mao_span_duration_seconds")
	if got := spans.GetMetric()[0].GetHistogram().GetSampleCount(); got != 1 {
		testCase.Errorf("span sample count = %d, want 1", got)
	}
}

func TestObserver_LoggingDelegates(testCase *testing.T) {
	observer, buf := newTestObserver(testCase)

	observer.Warn(context.Background(), "stage timed out", observability.String(observability.AttrStage, "reader"))

	if !strings.Contains(buf.String(), "stage timed out") {
		testCase.Errorf("expected delegated log record, got: %s", buf.String())
	}
}

func TestObserver_Handler(testCase *testing.T) {
	observer, _ := newTestObserver(testCase)
	observer.Counter(observability.MetricClientTokensTotal).Add(context.Background(), 42)

	server := httptest.NewServer(observer.Handler())
	defer server.Close()

	response, err := server.Client().Get(server.URL)
	if err != nil {
		testCase.Fatalf("GET metrics: %v", err)
	}
	defer response.Body.Close()

	body, _ := io.ReadAll(response.Body)
	if !strings.Contains(string(body), "mao_client_tokens_total 42") {
		testCase.Errorf("expected exposition to contain counter, got:\n%s", body)
	}
}

func TestMetricName(testCase *testing.T) {
	testCases := map[string]string{
		"mao.client.request.count": "mao_client_request_count",
		"span.duration.seconds":    "mao_span_duration_seconds",
		"custom-metric":            "mao_custom_metric",
	}
	for input, want := range testCases {
		if got := metricName(input); got != want {
			testCase.Errorf("metricName(%q) = %q, want %q", input, got, want)
		}
	}
}

package client

import (
	"context"
	"errors"

	"github.com/MerlinChiodo/multi-agent-orchestration/internal/utils"
	"github.com/MerlinChiodo/multi-agent-orchestration/providers/ai"
	"github.com/MerlinChiodo/multi-agent-orchestration/providers/observability"
)

// Request outcomes recorded on MetricClientRequestCount.
const (
	statusSuccess   = "success"
	statusError     = "error"
	statusAbandoned = "abandoned"
)

// NewObservabilityMiddleware creates a MiddlewareConfig that records a span,
// request and token metrics, and a log line for every model call. Metrics are
// labelled with the model and with the pipeline stage found in the context
// (see [observability.ContextWithStage]).
//
// The span and the observer are injected into the context before calling
// next, so providers can retrieve them via [observability.SpanFromContext] and
// [observability.ObserverFromContext].
func NewObservabilityMiddleware(observer observability.Provider, defaultModel string) MiddlewareConfig {
	return MiddlewareConfig{
		Send: func(next SendFunc) SendFunc {
			return func(ctx context.Context, request ai.ChatRequest) (*ai.ChatResponse, error) {
				call := observedCall{
					observer: observer,
					model:    effectiveModel(request.Model, defaultModel),
					stage:    observability.StageFromContext(ctx),
				}

				ctx, span := observer.StartSpan(ctx, observability.SpanClientSendMessage, call.labels()...)
				ctx = observability.ContextWithSpan(ctx, span)
				ctx = observability.ContextWithObserver(ctx, observer)
				observer.Debug(ctx, "llm send", append(call.labels(),
					observability.Int(observability.AttrRequestMessagesCount, len(request.Messages)))...)

				timer := utils.NewTimer()
				response, err := next(ctx, request)
				timer.Stop()

				if err != nil {
					call.failed(ctx, span, timer, err)
					return nil, err
				}
				call.succeeded(ctx, span, timer, response)
				return response, nil
			}
		},
	}
}

// observedCall carries the labels of one model call.
type observedCall struct {
	observer observability.Provider
	model    string
	stage    string
}

func (c observedCall) labels() []observability.Attribute {
	attrs := []observability.Attribute{observability.String(observability.AttrLLMModel, c.model)}
	if c.stage != "" {
		attrs = append(attrs, observability.String(observability.AttrStage, c.stage))
	}
	return attrs
}

func (c observedCall) count(ctx context.Context, status string) {
	c.observer.Counter(observability.MetricClientRequestCount).Add(ctx, 1,
		append(c.labels(), observability.String(observability.AttrStatus, status))...)
}

// failed records a failed call. A call cancelled by its caller, typically a
// stage abandoned by the timeout guard, is logged as a warning rather than an
// error.
func (c observedCall) failed(ctx context.Context, span observability.Span, timer *utils.Timer, err error) {
	span.RecordError(err)
	span.SetStatus(observability.StatusError, "llm send failed")
	span.End()

	attrs := append(c.labels(),
		observability.Error(err),
		observability.Duration(observability.AttrDuration, timer.GetDuration()),
	)
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		c.observer.Warn(ctx, "llm send abandoned", attrs...)
		c.count(ctx, statusAbandoned)
		return
	}
	c.observer.Error(ctx, "llm send failed", attrs...)
	c.count(ctx, statusError)
}

func (c observedCall) succeeded(ctx context.Context, span observability.Span, timer *utils.Timer, response *ai.ChatResponse) {
	elapsed := timer.GetDuration()
	labels := c.labels()

	c.observer.Histogram(observability.MetricClientRequestDuration).Record(ctx, elapsed.Seconds(), labels...)
	c.count(ctx, statusSuccess)

	logAttrs := append(labels, observability.Duration(observability.AttrDuration, elapsed))
	if response != nil && response.FinishReason != "" {
		logAttrs = append(logAttrs, observability.String(observability.AttrLLMFinishReason, response.FinishReason))
	}
	if response != nil && response.Usage != nil {
		usage := response.Usage
		c.observer.Counter(observability.MetricClientTokensTotal).Add(ctx, int64(usage.TotalTokens), labels...)
		c.observer.Counter(observability.MetricClientTokensPrompt).Add(ctx, int64(usage.PromptTokens), labels...)
		c.observer.Counter(observability.MetricClientTokensCompletion).Add(ctx, int64(usage.CompletionTokens), labels...)

		span.SetAttributes(
			observability.Int(observability.AttrLLMTokensTotal, usage.TotalTokens),
			observability.Int(observability.AttrLLMTokensPrompt, usage.PromptTokens),
			observability.Int(observability.AttrLLMTokensCompletion, usage.CompletionTokens),
		)
		logAttrs = append(logAttrs,
			observability.Int(observability.AttrLLMTokensPrompt, usage.PromptTokens),
			observability.Int(observability.AttrLLMTokensCompletion, usage.CompletionTokens),
		)
	}
	if response != nil && response.Content != "" {
		logAttrs = append(logAttrs,
			observability.String(observability.AttrResponseContent, utils.TruncateString(response.Content, 100)))
	}

	c.observer.Info(ctx, "llm send completed", logAttrs...)
	span.SetStatus(observability.StatusOK, "success")
	span.End()
}

// effectiveModel returns the request-level model when set, falling back to the
// client's configured default.
func effectiveModel(requestModel, defaultModel string) string {
	if requestModel != "" {
		return requestModel
	}
	return defaultModel
}

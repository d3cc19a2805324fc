package utils

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/MerlinChiodo/multi-agent-orchestration/providers/observability"
)

// maxFetchBytes caps the size of documents downloaded by DoGet.
const maxFetchBytes = 16 << 20

// DoPostSync posts body as JSON to url and decodes a 2xx response into
// OutputStruct. A non-empty apiKey is sent as a Bearer token.
//
// Context errors are returned wrapped so callers can test them with
// errors.Is. Decode failures include a preview of the body.
func DoPostSync[OutputStruct any](ctx context.Context, client *http.Client, url string, apiKey string, body any) (*http.Response, *OutputStruct, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, nil, fmt.Errorf("error marshaling body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, nil, fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+apiKey)
	}

	res, raw, err := roundTrip(client, req, len(payload), -1)
	if err != nil {
		return res, nil, err
	}

	var out OutputStruct
	if err := json.Unmarshal(raw, &out); err != nil {
		return res, nil, fmt.Errorf("error unmarshaling response body (status %d): %w\nResponse preview: %s",
			res.StatusCode, err, TruncateString(string(raw), 500))
	}
	return res, &out, nil
}

// DoGet fetches url and returns the raw body together with the response
// Content-Type. Bodies larger than 16 MiB are cut at that size.
func DoGet(ctx context.Context, client *http.Client, url string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Accept", "text/html, text/plain;q=0.9, */*;q=0.5")

	res, raw, err := roundTrip(client, req, 0, maxFetchBytes)
	if err != nil {
		return nil, "", err
	}
	return raw, res.Header.Get("Content-Type"), nil
}

// roundTrip sends req, reads at most limit bytes of the body (all of it when
// limit is negative) and fails on non-2xx statuses. Progress is reported as
// events on the span found in the request context, if any.
func roundTrip(client *http.Client, req *http.Request, sent int, limit int64) (*http.Response, []byte, error) {
	if client == nil {
		client = http.DefaultClient
	}
	target := req.URL.String()
	span := observability.SpanFromContext(req.Context())
	event := func(name string, attrs ...observability.Attribute) {
		if span != nil {
			span.AddEvent(name, attrs...)
		}
	}

	event("http.request.prepared",
		observability.String(observability.AttrHTTPMethod, req.Method),
		observability.String(observability.AttrHTTPURL, target),
		observability.Int(observability.AttrHTTPRequestBodySize, sent),
	)

	start := time.Now()
	res, err := client.Do(req)
	if err != nil {
		event("http.request.error", observability.Error(err), observability.Duration("http.request.duration", time.Since(start)))
		return res, nil, fmt.Errorf("error sending request: %w", err)
	}
	defer closeBody(res.Body, target)

	var reader io.Reader = res.Body
	if limit >= 0 {
		reader = io.LimitReader(res.Body, limit)
	}
	raw, err := io.ReadAll(reader)
	if err != nil {
		return res, nil, fmt.Errorf("error reading response body: %w", err)
	}

	event("http.response.received",
		observability.Int(observability.AttrHTTPStatusCode, res.StatusCode),
		observability.Int(observability.AttrHTTPResponseBodySize, len(raw)),
		observability.Duration("http.request.duration", time.Since(start)),
	)

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return res, nil, fmt.Errorf("non-2xx status %d: %s", res.StatusCode, TruncateString(string(raw), 200))
	}
	return res, raw, nil
}

func closeBody(body io.ReadCloser, url string) {
	if err := body.Close(); err != nil {
		slog.Warn("failed to close response body", "error", err.Error(), "url", url)
	}
}

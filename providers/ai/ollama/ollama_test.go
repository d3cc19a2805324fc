package ollama

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/MerlinChiodo/multi-agent-orchestration/providers/ai"
)

func newTestServer(testingHelper *testing.T, handler func(request chatRequest) (int, string)) *httptest.Server {
	testingHelper.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != chatEndpoint {
			testingHelper.Errorf("unexpected path %s", r.URL.Path)
		}
		body, _ := io.ReadAll(r.Body)
		var decoded chatRequest
		if err := json.Unmarshal(body, &decoded); err != nil {
			testingHelper.Errorf("request is not JSON: %v", err)
		}
		status, payload := handler(decoded)
		w.WriteHeader(status)
		io.WriteString(w, payload)
	}))
}

func TestSendMessage_Success(testCase *testing.T) {
	var captured chatRequest
	server := newTestServer(testCase, func(request chatRequest) (int, string) {
		captured = request
		return http.StatusOK, `{"model":"qwen2.5:1.5b","created_at":"2025-01-01T10:00:00Z","message":{"role":"assistant","content":"  notes  "},"done":true,"done_reason":"stop","prompt_eval_count":120,"eval_count":30}`
	})
	defer server.Close()

	provider := NewOllamaProvider().WithBaseURL(server.URL + "/")
	response, err := provider.SendMessage(context.Background(), ai.ChatRequest{
		Model:        "qwen2.5:1.5b",
		SystemPrompt: "sys",
		Messages:     []ai.Message{{Role: ai.RoleUser, Content: "read this"}},
		GenerationConfig: &ai.GenerationConfig{
			Temperature:   ai.Float64(0),
			MaxTokens:     256,
			ContextWindow: 8192,
			KeepAlive:     "5m",
		},
	})
	if err != nil {
		testCase.Fatalf("unexpected error: %v", err)
	}

	if response.Content != "  notes  " {
		testCase.Errorf("content = %q", response.Content)
	}
	if response.Usage.TotalTokens != 150 || response.FinishReason != "stop" {
		testCase.Errorf("unexpected usage/finish: %+v %q", response.Usage, response.FinishReason)
	}
	if response.Created == 0 {
		testCase.Error("created timestamp should be parsed")
	}

	if captured.Stream {
		testCase.Error("stream must be false")
	}
	if captured.Options.NumPredict != 256 || captured.Options.NumCtx != 8192 || captured.KeepAlive != "5m" {
		testCase.Errorf("options not forwarded: %+v keep_alive=%q", captured.Options, captured.KeepAlive)
	}
	if len(captured.Messages) != 2 || captured.Messages[0].Role != "system" {
		testCase.Errorf("system prompt not prepended: %+v", captured.Messages)
	}
}

func TestRequestFromGeneric_Defaults(testCase *testing.T) {
	wire := requestFromGeneric(ai.ChatRequest{Model: "m"})

	if wire.Options.NumCtx != defaultNumCtx || wire.Options.NumPredict != defaultNumPredict {
		testCase.Errorf("unexpected defaults: %+v", wire.Options)
	}
	if wire.Options.NumThread <= 0 {
		testCase.Error("num_thread should default to the CPU count")
	}
	if wire.KeepAlive != defaultKeepAlive {
		testCase.Errorf("keep_alive = %q", wire.KeepAlive)
	}

	encoded, _ := json.Marshal(wire)
	if !strings.Contains(string(encoded), `"temperature":0`) {
		testCase.Errorf("temperature 0 must be sent explicitly: %s", encoded)
	}
}

func TestSendMessage_EmptyModel(testCase *testing.T) {
	_, err := NewOllamaProvider().SendMessage(context.Background(), ai.ChatRequest{})
	if !errors.Is(err, ErrEmptyModel) {
		testCase.Fatalf("expected ErrEmptyModel, got %v", err)
	}
}

func TestSendMessage_ServerError(testCase *testing.T) {
	server := newTestServer(testCase, func(chatRequest) (int, string) {
		return http.StatusNotFound, `{"error":"model 'x' not found"}`
	})
	defer server.Close()

	provider := NewOllamaProvider().WithBaseURL(server.URL)
	_, err := provider.SendMessage(context.Background(), ai.ChatRequest{Model: "x"})
	if err == nil || !strings.Contains(err.Error(), "404") {
		testCase.Fatalf("expected 404 error, got %v", err)
	}
}

func TestSendMessage_ErrorField(testCase *testing.T) {
	server := newTestServer(testCase, func(chatRequest) (int, string) {
		return http.StatusOK, `{"error":"out of memory"}`
	})
	defer server.Close()

	provider := NewOllamaProvider().WithBaseURL(server.URL)
	_, err := provider.SendMessage(context.Background(), ai.ChatRequest{Model: "x"})
	if err == nil || !strings.Contains(err.Error(), "out of memory") {
		testCase.Fatalf("expected error field to surface, got %v", err)
	}
}

func TestNewOllamaProvider_EnvBaseURL(testCase *testing.T) {
	testCase.Setenv("OLLAMA_BASE_URL", "http://gpu-box:11434/")
	provider := NewOllamaProvider()
	if provider.baseURL != "http://gpu-box:11434" {
		testCase.Errorf("baseURL = %q", provider.baseURL)
	}
}

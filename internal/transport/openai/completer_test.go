package openai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/kailas-cloud/reconciler/internal/domain"
	"github.com/kailas-cloud/reconciler/internal/metrics"
)

func TestMain(m *testing.M) {
	metrics.Register()
	os.Exit(m.Run())
}

type chatRequest struct {
	Model       string  `json:"model"`
	MaxTokens   int     `json:"max_tokens"`
	Temperature float64 `json:"temperature"`
	Messages    []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
	ResponseFormat *struct {
		Type string `json:"type"`
	} `json:"response_format"`
}

func chatResponse(content string, prompt, total int) map[string]any {
	return map[string]any{
		"id":     "chatcmpl-1",
		"object": "chat.completion",
		"model":  "test-model",
		"choices": []map[string]any{{
			"index":         0,
			"finish_reason": "stop",
			"message":       map[string]any{"role": "assistant", "content": content},
		}},
		"usage": map[string]any{"prompt_tokens": prompt, "completion_tokens": total - prompt, "total_tokens": total},
	}
}

func newTestCompleter(url string) *Completer {
	return NewCompleter(&Config{
		APIKey:   "test-key",
		BaseURL:  url,
		Model:    "test-model",
		Provider: "test",
		Logger:   zap.NewNop(),
	})
}

func TestCompleter_Complete(t *testing.T) {
	var got chatRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer test-key" {
			t.Errorf("unexpected auth header: %s", r.Header.Get("Authorization"))
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(chatResponse(`{"results":[]}`, 120, 150))
	}))
	defer server.Close()

	res, err := newTestCompleter(server.URL).Complete(context.Background(), "match this", domain.CompletionOptions{
		MaxTokens:  300,
		SystemRole: "You match pottery terms.",
		JSON:       true,
	})
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}

	if res.Text != `{"results":[]}` {
		t.Errorf("Text = %q", res.Text)
	}
	if res.PromptTokens != 120 || res.TotalTokens != 150 {
		t.Errorf("usage = %d/%d", res.PromptTokens, res.TotalTokens)
	}
	if got.Model != "test-model" || got.MaxTokens != 300 {
		t.Errorf("unexpected request: %+v", got)
	}
	if len(got.Messages) != 2 || got.Messages[0].Role != "system" || got.Messages[0].Content != "You match pottery terms." {
		t.Errorf("unexpected messages: %+v", got.Messages)
	}
	if got.Messages[1].Content != "match this" {
		t.Errorf("unexpected user message: %q", got.Messages[1].Content)
	}
	if got.ResponseFormat == nil || got.ResponseFormat.Type != "json_object" {
		t.Errorf("expected json_object response format, got %+v", got.ResponseFormat)
	}
	if got.Temperature <= 0 || got.Temperature > 1e-6 {
		t.Errorf("expected near-zero temperature on the wire, got %v", got.Temperature)
	}
}

func TestCompleter_DefaultSystemRole(t *testing.T) {
	var got chatRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(chatResponse("{}", 1, 2))
	}))
	defer server.Close()

	if _, err := newTestCompleter(server.URL).Complete(context.Background(), "x", domain.CompletionOptions{}); err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
	if got.Messages[0].Content != DefaultSystemRole {
		t.Errorf("system = %q", got.Messages[0].Content)
	}
	if got.ResponseFormat != nil {
		t.Error("expected no response format without JSON option")
	}
}

func TestCompleter_EmptyChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{"id": "x", "choices": []any{}})
	}))
	defer server.Close()

	_, err := newTestCompleter(server.URL).Complete(context.Background(), "x", domain.CompletionOptions{})
	if !errors.Is(err, domain.ErrLLMResponse) {
		t.Fatalf("expected ErrLLMResponse, got %v", err)
	}
}

func TestCompleter_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{
				"message": "rate limit exceeded",
				"type":    "rate_limit_error",
			},
		})
	}))
	defer server.Close()

	_, err := newTestCompleter(server.URL).Complete(context.Background(), "x", domain.CompletionOptions{})
	if !errors.Is(err, domain.ErrChannel) {
		t.Fatalf("expected ErrChannel, got %v", err)
	}
	if !strings.Contains(err.Error(), "rate limit exceeded") {
		t.Errorf("expected API message in error, got %v", err)
	}
}

func TestParseAPIError_Detail(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"detail":"model not loaded"}`))
	}))
	defer server.Close()

	_, err := newTestCompleter(server.URL).Complete(context.Background(), "x", domain.CompletionOptions{})
	if err == nil || !strings.Contains(err.Error(), "model not loaded") {
		t.Fatalf("expected detail in error, got %v", err)
	}
}

func TestHealthCheck(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/models" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"object":"list","data":[]}`))
	}))
	defer server.Close()

	if err := newTestCompleter(server.URL).HealthCheck(context.Background()); err != nil {
		t.Fatalf("HealthCheck: %v", err)
	}
}

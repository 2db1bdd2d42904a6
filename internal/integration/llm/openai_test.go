package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/dominiq/maturity-backend/internal/config"
	"github.com/dominiq/maturity-backend/internal/entity"
	"go.uber.org/zap"
)

func testOpenAIConfig(url string) config.LLMConnectorConfig {
	cfg := testConnectorConfig(url)
	cfg.Provider = config.LLMProviderOpenAI
	return cfg
}

func TestOpenAIConnector_Complete_Success(t *testing.T) {
	var gotConversation, gotAuth string
	var gotReq struct {
		Model    string `json:"model"`
		Messages []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		gotConversation = r.Header.Get(ConversationHeader)
		gotAuth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(completionBody("Hi there")))
	}))
	defer srv.Close()

	c := NewOpenAIConnector(testOpenAIConfig(srv.URL), zap.NewNop())
	got, err := c.Complete(context.Background(), "session-7", testHistory)
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}

	if got != "Hi there" {
		t.Errorf("content = %q", got)
	}
	if gotConversation != "session-7" {
		t.Errorf("conversation header = %q, want session-7", gotConversation)
	}
	if gotAuth != "Bearer secret" {
		t.Errorf("authorization = %q", gotAuth)
	}
	if gotReq.Model != "survey-model" {
		t.Errorf("model = %q", gotReq.Model)
	}
	if len(gotReq.Messages) != 2 || gotReq.Messages[0].Role != "system" || gotReq.Messages[1].Content != "hello" {
		t.Errorf("messages = %+v", gotReq.Messages)
	}
}

func TestOpenAIConnector_Complete_RetriesTransientStatus(t *testing.T) {
	var calls atomic.Int32

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Messages []json.RawMessage `json:"messages"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.Messages) != 2 {
			t.Errorf("attempt %d lost the request body: %v", calls.Load()+1, err)
		}
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(completionBody("third time")))
	}))
	defer srv.Close()

	c := NewOpenAIConnector(testOpenAIConfig(srv.URL), zap.NewNop())
	got, err := c.Complete(context.Background(), "s", testHistory)
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if got != "third time" {
		t.Errorf("content = %q", got)
	}
	if calls.Load() != 3 {
		t.Errorf("calls = %d, want 3", calls.Load())
	}
}

func TestOpenAIConnector_Complete_Errors(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		body      string
		wantErr   error
		wantCalls int32
	}{
		{"conflict is not retried", http.StatusConflict, `{"error":{"message":"conflict"}}`, entity.ErrUpstreamUnavailable, 1},
		{"request timeout is not retried", http.StatusRequestTimeout, `{"error":{"message":"timeout"}}`, entity.ErrUpstreamUnavailable, 1},
		{"not implemented is not retried", http.StatusNotImplemented, `{"error":{"message":"nope"}}`, entity.ErrUpstreamUnavailable, 1},
		{"bad request is not retried", http.StatusBadRequest, `{"error":{"message":"bad"}}`, entity.ErrUpstreamUnavailable, 1},
		{"persistent 503", http.StatusServiceUnavailable, "", entity.ErrUpstreamUnavailable, 3},
		{"rate limited", http.StatusTooManyRequests, "", entity.ErrUpstreamUnavailable, 3},
		{"no choices", http.StatusOK, `{"choices":[]}`, entity.ErrMalformedUpstreamResponse, 1},
		{"null content", http.StatusOK, `{"choices":[{"message":{"role":"assistant","content":null}}]}`, entity.ErrMalformedUpstreamResponse, 1},
		{"missing content", http.StatusOK, `{"choices":[{"message":{"role":"assistant"}}]}`, entity.ErrMalformedUpstreamResponse, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls atomic.Int32
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				calls.Add(1)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			c := NewOpenAIConnector(testOpenAIConfig(srv.URL), zap.NewNop())
			_, err := c.Complete(context.Background(), "s", testHistory)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
			if calls.Load() != tt.wantCalls {
				t.Errorf("calls = %d, want %d", calls.Load(), tt.wantCalls)
			}
		})
	}
}

func TestOpenAIConnector_Complete_EmptyContentIsAnswer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(completionBody("")))
	}))
	defer srv.Close()

	c := NewOpenAIConnector(testOpenAIConfig(srv.URL), zap.NewNop())
	got, err := c.Complete(context.Background(), "s", testHistory)
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if got != "" {
		t.Errorf("content = %q, want empty", got)
	}
}

func TestOpenAIConnector_Complete_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	c := NewOpenAIConnector(testOpenAIConfig(url), zap.NewNop())
	_, err := c.Complete(context.Background(), "s", testHistory)
	if !errors.Is(err, entity.ErrUpstreamUnavailable) {
		t.Fatalf("expected ErrUpstreamUnavailable, got %v", err)
	}
}

func TestOpenAIConnector_Complete_ContextCanceled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := NewOpenAIConnector(testOpenAIConfig(srv.URL), zap.NewNop())
	_, err := c.Complete(ctx, "s", testHistory)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

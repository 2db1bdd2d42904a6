package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dominiq/maturity-backend/internal/config"
	"github.com/dominiq/maturity-backend/internal/entity"
	pkgRetry "github.com/dominiq/maturity-backend/internal/pkg/retry"
	"go.uber.org/zap"
)

func testConnectorConfig(url string) config.LLMConnectorConfig {
	return config.LLMConnectorConfig{
		HTTPClientConfig: config.HTTPClientConfig{
			RequestTimeout:        2 * time.Second,
			ConnTimeout:           time.Second,
			KeepAlive:             time.Second,
			IdleConnTimeout:       time.Second,
			ResponseHeaderTimeout: 2 * time.Second,
			Token:                 "secret",
			Url:                   url,
		},
		Provider:            config.LLMProviderSAIA,
		CompletionsEndpoint: "/chat/completions",
		Model:               "survey-model",
		Revision:            1,
		Retry: pkgRetry.RetryConfig{
			Attempts: 3,
			Delay:    time.Millisecond,
			MaxDelay: 5 * time.Millisecond,
		},
	}
}

func completionBody(content string) string {
	body, _ := json.Marshal(map[string]any{
		"choices": []map[string]any{
			{"message": map[string]any{"role": "assistant", "content": content}},
		},
	})
	return string(body)
}

var testHistory = []entity.ConversationMessage{
	{Role: entity.RoleSystem, Content: "instructions"},
	{Role: entity.RoleUser, Content: "hello"},
}

func TestConnector_Complete_Success(t *testing.T) {
	var gotReq entity.LLMChatCompletionRequest
	var gotConversation, gotAuth string

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
		w.Write([]byte(completionBody(`{"assistant_message":"Hi"}`)))
	}))
	defer srv.Close()

	c := NewConnector(testConnectorConfig(srv.URL), zap.NewNop())
	got, err := c.Complete(context.Background(), "session-1", testHistory)
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}

	if got != `{"assistant_message":"Hi"}` {
		t.Errorf("content = %q", got)
	}
	if gotConversation != "session-1" {
		t.Errorf("conversation header = %q, want session-1", gotConversation)
	}
	if gotAuth != "Bearer secret" {
		t.Errorf("authorization = %q", gotAuth)
	}
	if gotReq.Model != "survey-model" || gotReq.Revision != 1 {
		t.Errorf("model/revision = %q/%d", gotReq.Model, gotReq.Revision)
	}
	if len(gotReq.Messages) != 2 || gotReq.Messages[0].Role != "system" || gotReq.Messages[1].Content != "hello" {
		t.Errorf("messages = %+v", gotReq.Messages)
	}
}

func TestConnector_Complete_RetriesTransientStatus(t *testing.T) {
	var calls atomic.Int32

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req entity.LLMChatCompletionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.Messages) != 2 {
			t.Errorf("attempt %d lost the request body: %v", calls.Load()+1, err)
		}
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(completionBody("third time")))
	}))
	defer srv.Close()

	c := NewConnector(testConnectorConfig(srv.URL), zap.NewNop())
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

func TestConnector_Complete_Errors(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		body      string
		wantErr   error
		wantCalls int32
	}{
		{"persistent 503", http.StatusServiceUnavailable, "", entity.ErrUpstreamUnavailable, 3},
		{"rate limited", http.StatusTooManyRequests, "", entity.ErrUpstreamUnavailable, 3},
		{"bad request is not retried", http.StatusBadRequest, `{"error":"bad"}`, entity.ErrUpstreamUnavailable, 1},
		{"no choices", http.StatusOK, `{"choices":[]}`, entity.ErrMalformedUpstreamResponse, 1},
		{"null content", http.StatusOK, `{"choices":[{"message":{"role":"assistant","content":null}}]}`, entity.ErrMalformedUpstreamResponse, 1},
		{"missing message", http.StatusOK, `{"choices":[{}]}`, entity.ErrMalformedUpstreamResponse, 1},
		{"not json", http.StatusOK, `<html>oops</html>`, entity.ErrMalformedUpstreamResponse, 1},
		{"empty body", http.StatusOK, ``, entity.ErrMalformedUpstreamResponse, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls atomic.Int32
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				calls.Add(1)
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			c := NewConnector(testConnectorConfig(srv.URL), zap.NewNop())
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

func TestConnector_Complete_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	c := NewConnector(testConnectorConfig(url), zap.NewNop())
	_, err := c.Complete(context.Background(), "s", testHistory)
	if !errors.Is(err, entity.ErrUpstreamUnavailable) {
		t.Fatalf("expected ErrUpstreamUnavailable, got %v", err)
	}
}

func TestConnector_Complete_ContextCanceled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := NewConnector(testConnectorConfig(srv.URL), zap.NewNop())
	_, err := c.Complete(ctx, "s", testHistory)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

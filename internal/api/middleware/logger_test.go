package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestLogger(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)

	handler := chimiddleware.RequestID(Logger(zap.New(core))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctxzap.Info(r.Context(), "inside handler")
		w.WriteHeader(http.StatusServiceUnavailable)
	})))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/maturity-questions", nil))

	inside := logs.FilterMessage("inside handler").All()
	if len(inside) != 1 {
		t.Fatalf("handler log entries = %d, want 1", len(inside))
	}
	if id, _ := inside[0].ContextMap()["request_id"].(string); id == "" {
		t.Errorf("request-scoped logger lacks request_id")
	}

	finish := logs.FilterMessage("Finish handle HTTP request").All()
	if len(finish) != 1 {
		t.Fatalf("finish entries = %d, want 1", len(finish))
	}
	if finish[0].Level != zapcore.ErrorLevel {
		t.Errorf("level = %v, want error for a 5xx", finish[0].Level)
	}
	if finish[0].ContextMap()["status"] != int64(http.StatusServiceUnavailable) {
		t.Errorf("status field = %v", finish[0].ContextMap()["status"])
	}
}

func TestCORS_Preflight(t *testing.T) {
	called := false
	handler := CORS(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/maturity-questions/chat", nil))

	if rec.Code != http.StatusNoContent {
		t.Errorf("status = %d, want 204", rec.Code)
	}
	if called {
		t.Errorf("preflight must not reach the handler")
	}
	if rec.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Errorf("missing allow-origin header")
	}
}

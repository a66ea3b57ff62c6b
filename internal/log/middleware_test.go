package log

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestMiddlewareLogsByStatusClass(t *testing.T) {
	tests := []struct {
		status int
		level  string
	}{
		{http.StatusOK, "INFO"},
		{http.StatusNotFound, "WARN"},
		{http.StatusBadGateway, "ERROR"},
	}
	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			var buf bytes.Buffer
			logger := New(Config{Level: slog.LevelInfo, JSON: true, Output: &buf})

			h := Middleware(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if FromContext(r.Context()).Component() != ComponentHTTP {
					t.Errorf("request logger not in context")
				}
				w.WriteHeader(tt.status)
			}))
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/kids/ada/summary", nil))

			if rec.Header().Get(RequestIDHeader) == "" {
				t.Errorf("missing %s header", RequestIDHeader)
			}

			lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
			var last map[string]any
			if err := json.Unmarshal([]byte(lines[len(lines)-1]), &last); err != nil {
				t.Fatalf("decode log line: %v", err)
			}
			if last["level"] != tt.level {
				t.Errorf("level = %v, want %s", last["level"], tt.level)
			}
			if last[FieldStatusCode] != float64(tt.status) {
				t.Errorf("status_code = %v", last[FieldStatusCode])
			}
			if last[FieldComponent] != ComponentApp || last[FieldRequestID] == "" {
				t.Errorf("missing fields in %v", last)
			}
		})
	}
}

func TestMiddlewareKeepsIncomingRequestID(t *testing.T) {
	logger := New(Config{Output: &bytes.Buffer{}})
	h := Middleware(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if got := rec.Header().Get(RequestIDHeader); got != "abc-123" {
		t.Errorf("request id = %q, want abc-123", got)
	}
}

func TestFromContextFallsBackToDefault(t *testing.T) {
	l := FromContext(context.Background())
	if l.Logger == nil || l.Component() != "unknown" {
		t.Errorf("fallback logger = %+v", l)
	}
}

package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/whatsup-app/whatsup/internal/logging"
)

func requestLogLine(t *testing.T, status int, path string) map[string]interface{} {
	t.Helper()

	var buf bytes.Buffer
	logger := logging.New().SetOutput(&buf).SetLevel(logging.LevelDebug)

	handler := NewRequestLogger(logger).Apply(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		w.Write([]byte("hello"))
	}))

	req := httptest.NewRequest(http.MethodGet, path, nil)
	handler.ServeHTTP(httptest.NewRecorder(), req)

	var line map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("failed to parse log line: %v", err)
	}
	return line
}

func TestRequestLoggerCapturesStatusAndSize(t *testing.T) {
	line := requestLogLine(t, http.StatusCreated, "/api/friends?limit=5")

	fields, ok := line["fields"].(map[string]interface{})
	if !ok {
		t.Fatalf("expected fields object, got %v", line["fields"])
	}
	if fields["status"] != float64(http.StatusCreated) {
		t.Errorf("expected status 201, got %v", fields["status"])
	}
	if fields["size"] != float64(len("hello")) {
		t.Errorf("expected size 5, got %v", fields["size"])
	}
	if fields["method"] != http.MethodGet {
		t.Errorf("expected method GET, got %v", fields["method"])
	}
	if fields["path"] != "/api/friends" {
		t.Errorf("expected path /api/friends, got %v", fields["path"])
	}
	if fields["query"] != "limit=5" {
		t.Errorf("expected query limit=5, got %v", fields["query"])
	}
}

func TestRequestLoggerLevelByStatus(t *testing.T) {
	tests := []struct {
		status int
		level  string
	}{
		{http.StatusOK, "INFO"},
		{http.StatusNotFound, "WARN"},
		{http.StatusInternalServerError, "ERROR"},
	}

	for _, tt := range tests {
		line := requestLogLine(t, tt.status, "/api/users/me")
		if line["level"] != tt.level {
			t.Errorf("status %d: expected level %s, got %v", tt.status, tt.level, line["level"])
		}
	}
}

func TestRequestLoggerDefaultStatusIsOK(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.New().SetOutput(&buf)

	handler := NewRequestLogger(logger).Apply(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	var line map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("failed to parse log line: %v", err)
	}
	fields := line["fields"].(map[string]interface{})
	if fields["status"] != float64(http.StatusOK) {
		t.Errorf("expected implicit 200, got %v", fields["status"])
	}
}

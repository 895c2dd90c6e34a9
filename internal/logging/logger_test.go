package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func logLine(t *testing.T, buf *bytes.Buffer) entry {
	t.Helper()
	var e entry
	if err := json.Unmarshal(buf.Bytes(), &e); err != nil {
		t.Fatalf("parsing log line %q: %v", buf.String(), err)
	}
	return e
}

func TestLogger_JSONOutput(t *testing.T) {
	var buf bytes.Buffer
	logger := New().SetOutput(&buf)

	logger.Info("request handled", map[string]interface{}{"status": 200})

	e := logLine(t, &buf)
	if e.Level != "INFO" {
		t.Errorf("expected INFO, got %s", e.Level)
	}
	if e.Message != "request handled" {
		t.Errorf("unexpected message: %s", e.Message)
	}
	if e.Fields["status"] != float64(200) {
		t.Errorf("unexpected fields: %v", e.Fields)
	}
	if e.Timestamp == "" {
		t.Error("expected timestamp")
	}
}

func TestLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := New().SetOutput(&buf).SetLevel(LevelWarn)

	logger.Debug("dropped")
	logger.Info("dropped")
	if buf.Len() != 0 {
		t.Fatalf("expected no output below warn, got %s", buf.String())
	}

	logger.Warn("kept")
	if !strings.Contains(buf.String(), "kept") {
		t.Errorf("expected warn line, got %s", buf.String())
	}
}

func TestLogger_WithFields(t *testing.T) {
	var buf bytes.Buffer
	logger := New().SetOutput(&buf).WithFields(map[string]interface{}{"component": "ledger"})

	logger.Info("created", map[string]interface{}{"request_id": "abc"})

	e := logLine(t, &buf)
	if e.Fields["component"] != "ledger" || e.Fields["request_id"] != "abc" {
		t.Errorf("expected merged fields, got %v", e.Fields)
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want Level
	}{
		{"debug", LevelDebug},
		{"INFO", LevelInfo},
		{"warn", LevelWarn},
		{"Warning", LevelWarn},
		{"error", LevelError},
		{"", LevelInfo},
		{"nonsense", LevelInfo},
	}

	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

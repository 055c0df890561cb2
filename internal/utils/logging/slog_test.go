package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"
)

func TestSlogLogger_WritesStructuredFields(t *testing.T) {
	var buf bytes.Buffer
	l := NewSlogLogger(NewJSON(&buf, slog.LevelDebug))
	l.Info("presignup.decision", Fields{"autoConfirmUser": true, "requestId": "r-1"})

	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("expected one JSON line, got %q: %v", buf.String(), err)
	}
	if line["msg"] != "presignup.decision" || line["level"] != "INFO" {
		t.Fatalf("unexpected line: %v", line)
	}
	if line["autoConfirmUser"] != true || line["requestId"] != "r-1" {
		t.Fatalf("fields not propagated: %v", line)
	}
}

func TestSlogLogger_RespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	l := NewSlogLogger(NewJSON(&buf, slog.LevelWarn))
	l.Debug("hidden", nil)
	l.Info("hidden", nil)
	if buf.Len() != 0 {
		t.Fatalf("expected nothing below warn, got %q", buf.String())
	}
	l.Warn("shown", nil)
	if buf.Len() == 0 {
		t.Fatalf("expected warn line")
	}
}

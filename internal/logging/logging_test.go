package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"
)

// captureLogOutput reinitializes the logger to write to a buffer and restores
// the default configuration afterwards.
func captureLogOutput(t *testing.T, level Level, format Format, f func()) string {
	t.Helper()
	var buf bytes.Buffer
	InitLoggerTo(&buf, level, format)
	defer InitLogger(LevelInfo, FormatText)
	f()
	return buf.String()
}

func decodeLines(t *testing.T, out string) []map[string]any {
	t.Helper()
	var entries []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(out), "\n") {
		if line == "" {
			continue
		}
		var m map[string]any
		if err := json.Unmarshal([]byte(line), &m); err != nil {
			t.Fatalf("invalid JSON log line %q: %v", line, err)
		}
		entries = append(entries, m)
	}
	return entries
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    Level
		wantErr bool
	}{
		{"debug", LevelDebug, false},
		{"INFO", LevelInfo, false},
		{"", LevelInfo, false},
		{"warning", LevelWarn, false},
		{"error", LevelError, false},
		{"loud", LevelInfo, true},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseLevel(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestParseFormat(t *testing.T) {
	if f, err := ParseFormat("json"); err != nil || f != FormatJSON {
		t.Errorf("ParseFormat(json) = %v, %v", f, err)
	}
	if f, err := ParseFormat("text"); err != nil || f != FormatText {
		t.Errorf("ParseFormat(text) = %v, %v", f, err)
	}
	if _, err := ParseFormat("xml"); err == nil {
		t.Error("ParseFormat(xml) should fail")
	}
}

func TestLevelFiltering(t *testing.T) {
	out := captureLogOutput(t, LevelWarn, FormatJSON, func() {
		Debug("hidden debug")
		Info("hidden info")
		Warn("shown warn")
		Error("shown error")
	})
	if strings.Contains(out, "hidden") {
		t.Errorf("messages below warn leaked: %s", out)
	}
	entries := decodeLines(t, out)
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}
}

func TestTimestampFormat(t *testing.T) {
	out := captureLogOutput(t, LevelInfo, FormatJSON, func() {
		Info("tick")
	})
	entries := decodeLines(t, out)
	ts, ok := entries[0]["time"].(string)
	if !ok {
		t.Fatalf("time attribute missing: %v", entries[0])
	}
	if _, err := time.Parse(time.RFC3339, ts); err != nil {
		t.Errorf("time %q is not RFC3339: %v", ts, err)
	}
}

func TestRunIDContext(t *testing.T) {
	ctx := WithRunID(context.Background(), "run-123")
	if got := GetRunID(ctx); got != "run-123" {
		t.Errorf("GetRunID = %q", got)
	}
	if got := GetRunID(context.Background()); got != "" {
		t.Errorf("GetRunID on empty context = %q", got)
	}

	out := captureLogOutput(t, LevelInfo, FormatJSON, func() {
		InfoContext(ctx, "with run")
	})
	entries := decodeLines(t, out)
	if entries[0]["run_id"] != "run-123" {
		t.Errorf("run_id = %v", entries[0]["run_id"])
	}
}

func TestPassLogging(t *testing.T) {
	ctx := WithRunID(context.Background(), "r1")
	out := captureLogOutput(t, LevelInfo, FormatJSON, func() {
		PassStarted(ctx, "add-audio", "merge-audio")
		PassFinished(ctx, "add-audio", "merge-audio", 1500*time.Millisecond, nil, "matched", 7)
		PassFinished(ctx, "add-words", "attach-words", time.Millisecond, errors.New("boom"))
	})
	entries := decodeLines(t, out)
	if len(entries) != 3 {
		t.Fatalf("got %d entries, want 3", len(entries))
	}
	if entries[0]["msg"] != "pass_started" || entries[0]["pass"] != "add-audio" {
		t.Errorf("start entry = %v", entries[0])
	}
	if entries[1]["msg"] != "pass_finished" || entries[1]["duration_ms"] != float64(1500) || entries[1]["matched"] != float64(7) {
		t.Errorf("finish entry = %v", entries[1])
	}
	if entries[2]["msg"] != "pass_failed" || entries[2]["error"] != "boom" || entries[2]["level"] != "ERROR" {
		t.Errorf("failure entry = %v", entries[2])
	}
}

func TestDiagnostics(t *testing.T) {
	out := captureLogOutput(t, LevelInfo, FormatJSON, func() {
		MergeDiagnostic("audio", 5, 2, "1:6")
		FetchAttempt("http://example/translations/20", 1, 250*time.Millisecond, errors.New("503"))
		OutputWritten(context.Background(), "quran", "quran.json", 42)
	})
	entries := decodeLines(t, out)
	if len(entries) != 3 {
		t.Fatalf("got %d entries", len(entries))
	}
	if entries[0]["first_unmatched"] != "1:6" || entries[0]["level"] != "WARN" {
		t.Errorf("merge entry = %v", entries[0])
	}
	if entries[1]["wait_ms"] != float64(250) {
		t.Errorf("fetch entry = %v", entries[1])
	}
	if entries[2]["size_bytes"] != float64(42) {
		t.Errorf("output entry = %v", entries[2])
	}
}

func TestTextFormat(t *testing.T) {
	out := captureLogOutput(t, LevelInfo, FormatText, func() {
		Info("plain", "key", "value")
	})
	if !strings.Contains(out, "msg=plain") || !strings.Contains(out, "key=value") {
		t.Errorf("text output = %q", out)
	}
}

func TestGetLogger(t *testing.T) {
	if GetLogger() == nil {
		t.Fatal("GetLogger returned nil")
	}
}

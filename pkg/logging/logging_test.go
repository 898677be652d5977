package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
)

func TestNewLogger(t *testing.T) {
	logger := NewLogger(LevelInfo)
	if logger.level != LevelInfo {
		t.Errorf("expected level %s, got %s", LevelInfo, logger.level)
	}
	if logger.format != FormatJSON {
		t.Errorf("expected json format, got %s", logger.format)
	}
}

func TestNew_FromConfigStrings(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New("WARN", "text", &buf)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	logger.Info("hidden")
	logger.Warn("shown")
	if strings.Contains(buf.String(), "hidden") {
		t.Errorf("info should be filtered at warn level: %s", buf.String())
	}
	if !strings.Contains(buf.String(), "WARN shown") {
		t.Errorf("expected text warn line, got: %s", buf.String())
	}
}

func TestNew_Invalid(t *testing.T) {
	if _, err := New("trace", "json", nil); err == nil {
		t.Error("expected error for unknown level")
	}
	if _, err := New("info", "xml", nil); err == nil {
		t.Error("expected error for unknown format")
	}
}

func TestLogger_DebugFiltered(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(LevelInfo)
	logger.SetOutput(&buf)

	logger.Debug("test message")

	if buf.Len() > 0 {
		t.Errorf("expected no output for debug when level is info, got: %s", buf.String())
	}
}

func TestLogger_LevelFiltering(t *testing.T) {
	tests := []struct {
		level Level
		want  []string
	}{
		{LevelDebug, []string{"d", "i", "w", "e"}},
		{LevelInfo, []string{"i", "w", "e"}},
		{LevelWarn, []string{"w", "e"}},
		{LevelError, []string{"e"}},
	}
	for _, tt := range tests {
		t.Run(string(tt.level), func(t *testing.T) {
			var buf bytes.Buffer
			logger := NewLogger(tt.level)
			logger.SetOutput(&buf)
			logger.Debug("d")
			logger.Info("i")
			logger.Warn("w")
			logger.Error("e")

			lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
			if len(lines) != len(tt.want) {
				t.Fatalf("expected %d lines, got %d: %s", len(tt.want), len(lines), buf.String())
			}
			for i, msg := range tt.want {
				var entry LogEntry
				if err := json.Unmarshal([]byte(lines[i]), &entry); err != nil {
					t.Fatalf("line %d is not JSON: %v", i, err)
				}
				if entry.Message != msg {
					t.Errorf("line %d: expected %q, got %q", i, msg, entry.Message)
				}
			}
		})
	}
}

func TestLogger_ErrorErr(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(LevelError)
	logger.SetOutput(&buf)

	logger.ErrorErr("operation failed", errors.New("test error"), map[string]any{"path": "a.txt"})

	output := buf.String()
	if !strings.Contains(output, `"error":"test error"`) {
		t.Errorf("expected error field in output, got: %s", output)
	}
	if !strings.Contains(output, `"path":"a.txt"`) {
		t.Errorf("expected path field in output, got: %s", output)
	}
}

func TestLogger_ErrorErr_NilError(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(LevelError)
	logger.SetOutput(&buf)

	logger.ErrorErr("no cause", nil)

	if strings.Contains(buf.String(), `"error"`) {
		t.Errorf("expected no error field, got: %s", buf.String())
	}
}

func TestLogger_WithFields(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(LevelInfo)
	logger.SetOutput(&buf)

	child := logger.WithFields(map[string]any{"request_id": "123"})
	child.Info("test message")
	logger.Info("parent message")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if !strings.Contains(lines[0], `"request_id":"123"`) {
		t.Errorf("expected request_id field in output, got: %s", lines[0])
	}
	if strings.Contains(lines[1], "request_id") {
		t.Errorf("parent logger should not inherit child fields: %s", lines[1])
	}
}

func TestLogger_TextFormat(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New("info", "text", &buf)
	if err != nil {
		t.Fatal(err)
	}
	logger.Info("request", map[string]any{"status": 200, "path": "/api/files", "ua": "curl 8"})

	line := buf.String()
	for _, want := range []string{"INFO request", "path=/api/files", "status=200", `ua="curl 8"`} {
		if !strings.Contains(line, want) {
			t.Errorf("expected %q in %q", want, line)
		}
	}
	if strings.Index(line, "path=") > strings.Index(line, "status=") {
		t.Errorf("expected keys sorted, got %q", line)
	}
}

func TestLogger_JSONFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(LevelInfo)
	logger.SetOutput(&buf)

	logger.Info("test message", map[string]any{"count": 42})

	var entry LogEntry
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("output is not valid JSON: %v, got: %s", err, buf.String())
	}
	if entry.Message != "test message" {
		t.Errorf("expected message 'test message', got: %s", entry.Message)
	}
	if entry.Fields["count"].(float64) != 42 {
		t.Errorf("expected count 42, got: %v", entry.Fields["count"])
	}
}

func TestLogger_ConcurrentLogging(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(LevelInfo)
	logger.SetOutput(&buf)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			logger.Info("concurrent", map[string]any{"n": n})
		}(i)
	}
	wg.Wait()

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 20 {
		t.Fatalf("expected 20 lines, got %d", len(lines))
	}
	for _, line := range lines {
		if !json.Valid([]byte(line)) {
			t.Errorf("torn line: %s", line)
		}
	}
}

func TestGlobalLogger(t *testing.T) {
	prev := Global()
	defer SetGlobal(prev)

	var buf bytes.Buffer
	testLogger := NewLogger(LevelDebug)
	testLogger.SetOutput(&buf)
	SetGlobal(testLogger)

	Debug("global debug message")
	WithFields(map[string]any{"component": "test"}).Info("component message")

	output := buf.String()
	if !strings.Contains(output, `"message":"global debug message"`) {
		t.Errorf("expected global message in output, got: %s", output)
	}
	if !strings.Contains(output, `"component":"test"`) {
		t.Errorf("expected component field in output, got: %s", output)
	}
}

package console

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestConsoleLogger_JSONFormat(t *testing.T) {
	var buf bytes.Buffer
	l := NewConsoleLogger(ConsoleLoggerParams{Format: "json", Output: &buf})

	l.Info("[Engine] Batch processed", "tenant", "t1", "items", 2)

	var line map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &line); err != nil {
		t.Fatalf("expected json log line, got %q: %v", buf.String(), err)
	}
	if line["msg"] != "[Engine] Batch processed" {
		t.Fatalf("unexpected msg %v", line["msg"])
	}
	if line["tenant"] != "t1" {
		t.Fatalf("unexpected tenant %v", line["tenant"])
	}
}

func TestConsoleLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := NewConsoleLogger(ConsoleLoggerParams{Level: "warn", Output: &buf})

	l.Info("hidden")
	l.Debug("hidden too")
	l.Warn("visible")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("info/debug lines should be filtered at warn level: %q", out)
	}
	if !strings.Contains(out, "visible") {
		t.Fatalf("warn line missing: %q", out)
	}
}

func TestConsoleLogger_DebugOverridesLevel(t *testing.T) {
	var buf bytes.Buffer
	l := NewConsoleLogger(ConsoleLoggerParams{Level: "error", Debug: true, Output: &buf})

	l.Debug("shown")
	if !strings.Contains(buf.String(), "shown") {
		t.Fatalf("debug flag must force debug level: %q", buf.String())
	}
}

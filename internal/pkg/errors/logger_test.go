package errors

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestLogger_Levels(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, true) // verbose mode

	logger.Error("error message")
	logger.Warn("warn message")
	logger.Info("info message")
	logger.Debug("debug message")

	output := buf.String()

	for _, level := range []string{"ERROR", "WARN", "INFO", "DEBUG"} {
		if !strings.Contains(output, level) {
			t.Errorf("Output should contain %s", level)
		}
	}
}

func TestLogger_NonVerbose(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, false) // non-verbose mode

	logger.Error("error message")
	logger.Warn("warn message")
	logger.Info("info message")
	logger.Debug("debug message")

	output := buf.String()

	if !strings.Contains(output, "ERROR") {
		t.Error("Output should contain ERROR even in non-verbose mode")
	}
	for _, level := range []string{"WARN", "INFO", "DEBUG"} {
		if strings.Contains(output, level) {
			t.Errorf("Output should not contain %s in non-verbose mode", level)
		}
	}
}

func TestLogger_RunID(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, false)

	logger.Error("something broke")

	if !strings.Contains(buf.String(), logger.runID) {
		t.Errorf("Output should carry the run id %s, got %q", logger.runID, buf.String())
	}
}

func TestLogger_SetVerbose(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, false)

	logger.Debug("hidden")
	logger.SetVerbose(true)
	logger.Debug("shown")

	output := buf.String()
	if strings.Contains(output, "hidden") {
		t.Error("debug line emitted before verbose was enabled")
	}
	if !strings.Contains(output, "shown") {
		t.Error("debug line missing after verbose was enabled")
	}
}

func TestLogger_LogAPIRequest(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, true)

	logger.LogAPIRequest("gemini", "https://generativelanguage.googleapis.com/v1beta/openai?key=secret", "gemini-2.5-pro", 1000)

	output := buf.String()

	if !strings.Contains(output, "gemini-2.5-pro") {
		t.Error("Output should contain model name")
	}
	if !strings.Contains(output, "1000") {
		t.Error("Output should contain prompt length")
	}
	if strings.Contains(output, "secret") {
		t.Error("Output should not contain the key query parameter")
	}
}

func TestLogger_LogAPIResponse(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, true)

	logger.LogAPIResponse("ollama", 200, 512, 2*time.Second)

	output := buf.String()
	if !strings.Contains(output, "ollama") || !strings.Contains(output, "512") {
		t.Errorf("unexpected response log: %q", output)
	}
}

func TestLogger_LogAPIRequest_NonVerbose(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, false)

	logger.LogAPIRequest("gemini", "https://example.com", "m", 10)
	logger.LogFallback("gemini", errors.New("unavailable"))

	if buf.Len() != 0 {
		t.Errorf("non-verbose logger should not emit request logs, got %q", buf.String())
	}
}

func TestLogger_LogFallback(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, true)

	logger.LogFallback("gemini", errors.New("api_key=abc123 rejected"))

	output := buf.String()
	if !strings.Contains(output, "falling back") {
		t.Error("Output should mention the fallback")
	}
	if strings.Contains(output, "abc123") {
		t.Error("Output should mask the key")
	}
}

package logging

import (
	"bytes"
	"strings"
	"testing"
)

func TestNewTextLogger(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Options{Level: "debug", Format: "text", Writer: &buf})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	logger.Debug("hello", "key", "value")
	out := buf.String()
	if !strings.Contains(out, "hello") || !strings.Contains(out, "key=value") {
		t.Errorf("unexpected log output: %q", out)
	}
	if !strings.Contains(out, "level=debug") {
		t.Errorf("level should be lowercased, got: %q", out)
	}
}

func TestNewJSONLogger(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Options{Format: "json", Writer: &buf})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	logger.Info("hello")
	if !strings.Contains(buf.String(), `"msg":"hello"`) {
		t.Errorf("unexpected JSON output: %q", buf.String())
	}
}

func TestNewRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Options{Level: "warn", Writer: &buf})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	logger.Info("dropped")
	if buf.Len() != 0 {
		t.Errorf("info message should be dropped at warn level, got: %q", buf.String())
	}
	logger.Warn("kept")
	if buf.Len() == 0 {
		t.Error("warn message should be emitted at warn level")
	}
}

func TestNewRejectsUnknownSettings(t *testing.T) {
	if _, err := New(Options{Level: "verbose"}); err == nil {
		t.Error("New should reject an unknown level")
	}
	if _, err := New(Options{Format: "xml"}); err == nil {
		t.Error("New should reject an unknown format")
	}
}

func TestDiscard(t *testing.T) {
	logger := Discard()
	if logger == nil {
		t.Fatal("Discard returned nil")
	}
	logger.Info("goes nowhere")
}

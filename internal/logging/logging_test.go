package logging

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestNew_TextFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{
		Level:  slog.LevelInfo,
		Format: FormatText,
		Output: &buf,
	})

	logger.Info("rendering instance", "instance", "daily")

	out := buf.String()
	if !strings.Contains(out, "rendering instance") {
		t.Errorf("output missing message: %q", out)
	}
	if !strings.Contains(out, "instance=daily") {
		t.Errorf("output missing attribute: %q", out)
	}
}

func TestNew_JSONFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{
		Level:  slog.LevelInfo,
		Format: FormatJSON,
		Output: &buf,
	})

	logger.Info("deployed")

	out := buf.String()
	if !strings.Contains(out, `"msg":"deployed"`) {
		t.Errorf("expected JSON output, got %q", out)
	}
}

func TestNew_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{
		Level:  slog.LevelWarn,
		Format: FormatText,
		Output: &buf,
	})

	logger.Info("should be dropped")
	logger.Warn("should appear")

	out := buf.String()
	if strings.Contains(out, "should be dropped") {
		t.Errorf("info message should be filtered: %q", out)
	}
	if !strings.Contains(out, "should appear") {
		t.Errorf("warn message missing: %q", out)
	}
}

func TestLevelFromVerbosity(t *testing.T) {
	tests := []struct {
		v    int
		want slog.Level
	}{
		{0, slog.LevelInfo},
		{1, slog.LevelDebug},
		{2, slog.Level(-8)},
		{5, slog.Level(-8)},
	}
	for _, tt := range tests {
		if got := LevelFromVerbosity(tt.v); got != tt.want {
			t.Errorf("LevelFromVerbosity(%d) = %v, want %v", tt.v, got, tt.want)
		}
	}
}

func TestContextRoundTrip(t *testing.T) {
	logger := NewDiscard()
	ctx := NewContext(context.Background(), logger)

	if got := FromContext(ctx); got != logger {
		t.Error("FromContext should return the stored logger")
	}
	if got := FromContext(context.Background()); got == nil {
		t.Error("FromContext without a stored logger should fall back to the default")
	}
}

func TestMultiHandler(t *testing.T) {
	var a, b bytes.Buffer
	handler := NewMultiHandler(
		slog.NewTextHandler(&a, nil),
		slog.NewJSONHandler(&b, nil),
	)
	logger := slog.New(handler)

	logger.Info("both")

	if !strings.Contains(a.String(), "both") {
		t.Error("text handler did not receive the record")
	}
	if !strings.Contains(b.String(), "both") {
		t.Error("json handler did not receive the record")
	}
}

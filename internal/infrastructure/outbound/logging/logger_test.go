package logging_test

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/sophialabs/wirecheck/internal/infrastructure/outbound/logging"
)

func TestSlogLogger_AllLevels(t *testing.T) {
	tests := []struct {
		name  string
		call  func(l *logging.SlogLogger)
		level string
	}{
		{"Info", func(l *logging.SlogLogger) { l.Info("info message", "key", "val") }, "INFO"},
		{"Warn", func(l *logging.SlogLogger) { l.Warn("warn message", "key", "val") }, "WARN"},
		{"Error", func(l *logging.SlogLogger) { l.Error("error message", "key", "val") }, "ERROR"},
		{"Debug", func(l *logging.SlogLogger) { l.Debug("debug message", "key", "val") }, "DEBUG"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := logging.NewWriter(&buf, "debug", "text")

			tt.call(logger)

			output := buf.String()
			if !strings.Contains(output, tt.level) {
				t.Errorf("expected output to contain %q, got: %s", tt.level, output)
			}
			if !strings.Contains(output, "key=val") {
				t.Errorf("expected output to contain key=val, got: %s", output)
			}
		})
	}
}

func TestNewWriter_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.NewWriter(&buf, "info", "json").With("run", "audit")
	logger.Info("scan complete", "calls", 3)
	logger.Debug("suppressed")

	var rec map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &rec); err != nil {
		t.Fatalf("expected a single JSON record, got %q: %v", buf.String(), err)
	}
	if rec["msg"] != "scan complete" || rec["run"] != "audit" || rec["calls"] != float64(3) {
		t.Errorf("unexpected record: %v", rec)
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"bogus":   slog.LevelInfo,
	}
	for in, want := range tests {
		if got := logging.ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

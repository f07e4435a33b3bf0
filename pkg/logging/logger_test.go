package logging

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Level != LevelInfo {
		t.Errorf("Expected default level to be Info, got %s", cfg.Level)
	}
	if cfg.Pretty {
		t.Error("Expected default pretty to be false")
	}
	if cfg.Service != "pagedlist" {
		t.Errorf("Expected default service 'pagedlist', got %q", cfg.Service)
	}
}

func TestSetup_WritesServiceField(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := Setup(Config{Level: LevelInfo, Output: buf, Service: "svc-test"})

	logger.Info().Msg("hello")

	out := buf.String()
	if !strings.Contains(out, `"service":"svc-test"`) {
		t.Errorf("Expected service field in %q", out)
	}
	if !strings.Contains(out, "hello") {
		t.Errorf("Expected message in %q", out)
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input   string
		want    LogLevel
		wantErr bool
	}{
		{"debug", LevelDebug, false},
		{"INFO", LevelInfo, false},
		{"", LevelInfo, false},
		{"warning", LevelWarn, false},
		{" warn ", LevelWarn, false},
		{"error", LevelError, false},
		{"verbose", LevelInfo, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseLevel(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseLevel(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestLogLevel_Zerolog(t *testing.T) {
	tests := []struct {
		input    LogLevel
		expected zerolog.Level
	}{
		{LevelDebug, zerolog.DebugLevel},
		{LevelInfo, zerolog.InfoLevel},
		{LevelWarn, zerolog.WarnLevel},
		{LevelError, zerolog.ErrorLevel},
		{"invalid", zerolog.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(string(tt.input), func(t *testing.T) {
			if got := tt.input.zerolog(); got != tt.expected {
				t.Errorf("%q.zerolog() = %v, want %v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestNewLogger(t *testing.T) {
	buf := &bytes.Buffer{}
	Setup(Config{Level: LevelInfo, Output: buf})

	logger := NewLogger("jobexecutor")
	logger.Info().Msg("job queued")

	output := buf.String()
	if !strings.Contains(output, `"component":"jobexecutor"`) {
		t.Errorf("Expected output to contain component field, got %q", output)
	}
}

func TestLogLevelFiltering(t *testing.T) {
	buf := &bytes.Buffer{}
	Setup(Config{Level: LevelWarn, Output: buf})

	logger := NewLogger("test")
	logger.Debug().Msg("debug message")
	logger.Info().Msg("info message")
	logger.Warn().Msg("warn message")
	logger.Error().Msg("error message")

	output := buf.String()
	if strings.Contains(output, "debug message") || strings.Contains(output, "info message") {
		t.Error("Messages below Warn should be filtered out")
	}
	if !strings.Contains(output, "warn message") || !strings.Contains(output, "error message") {
		t.Error("Warn and Error messages should be included")
	}

	// Restore for other tests in the package.
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
}

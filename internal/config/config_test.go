package config_test

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/neomorfeo/ringside/internal/config"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Port != "8080" {
		t.Errorf("Port = %q, want %q", cfg.Port, "8080")
	}
	if cfg.DatabasePath != "ringside.db" {
		t.Errorf("DatabasePath = %q, want %q", cfg.DatabasePath, "ringside.db")
	}
	if cfg.LogLevel != slog.LevelInfo {
		t.Errorf("LogLevel = %v, want %v", cfg.LogLevel, slog.LevelInfo)
	}
	if cfg.LogFormat != "text" {
		t.Errorf("LogFormat = %q, want %q", cfg.LogFormat, "text")
	}
	if cfg.WorkerConcurrency != 2 {
		t.Errorf("WorkerConcurrency = %d, want 2", cfg.WorkerConcurrency)
	}
	if cfg.ShutdownTimeout != 5*time.Second {
		t.Errorf("ShutdownTimeout = %s, want 5s", cfg.ShutdownTimeout)
	}
	if cfg.OTel.ServiceName != "ringside" {
		t.Errorf("OTel.ServiceName = %q, want %q", cfg.OTel.ServiceName, "ringside")
	}
	if cfg.OTel.Exporter != "stdout" {
		t.Errorf("OTel.Exporter = %q, want %q", cfg.OTel.Exporter, "stdout")
	}
}

func TestLoad_CustomValues(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("DATABASE_PATH", "/var/lib/ringside/roster.db")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "json")
	t.Setenv("WORKER_CONCURRENCY", "8")
	t.Setenv("SHUTDOWN_TIMEOUT", "30s")
	t.Setenv("OTEL_SERVICE_NAME", "ringside-prod")
	t.Setenv("OTEL_ENVIRONMENT", "production")
	t.Setenv("OTEL_EXPORTER", "otlp")
	t.Setenv("OTEL_INSECURE", "true")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Port != "9090" {
		t.Errorf("Port = %q, want %q", cfg.Port, "9090")
	}
	if cfg.DatabasePath != "/var/lib/ringside/roster.db" {
		t.Errorf("DatabasePath = %q", cfg.DatabasePath)
	}
	if cfg.LogLevel != slog.LevelDebug {
		t.Errorf("LogLevel = %v, want %v", cfg.LogLevel, slog.LevelDebug)
	}
	if cfg.WorkerConcurrency != 8 {
		t.Errorf("WorkerConcurrency = %d, want 8", cfg.WorkerConcurrency)
	}
	if cfg.ShutdownTimeout != 30*time.Second {
		t.Errorf("ShutdownTimeout = %s, want 30s", cfg.ShutdownTimeout)
	}
	if cfg.OTel.ServiceName != "ringside-prod" {
		t.Errorf("OTel.ServiceName = %q, want %q", cfg.OTel.ServiceName, "ringside-prod")
	}
	if cfg.OTel.Environment != "production" {
		t.Errorf("OTel.Environment = %q, want %q", cfg.OTel.Environment, "production")
	}
	if cfg.OTel.Exporter != "otlp" || !cfg.OTel.Insecure {
		t.Errorf("OTel exporter = %q insecure = %v, want otlp and insecure", cfg.OTel.Exporter, cfg.OTel.Insecure)
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name, key, value, wantErr string
	}{
		{"log format", "LOG_FORMAT", "xml", "LOG_FORMAT"},
		{"log level", "LOG_LEVEL", "loud", "LogLevel"},
		{"worker concurrency", "WORKER_CONCURRENCY", "0", "WORKER_CONCURRENCY"},
		{"shutdown timeout", "SHUTDOWN_TIMEOUT", "soon", "ShutdownTimeout"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)

			_, err := config.Load()
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %q, want mention of %s", err, tt.wantErr)
			}
		})
	}
}

func TestNewLogger_JSON(t *testing.T) {
	t.Setenv("LOG_FORMAT", "json")
	t.Setenv("LOG_LEVEL", "warn")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	var buf bytes.Buffer
	logger := cfg.NewLogger(&buf)
	logger.Info("dropped")
	logger.Warn("kept", "entity_id", "w-1")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("got %d log lines, want 1: %q", len(lines), buf.String())
	}

	var record map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &record); err != nil {
		t.Fatalf("log line is not JSON: %v", err)
	}
	if record["msg"] != "kept" || record["entity_id"] != "w-1" {
		t.Errorf("record = %v", record)
	}
}

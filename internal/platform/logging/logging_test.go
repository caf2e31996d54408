package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/dentrec/dentrec/internal/config"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"WARN", zerolog.WarnLevel},
		{" error ", zerolog.ErrorLevel},
		{"", zerolog.InfoLevel},
		{"chatty", zerolog.InfoLevel},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestBuild_JSONInProduction(t *testing.T) {
	var buf bytes.Buffer
	logger, closer := build(&config.Config{Env: "production", LogLevel: "info"}, &buf)
	defer closer.Close()

	logger.Debug().Msg("hidden")
	logger.Info().Str("patient_id", "p1").Msg("charge recorded")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected 1 line above debug level, got %d: %q", len(lines), buf.String())
	}
	var entry map[string]interface{}
	if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatalf("expected JSON output: %v", err)
	}
	if entry["service"] != "dentrec" || entry["patient_id"] != "p1" {
		t.Errorf("unexpected fields: %v", entry)
	}
}

func TestBuild_WritesRotatedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dentrec.log")
	var buf bytes.Buffer
	logger, closer := build(&config.Config{Env: "production", LogFile: path, LogMaxSizeMB: 1}, &buf)

	logger.Warn().Msg("ledger lock contention")
	if err := closer.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(data), "ledger lock contention") {
		t.Errorf("expected message in log file, got %q", data)
	}
	if !strings.Contains(buf.String(), "ledger lock contention") {
		t.Error("expected message on stdout as well")
	}
}

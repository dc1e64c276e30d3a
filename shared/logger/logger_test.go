package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeLines(t *testing.T, output *bytes.Buffer) []map[string]any {
	t.Helper()
	var entries []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(output.String()), "\n") {
		if line == "" {
			continue
		}
		var entry map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &entry))
		entries = append(entries, entry)
	}
	return entries
}

func TestNew(t *testing.T) {
	tests := []struct {
		name      string
		config    *Config
		checkFunc func(t *testing.T, logger *Logger, output *bytes.Buffer)
	}{
		{
			name:   "json format with debug level",
			config: &Config{Level: "debug", Format: "json"},
			checkFunc: func(t *testing.T, logger *Logger, output *bytes.Buffer) {
				logger.Debug("fetching board", slog.String("platform", "lever"))

				entries := decodeLines(t, output)
				require.Len(t, entries, 1)
				assert.Equal(t, "DEBUG", entries[0]["level"])
				assert.Equal(t, "fetching board", entries[0]["msg"])
				assert.Equal(t, "lever", entries[0]["platform"])
				assert.Contains(t, entries[0], "time")
			},
		},
		{
			name:   "info level drops debug",
			config: &Config{Level: "info", Format: "json"},
			checkFunc: func(t *testing.T, logger *Logger, output *bytes.Buffer) {
				logger.Debug("posting skipped")
				logger.Info("run completed", slog.Int("final_included", 12))

				entries := decodeLines(t, output)
				require.Len(t, entries, 1)
				assert.Equal(t, "INFO", entries[0]["level"])
				assert.Equal(t, float64(12), entries[0]["final_included"])
			},
		},
		{
			name:   "error level drops warn",
			config: &Config{Level: "error", Format: "json"},
			checkFunc: func(t *testing.T, logger *Logger, output *bytes.Buffer) {
				logger.Warn("board returned 429")
				logger.Error("run failed")

				entries := decodeLines(t, output)
				require.Len(t, entries, 1)
				assert.Equal(t, "ERROR", entries[0]["level"])
			},
		},
		{
			name:   "console format",
			config: &Config{Level: "info", Format: "console", TimeFormat: time.TimeOnly},
			checkFunc: func(t *testing.T, logger *Logger, output *bytes.Buffer) {
				logger.Info("scheduler started")
				assert.Contains(t, output.String(), "INF")
				assert.Contains(t, output.String(), "scheduler started")
			},
		},
		{
			name:   "unknown format falls back to json",
			config: &Config{Level: "info", Format: "xml"},
			checkFunc: func(t *testing.T, logger *Logger, output *bytes.Buffer) {
				logger.Info("collector ready")
				entries := decodeLines(t, output)
				require.Len(t, entries, 1)
				assert.Equal(t, "collector ready", entries[0]["msg"])
			},
		},
		{
			name:   "source enabled",
			config: &Config{Level: "info", Format: "json", EnableSource: true},
			checkFunc: func(t *testing.T, logger *Logger, output *bytes.Buffer) {
				logger.Info("with source")
				entries := decodeLines(t, output)
				require.Len(t, entries, 1)

				source, ok := entries[0]["source"].(map[string]any)
				require.True(t, ok)
				assert.Contains(t, source, "file")
				assert.Contains(t, source, "line")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			output := &bytes.Buffer{}
			cfg := *tt.config
			cfg.writer = output

			logger, err := New(&cfg)
			require.NoError(t, err)
			require.NotNil(t, logger)

			tt.checkFunc(t, logger, output)
		})
	}
}

func TestNew_FileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "worker.log")

	logger, err := New(&Config{Level: "info", Format: "json", Output: path})
	require.NoError(t, err)
	logger.Info("first")
	logger.Info("second")
	require.NoError(t, logger.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(string(data), "\n"))
	assert.Contains(t, string(data), `"msg":"second"`)
}

func TestNew_FileOutputError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "dir", "worker.log")

	logger, err := New(&Config{Output: path})
	require.Error(t, err)
	assert.Nil(t, logger)
	assert.Contains(t, err.Error(), "failed to open log file")
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, parseLevel(tt.input))
		})
	}
}

func TestLogger_Scoping(t *testing.T) {
	output := &bytes.Buffer{}
	base, err := New(&Config{Level: "info", Format: "json", writer: output})
	require.NoError(t, err)

	scoped := base.With("employer", "Acme Health").
		WithAttrs(slog.String("command", "collect"), slog.Int("attempt", 2))
	scoped.Info("fetched", slog.Int("postings", 7))
	assert.NoError(t, scoped.Close())

	entries := decodeLines(t, output)
	require.Len(t, entries, 1)
	entry := entries[0]
	assert.Equal(t, "Acme Health", entry["employer"])
	assert.Equal(t, "collect", entry["command"])
	assert.Equal(t, float64(2), entry["attempt"])
	assert.Equal(t, float64(7), entry["postings"])
}

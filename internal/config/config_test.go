package config

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, "us-central1", cfg.GCPLocation)
	assert.Equal(t, "us-central1", cfg.DataprocRegion)
	assert.Equal(t, "main", cfg.GitHubBranch)
	assert.Equal(t, ProviderOllama, cfg.LLMProvider)
	assert.Equal(t, 8080, cfg.APIPort)
	assert.Equal(t, 1024, cfg.TaskCapacity)
	assert.Equal(t, time.Hour, cfg.TaskTTL)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("DATAPILOT_GCP_PROJECT", "acme-data")
	t.Setenv("DATAPILOT_API_HOST", "0.0.0.0")
	t.Setenv("DATAPILOT_API_PORT", "9090")
	t.Setenv("DATAPILOT_TASK_TTL", "30m")
	t.Setenv("DATAPILOT_LOG_LEVEL", "debug")

	cfg := Load()

	assert.Equal(t, "acme-data", cfg.GCPProject)
	assert.Equal(t, "0.0.0.0", cfg.APIHost)
	assert.Equal(t, 9090, cfg.APIPort)
	assert.Equal(t, 30*time.Minute, cfg.TaskTTL)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
}

func TestLoadIgnoresMalformedValues(t *testing.T) {
	t.Setenv("DATAPILOT_API_PORT", "not-a-port")
	t.Setenv("DATAPILOT_TASK_TTL", "soon")

	cfg := Load()

	assert.Equal(t, 8080, cfg.APIPort)
	assert.Equal(t, time.Hour, cfg.TaskTTL)
}

func TestParseLogLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, parseLogLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, parseLogLevel("warning"))
	assert.Equal(t, slog.LevelError, parseLogLevel("error"))
	assert.Equal(t, slog.LevelInfo, parseLogLevel("banana"))
}

func TestSetupLoggerWithWriters(t *testing.T) {
	var stderr, file bytes.Buffer
	logger := SetupLoggerWithWriters(&stderr, &file, slog.LevelInfo)

	logger.Info("tool call", "tool", "ping")

	// Human-readable text on stderr, machine-parseable JSON in the file.
	assert.Contains(t, stderr.String(), "tool call")
	assert.Contains(t, stderr.String(), "tool=ping")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(file.Bytes(), &entry))
	assert.Equal(t, "tool call", entry["msg"])
	assert.Equal(t, "ping", entry["tool"])
}

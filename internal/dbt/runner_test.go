package dbt

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildArgs(t *testing.T) {
	args, err := buildArgs([]string{"run", "--full-refresh"}, "/proj", "/profiles", Options{
		Select:   []string{"orders", "tag:staging"},
		Exclude:  []string{"legacy"},
		Selector: "nightly",
		Vars:     map[string]any{"run_date": "2026-08-25"},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{
		"run", "--full-refresh",
		"--project-dir", "/proj",
		"--profiles-dir", "/profiles",
		"--vars", `{"run_date":"2026-08-25"}`,
		"--select", "orders", "tag:staging",
		"--exclude", "legacy",
		"--selector", "nightly",
	}, args)
}

func TestBuildArgs_Minimal(t *testing.T) {
	args, err := buildArgs([]string{"parse"}, "/proj", "/proj", Options{})
	require.NoError(t, err)
	assert.Equal(t, []string{"parse", "--project-dir", "/proj", "--profiles-dir", "/proj"}, args)
}

func TestNewRunner_ProfilesDirFallback(t *testing.T) {
	r := NewRunner("/proj", "", slog.Default())
	assert.Equal(t, "/proj", r.profilesDir)

	r = NewRunner("/proj", "/custom", slog.Default())
	assert.Equal(t, "/custom", r.profilesDir)
}

func TestRun_CapturesOutputAndExitCode(t *testing.T) {
	r := NewRunner("/proj", "", slog.Default())
	r.binary = "echo"

	result, err := r.run(context.Background(), []string{"hello"}, Options{})
	require.NoError(t, err)
	assert.False(t, result.IsError())
	assert.Equal(t, 0, result.ExitCode)
	assert.Contains(t, result.Stdout, "hello")
	assert.Contains(t, result.Command, "echo hello")
	assert.GreaterOrEqual(t, result.DurationSeconds, 0.0)
}

func TestRun_NonZeroExitIsErrorResult(t *testing.T) {
	r := NewRunner("/proj", "", slog.Default())
	r.binary = "false"

	result, err := r.run(context.Background(), []string{"run"}, Options{})
	require.NoError(t, err)
	assert.True(t, result.IsError())
	assert.Equal(t, 1, result.ExitCode)
	assert.Contains(t, result.ErrorMessage, "exited with code 1")
}

func TestRun_MissingBinary(t *testing.T) {
	r := NewRunner("/proj", "", slog.Default())
	r.binary = "definitely-not-a-real-binary"

	_, err := r.run(context.Background(), []string{"run"}, Options{})
	assert.Error(t, err)
}

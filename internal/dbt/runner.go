// Package dbt shells out to the dbt CLI and captures structured results.
package dbt

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"time"

	"github.com/mkarlsen/datapilot/internal/models"
)

// Runner executes dbt commands against one project.
type Runner struct {
	binary      string
	projectDir  string
	profilesDir string
	logger      *slog.Logger
}

// NewRunner builds a runner for the project. profilesDir falls back to the
// project directory, matching dbt's own convention.
func NewRunner(projectDir, profilesDir string, logger *slog.Logger) *Runner {
	if profilesDir == "" {
		profilesDir = projectDir
	}
	return &Runner{
		binary:      "dbt",
		projectDir:  projectDir,
		profilesDir: profilesDir,
		logger:      logger,
	}
}

// Options are the selection flags shared across dbt subcommands.
type Options struct {
	Select      []string       `json:"select,omitempty"`
	Exclude     []string       `json:"exclude,omitempty"`
	Selector    string         `json:"selector,omitempty"`
	Vars        map[string]any `json:"vars,omitempty"`
	FullRefresh bool           `json:"full_refresh,omitempty"`
}

// RunResult is the captured outcome of one dbt invocation. Status is error
// whenever the process exited non-zero.
type RunResult struct {
	models.Result
	Command         string  `json:"command"`
	ExitCode        int     `json:"return_code"`
	Stdout          string  `json:"stdout"`
	Stderr          string  `json:"stderr"`
	DurationSeconds float64 `json:"duration_seconds"`
}

// buildArgs assembles the full argument list for a dbt subcommand.
// Flag order matches the CLI convention: subcommand flags first, then
// project/profiles dirs, then selection flags.
func buildArgs(base []string, projectDir, profilesDir string, opts Options) ([]string, error) {
	args := append([]string{}, base...)
	args = append(args, "--project-dir", projectDir, "--profiles-dir", profilesDir)

	if len(opts.Vars) > 0 {
		encoded, err := json.Marshal(opts.Vars)
		if err != nil {
			return nil, fmt.Errorf("encoding dbt vars: %w", err)
		}
		args = append(args, "--vars", string(encoded))
	}
	if len(opts.Select) > 0 {
		args = append(args, "--select")
		args = append(args, opts.Select...)
	}
	if len(opts.Exclude) > 0 {
		args = append(args, "--exclude")
		args = append(args, opts.Exclude...)
	}
	if opts.Selector != "" {
		args = append(args, "--selector", opts.Selector)
	}
	return args, nil
}

// run executes the assembled command, capturing output and timing. A non-zero
// exit becomes an error-status result, not a Go error; only a command that
// could not be started at all returns an error.
func (r *Runner) run(ctx context.Context, base []string, opts Options) (*RunResult, error) {
	args, err := buildArgs(base, r.projectDir, r.profilesDir, opts)
	if err != nil {
		return nil, err
	}

	cmd := exec.CommandContext(ctx, r.binary, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	runErr := cmd.Run()
	elapsed := time.Since(start)

	result := &RunResult{
		Result:          models.OK(),
		Command:         r.binary + " " + strings.Join(args, " "),
		Stdout:          stdout.String(),
		Stderr:          stderr.String(),
		DurationSeconds: elapsed.Seconds(),
	}

	if runErr != nil {
		var exitErr *exec.ExitError
		if !errors.As(runErr, &exitErr) {
			return nil, fmt.Errorf("running dbt: %w", runErr)
		}
		result.ExitCode = exitErr.ExitCode()
		result.Result = models.Errorf("dbt exited with code %d", result.ExitCode)
	}

	r.logger.Debug("dbt command finished",
		"command", base[0],
		"exit_code", result.ExitCode,
		"duration", elapsed)
	return result, nil
}

// Run runs dbt models.
func (r *Runner) Run(ctx context.Context, opts Options) (*RunResult, error) {
	base := []string{"run"}
	if opts.FullRefresh {
		base = append(base, "--full-refresh")
	}
	return r.run(ctx, base, opts)
}

// Test runs dbt tests.
func (r *Runner) Test(ctx context.Context, opts Options) (*RunResult, error) {
	return r.run(ctx, []string{"test"}, opts)
}

// Compile compiles models to SQL without executing.
func (r *Runner) Compile(ctx context.Context, opts Options) (*RunResult, error) {
	return r.run(ctx, []string{"compile"}, opts)
}

// Build runs models, tests, snapshots, and seeds in DAG order.
func (r *Runner) Build(ctx context.Context, opts Options) (*RunResult, error) {
	base := []string{"build"}
	if opts.FullRefresh {
		base = append(base, "--full-refresh")
	}
	return r.run(ctx, base, opts)
}

// Seed loads CSV seed files.
func (r *Runner) Seed(ctx context.Context, opts Options) (*RunResult, error) {
	return r.run(ctx, []string{"seed"}, opts)
}

// Snapshot executes snapshot definitions.
func (r *Runner) Snapshot(ctx context.Context, opts Options) (*RunResult, error) {
	return r.run(ctx, []string{"snapshot"}, opts)
}

// List lists project resources.
func (r *Runner) List(ctx context.Context, opts Options) (*RunResult, error) {
	return r.run(ctx, []string{"ls"}, opts)
}

// Show previews compiled model output rows.
func (r *Runner) Show(ctx context.Context, limit int, opts Options) (*RunResult, error) {
	if limit <= 0 {
		limit = 5
	}
	return r.run(ctx, []string{"show", "--limit", fmt.Sprint(limit)}, opts)
}

// Debug checks project configuration and connectivity.
func (r *Runner) Debug(ctx context.Context) (*RunResult, error) {
	return r.run(ctx, []string{"debug"}, Options{})
}

// Deps installs package dependencies.
func (r *Runner) Deps(ctx context.Context) (*RunResult, error) {
	return r.run(ctx, []string{"deps"}, Options{})
}

// Parse validates project syntax.
func (r *Runner) Parse(ctx context.Context) (*RunResult, error) {
	return r.run(ctx, []string{"parse"}, Options{})
}

// DocsGenerate builds the documentation site artifacts.
func (r *Runner) DocsGenerate(ctx context.Context, opts Options) (*RunResult, error) {
	return r.run(ctx, []string{"docs", "generate"}, opts)
}

// RunOperation runs a macro as an operation.
func (r *Runner) RunOperation(ctx context.Context, macro string, opts Options) (*RunResult, error) {
	return r.run(ctx, []string{"run-operation", macro}, opts)
}

// SourceFreshness checks when sources were last loaded.
func (r *Runner) SourceFreshness(ctx context.Context, opts Options) (*RunResult, error) {
	return r.run(ctx, []string{"source", "freshness"}, opts)
}

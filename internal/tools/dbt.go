package tools

import (
	"context"

	"github.com/mkarlsen/datapilot/internal/dbt"
)

// DBTInput carries the selection flags shared across dbt subcommands.
type DBTInput struct {
	Select      []string       `json:"select,omitempty" jsonschema:"Model selectors (names or tag: selectors)"`
	Exclude     []string       `json:"exclude,omitempty" jsonschema:"Selectors to exclude"`
	Selector    string         `json:"selector,omitempty" jsonschema:"Named YAML selector"`
	Vars        map[string]any `json:"vars,omitempty" jsonschema:"Project variables passed as --vars"`
	FullRefresh bool           `json:"full_refresh,omitempty" jsonschema:"Rebuild incremental models from scratch"`
}

func (in DBTInput) options() dbt.Options {
	return dbt.Options{
		Select:      in.Select,
		Exclude:     in.Exclude,
		Selector:    in.Selector,
		Vars:        in.Vars,
		FullRefresh: in.FullRefresh,
	}
}

// DBTShowInput defines the input schema for dbt_show.
type DBTShowInput struct {
	DBTInput
	Limit int `json:"limit,omitempty" jsonschema:"Rows to preview (default 5)"`
}

// DBTRunOperationInput defines the input schema for dbt_run_operation.
type DBTRunOperationInput struct {
	DBTInput
	Macro string `json:"macro" jsonschema:"required,Macro name to run"`
}

func registerDBT(r *Registry) {
	runner := r.deps.DBT

	Add(r, "dbt", "dbt_run",
		"Run dbt models",
		func(ctx context.Context, in DBTInput) (any, error) {
			return runner.Run(ctx, in.options())
		})

	Add(r, "dbt", "dbt_test",
		"Run dbt data quality tests",
		func(ctx context.Context, in DBTInput) (any, error) {
			return runner.Test(ctx, in.options())
		})

	Add(r, "dbt", "dbt_compile",
		"Compile models to SQL without executing",
		func(ctx context.Context, in DBTInput) (any, error) {
			return runner.Compile(ctx, in.options())
		})

	Add(r, "dbt", "dbt_build",
		"Run models, tests, snapshots, and seeds in DAG order",
		func(ctx context.Context, in DBTInput) (any, error) {
			return runner.Build(ctx, in.options())
		})

	Add(r, "dbt", "dbt_seed",
		"Load CSV seed files",
		func(ctx context.Context, in DBTInput) (any, error) {
			return runner.Seed(ctx, in.options())
		})

	Add(r, "dbt", "dbt_snapshot",
		"Execute snapshot definitions",
		func(ctx context.Context, in DBTInput) (any, error) {
			return runner.Snapshot(ctx, in.options())
		})

	Add(r, "dbt", "dbt_ls",
		"List project resources",
		func(ctx context.Context, in DBTInput) (any, error) {
			return runner.List(ctx, in.options())
		})

	Add(r, "dbt", "dbt_show",
		"Preview compiled model output rows",
		func(ctx context.Context, in DBTShowInput) (any, error) {
			return runner.Show(ctx, in.Limit, in.options())
		})

	Add(r, "dbt", "dbt_debug",
		"Check project configuration and connectivity",
		func(ctx context.Context, in EmptyInput) (any, error) {
			return runner.Debug(ctx)
		})

	Add(r, "dbt", "dbt_deps",
		"Install package dependencies",
		func(ctx context.Context, in EmptyInput) (any, error) {
			return runner.Deps(ctx)
		})

	Add(r, "dbt", "dbt_parse",
		"Validate project syntax",
		func(ctx context.Context, in EmptyInput) (any, error) {
			return runner.Parse(ctx)
		})

	Add(r, "dbt", "dbt_docs_generate",
		"Build the documentation site artifacts",
		func(ctx context.Context, in DBTInput) (any, error) {
			return runner.DocsGenerate(ctx, in.options())
		})

	Add(r, "dbt", "dbt_run_operation",
		"Run a macro as an operation",
		func(ctx context.Context, in DBTRunOperationInput) (any, error) {
			return runner.RunOperation(ctx, in.Macro, in.options())
		})

	Add(r, "dbt", "dbt_source_freshness",
		"Check when sources were last loaded",
		func(ctx context.Context, in DBTInput) (any, error) {
			return runner.SourceFreshness(ctx, in.options())
		})
}

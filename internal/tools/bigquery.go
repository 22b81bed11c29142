package tools

import (
	"context"

	"github.com/mkarlsen/datapilot/internal/bq"
)

// JobIDInput identifies one BigQuery job.
type JobIDInput struct {
	JobID string `json:"job_id" jsonschema:"required,BigQuery job ID"`
}

// AnalyzeErrorInput defines the input schema for analyze_bigquery_error.
type AnalyzeErrorInput struct {
	JobID              string `json:"job_id" jsonschema:"required,BigQuery job ID of the failed job"`
	IncludeSuggestions *bool  `json:"include_suggestions,omitempty" jsonschema:"Include fix suggestions and next steps (default true)"`
}

// FindFailedJobsInput defines the input schema for find_failed_bigquery_jobs.
type FindFailedJobsInput struct {
	TableName string `json:"table_name,omitempty" jsonschema:"Filter by table name substring"`
	ErrorType string `json:"error_type,omitempty" jsonschema:"Filter by error type: memory timeout permission not_found"`
	Days      int    `json:"days,omitempty" jsonschema:"Look-back window in days (default 7)"`
	Limit     int    `json:"limit,omitempty" jsonschema:"Maximum jobs to return (default 20)"`
}

// QueryInput carries a SQL query text.
type QueryInput struct {
	Query string `json:"query" jsonschema:"required,SQL query text"`
}

// OptimizeQueryInput defines the input schema for suggest_query_optimization.
type OptimizeQueryInput struct {
	Query        string `json:"query" jsonschema:"required,SQL query text"`
	ErrorContext string `json:"error_context,omitempty" jsonschema:"Error message from a failed run of this query"`
}

// FreshnessInput defines the input schema for check_data_freshness.
type FreshnessInput struct {
	Dataset        string `json:"dataset" jsonschema:"required,BigQuery dataset"`
	Table          string `json:"table" jsonschema:"required,Table name"`
	ThresholdHours int    `json:"threshold_hours,omitempty" jsonschema:"Staleness threshold in hours (default 24)"`
}

// ValidateTableInput defines the input schema for validate_table_data.
type ValidateTableInput struct {
	Dataset string              `json:"dataset" jsonschema:"required,BigQuery dataset"`
	Table   string              `json:"table" jsonschema:"required,Table name"`
	Rules   []bq.ValidationRule `json:"rules" jsonschema:"required,Validation rules (not_null unique value)"`
}

// SampleTableInput defines the input schema for sample_table_data.
type SampleTableInput struct {
	Dataset    string `json:"dataset" jsonschema:"required,BigQuery dataset"`
	Table      string `json:"table" jsonschema:"required,Table name"`
	SampleSize int    `json:"sample_size,omitempty" jsonschema:"Rows to sample (default 10)"`
}

func registerBigQuery(r *Registry) {
	svc := r.deps.BQ

	Add(r, "bigquery", "get_bigquery_job_details",
		"Get status, timing, and scan statistics for a BigQuery job",
		func(ctx context.Context, in JobIDInput) (any, error) {
			return svc.GetJobDetails(ctx, in.JobID)
		})

	Add(r, "bigquery", "analyze_query_performance",
		"Analyze a finished job's cost, slot efficiency, and optimization opportunities",
		func(ctx context.Context, in JobIDInput) (any, error) {
			return svc.AnalyzeQueryPerformance(ctx, in.JobID)
		})

	Add(r, "bigquery", "get_query_execution_plan",
		"Get a job's execution plan stages with bottleneck flags",
		func(ctx context.Context, in JobIDInput) (any, error) {
			return svc.GetExecutionPlan(ctx, in.JobID)
		})

	Add(r, "bigquery", "analyze_bigquery_error",
		"Classify a failed job's error and suggest fixes",
		func(ctx context.Context, in AnalyzeErrorInput) (any, error) {
			include := in.IncludeSuggestions == nil || *in.IncludeSuggestions
			return svc.AnalyzeJobError(ctx, in.JobID, include)
		})

	Add(r, "bigquery", "find_failed_bigquery_jobs",
		"Find recent failed jobs, optionally filtered by table, error type, or time window",
		func(ctx context.Context, in FindFailedJobsInput) (any, error) {
			return svc.FindFailedJobs(ctx, bq.FailedJobsFilter{
				TableName: in.TableName,
				ErrorType: in.ErrorType,
				Days:      in.Days,
				Limit:     in.Limit,
			})
		})

	Add(r, "bigquery", "estimate_query_cost",
		"Dry-run a query and estimate its on-demand cost",
		func(ctx context.Context, in QueryInput) (any, error) {
			return svc.EstimateQueryCost(ctx, in.Query)
		})

	Add(r, "bigquery", "suggest_query_optimization",
		"Suggest query rewrites based on the SQL text and dry-run scan size",
		func(ctx context.Context, in OptimizeQueryInput) (any, error) {
			return svc.SuggestOptimization(ctx, in.Query, in.ErrorContext)
		})

	Add(r, "bigquery", "check_data_freshness",
		"Check when a table was last modified against a staleness threshold",
		func(ctx context.Context, in FreshnessInput) (any, error) {
			return svc.CheckDataFreshness(ctx, in.Dataset, in.Table, in.ThresholdHours)
		})

	Add(r, "bigquery", "validate_table_data",
		"Run not_null/unique/value validation rules against a table",
		func(ctx context.Context, in ValidateTableInput) (any, error) {
			return svc.ValidateTableData(ctx, in.Dataset, in.Table, in.Rules)
		})

	Add(r, "bigquery", "sample_table_data",
		"Sample random rows from a table",
		func(ctx context.Context, in SampleTableInput) (any, error) {
			return svc.SampleTableData(ctx, in.Dataset, in.Table, in.SampleSize)
		})
}

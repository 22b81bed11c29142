package tools

import (
	"context"
)

// WorkspacePathInput identifies one workspace file.
type WorkspacePathInput struct {
	Path string `json:"path" jsonschema:"required,File path inside the Dataform workspace"`
}

// WriteWorkspaceFileInput defines the input schema for write_file_to_dataform.
type WriteWorkspaceFileInput struct {
	Path    string `json:"path" jsonschema:"required,File path inside the Dataform workspace"`
	Content string `json:"content" jsonschema:"required,Full file content"`
}

// SearchFilesInput defines the input schema for search_files_in_dataform.
type SearchFilesInput struct {
	Pattern string `json:"pattern,omitempty" jsonschema:"Substring to match against file paths"`
}

// CompileInput defines the input schema for compile_dataform.
type CompileInput struct {
	Execute bool `json:"execute,omitempty" jsonschema:"Also start a workflow invocation of the compilation result"`
}

// ExecuteWorkflowInput defines the input schema for execute_dataform_workflow.
type ExecuteWorkflowInput struct {
	WorkflowName string `json:"workflow_name" jsonschema:"required,Workflow config name to invoke"`
}

// ExecuteByTagsInput defines the input schema for execute_dataform_by_tags.
type ExecuteByTagsInput struct {
	Tags        []string `json:"tags" jsonschema:"required,Tags an action must all carry to be included"`
	CompileOnly bool     `json:"compile_only,omitempty" jsonschema:"List matching actions without invoking them"`
}

// InvocationIDInput identifies one workflow invocation.
type InvocationIDInput struct {
	InvocationID string `json:"invocation_id" jsonschema:"required,Workflow invocation ID"`
}

// MonitorHealthInput defines the input schema for monitor_workflow_health.
type MonitorHealthInput struct {
	WorkflowName string `json:"workflow_name,omitempty" jsonschema:"Restrict to one workflow config"`
	Days         int    `json:"days,omitempty" jsonschema:"Look-back window in days (default 7)"`
}

// FailedWorkflowsInput defines the input schema for get_failed_workflows.
type FailedWorkflowsInput struct {
	Days int `json:"days,omitempty" jsonschema:"Look-back window in days (default 7)"`
}

// PipelineHealthInput defines the input schema for check_pipeline_health.
type PipelineHealthInput struct {
	Tags []string `json:"tags,omitempty" jsonschema:"Count only actions carrying all of these tags"`
}

// QualityAnomaliesInput defines the input schema for check_data_quality_anomalies.
type QualityAnomaliesInput struct {
	TableName string `json:"table_name,omitempty" jsonschema:"Restrict to failures mentioning this table"`
	Days      int    `json:"days,omitempty" jsonschema:"Look-back window in days (default 30)"`
}

// EmptyInput is the schema for tools taking no arguments.
type EmptyInput struct{}

func registerDataform(r *Registry) {
	svc := r.deps.Dataform

	Add(r, "dataform", "write_file_to_dataform",
		"Write a file into the Dataform workspace",
		func(ctx context.Context, in WriteWorkspaceFileInput) (any, error) {
			return svc.WriteFile(ctx, in.Path, in.Content)
		})

	Add(r, "dataform", "read_file_from_dataform",
		"Read a file from the Dataform workspace",
		func(ctx context.Context, in WorkspacePathInput) (any, error) {
			return svc.ReadFile(ctx, in.Path)
		})

	Add(r, "dataform", "delete_file_from_dataform",
		"Delete a file from the Dataform workspace",
		func(ctx context.Context, in WorkspacePathInput) (any, error) {
			return svc.DeleteFile(ctx, in.Path)
		})

	Add(r, "dataform", "search_files_in_dataform",
		"List workspace files whose path contains a pattern",
		func(ctx context.Context, in SearchFilesInput) (any, error) {
			return svc.SearchFiles(ctx, in.Pattern)
		})

	Add(r, "dataform", "compile_dataform",
		"Compile the workspace and report actions and compilation errors",
		func(ctx context.Context, in CompileInput) (any, error) {
			return svc.Compile(ctx, !in.Execute)
		})

	Add(r, "dataform", "execute_dataform_workflow",
		"Invoke a workflow config by name",
		func(ctx context.Context, in ExecuteWorkflowInput) (any, error) {
			return svc.ExecuteWorkflow(ctx, in.WorkflowName)
		})

	Add(r, "dataform", "execute_dataform_by_tags",
		"Invoke the compiled actions carrying all given tags",
		func(ctx context.Context, in ExecuteByTagsInput) (any, error) {
			return svc.ExecuteByTags(ctx, in.Tags, in.CompileOnly)
		})

	Add(r, "dataform", "get_dataform_execution_logs",
		"Get per-action results for a workflow invocation",
		func(ctx context.Context, in InvocationIDInput) (any, error) {
			return svc.GetExecutionLogs(ctx, in.InvocationID)
		})

	Add(r, "dataform", "get_workflow_status",
		"Get the state and timing of a workflow invocation",
		func(ctx context.Context, in InvocationIDInput) (any, error) {
			return svc.GetWorkflowStatus(ctx, in.InvocationID)
		})

	Add(r, "dataform", "get_dataform_repo_link",
		"Get the console URL of the Dataform repository",
		func(ctx context.Context, in EmptyInput) (any, error) {
			return svc.GetRepoLink(), nil
		})

	Add(r, "dataform", "read_workflow_settings",
		"Read and parse workflow_settings.yaml from the workspace",
		func(ctx context.Context, in EmptyInput) (any, error) {
			return svc.ReadWorkflowSettings(ctx)
		})

	Add(r, "dataform", "monitor_workflow_health",
		"Aggregate success rate, duration, and failure patterns over recent invocations",
		func(ctx context.Context, in MonitorHealthInput) (any, error) {
			return svc.MonitorHealth(ctx, in.WorkflowName, in.Days)
		})

	Add(r, "dataform", "get_failed_workflows",
		"List recent failed invocations with their failed actions",
		func(ctx context.Context, in FailedWorkflowsInput) (any, error) {
			return svc.GetFailedWorkflows(ctx, in.Days)
		})

	Add(r, "dataform", "check_pipeline_health",
		"Compile, count tagged actions, and score recent pipeline health",
		func(ctx context.Context, in PipelineHealthInput) (any, error) {
			return svc.CheckPipelineHealth(ctx, in.Tags)
		})

	Add(r, "dataform", "generate_pipeline_documentation",
		"Generate markdown documentation from SQLX configs with a dependency graph and tag index",
		func(ctx context.Context, in EmptyInput) (any, error) {
			return svc.GenerateDocumentation(ctx)
		})

	Add(r, "dataform", "analyze_assertion_results",
		"Analyze assertion outcomes of one invocation for failure patterns",
		func(ctx context.Context, in InvocationIDInput) (any, error) {
			return svc.AnalyzeAssertionResults(ctx, in.InvocationID)
		})

	Add(r, "dataform", "check_data_quality_anomalies",
		"Detect assertion-failure anomalies and trends over a time window",
		func(ctx context.Context, in QualityAnomaliesInput) (any, error) {
			return svc.CheckDataQualityAnomalies(ctx, in.TableName, in.Days)
		})
}

package tools

import (
	"context"

	"github.com/mkarlsen/datapilot/internal/databricks"
)

// ListDatabricksClustersInput defines the input schema for list_databricks_clusters.
type ListDatabricksClustersInput struct {
	IncludeTerminated bool `json:"include_terminated,omitempty" jsonschema:"Include terminated clusters"`
}

// ClusterIDInput identifies one Databricks cluster.
type ClusterIDInput struct {
	ClusterID string `json:"cluster_id" jsonschema:"required,Databricks cluster ID"`
}

// DatabricksPySparkInput defines the input schema for submit_databricks_pyspark_job.
type DatabricksPySparkInput struct {
	JobName      string   `json:"job_name" jsonschema:"required,Name for the job"`
	PythonFile   string   `json:"python_file" jsonschema:"required,Workspace or DBFS path of the Python file"`
	ClusterID    string   `json:"cluster_id" jsonschema:"required,Existing cluster to run on"`
	Parameters   []string `json:"parameters,omitempty" jsonschema:"Arguments passed to the script"`
	PypiPackages []string `json:"pypi_packages,omitempty" jsonschema:"PyPI packages to attach (e.g. pandas==2.0.0)"`
}

// DatabricksNotebookInput defines the input schema for submit_databricks_notebook_job.
type DatabricksNotebookInput struct {
	JobName        string            `json:"job_name" jsonschema:"required,Name for the job"`
	NotebookPath   string            `json:"notebook_path" jsonschema:"required,Workspace path of the notebook"`
	ClusterID      string            `json:"cluster_id" jsonschema:"required,Existing cluster to run on"`
	BaseParameters map[string]string `json:"base_parameters,omitempty" jsonschema:"Parameters passed to the notebook"`
}

// RunIDInput identifies one Databricks job run.
type RunIDInput struct {
	RunID int64 `json:"run_id" jsonschema:"required,Job run ID"`
}

// ListDatabricksJobsInput defines the input schema for list_databricks_jobs.
type ListDatabricksJobsInput struct {
	Limit int `json:"limit,omitempty" jsonschema:"Maximum jobs to return (default 20)"`
}

// ListDatabricksRunsInput defines the input schema for get_databricks_job_runs.
type ListDatabricksRunsInput struct {
	JobID int64 `json:"job_id,omitempty" jsonschema:"Restrict to one job"`
	Limit int   `json:"limit,omitempty" jsonschema:"Maximum runs to return (default 20)"`
}

func registerDatabricks(r *Registry) {
	svc := r.deps.Databricks

	Add(r, "databricks", "create_databricks_cluster",
		"Create a Databricks cluster",
		func(ctx context.Context, in databricks.ClusterOptions) (any, error) {
			return svc.CreateCluster(ctx, in)
		})

	Add(r, "databricks", "list_databricks_clusters",
		"List workspace clusters",
		func(ctx context.Context, in ListDatabricksClustersInput) (any, error) {
			return svc.ListClusters(ctx, in.IncludeTerminated)
		})

	Add(r, "databricks", "get_databricks_cluster_status",
		"Get a cluster's configuration and state",
		func(ctx context.Context, in ClusterIDInput) (any, error) {
			return svc.GetClusterStatus(ctx, in.ClusterID)
		})

	Add(r, "databricks", "delete_databricks_cluster",
		"Terminate a Databricks cluster",
		func(ctx context.Context, in ClusterIDInput) (any, error) {
			return svc.DeleteCluster(ctx, in.ClusterID)
		})

	Add(r, "databricks", "submit_databricks_pyspark_job",
		"Create and start a PySpark job on an existing cluster",
		func(ctx context.Context, in DatabricksPySparkInput) (any, error) {
			return svc.SubmitPySparkJob(ctx, in.JobName, in.PythonFile, in.ClusterID, in.Parameters, in.PypiPackages)
		})

	Add(r, "databricks", "submit_databricks_notebook_job",
		"Create and start a notebook job on an existing cluster",
		func(ctx context.Context, in DatabricksNotebookInput) (any, error) {
			return svc.SubmitNotebookJob(ctx, in.JobName, in.NotebookPath, in.ClusterID, in.BaseParameters)
		})

	Add(r, "databricks", "check_databricks_job_status",
		"Check the lifecycle state and timing of a job run",
		func(ctx context.Context, in RunIDInput) (any, error) {
			return svc.GetRunStatus(ctx, in.RunID)
		})

	Add(r, "databricks", "list_databricks_jobs",
		"List registered jobs",
		func(ctx context.Context, in ListDatabricksJobsInput) (any, error) {
			return svc.ListJobs(ctx, in.Limit)
		})

	Add(r, "databricks", "get_databricks_job_runs",
		"List recent job runs, optionally scoped to one job",
		func(ctx context.Context, in ListDatabricksRunsInput) (any, error) {
			return svc.ListRuns(ctx, in.JobID, in.Limit)
		})
}

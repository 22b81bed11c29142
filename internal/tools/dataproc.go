package tools

import (
	"context"

	"github.com/mkarlsen/datapilot/internal/dataproc"
)

// RegionInput selects a Dataproc region.
type RegionInput struct {
	Region string `json:"region,omitempty" jsonschema:"GCP region (configured default if omitted)"`
}

// ClusterNameInput identifies one Dataproc cluster.
type ClusterNameInput struct {
	ClusterName string `json:"cluster_name" jsonschema:"required,Cluster name"`
	Region      string `json:"region,omitempty" jsonschema:"GCP region (configured default if omitted)"`
}

// DataprocJobInput identifies one Dataproc job.
type DataprocJobInput struct {
	JobID  string `json:"job_id" jsonschema:"required,Dataproc job ID"`
	Region string `json:"region,omitempty" jsonschema:"GCP region (configured default if omitted)"`
}

// ListDataprocJobsInput defines the input schema for list_dataproc_jobs.
type ListDataprocJobsInput struct {
	Region      string `json:"region,omitempty" jsonschema:"GCP region (configured default if omitted)"`
	JobType     string `json:"job_type,omitempty" jsonschema:"Filter by job type: PySpark Spark Hadoop or Spark SQL"`
	ClusterName string `json:"cluster_name,omitempty" jsonschema:"Filter by cluster name"`
}

// BatchIDInput identifies one serverless batch.
type BatchIDInput struct {
	BatchID string `json:"batch_id" jsonschema:"required,Serverless batch ID"`
	Region  string `json:"region,omitempty" jsonschema:"GCP region (configured default if omitted)"`
}

func registerDataproc(r *Registry) {
	svc := r.deps.Dataproc

	Add(r, "dataproc", "create_dataproc_cluster",
		"Create a Dataproc cluster for running Spark jobs",
		func(ctx context.Context, in dataproc.ClusterOptions) (any, error) {
			return svc.CreateCluster(ctx, in)
		})

	Add(r, "dataproc", "list_dataproc_clusters",
		"List Dataproc clusters in a region",
		func(ctx context.Context, in RegionInput) (any, error) {
			return svc.ListClusters(ctx, in.Region)
		})

	Add(r, "dataproc", "get_dataproc_cluster_details",
		"Get a cluster's configuration and state",
		func(ctx context.Context, in ClusterNameInput) (any, error) {
			return svc.GetClusterDetails(ctx, in.ClusterName, in.Region)
		})

	Add(r, "dataproc", "delete_dataproc_cluster",
		"Delete a Dataproc cluster",
		func(ctx context.Context, in ClusterNameInput) (any, error) {
			return svc.DeleteCluster(ctx, in.ClusterName, in.Region)
		})

	Add(r, "dataproc", "submit_pyspark_job",
		"Submit a PySpark job to a cluster (main file must be in GCS)",
		func(ctx context.Context, in dataproc.PySparkJobOptions) (any, error) {
			return svc.SubmitPySparkJob(ctx, in)
		})

	Add(r, "dataproc", "check_dataproc_job_status",
		"Check the state of a Dataproc job",
		func(ctx context.Context, in DataprocJobInput) (any, error) {
			return svc.GetJobStatus(ctx, in.JobID, in.Region)
		})

	Add(r, "dataproc", "list_dataproc_jobs",
		"List Dataproc jobs, optionally filtered by type or cluster",
		func(ctx context.Context, in ListDataprocJobsInput) (any, error) {
			return svc.ListJobs(ctx, in.Region, in.JobType, in.ClusterName)
		})

	Add(r, "dataproc", "create_dataproc_serverless_batch",
		"Run a PySpark workload as a serverless batch, no cluster needed",
		func(ctx context.Context, in dataproc.BatchOptions) (any, error) {
			return svc.CreateServerlessBatch(ctx, in)
		})

	Add(r, "dataproc", "check_dataproc_serverless_batch_status",
		"Check the state of a serverless batch",
		func(ctx context.Context, in BatchIDInput) (any, error) {
			return svc.GetServerlessBatchStatus(ctx, in.BatchID, in.Region)
		})
}

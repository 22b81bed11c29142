package dataproc

import (
	"context"
	"fmt"

	"cloud.google.com/go/dataproc/v2/apiv1/dataprocpb"
	"google.golang.org/api/iterator"

	"github.com/mkarlsen/datapilot/internal/models"
)

// PySparkJobOptions configures SubmitPySparkJob.
type PySparkJobOptions struct {
	ClusterName       string   `json:"cluster_name"`
	MainPythonFileURI string   `json:"main_python_file_uri"`
	Args              []string `json:"args,omitempty"`
	Region            string   `json:"region,omitempty"`
	PyFiles           []string `json:"py_files,omitempty"`
	Jars              []string `json:"jars,omitempty"`
}

// JobSubmission reports a submitted job.
type JobSubmission struct {
	models.Result
	Message     string `json:"message"`
	JobID       string `json:"job_id"`
	ClusterName string `json:"cluster_name"`
	MainFile    string `json:"main_file"`
}

// SubmitPySparkJob submits a PySpark job to a running cluster. The main file
// and any extra files are GCS URIs.
func (s *Service) SubmitPySparkJob(ctx context.Context, opts PySparkJobOptions) (*JobSubmission, error) {
	region := s.regionOrDefault(opts.Region)
	client, err := s.jobClient(ctx, region)
	if err != nil {
		return nil, err
	}

	job := &dataprocpb.Job{
		Placement: &dataprocpb.JobPlacement{ClusterName: opts.ClusterName},
		TypeJob: &dataprocpb.Job_PysparkJob{
			PysparkJob: &dataprocpb.PySparkJob{
				MainPythonFileUri: opts.MainPythonFileURI,
				Args:              opts.Args,
				PythonFileUris:    opts.PyFiles,
				JarFileUris:       opts.Jars,
			},
		},
		Labels: map[string]string{"submitted_by": "datapilot"},
	}

	submitted, err := client.SubmitJob(ctx, &dataprocpb.SubmitJobRequest{
		ProjectId: s.project,
		Region:    region,
		Job:       job,
	})
	if err != nil {
		return nil, fmt.Errorf("submitting pyspark job to cluster %s: %w", opts.ClusterName, err)
	}

	jobID := submitted.GetReference().GetJobId()
	s.logger.Info("pyspark job submitted", "job_id", jobID, "cluster", opts.ClusterName)
	return &JobSubmission{
		Result:      models.OK(),
		Message:     "PySpark job submitted successfully",
		JobID:       jobID,
		ClusterName: opts.ClusterName,
		MainFile:    opts.MainPythonFileURI,
	}, nil
}

// jobType names the workload variant a job carries.
func jobType(job *dataprocpb.Job) string {
	switch {
	case job.GetPysparkJob() != nil:
		return "PySpark"
	case job.GetSparkJob() != nil:
		return "Spark"
	case job.GetHadoopJob() != nil:
		return "Hadoop"
	case job.GetSparkSqlJob() != nil:
		return "Spark SQL"
	default:
		return "Unknown"
	}
}

func jobState(job *dataprocpb.Job) string {
	if job.GetStatus() == nil {
		return "UNKNOWN"
	}
	return job.GetStatus().GetState().String()
}

// JobStatus reports one job's current state.
type JobStatus struct {
	models.Result
	JobID        string `json:"job_id"`
	JobType      string `json:"job_type"`
	State        string `json:"state"`
	StateMessage string `json:"state_message,omitempty"`
	ClusterName  string `json:"cluster_name,omitempty"`
}

// GetJobStatus fetches one job's state.
func (s *Service) GetJobStatus(ctx context.Context, jobID, region string) (*JobStatus, error) {
	region = s.regionOrDefault(region)
	client, err := s.jobClient(ctx, region)
	if err != nil {
		return nil, err
	}

	job, err := client.GetJob(ctx, &dataprocpb.GetJobRequest{
		ProjectId: s.project,
		Region:    region,
		JobId:     jobID,
	})
	if err != nil {
		return nil, fmt.Errorf("getting job %s in region %s: %w", jobID, region, err)
	}

	return &JobStatus{
		Result:       models.OK(),
		JobID:        jobID,
		JobType:      jobType(job),
		State:        jobState(job),
		StateMessage: job.GetStatus().GetDetails(),
		ClusterName:  job.GetPlacement().GetClusterName(),
	}, nil
}

// JobInfo is one job in a listing.
type JobInfo struct {
	JobID       string `json:"job_id"`
	JobType     string `json:"job_type"`
	State       string `json:"state"`
	ClusterName string `json:"cluster_name,omitempty"`
}

// JobList lists jobs, after filtering.
type JobList struct {
	models.Result
	Jobs  []JobInfo `json:"jobs"`
	Count int       `json:"count"`
}

// ListJobs lists jobs in the region, optionally filtered by job type
// (PySpark, Spark, Hadoop, Spark SQL) or cluster name.
func (s *Service) ListJobs(ctx context.Context, region, typeFilter, clusterName string) (*JobList, error) {
	region = s.regionOrDefault(region)
	client, err := s.jobClient(ctx, region)
	if err != nil {
		return nil, err
	}

	list := JobList{Result: models.OK(), Jobs: []JobInfo{}}
	it := client.ListJobs(ctx, &dataprocpb.ListJobsRequest{
		ProjectId: s.project,
		Region:    region,
	})
	for {
		job, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("listing jobs in region %s: %w", region, err)
		}

		kind := jobType(job)
		if typeFilter != "" && kind != typeFilter {
			continue
		}
		if clusterName != "" && job.GetPlacement().GetClusterName() != clusterName {
			continue
		}
		list.Jobs = append(list.Jobs, JobInfo{
			JobID:       job.GetReference().GetJobId(),
			JobType:     kind,
			State:       jobState(job),
			ClusterName: job.GetPlacement().GetClusterName(),
		})
	}
	list.Count = len(list.Jobs)
	return &list, nil
}

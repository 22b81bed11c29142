package databricks

import (
	"context"
	"fmt"

	"github.com/databricks/databricks-sdk-go/service/compute"
	"github.com/databricks/databricks-sdk-go/service/jobs"

	"github.com/mkarlsen/datapilot/internal/models"
)

// pypiLibraries turns package specs ("pandas==2.0.0") into job library
// attachments.
func pypiLibraries(packages []string) []compute.Library {
	if len(packages) == 0 {
		return nil
	}
	libs := make([]compute.Library, 0, len(packages))
	for _, pkg := range packages {
		libs = append(libs, compute.Library{
			Pypi: &compute.PythonPyPiLibrary{Package: pkg},
		})
	}
	return libs
}

// buildPySparkTask is the single-task job definition for a workspace or DBFS
// Python file on an existing cluster.
func buildPySparkTask(pythonFile, clusterID string, parameters, pypiPackages []string) jobs.Task {
	return jobs.Task{
		TaskKey: "main_task",
		SparkPythonTask: &jobs.SparkPythonTask{
			PythonFile: pythonFile,
			Parameters: parameters,
		},
		ExistingClusterId: clusterID,
		Libraries:         pypiLibraries(pypiPackages),
	}
}

// buildNotebookTask is the single-task job definition for a workspace
// notebook on an existing cluster.
func buildNotebookTask(notebookPath, clusterID string, baseParameters map[string]string) jobs.Task {
	return jobs.Task{
		TaskKey: "notebook_task",
		NotebookTask: &jobs.NotebookTask{
			NotebookPath:   notebookPath,
			BaseParameters: baseParameters,
		},
		ExistingClusterId: clusterID,
	}
}

// JobSubmission reports a created-and-started job.
type JobSubmission struct {
	models.Result
	Message      string `json:"message"`
	JobID        int64  `json:"job_id"`
	RunID        int64  `json:"run_id"`
	ClusterID    string `json:"cluster_id"`
	PythonFile   string `json:"python_file,omitempty"`
	NotebookPath string `json:"notebook_path,omitempty"`
}

// createAndRun registers a single-task job and starts it immediately.
func (s *Service) createAndRun(ctx context.Context, jobName string, task jobs.Task) (jobID, runID int64, err error) {
	job, err := s.client.Jobs.Create(ctx, jobs.CreateJob{
		Name:  jobName,
		Tasks: []jobs.Task{task},
	})
	if err != nil {
		return 0, 0, fmt.Errorf("creating job %s: %w", jobName, err)
	}

	run, err := s.client.Jobs.RunNow(ctx, jobs.RunNow{JobId: job.JobId})
	if err != nil {
		return 0, 0, fmt.Errorf("starting job %s: %w", jobName, err)
	}
	return job.JobId, run.Response.RunId, nil
}

// SubmitPySparkJob creates and starts a PySpark job on an existing cluster.
// pythonFile is a workspace or DBFS path.
func (s *Service) SubmitPySparkJob(ctx context.Context, jobName, pythonFile, clusterID string, parameters, pypiPackages []string) (*JobSubmission, error) {
	if clusterID == "" {
		return nil, fmt.Errorf("cluster_id must be provided")
	}

	jobID, runID, err := s.createAndRun(ctx, jobName, buildPySparkTask(pythonFile, clusterID, parameters, pypiPackages))
	if err != nil {
		return nil, err
	}

	s.logger.Info("pyspark job submitted", "job", jobName, "job_id", jobID, "run_id", runID)
	return &JobSubmission{
		Result:     models.OK(),
		Message:    fmt.Sprintf("PySpark job %s submitted successfully", jobName),
		JobID:      jobID,
		RunID:      runID,
		ClusterID:  clusterID,
		PythonFile: pythonFile,
	}, nil
}

// SubmitNotebookJob creates and starts a notebook job on an existing cluster.
func (s *Service) SubmitNotebookJob(ctx context.Context, jobName, notebookPath, clusterID string, baseParameters map[string]string) (*JobSubmission, error) {
	if clusterID == "" {
		return nil, fmt.Errorf("cluster_id must be provided")
	}

	jobID, runID, err := s.createAndRun(ctx, jobName, buildNotebookTask(notebookPath, clusterID, baseParameters))
	if err != nil {
		return nil, err
	}

	s.logger.Info("notebook job submitted", "job", jobName, "job_id", jobID, "run_id", runID)
	return &JobSubmission{
		Result:       models.OK(),
		Message:      fmt.Sprintf("Notebook job %s submitted successfully", jobName),
		JobID:        jobID,
		RunID:        runID,
		ClusterID:    clusterID,
		NotebookPath: notebookPath,
	}, nil
}

// RunStatus reports one run's lifecycle and timing.
type RunStatus struct {
	models.Result
	RunID             int64  `json:"run_id"`
	JobID             int64  `json:"job_id"`
	State             string `json:"state"`
	ResultState       string `json:"result_state,omitempty"`
	StateMessage      string `json:"state_message,omitempty"`
	StartTime         string `json:"start_time,omitempty"`
	EndTime           string `json:"end_time,omitempty"`
	SetupDuration     int64  `json:"setup_duration,omitempty"`
	ExecutionDuration int64  `json:"execution_duration,omitempty"`
	CleanupDuration   int64  `json:"cleanup_duration,omitempty"`
}

// GetRunStatus fetches one run's state and durations.
func (s *Service) GetRunStatus(ctx context.Context, runID int64) (*RunStatus, error) {
	run, err := s.client.Jobs.GetRun(ctx, jobs.GetRunRequest{RunId: runID})
	if err != nil {
		return nil, fmt.Errorf("getting run %d: %w", runID, err)
	}

	status := RunStatus{
		Result:            models.OK(),
		RunID:             runID,
		JobID:             run.JobId,
		State:             "UNKNOWN",
		StartTime:         formatMillis(run.StartTime),
		EndTime:           formatMillis(run.EndTime),
		SetupDuration:     run.SetupDuration,
		ExecutionDuration: run.ExecutionDuration,
		CleanupDuration:   run.CleanupDuration,
	}
	if run.State != nil {
		status.State = string(run.State.LifeCycleState)
		status.ResultState = string(run.State.ResultState)
		status.StateMessage = run.State.StateMessage
	}
	return &status, nil
}

// JobInfo is one registered job.
type JobInfo struct {
	JobID       int64  `json:"job_id"`
	JobName     string `json:"job_name"`
	CreatedTime string `json:"created_time,omitempty"`
}

// JobList lists registered jobs.
type JobList struct {
	models.Result
	Jobs  []JobInfo `json:"jobs"`
	Count int       `json:"count"`
}

// ListJobs lists up to limit registered jobs.
func (s *Service) ListJobs(ctx context.Context, limit int) (*JobList, error) {
	if limit <= 0 {
		limit = 20
	}

	list := JobList{Result: models.OK(), Jobs: []JobInfo{}}
	it := s.client.Jobs.List(ctx, jobs.ListJobsRequest{})
	for it.HasNext(ctx) && len(list.Jobs) < limit {
		job, err := it.Next(ctx)
		if err != nil {
			return nil, fmt.Errorf("listing jobs: %w", err)
		}
		name := "Unknown"
		if job.Settings != nil {
			name = job.Settings.Name
		}
		list.Jobs = append(list.Jobs, JobInfo{
			JobID:       job.JobId,
			JobName:     name,
			CreatedTime: formatMillis(job.CreatedTime),
		})
	}
	list.Count = len(list.Jobs)
	return &list, nil
}

// RunInfo is one run in a listing.
type RunInfo struct {
	RunID       int64  `json:"run_id"`
	JobID       int64  `json:"job_id"`
	State       string `json:"state"`
	ResultState string `json:"result_state,omitempty"`
	StartTime   string `json:"start_time,omitempty"`
}

// RunList lists recent runs.
type RunList struct {
	models.Result
	Runs  []RunInfo `json:"runs"`
	Count int       `json:"count"`
}

// ListRuns lists up to limit recent runs, optionally scoped to one job.
func (s *Service) ListRuns(ctx context.Context, jobID int64, limit int) (*RunList, error) {
	if limit <= 0 {
		limit = 20
	}

	list := RunList{Result: models.OK(), Runs: []RunInfo{}}
	it := s.client.Jobs.ListRuns(ctx, jobs.ListRunsRequest{JobId: jobID})
	for it.HasNext(ctx) && len(list.Runs) < limit {
		run, err := it.Next(ctx)
		if err != nil {
			return nil, fmt.Errorf("listing runs: %w", err)
		}
		info := RunInfo{
			RunID:     run.RunId,
			JobID:     run.JobId,
			State:     "UNKNOWN",
			StartTime: formatMillis(run.StartTime),
		}
		if run.State != nil {
			info.State = string(run.State.LifeCycleState)
			info.ResultState = string(run.State.ResultState)
		}
		list.Runs = append(list.Runs, info)
	}
	list.Count = len(list.Runs)
	return &list, nil
}

package bq

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"cloud.google.com/go/bigquery"
	"google.golang.org/api/iterator"

	"github.com/mkarlsen/datapilot/internal/diag"
	"github.com/mkarlsen/datapilot/internal/models"
)

// JobDetails is the summary view of one job.
type JobDetails struct {
	models.Result
	JobID   string `json:"job_id"`
	Query   string `json:"query,omitempty"`
	State   string `json:"state"`
	Error   string `json:"error,omitempty"`
	Created string `json:"created,omitempty"`
	Started string `json:"started,omitempty"`
	Ended   string `json:"ended,omitempty"`
}

// GetJobDetails fetches a job's query text, state, error, and timestamps.
func (s *Service) GetJobDetails(ctx context.Context, jobID string) (*JobDetails, error) {
	job, err := s.jobFromID(ctx, jobID)
	if err != nil {
		return nil, err
	}
	status, err := job.Status(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching job status: %w", err)
	}

	details := JobDetails{
		Result: models.OK(),
		JobID:  jobID,
		State:  stateString(status.State),
	}
	if cfg, err := job.Config(); err == nil {
		if qc, ok := cfg.(*bigquery.QueryConfig); ok {
			details.Query = qc.Q
		}
	}
	if err := status.Err(); err != nil {
		details.Error = err.Error()
	}
	if status.Statistics != nil {
		details.Created = formatTime(status.Statistics.CreationTime)
		details.Started = formatTime(status.Statistics.StartTime)
		details.Ended = formatTime(status.Statistics.EndTime)
	}
	return &details, nil
}

// PerformanceReport is the performance view of a finished query job.
type PerformanceReport struct {
	models.Result
	JobID             string               `json:"job_id"`
	State             string               `json:"state"`
	BytesProcessed    int64                `json:"total_bytes_processed"`
	SlotMillis        int64                `json:"total_slot_ms"`
	DurationSeconds   float64              `json:"duration_seconds,omitempty"`
	EstimatedCostUSD  float64              `json:"estimated_cost_usd"`
	BytesProcessedTiB float64              `json:"bytes_processed_tb"`
	PricingModel      string               `json:"pricing_model"`
	SlotEfficiency    *diag.SlotEfficiency `json:"slot_efficiency,omitempty"`
	JobError          string               `json:"job_error,omitempty"`
	Suggestions       []string             `json:"optimization_suggestions,omitempty"`
}

// AnalyzeQueryPerformance derives cost, slot efficiency, and threshold
// suggestions from a query job's statistics.
func (s *Service) AnalyzeQueryPerformance(ctx context.Context, jobID string) (*PerformanceReport, error) {
	job, err := s.jobFromID(ctx, jobID)
	if err != nil {
		return nil, err
	}
	status, err := job.Status(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching job status: %w", err)
	}
	stats, ok := queryStats(status)
	if !ok {
		return nil, fmt.Errorf("job %s is not a query job", jobID)
	}

	metrics := diag.JobMetrics{
		BytesProcessed: stats.TotalBytesProcessed,
		SlotMillis:     stats.SlotMillis,
	}
	if st := status.Statistics; !st.StartTime.IsZero() && !st.EndTime.IsZero() {
		metrics.DurationSeconds = st.EndTime.Sub(st.StartTime).Seconds()
	}
	if err := status.Err(); err != nil {
		metrics.ErrorMessage = err.Error()
	}

	derived := diag.AnalyzePerformance(metrics)
	return &PerformanceReport{
		Result:            models.OK(),
		JobID:             jobID,
		State:             stateString(status.State),
		BytesProcessed:    metrics.BytesProcessed,
		SlotMillis:        metrics.SlotMillis,
		DurationSeconds:   metrics.DurationSeconds,
		EstimatedCostUSD:  derived.CostUSD,
		BytesProcessedTiB: derived.BytesTiB,
		PricingModel:      "on-demand ($5 per TB)",
		SlotEfficiency:    derived.SlotEfficiency,
		JobError:          metrics.ErrorMessage,
		Suggestions:       derived.Suggestions,
	}, nil
}

// PlanStage is one stage of a query execution plan.
type PlanStage struct {
	Name                    string   `json:"name"`
	ID                      int64    `json:"id"`
	Steps                   int      `json:"steps"`
	StepKinds               []string `json:"step_kinds,omitempty"`
	InputStages             []int64  `json:"input_stages,omitempty"`
	ParallelInputs          int64    `json:"parallel_inputs"`
	CompletedParallelInputs int64    `json:"completed_parallel_inputs"`
	ShuffleOutputBytes      int64    `json:"shuffle_output_bytes"`
}

// Bottleneck is one stage-level problem flagged in a plan.
type Bottleneck struct {
	Stage string `json:"stage"`
	Issue string `json:"issue"`
}

// ExecutionPlan is the stage breakdown of a query job plus derived flags.
type ExecutionPlan struct {
	models.Result
	JobID         string       `json:"job_id"`
	TotalStages   int          `json:"total_stages"`
	Stages        []PlanStage  `json:"stages"`
	SlotMillis    int64        `json:"total_slot_ms"`
	Bottlenecks   []Bottleneck `json:"bottlenecks,omitempty"`
	Opportunities []string     `json:"optimization_opportunities,omitempty"`
}

// Plan thresholds.
const (
	highParallelInputs = 10
	largeShuffleBytes  = 10 * gibBytes
	manyStages         = 20
	gibBytes           = int64(1) << 30
)

// GetExecutionPlan fetches the query plan and flags likely bottlenecks.
func (s *Service) GetExecutionPlan(ctx context.Context, jobID string) (*ExecutionPlan, error) {
	job, err := s.jobFromID(ctx, jobID)
	if err != nil {
		return nil, err
	}
	status, err := job.Status(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching job status: %w", err)
	}
	stats, ok := queryStats(status)
	if !ok {
		return nil, fmt.Errorf("job %s is not a query job", jobID)
	}
	if len(stats.QueryPlan) == 0 {
		return nil, fmt.Errorf("query plan not available for job %s", jobID)
	}

	stages := make([]PlanStage, 0, len(stats.QueryPlan))
	for _, st := range stats.QueryPlan {
		stage := PlanStage{
			Name:                    st.Name,
			ID:                      st.ID,
			Steps:                   len(st.Steps),
			InputStages:             st.InputStages,
			ParallelInputs:          st.ParallelInputs,
			CompletedParallelInputs: st.CompletedParallelInputs,
			ShuffleOutputBytes:      st.ShuffleOutputBytes,
		}
		for _, step := range st.Steps {
			stage.StepKinds = append(stage.StepKinds, step.Kind)
		}
		stages = append(stages, stage)
	}

	bottlenecks, opportunities := planInsights(stages)
	return &ExecutionPlan{
		Result:        models.OK(),
		JobID:         jobID,
		TotalStages:   len(stages),
		Stages:        stages,
		SlotMillis:    stats.SlotMillis,
		Bottlenecks:   bottlenecks,
		Opportunities: opportunities,
	}, nil
}

// planInsights flags high parallel-input stages and every stage that raises
// the running shuffle-output maximum, then derives plan-wide opportunities.
func planInsights(stages []PlanStage) ([]Bottleneck, []string) {
	var bottlenecks []Bottleneck
	var maxShuffle int64

	for _, stage := range stages {
		if stage.ParallelInputs > highParallelInputs {
			bottlenecks = append(bottlenecks, Bottleneck{
				Stage: stage.Name,
				Issue: "High parallel inputs - may cause shuffle overhead",
			})
		}
		if stage.ShuffleOutputBytes > maxShuffle {
			maxShuffle = stage.ShuffleOutputBytes
			bottlenecks = append(bottlenecks, Bottleneck{
				Stage: stage.Name,
				Issue: "Large shuffle output detected",
			})
		}
	}

	var opportunities []string
	if maxShuffle > largeShuffleBytes {
		opportunities = append(opportunities,
			"Large shuffle detected - consider optimizing JOINs or aggregations")
	}
	if len(stages) > manyStages {
		opportunities = append(opportunities,
			"Many stages detected - query may benefit from simplification")
	}
	return bottlenecks, opportunities
}

// ErrorAnalysis is the classified view of a failed job.
type ErrorAnalysis struct {
	models.Result
	JobID           string   `json:"job_id"`
	ErrorType       string   `json:"error_type"`
	ErrorReason     string   `json:"error_reason,omitempty"`
	JobErrorMessage string   `json:"job_error_message"`
	ErrorLocation   string   `json:"error_location,omitempty"`
	RootCause       string   `json:"root_cause"`
	BytesProcessed  int64    `json:"total_bytes_processed"`
	SlotMillis      int64    `json:"total_slot_ms"`
	DurationSeconds float64  `json:"duration_seconds,omitempty"`
	State           string   `json:"job_state"`
	QueryPreview    string   `json:"query_preview,omitempty"`
	SuggestedFixes  []string `json:"suggested_fixes,omitempty"`
	NextSteps       []string `json:"next_steps,omitempty"`
}

const queryPreviewChars = 500

// AnalyzeJobError classifies a failed job's error and attaches job metrics
// and a query preview. Jobs without an error are themselves an error result.
func (s *Service) AnalyzeJobError(ctx context.Context, jobID string, includeSuggestions bool) (*ErrorAnalysis, error) {
	job, err := s.jobFromID(ctx, jobID)
	if err != nil {
		return nil, err
	}
	status, err := job.Status(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching job status: %w", err)
	}
	if len(status.Errors) == 0 {
		return nil, fmt.Errorf("job %s did not fail or has no error information", jobID)
	}

	first := status.Errors[0]
	classified := diag.ClassifyError(first.Message, first.Location, includeSuggestions)

	analysis := ErrorAnalysis{
		Result:          models.OK(),
		JobID:           jobID,
		ErrorType:       string(classified.Category),
		ErrorReason:     first.Reason,
		JobErrorMessage: first.Message,
		ErrorLocation:   first.Location,
		RootCause:       classified.RootCause,
		State:           stateString(status.State),
		SuggestedFixes:  classified.SuggestedFixes,
		NextSteps:       classified.NextSteps,
	}
	if stats, ok := queryStats(status); ok {
		analysis.BytesProcessed = stats.TotalBytesProcessed
		analysis.SlotMillis = stats.SlotMillis
	}
	if st := status.Statistics; st != nil && !st.StartTime.IsZero() && !st.EndTime.IsZero() {
		analysis.DurationSeconds = st.EndTime.Sub(st.StartTime).Seconds()
	}
	if cfg, err := job.Config(); err == nil {
		if qc, ok := cfg.(*bigquery.QueryConfig); ok {
			analysis.QueryPreview = truncateRunes(qc.Q, queryPreviewChars)
		}
	}
	return &analysis, nil
}

// truncateRunes shortens a string to at most n runes. Truncating on a rune
// boundary keeps multi-byte characters intact.
func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

// FailedJobsFilter narrows the failed-jobs search.
type FailedJobsFilter struct {
	TableName string
	ErrorType string
	Days      int
	Limit     int
}

// FailedJob is one row of the failed-jobs search.
type FailedJob struct {
	JobID            string `json:"job_id"`
	CreationTime     string `json:"creation_time,omitempty"`
	State            string `json:"state"`
	JobType          string `json:"job_type"`
	ErrorMessage     string `json:"error_message,omitempty"`
	ErrorReason      string `json:"error_reason,omitempty"`
	ErrorLocation    string `json:"error_location,omitempty"`
	DestinationTable string `json:"destination_table,omitempty"`
	DurationMinutes  int64  `json:"duration_minutes"`
	BytesProcessed   int64  `json:"total_bytes_processed"`
	QueryPreview     string `json:"query_preview,omitempty"`
}

// FailedJobsReport lists failed jobs matching a filter.
type FailedJobsReport struct {
	models.Result
	FailedJobs []FailedJob `json:"failed_jobs"`
	Count      int         `json:"count"`
	Filter     struct {
		TableName string `json:"table_name,omitempty"`
		ErrorType string `json:"error_type,omitempty"`
		Days      int    `json:"days"`
	} `json:"filters"`
}

// errorTypePredicates maps a coarse error-type filter to its
// INFORMATION_SCHEMA message predicate.
var errorTypePredicates = map[string]string{
	"memory":     "error_result.message LIKE '%Resources exceeded%' OR error_result.message LIKE '%memory%'",
	"timeout":    "error_result.message LIKE '%timeout%' OR error_result.message LIKE '%deadline%'",
	"permission": "error_result.message LIKE '%Access Denied%' OR error_result.message LIKE '%permission%'",
	"not_found":  "error_result.message LIKE '%Not found%' OR error_result.message LIKE '%does not exist%'",
}

// buildFailedJobsQuery assembles the INFORMATION_SCHEMA.JOBS_BY_PROJECT
// search for failed jobs within the lookback window.
func buildFailedJobsQuery(project, location string, filter FailedJobsFilter, since time.Time) string {
	var b strings.Builder
	fmt.Fprintf(&b, `SELECT
    job_id,
    creation_time,
    state,
    job_type,
    error_result.message AS error_message,
    error_result.reason AS error_reason,
    error_result.location AS error_location,
    total_bytes_processed,
    TIMESTAMP_DIFF(end_time, start_time, MINUTE) AS duration_minutes,
    destination_table.table_id AS destination_table,
    destination_table.dataset_id AS destination_dataset,
    LEFT(query, 500) AS query_preview
FROM `+"`%s.region-%s.INFORMATION_SCHEMA.JOBS_BY_PROJECT`"+`
WHERE state = 'DONE'
  AND error_result IS NOT NULL
  AND creation_time >= TIMESTAMP('%s')`,
		project, location, since.UTC().Format("2006-01-02 15:04:05"))

	if filter.TableName != "" {
		fmt.Fprintf(&b,
			"\n  AND (destination_table.table_id LIKE '%%%s%%' OR query LIKE '%%%s%%')",
			filter.TableName, filter.TableName)
	}
	if predicate, ok := errorTypePredicates[strings.ToLower(filter.ErrorType)]; ok {
		fmt.Fprintf(&b, "\n  AND (%s)", predicate)
	}
	fmt.Fprintf(&b, "\nORDER BY creation_time DESC\nLIMIT %d", filter.Limit)
	return b.String()
}

// FindFailedJobs searches INFORMATION_SCHEMA for recently failed jobs,
// optionally narrowed by table name and coarse error type.
func (s *Service) FindFailedJobs(ctx context.Context, filter FailedJobsFilter) (*FailedJobsReport, error) {
	if filter.Days <= 0 {
		filter.Days = 7
	}
	if filter.Limit <= 0 {
		filter.Limit = 20
	}
	since := s.now().AddDate(0, 0, -filter.Days)
	sql := buildFailedJobsQuery(s.project, s.location, filter, since)

	it, err := s.client.Query(sql).Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("querying failed jobs: %w", err)
	}

	report := FailedJobsReport{Result: models.OK(), FailedJobs: []FailedJob{}}
	report.Filter.TableName = filter.TableName
	report.Filter.ErrorType = filter.ErrorType
	report.Filter.Days = filter.Days

	for {
		var row struct {
			JobID              string              `bigquery:"job_id"`
			CreationTime       time.Time           `bigquery:"creation_time"`
			State              string              `bigquery:"state"`
			JobType            string              `bigquery:"job_type"`
			ErrorMessage       bigquery.NullString `bigquery:"error_message"`
			ErrorReason        bigquery.NullString `bigquery:"error_reason"`
			ErrorLocation      bigquery.NullString `bigquery:"error_location"`
			BytesProcessed     bigquery.NullInt64  `bigquery:"total_bytes_processed"`
			DurationMinutes    bigquery.NullInt64  `bigquery:"duration_minutes"`
			DestinationTable   bigquery.NullString `bigquery:"destination_table"`
			DestinationDataset bigquery.NullString `bigquery:"destination_dataset"`
			QueryPreview       bigquery.NullString `bigquery:"query_preview"`
		}
		err := it.Next(&row)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading failed jobs: %w", err)
		}

		job := FailedJob{
			JobID:           row.JobID,
			CreationTime:    formatTime(row.CreationTime),
			State:           row.State,
			JobType:         row.JobType,
			ErrorMessage:    row.ErrorMessage.StringVal,
			ErrorReason:     row.ErrorReason.StringVal,
			ErrorLocation:   row.ErrorLocation.StringVal,
			BytesProcessed:  row.BytesProcessed.Int64,
			DurationMinutes: row.DurationMinutes.Int64,
			QueryPreview:    row.QueryPreview.StringVal,
		}
		if row.DestinationTable.Valid {
			job.DestinationTable = fmt.Sprintf("%s.%s",
				row.DestinationDataset.StringVal, row.DestinationTable.StringVal)
		}
		report.FailedJobs = append(report.FailedJobs, job)
	}

	report.Count = len(report.FailedJobs)
	return &report, nil
}

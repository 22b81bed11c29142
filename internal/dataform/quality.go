package dataform

import (
	"context"
	"strings"
	"time"

	"github.com/mkarlsen/datapilot/internal/diag"
	"github.com/mkarlsen/datapilot/internal/models"
)

// AssertionReport is the assertion view of one invocation.
type AssertionReport struct {
	models.Result
	InvocationID string                 `json:"workflow_invocation_id"`
	Analysis     diag.AssertionAnalysis `json:"assertion_analysis"`
}

// AnalyzeAssertionResults fetches the invocation's actions and runs the
// assertion analyzer over them.
func (s *Service) AnalyzeAssertionResults(ctx context.Context, invocationID string) (*AssertionReport, error) {
	logs, err := s.GetExecutionLogs(ctx, invocationID)
	if err != nil {
		return nil, err
	}
	return &AssertionReport{
		Result:       models.OK(),
		InvocationID: invocationID,
		Analysis:     diag.AnalyzeAssertions(logs.Actions),
	}, nil
}

const recentFailuresShown = 10

// AnomalyReport is the windowed anomaly view of one table's failure history.
type AnomalyReport struct {
	models.Result
	TableName      string                  `json:"table_name"`
	PeriodDays     int                     `json:"analysis_period_days"`
	Detection      diag.AnomalyReport      `json:"anomaly_detection"`
	RecentFailures []diag.AssertionFailure `json:"recent_failures,omitempty"`
}

// CheckDataQualityAnomalies walks recent invocations, collects failed actions
// matching the table name, and runs the anomaly detector. Invocations whose
// logs cannot be fetched are skipped rather than failing the scan.
func (s *Service) CheckDataQualityAnomalies(ctx context.Context, tableName string, days int) (*AnomalyReport, error) {
	if days <= 0 {
		days = 30
	}
	invocations, err := s.listInvocations(ctx, "", days)
	if err != nil {
		return nil, err
	}

	var failures []diag.AssertionFailure
	needle := strings.ToLower(tableName)
	for _, inv := range invocations {
		logs, err := s.GetExecutionLogs(ctx, inv.ID)
		if err != nil {
			continue
		}
		for _, action := range logs.Actions {
			if action.Status != models.ActionFailed {
				continue
			}
			if !strings.Contains(strings.ToLower(action.Name), needle) {
				continue
			}
			failure := diag.AssertionFailure{
				InvocationID: inv.ID,
				ActionName:   action.Name,
				ErrorMessage: action.ErrorMessage,
			}
			if !inv.CreateTime.IsZero() {
				failure.Timestamp = inv.CreateTime.UTC().Format(time.RFC3339)
			}
			failures = append(failures, failure)
		}
	}

	report := AnomalyReport{
		Result:     models.OK(),
		TableName:  tableName,
		PeriodDays: days,
		Detection:  diag.DetectAnomalies(failures, days, s.now().UTC()),
	}
	if len(failures) > recentFailuresShown {
		failures = failures[:recentFailuresShown]
	}
	report.RecentFailures = failures
	return &report, nil
}

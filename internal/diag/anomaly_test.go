package diag

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkarlsen/datapilot/internal/models"
)

func TestAnalyzeAssertions_AllPassing(t *testing.T) {
	actions := []models.ActionSummary{
		{Name: "assertions.orders_not_null", Status: models.ActionSucceeded},
		{Name: "assertions.users_unique_id", Status: models.ActionSucceeded},
	}

	a := AnalyzeAssertions(actions)
	assert.Equal(t, 2, a.TotalAssertions)
	assert.Equal(t, 0, a.FailedCount)
	assert.Equal(t, 100.0, a.SuccessRatePercent)
	assert.Equal(t, []string{"All assertions passed"}, a.Recommendations)
}

func TestAnalyzeAssertions_NoAssertionActions(t *testing.T) {
	actions := []models.ActionSummary{
		{Name: "staging.orders", Status: models.ActionSucceeded},
	}

	a := AnalyzeAssertions(actions)
	assert.Equal(t, 0, a.TotalAssertions)
	assert.Equal(t, 100.0, a.SuccessRatePercent)
}

func TestAnalyzeAssertions_FailuresAndPatterns(t *testing.T) {
	actions := []models.ActionSummary{
		{Name: "assertion on analytics.orders rowcount", Status: models.ActionFailed},
		{Name: "assertion on analytics.orders nulls", Status: models.ActionFailed},
		{Name: "assertion on analytics.users uniqueness", Status: models.ActionFailed},
		{Name: "assertions.events_fresh", Status: models.ActionSucceeded},
		{Name: "staging.orders", Status: models.ActionSucceeded},
	}

	a := AnalyzeAssertions(actions)
	assert.Equal(t, 4, a.TotalAssertions)
	assert.Equal(t, 3, a.FailedCount)
	assert.InDelta(t, 25.0, a.SuccessRatePercent, 1e-9)
	assert.Equal(t, 2, a.FailurePatterns["analytics.orders"])
	assert.Equal(t, 1, a.FailurePatterns["analytics.users"])

	require.Len(t, a.Recommendations, 2)
	assert.Contains(t, a.Recommendations[0], "3 assertion(s) failed")
	assert.Contains(t, a.Recommendations[1], "analytics.orders")
}

func failuresAt(n int, ts string) []AssertionFailure {
	out := make([]AssertionFailure, n)
	for i := range out {
		out[i] = AssertionFailure{ActionName: "assertion", Timestamp: ts}
	}
	return out
}

func anomalyTypes(report AnomalyReport) []string {
	var types []string
	for _, a := range report.Anomalies {
		types = append(types, a.Type)
	}
	return types
}

func TestDetectAnomalies_Thresholds(t *testing.T) {
	now := time.Date(2026, 8, 25, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		failures  int
		days      int
		wantTypes []string
		severity  string
	}{
		{"quiet history", 3, 30, nil, ""},
		{"count at threshold does not trigger", 10, 30, nil, ""},
		{"count above threshold", 11, 30, []string{"high_failure_count"}, "medium"},
		{"severe count", 21, 60, []string{"high_failure_count"}, "high"},
		{"rate above threshold", 8, 10, []string{"high_failure_rate"}, "high"},
		{"count and rate together", 25, 14, []string{"high_failure_count", "high_failure_rate"}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Old timestamps keep the trend comparison from firing.
			old := now.AddDate(0, 0, -20).Format(time.RFC3339)
			report := DetectAnomalies(failuresAt(tt.failures, old), tt.days, now)

			assert.Equal(t, tt.failures, report.TotalFailures)
			assert.Equal(t, tt.wantTypes, anomalyTypes(report))
			if tt.severity != "" {
				require.NotEmpty(t, report.Anomalies)
				assert.Equal(t, tt.severity, report.Anomalies[0].Severity)
			}
			if len(tt.wantTypes) == 0 {
				assert.Equal(t, []string{"Data quality appears stable"}, report.Recommendations)
			} else {
				assert.Len(t, report.Recommendations, 3)
			}
		})
	}
}

func TestDetectAnomalies_FailureRate(t *testing.T) {
	now := time.Now().UTC()
	report := DetectAnomalies(failuresAt(7, ""), 14, now)
	assert.InDelta(t, 0.5, report.FailureRatePerDay, 1e-9)
	// Exactly 0.5 per day does not cross the rate threshold.
	assert.NotContains(t, anomalyTypes(report), "high_failure_rate")

	report = DetectAnomalies(nil, 0, now)
	assert.Equal(t, 0.0, report.FailureRatePerDay)
}

func TestDetectAnomalies_IncreasingTrend(t *testing.T) {
	now := time.Date(2026, 8, 25, 0, 0, 0, 0, time.UTC)
	recent := now.AddDate(0, 0, -2).Format(time.RFC3339)
	older := now.AddDate(0, 0, -12).Format(time.RFC3339)

	// 3 recent vs 2 older: 3 > 2*1.5 is false, no trend anomaly.
	failures := append(failuresAt(3, recent), failuresAt(2, older)...)
	report := DetectAnomalies(failures, 14, now)
	assert.NotContains(t, anomalyTypes(report), "increasing_trend")

	// 5 recent vs 2 older crosses the growth factor.
	failures = append(failuresAt(5, recent), failuresAt(2, older)...)
	report = DetectAnomalies(failures, 14, now)
	assert.Contains(t, anomalyTypes(report), "increasing_trend")

	// Under the 14-day window the trend check never runs.
	report = DetectAnomalies(failures, 13, now)
	assert.NotContains(t, anomalyTypes(report), "increasing_trend")
}

func TestDetectAnomalies_SkipsUnparseableTimestamps(t *testing.T) {
	now := time.Date(2026, 8, 25, 0, 0, 0, 0, time.UTC)
	recent := now.AddDate(0, 0, -1).Format(time.RFC3339)

	failures := failuresAt(5, recent)
	failures = append(failures, AssertionFailure{ActionName: "assertion", Timestamp: "yesterday"})
	failures = append(failures, AssertionFailure{ActionName: "assertion"})

	// Bad timestamps fall out of the split: 5 recent vs 0 older still trends up.
	report := DetectAnomalies(failures, 14, now)
	assert.Contains(t, anomalyTypes(report), "increasing_trend")
}

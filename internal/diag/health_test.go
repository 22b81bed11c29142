package diag

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkarlsen/datapilot/internal/models"
)

func inv(state string) models.InvocationSummary {
	return models.InvocationSummary{State: state}
}

func invs(states ...string) []models.InvocationSummary {
	out := make([]models.InvocationSummary, len(states))
	for i, s := range states {
		out[i] = inv(s)
	}
	return out
}

func TestAggregateHealth_Empty(t *testing.T) {
	m := AggregateHealth(nil)
	assert.Equal(t, 0, m.Total)
	assert.Equal(t, 0.0, m.SuccessRatePercent)
	assert.Nil(t, m.AverageDurationSeconds)
	assert.Empty(t, m.Trend)
}

func TestAggregateHealth_Counts(t *testing.T) {
	m := AggregateHealth(invs(
		models.InvocationSucceeded,
		models.InvocationSucceeded,
		models.InvocationFailed,
		models.InvocationRunning,
		models.InvocationCancelled,
	))

	assert.Equal(t, 5, m.Total)
	assert.Equal(t, 2, m.Successful)
	assert.Equal(t, 1, m.Failed)
	// Running and canceled count toward neither bucket.
	assert.LessOrEqual(t, m.Successful+m.Failed, m.Total)
	assert.InDelta(t, 40.0, m.SuccessRatePercent, 1e-9)
}

func TestAggregateHealth_AverageDuration(t *testing.T) {
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	list := []models.InvocationSummary{
		{State: models.InvocationSucceeded, CreateTime: base, UpdateTime: base.Add(60 * time.Second)},
		{State: models.InvocationSucceeded, CreateTime: base, UpdateTime: base.Add(120 * time.Second)},
		{State: models.InvocationFailed}, // no timestamps, excluded from the average
	}

	m := AggregateHealth(list)
	require.NotNil(t, m.AverageDurationSeconds)
	assert.InDelta(t, 90.0, *m.AverageDurationSeconds, 1e-9)
}

func TestAggregateHealth_Trend(t *testing.T) {
	tests := []struct {
		name   string
		states []string
		want   Trend
	}{
		{"too few samples", []string{models.InvocationFailed, models.InvocationFailed, models.InvocationSucceeded}, ""},
		{
			"improving",
			[]string{models.InvocationFailed, models.InvocationFailed, models.InvocationSucceeded, models.InvocationSucceeded},
			TrendImproving,
		},
		{
			"degrading",
			[]string{models.InvocationSucceeded, models.InvocationSucceeded, models.InvocationFailed, models.InvocationFailed},
			TrendDegrading,
		},
		{
			"stable",
			[]string{models.InvocationSucceeded, models.InvocationFailed, models.InvocationSucceeded, models.InvocationFailed},
			TrendStable,
		},
		{
			"odd length puts remainder in second half",
			[]string{models.InvocationFailed, models.InvocationFailed, models.InvocationSucceeded, models.InvocationSucceeded, models.InvocationSucceeded},
			TrendImproving,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := AggregateHealth(invs(tt.states...))
			assert.Equal(t, tt.want, m.Trend)
		})
	}
}

func TestAggregateHealth_FailurePatterns(t *testing.T) {
	list := []models.InvocationSummary{
		{State: models.InvocationFailed, CompilationResult: "compilationResults/abc"},
		{State: models.InvocationFailed},
		{State: models.InvocationFailed, CompilationResult: "compilationResults/def"},
		{State: models.InvocationSucceeded},
	}

	m := AggregateHealth(list)
	require.Len(t, m.FailurePatterns, 2)
	assert.Equal(t, FailurePattern{Reason: "compilation_error", Count: 2}, m.FailurePatterns[0])
	assert.Equal(t, FailurePattern{Reason: "unknown_error", Count: 1}, m.FailurePatterns[1])
}

func TestScorePipeline_StatusBoundaries(t *testing.T) {
	tests := []struct {
		score float64
		want  PipelineStatus
	}{
		{100, PipelineHealthy},
		{95.0, PipelineHealthy},
		{94.999, PipelineWarning},
		{80.0, PipelineWarning},
		{79.999, PipelineCritical},
		{0, PipelineCritical},
	}

	for _, tt := range tests {
		h := ScorePipeline(HealthMetrics{SuccessRatePercent: tt.score})
		assert.Equal(t, tt.want, h.Status, "score %v", tt.score)
		assert.Equal(t, tt.score, h.Score)
	}
}

func TestScorePipeline_IssuesAndRecommendations(t *testing.T) {
	// Clean pipeline: no issues, the single default recommendation.
	h := ScorePipeline(HealthMetrics{SuccessRatePercent: 100})
	assert.Empty(t, h.Issues)
	assert.Equal(t, []string{"Pipeline is operating normally"}, h.Recommendations)

	// Low score plus degrading trend stack two issues.
	h = ScorePipeline(HealthMetrics{
		SuccessRatePercent: 70,
		Trend:              TrendDegrading,
		FailurePatterns:    []FailurePattern{{Reason: "unknown_error", Count: 3}},
	})
	require.Len(t, h.Issues, 2)
	assert.Contains(t, h.Issues[0], "Low success rate")
	assert.Len(t, h.Recommendations, 2)

	// Exactly 90 is not a low-score issue.
	h = ScorePipeline(HealthMetrics{SuccessRatePercent: 90})
	assert.Empty(t, h.Issues)
}

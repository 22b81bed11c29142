package bq

import (
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlanInsights(t *testing.T) {
	stages := []PlanStage{
		{Name: "S00: Input", ParallelInputs: 4, ShuffleOutputBytes: 1 * gibBytes},
		{Name: "S01: Join+", ParallelInputs: 50, ShuffleOutputBytes: 12 * gibBytes},
		{Name: "S02: Output", ParallelInputs: 1, ShuffleOutputBytes: 2 * gibBytes},
	}

	bottlenecks, opportunities := planInsights(stages)

	// S00 raises the shuffle max, S01 raises it again and trips parallel inputs.
	require.Len(t, bottlenecks, 3)
	assert.Equal(t, "S00: Input", bottlenecks[0].Stage)
	assert.Equal(t, "S01: Join+", bottlenecks[1].Stage)
	assert.Contains(t, bottlenecks[1].Issue, "parallel inputs")
	assert.Equal(t, "S01: Join+", bottlenecks[2].Stage)

	require.Len(t, opportunities, 1)
	assert.Contains(t, opportunities[0], "Large shuffle")
}

func TestPlanInsights_ManyStages(t *testing.T) {
	stages := make([]PlanStage, 21)
	_, opportunities := planInsights(stages)
	require.Len(t, opportunities, 1)
	assert.Contains(t, opportunities[0], "Many stages")
}

func TestBuildFailedJobsQuery(t *testing.T) {
	since := time.Date(2026, 8, 18, 10, 30, 0, 0, time.UTC)

	sql := buildFailedJobsQuery("my-proj", "eu", FailedJobsFilter{Days: 7, Limit: 20}, since)
	assert.Contains(t, sql, "`my-proj.region-eu.INFORMATION_SCHEMA.JOBS_BY_PROJECT`")
	assert.Contains(t, sql, "creation_time >= TIMESTAMP('2026-08-18 10:30:00')")
	assert.Contains(t, sql, "LIMIT 20")
	assert.NotContains(t, sql, "destination_table.table_id LIKE")

	sql = buildFailedJobsQuery("my-proj", "eu", FailedJobsFilter{
		TableName: "ltv_dimensions",
		ErrorType: "memory",
		Days:      7,
		Limit:     5,
	}, since)
	assert.Contains(t, sql, "destination_table.table_id LIKE '%ltv_dimensions%'")
	assert.Contains(t, sql, "Resources exceeded")
	assert.Contains(t, sql, "LIMIT 5")

	// Unknown error types add no predicate rather than breaking the query.
	sql = buildFailedJobsQuery("my-proj", "eu", FailedJobsFilter{ErrorType: "cosmic_rays", Limit: 20}, since)
	assert.NotContains(t, sql, "cosmic_rays")
}

func TestEvaluateFreshness(t *testing.T) {
	now := time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name         string
		ageHours     float64
		threshold    int
		wantStatus   string
		wantSeverity string
	}{
		{"fresh", 12, 24, "fresh", ""},
		{"exactly at threshold is fresh", 24, 24, "fresh", ""},
		{"stale within 2x is warning", 30, 24, "stale", "warning"},
		{"exactly 2x is still warning", 48, 24, "stale", "warning"},
		{"beyond 2x is error", 49, 24, "stale", "error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			modified := now.Add(-time.Duration(tt.ageHours * float64(time.Hour)))
			status, alert, hours := evaluateFreshness(modified, now, tt.threshold)

			assert.Equal(t, tt.wantStatus, status)
			assert.InDelta(t, tt.ageHours, hours, 1e-6)
			if tt.wantSeverity == "" {
				assert.Nil(t, alert)
			} else {
				require.NotNil(t, alert)
				assert.Equal(t, tt.wantSeverity, alert.Severity)
				assert.InDelta(t, tt.ageHours-float64(tt.threshold), alert.HoursOverThreshold, 1e-6)
			}
		})
	}
}

func TestValidationQuery(t *testing.T) {
	sql, err := validationQuery("p", "ds", "t", ValidationRule{Column: "id", Type: "not_null"})
	require.NoError(t, err)
	assert.Equal(t, "SELECT COUNT(*) AS violations FROM `p.ds.t` WHERE id IS NULL", sql)

	sql, err = validationQuery("p", "ds", "t", ValidationRule{Column: "id", Type: "unique"})
	require.NoError(t, err)
	assert.Contains(t, sql, "GROUP BY id HAVING COUNT(*) > 1")

	sql, err = validationQuery("p", "ds", "t", ValidationRule{Column: "state", Type: "value", Value: "'DONE'"})
	require.NoError(t, err)
	assert.Contains(t, sql, "WHERE state != 'DONE'")

	_, err = validationQuery("p", "ds", "t", ValidationRule{Column: "id", Type: "regex"})
	assert.ErrorContains(t, err, "unknown rule type")
}

func TestTruncateRunes(t *testing.T) {
	assert.Equal(t, "short", truncateRunes("short", 10))
	assert.Equal(t, "abc", truncateRunes("abcdef", 3))

	// Multi-byte characters stay intact; the cut is per rune, not per byte.
	sql := "SELECT 'héllo wörld'"
	got := truncateRunes(sql, 10)
	assert.Equal(t, "SELECT 'hé", got)
	assert.True(t, utf8.ValidString(got))
}

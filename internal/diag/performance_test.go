package diag

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEstimateCostUSD(t *testing.T) {
	assert.Equal(t, 0.0, EstimateCostUSD(0))
	assert.InDelta(t, 5.0, EstimateCostUSD(tib), 1e-9)
	assert.InDelta(t, 2.5, EstimateCostUSD(tib/2), 1e-9)

	// Monotonic non-decreasing in bytes.
	prev := 0.0
	for _, b := range []int64{0, 1, gib, 100 * gib, tib, 10 * tib} {
		cost := EstimateCostUSD(b)
		assert.GreaterOrEqual(t, cost, prev)
		prev = cost
	}
}

func TestAnalyzePerformance_SlotEfficiency(t *testing.T) {
	report := AnalyzePerformance(JobMetrics{
		BytesProcessed:  tib,
		SlotMillis:      120_000,
		DurationSeconds: 60,
	})

	require.NotNil(t, report.SlotEfficiency)
	assert.InDelta(t, 2.0, report.SlotEfficiency.AvgSlotsUsed, 1e-9)
	assert.InDelta(t, 2.0, report.SlotEfficiency.TotalSlotMinutes, 1e-9)

	// Undefined when duration is unknown.
	report = AnalyzePerformance(JobMetrics{BytesProcessed: tib, SlotMillis: 120_000})
	assert.Nil(t, report.SlotEfficiency)
}

func TestAnalyzePerformance_ThresholdsAreIndependent(t *testing.T) {
	tests := []struct {
		name    string
		metrics JobMetrics
		want    int
	}{
		{"nothing triggered", JobMetrics{BytesProcessed: gib, SlotMillis: 1000, DurationSeconds: 10}, 0},
		{"large scan only", JobMetrics{BytesProcessed: 101 * gib}, 1},
		{"high slot time only", JobMetrics{SlotMillis: 3_600_001}, 1},
		{"memory error only", JobMetrics{ErrorMessage: "out of MEMORY"}, 1},
		{"long duration only", JobMetrics{DurationSeconds: 301}, 1},
		{
			"all four co-occur",
			JobMetrics{
				BytesProcessed:  200 * gib,
				SlotMillis:      7_200_000,
				DurationSeconds: 600,
				ErrorMessage:    "memory pressure",
			},
			4,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			report := AnalyzePerformance(tt.metrics)
			assert.Len(t, report.Suggestions, tt.want)
		})
	}
}

func TestCostSuggestions(t *testing.T) {
	// Small scan, plain query: nothing triggers.
	assert.Empty(t, CostSuggestions("SELECT id FROM t", gib))

	// Very large scan stacks both size suggestions.
	got := CostSuggestions("SELECT id FROM t", 1001*gib)
	assert.Len(t, got, 3)

	// SELECT * is shape-based, independent of size.
	got = CostSuggestions("SELECT * FROM t", 0)
	require.Len(t, got, 1)
	assert.Contains(t, got[0], "SELECT *")
}

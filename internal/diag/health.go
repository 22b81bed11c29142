package diag

import (
	"fmt"

	"github.com/mkarlsen/datapilot/internal/models"
)

// Trend is the two-window health trend signal.
type Trend string

const (
	TrendImproving Trend = "improving"
	TrendDegrading Trend = "degrading"
	TrendStable    Trend = "stable"
)

// Trend classification needs at least this many samples and more than this
// many percentage points of delta between the two halves.
const (
	minTrendSamples = 4
	trendDeltaPts   = 5.0
)

// FailurePattern is one bucket of the failure-reason histogram.
type FailurePattern struct {
	Reason string `json:"reason"`
	Count  int    `json:"count"`
}

// HealthMetrics aggregates a window of workflow invocations.
// Successful+Failed can be less than Total: running or canceled invocations
// count toward neither. Trend is empty when fewer than four samples exist.
type HealthMetrics struct {
	Total                  int              `json:"total_invocations"`
	Successful             int              `json:"successful"`
	Failed                 int              `json:"failed"`
	SuccessRatePercent     float64          `json:"success_rate_percent"`
	AverageDurationSeconds *float64         `json:"average_duration_seconds,omitempty"`
	Trend                  Trend            `json:"trend,omitempty"`
	FailurePatterns        []FailurePattern `json:"failure_patterns,omitempty"`
}

// AggregateHealth computes success rate, average duration, trend, and the
// failure-reason histogram over invocations in retrieval order. The aggregator
// does not re-sort; the trend halves follow the order the upstream returned.
func AggregateHealth(invocations []models.InvocationSummary) HealthMetrics {
	m := HealthMetrics{Total: len(invocations)}
	if m.Total == 0 {
		return m
	}

	var durationSum float64
	var durationCount int
	for _, inv := range invocations {
		switch inv.State {
		case models.InvocationSucceeded:
			m.Successful++
		case models.InvocationFailed:
			m.Failed++
		}
		if d, ok := inv.Duration(); ok {
			durationSum += d.Seconds()
			durationCount++
		}
	}

	m.SuccessRatePercent = float64(m.Successful) / float64(m.Total) * 100
	if durationCount > 0 {
		avg := durationSum / float64(durationCount)
		m.AverageDurationSeconds = &avg
	}
	m.Trend = classifyTrend(invocations)
	m.FailurePatterns = failureHistogram(invocations)
	return m
}

// classifyTrend splits the list into first half / second half (remainder to
// the second half) and compares the two success rates.
func classifyTrend(invocations []models.InvocationSummary) Trend {
	total := len(invocations)
	if total < minTrendSamples {
		return ""
	}

	first := successRate(invocations[:total/2])
	second := successRate(invocations[total/2:])

	switch {
	case second > first+trendDeltaPts:
		return TrendImproving
	case second < first-trendDeltaPts:
		return TrendDegrading
	default:
		return TrendStable
	}
}

func successRate(invocations []models.InvocationSummary) float64 {
	if len(invocations) == 0 {
		return 0
	}
	succeeded := 0
	for _, inv := range invocations {
		if inv.State == models.InvocationSucceeded {
			succeeded++
		}
	}
	return float64(succeeded) / float64(len(invocations)) * 100
}

// failureHistogram buckets failed invocations under a coarse reason key.
// A compilation-result reference is the only signal available without pulling
// per-action logs, so the histogram is a shallow proxy, not true root-cause
// attribution.
func failureHistogram(invocations []models.InvocationSummary) []FailurePattern {
	counts := map[string]int{}
	var order []string
	for _, inv := range invocations {
		if inv.State != models.InvocationFailed {
			continue
		}
		key := "unknown_error"
		if inv.CompilationResult != "" {
			key = "compilation_error"
		}
		if _, seen := counts[key]; !seen {
			order = append(order, key)
		}
		counts[key]++
	}

	patterns := make([]FailurePattern, 0, len(order))
	for _, key := range order {
		patterns = append(patterns, FailurePattern{Reason: key, Count: counts[key]})
	}
	return patterns
}

// Pipeline status thresholds. Boundaries are inclusive on the healthy side:
// exactly 95 is healthy, exactly 80 is warning.
const (
	healthyScore = 95.0
	warningScore = 80.0
	lowScore     = 90.0
)

// PipelineStatus is the tri-state overall health verdict.
type PipelineStatus string

const (
	PipelineHealthy  PipelineStatus = "healthy"
	PipelineWarning  PipelineStatus = "warning"
	PipelineCritical PipelineStatus = "critical"
)

// PipelineHealth combines aggregated metrics into a 0-100 score plus issues
// and recommendations. The score is the success rate verbatim; trend and
// failure patterns surface only as issues and recommendation text.
type PipelineHealth struct {
	Status          PipelineStatus `json:"overall_status"`
	Score           float64        `json:"health_score"`
	Issues          []string       `json:"issues,omitempty"`
	Recommendations []string       `json:"recommendations"`
}

// ScorePipeline derives the overall verdict from aggregated health metrics.
func ScorePipeline(m HealthMetrics) PipelineHealth {
	h := PipelineHealth{Score: m.SuccessRatePercent}

	if h.Score < lowScore {
		h.Issues = append(h.Issues, fmt.Sprintf("Low success rate: %.2f%%", h.Score))
	}
	if m.Trend == TrendDegrading {
		h.Issues = append(h.Issues, "Pipeline health is degrading over time")
	}

	switch {
	case h.Score >= healthyScore:
		h.Status = PipelineHealthy
	case h.Score >= warningScore:
		h.Status = PipelineWarning
	default:
		h.Status = PipelineCritical
	}

	if len(h.Issues) > 0 {
		h.Recommendations = append(h.Recommendations,
			"Review failed workflows to identify root causes")
	}
	if len(m.FailurePatterns) > 0 {
		h.Recommendations = append(h.Recommendations,
			"Address common failure patterns")
	}
	if len(h.Recommendations) == 0 {
		h.Recommendations = []string{"Pipeline is operating normally"}
	}

	return h
}

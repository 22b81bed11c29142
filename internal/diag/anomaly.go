package diag

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/mkarlsen/datapilot/internal/models"
)

// tablePattern extracts a dataset.table style token from an action name.
var tablePattern = regexp.MustCompile(`\w+\.\w+`)

// AssertionAnalysis summarizes data-quality assertions within one invocation.
type AssertionAnalysis struct {
	TotalAssertions    int                    `json:"total_assertions"`
	FailedCount        int                    `json:"failed_assertions"`
	SuccessRatePercent float64                `json:"success_rate"`
	Failed             []models.ActionSummary `json:"failed,omitempty"`
	FailurePatterns    map[string]int         `json:"failure_patterns,omitempty"`
	Recommendations    []string               `json:"recommendations"`
}

// AnalyzeAssertions filters an invocation's actions down to assertion-like
// ones (name contains "assertion" or status FAILED), tallies failed
// assertions per table token, and emits recommendations. With no assertion
// actions at all the success rate is 100.
func AnalyzeAssertions(actions []models.ActionSummary) AssertionAnalysis {
	var assertions []models.ActionSummary
	for _, a := range actions {
		if strings.Contains(strings.ToLower(a.Name), "assertion") || a.Status == models.ActionFailed {
			assertions = append(assertions, a)
		}
	}

	analysis := AssertionAnalysis{TotalAssertions: len(assertions), SuccessRatePercent: 100}
	for _, a := range assertions {
		if a.Status == models.ActionFailed {
			analysis.Failed = append(analysis.Failed, a)
		}
	}
	analysis.FailedCount = len(analysis.Failed)
	if len(assertions) > 0 {
		analysis.SuccessRatePercent = float64(len(assertions)-analysis.FailedCount) / float64(len(assertions)) * 100
	}

	patterns := map[string]int{}
	for _, a := range analysis.Failed {
		if table := tablePattern.FindString(a.Name); table != "" {
			patterns[table]++
		}
	}
	if len(patterns) > 0 {
		analysis.FailurePatterns = patterns
	}

	if analysis.FailedCount > 0 {
		analysis.Recommendations = append(analysis.Recommendations,
			fmt.Sprintf("%d assertion(s) failed - review data quality", analysis.FailedCount))
		if table, count, ok := mostFailedTable(patterns); ok {
			analysis.Recommendations = append(analysis.Recommendations,
				fmt.Sprintf("Table %s has %d failed assertions - investigate data quality", table, count))
		}
	} else {
		analysis.Recommendations = []string{"All assertions passed"}
	}

	return analysis
}

// mostFailedTable returns the table with the highest failure count,
// ties broken lexicographically for determinism.
func mostFailedTable(patterns map[string]int) (string, int, bool) {
	if len(patterns) == 0 {
		return "", 0, false
	}
	tables := make([]string, 0, len(patterns))
	for t := range patterns {
		tables = append(tables, t)
	}
	sort.Strings(tables)
	best := tables[0]
	for _, t := range tables[1:] {
		if patterns[t] > patterns[best] {
			best = t
		}
	}
	return best, patterns[best], true
}

// AssertionFailure is one failed action matched against a target table in a
// time-windowed anomaly scan. Timestamp is RFC3339 text as reported upstream;
// unparseable values are skipped from trend comparison.
type AssertionFailure struct {
	InvocationID string `json:"workflow_invocation_id"`
	ActionName   string `json:"action_name"`
	ErrorMessage string `json:"error_message,omitempty"`
	Timestamp    string `json:"timestamp,omitempty"`
}

// Anomaly is one crossed threshold in an anomaly report.
type Anomaly struct {
	Type     string `json:"type"`
	Message  string `json:"message"`
	Severity string `json:"severity"`
}

// AnomalyReport is the fixed-threshold anomaly view of a failure history.
type AnomalyReport struct {
	TotalFailures     int       `json:"total_failures"`
	FailureRatePerDay float64   `json:"failure_rate_per_day"`
	Anomalies         []Anomaly `json:"anomalies,omitempty"`
	Recommendations   []string  `json:"recommendations"`
}

// Anomaly thresholds.
const (
	highFailureCount   = 10
	severeFailureCount = 20
	highFailureRate    = 0.5 // failures per day
	trendWindowDays    = 14
	recentWindowDays   = 7
	trendGrowthFactor  = 1.5
)

// DetectAnomalies flags fixed-threshold anomalies over a failure history
// spanning the given number of days. now anchors the recent-vs-older trend
// split; the split only runs when the window covers at least 14 days.
func DetectAnomalies(failures []AssertionFailure, days int, now time.Time) AnomalyReport {
	report := AnomalyReport{TotalFailures: len(failures)}
	if days > 0 {
		report.FailureRatePerDay = float64(len(failures)) / float64(days)
	}

	if report.TotalFailures > highFailureCount {
		severity := "medium"
		if report.TotalFailures > severeFailureCount {
			severity = "high"
		}
		report.Anomalies = append(report.Anomalies, Anomaly{
			Type:     "high_failure_count",
			Message:  fmt.Sprintf("High number of failures (%d) in last %d days", report.TotalFailures, days),
			Severity: severity,
		})
	}

	if report.FailureRatePerDay > highFailureRate {
		report.Anomalies = append(report.Anomalies, Anomaly{
			Type:     "high_failure_rate",
			Message:  fmt.Sprintf("High failure rate: %.2f failures per day", report.FailureRatePerDay),
			Severity: "high",
		})
	}

	if days >= trendWindowDays {
		recent, older := splitByRecency(failures, now)
		if float64(recent) > float64(older)*trendGrowthFactor {
			report.Anomalies = append(report.Anomalies, Anomaly{
				Type:     "increasing_trend",
				Message:  "Failure rate is increasing - recent failures exceed historical average",
				Severity: "medium",
			})
		}
	}

	if len(report.Anomalies) > 0 {
		report.Recommendations = []string{
			"Investigate root cause of assertion failures",
			"Review data quality rules and thresholds",
			"Consider adding more granular assertions",
		}
	} else {
		report.Recommendations = []string{"Data quality appears stable"}
	}

	return report
}

// splitByRecency counts failures newer than seven days versus older ones.
// Failures with missing or unparseable timestamps are skipped entirely.
func splitByRecency(failures []AssertionFailure, now time.Time) (recent, older int) {
	threshold := now.AddDate(0, 0, -recentWindowDays)
	for _, f := range failures {
		if f.Timestamp == "" {
			continue
		}
		ts, err := time.Parse(time.RFC3339, f.Timestamp)
		if err != nil {
			continue
		}
		if ts.After(threshold) {
			recent++
		} else {
			older++
		}
	}
	return recent, older
}

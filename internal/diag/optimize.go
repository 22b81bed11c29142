package diag

import "strings"

// Priority buckets for optimizer suggestions. Fixed per rule, never computed.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// OptimizerSuggestion is one triggered rule from SuggestOptimizations.
type OptimizerSuggestion struct {
	Issue      string   `json:"issue"`
	Impact     string   `json:"impact"`
	Suggestion string   `json:"suggestion"`
	Priority   Priority `json:"-"`
}

// QueryAnalysis summarizes the shape of a query plus all triggered
// optimizer rules, bucketed by priority.
type QueryAnalysis struct {
	EstimatedBytes     int64                 `json:"estimated_bytes"`
	EstimatedCostUSD   float64               `json:"estimated_cost_usd"`
	JoinCount          int                   `json:"join_count"`
	HasWindowFunctions bool                  `json:"has_window_functions"`
	HasGroupBy         bool                  `json:"has_group_by"`
	HighPriority       []OptimizerSuggestion `json:"high_priority,omitempty"`
	MediumPriority     []OptimizerSuggestion `json:"medium_priority,omitempty"`
	LowPriority        []OptimizerSuggestion `json:"low_priority,omitempty"`
}

// TotalSuggestions returns the number of triggered rules.
func (a QueryAnalysis) TotalSuggestions() int {
	return len(a.HighPriority) + len(a.MediumPriority) + len(a.LowPriority)
}

// groupByCommaWindow bounds how far past GROUP BY the column list is scanned.
const groupByCommaWindow = 200

// SuggestOptimizations evaluates each rule independently against the
// upper-cased query text; output count equals the number of triggered rules.
// estimatedBytes comes from a cost dry run; errorContext is the error text of
// a prior failed execution, empty when unavailable.
func SuggestOptimizations(query string, estimatedBytes int64, errorContext string) QueryAnalysis {
	upper := strings.ToUpper(query)

	analysis := QueryAnalysis{
		EstimatedBytes:     estimatedBytes,
		EstimatedCostUSD:   EstimateCostUSD(estimatedBytes),
		JoinCount:          strings.Count(upper, "JOIN"),
		HasWindowFunctions: hasWindowSyntax(upper),
		HasGroupBy:         strings.Contains(upper, "GROUP BY"),
	}

	if strings.Contains(upper, "SELECT *") {
		analysis.HighPriority = append(analysis.HighPriority, OptimizerSuggestion{
			Issue:      "SELECT * usage",
			Impact:     "High - scans all columns unnecessarily",
			Suggestion: "Specify only needed columns to reduce bytes scanned",
			Priority:   PriorityHigh,
		})
	}

	if estimatedBytes > largeScanBytes && missingDateFilter(upper) {
		analysis.HighPriority = append(analysis.HighPriority, OptimizerSuggestion{
			Issue:      "Large data scan without date filters",
			Impact:     "High - processing too much data",
			Suggestion: "Add date filters to limit data volume (e.g., WHERE date >= DATE_SUB(CURRENT_DATE(), INTERVAL 3 DAY))",
			Priority:   PriorityHigh,
		})
	}

	if analysis.JoinCount > 5 {
		analysis.HighPriority = append(analysis.HighPriority, OptimizerSuggestion{
			Issue:      "Multiple JOINs detected",
			Impact:     "High - complex JOINs can cause memory issues",
			Suggestion: "Consider breaking into multiple stages with materialized intermediate tables",
			Priority:   PriorityHigh,
		})
	}

	if analysis.HasWindowFunctions {
		analysis.MediumPriority = append(analysis.MediumPriority, OptimizerSuggestion{
			Issue:      "Window functions detected",
			Impact:     "Medium - window functions can be memory-intensive",
			Suggestion: "Ensure window functions are properly partitioned. Consider materializing intermediate results.",
			Priority:   PriorityMedium,
		})
	}

	if wideGroupBy(upper) {
		analysis.MediumPriority = append(analysis.MediumPriority, OptimizerSuggestion{
			Issue:      "GROUP BY with many columns",
			Impact:     "Medium - high cardinality can increase memory usage",
			Suggestion: "Review if all GROUP BY columns are necessary. Consider pre-aggregating some dimensions.",
			Priority:   PriorityMedium,
		})
	}

	// Appended regardless of query shape when the prior error was memory.
	if errorContext != "" &&
		(strings.Contains(errorContext, "Resources exceeded") ||
			strings.Contains(strings.ToLower(errorContext), "memory")) {
		analysis.HighPriority = append(analysis.HighPriority, OptimizerSuggestion{
			Issue:      "Memory error detected",
			Impact:     "Critical - query failed due to memory",
			Suggestion: "Break query into smaller stages. Materialize intermediate results as incremental tables.",
			Priority:   PriorityHigh,
		})
	}

	return analysis
}

func hasWindowSyntax(upper string) bool {
	return strings.Contains(upper, "OVER (") ||
		strings.Contains(upper, "ROW_NUMBER()") ||
		strings.Contains(upper, "RANK()")
}

// missingDateFilter reports whether the query has no WHERE clause, or has one
// without a date/timestamp filter function call.
func missingDateFilter(upper string) bool {
	if !strings.Contains(upper, "WHERE") {
		return true
	}
	return !strings.Contains(upper, "DATE(") && !strings.Contains(upper, "TIMESTAMP(")
}

// wideGroupBy reports whether the first ~200 characters after GROUP BY
// contain more than 5 commas.
func wideGroupBy(upper string) bool {
	idx := strings.Index(upper, "GROUP BY")
	if idx < 0 {
		return false
	}
	section := upper[idx:]
	if len(section) > groupByCommaWindow {
		section = section[:groupByCommaWindow]
	}
	return strings.Count(section, ",") > 5
}

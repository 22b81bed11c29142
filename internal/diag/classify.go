// Package diag implements the diagnostic heuristics layer: error
// classification, performance and cost analysis, query optimization hints,
// workflow health aggregation, pipeline scoring, and assertion anomaly
// detection. Everything here is a pure function of already-fetched telemetry;
// no package-level state and no I/O.
package diag

import (
	"fmt"
	"strings"
)

// ErrorCategory is the classification assigned to a failed job.
type ErrorCategory string

const (
	CategoryMemoryExhaustion ErrorCategory = "memory_exhaustion"
	CategoryTimeout          ErrorCategory = "timeout"
	CategoryPermission       ErrorCategory = "permission_error"
	CategoryTableNotFound    ErrorCategory = "table_not_found"
	CategorySyntax           ErrorCategory = "syntax_error"
	CategorySlotExhaustion   ErrorCategory = "slot_exhaustion"
	CategoryOther            ErrorCategory = "other_error"
)

// Classification is the result of analyzing a job error message. Exactly one
// category is assigned; SuggestedFixes and NextSteps are omitted when
// suggestions are disabled.
type Classification struct {
	Category       ErrorCategory `json:"error_type"`
	RootCause      string        `json:"root_cause"`
	SuggestedFixes []string      `json:"suggested_fixes,omitempty"`
	NextSteps      []string      `json:"next_steps,omitempty"`
}

// classifyRule pairs a match predicate with the fixed texts for one category.
// Rules are evaluated in order; the first match wins, so a message containing
// both "timeout" and "Resources exceeded" classifies as memory_exhaustion.
type classifyRule struct {
	category  ErrorCategory
	match     func(lower string) bool
	rootCause string
	fixes     func(location string) []string
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

var classifyRules = []classifyRule{
	{
		category: CategoryMemoryExhaustion,
		match: func(m string) bool {
			return containsAny(m, "resources exceeded", "memory", "100% of limit")
		},
		rootCause: "Query consumed 100% of available memory. Common causes: large JOINs, complex aggregations, window functions, or processing too much data at once.",
		fixes: func(string) []string {
			return []string{
				"Break the query into smaller stages (use incremental tables)",
				"Add date filters to reduce data volume (e.g., last 3 days instead of full history)",
				"Optimize JOINs: ensure proper indexes, use smaller tables first",
				"Consider using incremental processing instead of full refresh",
				"Review query execution plan to identify memory-intensive operations",
				"Split complex CTEs into separate materialized tables",
			}
		},
	},
	{
		category: CategoryTimeout,
		match: func(m string) bool {
			return containsAny(m, "timeout", "deadline")
		},
		rootCause: "Query exceeded maximum execution time.",
		fixes: func(string) []string {
			return []string{
				"Break query into smaller chunks",
				"Add more aggressive filters to reduce data volume",
				"Use incremental processing",
				"Consider using scheduled queries with longer timeout",
			}
		},
	},
	{
		category: CategoryPermission,
		match: func(m string) bool {
			return containsAny(m, "access denied", "permission")
		},
		rootCause: "Insufficient permissions to access resources.",
		fixes: func(string) []string {
			return []string{
				"Check IAM permissions for the service account",
				"Verify dataset and table access permissions",
				"Ensure the service account has BigQuery Data Editor role",
			}
		},
	},
	{
		category: CategoryTableNotFound,
		match: func(m string) bool {
			return containsAny(m, "not found", "does not exist")
		},
		rootCause: "Referenced table or dataset does not exist.",
		fixes: func(string) []string {
			return []string{
				"Verify table name and dataset are correct",
				"Check if table exists: SELECT * FROM `project.dataset.table` LIMIT 1",
				"Ensure table was created before this query runs",
				"Check for typos in table names",
			}
		},
	},
	{
		category: CategorySyntax,
		match: func(m string) bool {
			return containsAny(m, "syntax error", "invalid")
		},
		rootCause: "SQL syntax error in the query.",
		fixes: func(location string) []string {
			return []string{
				fmt.Sprintf("Check SQL syntax at location: %s", location),
				"Review the query for missing commas, parentheses, or quotes",
				"Validate SQL using BigQuery's query validator",
			}
		},
	},
	{
		category: CategorySlotExhaustion,
		match: func(m string) bool {
			return strings.Contains(m, "slot") && containsAny(m, "exceeded", "unavailable")
		},
		rootCause: "Insufficient BigQuery slots available.",
		fixes: func(string) []string {
			return []string{
				"Wait for other queries to complete",
				"Use reservation with more slots",
				"Optimize query to use fewer slots",
				"Schedule query during off-peak hours",
			}
		},
	},
}

var otherFixes = []string{
	"Review the full error message for specific details",
	"Check BigQuery job logs in Cloud Logging",
	"Verify query syntax and table references",
	"Check if related tables have recent data",
}

var nextSteps = []string{
	"Review the error analysis above",
	"Apply the most relevant suggested fix",
	"Test the fix with a small data sample first",
	"Monitor the next execution to verify the fix worked",
}

// ClassifyError maps a job error message to exactly one category with fixed
// root-cause text and an ordered list of suggested fixes. Matching is
// case-insensitive substring testing. location is interpolated into the
// syntax_error suggestions only. When includeSuggestions is false the
// classification is unchanged but fixes and next steps are omitted.
func ClassifyError(message, location string, includeSuggestions bool) Classification {
	lower := strings.ToLower(message)

	for _, rule := range classifyRules {
		if rule.match(lower) {
			c := Classification{Category: rule.category, RootCause: rule.rootCause}
			if includeSuggestions {
				c.SuggestedFixes = rule.fixes(location)
				c.NextSteps = nextSteps
			}
			return c
		}
	}

	c := Classification{
		Category:  CategoryOther,
		RootCause: "Unknown error type. Review error message for details.",
	}
	if includeSuggestions {
		c.SuggestedFixes = otherFixes
		c.NextSteps = nextSteps
	}
	return c
}

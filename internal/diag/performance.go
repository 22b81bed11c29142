package diag

import "strings"

// On-demand query pricing: $5 per TiB scanned.
const (
	costPerTiBUSD = 5.0
	tib           = 1 << 40
	gib           = 1 << 30
)

// Suggestion thresholds for AnalyzePerformance.
const (
	largeScanBytes      = 100 * gib
	highSlotMillis      = 3_600_000 // one hour of slot time
	longDurationSeconds = 300
)

// JobMetrics is the telemetry of a single finished (or failed) query job.
// A zero DurationSeconds means the duration is unknown.
type JobMetrics struct {
	BytesProcessed  int64
	SlotMillis      int64
	DurationSeconds float64
	ErrorMessage    string
}

// SlotEfficiency reports average slot usage over the job's runtime. Only
// meaningful when the job duration is known.
type SlotEfficiency struct {
	AvgSlotsUsed     float64 `json:"avg_slots_used"`
	TotalSlotMinutes float64 `json:"total_slot_minutes"`
}

// PerformanceReport is the derived performance view of one job.
type PerformanceReport struct {
	CostUSD        float64         `json:"estimated_cost_usd"`
	BytesTiB       float64         `json:"bytes_processed_tb"`
	SlotEfficiency *SlotEfficiency `json:"slot_efficiency,omitempty"`
	Suggestions    []string        `json:"optimization_suggestions,omitempty"`
}

// EstimateCostUSD converts bytes scanned to an on-demand cost estimate.
// Monotonic non-decreasing in bytes; zero bytes cost zero.
func EstimateCostUSD(bytes int64) float64 {
	return float64(bytes) / tib * costPerTiBUSD
}

// AnalyzePerformance derives cost, slot efficiency, and threshold-based
// optimization suggestions from job telemetry. Each threshold is tested
// independently, so several suggestions can co-occur; order follows check
// order, not severity.
func AnalyzePerformance(m JobMetrics) PerformanceReport {
	report := PerformanceReport{
		CostUSD:  EstimateCostUSD(m.BytesProcessed),
		BytesTiB: float64(m.BytesProcessed) / tib,
	}

	if m.DurationSeconds > 0 && m.SlotMillis > 0 {
		report.SlotEfficiency = &SlotEfficiency{
			AvgSlotsUsed:     float64(m.SlotMillis) / (m.DurationSeconds * 1000),
			TotalSlotMinutes: float64(m.SlotMillis) / (1000 * 60),
		}
	}

	if m.BytesProcessed > largeScanBytes {
		report.Suggestions = append(report.Suggestions,
			"Consider using partitioned tables to reduce bytes scanned")
	}
	if m.SlotMillis > highSlotMillis {
		report.Suggestions = append(report.Suggestions,
			"Query may benefit from optimization - high slot usage detected")
	}
	if strings.Contains(strings.ToLower(m.ErrorMessage), "memory") {
		report.Suggestions = append(report.Suggestions,
			"Memory error detected - consider breaking query into smaller stages")
	}
	if m.DurationSeconds > longDurationSeconds {
		report.Suggestions = append(report.Suggestions,
			"Long-running query - consider optimizing JOINs or aggregations")
	}

	return report
}

// CostSuggestions returns the fixed advice list for a dry-run scan estimate,
// combining size thresholds with shallow query-shape checks.
func CostSuggestions(query string, bytes int64) []string {
	var suggestions []string
	if bytes > 100*gib {
		suggestions = append(suggestions,
			"Large query detected - consider using partitioned/clustered tables",
			"Add WHERE clauses to filter data before processing")
	}
	if bytes > 1000*gib {
		suggestions = append(suggestions,
			"Very large query - consider incremental processing or data sampling")
	}
	upper := strings.ToUpper(query)
	if strings.Contains(upper, "SELECT *") {
		suggestions = append(suggestions,
			"Avoid SELECT * - specify only needed columns to reduce bytes scanned")
	}
	if strings.Count(upper, "JOIN") > 5 {
		suggestions = append(suggestions,
			"Multiple JOINs detected - ensure proper indexing and filtering")
	}
	if strings.Contains(upper, "GROUP BY") && strings.Contains(upper, "ORDER BY") {
		suggestions = append(suggestions,
			"Consider using window functions instead of GROUP BY + ORDER BY for better performance")
	}
	return suggestions
}

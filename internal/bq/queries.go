package bq

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/bigquery"
	"google.golang.org/api/iterator"

	"github.com/mkarlsen/datapilot/internal/diag"
	"github.com/mkarlsen/datapilot/internal/models"
)

// CostEstimate is the dry-run cost view of a query.
type CostEstimate struct {
	models.Result
	EstimatedCostUSD float64  `json:"estimated_cost_usd"`
	BytesToProcess   int64    `json:"bytes_to_process"`
	BytesTiB         float64  `json:"bytes_to_process_tb"`
	PricingModel     string   `json:"pricing_model"`
	Suggestions      []string `json:"optimization_suggestions,omitempty"`
	Note             string   `json:"note"`
}

// EstimateQueryCost dry-runs the query with caching disabled and converts the
// scan estimate to on-demand cost plus fixed advice.
func (s *Service) EstimateQueryCost(ctx context.Context, sql string) (*CostEstimate, error) {
	bytes, err := s.dryRunBytes(ctx, sql)
	if err != nil {
		return nil, err
	}
	return &CostEstimate{
		Result:           models.OK(),
		EstimatedCostUSD: diag.EstimateCostUSD(bytes),
		BytesToProcess:   bytes,
		BytesTiB:         float64(bytes) / (1 << 40),
		PricingModel:     "on-demand ($5 per TB)",
		Suggestions:      diag.CostSuggestions(sql, bytes),
		Note:             "This is an estimate. Actual cost may vary based on query execution and caching.",
	}, nil
}

// OptimizationReport is the structural analysis of a query.
type OptimizationReport struct {
	models.Result
	Analysis     diag.QueryAnalysis `json:"query_analysis"`
	Total        int                `json:"total_suggestions"`
	ErrorContext string             `json:"error_context,omitempty"`
}

// SuggestOptimization dry-runs the query for a scan estimate and applies the
// structural optimizer rules, with optional failed-execution error context.
func (s *Service) SuggestOptimization(ctx context.Context, sql, errorContext string) (*OptimizationReport, error) {
	bytes, err := s.dryRunBytes(ctx, sql)
	if err != nil {
		return nil, err
	}
	analysis := diag.SuggestOptimizations(sql, bytes, errorContext)
	return &OptimizationReport{
		Result:       models.OK(),
		Analysis:     analysis,
		Total:        analysis.TotalSuggestions(),
		ErrorContext: errorContext,
	}, nil
}

func (s *Service) dryRunBytes(ctx context.Context, sql string) (int64, error) {
	q := s.client.Query(sql)
	q.DryRun = true
	q.DisableQueryCache = true

	job, err := q.Run(ctx)
	if err != nil {
		return 0, fmt.Errorf("dry-running query: %w", err)
	}
	if stats, ok := queryStats(job.LastStatus()); ok {
		return stats.TotalBytesProcessed, nil
	}
	return 0, nil
}

// FreshnessAlert is raised when a table is past its freshness threshold.
type FreshnessAlert struct {
	Severity           string  `json:"severity"`
	Message            string  `json:"message"`
	HoursOverThreshold float64 `json:"hours_over_threshold"`
}

// FreshnessReport is the staleness view of one table.
type FreshnessReport struct {
	models.Result
	Dataset          string          `json:"dataset"`
	Table            string          `json:"table"`
	FreshnessStatus  string          `json:"freshness_status"`
	LastModified     string          `json:"last_modified"`
	HoursSinceUpdate float64         `json:"hours_since_update"`
	DaysSinceUpdate  float64         `json:"days_since_update"`
	ThresholdHours   int             `json:"threshold_hours"`
	Alert            *FreshnessAlert `json:"alert,omitempty"`
}

// evaluateFreshness compares a table's last-modified time to the threshold.
// Within 2x threshold the alert is a warning, beyond that an error.
func evaluateFreshness(lastModified, now time.Time, thresholdHours int) (status string, alert *FreshnessAlert, hours float64) {
	hours = now.Sub(lastModified).Hours()
	if hours <= float64(thresholdHours) {
		return "fresh", nil, hours
	}

	severity := "warning"
	if hours > float64(thresholdHours)*2 {
		severity = "error"
	}
	alert = &FreshnessAlert{
		Severity: severity,
		Message: fmt.Sprintf("Data is %.1f days old (threshold: %d hours)",
			hours/24, thresholdHours),
		HoursOverThreshold: hours - float64(thresholdHours),
	}
	return "stale", alert, hours
}

// CheckDataFreshness compares the table's last-modified time against the
// freshness threshold (default 24h).
func (s *Service) CheckDataFreshness(ctx context.Context, dataset, table string, thresholdHours int) (*FreshnessReport, error) {
	if thresholdHours <= 0 {
		thresholdHours = 24
	}
	md, err := s.client.Dataset(dataset).Table(table).Metadata(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching table metadata for %s.%s: %w", dataset, table, err)
	}
	if md.LastModifiedTime.IsZero() {
		return nil, fmt.Errorf("could not determine last modified time for %s.%s", dataset, table)
	}

	status, alert, hours := evaluateFreshness(md.LastModifiedTime, s.now().UTC(), thresholdHours)
	return &FreshnessReport{
		Result:           models.OK(),
		Dataset:          dataset,
		Table:            table,
		FreshnessStatus:  status,
		LastModified:     formatTime(md.LastModifiedTime),
		HoursSinceUpdate: hours,
		DaysSinceUpdate:  hours / 24,
		ThresholdHours:   thresholdHours,
		Alert:            alert,
	}, nil
}

// ValidationRule is one check against a table column.
// Type is one of not_null, unique, value.
type ValidationRule struct {
	Column string `json:"column"`
	Type   string `json:"type"`
	Value  string `json:"value,omitempty"`
}

// ValidationOutcome is the per-rule verdict.
type ValidationOutcome struct {
	Rule    ValidationRule `json:"rule"`
	Status  string         `json:"status"`
	Count   int64          `json:"violating_rows,omitempty"`
	Message string         `json:"message,omitempty"`
}

// ValidationReport is the result of running all rules against one table.
type ValidationReport struct {
	models.Result
	Dataset     string              `json:"dataset"`
	Table       string              `json:"table"`
	Validations []ValidationOutcome `json:"validations"`
}

// validationQuery renders the violation-counting SQL for one rule.
func validationQuery(project, dataset, table string, rule ValidationRule) (string, error) {
	ref := fmt.Sprintf("`%s.%s.%s`", project, dataset, table)
	switch rule.Type {
	case "not_null":
		return fmt.Sprintf("SELECT COUNT(*) AS violations FROM %s WHERE %s IS NULL",
			ref, rule.Column), nil
	case "unique":
		return fmt.Sprintf(
			"SELECT COUNT(*) AS violations FROM (SELECT %s FROM %s GROUP BY %s HAVING COUNT(*) > 1)",
			rule.Column, ref, rule.Column), nil
	case "value":
		return fmt.Sprintf("SELECT COUNT(*) AS violations FROM %s WHERE %s != %s",
			ref, rule.Column, rule.Value), nil
	default:
		return "", fmt.Errorf("unknown rule type: %s", rule.Type)
	}
}

// ValidateTableData runs each rule as its own violation-counting query.
// Per-rule failures are recorded in the outcome, not returned as errors, so a
// bad rule does not abort the rest.
func (s *Service) ValidateTableData(ctx context.Context, dataset, table string, rules []ValidationRule) (*ValidationReport, error) {
	report := ValidationReport{
		Result:      models.OK(),
		Dataset:     dataset,
		Table:       table,
		Validations: make([]ValidationOutcome, 0, len(rules)),
	}

	for _, rule := range rules {
		outcome := ValidationOutcome{Rule: rule}

		sql, err := validationQuery(s.project, dataset, table, rule)
		if err != nil {
			outcome.Status = "error"
			outcome.Message = err.Error()
			report.Validations = append(report.Validations, outcome)
			continue
		}

		count, err := s.scalarInt(ctx, sql)
		if err != nil {
			outcome.Status = "error"
			outcome.Message = err.Error()
		} else if count == 0 {
			outcome.Status = "pass"
		} else {
			outcome.Status = "fail"
			outcome.Count = count
		}
		report.Validations = append(report.Validations, outcome)
	}

	return &report, nil
}

func (s *Service) scalarInt(ctx context.Context, sql string) (int64, error) {
	it, err := s.client.Query(sql).Read(ctx)
	if err != nil {
		return 0, err
	}
	var row []bigquery.Value
	if err := it.Next(&row); err != nil {
		return 0, err
	}
	count, ok := row[0].(int64)
	if !ok {
		return 0, fmt.Errorf("unexpected scalar type %T", row[0])
	}
	return count, nil
}

// TableSample is a random sample of table rows.
type TableSample struct {
	models.Result
	Dataset    string                      `json:"dataset"`
	Table      string                      `json:"table"`
	SampleSize int                         `json:"sample_size"`
	Rows       []map[string]bigquery.Value `json:"data"`
}

// SampleTableData pulls up to sampleSize random rows via ORDER BY RAND().
func (s *Service) SampleTableData(ctx context.Context, dataset, table string, sampleSize int) (*TableSample, error) {
	if sampleSize <= 0 {
		sampleSize = 10
	}
	sql := fmt.Sprintf("SELECT * FROM `%s.%s.%s` ORDER BY RAND() LIMIT %d",
		s.project, dataset, table, sampleSize)

	it, err := s.client.Query(sql).Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("sampling %s.%s: %w", dataset, table, err)
	}

	sample := TableSample{
		Result:     models.OK(),
		Dataset:    dataset,
		Table:      table,
		SampleSize: sampleSize,
		Rows:       []map[string]bigquery.Value{},
	}
	for {
		var row map[string]bigquery.Value
		err := it.Next(&row)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading sample rows: %w", err)
		}
		sample.Rows = append(sample.Rows, row)
	}
	return &sample, nil
}

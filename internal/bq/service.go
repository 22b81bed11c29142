// Package bq wraps the BigQuery SDK behind the tool-facing operations:
// job inspection, cost estimation, diagnostics, and table checks.
package bq

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"cloud.google.com/go/bigquery"
)

// Service is the BigQuery tool backend.
type Service struct {
	client   *bigquery.Client
	project  string
	location string
	logger   *slog.Logger
	now      func() time.Time
}

// NewService connects a BigQuery client for the given project. location is
// used to resolve bare job ids.
func NewService(ctx context.Context, project, location string, logger *slog.Logger) (*Service, error) {
	client, err := bigquery.NewClient(ctx, project)
	if err != nil {
		return nil, fmt.Errorf("creating bigquery client: %w", err)
	}
	return &Service{
		client:   client,
		project:  project,
		location: location,
		logger:   logger,
		now:      time.Now,
	}, nil
}

// Close releases the underlying client.
func (s *Service) Close() error {
	return s.client.Close()
}

func (s *Service) jobFromID(ctx context.Context, jobID string) (*bigquery.Job, error) {
	job, err := s.client.JobFromIDLocation(ctx, jobID, s.location)
	if err != nil {
		return nil, fmt.Errorf("looking up job %s: %w", jobID, err)
	}
	return job, nil
}

func stateString(state bigquery.State) string {
	switch state {
	case bigquery.Pending:
		return "PENDING"
	case bigquery.Running:
		return "RUNNING"
	case bigquery.Done:
		return "DONE"
	default:
		return "UNKNOWN"
	}
}

func queryStats(status *bigquery.JobStatus) (*bigquery.QueryStatistics, bool) {
	if status == nil || status.Statistics == nil {
		return nil, false
	}
	stats, ok := status.Statistics.Details.(*bigquery.QueryStatistics)
	return stats, ok
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

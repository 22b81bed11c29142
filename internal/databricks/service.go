// Package databricks wraps the Databricks workspace API behind the
// tool-facing operations: cluster lifecycle, job submission, and run status.
package databricks

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/databricks/databricks-sdk-go"
)

// Service is the Databricks tool backend, bound to one workspace.
type Service struct {
	client *databricks.WorkspaceClient
	logger *slog.Logger
}

// NewService authenticates against the workspace with a personal access
// token.
func NewService(host, token string, logger *slog.Logger) (*Service, error) {
	if host == "" || token == "" {
		return nil, errors.New("databricks host and token not configured")
	}
	client, err := databricks.NewWorkspaceClient(&databricks.Config{
		Host:  host,
		Token: token,
	})
	if err != nil {
		return nil, fmt.Errorf("creating databricks client: %w", err)
	}
	return &Service{client: client, logger: logger}, nil
}

// formatMillis renders a Databricks epoch-millisecond timestamp, empty when
// unset.
func formatMillis(ms int64) string {
	if ms == 0 {
		return ""
	}
	return time.UnixMilli(ms).UTC().Format(time.RFC3339)
}

// Package tools provides the tool catalogue: registration, MCP handlers, and
// JSON dispatch for the REST API.
package tools

import (
	"context"
	"log/slog"

	"github.com/mkarlsen/datapilot/internal/bq"
	"github.com/mkarlsen/datapilot/internal/config"
	"github.com/mkarlsen/datapilot/internal/databricks"
	"github.com/mkarlsen/datapilot/internal/dataform"
	"github.com/mkarlsen/datapilot/internal/dataproc"
	"github.com/mkarlsen/datapilot/internal/dbt"
	"github.com/mkarlsen/datapilot/internal/gh"
	"github.com/mkarlsen/datapilot/internal/metrics"
)

// Dependencies holds shared service backends for tool handlers.
// A nil backend disables its tool category at registration time.
type Dependencies struct {
	BQ         *bq.Service
	Dataform   *dataform.Service
	GitHub     *gh.Service
	DBT        *dbt.Runner
	Dataproc   *dataproc.Service
	Databricks *databricks.Service
	Metrics    *metrics.Collector
	Logger     *slog.Logger
}

// NewDependencies builds every backend the configuration covers. A backend
// whose configuration is missing or whose client fails to build stays nil.
func NewDependencies(ctx context.Context, cfg config.Config, logger *slog.Logger) *Dependencies {
	deps := &Dependencies{
		Metrics: metrics.NewCollector(),
		Logger:  logger,
	}

	if cfg.GCPProject != "" {
		svc, err := bq.NewService(ctx, cfg.GCPProject, cfg.GCPLocation, logger)
		if err != nil {
			logger.Error("bigquery client init failed", "error", err)
		} else {
			deps.BQ = svc
		}
		deps.Dataproc = dataproc.NewService(cfg.GCPProject, cfg.DataprocRegion, logger)
	}

	if cfg.GCPProject != "" && cfg.DataformRepository != "" {
		svc, err := dataform.NewService(ctx, cfg.GCPProject, cfg.GCPLocation,
			cfg.DataformRepository, cfg.DataformWorkspace, logger)
		if err != nil {
			logger.Error("dataform client init failed", "error", err)
		} else {
			deps.Dataform = svc
		}
	}

	if cfg.GitHubToken != "" && cfg.GitHubRepo != "" {
		svc, err := gh.NewService(ctx, cfg.GitHubToken, cfg.GitHubOwner,
			cfg.GitHubRepo, cfg.GitHubBranch, logger)
		if err != nil {
			logger.Error("github client init failed", "error", err)
		} else {
			deps.GitHub = svc
		}
	}

	if cfg.DBTProjectDir != "" {
		deps.DBT = dbt.NewRunner(cfg.DBTProjectDir, cfg.DBTProfilesDir, logger)
	}

	if cfg.DatabricksHost != "" && cfg.DatabricksToken != "" {
		svc, err := databricks.NewService(cfg.DatabricksHost, cfg.DatabricksToken, logger)
		if err != nil {
			logger.Error("databricks client init failed", "error", err)
		} else {
			deps.Databricks = svc
		}
	}

	return deps
}

// Close releases the backends that hold open connections.
func (d *Dependencies) Close() {
	if d.BQ != nil {
		_ = d.BQ.Close()
	}
	if d.Dataform != nil {
		_ = d.Dataform.Close()
	}
	if d.Dataproc != nil {
		_ = d.Dataproc.Close()
	}
}

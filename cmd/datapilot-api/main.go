// Package main provides the entry point for the datapilot REST API server.
package main

import (
	"context"
	"os"

	"github.com/mkarlsen/datapilot/internal/agent"
	"github.com/mkarlsen/datapilot/internal/api"
	"github.com/mkarlsen/datapilot/internal/config"
	"github.com/mkarlsen/datapilot/internal/taskstore"
	"github.com/mkarlsen/datapilot/internal/tools"
)

const version = "0.1.0"

func main() {
	// Load configuration
	cfg := config.Load()

	// Setup logger (dual output: stderr text + file JSON)
	logger, cleanup := config.SetupLogger(cfg.LogFile, cfg.LogLevel)
	defer cleanup()

	logger.Info("datapilot-api starting",
		"version", version,
		"port", cfg.APIPort,
		"llm_provider", cfg.LLMProvider,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Build backends; unconfigured ones disable their tool category
	deps := tools.NewDependencies(ctx, cfg, logger)
	defer deps.Close()

	registry := tools.NewRegistry(deps)
	registry.RegisterAll()

	// The API serves tools even when the agent cannot be built
	var runner api.Runner
	if ag, err := agent.New(cfg); err != nil {
		logger.Error("agent init failed, /agent routes disabled", "error", err)
	} else {
		runner = ag
	}

	store := taskstore.New(cfg.TaskCapacity, cfg.TaskTTL)

	srv := api.New(registry, runner, store, deps.Metrics, logger, version)

	logger.Info("server ready", "host", cfg.APIHost, "port", cfg.APIPort)

	if err := srv.Start(cfg.APIHost, cfg.APIPort); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}

// Package main provides the entry point for the datapilot MCP server.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/mkarlsen/datapilot/internal/config"
	"github.com/mkarlsen/datapilot/internal/server"
	"github.com/mkarlsen/datapilot/internal/tools"
)

const version = "0.1.0"

func main() {
	// Load configuration
	cfg := config.Load()

	// Setup logger (dual output: stderr text + file JSON, stdout stays free
	// for the MCP transport)
	logger, cleanup := config.SetupLogger(cfg.LogFile, cfg.LogLevel)
	defer cleanup()

	logger.Info("datapilot starting",
		"version", version,
		"gcp_project", cfg.GCPProject,
		"gcp_location", cfg.GCPLocation,
	)

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)
	go func() {
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	// Build backends; unconfigured ones disable their tool category
	deps := tools.NewDependencies(ctx, cfg, logger)
	defer deps.Close()

	// Create and setup server
	srv := server.New(version, logger)
	srv.Setup()

	// Register tools
	registry := tools.NewRegistry(deps)
	registry.RegisterAll()
	registry.Attach(srv.MCPServer())

	logger.Info("server ready, awaiting connections")

	// Run server (blocks until disconnect or context cancelled)
	if err := srv.Run(ctx); err != nil && ctx.Err() == nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}

	logger.Info("shutdown complete")
}

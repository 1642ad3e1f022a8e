package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"inspectd/internal/comments"
	"inspectd/internal/logging"
	"inspectd/internal/mcp"
	"inspectd/internal/navigation"
	"inspectd/internal/store"
)

// serveCmd runs the MCP stdio server
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the inspection tools over MCP stdio",
	Long: `Starts the MCP server on stdin/stdout.

The server loads the checklist registry and comment library, opens the
inspection database, and exposes the inspection workflow as MCP tools
(start_inspection, navigate_section, add_finding, get_status,
suggest_next, complete_inspection and friends).

Register it with an MCP client as a stdio server, for example:
  {"command": "inspectd", "args": ["serve"]}`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	// Handle graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("Received shutdown signal")
		cancel()
	}()

	// Category file logs and the audit trail live under the data dir.
	if err := logging.Initialize(cfg.DataDir); err != nil {
		logger.Warn("File logging disabled", zap.Error(err))
	}
	defer logging.CloseAll()
	if err := logging.InitAudit(); err != nil {
		logger.Warn("Audit log disabled", zap.Error(err))
	}
	defer logging.CloseAudit()

	registry, library, err := openReference(ctx, cfg)
	if err != nil {
		return err
	}
	if len(registry.Available()) == 0 {
		logger.Warn("No checklists loaded", zap.String("dir", cfg.Checklists.Dir))
	}

	st, err := store.New(cfg.Storage.DatabasePath, cfg.GetBusyTimeout())
	if err != nil {
		return fmt.Errorf("open inspection store: %w", err)
	}
	defer st.Close()

	engine := navigation.NewEngine(st, registry)

	toolRegistry := mcp.NewRegistry()
	if err := mcp.NewToolset(registry, library, engine, st).RegisterAll(toolRegistry); err != nil {
		return fmt.Errorf("register tools: %w", err)
	}

	if cfg.IsWatchEnabled() {
		watcher, err := comments.NewWatcher(library, cfg.GetWatchDebounce())
		if err != nil {
			logger.Warn("Comment hot-reload unavailable", zap.Error(err))
		} else if err := watcher.Start(ctx); err != nil {
			logger.Warn("Comment hot-reload failed to start", zap.Error(err))
		} else {
			defer watcher.Stop()
			logger.Info("Watching comment library for changes",
				zap.String("library", cfg.Comments.LibraryPath),
				zap.Duration("debounce", cfg.GetWatchDebounce()))
		}
	}

	logger.Info("Serving MCP on stdio",
		zap.String("name", cfg.Name),
		zap.String("version", cfg.Version),
		zap.Int("tools", toolRegistry.Count()),
		zap.Strings("checklists", registry.Available()))

	srv := mcp.NewServer(cfg.Name, cfg.Version, toolRegistry)
	srv.SetRequestTimeout(cfg.GetRequestTimeout())

	err = srv.Serve(ctx)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

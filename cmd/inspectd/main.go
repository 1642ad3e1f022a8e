// Package main implements the inspectd command line interface.
package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"inspectd/internal/checklist"
	"inspectd/internal/comments"
	"inspectd/internal/config"
)

var (
	// Global flags
	verbose    bool
	configPath string
	dataDir    string

	// Logger
	logger *zap.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "inspectd",
	Short: "inspectd - residential building inspection MCP server",
	Long: `inspectd runs residential building inspections as a set of MCP tools.

It loads checklist definitions and a boilerplate comment library from YAML,
tracks inspection progress in a local SQLite database, and serves the
inspection workflow (navigate sections, record findings, match comments,
complete) to MCP clients over stdio.

Start the server with:
  inspectd serve`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Initialize logger. Operational logs go to stderr so the MCP
		// stdout channel stays clean.
		config := zap.NewProductionConfig()
		if verbose {
			config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = config.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file path (default: <data-dir>/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "Data directory (default: ./.inspectd)")

	// Add commands to root
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(checklistsCmd)
	rootCmd.AddCommand(matchCmd)
	rootCmd.AddCommand(inspectionsCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(validateCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig resolves the active configuration from flags, the config
// file and environment overrides.
func loadConfig() (*config.Config, error) {
	path := configPath
	if path == "" {
		dir := dataDir
		if dir == "" {
			dir = config.DefaultDataDir()
		}
		path = config.ConfigPath(dir)
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if dataDir != "" {
		cfg.DataDir = dataDir
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// openReference loads the checklist registry and comment library. Both
// degrade to empty on missing files, so commands still run.
func openReference(ctx context.Context, cfg *config.Config) (*checklist.Registry, *comments.Library, error) {
	registry := checklist.NewRegistry(cfg.Checklists.Dir)
	if err := registry.Load(ctx); err != nil {
		return nil, nil, fmt.Errorf("load checklists: %w", err)
	}

	library := comments.NewLibrary(cfg.Comments.LibraryPath, cfg.Comments.CustomPath)
	if err := library.Load(); err != nil {
		return nil, nil, fmt.Errorf("load comment library: %w", err)
	}
	return registry, library, nil
}

func joinArgs(args []string) string {
	return strings.Join(args, " ")
}

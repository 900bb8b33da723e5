package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/httptim/rednet-core/internal/config"
	"github.com/httptim/rednet-core/internal/logging"
	"github.com/httptim/rednet-core/internal/node"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}

// cliFlags holds parsed command-line flag values.
type cliFlags struct {
	configPath string
	nodeID     int
	jsonLogs   bool
	debug      bool
	apiEnabled bool
}

func parseFlags() cliFlags {
	var f cliFlags
	flag.StringVar(&f.configPath, "config", "", "Path to YAML config file (overrides REDNET_CONFIG)")
	flag.IntVar(&f.nodeID, "id", 0, "Override this node's ID (0 means use config value)")
	flag.BoolVar(&f.jsonLogs, "json-logs", false, "Enable JSON structured logging")
	flag.BoolVar(&f.debug, "debug", false, "Enable debug logging")
	flag.BoolVar(&f.apiEnabled, "api", false, "Enable the admin/introspection API regardless of config")
	flag.Parse()
	return f
}

func applyCLIOverrides(cfg *config.Config, f cliFlags) {
	if f.nodeID != 0 {
		cfg.Node.ID = f.nodeID
	}
	if f.jsonLogs {
		cfg.Logging.Structured = true
		cfg.Logging.StructuredFormat = "json"
	}
	if f.debug {
		cfg.Logging.Level = "DEBUG"
	}
	if f.apiEnabled {
		cfg.API.Enabled = true
	}
}

func run() error {
	flags := parseFlags()

	cfg, err := config.Load(config.ResolveConfigPath(flags.configPath))
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	applyCLIOverrides(cfg, flags)

	logger := logging.Configure(logging.Config{
		Level:            cfg.Logging.Level,
		Structured:       cfg.Logging.Structured,
		StructuredFormat: cfg.Logging.StructuredFormat,
		IncludePID:       cfg.Logging.IncludePID,
		ExtraFields:      cfg.Logging.ExtraFields,
	})
	logger.Info("rednet-core starting",
		"node_id", cfg.Node.ID,
		"content_root", cfg.Node.ContentRoot,
		"database", cfg.Database.Path,
		"api_enabled", cfg.API.Enabled,
	)

	n, err := node.New(cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to build node: %w", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := n.Run(ctx); err != nil {
		return fmt.Errorf("node exited with error: %w", err)
	}
	logger.Info("rednet-core stopped")
	return nil
}

// Package cmd provides the CLI commands for ragcore.
package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ragcore/ragcore"
	"github.com/ragcore/ragcore/internal/config"
	"github.com/ragcore/ragcore/internal/logging"
	"github.com/ragcore/ragcore/pkg/version"
)

var (
	rootDir    string
	configPath string
	tenantID   string
	scenarioID string

	loggingCleanup func()
)

// NewRootCmd creates the root command for the ragcore CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "ragcore",
		Short:   "Agentic retrieval-augmented generation core",
		Version: version.Version,
		Long: `ragcore answers questions over a tenant's prepared document
namespace using hybrid (BM25 + vector) retrieval, agentic routing and
citation verification.`,
	}
	cmd.SetVersionTemplate("ragcore version {{.Version}}\n")

	cmd.PersistentFlags().StringVar(&rootDir, "root-dir", defaultRootDir(), "Directory holding namespace indices and metadata")
	cmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to a ragcore YAML config file")
	cmd.PersistentFlags().StringVar(&tenantID, "tenant", "default", "Tenant identifier")
	cmd.PersistentFlags().StringVar(&scenarioID, "scenario", "default", "Scenario identifier within the tenant")

	cmd.PersistentPreRunE = func(cmd *cobra.Command, _ []string) error {
		return setupLogging()
	}
	cmd.PersistentPostRun = func(cmd *cobra.Command, _ []string) {
		if loggingCleanup != nil {
			loggingCleanup()
		}
	}

	cmd.AddCommand(newAskCmd())
	cmd.AddCommand(newPrepareCmd())
	cmd.AddCommand(newStatusCmd())
	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().Execute()
}

func defaultRootDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".ragcore"
	}
	return filepath.Join(home, ".ragcore")
}

// setupLogging routes the process's default logger through ragcore's
// rotating file writer, configured from the active config file's logging
// section (or RAGCORE_LOG_LEVEL), per spec.md's ambient-stack requirement
// that observability isn't dropped just because the retrieval pipeline
// itself is the thing under spec. A config file that fails to load is
// returned as an error; a logging.Setup failure is only warned about, so a
// bad log path does not block an otherwise-working ask/prepare/status call.
func setupLogging() error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, cleanup, err := logging.Setup(logging.ConfigFrom(logging.RagcoreLoggingConfig{
		Level:    cfg.Logging.Level,
		FilePath: cfg.Logging.FilePath,
	}))
	if err != nil {
		slog.Warn("file_logging_disabled", slog.String("error", err.Error()))
		return nil
	}

	slog.SetDefault(logger)
	loggingCleanup = cleanup
	return nil
}

// buildCore constructs a ragcore.Core from the current flags and, if a
// scenario config file exists under <root-dir>/scenarios/<scenario>.yaml,
// registers and hot-reload-watches it; otherwise registers a bare
// scenario with default prompts.
func buildCore() (*ragcore.Core, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	c, err := ragcore.New(cfg, rootDir)
	if err != nil {
		return nil, fmt.Errorf("build core: %w", err)
	}

	scenarioPath := filepath.Join(rootDir, "scenarios", scenarioID+".yaml")
	if _, err := c.WatchScenarioFile(scenarioPath, scenarioID); err != nil {
		return nil, fmt.Errorf("load scenario %q: %w", scenarioID, err)
	}

	return c, nil
}

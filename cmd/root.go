// Package cmd wires the gamevault-backend command line interface.
package cmd

import (
	"context"

	"github.com/Ben2303/gamevault-backend/internal/backup"
	"github.com/Ben2303/gamevault-backend/internal/config"
	"github.com/Ben2303/gamevault-backend/internal/database"
	"github.com/Ben2303/gamevault-backend/internal/logger"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

var (
	cfg *config.Config
	log logger.Logger
)

var rootCmd = &cobra.Command{
	Use:   "gamevault-backend",
	Short: "Self-hosted game library server",
	Long: `gamevault-backend serves the game-library HTTP API and manages
its database, including full backup and restore of the configured
engine (PostgreSQL or SQLite).

Run without a subcommand to start the server.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd, args)
	},
}

// Execute runs the CLI with the given configuration and logger.
func Execute(ctx context.Context, c *config.Config, l logger.Logger) error {
	cfg = c
	log = l
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().String("log-level", "", "Override log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "", "Override log format (text, json)")

	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		level, _ := cmd.Flags().GetString("log-level")
		format, _ := cmd.Flags().GetString("log-format")
		if level != "" || format != "" {
			if level == "" {
				level = cfg.LogLevel
			}
			if format == "" {
				format = cfg.LogFormat
			}
			cfg.LogLevel = level
			cfg.LogFormat = format
			log = logger.New(level, format)
		}
	}
}

// buildBackupStack assembles the controller and orchestrator the backup
// commands and the server share. An unknown DB_SYSTEM does not abort
// startup; the orchestrator reports it on each attempted operation.
func buildBackupStack(fs afero.Fs) (*database.Controller, *backup.Orchestrator) {
	controller := database.NewController(cfg, log)

	runner := backup.NewRunner(log, cfg.CommandTimeout)
	strategy, err := backup.NewStrategy(cfg, log, runner, fs)
	if err != nil {
		log.Warn("Backup engine unavailable", "system", string(cfg.DatabaseSystem), "error", err)
		strategy = backup.UnsupportedStrategy(err)
	}

	return controller, backup.NewOrchestrator(cfg, log, controller, strategy, fs)
}

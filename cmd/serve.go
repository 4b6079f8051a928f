package cmd

import (
	"fmt"

	"github.com/Ben2303/gamevault-backend/internal/images"
	"github.com/Ben2303/gamevault-backend/internal/server"
	"github.com/Ben2303/gamevault-backend/internal/users"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the game-library HTTP server",
	Long: `Connect to the configured database, apply pending schema
migrations, and serve the HTTP API.

Examples:
  # Start with configuration from the environment
  gamevault-backend serve

  # Start with debug logging
  gamevault-backend serve --log-level debug`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	fs := afero.NewOsFs()

	controller, orchestrator := buildBackupStack(fs)

	if err := controller.Connect(ctx); err != nil {
		return fmt.Errorf("cannot connect to database: %w", err)
	}
	defer controller.Disconnect()

	if err := controller.RunMigrations(ctx); err != nil {
		return fmt.Errorf("cannot run migrations: %w", err)
	}

	userSvc := users.NewService(users.NewRepository(controller, log), log)

	imageStore, err := images.NewStore(fs, cfg.ImageDir, log)
	if err != nil {
		return err
	}

	srv := server.NewServer(cfg.ServerAddr, log, orchestrator, userSvc, imageStore, cfg.Version)
	if err := srv.Start(); err != nil {
		return fmt.Errorf("cannot start HTTP server: %w", err)
	}

	<-ctx.Done()
	log.Info("Shutting down")

	if err := srv.Stop(); err != nil {
		log.Warn("HTTP server did not stop cleanly", "error", err)
	}
	return nil
}

package cmd

import (
	"fmt"
	"os"

	"github.com/Ben2303/gamevault-backend/internal/backup"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

var restorePassword string

var restoreCmd = &cobra.Command{
	Use:   "restore <backup-file>",
	Short: "Restore the database from a backup file",
	Long: `Replace the live database with the contents of a backup file. A
snapshot of the current state is taken first and rolled back to if the
restore fails. Gzip-compressed backup files are detected automatically.

Examples:
  gamevault-backend restore --password "$DB_PASSWORD" /backups/gamevault.db`,
	Args: cobra.ExactArgs(1),
	RunE: runRestore,
}

func init() {
	rootCmd.AddCommand(restoreCmd)
	restoreCmd.Flags().StringVar(&restorePassword, "password", "", "Database password (defaults to DB_PASSWORD)")
}

func runRestore(cmd *cobra.Command, args []string) error {
	if restorePassword == "" {
		restorePassword = cfg.Password
	}

	file, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("cannot open backup file: %w", err)
	}
	defer file.Close()

	_, orchestrator := buildBackupStack(afero.NewOsFs())

	if err := orchestrator.Restore(cmd.Context(), backup.RestorePackage{
		Data:     file,
		Password: restorePassword,
	}); err != nil {
		return err
	}

	log.Info("Restore applied", "source", args[0])
	return nil
}

package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

var (
	backupPassword string
	backupOutPath  string
)

var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Create a database backup on the command line",
	Long: `Create a full backup of the configured database and write it to a
local file, using the same engine logic as the HTTP API.

Examples:
  # Write a backup next to the current directory
  gamevault-backend backup --password "$DB_PASSWORD"

  # Write to an explicit path
  gamevault-backend backup --password "$DB_PASSWORD" --out /backups/gamevault.db`,
	RunE: runBackup,
}

func init() {
	rootCmd.AddCommand(backupCmd)
	backupCmd.Flags().StringVar(&backupPassword, "password", "", "Database password (defaults to DB_PASSWORD)")
	backupCmd.Flags().StringVar(&backupOutPath, "out", "", "Output file (defaults to the generated backup filename)")
}

func runBackup(cmd *cobra.Command, args []string) error {
	if backupPassword == "" {
		backupPassword = cfg.Password
	}

	_, orchestrator := buildBackupStack(afero.NewOsFs())

	download, err := orchestrator.Backup(cmd.Context(), backupPassword)
	if err != nil {
		return err
	}
	defer download.Close()

	out := backupOutPath
	if out == "" {
		out = download.Filename
	}

	file, err := os.OpenFile(out, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o640)
	if err != nil {
		return fmt.Errorf("cannot create output file: %w", err)
	}

	written, err := io.Copy(file, download.Reader)
	if err != nil {
		file.Close()
		return fmt.Errorf("cannot write output file: %w", err)
	}
	if err := file.Close(); err != nil {
		return err
	}

	log.Info("Backup written", "path", out, "size", humanize.Bytes(uint64(written)))
	return nil
}

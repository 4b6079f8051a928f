package cmd

import (
	"fmt"

	"github.com/Ben2303/gamevault-backend/internal/database"
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending schema migrations and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		controller := database.NewController(cfg, log)
		if err := controller.Connect(cmd.Context()); err != nil {
			return fmt.Errorf("cannot connect to database: %w", err)
		}
		defer controller.Disconnect()

		return controller.RunMigrations(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}

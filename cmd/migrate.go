package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kagawa-dx/bosaictl/internal/history"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run history database migrations",
	RunE:  runMigrate,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
	migrateCmd.Flags().Bool("down", false, "Roll back all migrations")
}

func runMigrate(cmd *cobra.Command, args []string) error {
	cfg := loadConfig(cmd)
	down, _ := cmd.Flags().GetBool("down")

	if down {
		if err := history.RollbackMigrations(cfg.DatabasePath); err != nil {
			return err
		}
		fmt.Println("migrations rolled back")
		return nil
	}
	if err := history.RunMigrations(cfg.DatabasePath); err != nil {
		return err
	}
	fmt.Println("migrations complete")
	return nil
}

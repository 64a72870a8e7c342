package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	units "github.com/docker/go-units"
	"github.com/spf13/cobra"

	"github.com/kagawa-dx/bosaictl/internal/history"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recent verification runs",
	RunE:  runHistory,
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().Int("limit", 20, "Number of runs to show")
}

func runHistory(cmd *cobra.Command, args []string) error {
	cfg := loadConfig(cmd)
	limit, _ := cmd.Flags().GetInt("limit")

	if err := history.RunMigrations(cfg.DatabasePath); err != nil {
		return fmt.Errorf("history migrations: %w", err)
	}
	db, err := history.Connect(cmd.Context(), cfg.DatabasePath)
	if err != nil {
		return fmt.Errorf("open history: %w", err)
	}
	defer db.Close()

	runs, err := db.ListRuns(cmd.Context(), limit)
	if err != nil {
		return fmt.Errorf("list runs: %w", err)
	}
	if len(runs) == 0 {
		fmt.Println("no verification runs recorded")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tWHEN\tOUTCOME\tATTEMPTS\tSTATUS\tELAPSED")
	for _, run := range runs {
		fmt.Fprintf(w, "%d\t%s ago\t%s\t%d/%d\t%d\t%s\n",
			run.ID,
			units.HumanDuration(time.Since(run.StartedAt)),
			run.Outcome,
			run.AttemptsUsed, run.AttemptBudget,
			run.LastStatus,
			time.Duration(run.ElapsedMS)*time.Millisecond,
		)
	}
	return w.Flush()
}

package cmd

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kagawa-dx/bosaictl/internal/config"
	"github.com/kagawa-dx/bosaictl/internal/gate"
	"github.com/kagawa-dx/bosaictl/internal/report"
)

var waitCmd = &cobra.Command{
	Use:   "wait",
	Short: "Poll the health endpoint until it answers or the budget runs out",
	Long: `wait runs the readiness gate on its own: one HTTP probe per attempt,
a fixed sleep between attempts, stop on the first expected status.
A timeout is reported and exits non-zero; it is not a crash.`,
	RunE: runWait,
}

func init() {
	rootCmd.AddCommand(waitCmd)
	addGateFlags(waitCmd)
}

func addGateFlags(cmd *cobra.Command) {
	cmd.Flags().String("url", "", "Health endpoint URL")
	cmd.Flags().Int("expect", 0, "Expected HTTP status code")
	cmd.Flags().Int("attempts", 0, "Attempt budget")
	cmd.Flags().Duration("interval", 0, "Delay between attempts")
}

// gateConfig merges gate flags over the loaded configuration.
func gateConfig(cmd *cobra.Command, cfg config.Config) gate.Config {
	gcfg := gate.Config{
		URL:          cfg.TargetURL,
		ExpectStatus: cfg.ExpectStatus,
		Attempts:     cfg.Attempts,
		Interval:     cfg.Interval,
	}
	if v, _ := cmd.Flags().GetString("url"); v != "" {
		gcfg.URL = v
	}
	if v, _ := cmd.Flags().GetInt("expect"); v != 0 {
		gcfg.ExpectStatus = v
	}
	if v, _ := cmd.Flags().GetInt("attempts"); v != 0 {
		gcfg.Attempts = v
	}
	if v, _ := cmd.Flags().GetDuration("interval"); v != 0 {
		gcfg.Interval = v
	}
	return gcfg
}

func runWait(cmd *cobra.Command, args []string) error {
	cfg := loadConfig(cmd)
	gcfg := gateConfig(cmd, cfg)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g := gate.New(gcfg, gate.WithProgress(func(attempt, total int) {
		fmt.Println(report.Progress(attempt, total))
	}))

	out, err := g.Run(ctx)
	fmt.Println(report.Headline(gcfg, out))
	return err
}

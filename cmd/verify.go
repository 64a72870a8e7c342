package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/kagawa-dx/bosaictl/internal/config"
	"github.com/kagawa-dx/bosaictl/internal/gate"
	"github.com/kagawa-dx/bosaictl/internal/history"
	"github.com/kagawa-dx/bosaictl/internal/logging"
	"github.com/kagawa-dx/bosaictl/internal/notify"
	"github.com/kagawa-dx/bosaictl/internal/report"
	"github.com/kagawa-dx/bosaictl/internal/signals/listen"
	"github.com/kagawa-dx/bosaictl/internal/signals/logtail"
	"github.com/kagawa-dx/bosaictl/internal/signals/procenv"
	"github.com/kagawa-dx/bosaictl/internal/signals/source"
	"github.com/kagawa-dx/bosaictl/internal/signals/unit"
)

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Run the readiness gate plus all secondary signals",
	Long: `verify runs the readiness gate against the health endpoint and then
collects every secondary signal, whatever the gate said. The signals
are printed side by side and recorded in the run history; they are
never collapsed into a single verdict.`,
	RunE: runVerify,
}

func init() {
	rootCmd.AddCommand(verifyCmd)
	addGateFlags(verifyCmd)
	verifyCmd.Flags().Int("tail", 20, "Log lines to fetch")
	verifyCmd.Flags().StringSlice("must-contain", nil, "Patterns the deployed source must contain")
	verifyCmd.Flags().StringSlice("must-not-contain", nil, "Patterns the deployed source must not contain")
	verifyCmd.Flags().String("syntax-cmd", "", "Command whose exit code validates the source syntax")
}

func runVerify(cmd *cobra.Command, args []string) error {
	cfg := loadConfig(cmd)
	gcfg := gateConfig(cmd, cfg)

	logger, err := logging.NewLogger(cfg.LogDir)
	if err != nil {
		return fmt.Errorf("open run journal: %w", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g := gate.New(gcfg, gate.WithProgress(func(attempt, total int) {
		fmt.Println(report.Progress(attempt, total))
	}))

	started := time.Now().UTC()
	out, gateErr := g.Run(ctx)
	if gateErr != nil && !errors.Is(gateErr, gate.ErrNotReady) {
		return gateErr
	}

	// Secondary signals run regardless of the gate outcome; a timed-out
	// gate is exactly when a human needs them most.
	results := collectSignals(cmd, cfg)
	report.Render(os.Stdout, gcfg, out, results)

	outcome := history.OutcomeReady
	if !out.Ready {
		outcome = history.OutcomeTimedOut
	}
	logger.Info("verification run",
		zap.String("target", gcfg.URL),
		zap.String("outcome", outcome),
		zap.Int("attempt", out.Attempt),
		zap.Int("budget", gcfg.Attempts),
		zap.Int("last_status", out.LastStatus),
		zap.Duration("elapsed", out.Elapsed),
	)

	var bookkeeping error
	if cfg.DatabasePath != "" {
		if err := recordRun(ctx, cfg, gcfg, out, outcome, started, results); err != nil {
			bookkeeping = multierr.Append(bookkeeping, err)
		}
	}
	if !out.Ready && cfg.NtfyTopic != "" {
		ch := notify.NewNtfyChannel(notify.NtfyConfig{
			ServerURL: cfg.NtfyServer,
			Topic:     cfg.NtfyTopic,
			Token:     cfg.NtfyToken,
		})
		if err := ch.Send(ctx, notify.FormatOutcome(cfg.Unit, gcfg, out)); err != nil {
			bookkeeping = multierr.Append(bookkeeping, fmt.Errorf("notify: %w", err))
		}
	}
	if bookkeeping != nil {
		logger.Warn("post-run bookkeeping incomplete", zap.Error(bookkeeping))
		fmt.Fprintf(os.Stderr, "warning: %v\n", bookkeeping)
	}

	return gateErr
}

// collectSignals runs every secondary signal sequentially. Failures
// inside a signal come back as its result status, never as an error.
func collectSignals(cmd *cobra.Command, cfg config.Config) []report.NamedResult {
	tail, _ := cmd.Flags().GetInt("tail")
	mustContain, _ := cmd.Flags().GetStringSlice("must-contain")
	mustNotContain, _ := cmd.Flags().GetStringSlice("must-not-contain")
	syntaxCmd, _ := cmd.Flags().GetString("syntax-cmd")

	unitResult := unit.Run(cfg.Unit)

	var pid int32
	if v, ok := unitResult.Metrics["main_pid"].(int); ok && v > 0 {
		pid = int32(v)
	}

	return []report.NamedResult{
		{Name: unit.Name, Result: unitResult},
		{Name: listen.Name, Result: listen.Run(cfg.Port)},
		{Name: procenv.Name, Result: procenv.Run(pid, cfg.EnvVarNames())},
		{Name: logtail.Name, Result: logtail.Run(cfg.Unit, cfg.LogFile, tail)},
		{Name: source.Name, Result: source.Run(cfg.AppPath, mustContain, mustNotContain, syntaxCmd)},
	}
}

func recordRun(ctx context.Context, cfg config.Config, gcfg gate.Config, out gate.Outcome, outcome string, started time.Time, results []report.NamedResult) error {
	if err := history.RunMigrations(cfg.DatabasePath); err != nil {
		return fmt.Errorf("history migrations: %w", err)
	}
	db, err := history.Connect(ctx, cfg.DatabasePath)
	if err != nil {
		return fmt.Errorf("history: %w", err)
	}
	defer db.Close()

	run := &history.Run{
		TargetURL:     gcfg.URL,
		Outcome:       outcome,
		AttemptsUsed:  out.Attempt,
		AttemptBudget: gcfg.Attempts,
		LastStatus:    out.LastStatus,
		LastError:     out.LastError,
		ElapsedMS:     out.Elapsed.Milliseconds(),
		StartedAt:     started,
	}
	for _, nr := range results {
		run.Signals = append(run.Signals, history.SignalResult{
			Name:    nr.Name,
			Status:  nr.Result.Status,
			Message: nr.Result.Message,
			Data:    history.JSONMap(nr.Result.Data),
		})
	}
	if _, err := db.RecordRun(ctx, run); err != nil {
		return fmt.Errorf("record run: %w", err)
	}
	return nil
}

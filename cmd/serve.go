package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kagawa-dx/bosaictl/internal/history"
	"github.com/kagawa-dx/bosaictl/internal/logging"
	"github.com/kagawa-dx/bosaictl/internal/web"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve a read-only JSON API over the run history",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().Int("port", 8080, "Port to listen on")
	serveCmd.Flags().String("auth-token", "", "Authentication token (or AUTH_TOKEN env)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := loadConfig(cmd)
	port, _ := cmd.Flags().GetInt("port")
	authToken, _ := cmd.Flags().GetString("auth-token")
	if authToken == "" {
		authToken = os.Getenv("AUTH_TOKEN")
	}
	if authToken == "" {
		return fmt.Errorf("auth token required (--auth-token or AUTH_TOKEN)")
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger, err := logging.NewLogger(cfg.LogDir)
	if err != nil {
		return fmt.Errorf("open run journal: %w", err)
	}
	defer logger.Sync()

	if err := history.RunMigrations(cfg.DatabasePath); err != nil {
		return fmt.Errorf("history migrations: %w", err)
	}
	db, err := history.Connect(ctx, cfg.DatabasePath)
	if err != nil {
		return fmt.Errorf("open history: %w", err)
	}
	defer db.Close()

	server := web.NewServer(logger, db, web.Config{Port: port, AuthToken: authToken})
	logger.Info("starting status server", zap.Int("port", port))
	return server.Run(ctx)
}

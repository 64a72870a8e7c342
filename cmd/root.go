package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kagawa-dx/bosaictl/internal/config"
	"github.com/kagawa-dx/bosaictl/internal/signals"
)

// Version is set at build time via -ldflags "-X github.com/kagawa-dx/bosaictl/cmd.Version=..."
var Version = "dev"

var rootCmd = &cobra.Command{
	Use:   "bosaictl",
	Short: "Deployment verification for the Bosai DX stockpile app",
	Long: `bosaictl checks that the stockpile inventory app came back after a
deploy: it polls the health endpoint with a bounded attempt budget and
collects independent secondary signals (listen state, unit metadata,
log tail, environment propagation, source sanity) for human judgment.`,
	SilenceUsage: true,
}

const signalGroupID = "signals"

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddGroup(&cobra.Group{ID: signalGroupID, Title: "Secondary Signals:"})
	rootCmd.PersistentFlags().StringP("database", "d", "", "SQLite history database path")
	rootCmd.PersistentFlags().String("env-file", "", "Path to a .env file loaded before the environment")
	rootCmd.PersistentFlags().String("log-dir", "", "Directory for the structured run journal")

	rootCmd.Flags().BoolP("version", "v", false, "Print version and exit")
	rootCmd.Flags().Bool("describe", false, "Output built-in signal descriptions as JSON array")

	rootCmd.Run = func(cmd *cobra.Command, args []string) {
		if v, _ := cmd.Flags().GetBool("version"); v {
			fmt.Printf("bosaictl version %s\n", Version)
			return
		}
		if describe, _ := cmd.Flags().GetBool("describe"); describe {
			json.NewEncoder(os.Stdout).Encode(signals.GetAllDescriptions())
			return
		}
		cmd.Help()
	}
}

// loadConfig builds the effective configuration for a command:
// defaults, then .env, then environment, then persistent flags.
func loadConfig(cmd *cobra.Command) config.Config {
	envFile, _ := cmd.Flags().GetString("env-file")
	cfg := config.Load(envFile)
	if v, _ := cmd.Flags().GetString("database"); v != "" {
		cfg.DatabasePath = v
	}
	if v, _ := cmd.Flags().GetString("log-dir"); v != "" {
		cfg.LogDir = v
	}
	return cfg
}

package cmd

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"

	"github.com/kagawa-dx/bosaictl/internal/signal"
	"github.com/kagawa-dx/bosaictl/internal/signals/listen"
	"github.com/kagawa-dx/bosaictl/internal/signals/logtail"
	"github.com/kagawa-dx/bosaictl/internal/signals/procenv"
	"github.com/kagawa-dx/bosaictl/internal/signals/source"
	"github.com/kagawa-dx/bosaictl/internal/signals/unit"
)

// listen signal
var listenCmd = &cobra.Command{
	Use:   listen.Name,
	Short: "Check whether a TCP port is in a listening state",
	Run: func(cmd *cobra.Command, args []string) {
		port, _ := cmd.Flags().GetInt("port")
		if port == 0 {
			port = loadConfig(cmd).Port
		}
		outputResult(listen.Run(port))
	},
}

// unit signal
var unitCmd = &cobra.Command{
	Use:   unit.Name,
	Short: "Report systemd unit state, restart count and last exit code",
	Run: func(cmd *cobra.Command, args []string) {
		name, _ := cmd.Flags().GetString("unit")
		if name == "" {
			name = loadConfig(cmd).Unit
		}
		outputResult(unit.Run(name))
	},
}

// logtail signal
var logtailCmd = &cobra.Command{
	Use:   logtail.Name,
	Short: "Fetch the most recent lines of the service log",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig(cmd)
		unitName, _ := cmd.Flags().GetString("unit")
		file, _ := cmd.Flags().GetString("file")
		lines, _ := cmd.Flags().GetInt("lines")
		if unitName == "" && file == "" {
			unitName, file = cfg.Unit, cfg.LogFile
		}
		outputResult(logtail.Run(unitName, file, lines))
	},
}

// procenv signal
var procenvCmd = &cobra.Command{
	Use:   procenv.Name,
	Short: "Check that environment variables propagated into a running process",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig(cmd)
		pid, _ := cmd.Flags().GetInt32("pid")
		vars, _ := cmd.Flags().GetStringSlice("vars")
		if len(vars) == 0 {
			vars = cfg.EnvVarNames()
		}
		outputResult(procenv.Run(pid, vars))
	},
}

// source signal
var sourceCmd = &cobra.Command{
	Use:   source.Name,
	Short: "Check deployed source for expected and known-bad patterns",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig(cmd)
		path, _ := cmd.Flags().GetString("path")
		if path == "" {
			path = cfg.AppPath
		}
		mustContain, _ := cmd.Flags().GetStringSlice("contains")
		mustNotContain, _ := cmd.Flags().GetStringSlice("absent")
		syntaxCmd, _ := cmd.Flags().GetString("syntax-cmd")
		outputResult(source.Run(path, mustContain, mustNotContain, syntaxCmd))
	},
}

func init() {
	listenCmd.GroupID = signalGroupID
	unitCmd.GroupID = signalGroupID
	logtailCmd.GroupID = signalGroupID
	procenvCmd.GroupID = signalGroupID
	sourceCmd.GroupID = signalGroupID
	rootCmd.AddCommand(listenCmd)
	rootCmd.AddCommand(unitCmd)
	rootCmd.AddCommand(logtailCmd)
	rootCmd.AddCommand(procenvCmd)
	rootCmd.AddCommand(sourceCmd)

	// listen flags
	listenCmd.Flags().Int("port", 0, "TCP port to look for")

	// unit flags
	unitCmd.Flags().String("unit", "", "systemd unit name")

	// logtail flags
	logtailCmd.Flags().String("unit", "", "systemd unit to read via journalctl")
	logtailCmd.Flags().String("file", "", "Log file to tail when no unit is given")
	logtailCmd.Flags().Int("lines", 20, "Number of lines to fetch")

	// procenv flags
	procenvCmd.Flags().Int32("pid", 0, "Process ID to inspect")
	procenvCmd.Flags().StringSlice("vars", nil, "Variable names to look for")

	// source flags
	sourceCmd.Flags().String("path", "", "Source file to inspect")
	sourceCmd.Flags().StringSlice("contains", nil, "Patterns that must be present")
	sourceCmd.Flags().StringSlice("absent", nil, "Patterns that must not be present")
	sourceCmd.Flags().String("syntax-cmd", "", "Command whose exit code validates the file's syntax")
}

func outputResult(result *signal.Result) {
	json.NewEncoder(os.Stdout).Encode(result)
}

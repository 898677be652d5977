package cli

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"

	"github.com/hostdash/hostdash/pkg/color"
	"github.com/hostdash/hostdash/pkg/config"
	"github.com/hostdash/hostdash/pkg/logging"
)

var (
	jsonOutput bool
	noColor    bool
	configPath string
	rootCmd    = &cobra.Command{
		Use:   "hostdash",
		Short: "hostdash - single-host remote control dashboard",
		Long: `hostdash serves a small web dashboard for one host: a keystroke recorder
that can be started and stopped remotely, a file browser confined to one
directory tree, host telemetry, process listings and screenshots.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			color.Init(noColor)
		},
	}
)

func init() {
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output in JSON format")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default "+config.DefaultPath()+")")
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmtErr("%v", err)
		os.Exit(1)
	}
}

// outputJSON prints v as JSON if --json flag is set, otherwise does nothing.
func outputJSON(v any) error {
	if !jsonOutput {
		return nil
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// setupLogging installs the configured logger as the global one.
func setupLogging(cfg *config.Config) (*logging.Logger, error) {
	log, err := logging.New(cfg.Logging.Level, cfg.Logging.Format, os.Stderr)
	if err != nil {
		return nil, err
	}
	logging.SetGlobal(log)
	return log, nil
}

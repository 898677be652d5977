package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hostdash/hostdash/pkg/color"
)

var capabilitiesCmd = &cobra.Command{
	Use:   "capabilities",
	Short: "Probe optional host features",
	Long: `Probe the optional host features the dashboard depends on: terminal input
capture, screenshots, host telemetry and network reachability.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		log, err := setupLogging(cfg)
		if err != nil {
			return err
		}

		reports := probeHost(cmd.Context(), cfg, log).Reports()
		if jsonOutput {
			return outputJSON(reports)
		}
		for _, r := range reports {
			if r.Available {
				fmt.Printf("  %s %s\n", color.Success("yes"), r.Name)
				continue
			}
			fmt.Printf("  %s %s %s\n", color.Warning("no "), r.Name, color.Dim("("+r.Reason+")"))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(capabilitiesCmd)
}

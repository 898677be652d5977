package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hostdash/hostdash/internal/doctor"
	"github.com/hostdash/hostdash/pkg/color"
)

var (
	doctorStrict bool
)

var errUnhealthy = errors.New("host is not healthy")

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check host setup",
	Long: `Check host setup.

Runs diagnostic checks on the browse root, the audit trail and the optional
host capabilities, and reports any issues. Use --strict to also scan the
browse root for files left behind by interrupted uploads.`,
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

		caps := probeHost(cmd.Context(), cfg, log)
		doc := doctor.NewDoctor(cfg.Browser.Root, cfg.Audit.Path, caps)
		result, err := doc.Check(cmd.Context(), doctorStrict)
		if err != nil {
			return fmt.Errorf("doctor: %w", err)
		}

		if jsonOutput {
			if err := outputJSON(result); err != nil {
				return err
			}
		} else if len(result.Findings) == 0 {
			fmt.Println(color.Success("Host is healthy."))
		} else {
			fmt.Printf("Findings (%d):\n", len(result.Findings))
			for _, f := range result.Findings {
				fmt.Printf("  [%s] %s: %s\n", color.Severity(f.Severity), f.Category, f.Description)
			}
		}

		if !result.Healthy {
			return errUnhealthy
		}
		return nil
	},
}

func init() {
	doctorCmd.Flags().BoolVar(&doctorStrict, "strict", false, "also scan for leftover upload temp files")
	rootCmd.AddCommand(doctorCmd)
}

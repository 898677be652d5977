package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hostdash/hostdash/internal/audit"
	"github.com/hostdash/hostdash/pkg/color"
)

var auditTail int

var errAuditDisabled = errors.New("audit trail is disabled (audit.path is empty)")

var auditCmd = &cobra.Command{
	Use:   "audit <command>",
	Short: "Inspect the audit trail",
	Long: `Inspect the hash-chained audit trail of capture sessions, uploads and
rejected paths.

Available commands:
  log     - Print recent records
  verify  - Check the hash chain`,
	DisableFlagsInUseLine: true,
}

func openAudit() (*audit.FileAppender, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	if cfg.Audit.Path == "" {
		return nil, errAuditDisabled
	}
	return audit.NewFileAppender(cfg.Audit.Path), nil
}

var auditLogCmd = &cobra.Command{
	Use:   "log",
	Short: "Print recent records",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openAudit()
		if err != nil {
			return err
		}
		records, err := a.Records()
		if err != nil {
			return err
		}
		if auditTail > 0 && len(records) > auditTail {
			records = records[len(records)-auditTail:]
		}

		if jsonOutput {
			return outputJSON(records)
		}
		for _, r := range records {
			fmt.Printf("%s  %-14s %s %v\n",
				color.Dim(r.Timestamp.Format("2006-01-02 15:04:05")),
				r.EventType, color.Path(r.Path), r.Details)
		}
		return nil
	},
}

var auditVerifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Check the hash chain",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openAudit()
		if err != nil {
			return err
		}
		n, err := a.Verify()
		if jsonOutput {
			res := map[string]any{"records": n, "valid": err == nil}
			if err != nil {
				res["error"] = err.Error()
			}
			if jerr := outputJSON(res); jerr != nil {
				return jerr
			}
			return err
		}
		if err != nil {
			return err
		}
		fmt.Printf("%s %d records in %s\n", color.Success("Verified"), n, color.Path(a.Path()))
		return nil
	},
}

func init() {
	auditLogCmd.Flags().IntVarP(&auditTail, "tail", "n", 20, "number of most recent records (0 for all)")
	auditCmd.AddCommand(auditLogCmd, auditVerifyCmd)
	rootCmd.AddCommand(auditCmd)
}

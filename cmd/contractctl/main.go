// Command contractctl is the operator CLI for the contract service: PDF
// retention, listing and inspection, plus an SMTP connectivity check.
package main

import (
	"os"

	"github.com/spf13/cobra"

	"contract-backend/internal/shared/config"
	"contract-backend/internal/shared/telemetry"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var cfg config.Config

	root := &cobra.Command{
		Use:          "contractctl",
		Short:        "Operate the contract generator",
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			cfg = config.Load()
			if dir, _ := cmd.Flags().GetString("pdf-dir"); dir != "" {
				cfg.PDFDir = dir
			}
			telemetry.Configure(cmd.ErrOrStderr(), cfg.LogLevel, "text")
		},
	}
	root.PersistentFlags().String("pdf-dir", "", "PDF directory (overrides PDF_DIR)")

	cfgFn := func() config.Config { return cfg }
	root.AddCommand(
		newCleanupCmd(cfgFn),
		newPDFsCmd(cfgFn),
		newInspectCmd(cfgFn),
		newEmailTestCmd(cfgFn),
	)
	return root
}

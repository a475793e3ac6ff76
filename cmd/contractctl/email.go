package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"contract-backend/internal/bootstrap"
	"contract-backend/internal/email"
	"contract-backend/internal/shared/config"
)

func newEmailTestCmd(cfg func() config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "email-test",
		Short: "Show the SMTP configuration and try to connect",
		RunE: func(cmd *cobra.Command, args []string) error {
			d := email.NewDispatcher(bootstrap.EmailConfig(cfg().SMTP))
			st := d.Status()
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "server:   %s:%d\nsender:   %s <%s>\ncomplete: %t\n", st.Server, st.Port, st.SenderName, st.SenderEmail, st.ConfigurationComplete)
			if !d.Configured() {
				return email.ErrNotConfigured
			}
			res := d.Test(cmd.Context())
			fmt.Fprintln(out, res.Message)
			if !res.OK {
				return fmt.Errorf("smtp check failed")
			}
			return nil
		},
	}
}

package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newResetCmd(rc *RootConfig) *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Return the challenge to level 1",
		Long: `Return the challenge to level 1 at the initial balance and delete the
session's stored trades.

Example:
  goldtracker reset`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd, rc)
			if err != nil {
				return err
			}
			if err := a.session.Reset(); err != nil {
				a.abort()
				return err
			}
			if err := a.close(); err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "✓ Session %s purged\n", a.cfg.Store.SessionID)
			fmt.Fprintf(out, "✓ Challenge reset to level 1 at $%.2f\n", a.cfg.Challenge.InitialBalance)
			return nil
		},
	}
}

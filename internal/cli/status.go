package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newStatusCmd(rc *RootConfig) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the current level, balance and challenge summary",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd, rc)
			if err != nil {
				return err
			}
			st, err := a.session.State()
			if err != nil {
				a.abort()
				return err
			}
			sum, err := a.session.Summary()
			if err != nil {
				a.abort()
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Challenge: %s %s\n", a.session.Instrument().Name, a.cfg.ChallengeTerms())
			fmt.Fprintf(out, "  Session:  %s (%s store)\n", a.cfg.Store.SessionID, a.cfg.Store.Type)
			fmt.Fprintf(out, "  Level:    %d\n", st.CurrentLevel)
			fmt.Fprintf(out, "  Balance:  $%.2f (start $%.2f, peak $%.2f)\n",
				st.CurrentBalance, sum.InitialBalance, sum.PeakBalance)
			fmt.Fprintf(out, "  Trades:   %d (%d won, %d lost, %.1f%% win rate)\n",
				sum.Trades, sum.Wins, sum.Losses, sum.WinRate)
			fmt.Fprintf(out, "  Net:      %+.2f (won $%.2f, lost $%.2f)\n", sum.Net, sum.TotalWon, sum.TotalLost)
			fmt.Fprintf(out, "  Max DD:   %.2f%%\n", sum.MaxDrawdownPct)
			a.printWarnings(out)
			return a.close()
		},
	}
}

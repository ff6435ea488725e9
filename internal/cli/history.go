package cli

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/goldtracker/journal"
	"github.com/rustyeddy/goldtracker/ledger"
)

func newHistoryCmd(rc *RootConfig) *cobra.Command {
	var (
		asOrg bool
		asCSV bool
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List the challenge's trades, newest first",
		Long: `List recorded trades as a table, an Org-mode journal or CSV.

Examples:
  goldtracker history
  goldtracker history --org > challenge.org
  goldtracker history --csv > challenge.csv`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if asOrg && asCSV {
				return fmt.Errorf("--org and --csv are exclusive")
			}
			a, err := openApp(cmd, rc)
			if err != nil {
				return err
			}
			st, err := a.session.State()
			if err != nil {
				a.abort()
				return err
			}

			out := cmd.OutOrStdout()
			switch {
			case asCSV:
				err = journal.WriteCSV(out, st.History)
			case asOrg:
				err = writeOrg(out, a, st.History)
			default:
				writeTable(out, st.History)
				a.printWarnings(out)
			}
			if err != nil {
				a.abort()
				return err
			}
			return a.close()
		},
	}

	cmd.Flags().BoolVar(&asOrg, "org", false, "write an Org-mode journal")
	cmd.Flags().BoolVar(&asCSV, "csv", false, "write CSV")
	return cmd
}

func writeTable(w io.Writer, history []ledger.TradeRecord) {
	if len(history) == 0 {
		fmt.Fprintln(w, "No trades recorded")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "LEVEL\tRESULT\tSTART\tRISK\tLOT\tGOAL\tAMOUNT\tEND\tRR\tDATE\t")
	for _, r := range history {
		fmt.Fprintf(tw, "%d\t%s\t%.2f\t%.2f\t%.2f\t%.2f\t%+.2f\t%.2f\t%s\t%s\t\n",
			r.Level, r.Result, r.StartingBalance, r.RiskAmount, r.LotSize, r.ProfitGoal,
			r.Change(), r.EndingBalance, r.RewardRatio, r.CreatedAt.Local().Format("2006-01-02 15:04"))
	}
	tw.Flush()
}

func writeOrg(w io.Writer, a *app, history []ledger.TradeRecord) error {
	sum, err := a.session.Summary()
	if err != nil {
		return err
	}
	rep := journal.ChallengeReport{
		SessionID:  a.cfg.Store.SessionID,
		Instrument: a.session.Instrument().Name,
		TargetPips: a.cfg.Challenge.TargetPips,
		RiskPct:    a.cfg.Challenge.RiskPercentage,
		Summary:    sum,
	}
	if n := len(history); n > 0 {
		rep.Created = history[n-1].CreatedAt
	}
	head, err := journal.FormatChallengeOrg(rep)
	if err != nil {
		return fmt.Errorf("format org: %w", err)
	}
	fmt.Fprint(w, head)
	if len(history) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, journal.FormatTradesOrg(history))
	}
	return nil
}

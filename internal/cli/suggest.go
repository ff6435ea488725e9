package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/goldtracker/risk"
)

func newSuggestCmd(rc *RootConfig) *cobra.Command {
	var flags selectionFlags

	cmd := &cobra.Command{
		Use:   "suggest",
		Short: "Show the next trade's risk, lot size and profit goal",
		Long: `Compute the money rules against the current balance.

Selection flags apply to this suggestion only; edit the selection section
of the config file to change the defaults.

Examples:
  goldtracker suggest
  goldtracker suggest --rr 2
  goldtracker suggest --profit-mode pips --lot 0.25`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(rc)
			if err != nil {
				return err
			}
			flags.apply(cmd, &cfg.Selection)

			a, err := startApp(cmd, cfg, true)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			a.printWarnings(out)
			if err := printSuggestion(out, a); err != nil {
				a.abort()
				return err
			}
			return a.close()
		},
	}
	flags.register(cmd)
	return cmd
}

// printSuggestion writes the next-trade plan and any budget violations.
func printSuggestion(w io.Writer, a *app) error {
	st, err := a.session.State()
	if err != nil {
		return err
	}
	sug, err := a.session.Suggestion()
	if err != nil {
		return fmt.Errorf("suggestion: %w", err)
	}
	inst := a.session.Instrument()

	lot := "auto"
	if sug.ManualLotUsed {
		lot = "manual"
	}
	goal := sug.RewardRatio.String()
	if sug.ProfitMode == risk.ProfitModePips {
		goal = fmt.Sprintf("%g pips", sug.TargetPips)
	}

	fmt.Fprintf(w, "Level %d  Balance $%.2f\n", st.CurrentLevel, st.CurrentBalance)
	fmt.Fprintf(w, "  Risk:        $%.2f (%g%%)\n", sug.RiskAmount, a.cfg.Challenge.RiskPercentage)
	fmt.Fprintf(w, "  Lot size:    %.2f (%s)\n", sug.LotSize, lot)
	fmt.Fprintf(w, "  Profit goal: $%.2f (%s)\n", sug.ProfitSelected, goal)
	fmt.Fprintf(w, "  Range:       $%.2f - $%.2f\n", sug.ProfitMin, sug.ProfitMax)
	fmt.Fprintf(w, "  At %g pips:  $%.2f\n", sug.TargetPips, sug.ExpectedProfitAtPips)
	fmt.Fprintf(w, "  %s\n", inst.PipNote(sug.TargetPips))

	for _, v := range risk.Review(sug, st.CurrentBalance).Violations {
		fmt.Fprintf(w, "  ⚠ %s: %s\n", v.Code, v.Msg)
	}
	return nil
}

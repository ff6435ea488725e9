package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/goldtracker/market"
	"github.com/rustyeddy/goldtracker/risk"
)

func newCalcCmd(rc *RootConfig) *cobra.Command {
	var flags selectionFlags

	cmd := &cobra.Command{
		Use:   "calc <balance>",
		Short: "Money-management budget for a balance",
		Long: fmt.Sprintf(`Show the %.0f%% risk limit, the maximum lot (%.2f per $100) and the
1.5R/2R targets for a balance, then review the challenge's suggestion at
that balance against them. No store is opened.

Example:
  goldtracker calc 2500`, risk.BudgetRiskPct, risk.BudgetLotPer100),
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			balance, err := strconv.ParseFloat(args[0], 64)
			if err != nil {
				return fmt.Errorf("balance: %w", err)
			}
			if balance <= 0 {
				return fmt.Errorf("balance must be positive")
			}
			cfg, err := loadConfig(rc)
			if err != nil {
				return err
			}
			flags.apply(cmd, &cfg.Selection)
			sel, err := cfg.Selections()
			if err != nil {
				return fmt.Errorf("selection: %w", err)
			}
			inst, err := market.Lookup(cfg.Challenge.Instrument)
			if err != nil {
				return err
			}

			b := risk.Budget(balance)
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Budget for $%.2f\n", b.Balance)
			fmt.Fprintf(out, "  Risk limit:  $%.2f (%.0f%%)\n", b.RiskLimit, risk.BudgetRiskPct)
			fmt.Fprintf(out, "  Max lot:     %.2f\n", b.MaxLot)
			fmt.Fprintf(out, "  Target 1.5R: $%.2f\n", b.TargetMin)
			fmt.Fprintf(out, "  Target 2R:   $%.2f\n", b.TargetIdeal)

			sug, err := risk.Suggest(risk.Params{
				Balance:        balance,
				RiskPercentage: cfg.Challenge.RiskPercentage,
				TargetPips:     cfg.Challenge.TargetPips,
				PipValuePerLot: inst.PipValuePerLot,
				RewardRatio:    sel.RewardRatio,
				ProfitMode:     sel.ProfitMode,
				LotMode:        sel.LotMode,
				ManualLot:      sel.ManualLot,
			})
			if err != nil {
				return fmt.Errorf("suggestion: %w", err)
			}
			d := risk.Review(sug, balance)
			fmt.Fprintf(out, "\nChallenge suggestion at %g%%: %s\n", cfg.Challenge.RiskPercentage, sug)
			if d.Allowed {
				fmt.Fprintln(out, "✓ Within budget")
				return nil
			}
			for _, v := range d.Violations {
				fmt.Fprintf(out, "⚠ %s: %s\n", v.Code, v.Msg)
			}
			return nil
		},
	}
	flags.register(cmd)
	return cmd
}

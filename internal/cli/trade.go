package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/goldtracker/ledger"
)

// newTradeCmd builds the "win" and "loss" commands.
func newTradeCmd(rc *RootConfig, use string) *cobra.Command {
	result := ledger.Win
	if use == "loss" {
		result = ledger.Loss
	}

	return &cobra.Command{
		Use:   use + " <amount>",
		Short: fmt.Sprintf("Record a %s at the current level", use),
		Long: fmt.Sprintf(`Record the outcome of the trade suggested for the current level.

The amount is the realized %s in account currency. The record is
written to the ledger store before the command exits.

Example:
  goldtracker %s 450`, use, use),
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := strconv.ParseFloat(args[0], 64)
			if err != nil {
				return fmt.Errorf("amount: %w", err)
			}

			a, err := openApp(cmd, rc)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			a.printWarnings(out)

			var rec ledger.TradeRecord
			if result == ledger.Win {
				rec, err = a.session.RecordWin(amount)
			} else {
				rec, err = a.session.RecordLoss(amount)
			}
			if err != nil {
				a.abort()
				return err
			}
			if err := a.close(); err != nil {
				fmt.Fprintf(out, "⚠ Level %d recorded locally but not stored\n", rec.Level)
				return err
			}

			fmt.Fprintf(out, "✓ Level %d %s %+.2f: $%.2f -> $%.2f\n",
				rec.Level, rec.Result, rec.Change(), rec.StartingBalance, rec.EndingBalance)
			if rec.EndingBalance <= 0 {
				fmt.Fprintln(out, "⚠ balance is zero")
			}
			return nil
		},
	}
}

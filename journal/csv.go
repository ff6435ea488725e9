package journal

import (
	"encoding/csv"
	"io"
	"strconv"
	"time"

	"github.com/rustyeddy/goldtracker/ledger"
)

var csvHeader = []string{
	"id", "level", "starting_balance", "risk_percentage", "risk_amount", "profit_goal", "pips",
	"lot_size", "result", "win_amount", "loss_amount", "reward_ratio", "created_at", "ending_balance",
}

// WriteCSV writes records in the order given, one row per trade, with the
// store's column names as header. Unset amounts are empty cells.
func WriteCSV(w io.Writer, records []ledger.TradeRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, r := range records {
		if err := cw.Write([]string{
			r.ID,
			strconv.Itoa(r.Level),
			money(r.StartingBalance),
			num(r.RiskPercentage),
			money(r.RiskAmount),
			money(r.ProfitGoal),
			num(r.Pips),
			money(r.LotSize),
			string(r.Result),
			optMoney(r.WinAmount),
			optMoney(r.LossAmount),
			num(float64(r.RewardRatio)),
			r.CreatedAt.UTC().Format(time.RFC3339),
			money(r.EndingBalance),
		}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func money(x float64) string {
	return strconv.FormatFloat(x, 'f', 2, 64)
}

func num(x float64) string {
	return strconv.FormatFloat(x, 'f', -1, 64)
}

func optMoney(x *float64) string {
	if x == nil {
		return ""
	}
	return money(*x)
}

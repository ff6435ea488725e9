package risk

import "github.com/rustyeddy/goldtracker/pkg/errs"

// RiskAmount is the money put at risk on one trade: balance × pct/100,
// rounded to cents.
func RiskAmount(balance, riskPct float64) float64 {
	return Round2(balance * (riskPct / 100))
}

// ProfitFromPips is the profit of a move of pips with the given lot size.
// pipValuePerLot is an instrument fact (10 for XAU/USD).
func ProfitFromPips(pips, lot, pipValuePerLot float64) float64 {
	return pips * lot * pipValuePerLot
}

// LotForProfit returns the lot size that earns profit over pips.
func LotForProfit(profit, pips, pipValuePerLot float64) (float64, error) {
	if !finite(pips) || pips <= 0 {
		return 0, errs.Invalid("target_pips", "must be positive, got %v", pips)
	}
	if !finite(pipValuePerLot) || pipValuePerLot <= 0 {
		return 0, errs.Invalid("pip_value_per_lot", "must be positive, got %v", pipValuePerLot)
	}
	return profit / (pips * pipValuePerLot), nil
}

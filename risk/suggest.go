package risk

import "github.com/rustyeddy/goldtracker/pkg/errs"

// Validate checks Params without computing anything.
func (p Params) Validate() error {
	if !finite(p.Balance) || p.Balance < 0 {
		return errs.Invalid("balance", "must be a finite number >= 0, got %v", p.Balance)
	}
	if !finite(p.RiskPercentage) || p.RiskPercentage <= 0 || p.RiskPercentage > 100 {
		return errs.Invalid("risk_percentage", "must be in (0, 100], got %v", p.RiskPercentage)
	}
	if !finite(p.TargetPips) || p.TargetPips <= 0 {
		return errs.Invalid("target_pips", "must be positive, got %v", p.TargetPips)
	}
	if !finite(p.PipValuePerLot) || p.PipValuePerLot <= 0 {
		return errs.Invalid("pip_value_per_lot", "must be positive, got %v", p.PipValuePerLot)
	}
	if !p.RewardRatio.Valid() {
		return errs.Invalid("reward_ratio", "must be 1.5 or 2, got %v", float64(p.RewardRatio))
	}
	if !p.ProfitMode.Valid() {
		return errs.Invalid("profit_mode", "unknown mode %q", p.ProfitMode)
	}
	if !p.LotMode.Valid() {
		return errs.Invalid("lot_mode", "unknown mode %q", p.LotMode)
	}
	return nil
}

// Suggest computes the next-trade suggestion. Each derived amount is rounded
// half away from zero to cents as soon as it is produced, so chained values
// match the reference figures exactly.
func Suggest(p Params) (Suggestion, error) {
	if err := p.Validate(); err != nil {
		return Suggestion{}, err
	}

	riskAmount := RiskAmount(p.Balance, p.RiskPercentage)
	rewardProfit := Round2(riskAmount * float64(p.RewardRatio))

	autoLot, err := LotForProfit(rewardProfit, p.TargetPips, p.PipValuePerLot)
	if err != nil {
		return Suggestion{}, err
	}

	lot := autoLot
	manual := p.LotMode == LotModeManual && finite(p.ManualLot) && p.ManualLot > 0
	if manual {
		lot = p.ManualLot
	}

	expected := Round2(ProfitFromPips(p.TargetPips, lot, p.PipValuePerLot))

	selected := rewardProfit
	if p.ProfitMode == ProfitModePips {
		selected = expected
	}

	return Suggestion{
		RiskAmount:           riskAmount,
		RewardProfit:         rewardProfit,
		AutoLot:              autoLot,
		LotSize:              Round2(lot),
		ManualLotUsed:        manual,
		ExpectedProfitAtPips: expected,
		ProfitSelected:       selected,
		ProfitMin:            Round2(riskAmount * float64(RR15)),
		ProfitMax:            Round2(riskAmount * float64(RR2)),
		RewardRatio:          p.RewardRatio,
		ProfitMode:           p.ProfitMode,
		LotMode:              p.LotMode,
		TargetPips:           p.TargetPips,
	}, nil
}

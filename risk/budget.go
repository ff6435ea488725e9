package risk

import "fmt"

const (
	// BudgetRiskPct is the per-trade risk ceiling of the money-management
	// rule: 5% lets an account survive 20 straight losses.
	BudgetRiskPct = 5.0

	// BudgetLotPer100 is the lot allowance per $100 of balance.
	BudgetLotPer100 = 0.01
)

// BudgetResult is the money-management envelope for a balance.
type BudgetResult struct {
	Balance     float64
	RiskLimit   float64
	MaxLot      float64
	TargetMin   float64
	TargetIdeal float64
}

// Budget computes the risk limit, the maximum lot and the 1.5R/2R targets
// for a balance. A non-positive or non-finite balance yields zeros.
func Budget(balance float64) BudgetResult {
	if !finite(balance) || balance <= 0 {
		return BudgetResult{Balance: balance}
	}
	limit := balance * (BudgetRiskPct / 100)
	return BudgetResult{
		Balance:     balance,
		RiskLimit:   limit,
		MaxLot:      Floor2((balance / 100) * BudgetLotPer100),
		TargetMin:   limit * float64(RR15),
		TargetIdeal: limit * float64(RR2),
	}
}

type Violation struct {
	Code string
	Msg  string
}

// Decision is the outcome of reviewing a suggestion against the budget.
// Violations are advisory; the challenge still lets the operator trade.
type Decision struct {
	Allowed    bool
	Violations []Violation
	Budget     BudgetResult
}

func (d *Decision) add(code, msg string) {
	d.Violations = append(d.Violations, Violation{Code: code, Msg: msg})
	d.Allowed = false
}

// Review checks a suggestion computed for balance against Budget(balance).
func Review(s Suggestion, balance float64) Decision {
	d := Decision{Allowed: true, Budget: Budget(balance)}

	if balance <= 0 {
		d.add("BALANCE_ZERO", "balance is zero; the challenge is wiped out")
		return d
	}
	if s.RiskAmount > Round2(d.Budget.RiskLimit) {
		d.add("RISK_OVER_LIMIT",
			fmt.Sprintf("risk %.2f exceeds %.0f%% limit %.2f", s.RiskAmount, BudgetRiskPct, d.Budget.RiskLimit))
	}
	if s.LotSize > d.Budget.MaxLot {
		d.add("LOT_OVER_MAX",
			fmt.Sprintf("lot %.2f exceeds max lot %.2f", s.LotSize, d.Budget.MaxLot))
	}
	return d
}

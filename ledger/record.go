// Package ledger holds the ordered, append-only history of a challenge and
// the two outcome transitions that extend it.
package ledger

import (
	"fmt"
	"math"
	"time"

	"github.com/rustyeddy/goldtracker/pkg/errs"
	"github.com/rustyeddy/goldtracker/risk"
)

type Result string

const (
	Win  Result = "Win"
	Loss Result = "Loss"
)

func (r Result) Valid() bool { return r == Win || r == Loss }

func ParseResult(s string) (Result, error) {
	r := Result(s)
	if !r.Valid() {
		return "", errs.Invalid("result", "must be %q or %q, got %q", Win, Loss, s)
	}
	return r, nil
}

// balanceTolerance is half a cent; stored balances within it are equal.
const balanceTolerance = 0.005

// TradeRecord is one completed trade. Records are values: once appended
// they are never modified.
type TradeRecord struct {
	ID              string
	Level           int
	StartingBalance float64
	RiskPercentage  float64
	RiskAmount      float64
	ProfitGoal      float64
	Pips            float64
	LotSize         float64
	Result          Result
	WinAmount       *float64 // set iff Result == Win
	LossAmount      *float64 // set iff Result == Loss
	RewardRatio     risk.RewardRatio
	CreatedAt       time.Time
	EndingBalance   float64
}

// Amount is the reported win or loss amount, whichever is set.
func (r TradeRecord) Amount() float64 {
	switch {
	case r.WinAmount != nil:
		return *r.WinAmount
	case r.LossAmount != nil:
		return *r.LossAmount
	}
	return 0
}

// Change is the signed balance change the record applied.
func (r TradeRecord) Change() float64 {
	return r.EndingBalance - r.StartingBalance
}

// EndingBalance applies an outcome to a starting balance. Losses floor the
// balance at zero.
func EndingBalance(start float64, result Result, amount float64) float64 {
	if result == Win {
		return start + amount
	}
	return math.Max(0, start-amount)
}

// Validate checks the record's own invariants: a valid result with exactly
// the matching amount set and an ending balance that follows from them.
func (r TradeRecord) Validate() error {
	if r.Level < 1 {
		return errs.Invalid("level", "must be >= 1, got %d", r.Level)
	}
	if !r.Result.Valid() {
		return errs.Invalid("result", "unknown result %q", r.Result)
	}
	if !r.RewardRatio.Valid() {
		return errs.Invalid("reward_ratio", "must be 1.5 or 2, got %v", float64(r.RewardRatio))
	}
	if r.StartingBalance < 0 || r.EndingBalance < 0 {
		return errs.Invalid("balance", "balances must be >= 0 (start %.2f, end %.2f)", r.StartingBalance, r.EndingBalance)
	}
	if err := r.checkAmounts(); err != nil {
		return err
	}
	want := EndingBalance(r.StartingBalance, r.Result, r.Amount())
	if !moneyEqual(want, r.EndingBalance) {
		return errs.Invalid("ending_balance", "got %.2f, want %.2f", r.EndingBalance, want)
	}
	return nil
}

func (r TradeRecord) checkAmounts() error {
	switch r.Result {
	case Win:
		if r.WinAmount == nil || r.LossAmount != nil {
			return errs.Invalid("win_amount", "a Win record must carry only win_amount")
		}
	case Loss:
		if r.LossAmount == nil || r.WinAmount != nil {
			return errs.Invalid("loss_amount", "a Loss record must carry only loss_amount")
		}
	}
	if a := r.Amount(); math.IsNaN(a) || math.IsInf(a, 0) || a < 0 {
		return errs.Invalid("amount", "must be a finite number >= 0, got %v", a)
	}
	return nil
}

// SameContent reports whether two records describe the same trade. Ids and
// timestamps are ignored so a retried append of a re-stamped record still
// matches.
func (r TradeRecord) SameContent(o TradeRecord) bool {
	return r.Level == o.Level &&
		r.Result == o.Result &&
		r.RewardRatio == o.RewardRatio &&
		moneyEqual(r.StartingBalance, o.StartingBalance) &&
		moneyEqual(r.EndingBalance, o.EndingBalance) &&
		moneyEqual(r.RiskAmount, o.RiskAmount) &&
		moneyEqual(r.ProfitGoal, o.ProfitGoal) &&
		moneyEqual(r.Amount(), o.Amount()) &&
		(r.WinAmount == nil) == (o.WinAmount == nil) &&
		almostEqual(r.RiskPercentage, o.RiskPercentage) &&
		almostEqual(r.Pips, o.Pips) &&
		almostEqual(r.LotSize, o.LotSize)
}

func (r TradeRecord) String() string {
	return fmt.Sprintf("L%d %s %.2f: %.2f -> %.2f", r.Level, r.Result, r.Amount(), r.StartingBalance, r.EndingBalance)
}

func moneyEqual(a, b float64) bool {
	return math.Abs(a-b) < balanceTolerance
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

// clone copies the record including its amount pointers.
func (r TradeRecord) clone() TradeRecord {
	if r.WinAmount != nil {
		r.WinAmount = ptr(*r.WinAmount)
	}
	if r.LossAmount != nil {
		r.LossAmount = ptr(*r.LossAmount)
	}
	return r
}

func ptr(v float64) *float64 { return &v }

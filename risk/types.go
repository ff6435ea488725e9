package risk

import (
	"fmt"
	"strconv"

	"github.com/rustyeddy/goldtracker/pkg/errs"
)

// RewardRatio is the profit target as a multiple of the risked amount.
// It is a closed set: 1.5R or 2R.
type RewardRatio float64

const (
	RR15 RewardRatio = 1.5
	RR2  RewardRatio = 2
)

func (r RewardRatio) Valid() bool { return r == RR15 || r == RR2 }

func (r RewardRatio) String() string {
	return strconv.FormatFloat(float64(r), 'g', -1, 64) + "R"
}

// ParseRewardRatio accepts 1.5 or 2 (as numbers or strings such as "1.5",
// "2", "2R").
func ParseRewardRatio(s string) (RewardRatio, error) {
	v := s
	if n := len(v); n > 0 && (v[n-1] == 'R' || v[n-1] == 'r') {
		v = v[:n-1]
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, errs.Invalid("reward_ratio", "not a number: %q", s)
	}
	return RewardRatioOf(f)
}

func RewardRatioOf(f float64) (RewardRatio, error) {
	r := RewardRatio(f)
	if !r.Valid() {
		return 0, errs.Invalid("reward_ratio", "must be 1.5 or 2, got %v", f)
	}
	return r, nil
}

type ProfitMode string

const (
	ProfitModeRR   ProfitMode = "rr"
	ProfitModePips ProfitMode = "pips"
)

func (m ProfitMode) Valid() bool { return m == ProfitModeRR || m == ProfitModePips }

type LotMode string

const (
	LotModeAuto   LotMode = "auto"
	LotModeManual LotMode = "manual"
)

func (m LotMode) Valid() bool { return m == LotModeAuto || m == LotModeManual }

func ParseProfitMode(s string) (ProfitMode, error) {
	m := ProfitMode(s)
	if !m.Valid() {
		return "", errs.Invalid("profit_mode", "must be %q or %q, got %q", ProfitModeRR, ProfitModePips, s)
	}
	return m, nil
}

func ParseLotMode(s string) (LotMode, error) {
	m := LotMode(s)
	if !m.Valid() {
		return "", errs.Invalid("lot_mode", "must be %q or %q, got %q", LotModeAuto, LotModeManual, s)
	}
	return m, nil
}

// Params is everything the money rules need for one suggestion.
type Params struct {
	Balance        float64
	RiskPercentage float64 // 0 < pct <= 100
	TargetPips     float64
	PipValuePerLot float64

	RewardRatio RewardRatio
	ProfitMode  ProfitMode
	LotMode     LotMode
	ManualLot   float64
}

// Suggestion is the next-trade plan derived from Params. It is recomputed
// on every read and never persisted.
type Suggestion struct {
	RiskAmount   float64
	RewardProfit float64

	// AutoLot is the unrounded lot that earns RewardProfit over TargetPips.
	AutoLot float64
	// LotSize is the effective lot rounded to 2 decimals.
	LotSize       float64
	ManualLotUsed bool

	ExpectedProfitAtPips float64
	ProfitSelected       float64
	ProfitMin            float64
	ProfitMax            float64

	RewardRatio RewardRatio
	ProfitMode  ProfitMode
	LotMode     LotMode
	TargetPips  float64
}

func (s Suggestion) String() string {
	return fmt.Sprintf("risk=%.2f lot=%.2f profit=%.2f (%s, %s lot) range=%.2f-%.2f",
		s.RiskAmount, s.LotSize, s.ProfitSelected, s.ProfitMode, s.LotMode, s.ProfitMin, s.ProfitMax)
}

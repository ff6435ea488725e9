package challenge

import (
	"fmt"
	"math"
	"strings"

	"github.com/rustyeddy/goldtracker/market"
	"github.com/rustyeddy/goldtracker/pkg/errs"
	"github.com/rustyeddy/goldtracker/risk"
)

// Config fixes the terms of a challenge. It does not change once started.
type Config struct {
	InitialBalance float64
	TargetPips     float64
	RiskPercentage float64
	// Instrument defaults to XAU_USD and decides the pip value per lot.
	Instrument string
}

func (c Config) Validate() error {
	if !finite(c.InitialBalance) || c.InitialBalance <= 0 {
		return errs.Invalid("initial_balance", "must be a positive number, got %v", c.InitialBalance)
	}
	if !finite(c.TargetPips) || c.TargetPips <= 0 {
		return errs.Invalid("target_pips", "must be a positive number, got %v", c.TargetPips)
	}
	if !finite(c.RiskPercentage) || c.RiskPercentage <= 0 || c.RiskPercentage > 100 {
		return errs.Invalid("risk_percentage", "must be in (0, 100], got %v", c.RiskPercentage)
	}
	if _, err := c.instrument(); err != nil {
		return errs.Invalid("instrument", "%v", err)
	}
	return nil
}

func (c Config) instrument() (market.InstrumentMeta, error) {
	name := c.Instrument
	if strings.TrimSpace(name) == "" {
		name = market.DefaultInstrument
	}
	return market.Lookup(name)
}

func (c Config) String() string {
	return fmt.Sprintf("%.2f @ %g%% for %g pips", c.InitialBalance, c.RiskPercentage, c.TargetPips)
}

// Selections are the operator's mode choices. They can change at any time
// and only affect suggestions, never recorded history.
type Selections struct {
	RewardRatio risk.RewardRatio
	ProfitMode  risk.ProfitMode
	LotMode     risk.LotMode
	// ManualLot is used when LotMode is manual and it is > 0.
	ManualLot float64
}

func DefaultSelections() Selections {
	return Selections{
		RewardRatio: risk.RR15,
		ProfitMode:  risk.ProfitModeRR,
		LotMode:     risk.LotModeAuto,
	}
}

func (s Selections) Validate() error {
	if !s.RewardRatio.Valid() {
		return errs.Invalid("reward_ratio", "must be 1.5 or 2, got %v", float64(s.RewardRatio))
	}
	if !s.ProfitMode.Valid() {
		return errs.Invalid("profit_mode", "unknown mode %q", s.ProfitMode)
	}
	if !s.LotMode.Valid() {
		return errs.Invalid("lot_mode", "unknown mode %q", s.LotMode)
	}
	if !finite(s.ManualLot) || s.ManualLot < 0 {
		return errs.Invalid("manual_lot", "must be a finite number >= 0, got %v", s.ManualLot)
	}
	return nil
}

// ZeroBalancePolicy decides what happens once a loss floors the balance.
type ZeroBalancePolicy int

const (
	// ContinueAtZero keeps accepting trades from a zero balance.
	ContinueAtZero ZeroBalancePolicy = iota
	// BustAtZero ends the challenge: transitions return ErrBusted until reset.
	BustAtZero
)

func ParseZeroBalancePolicy(s string) (ZeroBalancePolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "continue":
		return ContinueAtZero, nil
	case "bust":
		return BustAtZero, nil
	}
	return 0, errs.Invalid("zero_balance", "must be continue or bust, got %q", s)
}

func (p ZeroBalancePolicy) String() string {
	if p == BustAtZero {
		return "bust"
	}
	return "continue"
}

// ReloadPolicy decides what a reload does with an inconsistent history.
type ReloadPolicy int

const (
	// TrustAndFlag applies the stored values and keeps the issues as a warning.
	TrustAndFlag ReloadPolicy = iota
	// RejectInconsistent leaves the session untouched.
	RejectInconsistent
)

func ParseReloadPolicy(s string) (ReloadPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "trust", "flag":
		return TrustAndFlag, nil
	case "reject":
		return RejectInconsistent, nil
	}
	return 0, errs.Invalid("reload", "must be trust or reject, got %q", s)
}

func (p ReloadPolicy) String() string {
	if p == RejectInconsistent {
		return "reject"
	}
	return "trust"
}

func finite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}

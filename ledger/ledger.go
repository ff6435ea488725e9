package ledger

import (
	"math"
	"time"

	"github.com/rustyeddy/goldtracker/pkg/errs"
	"github.com/rustyeddy/goldtracker/pkg/id"
	"github.com/rustyeddy/goldtracker/risk"
)

// Plan is the context a trade is recorded against: the challenge's risk
// percentage and the suggestion the operator traded.
type Plan struct {
	RiskPercentage float64
	Suggestion     risk.Suggestion
}

func (p Plan) validate() error {
	s := p.Suggestion
	if math.IsNaN(p.RiskPercentage) || p.RiskPercentage <= 0 || p.RiskPercentage > 100 {
		return errs.Invalid("risk_percentage", "must be in (0, 100], got %v", p.RiskPercentage)
	}
	if !s.RewardRatio.Valid() {
		return errs.Invalid("reward_ratio", "plan has no valid reward ratio")
	}
	if math.IsNaN(s.TargetPips) || s.TargetPips <= 0 {
		return errs.Invalid("target_pips", "plan has no positive target pips")
	}
	if s.RiskAmount < 0 || s.LotSize < 0 || s.ProfitSelected < 0 {
		return errs.Invalid("suggestion", "negative amounts in suggestion")
	}
	return nil
}

// State is a snapshot of the ledger. History is newest first.
type State struct {
	CurrentLevel   int
	CurrentBalance float64
	History        []TradeRecord
}

type Option func(*Ledger)

// WithClock overrides the timestamp source for new records.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) { l.now = now }
}

// WithIDs overrides the record id generator.
func WithIDs(newID func(time.Time) string) Option {
	return func(l *Ledger) { l.newID = newID }
}

// Ledger is the state machine of one challenge. It is not safe for
// concurrent use; the owning session serializes access.
type Ledger struct {
	initial float64
	level   int
	balance float64
	history []TradeRecord // newest first

	now   func() time.Time
	newID func(time.Time) string
}

// New returns an empty ledger starting at initialBalance.
func New(initialBalance float64, opts ...Option) (*Ledger, error) {
	if math.IsNaN(initialBalance) || math.IsInf(initialBalance, 0) || initialBalance <= 0 {
		return nil, errs.Invalid("initial_balance", "must be a positive number, got %v", initialBalance)
	}
	l := &Ledger{
		initial: initialBalance,
		level:   1,
		balance: initialBalance,
		now:     time.Now,
		newID:   id.NewAt,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l, nil
}

func (l *Ledger) InitialBalance() float64 { return l.initial }
func (l *Ledger) Level() int              { return l.level }
func (l *Ledger) Balance() float64        { return l.balance }
func (l *Ledger) Len() int                { return len(l.history) }

// History returns a copy of the records, newest first.
func (l *Ledger) History() []TradeRecord {
	out := make([]TradeRecord, len(l.history))
	for i, r := range l.history {
		out[i] = r.clone()
	}
	return out
}

func (l *Ledger) State() State {
	return State{
		CurrentLevel:   l.level,
		CurrentBalance: l.balance,
		History:        l.History(),
	}
}

// RecordWin books a winning trade of amount against plan.
func (l *Ledger) RecordWin(p Plan, amount float64) (TradeRecord, error) {
	return l.record(p, Win, amount)
}

// RecordLoss books a losing trade. A loss larger than the balance floors the
// balance at zero; it is not an error.
func (l *Ledger) RecordLoss(p Plan, amount float64) (TradeRecord, error) {
	return l.record(p, Loss, amount)
}

func (l *Ledger) record(p Plan, result Result, amount float64) (TradeRecord, error) {
	field := "win_amount"
	if result == Loss {
		field = "loss_amount"
	}
	if math.IsNaN(amount) || math.IsInf(amount, 0) || amount < 0 {
		return TradeRecord{}, errs.Invalid(field, "must be a finite number >= 0, got %v", amount)
	}
	if err := p.validate(); err != nil {
		return TradeRecord{}, err
	}

	now := l.now().UTC()
	rec := TradeRecord{
		ID:              l.newID(now),
		Level:           l.level,
		StartingBalance: l.balance,
		RiskPercentage:  p.RiskPercentage,
		RiskAmount:      p.Suggestion.RiskAmount,
		ProfitGoal:      p.Suggestion.ProfitSelected,
		Pips:            p.Suggestion.TargetPips,
		LotSize:         p.Suggestion.LotSize,
		Result:          result,
		RewardRatio:     p.Suggestion.RewardRatio,
		CreatedAt:       now,
		EndingBalance:   EndingBalance(l.balance, result, amount),
	}
	if result == Win {
		rec.WinAmount = ptr(amount)
	} else {
		rec.LossAmount = ptr(amount)
	}

	l.history = append([]TradeRecord{rec}, l.history...)
	l.level++
	l.balance = rec.EndingBalance
	return rec.clone(), nil
}

// Reset clears the history and returns to level 1 at the initial balance.
func (l *Ledger) Reset() {
	l.history = nil
	l.level = 1
	l.balance = l.initial
}

// CheckInvariants verifies the derived values against the history.
func (l *Ledger) CheckInvariants() error {
	ce := &errs.ConsistencyError{}
	if l.level != len(l.history)+1 {
		ce.Add(l.level, errs.IssueLevelGap, "current level %d with %d records", l.level, len(l.history))
	}
	want := l.initial
	if len(l.history) > 0 {
		want = l.history[0].EndingBalance
	}
	if l.balance != want {
		ce.Add(l.level, errs.IssueEndingBalance, "current balance %.2f, want %.2f", l.balance, want)
	}
	return ce.OrNil()
}

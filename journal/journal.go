// Package journal holds the ledger store backends and the record exports.
//
// Every backend keeps records per session id, keyed by level, and hands them
// back newest first. Appending a level that is already stored succeeds when
// the stored record describes the same trade and fails otherwise, so a
// retried append is harmless.
package journal

import (
	"context"
	"time"

	"github.com/rustyeddy/goldtracker/ledger"
	"github.com/rustyeddy/goldtracker/risk"
)

// Store is the ledger store contract shared by all backends.
type Store interface {
	List(ctx context.Context, sessionID string) ([]ledger.TradeRecord, error)
	Append(ctx context.Context, sessionID string, rec ledger.TradeRecord) error
	Close() error
}

// Purger is implemented by stores that can drop a session's records.
type Purger interface {
	Purge(ctx context.Context, sessionID string) error
}

// Purge removes every record of sessionID when the store supports it.
func Purge(ctx context.Context, s Store, sessionID string) error {
	p, ok := s.(Purger)
	if !ok {
		return nil
	}
	return p.Purge(ctx, sessionID)
}

// row is the stored shape of a record. Amounts and created_at may be NULL.
type row struct {
	ID              string
	Level           int
	StartingBalance float64
	RiskPercentage  float64
	RiskAmount      float64
	ProfitGoal      float64
	Pips            float64
	LotSize         float64
	Result          string
	WinAmount       *float64
	LossAmount      *float64
	RewardRatio     float64
	CreatedAt       *time.Time
	EndingBalance   float64
}

func toRow(r ledger.TradeRecord) row {
	created := r.CreatedAt.UTC()
	return row{
		ID:              r.ID,
		Level:           r.Level,
		StartingBalance: r.StartingBalance,
		RiskPercentage:  r.RiskPercentage,
		RiskAmount:      r.RiskAmount,
		ProfitGoal:      r.ProfitGoal,
		Pips:            r.Pips,
		LotSize:         r.LotSize,
		Result:          string(r.Result),
		WinAmount:       r.WinAmount,
		LossAmount:      r.LossAmount,
		RewardRatio:     float64(r.RewardRatio),
		CreatedAt:       &created,
		EndingBalance:   r.EndingBalance,
	}
}

// record maps a stored row back to a TradeRecord. Stored values are taken
// as they are: any reward ratio other than 2 reads as 1.5 and a missing
// created_at reads as now. Consistency is judged later by ledger.Verify.
func (r row) record(now time.Time) ledger.TradeRecord {
	rr := risk.RR15
	if r.RewardRatio == float64(risk.RR2) {
		rr = risk.RR2
	}
	created := now.UTC()
	if r.CreatedAt != nil && !r.CreatedAt.IsZero() {
		created = r.CreatedAt.UTC()
	}
	return ledger.TradeRecord{
		ID:              r.ID,
		Level:           r.Level,
		StartingBalance: r.StartingBalance,
		RiskPercentage:  r.RiskPercentage,
		RiskAmount:      r.RiskAmount,
		ProfitGoal:      r.ProfitGoal,
		Pips:            r.Pips,
		LotSize:         r.LotSize,
		Result:          ledger.Result(r.Result),
		WinAmount:       r.WinAmount,
		LossAmount:      r.LossAmount,
		RewardRatio:     rr,
		CreatedAt:       created,
		EndingBalance:   r.EndingBalance,
	}
}

package ledger

import (
	"fmt"
	"testing"
	"time"

	"github.com/rustyeddy/goldtracker/risk"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2025, 1, 6, 9, 0, 0, 0, time.UTC)

func fixedClock() func() time.Time {
	n := 0
	return func() time.Time {
		n++
		return t0.Add(time.Duration(n) * time.Minute)
	}
}

func seqIDs() func(time.Time) string {
	n := 0
	return func(time.Time) string {
		n++
		return fmt.Sprintf("T%03d", n)
	}
}

func newTestLedger(t *testing.T, initial float64) *Ledger {
	t.Helper()
	l, err := New(initial, WithClock(fixedClock()), WithIDs(seqIDs()))
	require.NoError(t, err)
	return l
}

// planFor computes the gold suggestion for the ledger's current balance.
func planFor(t *testing.T, l *Ledger, riskPct, pips float64, rr risk.RewardRatio) Plan {
	t.Helper()
	s, err := risk.Suggest(risk.Params{
		Balance:        l.Balance(),
		RiskPercentage: riskPct,
		TargetPips:     pips,
		PipValuePerLot: 10,
		RewardRatio:    rr,
		ProfitMode:     risk.ProfitModeRR,
		LotMode:        risk.LotModeAuto,
	})
	require.NoError(t, err)
	return Plan{RiskPercentage: riskPct, Suggestion: s}
}

func requireInvariants(t *testing.T, l *Ledger) {
	t.Helper()
	require.NoError(t, l.CheckInvariants())

	st := l.State()
	require.Equal(t, 1+len(st.History), st.CurrentLevel)
	if len(st.History) == 0 {
		require.Equal(t, l.InitialBalance(), st.CurrentBalance)
	} else {
		require.Equal(t, st.History[0].EndingBalance, st.CurrentBalance)
	}
	for i, r := range st.History {
		require.Equal(t, st.CurrentLevel-1-i, r.Level)
		require.NoError(t, r.Validate())
	}
}

package journal

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/rustyeddy/goldtracker/ledger"
	"github.com/rustyeddy/goldtracker/pkg/errs"
	"github.com/rustyeddy/goldtracker/risk"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2025, 3, 3, 8, 0, 0, 0, time.UTC)

// sampleHistory plays 1000 -> win 450 -> loss 435 -> win 609 (RR 2) and
// returns the records newest first.
func sampleHistory(t *testing.T) []ledger.TradeRecord {
	t.Helper()

	n := 0
	l, err := ledger.New(1000,
		ledger.WithClock(func() time.Time { return t0.Add(time.Duration(n) * time.Hour) }),
		ledger.WithIDs(func(time.Time) string { n++; return fmt.Sprintf("J%03d", n) }),
	)
	require.NoError(t, err)

	plan := func(rr risk.RewardRatio) ledger.Plan {
		s, err := risk.Suggest(risk.Params{
			Balance:        l.Balance(),
			RiskPercentage: 30,
			TargetPips:     20,
			PipValuePerLot: 10,
			RewardRatio:    rr,
			ProfitMode:     risk.ProfitModeRR,
			LotMode:        risk.LotModeAuto,
		})
		require.NoError(t, err)
		return ledger.Plan{RiskPercentage: 30, Suggestion: s}
	}

	_, err = l.RecordWin(plan(risk.RR15), 450)
	require.NoError(t, err)
	_, err = l.RecordLoss(plan(risk.RR15), 435)
	require.NoError(t, err)
	_, err = l.RecordWin(plan(risk.RR2), 609)
	require.NoError(t, err)
	return l.History()
}

// runStoreContract exercises the behaviour every backend shares.
func runStoreContract(t *testing.T, s Store, sessionID string) {
	t.Helper()
	ctx := context.Background()
	h := sampleHistory(t)

	got, err := s.List(ctx, sessionID)
	require.NoError(t, err)
	assert.Empty(t, got)

	for i := len(h) - 1; i >= 0; i-- {
		require.NoError(t, s.Append(ctx, sessionID, h[i]))
	}

	got, err = s.List(ctx, sessionID)
	require.NoError(t, err)
	require.Len(t, got, len(h))
	for i := range h {
		assert.Equal(t, h[i].ID, got[i].ID)
		assert.Equal(t, h[i].Level, got[i].Level)
		assert.True(t, h[i].SameContent(got[i]), "level %d", h[i].Level)
		assert.True(t, h[i].CreatedAt.Equal(got[i].CreatedAt), "level %d created_at", h[i].Level)
		assert.Equal(t, h[i].RewardRatio, got[i].RewardRatio)
	}
	assert.Nil(t, got[1].WinAmount)
	require.NotNil(t, got[1].LossAmount)
	assert.Equal(t, 435.0, *got[1].LossAmount)

	// A retried append, re-stamped or not, is accepted.
	assert.NoError(t, s.Append(ctx, sessionID, h[0]))
	restamped := h[0]
	restamped.ID = "J999"
	restamped.CreatedAt = restamped.CreatedAt.Add(time.Minute)
	assert.NoError(t, s.Append(ctx, sessionID, restamped))

	conflict := h[0]
	conflict.ID = "J998"
	conflict.LotSize += 1
	err = s.Append(ctx, sessionID, conflict)
	assert.ErrorIs(t, err, errs.ErrStoreWrite)

	got, err = s.List(ctx, sessionID)
	require.NoError(t, err)
	assert.Len(t, got, len(h))

	l, err := ledger.Restore(1000, got)
	require.NoError(t, err)
	assert.Equal(t, 4, l.Level())
	assert.Equal(t, 1624.0, l.Balance())

	other, err := s.List(ctx, sessionID+"-other")
	require.NoError(t, err)
	assert.Empty(t, other)

	require.NoError(t, Purge(ctx, s, sessionID))
	got, err = s.List(ctx, sessionID)
	require.NoError(t, err)
	assert.Empty(t, got)
}

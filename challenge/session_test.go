package challenge

import (
	"context"
	"errors"
	"testing"

	"github.com/rustyeddy/goldtracker/journal"
	"github.com/rustyeddy/goldtracker/ledger"
	"github.com/rustyeddy/goldtracker/pkg/errs"
	"github.com/rustyeddy/goldtracker/risk"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStartValidation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		cfg   Config
		field string
	}{
		{"zero balance", Config{InitialBalance: 0, TargetPips: 20, RiskPercentage: 30}, "initial_balance"},
		{"negative pips", Config{InitialBalance: 1000, TargetPips: -1, RiskPercentage: 30}, "target_pips"},
		{"zero risk", Config{InitialBalance: 1000, TargetPips: 20, RiskPercentage: 0}, "risk_percentage"},
		{"risk over 100", Config{InitialBalance: 1000, TargetPips: 20, RiskPercentage: 100.5}, "risk_percentage"},
		{"unknown instrument", Config{InitialBalance: 1000, TargetPips: 20, RiskPercentage: 30, Instrument: "BTC_USD"}, "instrument"},
	}

	for _, tt := range tests {
		s := New("s1", nil)
		err := s.Start(tt.cfg)
		require.Error(t, err, tt.name)
		assert.ErrorIs(t, err, errs.ErrValidation, tt.name)

		var ve *errs.ValidationError
		require.True(t, errors.As(err, &ve), tt.name)
		assert.Equal(t, tt.field, ve.Field, tt.name)

		_, ok := s.Config()
		assert.False(t, ok, "a rejected config must not start the session")
	}

	s := New("s1", nil)
	require.NoError(t, s.Start(Config{InitialBalance: 1000, TargetPips: 20, RiskPercentage: 100}))
}

func TestNotStarted(t *testing.T) {
	t.Parallel()

	s := New("s1", nil)
	assert.Equal(t, StatusIdle, s.Status())

	_, err := s.Suggestion()
	assert.ErrorIs(t, err, ErrNotStarted)
	_, err = s.RecordWin(10)
	assert.ErrorIs(t, err, ErrNotStarted)
	assert.ErrorIs(t, s.Reset(), ErrNotStarted)
	assert.ErrorIs(t, s.ReloadFrom(nil), ErrNotStarted)
	_, err = s.State()
	assert.ErrorIs(t, err, ErrNotStarted)
}

func TestSuggestionGoldDefaults(t *testing.T) {
	t.Parallel()

	s := newStarted(t, nil)
	sug, err := s.Suggestion()
	require.NoError(t, err)

	assert.Equal(t, 300.0, sug.RiskAmount)
	assert.Equal(t, 450.0, sug.RewardProfit)
	assert.Equal(t, 2.25, sug.LotSize)
	assert.Equal(t, 450.0, sug.ProfitSelected)
	assert.Equal(t, 450.0, sug.ProfitMin)
	assert.Equal(t, 600.0, sug.ProfitMax)
	assert.Equal(t, "XAU_USD", s.Instrument().Name)
}

func TestSelectManualLotPipsMode(t *testing.T) {
	t.Parallel()

	s := newStarted(t, nil)
	require.NoError(t, s.Select(Selections{
		RewardRatio: risk.RR15,
		ProfitMode:  risk.ProfitModePips,
		LotMode:     risk.LotModeManual,
		ManualLot:   0.10,
	}))

	sug, err := s.Suggestion()
	require.NoError(t, err)
	assert.Equal(t, 0.10, sug.LotSize)
	assert.Equal(t, 20.0, sug.ExpectedProfitAtPips)
	assert.Equal(t, 20.0, sug.ProfitSelected)
}

func TestSelectRejectsInvalid(t *testing.T) {
	t.Parallel()

	s := newStarted(t, nil)
	bad := []Selections{
		{RewardRatio: 3, ProfitMode: risk.ProfitModeRR, LotMode: risk.LotModeAuto},
		{RewardRatio: risk.RR2, ProfitMode: "both", LotMode: risk.LotModeAuto},
		{RewardRatio: risk.RR2, ProfitMode: risk.ProfitModeRR, LotMode: "half"},
		{RewardRatio: risk.RR2, ProfitMode: risk.ProfitModeRR, LotMode: risk.LotModeManual, ManualLot: -0.5},
	}
	for _, sel := range bad {
		assert.ErrorIs(t, s.Select(sel), errs.ErrValidation)
	}
	assert.Equal(t, DefaultSelections(), s.Selections())
}

func TestRecordWinStoresRecord(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	s := newStarted(t, store)

	rec, err := s.RecordWin(450)
	require.NoError(t, err)
	assert.Equal(t, 1, rec.Level)
	assert.Equal(t, 1000.0, rec.StartingBalance)
	assert.Equal(t, 300.0, rec.RiskAmount)
	assert.Equal(t, 450.0, rec.ProfitGoal)
	assert.Equal(t, 2.25, rec.LotSize)
	assert.Equal(t, 20.0, rec.Pips)
	assert.Equal(t, 30.0, rec.RiskPercentage)
	assert.Equal(t, risk.RR15, rec.RewardRatio)
	assert.Equal(t, 1450.0, rec.EndingBalance)
	assert.Equal(t, "R001", rec.ID)

	st, err := s.State()
	require.NoError(t, err)
	assert.Equal(t, 2, st.CurrentLevel)
	assert.Equal(t, 1450.0, st.CurrentBalance)

	require.NoError(t, flush(t, s))
	stored := store.stored("s1")
	require.Len(t, stored, 1)
	assert.True(t, rec.SameContent(stored[0]))
	assert.NoError(t, s.SyncError())
}

func TestRecordLossFloorsAtZero(t *testing.T) {
	t.Parallel()

	s := newStarted(t, nil)
	rec, err := s.RecordLoss(2000)
	require.NoError(t, err)
	assert.Equal(t, 0.0, rec.EndingBalance)

	// Continue is the default policy.
	assert.False(t, s.Busted())
	sug, err := s.Suggestion()
	require.NoError(t, err)
	assert.Equal(t, 0.0, sug.RiskAmount)

	rec, err = s.RecordWin(50)
	require.NoError(t, err)
	assert.Equal(t, 2, rec.Level)
	assert.Equal(t, 50.0, rec.EndingBalance)
}

func TestBustPolicy(t *testing.T) {
	t.Parallel()

	s := newStarted(t, nil, WithZeroBalancePolicy(BustAtZero))
	_, err := s.RecordLoss(1000)
	require.NoError(t, err)
	assert.True(t, s.Busted())

	_, err = s.RecordWin(50)
	assert.ErrorIs(t, err, ErrBusted)
	_, err = s.RecordLoss(1)
	assert.ErrorIs(t, err, ErrBusted)

	st, err := s.State()
	require.NoError(t, err)
	assert.Equal(t, 2, st.CurrentLevel)

	require.NoError(t, s.Reset())
	assert.False(t, s.Busted())
	_, err = s.RecordWin(50)
	assert.NoError(t, err)
}

func TestRecordRejectsBadAmount(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	s := newStarted(t, store)

	_, err := s.RecordWin(-1)
	assert.ErrorIs(t, err, errs.ErrValidation)
	_, err = s.RecordLoss(-0.01)
	assert.ErrorIs(t, err, errs.ErrValidation)

	st, err := s.State()
	require.NoError(t, err)
	assert.Equal(t, 1, st.CurrentLevel)
	assert.Equal(t, 1000.0, st.CurrentBalance)

	require.NoError(t, flush(t, s))
	assert.Equal(t, 0, store.appendCount())
}

func TestResetIdempotent(t *testing.T) {
	t.Parallel()

	s := newStarted(t, nil)
	fresh, err := s.State()
	require.NoError(t, err)

	_, err = s.RecordWin(450)
	require.NoError(t, err)
	_, err = s.RecordLoss(100)
	require.NoError(t, err)

	require.NoError(t, s.Reset())
	once, err := s.State()
	require.NoError(t, err)
	require.NoError(t, s.Reset())
	twice, err := s.State()
	require.NoError(t, err)

	assert.Equal(t, fresh, once)
	assert.Equal(t, once, twice)
}

func TestInvariantsAcrossSequence(t *testing.T) {
	t.Parallel()

	s := newStarted(t, nil)
	require.NoError(t, s.Select(Selections{RewardRatio: risk.RR2, ProfitMode: risk.ProfitModeRR, LotMode: risk.LotModeAuto}))

	outcomes := []struct {
		win    bool
		amount float64
	}{
		{true, 600}, {false, 480}, {true, 672}, {false, 5000}, {true, 10},
	}
	for _, o := range outcomes {
		var err error
		if o.win {
			_, err = s.RecordWin(o.amount)
		} else {
			_, err = s.RecordLoss(o.amount)
		}
		require.NoError(t, err)

		st, err := s.State()
		require.NoError(t, err)
		require.Equal(t, 1+len(st.History), st.CurrentLevel)
		require.Equal(t, st.History[0].EndingBalance, st.CurrentBalance)
		for i, r := range st.History {
			require.Equal(t, st.CurrentLevel-1-i, r.Level)
			require.GreaterOrEqual(t, r.EndingBalance, 0.0)
		}
	}

	sum, err := s.Summary()
	require.NoError(t, err)
	assert.Equal(t, 5, sum.Trades)
	assert.Equal(t, 10.0, sum.CurrentBalance)
	assert.Equal(t, 3, sum.Wins)
}

func TestReloadFrom(t *testing.T) {
	t.Parallel()

	history := playLocal(t)

	s := newStarted(t, nil)
	require.NoError(t, s.ReloadFrom(history))
	assert.NoError(t, s.ConsistencyError())

	st, err := s.State()
	require.NoError(t, err)
	assert.Equal(t, history[0].Level+1, st.CurrentLevel)
	assert.Equal(t, history[0].EndingBalance, st.CurrentBalance)
	assert.Equal(t, history, st.History)

	sug, err := s.Suggestion()
	require.NoError(t, err)
	assert.Equal(t, risk.RiskAmount(st.CurrentBalance, 30), sug.RiskAmount)

	require.NoError(t, s.ReloadFrom(nil))
	st, err = s.State()
	require.NoError(t, err)
	assert.Equal(t, 1, st.CurrentLevel)
	assert.Equal(t, 1000.0, st.CurrentBalance)
}

func TestReloadInconsistentTrustAndFlag(t *testing.T) {
	t.Parallel()

	history := playLocal(t)
	gapped := append([]ledger.TradeRecord{history[0]}, history[2:]...)

	s := newStarted(t, nil)
	err := s.ReloadFrom(gapped)
	require.Error(t, err)
	assert.ErrorIs(t, err, errs.ErrConsistency)
	assert.ErrorIs(t, s.ConsistencyError(), errs.ErrConsistency)

	st, err := s.State()
	require.NoError(t, err)
	assert.Equal(t, history[0].Level+1, st.CurrentLevel)
	assert.Equal(t, history[0].EndingBalance, st.CurrentBalance)

	// A clean start clears the flag.
	require.NoError(t, s.Start(goldConfig))
	assert.NoError(t, s.ConsistencyError())
}

func TestReloadInconsistentReject(t *testing.T) {
	t.Parallel()

	history := playLocal(t)
	dup := append([]ledger.TradeRecord{}, history...)
	dup[0].Level = dup[1].Level

	s := newStarted(t, nil, WithReloadPolicy(RejectInconsistent))
	_, err := s.RecordWin(100)
	require.NoError(t, err)
	before, err := s.State()
	require.NoError(t, err)

	err = s.ReloadFrom(dup)
	assert.ErrorIs(t, err, errs.ErrConsistency)

	after, err := s.State()
	require.NoError(t, err)
	assert.Equal(t, before, after)
	assert.NoError(t, s.ConsistencyError())
}

func TestLoadFromStore(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	mem := journal.NewMemory()
	t.Cleanup(func() { _ = mem.Close() })

	first := newStarted(t, mem)
	_, err := first.RecordWin(450)
	require.NoError(t, err)
	_, err = first.RecordLoss(435)
	require.NoError(t, err)
	require.NoError(t, flush(t, first))

	second := newStarted(t, mem)
	require.NoError(t, second.Load(ctx))
	assert.Equal(t, StatusReady, second.Status())

	st, err := second.State()
	require.NoError(t, err)
	assert.Equal(t, 3, st.CurrentLevel)
	assert.Equal(t, 1015.0, st.CurrentBalance)

	// The reloaded session keeps appending after the stored levels.
	rec, err := second.RecordWin(100)
	require.NoError(t, err)
	assert.Equal(t, 3, rec.Level)
	require.NoError(t, flush(t, second))

	stored, err := mem.List(ctx, "s1")
	require.NoError(t, err)
	assert.Len(t, stored, 3)
}

func TestLoadFailureIsSticky(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	store.listErr = errs.Unavailable("list", errors.New("connection refused"))
	s := newStarted(t, store)

	err := s.Load(context.Background())
	assert.ErrorIs(t, err, errs.ErrStoreUnavailable)
	assert.ErrorIs(t, s.SyncError(), errs.ErrStoreUnavailable)
	assert.Equal(t, StatusReady, s.Status())

	// Local trading still works and the next good store op clears the flag.
	_, err = s.RecordWin(10)
	require.NoError(t, err)
	require.NoError(t, flush(t, s))
	assert.NoError(t, s.SyncError())
}

func TestLoadingGuard(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	store.gate = make(chan struct{})
	s := newStarted(t, store)

	done := s.LoadAsync(context.Background())
	assert.Equal(t, StatusLoading, s.Status())

	_, err := s.Suggestion()
	assert.ErrorIs(t, err, ErrLoading)
	_, err = s.RecordWin(10)
	assert.ErrorIs(t, err, ErrLoading)
	_, err = s.RecordLoss(10)
	assert.ErrorIs(t, err, ErrLoading)
	assert.ErrorIs(t, s.Reset(), ErrLoading)
	assert.ErrorIs(t, s.Start(goldConfig), ErrLoading)
	assert.ErrorIs(t, s.Load(context.Background()), ErrLoading)

	close(store.gate)
	require.NoError(t, <-done)
	assert.Equal(t, StatusReady, s.Status())

	_, err = s.Suggestion()
	assert.NoError(t, err)
}

func TestNilStoreStaysLocal(t *testing.T) {
	t.Parallel()

	s := newStarted(t, nil)
	_, err := s.RecordWin(450)
	require.NoError(t, err)

	assert.NoError(t, s.Flush(context.Background()))
	assert.NoError(t, s.SyncError())
	assert.ErrorIs(t, s.Load(context.Background()), errs.ErrStoreUnavailable)
	assert.NoError(t, s.Close(context.Background()))
}

// playLocal records three trades on a store-less session and returns the
// newest-first history.
func playLocal(t *testing.T) []ledger.TradeRecord {
	t.Helper()
	s := newStarted(t, nil)
	_, err := s.RecordWin(450)
	require.NoError(t, err)
	_, err = s.RecordLoss(435)
	require.NoError(t, err)
	_, err = s.RecordWin(300)
	require.NoError(t, err)

	st, err := s.State()
	require.NoError(t, err)
	return st.History
}

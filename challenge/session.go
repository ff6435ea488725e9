// Package challenge binds a challenge configuration to a ledger, computes
// the next-trade suggestion against the current balance and forwards every
// recorded trade to a ledger store in the background.
package challenge

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/rustyeddy/goldtracker/ledger"
	"github.com/rustyeddy/goldtracker/market"
	"github.com/rustyeddy/goldtracker/metrics"
	"github.com/rustyeddy/goldtracker/pkg/errs"
	"github.com/rustyeddy/goldtracker/pkg/id"
	"github.com/rustyeddy/goldtracker/risk"
)

var (
	ErrNotStarted = errors.New("challenge not started")
	ErrLoading    = errors.New("challenge history is loading")
	ErrBusted     = errors.New("challenge busted: balance is zero")
)

// Store is the ledger store the session forwards records to.
type Store interface {
	List(ctx context.Context, sessionID string) ([]ledger.TradeRecord, error)
	Append(ctx context.Context, sessionID string, rec ledger.TradeRecord) error
}

// Purger is implemented by stores that can delete a session's records.
// Reset purges such stores so the levels it replays are free again.
type Purger interface {
	Purge(ctx context.Context, sessionID string) error
}

type Status string

const (
	StatusIdle    Status = "idle"
	StatusLoading Status = "loading"
	StatusReady   Status = "ready"
)

// Session is one operator's challenge. Transitions update local state
// synchronously; store appends happen on a background writer and never
// block or roll back a transition. A nil store keeps everything local.
type Session struct {
	id    string
	store Store
	log   zerolog.Logger

	zeroPolicy   ZeroBalancePolicy
	reloadPolicy ReloadPolicy
	now          func() time.Time
	newID        func(time.Time) string

	mu         sync.Mutex
	cfg        *Config
	inst       market.InstrumentMeta
	sel        Selections
	ledger     *ledger.Ledger
	status     Status
	syncErr    error
	consistErr *errs.ConsistencyError

	writer
}

// New returns an idle session for sessionID. Call Start before trading.
func New(sessionID string, store Store, opts ...Option) *Session {
	s := &Session{
		id:     sessionID,
		store:  store,
		log:    zerolog.Nop(),
		now:    time.Now,
		newID:  id.NewAt,
		sel:    DefaultSelections(),
		status: StatusIdle,
	}
	s.queueSize = defaultQueueSize
	s.maxRetries = defaultMaxRetries
	s.backoffBase = defaultBackoffBase
	s.backoffCap = defaultBackoffCap
	s.appendTimeout = defaultAppendTimeout
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.With().Str("session", sessionID).Logger()
	if store != nil {
		s.startWriter()
	}
	return s
}

func (s *Session) ID() string { return s.id }

// Start validates cfg and begins a fresh challenge. Sync and consistency
// flags are cleared; the store is not touched.
func (s *Session) Start(cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	inst, _ := cfg.instrument()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status == StatusLoading {
		return ErrLoading
	}

	l, err := ledger.New(cfg.InitialBalance, s.ledgerOpts()...)
	if err != nil {
		return err
	}
	s.cfg = &cfg
	s.inst = inst
	s.ledger = l
	s.status = StatusReady
	s.syncErr = nil
	s.consistErr = nil

	s.log.Info().
		Float64("initial_balance", cfg.InitialBalance).
		Float64("target_pips", cfg.TargetPips).
		Float64("risk_pct", cfg.RiskPercentage).
		Str("instrument", inst.Name).
		Msg("challenge started")
	s.observe()
	return nil
}

// Reset returns the ledger to level 1 at the configured initial balance.
// When the store is a Purger, the session's stored records are deleted on
// the writer ahead of any record recorded after the reset. Other stores keep
// the old records and will refuse the replayed levels.
func (s *Session) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.readyLocked(); err != nil {
		return err
	}
	s.ledger.Reset()
	s.consistErr = nil
	if s.store != nil {
		if _, ok := s.store.(Purger); ok {
			if err := s.enqueuePurge(); err != nil {
				s.setSyncErrLocked(err)
			}
		} else {
			s.log.Warn().Msg("store cannot purge; stored history survives the reset")
		}
	}
	s.log.Info().Msg("challenge reset")
	s.observe()
	return nil
}

// Select replaces the operator's mode selections.
func (s *Session) Select(sel Selections) error {
	if err := sel.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	s.sel = sel
	s.mu.Unlock()
	return nil
}

func (s *Session) Selections() Selections {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sel
}

// Config returns the active configuration, or false before Start.
func (s *Session) Config() (Config, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cfg == nil {
		return Config{}, false
	}
	return *s.cfg, true
}

func (s *Session) Instrument() market.InstrumentMeta {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inst
}

func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Suggestion computes the money rules against the current balance.
func (s *Session) Suggestion() (risk.Suggestion, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.readyLocked(); err != nil {
		return risk.Suggestion{}, err
	}
	return s.suggestLocked()
}

func (s *Session) suggestLocked() (risk.Suggestion, error) {
	return risk.Suggest(risk.Params{
		Balance:        s.ledger.Balance(),
		RiskPercentage: s.cfg.RiskPercentage,
		TargetPips:     s.cfg.TargetPips,
		PipValuePerLot: s.inst.PipValuePerLot,
		RewardRatio:    s.sel.RewardRatio,
		ProfitMode:     s.sel.ProfitMode,
		LotMode:        s.sel.LotMode,
		ManualLot:      s.sel.ManualLot,
	})
}

// RecordWin books a win of amount against the current suggestion.
func (s *Session) RecordWin(amount float64) (ledger.TradeRecord, error) {
	return s.record(ledger.Win, amount)
}

// RecordLoss books a loss of amount against the current suggestion.
func (s *Session) RecordLoss(amount float64) (ledger.TradeRecord, error) {
	return s.record(ledger.Loss, amount)
}

func (s *Session) record(result ledger.Result, amount float64) (ledger.TradeRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.readyLocked(); err != nil {
		return ledger.TradeRecord{}, err
	}
	if s.zeroPolicy == BustAtZero && s.ledger.Balance() <= 0 {
		return ledger.TradeRecord{}, ErrBusted
	}

	sug, err := s.suggestLocked()
	if err != nil {
		return ledger.TradeRecord{}, err
	}
	plan := ledger.Plan{RiskPercentage: s.cfg.RiskPercentage, Suggestion: sug}

	var rec ledger.TradeRecord
	if result == ledger.Win {
		rec, err = s.ledger.RecordWin(plan, amount)
	} else {
		rec, err = s.ledger.RecordLoss(plan, amount)
	}
	if err != nil {
		return ledger.TradeRecord{}, err
	}

	s.log.Debug().
		Int("level", rec.Level).
		Str("result", string(rec.Result)).
		Float64("amount", rec.Amount()).
		Float64("ending_balance", rec.EndingBalance).
		Msg("trade recorded")
	metrics.IncSessionTrades(s.id, string(rec.Result))
	s.observe()

	if s.store != nil {
		if err := s.enqueue(rec); err != nil {
			s.setSyncErrLocked(err)
		}
	}
	return rec, nil
}

// State returns a copy of the ledger state.
func (s *Session) State() (ledger.State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ledger == nil {
		return ledger.State{}, ErrNotStarted
	}
	return s.ledger.State(), nil
}

// Summary aggregates the session history.
func (s *Session) Summary() (ledger.Summary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ledger == nil {
		return ledger.Summary{}, ErrNotStarted
	}
	return ledger.Summarize(s.ledger.InitialBalance(), s.ledger.History()), nil
}

// Busted reports whether the bust policy has ended the challenge.
func (s *Session) Busted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ledger != nil && s.zeroPolicy == BustAtZero && s.ledger.Balance() <= 0
}

// SyncError is the last store failure, cleared by the next successful store
// operation.
func (s *Session) SyncError() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.syncErr
}

// ConsistencyError is the warning left by the last reload, if any.
func (s *Session) ConsistencyError() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.consistErr.OrNil()
}

// ReloadFrom rebuilds the ledger from newest-first records. The next level
// and balance come from records[0]. An inconsistent history returns a
// *errs.ConsistencyError: under TrustAndFlag the records are applied anyway
// and the error is a warning, under RejectInconsistent nothing changes.
func (s *Session) ReloadFrom(records []ledger.TradeRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.readyLocked(); err != nil {
		return err
	}
	return s.reloadLocked(records)
}

func (s *Session) reloadLocked(records []ledger.TradeRecord) error {
	l, err := ledger.Restore(s.cfg.InitialBalance, records, s.ledgerOpts()...)
	var ce *errs.ConsistencyError
	if err != nil && !errors.As(err, &ce) {
		return err
	}

	if ce != nil {
		for _, is := range ce.Issues {
			s.log.Warn().Int("level", is.Level).Str("code", string(is.Code)).Msg(is.Msg)
		}
		if s.reloadPolicy == RejectInconsistent {
			s.log.Warn().Int("records", len(records)).Msg("inconsistent history rejected")
			return err
		}
	}

	s.ledger = l
	s.consistErr = ce
	s.log.Info().
		Int("records", len(records)).
		Int("level", l.Level()).
		Float64("balance", l.Balance()).
		Msg("history reloaded")
	s.observe()
	return err
}

// Load fetches the session history from the store and reloads it. While the
// fetch is in flight the session reports StatusLoading and refuses
// suggestions and transitions.
func (s *Session) Load(ctx context.Context) error {
	if err := s.beginLoad(); err != nil {
		return err
	}
	return s.finishLoad(s.store.List(ctx, s.id))
}

// LoadAsync starts Load in the background. The session is loading once
// LoadAsync returns; the channel yields Load's result.
func (s *Session) LoadAsync(ctx context.Context) <-chan error {
	done := make(chan error, 1)
	if err := s.beginLoad(); err != nil {
		done <- err
		close(done)
		return done
	}
	go func() {
		defer close(done)
		done <- s.finishLoad(s.store.List(ctx, s.id))
	}()
	return done
}

func (s *Session) beginLoad() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.readyLocked(); err != nil {
		return err
	}
	if s.store == nil {
		return errs.Unavailable("list", errors.New("no store configured"))
	}
	s.status = StatusLoading
	return nil
}

func (s *Session) finishLoad(records []ledger.TradeRecord, err error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = StatusReady
	if err != nil {
		s.setSyncErrLocked(err)
		return err
	}
	s.syncErr = nil
	return s.reloadLocked(records)
}

func (s *Session) readyLocked() error {
	switch {
	case s.status == StatusLoading:
		return ErrLoading
	case s.cfg == nil:
		return ErrNotStarted
	}
	return nil
}

func (s *Session) setSyncErrLocked(err error) {
	s.syncErr = err
	metrics.IncSessionSyncErrors(s.id)
	s.log.Warn().Err(err).Msg("store sync failed")
}

func (s *Session) ledgerOpts() []ledger.Option {
	return []ledger.Option{ledger.WithClock(s.now), ledger.WithIDs(s.newID)}
}

func (s *Session) observe() {
	metrics.ObserveSessionBalance(s.id, s.ledger.Balance())
	metrics.ObserveSessionLevel(s.id, s.ledger.Level())
}

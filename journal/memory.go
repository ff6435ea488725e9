package journal

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rustyeddy/goldtracker/ledger"
	"github.com/rustyeddy/goldtracker/metrics"
	"github.com/rustyeddy/goldtracker/pkg/errs"
)

// Memory is an in-process store. It is safe for concurrent use.
type Memory struct {
	mu       sync.Mutex
	sessions map[string][]ledger.TradeRecord // oldest first
}

func NewMemory() *Memory {
	return &Memory{sessions: make(map[string][]ledger.TradeRecord)}
}

func (m *Memory) List(ctx context.Context, sessionID string) ([]ledger.TradeRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, errs.Unavailable("list", err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	recs := m.sessions[sessionID]
	out := make([]ledger.TradeRecord, 0, len(recs))
	for i := len(recs) - 1; i >= 0; i-- {
		out = append(out, copyRecord(recs[i]))
	}
	return out, nil
}

func (m *Memory) Append(ctx context.Context, sessionID string, rec ledger.TradeRecord) error {
	metrics.IncStoreAppendAttempts(metrics.BackendMemory)
	if err := ctx.Err(); err != nil {
		metrics.IncStoreAppendFailures(metrics.BackendMemory)
		return errs.Unavailable("append", err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	recs := m.sessions[sessionID]
	i := sort.Search(len(recs), func(i int) bool { return recs[i].Level >= rec.Level })
	if i < len(recs) && recs[i].Level == rec.Level {
		if recs[i].SameContent(rec) {
			metrics.IncStoreDuplicates(metrics.BackendMemory)
			return nil
		}
		metrics.IncStoreAppendFailures(metrics.BackendMemory)
		return errs.WriteFailed("append", fmt.Errorf("level %d already stored with different content", rec.Level))
	}

	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	recs = append(recs, ledger.TradeRecord{})
	copy(recs[i+1:], recs[i:])
	recs[i] = copyRecord(rec)
	m.sessions[sessionID] = recs
	return nil
}

func (m *Memory) Purge(_ context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, sessionID)
	return nil
}

func (m *Memory) Close() error { return nil }

func copyRecord(r ledger.TradeRecord) ledger.TradeRecord {
	if r.WinAmount != nil {
		v := *r.WinAmount
		r.WinAmount = &v
	}
	if r.LossAmount != nil {
		v := *r.LossAmount
		r.LossAmount = &v
	}
	return r
}

package challenge

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rustyeddy/goldtracker/ledger"
	"github.com/stretchr/testify/require"
)

// fakeStore records appends in memory. appendErrs are returned by successive
// Append calls; once they run out appends succeed. A non-nil gate blocks
// List and Append until it is closed.
type fakeStore struct {
	mu         sync.Mutex
	records    map[string][]ledger.TradeRecord // newest first
	appendErrs []error
	listErr    error
	appends    int
	gate       chan struct{}
}

func newFakeStore() *fakeStore {
	return &fakeStore{records: make(map[string][]ledger.TradeRecord)}
}

func (f *fakeStore) wait(ctx context.Context) error {
	f.mu.Lock()
	gate := f.gate
	f.mu.Unlock()
	if gate == nil {
		return nil
	}
	select {
	case <-gate:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (f *fakeStore) List(ctx context.Context, sessionID string) ([]ledger.TradeRecord, error) {
	if err := f.wait(ctx); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	return append([]ledger.TradeRecord(nil), f.records[sessionID]...), nil
}

func (f *fakeStore) Append(ctx context.Context, sessionID string, rec ledger.TradeRecord) error {
	if err := f.wait(ctx); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.appends++
	if len(f.appendErrs) > 0 {
		err := f.appendErrs[0]
		f.appendErrs = f.appendErrs[1:]
		if err != nil {
			return err
		}
	}
	f.records[sessionID] = append([]ledger.TradeRecord{rec}, f.records[sessionID]...)
	return nil
}

func (f *fakeStore) stored(sessionID string) []ledger.TradeRecord {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]ledger.TradeRecord(nil), f.records[sessionID]...)
}

func (f *fakeStore) appendCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.appends
}

var t0 = time.Date(2025, 2, 10, 9, 0, 0, 0, time.UTC)

func testOpts() []Option {
	n := 0
	m := 0
	return []Option{
		WithClock(func() time.Time { m++; return t0.Add(time.Duration(m) * time.Minute) }),
		WithIDs(func(time.Time) string { n++; return fmt.Sprintf("R%03d", n) }),
		WithRetry(3, time.Millisecond, 2*time.Millisecond),
	}
}

var goldConfig = Config{InitialBalance: 1000, TargetPips: 20, RiskPercentage: 30}

// newStarted returns a started session whose writer is closed at cleanup.
func newStarted(t *testing.T, store Store, opts ...Option) *Session {
	t.Helper()
	s := New("s1", store, append(testOpts(), opts...)...)
	t.Cleanup(func() { _ = s.Close(context.Background()) })
	require.NoError(t, s.Start(goldConfig))
	return s
}

func flush(t *testing.T, s *Session) error {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.Flush(ctx)
}

package challenge

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/rustyeddy/goldtracker/ledger"
	"github.com/rustyeddy/goldtracker/metrics"
	"github.com/rustyeddy/goldtracker/pkg/errs"
)

var errClosed = errors.New("session closed")

const flushPoll = 5 * time.Millisecond

// job is a record to append, a purge of the session's stored records or a
// flush marker.
type job struct {
	rec   ledger.TradeRecord
	purge bool
	flush chan struct{}
}

// writer forwards records to the store in the order they were recorded.
type writer struct {
	queueSize     int
	maxRetries    int
	backoffBase   time.Duration
	backoffCap    time.Duration
	appendTimeout time.Duration

	queue  chan job
	sendMu sync.RWMutex // guards closed and sends on queue
	closed bool

	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	closeOnce sync.Once
}

func (s *Session) startWriter() {
	s.queue = make(chan job, s.queueSize)
	s.ctx, s.cancel = context.WithCancel(context.Background())
	s.wg.Add(1)
	go s.runWriter()
}

func (s *Session) runWriter() {
	defer s.wg.Done()
	for j := range s.queue {
		if j.flush != nil {
			close(j.flush)
			continue
		}

		var err error
		if j.purge {
			if err = s.purgeWithRetry(); err != nil {
				err = fmt.Errorf("reset: %w", err)
			}
		} else if err = s.appendWithRetry(j.rec); err != nil {
			err = fmt.Errorf("level %d: %w", j.rec.Level, err)
		}

		s.mu.Lock()
		if err != nil {
			s.setSyncErrLocked(err)
		} else {
			s.syncErr = nil
		}
		s.mu.Unlock()
		metrics.SetSessionQueueDepth(s.id, len(s.queue))
	}
}

// enqueue hands rec to the writer without blocking. A full queue drops the
// record and reports a write error.
func (s *Session) enqueue(rec ledger.TradeRecord) error {
	return s.send(job{rec: rec}, fmt.Sprintf("level %d", rec.Level))
}

// enqueuePurge asks the writer to delete the session's stored records
// before any record enqueued after it.
func (s *Session) enqueuePurge() error {
	return s.send(job{purge: true}, "reset")
}

func (s *Session) send(j job, what string) error {
	s.sendMu.RLock()
	defer s.sendMu.RUnlock()
	if s.closed {
		return errs.WriteFailed("enqueue", errClosed)
	}
	select {
	case s.queue <- j:
		metrics.SetSessionQueueDepth(s.id, len(s.queue))
		return nil
	default:
		return errs.WriteFailed("enqueue", fmt.Errorf("write queue full, %s not forwarded", what))
	}
}

func (s *Session) appendWithRetry(rec ledger.TradeRecord) error {
	return s.withRetry("append", rec.Level, func(ctx context.Context) error {
		return s.store.Append(ctx, s.id, rec)
	})
}

func (s *Session) purgeWithRetry() error {
	p, ok := s.store.(Purger)
	if !ok {
		return errs.WriteFailed("purge", errors.New("store cannot purge"))
	}
	return s.withRetry("purge", 0, func(ctx context.Context) error {
		return p.Purge(ctx, s.id)
	})
}

// withRetry retries op while the store is unavailable, backing off
// exponentially up to backoffCap. Other failures are returned at once.
func (s *Session) withRetry(op string, level int, fn func(ctx context.Context) error) error {
	var lastErr error
	for attempt := 0; attempt <= s.maxRetries; attempt++ {
		if attempt > 0 {
			if err := s.waitBackoff(attempt); err != nil {
				return lastErr
			}
		}

		ctx, cancel := context.WithTimeout(s.ctx, s.appendTimeout)
		err := fn(ctx)
		cancel()
		if err == nil {
			return nil
		}
		lastErr = err
		if !errors.Is(err, errs.ErrStoreUnavailable) {
			return err
		}
		s.log.Debug().Err(err).Str("op", op).Int("level", level).Int("attempt", attempt+1).Msg("store unavailable, retrying")
	}
	return lastErr
}

func (s *Session) waitBackoff(attempt int) error {
	backoff := time.Duration(float64(s.backoffBase) * math.Pow(2, float64(attempt-1)))
	if backoff > s.backoffCap {
		backoff = s.backoffCap
	}
	jitter := time.Duration(rand.Float64() * float64(backoff) * 0.5)

	timer := time.NewTimer(backoff + jitter)
	defer timer.Stop()

	select {
	case <-s.ctx.Done():
		return s.ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Flush waits until every record recorded so far has been offered to the
// store, then returns the current sync error.
func (s *Session) Flush(ctx context.Context) error {
	if s.store == nil {
		return nil
	}
	done := make(chan struct{})
	tick := time.NewTicker(flushPoll)
	defer tick.Stop()

	// The marker is offered without blocking so Close can always take
	// sendMu; a full queue is retried until it drains.
	for sent := false; !sent; {
		s.sendMu.RLock()
		if s.closed {
			s.sendMu.RUnlock()
			return s.SyncError()
		}
		select {
		case s.queue <- job{flush: done}:
			sent = true
		default:
		}
		s.sendMu.RUnlock()
		if sent {
			break
		}

		select {
		case <-tick.C:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	select {
	case <-done:
		return s.SyncError()
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops accepting records and waits for the writer to drain. When ctx
// ends first, pending retries are abandoned and ctx's error is returned.
func (s *Session) Close(ctx context.Context) error {
	if s.store == nil {
		return nil
	}
	s.closeOnce.Do(func() {
		s.sendMu.Lock()
		s.closed = true
		close(s.queue)
		s.sendMu.Unlock()
	})

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.cancel()
		return nil
	case <-ctx.Done():
		s.cancel()
		<-done
		return ctx.Err()
	}
}

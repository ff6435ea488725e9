package challenge

import (
	"time"

	"github.com/rs/zerolog"
)

const (
	defaultQueueSize     = 64
	defaultMaxRetries    = 4
	defaultBackoffBase   = 100 * time.Millisecond
	defaultBackoffCap    = 2 * time.Second
	defaultAppendTimeout = 10 * time.Second
)

type Option func(*Session)

func WithLogger(l zerolog.Logger) Option {
	return func(s *Session) { s.log = l }
}

func WithZeroBalancePolicy(p ZeroBalancePolicy) Option {
	return func(s *Session) { s.zeroPolicy = p }
}

func WithReloadPolicy(p ReloadPolicy) Option {
	return func(s *Session) { s.reloadPolicy = p }
}

// WithQueueSize bounds the number of records waiting for the store.
func WithQueueSize(n int) Option {
	return func(s *Session) {
		if n > 0 {
			s.queueSize = n
		}
	}
}

// WithRetry sets how often an unavailable store is retried and the backoff
// between attempts.
func WithRetry(maxRetries int, base, maxDelay time.Duration) Option {
	return func(s *Session) {
		if maxRetries < 0 {
			maxRetries = 0
		}
		s.maxRetries = maxRetries
		s.backoffBase = base
		s.backoffCap = maxDelay
	}
}

// WithAppendTimeout bounds a single store append attempt.
func WithAppendTimeout(d time.Duration) Option {
	return func(s *Session) {
		if d > 0 {
			s.appendTimeout = d
		}
	}
}

// WithClock overrides the timestamp source for new records.
func WithClock(now func() time.Time) Option {
	return func(s *Session) { s.now = now }
}

// WithIDs overrides the record id generator.
func WithIDs(newID func(time.Time) string) Option {
	return func(s *Session) { s.newID = newID }
}

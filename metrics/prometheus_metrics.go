//go:build metrics

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	BackendUnknown  = "unknown"
	BackendMemory   = "memory"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
)

var (
	storeAppendAttemptsCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "goldtracker_store_append_attempts_total",
		Help: "store.append_attempts – records offered to a ledger store",
	}, []string{"backend"})

	storeAppendFailuresCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "goldtracker_store_append_failures_total",
		Help: "store.append_failures – appends rejected or lost by a ledger store",
	}, []string{"backend"})

	storeDuplicatesCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "goldtracker_store_duplicates_total",
		Help: "store.duplicates – appends of an already stored identical record",
	}, []string{"backend"})

	storeLatencyGauge = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "goldtracker_store_latency_ms",
		Help: "store.latency_ms – duration of the latest store operation",
	}, []string{"backend", "op"})

	sessionBalanceGauge = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "goldtracker_session_balance",
		Help: "session.balance – current challenge balance",
	}, []string{"session_id"})

	sessionLevelGauge = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "goldtracker_session_level",
		Help: "session.level – next trade level",
	}, []string{"session_id"})

	sessionTradesCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "goldtracker_session_trades_total",
		Help: "session.trades – recorded trades by result",
	}, []string{"session_id", "result"})

	sessionSyncErrorsCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "goldtracker_session_sync_errors_total",
		Help: "session.sync_errors – store failures surfaced to the session",
	}, []string{"session_id"})

	sessionQueueDepthGauge = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "goldtracker_session_queue_depth",
		Help: "session.queue_depth – records waiting for the store writer",
	}, []string{"session_id"})
)

func init() {
	prometheus.MustRegister(
		storeAppendAttemptsCounter,
		storeAppendFailuresCounter,
		storeDuplicatesCounter,
		storeLatencyGauge,
		sessionBalanceGauge,
		sessionLevelGauge,
		sessionTradesCounter,
		sessionSyncErrorsCounter,
		sessionQueueDepthGauge,
	)
}

func IncStoreAppendAttempts(backend string) {
	storeAppendAttemptsCounter.WithLabelValues(backend).Inc()
}

func IncStoreAppendFailures(backend string) {
	storeAppendFailuresCounter.WithLabelValues(backend).Inc()
}

func IncStoreDuplicates(backend string) {
	storeDuplicatesCounter.WithLabelValues(backend).Inc()
}

func ObserveStoreLatency(backend, op string, duration time.Duration) {
	storeLatencyGauge.WithLabelValues(backend, op).Set(duration.Seconds() * 1000)
}

func ObserveSessionBalance(sessionID string, balance float64) {
	sessionBalanceGauge.WithLabelValues(sessionID).Set(balance)
}

func ObserveSessionLevel(sessionID string, level int) {
	sessionLevelGauge.WithLabelValues(sessionID).Set(float64(level))
}

func IncSessionTrades(sessionID, result string) {
	sessionTradesCounter.WithLabelValues(sessionID, result).Inc()
}

func IncSessionSyncErrors(sessionID string) {
	sessionSyncErrorsCounter.WithLabelValues(sessionID).Inc()
}

func SetSessionQueueDepth(sessionID string, depth int) {
	sessionQueueDepthGauge.WithLabelValues(sessionID).Set(float64(depth))
}

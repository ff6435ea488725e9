//go:build !metrics

package metrics

import "time"

const (
	BackendUnknown  = "unknown"
	BackendMemory   = "memory"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
)

func IncStoreAppendAttempts(string)                     {}
func IncStoreAppendFailures(string)                     {}
func IncStoreDuplicates(string)                         {}
func ObserveStoreLatency(string, string, time.Duration) {}
func ObserveSessionBalance(string, float64)             {}
func ObserveSessionLevel(string, int)                   {}
func IncSessionTrades(string, string)                   {}
func IncSessionSyncErrors(string)                       {}
func SetSessionQueueDepth(string, int)                  {}

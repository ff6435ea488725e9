//go:build !metrics

package metrics

import (
	"testing"
	"time"
)

func mustNotPanic(t *testing.T, name string, fn func()) {
	t.Helper()
	defer func() {
		if r := recover(); r != nil {
			t.Fatalf("%s panicked: %v", name, r)
		}
	}()
	fn()
}

func TestNoopMetricsAreNoop(t *testing.T) {
	testCases := []struct {
		name string
		fn   func()
	}{
		{"IncStoreAppendAttempts", func() { IncStoreAppendAttempts(BackendSQLite) }},
		{"IncStoreAppendFailures", func() { IncStoreAppendFailures(BackendPostgres) }},
		{"IncStoreDuplicates", func() { IncStoreDuplicates(BackendMemory) }},
		{"ObserveStoreLatency", func() { ObserveStoreLatency(BackendUnknown, "list", 3*time.Millisecond) }},
		{"ObserveSessionBalance", func() { ObserveSessionBalance("s1", 1450) }},
		{"ObserveSessionLevel", func() { ObserveSessionLevel("s1", 2) }},
		{"IncSessionTrades", func() { IncSessionTrades("s1", "Win") }},
		{"IncSessionSyncErrors", func() { IncSessionSyncErrors("s1") }},
		{"SetSessionQueueDepth", func() { SetSessionQueueDepth("s1", 4) }},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			mustNotPanic(t, tc.name, func() {
				tc.fn()
				tc.fn()
			})
		})
	}
}

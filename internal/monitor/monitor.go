// Package monitor implements the resource watchdog: it tracks Go heap
// allocation (runtime.MemStats.HeapAlloc) against a configured ceiling and
// wall-clock elapsed time against a timeout, tripping a single cooperative
// cancel flag when either is exceeded. Memory allocated outside the Go
// heap is not counted.
package monitor

import (
	"runtime"
	"sync/atomic"
	"time"
)

// Trigger names why the monitor tripped.
type Trigger string

const (
	TriggerNone    Trigger = ""
	TriggerMemory  Trigger = "memory"
	TriggerTimeout Trigger = "timeout"
	TriggerManual  Trigger = "manual"
)

// Monitor is polled by discovery.Run at each candidate boundary; before
// each SQL query, queryengine.Engine only reads the cancel flag, so the
// memory and timeout ceilings are checked at candidate boundaries. It is
// safe for concurrent use, though MATILDA's discovery loop is
// single-threaded and only ever polls it from one goroutine.
type Monitor struct {
	memThreshold uint64
	timeout      time.Duration
	start        time.Time

	cancelled atomic.Bool
	trigger   atomic.Value // Trigger

	consecutiveTimeouts atomic.Int32
}

// New creates a Monitor with the given ceilings. A zero memThreshold or
// timeout disables that check.
func New(memThreshold uint64, timeout time.Duration) *Monitor {
	m := &Monitor{memThreshold: memThreshold, timeout: timeout, start: time.Now()}
	m.trigger.Store(TriggerNone)
	return m
}

// Cancelled reports whether the cancel flag has tripped, by any means.
func (m *Monitor) Cancelled() bool {
	return m.cancelled.Load()
}

// Trigger returns why the monitor tripped, or TriggerNone if it has not.
func (m *Monitor) Trigger() Trigger {
	return m.trigger.Load().(Trigger)
}

// Trip sets the cancel flag unconditionally. Idempotent: a Trip after the
// flag is already set has no further effect and does not overwrite the
// original trigger.
func (m *Monitor) Trip(reason Trigger) {
	if m.cancelled.CompareAndSwap(false, true) {
		m.trigger.Store(reason)
	}
}

// Poll checks memory and elapsed time against the configured ceilings and
// trips the cancel flag if either is exceeded. It returns the current
// trigger (TriggerNone if still healthy). discovery.Run calls this at each
// candidate boundary.
func (m *Monitor) Poll() Trigger {
	if m.Cancelled() {
		return m.Trigger()
	}
	if m.timeout > 0 && time.Since(m.start) > m.timeout {
		m.Trip(TriggerTimeout)
		return m.Trigger()
	}
	if m.memThreshold > 0 {
		var ms runtime.MemStats
		runtime.ReadMemStats(&ms)
		if ms.HeapAlloc > m.memThreshold {
			m.Trip(TriggerMemory)
			return m.Trigger()
		}
	}
	return TriggerNone
}

// RecordTimeout registers a per-statement QueryError{Timeout}. Per the
// error handling design, three consecutive timeouts escalate to a clean
// Cancelled stop. It returns true exactly when this call caused the
// escalation.
func (m *Monitor) RecordTimeout() bool {
	n := m.consecutiveTimeouts.Add(1)
	if n >= 3 {
		wasCancelled := m.Cancelled()
		m.Trip(TriggerTimeout)
		return !wasCancelled
	}
	return false
}

// RecordSuccess resets the consecutive-timeout counter.
func (m *Monitor) RecordSuccess() {
	m.consecutiveTimeouts.Store(0)
}

// Elapsed returns time elapsed since the monitor was created.
func (m *Monitor) Elapsed() time.Duration {
	return time.Since(m.start)
}

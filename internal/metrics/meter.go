// Package metrics implements the per-policy-kind latency estimator the
// dispatch controller uses as its automatic-switch signal.
package metrics

import (
	"time"

	"github.com/pmacedo/dispatchproxy/internal/policy"
)

// Debounce is the minimum wall-clock interval between two automatic policy
// switches.
const Debounce = 10 * time.Second

// Meter is a running mean of observed request latencies (in milliseconds),
// keyed by policy kind, plus the debounce clock for automatic switching.
//
// A single sample counter n is shared across kinds by design: after a
// switch the meter is reset for the old kind and the new kind starts
// accumulating from n=0, bounding cross-kind interference.
type Meter struct {
	avgMS        map[policy.Kind]int64
	n            int64
	lastSwitchAt time.Time
}

// NewMeter returns a Meter whose debounce clock starts now.
func NewMeter() *Meter {
	return &Meter{
		avgMS:        make(map[policy.Kind]int64),
		lastSwitchAt: time.Now(),
	}
}

// Record folds an observed latency (elapsed, in milliseconds) into kind's
// running mean using the cumulative-mean update, then advances the shared
// sample counter.
func (m *Meter) Record(kind policy.Kind, elapsedMS int64) {
	avg, ok := m.avgMS[kind]
	if !ok {
		avg = 0
	}
	m.avgMS[kind] = (avg*m.n + elapsedMS) / (m.n + 1)
	m.n++
}

// Average returns kind's running mean and whether it has ever been recorded
// since the last reset of that kind.
func (m *Meter) Average(kind policy.Kind) (ms int64, ok bool) {
	ms, ok = m.avgMS[kind]
	return
}

// Reset drops kind's mean, zeros the shared sample counter, and restarts the
// debounce clock. Called both by the automatic-switch path and by a manual
// control-plane switch.
func (m *Meter) Reset(kind policy.Kind) {
	delete(m.avgMS, kind)
	m.n = 0
	m.lastSwitchAt = time.Now()
}

// ShouldSwitch reports whether Debounce has elapsed since the last Reset (or
// since meter construction).
func (m *Meter) ShouldSwitch() bool {
	return time.Since(m.lastSwitchAt) >= Debounce
}

// Backdate moves the debounce clock back by d, so ShouldSwitch begins
// returning true sooner. Exists for deterministic tests of the debounce
// window; production code never calls it.
func (m *Meter) Backdate(d time.Duration) {
	m.lastSwitchAt = m.lastSwitchAt.Add(-d)
}

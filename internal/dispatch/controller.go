// Package dispatch implements the adaptive dispatch core: the controller
// that glues the worker registry, the active selection policy, and the
// latency meter together, and is the sole entry point the transport layer
// calls into per request.
package dispatch

import (
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/pmacedo/dispatchproxy/internal/metrics"
	"github.com/pmacedo/dispatchproxy/internal/policy"
	"github.com/pmacedo/dispatchproxy/internal/worker"
)

// Threshold is the latency (in milliseconds) above which the automatic
// switch considers the active policy underperforming.
const Threshold int64 = 2000

// Controller owns the immutable worker registry, the mutable current
// policy (behind an exclusive lock), and the mutable latency meter (behind
// its own exclusive lock). It is shared, read-only from the transport
// adapter's perspective, across every in-flight request.
//
// Lock order: when both locks are needed, policyMu is acquired before
// meterMu. Neither lock is ever held across the upstream I/O call.
type Controller struct {
	registry *worker.Registry

	policyMu sync.Mutex
	current  policy.Policy

	meterMu sync.Mutex
	meter   *metrics.Meter
}

// New builds a controller over hosts, with the given initial policy kind.
// Fails with worker.ErrEmptyRegistry if hosts is empty.
func New(hosts []string, initial policy.Kind) (*Controller, error) {
	reg, err := worker.NewRegistry(hosts)
	if err != nil {
		return nil, err
	}
	return &Controller{
		registry: reg,
		current:  policy.New(initial, reg),
		meter:    metrics.NewMeter(),
	}, nil
}

// Ticket is the (worker, selection-kind) pair the controller hands back to
// the transport adapter for a chosen request. The adapter calls its Release
// method once after the forwarded call completes.
type Ticket struct {
	Worker worker.Worker
	kind   policy.Kind
	ctrl   *Controller
	done   bool
}

// Select runs the adaptive switch check, then asks the (possibly just
// replaced) current policy to choose a worker.
func (c *Controller) Select() Ticket {
	c.policyMu.Lock()
	defer c.policyMu.Unlock()

	c.maybeSwitch()

	w := c.current.Choose(c.registry)
	return Ticket{Worker: w, kind: c.current.Kind(), ctrl: c}
}

// maybeSwitch must be called with policyMu held. It checks the latency
// meter for the currently active policy kind and, if the average exceeds
// Threshold and the debounce window has elapsed, replaces the active
// policy with a fresh instance of the other kind and resets the meter.
func (c *Controller) maybeSwitch() {
	k := c.current.Kind()

	c.meterMu.Lock()
	avg, ok := c.meter.Average(k)
	shouldSwitch := ok && avg > Threshold && c.meter.ShouldSwitch()
	c.meterMu.Unlock()

	if !shouldSwitch {
		return
	}

	next := policy.Other(k)
	c.current = policy.New(next, c.registry)

	c.meterMu.Lock()
	c.meter.Reset(k)
	c.meterMu.Unlock()

	log.Info().
		Str("from", string(k)).
		Str("to", string(next)).
		Msg("dispatch: automatic policy switch")
}

// Release applies release/record bookkeeping for a completed request:
// release is applied to whatever policy is *currently* installed (which
// may differ from the one the worker was chosen under, if a concurrent
// request triggered a switch in between — this is intentional, and is
// harmless since a switch also resets the meter), and the latency sample
// is recorded against the kind at selection time. Safe to call exactly once
// per Ticket; a second call is a no-op.
func (t *Ticket) Release(elapsed time.Duration) {
	if t.done {
		return
	}
	t.done = true

	t.ctrl.policyMu.Lock()
	t.ctrl.current.Release(t.Worker)
	t.ctrl.policyMu.Unlock()

	t.ctrl.meterMu.Lock()
	t.ctrl.meter.Record(t.kind, elapsed.Milliseconds())
	t.ctrl.meterMu.Unlock()
}

// ErrBadControlQuery signals a malformed or missing change_algorithm query.
var ErrBadControlQuery = errors.New("dispatch: bad control query")

// ManualSwitch installs a fresh policy of kind, resets the meter for the
// kind that was active before the switch, and restarts the debounce clock.
// This mirrors the automatic-switch reset path so a manual switch into a
// policy that happens to already be over threshold is not immediately
// re-switched away by the adaptive loop.
func (c *Controller) ManualSwitch(kind policy.Kind) {
	c.policyMu.Lock()
	defer c.policyMu.Unlock()

	previous := c.current.Kind()
	c.current = policy.New(kind, c.registry)

	c.meterMu.Lock()
	c.meter.Reset(previous)
	c.meterMu.Unlock()

	log.Info().
		Str("from", string(previous)).
		Str("to", string(kind)).
		Msg("dispatch: manual policy switch")
}

// Registry exposes the controller's immutable worker set, read-only, for
// the transport adapter to build upstream URIs from.
func (c *Controller) Registry() *worker.Registry {
	return c.registry
}

// CurrentKind reports the currently installed policy kind. Intended for
// diagnostics/tests; callers must not rely on it remaining current by the
// time they act on it, since it can change concurrently.
func (c *Controller) CurrentKind() policy.Kind {
	c.policyMu.Lock()
	defer c.policyMu.Unlock()
	return c.current.Kind()
}

// BackdateMeter moves the latency meter's debounce clock back by d. Exists
// for deterministic tests of the automatic-switch debounce window;
// production code never calls it.
func (c *Controller) BackdateMeter(d time.Duration) {
	c.meterMu.Lock()
	defer c.meterMu.Unlock()
	c.meter.Backdate(d)
}

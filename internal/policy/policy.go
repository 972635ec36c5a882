// Package policy implements the pluggable worker-selection strategies used
// by the dispatch controller: round-robin and least-connections.
package policy

import "github.com/pmacedo/dispatchproxy/internal/worker"

// Kind is the closed set of selection policies the controller can run.
type Kind string

const (
	RoundRobin       Kind = "round_robin"
	LeastConnections Kind = "least_connections"
)

// Policy chooses a worker from a registry and tracks whatever per-worker
// bookkeeping its algorithm needs. Implementations are not required to be
// lock-free: the dispatch controller serialises all calls under its own
// exclusive lock, so Choose/Release/Kind never need internal locking.
type Policy interface {
	// Choose picks a worker from registry. Precondition: registry is
	// non-empty. Mutates the policy's internal state.
	Choose(registry *worker.Registry) worker.Worker

	// Release is called exactly once per successful Choose, after the
	// forwarded request completes. Must be idempotent once a worker's
	// counter is back at baseline. The zero-value behaviour is a no-op.
	Release(w worker.Worker)

	// Kind reports which PolicyKind this value implements.
	Kind() Kind
}

// New constructs a fresh policy of the given kind, seeded from registry.
func New(kind Kind, registry *worker.Registry) Policy {
	switch kind {
	case LeastConnections:
		return NewLeastConnections(registry)
	default:
		return NewRoundRobin()
	}
}

// Other toggles between the two closed PolicyKind variants, used by the
// automatic-switch controller.
func Other(kind Kind) Kind {
	if kind == RoundRobin {
		return LeastConnections
	}
	return RoundRobin
}

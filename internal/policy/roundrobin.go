package policy

import "github.com/pmacedo/dispatchproxy/internal/worker"

// RoundRobinPolicy rotates through the registry in order. The cursor is
// owned by the controller's policy lock; it carries no lock of its own.
type RoundRobinPolicy struct {
	current uint64
}

// NewRoundRobin returns a fresh round-robin policy with its cursor at zero.
func NewRoundRobin() *RoundRobinPolicy {
	return &RoundRobinPolicy{}
}

// Choose returns registry[current % n] and advances current by one, mod n.
// Overflow of current is masked by the modulo and never observable.
func (p *RoundRobinPolicy) Choose(registry *worker.Registry) worker.Worker {
	workers := registry.Workers()
	n := uint64(len(workers))
	w := workers[p.current%n]
	p.current = (p.current + 1) % n
	return w
}

// Release is a no-op: round-robin keeps no per-worker state.
func (p *RoundRobinPolicy) Release(worker.Worker) {}

// Kind returns RoundRobin.
func (p *RoundRobinPolicy) Kind() Kind { return RoundRobin }

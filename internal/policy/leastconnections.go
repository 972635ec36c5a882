package policy

import "github.com/pmacedo/dispatchproxy/internal/worker"

// LeastConnectionsPolicy tracks an outstanding-request counter per worker
// host, seeded to zero for every host in the registry at construction. The
// counter map is never resized after that: hosts not present at construction
// are simply ignored by Release.
type LeastConnectionsPolicy struct {
	counts map[string]int32
}

// NewLeastConnections seeds one zeroed counter per worker in registry.
func NewLeastConnections(registry *worker.Registry) *LeastConnectionsPolicy {
	workers := registry.Workers()
	counts := make(map[string]int32, len(workers))
	for _, w := range workers {
		counts[w.Host] = 0
	}
	return &LeastConnectionsPolicy{counts: counts}
}

// Choose scans the registry in order, picks the worker with the smallest
// outstanding count (ties broken by earliest registry index), increments
// that worker's counter exactly once, and returns it.
//
// A prior revision of this policy incremented the chosen counter twice;
// that was a bug. A single Choose followed by a single Release must bring
// the counter back to zero.
func (p *LeastConnectionsPolicy) Choose(registry *worker.Registry) worker.Worker {
	workers := registry.Workers()
	chosen := workers[0]
	min := p.counts[chosen.Host]
	for _, w := range workers[1:] {
		if c := p.counts[w.Host]; c < min {
			min = c
			chosen = w
		}
	}
	p.counts[chosen.Host]++
	return chosen
}

// Release decrements w's counter if it is above zero. A counter already at
// zero, or a host unknown to this policy instance, is a no-op.
func (p *LeastConnectionsPolicy) Release(w worker.Worker) {
	if c, ok := p.counts[w.Host]; ok && c > 0 {
		p.counts[w.Host] = c - 1
	}
}

// Kind returns LeastConnections.
func (p *LeastConnectionsPolicy) Kind() Kind { return LeastConnections }

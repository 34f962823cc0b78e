// Package capacity answers whether an assignment target can take on more
// leads. The engine only consumes the Provider interface; deployments plug
// in whatever backs their workload data.
package capacity

import (
	"context"
	"sync"

	"github.com/kylasweb/inline-crm-rules/internal/types"
)

// Capacity describes a target's current load against its limit.
// Max <= 0 means unlimited.
type Capacity struct {
	Current int `json:"current"`
	Max     int `json:"max"`
}

// AtLimit reports whether the target cannot accept another lead.
func (c Capacity) AtLimit() bool {
	return c.Max > 0 && c.Current >= c.Max
}

// Provider reports capacity for an assignment target. Unknown targets
// return unlimited capacity, not an error; errors are reserved for the
// backing source being unreachable.
type Provider interface {
	GetCapacity(ctx context.Context, kind types.TargetKind, target string) (Capacity, error)
}

// Recorder is implemented by providers that track load in-process. The
// assignment resolver records every successful assignment so a target's
// Current load advances between calls; providers backed by an external
// workload source simply don't implement it.
type Recorder interface {
	Record(kind types.TargetKind, target string)
}

// Unlimited is a Provider that never limits any target.
type Unlimited struct{}

func (Unlimited) GetCapacity(context.Context, types.TargetKind, string) (Capacity, error) {
	return Capacity{}, nil
}

// StaticProvider serves capacity from an in-memory table, keyed by
// "kind:target". It backs single-node deployments and tests.
type StaticProvider struct {
	mu      sync.RWMutex
	entries map[string]Capacity
}

// NewStaticProvider builds a provider from configured limits. Limits map
// "kind:target" (e.g. "user:alice", "team:inside-sales") to a maximum.
func NewStaticProvider(limits map[string]int) *StaticProvider {
	entries := make(map[string]Capacity, len(limits))
	for key, max := range limits {
		entries[key] = Capacity{Max: max}
	}
	return &StaticProvider{entries: entries}
}

func (p *StaticProvider) GetCapacity(_ context.Context, kind types.TargetKind, target string) (Capacity, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.entries[key(kind, target)], nil
}

// Record bumps the current load for a target after a successful assignment.
// Targets without a configured limit are not tracked.
func (p *StaticProvider) Record(kind types.TargetKind, target string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	k := key(kind, target)
	c, ok := p.entries[k]
	if !ok {
		return
	}
	c.Current++
	p.entries[k] = c
}

func key(kind types.TargetKind, target string) string {
	return string(kind) + ":" + target
}

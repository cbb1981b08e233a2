package matchmaker

import (
	"fmt"
	"strconv"
	"sync"

	"lfg-queue-sim/metrics"
)

type instance struct {
	id              int
	active          bool
	partiesServed   int
	totalTimeServed int
}

// InstancePool is a fixed set of dungeon instances, each hosting at most one
// party at a time. Claims, releases and the idle-slot wait share one lock.
type InstancePool struct {
	mu        sync.Mutex
	idle      *sync.Cond
	instances []*instance
	active    int
}

// NewInstancePool creates capacity idle instances numbered from 1.
func NewInstancePool(capacity int) *InstancePool {
	p := &InstancePool{instances: make([]*instance, capacity)}
	for i := range p.instances {
		p.instances[i] = &instance{id: i + 1}
	}
	p.idle = sync.NewCond(&p.mu)
	metrics.ActiveInstances.Set(0)
	return p
}

// Capacity returns the number of instance slots.
func (p *InstancePool) Capacity() int { return len(p.instances) }

// TryClaimIdleSlot marks the lowest-numbered idle instance active and
// returns its id. ok is false when every instance is busy.
func (p *InstancePool) TryClaimIdleSlot() (id int, ok bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, in := range p.instances {
		if !in.active {
			in.active = true
			p.active++
			metrics.ActiveInstances.Set(float64(p.active))
			return in.id, true
		}
	}
	return 0, false
}

// Release returns instance id to the pool, records the run and wakes every
// waiter. Releasing an unknown or idle instance panics.
func (p *InstancePool) Release(id int, elapsedSeconds int) {
	p.mu.Lock()
	if id < 1 || id > len(p.instances) {
		p.mu.Unlock()
		panic(fmt.Sprintf("matchmaker: release of unknown instance %d", id))
	}
	in := p.instances[id-1]
	if !in.active {
		p.mu.Unlock()
		panic(fmt.Sprintf("matchmaker: release of idle instance %d", id))
	}
	in.active = false
	in.partiesServed++
	in.totalTimeServed += elapsedSeconds
	p.active--
	metrics.ActiveInstances.Set(float64(p.active))
	metrics.PartiesCompletedTotal.WithLabelValues(strconv.Itoa(id)).Inc()
	p.mu.Unlock()

	p.idle.Broadcast()
}

// AwaitIdleSlot blocks until at least one instance is idle. It does not
// claim the slot.
func (p *InstancePool) AwaitIdleSlot() {
	p.mu.Lock()
	for p.active >= len(p.instances) {
		p.idle.Wait()
	}
	p.mu.Unlock()
}

// AnyActive reports whether any instance is hosting a party.
func (p *InstancePool) AnyActive() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.active > 0
}

// ActiveCount returns the number of busy instances.
func (p *InstancePool) ActiveCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.active
}

// Snapshot returns a copy of every instance's state, ordered by id.
func (p *InstancePool) Snapshot() []InstanceStats {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make([]InstanceStats, len(p.instances))
	for i, in := range p.instances {
		out[i] = InstanceStats{
			ID:              in.id,
			Active:          in.active,
			PartiesServed:   in.partiesServed,
			TotalTimeServed: in.totalTimeServed,
		}
	}
	return out
}

// Copyright 2025 The Rivaas Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package h3go

import "sync/atomic"

// EventPool hands out pooled *Event values, sized into small/medium/large
// tiers by expected parameter count so a route with two path parameters
// doesn't pay for the backing arrays a 16-parameter route would need.
// Every Acquire must be paired with a Release once the Event's response
// has been sent (or the stream has closed); failing to do so doesn't leak
// memory (Go's GC still reclaims it) but it does starve the pool, pushing
// every subsequent request onto a fresh allocation.
type EventPool struct {
	small  chan *Event
	medium chan *Event
	large  chan *Event

	maxParams int

	created    uint64
	reused     uint64
	poolHits   uint64
	poolMisses uint64
	inUse      int64
	peakInUse  int64
}

const (
	smallParamThreshold  = 4
	mediumParamThreshold = 8
)

// NewEventPool builds an EventPool whose tiers each hold up to capacity
// free Events (0 means unbounded growth with no free-list reuse beyond
// what's already in flight — every Acquire allocates).
func NewEventPool(capacity, maxParams int) *EventPool {
	if maxParams <= 0 {
		maxParams = DefaultMaxParams
	}
	p := &EventPool{maxParams: maxParams}
	if capacity > 0 {
		p.small = make(chan *Event, capacity)
		p.medium = make(chan *Event, capacity)
		p.large = make(chan *Event, capacity)
	}
	return p
}

// warmup pre-allocates up to n *Event values into each tier's free-list
// (bounded by that tier's channel capacity), so the first n requests of
// each size class after construction hit the pool instead of allocating.
// Each warmed entry counts toward Created, since it is a genuine
// allocation made ahead of demand rather than on it.
func (p *EventPool) warmup(n int) {
	if n <= 0 || p.small == nil {
		return
	}
	fill := func(tier chan *Event) {
		limit := cap(tier)
		if n < limit {
			limit = n
		}
		for i := 0; i < limit; i++ {
			select {
			case tier <- newEvent(p.maxParams):
				atomic.AddUint64(&p.created, 1)
			default:
				return
			}
		}
	}
	fill(p.small)
	fill(p.medium)
	fill(p.large)
}

func (p *EventPool) tierFor(expectedParams int) chan *Event {
	switch {
	case expectedParams <= smallParamThreshold:
		return p.small
	case expectedParams <= mediumParamThreshold:
		return p.medium
	default:
		return p.large
	}
}

// Acquire returns an Event ready for a new request, reused from the tier
// matching expectedParams when one is free, or freshly allocated
// otherwise.
func (p *EventPool) Acquire(expectedParams int) *Event {
	tier := p.tierFor(expectedParams)
	inUse := atomic.AddInt64(&p.inUse, 1)
	for {
		peak := atomic.LoadInt64(&p.peakInUse)
		if inUse <= peak || atomic.CompareAndSwapInt64(&p.peakInUse, peak, inUse) {
			break
		}
	}
	if tier != nil {
		select {
		case e := <-tier:
			atomic.AddUint64(&p.reused, 1)
			atomic.AddUint64(&p.poolHits, 1)
			return e
		default:
		}
	}
	atomic.AddUint64(&p.poolMisses, 1)
	atomic.AddUint64(&p.created, 1)
	return newEvent(p.maxParams)
}

// Release resets e and returns it to the tier matching expectedParams, the
// same value Acquire was called with. If that tier's free-list is full
// (or pooling is disabled), e is simply dropped for the GC to collect.
func (p *EventPool) Release(e *Event, expectedParams int) {
	e.reset()
	atomic.AddInt64(&p.inUse, -1)
	tier := p.tierFor(expectedParams)
	if tier == nil {
		return
	}
	select {
	case tier <- e:
	default:
	}
}

// PoolStats is a point-in-time snapshot of EventPool activity.
type PoolStats struct {
	Created      uint64
	Reused       uint64
	PoolHits     uint64
	PoolMisses   uint64
	CurrentUsage int64
	PeakUsage    int64
}

// Stats reports the pool's current counters.
func (p *EventPool) Stats() PoolStats {
	return PoolStats{
		Created:      atomic.LoadUint64(&p.created),
		Reused:       atomic.LoadUint64(&p.reused),
		PoolHits:     atomic.LoadUint64(&p.poolHits),
		PoolMisses:   atomic.LoadUint64(&p.poolMisses),
		CurrentUsage: atomic.LoadInt64(&p.inUse),
		PeakUsage:    atomic.LoadInt64(&p.peakInUse),
	}
}

// HitRate returns PoolHits / (PoolHits + PoolMisses), or 0 with no
// Acquire calls yet.
func (s PoolStats) HitRate() float64 {
	total := s.PoolHits + s.PoolMisses
	if total == 0 {
		return 0
	}
	return float64(s.PoolHits) / float64(total)
}

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

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEventPool_AcquireReleaseReuses(t *testing.T) {
	p := NewEventPool(4, DefaultMaxParams)
	e := p.Acquire(2)
	p.Release(e, 2)

	e2 := p.Acquire(2)
	assert.Same(t, e, e2, "a released event should be reused from its tier")

	stats := p.Stats()
	assert.Equal(t, uint64(1), stats.Created)
	assert.Equal(t, uint64(1), stats.Reused)
	assert.Equal(t, uint64(1), stats.PoolHits)
	assert.Equal(t, uint64(1), stats.PoolMisses)
}

func TestEventPool_TierRouting(t *testing.T) {
	p := NewEventPool(4, DefaultMaxParams)
	assert.NotNil(t, p.tierFor(0))
	assert.Same(t, p.small, p.tierFor(smallParamThreshold))
	assert.Same(t, p.medium, p.tierFor(smallParamThreshold+1))
	assert.Same(t, p.medium, p.tierFor(mediumParamThreshold))
	assert.Same(t, p.large, p.tierFor(mediumParamThreshold+1))
}

func TestEventPool_ZeroCapacityNeverPools(t *testing.T) {
	p := NewEventPool(0, DefaultMaxParams)
	e := p.Acquire(1)
	p.Release(e, 1)
	stats := p.Stats()
	assert.Equal(t, uint64(0), stats.PoolHits)
	assert.Equal(t, uint64(1), stats.PoolMisses)
}

func TestEventPool_PeakUsageTracksConcurrentAcquires(t *testing.T) {
	p := NewEventPool(4, DefaultMaxParams)
	e1 := p.Acquire(1)
	e2 := p.Acquire(1)
	stats := p.Stats()
	assert.Equal(t, int64(2), stats.CurrentUsage)
	assert.Equal(t, int64(2), stats.PeakUsage)

	p.Release(e1, 1)
	stats = p.Stats()
	assert.Equal(t, int64(1), stats.CurrentUsage)
	assert.Equal(t, int64(2), stats.PeakUsage, "peak should not decrease on release")

	p.Release(e2, 1)
}

func TestEventPool_WarmupPreallocatesEntries(t *testing.T) {
	p := NewEventPool(8, DefaultMaxParams)
	assert.Equal(t, uint64(0), p.Stats().Created, "construction alone should not allocate")

	p.warmup(4)
	assert.Equal(t, uint64(12), p.Stats().Created, "4 entries warmed across each of 3 tiers")

	e := p.Acquire(1)
	stats := p.Stats()
	assert.Equal(t, uint64(1), stats.PoolHits)
	assert.Equal(t, uint64(12), stats.Created, "acquiring a warmed entry must not allocate a new one")
	p.Release(e, 1)
}

func TestEventPool_WarmupRespectsTierCapacity(t *testing.T) {
	p := NewEventPool(2, DefaultMaxParams)
	p.warmup(10)
	assert.Equal(t, uint64(6), p.Stats().Created, "warmup caps at each tier's own capacity")
}

func TestEventPool_WarmupNoopWithoutCapacity(t *testing.T) {
	p := NewEventPool(0, DefaultMaxParams)
	p.warmup(4)
	assert.Equal(t, uint64(0), p.Stats().Created)
}

func TestPoolStats_HitRate(t *testing.T) {
	s := PoolStats{PoolHits: 3, PoolMisses: 1}
	assert.InDelta(t, 0.75, s.HitRate(), 0.0001)
	assert.Equal(t, float64(0), PoolStats{}.HitRate())
}

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
	"fmt"

	"github.com/oneopane/h3go/radix"
)

// AllocationStrategy picks a tradeoff between memory footprint and
// allocation-free hot path coverage for the server's pools. It only
// affects sizing decisions made once at startup; it has no effect on
// correctness.
type AllocationStrategy int

const (
	// StrategyMinimal keeps pool capacities small, favoring low idle
	// memory over avoiding allocations under bursty load. Suited to
	// embedding in memory-constrained processes.
	StrategyMinimal AllocationStrategy = iota
	// StrategyBalanced is the default: moderate pool capacities sized
	// for a typical REST workload's parameter-count distribution.
	StrategyBalanced
	// StrategyPerformance pre-warms large pools and favors avoiding any
	// allocation on the hot path, at the cost of more idle memory.
	StrategyPerformance
)

func (s AllocationStrategy) String() string {
	switch s {
	case StrategyMinimal:
		return "minimal"
	case StrategyBalanced:
		return "balanced"
	case StrategyPerformance:
		return "performance"
	default:
		return "unknown"
	}
}

// poolSizing is the set of capacities a Strategy expands into.
type poolSizing struct {
	eventPoolCapacity int
	routeCacheSize    int
	connWriteQueue    int
}

func (s AllocationStrategy) sizing() poolSizing {
	switch s {
	case StrategyMinimal:
		return poolSizing{eventPoolCapacity: 16, routeCacheSize: 64, connWriteQueue: 8}
	case StrategyPerformance:
		return poolSizing{eventPoolCapacity: 512, routeCacheSize: 4096, connWriteQueue: 256}
	default:
		return poolSizing{eventPoolCapacity: 64, routeCacheSize: 512, connWriteQueue: 32}
	}
}

// warmupCount returns how many *Event values to pre-allocate per tier at
// startup for strategy, as a fraction of that strategy's event pool
// capacity: a quarter under StrategyMinimal, half under StrategyBalanced,
// all of it under StrategyPerformance.
func warmupCount(strategy AllocationStrategy, capacity int) int {
	switch strategy {
	case StrategyMinimal:
		return capacity / 4
	case StrategyPerformance:
		return capacity
	default:
		return capacity / 2
	}
}

// MemoryManager owns the pools whose sizing is strategy-dependent and
// reports a combined view of their statistics. It does not itself pool
// anything; it is a thin façade the server builds its EventPool and
// route matcher cache from and later queries for a diagnostic report.
type MemoryManager struct {
	strategy AllocationStrategy
	sizing   poolSizing
	events   *EventPool
	matcher  *radix.Matcher
}

// NewMemoryManager builds a MemoryManager sized for strategy, and an
// EventPool and route Matcher sized to match.
func NewMemoryManager(strategy AllocationStrategy, maxParams int) *MemoryManager {
	sizing := strategy.sizing()
	events := NewEventPool(sizing.eventPoolCapacity, maxParams)
	events.warmup(warmupCount(strategy, sizing.eventPoolCapacity))
	return &MemoryManager{
		strategy: strategy,
		sizing:   sizing,
		events:   events,
		matcher: radix.NewMatcher(radix.Options{
			MaxParams: maxParams,
			CacheSize: sizing.routeCacheSize,
		}),
	}
}

// Optimize is a no-op hook reserved for future shrink logic, e.g.
// releasing idle tier capacity back after a sustained period of low
// pool pressure. Safe to call on a timer today; it does nothing yet.
func (m *MemoryManager) Optimize() {}

// Events returns the managed EventPool.
func (m *MemoryManager) Events() *EventPool { return m.events }

// Matcher returns the managed route Matcher.
func (m *MemoryManager) Matcher() *radix.Matcher { return m.matcher }

// MemoryReport summarizes pool and cache effectiveness under the active
// strategy.
type MemoryReport struct {
	Strategy   AllocationStrategy
	Pool       PoolStats
	RouteCache radix.Stats
}

// Report returns a point-in-time snapshot of pool and route-cache
// statistics.
func (m *MemoryManager) Report() MemoryReport {
	return MemoryReport{
		Strategy:   m.strategy,
		Pool:       m.events.Stats(),
		RouteCache: m.matcher.CacheStats(),
	}
}

// DefaultHealthThreshold is the pool hit ratio below which IsHealthy
// considers a MemoryReport unhealthy.
const DefaultHealthThreshold = 0.5

// Healthy reports whether the pool's hit ratio meets threshold. A report
// with no Acquire calls yet is treated as healthy — a zero hit ratio with
// no activity isn't evidence of pool pressure.
func (r MemoryReport) Healthy(threshold float64) bool {
	if r.Pool.PoolHits+r.Pool.PoolMisses == 0 {
		return true
	}
	return r.Pool.HitRate() >= threshold
}

// IsHealthy reports Healthy against DefaultHealthThreshold.
func (r MemoryReport) IsHealthy() bool {
	return r.Healthy(DefaultHealthThreshold)
}

// String renders the report as a one-line human-readable summary, useful
// for a diagnostic endpoint or a startup log line.
func (r MemoryReport) String() string {
	return fmt.Sprintf(
		"strategy=%s pool(created=%d reused=%d hit_rate=%.2f peak=%d) route_cache(size=%d/%d hit_ratio=%.2f evictions=%d)",
		r.Strategy, r.Pool.Created, r.Pool.Reused, r.Pool.HitRate(), r.Pool.PeakUsage,
		r.RouteCache.Size, r.RouteCache.Capacity, r.RouteCache.HitRatio(), r.RouteCache.Evictions,
	)
}

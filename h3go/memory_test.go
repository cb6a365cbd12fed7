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
	"github.com/stretchr/testify/require"
)

func TestAllocationStrategy_Sizing(t *testing.T) {
	min := StrategyMinimal.sizing()
	bal := StrategyBalanced.sizing()
	perf := StrategyPerformance.sizing()

	assert.Less(t, min.eventPoolCapacity, bal.eventPoolCapacity)
	assert.Less(t, bal.eventPoolCapacity, perf.eventPoolCapacity)
	assert.Less(t, min.routeCacheSize, perf.routeCacheSize)
}

func TestAllocationStrategy_String(t *testing.T) {
	assert.Equal(t, "minimal", StrategyMinimal.String())
	assert.Equal(t, "balanced", StrategyBalanced.String())
	assert.Equal(t, "performance", StrategyPerformance.String())
}

func TestMemoryManager_ReportReflectsPoolActivity(t *testing.T) {
	mm := NewMemoryManager(StrategyMinimal, DefaultMaxParams)
	warmed := mm.Report().Pool.Created
	require.Greater(t, warmed, uint64(0), "minimal strategy should warm up some pool entries at construction")

	e := mm.Events().Acquire(1)
	mm.Events().Release(e, 1)

	report := mm.Report()
	assert.Equal(t, StrategyMinimal, report.Strategy)
	assert.Equal(t, warmed, report.Pool.Created, "acquiring a warmed entry should not allocate a new one")
	assert.Equal(t, uint64(1), report.Pool.PoolHits)
	assert.NotEmpty(t, report.String())
}

func TestMemoryManager_WarmupScalesByStrategy(t *testing.T) {
	minimal := NewMemoryManager(StrategyMinimal, DefaultMaxParams).Report().Pool.Created
	balanced := NewMemoryManager(StrategyBalanced, DefaultMaxParams).Report().Pool.Created
	performance := NewMemoryManager(StrategyPerformance, DefaultMaxParams).Report().Pool.Created

	assert.Less(t, minimal, balanced)
	assert.Less(t, balanced, performance)
}

func TestMemoryManager_Optimize(t *testing.T) {
	mm := NewMemoryManager(StrategyBalanced, DefaultMaxParams)
	assert.NotPanics(t, mm.Optimize)
}

func TestMemoryReport_Healthy(t *testing.T) {
	healthyReport := MemoryReport{Pool: PoolStats{PoolHits: 9, PoolMisses: 1}}
	assert.True(t, healthyReport.IsHealthy())

	unhealthyReport := MemoryReport{Pool: PoolStats{PoolHits: 1, PoolMisses: 9}}
	assert.False(t, unhealthyReport.IsHealthy())

	assert.True(t, MemoryReport{}.IsHealthy(), "no activity yet is treated as healthy")
}

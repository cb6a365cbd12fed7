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
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScheduler_CallsFnUntilStopped(t *testing.T) {
	var ticks int64
	s := startScheduler(5*time.Millisecond, func() error {
		atomic.AddInt64(&ticks, 1)
		return nil
	})

	require.Eventually(t, func() bool {
		return atomic.LoadInt64(&ticks) >= 2
	}, 200*time.Millisecond, 5*time.Millisecond)

	s.Stop()
	after := atomic.LoadInt64(&ticks)
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, after, atomic.LoadInt64(&ticks), "no further ticks after Stop")
}

func TestScheduler_StopIsIdempotent(t *testing.T) {
	s := startScheduler(time.Hour, func() error { return nil })
	s.Stop()
	assert.NotPanics(t, s.Stop)
}

func TestScheduler_StopsWhenFnErrors(t *testing.T) {
	s := startScheduler(5*time.Millisecond, func() error { return ErrConnectionClosed })
	select {
	case <-s.done:
	case <-time.After(200 * time.Millisecond):
		t.Fatal("scheduler goroutine did not exit after fn returned an error")
	}
}

func TestSchedulerHandle_ScheduleRunsUntilWriterCloses(t *testing.T) {
	ft := &fakeTransport{}
	w := newSSEWriter(ft)
	h := w.Handle()

	var ticks int64
	h.Schedule(5*time.Millisecond, func() error {
		atomic.AddInt64(&ticks, 1)
		return nil
	})

	require.Eventually(t, func() bool {
		return atomic.LoadInt64(&ticks) >= 2
	}, 200*time.Millisecond, 5*time.Millisecond)

	require.NoError(t, w.Close())
	after := atomic.LoadInt64(&ticks)
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, after, atomic.LoadInt64(&ticks), "schedules must stop when their SSEWriter closes")
}

func TestSchedulerHandle_ScheduleAfterCloseDoesNotLeak(t *testing.T) {
	ft := &fakeTransport{}
	w := newSSEWriter(ft)
	require.NoError(t, w.Close())

	h := w.Handle()
	called := make(chan struct{}, 1)
	h.Schedule(5*time.Millisecond, func() error {
		select {
		case called <- struct{}{}:
		default:
		}
		return nil
	})

	select {
	case <-called:
		t.Fatal("a schedule registered after Close must never run")
	case <-time.After(50 * time.Millisecond):
	}
}

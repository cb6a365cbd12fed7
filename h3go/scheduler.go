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

import "time"

// scheduler drives periodic callbacks (SSE keep-alives) off of a
// time.Ticker instead of a blocking sleep in the goroutine that's also
// running the handler, so a long-lived stream's keep-alive cadence never
// competes with the handler for the same thread of control. Each
// scheduler owns exactly one ticker and stops cleanly on Stop, which is
// safe to call more than once.
type scheduler struct {
	stop chan struct{}
	done chan struct{}
}

// startScheduler launches a goroutine that calls fn every interval until
// Stop is called or fn returns a non-nil error (e.g. the connection is
// gone and further writes are pointless).
func startScheduler(interval time.Duration, fn func() error) *scheduler {
	s := &scheduler{stop: make(chan struct{}), done: make(chan struct{})}
	go func() {
		defer close(s.done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-s.stop:
				return
			case <-ticker.C:
				if err := fn(); err != nil {
					return
				}
			}
		}
	}()
	return s
}

// Stop signals the scheduler's goroutine to exit and waits for it to do
// so, guaranteeing no further callback invocations race with whatever the
// caller does next (e.g. closing the connection).
func (s *scheduler) Stop() {
	select {
	case <-s.stop:
		// already stopped
	default:
		close(s.stop)
	}
	<-s.done
}

// SchedulerHandle is the capability a StreamWithScheduler handler receives
// alongside its SSEWriter: a way to register periodic emission against the
// stream's own scheduler machinery instead of a blocking time.Sleep in the
// handler goroutine. Every scheduler registered through a given handle is
// stopped when the owning SSEWriter closes.
type SchedulerHandle struct {
	w *SSEWriter
}

// Schedule starts calling fn every interval for the lifetime of the
// stream. fn returning a non-nil error stops that schedule (typically a
// write failure once the peer is gone); it does not affect other
// schedules registered on the same handle. Calling Schedule after the
// stream has already closed stops the new scheduler immediately rather
// than leaking a goroutine.
func (h SchedulerHandle) Schedule(interval time.Duration, fn func() error) {
	h.w.mu.Lock()
	if h.w.closed {
		h.w.mu.Unlock()
		return
	}
	h.w.mu.Unlock()

	sched := startScheduler(interval, fn)

	h.w.mu.Lock()
	if h.w.closed {
		h.w.mu.Unlock()
		sched.Stop()
		return
	}
	h.w.schedulers = append(h.w.schedulers, sched)
	h.w.mu.Unlock()
}

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
	"strconv"
	"strings"
	"sync"
	"time"
)

// SSEEvent is one Server-Sent Events message. Name, ID and Retry are
// optional; Data is required (it may be empty, but not absent).
type SSEEvent struct {
	Name  string
	ID    string
	Retry int // milliseconds; 0 means omit the retry: line
	Data  string
}

// SSEWriter frames and sends Server-Sent Events over the connection that
// created it via Event.StartSSE. Each send frames into its own buffer,
// and sends and close are serialized by the writer's mutex.
type SSEWriter struct {
	mu         sync.Mutex
	conn       sseTransport
	closed     bool
	keepAlive  *scheduler
	schedulers []*scheduler
}

func newSSEWriter(conn sseTransport) *SSEWriter {
	return &SSEWriter{conn: conn}
}

// StartKeepAlive begins sending a ": keep-alive" comment every interval
// until the writer is closed or a send fails. It does not block the
// calling goroutine — the ticks run on their own goroutine via the
// connection's scheduler, so a handler can start keep-alives and then go
// on to its own event-producing loop without the two competing for the
// same thread of control. Calling it twice replaces the previous
// schedule.
func (w *SSEWriter) StartKeepAlive(interval time.Duration) {
	w.mu.Lock()
	prev := w.keepAlive
	w.mu.Unlock()
	if prev != nil {
		prev.Stop()
	}
	sched := startScheduler(interval, func() error {
		return w.SendComment("keep-alive")
	})
	w.mu.Lock()
	w.keepAlive = sched
	w.mu.Unlock()
}

// Handle returns the SchedulerHandle a StreamWithScheduler handler uses to
// register its own periodic emission against this stream's scheduler
// machinery, per the "timer emission goes through the scheduler, not a
// blocking sleep" rule StartKeepAlive already follows internally.
func (w *SSEWriter) Handle() SchedulerHandle {
	return SchedulerHandle{w: w}
}

// Send writes one event frame. Field order on the wire is event, id,
// retry, data — each data line is prefixed with "data: " independently so
// multi-line payloads survive intact — terminated by a single blank line.
// Fails with ErrInvalidEventData if Data contains a lone CR or a NUL byte
// (neither can appear in a conformant SSE stream), ErrConnectionClosed if
// the underlying connection already tore down, or ErrBackpressure if the
// connection's write queue is over its watermark.
func (w *SSEWriter) Send(ev SSEEvent) error {
	if err := validateEventData(ev.Data); err != nil {
		return err
	}
	var b strings.Builder
	if ev.Name != "" {
		b.WriteString("event: ")
		b.WriteString(ev.Name)
		b.WriteByte('\n')
	}
	if ev.ID != "" {
		b.WriteString("id: ")
		b.WriteString(ev.ID)
		b.WriteByte('\n')
	}
	if ev.Retry > 0 {
		b.WriteString("retry: ")
		b.WriteString(strconv.Itoa(ev.Retry))
		b.WriteByte('\n')
	}
	for _, line := range strings.Split(ev.Data, "\n") {
		b.WriteString("data: ")
		b.WriteString(line)
		b.WriteByte('\n')
	}
	b.WriteByte('\n')
	return w.write(b.String())
}

// SendComment writes a raw SSE comment line (a line beginning with ':'),
// commonly used as a keep-alive that application code above the
// connection's own scheduler wants to trigger manually.
func (w *SSEWriter) SendComment(text string) error {
	if strings.ContainsAny(text, "\r\x00") {
		return Classify(KindProtocol, ErrInvalidEventData)
	}
	return w.write(": " + text + "\n\n")
}

func validateEventData(data string) error {
	for i := 0; i < len(data); i++ {
		if data[i] == 0 {
			return Classify(KindProtocol, ErrInvalidEventData)
		}
		if data[i] == '\r' {
			// A lone CR (not part of CRLF) would corrupt the line framing;
			// reject it rather than silently mangling the stream.
			if i+1 >= len(data) || data[i+1] != '\n' {
				return Classify(KindProtocol, ErrInvalidEventData)
			}
		}
	}
	return nil
}

func (w *SSEWriter) write(frame string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return Classify(KindTransport, ErrConnectionClosed)
	}
	if err := w.conn.writeFrame([]byte(frame)); err != nil {
		return err
	}
	return nil
}

// Close tears down the stream, notifying the owning connection so it can
// proceed to its drain/close sequence.
func (w *SSEWriter) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	sched := w.keepAlive
	extra := w.schedulers
	w.schedulers = nil
	w.mu.Unlock()
	if sched != nil {
		sched.Stop()
	}
	for _, s := range extra {
		s.Stop()
	}
	w.conn.closeStream(nil)
	return nil
}

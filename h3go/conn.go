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
	"bufio"
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"sync"
	"time"
)

// ConnState names a Connection's position in its lifecycle. Transitions
// only ever move forward within one request cycle; Draining always
// returns either to Reading (keep-alive) or to Closed.
type ConnState int

const (
	StateReading ConnState = iota
	StateDispatching
	StateWritingResponse
	StateStreaming
	StateDraining
	StateClosed
)

func (s ConnState) String() string {
	switch s {
	case StateReading:
		return "reading"
	case StateDispatching:
		return "dispatching"
	case StateWritingResponse:
		return "writing_response"
	case StateStreaming:
		return "streaming"
	case StateDraining:
		return "draining"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Connection drives one accepted net.Conn through repeated request
// cycles: read a request, dispatch it, write the response or hand off to
// streaming, and either loop back for keep-alive or close. Exactly one
// goroutine calls Serve for a given Connection; this is the "no
// cross-thread Event/Connection sharing" rule expressed as Go idiom — the
// mutex here guards only the write queue and state field that a stream's
// keep-alive scheduler goroutine also touches.
type Connection struct {
	conn       net.Conn
	br         *bufio.Reader
	bw         *bufio.Writer
	dispatcher *Dispatcher
	pool       *EventPool
	logger     *slog.Logger

	lingerTimeout time.Duration
	watermark     int
	readTimeout   time.Duration
	idleTimeout   time.Duration
	writeTimeout  time.Duration
	maxBodyBytes  int

	mu         sync.Mutex
	state      ConnState
	writeQueue [][]byte
	closed     bool
	streamErr  error

	// writeMu serializes actual socket writes. A stream's keep-alive
	// scheduler runs on its own goroutine and can call writeFrame
	// concurrently with the handler goroutine (e.g. right as the handler
	// returns and drainStreaming starts flushing); mu alone only protects
	// the queue slice, not the bufio.Writer itself.
	writeMu sync.Mutex
}

// ConnectionConfig bundles the pieces a Connection needs from the Server.
type ConnectionConfig struct {
	Dispatcher    *Dispatcher
	Pool          *EventPool
	Logger        *slog.Logger
	LingerTimeout time.Duration
	Watermark     int // max queued, unflushed SSE frames before writeFrame reports backpressure

	// ReadTimeout bounds how long a request's headers and body may take to
	// arrive once its request line has been read. Default 30s.
	ReadTimeout time.Duration
	// IdleTimeout bounds how long a kept-alive connection may sit with no
	// request line arriving before the next request starts. Default 30s.
	IdleTimeout time.Duration
	// WriteTimeout bounds each flush of a response or SSE frame to the
	// peer. Default 30s.
	WriteTimeout time.Duration
	// MaxBodyBytes rejects a request whose Content-Length exceeds it with
	// a 413 response. Default 1 MiB.
	MaxBodyBytes int
}

// NewConnection wraps conn for serving with cfg.
func NewConnection(conn net.Conn, cfg ConnectionConfig) *Connection {
	watermark := cfg.Watermark
	if watermark <= 0 {
		watermark = 64
	}
	linger := cfg.LingerTimeout
	if linger <= 0 {
		linger = 5 * time.Second
	}
	readTimeout := cfg.ReadTimeout
	if readTimeout <= 0 {
		readTimeout = 30 * time.Second
	}
	idleTimeout := cfg.IdleTimeout
	if idleTimeout <= 0 {
		idleTimeout = 30 * time.Second
	}
	writeTimeout := cfg.WriteTimeout
	if writeTimeout <= 0 {
		writeTimeout = 30 * time.Second
	}
	maxBodyBytes := cfg.MaxBodyBytes
	if maxBodyBytes <= 0 {
		maxBodyBytes = 1 << 20
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Connection{
		conn:          conn,
		br:            bufio.NewReader(conn),
		bw:            bufio.NewWriter(conn),
		dispatcher:    cfg.Dispatcher,
		pool:          cfg.Pool,
		logger:        logger,
		lingerTimeout: linger,
		watermark:     watermark,
		readTimeout:   readTimeout,
		idleTimeout:   idleTimeout,
		writeTimeout:  writeTimeout,
		maxBodyBytes:  maxBodyBytes,
		state:         StateReading,
	}
}

// isTimeout reports whether err is a net.Error that timed out, the
// signal a SetReadDeadline/SetWriteDeadline expiry produces.
func isTimeout(err error) bool {
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func (c *Connection) setState(s ConnState) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}

// State reports the connection's current lifecycle state.
func (c *Connection) State() ConnState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Serve runs the connection's request loop until the peer disconnects,
// a protocol error occurs, ctx is canceled, or the request asks to close
// the connection (HTTP/1.0 default, or an explicit "Connection: close").
func (c *Connection) Serve(ctx context.Context) error {
	defer c.Close()
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		c.setState(StateReading)
		if c.idleTimeout > 0 {
			_ = c.conn.SetReadDeadline(time.Now().Add(c.idleTimeout))
		}
		req, err := readRequest(c.br, c.maxBodyBytes, func() {
			if c.readTimeout > 0 {
				_ = c.conn.SetReadDeadline(time.Now().Add(c.readTimeout))
			}
		})
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			if isTimeout(err) {
				c.setState(StateDraining)
				return err
			}
			c.writeProtocolError(err)
			return err
		}

		c.setState(StateDispatching)
		e := c.pool.Acquire(0)
		e.Request = req
		e.attach(c)

		dispatchErr := c.dispatcher.Dispatch(e)

		if e.sse != nil {
			c.setState(StateStreaming)
			if werr := c.writeFinalResponse(&e.Response); werr != nil {
				c.pool.Release(e, 0)
				c.setState(StateDraining)
				return werr
			}
			c.drainStreaming(e)
		} else {
			c.setState(StateWritingResponse)
			if werr := c.writeFinalResponse(&e.Response); werr != nil {
				c.pool.Release(e, 0)
				c.setState(StateDraining)
				return werr
			}
		}

		c.mu.Lock()
		streamFailed := c.streamErr != nil
		c.mu.Unlock()
		keepAlive := req.KeepAlive() && dispatchErr == nil && !streamFailed
		c.pool.Release(e, 0)

		c.setState(StateDraining)
		if !keepAlive {
			return nil
		}
	}
}

// drainStreaming blocks until the SSE stream this Event started is
// closed, flushing queued frames to the socket as they arrive. The
// handler itself is what's blocking inside Dispatch (via the chain
// executing the streaming handler), so by the time Dispatch returns the
// handler has already finished producing events; this drains whatever it
// queued and didn't wait for, and honors closeStream's eventual call.
func (c *Connection) drainStreaming(e *Event) {
	c.flushQueue()
}

// writeFinalResponse serializes resp's status line, headers, and body
// (empty for an SSE handoff) under the configured write deadline.
func (c *Connection) writeFinalResponse(resp *Response) error {
	if c.writeTimeout > 0 {
		_ = c.conn.SetWriteDeadline(time.Now().Add(c.writeTimeout))
	}
	return writeResponse(c.bw, resp)
}

// writeFrame implements sseTransport: it appends b to the write queue and
// flushes immediately, applying the backpressure watermark.
func (c *Connection) writeFrame(b []byte) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return Classify(KindTransport, ErrConnectionClosed)
	}
	if len(c.writeQueue) >= c.watermark {
		c.mu.Unlock()
		return Classify(KindResource, ErrBackpressure)
	}
	c.writeQueue = append(c.writeQueue, b)
	c.mu.Unlock()
	return c.flushQueue()
}

func (c *Connection) flushQueue() error {
	c.mu.Lock()
	pending := c.writeQueue
	c.writeQueue = nil
	closed := c.closed
	c.mu.Unlock()
	if closed {
		return Classify(KindTransport, ErrConnectionClosed)
	}
	if len(pending) == 0 {
		return nil
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if c.writeTimeout > 0 {
		_ = c.conn.SetWriteDeadline(time.Now().Add(c.writeTimeout))
	}
	for _, frame := range pending {
		if _, err := c.bw.Write(frame); err != nil {
			c.mu.Lock()
			c.streamErr = err
			c.mu.Unlock()
			return Classify(KindTransport, err)
		}
	}
	return c.bw.Flush()
}

// closeStream implements sseTransport: it records the stream's outcome
// and lets the Serve loop proceed to draining. It does not close the
// underlying socket — the connection may still serve another keep-alive
// request after a stream ends, unless the stream ended in error.
func (c *Connection) closeStream(err error) {
	c.mu.Lock()
	if err != nil {
		c.streamErr = err
	}
	c.mu.Unlock()
	_ = c.flushQueue()
}

// Close tears down the connection, giving any final queued bytes up to
// lingerTimeout to flush before the socket is torn down.
func (c *Connection) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.state = StateClosed
	c.mu.Unlock()

	done := make(chan struct{})
	go func() {
		c.writeMu.Lock()
		_ = c.bw.Flush()
		c.writeMu.Unlock()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(c.lingerTimeout):
	}
	return c.conn.Close()
}

func (c *Connection) writeProtocolError(err error) {
	status := KindOf(err).DefaultStatus()
	resp := newResponse()
	_ = resp.SetStatus(status)
	_ = resp.finalize("text/plain; charset=utf-8", []byte(err.Error()))
	_ = c.writeFinalResponse(&resp)
}

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
	"context"
	"log/slog"
	"net"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/oneopane/h3go/obs"
)

// DiagnosticKind labels a non-fatal event the server wants to surface to
// an embedder without forcing it through the structured logger.
type DiagnosticKind string

const (
	DiagnosticRouteConflict DiagnosticKind = "route_conflict"
	DiagnosticPoolPressure  DiagnosticKind = "pool_pressure"
	DiagnosticBackpressure  DiagnosticKind = "backpressure"
)

// DiagnosticEvent is an informational event a DiagnosticHandler may act
// on (log, count, trace) without it affecting request handling.
type DiagnosticEvent struct {
	Kind    DiagnosticKind
	Message string
	Fields  map[string]any
}

// DiagnosticHandler processes DiagnosticEvents. The zero value (nil) is a
// valid, no-op handler.
type DiagnosticHandler func(DiagnosticEvent)

// Option configures a Server at construction time.
type Option func(*Server)

// WithStrategy sets the memory allocation strategy (default
// StrategyBalanced).
func WithStrategy(s AllocationStrategy) Option {
	return func(srv *Server) { srv.strategy = s }
}

// WithMaxParams overrides the default per-route path-parameter cap.
func WithMaxParams(n int) Option {
	return func(srv *Server) { srv.maxParams = n }
}

// WithLogger installs a *slog.Logger. Defaults to a no-op discard logger.
func WithLogger(logger *slog.Logger) Option {
	return func(srv *Server) { srv.logger = logger }
}

// WithRecorder installs an observability Recorder. Defaults to a Recorder
// built over otel's no-op global providers (WithRecorder(obs.NewRecorder())
// after installing real providers is how an embedder gets real telemetry).
func WithRecorder(r *obs.Recorder) Option {
	return func(srv *Server) { srv.recorder = r }
}

// WithDiagnostics installs a diagnostic event handler.
func WithDiagnostics(h DiagnosticHandler) Option {
	return func(srv *Server) { srv.diagnostics = h }
}

// WithMethodNotAllowedOption threads WithMethodNotAllowed through to the
// dispatcher (see dispatcher.go for the tradeoff it documents).
func WithMethodNotAllowedOption(enabled bool) Option {
	return func(srv *Server) { srv.methodNotAllowed = enabled }
}

// WithLingerTimeout bounds how long Close waits for a final flush on each
// connection before tearing down the socket.
func WithLingerTimeout(d time.Duration) Option {
	return func(srv *Server) { srv.lingerTimeout = d }
}

// WithBackpressureWatermark sets the per-connection queued-frame limit
// before SSE writes start failing with ErrBackpressure.
func WithBackpressureWatermark(n int) Option {
	return func(srv *Server) { srv.watermark = n }
}

// noopLogger is the default when no logger is configured, so embedding
// programs that never call WithLogger see no output.
func noopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(discardWriter{}, &slog.HandlerOptions{Level: slog.LevelError + 1}))
}

type discardWriter struct{}

func (discardWriter) Write(p []byte) (int, error) { return len(p), nil }

// Server is the embeddable HTTP/1.1 dispatch core: route registration,
// middleware, and a worker pool of goroutines each accepting and serving
// connections independently, supervised by an errgroup.Group so that the
// first fatal acceptor error stops the whole group.
type Server struct {
	routes     *RouteTable
	dispatcher *Dispatcher
	memory     *MemoryManager

	strategy          AllocationStrategy
	maxParams         int
	logger            *slog.Logger
	recorder          *obs.Recorder
	diagnostics       DiagnosticHandler
	methodNotAllowed  bool
	lingerTimeout     time.Duration
	watermark         int

	middlewares []MiddlewareFunc
}

// New builds a Server with no routes registered yet.
func New(opts ...Option) *Server {
	srv := &Server{
		strategy:      StrategyBalanced,
		maxParams:     DefaultMaxParams,
		lingerTimeout: 5 * time.Second,
		watermark:     64,
	}
	for _, opt := range opts {
		opt(srv)
	}
	if srv.logger == nil {
		srv.logger = noopLogger()
	}
	if srv.recorder == nil {
		srv.recorder = obs.NewRecorder()
	}
	srv.memory = NewMemoryManager(srv.strategy, srv.maxParams)
	srv.routes = NewRouteTable(srv.memory.Matcher())
	return srv
}

// Use appends global middleware run for every route, in registration
// order, ahead of any route-specific middleware passed to a registration
// method.
func (srv *Server) Use(mw ...MiddlewareFunc) {
	srv.middlewares = append(srv.middlewares, mw...)
}

func (srv *Server) handle(method Method, pattern string, kind HandlerKind, handler HandlerFunc, mw ...MiddlewareFunc) {
	all := make([]MiddlewareFunc, 0, len(srv.middlewares)+len(mw))
	all = append(all, srv.middlewares...)
	all = append(all, mw...)
	if _, err := srv.routes.Register(method, pattern, kind, handler, all...); err != nil {
		srv.emitDiagnostic(DiagnosticRouteConflict, "route registration failed", map[string]any{
			"method": string(method), "pattern": pattern, "error": err.Error(),
		})
	}
}

// GET registers a buffered-response handler for GET pattern.
func (srv *Server) GET(pattern string, handler HandlerFunc, mw ...MiddlewareFunc) {
	srv.handle(GET, pattern, HandlerRegular, handler, mw...)
}

// POST registers a buffered-response handler for POST pattern.
func (srv *Server) POST(pattern string, handler HandlerFunc, mw ...MiddlewareFunc) {
	srv.handle(POST, pattern, HandlerRegular, handler, mw...)
}

// PUT registers a buffered-response handler for PUT pattern.
func (srv *Server) PUT(pattern string, handler HandlerFunc, mw ...MiddlewareFunc) {
	srv.handle(PUT, pattern, HandlerRegular, handler, mw...)
}

// DELETE registers a buffered-response handler for DELETE pattern.
func (srv *Server) DELETE(pattern string, handler HandlerFunc, mw ...MiddlewareFunc) {
	srv.handle(DELETE, pattern, HandlerRegular, handler, mw...)
}

// PATCH registers a buffered-response handler for PATCH pattern.
func (srv *Server) PATCH(pattern string, handler HandlerFunc, mw ...MiddlewareFunc) {
	srv.handle(PATCH, pattern, HandlerRegular, handler, mw...)
}

// HEAD registers a buffered-response handler for HEAD pattern.
func (srv *Server) HEAD(pattern string, handler HandlerFunc, mw ...MiddlewareFunc) {
	srv.handle(HEAD, pattern, HandlerRegular, handler, mw...)
}

// OPTIONS registers a buffered-response handler for OPTIONS pattern.
func (srv *Server) OPTIONS(pattern string, handler HandlerFunc, mw ...MiddlewareFunc) {
	srv.handle(OPTIONS, pattern, HandlerRegular, handler, mw...)
}

// GETStream registers a Server-Sent Events handler for GET pattern. The
// handler is expected to call Event.StartSSE before returning.
func (srv *Server) GETStream(pattern string, handler HandlerFunc, mw ...MiddlewareFunc) {
	srv.handle(GET, pattern, HandlerStream, handler, mw...)
}

// SchedulerHandlerFunc is the handler signature for StreamWithScheduler
// routes. StartSSE has already been called by the time it runs; the
// handler receives the resulting SSEWriter plus a SchedulerHandle for
// registering periodic emission against the stream's own scheduler rather
// than a blocking sleep in the handler goroutine.
type SchedulerHandlerFunc func(e *Event, w *SSEWriter, sched SchedulerHandle) error

// StreamWithScheduler registers a Server-Sent Events handler for GET
// pattern whose periodic emission runs through the stream's scheduler
// machinery. Use this over GETStream + StartKeepAlive when the handler
// itself needs to emit events on a timer (e.g. one value every second)
// without blocking on time.Sleep.
func (srv *Server) StreamWithScheduler(pattern string, handler SchedulerHandlerFunc, mw ...MiddlewareFunc) {
	wrapped := func(e *Event) error {
		w, err := e.StartSSE()
		if err != nil {
			return err
		}
		return handler(e, w, w.Handle())
	}
	srv.handle(GET, pattern, HandlerStream, wrapped, mw...)
}

// RouteInfo is a read-only view of one registered route, returned by
// Routes() for introspection (e.g. a diagnostics endpoint listing the
// mounted API).
type RouteInfo struct {
	Method  Method
	Pattern string
	Kind    HandlerKind
}

// Routes returns every registered route in registration order.
func (srv *Server) Routes() []RouteInfo {
	routes := srv.routes.Routes()
	out := make([]RouteInfo, len(routes))
	for i, r := range routes {
		out[i] = RouteInfo{Method: r.Method, Pattern: r.Pattern, Kind: r.Kind}
	}
	return out
}

// MemoryReport returns a snapshot of pool and route-cache effectiveness.
func (srv *Server) MemoryReport() MemoryReport { return srv.memory.Report() }

func (srv *Server) emitDiagnostic(kind DiagnosticKind, msg string, fields map[string]any) {
	srv.logger.Warn(msg, "kind", string(kind))
	if srv.diagnostics != nil {
		srv.diagnostics(DiagnosticEvent{Kind: kind, Message: msg, Fields: fields})
	}
}

// ServerOptions configures how ListenAndServe accepts connections.
type ServerOptions struct {
	Addr    string // default ":3000"
	Workers int    // default 1 acceptor goroutine; each worker runs its own accept loop

	// Backlog is the requested TCP listen backlog. Go's net.Listen does
	// not expose a portable way to set this below the OS default, so it
	// is currently advisory only and recorded for configuration parity;
	// see DESIGN.md.
	Backlog int // default 128

	// MaxBodyBytes rejects a request whose Content-Length exceeds it
	// with a 413 response. Default 1 MiB.
	MaxBodyBytes int
	// RequestTimeout bounds how long a request's headers and body may
	// take to arrive once its request line has been read. Default 30s.
	RequestTimeout time.Duration
	// KeepaliveTimeout bounds how long a kept-alive connection may sit
	// idle before the next request's line must start arriving. Default 30s.
	KeepaliveTimeout time.Duration
	// WriteTimeout bounds each flush of a response or SSE frame to the
	// peer. Default 30s.
	WriteTimeout time.Duration
}

// ListenAndServe freezes the route table, opens a listener on
// opts.Addr, and runs opts.Workers acceptor goroutines (default 1) each
// independently accepting and serving connections — "N workers, each an
// independent cooperative loop" mapped onto Go's goroutine-per-connection
// model, supervised by an errgroup.Group so the first fatal accept error
// stops every worker and is returned to the caller. It blocks until ctx
// is canceled or a worker returns a fatal error.
func (srv *Server) ListenAndServe(ctx context.Context, opts ServerOptions) error {
	addr := opts.Addr
	if addr == "" {
		addr = ":3000"
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = 1
	}

	srv.routes.Freeze()
	srv.dispatcher = NewDispatcher(srv.routes, WithMethodNotAllowed(srv.methodNotAllowed))

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return Classify(KindTransport, err)
	}

	group, gctx := errgroup.WithContext(ctx)
	for i := 0; i < workers; i++ {
		group.Go(func() error {
			return srv.acceptLoop(gctx, ln, opts)
		})
	}
	group.Go(func() error {
		<-gctx.Done()
		return ln.Close()
	})

	err = group.Wait()
	if err != nil && gctx.Err() != nil {
		// Context cancellation is a normal shutdown path, not a failure.
		return nil
	}
	return err
}

func (srv *Server) acceptLoop(ctx context.Context, ln net.Listener, opts ServerOptions) error {
	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return Classify(KindTransport, err)
		}
		go srv.serveConn(ctx, conn, opts)
	}
}

func (srv *Server) serveConn(ctx context.Context, conn net.Conn, opts ServerOptions) {
	c := NewConnection(conn, ConnectionConfig{
		Dispatcher:    srv.dispatcher,
		Pool:          srv.memory.Events(),
		Logger:        srv.logger,
		LingerTimeout: srv.lingerTimeout,
		Watermark:     srv.watermark,
		ReadTimeout:   opts.RequestTimeout,
		IdleTimeout:   opts.KeepaliveTimeout,
		WriteTimeout:  opts.WriteTimeout,
		MaxBodyBytes:  opts.MaxBodyBytes,
	})
	if err := c.Serve(ctx); err != nil {
		srv.logger.Debug("connection closed", "error", err)
	}
}

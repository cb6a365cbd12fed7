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

// Package recovery provides middleware that turns a panicking handler
// into a 500 response instead of taking the whole connection goroutine
// down with it. Because h3go serves one connection per goroutine, an
// unrecovered panic here would otherwise kill that connection's Serve
// loop outright and any keep-alive requests still queued behind it.
package recovery

import (
	"fmt"
	"log/slog"
	"runtime/debug"

	"github.com/oneopane/h3go"
)

// Handler sends the error response for a recovered panic.
type Handler func(e *h3go.Event, recovered any)

// Option configures the middleware.
type Option func(*config)

type config struct {
	logger     *slog.Logger
	handler    Handler
	stackTrace bool
	stackSize  int
}

func defaultConfig() *config {
	return &config{
		logger:     slog.Default(),
		handler:    defaultHandler,
		stackTrace: true,
		stackSize:  4 << 10,
	}
}

func defaultHandler(e *h3go.Event, recovered any) {
	_ = e.SetStatus(500)
	_ = e.SendText([]byte(fmt.Sprintf("internal server error: %v", recovered)))
}

// WithoutLogging disables panic logging, useful in tests to keep output
// quiet.
func WithoutLogging() Option {
	return func(c *config) { c.logger = nil }
}

// WithLogger sets the logger panics are reported to.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) { c.logger = logger }
}

// WithHandler replaces the default error response.
func WithHandler(h Handler) Option {
	return func(c *config) { c.handler = h }
}

// WithStackTrace enables or disables stack trace capture (default true).
func WithStackTrace(enabled bool) Option {
	return func(c *config) { c.stackTrace = enabled }
}

// WithStackSize caps the captured stack trace size in bytes (default 4KB).
func WithStackSize(size int) Option {
	return func(c *config) { c.stackSize = size }
}

// New returns a middleware that recovers a panicking handler or
// downstream middleware, logs it, and finalizes an error response in its
// place. It should be registered first (or near-first) so it wraps
// everything that could panic.
func New(opts ...Option) h3go.MiddlewareFunc {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return func(e *h3go.Event, next h3go.Continuation) (err error) {
		defer func() {
			if r := recover(); r != nil {
				if cfg.logger != nil {
					attrs := []any{slog.Any("panic", r)}
					if cfg.stackTrace {
						stack := debug.Stack()
						if len(stack) > cfg.stackSize {
							stack = stack[:cfg.stackSize]
						}
						attrs = append(attrs, slog.String("stack", string(stack)))
					}
					cfg.logger.Error("recovered from panic", attrs...)
				}
				cfg.handler(e, r)
				err = nil
			}
		}()
		return next.Next(e)
	}
}

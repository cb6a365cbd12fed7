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

// MiddlewareFunc receives the Event and a Continuation bound to its own
// position in the chain. Calling next.Next() runs the remainder of the
// chain (the next middleware, or the terminal handler); code written
// after that call runs on the way back out, giving middleware onion-style
// pre/post semantics without any separate before/after registration API.
// A middleware that never calls next.Next() short-circuits everything
// after it, including the handler.
type MiddlewareFunc func(e *Event, next Continuation) error

// Continuation is a cheap, value-typed handle onto "the rest of the
// chain". It is re-entrant: nothing prevents a middleware from calling
// Next() more than once (e.g. a retry wrapper), though most middleware
// calls it exactly once.
type Continuation struct {
	chain *Chain
	index int
}

// Next runs the next middleware in the chain, or the terminal handler
// once index has advanced past the last middleware. Calling Next after
// the Event's response has already finished is a no-op that returns nil,
// so a middleware that aborts the request by finalizing the response
// doesn't need to remember not to call next.Next() — it can call it
// unconditionally and rely on this check.
func (c Continuation) Next(e *Event) error {
	if e.Response.finished {
		return nil
	}
	if c.index >= len(c.chain.middlewares) {
		return c.chain.handler(e)
	}
	mw := c.chain.middlewares[c.index]
	return mw(e, Continuation{chain: c.chain, index: c.index + 1})
}

// Chain is an ordered, re-entrant middleware pipeline terminated by a
// single handler. Registration order is execution order on the way in;
// middleware code after its own next.Next() call runs in reverse order
// on the way out.
type Chain struct {
	middlewares []MiddlewareFunc
	handler     HandlerFunc
}

// NewChain builds a Chain from middlewares (applied in the given order)
// terminated by handler.
func NewChain(handler HandlerFunc, middlewares ...MiddlewareFunc) *Chain {
	return &Chain{middlewares: middlewares, handler: handler}
}

// Execute runs the chain from the beginning.
func (c *Chain) Execute(e *Event) error {
	return Continuation{chain: c, index: 0}.Next(e)
}

// maxFastMiddleware bounds the FastChain's fixed-capacity middleware
// array, avoiding a heap allocation for the common case of a short,
// pre-only middleware stack (logging, metrics, auth headers) that never
// needs re-entrant post-processing.
const maxFastMiddleware = 32

// FastMiddlewareFunc is a pre-only middleware step: it runs before the
// handler and returning a non-nil error aborts the chain (the handler and
// any later FastMiddlewareFunc do not run), but it has no way to run code
// after the handler — use Chain/MiddlewareFunc when that's needed.
type FastMiddlewareFunc func(e *Event) error

// FastChain is the no-continuation middleware variant: a fixed-capacity
// array walked in a flat loop, with no Continuation allocation per
// request. It trades re-entrancy for lower overhead on the hot path.
type FastChain struct {
	middlewares [maxFastMiddleware]FastMiddlewareFunc
	count       int
	handler     HandlerFunc
}

// NewFastChain builds a FastChain terminated by handler. Returns
// ErrTooDeep if more than maxFastMiddleware middlewares are supplied.
func NewFastChain(handler HandlerFunc, middlewares ...FastMiddlewareFunc) (*FastChain, error) {
	if len(middlewares) > maxFastMiddleware {
		return nil, Classify(KindRoute, ErrTooDeep)
	}
	fc := &FastChain{handler: handler, count: len(middlewares)}
	copy(fc.middlewares[:], middlewares)
	return fc, nil
}

// Execute runs each middleware in registration order, stopping at the
// first error or the first response marked finished, then runs the
// handler unless the response was already finished.
func (fc *FastChain) Execute(e *Event) error {
	for i := 0; i < fc.count; i++ {
		if e.Response.finished {
			return nil
		}
		if err := fc.middlewares[i](e); err != nil {
			return err
		}
	}
	if e.Response.finished {
		return nil
	}
	return fc.handler(e)
}

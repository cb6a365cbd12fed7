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

import "strings"

// RequestHook runs before route matching; returning a non-nil error skips
// matching entirely and goes straight to error mapping.
type RequestHook func(e *Event) error

// ResponseHook runs after a response has been finalized (successfully or
// via error mapping), before the Connection flushes it to the wire. It
// cannot change whether the request succeeded; it's for things like
// recording metrics or appending a response header.
type ResponseHook func(e *Event)

// ErrorMapper turns a handler/middleware/route error into a finalized
// error response. The default mapper uses [KindOf] and
// [ErrorKind.DefaultStatus]; embedding programs needing RFC 9457 problem
// details or a custom JSON error envelope replace it wholesale.
type ErrorMapper func(e *Event, err error)

// Dispatcher orchestrates one request's lifecycle: an optional on_request
// hook, route resolution, path-parameter capture, middleware-wrapped
// handler execution, and error mapping. It holds no per-request state of
// its own — everything mutable lives on the Event it's given.
type Dispatcher struct {
	routes       *RouteTable
	onRequest    RequestHook
	onResponse   ResponseHook
	mapError     ErrorMapper
	allowMethods bool // when true, a path match on another method yields 405 instead of 404
}

// DispatcherOption configures a Dispatcher at construction time.
type DispatcherOption func(*Dispatcher)

// WithRequestHook installs a hook run before route matching.
func WithRequestHook(h RequestHook) DispatcherOption {
	return func(d *Dispatcher) { d.onRequest = h }
}

// WithResponseHook installs a hook run after the response is finalized.
func WithResponseHook(h ResponseHook) DispatcherOption {
	return func(d *Dispatcher) { d.onResponse = h }
}

// WithErrorMapper replaces the default error-to-response mapping.
func WithErrorMapper(m ErrorMapper) DispatcherOption {
	return func(d *Dispatcher) { d.mapError = m }
}

// WithMethodNotAllowed switches 404-on-wrong-method to 405 with an Allow
// header when the path matches a different method. Off by default to
// keep the matcher's per-method trie design (which doesn't naturally
// enumerate "other methods matching this path" without extra bookkeeping)
// from being forced on every embedder; see DESIGN.md for the tradeoff.
func WithMethodNotAllowed(enabled bool) DispatcherOption {
	return func(d *Dispatcher) { d.allowMethods = enabled }
}

// NewDispatcher builds a Dispatcher over routes.
func NewDispatcher(routes *RouteTable, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{routes: routes}
	d.mapError = defaultErrorMapper
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Dispatch runs the full request lifecycle against e, whose Request field
// must already be populated and which must already be attached to its
// owning connection if the matched route may stream. On return, e.Response
// is finalized (either by the handler, by StartSSE, or by error mapping)
// unless the handler itself left streaming in progress.
func (d *Dispatcher) Dispatch(e *Event) error {
	if d.onRequest != nil {
		if err := d.onRequest(e); err != nil {
			d.fail(e, err)
			return err
		}
	}

	e.ParseQuery()

	rm, ok, err := d.routes.Lookup(e.Request.Method, e.Request.Path)
	if err != nil {
		d.fail(e, err)
		return err
	}
	if !ok {
		var allow []string
		if d.allowMethods {
			allow = d.otherMethodsMatching(e.Request.Path, e.Request.Method)
		}
		if len(allow) > 0 {
			_ = e.SetHeader("Allow", strings.Join(allow, ", "))
			_ = e.SetStatus(405)
			_ = e.SendText([]byte("method not allowed"))
		} else {
			_ = e.SetStatus(404)
			_ = e.SendText([]byte("Not Found"))
		}
		if d.onResponse != nil {
			d.onResponse(e)
		}
		return nil
	}
	defer d.routes.Release(rm)

	rm.CopyParamsInto(&e.Params)
	e.kind = rm.Route.Kind

	if execErr := rm.Route.chain.Execute(e); execErr != nil {
		d.fail(e, execErr)
		return execErr
	}

	if d.onResponse != nil {
		d.onResponse(e)
	}
	return nil
}

func (d *Dispatcher) otherMethodsMatching(path string, exclude Method) []string {
	var allow []string
	for _, m := range methods {
		if m == exclude {
			continue
		}
		rm, ok, _ := d.routes.Lookup(m, path)
		if ok {
			d.routes.Release(rm)
			allow = append(allow, string(m))
		}
	}
	return allow
}

func (d *Dispatcher) fail(e *Event, err error) {
	if e.Response.finished || e.sse != nil {
		// Already streaming or already sent: nothing left to map onto a
		// response body. The caller is responsible for logging/closing.
		return
	}
	d.mapError(e, err)
	if d.onResponse != nil {
		d.onResponse(e)
	}
}

func defaultErrorMapper(e *Event, err error) {
	status := KindOf(err).DefaultStatus()
	_ = e.SetStatus(status)
	if status == 500 {
		_ = e.SendText([]byte("Internal Server Error"))
		return
	}
	_ = e.SendText([]byte(err.Error()))
}

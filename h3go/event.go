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

import "encoding/json"

// HandlerKind distinguishes a plain request/response handler from one that
// streams a Server-Sent Events body. The dispatcher uses it to decide
// whether to flush a buffered body or hand the connection over to
// streaming mode once the handler returns.
type HandlerKind int

const (
	// HandlerRegular sends exactly one buffered response.
	HandlerRegular HandlerKind = iota
	// HandlerStream calls Event.StartSSE and keeps the connection open
	// for zero or more events until the handler returns or the peer
	// disconnects.
	HandlerStream
)

// HandlerFunc is the signature every route handler and middleware-wrapped
// handler implements, regular or streaming alike.
type HandlerFunc func(e *Event) error

// sseTransport is the narrow surface Event needs from its owning
// Connection to drive a Server-Sent Events stream. Connection implements
// it; tests can supply a fake.
type sseTransport interface {
	writeFrame(b []byte) error
	closeStream(err error)
}

// Event is the pooled, per-request aggregate passed to every handler and
// middleware. It is acquired from an EventPool before dispatch and reset
// and returned to the pool immediately after — nothing reachable from an
// Event may be retained by a handler past the call that received it.
type Event struct {
	Request  Request
	Response Response
	Params   Params
	Query    Query
	Context  UserContext

	kind        HandlerKind
	queryParsed bool
	conn        sseTransport
	sse         *SSEWriter
}

func newEvent(maxParams int) *Event {
	e := &Event{
		Params:  newParams(maxParams),
		Query:   newQuery(8),
		Context: newUserContext(4),
	}
	e.Response = newResponse()
	return e
}

// reset returns the Event to its post-acquire, pre-dispatch state so the
// pool can hand it to the next request without leaking any data from the
// previous one.
func (e *Event) reset() {
	e.Request = Request{}
	e.Response.reset()
	e.Params.reset()
	e.Query.reset()
	e.Context.reset()
	e.kind = HandlerRegular
	e.queryParsed = false
	e.conn = nil
	e.sse = nil
}

// attach wires the Event to the connection driving it, required before
// StartSSE can be called.
func (e *Event) attach(conn sseTransport) { e.conn = conn }

// Param returns a matched path parameter, or "" if name was not captured.
func (e *Event) Param(name string) string {
	v, _ := e.Params.Get(name)
	return v
}

// QueryParam parses the query string on first use and returns the value
// for name, or "" if absent. Parsing is memoized per Event.
func (e *Event) QueryParam(name string) string {
	e.ParseQuery()
	v, _ := e.Query.Get(name)
	return v
}

// ParseQuery decodes the request's raw query string into Query. It is
// idempotent and safe to call from multiple middlewares; only the first
// call does any work.
func (e *Event) ParseQuery() {
	if e.queryParsed {
		return
	}
	e.Query.parse(e.Request.RawQuery)
	e.queryParsed = true
}

// Header returns a request header value, case-insensitively.
func (e *Event) Header(name string) string { return e.Request.Header(name) }

// SetHeader sets a response header.
func (e *Event) SetHeader(name, value string) error { return e.Response.SetHeader(name, value) }

// SetStatus sets the response status code.
func (e *Event) SetStatus(code int) error { return e.Response.SetStatus(code) }

// checkCanSend reports whether a buffered response is still legal to send,
// i.e. StartSSE has not already claimed the connection for streaming.
func (e *Event) checkCanSend() error {
	if e.sse != nil {
		return Classify(KindState, ErrSSEAlreadyStarted)
	}
	return nil
}

// SendText finalizes a text/plain response. Fails with
// ErrSSEAlreadyStarted if StartSSE was already called on this Event.
func (e *Event) SendText(body []byte) error {
	if err := e.checkCanSend(); err != nil {
		return err
	}
	return e.Response.finalize("text/plain; charset=utf-8", body)
}

// SendHTML finalizes a text/html response. Fails with
// ErrSSEAlreadyStarted if StartSSE was already called on this Event.
func (e *Event) SendHTML(body []byte) error {
	if err := e.checkCanSend(); err != nil {
		return err
	}
	return e.Response.finalize("text/html; charset=utf-8", body)
}

// SendJSON marshals v and finalizes an application/json response. Fails
// with ErrSSEAlreadyStarted if StartSSE was already called on this Event.
func (e *Event) SendJSON(v any) error {
	if err := e.checkCanSend(); err != nil {
		return err
	}
	body, err := json.Marshal(v)
	if err != nil {
		return Classify(KindHandler, err)
	}
	return e.Response.finalize("application/json", body)
}

// SendJSONRaw finalizes an application/json response from already-encoded
// bytes, skipping the marshal step. Fails with ErrSSEAlreadyStarted if
// StartSSE was already called on this Event.
func (e *Event) SendJSONRaw(body []byte) error {
	if err := e.checkCanSend(); err != nil {
		return err
	}
	return e.Response.finalize("application/json", body)
}

// Redirect finalizes a response with the given status and a Location
// header. code must be a 3xx status; callers wanting a different status
// should set headers and status manually instead. Fails with
// ErrSSEAlreadyStarted if StartSSE was already called on this Event.
func (e *Event) Redirect(code int, location string) error {
	if err := e.checkCanSend(); err != nil {
		return err
	}
	if e.Response.finished {
		return Classify(KindState, ErrResponseFinished)
	}
	if err := e.Response.SetHeader("Location", location); err != nil {
		return err
	}
	if err := e.Response.SetStatus(code); err != nil {
		return err
	}
	return e.Response.finalize("", nil)
}

// StartSSE begins a Server-Sent Events stream: it finalizes response
// headers (status 200 unless already set, Content-Type
// text/event-stream, Cache-Control no-cache, Connection keep-alive,
// X-Accel-Buffering no) and returns a writer for subsequent events. It
// fails with ErrSSEAlreadyStarted if called twice, ErrAlreadySent if a
// buffered response was already finalized, or ErrConnectionNotReady if
// the Event was never attached to a connection (e.g. when invoked outside
// the dispatcher, such as in a unit test without a fake transport).
func (e *Event) StartSSE() (*SSEWriter, error) {
	if e.sse != nil {
		return nil, Classify(KindState, ErrSSEAlreadyStarted)
	}
	if e.Response.finished {
		return nil, Classify(KindState, ErrAlreadySent)
	}
	if e.conn == nil {
		return nil, Classify(KindState, ErrConnectionNotReady)
	}
	if err := e.Response.SetHeader("Content-Type", "text/event-stream"); err != nil {
		return nil, err
	}
	if err := e.Response.SetHeader("Cache-Control", "no-cache"); err != nil {
		return nil, err
	}
	if err := e.Response.SetHeader("Connection", "keep-alive"); err != nil {
		return nil, err
	}
	if err := e.Response.SetHeader("X-Accel-Buffering", "no"); err != nil {
		return nil, err
	}
	e.Response.sent = true
	e.sse = newSSEWriter(e.conn)
	return e.sse, nil
}

// SSEWriter returns the writer created by StartSSE, or nil if streaming
// has not started.
func (e *Event) SSEWriter() *SSEWriter { return e.sse }

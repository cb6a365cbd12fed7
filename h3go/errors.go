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
	"errors"
	"fmt"
	"net/http"
)

// Static errors for better error handling and testing.
// These should be wrapped with fmt.Errorf and %w when context is needed.
var (
	// Response / Event errors
	ErrResponseFinished   = errors.New("h3go: response already finished")
	ErrAlreadySent        = errors.New("h3go: response already sent")
	ErrSSEAlreadyStarted  = errors.New("h3go: sse already started")
	ErrConnectionNotReady = errors.New("h3go: connection not attached to event")

	// Route matcher errors
	ErrPatternConflict = errors.New("h3go/radix: inconsistent parameter name at node")
	ErrPoolExhausted   = errors.New("h3go: pool exhausted")
	ErrTooDeep         = errors.New("h3go/radix: path exceeds maximum depth or parameter count")
	ErrRouteFrozen     = errors.New("h3go: routes are frozen, cannot register after serving has started")

	// Connection / SSE errors
	ErrBackpressure     = errors.New("h3go: write queue over watermark")
	ErrConnectionClosed = errors.New("h3go: connection closed")
	ErrInvalidEventData = errors.New("h3go: sse event data contains a lone CR or NUL")

	// Minimal wire-parser errors (see wire.go)
	errMalformedRequestLine = errors.New("h3go: malformed request line")
	errUnsupportedMethod    = errors.New("h3go: unsupported method")
	errUnsupportedVersion   = errors.New("h3go: unsupported HTTP version")
	errMalformedHeader      = errors.New("h3go: malformed header line")
	errTooManyHeaders       = errors.New("h3go: too many header lines")
	errHeadersTooLarge      = errors.New("h3go: header block too large")
	errLineTooLong          = errors.New("h3go: line exceeds limit before terminator")
	errChunkedUnsupported   = errors.New("h3go: chunked transfer-encoding is not supported")
	errBodyTooLarge         = errors.New("h3go: request body exceeds configured maximum")
)

// ErrorKind classifies failures into the categories the dispatcher and
// connection state machine distinguish. It does not replace Go's error
// interface; it is reported by [ClassifiedError.Kind] so an on_error hook
// or the default mapper can decide a status code without a type switch
// over every concrete error type.
type ErrorKind int

const (
	// KindTransport covers accept/read/write failures, peer close, and timeouts.
	KindTransport ErrorKind = iota
	// KindProtocol covers malformed request line, headers, or body framing.
	KindProtocol
	// KindRoute covers PatternConflict (fatal at setup) and TooDeep (runtime).
	KindRoute
	// KindHandler covers any error returned by a user handler or middleware.
	KindHandler
	// KindResource covers PoolExhausted and Backpressure.
	KindResource
	// KindState covers programming errors (e.g. sending after start_sse()).
	KindState
	// KindPayload covers a request body exceeding the configured maximum.
	KindPayload
)

func (k ErrorKind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindProtocol:
		return "protocol"
	case KindRoute:
		return "route"
	case KindHandler:
		return "handler"
	case KindResource:
		return "resource"
	case KindState:
		return "state"
	case KindPayload:
		return "payload"
	default:
		return "unknown"
	}
}

// DefaultStatus returns the status code each kind maps to when no on_error
// hook is configured.
func (k ErrorKind) DefaultStatus() int {
	switch k {
	case KindProtocol:
		return http.StatusBadRequest
	case KindRoute:
		return http.StatusBadRequest
	case KindHandler:
		return http.StatusInternalServerError
	case KindResource:
		return http.StatusServiceUnavailable
	case KindPayload:
		return http.StatusRequestEntityTooLarge
	default:
		return http.StatusInternalServerError
	}
}

// ClassifiedError pairs an error with the taxonomy kind used by the
// dispatcher's default error mapping and by on_error hooks that want to
// branch on category rather than sentinel value.
type ClassifiedError struct {
	Kind ErrorKind
	Err  error
}

func (e *ClassifiedError) Error() string {
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *ClassifiedError) Unwrap() error { return e.Err }

// Classify wraps err with the given kind. A nil err returns nil.
func Classify(kind ErrorKind, err error) error {
	if err == nil {
		return nil
	}
	return &ClassifiedError{Kind: kind, Err: err}
}

// KindOf extracts the ErrorKind from err, defaulting to KindHandler when err
// was not produced by [Classify]: an unclassified error returned by user
// code is treated as a handler error.
func KindOf(err error) ErrorKind {
	var ce *ClassifiedError
	if errors.As(err, &ce) {
		return ce.Kind
	}
	return KindHandler
}

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

// Request is the read-only view of an inbound HTTP/1.1 request.
// It may borrow its header and body bytes from a parser-owned read buffer
// that is reused on keep-alive, so nothing in Request should be retained
// past the lifetime of the Event that owns it — copy what you need into
// UserContext or your own goroutine-local variables instead.
type Request struct {
	Method   Method
	RawURL   string
	Path     string
	RawQuery string
	Version  string // e.g. "HTTP/1.1"
	Headers  headerMap
	Body     []byte
}

// headerMap is a case-insensitive header store. Lookups lower-case the key;
// storage keeps the key as supplied by the parser (or the caller, in tests)
// for round-tripping back onto the wire.
type headerMap struct {
	keys   []string
	values []string
}

func newHeaderMap(capacity int) headerMap {
	return headerMap{
		keys:   make([]string, 0, capacity),
		values: make([]string, 0, capacity),
	}
}

// Set appends a header, replacing any existing value for the same
// case-insensitive name.
func (h *headerMap) Set(name, value string) {
	lname := strings.ToLower(name)
	for i, k := range h.keys {
		if strings.ToLower(k) == lname {
			h.values[i] = value
			return
		}
	}
	h.keys = append(h.keys, name)
	h.values = append(h.values, value)
}

// Add appends a header without replacing an existing value of the same
// name, for multi-valued headers such as Set-Cookie.
func (h *headerMap) Add(name, value string) {
	h.keys = append(h.keys, name)
	h.values = append(h.values, value)
}

// Get returns the first value stored for name, case-insensitively, and
// whether it was found.
func (h *headerMap) Get(name string) (string, bool) {
	lname := strings.ToLower(name)
	for i, k := range h.keys {
		if strings.ToLower(k) == lname {
			return h.values[i], true
		}
	}
	return "", false
}

// reset clears the map while retaining the backing array capacity: owned
// strings are dropped (Go's GC takes care of the actual free), the slices
// are truncated to zero length for the next acquire.
func (h *headerMap) reset() {
	h.keys = h.keys[:0]
	h.values = h.values[:0]
}

// Len reports the number of stored header entries (multi-valued headers
// count once per Add/Set call).
func (h *headerMap) Len() int { return len(h.keys) }

// Header returns the first value of the named request header,
// case-insensitively, or "" if absent.
func (r *Request) Header(name string) string {
	v, _ := r.Headers.Get(name)
	return v
}

// KeepAlive reports whether this request should keep the connection open.
// HTTP/1.1 defaults to keep-alive unless "Connection: close" is present;
// HTTP/1.0 defaults to close unless "Connection: keep-alive" is present.
func (r *Request) KeepAlive() bool {
	conn := strings.ToLower(r.Header("Connection"))
	if r.Version == "HTTP/1.1" {
		return conn != "close"
	}
	return conn == "keep-alive"
}

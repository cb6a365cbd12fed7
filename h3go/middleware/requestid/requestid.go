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

// Package requestid provides middleware that attaches a unique, sortable
// ID to every request: read from an incoming header if the client sent
// one (and that's allowed), otherwise generated fresh, then echoed back
// as a response header and stashed in the Event's UserContext for
// downstream middleware (loggers, tracers) to pick up.
package requestid

import (
	"crypto/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"

	"github.com/oneopane/h3go"
)

// contextKey is the UserContext key the request ID is stored under.
const contextKey = "h3go.requestid"

// Option configures the middleware.
type Option func(*config)

type config struct {
	headerName    string
	generator     func() string
	allowClientID bool
}

func defaultConfig() *config {
	return &config{
		headerName:    "X-Request-ID",
		generator:     generateUUIDv7,
		allowClientID: true,
	}
}

// WithHeader sets the header name used to read and write the request ID.
func WithHeader(name string) Option {
	return func(c *config) { c.headerName = name }
}

// WithGenerator replaces the default UUIDv7 generator.
func WithGenerator(fn func() string) Option {
	return func(c *config) { c.generator = fn }
}

// WithULID switches generation to ULID, a shorter (26-character) sortable
// alternative to UUIDv7.
func WithULID() Option {
	return func(c *config) { c.generator = generateULID }
}

// WithAllowClientID controls whether a client-supplied header value is
// trusted as the request ID. Disable this at a public-facing edge where
// clients shouldn't be able to inject arbitrary correlation IDs.
func WithAllowClientID(allow bool) Option {
	return func(c *config) { c.allowClientID = allow }
}

func generateUUIDv7() string {
	return uuid.Must(uuid.NewV7()).String()
}

var (
	ulidEntropy     = ulid.Monotonic(rand.Reader, 0)
	ulidEntropyLock sync.Mutex
)

func generateULID() string {
	ulidEntropyLock.Lock()
	defer ulidEntropyLock.Unlock()
	return ulid.MustNew(ulid.Timestamp(time.Now()), ulidEntropy).String()
}

// New returns a middleware that assigns a request ID and echoes it back
// in the response header.
func New(opts ...Option) h3go.MiddlewareFunc {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return func(e *h3go.Event, next h3go.Continuation) error {
		id := ""
		if cfg.allowClientID {
			id = e.Header(cfg.headerName)
		}
		if id == "" {
			id = cfg.generator()
		}
		e.Context.Set(contextKey, id)
		_ = e.SetHeader(cfg.headerName, id)
		return next.Next(e)
	}
}

// Get retrieves the request ID an earlier New middleware attached to e,
// or "" if none ran.
func Get(e *h3go.Event) string {
	v, _ := e.Context.Get(contextKey)
	return v
}

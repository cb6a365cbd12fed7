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

// Package h3go is an embeddable HTTP/1.1 dispatch core: a route matcher,
// a pooled per-request Event, a middleware chain with re-entrant
// continuation semantics, and an async connection state machine that
// switches between buffered responses and long-lived Server-Sent Events
// streams.
//
// h3go does not parse HTTP/1.1 off the wire on your behalf beyond the
// minimal request-line/header scan the connection state machine needs to
// know where one request ends (see [Connection]); it does not terminate
// TLS, load configuration, or provide static-file/cookie/form helpers.
// Those are treated as the embedding program's concern.
//
// A minimal server:
//
//	srv := h3go.New()
//	srv.GET("/users/:id", func(e *h3go.Event) error {
//	    return e.SendText([]byte("user " + e.Param("id")))
//	})
//	return srv.ListenAndServe(ctx, h3go.ServerOptions{Addr: ":3000"})
package h3go

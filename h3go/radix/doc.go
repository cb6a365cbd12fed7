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

// Package radix implements h3go's route matcher: one trie per HTTP
// method, a bounded move-to-front LRU cache keyed by (method, exact
// path), and a bloom-filtered exact-match table for purely static
// routes. It stores handler values as opaque "any" payloads so it has no
// dependency on the h3go package's Event/HandlerVariant types — h3go type
// asserts the payload back on a successful match.
//
// Registration must complete before [Matcher.Freeze] is called; after that,
// Lookup is safe for concurrent use without locking: a configuration
// phase followed by an immutable, read-only phase.
package radix

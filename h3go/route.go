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

import "github.com/oneopane/h3go/radix"

// Route is a registered (method, pattern) pair together with the
// middleware-wrapped handler the dispatcher invokes on a match. It is the
// value stored as the opaque payload in the underlying radix trie.
type Route struct {
	Method  Method
	Pattern string
	Kind    HandlerKind
	chain   routeExecutor
}

// routeExecutor is satisfied by both *Chain and *FastChain so a Route can
// be backed by either middleware variant without the matcher caring which.
type routeExecutor interface {
	Execute(e *Event) error
}

// RouteMatch is the result of resolving a request to a Route, with the
// captured path parameters still owned by the underlying matcher's pool.
// Release must be called once the Event carrying the copied-out params no
// longer needs this match's backing storage.
type RouteMatch struct {
	Route  *Route
	params *radix.Params
	match  *radix.Match
}

// CopyParamsInto copies every captured path parameter from the match into
// dst, matching the dispatcher's "copy matched params into the Event"
// step so the Event's Params outlive the match/release pair.
func (rm *RouteMatch) CopyParamsInto(dst *Params) {
	if rm.params == nil {
		return
	}
	for i := 0; i < rm.params.Len(); i++ {
		k, v := rm.params.At(i)
		_ = dst.set(k, v)
	}
}

// RouteTable wraps a radix.Matcher, translating between h3go's Method/Route
// vocabulary and the matcher's string/any one.
type RouteTable struct {
	matcher *radix.Matcher
	routes  []*Route
}

// NewRouteTable builds an empty RouteTable backed by matcher.
func NewRouteTable(matcher *radix.Matcher) *RouteTable {
	return &RouteTable{matcher: matcher}
}

// Register adds a route. Mirrors radix.Matcher.Register's error contract:
// ErrFrozen, ErrPatternConflict, ErrTooDeep, or ErrWildcardNotLast,
// classified as route errors.
func (t *RouteTable) Register(method Method, pattern string, kind HandlerKind, handler HandlerFunc, middlewares ...MiddlewareFunc) (*Route, error) {
	route := &Route{Method: method, Pattern: pattern, Kind: kind}
	route.chain = NewChain(handler, middlewares...)
	if err := t.matcher.Register(string(method), pattern, route); err != nil {
		return nil, Classify(KindRoute, err)
	}
	t.routes = append(t.routes, route)
	return route, nil
}

// Freeze stops further registration, per the matcher's own contract.
func (t *RouteTable) Freeze() { t.matcher.Freeze() }

// Routes returns every registered route, in registration order, for
// introspection (e.g. a diagnostics endpoint listing the mounted API).
func (t *RouteTable) Routes() []*Route {
	out := make([]*Route, len(t.routes))
	copy(out, t.routes)
	return out
}

// Lookup resolves method and path to a RouteMatch. ok is false when
// nothing matches. Every successful call must be paired with Release.
func (t *RouteTable) Lookup(method Method, path string) (rm *RouteMatch, ok bool, err error) {
	m, found, lookupErr := t.matcher.Lookup(string(method), path)
	if lookupErr != nil {
		return nil, false, Classify(KindRoute, lookupErr)
	}
	if !found {
		return nil, false, nil
	}
	route, valid := m.Value.(*Route)
	if !valid {
		return nil, false, nil
	}
	return &RouteMatch{Route: route, params: m.Params, match: m}, true, nil
}

// Release returns a RouteMatch's backing parameter storage to the matcher
// pool.
func (t *RouteTable) Release(rm *RouteMatch) {
	if rm == nil {
		return
	}
	t.matcher.Release(rm.match)
}

// CacheStats reports the underlying matcher's route cache counters.
func (t *RouteTable) CacheStats() radix.Stats { return t.matcher.CacheStats() }

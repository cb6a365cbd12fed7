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

package radix

import (
	"strings"
	"sync"
)

var methodOrder = [...]string{"GET", "POST", "PUT", "DELETE", "PATCH", "HEAD", "OPTIONS"}

func methodSlot(method string) int {
	for i, m := range methodOrder {
		if m == method {
			return i
		}
	}
	return -1
}

// bloomStaticThreshold is the static-route count at or above which the
// bloom filter is consulted before the exact-match map; smaller route
// tables skip the bloom filter and go straight to the map.
const bloomStaticThreshold = 10

type methodTrie struct {
	root        node
	staticExact map[string]*node
	bloom       *bloomFilter
}

// Options configures a Matcher. Zero values fall back to sane defaults.
type Options struct {
	MaxDepth     int // default 32
	MaxParams    int // default 16
	CacheSize    int // default 512 when 0; a negative value disables caching
	BloomBits    uint64
	BloomHashes  int
}

// Match is a successful lookup result. Params must be released with
// [Matcher.Release] once the caller is done reading it.
type Match struct {
	Value   any
	Pattern string
	Params  *Params

	fromCache bool
}

// Matcher routes (method, path) pairs to registered values. It is safe for
// concurrent Lookup calls once Freeze has been called; Register is not
// concurrency-safe and must complete during setup.
type Matcher struct {
	opts   Options
	tries  [len(methodOrder)]*methodTrie
	cache  *lruCache
	frozen bool

	paramsPool sync.Pool
}

// NewMatcher builds an empty Matcher ready for Register calls.
func NewMatcher(opts Options) *Matcher {
	if opts.MaxDepth <= 0 {
		opts.MaxDepth = 32
	}
	if opts.MaxParams <= 0 {
		opts.MaxParams = 16
	}
	if opts.CacheSize == 0 {
		opts.CacheSize = 512
	}
	if opts.BloomBits == 0 {
		opts.BloomBits = 4096
	}
	if opts.BloomHashes == 0 {
		opts.BloomHashes = 3
	}
	m := &Matcher{opts: opts}
	for i := range m.tries {
		m.tries[i] = &methodTrie{staticExact: make(map[string]*node)}
	}
	if opts.CacheSize > 0 {
		m.cache = newLRUCache(opts.CacheSize)
	}
	m.paramsPool.New = func() any {
		return newParamsPool(m.opts.MaxParams)
	}
	return m
}

// Register adds pattern for method, associating it with value. Returns
// ErrFrozen once Freeze has been called, ErrPatternConflict when pattern
// disagrees with an already-registered parameter name at the same trie
// position, ErrTooDeep when it has more segments than MaxDepth, or
// ErrWildcardNotLast when "*" is not the final segment.
func (m *Matcher) Register(method, pattern string, value any) error {
	if m.frozen {
		return ErrFrozen
	}
	slot := methodSlot(method)
	if slot < 0 {
		return ErrPatternConflict
	}
	t := m.tries[slot]
	if err := t.root.register(pattern, value, m.opts.MaxDepth); err != nil {
		return err
	}
	if isStaticPattern(pattern) {
		segs := splitPath(pattern)
		n := &t.root
		for _, s := range segs {
			n = n.children[s]
		}
		t.staticExact[pattern] = n
		if t.bloom == nil {
			t.bloom = newBloomFilter(m.opts.BloomBits, m.opts.BloomHashes)
		}
		t.bloom.add(pattern)
	}
	if m.cache != nil {
		m.cache.invalidate()
	}
	return nil
}

func isStaticPattern(pattern string) bool {
	return !strings.Contains(pattern, ":") && !strings.Contains(pattern, "*")
}

// Freeze marks registration complete. After Freeze, Lookup needs no
// synchronization beyond what the cache and params pool already provide.
func (m *Matcher) Freeze() { m.frozen = true }

// Lookup resolves method and path to a match. ok is false when nothing
// matches; err is non-nil only for a structural failure (too many path
// parameters in a single request) that callers should report as a route
// error rather than a plain 404.
//
// Every successful Lookup must be paired with a call to [Matcher.Release]
// on the returned Match's Params, even on a cache hit — the contract is
// the same whichever path served the match.
func (m *Matcher) Lookup(method, path string) (match *Match, ok bool, err error) {
	slot := methodSlot(method)
	if slot < 0 {
		return nil, false, nil
	}
	t := m.tries[slot]

	cacheKey := method + " " + path
	if m.cache != nil {
		if value, pattern, params, hit := m.cache.get(cacheKey); hit {
			return &Match{Value: value, Pattern: pattern, Params: params, fromCache: true}, true, nil
		}
	}

	if n, found := lookupStatic(t, path); found {
		if m.cache != nil {
			m.cache.put(cacheKey, n.value, n.pattern, newParamsPool(m.opts.MaxParams))
		}
		return &Match{Value: n.value, Pattern: n.pattern}, true, nil
	}

	params := m.paramsPool.Get().(*Params)
	params.reset()
	value, pattern, matched, lookupErr := t.root.lookup(path, params, m.opts.MaxDepth)
	if lookupErr != nil {
		m.paramsPool.Put(params)
		return nil, false, lookupErr
	}
	if !matched {
		m.paramsPool.Put(params)
		return nil, false, nil
	}
	if m.cache != nil {
		m.cache.put(cacheKey, value, pattern, params)
	}
	return &Match{Value: value, Pattern: pattern, Params: params}, true, nil
}

// lookupStatic serves an exact, parameter-free path through the bloom
// filter + exact map fast path, bypassing the general trie walk entirely.
func lookupStatic(t *methodTrie, path string) (*node, bool) {
	if len(t.staticExact) == 0 {
		return nil, false
	}
	if len(t.staticExact) >= bloomStaticThreshold && t.bloom != nil {
		if !t.bloom.test(path) {
			return nil, false
		}
	}
	n, ok := t.staticExact[path]
	if !ok || !n.hasValue {
		return nil, false
	}
	return n, true
}

// Release returns match's Params to the internal pool. Safe to call with a
// Match produced by a cache hit (the clone is simply discarded).
func (m *Matcher) Release(match *Match) {
	if match == nil || match.Params == nil {
		return
	}
	if match.fromCache {
		return
	}
	m.paramsPool.Put(match.Params)
}

// CacheStats reports the route cache's hit/miss/eviction counters. Returns
// the zero Stats when caching is disabled.
func (m *Matcher) CacheStats() Stats {
	if m.cache == nil {
		return Stats{}
	}
	return m.cache.stats()
}

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
	"container/list"
	"sync"
)

// cacheEntry is an owned, pool-independent snapshot of one successful
// match, safe to hand back on repeated hits without touching the trie.
type cacheEntry struct {
	key     string
	value   any
	pattern string
	params  *Params
}

// lruCache is a bounded move-to-front cache keyed by "METHOD path". No
// example repo in the corpus ships a reusable LRU container, so this one
// is built directly on container/list + map, the standard idiom for the
// data structure; the policy around it (what gets cached, when it's
// invalidated) is the matcher's, not this file's.
type lruCache struct {
	mu       sync.Mutex
	capacity int
	ll       *list.List
	index    map[string]*list.Element

	hits      uint64
	misses    uint64
	evictions uint64
}

func newLRUCache(capacity int) *lruCache {
	if capacity <= 0 {
		capacity = 1
	}
	return &lruCache{
		capacity: capacity,
		ll:       list.New(),
		index:    make(map[string]*list.Element, capacity),
	}
}

func (c *lruCache) get(key string) (value any, pattern string, params *Params, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	el, found := c.index[key]
	if !found {
		c.misses++
		return nil, "", nil, false
	}
	c.hits++
	c.ll.MoveToFront(el)
	entry := el.Value.(*cacheEntry)
	return entry.value, entry.pattern, entry.params.clone(), true
}

func (c *lruCache) put(key string, value any, pattern string, params *Params) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if el, found := c.index[key]; found {
		entry := el.Value.(*cacheEntry)
		entry.value = value
		entry.pattern = pattern
		entry.params = params.clone()
		c.ll.MoveToFront(el)
		return
	}
	entry := &cacheEntry{key: key, value: value, pattern: pattern, params: params.clone()}
	el := c.ll.PushFront(entry)
	c.index[key] = el
	if c.ll.Len() > c.capacity {
		oldest := c.ll.Back()
		if oldest != nil {
			c.ll.Remove(oldest)
			delete(c.index, oldest.Value.(*cacheEntry).key)
			c.evictions++
		}
	}
}

// invalidate drops every cached entry. Called on every Register, since a
// newly added pattern can change the outcome of a previously cached path
// (e.g. a more specific static route added after a wildcard was cached).
func (c *lruCache) invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ll.Init()
	c.index = make(map[string]*list.Element, c.capacity)
}

// Stats reports a point-in-time snapshot of cache activity.
type Stats struct {
	Hits      uint64
	Misses    uint64
	Evictions uint64
	Size      int
	Capacity  int
}

// HitRatio returns Hits / (Hits + Misses), or 0 when there have been no
// lookups yet.
func (s Stats) HitRatio() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}

func (c *lruCache) stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Stats{
		Hits:      c.hits,
		Misses:    c.misses,
		Evictions: c.evictions,
		Size:      c.ll.Len(),
		Capacity:  c.capacity,
	}
}

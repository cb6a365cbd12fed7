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

// Params is the matcher's own path-parameter carrier, acquired from a pool
// during Lookup and returned to it by Release (or consumed by the cache,
// which takes an owned copy before the pool reclaims the original). Callers
// needing parameters to outlive the match/release pair must copy them out.
type Params struct {
	keys   []string
	values []string
	max    int
}

func newParamsPool(maxParams int) *Params {
	return &Params{
		keys:   make([]string, 0, maxParams),
		values: make([]string, 0, maxParams),
		max:    maxParams,
	}
}

func (p *Params) append(key, value string) error {
	if len(p.keys) >= p.max {
		return ErrTooManyParams
	}
	p.keys = append(p.keys, key)
	p.values = append(p.values, value)
	return nil
}

func (p *Params) reset() {
	p.keys = p.keys[:0]
	p.values = p.values[:0]
}

// Len reports the number of captured parameters.
func (p *Params) Len() int { return len(p.keys) }

// At returns the key/value pair at index i.
func (p *Params) At(i int) (string, string) { return p.keys[i], p.values[i] }

// Get returns the value for name and whether it was present.
func (p *Params) Get(name string) (string, bool) {
	for i, k := range p.keys {
		if k == name {
			return p.values[i], true
		}
	}
	return "", false
}

// clone returns an independent copy safe to retain past Release, used by
// the LRU cache to store a match snapshot.
func (p *Params) clone() *Params {
	c := &Params{
		keys:   append([]string(nil), p.keys...),
		values: append([]string(nil), p.values...),
		max:    p.max,
	}
	return c
}

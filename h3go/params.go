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

// DefaultMaxParams is the default cap on path parameters per route.
const DefaultMaxParams = 16

// Params holds path parameters extracted by the route matcher. Every key
// and value is a heap-owned copy: the underlying request buffer is reused
// on keep-alive, so Params must never store borrowed slices. Insertion
// order is not preserved across resets.
type Params struct {
	keys   []string
	values []string
	max    int
}

func newParams(maxParams int) Params {
	if maxParams <= 0 {
		maxParams = DefaultMaxParams
	}
	return Params{
		keys:   make([]string, 0, maxParams),
		values: make([]string, 0, maxParams),
		max:    maxParams,
	}
}

// set stores an owned copy of name/value, failing with ErrTooDeep if the
// configured maximum is exceeded.
func (p *Params) set(name, value string) error {
	if len(p.keys) >= p.max {
		return Classify(KindRoute, ErrTooDeep)
	}
	p.keys = append(p.keys, string(append([]byte(nil), name...)))
	p.values = append(p.values, string(append([]byte(nil), value...)))
	return nil
}

// Get returns the value for name and whether it was present.
func (p *Params) Get(name string) (string, bool) {
	for i, k := range p.keys {
		if k == name {
			return p.values[i], true
		}
	}
	return "", false
}

// Len reports the number of stored parameters.
func (p *Params) Len() int { return len(p.keys) }

// Map copies the params into a fresh map[string]string, useful for logging
// or handing to templates; callers must not mutate pooled storage.
func (p *Params) Map() map[string]string {
	out := make(map[string]string, len(p.keys))
	for i, k := range p.keys {
		out[k] = p.values[i]
	}
	return out
}

// reset frees owned strings (left to the GC) and truncates the backing
// arrays to zero length, retaining their capacity for the next acquire.
func (p *Params) reset() {
	p.keys = p.keys[:0]
	p.values = p.values[:0]
}

// copyFrom replaces p's contents with owned copies of src's, used by the
// dispatcher to move a matcher-owned Params snapshot into the Event's own
// storage.
func (p *Params) copyFrom(src *Params) {
	p.reset()
	for i, k := range src.keys {
		p.keys = append(p.keys, k)
		p.values = append(p.values, src.values[i])
	}
}

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

// Query holds decoded application/x-www-form-urlencoded query parameters.
// Like Params, every key and value is a heap-owned copy.
type Query struct {
	keys   []string
	values []string
}

func newQuery(capacity int) Query {
	return Query{
		keys:   make([]string, 0, capacity),
		values: make([]string, 0, capacity),
	}
}

// Get returns the value for name and whether it was present. When a key
// repeats, the last occurrence wins.
func (q *Query) Get(name string) (string, bool) {
	for i, k := range q.keys {
		if k == name {
			return q.values[i], true
		}
	}
	return "", false
}

// Len reports the number of stored query parameters.
func (q *Query) Len() int { return len(q.keys) }

func (q *Query) reset() {
	q.keys = q.keys[:0]
	q.values = q.values[:0]
}

func (q *Query) set(key, value string) {
	for i, k := range q.keys {
		if k == key {
			q.values[i] = value
			return
		}
	}
	q.keys = append(q.keys, key)
	q.values = append(q.values, value)
}

// parse populates q from raw: '+' decodes to space, "%HH" decodes to the
// corresponding byte, and malformed '%' sequences are passed through
// literally rather than rejected. Idempotent: parse calls reset() first,
// so repeated calls yield identical contents.
func (q *Query) parse(raw string) {
	q.reset()
	if raw == "" {
		return
	}
	for _, pair := range strings.Split(raw, "&") {
		if pair == "" {
			continue
		}
		key, value, hasEq := strings.Cut(pair, "=")
		key = decodeFormValue(key)
		if hasEq {
			value = decodeFormValue(value)
		} else {
			value = ""
		}
		q.set(key, value)
	}
}

// decodeFormValue decodes one application/x-www-form-urlencoded token: '+'
// to space, "%HH" to its byte, anything else passed through unchanged
// (including a malformed '%' that isn't followed by two hex digits).
func decodeFormValue(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '+':
			b.WriteByte(' ')
		case '%':
			if i+2 < len(s) && isHex(s[i+1]) && isHex(s[i+2]) {
				b.WriteByte(unhex(s[i+1])<<4 | unhex(s[i+2]))
				i += 2
			} else {
				// Malformed escape: pass through literally.
				b.WriteByte('%')
			}
		default:
			b.WriteByte(s[i])
		}
	}
	return b.String()
}

func isHex(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

func unhex(c byte) byte {
	switch {
	case c >= '0' && c <= '9':
		return c - '0'
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10
	}
	return 0
}

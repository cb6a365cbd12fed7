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

// UserContext carries inter-middleware data for the lifetime of one
// dispatch. Keys and values are heap-owned copies, same rule as Params
// and Query.
type UserContext struct {
	keys   []string
	values []string
}

func newUserContext(capacity int) UserContext {
	return UserContext{
		keys:   make([]string, 0, capacity),
		values: make([]string, 0, capacity),
	}
}

// Set stores an owned copy of key/value, replacing any existing entry.
func (u *UserContext) Set(key, value string) {
	ownedKey := string(append([]byte(nil), key...))
	ownedValue := string(append([]byte(nil), value...))
	for i, k := range u.keys {
		if k == ownedKey {
			u.values[i] = ownedValue
			return
		}
	}
	u.keys = append(u.keys, ownedKey)
	u.values = append(u.values, ownedValue)
}

// Get returns the value for key and whether it was present.
func (u *UserContext) Get(key string) (string, bool) {
	for i, k := range u.keys {
		if k == key {
			return u.values[i], true
		}
	}
	return "", false
}

// Len reports the number of stored entries.
func (u *UserContext) Len() int { return len(u.keys) }

func (u *UserContext) reset() {
	u.keys = u.keys[:0]
	u.values = u.values[:0]
}

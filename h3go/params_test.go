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

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParams_SetAndGet(t *testing.T) {
	p := newParams(4)
	require.NoError(t, p.set("id", "42"))
	v, ok := p.Get("id")
	require.True(t, ok)
	assert.Equal(t, "42", v)
	assert.Equal(t, 1, p.Len())
}

func TestParams_ExceedsMax(t *testing.T) {
	p := newParams(1)
	require.NoError(t, p.set("a", "1"))
	err := p.set("b", "2")
	assert.ErrorIs(t, err, ErrTooDeep)
}

func TestParams_ResetClears(t *testing.T) {
	p := newParams(4)
	require.NoError(t, p.set("a", "1"))
	p.reset()
	assert.Equal(t, 0, p.Len())
	_, ok := p.Get("a")
	assert.False(t, ok)
}

func TestParams_CopyFromIsIndependent(t *testing.T) {
	src := newParams(4)
	require.NoError(t, src.set("id", "1"))
	dst := newParams(4)
	dst.copyFrom(&src)

	src.reset()
	require.NoError(t, src.set("id", "mutated"))

	v, ok := dst.Get("id")
	require.True(t, ok)
	assert.Equal(t, "1", v)
}

func TestParams_Map(t *testing.T) {
	p := newParams(4)
	require.NoError(t, p.set("a", "1"))
	require.NoError(t, p.set("b", "2"))
	m := p.Map()
	assert.Equal(t, map[string]string{"a": "1", "b": "2"}, m)
}

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

func TestResponse_FinalizeSetsHeaders(t *testing.T) {
	r := newResponse()
	require.NoError(t, r.finalize("text/plain; charset=utf-8", []byte("hello")))
	ct, _ := r.Headers.Get("Content-Type")
	assert.Equal(t, "text/plain; charset=utf-8", ct)
	cl, _ := r.Headers.Get("Content-Length")
	assert.Equal(t, "5", cl)
	assert.True(t, r.sent)
	assert.True(t, r.finished)
}

func TestResponse_MutationAfterFinishFails(t *testing.T) {
	r := newResponse()
	require.NoError(t, r.finalize("text/plain", nil))
	assert.ErrorIs(t, r.SetHeader("X", "Y"), ErrResponseFinished)
	assert.ErrorIs(t, r.SetStatus(500), ErrResponseFinished)
	assert.ErrorIs(t, r.finalize("text/plain", nil), ErrResponseFinished)
}

func TestResponse_Reset(t *testing.T) {
	r := newResponse()
	require.NoError(t, r.finalize("text/plain", []byte("x")))
	r.reset()
	assert.Equal(t, 200, r.Status.Code)
	assert.False(t, r.finished)
	assert.False(t, r.sent)
	assert.Nil(t, r.Body)
}

func TestResponse_BodyIsOwnedCopy(t *testing.T) {
	body := []byte("hello")
	r := newResponse()
	require.NoError(t, r.finalize("text/plain", body))
	body[0] = 'X'
	assert.Equal(t, "hello", string(r.Body))
}

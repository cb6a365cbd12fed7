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
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChain_OnionOrdering(t *testing.T) {
	var order []string
	mw := func(name string) MiddlewareFunc {
		return func(e *Event, next Continuation) error {
			order = append(order, name+":in")
			err := next.Next(e)
			order = append(order, name+":out")
			return err
		}
	}
	handler := func(e *Event) error {
		order = append(order, "handler")
		return nil
	}
	chain := NewChain(handler, mw("a"), mw("b"))
	e := newEvent(DefaultMaxParams)
	require.NoError(t, chain.Execute(e))
	assert.Equal(t, []string{"a:in", "b:in", "handler", "b:out", "a:out"}, order)
}

func TestChain_ShortCircuitOnFinishedResponse(t *testing.T) {
	var handlerCalled bool
	abort := func(e *Event, next Continuation) error {
		_ = e.SendText([]byte("aborted"))
		return next.Next(e) // should be a no-op since response is finished
	}
	handler := func(e *Event) error {
		handlerCalled = true
		return nil
	}
	chain := NewChain(handler, abort)
	e := newEvent(DefaultMaxParams)
	require.NoError(t, chain.Execute(e))
	assert.False(t, handlerCalled)
	assert.Equal(t, "aborted", string(e.Response.Body))
}

func TestChain_ErrorPropagates(t *testing.T) {
	boom := errors.New("boom")
	mw := func(e *Event, next Continuation) error { return boom }
	chain := NewChain(func(e *Event) error { return nil }, mw)
	e := newEvent(DefaultMaxParams)
	err := chain.Execute(e)
	assert.ErrorIs(t, err, boom)
}

func TestFastChain_StopsOnError(t *testing.T) {
	boom := errors.New("boom")
	var secondCalled, handlerCalled bool
	fc, err := NewFastChain(
		func(e *Event) error { handlerCalled = true; return nil },
		func(e *Event) error { return boom },
		func(e *Event) error { secondCalled = true; return nil },
	)
	require.NoError(t, err)
	e := newEvent(DefaultMaxParams)
	execErr := fc.Execute(e)
	assert.ErrorIs(t, execErr, boom)
	assert.False(t, secondCalled)
	assert.False(t, handlerCalled)
}

func TestFastChain_TooManyMiddlewares(t *testing.T) {
	mws := make([]FastMiddlewareFunc, maxFastMiddleware+1)
	for i := range mws {
		mws[i] = func(e *Event) error { return nil }
	}
	_, err := NewFastChain(func(e *Event) error { return nil }, mws...)
	assert.ErrorIs(t, err, ErrTooDeep)
}

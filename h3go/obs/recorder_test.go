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

package obs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRecorder_RegistersPrometheusCollectors(t *testing.T) {
	r := NewRecorder()
	require.NotNil(t, r.Registry())

	families, err := r.Registry().Gather()
	require.NoError(t, err)

	names := make(map[string]bool, len(families))
	for _, f := range families {
		names[f.GetName()] = true
	}
	assert.True(t, names["h3go_requests_total"])
	assert.True(t, names["h3go_sse_events_total"])
	assert.True(t, names["h3go_pool_hit_ratio"])
}

func TestRecorder_StartEndDispatchIncrementsRequestsTotal(t *testing.T) {
	r := NewRecorder()
	ctx, span := r.StartDispatch(context.Background(), "GET", "/a")
	require.NotNil(t, ctx)
	r.EndDispatch(span, "GET", 204, nil)

	assert.Equal(t, float64(1), testutil.ToFloat64(r.requestsTotal.WithLabelValues("GET", "2xx")))
}

func TestRecorder_EndDispatchClassifiesStatusCodes(t *testing.T) {
	r := NewRecorder()
	cases := []struct {
		code  int
		class string
	}{
		{199, "other"},
		{204, "2xx"},
		{301, "3xx"},
		{404, "4xx"},
		{500, "5xx"},
	}
	for _, tc := range cases {
		_, span := r.StartDispatch(context.Background(), "GET", "/x")
		r.EndDispatch(span, "GET", tc.code, nil)
		assert.Equal(t, float64(1), testutil.ToFloat64(r.requestsTotal.WithLabelValues("GET", tc.class)), "code %d", tc.code)
	}
}

func TestRecorder_EndDispatchWithErrorDoesNotPanic(t *testing.T) {
	r := NewRecorder()
	_, span := r.StartDispatch(context.Background(), "POST", "/fail")
	assert.NotPanics(t, func() { r.EndDispatch(span, "POST", 500, errors.New("boom")) })
}

func TestRecorder_ObserveRouteLookupDoesNotPanic(t *testing.T) {
	r := NewRecorder()
	assert.NotPanics(t, func() { r.ObserveRouteLookup(context.Background(), 5*time.Millisecond) })
}

func TestRecorder_ObserveConnStateDoesNotPanic(t *testing.T) {
	r := NewRecorder()
	assert.NotPanics(t, func() { r.ObserveConnState(context.Background(), "reading", time.Millisecond) })
}

func TestRecorder_SetPoolHitRatioUpdatesPrometheusGauge(t *testing.T) {
	r := NewRecorder()
	r.SetPoolHitRatio(context.Background(), 0.75)
	assert.Equal(t, 0.75, testutil.ToFloat64(r.poolHitRatioGauge))
}

func TestRecorder_RecordSSEEventIncrementsCounterAndTagsSpan(t *testing.T) {
	r := NewRecorder()
	_, span := r.StartDispatch(context.Background(), "GET", "/stream")
	r.RecordSSEEvent(span, "tick")
	r.RecordSSEEvent(nil, "tick-without-span")

	assert.Equal(t, float64(2), testutil.ToFloat64(r.sseEventsTotal))
}

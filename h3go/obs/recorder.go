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
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/oneopane/h3go"

// Recorder is the observability façade every component that wants to emit
// telemetry holds a reference to: a dispatch span per request, a
// route-lookup latency histogram, a pool hit-ratio gauge, a
// connection-state-duration histogram, and SSE event counts added to the
// stream's dispatch span. It reads the otel global TracerProvider/MeterProvider at
// construction time, so installing a real provider before calling
// NewRecorder is how an embedder gets real telemetry instead of otel's
// built-in no-ops.
type Recorder struct {
	tracer trace.Tracer
	meter  metric.Meter

	routeLookupLatency metric.Float64Histogram
	connStateDuration  metric.Float64Histogram
	poolHitRatio       metric.Float64Gauge

	registry          *prometheus.Registry
	requestsTotal     *prometheus.CounterVec
	sseEventsTotal    prometheus.Counter
	poolHitRatioGauge prometheus.Gauge
}

// NewRecorder builds a Recorder backed by the current otel global
// providers and a fresh Prometheus registry populated with h3go's own
// collectors.
func NewRecorder() *Recorder {
	tracer := otel.Tracer(instrumentationName)
	meter := otel.Meter(instrumentationName)

	routeLookupLatency, _ := meter.Float64Histogram(
		"h3go.route.lookup.duration",
		metric.WithDescription("Route matcher lookup latency in seconds"),
		metric.WithUnit("s"),
	)
	connStateDuration, _ := meter.Float64Histogram(
		"h3go.connection.state.duration",
		metric.WithDescription("Time spent in each connection state per request cycle"),
		metric.WithUnit("s"),
	)
	poolHitRatio, _ := meter.Float64Gauge(
		"h3go.pool.hit_ratio",
		metric.WithDescription("Event pool hit ratio, updated after each Acquire"),
	)

	registry := prometheus.NewRegistry()
	requestsTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "h3go_requests_total",
		Help: "Total dispatched requests, labeled by method and status class.",
	}, []string{"method", "status_class"})
	sseEventsTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "h3go_sse_events_total",
		Help: "Total Server-Sent Events frames written across all streams.",
	})
	poolHitRatioGauge := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "h3go_pool_hit_ratio",
		Help: "Event pool hit ratio, updated after each Acquire.",
	})
	registry.MustRegister(requestsTotal, sseEventsTotal, poolHitRatioGauge)

	return &Recorder{
		tracer:             tracer,
		meter:              meter,
		routeLookupLatency: routeLookupLatency,
		connStateDuration:  connStateDuration,
		poolHitRatio:       poolHitRatio,
		registry:           registry,
		requestsTotal:      requestsTotal,
		sseEventsTotal:     sseEventsTotal,
		poolHitRatioGauge:  poolHitRatioGauge,
	}
}

// Registry exposes the Prometheus registry for the embedder to serve on
// whatever path it chooses (h3go mounts no metrics route itself).
func (r *Recorder) Registry() *prometheus.Registry { return r.registry }

// StartDispatch opens a span covering one full request dispatch.
func (r *Recorder) StartDispatch(ctx context.Context, method, path string) (context.Context, trace.Span) {
	return r.tracer.Start(ctx, "h3go.dispatch",
		trace.WithAttributes(
			attribute.String("http.method", method),
			attribute.String("http.path", path),
		),
	)
}

// EndDispatch closes a dispatch span, recording err as the span status
// when non-nil and a coarse status-class label on the requests counter.
func (r *Recorder) EndDispatch(span trace.Span, method string, statusCode int, err error) {
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		span.RecordError(err)
	}
	span.End()
	r.requestsTotal.WithLabelValues(method, statusClass(statusCode)).Inc()
}

func statusClass(code int) string {
	switch {
	case code >= 500:
		return "5xx"
	case code >= 400:
		return "4xx"
	case code >= 300:
		return "3xx"
	case code >= 200:
		return "2xx"
	default:
		return "other"
	}
}

// ObserveRouteLookup records how long a single route match took.
func (r *Recorder) ObserveRouteLookup(ctx context.Context, d time.Duration) {
	r.routeLookupLatency.Record(ctx, d.Seconds())
}

// ObserveConnState records how long a connection spent in one state
// during a request cycle.
func (r *Recorder) ObserveConnState(ctx context.Context, state string, d time.Duration) {
	r.connStateDuration.Record(ctx, d.Seconds(), metric.WithAttributes(attribute.String("state", state)))
}

// SetPoolHitRatio publishes the event pool's current hit ratio to both
// the otel gauge and the Prometheus gauge.
func (r *Recorder) SetPoolHitRatio(ctx context.Context, ratio float64) {
	r.poolHitRatio.Record(ctx, ratio)
	r.poolHitRatioGauge.Set(ratio)
}

// RecordSSEEvent increments the SSE frame counter and adds an event to
// the given span (typically the stream's dispatch span, reused across
// every event it sends rather than opened fresh per event).
func (r *Recorder) RecordSSEEvent(span trace.Span, name string) {
	r.sseEventsTotal.Inc()
	if span != nil {
		span.AddEvent("h3go.sse.event", trace.WithAttributes(attribute.String("event.name", name)))
	}
}

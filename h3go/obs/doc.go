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

// Package obs wires h3go's dispatch core to OpenTelemetry tracing/metrics
// and a native Prometheus registry. It does not configure an exporter for
// either: the embedding program supplies its own TracerProvider and
// MeterProvider (or leaves the otel globals as no-ops), and mounts
// Recorder.Registry() on whatever HTTP path it likes. This package only
// produces telemetry; shipping it anywhere is the embedder's concern.
package obs

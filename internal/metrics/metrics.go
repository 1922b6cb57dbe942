/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package metrics holds the OpenTelemetry instruments of the intake server
// and the batch driver. A Prometheus bridge is available via InitProvider so
// the intake server can expose /metrics. Tests build their own Metrics with
// New and a ManualReader.
package metrics

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "mandatuvideo"

// Metrics holds the instruments. All fields are safe for concurrent use.
type Metrics struct {
	// Submissions counts intake requests by HTTP status.
	Submissions metric.Int64Counter
	// Records counts batch outcomes: transformed, skipped or failed.
	Records metric.Int64Counter
	// TransformDuration is the time spent on one record, in seconds.
	TransformDuration metric.Float64Histogram
	// BatchRuns counts finished batch runs.
	BatchRuns metric.Int64Counter
	// HTTPRequestDuration tracks request latency by method and path.
	HTTPRequestDuration metric.Float64Histogram
}

var latencyBuckets = []float64{
	0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5,
}

// New creates the instruments on mp.
func New(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	if met.Submissions, err = m.Int64Counter("mandatuvideo.intake.submissions",
		metric.WithDescription("Intake requests by response status."),
	); err != nil {
		return nil, err
	}
	if met.Records, err = m.Int64Counter("mandatuvideo.batch.records",
		metric.WithDescription("Batch records by outcome."),
	); err != nil {
		return nil, err
	}
	if met.TransformDuration, err = m.Float64Histogram("mandatuvideo.batch.transform.duration",
		metric.WithDescription("Time to transform one submission."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.BatchRuns, err = m.Int64Counter("mandatuvideo.batch.runs",
		metric.WithDescription("Finished batch runs."),
	); err != nil {
		return nil, err
	}
	if met.HTTPRequestDuration, err = m.Float64Histogram("mandatuvideo.http.request.duration",
		metric.WithDescription("HTTP request latency by method and path."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	return met, nil
}

var (
	defaultMetrics     *Metrics
	defaultMetricsOnce sync.Once
)

// Default returns the package-level Metrics backed by the global meter
// provider. Instruments created before InitProvider forward to it once set.
func Default() *Metrics {
	defaultMetricsOnce.Do(func() {
		var err error
		defaultMetrics, err = New(otel.GetMeterProvider())
		if err != nil {
			panic("metrics: create default instruments: " + err.Error())
		}
	})
	return defaultMetrics
}

// RecordSubmission counts one intake response.
func (m *Metrics) RecordSubmission(ctx context.Context, status int) {
	m.Submissions.Add(ctx, 1, metric.WithAttributes(attribute.Int("status", status)))
}

// RecordOutcome counts one batch record and its duration.
func (m *Metrics) RecordOutcome(ctx context.Context, outcome string, seconds float64) {
	attrs := metric.WithAttributes(attribute.String("outcome", outcome))
	m.Records.Add(ctx, 1, attrs)
	m.TransformDuration.Record(ctx, seconds, attrs)
}

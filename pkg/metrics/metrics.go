/*
 * Copyright 2025 Carver Automation Corporation.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package metrics exposes OpenTelemetry instruments for controller traffic,
// conformance outcomes and fleet remediation.
package metrics

import (
	"context"
	"strconv"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	meterName = "github.com/carverauto/bmcwatch"

	metricRequests     = "bmcwatch_redfish_requests_total"
	metricLatency      = "bmcwatch_redfish_request_duration_seconds"
	metricTaskPolls    = "bmcwatch_redfish_task_polls_total"
	metricValidations  = "bmcwatch_conformance_validations_total"
	metricRemediations = "bmcwatch_power_remediations_total"
	metricCycleHosts   = "bmcwatch_power_cycle_hosts_total"
)

var (
	//nolint:gochecknoglobals // metrics instruments are shared across the process intentionally
	meterOnce sync.Once
	//nolint:gochecknoglobals // metrics instruments are shared across the process intentionally
	requestCounter metric.Int64Counter
	//nolint:gochecknoglobals // metrics instruments are shared across the process intentionally
	latencyHistogram metric.Float64Histogram
	//nolint:gochecknoglobals // metrics instruments are shared across the process intentionally
	taskPollCounter metric.Int64Counter
	//nolint:gochecknoglobals // metrics instruments are shared across the process intentionally
	validationCounter metric.Int64Counter
	//nolint:gochecknoglobals // metrics instruments are shared across the process intentionally
	remediationCounter metric.Int64Counter
	//nolint:gochecknoglobals // metrics instruments are shared across the process intentionally
	cycleHostCounter metric.Int64Counter
)

func initMeter() {
	meter := otel.Meter(meterName)

	var err error

	requestCounter, err = meter.Int64Counter(metricRequests,
		metric.WithDescription("Redfish requests by method and response status"))
	if err != nil {
		otel.Handle(err)
	}

	latencyHistogram, err = meter.Float64Histogram(metricLatency,
		metric.WithDescription("Latency of Redfish requests"),
		metric.WithUnit("s"))
	if err != nil {
		otel.Handle(err)
	}

	taskPollCounter, err = meter.Int64Counter(metricTaskPolls,
		metric.WithDescription("Task monitor polls by observed state"))
	if err != nil {
		otel.Handle(err)
	}

	validationCounter, err = meter.Int64Counter(metricValidations,
		metric.WithDescription("Conformance validation records by kind and outcome"))
	if err != nil {
		otel.Handle(err)
	}

	remediationCounter, err = meter.Int64Counter(metricRemediations,
		metric.WithDescription("Power remediation actions by action and outcome"))
	if err != nil {
		otel.Handle(err)
	}

	cycleHostCounter, err = meter.Int64Counter(metricCycleHosts,
		metric.WithDescription("Hosts processed per monitor cycle by result"))
	if err != nil {
		otel.Handle(err)
	}
}

// RecordRequest counts one controller request and its latency. status is 0
// when the request never got a response.
func RecordRequest(ctx context.Context, method string, status int, elapsed time.Duration) {
	meterOnce.Do(initMeter)

	attrs := metric.WithAttributes(
		attribute.String("method", method),
		attribute.String("status", statusLabel(status)),
	)

	if requestCounter != nil {
		requestCounter.Add(ctx, 1, attrs)
	}

	if latencyHistogram != nil {
		latencyHistogram.Record(ctx, elapsed.Seconds(), attrs)
	}
}

// RecordTaskPoll counts one task monitor poll.
func RecordTaskPoll(ctx context.Context, state string) {
	meterOnce.Do(initMeter)
	if taskPollCounter == nil {
		return
	}

	taskPollCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("state", state)))
}

// RecordValidation counts one appended compliance record.
func RecordValidation(ctx context.Context, kind, outcome string) {
	meterOnce.Do(initMeter)
	if validationCounter == nil {
		return
	}

	validationCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("kind", kind),
		attribute.String("outcome", outcome),
	))
}

// RecordRemediation counts one remediation outcome.
func RecordRemediation(ctx context.Context, action, outcome string) {
	meterOnce.Do(initMeter)
	if remediationCounter == nil {
		return
	}

	remediationCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("action", action),
		attribute.String("outcome", outcome),
	))
}

// RecordCycleHosts counts hosts sampled, excluded and alerting in one cycle.
func RecordCycleHosts(ctx context.Context, sampled, excluded, alerting int) {
	meterOnce.Do(initMeter)
	if cycleHostCounter == nil {
		return
	}

	for result, n := range map[string]int{"sampled": sampled, "excluded": excluded, "alerting": alerting} {
		if n == 0 {
			continue
		}

		cycleHostCounter.Add(ctx, int64(n), metric.WithAttributes(attribute.String("result", result)))
	}
}

func statusLabel(status int) string {
	if status == 0 {
		return "unreachable"
	}

	return strconv.Itoa(status)
}

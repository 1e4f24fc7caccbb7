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

package powermon

import (
	"time"

	"github.com/carverauto/bmcwatch/pkg/models"
)

// CycleReport is everything one polling cycle observed and did. Before and
// After are the snapshots the reporter diffs; After is empty when no action
// was executed.
type CycleReport struct {
	ID             string                     `json:"id"`
	StartedAt      time.Time                  `json:"started_at"`
	FinishedAt     time.Time                  `json:"finished_at"`
	ThresholdWatts float64                    `json:"threshold_watts"`
	Before         []models.PowerSample       `json:"before"`
	After          []models.PowerSample       `json:"after,omitempty"`
	Excluded       []string                   `json:"excluded,omitempty"`
	Alerts         []models.Alert             `json:"alerts,omitempty"`
	Actions        []models.RemediationAction `json:"actions,omitempty"`
}

// ReportHandler consumes finished cycle reports.
type ReportHandler func(report *CycleReport)

// Ineffective returns the actions that executed but did not change the host.
func (r *CycleReport) Ineffective() []models.RemediationAction {
	return r.withOutcome(models.RemediationIneffective)
}

// Failed returns the actions that could not be executed.
func (r *CycleReport) Failed() []models.RemediationAction {
	return r.withOutcome(models.RemediationExecutionFailed)
}

func (r *CycleReport) withOutcome(outcome models.RemediationOutcome) []models.RemediationAction {
	var out []models.RemediationAction

	for _, a := range r.Actions {
		if a.Outcome == outcome {
			out = append(out, a)
		}
	}

	return out
}

// Thresholds returns the samples at or above threshold, in input order.
func Thresholds(samples []models.PowerSample, threshold float64) []models.PowerSample {
	var marked []models.PowerSample

	for _, s := range samples {
		if s.Exceeds(threshold) {
			marked = append(marked, s)
		}
	}

	return marked
}

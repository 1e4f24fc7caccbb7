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

package models

import (
	"fmt"
	"time"
)

// PowerState is the Redfish ComputerSystem.PowerState value.
type PowerState string

const (
	PowerStateOn          PowerState = "On"
	PowerStateOff         PowerState = "Off"
	PowerStatePoweringOn  PowerState = "PoweringOn"
	PowerStatePoweringOff PowerState = "PoweringOff"
	PowerStatePaused      PowerState = "Paused"
	PowerStateUnknown     PowerState = ""
)

// Label renders the state the way operators read it, e.g. "Power Off".
func (s PowerState) Label() string {
	switch s {
	case PowerStateOn:
		return "Power On"
	case PowerStateOff:
		return "Power Off"
	case PowerStatePoweringOn:
		return "Powering On"
	case PowerStatePoweringOff:
		return "Powering Off"
	case PowerStatePaused:
		return "Paused"
	case PowerStateUnknown:
		return "Unknown"
	default:
		return string(s)
	}
}

// PowerSample is one host's power telemetry for a single poll cycle.
type PowerSample struct {
	Host         string     `json:"host"`
	Model        string     `json:"model,omitempty"`
	CurrentWatts float64    `json:"current_watts"`
	AverageWatts float64    `json:"average_watts"`
	MaxWatts     float64    `json:"max_watts"`
	MinWatts     float64    `json:"min_watts"`
	PowerState   PowerState `json:"power_state"`
	SampledAt    time.Time  `json:"sampled_at"`
}

// Exceeds reports whether the sample violates threshold. A sample exactly at
// the threshold is a violation.
func (s PowerSample) Exceeds(threshold float64) bool {
	return s.CurrentWatts >= threshold
}

// RemediationKind is the closed set of corrective actions.
type RemediationKind string

const (
	RemediationForceOff         RemediationKind = "ForceOff"
	RemediationGracefulShutdown RemediationKind = "GracefulShutdown"
	RemediationPowerCap         RemediationKind = "PowerCap"
)

// Valid reports whether k names a supported action.
func (k RemediationKind) Valid() bool {
	switch k {
	case RemediationForceOff, RemediationGracefulShutdown, RemediationPowerCap:
		return true
	default:
		return false
	}
}

// ResetType returns the ComputerSystem.Reset value for power-off actions.
func (k RemediationKind) ResetType() (string, bool) {
	switch k {
	case RemediationForceOff:
		return "ForceOff", true
	case RemediationGracefulShutdown:
		return "GracefulShutdown", true
	case RemediationPowerCap:
		return "", false
	default:
		return "", false
	}
}

// RemediationOutcome tracks an action from execution through reconciliation.
type RemediationOutcome string

const (
	RemediationExecuted        RemediationOutcome = "executed"
	RemediationExecutionFailed RemediationOutcome = "execution_failed"
	RemediationEffective       RemediationOutcome = "effective"
	RemediationIneffective     RemediationOutcome = "ineffective"
)

// RemediationAction records a corrective action taken for one host.
type RemediationAction struct {
	Host           string             `json:"host"`
	TriggerWatts   float64            `json:"trigger_watts"`
	ThresholdWatts float64            `json:"threshold_watts"`
	Action         RemediationKind    `json:"action"`
	Outcome        RemediationOutcome `json:"outcome"`
	Error          string             `json:"error,omitempty"`
	Summary        string             `json:"summary,omitempty"`
	ExecutedAt     time.Time          `json:"executed_at"`
}

// Annotate builds the summary attached after a successful reconciliation.
func (a RemediationAction) Annotate(state PowerState) string {
	return fmt.Sprintf("%s: power %.0fW exceeded threshold %.0fW, applied %s",
		state.Label(), a.TriggerWatts, a.ThresholdWatts, a.Action)
}

// Alert is emitted for every sample at or above the threshold.
type Alert struct {
	Host           string    `json:"host"`
	CurrentWatts   float64   `json:"current_watts"`
	ThresholdWatts float64   `json:"threshold_watts"`
	RaisedAt       time.Time `json:"raised_at"`
}

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

package actions

import (
	"context"
	"fmt"

	"github.com/carverauto/bmcwatch/pkg/compliance"
	"github.com/carverauto/bmcwatch/pkg/models"
)

// LimitException is the action a controller takes when the limit cannot be
// held.
type LimitException string

const (
	LimitNoAction     LimitException = "NoAction"
	LimitHardPowerOff LimitException = "HardPowerOff"
	LimitLogEventOnly LimitException = "LogEventOnly"
	LimitOem          LimitException = "Oem"
)

// Valid reports whether e is a defined LimitException.
func (e LimitException) Valid() bool {
	switch e {
	case LimitNoAction, LimitHardPowerOff, LimitLogEventOnly, LimitOem:
		return true
	default:
		return false
	}
}

// SetPowerLimit sets PowerControl[0].PowerLimit.LimitInWatts on the first
// chassis reporting power. A nil limit removes the cap.
func (a *Actions) SetPowerLimit(ctx context.Context, watts *float64) (string, error) {
	return a.patchPowerLimit(ctx, "SetPowerLimit", map[string]interface{}{"LimitInWatts": watts})
}

// SetPowerLimitCorrection sets the time allowed to bring consumption under
// the limit.
func (a *Actions) SetPowerLimitCorrection(ctx context.Context, ms int) (string, error) {
	return a.patchPowerLimit(ctx, "SetPowerLimitCorrection", map[string]interface{}{"CorrectionInMs": ms})
}

// SetPowerLimitException sets the action taken when the limit is exceeded.
func (a *Actions) SetPowerLimitException(ctx context.Context, exc LimitException) (string, error) {
	const name = "SetPowerLimitException"

	if !exc.Valid() {
		return "", a.fail(name, fmt.Errorf("%w: %q", ErrInvalidLimitException, exc))
	}

	return a.patchPowerLimit(ctx, name, map[string]interface{}{"LimitException": string(exc)})
}

func (a *Actions) patchPowerLimit(ctx context.Context, name string, limit map[string]interface{}) (string, error) {
	sink := a.section(name)

	power, err := a.powerResource(ctx, sink)
	if err != nil {
		return "", a.fail(name, err)
	}

	controls := power.Objects("PowerControl")
	if len(controls) == 0 {
		return "", a.fail(name, fmt.Errorf("%w: %s has no PowerControl", ErrPowerLimitNotFound, power.Path))
	}

	if _, ok := controls[0]["PowerLimit"]; !ok {
		return "", a.fail(name, fmt.Errorf("%w: %s", ErrPowerLimitNotFound, power.Path))
	}

	body := map[string]interface{}{
		"PowerControl": []interface{}{map[string]interface{}{"PowerLimit": limit}},
	}

	if _, err := a.client.PatchIfMatch(ctx, power.Path, body, sink); err != nil {
		return "", a.fail(name, err)
	}

	a.log.Info().Str("power", power.Path).Interface("limit", limit).Msg("Power limit updated")

	return power.Path, nil
}

func (a *Actions) powerResource(ctx context.Context, sink compliance.Sink) (*models.Resource, error) {
	chassis, err := a.collectionMembers(ctx, "Chassis", sink)
	if err != nil {
		return nil, err
	}

	for _, c := range chassis {
		if c.Has("Power") {
			return a.follow(ctx, c, sink, "Power")
		}
	}

	return nil, ErrPowerLimitNotFound
}

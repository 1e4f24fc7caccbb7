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

package inventory

import (
	"context"
	"fmt"

	"github.com/carverauto/bmcwatch/pkg/compliance"
	"github.com/carverauto/bmcwatch/pkg/models"
)

// Chassis returns every chassis with sub-resource links removed.
func (q *Queries) Chassis(ctx context.Context) ([]Record, error) {
	const name = "Chassis"

	chassis, err := q.collection(ctx, "Chassis", q.section(name))
	if err != nil {
		return nil, q.fail(name, err)
	}

	out := make([]Record, 0, len(chassis))
	for _, c := range chassis {
		out = append(out, Project(KindChassis, c.Body))
	}

	return out, nil
}

// Temperatures returns the temperature readings of system chassis.
func (q *Queries) Temperatures(ctx context.Context) ([]Record, error) {
	return q.thermal(ctx, "Temperatures")
}

// Fans returns the fan readings of system chassis.
func (q *Queries) Fans(ctx context.Context) ([]Record, error) {
	return q.thermal(ctx, "Fans")
}

func (q *Queries) thermal(ctx context.Context, array string) ([]Record, error) {
	sink := q.section(array)

	chassis, err := q.collection(ctx, "Chassis", sink)
	if err != nil {
		return nil, q.fail(array, err)
	}

	var out []Record

	for _, c := range chassis {
		if !c.Has("Thermal") {
			continue
		}

		// enclosures and backplanes report no systems and are skipped when
		// the controller exposes more than one chassis
		if len(chassis) > 1 {
			if v, _ := c.Lookup("Links", "ComputerSystems"); len(models.LinksOf(v)) == 0 {
				continue
			}
		}

		thermal, err := q.follow(ctx, c, sink, "Thermal")
		if err != nil {
			return nil, q.fail(array, err)
		}

		for _, reading := range thermal.Objects(array) {
			out = append(out, Project(KindThermalReading, reading))
		}
	}

	return out, nil
}

// PowerSupplies returns every power supply of every chassis that reports
// power.
func (q *Queries) PowerSupplies(ctx context.Context) ([]Record, error) {
	const name = "PowerSupplies"

	sink := q.section(name)

	chassis, err := q.collection(ctx, "Chassis", sink)
	if err != nil {
		return nil, q.fail(name, err)
	}

	var out []Record

	for _, c := range chassis {
		if !c.Has("Power") {
			continue
		}

		power, err := q.follow(ctx, c, sink, "Power")
		if err != nil {
			return nil, q.fail(name, err)
		}

		out = append(out, projectAll(KindPowerSupply, power.Objects("PowerSupplies"))...)
	}

	return out, nil
}

// PowerUsage samples PowerControl[0] of the first chassis that reports
// power, together with the first system's power state.
func (q *Queries) PowerUsage(ctx context.Context) (models.PowerSample, error) {
	const name = "PowerUsage"

	sink := q.section(name)

	power, model, err := q.firstPower(ctx, sink)
	if err != nil {
		return models.PowerSample{}, q.fail(name, err)
	}

	systems, err := q.systems(ctx, FirstSystem, sink)
	if err != nil {
		return models.PowerSample{}, q.fail(name, err)
	}

	controls := power.Objects("PowerControl")
	if len(controls) == 0 {
		return models.PowerSample{}, q.fail(name, fmt.Errorf("%w: %s has no PowerControl", ErrNoPowerReading, power.Path))
	}

	pc := models.Resource{Body: controls[0]}

	watts, ok := pc.Float("PowerConsumedWatts")
	if !ok {
		return models.PowerSample{}, q.fail(name, fmt.Errorf("%w: %s", ErrNoPowerReading, power.Path))
	}

	sample := models.PowerSample{
		Host:         q.client.Host(),
		Model:        model,
		PowerState:   models.PowerState(systems[0].String("PowerState")),
		CurrentWatts: watts,
		SampledAt:    q.clock.Now(),
	}

	sample.AverageWatts, _ = pc.Float("PowerMetrics", "AverageConsumedWatts")
	sample.MaxWatts, _ = pc.Float("PowerMetrics", "MaxConsumedWatts")
	sample.MinWatts, _ = pc.Float("PowerMetrics", "MinConsumedWatts")

	return sample, nil
}

// PowerPath returns the Power resource of the first chassis that has one.
func (q *Queries) PowerPath(ctx context.Context, sink compliance.Sink) (string, error) {
	power, _, err := q.firstPower(ctx, sink)
	if err != nil {
		return "", err
	}

	return power.Path, nil
}

func (q *Queries) firstPower(ctx context.Context, sink compliance.Sink) (*models.Resource, string, error) {
	chassis, err := q.collection(ctx, "Chassis", sink)
	if err != nil {
		return nil, "", err
	}

	for _, c := range chassis {
		if !c.Has("Power") {
			continue
		}

		power, err := q.follow(ctx, c, sink, "Power")
		if err != nil {
			return nil, "", err
		}

		return power, c.String("Model"), nil
	}

	return nil, "", ErrNoPowerTelemetry
}

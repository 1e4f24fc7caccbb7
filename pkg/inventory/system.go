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
	"reflect"

	"github.com/carverauto/bmcwatch/pkg/models"
)

// SystemPower is one system's power state.
type SystemPower struct {
	SystemURL  string            `json:"system_url"`
	PowerState models.PowerState `json:"power_state"`
}

// BIOSMode selects the current settings or the pending diff.
type BIOSMode string

const (
	BIOSCurrent BIOSMode = "current"
	BIOSPending BIOSMode = "pending"
)

// SystemAttributes holds BIOS attributes for one system.
type SystemAttributes struct {
	SystemURL  string                 `json:"system_url"`
	Attributes map[string]interface{} `json:"attributes"`
}

// PowerState reports PowerState for every selected system.
func (q *Queries) PowerState(ctx context.Context, sel SystemSelector) ([]SystemPower, error) {
	const name = "PowerState"

	systems, err := q.systems(ctx, sel, q.section(name))
	if err != nil {
		return nil, q.fail(name, err)
	}

	out := make([]SystemPower, 0, len(systems))
	for _, sys := range systems {
		out = append(out, SystemPower{
			SystemURL:  sys.Path,
			PowerState: models.PowerState(sys.String("PowerState")),
		})
	}

	return out, nil
}

// BIOSAttributes returns the current attributes of every selected system,
// or in pending mode only the attributes whose pending value differs.
func (q *Queries) BIOSAttributes(ctx context.Context, sel SystemSelector, mode BIOSMode) ([]SystemAttributes, error) {
	const name = "BIOSAttributes"

	if mode == "" {
		mode = BIOSCurrent
	}

	if mode != BIOSCurrent && mode != BIOSPending {
		return nil, q.fail(name, fmt.Errorf("%w: %q", ErrInvalidBIOSMode, mode))
	}

	sink := q.section(name)

	systems, err := q.systems(ctx, sel, sink)
	if err != nil {
		return nil, q.fail(name, err)
	}

	out := make([]SystemAttributes, 0, len(systems))

	for _, sys := range systems {
		bios, err := q.follow(ctx, sys, sink, "Bios")
		if err != nil {
			return nil, q.fail(name, err)
		}

		current := attributes(bios)

		if mode == BIOSPending {
			pending, err := q.follow(ctx, bios, sink, "@Redfish.Settings", "SettingsObject")
			if err != nil {
				return nil, q.fail(name, err)
			}

			current = pendingDiff(current, attributes(pending))
		}

		out = append(out, SystemAttributes{SystemURL: sys.Path, Attributes: current})
	}

	return out, nil
}

// BIOSAttribute returns one named attribute for every selected system.
func (q *Queries) BIOSAttribute(ctx context.Context, sel SystemSelector, attr string) ([]SystemAttributes, error) {
	const name = "BIOSAttribute"

	sink := q.section(name)

	systems, err := q.systems(ctx, sel, sink)
	if err != nil {
		return nil, q.fail(name, err)
	}

	out := make([]SystemAttributes, 0, len(systems))

	for _, sys := range systems {
		bios, err := q.follow(ctx, sys, sink, "Bios")
		if err != nil {
			return nil, q.fail(name, err)
		}

		v, ok := attributes(bios)[attr]
		if !ok {
			return nil, q.fail(name, fmt.Errorf("%w: %q on %s", ErrUnknownAttribute, attr, sys.Path))
		}

		out = append(out, SystemAttributes{SystemURL: sys.Path, Attributes: map[string]interface{}{attr: v}})
	}

	return out, nil
}

func attributes(res *models.Resource) map[string]interface{} {
	attrs, _ := res.Body["Attributes"].(map[string]interface{})
	if attrs == nil {
		return map[string]interface{}{}
	}

	return attrs
}

// pendingDiff returns the pending entries whose value differs from current.
func pendingDiff(current, pending map[string]interface{}) map[string]interface{} {
	diff := make(map[string]interface{})

	for k, v := range pending {
		if cur, ok := current[k]; !ok || !reflect.DeepEqual(cur, v) {
			diff[k] = v
		}
	}

	return diff
}

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

import "strings"

// Record is one projected resource or sub-object.
type Record map[string]interface{}

// Kind names a projected resource type.
type Kind int

const (
	KindServiceRoot Kind = iota
	KindChassis
	KindThermalReading
	KindDrive
	KindVolume
	KindStorageController
	KindPowerSupply
	KindLogEntry
)

// projection either keeps only the listed keys or drops the listed keys.
// Dropping always removes @odata annotations, Links and Actions as well.
type projection struct {
	keep []string
	drop []string
}

var internalKeys = []string{"RelatedItem", "Description"}

// isMetadata reports whether key carries protocol metadata rather than
// inventory data.
func isMetadata(key string) bool {
	return key == "Links" || key == "Actions" || strings.HasPrefix(key, "@odata.")
}

//nolint:gochecknoglobals // read-only table
var projections = map[Kind]projection{
	KindServiceRoot: {},
	KindChassis: {drop: []string{
		"ThermalSubsystem", "PowerSubsystem", "EnvironmentMetrics", "Sensors", "Controls",
		"Thermal", "Thermal@Redfish.Deprecated", "Power", "Power@Redfish.Deprecated",
	}},
	KindThermalReading:    {drop: []string{"RelatedItem"}},
	KindDrive:             {drop: internalKeys},
	KindVolume:            {drop: internalKeys},
	KindStorageController: {drop: internalKeys},
	KindPowerSupply: {keep: []string{
		"Name", "SerialNumber", "PowerOutputWatts", "EfficiencyPercent", "LineInputVoltage",
		"PartNumber", "FirmwareVersion", "PowerCapacityWatts", "PowerInputWatts", "Model",
		"PowerSupplyType", "Status", "Manufacturer", "HotPluggable", "LastPowerOutputWatts",
		"InputRanges", "LineInputVoltageType", "Location", "SparePartNumber",
	}},
	KindLogEntry: {keep: []string{
		"Id", "Name", "Created", "Message", "MessageId", "Severity", "EntryCode",
		"EntryType", "EventId", "SensorNumber", "SensorType",
	}},
}

// Project reduces body to the fields the inventory reports for kind. The
// input is not modified.
func Project(kind Kind, body map[string]interface{}) Record {
	p := projections[kind]
	out := make(Record, len(body))

	if len(p.keep) > 0 {
		for _, k := range p.keep {
			if v, ok := body[k]; ok {
				out[k] = v
			}
		}

		return out
	}

	dropped := make(map[string]bool, len(p.drop))
	for _, k := range p.drop {
		dropped[k] = true
	}

	for k, v := range body {
		if dropped[k] || isMetadata(k) {
			continue
		}

		out[k] = v
	}

	return out
}

func projectAll(kind Kind, bodies []map[string]interface{}) []Record {
	out := make([]Record, 0, len(bodies))
	for _, b := range bodies {
		out = append(out, Project(kind, b))
	}

	return out
}

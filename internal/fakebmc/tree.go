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

package fakebmc

import "fmt"

// Tree describes the controller seeded by Seed.
type Tree struct {
	Manufacturer string
	Model        string
	PowerState   string
	Systems      int
	Watts        float64
	AvgWatts     float64
	MaxWatts     float64
	MinWatts     float64
	// EventServiceType is the @odata.type of the EventService.
	EventServiceType string
}

func (t Tree) withDefaults() Tree {
	if t.Manufacturer == "" {
		t.Manufacturer = "Contoso"
	}

	if t.Model == "" {
		t.Model = "R740"
	}

	if t.PowerState == "" {
		t.PowerState = "On"
	}

	if t.Systems <= 0 {
		t.Systems = 1
	}

	if t.EventServiceType == "" {
		t.EventServiceType = "#EventService.v1_7_0.EventService"
	}

	return t
}

func link(path string) map[string]interface{} {
	return map[string]interface{}{"@odata.id": path}
}

func links(paths ...string) []interface{} {
	out := make([]interface{}, len(paths))
	for i, p := range paths {
		out[i] = link(p)
	}

	return out
}

// SystemPath returns the path of the n-th seeded system, starting at 1.
func SystemPath(n int) string {
	return fmt.Sprintf("/redfish/v1/Systems/%d", n)
}

// Seed populates a complete single-chassis controller.
func (s *Server) Seed(t Tree) {
	t = t.withDefaults()

	s.Set("/redfish/v1", map[string]interface{}{
		"@odata.type":    "#ServiceRoot.v1_11_0.ServiceRoot",
		"Id":             "RootService",
		"Name":           "Root Service",
		"RedfishVersion": "1.11.0",
		"Systems":        link("/redfish/v1/Systems"),
		"Chassis":        link("/redfish/v1/Chassis"),
		"Managers":       link("/redfish/v1/Managers"),
		"EventService":   link("/redfish/v1/EventService"),
	})

	systems := make([]string, 0, t.Systems)

	for i := 1; i <= t.Systems; i++ {
		p := SystemPath(i)
		systems = append(systems, p)
		s.seedSystem(p, t)
	}

	s.Set("/redfish/v1/Systems", map[string]interface{}{
		"@odata.type":         "#ComputerSystemCollection.ComputerSystemCollection",
		"Name":                "Computer System Collection",
		"Members":             links(systems...),
		"Members@odata.count": len(systems),
	})

	s.seedChassis(t, systems)
	s.seedManager()
	s.seedEventService(t)
}

func (s *Server) seedSystem(p string, t Tree) {
	s.Set(p, map[string]interface{}{
		"@odata.type":  "#ComputerSystem.v1_5_0.ComputerSystem",
		"Id":           p[len("/redfish/v1/Systems/"):],
		"Name":         "System",
		"Manufacturer": t.Manufacturer,
		"Model":        t.Model,
		"PowerState":   t.PowerState,
		"Bios":         link(p + "/Bios"),
		"Storage":      link(p + "/Storage"),
		"Actions": map[string]interface{}{
			"#ComputerSystem.Reset": map[string]interface{}{
				"target":                            p + "/Actions/ComputerSystem.Reset",
				"ResetType@Redfish.AllowableValues": []interface{}{"On", "ForceOff", "GracefulShutdown", "ForceRestart"},
			},
		},
	})

	s.Set(p+"/Bios", map[string]interface{}{
		"@odata.type": "#Bios.v1_1_0.Bios",
		"Id":          "Bios",
		"Attributes": map[string]interface{}{
			"BootMode":          "Uefi",
			"ProcTurboMode":     "Enabled",
			"SriovGlobalEnable": "Disabled",
		},
		"@Redfish.Settings": map[string]interface{}{
			"SettingsObject": link(p + "/Bios/Settings"),
		},
	})

	s.Set(p+"/Bios/Settings", map[string]interface{}{
		"@odata.type": "#Bios.v1_1_0.Bios",
		"Id":          "Settings",
		"Attributes": map[string]interface{}{
			"BootMode":      "Uefi",
			"ProcTurboMode": "Disabled",
		},
	})

	storage := p + "/Storage/RAID.1"
	s.Set(p+"/Storage", map[string]interface{}{
		"@odata.type":         "#StorageCollection.StorageCollection",
		"Members":             links(storage),
		"Members@odata.count": 1,
	})
	s.Set(storage, map[string]interface{}{
		"@odata.type": "#Storage.v1_8_0.Storage",
		"Id":          "RAID.1",
		"Name":        "PERC H740P",
		"Description": "RAID controller",
		"StorageControllers": []interface{}{
			map[string]interface{}{
				"@odata.id":       storage + "#/StorageControllers/0",
				"MemberId":        "0",
				"Model":           "PERC H740P Mini",
				"FirmwareVersion": "51.13.0",
				"Links":           map[string]interface{}{},
			},
		},
		"StorageControllers@odata.count": 1,
		"Drives":                         links(storage + "/Drives/Disk.0"),
		"Volumes":                        link(storage + "/Volumes"),
	})
	s.Set(storage+"/Drives/Disk.0", map[string]interface{}{
		"@odata.type":   "#Drive.v1_9_0.Drive",
		"Id":            "Disk.0",
		"Name":          "Disk 0",
		"CapacityBytes": 479559942144.0,
		"MediaType":     "SSD",
		"Links":         map[string]interface{}{"Volumes": links(storage + "/Volumes/1")},
		"Actions":       map[string]interface{}{},
	})
	s.Set(storage+"/Volumes", map[string]interface{}{
		"@odata.type": "#VolumeCollection.VolumeCollection",
		"Members":     links(storage + "/Volumes/1"),
	})
	s.Set(storage+"/Volumes/1", map[string]interface{}{
		"@odata.type":   "#Volume.v1_4_0.Volume",
		"Id":            "1",
		"Name":          "Virtual Disk 0",
		"RAIDType":      "RAID1",
		"CapacityBytes": 479559942144.0,
		"Description":   "volume",
	})
}

func (s *Server) seedChassis(t Tree, systems []string) {
	const c = "/redfish/v1/Chassis/1"

	s.Set("/redfish/v1/Chassis", map[string]interface{}{
		"@odata.type":         "#ChassisCollection.ChassisCollection",
		"Members":             links(c),
		"Members@odata.count": 1,
	})
	s.Set(c, map[string]interface{}{
		"@odata.type":  "#Chassis.v1_10_0.Chassis",
		"Id":           "1",
		"Name":         "Main Chassis",
		"ChassisType":  "RackMount",
		"Manufacturer": t.Manufacturer,
		"Model":        t.Model,
		"Power":        link(c + "/Power"),
		"Thermal":      link(c + "/Thermal"),
		"Links":        map[string]interface{}{"ComputerSystems": links(systems...)},
	})
	s.Set(c+"/Power", map[string]interface{}{
		"@odata.type": "#Power.v1_5_0.Power",
		"@odata.etag": `W/"1"`,
		"Id":          "Power",
		"PowerControl": []interface{}{
			map[string]interface{}{
				"@odata.id":          c + "/Power#/PowerControl/0",
				"MemberId":           "0",
				"PowerConsumedWatts": t.Watts,
				"PowerMetrics": map[string]interface{}{
					"AverageConsumedWatts": t.AvgWatts,
					"MaxConsumedWatts":     t.MaxWatts,
					"MinConsumedWatts":     t.MinWatts,
					"IntervalInMin":        1.0,
				},
				"PowerLimit": map[string]interface{}{
					"LimitInWatts":   nil,
					"LimitException": "NoAction",
					"CorrectionInMs": 1000.0,
				},
			},
		},
		"PowerSupplies": []interface{}{
			map[string]interface{}{
				"@odata.id":          c + "/Power#/PowerSupplies/0",
				"MemberId":           "0",
				"Name":               "PS1",
				"Model":              "PWR SPLY,750W",
				"SerialNumber":       "CN1797",
				"PowerCapacityWatts": 750.0,
				"Status":             map[string]interface{}{"State": "Enabled", "Health": "OK"},
				"Oem":                map[string]interface{}{"Vendor": map[string]interface{}{}},
			},
		},
	})
	s.Set(c+"/Thermal", map[string]interface{}{
		"@odata.type": "#Thermal.v1_4_0.Thermal",
		"Id":          "Thermal",
		"Temperatures": []interface{}{
			map[string]interface{}{
				"@odata.id":      c + "/Thermal#/Temperatures/0",
				"MemberId":       "0",
				"Name":           "CPU1 Temp",
				"ReadingCelsius": 47.0,
				"RelatedItem":    links(systems[0]),
			},
		},
		"Fans": []interface{}{
			map[string]interface{}{
				"@odata.id":    c + "/Thermal#/Fans/0",
				"MemberId":     "0",
				"Name":         "Fan1A",
				"Reading":      5880.0,
				"ReadingUnits": "RPM",
				"RelatedItem":  links(c),
			},
		},
	})
}

func (s *Server) seedManager() {
	const m = "/redfish/v1/Managers/1"

	s.Set("/redfish/v1/Managers", map[string]interface{}{
		"@odata.type": "#ManagerCollection.ManagerCollection",
		"Members":     links(m),
	})
	s.Set(m, map[string]interface{}{
		"@odata.type":     "#Manager.v1_5_0.Manager",
		"Id":              "1",
		"Name":            "Manager",
		"LogServices":     link(m + "/LogServices"),
		"NetworkProtocol": link(m + "/NetworkProtocol"),
		"Actions": map[string]interface{}{
			"#Manager.Reset": map[string]interface{}{"target": m + "/Actions/Manager.Reset"},
		},
	})
	s.Set(m+"/NetworkProtocol", map[string]interface{}{
		"@odata.type": "#ManagerNetworkProtocol.v1_4_0.ManagerNetworkProtocol",
		"@odata.etag": `W/"np1"`,
		"HTTPS":       map[string]interface{}{"ProtocolEnabled": true, "Port": 443.0},
		"SSH":         map[string]interface{}{"ProtocolEnabled": false, "Port": 22.0},
		"IPMI":        map[string]interface{}{"ProtocolEnabled": false, "Port": 623.0},
	})
	s.Set(m+"/LogServices", map[string]interface{}{
		"@odata.type": "#LogServiceCollection.LogServiceCollection",
		"Members":     links(m+"/LogServices/Sel", m+"/LogServices/Journal"),
	})
	s.Set(m+"/LogServices/Sel", map[string]interface{}{
		"@odata.type": "#LogService.v1_1_0.LogService",
		"Id":          "Sel",
		"Entries":     link(m + "/LogServices/Sel/Entries"),
	})
	s.Set(m+"/LogServices/Journal", map[string]interface{}{
		"@odata.type": "#LogService.v1_1_0.LogService",
		"Id":          "Journal",
	})
	s.Set(m+"/LogServices/Sel/Entries", map[string]interface{}{
		"@odata.type": "#LogEntryCollection.LogEntryCollection",
		"Members": []interface{}{
			map[string]interface{}{
				"@odata.id": m + "/LogServices/Sel/Entries/1",
				"Id":        "1",
				"Name":      "Log Entry 1",
				"Created":   "2024-05-01T10:00:00Z",
				"Message":   "The system board fan speed is low.",
				"MessageId": "FAN0001",
				"Severity":  "Warning",
				"EntryType": "SEL",
				"Links":     map[string]interface{}{},
			},
		},
	})
}

func (s *Server) seedEventService(t Tree) {
	const e = "/redfish/v1/EventService"

	s.Set(e, map[string]interface{}{
		"@odata.type":   t.EventServiceType,
		"Id":            "EventService",
		"Subscriptions": link(e + "/Subscriptions"),
		"Actions": map[string]interface{}{
			"#EventService.SubmitTestEvent": map[string]interface{}{
				"target": e + "/Actions/EventService.SubmitTestEvent",
			},
		},
	})
	s.Set(e+"/Subscriptions", map[string]interface{}{
		"@odata.type":         "#EventDestinationCollection.EventDestinationCollection",
		"Members":             []interface{}{},
		"Members@odata.count": 0,
	})
}

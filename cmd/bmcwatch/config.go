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

package main

import (
	"errors"
	"fmt"

	"github.com/carverauto/bmcwatch/pkg/conformance"
	"github.com/carverauto/bmcwatch/pkg/inventory"
	"github.com/carverauto/bmcwatch/pkg/logger"
	"github.com/carverauto/bmcwatch/pkg/metrics"
	"github.com/carverauto/bmcwatch/pkg/models"
	"github.com/carverauto/bmcwatch/pkg/powermon"
	"github.com/carverauto/bmcwatch/pkg/redfish"
)

var (
	errEndpointRequired = errors.New("endpoint.base_url is required for this command")
	errMonitorRequired  = errors.New("monitor section is required for this command")
)

// InventoryConfig holds defaults for the inventory and action commands.
type InventoryConfig struct {
	System    inventory.SystemSelector `json:"system"`
	BIOSMode  inventory.BIOSMode       `json:"bios_mode"`
	Attribute string                   `json:"attribute,omitempty"`
}

// Config is the bmcwatch configuration file.
type Config struct {
	Endpoint  redfish.Config         `json:"endpoint"`
	Spec      conformance.Config     `json:"spec"`
	Inventory InventoryConfig        `json:"inventory"`
	Monitor   *powermon.Config       `json:"monitor,omitempty"`
	Events    models.EventsConfig    `json:"events"`
	Metrics   metrics.ExporterConfig `json:"metrics"`
	Logging   *logger.Config         `json:"logging,omitempty"`
}

// Validate implements config.Validator. Sections that a command does not
// use may be left empty; commands check for what they need.
func (c *Config) Validate() error {
	if c.Endpoint.BaseURL != "" {
		if err := c.Endpoint.Validate(); err != nil {
			return fmt.Errorf("endpoint: %w", err)
		}
	}

	if c.Inventory.BIOSMode == "" {
		c.Inventory.BIOSMode = inventory.BIOSCurrent
	}

	if c.Monitor != nil {
		if err := c.Monitor.Validate(); err != nil {
			return fmt.Errorf("monitor: %w", err)
		}
	}

	if err := c.Events.Validate(); err != nil {
		return fmt.Errorf("events: %w", err)
	}

	if c.Logging == nil {
		c.Logging = logger.DefaultConfig()
	}

	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging: %w", err)
	}

	return nil
}

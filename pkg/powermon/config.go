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
	"fmt"
	"time"

	"github.com/carverauto/bmcwatch/pkg/models"
	"github.com/carverauto/bmcwatch/pkg/redfish"
)

const (
	defaultInterval     = 5 * time.Minute
	defaultSettleDelay  = 30 * time.Second
	defaultCycleTimeout = 2 * time.Minute
	defaultConcurrency  = 8
)

// HostConfig names one monitored controller.
type HostConfig struct {
	ID       string         `json:"id"`
	Endpoint redfish.Config `json:"endpoint"`
}

// Config drives the fleet power monitor. Interval may alternatively be given
// as TimeInterval in units of TimeType.
type Config struct {
	Hosts           []HostConfig           `json:"hosts"`
	ThresholdWatts  float64                `json:"threshold_watts"`
	Interval        models.Duration        `json:"interval"`
	TimeInterval    int                    `json:"time_interval,omitempty"`
	TimeType        string                 `json:"time_type,omitempty"`
	Action          models.RemediationKind `json:"action"`
	PowerLimitWatts float64                `json:"power_limit_watts,omitempty"`
	SettleDelay     models.Duration        `json:"settle_delay"`
	CycleTimeout    models.Duration        `json:"cycle_timeout"`
	Concurrency     int                    `json:"concurrency"`
}

// Validate implements config.Validator. It fills defaults and folds
// time_interval/time_type into Interval.
func (c *Config) Validate() error {
	if err := c.validatePolicy(); err != nil {
		return err
	}

	if len(c.Hosts) == 0 {
		return ErrNoHosts
	}

	seen := make(map[string]bool, len(c.Hosts))

	for i := range c.Hosts {
		h := &c.Hosts[i]

		if h.ID == "" {
			return fmt.Errorf("%w: hosts[%d]", ErrHostIDRequired, i)
		}

		if seen[h.ID] {
			return fmt.Errorf("%w: %s", ErrDuplicateHost, h.ID)
		}

		seen[h.ID] = true

		if err := h.Endpoint.Validate(); err != nil {
			return fmt.Errorf("host %s: %w", h.ID, err)
		}
	}

	return nil
}

// validatePolicy checks everything except the host list.
func (c *Config) validatePolicy() error {
	if c.ThresholdWatts <= 0 {
		return ErrInvalidThreshold
	}

	if c.Action == "" {
		c.Action = models.RemediationGracefulShutdown
	}

	if !c.Action.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidAction, c.Action)
	}

	if c.Action == models.RemediationPowerCap && c.PowerLimitWatts == 0 {
		c.PowerLimitWatts = c.ThresholdWatts
	}

	if c.PowerLimitWatts < 0 {
		return ErrInvalidPowerLimit
	}

	if c.TimeInterval != 0 || c.TimeType != "" {
		unit, err := timeUnit(c.TimeType)
		if err != nil {
			return err
		}

		if c.TimeInterval <= 0 {
			return ErrInvalidInterval
		}

		c.Interval = models.Duration(time.Duration(c.TimeInterval) * unit)
	}

	if c.Interval < 0 {
		return ErrInvalidInterval
	}

	c.Interval = models.Duration(c.Interval.OrDefault(defaultInterval))
	c.SettleDelay = models.Duration(c.SettleDelay.OrDefault(defaultSettleDelay))
	c.CycleTimeout = models.Duration(c.CycleTimeout.OrDefault(defaultCycleTimeout))

	if c.Concurrency <= 0 {
		c.Concurrency = defaultConcurrency
	}

	return nil
}

func timeUnit(name string) (time.Duration, error) {
	switch name {
	case "seconds":
		return time.Second, nil
	case "minutes":
		return time.Minute, nil
	case "hours":
		return time.Hour, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidTimeType, name)
	}
}

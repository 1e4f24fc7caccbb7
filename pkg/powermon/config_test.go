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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carverauto/bmcwatch/pkg/models"
	"github.com/carverauto/bmcwatch/pkg/redfish"
)

func validConfig() Config {
	return Config{
		Hosts: []HostConfig{
			{ID: "rack1-u4", Endpoint: redfish.Config{BaseURL: "https://10.0.0.4"}},
			{ID: "rack1-u6", Endpoint: redfish.Config{BaseURL: "https://10.0.0.6"}},
		},
		ThresholdWatts: 540,
	}
}

func TestConfigDefaults(t *testing.T) {
	cfg := validConfig()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, models.RemediationGracefulShutdown, cfg.Action)
	assert.Equal(t, defaultInterval, time.Duration(cfg.Interval))
	assert.Equal(t, defaultSettleDelay, time.Duration(cfg.SettleDelay))
	assert.Equal(t, defaultCycleTimeout, time.Duration(cfg.CycleTimeout))
	assert.Equal(t, defaultConcurrency, cfg.Concurrency)
	assert.Zero(t, cfg.PowerLimitWatts)
}

func TestConfigTimeInterval(t *testing.T) {
	tests := []struct {
		name     string
		interval int
		unit     string
		want     time.Duration
		wantErr  error
	}{
		{"seconds", 45, "seconds", 45 * time.Second, nil},
		{"minutes", 2, "minutes", 2 * time.Minute, nil},
		{"hours", 1, "hours", time.Hour, nil},
		{"unknown unit", 5, "days", 0, ErrInvalidTimeType},
		{"missing unit", 5, "", 0, ErrInvalidTimeType},
		{"zero interval", 0, "minutes", 0, ErrInvalidInterval},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			cfg.TimeInterval = tt.interval
			cfg.TimeType = tt.unit

			err := cfg.Validate()
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, time.Duration(cfg.Interval))
		})
	}
}

func TestConfigPowerCapDefaultsLimit(t *testing.T) {
	cfg := validConfig()
	cfg.Action = models.RemediationPowerCap
	require.NoError(t, cfg.Validate())
	assert.InDelta(t, 540, cfg.PowerLimitWatts, 0)

	cfg = validConfig()
	cfg.Action = models.RemediationPowerCap
	cfg.PowerLimitWatts = 400
	require.NoError(t, cfg.Validate())
	assert.InDelta(t, 400, cfg.PowerLimitWatts, 0)
}

func TestConfigErrors(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
	}{
		{"no hosts", func(c *Config) { c.Hosts = nil }, ErrNoHosts},
		{"zero threshold", func(c *Config) { c.ThresholdWatts = 0 }, ErrInvalidThreshold},
		{"bad action", func(c *Config) { c.Action = "Reboot" }, ErrInvalidAction},
		{"negative limit", func(c *Config) { c.PowerLimitWatts = -1 }, ErrInvalidPowerLimit},
		{"negative interval", func(c *Config) { c.Interval = models.Duration(-time.Second) }, ErrInvalidInterval},
		{"missing id", func(c *Config) { c.Hosts[1].ID = "" }, ErrHostIDRequired},
		{"duplicate id", func(c *Config) { c.Hosts[1].ID = c.Hosts[0].ID }, ErrDuplicateHost},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			require.ErrorIs(t, cfg.Validate(), tt.wantErr)
		})
	}

	cfg := validConfig()
	cfg.Hosts[0].Endpoint.BaseURL = ""
	require.Error(t, cfg.Validate())
}

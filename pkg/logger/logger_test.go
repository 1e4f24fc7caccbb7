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

package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLevels(t *testing.T) {
	tests := []struct {
		name    string
		cfg     *Config
		wantErr bool
	}{
		{name: "debug flag wins", cfg: &Config{Level: "error", Debug: true}},
		{name: "explicit level", cfg: &Config{Level: "warn"}},
		{name: "empty level", cfg: &Config{}},
		{name: "stderr output", cfg: &Config{Output: "stderr"}},
		{name: "bad level", cfg: &Config{Level: "loud"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, err := New(tt.cfg)
			if tt.wantErr {
				require.Error(t, err)
				return
			}

			require.NoError(t, err)
			require.NotNil(t, l)
		})
	}
}

func TestComponentAndHostFields(t *testing.T) {
	var buf bytes.Buffer

	base := NewWithWriter(&buf, zerolog.InfoLevel)
	Host(Component(base, "powermon"), "bmc-01").Info().Msg("sampled")

	var line map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))

	assert.Equal(t, "powermon", line[FieldComponent])
	assert.Equal(t, "bmc-01", line[FieldHost])
	assert.Equal(t, "sampled", line["message"])
}

func TestSetDebug(t *testing.T) {
	var buf bytes.Buffer

	l := NewWithWriter(&buf, zerolog.InfoLevel)
	l.Debug().Msg("hidden")
	assert.Zero(t, buf.Len())

	l.SetDebug(true)
	l.Debug().Msg("visible")
	assert.Contains(t, buf.String(), "visible")
}

func TestTestLoggerDiscards(t *testing.T) {
	l := NewTestLogger()
	l.Error().Msg("nothing")
	assert.Equal(t, zerolog.Disabled, l.WithComponent("x").GetLevel())
}

func TestDefaultConfig(t *testing.T) {
	t.Setenv("BMCWATCH_LOG_LEVEL", "warn")
	t.Setenv("BMCWATCH_DEBUG", "true")

	cfg := DefaultConfig()
	assert.Equal(t, "warn", cfg.Level)
	assert.True(t, cfg.Debug)
	assert.Equal(t, "stderr", cfg.Output)
}

func TestConfigValidate(t *testing.T) {
	cfg := &Config{}
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "stderr", cfg.Output)

	require.ErrorIs(t, (&Config{Output: "syslog"}).Validate(), errUnknownOutput)
	require.Error(t, (&Config{Level: "loud"}).Validate())
	require.NoError(t, (&Config{Level: "debug", Output: "stdout"}).Validate())
}

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
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/rs/zerolog"
)

const envPrefix = "BMCWATCH_"

var errUnknownOutput = errors.New("log output must be stdout or stderr")

// Config controls log level, destination and timestamp format.
type Config struct {
	Level      string `json:"level" yaml:"level"`
	Debug      bool   `json:"debug" yaml:"debug"`
	Output     string `json:"output" yaml:"output"`
	TimeFormat string `json:"time_format" yaml:"time_format"`
}

// DefaultConfig reads BMCWATCH_LOG_LEVEL, BMCWATCH_DEBUG, BMCWATCH_LOG_OUTPUT
// and BMCWATCH_LOG_TIME_FORMAT. Logs default to stderr so command output on
// stdout stays machine readable.
func DefaultConfig() *Config {
	return &Config{
		Level:      envOr("LOG_LEVEL", "info"),
		Debug:      envBool("DEBUG"),
		Output:     envOr("LOG_OUTPUT", "stderr"),
		TimeFormat: envOr("LOG_TIME_FORMAT", ""),
	}
}

// Validate fills the output default and rejects unknown levels.
func (c *Config) Validate() error {
	switch c.Output {
	case "":
		c.Output = "stderr"
	case "stdout", "stderr":
	default:
		return fmt.Errorf("%w: %q", errUnknownOutput, c.Output)
	}

	if c.Level == "" {
		return nil
	}

	if _, err := zerolog.ParseLevel(c.Level); err != nil {
		return fmt.Errorf("log level: %w", err)
	}

	return nil
}

func envOr(key, def string) string {
	if v := os.Getenv(envPrefix + key); v != "" {
		return v
	}

	return def
}

func envBool(key string) bool {
	v, err := strconv.ParseBool(os.Getenv(envPrefix + key))

	return err == nil && v
}

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

package redfish

import (
	"fmt"
	"net/url"
	"time"

	"github.com/carverauto/bmcwatch/pkg/models"
)

const (
	defaultTimeout           = 30 * time.Second
	defaultRetryAfter        = 5 * time.Second
	defaultTaskMaxAttempts   = 120
	defaultTaskTimeout       = 10 * time.Minute
	defaultServiceRoot       = "/redfish/v1"
	defaultMaxResponseLength = 32 << 20
)

// TaskPolicy bounds the task monitor loop. Zero values use the defaults.
type TaskPolicy struct {
	MaxAttempts       int             `json:"max_attempts"`
	Timeout           models.Duration `json:"timeout"`
	DefaultRetryAfter models.Duration `json:"default_retry_after"`
}

func (p TaskPolicy) withDefaults() TaskPolicy {
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = defaultTaskMaxAttempts
	}

	p.Timeout = models.Duration(p.Timeout.OrDefault(defaultTaskTimeout))
	p.DefaultRetryAfter = models.Duration(p.DefaultRetryAfter.OrDefault(defaultRetryAfter))

	return p
}

// Config describes one controller endpoint and how to talk to it.
type Config struct {
	BaseURL            string           `json:"base_url"`
	Username           string           `json:"username,omitempty"`
	Password           string           `json:"password,omitempty"`
	InsecureSkipVerify bool             `json:"insecure_skip_verify"`
	Timeout            models.Duration  `json:"timeout"`
	SuccessCodes       map[string][]int `json:"success_codes,omitempty"`
	Task               TaskPolicy       `json:"task"`
	RequestsPerSecond  float64          `json:"requests_per_second"`
	Burst              int              `json:"burst"`
}

// Validate implements config.Validator.
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return errMissingBaseURL
	}

	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return fmt.Errorf("invalid base_url %q: %w", c.BaseURL, err)
	}

	if u.Host == "" {
		return fmt.Errorf("%w: %q has no host", errMissingBaseURL, c.BaseURL)
	}

	for name, codes := range c.SuccessCodes {
		if _, err := ParseMethod(name); err != nil {
			return err
		}

		for _, code := range codes {
			if code < 100 || code > 599 {
				return fmt.Errorf("%w: %d for %s", errBadSuccessCode, code, name)
			}
		}
	}

	return nil
}

// successSets resolves the per-method success codes, overriding defaults
// with anything configured.
func (c *Config) successSets() map[Method]map[int]bool {
	sets := make(map[Method]map[int]bool, len(Methods()))

	for _, m := range Methods() {
		codes := defaultSuccessCodes(m)

		for name, configured := range c.SuccessCodes {
			if parsed, err := ParseMethod(name); err == nil && parsed == m {
				codes = configured
			}
		}

		set := make(map[int]bool, len(codes))
		for _, code := range codes {
			set[code] = true
		}

		sets[m] = set
	}

	return sets
}

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
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/carverauto/bmcwatch/pkg/compliance"
	"github.com/carverauto/bmcwatch/pkg/models"
)

var errUnknownOutput = errors.New("unknown output format")

// result is what every one-shot command prints: the operation's data plus
// the conformance records collected while producing it.
type result struct {
	Endpoint   models.Endpoint    `json:"endpoint"`
	Result     interface{}        `json:"result,omitempty"`
	Compliance []models.Section   `json:"compliance"`
	Summary    compliance.Summary `json:"summary"`
}

func (a *app) write(w io.Writer, v interface{}) error {
	if a.output == outputYAML {
		// yaml.v3 ignores json tags; round-trip through JSON to keep one set of names.
		data, err := json.Marshal(v)
		if err != nil {
			return err
		}

		var generic interface{}
		if err := yaml.Unmarshal(data, &generic); err != nil {
			return err
		}

		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)

		if err := enc.Encode(generic); err != nil {
			return fmt.Errorf("failed to encode YAML: %w", err)
		}

		return enc.Close()
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	return enc.Encode(v)
}

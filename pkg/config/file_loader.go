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

package config

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// FileConfigLoader loads configuration from a local JSON or YAML file.
// The format is chosen by extension; anything other than .yaml/.yml is JSON.
type FileConfigLoader struct{}

// Load implements ConfigLoader by reading and unmarshaling the file.
func (*FileConfigLoader) Load(_ context.Context, path string, dst interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read file '%s': %w", path, err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		// yaml.v3 honours yaml tags only, so route through JSON to reuse the json tags.
		var generic interface{}
		if err = yaml.Unmarshal(data, &generic); err != nil {
			return fmt.Errorf("failed to unmarshal YAML from '%s': %w", path, err)
		}

		if data, err = json.Marshal(generic); err != nil {
			return fmt.Errorf("failed to convert YAML from '%s': %w", path, err)
		}
	}

	err = json.Unmarshal(data, dst)
	if err != nil {
		return fmt.Errorf("failed to unmarshal JSON from '%s': %w", path, err)
	}

	return nil
}

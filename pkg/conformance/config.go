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

package conformance

import (
	"time"

	"github.com/carverauto/bmcwatch/pkg/models"
)

const (
	// DefaultOpenAPIURL is the DMTF published interface definition.
	DefaultOpenAPIURL = "https://redfish.dmtf.org/schemas/v1/openapi.yaml"
	// DefaultSchemaURL is the DMTF JSON schema repository.
	DefaultSchemaURL = "https://redfish.dmtf.org/schemas/v1/"

	defaultFetchTimeout = 30 * time.Second
)

// Config locates the interface definition and the schema repository. Either
// location may be an http(s) URL or a local path.
type Config struct {
	OpenAPIURL   string          `json:"openapi_url"`
	SchemaURL    string          `json:"schema_url"`
	FetchTimeout models.Duration `json:"fetch_timeout"`
}

func (c Config) withDefaults() Config {
	if c.OpenAPIURL == "" {
		c.OpenAPIURL = DefaultOpenAPIURL
	}

	if c.SchemaURL == "" {
		c.SchemaURL = DefaultSchemaURL
	}

	if c.FetchTimeout <= 0 {
		c.FetchTimeout = models.Duration(defaultFetchTimeout)
	}

	return c
}

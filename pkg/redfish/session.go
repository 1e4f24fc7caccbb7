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
	"context"
	"fmt"

	"github.com/carverauto/bmcwatch/pkg/compliance"
	"github.com/carverauto/bmcwatch/pkg/models"
)

// ServiceRoot is the entry point of every Redfish service.
const ServiceRoot = defaultServiceRoot

// Connect resolves the service version and the first system's manufacturer
// and model. Failure wraps ErrSessionStart and is fatal for the session.
func (c *Client) Connect(ctx context.Context, sink compliance.Sink) (models.Endpoint, error) {
	root, err := c.Get(ctx, ServiceRoot, sink)
	if err != nil {
		return models.Endpoint{}, fmt.Errorf("%w: %w", ErrSessionStart, err)
	}

	ep := c.Endpoint()
	ep.RedfishVersion = root.String("RedfishVersion")

	if systems, ok := root.Link("Systems"); ok {
		system, err := c.firstMember(ctx, systems, sink)
		if err != nil {
			return models.Endpoint{}, fmt.Errorf("%w: %w", ErrSessionStart, err)
		}

		ep.Manufacturer = system.String("Manufacturer")
		ep.Model = system.String("Model")
	}

	c.mu.Lock()
	c.endpoint = ep
	c.mu.Unlock()

	c.log.Info().
		Str("host", c.Host()).
		Str("redfish_version", ep.RedfishVersion).
		Str("manufacturer", ep.Manufacturer).
		Str("model", ep.Model).
		Msg("Controller session established")

	return ep, nil
}

func (c *Client) firstMember(ctx context.Context, collection string, sink compliance.Sink) (*models.Resource, error) {
	coll, err := c.Get(ctx, collection, sink)
	if err != nil {
		return nil, err
	}

	members := coll.Members()
	if len(members) == 0 {
		return nil, fmt.Errorf("%w at %s", errNoSystems, collection)
	}

	return c.Get(ctx, members[0], sink)
}

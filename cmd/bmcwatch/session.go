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
	"context"
	"io"

	"github.com/carverauto/bmcwatch/pkg/actions"
	"github.com/carverauto/bmcwatch/pkg/compliance"
	"github.com/carverauto/bmcwatch/pkg/conformance"
	"github.com/carverauto/bmcwatch/pkg/inventory"
	"github.com/carverauto/bmcwatch/pkg/models"
	"github.com/carverauto/bmcwatch/pkg/redfish"
)

// session is one validated connection to the configured endpoint.
type session struct {
	endpoint models.Endpoint
	client   *redfish.Client
	catalog  *conformance.Catalog
	recorder *compliance.Recorder
	queries  *inventory.Queries
	actions  *actions.Actions
}

// openSession loads the interface definition and connects. Both failures are
// fatal for the command.
func (a *app) openSession(ctx context.Context) (*session, error) {
	if a.cfg.Endpoint.BaseURL == "" {
		return nil, errEndpointRequired
	}

	catalog, err := a.loadCatalog(ctx)
	if err != nil {
		return nil, err
	}

	rec := compliance.NewRecorder()

	client, err := redfish.NewClient(a.cfg.Endpoint, catalog, a.log, redfish.WithSink(rec))
	if err != nil {
		return nil, err
	}

	ep, err := client.Connect(ctx, rec.Section("Connect", client.Host()))
	if err != nil {
		return nil, err
	}

	a.log.Info().Str("redfish_version", ep.RedfishVersion).Str("manufacturer", ep.Manufacturer).
		Str("model", ep.Model).Msg("Session established")

	return &session{
		endpoint: ep,
		client:   client,
		catalog:  catalog,
		recorder: rec,
		queries:  inventory.New(client, rec, a.log),
		actions:  actions.New(client, rec, a.log),
	}, nil
}

func (a *app) loadCatalog(ctx context.Context) (*conformance.Catalog, error) {
	catalog := conformance.New(a.cfg.Spec, nil, a.log)
	if err := catalog.Load(ctx); err != nil {
		return nil, err
	}

	return catalog, nil
}

// finish prints v together with everything the session recorded.
func (a *app) finish(w io.Writer, s *session, v interface{}) error {
	return a.write(w, result{
		Endpoint:   s.endpoint,
		Result:     v,
		Compliance: s.recorder.Sections(),
		Summary:    s.recorder.Summary(),
	})
}

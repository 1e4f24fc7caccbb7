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

//go:generate mockgen -destination=mock_host.go -package=powermon github.com/carverauto/bmcwatch/pkg/powermon Host,Publisher

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/carverauto/bmcwatch/pkg/actions"
	"github.com/carverauto/bmcwatch/pkg/compliance"
	"github.com/carverauto/bmcwatch/pkg/inventory"
	"github.com/carverauto/bmcwatch/pkg/logger"
	"github.com/carverauto/bmcwatch/pkg/models"
	"github.com/carverauto/bmcwatch/pkg/redfish"
)

// Host is one monitored controller.
type Host interface {
	ID() string
	Sample(ctx context.Context) (models.PowerSample, error)
	Remediate(ctx context.Context, kind models.RemediationKind, limitWatts float64) error
}

// Publisher receives alerts and remediation outcomes as they happen.
type Publisher interface {
	PublishAlert(ctx context.Context, alert models.Alert) error
	PublishRemediation(ctx context.Context, action models.RemediationAction) error
}

// RedfishHost samples and remediates a controller through the protocol
// client. The session is established on first use and re-established after
// the controller becomes unreachable, so a host that is down for one cycle
// is retried on the next.
type RedfishHost struct {
	id       string
	client   *redfish.Client
	sections inventory.Sectioner
	queries  *inventory.Queries
	actions  *actions.Actions

	mu        sync.Mutex
	connected bool
}

var _ Host = (*RedfishHost)(nil)

// NewRedfishHost wraps a client whose session is already established.
func NewRedfishHost(id string, client *redfish.Client, sections inventory.Sectioner, log logger.Logger) *RedfishHost {
	return &RedfishHost{
		id:        id,
		client:    client,
		sections:  sections,
		queries:   inventory.New(client, sections, log),
		actions:   actions.New(client, sections, log),
		connected: true,
	}
}

// NewHost builds a client for cfg without contacting the controller. The
// session is established by the first Sample or Remediate.
func NewHost(cfg HostConfig, validator redfish.Validator, sections inventory.Sectioner,
	log logger.Logger) (*RedfishHost, error) {
	client, err := redfish.NewClient(cfg.Endpoint, validator, log)
	if err != nil {
		return nil, fmt.Errorf("host %s: %w", cfg.ID, err)
	}

	h := NewRedfishHost(cfg.ID, client, sections, log)
	h.connected = false

	return h, nil
}

// Dial builds a host for cfg and establishes the session immediately.
func Dial(ctx context.Context, cfg HostConfig, validator redfish.Validator, sections inventory.Sectioner,
	log logger.Logger) (*RedfishHost, error) {
	h, err := NewHost(cfg, validator, sections, log)
	if err != nil {
		return nil, err
	}

	if err := h.ensureSession(ctx); err != nil {
		return nil, err
	}

	return h, nil
}

func (h *RedfishHost) ensureSession(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.connected {
		return nil
	}

	sink := compliance.Discard
	if h.sections != nil {
		sink = h.sections.Section("Connect", h.client.Host())
	}

	if _, err := h.client.Connect(ctx, sink); err != nil {
		return fmt.Errorf("host %s: %w", h.id, err)
	}

	h.connected = true

	return nil
}

// release drops the session after a transport failure so the next call
// reconnects and re-resolves the endpoint.
func (h *RedfishHost) release(err error) {
	if !errors.Is(err, redfish.ErrUnreachable) {
		return
	}

	h.mu.Lock()
	h.connected = false
	h.mu.Unlock()
}

// ID returns the configured host identifier.
func (h *RedfishHost) ID() string { return h.id }

// Sample reads the current power usage and power state.
func (h *RedfishHost) Sample(ctx context.Context) (models.PowerSample, error) {
	if err := h.ensureSession(ctx); err != nil {
		return models.PowerSample{}, err
	}

	sample, err := h.queries.PowerUsage(ctx)
	if err != nil {
		h.release(err)

		return models.PowerSample{}, err
	}

	sample.Host = h.id

	return sample, nil
}

// Remediate applies kind to the host's first system, or sets the chassis
// power limit for PowerCap.
func (h *RedfishHost) Remediate(ctx context.Context, kind models.RemediationKind, limitWatts float64) error {
	if err := h.ensureSession(ctx); err != nil {
		return err
	}

	if resetType, ok := kind.ResetType(); ok {
		_, err := h.actions.ResetSystem(ctx, inventory.FirstSystem, actions.ResetType(resetType))

		return err
	}

	if kind != models.RemediationPowerCap {
		return fmt.Errorf("%w: %q", ErrInvalidAction, kind)
	}

	limit := limitWatts
	_, err := h.actions.SetPowerLimit(ctx, &limit)

	return err
}

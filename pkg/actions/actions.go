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

// Package actions implements the mutating controller operations: resets,
// power limits, network protocol settings and event subscriptions.
package actions

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/carverauto/bmcwatch/pkg/clock"
	"github.com/carverauto/bmcwatch/pkg/compliance"
	"github.com/carverauto/bmcwatch/pkg/inventory"
	"github.com/carverauto/bmcwatch/pkg/logger"
	"github.com/carverauto/bmcwatch/pkg/models"
)

var (
	ErrInvalidResetType      = errors.New("invalid reset type")
	ErrResetNotAllowed       = errors.New("reset type not allowed by controller")
	ErrActionUnsupported     = errors.New("action not advertised by resource")
	ErrPowerLimitNotFound    = errors.New("power limit not supported")
	ErrInvalidLimitException = errors.New("invalid limit exception")
	ErrInvalidService        = errors.New("invalid network service")
	ErrInvalidPort           = errors.New("invalid port")
	ErrInvalidDestination    = errors.New("invalid subscription destination")
	ErrProtocolUnsupported   = errors.New("event service supports only the Redfish protocol")
	ErrSubscriptionNotFound  = errors.New("no subscription matches destination")
	ErrInvalidSeverity       = errors.New("severity must be OK, Warning or Critical")
	errMissingLink           = errors.New("navigation link missing")
)

const serviceRoot = "/redfish/v1"

// Client is the part of the protocol client the actions use.
type Client interface {
	Get(ctx context.Context, path string, sink compliance.Sink) (*models.Resource, error)
	Post(ctx context.Context, path string, body interface{}, header http.Header, sink compliance.Sink) (*models.Resource, error)
	Patch(ctx context.Context, path string, body interface{}, header http.Header, sink compliance.Sink) (*models.Resource, error)
	PatchIfMatch(ctx context.Context, path string, body interface{}, sink compliance.Sink) (*models.Resource, error)
	Delete(ctx context.Context, path string, sink compliance.Sink) (*models.Resource, error)
	Host() string
}

// Actions runs mutating operations against one controller.
type Actions struct {
	client   Client
	sections inventory.Sectioner
	clock    clock.Clock
	log      logger.Logger
}

// Option customises Actions.
type Option func(*Actions)

// WithClock sets the clock used for event timestamps.
func WithClock(clk clock.Clock) Option {
	return func(a *Actions) { a.clock = clk }
}

// New builds Actions. sections may be nil, in which case nothing is recorded.
func New(client Client, sections inventory.Sectioner, log logger.Logger, opts ...Option) *Actions {
	if log == nil {
		log = logger.NewTestLogger()
	}

	a := &Actions{
		client:   client,
		sections: sections,
		clock:    clock.Real(),
		log:      logger.Host(logger.Component(log, "actions"), client.Host()),
	}

	for _, opt := range opts {
		opt(a)
	}

	return a
}

func (a *Actions) section(name string) compliance.Sink {
	if a.sections == nil {
		return compliance.Discard
	}

	return a.sections.Section(name, a.client.Host())
}

func (a *Actions) fail(action string, err error) error {
	a.log.Error().Err(err).Str(logger.FieldOperation, action).Msg("Action failed")

	return fmt.Errorf("%s: %w", action, err)
}

func (a *Actions) follow(ctx context.Context, res *models.Resource, sink compliance.Sink, keys ...string) (*models.Resource, error) {
	link, ok := res.Link(keys...)
	if !ok {
		return nil, fmt.Errorf("%w: %v on %s", errMissingLink, keys, res.Path)
	}

	return a.client.Get(ctx, link, sink)
}

// fromRoot fetches the resource linked from the service root at key.
func (a *Actions) fromRoot(ctx context.Context, key string, sink compliance.Sink) (*models.Resource, error) {
	root, err := a.client.Get(ctx, serviceRoot, sink)
	if err != nil {
		return nil, err
	}

	return a.follow(ctx, root, sink, key)
}

// collectionMembers fetches every member of the root collection at key.
func (a *Actions) collectionMembers(ctx context.Context, key string, sink compliance.Sink) ([]*models.Resource, error) {
	coll, err := a.fromRoot(ctx, key, sink)
	if err != nil {
		return nil, err
	}

	out := make([]*models.Resource, 0, len(coll.Members()))

	for _, link := range coll.Members() {
		m, err := a.client.Get(ctx, link, sink)
		if err != nil {
			return nil, err
		}

		out = append(out, m)
	}

	return out, nil
}

// actionTarget returns the target URI of the named action on res.
func actionTarget(res *models.Resource, action string) (string, error) {
	target := res.String("Actions", action, "target")
	if target == "" {
		return "", fmt.Errorf("%w: %s on %s", ErrActionUnsupported, action, res.Path)
	}

	return target, nil
}

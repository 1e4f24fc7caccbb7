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

// Package inventory implements the read-only controller queries. Every
// query opens one compliance section named after itself and aborts on the
// first failed fetch.
package inventory

import (
	"context"
	"errors"
	"fmt"

	"github.com/carverauto/bmcwatch/pkg/clock"
	"github.com/carverauto/bmcwatch/pkg/compliance"
	"github.com/carverauto/bmcwatch/pkg/logger"
	"github.com/carverauto/bmcwatch/pkg/models"
)

var (
	ErrSystemNotFound    = errors.New("system not found")
	ErrNoMembers         = errors.New("collection has no members")
	ErrMissingLink       = errors.New("navigation link missing")
	ErrUnknownAttribute  = errors.New("unknown BIOS attribute")
	ErrNoPowerTelemetry  = errors.New("no chassis reports power telemetry")
	ErrNoPowerReading    = errors.New("power resource has no consumed watts reading")
	ErrInvalidBIOSMode   = errors.New("invalid BIOS mode")
	errMissingLogService = errors.New("manager has no log services")
)

// Reader is the part of the protocol client the queries use.
type Reader interface {
	Get(ctx context.Context, path string, sink compliance.Sink) (*models.Resource, error)
	Host() string
}

// Sectioner opens a named compliance section for one host.
type Sectioner interface {
	Section(name, host string) compliance.Sink
}

const serviceRoot = "/redfish/v1"

// SystemSelector picks systems out of the Systems collection. The zero
// value selects only the first member, AllSystems selects every member and
// any other value selects the member whose last path segment equals it.
type SystemSelector string

const (
	FirstSystem SystemSelector = ""
	AllSystems  SystemSelector = "all"
)

// Pick resolves the selector against collection member links.
func (s SystemSelector) Pick(members []string) ([]string, error) {
	if len(members) == 0 {
		return nil, ErrNoMembers
	}

	switch s {
	case FirstSystem:
		return members[:1], nil
	case AllSystems:
		return members, nil
	}

	for _, m := range members {
		if models.LastSegment(m) == string(s) {
			return []string{m}, nil
		}
	}

	return nil, fmt.Errorf("%w: %q", ErrSystemNotFound, string(s))
}

// Queries runs inventory reads against one controller.
type Queries struct {
	client   Reader
	sections Sectioner
	clock    clock.Clock
	log      logger.Logger
}

// Option customises Queries.
type Option func(*Queries)

// WithClock sets the clock that stamps power samples.
func WithClock(clk clock.Clock) Option {
	return func(q *Queries) { q.clock = clk }
}

// New builds Queries. sections may be nil, in which case nothing is recorded.
func New(client Reader, sections Sectioner, log logger.Logger, opts ...Option) *Queries {
	if log == nil {
		log = logger.NewTestLogger()
	}

	q := &Queries{
		client:   client,
		sections: sections,
		clock:    clock.Real(),
		log:      logger.Host(logger.Component(log, "inventory"), client.Host()),
	}

	for _, opt := range opts {
		opt(q)
	}

	return q
}

func (q *Queries) section(name string) compliance.Sink {
	if q.sections == nil {
		return compliance.Discard
	}

	return q.sections.Section(name, q.client.Host())
}

// fail logs the aborted query and returns err wrapped with its name.
func (q *Queries) fail(query string, err error) error {
	q.log.Error().Err(err).Str(logger.FieldOperation, query).Msg("Inventory query failed")

	return fmt.Errorf("%s: %w", query, err)
}

// follow fetches the resource linked from res at keys.
func (q *Queries) follow(ctx context.Context, res *models.Resource, sink compliance.Sink, keys ...string) (*models.Resource, error) {
	link, ok := res.Link(keys...)
	if !ok {
		return nil, fmt.Errorf("%w: %v on %s", ErrMissingLink, keys, res.Path)
	}

	return q.client.Get(ctx, link, sink)
}

// members fetches every member of the collection at path, in order.
func (q *Queries) members(ctx context.Context, coll *models.Resource, sink compliance.Sink) ([]*models.Resource, error) {
	links := coll.Members()
	out := make([]*models.Resource, 0, len(links))

	for _, link := range links {
		res, err := q.client.Get(ctx, link, sink)
		if err != nil {
			return nil, err
		}

		out = append(out, res)
	}

	return out, nil
}

// collection resolves the root navigation property key and returns its
// members.
func (q *Queries) collection(ctx context.Context, key string, sink compliance.Sink) ([]*models.Resource, error) {
	root, err := q.client.Get(ctx, serviceRoot, sink)
	if err != nil {
		return nil, err
	}

	coll, err := q.follow(ctx, root, sink, key)
	if err != nil {
		return nil, err
	}

	return q.members(ctx, coll, sink)
}

func (q *Queries) systemURLs(ctx context.Context, sel SystemSelector, sink compliance.Sink) ([]string, error) {
	root, err := q.client.Get(ctx, serviceRoot, sink)
	if err != nil {
		return nil, err
	}

	coll, err := q.follow(ctx, root, sink, "Systems")
	if err != nil {
		return nil, err
	}

	return sel.Pick(coll.Members())
}

func (q *Queries) systems(ctx context.Context, sel SystemSelector, sink compliance.Sink) ([]*models.Resource, error) {
	urls, err := q.systemURLs(ctx, sel, sink)
	if err != nil {
		return nil, err
	}

	out := make([]*models.Resource, 0, len(urls))

	for _, u := range urls {
		res, err := q.client.Get(ctx, u, sink)
		if err != nil {
			return nil, err
		}

		out = append(out, res)
	}

	return out, nil
}

// ServiceRoot returns the projected service root document.
func (q *Queries) ServiceRoot(ctx context.Context) (Record, error) {
	res, err := q.client.Get(ctx, serviceRoot, q.section("ServiceRoot"))
	if err != nil {
		return nil, q.fail("ServiceRoot", err)
	}

	return Project(KindServiceRoot, res.Body), nil
}

// SystemURLs resolves the selector against the Systems collection.
func (q *Queries) SystemURLs(ctx context.Context, sel SystemSelector) ([]string, error) {
	urls, err := q.systemURLs(ctx, sel, q.section("SystemURLs"))
	if err != nil {
		return nil, q.fail("SystemURLs", err)
	}

	return urls, nil
}

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

// Package events publishes power alerts and remediation outcomes as
// CloudEvents on NATS JetStream.
package events

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"

	"github.com/carverauto/bmcwatch/pkg/clock"
	"github.com/carverauto/bmcwatch/pkg/logger"
	"github.com/carverauto/bmcwatch/pkg/models"
	"github.com/carverauto/bmcwatch/pkg/natsutil"
	"github.com/carverauto/bmcwatch/pkg/powermon"
)

const (
	TypeAlert       = "com.carverauto.bmcwatch.power.alert"
	TypeRemediation = "com.carverauto.bmcwatch.power.remediation"
	TypeIneffective = "com.carverauto.bmcwatch.power.ineffective"

	subjectAlert       = "power.alert"
	subjectRemediation = "power.remediation"
	subjectIneffective = "power.ineffective"
)

// EventSink publishes a single CloudEvent. *natsutil.EventPublisher
// implements it.
type EventSink interface {
	Publish(ctx context.Context, event *models.CloudEvent) error
}

// Publisher implements powermon.Publisher.
type Publisher struct {
	sink   EventSink
	prefix string
	source string
	clock  clock.Clock
	log    logger.Logger
	nc     *nats.Conn
}

var _ powermon.Publisher = (*Publisher)(nil)

// Option customises a Publisher.
type Option func(*Publisher)

// WithClock sets the clock used for event times.
func WithClock(clk clock.Clock) Option {
	return func(p *Publisher) { p.clock = clk }
}

// Subjects returns the stream subjects a publisher with prefix writes to.
func Subjects(prefix string) []string {
	return []string{prefix + ".power.*"}
}

// New wraps sink. prefix and source default to the package defaults when
// empty.
func New(sink EventSink, prefix, source string, log logger.Logger, opts ...Option) *Publisher {
	if log == nil {
		log = logger.NewTestLogger()
	}

	if prefix == "" {
		prefix = models.DefaultEventPrefix
	}

	if source == "" {
		source = models.DefaultEventSource
	}

	p := &Publisher{
		sink:   sink,
		prefix: prefix,
		source: source,
		clock:  clock.Real(),
		log:    logger.Component(log, "events"),
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// Connect dials NATS, ensures the stream exists and returns a Publisher
// that owns the connection.
func Connect(ctx context.Context, cfg models.EventsConfig, log logger.Logger, opts ...Option) (*Publisher, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	nc, err := natsutil.ConnectWithSecurity(cfg.NATS.URL, cfg.NATS.Security, log)
	if err != nil {
		return nil, err
	}

	ep, err := natsutil.CreateEventPublisherWithDomain(ctx, nc, cfg.NATS.Domain, cfg.StreamName,
		Subjects(cfg.SubjectPrefix), log)
	if err != nil {
		nc.Close()

		return nil, fmt.Errorf("failed to create event publisher: %w", err)
	}

	p := New(ep, cfg.SubjectPrefix, cfg.Source, log, opts...)
	p.nc = nc

	p.log.Info().Str("stream", cfg.StreamName).Msg("NATS event publisher initialized")

	return p, nil
}

// Close drains the owned NATS connection, if any.
func (p *Publisher) Close() error {
	if p.nc == nil {
		return nil
	}

	return p.nc.Drain()
}

// PublishAlert publishes a threshold violation.
func (p *Publisher) PublishAlert(ctx context.Context, alert models.Alert) error {
	return p.publish(ctx, TypeAlert, subjectAlert, alert)
}

// PublishRemediation publishes a remediation outcome. Ineffective outcomes
// get their own type and subject so they can be routed separately.
func (p *Publisher) PublishRemediation(ctx context.Context, action models.RemediationAction) error {
	if action.Outcome == models.RemediationIneffective {
		return p.publish(ctx, TypeIneffective, subjectIneffective, action)
	}

	return p.publish(ctx, TypeRemediation, subjectRemediation, action)
}

func (p *Publisher) publish(ctx context.Context, eventType, subject string, data interface{}) error {
	now := p.clock.Now().UTC()

	event := &models.CloudEvent{
		SpecVersion:     models.CloudEventSpecVersion,
		ID:              uuid.NewString(),
		Source:          p.source,
		Type:            eventType,
		DataContentType: "application/json",
		Subject:         p.prefix + "." + subject,
		Time:            &now,
		Data:            data,
	}

	return p.sink.Publish(ctx, event)
}

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

// Package natsutil connects to NATS JetStream and publishes CloudEvents.
package natsutil

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/carverauto/bmcwatch/pkg/logger"
	"github.com/carverauto/bmcwatch/pkg/models"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

// EventPublisher provides methods for publishing CloudEvents to NATS JetStream.
type EventPublisher struct {
	js     jetstream.JetStream
	stream string
	log    logger.Logger
}

// NewEventPublisher creates a new EventPublisher for the specified stream.
func NewEventPublisher(js jetstream.JetStream, streamName string, log logger.Logger) *EventPublisher {
	if log == nil {
		log = logger.NewTestLogger()
	}

	return &EventPublisher{
		js:     js,
		stream: streamName,
		log:    log,
	}
}

// Stream returns the JetStream stream events are published into.
func (p *EventPublisher) Stream() string {
	return p.stream
}

// Publish marshals event and publishes it on event.Subject.
func (p *EventPublisher) Publish(ctx context.Context, event *models.CloudEvent) error {
	eventBytes, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event %s: %w", event.Type, err)
	}

	ack, err := p.js.Publish(ctx, event.Subject, eventBytes)
	if err != nil {
		return fmt.Errorf("failed to publish event %s: %w", event.Type, err)
	}

	p.log.Debug().
		Str("event_id", event.ID).
		Str("subject", event.Subject).
		Uint64("seq", ack.Sequence).
		Msg("Published event")

	return nil
}

// ConnectWithSecurity creates a NATS connection, using mTLS when tlsCfg is set.
func ConnectWithSecurity(natsURL string, tlsCfg *models.TLSConfig, log logger.Logger, extraOpts ...nats.Option) (*nats.Conn, error) {
	if log == nil {
		log = logger.NewTestLogger()
	}

	var opts []nats.Option

	if tlsCfg != nil {
		tc, err := TLSConfig(tlsCfg)
		if err != nil {
			return nil, fmt.Errorf("failed to build NATS TLS config: %w", err)
		}

		opts = append(opts, nats.Secure(tc))
	}

	opts = append(opts,
		nats.ErrorHandler(func(_ *nats.Conn, _ *nats.Subscription, err error) {
			log.Error().Err(err).Msg("NATS error")
		}),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			log.Warn().Err(err).Msg("NATS disconnected")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info().Str("url", nc.ConnectedUrl()).Msg("NATS reconnected")
		}),
	)

	opts = append(opts, extraOpts...)

	nc, err := nats.Connect(natsURL, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	return nc, nil
}

// CreateEventPublisherWithDomain creates an EventPublisher with optional NATS
// domain support, creating the stream or extending its subjects as needed.
func CreateEventPublisherWithDomain(
	ctx context.Context, nc *nats.Conn, domain, streamName string, subjects []string, log logger.Logger,
) (*EventPublisher, error) {
	var (
		js  jetstream.JetStream
		err error
	)

	if domain != "" {
		js, err = jetstream.NewWithDomain(nc, domain)
	} else {
		js, err = jetstream.New(nc)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	if err := EnsureStream(ctx, js, streamName, subjects); err != nil {
		return nil, err
	}

	return NewEventPublisher(js, streamName, log), nil
}

// EnsureStream creates streamName if missing, or adds any subject it does not
// yet cover.
func EnsureStream(ctx context.Context, js jetstream.JetStream, streamName string, subjects []string) error {
	stream, err := js.Stream(ctx, streamName)
	if err != nil {
		_, err = js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
			Name:     streamName,
			Subjects: subjects,
		})
		if err != nil {
			return fmt.Errorf("failed to create or get stream %s: %w", streamName, err)
		}

		return nil
	}

	cfg := stream.CachedInfo().Config
	merged := cfg.Subjects

	for _, s := range subjects {
		merged = ensureSubjectList(merged, s)
	}

	if len(merged) == len(cfg.Subjects) {
		return nil
	}

	cfg.Subjects = merged
	if _, err := js.UpdateStream(ctx, cfg); err != nil {
		return fmt.Errorf("failed to update stream %s subjects: %w", streamName, err)
	}

	return nil
}

// ensureSubjectList appends subject unless an existing pattern already covers it.
func ensureSubjectList(subjects []string, subject string) []string {
	for _, s := range subjects {
		if matchesSubject(s, subject) {
			return subjects
		}
	}

	return append(subjects, subject)
}

// matchesSubject applies NATS wildcard rules: '*' is one token, '>' the rest.
func matchesSubject(pattern, subject string) bool {
	pt := strings.Split(pattern, ".")
	st := strings.Split(subject, ".")

	for i, p := range pt {
		if p == ">" {
			return i < len(st)
		}

		if i >= len(st) {
			return false
		}

		if p != "*" && p != st[i] {
			return false
		}
	}

	return len(pt) == len(st)
}

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

package models

import (
	"errors"
	"time"
)

var errNATSURLRequired = errors.New("nats url is required")

const (
	DefaultEventStream    = "BMCWATCH"
	DefaultEventPrefix    = "bmcwatch"
	DefaultEventSource    = "bmcwatch/powermon"
	CloudEventSpecVersion = "1.0"
)

// NATSConfig configures NATS connectivity
type NATSConfig struct {
	URL      string     `json:"url"`
	Domain   string     `json:"domain,omitempty"`
	Security *TLSConfig `json:"security,omitempty"`
}

// Validate ensures the NATS configuration is valid
func (c *NATSConfig) Validate() error {
	if c.URL == "" {
		return errNATSURLRequired
	}

	return nil
}

// EventsConfig configures remediation event publishing.
type EventsConfig struct {
	Enabled       bool       `json:"enabled"`
	NATS          NATSConfig `json:"nats"`
	StreamName    string     `json:"stream_name"`
	SubjectPrefix string     `json:"subject_prefix"`
	Source        string     `json:"source"`
}

// Validate fills defaults. A disabled config is always valid.
func (c *EventsConfig) Validate() error {
	if !c.Enabled {
		return nil
	}

	if err := c.NATS.Validate(); err != nil {
		return err
	}

	if c.StreamName == "" {
		c.StreamName = DefaultEventStream
	}

	if c.SubjectPrefix == "" {
		c.SubjectPrefix = DefaultEventPrefix
	}

	if c.Source == "" {
		c.Source = DefaultEventSource
	}

	return nil
}

// CloudEvent represents a CloudEvents v1.0 compliant event.
type CloudEvent struct {
	SpecVersion     string      `json:"specversion"`
	ID              string      `json:"id"`
	Source          string      `json:"source"`
	Type            string      `json:"type"`
	DataContentType string      `json:"datacontenttype"`
	Subject         string      `json:"subject,omitempty"`
	Time            *time.Time  `json:"time,omitempty"`
	Data            interface{} `json:"data,omitempty"`
}

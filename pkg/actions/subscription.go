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

package actions

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/carverauto/bmcwatch/pkg/compliance"
	"github.com/carverauto/bmcwatch/pkg/logger"
	"github.com/carverauto/bmcwatch/pkg/models"
)

// EventFormat is the EventFormatType of a subscription.
type EventFormat string

const (
	EventFormatEvent        EventFormat = "Event"
	EventFormatMetricReport EventFormat = "MetricReport"
)

// SubscriptionProtocol is the delivery protocol of a subscription.
type SubscriptionProtocol string

const (
	ProtocolRedfish SubscriptionProtocol = "Redfish"
	ProtocolSMTP    SubscriptionProtocol = "SMTP"
	ProtocolSNMPv1  SubscriptionProtocol = "SNMPv1"
	ProtocolSNMPv3  SubscriptionProtocol = "SNMPv3"
)

// Subscription describes an event destination to register.
type Subscription struct {
	Destination string               `json:"destination"`
	Format      EventFormat          `json:"format"`
	Context     string               `json:"context,omitempty"`
	Protocol    SubscriptionProtocol `json:"protocol"`
}

// Severity is the severity of a test event.
type Severity string

const (
	SeverityOK       Severity = "OK"
	SeverityWarning  Severity = "Warning"
	SeverityCritical Severity = "Critical"
)

// Valid reports whether s is a defined Severity.
func (s Severity) Valid() bool {
	return s == SeverityOK || s == SeverityWarning || s == SeverityCritical
}

// TestEvent is the content of a SubmitTestEvent request.
type TestEvent struct {
	EventID  string   `json:"event_id"`
	Message  string   `json:"message"`
	Severity Severity `json:"severity"`
}

// serviceVersion is the schema version of an EventService.
type serviceVersion struct {
	major, minor, errata int
}

var versionSegment = regexp.MustCompile(`\.v(\d+)_(\d+)_(\d+)\.`)

// eventServiceVersion reads the version from @odata.type, defaulting to
// 1.3.0 when the type is unversioned.
func eventServiceVersion(tag string) serviceVersion {
	m := versionSegment.FindStringSubmatch(tag)
	if m == nil {
		return serviceVersion{1, 3, 0}
	}

	var v [3]int
	for i := range v {
		v[i], _ = strconv.Atoi(m[i+1])
	}

	return serviceVersion{v[0], v[1], v[2]}
}

func (v serviceVersion) atLeast(major, minor, errata int) bool {
	if v.major != major {
		return v.major > major
	}

	if v.minor != minor {
		return v.minor > minor
	}

	return v.errata >= errata
}

// subscriptionPayload builds the POST body for the EventService version.
func subscriptionPayload(v serviceVersion, sub Subscription) (map[string]interface{}, error) {
	if sub.Protocol == "" {
		sub.Protocol = ProtocolRedfish
	}

	if sub.Format == "" {
		sub.Format = EventFormatEvent
	}

	modern := v.atLeast(1, 6, 0)

	switch {
	case modern && sub.Protocol == ProtocolSMTP:
		if !strings.Contains(sub.Destination, "@") {
			return nil, fmt.Errorf("%w: mail address %q", ErrInvalidDestination, sub.Destination)
		}

		return map[string]interface{}{"Destination": "mailto:" + sub.Destination, "Protocol": string(sub.Protocol)}, nil
	case modern && (sub.Protocol == ProtocolSNMPv1 || sub.Protocol == ProtocolSNMPv3):
		if sub.Protocol == ProtocolSNMPv3 && !strings.Contains(sub.Destination, "@") {
			return nil, fmt.Errorf("%w: SNMPv3 address %q", ErrInvalidDestination, sub.Destination)
		}

		return map[string]interface{}{"Destination": "snmp://" + sub.Destination, "Protocol": string(sub.Protocol)}, nil
	case modern && sub.Protocol == ProtocolRedfish:
		body := map[string]interface{}{
			"Destination":      sub.Destination,
			"Protocol":         string(ProtocolRedfish),
			"SubscriptionType": "RedfishEvent",
			"EventFormatType":  string(sub.Format),
		}
		withContext(body, sub.Context)

		return body, nil
	case modern:
		return nil, fmt.Errorf("%w: unknown protocol %q", ErrInvalidDestination, sub.Protocol)
	case sub.Protocol != ProtocolRedfish:
		return nil, fmt.Errorf("%w: requested %s", ErrProtocolUnsupported, sub.Protocol)
	}

	body := map[string]interface{}{"Destination": sub.Destination, "Protocol": string(ProtocolRedfish)}
	withContext(body, sub.Context)

	if !v.atLeast(1, 3, 0) {
		if sub.Format == EventFormatMetricReport {
			body["EventTypes"] = []string{"MetricReport"}
		} else {
			body["EventTypes"] = []string{"StatusChange", "ResourceUpdated", "ResourceAdded", "ResourceRemoved", "Alert"}
		}
	}

	return body, nil
}

func withContext(body map[string]interface{}, ctx string) {
	if ctx != "" {
		body["Context"] = ctx
	}
}

func (a *Actions) eventService(ctx context.Context, sink compliance.Sink) (*models.Resource, serviceVersion, error) {
	svc, err := a.fromRoot(ctx, "EventService", sink)
	if err != nil {
		return nil, serviceVersion{}, err
	}

	return svc, eventServiceVersion(svc.TypeTag), nil
}

// AddEventSubscription registers sub and returns the created subscription URI.
func (a *Actions) AddEventSubscription(ctx context.Context, sub Subscription) (string, error) {
	const name = "AddEventSubscription"

	sink := a.section(name)

	svc, version, err := a.eventService(ctx, sink)
	if err != nil {
		return "", a.fail(name, err)
	}

	body, err := subscriptionPayload(version, sub)
	if err != nil {
		return "", a.fail(name, err)
	}

	subs, ok := svc.Link("Subscriptions")
	if !ok {
		return "", a.fail(name, fmt.Errorf("%w: Subscriptions on %s", errMissingLink, svc.Path))
	}

	res, err := a.client.Post(ctx, subs, body, nil, sink)
	if err != nil {
		return "", a.fail(name, err)
	}

	created := res.Header.Get("Location")
	if created == "" {
		created = res.String(models.KeyODataID)
	}

	a.log.Info().Str("destination", sub.Destination).Str("subscription", created).Msg("Event subscription created")

	return created, nil
}

// DeleteEventSubscription removes the first subscription whose Destination
// contains dest and returns its URI.
func (a *Actions) DeleteEventSubscription(ctx context.Context, dest string) (string, error) {
	const name = "DeleteEventSubscription"

	sink := a.section(name)

	svc, _, err := a.eventService(ctx, sink)
	if err != nil {
		return "", a.fail(name, err)
	}

	coll, err := a.follow(ctx, svc, sink, "Subscriptions")
	if err != nil {
		return "", a.fail(name, err)
	}

	for _, link := range coll.Members() {
		member, err := a.client.Get(ctx, link, sink)
		if err != nil {
			return "", a.fail(name, err)
		}

		if !strings.Contains(member.String("Destination"), dest) {
			continue
		}

		if _, err := a.client.Delete(ctx, link, sink); err != nil {
			return "", a.fail(name, err)
		}

		return link, nil
	}

	return "", a.fail(name, fmt.Errorf("%w: %q", ErrSubscriptionNotFound, dest))
}

const testEventAction = "#EventService.SubmitTestEvent"

// SubmitTestEvent asks the controller to deliver a test event to every
// subscriber.
func (a *Actions) SubmitTestEvent(ctx context.Context, ev TestEvent) error {
	const name = "SubmitTestEvent"

	if !ev.Severity.Valid() {
		return a.fail(name, fmt.Errorf("%w: %q", ErrInvalidSeverity, ev.Severity))
	}

	sink := a.section(name)

	svc, version, err := a.eventService(ctx, sink)
	if err != nil {
		return a.fail(name, err)
	}

	target, err := actionTarget(svc, testEventAction)
	if err != nil {
		return a.fail(name, err)
	}

	full := testEventFields(ev, svc.Path, a.clock.Now())

	payload, ok := a.requiredParameters(ctx, svc, full, sink)
	if !ok {
		payload = versionedTestEvent(version, full)
	}

	if _, err := a.client.Post(ctx, target, payload, nil, sink); err != nil {
		return a.fail(name, err)
	}

	return nil
}

func testEventFields(ev TestEvent, origin string, now time.Time) map[string]interface{} {
	return map[string]interface{}{
		"EventId":           ev.EventID,
		"EventType":         "Alert",
		"EventTimestamp":    now.Format(time.RFC3339),
		"Message":           ev.Message,
		"MessageArgs":       []string{},
		"MessageId":         "Created",
		"Severity":          string(ev.Severity),
		"OriginOfCondition": origin,
	}
}

// requiredParameters narrows full to the parameters the action's
// ActionInfo marks as required. It reports false when no usable ActionInfo
// is advertised.
func (a *Actions) requiredParameters(ctx context.Context, svc *models.Resource, full map[string]interface{}, sink compliance.Sink) (map[string]interface{}, bool) {
	info := svc.String("Actions", testEventAction, "@Redfish.ActionInfo")
	if info == "" {
		return nil, false
	}

	res, err := a.client.Get(ctx, info, sink)
	if err != nil || !res.Has("Parameters") {
		a.log.Debug().Err(err).Str(logger.FieldPath, info).Msg("ActionInfo unusable, using versioned payload")
		return nil, false
	}

	payload := make(map[string]interface{})

	for _, p := range res.Objects("Parameters") {
		required, _ := p["Required"].(bool)
		pname, _ := p["Name"].(string)

		if v, ok := full[pname]; required && ok {
			payload[pname] = v
		}
	}

	return payload, true
}

// versionedTestEvent drops the fields an EventService version rejects.
func versionedTestEvent(v serviceVersion, full map[string]interface{}) map[string]interface{} {
	payload := make(map[string]interface{}, len(full))
	for k, val := range full {
		payload[k] = val
	}

	switch {
	case v.atLeast(1, 6, 0):
		delete(payload, "EventType")
		delete(payload, "Severity")
	case v.atLeast(1, 3, 0):
		delete(payload, "EventType")
	case v.atLeast(1, 0, 6):
	default:
		delete(payload, "OriginOfCondition")
	}

	return payload
}

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
	"net/http"
	"testing"
	"time"

	"github.com/carverauto/bmcwatch/internal/fakebmc"
	"github.com/carverauto/bmcwatch/pkg/clock"
	"github.com/carverauto/bmcwatch/pkg/compliance"
	"github.com/carverauto/bmcwatch/pkg/inventory"
	"github.com/carverauto/bmcwatch/pkg/logger"
	"github.com/carverauto/bmcwatch/pkg/redfish"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func setup(t *testing.T, tree fakebmc.Tree) (*Actions, *fakebmc.Server, *compliance.Recorder) {
	t.Helper()

	srv := fakebmc.New(t)
	srv.Seed(tree)

	c, err := redfish.NewClient(redfish.Config{BaseURL: srv.URL}, nil, logger.NewTestLogger())
	require.NoError(t, err)

	rec := compliance.NewRecorder()

	return New(c, rec, logger.NewTestLogger(), WithClock(clock.NewFake(testNow))), srv, rec
}

func TestResetSystem(t *testing.T) {
	a, srv, rec := setup(t, fakebmc.Tree{Systems: 2})
	ctx := context.Background()

	done, err := a.ResetSystem(ctx, inventory.FirstSystem, ResetForceOff)
	require.NoError(t, err)
	assert.Equal(t, []string{fakebmc.SystemPath(1)}, done)

	posts := srv.Requests(http.MethodPost)
	require.Len(t, posts, 1)
	assert.Equal(t, "/redfish/v1/Systems/1/Actions/ComputerSystem.Reset", posts[0].Path)
	assert.Equal(t, "ForceOff", posts[0].Body["ResetType"])

	done, err = a.ResetSystem(ctx, inventory.AllSystems, ResetOn)
	require.NoError(t, err)
	assert.Len(t, done, 2)

	sections := rec.Sections()
	require.Len(t, sections, 2)
	assert.Equal(t, "ResetSystem", sections[0].Name)
}

func TestResetSystemRejectsType(t *testing.T) {
	a, srv, _ := setup(t, fakebmc.Tree{})
	ctx := context.Background()

	_, err := a.ResetSystem(ctx, inventory.FirstSystem, "Explode")
	require.ErrorIs(t, err, ErrInvalidResetType)
	assert.Empty(t, srv.Requests(""))

	_, err = a.ResetSystem(ctx, inventory.FirstSystem, ResetNmi)
	require.ErrorIs(t, err, ErrResetNotAllowed)
	assert.Empty(t, srv.Requests(http.MethodPost))
}

func TestResetManager(t *testing.T) {
	a, srv, _ := setup(t, fakebmc.Tree{})

	done, err := a.ResetManager(context.Background(), ResetGracefulRestart)
	require.NoError(t, err)
	assert.Equal(t, []string{"/redfish/v1/Managers/1"}, done)
	assert.Equal(t, 1, srv.Count(http.MethodPost, "/redfish/v1/Managers/1/Actions/Manager.Reset"))
}

func TestSetPowerLimit(t *testing.T) {
	a, srv, _ := setup(t, fakebmc.Tree{Watts: 610})
	ctx := context.Background()

	limit := 540.0

	path, err := a.SetPowerLimit(ctx, &limit)
	require.NoError(t, err)
	assert.Equal(t, "/redfish/v1/Chassis/1/Power", path)

	patches := srv.Requests(http.MethodPatch)
	require.Len(t, patches, 1)
	assert.Equal(t, `W/"1"`, patches[0].Header.Get("If-Match"))

	power, _ := srv.Resource(path)
	pc := power["PowerControl"].([]interface{})[0].(map[string]interface{})
	assert.InDelta(t, 540.0, pc["PowerLimit"].(map[string]interface{})["LimitInWatts"], 0)
	assert.InDelta(t, 610.0, pc["PowerConsumedWatts"], 0)

	_, err = a.SetPowerLimit(ctx, nil)
	require.NoError(t, err)

	power, _ = srv.Resource(path)
	pc = power["PowerControl"].([]interface{})[0].(map[string]interface{})
	assert.Nil(t, pc["PowerLimit"].(map[string]interface{})["LimitInWatts"])
}

func TestSetPowerLimitSettings(t *testing.T) {
	a, srv, _ := setup(t, fakebmc.Tree{})
	ctx := context.Background()

	_, err := a.SetPowerLimitCorrection(ctx, 300)
	require.NoError(t, err)

	_, err = a.SetPowerLimitException(ctx, LimitLogEventOnly)
	require.NoError(t, err)

	power, _ := srv.Resource("/redfish/v1/Chassis/1/Power")
	limit := power["PowerControl"].([]interface{})[0].(map[string]interface{})["PowerLimit"].(map[string]interface{})
	assert.InDelta(t, 300.0, limit["CorrectionInMs"], 0)
	assert.Equal(t, "LogEventOnly", limit["LimitException"])

	_, err = a.SetPowerLimitException(ctx, "Explode")
	require.ErrorIs(t, err, ErrInvalidLimitException)
}

func TestSetPowerLimitUnsupported(t *testing.T) {
	a, srv, _ := setup(t, fakebmc.Tree{})
	srv.Set("/redfish/v1/Chassis/1/Power", map[string]interface{}{
		"PowerControl": []interface{}{map[string]interface{}{"PowerConsumedWatts": 100.0}},
	})

	limit := 500.0
	_, err := a.SetPowerLimit(context.Background(), &limit)
	require.ErrorIs(t, err, ErrPowerLimitNotFound)
	assert.Empty(t, srv.Requests(http.MethodPatch))
}

func TestSetNetworkProtocol(t *testing.T) {
	a, srv, _ := setup(t, fakebmc.Tree{})
	ctx := context.Background()

	updated, err := a.SetNetworkProtocol(ctx, ServiceSSH, true, 2222)
	require.NoError(t, err)
	assert.Equal(t, []string{"/redfish/v1/Managers/1/NetworkProtocol"}, updated)

	patches := srv.Requests(http.MethodPatch)
	require.Len(t, patches, 1)
	assert.Equal(t, `W/"np1"`, patches[0].Header.Get("If-Match"))
	assert.Equal(t, map[string]interface{}{"ProtocolEnabled": true, "Port": 2222.0}, patches[0].Body["SSH"])

	_, err = a.SetNetworkProtocol(ctx, ServiceIPMI, true, 0)
	require.NoError(t, err)

	patches = srv.Requests(http.MethodPatch)
	require.Len(t, patches, 2)
	assert.Equal(t, map[string]interface{}{"ProtocolEnabled": true}, patches[1].Body["IPMI"])

	_, err = a.SetNetworkProtocol(ctx, ServiceHTTPS, true, 70000)
	require.ErrorIs(t, err, ErrInvalidPort)

	_, err = a.SetNetworkProtocol(ctx, Service(99), true, 22)
	require.ErrorIs(t, err, ErrInvalidService)
}

func TestParseService(t *testing.T) {
	for _, s := range Services() {
		got, err := ParseService(s.String())
		require.NoError(t, err)
		assert.Equal(t, s, got)
	}

	_, err := ParseService("FTP")
	require.ErrorIs(t, err, ErrInvalidService)
}

func TestEventServiceVersion(t *testing.T) {
	assert.Equal(t, serviceVersion{1, 7, 0}, eventServiceVersion("#EventService.v1_7_0.EventService"))
	assert.Equal(t, serviceVersion{1, 10, 2}, eventServiceVersion("#EventService.v1_10_2.EventService"))
	assert.Equal(t, serviceVersion{1, 3, 0}, eventServiceVersion("#EventService.EventService"))

	assert.True(t, serviceVersion{1, 10, 0}.atLeast(1, 6, 0))
	assert.True(t, serviceVersion{1, 6, 0}.atLeast(1, 6, 0))
	assert.False(t, serviceVersion{1, 5, 9}.atLeast(1, 6, 0))
	assert.True(t, serviceVersion{2, 0, 0}.atLeast(1, 6, 0))
}

func TestSubscriptionPayload(t *testing.T) {
	v17 := serviceVersion{1, 7, 0}
	v14 := serviceVersion{1, 4, 0}
	v12 := serviceVersion{1, 2, 0}

	tests := []struct {
		name    string
		version serviceVersion
		sub     Subscription
		want    map[string]interface{}
		wantErr error
	}{
		{
			name:    "smtp",
			version: v17,
			sub:     Subscription{Destination: "ops@example.com", Protocol: ProtocolSMTP},
			want:    map[string]interface{}{"Destination": "mailto:ops@example.com", "Protocol": "SMTP"},
		},
		{
			name:    "smtp without at",
			version: v17,
			sub:     Subscription{Destination: "ops", Protocol: ProtocolSMTP},
			wantErr: ErrInvalidDestination,
		},
		{
			name:    "snmpv1",
			version: v17,
			sub:     Subscription{Destination: "10.0.0.9:162", Protocol: ProtocolSNMPv1},
			want:    map[string]interface{}{"Destination": "snmp://10.0.0.9:162", "Protocol": "SNMPv1"},
		},
		{
			name:    "snmpv3 without user",
			version: v17,
			sub:     Subscription{Destination: "10.0.0.9", Protocol: ProtocolSNMPv3},
			wantErr: ErrInvalidDestination,
		},
		{
			name:    "redfish metric report",
			version: v17,
			sub:     Subscription{Destination: "https://collector/events", Format: EventFormatMetricReport, Context: "rack7"},
			want: map[string]interface{}{
				"Destination":      "https://collector/events",
				"Protocol":         "Redfish",
				"SubscriptionType": "RedfishEvent",
				"EventFormatType":  "MetricReport",
				"Context":          "rack7",
			},
		},
		{
			name:    "old service rejects smtp",
			version: v14,
			sub:     Subscription{Destination: "ops@example.com", Protocol: ProtocolSMTP},
			wantErr: ErrProtocolUnsupported,
		},
		{
			name:    "1.3 redfish",
			version: v14,
			sub:     Subscription{Destination: "https://collector/events"},
			want:    map[string]interface{}{"Destination": "https://collector/events", "Protocol": "Redfish"},
		},
		{
			name:    "pre 1.3 event types",
			version: v12,
			sub:     Subscription{Destination: "https://collector/events", Format: EventFormatMetricReport},
			want: map[string]interface{}{
				"Destination": "https://collector/events",
				"Protocol":    "Redfish",
				"EventTypes":  []string{"MetricReport"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := subscriptionPayload(tt.version, tt.sub)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEventSubscriptionLifecycle(t *testing.T) {
	a, srv, _ := setup(t, fakebmc.Tree{})
	ctx := context.Background()

	created, err := a.AddEventSubscription(ctx, Subscription{Destination: "https://collector.example/events"})
	require.NoError(t, err)
	assert.Equal(t, "/redfish/v1/EventService/Subscriptions/1", created)

	sub, ok := srv.Resource(created)
	require.True(t, ok)
	assert.Equal(t, "RedfishEvent", sub["SubscriptionType"])

	_, err = a.DeleteEventSubscription(ctx, "nowhere.example")
	require.ErrorIs(t, err, ErrSubscriptionNotFound)

	deleted, err := a.DeleteEventSubscription(ctx, "collector.example")
	require.NoError(t, err)
	assert.Equal(t, created, deleted)

	_, ok = srv.Resource(created)
	assert.False(t, ok)

	coll, _ := srv.Resource("/redfish/v1/EventService/Subscriptions")
	assert.Empty(t, coll["Members"])
}

func TestSubmitTestEvent(t *testing.T) {
	a, srv, _ := setup(t, fakebmc.Tree{})

	err := a.SubmitTestEvent(context.Background(), TestEvent{EventID: "42", Message: "hello", Severity: SeverityWarning})
	require.NoError(t, err)

	posts := srv.Requests(http.MethodPost)
	require.Len(t, posts, 1)
	assert.Equal(t, "/redfish/v1/EventService/Actions/EventService.SubmitTestEvent", posts[0].Path)

	body := posts[0].Body
	assert.Equal(t, "42", body["EventId"])
	assert.Equal(t, "Created", body["MessageId"])
	assert.Equal(t, testNow.Format(time.RFC3339), body["EventTimestamp"])
	assert.Equal(t, "/redfish/v1/EventService", body["OriginOfCondition"])
	assert.NotContains(t, body, "Severity")
	assert.NotContains(t, body, "EventType")
}

func TestSubmitTestEventOlderService(t *testing.T) {
	a, srv, _ := setup(t, fakebmc.Tree{EventServiceType: "#EventService.v1_0_2.EventService"})

	err := a.SubmitTestEvent(context.Background(), TestEvent{EventID: "1", Message: "m", Severity: SeverityOK})
	require.NoError(t, err)

	body := srv.Requests(http.MethodPost)[0].Body
	assert.Equal(t, "OK", body["Severity"])
	assert.Equal(t, "Alert", body["EventType"])
	assert.NotContains(t, body, "OriginOfCondition")
}

func TestSubmitTestEventActionInfo(t *testing.T) {
	a, srv, _ := setup(t, fakebmc.Tree{})

	svc, _ := srv.Resource("/redfish/v1/EventService")
	svc["Actions"].(map[string]interface{})["#EventService.SubmitTestEvent"].(map[string]interface{})["@Redfish.ActionInfo"] =
		"/redfish/v1/EventService/SubmitTestEventActionInfo"
	srv.Set("/redfish/v1/EventService", svc)
	srv.Set("/redfish/v1/EventService/SubmitTestEventActionInfo", map[string]interface{}{
		"Parameters": []interface{}{
			map[string]interface{}{"Name": "EventId", "Required": true},
			map[string]interface{}{"Name": "Message", "Required": true},
			map[string]interface{}{"Name": "Severity", "Required": false},
		},
	})

	err := a.SubmitTestEvent(context.Background(), TestEvent{EventID: "7", Message: "m", Severity: SeverityCritical})
	require.NoError(t, err)

	body := srv.Requests(http.MethodPost)[0].Body
	assert.Equal(t, map[string]interface{}{"EventId": "7", "Message": "m"}, body)
}

func TestSubmitTestEventSeverity(t *testing.T) {
	a, srv, _ := setup(t, fakebmc.Tree{})

	err := a.SubmitTestEvent(context.Background(), TestEvent{Severity: "Fatal"})
	require.ErrorIs(t, err, ErrInvalidSeverity)
	assert.Empty(t, srv.Requests(""))
}

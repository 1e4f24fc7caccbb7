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
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/carverauto/bmcwatch/internal/fakebmc"
	"github.com/carverauto/bmcwatch/pkg/compliance"
	"github.com/carverauto/bmcwatch/pkg/conformance"
	"github.com/carverauto/bmcwatch/pkg/logger"
	"github.com/carverauto/bmcwatch/pkg/models"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func newTestClient(t *testing.T, srv *fakebmc.Server, v Validator, opts ...Option) *Client {
	t.Helper()

	c, err := NewClient(Config{BaseURL: srv.URL, Username: "root", Password: "calvin"}, v, logger.NewTestLogger(), opts...)
	require.NoError(t, err)

	return c
}

func TestGetValidatesPathAndBody(t *testing.T) {
	ctrl := gomock.NewController(t)
	v := NewMockValidator(ctrl)

	srv := fakebmc.New(t)
	srv.Seed(fakebmc.Tree{})

	sink := compliance.NewRecorder()

	gomock.InOrder(
		v.EXPECT().ValidateURI("/redfish/v1/Systems/1", "GET", sink).Return(models.OutcomePass),
		v.EXPECT().ValidateResource(gomock.Any(), gomock.Any(), sink).
			DoAndReturn(func(_ context.Context, res *models.Resource, _ compliance.Sink) models.Outcome {
				assert.Equal(t, "#ComputerSystem.v1_5_0.ComputerSystem", res.TypeTag)
				return models.OutcomePass
			}),
	)

	c := newTestClient(t, srv, v)

	res, err := c.Get(context.Background(), "/redfish/v1/Systems/1", sink)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, res.Status)
	assert.Equal(t, "On", res.String("PowerState"))
}

func TestQueryStringIsNotValidated(t *testing.T) {
	ctrl := gomock.NewController(t)
	v := NewMockValidator(ctrl)

	srv := fakebmc.New(t)
	srv.Seed(fakebmc.Tree{})

	v.EXPECT().ValidateURI("/redfish/v1/Systems", "GET", gomock.Any()).Return(models.OutcomePass)
	v.EXPECT().ValidateResource(gomock.Any(), gomock.Any(), gomock.Any()).Return(models.OutcomePass)

	c := newTestClient(t, srv, v)

	_, err := c.Get(context.Background(), "/redfish/v1/Systems?$expand=.", nil)
	require.NoError(t, err)
}

func TestPostRecordsOnlyPath(t *testing.T) {
	ctrl := gomock.NewController(t)
	v := NewMockValidator(ctrl)

	srv := fakebmc.New(t)
	srv.Seed(fakebmc.Tree{})

	target := "/redfish/v1/Systems/1/Actions/ComputerSystem.Reset"
	v.EXPECT().ValidateURI(target, "POST", gomock.Any()).Return(models.OutcomePass)

	c := newTestClient(t, srv, v)

	res, err := c.Post(context.Background(), target, map[string]string{"ResetType": "ForceOff"}, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, res.Status)

	reqs := srv.Requests(http.MethodPost)
	require.Len(t, reqs, 1)
	assert.Equal(t, "ForceOff", reqs[0].Body["ResetType"])
	assert.Equal(t, "application/json", reqs[0].Header.Get("Content-Type"))
}

func TestRequestHeadersAndAuth(t *testing.T) {
	srv := fakebmc.New(t)
	srv.Seed(fakebmc.Tree{})

	c := newTestClient(t, srv, nil)

	_, err := c.Get(context.Background(), ServiceRoot, nil)
	require.NoError(t, err)

	reqs := srv.Requests(http.MethodGet)
	require.Len(t, reqs, 1)
	assert.Equal(t, "application/json", reqs[0].Header.Get("Accept"))
	assert.Equal(t, "4.0", reqs[0].Header.Get("OData-Version"))
	assert.Equal(t, "bmcwatch/dev", reqs[0].Header.Get("User-Agent"))
	assert.NotEmpty(t, reqs[0].Header.Get("Authorization"))
	assert.Empty(t, reqs[0].Header.Get("Content-Type"))
}

func TestRejectedCarriesExtendedMessage(t *testing.T) {
	srv := fakebmc.New(t)
	srv.Seed(fakebmc.Tree{})
	srv.Fail(http.MethodPatch, "/redfish/v1/Systems/1/Bios/Settings", http.StatusBadRequest, "The property BootMode is read only.")

	c := newTestClient(t, srv, nil)

	res, err := c.Patch(context.Background(), "/redfish/v1/Systems/1/Bios/Settings",
		map[string]interface{}{"Attributes": map[string]string{"BootMode": "Bios"}}, nil, nil)
	require.ErrorIs(t, err, ErrRejected)

	var rerr *RejectedError
	require.True(t, errors.As(err, &rerr))
	assert.Equal(t, http.StatusBadRequest, rerr.Status)
	assert.Equal(t, "The property BootMode is read only.", rerr.Message)
	assert.Equal(t, MethodPatch, rerr.Method)
	require.NotNil(t, res)
	assert.Equal(t, http.StatusBadRequest, res.Status)
}

func TestFailureLogKeepsExtendedMessage(t *testing.T) {
	srv := fakebmc.New(t)
	srv.Seed(fakebmc.Tree{})
	srv.Fail(http.MethodGet, "/redfish/v1/Chassis/1", http.StatusInternalServerError, "sensor bus fault")

	var buf bytes.Buffer

	c, err := NewClient(Config{BaseURL: srv.URL}, nil, logger.NewWithWriter(&buf, zerolog.ErrorLevel))
	require.NoError(t, err)

	_, err = c.Get(context.Background(), "/redfish/v1/Chassis/1", nil)
	require.ErrorIs(t, err, ErrRejected)

	var line map[string]interface{}
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &line))

	assert.Equal(t, "sensor bus fault", line[logger.FieldExtendedMessage])
	assert.Equal(t, "Request failed", line["message"])
	assert.Equal(t, "/redfish/v1/Chassis/1", line[logger.FieldPath])
	assert.Equal(t, "GET", line[logger.FieldOperation])
	assert.Equal(t, 1, strings.Count(buf.String(), `"message":`))
}

func TestTransportErrorIsUnreachable(t *testing.T) {
	srv := fakebmc.New(t)
	addr := srv.URL
	srv.Close()

	c, err := NewClient(Config{BaseURL: addr, Timeout: models.Duration(time.Second)}, nil, logger.NewTestLogger())
	require.NoError(t, err)

	_, err = c.Get(context.Background(), ServiceRoot, nil)
	require.ErrorIs(t, err, ErrUnreachable)

	var terr *TransportError
	require.True(t, errors.As(err, &terr))
	assert.Equal(t, ServiceRoot, terr.Path)
}

func TestSuccessCodeOverride(t *testing.T) {
	srv := fakebmc.New(t)
	srv.Seed(fakebmc.Tree{})
	srv.Handle(http.MethodDelete, "/redfish/v1/EventService/Subscriptions/7", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	c, err := NewClient(Config{
		BaseURL:      srv.URL,
		SuccessCodes: map[string][]int{"DELETE": {200, 204, 404}},
	}, nil, logger.NewTestLogger())
	require.NoError(t, err)

	_, err = c.Delete(context.Background(), "/redfish/v1/EventService/Subscriptions/7", nil)
	assert.NoError(t, err)
}

func TestInvalidMethod(t *testing.T) {
	srv := fakebmc.New(t)
	c := newTestClient(t, srv, nil)

	_, err := c.Do(context.Background(), Request{Method: Method(42), Path: ServiceRoot})
	require.ErrorIs(t, err, ErrInvalidMethod)
	assert.Zero(t, srv.Count("", ServiceRoot))
}

func TestPatchIfMatchSendsEtag(t *testing.T) {
	srv := fakebmc.New(t)
	srv.Seed(fakebmc.Tree{})

	c := newTestClient(t, srv, nil)

	_, err := c.PatchIfMatch(context.Background(), "/redfish/v1/Managers/1/NetworkProtocol",
		map[string]interface{}{"SSH": map[string]interface{}{"ProtocolEnabled": true}}, nil)
	require.NoError(t, err)

	patches := srv.Requests(http.MethodPatch)
	require.Len(t, patches, 1)
	assert.Equal(t, `W/"np1"`, patches[0].Header.Get("If-Match"))

	np, ok := srv.Resource("/redfish/v1/Managers/1/NetworkProtocol")
	require.True(t, ok)

	ssh, _ := np["SSH"].(map[string]interface{})
	assert.Equal(t, true, ssh["ProtocolEnabled"])
	assert.InDelta(t, 22.0, ssh["Port"], 0)
}

func TestUnregisteredPathStillReturnsResource(t *testing.T) {
	cat := conformance.New(conformance.Config{
		OpenAPIURL: "../conformance/testdata/openapi.yaml",
		SchemaURL:  "../conformance/testdata/schemas",
	}, nil, logger.NewTestLogger())
	require.NoError(t, cat.Load(context.Background()))

	srv := fakebmc.New(t)
	srv.Seed(fakebmc.Tree{})
	srv.Set("/redfish/v1/Oem/Contoso/Diagnostics", map[string]interface{}{"Healthy": true})

	rec := compliance.NewRecorder()
	c := newTestClient(t, srv, cat)

	res, err := c.Get(context.Background(), "/redfish/v1/Oem/Contoso/Diagnostics", rec.Section("Diagnostics", c.Host()))
	require.NoError(t, err)
	assert.Equal(t, true, res.Body["Healthy"])

	records := rec.Records()
	require.Len(t, records, 1)
	assert.Equal(t, models.ValidationURI, records[0].Kind)
	assert.Equal(t, models.OutcomeFail, records[0].Outcome)
	assert.Contains(t, records[0].Detail, "/redfish/v1/Oem/Contoso/Diagnostics")
}

func TestRegisteredPathRecordsUriAndSchema(t *testing.T) {
	cat := conformance.New(conformance.Config{
		OpenAPIURL: "../conformance/testdata/openapi.yaml",
		SchemaURL:  "../conformance/testdata/schemas",
	}, nil, logger.NewTestLogger())
	require.NoError(t, cat.Load(context.Background()))

	srv := fakebmc.New(t)
	srv.Seed(fakebmc.Tree{PowerState: "Sleeping"})

	rec := compliance.NewRecorder()
	c := newTestClient(t, srv, cat, WithSink(rec))

	_, err := c.Get(context.Background(), "/redfish/v1/Systems/1", nil)
	require.NoError(t, err)

	records := rec.Records()
	require.Len(t, records, 2)
	assert.Equal(t, models.ValidationURI, records[0].Kind)
	assert.Equal(t, models.OutcomePass, records[0].Outcome)
	assert.Equal(t, models.ValidationSchema, records[1].Kind)
	assert.Equal(t, models.OutcomeFail, records[1].Outcome)
	require.NotNil(t, records[1].Mismatch)
	assert.Equal(t, "/PowerState", records[1].Mismatch.InstancePath)
}

func TestExtendedMessage(t *testing.T) {
	tests := []struct {
		name string
		res  *models.Resource
		want string
	}{
		{"nil", nil, ""},
		{
			"message",
			models.NewResource("/x", 400, nil, map[string]interface{}{
				"error": map[string]interface{}{
					"@Message.ExtendedInfo": []interface{}{
						map[string]interface{}{"Message": "bad value", "MessageId": "Base.1.0.PropertyValueNotInList"},
					},
				},
			}, []byte(`{}`)),
			"bad value",
		},
		{
			"message id",
			models.NewResource("/x", 400, nil, map[string]interface{}{
				"error": map[string]interface{}{
					"@Message.ExtendedInfo": []interface{}{
						map[string]interface{}{"MessageId": "Base.1.0.PropertyValueNotInList"},
					},
				},
			}, []byte(`{}`)),
			"Base.1.0.PropertyValueNotInList",
		},
		{"raw body", models.NewResource("/x", 500, nil, nil, []byte("  internal fault\n")), "internal fault"},
		{"status text", models.NewResource("/x", 503, nil, nil, nil), "Service Unavailable"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtendedMessage(tt.res))
		})
	}
}

func TestRetryAfter(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		value  string
		want   time.Duration
		wantOK bool
	}{
		{"absent", "", 0, false},
		{"seconds", "7", 7 * time.Second, true},
		{"zero", "0", 0, true},
		{"garbage", "5abc", 0, false},
		{"negative", "-3", 0, false},
		{"date", now.Add(90 * time.Second).Format(http.TimeFormat), 90 * time.Second, true},
		{"past date", now.Add(-time.Minute).Format(http.TimeFormat), 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := http.Header{}
			if tt.value != "" {
				h.Set("Retry-After", tt.value)
			}

			got, ok := retryAfter(h, now)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

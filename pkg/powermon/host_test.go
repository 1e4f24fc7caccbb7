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

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carverauto/bmcwatch/internal/fakebmc"
	"github.com/carverauto/bmcwatch/pkg/compliance"
	"github.com/carverauto/bmcwatch/pkg/logger"
	"github.com/carverauto/bmcwatch/pkg/models"
	"github.com/carverauto/bmcwatch/pkg/redfish"
)

func dialFake(t *testing.T, tree fakebmc.Tree) (*RedfishHost, *fakebmc.Server, *compliance.Recorder) {
	t.Helper()

	srv := fakebmc.New(t)
	srv.Seed(tree)

	rec := compliance.NewRecorder()

	h, err := Dial(context.Background(), HostConfig{ID: "rack1-u4", Endpoint: redfish.Config{BaseURL: srv.URL}},
		nil, rec, logger.NewTestLogger())
	require.NoError(t, err)

	return h, srv, rec
}

func TestRedfishHostSample(t *testing.T) {
	h, _, rec := dialFake(t, fakebmc.Tree{Watts: 612, AvgWatts: 580, MaxWatts: 700, MinWatts: 300})

	s, err := h.Sample(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "rack1-u4", h.ID())
	assert.Equal(t, "rack1-u4", s.Host)
	assert.Equal(t, "R740", s.Model)
	assert.InDelta(t, 612, s.CurrentWatts, 0)
	assert.InDelta(t, 580, s.AverageWatts, 0)
	assert.InDelta(t, 700, s.MaxWatts, 0)
	assert.InDelta(t, 300, s.MinWatts, 0)
	assert.Equal(t, models.PowerStateOn, s.PowerState)

	sections := rec.Sections()
	require.Len(t, sections, 2)
	assert.Equal(t, "Connect", sections[0].Name)
	assert.Equal(t, "PowerUsage", sections[1].Name)
}

func TestRedfishHostRemediate(t *testing.T) {
	h, srv, _ := dialFake(t, fakebmc.Tree{Watts: 612})
	ctx := context.Background()

	require.NoError(t, h.Remediate(ctx, models.RemediationForceOff, 0))

	posts := srv.Requests(http.MethodPost)
	require.Len(t, posts, 1)
	assert.Equal(t, "ForceOff", posts[0].Body["ResetType"])

	require.NoError(t, h.Remediate(ctx, models.RemediationPowerCap, 540))

	patches := srv.Requests(http.MethodPatch)
	require.Len(t, patches, 1)
	assert.Equal(t, "/redfish/v1/Chassis/1/Power", patches[0].Path)

	require.ErrorIs(t, h.Remediate(ctx, "Reboot", 0), ErrInvalidAction)
}

func TestDialFailure(t *testing.T) {
	srv := fakebmc.New(t)
	srv.Fail(http.MethodGet, redfish.ServiceRoot, http.StatusServiceUnavailable, "starting")

	_, err := Dial(context.Background(), HostConfig{ID: "x", Endpoint: redfish.Config{BaseURL: srv.URL}},
		nil, nil, logger.NewTestLogger())
	require.ErrorIs(t, err, redfish.ErrSessionStart)
	assert.Contains(t, err.Error(), "host x")
}

func TestNewHostConnectsOnFirstSample(t *testing.T) {
	srv := fakebmc.New(t)
	srv.Seed(fakebmc.Tree{Watts: 410})
	srv.Fail(http.MethodGet, redfish.ServiceRoot, http.StatusServiceUnavailable, "starting")

	h, err := NewHost(HostConfig{ID: "rack2-u1", Endpoint: redfish.Config{BaseURL: srv.URL}},
		nil, nil, logger.NewTestLogger())
	require.NoError(t, err)
	assert.Empty(t, srv.Requests(""))

	ctx := context.Background()

	_, err = h.Sample(ctx)
	require.ErrorIs(t, err, redfish.ErrSessionStart)

	srv.Restore(http.MethodGet, redfish.ServiceRoot)

	s, err := h.Sample(ctx)
	require.NoError(t, err)
	assert.InDelta(t, 410, s.CurrentWatts, 0)
	assert.Equal(t, "rack2-u1", s.Host)
	assert.Equal(t, "R740", s.Model)
}

func TestHostRecoversAcrossCycles(t *testing.T) {
	srv := fakebmc.New(t)
	srv.Seed(fakebmc.Tree{Watts: 300})
	srv.Fail(http.MethodGet, redfish.ServiceRoot, http.StatusServiceUnavailable, "starting")

	h, err := NewHost(HostConfig{ID: "rack2-u2", Endpoint: redfish.Config{BaseURL: srv.URL}},
		nil, nil, logger.NewTestLogger())
	require.NoError(t, err)

	cfg := testConfig()
	m, err := NewMonitor(cfg, []Host{h}, logger.NewTestLogger())
	require.NoError(t, err)

	ctx := context.Background()

	first, err := m.RunCycle(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"rack2-u2"}, first.Excluded)
	assert.Empty(t, first.Before)

	srv.Restore(http.MethodGet, redfish.ServiceRoot)

	second, err := m.RunCycle(ctx)
	require.NoError(t, err)
	assert.Empty(t, second.Excluded)
	require.Len(t, second.Before, 1)
	assert.Equal(t, "rack2-u2", second.Before[0].Host)
}

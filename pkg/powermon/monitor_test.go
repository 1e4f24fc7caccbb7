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
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/carverauto/bmcwatch/pkg/clock"
	"github.com/carverauto/bmcwatch/pkg/logger"
	"github.com/carverauto/bmcwatch/pkg/models"
)

var (
	testNow        = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	errUnreachable = errors.New("connection refused")
)

func newHost(ctrl *gomock.Controller, id string) *MockHost {
	h := NewMockHost(ctrl)
	h.EXPECT().ID().Return(id).AnyTimes()

	return h
}

func sample(watts float64, state models.PowerState) models.PowerSample {
	return models.PowerSample{CurrentWatts: watts, PowerState: state, SampledAt: testNow}
}

func testConfig() Config {
	return Config{
		ThresholdWatts: 540,
		Action:         models.RemediationGracefulShutdown,
		SettleDelay:    models.Duration(30 * time.Second),
	}
}

func newTestMonitor(t *testing.T, cfg Config, hosts []Host, opts ...Option) (*Monitor, *clock.Fake) {
	t.Helper()

	clk := clock.NewFake(testNow)

	m, err := NewMonitor(cfg, hosts, logger.NewTestLogger(), append([]Option{WithClock(clk)}, opts...)...)
	require.NoError(t, err)

	return m, clk
}

func TestThresholds(t *testing.T) {
	samples := []models.PowerSample{
		{Host: "a", CurrentWatts: 539.9},
		{Host: "b", CurrentWatts: 540},
		{Host: "c", CurrentWatts: 600},
		{Host: "d", CurrentWatts: 0},
	}

	marked := Thresholds(samples, 540)
	require.Len(t, marked, 2)
	assert.Equal(t, "b", marked[0].Host)
	assert.Equal(t, "c", marked[1].Host)

	assert.Empty(t, Thresholds(samples, 1000))
	assert.Empty(t, Thresholds(nil, 540))
}

func TestRunCycleRemediatesAndAnnotates(t *testing.T) {
	ctrl := gomock.NewController(t)
	a := newHost(ctrl, "a")
	b := newHost(ctrl, "b")

	a.EXPECT().Sample(gomock.Any()).Return(sample(500, models.PowerStateOn), nil).Times(2)
	gomock.InOrder(
		b.EXPECT().Sample(gomock.Any()).Return(sample(600, models.PowerStateOn), nil),
		b.EXPECT().Remediate(gomock.Any(), models.RemediationGracefulShutdown, float64(0)).Return(nil),
		b.EXPECT().Sample(gomock.Any()).Return(sample(0, models.PowerStateOff), nil),
	)

	m, clk := newTestMonitor(t, testConfig(), []Host{a, b})

	report, err := m.RunCycle(context.Background())
	require.NoError(t, err)

	require.Len(t, report.Before, 2)
	assert.Equal(t, "a", report.Before[0].Host)
	assert.Equal(t, "b", report.Before[1].Host)
	require.Len(t, report.After, 2)
	assert.Empty(t, report.Excluded)

	require.Len(t, report.Alerts, 1)
	assert.Equal(t, "b", report.Alerts[0].Host)

	require.Len(t, report.Actions, 1)
	action := report.Actions[0]
	assert.Equal(t, "b", action.Host)
	assert.InDelta(t, 600, action.TriggerWatts, 0)
	assert.InDelta(t, 540, action.ThresholdWatts, 0)
	assert.Equal(t, models.RemediationEffective, action.Outcome)
	assert.Contains(t, action.Summary, "600W")
	assert.Contains(t, action.Summary, "540W")
	assert.Contains(t, action.Summary, "Power Off")
	assert.Empty(t, report.Ineffective())

	assert.Equal(t, []time.Duration{30 * time.Second}, clk.Waits())
	assert.NotEmpty(t, report.ID)
	assert.Equal(t, testNow, report.StartedAt)
}

func TestRunCycleBoundaryIsViolation(t *testing.T) {
	ctrl := gomock.NewController(t)
	h := newHost(ctrl, "edge")

	gomock.InOrder(
		h.EXPECT().Sample(gomock.Any()).Return(sample(540, models.PowerStateOn), nil),
		h.EXPECT().Remediate(gomock.Any(), models.RemediationGracefulShutdown, gomock.Any()).Return(nil),
		h.EXPECT().Sample(gomock.Any()).Return(sample(0, models.PowerStateOff), nil),
	)

	m, _ := newTestMonitor(t, testConfig(), []Host{h})

	report, err := m.RunCycle(context.Background())
	require.NoError(t, err)
	require.Len(t, report.Actions, 1)
	assert.Equal(t, models.RemediationEffective, report.Actions[0].Outcome)
}

func TestRunCycleBelowThreshold(t *testing.T) {
	ctrl := gomock.NewController(t)
	h := newHost(ctrl, "a")
	h.EXPECT().Sample(gomock.Any()).Return(sample(200, models.PowerStateOn), nil)

	m, clk := newTestMonitor(t, testConfig(), []Host{h})

	report, err := m.RunCycle(context.Background())
	require.NoError(t, err)
	assert.Len(t, report.Before, 1)
	assert.Empty(t, report.After)
	assert.Empty(t, report.Actions)
	assert.Empty(t, clk.Waits())
}

func TestRunCycleExcludesUnresponsiveHost(t *testing.T) {
	ctrl := gomock.NewController(t)
	a := newHost(ctrl, "a")
	b := newHost(ctrl, "b")

	a.EXPECT().Sample(gomock.Any()).Return(models.PowerSample{}, errUnreachable)
	b.EXPECT().Sample(gomock.Any()).Return(sample(300, models.PowerStateOn), nil)

	m, _ := newTestMonitor(t, testConfig(), []Host{a, b})

	report, err := m.RunCycle(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, report.Excluded)
	require.Len(t, report.Before, 1)
	assert.Equal(t, "b", report.Before[0].Host)
}

func TestRunCycleIneffective(t *testing.T) {
	ctrl := gomock.NewController(t)
	a := newHost(ctrl, "a")
	b := newHost(ctrl, "b")

	gomock.InOrder(
		a.EXPECT().Sample(gomock.Any()).Return(sample(700, models.PowerStateOn), nil),
		a.EXPECT().Remediate(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil),
		a.EXPECT().Sample(gomock.Any()).Return(sample(690, models.PowerStateOn), nil),
	)
	gomock.InOrder(
		b.EXPECT().Sample(gomock.Any()).Return(sample(650, models.PowerStateOn), nil),
		b.EXPECT().Remediate(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil),
		b.EXPECT().Sample(gomock.Any()).Return(models.PowerSample{}, errUnreachable),
	)

	m, _ := newTestMonitor(t, testConfig(), []Host{a, b})

	report, err := m.RunCycle(context.Background())
	require.NoError(t, err)

	ineffective := report.Ineffective()
	require.Len(t, ineffective, 2)
	assert.Empty(t, ineffective[0].Summary)
	assert.Empty(t, ineffective[0].Error)
	assert.Equal(t, errUnresponsive.Error(), ineffective[1].Error)
	assert.Empty(t, report.Excluded)
	assert.Len(t, report.After, 1)
}

func TestRunCycleExecutionFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	h := newHost(ctrl, "a")

	h.EXPECT().Sample(gomock.Any()).Return(sample(800, models.PowerStateOn), nil)
	h.EXPECT().Remediate(gomock.Any(), gomock.Any(), gomock.Any()).Return(errors.New("reset not allowed"))

	m, clk := newTestMonitor(t, testConfig(), []Host{h})

	report, err := m.RunCycle(context.Background())
	require.NoError(t, err)

	failed := report.Failed()
	require.Len(t, failed, 1)
	assert.Equal(t, "reset not allowed", failed[0].Error)
	assert.Empty(t, report.Ineffective())
	assert.Empty(t, report.After)
	assert.Empty(t, clk.Waits())
}

func TestRunCyclePowerCap(t *testing.T) {
	ctrl := gomock.NewController(t)
	h := newHost(ctrl, "a")

	gomock.InOrder(
		h.EXPECT().Sample(gomock.Any()).Return(sample(600, models.PowerStateOn), nil),
		h.EXPECT().Remediate(gomock.Any(), models.RemediationPowerCap, float64(540)).Return(nil),
		h.EXPECT().Sample(gomock.Any()).Return(sample(520, models.PowerStateOn), nil),
	)

	cfg := testConfig()
	cfg.Action = models.RemediationPowerCap

	m, _ := newTestMonitor(t, cfg, []Host{h})

	report, err := m.RunCycle(context.Background())
	require.NoError(t, err)
	require.Len(t, report.Actions, 1)
	assert.Equal(t, models.RemediationEffective, report.Actions[0].Outcome)
	assert.Contains(t, report.Actions[0].Summary, "Power On")
	assert.Contains(t, report.Actions[0].Summary, "PowerCap")
}

func TestRunCyclePublishes(t *testing.T) {
	ctrl := gomock.NewController(t)
	h := newHost(ctrl, "a")
	pub := NewMockPublisher(ctrl)

	gomock.InOrder(
		h.EXPECT().Sample(gomock.Any()).Return(sample(600, models.PowerStateOn), nil),
		h.EXPECT().Remediate(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil),
		h.EXPECT().Sample(gomock.Any()).Return(sample(0, models.PowerStateOff), nil),
	)

	pub.EXPECT().PublishAlert(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, alert models.Alert) error {
			assert.Equal(t, "a", alert.Host)
			assert.InDelta(t, 600, alert.CurrentWatts, 0)

			return nil
		})
	pub.EXPECT().PublishRemediation(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, action models.RemediationAction) error {
			assert.Equal(t, models.RemediationEffective, action.Outcome)

			return errors.New("nats: no responders")
		})

	m, _ := newTestMonitor(t, testConfig(), []Host{h}, WithPublisher(pub))

	report, err := m.RunCycle(context.Background())
	require.NoError(t, err)
	assert.Len(t, report.Actions, 1)
}

func TestRunCycleTimeoutExcludesHost(t *testing.T) {
	ctrl := gomock.NewController(t)
	slow := newHost(ctrl, "slow")
	fast := newHost(ctrl, "fast")

	slow.EXPECT().Sample(gomock.Any()).DoAndReturn(func(ctx context.Context) (models.PowerSample, error) {
		<-ctx.Done()

		return models.PowerSample{}, ctx.Err()
	})
	fast.EXPECT().Sample(gomock.Any()).Return(sample(100, models.PowerStateOn), nil)

	cfg := testConfig()
	cfg.CycleTimeout = models.Duration(20 * time.Millisecond)

	m, _ := newTestMonitor(t, cfg, []Host{slow, fast})

	report, err := m.RunCycle(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"slow"}, report.Excluded)
	assert.Len(t, report.Before, 1)
}

func TestRunCycleSettleOutlastsCycleTimeout(t *testing.T) {
	ctrl := gomock.NewController(t)
	h := newHost(ctrl, "a")

	gomock.InOrder(
		h.EXPECT().Sample(gomock.Any()).Return(sample(600, models.PowerStateOn), nil),
		h.EXPECT().Remediate(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil),
		h.EXPECT().Sample(gomock.Any()).DoAndReturn(func(ctx context.Context) (models.PowerSample, error) {
			if err := ctx.Err(); err != nil {
				return models.PowerSample{}, err
			}

			return sample(0, models.PowerStateOff), nil
		}),
	)

	cfg := testConfig()
	cfg.SettleDelay = models.Duration(150 * time.Millisecond)
	cfg.CycleTimeout = models.Duration(100 * time.Millisecond)

	m, err := NewMonitor(cfg, []Host{h}, logger.NewTestLogger(), WithClock(clock.Real()))
	require.NoError(t, err)

	start := time.Now()

	report, err := m.RunCycle(context.Background())
	require.NoError(t, err)

	assert.GreaterOrEqual(t, time.Since(start), 150*time.Millisecond)
	require.Len(t, report.Actions, 1)
	assert.Equal(t, models.RemediationEffective, report.Actions[0].Outcome)
	assert.Empty(t, report.Actions[0].Error)
	assert.Len(t, report.After, 1)
}

func TestRunCycleCancelled(t *testing.T) {
	ctrl := gomock.NewController(t)
	h := newHost(ctrl, "a")
	h.EXPECT().Sample(gomock.Any()).Return(models.PowerSample{}, context.Canceled)

	m, _ := newTestMonitor(t, testConfig(), []Host{h})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := m.RunCycle(ctx)
	require.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, report)
	assert.Equal(t, []string{"a"}, report.Excluded)
}

func TestRunTicksUntilStopped(t *testing.T) {
	ctrl := gomock.NewController(t)
	h := newHost(ctrl, "a")
	h.EXPECT().Sample(gomock.Any()).Return(sample(100, models.PowerStateOn), nil).MinTimes(2)

	reports := make(chan *CycleReport, 4)
	m, clk := newTestMonitor(t, testConfig(), []Host{h},
		WithReportHandler(func(r *CycleReport) { reports <- r }))

	errCh := make(chan error, 1)

	go func() { errCh <- m.Start(context.Background()) }()

	first := <-reports
	clk.Tick()
	second := <-reports

	assert.NotEqual(t, first.ID, second.ID)

	require.NoError(t, m.Stop(context.Background()))
	require.NoError(t, <-errCh)
	require.NoError(t, m.Stop(context.Background()))
}

func TestNewMonitorRequiresHosts(t *testing.T) {
	_, err := NewMonitor(testConfig(), nil, nil)
	require.ErrorIs(t, err, ErrNoHosts)

	cfg := testConfig()
	cfg.ThresholdWatts = 0

	_, err = NewMonitor(cfg, []Host{NewMockHost(gomock.NewController(t))}, nil)
	require.ErrorIs(t, err, ErrInvalidThreshold)
}

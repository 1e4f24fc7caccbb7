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

// Package powermon samples power telemetry across a fleet of controllers,
// remediates hosts at or above a threshold and reconciles the result.
package powermon

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/carverauto/bmcwatch/pkg/clock"
	"github.com/carverauto/bmcwatch/pkg/lifecycle"
	"github.com/carverauto/bmcwatch/pkg/logger"
	"github.com/carverauto/bmcwatch/pkg/metrics"
	"github.com/carverauto/bmcwatch/pkg/models"
)

// Monitor runs sample, threshold, remediate and reconcile cycles over a
// fixed host list.
type Monitor struct {
	cfg       Config
	hosts     []Host
	clock     clock.Clock
	publisher Publisher
	handler   ReportHandler
	log       logger.Logger

	done      chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

var _ lifecycle.Service = (*Monitor)(nil)

// Option customises a Monitor.
type Option func(*Monitor)

// WithClock replaces the wall clock used for settle delays and ticks.
func WithClock(clk clock.Clock) Option {
	return func(m *Monitor) { m.clock = clk }
}

// WithPublisher sends alerts and remediation outcomes to p.
func WithPublisher(p Publisher) Option {
	return func(m *Monitor) { m.publisher = p }
}

// WithReportHandler receives every report produced by Start.
func WithReportHandler(h ReportHandler) Option {
	return func(m *Monitor) { m.handler = h }
}

// NewMonitor validates the policy part of cfg and builds a Monitor. The host
// list comes from hosts, not cfg.Hosts.
func NewMonitor(cfg Config, hosts []Host, log logger.Logger, opts ...Option) (*Monitor, error) {
	if err := cfg.validatePolicy(); err != nil {
		return nil, err
	}

	if len(hosts) == 0 {
		return nil, ErrNoHosts
	}

	if log == nil {
		log = logger.NewTestLogger()
	}

	m := &Monitor{
		cfg:   cfg,
		hosts: hosts,
		clock: clock.Real(),
		log:   logger.Component(log, "powermon"),
		done:  make(chan struct{}),
	}

	for _, opt := range opts {
		opt(m)
	}

	return m, nil
}

// RunCycle executes one full cycle. Unresponsive hosts are excluded, never
// fatal; an error is returned only when ctx itself is cancelled.
func (m *Monitor) RunCycle(ctx context.Context) (*CycleReport, error) {
	report := &CycleReport{
		ID:             uuid.NewString(),
		StartedAt:      m.clock.Now(),
		ThresholdWatts: m.cfg.ThresholdWatts,
	}

	cycleLog := m.log.With().Str(logger.FieldCycle, report.ID).Logger()

	cycleCtx, cancel := context.WithTimeout(ctx, time.Duration(m.cfg.CycleTimeout))
	defer cancel()

	report.Before, report.Excluded = m.sampleAll(cycleCtx)

	marked := Thresholds(report.Before, m.cfg.ThresholdWatts)

	metrics.RecordCycleHosts(ctx, len(report.Before), len(report.Excluded), len(marked))

	for _, s := range marked {
		alert := models.Alert{
			Host:           s.Host,
			CurrentWatts:   s.CurrentWatts,
			ThresholdWatts: m.cfg.ThresholdWatts,
			RaisedAt:       m.clock.Now(),
		}
		report.Alerts = append(report.Alerts, alert)

		cycleLog.Warn().Str(logger.FieldHost, s.Host).Float64("watts", s.CurrentWatts).
			Float64("threshold", m.cfg.ThresholdWatts).Msg("Power threshold exceeded")

		m.publishAlert(ctx, alert)
	}

	if len(marked) > 0 {
		report.Actions = m.remediateAll(cycleCtx, marked)
	}

	cancel()

	if executed(report.Actions) {
		m.settleAndReconcile(ctx, report)
	}

	for _, a := range report.Actions {
		metrics.RecordRemediation(ctx, string(a.Action), string(a.Outcome))

		if a.Outcome == models.RemediationIneffective {
			cycleLog.Warn().Str(logger.FieldHost, a.Host).Str("action", string(a.Action)).
				Str("error", a.Error).Msg("Remediation ineffective")
		}

		m.publishRemediation(ctx, a)
	}

	report.FinishedAt = m.clock.Now()

	if err := ctx.Err(); err != nil {
		return report, err
	}

	cycleLog.Info().Int("sampled", len(report.Before)).Int("excluded", len(report.Excluded)).
		Int("alerts", len(report.Alerts)).Msg("Power cycle complete")

	return report, nil
}

// settleAndReconcile waits out the settle delay on the parent context and
// re-samples under a fresh cycle timeout, so a settle delay longer than the
// cycle timeout is never truncated.
func (m *Monitor) settleAndReconcile(ctx context.Context, report *CycleReport) {
	select {
	case <-ctx.Done():
	case <-m.clock.After(time.Duration(m.cfg.SettleDelay)):
	}

	reconcileCtx, cancel := context.WithTimeout(ctx, time.Duration(m.cfg.CycleTimeout))
	defer cancel()

	report.After, _ = m.sampleAll(reconcileCtx)
	m.reconcile(report)
}

// sampleAll samples every host with bounded concurrency. The returned
// samples keep host order; failed hosts are listed as excluded.
func (m *Monitor) sampleAll(ctx context.Context) ([]models.PowerSample, []string) {
	samples := make([]models.PowerSample, len(m.hosts))
	errs := make([]error, len(m.hosts))

	var g errgroup.Group

	g.SetLimit(m.cfg.Concurrency)

	for i, h := range m.hosts {
		g.Go(func() error {
			samples[i], errs[i] = h.Sample(ctx)
			samples[i].Host = h.ID()

			return nil
		})
	}

	_ = g.Wait()

	var (
		out      []models.PowerSample
		excluded []string
	)

	for i, h := range m.hosts {
		if errs[i] != nil {
			m.log.Warn().Err(errs[i]).Str(logger.FieldHost, h.ID()).Msg("Host excluded from cycle")

			excluded = append(excluded, h.ID())

			continue
		}

		out = append(out, samples[i])
	}

	return out, excluded
}

func (m *Monitor) remediateAll(ctx context.Context, marked []models.PowerSample) []models.RemediationAction {
	byID := make(map[string]Host, len(m.hosts))
	for _, h := range m.hosts {
		byID[h.ID()] = h
	}

	out := make([]models.RemediationAction, len(marked))

	var g errgroup.Group

	g.SetLimit(m.cfg.Concurrency)

	for i, s := range marked {
		out[i] = models.RemediationAction{
			Host:           s.Host,
			TriggerWatts:   s.CurrentWatts,
			ThresholdWatts: m.cfg.ThresholdWatts,
			Action:         m.cfg.Action,
			ExecutedAt:     m.clock.Now(),
		}

		h := byID[s.Host]

		g.Go(func() error {
			if err := h.Remediate(ctx, m.cfg.Action, m.cfg.PowerLimitWatts); err != nil {
				m.log.Error().Err(err).Str(logger.FieldHost, s.Host).
					Str("action", string(m.cfg.Action)).Msg("Remediation failed to execute")

				out[i].Outcome = models.RemediationExecutionFailed
				out[i].Error = err.Error()

				return nil
			}

			out[i].Outcome = models.RemediationExecuted

			return nil
		})
	}

	_ = g.Wait()

	return out
}

// reconcile grades every executed action against the post-settle snapshot.
func (m *Monitor) reconcile(report *CycleReport) {
	after := make(map[string]models.PowerSample, len(report.After))
	for _, s := range report.After {
		after[s.Host] = s
	}

	for i := range report.Actions {
		a := &report.Actions[i]
		if a.Outcome != models.RemediationExecuted {
			continue
		}

		s, ok := after[a.Host]
		if !ok {
			a.Outcome = models.RemediationIneffective
			a.Error = errUnresponsive.Error()

			continue
		}

		if !m.effective(a.Action, s) {
			a.Outcome = models.RemediationIneffective

			continue
		}

		a.Outcome = models.RemediationEffective
		a.Summary = a.Annotate(s.PowerState)
	}
}

func (m *Monitor) effective(kind models.RemediationKind, s models.PowerSample) bool {
	if kind == models.RemediationPowerCap {
		return s.CurrentWatts < m.cfg.ThresholdWatts
	}

	return s.PowerState == models.PowerStateOff
}

func executed(actions []models.RemediationAction) bool {
	for _, a := range actions {
		if a.Outcome == models.RemediationExecuted {
			return true
		}
	}

	return false
}

func (m *Monitor) publishAlert(ctx context.Context, alert models.Alert) {
	if m.publisher == nil {
		return
	}

	if err := m.publisher.PublishAlert(ctx, alert); err != nil {
		m.log.Error().Err(err).Str(logger.FieldHost, alert.Host).Msg("Failed to publish alert")
	}
}

func (m *Monitor) publishRemediation(ctx context.Context, action models.RemediationAction) {
	if m.publisher == nil {
		return
	}

	if err := m.publisher.PublishRemediation(ctx, action); err != nil {
		m.log.Error().Err(err).Str(logger.FieldHost, action.Host).Msg("Failed to publish remediation")
	}
}

// Run executes a cycle immediately and then once per interval until ctx is
// cancelled or Stop is called. Cycles never overlap; ticks that arrive while
// a cycle runs are coalesced.
func (m *Monitor) Run(ctx context.Context, handler ReportHandler) error {
	m.wg.Add(1)
	defer m.wg.Done()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go func() {
		select {
		case <-m.done:
			cancel()
		case <-ctx.Done():
		}
	}()

	interval := time.Duration(m.cfg.Interval)
	ticker := m.clock.Ticker(interval)

	defer ticker.Stop()

	m.log.Info().Dur("interval", interval).Int("hosts", len(m.hosts)).Msg("Starting power monitor")

	m.cycle(ctx, handler)

	for {
		select {
		case <-ctx.Done():
			select {
			case <-m.done:
				return nil
			default:
				return ctx.Err()
			}
		case <-ticker.Chan():
			m.cycle(ctx, handler)
		}
	}
}

func (m *Monitor) cycle(ctx context.Context, handler ReportHandler) {
	report, err := m.RunCycle(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		m.log.Error().Err(err).Msg("Power cycle aborted")
	}

	if handler != nil && report != nil {
		handler(report)
	}
}

// Start implements lifecycle.Service.
func (m *Monitor) Start(ctx context.Context) error {
	return m.Run(ctx, m.handler)
}

// Stop implements lifecycle.Service. It waits for the running cycle to
// unwind.
func (m *Monitor) Stop(ctx context.Context) error {
	m.closeOnce.Do(func() {
		close(m.done)
	})

	finished := make(chan struct{})

	go func() {
		m.wg.Wait()
		close(finished)
	}()

	select {
	case <-finished:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

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

package main

import (
	"context"
	"errors"
	"io"
	"sync"

	"github.com/spf13/cobra"

	"github.com/carverauto/bmcwatch/pkg/conformance"
	"github.com/carverauto/bmcwatch/pkg/events"
	"github.com/carverauto/bmcwatch/pkg/lifecycle"
	"github.com/carverauto/bmcwatch/pkg/logger"
	"github.com/carverauto/bmcwatch/pkg/metrics"
	"github.com/carverauto/bmcwatch/pkg/powermon"
	"github.com/carverauto/bmcwatch/pkg/version"
)

func newMonitorCmd(a *app) *cobra.Command {
	var once bool

	cmd := &cobra.Command{
		Use:   "monitor",
		Short: "Watch fleet power usage and remediate hosts over the threshold",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runMonitor(cmd.Context(), cmd.OutOrStdout(), once)
		},
	}

	cmd.Flags().BoolVar(&once, "once", false, "run a single cycle and exit")

	return cmd
}

func (a *app) runMonitor(ctx context.Context, w io.Writer, once bool) error {
	if a.cfg.Monitor == nil {
		return errMonitorRequired
	}

	if _, err := metrics.InitExporter(ctx, a.cfg.Metrics, version.GetVersion()); err == nil {
		defer func() {
			if err := metrics.Shutdown(context.WithoutCancel(ctx)); err != nil {
				a.log.Error().Err(err).Msg("Failed to flush metrics")
			}
		}()
	} else if !errors.Is(err, metrics.ErrExporterDisabled) {
		return err
	}

	catalog, err := a.loadCatalog(ctx)
	if err != nil {
		return err
	}

	hosts, err := a.buildHosts(catalog)
	if err != nil {
		return err
	}

	var mu sync.Mutex

	opts := []powermon.Option{
		powermon.WithReportHandler(func(report *powermon.CycleReport) {
			mu.Lock()
			defer mu.Unlock()

			if err := a.write(w, report); err != nil {
				a.log.Error().Err(err).Msg("Failed to write cycle report")
			}
		}),
	}

	if a.cfg.Events.Enabled {
		pub, err := events.Connect(ctx, a.cfg.Events, a.log)
		if err != nil {
			return err
		}

		defer func() {
			if err := pub.Close(); err != nil {
				a.log.Error().Err(err).Msg("Failed to close event publisher")
			}
		}()

		opts = append(opts, powermon.WithPublisher(pub))
	}

	m, err := powermon.NewMonitor(*a.cfg.Monitor, hosts, a.log, opts...)
	if err != nil {
		return err
	}

	if once {
		report, err := m.RunCycle(ctx)
		if err != nil {
			return err
		}

		return a.write(w, report)
	}

	return lifecycle.RunService(ctx, a.log, m)
}

// buildHosts creates one host per configured controller. Sessions are
// established on first use, so a controller that is down at startup is
// excluded from each cycle until it answers.
func (a *app) buildHosts(catalog *conformance.Catalog) ([]powermon.Host, error) {
	cfg := a.cfg.Monitor
	hosts := make([]powermon.Host, 0, len(cfg.Hosts))

	for _, hc := range cfg.Hosts {
		h, err := powermon.NewHost(hc, catalog, nil, logger.Host(a.log, hc.ID))
		if err != nil {
			return nil, err
		}

		hosts = append(hosts, h)
	}

	return hosts, nil
}

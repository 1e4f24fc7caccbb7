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
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/carverauto/bmcwatch/pkg/actions"
	"github.com/carverauto/bmcwatch/pkg/inventory"
)

var errInvalidWatts = errors.New(`power limit must be a positive number of watts or "none"`)

// actionRunner executes one mutating operation against an open session.
type actionRunner func(ctx context.Context, s *session, args []string) (interface{}, error)

func (a *app) actionCmd(use, short string, args cobra.PositionalArgs, run actionRunner) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  args,
		RunE: func(cmd *cobra.Command, argv []string) error {
			s, err := a.openSession(cmd.Context())
			if err != nil {
				return err
			}

			out, err := run(cmd.Context(), s, argv)
			if err != nil {
				return err
			}

			return a.finish(cmd.OutOrStdout(), s, out)
		},
	}
}

func newActionCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "action",
		Short: "Run a mutating operation on the configured controller",
	}

	var system string

	resetSystem := a.actionCmd("reset-system <reset-type>", "Reset the selected systems", cobra.ExactArgs(1),
		func(ctx context.Context, s *session, args []string) (interface{}, error) {
			sel := inventory.SystemSelector(system)
			if system == "" {
				sel = a.cfg.Inventory.System
			}

			return s.actions.ResetSystem(ctx, sel, actions.ResetType(args[0]))
		})
	resetSystem.Flags().StringVar(&system, "system", "", `system id, "all", or empty for the first system`)

	resetManager := a.actionCmd("reset-manager <reset-type>", "Reset every manager", cobra.ExactArgs(1),
		func(ctx context.Context, s *session, args []string) (interface{}, error) {
			return s.actions.ResetManager(ctx, actions.ResetType(args[0]))
		})

	powerLimit := a.actionCmd("power-limit <watts|none>", "Set or clear the chassis power limit", cobra.ExactArgs(1),
		func(ctx context.Context, s *session, args []string) (interface{}, error) {
			watts, err := parseWatts(args[0])
			if err != nil {
				return nil, err
			}

			return s.actions.SetPowerLimit(ctx, watts)
		})

	correction := a.actionCmd("power-limit-correction <ms>", "Set the power limit correction time",
		cobra.ExactArgs(1),
		func(ctx context.Context, s *session, args []string) (interface{}, error) {
			ms, err := strconv.Atoi(args[0])
			if err != nil {
				return nil, fmt.Errorf("invalid correction time %q: %w", args[0], err)
			}

			return s.actions.SetPowerLimitCorrection(ctx, ms)
		})

	exception := a.actionCmd("power-limit-exception <NoAction|HardPowerOff|LogEventOnly|Oem>",
		"Set the action taken when the power limit is exceeded", cobra.ExactArgs(1),
		func(ctx context.Context, s *session, args []string) (interface{}, error) {
			return s.actions.SetPowerLimitException(ctx, actions.LimitException(args[0]))
		})

	cmd.AddCommand(resetSystem, resetManager, powerLimit, correction, exception,
		newNetworkProtocolCmd(a), newSubscriptionCmds(a), newTestEventCmd(a))

	return cmd
}

func newNetworkProtocolCmd(a *app) *cobra.Command {
	var (
		disable bool
		port    int
	)

	cmd := a.actionCmd("network-protocol <service>", "Enable or disable a manager network service",
		cobra.ExactArgs(1),
		func(ctx context.Context, s *session, args []string) (interface{}, error) {
			svc, err := actions.ParseService(args[0])
			if err != nil {
				return nil, err
			}

			return s.actions.SetNetworkProtocol(ctx, svc, !disable, port)
		})

	cmd.Flags().BoolVar(&disable, "disable", false, "disable the service instead of enabling it")
	cmd.Flags().IntVar(&port, "port", 0, "port for services that have one")

	return cmd
}

func newSubscriptionCmds(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "subscription",
		Short: "Manage event service subscriptions",
	}

	var sub actions.Subscription

	add := a.actionCmd("add <destination>", "Register an event destination", cobra.ExactArgs(1),
		func(ctx context.Context, s *session, args []string) (interface{}, error) {
			sub.Destination = args[0]

			return s.actions.AddEventSubscription(ctx, sub)
		})

	add.Flags().StringVar((*string)(&sub.Format), "format", string(actions.EventFormatEvent), "event format (Event|MetricReport)")
	add.Flags().StringVar((*string)(&sub.Protocol), "protocol", string(actions.ProtocolRedfish), "delivery protocol")
	add.Flags().StringVar(&sub.Context, "context", "", "opaque context string returned with every event")

	remove := a.actionCmd("delete <destination>", "Remove the subscription for a destination", cobra.ExactArgs(1),
		func(ctx context.Context, s *session, args []string) (interface{}, error) {
			return s.actions.DeleteEventSubscription(ctx, args[0])
		})

	cmd.AddCommand(add, remove)

	return cmd
}

func newTestEventCmd(a *app) *cobra.Command {
	ev := actions.TestEvent{}

	cmd := a.actionCmd("test-event", "Ask the controller to send a test event", cobra.NoArgs,
		func(ctx context.Context, s *session, _ []string) (interface{}, error) {
			if err := s.actions.SubmitTestEvent(ctx, ev); err != nil {
				return nil, err
			}

			return "submitted", nil
		})

	cmd.Flags().StringVar(&ev.EventID, "event-id", "bmcwatch-test", "event id")
	cmd.Flags().StringVar(&ev.Message, "message", "bmcwatch test event", "event message")
	cmd.Flags().StringVar((*string)(&ev.Severity), "severity", string(actions.SeverityOK), "severity (OK|Warning|Critical)")

	return cmd
}

func parseWatts(arg string) (*float64, error) {
	if strings.EqualFold(arg, "none") {
		return nil, nil //nolint:nilnil // nil clears the limit
	}

	watts, err := strconv.ParseFloat(arg, 64)
	if err != nil || watts <= 0 {
		return nil, fmt.Errorf("%w: %q", errInvalidWatts, arg)
	}

	return &watts, nil
}

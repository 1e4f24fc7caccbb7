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
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/carverauto/bmcwatch/pkg/inventory"
)

var errUnknownQuery = errors.New("unknown inventory query")

type inventoryQuery func(ctx context.Context, s *session, opts *inventoryOptions) (interface{}, error)

type inventoryOptions struct {
	system    string
	biosMode  string
	attribute string
}

func (o *inventoryOptions) selector() inventory.SystemSelector {
	return inventory.SystemSelector(o.system)
}

//nolint:gochecknoglobals // static command table
var inventoryQueries = map[string]inventoryQuery{
	"service-root": func(ctx context.Context, s *session, _ *inventoryOptions) (interface{}, error) {
		return s.queries.ServiceRoot(ctx)
	},
	"systems": func(ctx context.Context, s *session, o *inventoryOptions) (interface{}, error) {
		return s.queries.SystemURLs(ctx, o.selector())
	},
	"power-state": func(ctx context.Context, s *session, o *inventoryOptions) (interface{}, error) {
		return s.queries.PowerState(ctx, o.selector())
	},
	"bios": func(ctx context.Context, s *session, o *inventoryOptions) (interface{}, error) {
		if o.attribute != "" {
			return s.queries.BIOSAttribute(ctx, o.selector(), o.attribute)
		}

		return s.queries.BIOSAttributes(ctx, o.selector(), inventory.BIOSMode(o.biosMode))
	},
	"chassis": func(ctx context.Context, s *session, _ *inventoryOptions) (interface{}, error) {
		return s.queries.Chassis(ctx)
	},
	"storage": func(ctx context.Context, s *session, o *inventoryOptions) (interface{}, error) {
		return s.queries.Storage(ctx, o.selector())
	},
	"psu": func(ctx context.Context, s *session, _ *inventoryOptions) (interface{}, error) {
		return s.queries.PowerSupplies(ctx)
	},
	"temperatures": func(ctx context.Context, s *session, _ *inventoryOptions) (interface{}, error) {
		return s.queries.Temperatures(ctx)
	},
	"fans": func(ctx context.Context, s *session, _ *inventoryOptions) (interface{}, error) {
		return s.queries.Fans(ctx)
	},
	"logs": func(ctx context.Context, s *session, _ *inventoryOptions) (interface{}, error) {
		return s.queries.ManagerLogs(ctx)
	},
	"power-usage": func(ctx context.Context, s *session, _ *inventoryOptions) (interface{}, error) {
		return s.queries.PowerUsage(ctx)
	},
}

func queryNames() []string {
	names := make([]string, 0, len(inventoryQueries))
	for name := range inventoryQueries {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

func newInventoryCmd(a *app) *cobra.Command {
	opts := &inventoryOptions{}

	cmd := &cobra.Command{
		Use:       "inventory <query>",
		Short:     "Read inventory from the configured controller",
		Long:      "Read inventory from the configured controller. Queries: " + strings.Join(queryNames(), ", "),
		Args:      cobra.ExactArgs(1),
		ValidArgs: queryNames(),
		RunE: func(cmd *cobra.Command, args []string) error {
			query, ok := inventoryQueries[args[0]]
			if !ok {
				return fmt.Errorf("%w: %q", errUnknownQuery, args[0])
			}

			if opts.system == "" {
				opts.system = string(a.cfg.Inventory.System)
			}

			if opts.biosMode == "" {
				opts.biosMode = string(a.cfg.Inventory.BIOSMode)
			}

			if opts.attribute == "" {
				opts.attribute = a.cfg.Inventory.Attribute
			}

			s, err := a.openSession(cmd.Context())
			if err != nil {
				return err
			}

			out, err := query(cmd.Context(), s, opts)
			if err != nil {
				return err
			}

			return a.finish(cmd.OutOrStdout(), s, out)
		},
	}

	cmd.Flags().StringVar(&opts.system, "system", "", `system id, "all", or empty for the first system`)
	cmd.Flags().StringVar(&opts.biosMode, "bios-mode", "", "bios query mode (current|pending)")
	cmd.Flags().StringVar(&opts.attribute, "attribute", "", "single bios attribute to read")

	return cmd
}

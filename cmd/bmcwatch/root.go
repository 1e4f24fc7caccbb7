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
	"fmt"

	"github.com/spf13/cobra"

	"github.com/carverauto/bmcwatch/pkg/config"
	"github.com/carverauto/bmcwatch/pkg/lifecycle"
	"github.com/carverauto/bmcwatch/pkg/logger"
	"github.com/carverauto/bmcwatch/pkg/version"
)

const (
	defaultConfigPath = "/etc/bmcwatch/bmcwatch.yaml"
	outputJSON        = "json"
	outputYAML        = "yaml"
)

// app carries the state shared by every subcommand.
type app struct {
	configPath string
	output     string
	logLevel   string

	cfg Config
	log logger.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "bmcwatch",
		Short:         "Query, validate and remediate Redfish controllers",
		Version:       version.GetFullVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init(cmd.Context())
		},
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&a.configPath, "config", "c", defaultConfigPath, "path to the configuration file")
	flags.StringVarP(&a.output, "output", "o", outputJSON, "output format (json|yaml)")
	flags.StringVar(&a.logLevel, "log-level", "", "override the configured log level")

	root.AddCommand(
		newInventoryCmd(a),
		newActionCmd(a),
		newValidateCmd(a),
		newMonitorCmd(a),
	)

	return root
}

func (a *app) init(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	if a.output != outputJSON && a.output != outputYAML {
		return fmt.Errorf("%w: %q", errUnknownOutput, a.output)
	}

	if err := config.NewConfig(nil).LoadAndValidate(ctx, a.configPath, &a.cfg); err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if a.logLevel != "" {
		a.cfg.Logging.Level = a.logLevel
	}

	log, err := lifecycle.CreateComponentLogger("bmcwatch", a.cfg.Logging)
	if err != nil {
		return err
	}

	a.log = log

	return nil
}

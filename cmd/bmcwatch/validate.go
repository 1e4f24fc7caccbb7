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
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/carverauto/bmcwatch/pkg/redfish"
)

// crawlReport lists what a validate run visited.
type crawlReport struct {
	Visited []string          `json:"visited"`
	Failed  map[string]string `json:"failed,omitempty"`
}

func newValidateCmd(a *app) *cobra.Command {
	var maxResources int

	cmd := &cobra.Command{
		Use:   "validate [path...]",
		Short: "Fetch resources and record URI and schema conformance",
		Long: "Fetch the given paths, or crawl from the service root when none are given, " +
			"recording a URI and schema validation result for every resource.",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.openSession(cmd.Context())
			if err != nil {
				return err
			}

			start := args
			if len(start) == 0 {
				start = []string{redfish.ServiceRoot}
			}

			report := crawl(cmd.Context(), s, start, len(args) == 0, maxResources)

			return a.finish(cmd.OutOrStdout(), s, report)
		},
	}

	cmd.Flags().IntVar(&maxResources, "max", 500, "maximum number of resources to fetch while crawling")

	return cmd
}

// crawl fetches every path in start and, when follow is set, every
// resource linked from them under the service root, breadth first. A
// failed fetch is recorded and does not stop the crawl.
func crawl(ctx context.Context, s *session, start []string, follow bool, limit int) crawlReport {
	report := crawlReport{Failed: map[string]string{}}
	seen := make(map[string]bool)
	queue := append([]string(nil), start...)

	for _, p := range queue {
		seen[p] = true
	}

	sink := s.recorder.Section("Validate", s.client.Host())

	for len(queue) > 0 && len(report.Visited) < limit {
		if ctx.Err() != nil {
			break
		}

		path := queue[0]
		queue = queue[1:]

		res, err := s.client.Get(ctx, path, sink)
		report.Visited = append(report.Visited, path)

		if err != nil {
			report.Failed[path] = err.Error()
			if errors.Is(err, context.Canceled) {
				break
			}

			continue
		}

		if !follow {
			continue
		}

		for _, link := range odataLinks(res.Body) {
			if seen[link] || !strings.HasPrefix(link, redfish.ServiceRoot) {
				continue
			}

			seen[link] = true
			queue = append(queue, link)
		}
	}

	if len(report.Failed) == 0 {
		report.Failed = nil
	}

	return report
}

// odataLinks returns every @odata.id found anywhere in body, minus
// fragment references, sorted.
func odataLinks(body interface{}) []string {
	found := make(map[string]bool)

	var walk func(v interface{})

	walk = func(v interface{}) {
		switch t := v.(type) {
		case map[string]interface{}:
			for k, child := range t {
				if k == "@odata.id" {
					if id, ok := child.(string); ok && !strings.Contains(id, "#") {
						found[id] = true
					}

					continue
				}

				walk(child)
			}
		case []interface{}:
			for _, child := range t {
				walk(child)
			}
		}
	}

	walk(body)

	out := make([]string, 0, len(found))
	for id := range found {
		out = append(out, id)
	}

	sort.Strings(out)

	return out
}

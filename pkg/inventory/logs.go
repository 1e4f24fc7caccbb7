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

package inventory

import (
	"context"
	"fmt"

	"github.com/carverauto/bmcwatch/pkg/models"
)

// LogEntry is one manager log entry tagged with its log service.
type LogEntry struct {
	Manager    string `json:"manager"`
	LogService string `json:"log_service"`
	Entry      Record `json:"entry"`
}

// ManagerLogs returns every entry of every log service of every manager.
// Log services without an Entries collection are skipped.
func (q *Queries) ManagerLogs(ctx context.Context) ([]LogEntry, error) {
	const name = "ManagerLogs"

	sink := q.section(name)

	managers, err := q.collection(ctx, "Managers", sink)
	if err != nil {
		return nil, q.fail(name, err)
	}

	var out []LogEntry

	for _, mgr := range managers {
		if !mgr.Has("LogServices") {
			return nil, q.fail(name, fmt.Errorf("%w: %s", errMissingLogService, mgr.Path))
		}

		coll, err := q.follow(ctx, mgr, sink, "LogServices")
		if err != nil {
			return nil, q.fail(name, err)
		}

		services, err := q.members(ctx, coll, sink)
		if err != nil {
			return nil, q.fail(name, err)
		}

		for _, svc := range services {
			if !svc.Has("Entries") {
				continue
			}

			entries, err := q.follow(ctx, svc, sink, "Entries")
			if err != nil {
				return nil, q.fail(name, err)
			}

			for _, e := range entries.Objects(models.KeyMembers) {
				out = append(out, LogEntry{
					Manager:    mgr.String("Id"),
					LogService: svc.String("Id"),
					Entry:      Project(KindLogEntry, e),
				})
			}
		}
	}

	return out, nil
}

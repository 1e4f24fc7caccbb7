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

	"github.com/carverauto/bmcwatch/pkg/compliance"
	"github.com/carverauto/bmcwatch/pkg/models"
)

// StorageSubsystem is one storage member of a system.
type StorageSubsystem struct {
	SystemURL   string   `json:"system_url"`
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Drives      []Record `json:"drives"`
	Volumes     []Record `json:"volumes"`
	Controllers []Record `json:"storage_controllers"`
}

// Storage walks Storage, or SimpleStorage on older services, for every
// selected system.
func (q *Queries) Storage(ctx context.Context, sel SystemSelector) ([]StorageSubsystem, error) {
	const name = "Storage"

	sink := q.section(name)

	systems, err := q.systems(ctx, sel, sink)
	if err != nil {
		return nil, q.fail(name, err)
	}

	var out []StorageSubsystem

	for _, sys := range systems {
		key := "Storage"
		if !sys.Has(key) {
			key = "SimpleStorage"
		}

		coll, err := q.follow(ctx, sys, sink, key)
		if err != nil {
			return nil, q.fail(name, err)
		}

		members, err := q.members(ctx, coll, sink)
		if err != nil {
			return nil, q.fail(name, err)
		}

		for _, m := range members {
			sub, err := q.storageSubsystem(ctx, m, sink)
			if err != nil {
				return nil, q.fail(name, err)
			}

			sub.SystemURL = sys.Path
			out = append(out, sub)
		}
	}

	return out, nil
}

func (q *Queries) storageSubsystem(ctx context.Context, m *models.Resource, sink compliance.Sink) (StorageSubsystem, error) {
	sub := StorageSubsystem{
		ID:          m.String("Id"),
		Name:        m.String("Name"),
		Drives:      []Record{},
		Volumes:     []Record{},
		Controllers: projectAll(KindStorageController, m.Objects("StorageControllers")),
	}

	if drives := models.LinksOf(m.Body["Drives"]); len(drives) > 0 {
		for _, link := range drives {
			d, err := q.client.Get(ctx, link, sink)
			if err != nil {
				return sub, err
			}

			sub.Drives = append(sub.Drives, Project(KindDrive, d.Body))
		}
	} else {
		sub.Drives = append(sub.Drives, projectAll(KindDrive, m.Objects("Devices"))...)
	}

	if m.Has("Volumes") {
		coll, err := q.follow(ctx, m, sink, "Volumes")
		if err != nil {
			return sub, err
		}

		volumes, err := q.members(ctx, coll, sink)
		if err != nil {
			return sub, err
		}

		for _, v := range volumes {
			sub.Volumes = append(sub.Volumes, Project(KindVolume, v.Body))
		}
	}

	return sub, nil
}

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

package actions

import (
	"context"
	"fmt"

	"github.com/carverauto/bmcwatch/pkg/compliance"
	"github.com/carverauto/bmcwatch/pkg/inventory"
	"github.com/carverauto/bmcwatch/pkg/models"
)

// ResetType is the Redfish ResetType enumeration.
type ResetType string

const (
	ResetOn               ResetType = "On"
	ResetForceOff         ResetType = "ForceOff"
	ResetGracefulShutdown ResetType = "GracefulShutdown"
	ResetGracefulRestart  ResetType = "GracefulRestart"
	ResetForceRestart     ResetType = "ForceRestart"
	ResetNmi              ResetType = "Nmi"
	ResetForceOn          ResetType = "ForceOn"
	ResetPushPowerButton  ResetType = "PushPowerButton"
	ResetPowerCycle       ResetType = "PowerCycle"
)

// Valid reports whether t is a defined ResetType.
func (t ResetType) Valid() bool {
	switch t {
	case ResetOn, ResetForceOff, ResetGracefulShutdown, ResetGracefulRestart, ResetForceRestart,
		ResetNmi, ResetForceOn, ResetPushPowerButton, ResetPowerCycle:
		return true
	default:
		return false
	}
}

const (
	systemReset  = "#ComputerSystem.Reset"
	managerReset = "#Manager.Reset"
)

// ResetSystem posts the ComputerSystem.Reset action to every selected system
// and returns the system URIs that were reset.
func (a *Actions) ResetSystem(ctx context.Context, sel inventory.SystemSelector, resetType ResetType) ([]string, error) {
	const name = "ResetSystem"

	if !resetType.Valid() {
		return nil, a.fail(name, fmt.Errorf("%w: %q", ErrInvalidResetType, resetType))
	}

	sink := a.section(name)

	coll, err := a.fromRoot(ctx, "Systems", sink)
	if err != nil {
		return nil, a.fail(name, err)
	}

	urls, err := sel.Pick(coll.Members())
	if err != nil {
		return nil, a.fail(name, err)
	}

	done := make([]string, 0, len(urls))

	for _, u := range urls {
		sys, err := a.client.Get(ctx, u, sink)
		if err != nil {
			return done, a.fail(name, err)
		}

		if err := a.reset(ctx, sys, systemReset, resetType, sink); err != nil {
			return done, a.fail(name, err)
		}

		done = append(done, u)
	}

	a.log.Info().Str("reset_type", string(resetType)).Strs("systems", done).Msg("Systems reset")

	return done, nil
}

// ResetManager posts the Manager.Reset action to every manager.
func (a *Actions) ResetManager(ctx context.Context, resetType ResetType) ([]string, error) {
	const name = "ResetManager"

	if !resetType.Valid() {
		return nil, a.fail(name, fmt.Errorf("%w: %q", ErrInvalidResetType, resetType))
	}

	sink := a.section(name)

	managers, err := a.collectionMembers(ctx, "Managers", sink)
	if err != nil {
		return nil, a.fail(name, err)
	}

	done := make([]string, 0, len(managers))

	for _, mgr := range managers {
		if err := a.reset(ctx, mgr, managerReset, resetType, sink); err != nil {
			return done, a.fail(name, err)
		}

		done = append(done, mgr.Path)
	}

	return done, nil
}

func (a *Actions) reset(ctx context.Context, res *models.Resource, action string, resetType ResetType, sink compliance.Sink) error {
	target, err := actionTarget(res, action)
	if err != nil {
		return err
	}

	if v, ok := res.Lookup("Actions", action, "ResetType@Redfish.AllowableValues"); ok {
		if !allowed(v, string(resetType)) {
			return fmt.Errorf("%w: %q on %s", ErrResetNotAllowed, resetType, res.Path)
		}
	}

	_, err = a.client.Post(ctx, target, map[string]string{"ResetType": string(resetType)}, nil, sink)

	return err
}

func allowed(values interface{}, want string) bool {
	list, _ := values.([]interface{})
	for _, v := range list {
		if s, _ := v.(string); s == want {
			return true
		}
	}

	return false
}

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

import "errors"

var (
	ErrNoHosts           = errors.New("at least one host is required")
	ErrDuplicateHost     = errors.New("duplicate host id")
	ErrHostIDRequired    = errors.New("host id is required")
	ErrInvalidThreshold  = errors.New("threshold_watts must be positive")
	ErrInvalidAction     = errors.New("action must be ForceOff, GracefulShutdown or PowerCap")
	ErrInvalidInterval   = errors.New("polling interval must be positive")
	ErrInvalidTimeType   = errors.New("time_type must be seconds, minutes or hours")
	ErrInvalidPowerLimit = errors.New("power_limit_watts must be positive")
	errUnresponsive      = errors.New("host did not respond during reconciliation")
)

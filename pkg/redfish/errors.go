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

package redfish

import (
	"errors"
	"fmt"
	"time"

	"github.com/carverauto/bmcwatch/pkg/models"
)

var (
	// ErrUnreachable matches every *TransportError.
	ErrUnreachable = errors.New("controller unreachable")
	// ErrRejected matches every *RejectedError.
	ErrRejected = errors.New("request rejected")
	// ErrTaskFailed matches every *TaskFailedError.
	ErrTaskFailed = errors.New("task failed")
	// ErrTaskTimeout matches every *TaskTimeoutError.
	ErrTaskTimeout = errors.New("task polling limit exceeded")
	// ErrSessionStart means the initial endpoint session could not be established.
	ErrSessionStart = errors.New("failed to start controller session")
	// ErrInvalidMethod is returned for verbs outside the supported set.
	ErrInvalidMethod = errors.New("unsupported method")

	errMissingBaseURL = errors.New("base_url is required")
	errBadSuccessCode = errors.New("invalid success code")
	errNoSystems      = errors.New("service exposes no systems")
)

// TransportError means no response was received.
type TransportError struct {
	Method Method
	Path   string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Method, e.Path, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

func (*TransportError) Is(target error) bool { return target == ErrUnreachable }

// RejectedError means the status was outside the method's success set.
type RejectedError struct {
	Method  Method
	Path    string
	Status  int
	Message string
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.Path, e.Status, e.Message)
}

func (*RejectedError) Is(target error) bool { return target == ErrRejected }

// TaskFailedError means an async task reached a failed terminal state.
type TaskFailedError struct {
	MonitorURI string
	State      string
	Status     int
	Message    string
}

func (e *TaskFailedError) Error() string {
	return fmt.Sprintf("task %s failed in state %q (status %d): %s", e.MonitorURI, e.State, e.Status, e.Message)
}

func (*TaskFailedError) Is(target error) bool { return target == ErrTaskFailed }

// TaskTimeoutError means the polling policy gave up before a terminal state.
type TaskTimeoutError struct {
	MonitorURI string
	Attempts   int
	Elapsed    time.Duration
	LastState  models.TaskState
}

func (e *TaskTimeoutError) Error() string {
	return fmt.Sprintf("task %s still %s after %d polls (%s)", e.MonitorURI, e.LastState, e.Attempts, e.Elapsed)
}

func (*TaskTimeoutError) Is(target error) bool { return target == ErrTaskTimeout }

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
	"context"
	"net/http"
	"strings"

	"github.com/carverauto/bmcwatch/pkg/logger"
	"github.com/carverauto/bmcwatch/pkg/metrics"
	"github.com/carverauto/bmcwatch/pkg/models"
)

// taskReference returns the monitor URI for a response that started an
// asynchronous task, or "" when the operation finished synchronously.
func taskReference(res *models.Resource) string {
	if res.Status == http.StatusAccepted {
		if loc := res.Header.Get("Location"); loc != "" {
			return loc
		}
	}

	if !isTask(res) {
		return ""
	}

	if mon := res.String(models.KeyTaskMon); mon != "" {
		return mon
	}

	if state, ok := models.ParseTaskState(res.String(models.KeyTaskState)); ok && state.Terminal() {
		return ""
	}

	return res.String(models.KeyODataID)
}

func isTask(res *models.Resource) bool {
	return strings.HasPrefix(res.TypeTag, "#Task.")
}

// waitTask polls monitor until the task reaches a terminal state or the
// policy gives up. It never returns while the task is still running.
func (c *Client) waitTask(ctx context.Context, method Method, monitor string) (*models.Resource, error) {
	task := &models.AsyncTask{MonitorURI: monitor, State: models.TaskPending}
	start := c.clock.Now()

	log := c.log.With().
		Str(logger.FieldOperation, method.String()).
		Str("monitor", monitor).
		Str(logger.FieldHost, c.Host()).
		Logger()

	for {
		res, err := c.send(ctx, MethodGet, monitor, nil, nil)
		if err != nil {
			return nil, err
		}

		task.Attempts++
		c.observeTask(task, res)
		metrics.RecordTaskPoll(ctx, string(task.State))

		log.Debug().
			Int("attempt", task.Attempts).
			Str("state", task.RawState).
			Dur("retry_after", task.RetryAfter).
			Msg("Polled task monitor")

		switch task.State {
		case models.TaskCompleted:
			task.Result = res
			return res, nil
		case models.TaskFailed:
			terr := &TaskFailedError{
				MonitorURI: monitor,
				State:      task.RawState,
				Status:     res.Status,
				Message:    ExtendedMessage(res),
			}
			c.logFailure(method, monitor, terr.Message, terr)

			return res, terr
		case models.TaskPending, models.TaskRunning:
		}

		elapsed := c.clock.Now().Sub(start)
		if task.Attempts >= c.policy.MaxAttempts || elapsed+task.RetryAfter > c.policy.Timeout.OrDefault(defaultTaskTimeout) {
			terr := &TaskTimeoutError{
				MonitorURI: monitor,
				Attempts:   task.Attempts,
				Elapsed:    elapsed,
				LastState:  task.State,
			}
			c.logFailure(method, monitor, terr.Error(), terr)

			return nil, terr
		}

		select {
		case <-ctx.Done():
			return nil, &TransportError{Method: MethodGet, Path: monitor, Err: ctx.Err()}
		case <-c.clock.After(task.RetryAfter):
		}
	}
}

// observeTask updates task from one monitor response. A 202 means the task
// is still processing; any other success status ends it unless the body is a
// task document that says otherwise.
func (c *Client) observeTask(task *models.AsyncTask, res *models.Resource) {
	task.RetryAfter = c.policy.DefaultRetryAfter.OrDefault(defaultRetryAfter)
	if d, ok := retryAfter(res.Header, c.clock.Now()); ok {
		task.RetryAfter = d
	}

	task.RawState = res.String(models.KeyTaskState)
	parsed, known := models.ParseTaskState(task.RawState)

	switch {
	case res.Status == http.StatusAccepted:
		task.State = models.TaskRunning
		if known && !parsed.Terminal() {
			task.State = parsed
		}
	case res.Status >= http.StatusBadRequest:
		task.State = models.TaskFailed
	case known:
		task.State = parsed
	case isTask(res):
		// a task document with an unrecognised state keeps polling
		task.State = models.TaskRunning
	default:
		task.State = models.TaskCompleted
	}

	if task.RawState == "" {
		task.RawState = string(task.State)
	}
}

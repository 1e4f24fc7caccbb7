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

package lifecycle

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/carverauto/bmcwatch/pkg/logger"
)

// Service is a long running component driven by RunService.
type Service interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}

// RunService starts svc and blocks until ctx is cancelled, SIGINT/SIGTERM
// arrives, or Start returns. Stop is always called before returning.
func RunService(ctx context.Context, log logger.Logger, svc Service) error {
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	errCh := make(chan error, 1)

	go func() {
		errCh <- svc.Start(ctx)
	}()

	var runErr error

	select {
	case <-ctx.Done():
		log.Info().Msg("Shutdown requested")
	case runErr = <-errCh:
		if runErr != nil && !errors.Is(runErr, context.Canceled) {
			log.Error().Err(runErr).Msg("Service exited with error")
		}
	}

	cancel()

	if err := svc.Stop(context.WithoutCancel(ctx)); err != nil {
		log.Error().Err(err).Msg("Failed to stop service")

		return errors.Join(runErr, err)
	}

	if errors.Is(runErr, context.Canceled) {
		return nil
	}

	return runErr
}

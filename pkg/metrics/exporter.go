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

package metrics

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.31.0"
	"google.golang.org/grpc/credentials"

	"github.com/carverauto/bmcwatch/pkg/models"
	"github.com/carverauto/bmcwatch/pkg/natsutil"
)

// ErrExporterDisabled is returned by InitExporter when no collector is configured.
var ErrExporterDisabled = errors.New("OTLP metrics exporter disabled")

const (
	defaultServiceName    = "bmcwatch"
	defaultExportInterval = 15 * time.Second
)

//nolint:gochecknoglobals // global state is required for coordinated shutdown
var (
	providerMu sync.Mutex
	provider   *sdkmetric.MeterProvider
)

// ExporterConfig points the process meter provider at an OTLP collector.
type ExporterConfig struct {
	Enabled        bool              `json:"enabled"`
	Endpoint       string            `json:"endpoint"`
	Insecure       bool              `json:"insecure"`
	Headers        map[string]string `json:"headers,omitempty"`
	TLS            *models.TLSConfig `json:"tls,omitempty"`
	ServiceName    string            `json:"service_name"`
	ExportInterval models.Duration   `json:"export_interval"`
}

// InitExporter installs a global MeterProvider that pushes every instrument
// in this package to the configured collector. Calling it again returns the
// existing provider.
func InitExporter(ctx context.Context, cfg ExporterConfig, version string) (*sdkmetric.MeterProvider, error) {
	if !cfg.Enabled || cfg.Endpoint == "" {
		return nil, ErrExporterDisabled
	}

	providerMu.Lock()
	defer providerMu.Unlock()

	if provider != nil {
		return provider, nil
	}

	opts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithEndpoint(cfg.Endpoint)}

	switch {
	case cfg.Insecure:
		opts = append(opts, otlpmetricgrpc.WithInsecure())
	case cfg.TLS != nil:
		tlsConfig, err := natsutil.TLSConfig(cfg.TLS)
		if err != nil {
			return nil, fmt.Errorf("failed to setup metrics TLS configuration: %w", err)
		}

		opts = append(opts, otlpmetricgrpc.WithTLSCredentials(credentials.NewTLS(tlsConfig)))
	}

	if len(cfg.Headers) > 0 {
		opts = append(opts, otlpmetricgrpc.WithHeaders(cfg.Headers))
	}

	exporter, err := otlpmetricgrpc.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create OTLP metric exporter: %w", err)
	}

	name := cfg.ServiceName
	if name == "" {
		name = defaultServiceName
	}

	res, err := resource.New(ctx, resource.WithAttributes(
		semconv.ServiceName(name),
		semconv.ServiceVersion(version),
	))
	if err != nil {
		return nil, fmt.Errorf("failed to create metrics resource: %w", err)
	}

	reader := sdkmetric.NewPeriodicReader(exporter,
		sdkmetric.WithInterval(cfg.ExportInterval.OrDefault(defaultExportInterval)))

	provider = sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(reader),
	)
	otel.SetMeterProvider(provider)

	return provider, nil
}

// Shutdown flushes and stops the provider installed by InitExporter.
func Shutdown(ctx context.Context) error {
	providerMu.Lock()
	defer providerMu.Unlock()

	if provider == nil {
		return nil
	}

	if err := provider.Shutdown(ctx); err != nil {
		return err
	}

	provider = nil

	return nil
}

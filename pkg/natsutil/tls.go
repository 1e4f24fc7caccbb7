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

package natsutil

import (
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/carverauto/bmcwatch/pkg/models"
)

var (
	// ErrTLSConfigRequired is returned when TLSConfig is called without file names.
	ErrTLSConfigRequired = errors.New("tls configuration requires cert, key and ca files")
	// ErrCAParsingFailed is returned when CA certificate cannot be parsed
	ErrCAParsingFailed = errors.New("failed to parse CA certificate")
)

// TLSConfig builds a tls.Config for mTLS to NATS or an OTLP collector.
func TLSConfig(sec *models.TLSConfig) (*tls.Config, error) {
	if sec == nil || sec.CertFile == "" || sec.KeyFile == "" || sec.CAFile == "" {
		return nil, ErrTLSConfigRequired
	}

	certFile := resolve(sec.CertDir, sec.CertFile)
	keyFile := resolve(sec.CertDir, sec.KeyFile)
	caFile := resolve(sec.CertDir, sec.CAFile)

	cert, err := tls.LoadX509KeyPair(certFile, keyFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load client certificate: %w", err)
	}

	caCert, err := os.ReadFile(caFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read CA certificate: %w", err)
	}

	caPool := x509.NewCertPool()
	if !caPool.AppendCertsFromPEM(caCert) {
		return nil, ErrCAParsingFailed
	}

	return &tls.Config{
		Certificates: []tls.Certificate{cert},
		RootCAs:      caPool,
		ServerName:   sec.ServerName,
		MinVersion:   tls.VersionTLS13,
	}, nil
}

func resolve(dir, file string) string {
	if dir == "" || filepath.IsAbs(file) {
		return file
	}

	return filepath.Join(dir, file)
}

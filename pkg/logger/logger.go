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

// Package logger provides JSON structured logging using zerolog
package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Field names shared by every component so log lines can be correlated
// across the protocol client, the catalog and the fleet monitor.
const (
	FieldComponent = "component"
	FieldOperation = "operation"
	FieldPath      = "path"
	FieldHost      = "host"
	FieldMethod    = "method"
	FieldStatus    = "status"
	FieldCycle     = "cycle_id"

	FieldExtendedMessage = "extended_message"
)

type zlogger struct {
	logger zerolog.Logger
}

// New builds a Logger from cfg. A nil cfg uses DefaultConfig.
func New(cfg *Config) (Logger, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	var output io.Writer = os.Stderr
	if cfg.Output == "stdout" {
		output = os.Stdout
	}

	level, err := parseLevel(cfg)
	if err != nil {
		return nil, err
	}

	if cfg.TimeFormat != "" {
		zerolog.TimeFieldFormat = cfg.TimeFormat
	} else {
		zerolog.TimeFieldFormat = time.RFC3339
	}

	return NewWithWriter(output, level), nil
}

// NewWithWriter builds a Logger that writes JSON lines to w.
func NewWithWriter(w io.Writer, level zerolog.Level) Logger {
	return &zlogger{
		logger: zerolog.New(w).Level(level).With().Timestamp().Logger(),
	}
}

func parseLevel(cfg *Config) (zerolog.Level, error) {
	if cfg.Debug {
		return zerolog.DebugLevel, nil
	}

	if cfg.Level == "" {
		return zerolog.InfoLevel, nil
	}

	return zerolog.ParseLevel(cfg.Level)
}

func (l *zlogger) Trace() *zerolog.Event { return l.logger.Trace() }
func (l *zlogger) Debug() *zerolog.Event { return l.logger.Debug() }
func (l *zlogger) Info() *zerolog.Event  { return l.logger.Info() }
func (l *zlogger) Warn() *zerolog.Event  { return l.logger.Warn() }
func (l *zlogger) Error() *zerolog.Event { return l.logger.Error() }
func (l *zlogger) Fatal() *zerolog.Event { return l.logger.Fatal() }
func (l *zlogger) Panic() *zerolog.Event { return l.logger.Panic() }
func (l *zlogger) With() zerolog.Context { return l.logger.With() }

func (l *zlogger) WithComponent(component string) zerolog.Logger {
	return l.logger.With().Str(FieldComponent, component).Logger()
}

func (l *zlogger) WithFields(fields map[string]interface{}) zerolog.Logger {
	ctx := l.logger.With()
	for key, value := range fields {
		ctx = ctx.Interface(key, value)
	}

	return ctx.Logger()
}

func (l *zlogger) SetLevel(level zerolog.Level) {
	l.logger = l.logger.Level(level)
}

func (l *zlogger) SetDebug(debug bool) {
	if debug {
		l.SetLevel(zerolog.DebugLevel)
	} else {
		l.SetLevel(zerolog.InfoLevel)
	}
}

// Component returns a Logger whose every line carries component.
func Component(parent Logger, component string) Logger {
	if parent == nil {
		return NewTestLogger()
	}

	return &zlogger{logger: parent.WithComponent(component)}
}

// Host returns a Logger whose every line carries the host identifier.
func Host(parent Logger, host string) Logger {
	if parent == nil {
		return NewTestLogger()
	}

	return &zlogger{logger: parent.With().Str(FieldHost, host).Logger()}
}

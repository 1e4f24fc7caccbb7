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

package config

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/carverauto/bmcwatch/pkg/logger"
	"github.com/carverauto/bmcwatch/pkg/models"
)

var (
	// ErrDstMustBeNonNilPointer indicates that the destination must be a non-nil pointer.
	ErrDstMustBeNonNilPointer = errors.New("dst must be a non-nil pointer")
	// ErrDstMustBePointerToStruct indicates that the destination must be a pointer to a struct.
	ErrDstMustBePointerToStruct = errors.New("dst must be a pointer to a struct")
)

var (
	durationType       = reflect.TypeOf(time.Duration(0))
	modelsDurationType = reflect.TypeOf(models.Duration(0))
)

// EnvConfigLoader loads configuration from environment variables.
// Nested struct fields are joined with underscores, so with prefix
// BMCWATCH_ the field monitor.threshold_watts maps to
// BMCWATCH_MONITOR_THRESHOLD_WATTS. <prefix>CONFIG_JSON, when set,
// replaces per-field lookup entirely.
type EnvConfigLoader struct {
	logger logger.Logger
	prefix string
}

// NewEnvConfigLoader creates a new environment variable config loader.
func NewEnvConfigLoader(log logger.Logger, prefix string) *EnvConfigLoader {
	if log == nil {
		log = logger.NewTestLogger()
	}

	return &EnvConfigLoader{
		logger: log,
		prefix: prefix,
	}
}

// Load implements ConfigLoader by reading from environment variables.
func (e *EnvConfigLoader) Load(_ context.Context, _ string, dst interface{}) error {
	if jsonConfig := os.Getenv(e.prefix + "CONFIG_JSON"); jsonConfig != "" {
		if err := json.Unmarshal([]byte(jsonConfig), dst); err != nil {
			return fmt.Errorf("failed to unmarshal CONFIG_JSON: %w", err)
		}

		e.logger.Info().Msg("Loaded configuration from CONFIG_JSON environment variable")

		return nil
	}

	v := reflect.ValueOf(dst)
	if v.Kind() != reflect.Ptr || v.IsNil() {
		return ErrDstMustBeNonNilPointer
	}

	v = v.Elem()
	if v.Kind() != reflect.Struct {
		return ErrDstMustBePointerToStruct
	}

	e.loadStruct(v, e.prefix)

	return nil
}

func (e *EnvConfigLoader) loadStruct(v reflect.Value, prefix string) {
	t := v.Type()

	for i := 0; i < t.NumField(); i++ {
		field := v.Field(i)
		if !field.CanSet() {
			continue
		}

		name, _, _ := strings.Cut(t.Field(i).Tag.Get("json"), ",")
		if name == "" || name == "-" {
			continue
		}

		envName := prefix + strings.ToUpper(strings.ReplaceAll(name, ".", "_"))

		if err := e.setField(field, envName); err != nil {
			// one bad variable does not abort the rest
			e.logger.Warn().Str("env", envName).Err(err).Msg("Ignoring environment variable")
		}
	}
}

func (e *EnvConfigLoader) setField(field reflect.Value, envName string) error {
	if isStructLike(field) {
		if field.Kind() == reflect.Ptr {
			if field.IsNil() {
				field.Set(reflect.New(field.Type().Elem()))
			}

			field = field.Elem()
		}

		e.loadStruct(field, envName+"_")

		return nil
	}

	raw, ok := os.LookupEnv(envName)
	if !ok || raw == "" {
		return nil
	}

	if field.Kind() == reflect.Ptr {
		if field.IsNil() {
			field.Set(reflect.New(field.Type().Elem()))
		}

		field = field.Elem()
	}

	return setScalar(field, envName, raw)
}

func isStructLike(field reflect.Value) bool {
	t := field.Type()
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	return t.Kind() == reflect.Struct && t != reflect.TypeOf(time.Time{})
}

func setScalar(field reflect.Value, envName, raw string) error {
	switch field.Kind() {
	case reflect.String:
		field.SetString(raw)
	case reflect.Bool:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return fmt.Errorf("invalid boolean value for %s: %w", envName, err)
		}

		field.SetBool(b)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if field.Type() == durationType || field.Type() == modelsDurationType {
			d, err := time.ParseDuration(raw)
			if err != nil {
				return fmt.Errorf("invalid duration value for %s: %w", envName, err)
			}

			field.SetInt(int64(d))

			return nil
		}

		i, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid integer value for %s: %w", envName, err)
		}

		field.SetInt(i)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		u, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid unsigned integer value for %s: %w", envName, err)
		}

		field.SetUint(u)
	case reflect.Float32, reflect.Float64:
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return fmt.Errorf("invalid float value for %s: %w", envName, err)
		}

		field.SetFloat(f)
	case reflect.Slice:
		if field.Type().Elem().Kind() == reflect.String && !strings.HasPrefix(strings.TrimSpace(raw), "[") {
			parts := strings.Split(raw, ",")
			slice := reflect.MakeSlice(field.Type(), len(parts), len(parts))

			for i, p := range parts {
				slice.Index(i).SetString(strings.TrimSpace(p))
			}

			field.Set(slice)

			return nil
		}

		return unmarshalInto(field, envName, raw)
	default:
		return unmarshalInto(field, envName, raw)
	}

	return nil
}

func unmarshalInto(field reflect.Value, envName, raw string) error {
	if err := json.Unmarshal([]byte(raw), field.Addr().Interface()); err != nil {
		return fmt.Errorf("unsupported value for %s (%s): %w", envName, field.Kind(), err)
	}

	return nil
}

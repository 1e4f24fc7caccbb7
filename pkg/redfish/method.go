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
	"fmt"
	"net/http"
	"strings"
)

// Method is the closed set of verbs the client issues.
type Method int

const (
	MethodGet Method = iota
	MethodPatch
	MethodPost
	MethodDelete
)

// Methods lists every supported method.
func Methods() []Method {
	return []Method{MethodGet, MethodPatch, MethodPost, MethodDelete}
}

func (m Method) String() string {
	switch m {
	case MethodGet:
		return http.MethodGet
	case MethodPatch:
		return http.MethodPatch
	case MethodPost:
		return http.MethodPost
	case MethodDelete:
		return http.MethodDelete
	}

	return fmt.Sprintf("Method(%d)", int(m))
}

// Valid reports whether m is one of the supported methods.
func (m Method) Valid() bool {
	return m >= MethodGet && m <= MethodDelete
}

// MayStartTask reports whether a response to m can carry a task reference.
func (m Method) MayStartTask() bool {
	return m == MethodPatch || m == MethodPost
}

// ParseMethod maps a verb name onto Method, case-insensitively.
func ParseMethod(s string) (Method, error) {
	for _, m := range Methods() {
		if strings.EqualFold(s, m.String()) {
			return m, nil
		}
	}

	return 0, fmt.Errorf("%w: %q", ErrInvalidMethod, s)
}

// defaultSuccessCodes are the statuses treated as success per method.
func defaultSuccessCodes(m Method) []int {
	switch m {
	case MethodGet:
		return []int{http.StatusOK}
	case MethodPatch:
		return []int{http.StatusOK, http.StatusAccepted, http.StatusNoContent}
	case MethodPost:
		return []int{http.StatusOK, http.StatusCreated, http.StatusAccepted, http.StatusNoContent}
	case MethodDelete:
		return []int{http.StatusOK, http.StatusAccepted, http.StatusNoContent}
	}

	return nil
}

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

package conformance

import "errors"

var (
	// ErrSpecLoad means the interface definition could not be fetched or
	// parsed. Nothing can be validated without it.
	ErrSpecLoad = errors.New("interface specification unavailable")
	// ErrSchemaFetch means a single schema document is missing or invalid.
	// Callers skip body validation for that resource.
	ErrSchemaFetch = errors.New("schema unavailable")
	// ErrNotLoaded is returned when the catalog is queried before Load.
	ErrNotLoaded = errors.New("specification catalog not loaded")

	errUnexpectedStatusCode = errors.New("unexpected status code")
	errNoPaths              = errors.New("document has no paths")
)

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

package models

import "time"

// ValidationKind distinguishes path conformance from body conformance.
type ValidationKind string

const (
	ValidationURI    ValidationKind = "URI"
	ValidationSchema ValidationKind = "Schema"
)

// Outcome is the result of a single conformance check.
type Outcome string

const (
	OutcomePass Outcome = "Pass"
	OutcomeFail Outcome = "Fail"
	// OutcomeSkipped marks a schema check that could not run because the
	// schema document was unavailable.
	OutcomeSkipped Outcome = "Skipped"
)

// SchemaMismatch pinpoints where a body diverged from its schema.
type SchemaMismatch struct {
	InstancePath string `json:"instance_path"`
	KeywordPath  string `json:"keyword_path"`
	Expected     string `json:"expected"`
	Actual       string `json:"actual"`
}

// ValidationRecord is one appended compliance outcome. Records are never
// mutated after they are appended.
type ValidationRecord struct {
	SectionID string          `json:"section_id,omitempty"`
	Host      string          `json:"host,omitempty"`
	Path      string          `json:"path"`
	Method    string          `json:"method,omitempty"`
	Kind      ValidationKind  `json:"kind"`
	Outcome   Outcome         `json:"outcome"`
	Detail    string          `json:"detail,omitempty"`
	Schema    string          `json:"schema,omitempty"`
	Mismatch  *SchemaMismatch `json:"mismatch,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

// Passed is a convenience for callers that only care about pass/fail.
func (r ValidationRecord) Passed() bool {
	return r.Outcome == OutcomePass
}

// Section groups the records produced by one inventory or action call.
type Section struct {
	ID        string             `json:"id"`
	Name      string             `json:"name"`
	Host      string             `json:"host,omitempty"`
	StartedAt time.Time          `json:"started_at"`
	Records   []ValidationRecord `json:"records"`
}

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

// Package compliance accumulates conformance validation records for a session.
package compliance

import (
	"context"
	"sync"
	"time"

	"github.com/carverauto/bmcwatch/pkg/metrics"
	"github.com/carverauto/bmcwatch/pkg/models"
	"github.com/google/uuid"
)

// Sink receives validation records. Implementations must be safe for
// concurrent use.
type Sink interface {
	Record(rec models.ValidationRecord)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(rec models.ValidationRecord)

// Record implements Sink.
func (f SinkFunc) Record(rec models.ValidationRecord) { f(rec) }

// Discard drops every record.
//
//nolint:gochecknoglobals // stateless sentinel sink
var Discard Sink = SinkFunc(func(models.ValidationRecord) {})

// Summary counts records by outcome.
type Summary struct {
	Pass    int `json:"pass"`
	Fail    int `json:"fail"`
	Skipped int `json:"skipped"`
}

// Recorder is an append-only, sectioned log of validation records.
type Recorder struct {
	mu       sync.Mutex
	sections []*models.Section
	index    map[string]int
	records  []models.ValidationRecord
	now      func() time.Time
}

// NewRecorder creates an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{
		index: make(map[string]int),
		now:   time.Now,
	}
}

// Section opens a new section and returns a Sink that tags every record
// with it. Sections are reported in the order they were opened.
func (r *Recorder) Section(name, host string) Sink {
	r.mu.Lock()
	defer r.mu.Unlock()

	sec := &models.Section{
		ID:        uuid.NewString(),
		Name:      name,
		Host:      host,
		StartedAt: r.now(),
	}

	r.index[sec.ID] = len(r.sections)
	r.sections = append(r.sections, sec)

	return &sectionSink{recorder: r, id: sec.ID, host: host}
}

// Record appends rec without a section.
func (r *Recorder) Record(rec models.ValidationRecord) {
	r.append(rec)
}

func (r *Recorder) append(rec models.ValidationRecord) {
	if rec.Timestamp.IsZero() {
		rec.Timestamp = r.now()
	}

	r.mu.Lock()
	r.records = append(r.records, rec)

	if i, ok := r.index[rec.SectionID]; ok {
		r.sections[i].Records = append(r.sections[i].Records, rec)
	}
	r.mu.Unlock()

	metrics.RecordValidation(context.Background(), string(rec.Kind), string(rec.Outcome))
}

// Records returns a copy of every record in append order.
func (r *Recorder) Records() []models.ValidationRecord {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]models.ValidationRecord, len(r.records))
	copy(out, r.records)

	return out
}

// Sections returns a copy of every section with its records.
func (r *Recorder) Sections() []models.Section {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]models.Section, len(r.sections))

	for i, s := range r.sections {
		out[i] = *s
		out[i].Records = append([]models.ValidationRecord(nil), s.Records...)
	}

	return out
}

// Summary counts all records by outcome.
func (r *Recorder) Summary() Summary {
	r.mu.Lock()
	defer r.mu.Unlock()

	var s Summary

	for _, rec := range r.records {
		switch rec.Outcome {
		case models.OutcomePass:
			s.Pass++
		case models.OutcomeFail:
			s.Fail++
		case models.OutcomeSkipped:
			s.Skipped++
		}
	}

	return s
}

type sectionSink struct {
	recorder *Recorder
	id       string
	host     string
}

func (s *sectionSink) Record(rec models.ValidationRecord) {
	rec.SectionID = s.id
	if rec.Host == "" {
		rec.Host = s.host
	}

	s.recorder.append(rec)
}

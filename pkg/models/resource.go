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

import (
	"net/http"
	"strings"
	"time"
)

// Well-known Redfish payload keys.
const (
	KeyODataID    = "@odata.id"
	KeyODataType  = "@odata.type"
	KeyODataEtag  = "@odata.etag"
	KeyMembers    = "Members"
	KeyTaskState  = "TaskState"
	KeyTaskMon    = "TaskMonitor"
	KeyExtendInfo = "@Message.ExtendedInfo"
)

// Endpoint identifies one controller instance. It is resolved once when the
// session starts and never mutated afterwards.
type Endpoint struct {
	BaseURL        string `json:"base_url"`
	Username       string `json:"username,omitempty"`
	Password       string `json:"-"`
	RedfishVersion string `json:"redfish_version,omitempty"`
	Manufacturer   string `json:"manufacturer,omitempty"`
	Model          string `json:"model,omitempty"`
}

// HasCredentials reports whether basic authentication should be used.
func (e Endpoint) HasCredentials() bool {
	return e.Username != ""
}

// Resource is one fetched path and its decoded body. Resources are never
// cached; every fetch yields a new value.
type Resource struct {
	Path    string                 `json:"path"`
	Status  int                    `json:"status"`
	Header  http.Header            `json:"-"`
	Body    map[string]interface{} `json:"body,omitempty"`
	Raw     []byte                 `json:"-"`
	TypeTag string                 `json:"type_tag,omitempty"`
}

// NewResource builds a Resource and extracts the type tag from the body.
func NewResource(path string, status int, header http.Header, body map[string]interface{}, raw []byte) *Resource {
	r := &Resource{
		Path:   path,
		Status: status,
		Header: header,
		Body:   body,
		Raw:    raw,
	}

	if tag, ok := body[KeyODataType].(string); ok {
		r.TypeTag = tag
	}

	return r
}

// Lookup walks nested objects by key and returns the value found at the end.
func (r *Resource) Lookup(keys ...string) (interface{}, bool) {
	if r == nil {
		return nil, false
	}

	return Lookup(r.Body, keys...)
}

// String returns the string at keys, or "" when absent or not a string.
func (r *Resource) String(keys ...string) string {
	v, ok := r.Lookup(keys...)
	if !ok {
		return ""
	}

	s, _ := v.(string)

	return s
}

// Float returns the number at keys.
func (r *Resource) Float(keys ...string) (float64, bool) {
	v, ok := r.Lookup(keys...)
	if !ok {
		return 0, false
	}

	f, ok := v.(float64)

	return f, ok
}

// Has reports whether the top-level key is present.
func (r *Resource) Has(key string) bool {
	if r == nil {
		return false
	}

	_, ok := r.Body[key]

	return ok
}

// Link returns the @odata.id of the navigation property at keys.
func (r *Resource) Link(keys ...string) (string, bool) {
	path := make([]string, 0, len(keys)+1)
	path = append(append(path, keys...), KeyODataID)

	v, ok := r.Lookup(path...)
	if !ok {
		return "", false
	}

	s, ok := v.(string)

	return s, ok && s != ""
}

// Members returns the @odata.id of every entry in the collection's Members.
func (r *Resource) Members() []string {
	return LinksOf(r.Body[KeyMembers])
}

// ETag returns the entity tag from the body, falling back to the header.
func (r *Resource) ETag() string {
	if tag := r.String(KeyODataEtag); tag != "" {
		return tag
	}

	if r.Header != nil {
		return r.Header.Get("ETag")
	}

	return ""
}

// Objects returns the array at key as a list of objects, skipping non-objects.
func (r *Resource) Objects(keys ...string) []map[string]interface{} {
	v, ok := r.Lookup(keys...)
	if !ok {
		return nil
	}

	return ObjectsOf(v)
}

// Lookup walks nested maps by key.
func Lookup(body map[string]interface{}, keys ...string) (interface{}, bool) {
	var cur interface{} = body

	for _, k := range keys {
		m, ok := cur.(map[string]interface{})
		if !ok {
			return nil, false
		}

		cur, ok = m[k]
		if !ok {
			return nil, false
		}
	}

	return cur, true
}

// LinksOf extracts @odata.id values from an array of link objects.
func LinksOf(v interface{}) []string {
	objs := ObjectsOf(v)
	links := make([]string, 0, len(objs))

	for _, o := range objs {
		if id, ok := o[KeyODataID].(string); ok && id != "" {
			links = append(links, id)
		}
	}

	return links
}

// ObjectsOf converts a decoded JSON array into its object elements.
func ObjectsOf(v interface{}) []map[string]interface{} {
	arr, ok := v.([]interface{})
	if !ok {
		return nil
	}

	out := make([]map[string]interface{}, 0, len(arr))

	for _, item := range arr {
		if m, ok := item.(map[string]interface{}); ok {
			out = append(out, m)
		}
	}

	return out
}

// LastSegment returns the final path element of a resource URI.
func LastSegment(path string) string {
	path = strings.TrimRight(path, "/")
	if i := strings.LastIndex(path, "/"); i >= 0 {
		return path[i+1:]
	}

	return path
}

// TaskState is the lifecycle state of an asynchronous controller operation.
type TaskState string

const (
	TaskPending   TaskState = "Pending"
	TaskRunning   TaskState = "Running"
	TaskCompleted TaskState = "Completed"
	TaskFailed    TaskState = "Failed"
)

// Terminal reports whether polling should stop.
func (s TaskState) Terminal() bool {
	return s == TaskCompleted || s == TaskFailed
}

// ParseTaskState maps a Redfish TaskState value onto the reduced state set.
func ParseTaskState(raw string) (TaskState, bool) {
	switch raw {
	case "New", "Starting", "Pending", "Suspended", "Stopping", "Service":
		return TaskPending, true
	case "Running":
		return TaskRunning, true
	case "Completed":
		return TaskCompleted, true
	case "Exception", "Killed", "Cancelled", "Interrupted":
		return TaskFailed, true
	default:
		return "", false
	}
}

// AsyncTask tracks a long-running PATCH/POST while it is being polled.
type AsyncTask struct {
	MonitorURI string
	State      TaskState
	RawState   string
	RetryAfter time.Duration
	Attempts   int
	Result     *Resource
}

// SpecEntry is one path template from the interface definition document.
type SpecEntry struct {
	Template string   `json:"template"`
	Methods  []string `json:"methods"`
	Schema   string   `json:"schema,omitempty"`
}

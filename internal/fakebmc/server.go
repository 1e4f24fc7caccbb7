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

// Package fakebmc serves an in-memory Redfish resource tree for tests.
package fakebmc

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
)

// Recorded is one request the server received.
type Recorded struct {
	Method string
	Path   string
	Header http.Header
	Body   map[string]interface{}
}

// Server is a Redfish controller backed by a map of path to body. GET
// returns the stored body, PATCH merges into it, POST to a collection
// creates a member, POST elsewhere is accepted as an action, and DELETE
// removes the resource and its collection link.
type Server struct {
	*httptest.Server

	mu        sync.Mutex
	resources map[string]map[string]interface{}
	handlers  map[string]http.HandlerFunc
	requests  []Recorded
	nextID    int
}

// New starts a server that is closed when the test ends.
func New(t testing.TB) *Server {
	t.Helper()

	s := &Server{
		resources: make(map[string]map[string]interface{}),
		handlers:  make(map[string]http.HandlerFunc),
	}
	s.Server = httptest.NewServer(http.HandlerFunc(s.serve))
	t.Cleanup(s.Close)

	return s
}

func key(method, path string) string {
	return method + " " + path
}

// Set stores body at path, filling @odata.id when missing.
func (s *Server) Set(path string, body map[string]interface{}) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := body["@odata.id"]; !ok {
		body["@odata.id"] = path
	}

	s.resources[path] = body
}

// Resource returns a deep copy of the body stored at path.
func (s *Server) Resource(path string) (map[string]interface{}, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	body, ok := s.resources[path]
	if !ok {
		return nil, false
	}

	return clone(body), true
}

// Update merges patch into the resource at path, the way PATCH does.
func (s *Server) Update(path string, patch map[string]interface{}) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if res, ok := s.resources[path]; ok {
		merge(res, patch)
	}
}

// Remove deletes the resource at path.
func (s *Server) Remove(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.resources, path)
}

// Handle overrides the default behavior for one method and path.
func (s *Server) Handle(method, path string, h http.HandlerFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.handlers[key(method, path)] = h
}

// Fail makes method on path answer status with a Redfish error body.
func (s *Server) Fail(method, path string, status int, message string) {
	s.Handle(method, path, func(w http.ResponseWriter, _ *http.Request) {
		WriteError(w, status, message)
	})
}

// Restore removes an override installed by Handle or Fail.
func (s *Server) Restore(method, path string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.handlers, key(method, path))
}

// Requests returns received requests, optionally filtered by method.
func (s *Server) Requests(method string) []Recorded {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []Recorded

	for _, r := range s.requests {
		if method == "" || r.Method == method {
			out = append(out, r)
		}
	}

	return out
}

// Count returns how many requests hit method and path.
func (s *Server) Count(method, path string) int {
	n := 0

	for _, r := range s.Requests(method) {
		if r.Path == path {
			n++
		}
	}

	return n
}

func (s *Server) serve(w http.ResponseWriter, r *http.Request) {
	var body map[string]interface{}

	if data, err := io.ReadAll(r.Body); err == nil && len(data) > 0 {
		_ = json.Unmarshal(data, &body)
	}

	path := strings.TrimRight(r.URL.Path, "/")
	if path == "" {
		path = "/"
	}

	s.mu.Lock()
	s.requests = append(s.requests, Recorded{Method: r.Method, Path: path, Header: r.Header.Clone(), Body: body})
	h, overridden := s.handlers[key(r.Method, path)]
	s.mu.Unlock()

	if overridden {
		h(w, r)
		return
	}

	switch r.Method {
	case http.MethodGet:
		s.get(w, path)
	case http.MethodPatch:
		s.patch(w, path, body)
	case http.MethodPost:
		s.post(w, path, body)
	case http.MethodDelete:
		s.delete(w, path)
	default:
		WriteError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *Server) get(w http.ResponseWriter, path string) {
	res, ok := s.Resource(path)
	if !ok {
		WriteError(w, http.StatusNotFound, fmt.Sprintf("resource %s not found", path))
		return
	}

	WriteJSON(w, http.StatusOK, res)
}

func (s *Server) patch(w http.ResponseWriter, path string, body map[string]interface{}) {
	s.mu.Lock()
	res, ok := s.resources[path]
	if ok {
		merge(res, body)
	}
	s.mu.Unlock()

	if !ok {
		WriteError(w, http.StatusNotFound, fmt.Sprintf("resource %s not found", path))
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) post(w http.ResponseWriter, path string, body map[string]interface{}) {
	s.mu.Lock()
	coll, ok := s.resources[path]
	_, isCollection := coll["Members"]

	if !ok || !isCollection {
		s.mu.Unlock()
		w.WriteHeader(http.StatusNoContent)

		return
	}

	s.nextID++
	member := fmt.Sprintf("%s/%d", path, s.nextID)

	created := clone(body)
	if created == nil {
		created = map[string]interface{}{}
	}

	created["@odata.id"] = member
	created["Id"] = fmt.Sprint(s.nextID)
	s.resources[member] = created

	members, _ := coll["Members"].([]interface{})
	coll["Members"] = append(members, map[string]interface{}{"@odata.id": member})
	coll["Members@odata.count"] = len(members) + 1
	s.mu.Unlock()

	w.Header().Set("Location", member)
	WriteJSON(w, http.StatusCreated, created)
}

func (s *Server) delete(w http.ResponseWriter, path string) {
	s.mu.Lock()
	_, ok := s.resources[path]
	delete(s.resources, path)

	for _, res := range s.resources {
		members, isColl := res["Members"].([]interface{})
		if !isColl {
			continue
		}

		kept := members[:0]

		for _, m := range members {
			if link, _ := m.(map[string]interface{}); link["@odata.id"] != path {
				kept = append(kept, m)
			}
		}

		res["Members"] = kept
	}
	s.mu.Unlock()

	if !ok {
		WriteError(w, http.StatusNotFound, fmt.Sprintf("resource %s not found", path))
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// WriteJSON writes body with status.
func WriteJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// WriteError writes a Redfish extended error body.
func WriteError(w http.ResponseWriter, status int, message string) {
	WriteJSON(w, status, map[string]interface{}{
		"error": map[string]interface{}{
			"code":    "Base.1.8.GeneralError",
			"message": "A general error has occurred.",
			"@Message.ExtendedInfo": []interface{}{
				map[string]interface{}{"MessageId": "Base.1.8.GeneralError", "Message": message},
			},
		},
	})
}

// merge applies a PATCH body. Objects merge recursively and arrays of
// objects merge element by element.
func merge(dst, src map[string]interface{}) {
	for k, v := range src {
		switch sub := v.(type) {
		case map[string]interface{}:
			if existing, ok := dst[k].(map[string]interface{}); ok {
				merge(existing, sub)
				continue
			}
		case []interface{}:
			if existing, ok := dst[k].([]interface{}); ok {
				dst[k] = mergeArray(existing, sub)
				continue
			}
		}

		dst[k] = v
	}
}

func mergeArray(dst, src []interface{}) []interface{} {
	for i, item := range src {
		if i >= len(dst) {
			dst = append(dst, item)
			continue
		}

		patch, ok := item.(map[string]interface{})
		existing, isObj := dst[i].(map[string]interface{})

		if ok && isObj {
			merge(existing, patch)
			continue
		}

		dst[i] = item
	}

	return dst
}

func clone(body map[string]interface{}) map[string]interface{} {
	if body == nil {
		return nil
	}

	data, _ := json.Marshal(body)

	var out map[string]interface{}
	_ = json.Unmarshal(data, &out)

	return out
}

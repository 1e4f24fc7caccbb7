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

// Package conformance checks controller paths and bodies against the
// published Redfish interface definition and JSON schemas.
package conformance

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"path"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/carverauto/bmcwatch/pkg/compliance"
	"github.com/carverauto/bmcwatch/pkg/logger"
	"github.com/carverauto/bmcwatch/pkg/models"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"golang.org/x/sync/singleflight"
	"gopkg.in/yaml.v3"
)

// DetailPathNotInSpec is the Fail detail for a path no template matches.
const DetailPathNotInSpec = "path not in specification"

var templateParam = regexp.MustCompile(`\{[A-Za-z0-9_]+\}`)

type compiledEntry struct {
	entry   models.SpecEntry
	pattern *regexp.Regexp
}

// Catalog holds the parsed path templates and a per-session schema cache.
// Templates are read-only after Load and safe for concurrent use.
type Catalog struct {
	cfg    Config
	client *http.Client
	log    logger.Logger
	now    func() time.Time

	entries []compiledEntry

	group     singleflight.Group
	mu        sync.RWMutex
	schemas   map[string]*jsonschema.Schema
	compileMu sync.Mutex
	compiler  *jsonschema.Compiler
}

// New creates an empty catalog. Load must succeed before use.
func New(cfg Config, client *http.Client, log logger.Logger) *Catalog {
	if client == nil {
		client = http.DefaultClient
	}

	if log == nil {
		log = logger.NewTestLogger()
	}

	return &Catalog{
		cfg:     cfg.withDefaults(),
		client:  client,
		log:     log,
		now:     time.Now,
		schemas: make(map[string]*jsonschema.Schema),
	}
}

// Load fetches and parses the interface definition. Any failure wraps
// ErrSpecLoad and is fatal for the session.
func (c *Catalog) Load(ctx context.Context) error {
	data, err := c.fetch(ctx, c.cfg.OpenAPIURL)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrSpecLoad, err)
	}

	entries, err := ParseDocument(data)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrSpecLoad, c.cfg.OpenAPIURL, err)
	}

	compiled := make([]compiledEntry, 0, len(entries))

	for _, e := range entries {
		re, err := templatePattern(e.Template)
		if err != nil {
			return fmt.Errorf("%w: template %q: %w", ErrSpecLoad, e.Template, err)
		}

		compiled = append(compiled, compiledEntry{entry: e, pattern: re})
	}

	c.entries = compiled

	c.log.Info().
		Str("url", c.cfg.OpenAPIURL).
		Int("templates", len(compiled)).
		Msg("Loaded interface specification")

	return nil
}

// Loaded reports whether Load has succeeded.
func (c *Catalog) Loaded() bool {
	return c.entries != nil
}

// Entries returns every loaded template in document order.
func (c *Catalog) Entries() []models.SpecEntry {
	out := make([]models.SpecEntry, len(c.entries))
	for i, e := range c.entries {
		out[i] = e.entry
	}

	return out
}

var httpVerbs = map[string]string{
	"get":    http.MethodGet,
	"put":    http.MethodPut,
	"patch":  http.MethodPatch,
	"post":   http.MethodPost,
	"delete": http.MethodDelete,
	"head":   http.MethodHead,
}

// ParseDocument extracts path templates from an OpenAPI document in YAML or
// JSON form, preserving document order.
func ParseDocument(data []byte) ([]models.SpecEntry, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, err
	}

	if len(root.Content) == 0 {
		return nil, errNoPaths
	}

	pathsNode := mappingValue(root.Content[0], "paths")
	if pathsNode == nil || pathsNode.Kind != yaml.MappingNode || len(pathsNode.Content) == 0 {
		return nil, errNoPaths
	}

	entries := make([]models.SpecEntry, 0, len(pathsNode.Content)/2)

	for i := 0; i+1 < len(pathsNode.Content); i += 2 {
		entry := models.SpecEntry{Template: pathsNode.Content[i].Value}
		item := pathsNode.Content[i+1]

		for j := 0; j+1 < len(item.Content); j += 2 {
			verb, ok := httpVerbs[strings.ToLower(item.Content[j].Value)]
			if !ok {
				continue
			}

			entry.Methods = append(entry.Methods, verb)

			if verb == http.MethodGet {
				entry.Schema = responseSchema(item.Content[j+1])
			}
		}

		sort.Strings(entry.Methods)
		entries = append(entries, entry)
	}

	return entries, nil
}

// responseSchema returns the schema document named by the 200 response $ref.
func responseSchema(op *yaml.Node) string {
	ref := mappingValue(op, "responses", "200", "content", "application/json", "schema", "$ref")
	if ref == nil || ref.Value == "" {
		return ""
	}

	doc, _, _ := strings.Cut(ref.Value, "#")

	return path.Base(doc)
}

func mappingValue(n *yaml.Node, keys ...string) *yaml.Node {
	for _, k := range keys {
		if n == nil || n.Kind != yaml.MappingNode {
			return nil
		}

		var next *yaml.Node

		for i := 0; i+1 < len(n.Content); i += 2 {
			if n.Content[i].Value == k {
				next = n.Content[i+1]
				break
			}
		}

		n = next
	}

	return n
}

func templatePattern(template string) (*regexp.Regexp, error) {
	parts := templateParam.Split(template, -1)
	for i, p := range parts {
		parts[i] = regexp.QuoteMeta(p)
	}

	return regexp.Compile("^" + strings.Join(parts, "[^/]+") + "$")
}

// NormalizePath strips scheme, host, query and fragment and a trailing slash.
func NormalizePath(raw string) string {
	if u, err := url.Parse(raw); err == nil {
		raw = u.Path
	} else if i := strings.IndexAny(raw, "?#"); i >= 0 {
		raw = raw[:i]
	}

	if len(raw) > 1 {
		raw = strings.TrimRight(raw, "/")
	}

	return raw
}

// Match returns the first template that matches the concrete path.
func (c *Catalog) Match(p string) (models.SpecEntry, bool) {
	p = NormalizePath(p)

	for _, e := range c.entries {
		if e.pattern.MatchString(p) {
			return e.entry, true
		}
	}

	return models.SpecEntry{}, false
}

// ValidateURI checks the path against the loaded templates and records one
// URI record on sink. It is a pure function of the loaded templates.
func (c *Catalog) ValidateURI(p, method string, sink compliance.Sink) models.Outcome {
	rec := models.ValidationRecord{
		Path:      p,
		Method:    method,
		Kind:      models.ValidationURI,
		Timestamp: c.now(),
	}

	entry, ok := c.Match(p)

	switch {
	case !c.Loaded():
		rec.Outcome = models.OutcomeFail
		rec.Detail = fmt.Sprintf("%s: %s", ErrNotLoaded, p)
	case ok:
		rec.Outcome = models.OutcomePass
		rec.Detail = entry.Template
	default:
		rec.Outcome = models.OutcomeFail
		rec.Detail = fmt.Sprintf("%s: %s", DetailPathNotInSpec, p)

		c.log.Warn().
			Str(logger.FieldOperation, "validate_uri").
			Str(logger.FieldPath, p).
			Msg("Path not found in the interface specification")
	}

	if sink != nil {
		sink.Record(rec)
	}

	return rec.Outcome
}

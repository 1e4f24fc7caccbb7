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

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/carverauto/bmcwatch/pkg/compliance"
	"github.com/carverauto/bmcwatch/pkg/logger"
	"github.com/carverauto/bmcwatch/pkg/models"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

var (
	versionedType   = regexp.MustCompile(`^#([A-Za-z0-9]+)\.(v[0-9]+_[0-9]+_[0-9]+)\.([A-Za-z0-9]+)$`)
	unversionedType = regexp.MustCompile(`^#([A-Za-z0-9]+)\.([A-Za-z0-9]+)$`)

	publishedSchemaPrefixes = []string{
		"http://redfish.dmtf.org/schemas/v1/",
		"https://redfish.dmtf.org/schemas/v1/",
	}
)

// SchemaNameForTag derives the schema document name from an @odata.type
// value: "#NS.vX_Y_Z.T" gives "NS.vX_Y_Z.json" and "#NS.T" gives "NS.json".
func SchemaNameForTag(tag string) (string, bool) {
	if m := versionedType.FindStringSubmatch(tag); m != nil {
		return m[1] + "." + m[2] + ".json", true
	}

	if m := unversionedType.FindStringSubmatch(tag); m != nil {
		return m[1] + ".json", true
	}

	return "", false
}

// SchemaNameFor derives the schema name from the resource's type tag.
func SchemaNameFor(res *models.Resource) (string, bool) {
	if res == nil || res.TypeTag == "" {
		return "", false
	}

	return SchemaNameForTag(res.TypeTag)
}

func (c *Catalog) schemaLocation(name string) string {
	if isRemote(c.cfg.SchemaURL) {
		return strings.TrimRight(c.cfg.SchemaURL, "/") + "/" + name
	}

	dir, err := filepath.Abs(strings.TrimPrefix(c.cfg.SchemaURL, "file://"))
	if err != nil {
		dir = c.cfg.SchemaURL
	}

	return filepath.Join(dir, name)
}

// loader resolves references to the published repository against the
// configured schema source so a mirror or local copy is used for every $ref.
func (c *Catalog) loader(ctx context.Context) func(string) (io.ReadCloser, error) {
	return func(u string) (io.ReadCloser, error) {
		loc := u

		for _, prefix := range publishedSchemaPrefixes {
			if strings.HasPrefix(u, prefix) {
				loc = c.schemaLocation(strings.TrimPrefix(u, prefix))
				break
			}
		}

		data, err := c.fetch(ctx, loc)
		if err != nil {
			return nil, err
		}

		return io.NopCloser(bytes.NewReader(data)), nil
	}
}

// FetchSchema returns the compiled schema for name. Schemas are compiled
// once per session; concurrent callers for the same name share one fetch.
// Failures wrap ErrSchemaFetch.
func (c *Catalog) FetchSchema(ctx context.Context, name string) (*jsonschema.Schema, error) {
	c.mu.RLock()
	s, ok := c.schemas[name]
	c.mu.RUnlock()

	if ok {
		return s, nil
	}

	v, err, _ := c.group.Do(name, func() (interface{}, error) {
		c.compileMu.Lock()
		defer c.compileMu.Unlock()

		if c.compiler == nil {
			c.compiler = jsonschema.NewCompiler()
			c.compiler.Draft = jsonschema.Draft7
		}

		c.compiler.LoadURL = c.loader(ctx)

		compiled, err := c.compiler.Compile(c.schemaLocation(name))
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrSchemaFetch, name, err)
		}

		c.mu.Lock()
		c.schemas[name] = compiled
		c.mu.Unlock()

		return compiled, nil
	})
	if err != nil {
		return nil, err
	}

	return v.(*jsonschema.Schema), nil
}

// ValidateBody validates the resource body against schema. On failure the
// returned mismatch locates the first failing leaf.
func ValidateBody(res *models.Resource, schema *jsonschema.Schema) (models.Outcome, *models.SchemaMismatch) {
	var body interface{} = map[string]interface{}{}
	if res != nil && res.Body != nil {
		body = res.Body
	}

	err := schema.Validate(body)
	if err == nil {
		return models.OutcomePass, nil
	}

	var verr *jsonschema.ValidationError
	if !errors.As(err, &verr) {
		return models.OutcomeFail, &models.SchemaMismatch{Expected: err.Error()}
	}

	leaf := verr
	for len(leaf.Causes) > 0 {
		leaf = leaf.Causes[0]
	}

	return models.OutcomeFail, &models.SchemaMismatch{
		InstancePath: leaf.InstanceLocation,
		KeywordPath:  leaf.KeywordLocation,
		Expected:     leaf.Message,
		Actual:       fragmentAt(body, leaf.InstanceLocation),
	}
}

// fragmentAt renders the JSON value at a JSON pointer within doc.
func fragmentAt(doc interface{}, pointer string) string {
	cur := doc

	for _, tok := range strings.Split(strings.TrimPrefix(pointer, "/"), "/") {
		if tok == "" {
			continue
		}

		tok = strings.ReplaceAll(strings.ReplaceAll(tok, "~1", "/"), "~0", "~")

		switch node := cur.(type) {
		case map[string]interface{}:
			cur = node[tok]
		case []interface{}:
			i, err := strconv.Atoi(tok)
			if err != nil || i < 0 || i >= len(node) {
				return ""
			}

			cur = node[i]
		default:
			return ""
		}
	}

	out, err := json.Marshal(cur)
	if err != nil {
		return fmt.Sprint(cur)
	}

	return string(out)
}

// ValidateResource runs the schema pipeline for a fetched body and records
// one Schema record on sink. Untyped bodies produce no record and an empty
// outcome. A missing schema records Skipped and never fails the caller.
func (c *Catalog) ValidateResource(ctx context.Context, res *models.Resource, sink compliance.Sink) models.Outcome {
	if res == nil || res.TypeTag == "" {
		return ""
	}

	rec := models.ValidationRecord{
		Path:      res.Path,
		Method:    "GET",
		Kind:      models.ValidationSchema,
		Timestamp: c.now(),
	}

	log := c.log.With().
		Str(logger.FieldOperation, "validate_body").
		Str(logger.FieldPath, res.Path).
		Logger()

	name, ok := SchemaNameFor(res)

	switch {
	case !ok:
		rec.Outcome = models.OutcomeFail
		rec.Detail = fmt.Sprintf("unrecognized @odata.type %q", res.TypeTag)

		log.Warn().Str("type", res.TypeTag).Msg("Cannot derive schema name")
	default:
		rec.Schema = name

		schema, err := c.FetchSchema(ctx, name)
		if err != nil {
			rec.Outcome = models.OutcomeSkipped
			rec.Detail = err.Error()

			log.Warn().Err(err).Str("schema", name).Msg("Schema validation skipped")

			break
		}

		rec.Outcome, rec.Mismatch = ValidateBody(res, schema)
		if rec.Mismatch != nil {
			rec.Detail = fmt.Sprintf("%s at %q", rec.Mismatch.Expected, rec.Mismatch.InstancePath)

			log.Warn().
				Str("schema", name).
				Str("instance", rec.Mismatch.InstancePath).
				Str("keyword", rec.Mismatch.KeywordPath).
				Str("expected", rec.Mismatch.Expected).
				Str("actual", rec.Mismatch.Actual).
				Msg("Body does not match schema")
		}
	}

	if sink != nil {
		sink.Record(rec)
	}

	return rec.Outcome
}

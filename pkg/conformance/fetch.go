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
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
)

const maxDocumentSize = 64 << 20

func isRemote(location string) bool {
	return strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://")
}

// fetch reads a document from an http(s) URL or from the local filesystem.
func (c *Catalog) fetch(ctx context.Context, location string) ([]byte, error) {
	if !isRemote(location) {
		data, err := os.ReadFile(strings.TrimPrefix(location, "file://"))
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", location, err)
		}

		return data, nil
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.FetchTimeout.OrDefault(defaultFetchTimeout))
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, location, http.NoBody)
	if err != nil {
		return nil, err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", location, err)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			c.log.Debug().Err(cerr).Str("url", location).Msg("Failed to close response body")
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %d from %s", errUnexpectedStatusCode, resp.StatusCode, location)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxDocumentSize))
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", location, err)
	}

	return data, nil
}

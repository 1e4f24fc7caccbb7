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

// Package redfish is a Redfish protocol client that validates every accessed
// path and body and drives asynchronous tasks to completion.
package redfish

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/carverauto/bmcwatch/pkg/clock"
	"github.com/carverauto/bmcwatch/pkg/compliance"
	"github.com/carverauto/bmcwatch/pkg/logger"
	"github.com/carverauto/bmcwatch/pkg/metrics"
	"github.com/carverauto/bmcwatch/pkg/models"
	"github.com/carverauto/bmcwatch/pkg/version"
	"golang.org/x/time/rate"
)

//go:generate mockgen -destination=mock_validator.go -package=redfish github.com/carverauto/bmcwatch/pkg/redfish Validator

// Validator checks paths and bodies and records the outcome on a sink.
type Validator interface {
	ValidateURI(path, method string, sink compliance.Sink) models.Outcome
	ValidateResource(ctx context.Context, res *models.Resource, sink compliance.Sink) models.Outcome
}

// Request is one call through the client. A nil Sink falls back to the
// client's default sink.
type Request struct {
	Method Method
	Path   string
	Body   interface{}
	Header http.Header
	Sink   compliance.Sink
}

// Client talks to a single controller.
type Client struct {
	cfg       Config
	base      *url.URL
	http      *http.Client
	validator Validator
	sink      compliance.Sink
	clock     clock.Clock
	limiter   *rate.Limiter
	log       logger.Logger
	success   map[Method]map[int]bool
	policy    TaskPolicy

	mu       sync.RWMutex
	endpoint models.Endpoint
}

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient replaces the HTTP client built from Config.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithClock replaces the real clock used for task polling sleeps.
func WithClock(clk clock.Clock) Option {
	return func(c *Client) { c.clock = clk }
}

// WithSink sets the sink used when a request does not carry its own.
func WithSink(s compliance.Sink) Option {
	return func(c *Client) { c.sink = s }
}

// NewClient builds a client for cfg. validator may be nil, in which case no
// conformance records are produced.
func NewClient(cfg Config, validator Validator, log logger.Logger, opts ...Option) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, err
	}

	if log == nil {
		log = logger.NewTestLogger()
	}

	c := &Client{
		cfg:       cfg,
		base:      base,
		validator: validator,
		sink:      compliance.Discard,
		clock:     clock.Real(),
		log:       log,
		success:   cfg.successSets(),
		policy:    cfg.Task.withDefaults(),
		endpoint: models.Endpoint{
			BaseURL:  base.String(),
			Username: cfg.Username,
			Password: cfg.Password,
		},
	}

	if cfg.RequestsPerSecond > 0 {
		burst := cfg.Burst
		if burst <= 0 {
			burst = 1
		}

		c.limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst)
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.http == nil {
		c.http = &http.Client{
			Timeout: cfg.Timeout.OrDefault(defaultTimeout),
			Transport: &http.Transport{
				Proxy: http.ProxyFromEnvironment,
				//nolint:gosec // controllers commonly ship self-signed certificates
				TLSClientConfig: &tls.Config{InsecureSkipVerify: cfg.InsecureSkipVerify},
			},
		}
	}

	return c, nil
}

// Endpoint returns the session's endpoint metadata.
func (c *Client) Endpoint() models.Endpoint {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.endpoint
}

// Host identifies the controller in logs and reports.
func (c *Client) Host() string {
	return c.base.Host
}

// Get fetches path.
func (c *Client) Get(ctx context.Context, path string, sink compliance.Sink) (*models.Resource, error) {
	return c.Do(ctx, Request{Method: MethodGet, Path: path, Sink: sink})
}

// Patch sends body to path and waits for any task it starts.
func (c *Client) Patch(ctx context.Context, path string, body interface{}, header http.Header, sink compliance.Sink) (*models.Resource, error) {
	return c.Do(ctx, Request{Method: MethodPatch, Path: path, Body: body, Header: header, Sink: sink})
}

// Post sends body to path and waits for any task it starts.
func (c *Client) Post(ctx context.Context, path string, body interface{}, header http.Header, sink compliance.Sink) (*models.Resource, error) {
	return c.Do(ctx, Request{Method: MethodPost, Path: path, Body: body, Header: header, Sink: sink})
}

// Delete removes path.
func (c *Client) Delete(ctx context.Context, path string, sink compliance.Sink) (*models.Resource, error) {
	return c.Do(ctx, Request{Method: MethodDelete, Path: path, Sink: sink})
}

// PatchIfMatch reads path for its ETag and sends the PATCH with If-Match so
// concurrent edits are rejected by the controller.
func (c *Client) PatchIfMatch(ctx context.Context, path string, body interface{}, sink compliance.Sink) (*models.Resource, error) {
	current, err := c.Get(ctx, path, sink)
	if err != nil {
		return nil, err
	}

	header := http.Header{}
	if tag := current.ETag(); tag != "" {
		header.Set("If-Match", tag)
	}

	return c.Patch(ctx, path, body, header, sink)
}

// Do validates the path, sends the request, checks the status against the
// method's success set, validates GET bodies and follows task references
// returned by PATCH and POST.
func (c *Client) Do(ctx context.Context, req Request) (*models.Resource, error) {
	if !req.Method.Valid() {
		return nil, fmt.Errorf("%w: %s", ErrInvalidMethod, req.Method)
	}

	sink := req.Sink
	if sink == nil {
		sink = c.sink
	}

	if c.validator != nil {
		c.validator.ValidateURI(stripQuery(req.Path), req.Method.String(), sink)
	}

	res, err := c.send(ctx, req.Method, req.Path, req.Body, req.Header)
	if err != nil {
		return nil, err
	}

	if !c.success[req.Method][res.Status] {
		rerr := &RejectedError{
			Method:  req.Method,
			Path:    req.Path,
			Status:  res.Status,
			Message: ExtendedMessage(res),
		}

		c.logFailure(req.Method, req.Path, rerr.Message, rerr)

		return res, rerr
	}

	switch {
	case req.Method == MethodGet:
		if res.Body != nil && c.validator != nil {
			c.validator.ValidateResource(ctx, res, sink)
		}
	case req.Method.MayStartTask():
		if monitor := taskReference(res); monitor != "" {
			return c.waitTask(ctx, req.Method, monitor)
		}
	}

	return res, nil
}

func stripQuery(p string) string {
	if i := strings.IndexByte(p, '?'); i >= 0 {
		return p[:i]
	}

	return p
}

func (c *Client) resolve(path string) string {
	ref, err := url.Parse(path)
	if err != nil || ref.IsAbs() {
		return path
	}

	u := *c.base
	u.Path = strings.TrimRight(c.base.Path, "/") + "/" + strings.TrimLeft(ref.Path, "/")
	u.RawQuery = ref.RawQuery

	return u.String()
}

// send performs one HTTP exchange and decodes the body. It applies no
// validation or success policy.
func (c *Client) send(ctx context.Context, method Method, path string, body interface{}, header http.Header) (*models.Resource, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, &TransportError{Method: method, Path: path, Err: err}
		}
	}

	var payload io.Reader = http.NoBody

	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode %s %s body: %w", method, path, err)
		}

		payload = bytes.NewReader(data)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method.String(), c.resolve(path), payload)
	if err != nil {
		return nil, &TransportError{Method: method, Path: path, Err: err}
	}

	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("OData-Version", "4.0")
	httpReq.Header.Set("User-Agent", version.UserAgent())

	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	for k, vals := range header {
		for _, v := range vals {
			httpReq.Header.Add(k, v)
		}
	}

	if c.cfg.Username != "" {
		httpReq.SetBasicAuth(c.cfg.Username, c.cfg.Password)
	}

	start := c.clock.Now()

	resp, err := c.http.Do(httpReq)
	if err != nil {
		metrics.RecordRequest(ctx, method.String(), 0, c.clock.Now().Sub(start))

		terr := &TransportError{Method: method, Path: path, Err: err}
		c.logFailure(method, path, err.Error(), terr)

		return nil, terr
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			c.log.Debug().Err(cerr).Str(logger.FieldPath, path).Msg("Failed to close response body")
		}
	}()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, defaultMaxResponseLength))
	if err != nil {
		return nil, &TransportError{Method: method, Path: path, Err: err}
	}

	metrics.RecordRequest(ctx, method.String(), resp.StatusCode, c.clock.Now().Sub(start))

	var decoded map[string]interface{}
	if len(bytes.TrimSpace(raw)) > 0 {
		if err := json.Unmarshal(raw, &decoded); err != nil {
			decoded = nil
		}
	}

	return models.NewResource(path, resp.StatusCode, resp.Header, decoded, raw), nil
}

func (c *Client) logFailure(method Method, path, message string, err error) {
	c.log.Error().
		Err(err).
		Str(logger.FieldOperation, method.String()).
		Str(logger.FieldPath, path).
		Str(logger.FieldHost, c.Host()).
		Str(logger.FieldExtendedMessage, message).
		Msg("Request failed")
}

// ExtendedMessage returns the first extended-info message of an error body,
// falling back to its MessageId, then the raw body, then the status text.
func ExtendedMessage(res *models.Resource) string {
	if res == nil {
		return ""
	}

	if v, ok := res.Lookup("error", models.KeyExtendInfo); ok {
		if infos := models.ObjectsOf(v); len(infos) > 0 {
			if msg, ok := infos[0]["Message"].(string); ok && msg != "" {
				return msg
			}

			if id, ok := infos[0]["MessageId"].(string); ok && id != "" {
				return id
			}
		}
	}

	if body := strings.TrimSpace(string(res.Raw)); body != "" {
		return body
	}

	return http.StatusText(res.Status)
}

// retryAfter parses a Retry-After header given in seconds or as an HTTP date.
func retryAfter(h http.Header, now time.Time) (time.Duration, bool) {
	v := strings.TrimSpace(h.Get("Retry-After"))
	if v == "" {
		return 0, false
	}

	if secs, err := strconv.Atoi(v); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second, true
	}

	if at, err := http.ParseTime(v); err == nil {
		if d := at.Sub(now); d > 0 {
			return d, true
		}

		return 0, true
	}

	return 0, false
}

// Copyright 2025 Esteban Alvarez. All Rights Reserved.
//
// Created: October 2025
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package httptransport is the default inner offline.Transport: it POSTs
// envelope bytes to a fixed endpoint and reports back the status code and
// headers the engine needs to drive backoff.
package httptransport

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/getsentry/sentry-go-offline/pkg/envelope"
	"github.com/getsentry/sentry-go-offline/pkg/offline"
)

// Transport sends envelopes as the request body of an HTTP POST.
type Transport struct {
	endpoint   string
	httpClient *http.Client
	headers    http.Header
}

// Option configures a Transport.
type Option func(*Transport)

// WithHTTPClient overrides the default *http.Client (one with a 30s
// timeout).
func WithHTTPClient(c *http.Client) Option {
	return func(t *Transport) { t.httpClient = c }
}

// WithHeader sets a header sent with every request (for example
// "X-Sentry-Auth").
func WithHeader(key, value string) Option {
	return func(t *Transport) { t.headers.Set(key, value) }
}

// New builds a Transport posting to endpoint.
func New(endpoint string, opts ...Option) *Transport {
	t := &Transport{
		endpoint:   endpoint,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		headers:    make(http.Header),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Send implements offline.Transport.
func (t *Transport) Send(ctx context.Context, env envelope.Envelope) (*offline.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.endpoint, bytes.NewReader(env.Bytes()))
	if err != nil {
		return nil, fmt.Errorf("httptransport: build request: %w", err)
	}
	for k, vs := range t.headers {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	req.Header.Set("Content-Type", "application/x-sentry-envelope")

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("httptransport: do request: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	return &offline.Response{StatusCode: resp.StatusCode, Headers: resp.Header}, nil
}

// Flush implements offline.Transport. The default HTTP client has no
// buffered in-flight requests to wait on, so this always reports success
// immediately.
func (t *Transport) Flush(ctx context.Context, timeout time.Duration) (bool, error) {
	return true, nil
}

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

// Package offline implements the offline-capable telemetry transport
// engine: a facade around an inner Transport that adds a durable queue,
// exponential backoff with server-directed override, and a full-offline
// batching mode.
package offline

import (
	"context"
	"net/http"
	"time"

	"github.com/getsentry/sentry-go-offline/pkg/envelope"
)

// Response is what a live send attempt returns on success. A nil *Response
// with a nil error is itself a valid success (the inner transport declined
// to report status), matching the "resolves void" case of the contract this
// engine wraps.
type Response struct {
	StatusCode int
	Headers    http.Header
}

// Transport is the inner send primitive the engine wraps. Implementations
// live under transport/httptransport and transport/kafkatransport; either
// can be swapped in without the engine knowing the difference.
type Transport interface {
	// Send delivers env. An error return means the attempt failed outright
	// (network error, broker unreachable); a non-nil *Response with
	// StatusCode >= 400 is a server-side rejection, not a Go error.
	Send(ctx context.Context, env envelope.Envelope) (*Response, error)

	// Flush is forwarded to directly when the engine is not running in
	// full-offline mode.
	Flush(ctx context.Context, timeout time.Duration) (bool, error)
}

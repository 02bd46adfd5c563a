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

package offline

import (
	"log"
	"time"

	"github.com/getsentry/sentry-go-offline/pkg/envelope"
	"github.com/getsentry/sentry-go-offline/pkg/queue"
)

// ShouldStoreFunc is the user-supplied filter consulted after the built-in
// replay/client-report exclusion. Returning false re-raises sendErr to the
// caller instead of queueing env.
type ShouldStoreFunc func(env envelope.Envelope, sendErr error, retryDelay time.Duration) bool

// Options configures an Engine. The zero value is runnable: it disables
// persistence (Store == nil) and runs in live (non-offline) mode.
type Options struct {
	// Store backs the durable queue. A nil Store disables queueing
	// entirely: failed sends are never persisted, only returned to the
	// caller.
	Store queue.Store

	// Codec serializes/parses envelopes for the queue and interprets
	// Retry-After headers. Defaults to envelope.DefaultCodec{}.
	Codec envelope.Codec

	// Transport is the inner send primitive. Required.
	Transport Transport

	// FlushAtStartup arms one non-head drain at construction, draining any
	// entries left over from a prior process.
	FlushAtStartup bool

	// FullOffline, when true, makes Send enqueue unconditionally rather
	// than attempt live delivery; Flush is then the only way envelopes
	// leave the queue.
	FullOffline bool

	// ShouldStore is consulted after the built-in replay/client-report
	// exclusion. Nil means "always allow".
	ShouldStore ShouldStoreFunc

	// DBName identifies the persistent database. Informational only at
	// this layer; store backends that need a filesystem path or table name
	// use StoreName.
	DBName string

	// StoreName identifies the table / key-namespace within the store.
	StoreName string

	// MaxQueueSize caps the number of entries the store may hold.
	MaxQueueSize int

	// Logger receives lifecycle and swallowed-error log lines. Defaults to
	// log.Default().
	Logger *log.Logger

	// Metrics, if non-nil, receives queue depth and retry delay
	// observations. See NewMetrics.
	Metrics *Metrics
}

func (o Options) withDefaults() Options {
	if o.Codec == nil {
		o.Codec = envelope.DefaultCodec{}
	}
	if o.DBName == "" {
		o.DBName = "sentry-offline"
	}
	if o.StoreName == "" {
		o.StoreName = "queue"
	}
	if o.MaxQueueSize <= 0 {
		o.MaxQueueSize = 30
	}
	if o.Logger == nil {
		o.Logger = log.Default()
	}
	return o
}

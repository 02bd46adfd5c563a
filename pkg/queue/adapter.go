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

package queue

import (
	"context"
	"log"

	"github.com/getsentry/sentry-go-offline/pkg/envelope"
)

// Adapter sits between the transport engine and a raw Store, translating
// envelope-level Enqueue/Dequeue calls into Store.Insert/Pop through an
// injected envelope.Codec. A Store failure never surfaces as an error here:
// the durable queue is a best-effort cache, not a correctness boundary, so
// Adapter logs and swallows, matching the posture the inner Store
// invariants already assume (a full store silently drops rather than
// erroring).
type Adapter struct {
	store   Store
	codec   envelope.Codec
	maxSize int
	logger  *log.Logger
}

// NewAdapter wraps store with codec. maxSize bounds the number of envelopes
// the underlying store may hold; logger receives a line on every swallowed
// error (nil selects log.Default()).
func NewAdapter(store Store, codec envelope.Codec, maxSize int, logger *log.Logger) *Adapter {
	if logger == nil {
		logger = log.Default()
	}
	return &Adapter{store: store, codec: codec, maxSize: maxSize, logger: logger}
}

// Enqueue serializes env and inserts it, at the head if toStart, otherwise
// at the tail. Errors are logged, not returned: a caller on the send path
// should never fail a request just because local persistence hiccuped.
func (a *Adapter) Enqueue(ctx context.Context, env envelope.Envelope, toStart bool) {
	data, err := a.codec.Serialize(env)
	if err != nil {
		a.logger.Printf("offline queue: serialize envelope: %v", err)
		return
	}
	if err := a.store.Insert(ctx, data, a.maxSize, toStart); err != nil {
		a.logger.Printf("offline queue: insert envelope: %v", err)
	}
}

// Dequeue pops the entry at offset and parses it. ok is false both when
// offset is past the end of the queue and when the underlying Store errors
// (logged in the latter case) — callers treat both as "nothing more to
// drain right now".
func (a *Adapter) Dequeue(ctx context.Context, offset int) (env envelope.Envelope, ok bool) {
	data, found, err := a.store.Pop(ctx, offset)
	if err != nil {
		a.logger.Printf("offline queue: pop envelope: %v", err)
		return envelope.Envelope{}, false
	}
	if !found {
		return envelope.Envelope{}, false
	}
	env, err = a.codec.Parse(data)
	if err != nil {
		a.logger.Printf("offline queue: parse envelope: %v", err)
		return envelope.Envelope{}, false
	}
	return env, true
}

// Size reports the current queue length, treating a Store error as empty
// (logged) rather than propagating it to callers that only use this for
// scheduling decisions.
func (a *Adapter) Size(ctx context.Context) int {
	n, err := a.store.Size(ctx)
	if err != nil {
		a.logger.Printf("offline queue: size: %v", err)
		return 0
	}
	return n
}

// Clear empties the underlying store.
func (a *Adapter) Clear(ctx context.Context) error {
	return a.store.Clear(ctx)
}

// Close releases the underlying store's resources.
func (a *Adapter) Close() error {
	return a.store.Close()
}

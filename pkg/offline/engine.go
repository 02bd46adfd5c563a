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
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/getsentry/sentry-go-offline/internal/retry"
	"github.com/getsentry/sentry-go-offline/pkg/envelope"
	"github.com/getsentry/sentry-go-offline/pkg/queue"
)

// neverQueued are the item types that bypass the durable queue entirely:
// they are either order-sensitive (replays) or would amplify the very
// outage they report on (client reports).
var neverQueued = []envelope.ItemType{
	envelope.ItemTypeReplayEvent,
	envelope.ItemTypeReplayRecording,
	envelope.ItemTypeClientReport,
}

// Engine is the public facade: Send and Flush, backed by an inner
// Transport, an optional durable queue, and a single-timer retry
// scheduler. All of its own state transitions (retryDelay and the active
// drain budget) happen under mu, synchronously around the suspension
// points (the network call, the store call) they bracket, mirroring the
// single-threaded cooperative model spec.md describes for the original.
type Engine struct {
	opts      Options
	transport Transport
	adapter   *queue.Adapter
	codec     envelope.Codec
	scheduler *retry.Scheduler

	mu         sync.Mutex
	retryDelay time.Duration
	drain      *retry.DrainBudget
}

// New constructs an Engine. opts.Transport must be non-nil.
func New(opts Options) (*Engine, error) {
	opts = opts.withDefaults()
	if opts.Transport == nil {
		return nil, fmt.Errorf("offline: Options.Transport is required")
	}

	e := &Engine{
		opts:      opts,
		transport: opts.Transport,
		codec:     opts.Codec,
	}
	if opts.Store != nil {
		e.adapter = queue.NewAdapter(opts.Store, opts.Codec, opts.MaxQueueSize, opts.Logger)
	}
	e.scheduler = retry.NewScheduler(e.onDrainTick)

	if opts.FlushAtStartup {
		e.scheduler.FlushWithBackOff(e.currentRetryDelay())
	}
	return e, nil
}

func (e *Engine) currentRetryDelay() time.Duration {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.retryDelay
}

// Close stops the retry scheduler and releases the underlying store.
func (e *Engine) Close() error {
	e.scheduler.Stop()
	if e.adapter != nil {
		return e.adapter.Close()
	}
	return nil
}

// Send attempts to deliver env, falling back to the durable queue on
// failure (or unconditionally, in full-offline mode).
func (e *Engine) Send(ctx context.Context, env envelope.Envelope) (*Response, error) {
	return e.send(ctx, env, false)
}

func (e *Engine) send(ctx context.Context, env envelope.Envelope, isFlushingHead bool) (*Response, error) {
	if e.opts.FullOffline && !isFlushingHead {
		e.enqueue(ctx, env, false)
		return &Response{}, nil
	}

	resp, err := e.transport.Send(ctx, env)
	if err == nil {
		return e.onSendSuccess(ctx, resp, isFlushingHead)
	}
	return e.onSendFailure(ctx, env, err, isFlushingHead)
}

func (e *Engine) onSendSuccess(ctx context.Context, resp *Response, isFlushingHead bool) (*Response, error) {
	delay := retry.MinDelay
	if resp != nil {
		if ra := resp.Headers.Get("Retry-After"); ra != "" {
			delay = e.codec.ParseRetryAfter(ra, time.Now())
		} else if resp.StatusCode >= 400 {
			return resp, nil
		}
	}

	e.mu.Lock()
	e.retryDelay = 0
	e.mu.Unlock()
	e.opts.Metrics.observeRetryDelay(0)
	e.opts.Metrics.incSent()

	e.scheduler.FlushIn(delay)
	return resp, nil
}

func (e *Engine) onSendFailure(ctx context.Context, env envelope.Envelope, sendErr error, isFlushingHead bool) (*Response, error) {
	e.opts.Metrics.incFailed()

	e.mu.Lock()
	e.retryDelay = clampDelay(e.retryDelay * 2)
	delay := e.retryDelay
	e.mu.Unlock()
	e.opts.Metrics.observeRetryDelay(delay)

	if !e.shouldQueue(env, sendErr, delay) || e.adapter == nil {
		e.opts.Metrics.incDropped()
		return nil, sendErr
	}

	if isFlushingHead {
		e.enqueue(ctx, env, true)
		e.mu.Lock()
		if e.drain != nil {
			e.drain.RecordRequeued()
		}
		e.mu.Unlock()
		e.scheduler.FlushWithBackOff(delay)
	} else {
		e.enqueue(ctx, env, false)
		e.scheduler.FlushWithBackOff(delay)
	}
	return &Response{}, nil
}

func clampDelay(d time.Duration) time.Duration {
	if d > retry.MaxDelay {
		d = retry.MaxDelay
	}
	if d < retry.StartDelay {
		d = retry.StartDelay
	}
	return d
}

func (e *Engine) shouldQueue(env envelope.Envelope, sendErr error, delay time.Duration) bool {
	if e.codec.ContainsItemType(env, neverQueued) {
		return false
	}
	if e.opts.ShouldStore == nil {
		return true
	}
	return e.opts.ShouldStore(env, sendErr, delay)
}

func (e *Engine) enqueue(ctx context.Context, env envelope.Envelope, toStart bool) {
	e.adapter.Enqueue(ctx, env, toStart)
	e.opts.Metrics.incEnqueued()
	e.opts.Metrics.observeQueueDepth(e.adapter.Size(ctx))
}

// Flush drains the durable queue (full-offline mode) or forwards to the
// inner transport's own Flush (live mode).
func (e *Engine) Flush(ctx context.Context, timeout time.Duration) (bool, error) {
	if !e.opts.FullOffline {
		return e.transport.Flush(ctx, timeout)
	}
	if e.adapter == nil {
		return true, nil
	}

	if timeout < 0 {
		return true, e.adapter.Clear(ctx)
	}

	e.mu.Lock()
	if e.drain != nil {
		e.mu.Unlock()
		return false, nil
	}
	e.mu.Unlock()

	size := e.adapter.Size(ctx)
	if size <= 0 {
		return true, nil
	}

	budget := retry.NewDrainBudget(size)
	e.mu.Lock()
	e.drain = &budget
	e.mu.Unlock()

	e.scheduler.FlushWithBackOff(e.currentRetryDelay())
	return true, nil
}

// onDrainTick is the retry scheduler's single callback: pop one envelope
// (if the current drain mode allows it) and attempt to send it.
func (e *Engine) onDrainTick(ctx context.Context) {
	if e.adapter == nil {
		return
	}

	e.mu.Lock()
	headMode := e.drain != nil
	if headMode && e.drain.Done() {
		e.drain = nil
		e.mu.Unlock()
		return
	}
	e.mu.Unlock()

	env, ok := e.adapter.Dequeue(ctx, 0)
	if !ok {
		e.mu.Lock()
		e.drain = nil
		e.mu.Unlock()
		return
	}
	e.opts.Metrics.observeQueueDepth(e.adapter.Size(ctx))

	if headMode {
		e.mu.Lock()
		if e.drain != nil {
			e.drain.RecordFlushed()
		}
		e.mu.Unlock()
	}

	e.send(ctx, env, headMode)
}

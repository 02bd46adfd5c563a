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
	"time"
)

// StatsReporter periodically logs a one-line snapshot of an Engine's queue
// depth and current retry delay, the same ticker-driven summary-loop shape
// as the teacher's churn exporter, minus the per-key aggregation this
// engine has no equivalent of.
type StatsReporter struct {
	engine   *Engine
	interval time.Duration

	stop chan struct{}
	done chan struct{}
}

// NewStatsReporter builds a reporter for engine. interval <= 0 disables it
// (Start becomes a no-op).
func NewStatsReporter(engine *Engine, interval time.Duration) *StatsReporter {
	return &StatsReporter{engine: engine, interval: interval}
}

// Start launches the reporting loop in a background goroutine. Safe to
// call at most once per reporter.
func (r *StatsReporter) Start(ctx context.Context) {
	if r.interval <= 0 || r.stop != nil {
		return
	}
	r.stop = make(chan struct{})
	r.done = make(chan struct{})
	go r.loop(ctx)
}

// Stop ends the reporting loop and waits for it to exit. Safe to call even
// if Start was never called.
func (r *StatsReporter) Stop() {
	if r.stop == nil {
		return
	}
	close(r.stop)
	<-r.done
}

func (r *StatsReporter) loop(ctx context.Context) {
	defer close(r.done)
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			r.publishSnapshot(ctx)
		case <-ctx.Done():
			return
		case <-r.stop:
			return
		}
	}
}

func (r *StatsReporter) publishSnapshot(ctx context.Context) {
	depth := 0
	if r.engine.adapter != nil {
		depth = r.engine.adapter.Size(ctx)
	}
	delay := r.engine.currentRetryDelay()

	r.engine.opts.Logger.Printf(
		"offline transport: queue_depth=%d retry_delay=%s", depth, delay)
	r.engine.opts.Metrics.observeQueueDepth(depth)
}

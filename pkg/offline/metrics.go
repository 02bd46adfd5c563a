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
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics instruments an Engine's hot paths, the way the teacher's churn
// package instruments the rate limiter's admission path: a handful of
// first-class gauges and counters, no per-envelope labels (unbounded
// cardinality is the thing to avoid here, same as in churn).
type Metrics struct {
	queueDepth    prometheus.Gauge
	retryDelayMs  prometheus.Gauge
	enqueuedTotal prometheus.Counter
	sentTotal     prometheus.Counter
	failedTotal   prometheus.Counter
	droppedTotal  prometheus.Counter
}

// NewMetrics builds a Metrics and registers it against reg. A nil reg
// registers against a fresh, private prometheus.Registry rather than
// prometheus.DefaultRegisterer, so constructing more than one Engine in a
// test or a multi-tenant process never collides on MustRegister; pass
// prometheus.DefaultRegisterer explicitly (as cmd/offline-demo does) to
// expose these on a process-wide /metrics endpoint.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	m := &Metrics{
		queueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "offline_queue_depth",
			Help: "Number of envelopes currently held in the durable queue.",
		}),
		retryDelayMs: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "offline_retry_delay_milliseconds",
			Help: "Current backoff delay before the next drain attempt.",
		}),
		enqueuedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "offline_envelopes_enqueued_total",
			Help: "Total envelopes handed to the durable queue for insertion, including inserts a full queue drops.",
		}),
		sentTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "offline_envelopes_sent_total",
			Help: "Total envelopes delivered successfully, live or drained.",
		}),
		failedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "offline_envelopes_failed_total",
			Help: "Total send attempts that failed (queued or dropped afterward).",
		}),
		droppedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "offline_envelopes_dropped_total",
			Help: "Total envelopes not queued after a failed send (refused storage, or no store configured).",
		}),
	}
	reg.MustRegister(m.queueDepth, m.retryDelayMs, m.enqueuedTotal, m.sentTotal, m.failedTotal, m.droppedTotal)
	return m
}

func (m *Metrics) observeQueueDepth(n int) {
	if m == nil {
		return
	}
	m.queueDepth.Set(float64(n))
}

func (m *Metrics) observeRetryDelay(d time.Duration) {
	if m == nil {
		return
	}
	m.retryDelayMs.Set(float64(d.Milliseconds()))
}

func (m *Metrics) incEnqueued() {
	if m == nil {
		return
	}
	m.enqueuedTotal.Inc()
}

func (m *Metrics) incSent() {
	if m == nil {
		return
	}
	m.sentTotal.Inc()
}

func (m *Metrics) incFailed() {
	if m == nil {
		return
	}
	m.failedTotal.Inc()
}

func (m *Metrics) incDropped() {
	if m == nil {
		return
	}
	m.droppedTotal.Inc()
}

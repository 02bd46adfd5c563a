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

// Package retry implements the single in-flight flush timer that drives
// draining the durable queue: one timer per scheduler, "latest wins"
// coalescing of overlapping flush requests, and the bookkeeping a bounded
// head-drain pass needs to know how much of the queue it has already
// consumed this pass.
package retry

import "time"

const (
	// MinDelay is the shortest delay a scheduled flush may use.
	MinDelay = 100 * time.Millisecond

	// StartDelay is the delay used for the first backoff escalation after a
	// failed send, before any server-supplied Retry-After has been seen.
	StartDelay = 5 * time.Second

	// MaxDelay caps how long backoff escalation may grow a delay to.
	MaxDelay = 3_600_000 * time.Millisecond
)

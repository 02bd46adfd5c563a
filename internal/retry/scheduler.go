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

package retry

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// OnFire is invoked when the scheduler's timer elapses. It receives a
// context cancelled when the scheduler is stopped, so a long drain pass can
// observe shutdown.
type OnFire func(ctx context.Context)

// Scheduler owns a single in-flight timer for draining the durable queue.
// Only one timer is ever live: calling FlushIn while a timer is already
// pending cancels it and arms a new one, so the most recently requested
// delay always wins ("latest wins" coalescing) instead of piling up
// redundant drain attempts for the same backlog.
type Scheduler struct {
	onFire OnFire

	mu      sync.Mutex
	timer   *time.Timer
	running bool

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	stopped uint32
}

// NewScheduler creates a Scheduler that calls onFire when its timer fires.
func NewScheduler(onFire OnFire) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{onFire: onFire, ctx: ctx, cancel: cancel}
}

// FlushIn (re)arms the timer to fire after d, clamped to at least MinDelay.
// Any previously pending timer is cancelled first, so overlapping callers
// (a new envelope arriving while a backoff wait is already pending, for
// example) coalesce into a single future fire at the most recent delay
// requested rather than scheduling one fire per caller.
func (s *Scheduler) FlushIn(d time.Duration) {
	if atomic.LoadUint32(&s.stopped) == 1 {
		return
	}
	if d < MinDelay {
		d = MinDelay
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = time.AfterFunc(d, s.fire)
}

// FlushWithBackOff arms the timer at currentDelay, clamped to MinDelay by
// FlushIn, but only if no timer is currently armed. Unlike FlushIn's
// always-override "latest wins" behavior, this is a no-op when a drain is
// already scheduled, so a caller re-announcing the same backoff state (the
// engine's startup drain, or a second failure arriving while the first
// failure's timer is still counting down) never preempts a wait already in
// progress. A callback that is currently running does not count as armed,
// so a drain step that fails can re-arm from inside it. Escalating
// currentDelay itself is the caller's job (see Engine.onSendFailure) — this
// method only arms, it never doubles.
func (s *Scheduler) FlushWithBackOff(currentDelay time.Duration) {
	s.mu.Lock()
	armed := s.timer != nil
	s.mu.Unlock()
	if armed {
		return
	}
	s.FlushIn(currentDelay)
}

func (s *Scheduler) fire() {
	s.mu.Lock()
	if atomic.LoadUint32(&s.stopped) == 1 {
		s.mu.Unlock()
		return
	}
	s.timer = nil
	s.running = true
	s.mu.Unlock()

	s.wg.Add(1)
	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
		s.wg.Done()
	}()

	s.onFire(s.ctx)
}

// Pending reports whether a timer is currently armed or its callback is
// currently running.
func (s *Scheduler) Pending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.timer != nil || s.running
}

// Stop cancels any pending timer and waits for an in-flight fire to finish.
// Safe to call once; subsequent calls are no-ops.
func (s *Scheduler) Stop() {
	if !atomic.CompareAndSwapUint32(&s.stopped, 0, 1) {
		return
	}
	s.mu.Lock()
	if s.timer != nil {
		s.timer.Stop()
	}
	s.mu.Unlock()
	s.cancel()
	s.wg.Wait()
}

// DrainBudget bounds a single head-drain pass: the queue size observed when
// the pass started (sizeToFlush) and how many entries it has flushed so
// far (flushedCnt). Without this bound, an entry that fails and is
// re-inserted at the head would be popped again immediately, looping the
// pass forever instead of yielding back to the scheduler's backoff delay.
type DrainBudget struct {
	sizeToFlush int
	flushedCnt  int
}

// NewDrainBudget starts a budget for a pass over a queue currently holding
// size entries.
func NewDrainBudget(size int) DrainBudget {
	return DrainBudget{sizeToFlush: size}
}

// RecordFlushed marks one entry as successfully flushed this pass.
func (b *DrainBudget) RecordFlushed() { b.flushedCnt++ }

// RecordRequeued marks one entry as failed and re-inserted at the head,
// decrementing the pass's progress so the pass still stops once it has
// examined sizeToFlush entries rather than looping on the item it just put
// back.
func (b *DrainBudget) RecordRequeued() { b.flushedCnt-- }

// Done reports whether the pass has examined every entry it set out to.
func (b DrainBudget) Done() bool { return b.flushedCnt >= b.sizeToFlush }

// FlushedCount returns the number of entries flushed so far this pass.
func (b DrainBudget) FlushedCount() int { return b.flushedCnt }

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

// Package kafkatransport is an alternate inner offline.Transport that
// produces envelopes to a Kafka topic instead of sending them over HTTP,
// for deployments that already route telemetry through a broker.
package kafkatransport

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/getsentry/sentry-go-offline/pkg/envelope"
	"github.com/getsentry/sentry-go-offline/pkg/offline"
)

// Producer is a minimal abstraction over a Kafka client, deliberately
// dependency-free so this package does not force a specific Kafka driver
// on callers that don't need one.
//
// Implementations should enable an idempotent producer
// (enable.idempotence=true) and acks=all; ordering and dedup for a given
// key are then the broker's job, not this transport's.
type Producer interface {
	Produce(ctx context.Context, topic string, key []byte, value []byte, headers map[string]string) error
}

// Transport produces envelope bytes to a fixed topic, keyed by a content
// hash so identical retried envelopes collapse to the same Kafka key and
// benefit from idempotent-producer dedup.
type Transport struct {
	producer Producer
	topic    string
}

// New builds a Transport publishing to topic via producer.
func New(producer Producer, topic string) *Transport {
	return &Transport{producer: producer, topic: topic}
}

// Send implements offline.Transport. It never returns a server-error status
// code — Kafka has no equivalent of an HTTP server error — so a
// successful Produce is reported as an unconditional 200, and a Produce
// error is reported as a Go error (the engine's normal failure/backoff
// path).
func (t *Transport) Send(ctx context.Context, env envelope.Envelope) (*offline.Response, error) {
	key := contentKey(env.Bytes())
	headers := map[string]string{"content-type": "application/x-sentry-envelope"}
	if err := t.producer.Produce(ctx, t.topic, key, env.Bytes(), headers); err != nil {
		return nil, fmt.Errorf("kafkatransport: produce: %w", err)
	}
	return &offline.Response{StatusCode: 200}, nil
}

// Flush implements offline.Transport. Kafka producers are expected to
// flush on their own cadence; this transport has nothing additional to
// wait on.
func (t *Transport) Flush(ctx context.Context, timeout time.Duration) (bool, error) {
	return true, nil
}

func contentKey(payload []byte) []byte {
	sum := sha256.Sum256(payload)
	return []byte(hex.EncodeToString(sum[:]))
}

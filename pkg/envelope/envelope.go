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

// Package envelope defines the opaque payload type carried through the
// offline transport core, and the external codec contract used to
// serialize it to and parse it from the durable queue's byte storage.
//
// The core never inspects envelope contents directly; it only asks a
// Codec whether an envelope contains one of a set of item types.
package envelope

// ItemType identifies the kind of a single item packed inside an envelope.
// The core only cares about a handful of these — the ones it must never
// queue for offline retry.
type ItemType string

const (
	ItemTypeEvent           ItemType = "event"
	ItemTypeTransaction     ItemType = "transaction"
	ItemTypeSession         ItemType = "session"
	ItemTypeAttachment      ItemType = "attachment"
	ItemTypeCheckIn         ItemType = "check_in"
	ItemTypeReplayEvent     ItemType = "replay_event"
	ItemTypeReplayRecording ItemType = "replay_recording"
	ItemTypeClientReport    ItemType = "client_report"
)

// Envelope is an opaque, atomically-sendable payload. Callers construct it
// with New, the queue adapter serializes and parses it through a Codec, and
// the engine never looks inside it beyond asking the Codec whether it
// contains one of a set of item types.
type Envelope struct {
	raw       []byte
	itemTypes []ItemType
}

// New wraps raw bytes (or UTF-8 text) as an Envelope, tagging it with the
// item types it is known to carry. Most callers get itemTypes from whatever
// assembled the envelope in the first place (an SDK's event/transaction/
// replay encoders); a Codec capable of inspecting raw bytes can also derive
// them during Parse.
func New(raw []byte, itemTypes ...ItemType) Envelope {
	types := make([]ItemType, len(itemTypes))
	copy(types, itemTypes)
	return Envelope{raw: raw, itemTypes: types}
}

// Bytes returns the envelope's raw payload.
func (e Envelope) Bytes() []byte { return e.raw }

// ItemTypes returns the item types this envelope is tagged with.
func (e Envelope) ItemTypes() []ItemType {
	out := make([]ItemType, len(e.itemTypes))
	copy(out, e.itemTypes)
	return out
}

// IsZero reports whether e is the zero Envelope (no payload, no tags).
func (e Envelope) IsZero() bool { return e.raw == nil && len(e.itemTypes) == 0 }

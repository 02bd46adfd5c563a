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

package envelope

import "time"

// Codec is the external collaborator the offline transport core delegates
// all envelope interpretation to. The core treats envelopes as opaque; a
// Codec is the only thing permitted to look inside one.
type Codec interface {
	// Serialize turns an Envelope into the bytes the durable queue stores.
	Serialize(env Envelope) ([]byte, error)

	// Parse turns queue-stored bytes back into an Envelope.
	Parse(data []byte) (Envelope, error)

	// ContainsItemType reports whether env carries at least one of kinds.
	ContainsItemType(env Envelope, kinds []ItemType) bool

	// ParseRetryAfter interprets a Retry-After header value (either an
	// integer number of seconds or an HTTP-date) relative to now, returning
	// the delay to wait before the next send attempt.
	ParseRetryAfter(header string, now time.Time) time.Duration
}

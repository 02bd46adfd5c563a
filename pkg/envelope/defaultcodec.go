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

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"strconv"
	"time"
)

// DefaultCodec is a minimal, dependency-free reference Codec. It exists so
// this module is runnable on its own; an embedding SDK is expected to
// supply its own codec matching its wire format (e.g. the real Sentry
// envelope format) via the Codec interface.
//
// The wire format is a single JSON object per envelope:
//
//	{"item_types": ["event"], "payload": "<base64 of the raw bytes>"}
type DefaultCodec struct{}

type wireEnvelope struct {
	ItemTypes []ItemType `json:"item_types"`
	Payload   string     `json:"payload"`
}

// Serialize implements Codec.
func (DefaultCodec) Serialize(env Envelope) ([]byte, error) {
	w := wireEnvelope{
		ItemTypes: env.ItemTypes(),
		Payload:   base64.StdEncoding.EncodeToString(env.Bytes()),
	}
	return json.Marshal(w)
}

// Parse implements Codec.
func (DefaultCodec) Parse(data []byte) (Envelope, error) {
	var w wireEnvelope
	if err := json.Unmarshal(data, &w); err != nil {
		return Envelope{}, err
	}
	raw, err := base64.StdEncoding.DecodeString(w.Payload)
	if err != nil {
		return Envelope{}, err
	}
	return New(raw, w.ItemTypes...), nil
}

// ContainsItemType implements Codec.
func (DefaultCodec) ContainsItemType(env Envelope, kinds []ItemType) bool {
	want := make(map[ItemType]struct{}, len(kinds))
	for _, k := range kinds {
		want[k] = struct{}{}
	}
	for _, t := range env.ItemTypes() {
		if _, ok := want[t]; ok {
			return true
		}
	}
	return false
}

// ParseRetryAfter implements Codec. It accepts either an integer count of
// seconds or an HTTP-date, matching the two forms the Retry-After header
// may take.
func (DefaultCodec) ParseRetryAfter(header string, now time.Time) time.Duration {
	if header == "" {
		return 0
	}
	if secs, err := strconv.ParseFloat(header, 64); err == nil {
		if secs < 0 {
			return 0
		}
		return time.Duration(secs * float64(time.Second))
	}
	if when, err := http.ParseTime(header); err == nil {
		if d := when.Sub(now); d > 0 {
			return d
		}
	}
	return 0
}

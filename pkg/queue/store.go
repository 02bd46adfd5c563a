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

// Package queue implements the durable FIFO queue: a bounded, key-ordered
// persistent store of envelope bytes, plus an Adapter that translates
// envelope-level calls into Store operations through an injected codec.
//
// Entries are (key, value) pairs enumerated strictly by ascending key with
// unique keys. Inserting "at start" uses a key strictly less than every
// existing key (min(keys)-1, or 0 when empty); inserting "at end" uses
// max(keys)+1, or 1 when empty. No insert may leave the store holding more
// than maxSize entries — an insert attempted on a full store is a no-op.
package queue

import "context"

// Store is the durable FIFO queue contract. All four operations execute in
// a single read-write transaction against the underlying persistent store:
// each either commits fully or aborts, so partial writes are never
// observable to a concurrent reader.
type Store interface {
	// Insert writes value at the tail (or, if toStart, at the head) unless
	// the store already holds maxSize entries, in which case it is a
	// silent no-op.
	Insert(ctx context.Context, value []byte, maxSize int, toStart bool) error

	// Pop reads the keys in ascending order, and if offset names a present
	// entry, deletes and returns it. An empty store, or an offset beyond
	// the current length, resolves (nil, false, nil) rather than an error.
	Pop(ctx context.Context, offset int) (value []byte, ok bool, err error)

	// Size returns the number of entries currently stored.
	Size(ctx context.Context) (int, error)

	// Clear removes every entry.
	Clear(ctx context.Context) error

	// Close releases any resources (file handles, connections) held by the
	// store. Safe to call once at teardown; not safe to call concurrently
	// with in-flight operations.
	Close() error
}

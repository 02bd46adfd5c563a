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

package queue

import (
	"context"

	"github.com/redis/go-redis/v9"
)

// RedisStore is a shared-nothing durable FIFO queue backend suitable for a
// fleet of producers that want queue state outside any single process.
//
// Ordering lives in a sorted set (member = stringified key, score = key);
// payload bytes live in a parallel hash keyed by the same string. Using the
// envelope bytes themselves as a sorted-set member, as a naive ZADD-only
// scheme would, breaks the moment two envelopes carry identical payloads —
// the set would collapse duplicate members into one entry. Routing ordering
// and payload through the key side-steps that.
//
// Every operation is a single Lua script, so the read-decide-write sequence
// Insert and Pop need is atomic against concurrent callers without client
// side locking.
type RedisStore struct {
	rdb     *redis.Client
	zsetKey string
	hashKey string
}

// OpenRedisStore wraps an existing *redis.Client. name namespaces the
// sorted set and hash keys this store uses so multiple queues can share one
// Redis instance.
func OpenRedisStore(rdb *redis.Client, name string) *RedisStore {
	return &RedisStore{
		rdb:     rdb,
		zsetKey: "offlineq:{" + name + "}:z",
		hashKey: "offlineq:{" + name + "}:h",
	}
}

// insertScript computes the next key (min-1 or max+1, defaulting to 0/1 on
// an empty set) and writes both the zset member and hash value, unless the
// zset is already at maxSize.
var insertScript = redis.NewScript(`
local zkey = KEYS[1]
local hkey = KEYS[2]
local value = ARGV[1]
local maxSize = tonumber(ARGV[2])
local toStart = ARGV[3]

local count = redis.call('ZCARD', zkey)
if count >= maxSize then
  return 0
end

local key
if toStart == '1' then
  local head = redis.call('ZRANGE', zkey, 0, 0, 'WITHSCORES')
  if #head == 0 then
    key = 0
  else
    key = tonumber(head[2]) - 1
  end
else
  local tail = redis.call('ZRANGE', zkey, -1, -1, 'WITHSCORES')
  if #tail == 0 then
    key = 1
  else
    key = tonumber(tail[2]) + 1
  end
end

local field = tostring(key)
redis.call('ZADD', zkey, key, field)
redis.call('HSET', hkey, field, value)
return 1
`)

// popScript finds the key at offset (by rank in ascending score order) and,
// if present, deletes and returns it.
var popScript = redis.NewScript(`
local zkey = KEYS[1]
local hkey = KEYS[2]
local offset = tonumber(ARGV[1])

local members = redis.call('ZRANGE', zkey, offset, offset)
if #members == 0 then
  return false
end

local field = members[1]
local value = redis.call('HGET', hkey, field)
redis.call('ZREM', zkey, field)
redis.call('HDEL', hkey, field)
return value
`)

// Insert implements Store.
func (s *RedisStore) Insert(ctx context.Context, value []byte, maxSize int, toStart bool) error {
	flag := "0"
	if toStart {
		flag = "1"
	}
	return insertScript.Run(ctx, s.rdb, []string{s.zsetKey, s.hashKey}, value, maxSize, flag).Err()
}

// Pop implements Store.
func (s *RedisStore) Pop(ctx context.Context, offset int) ([]byte, bool, error) {
	res, err := popScript.Run(ctx, s.rdb, []string{s.zsetKey, s.hashKey}, offset).Result()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	switch v := res.(type) {
	case string:
		return []byte(v), true, nil
	default:
		return nil, false, nil
	}
}

// Size implements Store.
func (s *RedisStore) Size(ctx context.Context) (int, error) {
	n, err := s.rdb.ZCard(ctx, s.zsetKey).Result()
	return int(n), err
}

// Clear implements Store.
func (s *RedisStore) Clear(ctx context.Context) error {
	return s.rdb.Del(ctx, s.zsetKey, s.hashKey).Err()
}

// Close implements Store. It does not close the underlying *redis.Client,
// which the caller owns.
func (s *RedisStore) Close() error { return nil }

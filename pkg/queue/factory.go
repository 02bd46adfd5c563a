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
	"database/sql"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// BackendOptions configures the backend constructors BuildStore dispatches
// to. Only the fields relevant to the selected Backend need be set.
type BackendOptions struct {
	// SQLitePath is the database file BackendSQLite opens.
	SQLitePath string

	// PostgresDB is an already-open connection pool; PostgresDB and
	// RedisClient are owned by the caller and outlive the Store built from
	// them (Store.Close never closes either).
	PostgresDB *sql.DB

	// RedisClient is an already-connected client for BackendRedis.
	RedisClient *redis.Client
}

// Backend selects one of the Store implementations this package ships.
type Backend string

const (
	BackendSQLite   Backend = "sqlite"
	BackendPostgres Backend = "postgres"
	BackendRedis    Backend = "redis"
)

// BuildStore constructs a Store for the given backend and queue name. name
// becomes the SQLite/Postgres table name (and, after namespacing, the Redis
// key prefix), so it must be a valid identifier for the SQL backends.
func BuildStore(backend Backend, name string, opts BackendOptions) (Store, error) {
	switch backend {
	case "", BackendSQLite:
		path := opts.SQLitePath
		if path == "" {
			path = name + ".sqlite3"
		}
		return OpenSQLiteStore(path, name)
	case BackendPostgres:
		if opts.PostgresDB == nil {
			return nil, fmt.Errorf("queue: postgres backend requires BackendOptions.PostgresDB")
		}
		return OpenPostgresStore(opts.PostgresDB, name)
	case BackendRedis:
		if opts.RedisClient == nil {
			return nil, fmt.Errorf("queue: redis backend requires BackendOptions.RedisClient")
		}
		return OpenRedisStore(opts.RedisClient, name), nil
	default:
		return nil, fmt.Errorf("queue: unknown backend %q", backend)
	}
}

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
	"database/sql"
	"fmt"
	"hash/fnv"
	"regexp"

	_ "github.com/lib/pq"
)

// Postgres schema (reference):
//
// CREATE TABLE IF NOT EXISTS <table> (
//   key   BIGINT PRIMARY KEY,
//   value BYTEA NOT NULL
// );
//
// Unlike SQLiteStore, a Postgres connection pool allows more than one
// concurrent connection, so a single BEGIN/COMMIT per operation is not
// enough to serialize the read-then-write sequences Insert and Pop need.
// Each operation takes a transaction-scoped advisory lock keyed on the
// table name (pg_advisory_xact_lock) so concurrent callers queue up instead
// of racing on the same min/max key computation.

var pgIdentifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// PostgresStore is an alternate durable FIFO queue backend for deployments
// that already run Postgres and would rather not introduce SQLite files.
type PostgresStore struct {
	db      *sql.DB
	table   string
	lockKey int64
}

// OpenPostgresStore opens a store against an existing *sql.DB (the caller
// owns its lifecycle beyond Close, which only drops this store's reference)
// and ensures the backing table exists.
func OpenPostgresStore(db *sql.DB, storeName string) (*PostgresStore, error) {
	if !pgIdentifierPattern.MatchString(storeName) {
		return nil, fmt.Errorf("queue: invalid store name %q", storeName)
	}
	s := &PostgresStore{db: db, table: storeName, lockKey: advisoryLockKey(storeName)}
	if err := s.initSchema(); err != nil {
		return nil, err
	}
	return s, nil
}

func advisoryLockKey(name string) int64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(name))
	return int64(h.Sum64())
}

func (s *PostgresStore) initSchema() error {
	_, err := s.db.Exec(fmt.Sprintf(
		`CREATE TABLE IF NOT EXISTS %s (key BIGINT PRIMARY KEY, value BYTEA NOT NULL)`, s.table))
	return err
}

func (s *PostgresStore) begin(ctx context.Context) (*sql.Tx, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	if _, err := tx.ExecContext(ctx, "SELECT pg_advisory_xact_lock($1)", s.lockKey); err != nil {
		tx.Rollback()
		return nil, err
	}
	return tx, nil
}

// Insert implements Store.
func (s *PostgresStore) Insert(ctx context.Context, value []byte, maxSize int, toStart bool) error {
	tx, err := s.begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var count int
	if err := tx.QueryRowContext(ctx, fmt.Sprintf("SELECT COUNT(*) FROM %s", s.table)).Scan(&count); err != nil {
		return err
	}
	if count >= maxSize {
		return tx.Commit()
	}

	var key int64
	if toStart {
		var min sql.NullInt64
		if err := tx.QueryRowContext(ctx, fmt.Sprintf("SELECT MIN(key) FROM %s", s.table)).Scan(&min); err != nil {
			return err
		}
		if min.Valid {
			key = min.Int64 - 1
		}
	} else {
		var max sql.NullInt64
		if err := tx.QueryRowContext(ctx, fmt.Sprintf("SELECT MAX(key) FROM %s", s.table)).Scan(&max); err != nil {
			return err
		}
		if max.Valid {
			key = max.Int64 + 1
		} else {
			key = 1
		}
	}

	if _, err := tx.ExecContext(ctx,
		fmt.Sprintf("INSERT INTO %s(key, value) VALUES ($1, $2)", s.table), key, value); err != nil {
		return err
	}
	return tx.Commit()
}

// Pop implements Store.
func (s *PostgresStore) Pop(ctx context.Context, offset int) ([]byte, bool, error) {
	tx, err := s.begin(ctx)
	if err != nil {
		return nil, false, err
	}
	defer tx.Rollback()

	rows, err := tx.QueryContext(ctx, fmt.Sprintf("SELECT key FROM %s ORDER BY key ASC", s.table))
	if err != nil {
		return nil, false, err
	}
	var keys []int64
	for rows.Next() {
		var k int64
		if err := rows.Scan(&k); err != nil {
			rows.Close()
			return nil, false, err
		}
		keys = append(keys, k)
	}
	if err := rows.Err(); err != nil {
		return nil, false, err
	}
	rows.Close()

	if offset >= len(keys) {
		return nil, false, tx.Commit()
	}
	key := keys[offset]

	var value []byte
	if err := tx.QueryRowContext(ctx, fmt.Sprintf("SELECT value FROM %s WHERE key = $1", s.table), key).Scan(&value); err != nil {
		return nil, false, err
	}
	if _, err := tx.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s WHERE key = $1", s.table), key); err != nil {
		return nil, false, err
	}
	if err := tx.Commit(); err != nil {
		return nil, false, err
	}
	return value, true, nil
}

// Size implements Store.
func (s *PostgresStore) Size(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, fmt.Sprintf("SELECT COUNT(*) FROM %s", s.table)).Scan(&count)
	return count, err
}

// Clear implements Store.
func (s *PostgresStore) Clear(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s", s.table))
	return err
}

// Close implements Store. It does not close the underlying *sql.DB, which
// the caller owns.
func (s *PostgresStore) Close() error { return nil }

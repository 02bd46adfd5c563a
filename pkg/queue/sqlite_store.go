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
	"errors"
	"fmt"
	"regexp"

	_ "github.com/mattn/go-sqlite3"
)

// identifierPattern whitelists table names so they can be safely
// interpolated into SQL (the driver has no way to parameterize identifiers).
var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// SQLiteStore is the default durable FIFO queue backend: a single SQLite
// file, one table per queue (storeName), one key-value row per envelope.
type SQLiteStore struct {
	db    *sql.DB
	table string
}

// OpenSQLiteStore opens (creating if absent) the SQLite database at path and
// ensures a table named storeName exists inside it. A single connection is
// kept open (SetMaxOpenConns(1)) so every Store operation above is
// serialized through SQLite's own transaction log, matching the
// single-writer assumption in spec.md §5.
func OpenSQLiteStore(path, storeName string) (*SQLiteStore, error) {
	if !identifierPattern.MatchString(storeName) {
		return nil, fmt.Errorf("queue: invalid store name %q", storeName)
	}
	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL&_foreign_keys=ON", path)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("queue: open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)

	s := &SQLiteStore{db: db, table: storeName}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) initSchema() error {
	_, err := s.db.Exec(fmt.Sprintf(
		`CREATE TABLE IF NOT EXISTS %s (key INTEGER PRIMARY KEY, value BLOB NOT NULL)`, s.table))
	return err
}

// Insert implements Store.
func (s *SQLiteStore) Insert(ctx context.Context, value []byte, maxSize int, toStart bool) error {
	tx, err := s.db.BeginTx(ctx, nil)
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
		} else {
			key = 0
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
		fmt.Sprintf("INSERT INTO %s(key, value) VALUES (?, ?)", s.table), key, value); err != nil {
		return err
	}
	return tx.Commit()
}

// Pop implements Store.
func (s *SQLiteStore) Pop(ctx context.Context, offset int) ([]byte, bool, error) {
	if offset < 0 {
		return nil, false, errors.New("queue: negative offset")
	}
	tx, err := s.db.BeginTx(ctx, nil)
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
	if err := tx.QueryRowContext(ctx, fmt.Sprintf("SELECT value FROM %s WHERE key = ?", s.table), key).Scan(&value); err != nil {
		return nil, false, err
	}
	if _, err := tx.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s WHERE key = ?", s.table), key); err != nil {
		return nil, false, err
	}
	if err := tx.Commit(); err != nil {
		return nil, false, err
	}
	return value, true, nil
}

// Size implements Store.
func (s *SQLiteStore) Size(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, fmt.Sprintf("SELECT COUNT(*) FROM %s", s.table)).Scan(&count)
	return count, err
}

// Clear implements Store.
func (s *SQLiteStore) Clear(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s", s.table))
	return err
}

// Close implements Store.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

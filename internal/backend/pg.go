/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package backend holds the server-side collaborators of the script pipeline:
// the Postgres record store, the GitHub contents client and the HTTP intake
// that accepts form submissions.
package backend

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"

	applog "mandatuvideo/internal/log"
	"mandatuvideo/internal/storage"
)

// PGStore is a RecordStore backed by Postgres. Bodies are stored as JSONB, so
// Get returns the document in Postgres' normalized form.
type PGStore struct {
	pool *pgxpool.Pool
}

// OpenPG connects to dsn, pings the server and applies the embedded migrations.
func OpenPG(ctx context.Context, dsn string) (*PGStore, error) {
	l := applog.WithOperation(applog.WithComponent("backend"), "pg_open")
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	pctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := pool.Ping(pctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}
	db := stdlib.OpenDBFromPool(pool)
	err = applyMigrations(pctx, db)
	if cerr := db.Close(); cerr != nil {
		l.Warn("close migration handle", slog.Any("err", cerr))
	}
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	l.Debug("postgres store ready")
	return &PGStore{pool: pool}, nil
}

// Close releases the pool.
func (s *PGStore) Close() { s.pool.Close() }

// Ping reports whether the database answers; used by /readyz.
func (s *PGStore) Ping(ctx context.Context) error { return s.pool.Ping(ctx) }

const (
	// dialect=PostgreSQL
	pgGetRecord = `SELECT body FROM records WHERE key = $1`
	// dialect=PostgreSQL
	pgPutRecord = `INSERT INTO records (key, kind, body) VALUES ($1, $2, $3::jsonb)
ON CONFLICT (key) DO UPDATE SET body = EXCLUDED.body, updated_at = now()`
	// dialect=PostgreSQL
	pgListRecords = `SELECT key FROM records ORDER BY key COLLATE "C"`
	// dialect=PostgreSQL
	pgListPending = `SELECT key FROM records
WHERE kind = 'submission' AND body -> 'otros' ->> 'transformado' = 'false'
ORDER BY key COLLATE "C"`
)

func (s *PGStore) Get(ctx context.Context, key string) ([]byte, error) {
	if err := storage.CheckKey(key); err != nil {
		return nil, err
	}
	var body []byte
	err := s.pool.QueryRow(ctx, pgGetRecord, key).Scan(&body)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", storage.ErrNotFound, key)
	}
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", key, err)
	}
	return body, nil
}

func (s *PGStore) Put(ctx context.Context, key string, data []byte) error {
	if err := storage.CheckKey(key); err != nil {
		return err
	}
	if _, err := s.pool.Exec(ctx, pgPutRecord, key, storage.KindOf(key), string(data)); err != nil {
		return fmt.Errorf("put %s: %w", key, err)
	}
	return nil
}

func (s *PGStore) List(ctx context.Context) ([]string, error) {
	return s.keys(ctx, pgListRecords)
}

// Pending lists submissions whose transform has not run yet.
func (s *PGStore) Pending(ctx context.Context) ([]string, error) {
	return s.keys(ctx, pgListPending)
}

func (s *PGStore) keys(ctx context.Context, q string) ([]string, error) {
	rows, err := s.pool.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	keys, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	return keys, nil
}

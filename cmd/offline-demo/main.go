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

// Package main provides the entry point for the offline transport demo
// application.
//
// This application is a concrete, runnable demonstration of the offline
// transport core (pkg/offline). It wires a durable queue backend
// (pkg/queue), an HTTP inner transport (transport/httptransport), the
// retry/backoff engine, and an HTTP ingest front door (internal/ingest)
// into a single process, so the offline/online transition can be exercised
// by stopping and starting the upstream endpoint while traffic is flowing.
package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/getsentry/sentry-go-offline/internal/ingest"
	"github.com/getsentry/sentry-go-offline/pkg/envelope"
	"github.com/getsentry/sentry-go-offline/pkg/offline"
	"github.com/getsentry/sentry-go-offline/pkg/queue"
	"github.com/getsentry/sentry-go-offline/transport/httptransport"
)

func main() {
	// --- What this is ---
	// This demo runs the offline transport core against a real upstream
	// endpoint of your choosing. Send it envelopes over HTTP and it will
	// deliver them live; kill the upstream and it starts queueing to a
	// durable store, backing off, and draining the backlog in order once
	// the upstream comes back.
	//
	// Try it:
	//   1) Start an endpoint that accepts POSTs, e.g.: nc -l 9000
	//   2) Run this binary: go run ./cmd/offline-demo -upstream http://localhost:9000
	//   3) POST envelopes at it:
	//        curl -X POST --data-binary @envelope.bin http://localhost:8080/envelope
	//   4) Kill the nc listener, keep POSTing — the queue grows, /metrics
	//      shows retry_delay climbing. Restart the listener and watch the
	//      backlog drain.

	httpAddr := flag.String("http_addr", ":8080", "Ingest server listen address")
	upstream := flag.String("upstream", "http://localhost:9000", "Endpoint the inner transport sends envelopes to")
	configPath := flag.String("config", "", "Optional YAML FileConfig path overriding the flags below")

	backend := flag.String("backend", "sqlite", "Durable queue backend: sqlite, postgres, or redis")
	sqlitePath := flag.String("sqlite_path", "offline-demo.sqlite3", "SQLite file path (backend=sqlite)")
	postgresDSN := flag.String("postgres_dsn", "", "Postgres connection string (backend=postgres)")
	redisAddr := flag.String("redis_addr", "localhost:6379", "Redis address (backend=redis)")

	storeName := flag.String("store_name", "envelopes", "Queue table / key-namespace name")
	maxQueueSize := flag.Int("max_queue_size", 30, "Maximum number of queued envelopes before new ones are dropped")
	flushAtStartup := flag.Bool("flush_at_startup", true, "Drain any backlog left over from a prior run at startup")
	fullOffline := flag.Bool("full_offline", false, "Never attempt live delivery; only queue and drain on Flush")
	statsInterval := flag.Duration("stats_interval", 30*time.Second, "How often to log queue depth / retry delay; 0 disables")
	flag.Parse()

	opts := offline.Options{
		FlushAtStartup: *flushAtStartup,
		FullOffline:    *fullOffline,
		StoreName:      *storeName,
		MaxQueueSize:   *maxQueueSize,
		Metrics:        offline.NewMetrics(prometheus.DefaultRegisterer),
	}

	if *configPath != "" {
		cfg, err := offline.LoadFileConfig(*configPath)
		if err != nil {
			log.Fatalf("load config: %v", err)
		}
		opts = cfg.ApplyTo(opts)
		if cfg.Backend.Kind != "" {
			*backend = cfg.Backend.Kind
		}
		if cfg.Backend.SQLitePath != "" {
			*sqlitePath = cfg.Backend.SQLitePath
		}
		if cfg.Backend.PostgresDSN != "" {
			*postgresDSN = cfg.Backend.PostgresDSN
		}
		if cfg.Backend.RedisAddr != "" {
			*redisAddr = cfg.Backend.RedisAddr
		}
		if cfg.StatsInterval > 0 {
			*statsInterval = cfg.StatsInterval
		}
	}

	store, closeBackend, err := buildStore(queue.Backend(*backend), *storeName, *sqlitePath, *postgresDSN, *redisAddr)
	if err != nil {
		log.Fatalf("build queue store: %v", err)
	}
	defer closeBackend()

	opts.Store = store
	opts.Transport = httptransport.New(*upstream)

	engine, err := offline.New(opts)
	if err != nil {
		log.Fatalf("construct offline engine: %v", err)
	}

	var reporter *offline.StatsReporter
	if *statsInterval > 0 {
		reporter = offline.NewStatsReporter(engine, *statsInterval)
		reporter.Start(context.Background())
	}

	server := ingest.NewServer(engine, envelope.DefaultCodec{}, *httpAddr)
	go func() {
		if err := server.ListenAndServe(); err != nil {
			log.Fatalf("ingest server: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	fmt.Println("\nShutting down offline-demo...")

	if reporter != nil {
		reporter.Stop()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Printf("ingest server shutdown: %v", err)
	}
	if err := engine.Close(); err != nil {
		log.Printf("engine close: %v", err)
	}

	fmt.Println("offline-demo stopped.")
}

// buildStore opens the selected backend and returns a cleanup func that
// closes whatever connection pool the demo itself opened (the Store's own
// Close is called separately by engine.Close via the adapter).
func buildStore(backend queue.Backend, name, sqlitePath, postgresDSN, redisAddr string) (queue.Store, func(), error) {
	switch backend {
	case queue.BackendPostgres:
		db, err := sql.Open("postgres", postgresDSN)
		if err != nil {
			return nil, func() {}, fmt.Errorf("open postgres: %w", err)
		}
		store, err := queue.BuildStore(backend, name, queue.BackendOptions{PostgresDB: db})
		if err != nil {
			db.Close()
			return nil, func() {}, err
		}
		return store, func() { db.Close() }, nil
	case queue.BackendRedis:
		rdb := redis.NewClient(&redis.Options{Addr: redisAddr})
		store, err := queue.BuildStore(backend, name, queue.BackendOptions{RedisClient: rdb})
		if err != nil {
			rdb.Close()
			return nil, func() {}, err
		}
		return store, func() { rdb.Close() }, nil
	default:
		store, err := queue.BuildStore(queue.BackendSQLite, name, queue.BackendOptions{SQLitePath: sqlitePath})
		if err != nil {
			return nil, func() {}, err
		}
		return store, func() {}, nil
	}
}

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

// Package ingest implements the HTTP front door for the offline-demo
// binary: it accepts envelope POSTs from SDK-style clients and hands them
// to an offline.Engine, and exposes /health and /metrics for operators.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/getsentry/sentry-go-offline/pkg/envelope"
	"github.com/getsentry/sentry-go-offline/pkg/offline"
)

// Server fronts an offline.Engine with an HTTP API.
type Server struct {
	engine *offline.Engine
	codec  envelope.Codec

	httpServer *http.Server
}

// NewServer wires engine behind an HTTP server listening on addr.
func NewServer(engine *offline.Engine, codec envelope.Codec, addr string) *Server {
	s := &Server{engine: engine, codec: codec}

	r := mux.NewRouter()
	r.HandleFunc("/envelope", s.handleEnvelope).Methods(http.MethodPost)
	r.HandleFunc("/flush", s.handleFlush).Methods(http.MethodPost)
	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

// handleEnvelope accepts a raw envelope body and forwards it to the engine.
func (s *Server) handleEnvelope(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, 20<<20))
	if err != nil {
		http.Error(w, "failed to read body", http.StatusBadRequest)
		return
	}

	env := envelope.New(body)
	resp, err := s.engine.Send(r.Context(), env)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}
	if resp != nil && resp.StatusCode != 0 {
		w.WriteHeader(resp.StatusCode)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

// handleFlush drives offline.Engine.Flush; ?timeout_ms=<n> overrides the
// default. In full-offline mode a negative value purges the queue; in live
// mode the value is passed to the inner transport's Flush.
func (s *Server) handleFlush(w http.ResponseWriter, r *http.Request) {
	timeout := 10 * time.Second
	if raw := r.URL.Query().Get("timeout_ms"); raw != "" {
		var ms int64
		if _, err := fmt.Sscanf(raw, "%d", &ms); err == nil {
			timeout = time.Duration(ms) * time.Millisecond
		}
	}

	started, err := s.engine.Flush(r.Context(), timeout)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if !started {
		w.WriteHeader(http.StatusConflict)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, "OK")
}

// ListenAndServe starts the HTTP server and blocks until it exits.
func (s *Server) ListenAndServe() error {
	log := fmt.Sprintf("offline ingest server listening on %s\n", s.httpServer.Addr)
	fmt.Print(log)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

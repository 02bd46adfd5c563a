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

package ingest

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/getsentry/sentry-go-offline/pkg/envelope"
	"github.com/getsentry/sentry-go-offline/pkg/offline"
	"github.com/getsentry/sentry-go-offline/pkg/queue"
)

// fakeTransport always succeeds, recording every envelope it sees.
type fakeTransport struct {
	sent [][]byte
}

func (f *fakeTransport) Send(ctx context.Context, env envelope.Envelope) (*offline.Response, error) {
	f.sent = append(f.sent, env.Bytes())
	return &offline.Response{StatusCode: 200}, nil
}

func (f *fakeTransport) Flush(ctx context.Context, timeout time.Duration) (bool, error) {
	return true, nil
}

func newTestServer(t *testing.T) (*Server, *fakeTransport) {
	t.Helper()
	store, err := queue.OpenSQLiteStore(filepath.Join(t.TempDir(), "queue.db"), "queue")
	if err != nil {
		t.Fatalf("OpenSQLiteStore() error = %v", err)
	}
	t.Cleanup(func() { store.Close() })

	transport := &fakeTransport{}
	engine, err := offline.New(offline.Options{
		Store:     store,
		Transport: transport,
	})
	if err != nil {
		t.Fatalf("offline.New() error = %v", err)
	}
	t.Cleanup(func() { engine.Close() })

	return NewServer(engine, envelope.DefaultCodec{}, "127.0.0.1:0"), transport
}

func TestServer_HandleEnvelopeForwardsToEngine(t *testing.T) {
	srv, transport := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/envelope", bytes.NewReader([]byte("payload")))
	rec := httptest.NewRecorder()
	srv.httpServer.Handler.ServeHTTP(rec, req)

	// The handler passes through the upstream status (200 from fakeTransport).
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if len(transport.sent) != 1 || string(transport.sent[0]) != "payload" {
		t.Errorf("transport.sent = %v, want one envelope with payload %q", transport.sent, "payload")
	}
}

func TestServer_HandleHealth(t *testing.T) {
	srv, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	srv.httpServer.Handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if rec.Body.String() != "OK" {
		t.Errorf("body = %q, want %q", rec.Body.String(), "OK")
	}
}

// The test engine runs in live mode, so the negative timeout is forwarded to
// the inner transport's Flush rather than purging the queue.
func TestServer_HandleFlushNegativeTimeoutLiveModeAccepted(t *testing.T) {
	srv, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/flush?timeout_ms=-1", nil)
	rec := httptest.NewRecorder()
	srv.httpServer.Handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusAccepted {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusAccepted)
	}
}

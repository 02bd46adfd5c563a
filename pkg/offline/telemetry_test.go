package offline

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/getsentry/sentry-go-offline/pkg/envelope"
	"github.com/getsentry/sentry-go-offline/pkg/queue"
)

func TestStatsReporter_LogsQueueDepth(t *testing.T) {
	dir := t.TempDir()
	store, err := queue.OpenSQLiteStore(filepath.Join(dir, "q.sqlite3"), "envelopes")
	if err != nil {
		t.Fatalf("OpenSQLiteStore() error = %v", err)
	}
	defer store.Close()

	transport := &fakeTransport{}
	e, err := New(Options{Store: store, Transport: transport, FullOffline: true})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer e.Close()

	if _, err := e.Send(context.Background(), envelope.New([]byte("e1"), envelope.ItemTypeEvent)); err != nil {
		t.Fatalf("Send() error = %v", err)
	}

	reporter := NewStatsReporter(e, 10*time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())
	reporter.Start(ctx)
	defer func() {
		cancel()
		reporter.Stop()
	}()

	time.Sleep(50 * time.Millisecond)
	// No observable side effect beyond log output in this test double, so
	// this mainly exercises that Start/Stop do not deadlock or panic while
	// the loop is concurrently reading engine state.
}

func TestStatsReporter_ZeroIntervalDisabled(t *testing.T) {
	e := &Engine{opts: Options{Logger: nil}.withDefaults()}
	r := NewStatsReporter(e, 0)
	r.Start(context.Background())
	if r.stop != nil {
		t.Error("Start() with interval <= 0 should not launch the loop")
	}
	r.Stop()
}

//go:build e2e

// Package e2e contains end-to-end tests that launch the real offline-demo
// binary and exercise it over HTTP against a fake upstream, covering the
// live-send path and the offline-queue-and-drain path, both on the default
// SQLite queue backend.
package e2e

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"sync"
	"testing"
	"time"
)

type runningDemo struct {
	cmd     *exec.Cmd
	baseURL string
	logC    chan string
}

// buildAndStartDemo builds the cmd/offline-demo binary into a temp directory
// and starts it against upstreamURL, waiting until its HTTP ingest server
// accepts connections.
func buildAndStartDemo(t *testing.T, upstreamURL string, extraArgs ...string) *runningDemo {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to find free port: %v", err)
	}
	addr := ln.Addr().String()
	_ = ln.Close()
	_, port, _ := net.SplitHostPort(addr)

	tmpDir := t.TempDir()
	exe := filepath.Join(tmpDir, exeName("offline-demo"))
	build := exec.Command("go", "build", "-o", exe, "github.com/getsentry/sentry-go-offline/cmd/offline-demo")
	build.Stdout = os.Stdout
	build.Stderr = os.Stderr
	if err := build.Run(); err != nil {
		t.Fatalf("failed to build offline-demo: %v", err)
	}

	args := []string{
		"--http_addr=:" + port,
		"--upstream=" + upstreamURL,
		"--sqlite_path=" + filepath.Join(tmpDir, "queue.sqlite3"),
		"--stats_interval=0",
		"--flush_at_startup=false",
	}
	args = append(args, extraArgs...)

	cmd := exec.Command(exe, args...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		t.Fatalf("StdoutPipe: %v", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		t.Fatalf("StderrPipe: %v", err)
	}
	logC := make(chan string, 1024)
	go scanLines(stdout, logC)
	go scanLines(stderr, logC)

	if err := cmd.Start(); err != nil {
		t.Fatalf("failed to start offline-demo: %v", err)
	}

	base := fmt.Sprintf("http://127.0.0.1:%s", port)
	client := &http.Client{Timeout: 500 * time.Millisecond}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	ok := false
	for ctx.Err() == nil {
		resp, err := client.Get(base + "/health")
		if err == nil {
			resp.Body.Close()
			ok = true
			break
		}
		time.Sleep(50 * time.Millisecond)
	}
	if !ok {
		_ = cmd.Process.Kill()
		t.Fatalf("offline-demo did not become ready")
	}

	rd := &runningDemo{cmd: cmd, baseURL: base, logC: logC}
	t.Cleanup(func() {
		_ = cmd.Process.Kill()
		_, _ = cmd.Process.Wait()
	})
	return rd
}

func scanLines(r io.ReadCloser, out chan<- string) {
	s := bufio.NewScanner(r)
	for s.Scan() {
		out <- s.Text()
	}
}

func exeName(base string) string {
	if runtime.GOOS == "windows" {
		return base + ".exe"
	}
	return base
}

// fakeUpstream is a real HTTP server recording every envelope it receives,
// standing in for an SDK ingest endpoint.
type fakeUpstream struct {
	mu       sync.Mutex
	received [][]byte
}

func newFakeUpstream() *fakeUpstream {
	return &fakeUpstream{}
}

func (f *fakeUpstream) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	f.mu.Lock()
	f.received = append(f.received, body)
	f.mu.Unlock()
	w.WriteHeader(http.StatusOK)
}

func (f *fakeUpstream) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.received)
}

func TestOfflineDemo_LiveDeliverySucceeds(t *testing.T) {
	upstream := newFakeUpstream()
	srv := httptest.NewServer(upstream)
	defer srv.Close()

	rd := buildAndStartDemo(t, srv.URL)

	resp, err := http.Post(rd.baseURL+"/envelope", "application/x-sentry-envelope", nil)
	if err != nil {
		t.Fatalf("POST /envelope: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusAccepted {
		t.Fatalf("status = %d", resp.StatusCode)
	}

	deadline := time.Now().Add(2 * time.Second)
	for upstream.count() < 1 && time.Now().Before(deadline) {
		time.Sleep(20 * time.Millisecond)
	}
	if upstream.count() != 1 {
		t.Fatalf("upstream received %d envelopes, want 1", upstream.count())
	}
}

// TestOfflineDemo_QueuesWhileUpstreamDownAndDrainsWhenBack points the demo
// at a port nothing is listening on yet (a real connection-refused error,
// not an HTTP error status — only the former takes the offline queueing
// path) and then starts a real listener on that same port to let the
// backlog drain.
func TestOfflineDemo_QueuesWhileUpstreamDownAndDrainsWhenBack(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("reserve upstream port: %v", err)
	}
	upstreamAddr := ln.Addr().String()
	_ = ln.Close()

	rd := buildAndStartDemo(t, "http://"+upstreamAddr, "--max_queue_size=10")

	for i := 0; i < 3; i++ {
		resp, err := http.Post(rd.baseURL+"/envelope", "application/x-sentry-envelope", nil)
		if err != nil {
			t.Fatalf("POST /envelope: %v", err)
		}
		resp.Body.Close()
	}

	time.Sleep(300 * time.Millisecond)

	upstream := newFakeUpstream()
	realLn, err := net.Listen("tcp", upstreamAddr)
	if err != nil {
		t.Fatalf("bring upstream back up on %s: %v", upstreamAddr, err)
	}
	go func() { _ = http.Serve(realLn, upstream) }()
	defer realLn.Close()

	deadline := time.Now().Add(20 * time.Second)
	for upstream.count() < 3 && time.Now().Before(deadline) {
		time.Sleep(100 * time.Millisecond)
	}
	if upstream.count() != 3 {
		t.Fatalf("upstream received %d envelopes after recovery, want 3", upstream.count())
	}
}

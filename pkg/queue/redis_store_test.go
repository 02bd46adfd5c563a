package queue

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

// openTestRedisStore connects to Redis at QUEUE_TEST_REDIS_ADDR (default
// 127.0.0.1:6379), skipping when unreachable, matching the e2e skip
// convention used against other external dependencies in this module.
func openTestRedisStore(t *testing.T) (*RedisStore, func()) {
	t.Helper()
	addr := os.Getenv("QUEUE_TEST_REDIS_ADDR")
	if addr == "" {
		addr = "127.0.0.1:6379"
	}
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		t.Skipf("redis not reachable at %s: %v", addr, err)
	}
	s := OpenRedisStore(rdb, "queue_store_test")
	cleanup := func() {
		s.Clear(context.Background())
		rdb.Close()
	}
	return s, cleanup
}

func TestRedisStore_FIFOOrder(t *testing.T) {
	s, cleanup := openTestRedisStore(t)
	defer cleanup()
	ctx := context.Background()

	if err := s.Clear(ctx); err != nil {
		t.Fatalf("Clear() error = %v", err)
	}
	for _, v := range []string{"a", "b", "c"} {
		if err := s.Insert(ctx, []byte(v), 10, false); err != nil {
			t.Fatalf("Insert(%q) error = %v", v, err)
		}
	}
	for _, want := range []string{"a", "b", "c"} {
		got, ok, err := s.Pop(ctx, 0)
		if err != nil || !ok {
			t.Fatalf("Pop() = %q, %v, %v", got, ok, err)
		}
		if string(got) != want {
			t.Errorf("Pop() = %q, want %q", got, want)
		}
	}
}

func TestRedisStore_DuplicatePayloadsDoNotCollide(t *testing.T) {
	s, cleanup := openTestRedisStore(t)
	defer cleanup()
	ctx := context.Background()

	if err := s.Clear(ctx); err != nil {
		t.Fatalf("Clear() error = %v", err)
	}
	for i := 0; i < 3; i++ {
		if err := s.Insert(ctx, []byte("same"), 10, false); err != nil {
			t.Fatalf("Insert() error = %v", err)
		}
	}
	n, err := s.Size(ctx)
	if err != nil {
		t.Fatalf("Size() error = %v", err)
	}
	if n != 3 {
		t.Errorf("Size() = %d, want 3 (identical payloads must not collapse to one member)", n)
	}
}

func TestRedisStore_InsertToStart(t *testing.T) {
	s, cleanup := openTestRedisStore(t)
	defer cleanup()
	ctx := context.Background()

	if err := s.Clear(ctx); err != nil {
		t.Fatalf("Clear() error = %v", err)
	}
	if err := s.Insert(ctx, []byte("tail"), 10, false); err != nil {
		t.Fatalf("Insert(tail) error = %v", err)
	}
	if err := s.Insert(ctx, []byte("head"), 10, true); err != nil {
		t.Fatalf("Insert(head) error = %v", err)
	}
	got, ok, err := s.Pop(ctx, 0)
	if err != nil || !ok {
		t.Fatalf("Pop() = %q, %v, %v", got, ok, err)
	}
	if string(got) != "head" {
		t.Errorf("Pop() = %q, want %q", got, "head")
	}
}

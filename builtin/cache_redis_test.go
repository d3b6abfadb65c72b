package builtin

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestRedisCacheBackendRoundTrip(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	backend := NewRedisCacheBackend(client, context.Background())
	if err := backend.Set("k", []byte("v"), time.Minute); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	data, ok, err := backend.Get("k")
	if err != nil || !ok || string(data) != "v" {
		t.Fatalf("expected round-tripped value, got %q ok=%v err=%v", data, ok, err)
	}
	if _, ok, _ := backend.Get("missing"); ok {
		t.Fatalf("expected a miss for an unset key")
	}
}

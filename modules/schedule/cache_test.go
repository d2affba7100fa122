package schedule

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	domain "github.com/BekaPrado/novo-mobile-sub000/domain/calendar"
)

// Requires Redis running on localhost:6379; skipped otherwise.
const testRedisAddr = "localhost:6379"

func setupTestCache(t *testing.T, prefix string) *RedisCache {
	t.Helper()

	client := redis.NewClient(&redis.Options{Addr: testRedisAddr})
	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("Redis not available at %s: %v", testRedisAddr, err)
	}

	cleanup := func() {
		keys, _ := client.Keys(ctx, prefix+"*").Result()
		if len(keys) > 0 {
			client.Del(ctx, keys...)
		}
	}
	cleanup()
	t.Cleanup(func() {
		cleanup()
		client.Close()
	})

	return NewRedisCache(client, prefix, time.Minute)
}

func TestRedisCache_GetSetDelete(t *testing.T) {
	cache := setupTestCache(t, "test:schedule:")
	ctx := context.Background()

	var got []domain.EventRecord
	found, err := cache.Get(ctx, "user:1", &got)
	if err != nil || found {
		t.Fatalf("Get() on empty cache = %v, %v", found, err)
	}

	want := []domain.EventRecord{{ID: 1, EventDate: "2024-03-05T00:00:00", Name: "x"}}
	if err := cache.Set(ctx, "user:1", want); err != nil {
		t.Fatalf("Set() error: %v", err)
	}

	found, err = cache.Get(ctx, "user:1", &got)
	if err != nil || !found {
		t.Fatalf("Get() after Set = %v, %v", found, err)
	}
	if len(got) != 1 || got[0].Name != "x" {
		t.Errorf("Get() = %+v", got)
	}

	if err := cache.Delete(ctx, "user:1", "group:9"); err != nil {
		t.Fatalf("Delete() error: %v", err)
	}
	found, _ = cache.Get(ctx, "user:1", &got)
	if found {
		t.Error("Get() after Delete should miss")
	}

	stats := cache.Snapshot()
	if stats.Hits != 1 || stats.Misses != 2 || stats.Sets != 1 || stats.Deletes != 1 {
		t.Errorf("Snapshot() = %+v", stats)
	}
	if stats.HitRate < 33 || stats.HitRate > 34 {
		t.Errorf("HitRate = %.2f, want about 33.3", stats.HitRate)
	}
}

func TestRedisCache_TTL(t *testing.T) {
	cache := setupTestCache(t, "test:schedule:ttl:")
	ctx := context.Background()

	if err := cache.Set(ctx, "k", []int{1}); err != nil {
		t.Fatalf("Set() error: %v", err)
	}
	ttl, err := cache.client.TTL(ctx, "test:schedule:ttl:k").Result()
	if err != nil {
		t.Fatalf("TTL() error: %v", err)
	}
	if ttl <= 0 || ttl > time.Minute {
		t.Errorf("TTL = %v, want within (0, 1m]", ttl)
	}
}

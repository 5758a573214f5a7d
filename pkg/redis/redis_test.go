package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"

	"gameforge.gg/platform/internal/fallback"
	"gameforge.gg/platform/internal/models"
)

var _ fallback.SnapshotStore = (*RedisClient)(nil)

func setupTestRedis(t *testing.T) (*RedisClient, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewFromClient(client), mr
}

func TestSnapshotRoundTrip(t *testing.T) {
	r, mr := setupTestRedis(t)
	ctx := context.Background()
	key := fallback.SnapshotKey("tickets", "7")

	in := []models.SupportTicket{{TicketID: "12", Subject: "Lag spikes", Status: models.TicketOpen}}
	if err := r.Save(ctx, key, in, time.Hour); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if ttl := mr.TTL(key); ttl != time.Hour {
		t.Fatalf("ttl: got %s", ttl)
	}

	var out []models.SupportTicket
	found, err := r.Load(ctx, key, &out)
	if err != nil || !found {
		t.Fatalf("Load: found=%v err=%v", found, err)
	}
	if len(out) != 1 || out[0].Subject != "Lag spikes" {
		t.Fatalf("unexpected snapshot: %+v", out)
	}

	mr.FastForward(2 * time.Hour)
	found, err = r.Load(ctx, key, &out)
	if err != nil || found {
		t.Fatalf("expired snapshot: found=%v err=%v", found, err)
	}
}

func TestLoadCorruptSnapshot(t *testing.T) {
	r, mr := setupTestRedis(t)
	if err := mr.Set("fallback:services:7", "{not json"); err != nil {
		t.Fatalf("seed: %v", err)
	}
	var out []models.ServiceRecord
	if found, err := r.Load(context.Background(), "fallback:services:7", &out); err == nil || found {
		t.Fatalf("expected decode error, got found=%v err=%v", found, err)
	}
}

func TestCheckRateLimit(t *testing.T) {
	r, mr := setupTestRedis(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		allowed, _, err := r.CheckRateLimit(ctx, "ratelimit:1.2.3.4", 3, time.Minute)
		if err != nil || !allowed {
			t.Fatalf("hit %d: allowed=%v err=%v", i+1, allowed, err)
		}
	}
	allowed, retryAfter, err := r.CheckRateLimit(ctx, "ratelimit:1.2.3.4", 3, time.Minute)
	if err != nil || allowed {
		t.Fatalf("fourth hit should be limited: allowed=%v err=%v", allowed, err)
	}
	if retryAfter < 1 || retryAfter > 60 {
		t.Fatalf("retry after: %d", retryAfter)
	}

	mr.FastForward(time.Minute)
	if allowed, _, _ := r.CheckRateLimit(ctx, "ratelimit:1.2.3.4", 3, time.Minute); !allowed {
		t.Fatal("window should have reset")
	}
}

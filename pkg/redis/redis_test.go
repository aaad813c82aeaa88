package redis

import (
	"context"
	"testing"

	"github.com/DevMandalia/direction-sky-ingest/pkg/config"
)

func TestNewClient_Disabled(t *testing.T) {
	cfg := &config.Config{
		Redis: config.RedisConfig{
			Enabled: false,
		},
	}

	client, err := New(cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if client.Enabled() {
		t.Error("Expected client to be disabled")
	}
}

func TestRateLimiter_Disabled(t *testing.T) {
	cfg := &config.Config{
		Redis: config.RedisConfig{
			Enabled: false,
		},
	}

	client, _ := New(cfg)
	limiter := NewRateLimiter(client, "test")

	// When Redis is disabled, all requests should be allowed
	allowed, remaining, err := limiter.Allow(context.Background(), PolygonRateLimit)
	if err != nil {
		t.Fatalf("Allow() error = %v", err)
	}

	if !allowed {
		t.Error("Expected request to be allowed when Redis is disabled")
	}

	if remaining != PolygonRateLimit.Limit {
		t.Errorf("Expected remaining=%d, got %d", PolygonRateLimit.Limit, remaining)
	}
}

func TestCache_Disabled(t *testing.T) {
	cfg := &config.Config{
		Redis: config.RedisConfig{
			Enabled: false,
		},
	}

	client, _ := New(cfg)
	cache := NewCache(client, "test")

	ctx := context.Background()

	// Set is a no-op when disabled
	if err := cache.Set(ctx, "key", map[string]string{"a": "b"}, TTLShort); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	// Get always misses when disabled
	var dest map[string]string
	found, err := cache.Get(ctx, "key", &dest)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if found {
		t.Error("Expected cache miss when Redis is disabled")
	}
}

func TestCacheKeys(t *testing.T) {
	if got := UnderlyingPriceKey("SPY"); got != "underlying:price:SPY" {
		t.Errorf("UnderlyingPriceKey() = %s", got)
	}
	if got := ExpiryDatesKey("SPY"); got != "chain:expiries:SPY" {
		t.Errorf("ExpiryDatesKey() = %s", got)
	}
}

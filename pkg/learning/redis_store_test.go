package learning

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

var testRedisConfig = &RedisConfig{
	RedisURL:    "redis://localhost:6379",
	KeyPrefix:   "zpam:test:phish",
	DatabaseNum: 1, // Use separate database for testing
	ModelTTL:    time.Hour,
}

func isRedisAvailable() bool {
	client := redis.NewClient(&redis.Options{Addr: "localhost:6379", DB: 1})
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	return client.Ping(ctx).Err() == nil
}

func TestRedisStore(t *testing.T) {
	if !isRedisAvailable() {
		t.Skip("Redis not available, skipping test")
	}

	store, err := NewRedisStore(context.Background(), testRedisConfig)
	if err != nil {
		t.Fatalf("Failed to create Redis store: %v", err)
	}
	defer func() {
		store.Delete(context.Background(), "default")
		store.Close()
	}()

	testStoreRoundTrip(t, store)
}

func TestRedisStoreInvalidURL(t *testing.T) {
	cfg := *testRedisConfig
	cfg.RedisURL = "not-a-url"
	if _, err := NewRedisStore(context.Background(), &cfg); err == nil {
		t.Error("expected error for invalid Redis URL")
	}
}

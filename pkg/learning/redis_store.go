package learning

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisConfig holds Redis model store configuration
type RedisConfig struct {
	RedisURL    string        `json:"redis_url" yaml:"redis_url"`
	KeyPrefix   string        `json:"key_prefix" yaml:"key_prefix"`
	DatabaseNum int           `json:"database_num" yaml:"database_num"`
	ModelTTL    time.Duration `json:"model_ttl" yaml:"model_ttl"`
}

// DefaultRedisConfig returns default Redis configuration
func DefaultRedisConfig() *RedisConfig {
	return &RedisConfig{
		RedisURL:    "redis://localhost:6379",
		KeyPrefix:   "zpam:phish",
		DatabaseNum: 0,
	}
}

// RedisStore keeps model snapshots as Redis strings
type RedisStore struct {
	client *redis.Client
	config *RedisConfig
}

// NewRedisStore connects to Redis and verifies the connection
func NewRedisStore(ctx context.Context, config *RedisConfig) (*RedisStore, error) {
	if config == nil {
		config = DefaultRedisConfig()
	}

	opt, err := redis.ParseURL(config.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid Redis URL: %w", err)
	}
	opt.DB = config.DatabaseNum
	client := redis.NewClient(opt)

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("Redis connection failed: %w", err)
	}

	return &RedisStore{client: client, config: config}, nil
}

func (rs *RedisStore) key(name string) string {
	return fmt.Sprintf("%s:model:%s", rs.config.KeyPrefix, name)
}

// Save stores the snapshot, expiring it after ModelTTL when set
func (rs *RedisStore) Save(ctx context.Context, name string, m *Model) error {
	var buf bytes.Buffer
	if err := m.Encode(&buf); err != nil {
		return err
	}

	pipe := rs.client.TxPipeline()
	pipe.Set(ctx, rs.key(name), buf.Bytes(), rs.config.ModelTTL)
	pipe.HSet(ctx, rs.key(name)+":meta", map[string]interface{}{
		"id":         m.ID,
		"trained_at": m.TrainedAt.Format(time.RFC3339),
	})
	if rs.config.ModelTTL > 0 {
		pipe.Expire(ctx, rs.key(name)+":meta", rs.config.ModelTTL)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to store model in Redis: %w", err)
	}
	return nil
}

// Load fetches the snapshot for name
func (rs *RedisStore) Load(ctx context.Context, name string) (*Model, error) {
	data, err := rs.client.Get(ctx, rs.key(name)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("%w: %s", ErrModelNotFound, rs.key(name))
		}
		return nil, fmt.Errorf("failed to load model from Redis: %w", err)
	}
	return Decode(bytes.NewReader(data))
}

// Delete removes the snapshot for name
func (rs *RedisStore) Delete(ctx context.Context, name string) error {
	return rs.client.Del(ctx, rs.key(name), rs.key(name)+":meta").Err()
}

// Close closes the Redis connection
func (rs *RedisStore) Close() error {
	return rs.client.Close()
}

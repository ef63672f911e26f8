package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// RedisConfig holds the configuration for the Redis snapshot store.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	// KeyPrefix is prepended to every query key.
	KeyPrefix string
	// TTL expires snapshots. Zero keeps them until deleted.
	TTL time.Duration
}

// RedisStore keeps query snapshots in Redis so they survive restarts and can
// be shared by several consoles.
type RedisStore struct {
	redisClient *redis.Client
	logger      zerolog.Logger
	prefix      string
	ttl         time.Duration
}

// NewRedisStore connects to Redis and pings it before returning.
func NewRedisStore(ctx context.Context, cfg *RedisConfig, logger zerolog.Logger) (*RedisStore, error) {
	if cfg == nil {
		return nil, errors.New("redis config cannot be nil")
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	logger.Info().Str("redis_address", cfg.Addr).Msg("Successfully connected to Redis.")

	return &RedisStore{
		redisClient: rdb,
		logger:      logger.With().Str("component", "RedisStore").Logger(),
		prefix:      cfg.KeyPrefix,
		ttl:         cfg.TTL,
	}, nil
}

// Fetch returns the snapshot stored under key, or ErrNotFound.
func (s *RedisStore) Fetch(ctx context.Context, key string) (json.RawMessage, error) {
	raw, err := s.redisClient.Get(ctx, s.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("key '%s': %w", key, ErrNotFound)
	}
	if err != nil {
		s.logger.Error().Err(err).Str("key", key).Msg("Unexpected Redis error during fetch.")
		return nil, fmt.Errorf("failed to get from redis: %w", err)
	}
	s.logger.Debug().Str("key", key).Msg("Redis snapshot hit.")
	return raw, nil
}

// Set stores value under key with the configured TTL.
func (s *RedisStore) Set(ctx context.Context, key string, value json.RawMessage) error {
	if err := s.redisClient.Set(ctx, s.prefix+key, []byte(value), s.ttl).Err(); err != nil {
		s.logger.Error().Err(err).Str("key", key).Msg("Failed to set snapshot in Redis.")
		return fmt.Errorf("failed to set in redis: %w", err)
	}
	return nil
}

// Delete removes key.
func (s *RedisStore) Delete(ctx context.Context, key string) error {
	if err := s.redisClient.Del(ctx, s.prefix+key).Err(); err != nil {
		return fmt.Errorf("failed to delete from redis: %w", err)
	}
	return nil
}

// Close closes the Redis client connection.
func (s *RedisStore) Close() error {
	if s.redisClient != nil {
		s.logger.Info().Msg("Closing Redis client connection...")
		return s.redisClient.Close()
	}
	return nil
}

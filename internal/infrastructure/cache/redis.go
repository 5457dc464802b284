package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	domainRepo "github.com/photomark/pricing-service/internal/domain/repository"
	"go.uber.org/zap"
)

type redisBlobStore struct {
	client *redis.Client
	logger *zap.Logger
}

// NewRedisBlobStore connects to Redis and returns the JSON blob store used
// for the fact cache and entitlement mirror.
func NewRedisBlobStore(addr, password string, db int, logger *zap.Logger) (domainRepo.BlobStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	logger.Info("Redis connection established", zap.String("addr", addr))

	return &redisBlobStore{
		client: client,
		logger: logger,
	}, nil
}

func (s *redisBlobStore) ReadJSON(ctx context.Context, key string) (map[string]interface{}, error) {
	raw, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read key %s: %w", key, err)
	}

	var value map[string]interface{}
	if err := json.Unmarshal(raw, &value); err != nil {
		// A corrupt advisory entry is as good as a missing one.
		s.logger.Warn("Discarding unparseable cache entry",
			zap.String("key", key),
			zap.Error(err))
		return nil, nil
	}

	return value, nil
}

func (s *redisBlobStore) WriteJSON(ctx context.Context, key string, value map[string]interface{}) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal value for key %s: %w", key, err)
	}

	// No TTL: entries are advisory and re-derivable, staleness is soft.
	if err := s.client.Set(ctx, key, raw, 0).Err(); err != nil {
		return fmt.Errorf("failed to write key %s: %w", key, err)
	}

	return nil
}

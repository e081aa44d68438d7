package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/oauth2"
)

// RedisTokenStore is a TokenStore backed by Redis, letting multiple
// processes share one token per client id.
type RedisTokenStore struct {
	redis *redis.Client
}

// NewRedisTokenStore creates a token store with Redis backend.
func NewRedisTokenStore(redisClient *redis.Client) *RedisTokenStore {
	if redisClient == nil {
		panic("redis client cannot be nil")
	}
	return &RedisTokenStore{
		redis: redisClient,
	}
}

// Get returns the token for key, or ErrTokenNotFound.
func (s *RedisTokenStore) Get(ctx context.Context, key string) (*oauth2.Token, error) {
	data, err := s.redis.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, ErrTokenNotFound
		}
		return nil, fmt.Errorf("redis get: %w", err)
	}

	var token oauth2.Token
	if err := json.Unmarshal(data, &token); err != nil {
		return nil, fmt.Errorf("unmarshal token: %w", err)
	}

	return &token, nil
}

// Set stores the token under key, expiring with the token itself.
func (s *RedisTokenStore) Set(ctx context.Context, key string, token *oauth2.Token) error {
	if token == nil {
		return fmt.Errorf("token cannot be nil")
	}

	data, err := json.Marshal(token)
	if err != nil {
		return fmt.Errorf("marshal token: %w", err)
	}

	var ttl time.Duration
	if !token.Expiry.IsZero() {
		ttl = time.Until(token.Expiry)
		if ttl <= 0 {
			// Already expired, don't cache
			return nil
		}
	}

	if err := s.redis.Set(ctx, key, data, ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}

	return nil
}

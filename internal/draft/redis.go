// internal/draft/redis.go
package draft

import (
	"context"
	"errors"
	"fmt"
	"time"

	"infinz-leadgen/internal/models"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps each draft under <prefix><id> with a sliding TTL.
type RedisStore struct {
	client redis.Cmdable
	prefix string
	ttl    time.Duration
}

func NewRedisStore(client redis.Cmdable, prefix string, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, prefix: prefix, ttl: ttl}
}

func (s *RedisStore) key(id string) string {
	return s.prefix + id
}

func (s *RedisStore) Get(ctx context.Context, id string) (*models.Draft, error) {
	payload, err := s.client.Get(ctx, s.key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get draft: %w", err)
	}
	return decode(payload)
}

func (s *RedisStore) Set(ctx context.Context, id string, d *models.Draft) error {
	payload, err := encode(d)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, s.key(id), payload, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set draft: %w", err)
	}
	return nil
}

func (s *RedisStore) Clear(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, s.key(id)).Err(); err != nil {
		return fmt.Errorf("redis clear draft: %w", err)
	}
	return nil
}

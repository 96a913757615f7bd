package kvstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

var _ Store = (*Redis)(nil)

// Redis keeps values without expiry; a cart never expires on its own.
type Redis struct {
	client *redis.Client
}

func NewRedis(client *redis.Client) *Redis {
	return &Redis{client: client}
}

func (r *Redis) Get(c context.Context, key string) (string, error) {
	v, err := r.client.Get(c, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed redis get key=%s with error=%w", key, err)
	}
	return v, nil
}

func (r *Redis) Set(c context.Context, key string, value string) error {
	if err := r.client.Set(c, key, value, 0).Err(); err != nil {
		return fmt.Errorf("failed redis set key=%s with error=%w", key, err)
	}
	return nil
}

func (r *Redis) Remove(c context.Context, key string) error {
	if err := r.client.Del(c, key).Err(); err != nil {
		return fmt.Errorf("failed redis del key=%s with error=%w", key, err)
	}
	return nil
}

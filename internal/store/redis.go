package store

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps the state blob under one redis key.
type RedisStore struct {
	rdb *redis.Client
	key string
}

func NewRedisStore(rdb *redis.Client, key string) *RedisStore {
	return &RedisStore{rdb: rdb, key: key}
}

func (s *RedisStore) Get(ctx context.Context) ([]byte, error) {
	blob, err := s.rdb.Get(ctx, s.key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNoSavedState
		}
		return nil, err
	}
	return blob, nil
}

func (s *RedisStore) Set(ctx context.Context, blob []byte) error {
	return s.rdb.Set(ctx, s.key, blob, 0).Err()
}

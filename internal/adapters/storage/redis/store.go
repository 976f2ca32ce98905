package redis

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"instore-payment-client/internal/core/domain"
)

const keyPrefix = "ceppos:prefs:"

// Store is a Redis implementation of the KeyValueStore port: one hash per namespace.
type Store struct {
	rdb *redis.Client
}

func NewStore(rdb *redis.Client) *Store {
	return &Store{rdb: rdb}
}

func (s *Store) Snapshot(ctx context.Context, namespace string) (map[string]string, error) {
	values, err := s.rdb.HGetAll(ctx, keyPrefix+namespace).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: redis HGETALL: %v", domain.ErrStorageUnavailable, err)
	}
	return values, nil
}

// Replace swaps the hash inside MULTI/EXEC so readers never see a partial namespace.
func (s *Store) Replace(ctx context.Context, namespace string, values map[string]string) error {
	key := keyPrefix + namespace
	_, err := s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		if len(values) > 0 {
			pipe.HSet(ctx, key, values)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: redis replace: %v", domain.ErrStorageUnavailable, err)
	}
	return nil
}

func (s *Store) Clear(ctx context.Context, namespace string) error {
	if err := s.rdb.Del(ctx, keyPrefix+namespace).Err(); err != nil {
		return fmt.Errorf("%w: redis DEL: %v", domain.ErrStorageUnavailable, err)
	}
	return nil
}

package redis

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/nkiryanov/clinicdesk/internal/apperrors"
)

const defaultPrefix = "clinic:"

// Storage keeps entries in redis under prefixed keys
// Useful when several client processes on different hosts share one session
type Storage struct {
	client *redis.Client
	prefix string
}

type Option func(*Storage)

// WithPrefix overrides default "clinic:" key prefix
func WithPrefix(prefix string) Option {
	return func(s *Storage) {
		s.prefix = prefix
	}
}

func New(client *redis.Client, opts ...Option) *Storage {
	s := &Storage{client: client, prefix: defaultPrefix}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Connect creates client for address and checks it with PING
func Connect(ctx context.Context, addr string) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("error while connecting to redis: %w: %w", apperrors.ErrStorageUnavailable, err)
	}

	return client, nil
}

func (s *Storage) key(k string) string {
	return s.prefix + k
}

func (s *Storage) Get(ctx context.Context, key string) (string, error) {
	value, err := s.client.Get(ctx, s.key(key)).Result()

	switch {
	case err == nil:
		return value, nil
	case errors.Is(err, redis.Nil):
		return "", apperrors.ErrKeyNotFound
	default:
		return "", fmt.Errorf("redis error: %w: %w", apperrors.ErrStorageUnavailable, err)
	}
}

// Set writes all entries inside MULTI/EXEC
func (s *Storage) Set(ctx context.Context, entries map[string]string) error {
	if len(entries) == 0 {
		return nil
	}

	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for k, v := range entries {
			pipe.Set(ctx, s.key(k), v, 0)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis error: %w: %w", apperrors.ErrStorageUnavailable, err)
	}

	return nil
}

func (s *Storage) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}

	prefixed := make([]string, 0, len(keys))
	for _, k := range keys {
		prefixed = append(prefixed, s.key(k))
	}

	if err := s.client.Del(ctx, prefixed...).Err(); err != nil {
		return fmt.Errorf("redis error: %w: %w", apperrors.ErrStorageUnavailable, err)
	}

	return nil
}

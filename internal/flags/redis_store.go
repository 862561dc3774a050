package flags

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	goredis "github.com/redis/go-redis/v9"

	"github.com/notifa-ai/notifa-engine/internal/stream"
)

const keyPrefix = "flags:"

var _ Store = (*RedisStore)(nil)

type RedisStore struct {
	client  *goredis.Client
	changes *stream.Broadcaster
}

func NewRedisStore(client *goredis.Client, changes *stream.Broadcaster) (*RedisStore, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client is required")
	}

	return &RedisStore{client: client, changes: changes}, nil
}

func (s *RedisStore) GetBool(ctx context.Context, key string) (bool, error) {
	raw, err := s.get(ctx, key)
	if err != nil {
		return false, err
	}
	if raw == "" {
		return false, nil
	}

	value, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("flag %q is not a bool: %w", key, err)
	}

	return value, nil
}

func (s *RedisStore) SetBool(ctx context.Context, key string, value bool) error {
	return s.set(ctx, key, strconv.FormatBool(value))
}

func (s *RedisStore) GetInt64(ctx context.Context, key string) (int64, error) {
	raw, err := s.get(ctx, key)
	if err != nil {
		return 0, err
	}
	if raw == "" {
		return 0, nil
	}

	value, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("flag %q is not an int64: %w", key, err)
	}

	return value, nil
}

func (s *RedisStore) SetInt64(ctx context.Context, key string, value int64) error {
	return s.set(ctx, key, strconv.FormatInt(value, 10))
}

func (s *RedisStore) get(ctx context.Context, key string) (string, error) {
	if s == nil || s.client == nil {
		return "", fmt.Errorf("flag store is not initialized")
	}

	key = strings.TrimSpace(key)
	if key == "" {
		return "", fmt.Errorf("flag key is required")
	}

	raw, err := s.client.Get(ctx, keyPrefix+key).Result()
	if errors.Is(err, goredis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read flag %q: %w", key, err)
	}

	return raw, nil
}

func (s *RedisStore) set(ctx context.Context, key, value string) error {
	if s == nil || s.client == nil {
		return fmt.Errorf("flag store is not initialized")
	}

	key = strings.TrimSpace(key)
	if key == "" {
		return fmt.Errorf("flag key is required")
	}

	if err := s.client.Set(ctx, keyPrefix+key, value, 0).Err(); err != nil {
		return fmt.Errorf("failed to write flag %q: %w", key, err)
	}

	s.changes.Publish(stream.Event{Table: stream.TableFlags, Op: stream.OpUpdate})

	return nil
}

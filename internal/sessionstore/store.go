// Package sessionstore persists opaque conversation state in Redis so that a
// later invocation can resume the thread.
package sessionstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrNotFound reports that no session is stored under the requested key.
var ErrNotFound = errors.New("sessionstore: not found")

// DefaultTTL bounds how long a stored session stays resumable.
const DefaultTTL = time.Hour

type Store struct {
	rdb *redis.Client
}

// Open connects to the store at a redis:// URL.
func Open(redisURL string) (*Store, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	return &Store{rdb: redis.NewClient(opts)}, nil
}

// New wraps an existing client.
func New(rdb *redis.Client) *Store {
	return &Store{rdb: rdb}
}

func (s *Store) Lookup(ctx context.Context, key string) ([]byte, error) {
	raw, err := s.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("session %s: %w", key, ErrNotFound)
		}
		return nil, fmt.Errorf("session lookup %s: %w", key, err)
	}
	return raw, nil
}

func (s *Store) Persist(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if err := s.rdb.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("session persist %s: %w", key, err)
	}
	return nil
}

func (s *Store) Close() error {
	return s.rdb.Close()
}

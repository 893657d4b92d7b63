package cart

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrNotFound is returned by Storage.Get for a missing key.
var ErrNotFound = errors.New("cart: key not found")

// ErrConflict is returned by Update when the key kept changing underneath it.
var ErrConflict = errors.New("cart: too many concurrent updates")

// UpdateFunc computes the next value from the current one. found is false for a missing key.
// It may run more than once and must not have side effects.
type UpdateFunc func(current []byte, found bool) ([]byte, error)

// Storage is a session-scoped blob store. Set replaces the whole value; Update replaces it
// atomically with respect to other writers of the same key.
type Storage interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Update(ctx context.Context, key string, fn UpdateFunc) error
	Delete(ctx context.Context, key string) error
}

// Key namespaces name under a session id, e.g. Key(sid, "cart") = "<sid>:cart".
func Key(sessionID, name string) string {
	return sessionID + ":" + name
}

const (
	defaultKeyPrefix    = "bookstore:session"
	maxUpdateAttempts   = 32
	redisCommandTimeout = 3 * time.Second
)

// RedisClient is the part of *redis.Client the storage needs. Watch backs Update.
type RedisClient interface {
	redis.Cmdable
	Watch(ctx context.Context, fn func(*redis.Tx) error, keys ...string) error
}

// RedisStorage keeps values in Redis under "<prefix>:<key>". Every write refreshes the
// TTL, so a session's data expires once the shopper has been idle for ttl.
type RedisStorage struct {
	client RedisClient
	prefix string
	ttl    time.Duration
}

// NewRedisStorage dials addr. A zero ttl keeps values forever.
func NewRedisStorage(addr, password, prefix string, ttl time.Duration) *RedisStorage {
	return NewRedisStorageWithClient(redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
	}), prefix, ttl)
}

// NewRedisStorageWithClient wraps an existing client.
func NewRedisStorageWithClient(client RedisClient, prefix string, ttl time.Duration) *RedisStorage {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		prefix = defaultKeyPrefix
	}
	return &RedisStorage{client: client, prefix: prefix, ttl: ttl}
}

func (s *RedisStorage) key(k string) string {
	return s.prefix + ":" + k
}

// Ping checks the connection.
func (s *RedisStorage) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Get returns ErrNotFound for a missing or expired key.
func (s *RedisStorage) Get(ctx context.Context, key string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, redisCommandTimeout)
	defer cancel()
	val, err := s.client.Get(ctx, s.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get %s: %w", key, err)
	}
	return val, nil
}

// Set stores value and refreshes the TTL.
func (s *RedisStorage) Set(ctx context.Context, key string, value []byte) error {
	ctx, cancel := context.WithTimeout(ctx, redisCommandTimeout)
	defer cancel()
	if err := s.client.Set(ctx, s.key(key), value, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// Update runs fn under WATCH and writes its result in a MULTI/EXEC, retrying when another
// writer touched the key in between.
func (s *RedisStorage) Update(ctx context.Context, key string, fn UpdateFunc) error {
	ctx, cancel := context.WithTimeout(ctx, redisCommandTimeout)
	defer cancel()
	full := s.key(key)
	txf := func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, full).Bytes()
		found := true
		if errors.Is(err, redis.Nil) {
			current, found = nil, false
		} else if err != nil {
			return err
		}
		next, err := fn(current, found)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, full, next, s.ttl)
			return nil
		})
		return err
	}
	for attempt := 0; attempt < maxUpdateAttempts; attempt++ {
		err := s.client.Watch(ctx, txf, full)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil {
			return fmt.Errorf("redis update %s: %w", key, err)
		}
		return nil
	}
	return fmt.Errorf("redis update %s: %w", key, ErrConflict)
}

// Delete removes key. Deleting a missing key is not an error.
func (s *RedisStorage) Delete(ctx context.Context, key string) error {
	ctx, cancel := context.WithTimeout(ctx, redisCommandTimeout)
	defer cancel()
	if err := s.client.Del(ctx, s.key(key)).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("redis del %s: %w", key, err)
	}
	return nil
}

// MemoryStorage is an in-process Storage. Values never expire.
type MemoryStorage struct {
	mu     sync.RWMutex
	values map[string][]byte
}

// NewMemoryStorage returns an empty storage.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{values: make(map[string][]byte)}
}

// Get returns a copy of the value or ErrNotFound.
func (s *MemoryStorage) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	val, ok := s.values[key]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), val...), nil
}

// Set stores a copy of value.
func (s *MemoryStorage) Set(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = append([]byte(nil), value...)
	return nil
}

// Update holds the lock across fn, so concurrent updates of any key are serialized.
func (s *MemoryStorage) Update(_ context.Context, key string, fn UpdateFunc) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, found := s.values[key]
	next, err := fn(append([]byte(nil), current...), found)
	if err != nil {
		return err
	}
	s.values[key] = append([]byte(nil), next...)
	return nil
}

// Delete removes key.
func (s *MemoryStorage) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values, key)
	return nil
}

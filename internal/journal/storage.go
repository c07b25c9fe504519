package journal

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/BioInfo/chronoscope/internal/tracing"
)

// ErrNoDocument is returned by Storage.Load when nothing is stored under the key.
var ErrNoDocument = errors.New("journal document not found")

// Storage is a key/value store for the serialized journal.
type Storage interface {
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, data []byte) error
}

// MemoryStorage implements Storage in process memory.
type MemoryStorage struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewMemoryStorage creates an empty MemoryStorage.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{data: make(map[string][]byte)}
}

// Load returns a copy of the value under key.
func (s *MemoryStorage) Load(ctx context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.data[key]
	if !ok {
		return nil, ErrNoDocument
	}
	return append([]byte(nil), v...), nil
}

// Save stores a copy of data under key.
func (s *MemoryStorage) Save(ctx context.Context, key string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data[key] = append([]byte(nil), data...)
	return nil
}

// RedisStorage implements Storage on Redis string keys.
type RedisStorage struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisStorage creates a RedisStorage. Keys are namespaced with prefix;
// a ttl of zero keeps documents forever.
func NewRedisStorage(client *redis.Client, prefix string, ttl time.Duration) *RedisStorage {
	return &RedisStorage{
		client: client,
		prefix: prefix,
		ttl:    ttl,
	}
}

func (s *RedisStorage) key(key string) string {
	return s.prefix + key
}

// Load reads the document under key.
func (s *RedisStorage) Load(ctx context.Context, key string) (data []byte, err error) {
	ctx, endSpan := tracing.StartRedisSpan(ctx, "GET", s.key(key))
	defer func() { endSpan(err) }()

	data, err = s.client.Get(ctx, s.key(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNoDocument
		}
		return nil, fmt.Errorf("failed to load journal from redis: %w", err)
	}
	return data, nil
}

// Save writes the document under key.
func (s *RedisStorage) Save(ctx context.Context, key string, data []byte) (err error) {
	ctx, endSpan := tracing.StartRedisSpan(ctx, "SET", s.key(key))
	defer func() { endSpan(err) }()

	if err = s.client.Set(ctx, s.key(key), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save journal to redis: %w", err)
	}
	return nil
}

package layoutfile

import (
	"bytes"
	"context"
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/matzehuels/erdraw/pkg/cache"
)

// Store persists layouts keyed by source path.
type Store interface {
	// Load returns the layout for key, or an error wrapping [ErrNotFound].
	Load(ctx context.Context, key string) (*File, error)
	// Save replaces the layout for key.
	Save(ctx context.Context, key string, f *File) error
	// Delete removes the layout for key. Deleting a missing layout is not an error.
	Delete(ctx context.Context, key string) error
	Close() error
}

// =============================================================================
// File store
// =============================================================================

// FileStore keeps layouts as TOML files. By default each layout sits next to
// its source file at [DefaultPath]; with a directory set, layouts are kept
// there under the same base name.
type FileStore struct {
	mu  sync.RWMutex
	dir string
}

// NewFileStore creates a file store. An empty dir keeps layouts beside their
// source files.
func NewFileStore(dir string) (*FileStore, error) {
	if dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create layout dir: %w", err)
		}
	}
	return &FileStore{dir: dir}, nil
}

// PathFor returns the layout file path for a source key.
func (s *FileStore) PathFor(key string) string {
	p := DefaultPath(key)
	if s.dir == "" {
		return p
	}
	return filepath.Join(s.dir, filepath.Base(p))
}

func (s *FileStore) Load(ctx context.Context, key string) (*File, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Read(s.PathFor(key))
}

func (s *FileStore) Save(ctx context.Context, key string, f *File) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Write(s.PathFor(key), f)
}

func (s *FileStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.PathFor(key)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove layout file: %w", err)
	}
	return nil
}

func (s *FileStore) Close() error { return nil }

var _ Store = (*FileStore)(nil)

// =============================================================================
// Redis store
// =============================================================================

// DefaultRedisPrefix namespaces layout keys in Redis.
const DefaultRedisPrefix = "erdraw:layout:"

// RedisConfig configures a [RedisStore].
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	// Prefix namespaces keys; defaults to [DefaultRedisPrefix].
	Prefix string
	// TTL expires layouts after the given duration; zero keeps them forever.
	TTL time.Duration
}

// RedisStore keeps layouts in Redis as TOML strings, so several editor
// backends can share one set of positions.
type RedisStore struct {
	rdb    *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisStore connects to Redis and verifies the connection with PING.
func NewRedisStore(ctx context.Context, cfg RedisConfig) (*RedisStore, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("connect redis %s: %w", cfg.Addr, err)
	}
	return NewRedisStoreFromClient(rdb, cfg.Prefix, cfg.TTL), nil
}

// NewRedisStoreFromClient wraps an existing client.
func NewRedisStoreFromClient(rdb *redis.Client, prefix string, ttl time.Duration) *RedisStore {
	if prefix == "" {
		prefix = DefaultRedisPrefix
	}
	return &RedisStore{rdb: rdb, prefix: prefix, ttl: ttl}
}

func (s *RedisStore) redisKey(key string) string { return s.prefix + key }

func (s *RedisStore) Load(ctx context.Context, key string) (*File, error) {
	var data string
	err := cache.RetryWithBackoff(ctx, func() error {
		v, err := s.rdb.Get(ctx, s.redisKey(key)).Result()
		if err != nil {
			return retryable(err)
		}
		data = v
		return nil
	})
	if stderrors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("%s: %w", key, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("redis get %s: %w", key, err)
	}
	return Decode(bytes.NewBufferString(data))
}

func (s *RedisStore) Save(ctx context.Context, key string, f *File) error {
	var buf bytes.Buffer
	if err := Encode(&buf, f); err != nil {
		return fmt.Errorf("serialize layout: %w", err)
	}
	return cache.RetryWithBackoff(ctx, func() error {
		return retryable(s.rdb.Set(ctx, s.redisKey(key), buf.String(), s.ttl).Err())
	})
}

func (s *RedisStore) Delete(ctx context.Context, key string) error {
	return cache.RetryWithBackoff(ctx, func() error {
		return retryable(s.rdb.Del(ctx, s.redisKey(key)).Err())
	})
}

func (s *RedisStore) Close() error { return s.rdb.Close() }

// retryable marks transport failures for retry; redis.Nil is a definite answer.
func retryable(err error) error {
	if err == nil || stderrors.Is(err, redis.Nil) {
		return err
	}
	return cache.Retryable(fmt.Errorf("%w: %w", cache.ErrNetwork, err))
}

var _ Store = (*RedisStore)(nil)

// =============================================================================
// Memory store
// =============================================================================

// MemoryStore keeps layouts in process memory. It is used by the editor
// server in tests and when no persistence is wanted.
type MemoryStore struct {
	mu      sync.RWMutex
	layouts map[string]*File
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{layouts: make(map[string]*File)}
}

func (s *MemoryStore) Load(ctx context.Context, key string) (*File, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	f, ok := s.layouts[key]
	if !ok {
		return nil, fmt.Errorf("%s: %w", key, ErrNotFound)
	}
	return f.clone(), nil
}

func (s *MemoryStore) Save(ctx context.Context, key string, f *File) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.layouts[key] = f.clone()
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.layouts, key)
	return nil
}

func (s *MemoryStore) Close() error { return nil }

var _ Store = (*MemoryStore)(nil)

func (f *File) clone() *File {
	c := New(f.Meta.Source)
	c.Meta.Version = f.Meta.Version
	c.Merge(f.Tables)
	return c
}

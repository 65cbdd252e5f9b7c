package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/go-redis/redis/v8"

	"klinika/config"
)

// Entry is a cached HTTP response.
type Entry struct {
	Status      int    `json:"status"`
	ContentType string `json:"contentType"`
	Body        []byte `json:"body"`
}

// Store keeps cached responses by key.
type Store interface {
	Get(ctx context.Context, key string) (*Entry, bool)
	Set(ctx context.Context, key string, e *Entry) error
	Clear(ctx context.Context) error
}

// NewStore picks the backend named by CACHE_DRIVER. It returns nil when caching is off.
func NewStore(cfg *config.Config) (Store, error) {
	switch cfg.CacheDriver {
	case "", "none":
		return nil, nil
	case "file":
		return NewFileStore(cfg.CacheDir, cfg.CacheTTL), nil
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisCacheDB,
		})
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := client.Ping(ctx).Err(); err != nil {
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		return NewRedisStore(client, cfg.CacheTTL), nil
	}
	return nil, fmt.Errorf("unknown CACHE_DRIVER %q", cfg.CacheDriver)
}

// Key hashes a request path and query into a cache key.
func Key(path, query string) string {
	return fmt.Sprintf("%016x", xxhash.Sum64String(path+"?"+query))
}

// FileStore keeps one JSON file per entry; the file's mtime drives expiry.
type FileStore struct {
	dir    string
	maxAge time.Duration
}

func NewFileStore(dir string, maxAge time.Duration) *FileStore {
	if dir == "" {
		dir = "cache"
	}
	if maxAge <= 0 {
		maxAge = 5 * time.Minute
	}
	return &FileStore{dir: dir, maxAge: maxAge}
}

func (s *FileStore) path(key string) string {
	return filepath.Join(s.dir, key+".json")
}

func (s *FileStore) Get(_ context.Context, key string) (*Entry, bool) {
	path := s.path(key)
	info, err := os.Stat(path)
	if err != nil || time.Since(info.ModTime()) > s.maxAge {
		return nil, false
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, false
	}
	var e Entry
	if err := json.Unmarshal(raw, &e); err != nil {
		return nil, false
	}
	return &e, true
}

func (s *FileStore) Set(_ context.Context, key string, e *Entry) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return err
	}
	raw, err := json.Marshal(e)
	if err != nil {
		return err
	}
	tmp := s.path(key) + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, s.path(key))
}

func (s *FileStore) Clear(_ context.Context) error {
	matches, err := filepath.Glob(filepath.Join(s.dir, "*.json"))
	if err != nil {
		return err
	}
	for _, m := range matches {
		if err := os.Remove(m); err != nil && !os.IsNotExist(err) {
			return err
		}
	}
	return nil
}

// Sweep removes expired entries and reports how many were deleted.
func (s *FileStore) Sweep(_ context.Context) (int, error) {
	removed := 0
	err := filepath.Walk(s.dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if info.IsDir() || !strings.HasSuffix(path, ".json") {
			return nil
		}
		if time.Since(info.ModTime()) > s.maxAge {
			if err := os.Remove(path); err == nil {
				removed++
			}
		}
		return nil
	})
	return removed, err
}

const redisPrefix = "klinika:cache:"

// RedisStore keeps entries in redis with a TTL.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &RedisStore{client: client, ttl: ttl}
}

func (s *RedisStore) Get(ctx context.Context, key string) (*Entry, bool) {
	raw, err := s.client.Get(ctx, redisPrefix+key).Bytes()
	if err != nil {
		return nil, false
	}
	var e Entry
	if err := json.Unmarshal(raw, &e); err != nil {
		return nil, false
	}
	return &e, true
}

func (s *RedisStore) Set(ctx context.Context, key string, e *Entry) error {
	raw, err := json.Marshal(e)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, redisPrefix+key, raw, s.ttl).Err()
}

func (s *RedisStore) Clear(ctx context.Context) error {
	iter := s.client.Scan(ctx, 0, redisPrefix+"*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil && !errors.Is(err, redis.Nil) {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	return s.client.Del(ctx, keys...).Err()
}

package cache

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"macro-calendar/internal/domain"

	"github.com/redis/go-redis/v9"
)

// MemoryStore keeps calendar entries in process memory. Expired entries are
// left in place and reported as misses by the caller via CacheEntry.Valid.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]*domain.CacheEntry
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]*domain.CacheEntry)}
}

// Get returns nil, nil when key has never been stored.
func (m *MemoryStore) Get(_ context.Context, key string) (*domain.CacheEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.entries[key], nil
}

// Set replaces the entry for key. Entries are never mutated after Set.
func (m *MemoryStore) Set(_ context.Context, key string, entry *domain.CacheEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = entry
	return nil
}

type RedisClient interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Get(ctx context.Context, key string) *redis.StringCmd
}

// RedisStore shares calendar entries between replicas. Entries are stored as
// JSON with a key TTL equal to their remaining lifetime.
type RedisStore struct {
	client RedisClient
	prefix string
	now    func() time.Time
}

func NewRedisStore(client RedisClient) *RedisStore {
	return &RedisStore{client: client, prefix: "calendar:", now: time.Now}
}

func (r *RedisStore) Get(ctx context.Context, key string) (*domain.CacheEntry, error) {
	data, err := r.client.Get(ctx, r.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var entry domain.CacheEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, err
	}
	return &entry, nil
}

// Set skips entries that are already expired.
func (r *RedisStore) Set(ctx context.Context, key string, entry *domain.CacheEntry) error {
	ttl := entry.ExpiresAt.Sub(r.now())
	if ttl <= 0 {
		return nil
	}
	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, r.prefix+key, data, ttl).Err()
}

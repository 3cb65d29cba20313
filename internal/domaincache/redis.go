package domaincache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/optimode/bulkverify/types"
)

// DefaultKeyPrefix namespaces cache keys in a shared Redis.
const DefaultKeyPrefix = "bulkverify:domain:"

// RedisStore shares cached domains between processes through Redis.
// Entries are JSON documents written with EX set to the cache TTL.
type RedisStore struct {
	client redis.UniversalClient
	prefix string
}

// NewRedisStore wraps an existing client. An empty prefix uses DefaultKeyPrefix.
func NewRedisStore(client redis.UniversalClient, prefix string) *RedisStore {
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	return &RedisStore{client: client, prefix: prefix}
}

// OpenRedis parses a redis:// URL, connects and pings the server.
func OpenRedis(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		opts = &redis.Options{Addr: url}
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", opts.Addr, err)
	}
	return client, nil
}

func (s *RedisStore) key(domain string) string {
	return s.prefix + domain
}

func (s *RedisStore) Get(ctx context.Context, domain string) (types.DomainRecord, bool, error) {
	raw, err := s.client.Get(ctx, s.key(domain)).Bytes()
	if errors.Is(err, redis.Nil) {
		return types.DomainRecord{}, false, nil
	}
	if err != nil {
		return types.DomainRecord{}, false, fmt.Errorf("redis get %s: %w", domain, err)
	}

	var rec types.DomainRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return types.DomainRecord{}, false, fmt.Errorf("%w: %s: %v", ErrCorrupt, domain, err)
	}
	return rec, true, nil
}

func (s *RedisStore) Set(ctx context.Context, rec types.DomainRecord, ttl time.Duration) error {
	raw, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode %s: %w", rec.Domain, err)
	}
	if err := s.client.Set(ctx, s.key(rec.Domain), raw, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", rec.Domain, err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, domain string) error {
	return s.client.Del(ctx, s.key(domain)).Err()
}

// Len scans the key prefix. Redis expiry keeps the count close to the fresh set.
func (s *RedisStore) Len(ctx context.Context) (int, error) {
	n := 0
	iter := s.client.Scan(ctx, 0, s.prefix+"*", 500).Iterator()
	for iter.Next(ctx) {
		n++
	}
	if err := iter.Err(); err != nil {
		return n, fmt.Errorf("redis scan: %w", err)
	}
	return n, nil
}

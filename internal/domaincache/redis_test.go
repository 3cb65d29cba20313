package domaincache_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/optimode/bulkverify/internal/domaincache"
	"github.com/optimode/bulkverify/types"
)

func setupTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		_ = client.Close()
		mr.Close()
	})
	return mr, client
}

func TestRedisStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	mr, client := setupTestRedis(t)
	c := domaincache.New(time.Hour, domaincache.WithStore(domaincache.NewRedisStore(client, "")))

	c.Set(ctx, "example.com", types.DomainRecord{HasMX: true, HasSPF: false})

	assert.True(t, mr.Exists(domaincache.DefaultKeyPrefix+"example.com"))
	assert.Equal(t, time.Hour, mr.TTL(domaincache.DefaultKeyPrefix+"example.com"))

	rec, ok := c.Get(ctx, "example.com")
	require.True(t, ok)
	assert.True(t, rec.HasMX)
	assert.False(t, rec.HasSPF)
	assert.Equal(t, 1, c.Stats(ctx).Entries)
}

func TestRedisStore_SharedBetweenCaches(t *testing.T) {
	ctx := context.Background()
	_, client := setupTestRedis(t)
	store := domaincache.NewRedisStore(client, "test:")

	first := domaincache.New(time.Hour, domaincache.WithStore(store))
	second := domaincache.New(time.Hour, domaincache.WithStore(store))

	first.Set(ctx, "shared.com", types.DomainRecord{HasMX: true})
	rec, ok := second.Get(ctx, "shared.com")
	assert.True(t, ok)
	assert.True(t, rec.HasMX)
}

func TestRedisStore_ExpiresWithRedisTTL(t *testing.T) {
	ctx := context.Background()
	mr, client := setupTestRedis(t)
	c := domaincache.New(time.Minute, domaincache.WithStore(domaincache.NewRedisStore(client, "")))

	c.Set(ctx, "example.com", types.DomainRecord{HasMX: true})
	mr.FastForward(2 * time.Minute)

	_, ok := c.Get(ctx, "example.com")
	assert.False(t, ok)
	assert.Equal(t, 0, c.Stats(ctx).Entries)
}

func TestRedisStore_CorruptEntryIsMissAndDropped(t *testing.T) {
	ctx := context.Background()
	mr, client := setupTestRedis(t)
	c := domaincache.New(time.Hour, domaincache.WithStore(domaincache.NewRedisStore(client, "")))

	require.NoError(t, mr.Set(domaincache.DefaultKeyPrefix+"bad.com", "{not json"))

	_, ok := c.Get(ctx, "bad.com")
	assert.False(t, ok)
	assert.False(t, mr.Exists(domaincache.DefaultKeyPrefix+"bad.com"))
}

func TestRedisStore_UnavailableDegradesToMiss(t *testing.T) {
	ctx := context.Background()
	mr, client := setupTestRedis(t)
	c := domaincache.New(time.Hour, domaincache.WithStore(domaincache.NewRedisStore(client, "")))

	mr.Close()

	c.Set(ctx, "example.com", types.DomainRecord{HasMX: true})
	_, ok := c.Get(ctx, "example.com")
	assert.False(t, ok)
	assert.Equal(t, int64(1), c.Stats(ctx).Misses)
}

func TestOpenRedis(t *testing.T) {
	mr, _ := setupTestRedis(t)
	addr := mr.Addr()

	client, err := domaincache.OpenRedis(context.Background(), "redis://"+addr)
	require.NoError(t, err)
	_ = client.Close()

	mr.Close()
	_, err = domaincache.OpenRedis(context.Background(), "redis://"+addr)
	assert.Error(t, err)
}

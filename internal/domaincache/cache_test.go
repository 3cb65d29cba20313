package domaincache_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/optimode/bulkverify/internal/domaincache"
	"github.com/optimode/bulkverify/types"
)

// fakeClock is a manually advanced time source.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	f.now = f.now.Add(d)
	f.mu.Unlock()
}

func TestCache_GetSet(t *testing.T) {
	ctx := context.Background()
	c := domaincache.New(time.Hour)

	_, ok := c.Get(ctx, "example.com")
	assert.False(t, ok)

	c.Set(ctx, "Example.COM.", types.DomainRecord{HasMX: true, HasSPF: true})

	rec, ok := c.Get(ctx, "example.com")
	assert.True(t, ok)
	assert.Equal(t, "example.com", rec.Domain)
	assert.True(t, rec.HasMX)
	assert.True(t, rec.HasSPF)
	assert.False(t, rec.LastChecked.IsZero())
}

func TestCache_TTLExpiry(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	c := domaincache.New(time.Hour, domaincache.WithClock(clock.Now))

	c.Set(ctx, "example.com", types.DomainRecord{HasMX: true})

	clock.Advance(59 * time.Minute)
	_, ok := c.Get(ctx, "example.com")
	assert.True(t, ok)

	// age == TTL already counts as expired
	clock.Advance(time.Minute)
	_, ok = c.Get(ctx, "example.com")
	assert.False(t, ok)
	assert.Equal(t, 0, c.Stats(ctx).Entries)
}

func TestCache_DefaultTTL(t *testing.T) {
	c := domaincache.New(0)
	assert.Equal(t, domaincache.DefaultTTL, c.TTL())
}

func TestCache_Stats(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	c := domaincache.New(time.Minute, domaincache.WithClock(clock.Now))

	assert.Equal(t, domaincache.Stats{}, c.Stats(ctx))

	c.Set(ctx, "a.com", types.DomainRecord{HasMX: true})
	c.Set(ctx, "b.com", types.DomainRecord{})
	c.Get(ctx, "a.com")
	c.Get(ctx, "a.com")
	c.Get(ctx, "b.com")
	c.Get(ctx, "c.com")

	s := c.Stats(ctx)
	assert.Equal(t, 2, s.Entries)
	assert.Equal(t, int64(3), s.Hits)
	assert.Equal(t, int64(1), s.Misses)
	assert.InDelta(t, 0.75, s.HitRate, 1e-9)

	clock.Advance(2 * time.Minute)
	assert.Equal(t, 0, c.Stats(ctx).Entries)
}

func TestCache_ConcurrentAccess(t *testing.T) {
	ctx := context.Background()
	c := domaincache.New(time.Hour)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			domain := fmt.Sprintf("d%d.com", i%10)
			c.Set(ctx, domain, types.DomainRecord{HasMX: i%2 == 0})
			c.Get(ctx, domain)
		}(i)
	}
	wg.Wait()

	s := c.Stats(ctx)
	assert.Equal(t, 10, s.Entries)
	assert.Equal(t, int64(50), s.Hits+s.Misses)
}

func TestCache_PeekDoesNotCount(t *testing.T) {
	ctx := context.Background()
	c := domaincache.New(time.Hour)

	_, ok := c.Peek(ctx, "example.com")
	assert.False(t, ok)
	c.Set(ctx, "example.com", types.DomainRecord{HasMX: true})
	_, ok = c.Peek(ctx, "EXAMPLE.com")
	assert.True(t, ok)

	s := c.Stats(ctx)
	assert.Zero(t, s.Hits)
	assert.Zero(t, s.Misses)
}

// refreshingStore hands out a stale record and then, as a concurrent flight
// would, replaces it with a fresh one before the caller can act on the read.
type refreshingStore struct {
	mu      sync.Mutex
	entries map[string]types.DomainRecord
	fresh   types.DomainRecord
	deletes int
}

func (s *refreshingStore) Get(_ context.Context, domain string) (types.DomainRecord, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.entries[domain]
	s.entries[domain] = s.fresh
	return rec, ok, nil
}

func (s *refreshingStore) Set(_ context.Context, rec types.DomainRecord, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[rec.Domain] = rec
	return nil
}

func (s *refreshingStore) Delete(_ context.Context, domain string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deletes++
	delete(s.entries, domain)
	return nil
}

func (s *refreshingStore) Len(context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries), nil
}

func TestCache_ExpiredReadKeepsConcurrentRefresh(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	stale := types.DomainRecord{Domain: "example.com", LastChecked: clock.Now().Add(-2 * time.Hour)}
	fresh := types.DomainRecord{Domain: "example.com", HasMX: true, LastChecked: clock.Now()}
	store := &refreshingStore{
		entries: map[string]types.DomainRecord{"example.com": stale},
		fresh:   fresh,
	}
	c := domaincache.New(time.Hour, domaincache.WithClock(clock.Now), domaincache.WithStore(store))

	_, ok := c.Get(ctx, "example.com")
	assert.False(t, ok)
	assert.Zero(t, store.deletes)

	rec, ok := c.Get(ctx, "example.com")
	assert.True(t, ok)
	assert.True(t, rec.HasMX)
}

// Package domaincache provides a thread-safe, TTL-based store of per-domain
// DNS outcomes shared by every request in the process.
package domaincache

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"github.com/optimode/bulkverify/internal/logging"
	"github.com/optimode/bulkverify/types"
)

// DefaultTTL is how long a resolved domain stays fresh.
const DefaultTTL = time.Hour

// ErrCorrupt is returned by stores that hold an undecodable entry.
var ErrCorrupt = errors.New("domaincache: corrupt entry")

// Store is the backend behind a Cache. Implementations must be safe for
// concurrent use. Expiry is enforced by the Cache, stores may also drop
// entries on their own after ttl.
type Store interface {
	Get(ctx context.Context, domain string) (types.DomainRecord, bool, error)
	Set(ctx context.Context, rec types.DomainRecord, ttl time.Duration) error
	Delete(ctx context.Context, domain string) error
	Len(ctx context.Context) (int, error)
}

// staleDeleter is implemented by stores that can drop an expired entry
// without racing a concurrent Set of a fresh one. Stores without it, like
// Redis, expire entries on their own.
type staleDeleter interface {
	DeleteStale(ctx context.Context, domain string, checked time.Time) error
}

// Stats is a read-only snapshot of cache usage.
type Stats struct {
	Entries int     `json:"entryCount"`
	Hits    int64   `json:"hits"`
	Misses  int64   `json:"misses"`
	HitRate float64 `json:"hitRate"`
}

// Cache memoizes DomainRecords for a fixed TTL. An entry whose age is at
// least the TTL reads as a miss and is dropped.
type Cache struct {
	store  Store
	ttl    time.Duration
	now    func() time.Time
	logger *slog.Logger

	hits   atomic.Int64
	misses atomic.Int64
}

// Option configures a Cache.
type Option func(*Cache)

// WithStore replaces the in-memory backend.
func WithStore(s Store) Option {
	return func(c *Cache) { c.store = s }
}

// WithClock overrides time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) { c.now = now }
}

// WithLogger sets the logger used for backend failures.
func WithLogger(l *slog.Logger) Option {
	return func(c *Cache) { c.logger = l }
}

// New creates a cache with the given TTL (DefaultTTL when ttl <= 0).
func New(ttl time.Duration, opts ...Option) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	c := &Cache{ttl: ttl, now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = logging.OrDiscard(c.logger)
	if c.store == nil {
		c.store = newMemoryStore(c.now, c.ttl)
	}
	return c
}

// TTL returns the configured time-to-live.
func (c *Cache) TTL() time.Duration {
	return c.ttl
}

// Get returns the fresh record for domain, if any.
// Backend errors are logged and read as a miss.
func (c *Cache) Get(ctx context.Context, domain string) (types.DomainRecord, bool) {
	rec, ok := c.Peek(ctx, domain)
	if !ok {
		c.misses.Add(1)
		return types.DomainRecord{}, false
	}
	c.hits.Add(1)
	return rec, true
}

// Peek is Get without touching the hit/miss counters.
func (c *Cache) Peek(ctx context.Context, domain string) (types.DomainRecord, bool) {
	domain = normalize(domain)
	rec, ok, err := c.store.Get(ctx, domain)
	if err != nil {
		c.logger.Warn("domain cache read failed", "domain", domain, "error", err)
		if errors.Is(err, ErrCorrupt) {
			_ = c.store.Delete(ctx, domain)
		}
		ok = false
	}
	if ok && rec.Expired(c.now(), c.ttl) {
		if sd, can := c.store.(staleDeleter); can {
			_ = sd.DeleteStale(ctx, domain, rec.LastChecked)
		}
		ok = false
	}
	if !ok {
		return types.DomainRecord{}, false
	}
	return rec, true
}

// Set stores rec under domain. A zero LastChecked is stamped with the current time.
func (c *Cache) Set(ctx context.Context, domain string, rec types.DomainRecord) {
	rec.Domain = normalize(domain)
	if rec.LastChecked.IsZero() {
		rec.LastChecked = c.now()
	}
	if err := c.store.Set(ctx, rec, c.ttl); err != nil {
		c.logger.Warn("domain cache write failed", "domain", rec.Domain, "error", err)
	}
}

// Stats returns the current entry count and hit/miss counters.
func (c *Cache) Stats(ctx context.Context) Stats {
	n, err := c.store.Len(ctx)
	if err != nil {
		c.logger.Warn("domain cache size failed", "error", err)
	}
	s := Stats{Entries: n, Hits: c.hits.Load(), Misses: c.misses.Load()}
	if total := s.Hits + s.Misses; total > 0 {
		s.HitRate = float64(s.Hits) / float64(total)
	}
	return s
}

func normalize(domain string) string {
	return strings.TrimSuffix(strings.ToLower(strings.TrimSpace(domain)), ".")
}

// Package resolver answers MX and SPF questions for a domain. Answers are
// cached per domain, and concurrent lookups for the same domain are merged
// into one. Transient DNS failures are retried with backoff before they are
// folded into a negative answer.
package resolver

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	"github.com/optimode/bulkverify/internal/domaincache"
	"github.com/optimode/bulkverify/internal/logging"
	"github.com/optimode/bulkverify/types"
)

const (
	DefaultAttempts       = 3
	DefaultBaseDelay      = time.Second
	DefaultAttemptTimeout = 5 * time.Second
	DefaultMaxConcurrent  = 256
)

// Config tunes retries and the pressure put on the DNS path.
type Config struct {
	// Attempts is the number of tries per query. Default: 3
	Attempts int
	// BaseDelay is multiplied by the attempt number to get the wait before the next try. Default: 1s
	BaseDelay time.Duration
	// AttemptTimeout bounds a single query. Default: 5s
	AttemptTimeout time.Duration
	// MaxConcurrent caps in-flight queries across all requests. Default: 256
	MaxConcurrent int64
	// QPS caps the query rate. 0 disables the limit.
	QPS float64
	// Burst is the limiter burst size. Default: 1 when QPS is set.
	Burst int
}

func (c Config) withDefaults() Config {
	if c.Attempts <= 0 {
		c.Attempts = DefaultAttempts
	}
	if c.BaseDelay <= 0 {
		c.BaseDelay = DefaultBaseDelay
	}
	if c.AttemptTimeout <= 0 {
		c.AttemptTimeout = DefaultAttemptTimeout
	}
	if c.MaxConcurrent <= 0 {
		c.MaxConcurrent = DefaultMaxConcurrent
	}
	if c.QPS > 0 && c.Burst <= 0 {
		c.Burst = 1
	}
	return c
}

// Resolver looks up domains through a Lookup, backed by a domain cache.
type Resolver struct {
	lookup  Lookup
	cache   *domaincache.Cache
	cfg     Config
	sem     *semaphore.Weighted
	limiter *rate.Limiter
	group   singleflight.Group
	logger  *slog.Logger
}

// New creates a Resolver. A nil cache gets a private in-memory one with the
// default TTL; a nil logger discards output.
func New(lookup Lookup, cache *domaincache.Cache, cfg Config, logger *slog.Logger) *Resolver {
	cfg = cfg.withDefaults()
	logger = logging.OrDiscard(logger)
	if cache == nil {
		cache = domaincache.New(domaincache.DefaultTTL, domaincache.WithLogger(logger))
	}
	r := &Resolver{
		lookup: lookup,
		cache:  cache,
		cfg:    cfg,
		sem:    semaphore.NewWeighted(cfg.MaxConcurrent),
		logger: logger,
	}
	if cfg.QPS > 0 {
		r.limiter = rate.NewLimiter(rate.Limit(cfg.QPS), cfg.Burst)
	}
	return r
}

// HasMXRecord reports whether domain publishes at least one MX record.
// A domain that could not be resolved reports false.
func (r *Resolver) HasMXRecord(ctx context.Context, domain string) bool {
	return r.Lookup(ctx, domain).HasMX
}

// HasSPFRecord reports whether domain publishes a v=spf1 TXT record.
func (r *Resolver) HasSPFRecord(ctx context.Context, domain string) bool {
	return r.Lookup(ctx, domain).HasSPF
}

// Lookup returns the cached record for domain, resolving it on a miss.
// It never fails: exhausted retries produce a negative record, which is cached too.
func (r *Resolver) Lookup(ctx context.Context, domain string) types.DomainRecord {
	domain = strings.TrimSuffix(strings.ToLower(strings.TrimSpace(domain)), ".")
	if rec, ok := r.cache.Get(ctx, domain); ok {
		return rec
	}

	// The shared flight must not die with whichever caller started it.
	flightCtx := context.WithoutCancel(ctx)
	v, _, _ := r.group.Do(domain, func() (any, error) {
		// A flight that finished between our miss and Do already stored it.
		if rec, ok := r.cache.Peek(flightCtx, domain); ok {
			return rec, nil
		}
		rec := r.resolve(flightCtx, domain)
		r.cache.Set(flightCtx, domain, rec)
		return rec, nil
	})
	return v.(types.DomainRecord)
}

// resolve queries MX and TXT in parallel.
func (r *Resolver) resolve(ctx context.Context, domain string) types.DomainRecord {
	var (
		wg     sync.WaitGroup
		hasMX  bool
		hasSPF bool
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		recs, err := query(ctx, r, "MX", domain, r.lookup.LookupMX)
		hasMX = err == nil && len(recs) > 0
	}()
	go func() {
		defer wg.Done()
		recs, err := query(ctx, r, "TXT", domain, r.lookup.LookupTXT)
		hasSPF = err == nil && containsSPF(recs)
	}()
	wg.Wait()

	return types.DomainRecord{Domain: domain, HasMX: hasMX, HasSPF: hasSPF}
}

// query runs fn up to cfg.Attempts times. After failed try n it waits BaseDelay*n.
func query[T any](ctx context.Context, r *Resolver, kind, domain string, fn func(context.Context, string) (T, error)) (T, error) {
	var (
		zero    T
		lastErr error
	)
	for attempt := 1; attempt <= r.cfg.Attempts; attempt++ {
		if attempt > 1 {
			delay := r.cfg.BaseDelay * time.Duration(attempt-1)
			r.logger.Debug("dns retry", "kind", kind, "domain", domain, "attempt", attempt, "wait", delay)
			timer := time.NewTimer(delay)
			select {
			case <-timer.C:
			case <-ctx.Done():
				timer.Stop()
				return zero, ctx.Err()
			}
		}

		res, err := queryOnce(ctx, r, domain, fn)
		if err == nil {
			return res, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			break
		}
	}

	r.logger.Warn("dns lookup failed", "kind", kind, "domain", domain, "attempts", r.cfg.Attempts, "error", lastErr)
	return zero, lastErr
}

// queryOnce runs one query under the concurrency cap, the rate limit and the
// per-attempt timeout. A panicking Lookup counts as a failed attempt.
func queryOnce[T any](ctx context.Context, r *Resolver, domain string, fn func(context.Context, string) (T, error)) (res T, err error) {
	if err := r.sem.Acquire(ctx, 1); err != nil {
		return res, err
	}
	defer r.sem.Release(1)

	if r.limiter != nil {
		if err := r.limiter.Wait(ctx); err != nil {
			return res, err
		}
	}

	defer func() {
		if p := recover(); p != nil {
			var zero T
			res, err = zero, fmt.Errorf("lookup %s panicked: %v", domain, p)
		}
	}()

	actx, cancel := context.WithTimeout(ctx, r.cfg.AttemptTimeout)
	defer cancel()
	return fn(actx, domain)
}

func containsSPF(txt []string) bool {
	for _, rec := range txt {
		rec = strings.TrimSpace(rec)
		if len(rec) >= 6 && strings.EqualFold(rec[:6], "v=spf1") {
			return true
		}
	}
	return false
}

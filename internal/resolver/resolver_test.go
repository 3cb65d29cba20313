package resolver_test

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/optimode/bulkverify/internal/domaincache"
	"github.com/optimode/bulkverify/internal/resolver"
)

var errTimeout = &net.DNSError{Err: "i/o timeout", IsTimeout: true}

// mockLookup counts calls and can fail the first N MX queries.
type mockLookup struct {
	mx      map[string][]*net.MX
	txt     map[string][]string
	failMX  int64
	failTXT int64
	delay   time.Duration

	mxCalls  atomic.Int64
	txtCalls atomic.Int64
	inflight atomic.Int64
	peak     atomic.Int64
}

func (m *mockLookup) enter() func() {
	n := m.inflight.Add(1)
	for {
		p := m.peak.Load()
		if n <= p || m.peak.CompareAndSwap(p, n) {
			break
		}
	}
	if m.delay > 0 {
		time.Sleep(m.delay)
	}
	return func() { m.inflight.Add(-1) }
}

func (m *mockLookup) LookupMX(_ context.Context, domain string) ([]*net.MX, error) {
	defer m.enter()()
	if n := m.mxCalls.Add(1); n <= m.failMX {
		return nil, errTimeout
	}
	return m.mx[domain], nil
}

func (m *mockLookup) LookupTXT(_ context.Context, domain string) ([]string, error) {
	defer m.enter()()
	if n := m.txtCalls.Add(1); n <= m.failTXT {
		return nil, errTimeout
	}
	return m.txt[domain], nil
}

func mx(host string) []*net.MX {
	return []*net.MX{{Host: host, Pref: 10}}
}

func fastConfig() resolver.Config {
	return resolver.Config{BaseDelay: time.Millisecond, AttemptTimeout: time.Second}
}

func TestResolver_MXAndSPF(t *testing.T) {
	ctx := context.Background()
	m := &mockLookup{
		mx: map[string][]*net.MX{
			"good.com":  mx("mx.good.com."),
			"nospf.com": mx("mx.nospf.com."),
		},
		txt: map[string][]string{
			"good.com":  {"google-site-verification=abc", "V=SPF1 include:_spf.good.com ~all"},
			"nospf.com": {"v=DMARC1; p=none"},
		},
	}
	r := resolver.New(m, domaincache.New(time.Hour), fastConfig(), nil)

	assert.True(t, r.HasMXRecord(ctx, "good.com"))
	assert.True(t, r.HasSPFRecord(ctx, "good.com"))
	assert.True(t, r.HasMXRecord(ctx, "nospf.com"))
	assert.False(t, r.HasSPFRecord(ctx, "nospf.com"))
	assert.False(t, r.HasMXRecord(ctx, "nothing.test"))
}

func TestResolver_CachesPerDomain(t *testing.T) {
	ctx := context.Background()
	m := &mockLookup{mx: map[string][]*net.MX{"good.com": mx("mx.good.com.")}}
	cache := domaincache.New(time.Hour)
	r := resolver.New(m, cache, fastConfig(), nil)

	for i := 0; i < 5; i++ {
		assert.True(t, r.HasMXRecord(ctx, "good.com"))
		r.HasSPFRecord(ctx, "GOOD.com.")
	}
	assert.Equal(t, int64(1), m.mxCalls.Load())
	assert.Equal(t, int64(1), m.txtCalls.Load())
	assert.Equal(t, 1, cache.Stats(ctx).Entries)
}

func TestResolver_RetriesTransientFailures(t *testing.T) {
	m := &mockLookup{failMX: 2, mx: map[string][]*net.MX{"flaky.com": mx("mx.flaky.com.")}}
	r := resolver.New(m, domaincache.New(time.Hour), fastConfig(), nil)

	assert.True(t, r.HasMXRecord(context.Background(), "flaky.com"))
	assert.Equal(t, int64(3), m.mxCalls.Load())
}

func TestResolver_ExhaustedRetriesAreNegativeAndCached(t *testing.T) {
	ctx := context.Background()
	m := &mockLookup{failMX: 100, failTXT: 100}
	r := resolver.New(m, domaincache.New(time.Hour), fastConfig(), nil)

	assert.False(t, r.HasMXRecord(ctx, "down.com"))
	assert.Equal(t, int64(resolver.DefaultAttempts), m.mxCalls.Load())
	assert.Equal(t, int64(resolver.DefaultAttempts), m.txtCalls.Load())

	assert.False(t, r.HasMXRecord(ctx, "down.com"))
	assert.Equal(t, int64(resolver.DefaultAttempts), m.mxCalls.Load())
}

func TestResolver_AuthoritativeEmptyIsNotRetried(t *testing.T) {
	m := &mockLookup{}
	r := resolver.New(m, domaincache.New(time.Hour), fastConfig(), nil)

	assert.False(t, r.HasMXRecord(context.Background(), "nonexistentdomain123.test"))
	assert.Equal(t, int64(1), m.mxCalls.Load())
}

func TestResolver_BackoffGrowsWithAttempt(t *testing.T) {
	m := &mockLookup{failMX: 2, mx: map[string][]*net.MX{"flaky.com": mx("mx.flaky.com.")}}
	cfg := resolver.Config{BaseDelay: 20 * time.Millisecond}
	r := resolver.New(m, domaincache.New(time.Hour), cfg, nil)

	start := time.Now()
	assert.True(t, r.HasMXRecord(context.Background(), "flaky.com"))
	// 20ms after the first failure, 40ms after the second
	assert.GreaterOrEqual(t, time.Since(start), 60*time.Millisecond)
}

func TestResolver_Singleflight(t *testing.T) {
	m := &mockLookup{delay: 20 * time.Millisecond, mx: map[string][]*net.MX{"busy.com": mx("mx.busy.com.")}}
	r := resolver.New(m, domaincache.New(time.Hour), fastConfig(), nil)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.True(t, r.HasMXRecord(context.Background(), "busy.com"))
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(1), m.mxCalls.Load())
}

func TestResolver_MaxConcurrentQueries(t *testing.T) {
	m := &mockLookup{delay: 10 * time.Millisecond}
	cfg := fastConfig()
	cfg.MaxConcurrent = 2
	r := resolver.New(m, domaincache.New(time.Hour), cfg, nil)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			r.HasMXRecord(context.Background(), fmt.Sprintf("d%d.com", i))
		}(i)
	}
	wg.Wait()

	assert.LessOrEqual(t, m.peak.Load(), int64(2))
	assert.Equal(t, int64(10), m.mxCalls.Load())
}

func TestResolver_QPSLimit(t *testing.T) {
	m := &mockLookup{}
	cfg := fastConfig()
	cfg.QPS = 50
	r := resolver.New(m, domaincache.New(time.Hour), cfg, nil)

	start := time.Now()
	for i := 0; i < 3; i++ {
		r.HasMXRecord(context.Background(), fmt.Sprintf("d%d.com", i))
	}
	// 6 queries at 50/s with burst 1 need at least 5 intervals of 20ms
	assert.GreaterOrEqual(t, time.Since(start), 90*time.Millisecond)
}

func TestResolver_CancelledCallerStillResolves(t *testing.T) {
	m := &mockLookup{mx: map[string][]*net.MX{"good.com": mx("mx.good.com.")}}
	r := resolver.New(m, domaincache.New(time.Hour), fastConfig(), nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.True(t, r.HasMXRecord(ctx, "good.com"))
}

func TestResolver_ExpiredEntryIsRefreshed(t *testing.T) {
	ctx := context.Background()
	var mu sync.Mutex
	now := time.Now()
	clock := func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		return now
	}
	m := &mockLookup{mx: map[string][]*net.MX{"good.com": mx("mx.good.com.")}}
	r := resolver.New(m, domaincache.New(time.Hour, domaincache.WithClock(clock)), fastConfig(), nil)

	r.HasMXRecord(ctx, "good.com")
	mu.Lock()
	now = now.Add(time.Hour)
	mu.Unlock()
	r.HasMXRecord(ctx, "good.com")

	assert.Equal(t, int64(2), m.mxCalls.Load())
}

func TestNetLookup_NotFoundIsEmpty(t *testing.T) {
	// .invalid is reserved and never resolves (RFC 2606).
	l := resolver.NewNetLookup()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	recs, err := l.LookupMX(ctx, "nonexistent.invalid")
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) && !dnsErr.IsNotFound {
		t.Skip("DNS resolution unavailable in this environment")
	}
	assert.NoError(t, err)
	assert.Empty(t, recs)
}

type panickingLookup struct{}

func (panickingLookup) LookupMX(context.Context, string) ([]*net.MX, error) { panic("boom") }
func (panickingLookup) LookupTXT(context.Context, string) ([]string, error) { panic("boom") }

func TestResolver_PanickingLookupIsNegative(t *testing.T) {
	r := resolver.New(panickingLookup{}, nil, fastConfig(), nil)

	assert.NotPanics(t, func() {
		assert.False(t, r.HasMXRecord(context.Background(), "boom.com"))
	})
}

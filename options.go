package bulkverify

import "time"

// Options configures request limits and windowing.
type Options struct {
	// BatchLimit is the largest accepted batch. Default: 10000
	BatchLimit int
	// StreamLimit is the largest accepted stream. Default: 1000
	StreamLimit int
	// BatchWindow is how many addresses a batch classifies at once. Default: 100
	BatchWindow int
	// StreamWindow is how many addresses a stream classifies at once. Default: 50
	StreamWindow int
	// StreamDelay is the pause between stream windows, clamped to 5ms..50ms. Default: 10ms
	StreamDelay time.Duration
}

const (
	minStreamDelay = 5 * time.Millisecond
	maxStreamDelay = 50 * time.Millisecond
)

func defaultOptions() Options {
	return Options{
		BatchLimit:   10000,
		StreamLimit:  1000,
		BatchWindow:  100,
		StreamWindow: 50,
		StreamDelay:  10 * time.Millisecond,
	}
}

func (o Options) withDefaults() Options {
	def := defaultOptions()
	if o.BatchLimit <= 0 {
		o.BatchLimit = def.BatchLimit
	}
	if o.StreamLimit <= 0 {
		o.StreamLimit = def.StreamLimit
	}
	if o.BatchWindow <= 0 {
		o.BatchWindow = def.BatchWindow
	}
	if o.StreamWindow <= 0 {
		o.StreamWindow = def.StreamWindow
	}
	switch {
	case o.StreamDelay == 0:
		o.StreamDelay = def.StreamDelay
	case o.StreamDelay < minStreamDelay:
		o.StreamDelay = minStreamDelay
	case o.StreamDelay > maxStreamDelay:
		o.StreamDelay = maxStreamDelay
	}
	return o
}

// DNSOptions configures MX/SPF resolution.
type DNSOptions struct {
	// Timeout bounds a single query attempt. Default: 5s
	Timeout time.Duration
	// Attempts is the number of tries per query. Default: 3
	Attempts int
	// BaseDelay times the attempt number is the wait before the next try. Default: 1s
	BaseDelay time.Duration
	// MaxConcurrent caps in-flight queries across all requests. Default: 256
	MaxConcurrent int
	// QPS caps the query rate; 0 means unlimited.
	QPS float64
	// Burst is the rate limiter burst. Default: 1
	Burst int
	// Servers, when set, sends queries straight to these nameservers
	// instead of the system resolver.
	Servers []string
}

// DomainOptions configures the offline domain checks.
type DomainOptions struct {
	// TypoThreshold is the largest edit distance still suggested. Default: 2
	TypoThreshold int
	// DisposableFile extends the built-in disposable list; one domain per line, # comments.
	DisposableFile string
	// ExtraDisposable extends the built-in disposable list.
	ExtraDisposable []string
}

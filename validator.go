package bulkverify

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/optimode/bulkverify/check"
	"github.com/optimode/bulkverify/internal/dedupe"
	"github.com/optimode/bulkverify/internal/disposable"
	"github.com/optimode/bulkverify/internal/domaincache"
	"github.com/optimode/bulkverify/internal/logging"
	"github.com/optimode/bulkverify/internal/resolver"
	"github.com/optimode/bulkverify/types"
)

// classifier is what the pipeline fans out over.
type classifier interface {
	Classify(ctx context.Context, raw string) types.Verdict
}

// Validator is the main fluent builder struct.
// Instantiate with the New() function, chain the With* methods, then validate.
// Builder methods must not be called once validation has started.
type Validator struct {
	opts   Options
	dns    DNSOptions
	domain DomainOptions
	cache  *domaincache.Cache
	lookup resolver.Lookup
	logger *slog.Logger

	prepare    sync.Once
	err        error // configuration error, returned on every Validate*
	classifier classifier
}

// New creates a Validator with a private in-memory cache and the system resolver.
// Optionally overrides the default Options.
func New(opts ...Options) *Validator {
	o := Options{}
	if len(opts) > 0 {
		o = opts[0]
	}
	return &Validator{
		opts:   o.withDefaults(),
		logger: logging.Discard(),
	}
}

// WithDNS overrides the resolution settings.
func (v *Validator) WithDNS(opts DNSOptions) *Validator {
	v.dns = opts
	return v
}

// WithDomain overrides the disposable list and typo settings.
func (v *Validator) WithDomain(opts DomainOptions) *Validator {
	v.domain = opts
	return v
}

// WithCache shares c between validators, or puts it on another backend.
func (v *Validator) WithCache(c *Cache) *Validator {
	v.cache = c
	return v
}

// WithLookup replaces the DNS collaborator. It takes precedence over DNSOptions.Servers.
func (v *Validator) WithLookup(l Lookup) *Validator {
	v.lookup = l
	return v
}

// WithLogger sets the logger. Addresses are redacted before they are logged.
func (v *Validator) WithLogger(l *slog.Logger) *Validator {
	v.logger = logging.OrDiscard(l)
	return v
}

// init wires the classifier on first use.
func (v *Validator) init() error {
	v.prepare.Do(func() {
		if v.cache == nil {
			v.cache = domaincache.New(domaincache.DefaultTTL, domaincache.WithLogger(v.logger))
		}

		lookup := v.lookup
		if lookup == nil {
			if len(v.dns.Servers) > 0 {
				l, err := resolver.NewExchangeLookup(v.dns.Servers, v.dns.Timeout)
				if err != nil {
					v.err = fmt.Errorf("%w: %w", ErrInvalidOptions, err)
					return
				}
				lookup = l
			} else {
				lookup = resolver.NewNetLookup()
			}
		}

		set := disposable.Default().With(v.domain.ExtraDisposable...)
		if v.domain.DisposableFile != "" {
			extended, err := set.WithFile(v.domain.DisposableFile)
			if err != nil {
				v.err = fmt.Errorf("%w: %w", ErrInvalidOptions, err)
				return
			}
			set = extended
		}

		res := resolver.New(lookup, v.cache, resolver.Config{
			Attempts:       v.dns.Attempts,
			BaseDelay:      v.dns.BaseDelay,
			AttemptTimeout: v.dns.Timeout,
			MaxConcurrent:  int64(v.dns.MaxConcurrent),
			QPS:            v.dns.QPS,
			Burst:          v.dns.Burst,
		}, v.logger)

		if v.classifier == nil {
			v.classifier = check.NewClassifier(
				check.NewDomainChecker(check.DomainConfig{Disposable: set, TypoThreshold: v.domain.TypoThreshold}),
				check.NewDNSChecker(res),
			)
		}
		v.logger.Debug("validator ready", "disposable_domains", set.Len(), "cache_ttl", v.cache.TTL())
	})
	return v.err
}

// Ready applies the builder options and reports a configuration error, if any.
// Calling it is optional; the Validate* methods do the same on first use.
func (v *Validator) Ready() error {
	return v.init()
}

// Validate classifies a single address.
func (v *Validator) Validate(ctx context.Context, email string) (Verdict, error) {
	if err := v.init(); err != nil {
		return Verdict{}, err
	}
	return v.classifyOne(context.WithoutCancel(ctx), email), nil
}

// ValidateBatch classifies every address and returns the verdicts in input order.
// With filterDuplicates, repeats are dropped before classification and reported
// in DuplicateFilter. Cancelling ctx stops further windows and returns ctx's error.
func (v *Validator) ValidateBatch(ctx context.Context, addresses []string, filterDuplicates bool) (BatchResult, error) {
	if err := checkBounds(ModeBatch, len(addresses), v.opts.BatchLimit); err != nil {
		return BatchResult{}, err
	}
	if err := v.init(); err != nil {
		return BatchResult{}, err
	}

	res := BatchResult{Summary: newSummary()}
	work := addresses
	if filterDuplicates {
		report := dedupe.Dedupe(addresses)
		res.DuplicateFilter = &report
		work = report.UniqueAddresses
	}

	res.Results = make([]Verdict, 0, len(work))
	err := v.run(ctx, work, v.opts.BatchWindow, 0, func(_ int, window []Verdict) error {
		for _, verdict := range window {
			res.Summary[verdict.Result]++
		}
		res.Results = append(res.Results, window...)
		return nil
	})
	if err != nil {
		return BatchResult{}, err
	}
	if len(res.Results) != len(work) {
		v.logger.Error("verdict count mismatch", "want", len(work), "got", len(res.Results))
		return BatchResult{}, fmt.Errorf("%w: %d verdicts for %d addresses", ErrInternal, len(res.Results), len(work))
	}

	res.Total = len(res.Results)
	v.logger.Info("batch validated", "total", res.Total, "summary", res.Summary)
	return res, nil
}

// ValidateStream classifies addresses window by window and sends each window's
// verdicts as soon as it settles. The channel ends with an EventDone (or
// EventError) and is closed. When ctx is cancelled no further events are
// sent and the channel is closed without EventDone.
func (v *Validator) ValidateStream(ctx context.Context, addresses []string, filterDuplicates bool) (<-chan StreamEvent, error) {
	if err := checkBounds(ModeStream, len(addresses), v.opts.StreamLimit); err != nil {
		return nil, err
	}
	if err := v.init(); err != nil {
		return nil, err
	}

	work := addresses
	var report *DeduplicationReport
	if filterDuplicates {
		r := dedupe.Dedupe(addresses)
		report = &r
		work = r.UniqueAddresses
	}

	out := make(chan StreamEvent, v.opts.StreamWindow)
	go func() {
		defer close(out)

		send := func(ev StreamEvent) error {
			if err := ctx.Err(); err != nil {
				return err
			}
			select {
			case out <- ev:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		if report != nil {
			if send(StreamEvent{Kind: EventDuplicates, Duplicates: report}) != nil {
				return
			}
		}

		summary := newSummary()
		sent := 0
		err := v.run(ctx, work, v.opts.StreamWindow, v.opts.StreamDelay, func(start int, window []Verdict) error {
			for i := range window {
				summary[window[i].Result]++
				if err := send(StreamEvent{Kind: EventVerdict, Index: start + i, Verdict: &window[i]}); err != nil {
					return err
				}
				sent++
			}
			return nil
		})
		switch {
		case ctx.Err() != nil:
			v.logger.Info("stream cancelled", "sent", sent, "total", len(work))
			return
		case err == nil && sent != len(work):
			err = fmt.Errorf("%w: %d verdicts for %d addresses", ErrInternal, sent, len(work))
		}
		if err != nil {
			v.logger.Error("stream aborted", "error", err)
			_ = send(StreamEvent{Kind: EventError, Error: err.Error()})
			return
		}
		_ = send(StreamEvent{Kind: EventDone, Total: sent, Summary: summary})
		v.logger.Info("stream validated", "total", sent, "summary", summary)
	}()
	return out, nil
}

// CacheStats reports the shared domain cache usage.
func (v *Validator) CacheStats(ctx context.Context) CacheStats {
	_ = v.init()
	return v.cache.Stats(ctx)
}

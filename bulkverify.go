// Package bulkverify validates lists of email addresses for deliverability.
// Each address gets a syntax check, a disposable-domain check, an MX/SPF
// lookup through a shared TTL cache and an optional typo suggestion.
// Lists are processed in bounded windows and delivered either as one
// ordered batch or as a stream of events.
//
// Batch:
//
//	res, err := bulkverify.New().ValidateBatch(ctx, addrs, true)
//
// Stream:
//
//	events, err := bulkverify.New().ValidateStream(ctx, addrs, false)
//	for ev := range events {
//	    ...
//	}
//
// A Validator is safe for concurrent use once its builder methods have been called.
package bulkverify

import (
	"time"

	"github.com/optimode/bulkverify/internal/domaincache"
	"github.com/optimode/bulkverify/internal/resolver"
	"github.com/optimode/bulkverify/types"
)

// Verdict is a re-export from the types package so that consumers
// don't need to import the types package directly.
type Verdict = types.Verdict

// Result is a re-export.
type Result = types.Result

// DomainType is a re-export.
type DomainType = types.DomainType

// DeduplicationReport is a re-export.
type DeduplicationReport = types.DeduplicationReport

// Result constants re-exported.
const (
	ResultDeliverable   = types.ResultDeliverable
	ResultUndeliverable = types.ResultUndeliverable
	ResultInvalidFormat = types.ResultInvalidFormat
	ResultDisposable    = types.ResultDisposable
	ResultError         = types.ResultError
)

// Cache is the per-domain DNS cache shared by every request of a Validator.
type Cache = domaincache.Cache

// CacheStats is a snapshot of cache usage.
type CacheStats = domaincache.Stats

// CacheStore is a Cache backend.
type CacheStore = domaincache.Store

// Lookup is the DNS collaborator. An error means a transient failure and an
// empty answer means the domain has no such records.
type Lookup = resolver.Lookup

// NewCache creates an in-memory cache, or one on store when it is not nil.
// ttl <= 0 means one hour.
func NewCache(ttl time.Duration, store CacheStore) *Cache {
	if store == nil {
		return domaincache.New(ttl)
	}
	return domaincache.New(ttl, domaincache.WithStore(store))
}

// Package types contains the shared types for bulkverify.
// This package does not import anything from other bulkverify packages
// to avoid circular imports.
package types

import "time"

// Result is the deliverability outcome for a single address.
type Result = string

const (
	ResultDeliverable   Result = "deliverable"
	ResultUndeliverable Result = "undeliverable"
	ResultInvalidFormat Result = "invalid_format"
	ResultDisposable    Result = "disposable"
	ResultError         Result = "error"
)

// Results lists every result in severity order, best first.
var Results = []Result{
	ResultDeliverable,
	ResultUndeliverable,
	ResultInvalidFormat,
	ResultDisposable,
	ResultError,
}

// DomainType tells consumer mailbox providers apart from business domains.
type DomainType = string

const (
	TypePublic DomainType = "public"
	TypePro    DomainType = "pro"
)

// Scores attached to each result.
const (
	ScoreDeliverableSPF = 95
	ScoreDeliverable    = 80
	ScoreUndeliverable  = 10
	ScoreRejected       = 0
)

// Verdict is the outcome of validating one address. Immutable once produced.
type Verdict struct {
	Email          string     `json:"email"`
	Result         Result     `json:"result"`
	Type           DomainType `json:"type"`
	Score          int        `json:"score"`
	Reason         string     `json:"reason"`
	TypoSuggestion string     `json:"typoSuggestion,omitempty"`
}

// DomainRecord is the cached DNS outcome for a domain.
type DomainRecord struct {
	Domain      string    `json:"domain"`
	HasMX       bool      `json:"hasMX"`
	HasSPF      bool      `json:"hasSPF"`
	LastChecked time.Time `json:"lastChecked"`
}

// Expired reports whether the record is at least ttl old at now.
func (r DomainRecord) Expired(now time.Time, ttl time.Duration) bool {
	return now.Sub(r.LastChecked) >= ttl
}

// DeduplicationReport partitions an input list into first occurrences and repeats.
type DeduplicationReport struct {
	UniqueAddresses []string `json:"uniqueAddresses"`
	Duplicates      []string `json:"duplicates"`
	TotalOriginal   int      `json:"totalOriginal"`
	TotalUnique     int      `json:"totalUnique"`
	TotalDuplicates int      `json:"totalDuplicates"`
}

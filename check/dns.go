package check

import (
	"context"

	"github.com/optimode/bulkverify/internal/parse"
)

// MXResolver is the part of the resolver the DNS check needs.
// Implementations never fail: an unresolvable domain has no MX.
type MXResolver interface {
	HasMXRecord(ctx context.Context, domain string) bool
	HasSPFRecord(ctx context.Context, domain string) bool
}

// DNSChecker verifies that a domain can receive mail.
type DNSChecker struct {
	resolver MXResolver
}

func NewDNSChecker(r MXResolver) *DNSChecker {
	return &DNSChecker{resolver: r}
}

// Check reports MX presence and, when there is an MX, SPF presence.
func (c *DNSChecker) Check(ctx context.Context, addr parse.Address) (hasMX, hasSPF bool) {
	if !c.resolver.HasMXRecord(ctx, addr.Domain) {
		return false, false
	}
	return true, c.resolver.HasSPFRecord(ctx, addr.Domain)
}

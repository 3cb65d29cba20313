package resolver

import (
	"context"
	"errors"
	"net"
)

// Lookup is the external DNS collaborator.
// An error means the query could not be answered and may be retried.
// An authoritative "no such domain" or "no records" answer is an empty slice.
type Lookup interface {
	LookupMX(ctx context.Context, domain string) ([]*net.MX, error)
	LookupTXT(ctx context.Context, domain string) ([]string, error)
}

// NetLookup queries through the system resolver.
type NetLookup struct {
	Resolver *net.Resolver
}

// NewNetLookup returns a Lookup backed by the pure-Go resolver.
func NewNetLookup() *NetLookup {
	return &NetLookup{Resolver: &net.Resolver{PreferGo: true}}
}

func (l *NetLookup) LookupMX(ctx context.Context, domain string) ([]*net.MX, error) {
	recs, err := l.Resolver.LookupMX(ctx, domain)
	if isNotFound(err) {
		return nil, nil
	}
	return recs, err
}

func (l *NetLookup) LookupTXT(ctx context.Context, domain string) ([]string, error) {
	recs, err := l.Resolver.LookupTXT(ctx, domain)
	if isNotFound(err) {
		return nil, nil
	}
	return recs, err
}

func isNotFound(err error) bool {
	var dnsErr *net.DNSError
	return errors.As(err, &dnsErr) && dnsErr.IsNotFound
}

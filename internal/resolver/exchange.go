package resolver

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/miekg/dns"
)

// ExchangeLookup sends queries straight to the configured nameservers.
// Unlike the system resolver it can tell NXDOMAIN from SERVFAIL, so only the
// latter is reported as a retryable error.
type ExchangeLookup struct {
	servers []string
	udp     *dns.Client
	tcp     *dns.Client
}

// NewExchangeLookup queries servers in order. Entries without a port get :53.
func NewExchangeLookup(servers []string, timeout time.Duration) (*ExchangeLookup, error) {
	if len(servers) == 0 {
		return nil, errors.New("resolver: no nameservers configured")
	}
	if timeout <= 0 {
		timeout = DefaultAttemptTimeout
	}
	l := &ExchangeLookup{
		udp: &dns.Client{Net: "udp", Timeout: timeout},
		tcp: &dns.Client{Net: "tcp", Timeout: timeout},
	}
	for _, s := range servers {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if _, _, err := net.SplitHostPort(s); err != nil {
			s = net.JoinHostPort(s, "53")
		}
		l.servers = append(l.servers, s)
	}
	if len(l.servers) == 0 {
		return nil, errors.New("resolver: no nameservers configured")
	}
	return l, nil
}

func (l *ExchangeLookup) LookupMX(ctx context.Context, domain string) ([]*net.MX, error) {
	in, err := l.exchange(ctx, domain, dns.TypeMX)
	if err != nil {
		return nil, err
	}
	var out []*net.MX
	for _, rr := range in.Answer {
		if mx, ok := rr.(*dns.MX); ok {
			out = append(out, &net.MX{Host: mx.Mx, Pref: mx.Preference})
		}
	}
	return out, nil
}

func (l *ExchangeLookup) LookupTXT(ctx context.Context, domain string) ([]string, error) {
	in, err := l.exchange(ctx, domain, dns.TypeTXT)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, rr := range in.Answer {
		if txt, ok := rr.(*dns.TXT); ok {
			out = append(out, strings.Join(txt.Txt, ""))
		}
	}
	return out, nil
}

// exchange tries each server until one gives an authoritative answer.
func (l *ExchangeLookup) exchange(ctx context.Context, name string, qtype uint16) (*dns.Msg, error) {
	m := new(dns.Msg)
	m.SetQuestion(dns.Fqdn(name), qtype)
	m.RecursionDesired = true

	var lastErr error
	for _, server := range l.servers {
		in, _, err := l.udp.ExchangeContext(ctx, m, server)
		if err == nil && in.Truncated {
			in, _, err = l.tcp.ExchangeContext(ctx, m, server)
		}
		if err != nil {
			lastErr = fmt.Errorf("%s %s via %s: %w", dns.TypeToString[qtype], name, server, err)
			continue
		}
		switch in.Rcode {
		case dns.RcodeSuccess, dns.RcodeNameError:
			return in, nil
		default:
			lastErr = fmt.Errorf("%s %s via %s: %s", dns.TypeToString[qtype], name, server, dns.RcodeToString[in.Rcode])
		}
	}
	return nil, lastErr
}

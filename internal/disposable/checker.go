// Package disposable answers whether a domain offers throwaway mailboxes.
package disposable

import (
	"fmt"
	"io"
	"maps"
	"os"
	"strings"

	"golang.org/x/net/publicsuffix"
)

// Set is an immutable set of disposable domains.
type Set struct {
	domains map[string]struct{}
}

// Default returns the embedded list.
func Default() *Set {
	return &Set{domains: defaultSet}
}

// With returns a copy of s extended with the given domains.
func (s *Set) With(domains ...string) *Set {
	next := make(map[string]struct{}, len(s.domains)+len(domains))
	maps.Copy(next, s.domains)
	for _, d := range domains {
		if d = strings.ToLower(strings.TrimSpace(d)); d != "" {
			next[d] = struct{}{}
		}
	}
	return &Set{domains: next}
}

// WithList returns a copy of s extended with a plain-text list (same format as list.txt).
func (s *Set) WithList(r io.Reader) (*Set, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read disposable list: %w", err)
	}
	extra := parseList(string(raw))
	next := s.With()
	maps.Copy(next.domains, extra)
	return next, nil
}

// WithFile is WithList over a file path.
func (s *Set) WithFile(path string) (*Set, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open disposable list: %w", err)
	}
	defer func() { _ = f.Close() }()
	return s.WithList(f)
}

// Len returns the number of listed domains.
func (s *Set) Len() int {
	return len(s.domains)
}

// Contains reports whether domain, or its registrable parent, is listed.
// mx.mailinator.com matches because mailinator.com is listed.
func (s *Set) Contains(domain string) bool {
	domain = strings.TrimSuffix(strings.ToLower(domain), ".")
	if domain == "" {
		return false
	}
	if _, ok := s.domains[domain]; ok {
		return true
	}
	root, err := publicsuffix.EffectiveTLDPlusOne(domain)
	if err != nil || root == domain {
		return false
	}
	_, ok := s.domains[root]
	return ok
}

// IsDisposable checks the embedded list.
func IsDisposable(domain string) bool {
	return Default().Contains(domain)
}

// Package typo suggests corrections for mistyped provider domains.
package typo

import "strings"

// DefaultThreshold is the largest edit distance still treated as a typo.
const DefaultThreshold = 2

// Suggester matches domains against a fixed provider dictionary.
type Suggester struct {
	providers []string
	known     map[string]struct{}
	threshold int
}

// NewSuggester returns a Suggester over the given provider domains.
// A threshold <= 0 falls back to DefaultThreshold.
func NewSuggester(providers []string, threshold int) *Suggester {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	s := &Suggester{
		providers: make([]string, 0, len(providers)),
		known:     make(map[string]struct{}, len(providers)),
		threshold: threshold,
	}
	for _, p := range providers {
		p = strings.ToLower(strings.TrimSpace(p))
		if p == "" {
			continue
		}
		if _, dup := s.known[p]; dup {
			continue
		}
		s.known[p] = struct{}{}
		s.providers = append(s.providers, p)
	}
	return s
}

// SuggestDomain returns the closest provider within the threshold.
// Exact provider matches and domains with no close match return ("", false).
// Ties go to the provider listed first.
func (s *Suggester) SuggestDomain(domain string) (string, bool) {
	domain = strings.ToLower(domain)
	if domain == "" {
		return "", false
	}
	if _, ok := s.known[domain]; ok {
		return "", false
	}

	best, bestDist := "", s.threshold+1
	for _, p := range s.providers {
		if d := Distance(domain, p); d < bestDist {
			best, bestDist = p, d
		}
	}
	return best, best != ""
}

// Suggest returns the address with its domain replaced by the suggested provider.
// The local part keeps its original casing.
func (s *Suggester) Suggest(address string) (string, bool) {
	address = strings.TrimSpace(address)
	at := strings.LastIndex(address, "@")
	if at < 1 {
		return "", false
	}
	fixed, ok := s.SuggestDomain(address[at+1:])
	if !ok {
		return "", false
	}
	return address[:at] + "@" + fixed, true
}

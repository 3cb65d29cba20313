// Package freemail lists consumer mailbox providers.
package freemail

import (
	_ "embed"
	"slices"
	"strings"
)

//go:embed list.txt
var rawList string

var (
	providers []string
	index     = make(map[string]struct{})
)

func init() {
	for _, line := range strings.Split(rawList, "\n") {
		line = strings.ToLower(strings.TrimSpace(line))
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if _, dup := index[line]; dup {
			continue
		}
		index[line] = struct{}{}
		providers = append(providers, line)
	}
}

// IsPublic reports whether domain belongs to a consumer mailbox provider.
func IsPublic(domain string) bool {
	_, ok := index[strings.ToLower(domain)]
	return ok
}

// Providers returns the provider domains in list order.
func Providers() []string {
	return slices.Clone(providers)
}

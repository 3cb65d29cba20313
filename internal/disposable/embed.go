package disposable

import (
	_ "embed"
	"strings"
)

//go:embed list.txt
var rawList string

var defaultSet = parseList(rawList)

// parseList reads one domain per line, skipping blanks and # comments.
func parseList(raw string) map[string]struct{} {
	out := make(map[string]struct{})
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if line != "" && !strings.HasPrefix(line, "#") {
			out[strings.ToLower(line)] = struct{}{}
		}
	}
	return out
}

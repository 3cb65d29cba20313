// Package dedupe partitions an address list into first occurrences and repeats.
package dedupe

import (
	"strings"

	"github.com/optimode/bulkverify/internal/parse"
	"github.com/optimode/bulkverify/types"
)

// Dedupe trims every address and compares them case-insensitively.
// The first occurrence of each address is kept in input order; later ones are
// listed as duplicates in the order they were met. Both lists carry the
// trimmed input with its original casing.
func Dedupe(addresses []string) types.DeduplicationReport {
	seen := make(map[string]struct{}, len(addresses))
	report := types.DeduplicationReport{
		UniqueAddresses: make([]string, 0, len(addresses)),
		Duplicates:      []string{},
		TotalOriginal:   len(addresses),
	}

	for _, raw := range addresses {
		trimmed := strings.TrimSpace(raw)
		key := parse.Key(trimmed)
		if _, dup := seen[key]; dup {
			report.Duplicates = append(report.Duplicates, trimmed)
			continue
		}
		seen[key] = struct{}{}
		report.UniqueAddresses = append(report.UniqueAddresses, trimmed)
	}

	report.TotalUnique = len(report.UniqueAddresses)
	report.TotalDuplicates = len(report.Duplicates)
	return report
}

package engine

import (
	"fmt"
	"strings"
)

// buildReport renders the plain-text comparison report: row counts,
// unmatched counts and per-join-column distinct counts
func buildReport(result *ComparisonResult, joinColumns []string) string {
	var b strings.Builder
	b.WriteString("Comparison Report\n")
	b.WriteString(strings.Repeat("-", 50) + "\n")
	fmt.Fprintf(&b, "%s rows: %d\n", result.RowCounts.SourceName, result.RowCounts.SourceCount)
	fmt.Fprintf(&b, "%s rows: %d\n", result.RowCounts.TargetName, result.RowCounts.TargetCount)
	fmt.Fprintf(&b, "Unmatched in source: %d\n", result.SourceUnmatched.NumRows())
	fmt.Fprintf(&b, "Unmatched in target: %d\n", result.TargetUnmatched.NumRows())
	for _, name := range joinColumns {
		info, ok := result.DistinctValues[name]
		if !ok {
			continue
		}
		fmt.Fprintf(&b, "Join column %s: %d distinct in source, %d distinct in target\n",
			name, info.SourceCount, info.TargetCount)
	}
	return b.String()
}

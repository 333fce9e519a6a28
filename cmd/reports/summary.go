package reports

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/datamosaic/data-comparer/cmd/engine"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#00D9FF"))

	passStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#00FF00"))

	failStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FF0000"))

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#AAAAAA"))
)

// Summary renders the styled terminal summary of a comparison result
func Summary(result *engine.ComparisonResult) string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("📊 Comparison Summary") + "\n\n")

	if result.Error != "" {
		b.WriteString(failStyle.Render("❌ FAIL") + "  " + result.Error + "\n")
		return b.String()
	}

	b.WriteString(statusLine("Overall", result.MatchStatus))
	b.WriteString(statusLine("Columns", result.ColumnsMatch))
	b.WriteString(statusLine("Row counts", result.RowsMatch))
	b.WriteString("\n")

	b.WriteString(fmt.Sprintf("%s %d source, %d target\n",
		labelStyle.Render("Rows:"),
		result.RowCounts.SourceCount, result.RowCounts.TargetCount))
	b.WriteString(fmt.Sprintf("%s %d in source, %d in target\n",
		labelStyle.Render("Unmatched:"),
		result.SourceUnmatched.NumRows(), result.TargetUnmatched.NumRows()))

	if failed := failedAggregations(result); len(failed) > 0 {
		b.WriteString("\n" + labelStyle.Render("Aggregation mismatches:") + "\n")
		for _, line := range failed {
			b.WriteString("  " + failStyle.Render("✗") + " " + line + "\n")
		}
	}
	if failed := failedDistincts(result); len(failed) > 0 {
		b.WriteString("\n" + labelStyle.Render("Distinct-value mismatches:") + "\n")
		for _, name := range failed {
			b.WriteString("  " + failStyle.Render("✗") + " " + name + "\n")
		}
	}

	return b.String()
}

func statusLine(label string, ok bool) string {
	status := passStyle.Render("PASS")
	if !ok {
		status = failStyle.Render("FAIL")
	}
	return fmt.Sprintf("%-12s %s\n", label+":", status)
}

// failedAggregations lists the numeric columns whose sums differ
// beyond the tolerance
func failedAggregations(result *engine.ComparisonResult) []string {
	var failed []string
	for _, name := range sortedColumns(result.ColumnSummary) {
		stats := result.ColumnSummary[name]
		if !stats.Numeric {
			continue
		}
		difference := stats.SourceSum - stats.TargetSum
		if toleranceStatus(difference) == StatusFail {
			failed = append(failed, fmt.Sprintf("%s: source sum %g, target sum %g", name, stats.SourceSum, stats.TargetSum))
		}
	}
	return failed
}

// failedDistincts lists the columns whose distinct sets differ
func failedDistincts(result *engine.ComparisonResult) []string {
	var failed []string
	for _, name := range sortedColumns(result.DistinctValues) {
		if !result.DistinctValues[name].Matching {
			failed = append(failed, name)
		}
	}
	return failed
}

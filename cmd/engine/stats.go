package engine

import "math"

// columnSummary profiles every retained non-join column on both
// sides. Columns absent from the target view are skipped; the
// ColumnsMatch flag already reports that discrepancy.
func columnSummary(src, tgt Table, joinSet map[string]bool) map[string]ColumnStats {
	summary := make(map[string]ColumnStats)
	for _, sc := range src.Columns {
		if joinSet[sc.Name] {
			continue
		}
		tc, ok := tgt.Column(sc.Name)
		if !ok {
			continue
		}

		stats := ColumnStats{
			SourceNulls:    nullCount(sc.Values),
			TargetNulls:    nullCount(tc.Values),
			SourceDistinct: distinctCount(sc.Values),
			TargetDistinct: distinctCount(tc.Values),
		}
		if sc.IsNumeric() && tc.IsNumeric() {
			stats.Numeric = true
			stats.SourceSum, stats.SourceMean, stats.SourceStd = numericAggregates(sc.Values)
			stats.TargetSum, stats.TargetMean, stats.TargetStd = numericAggregates(tc.Values)
		}
		summary[sc.Name] = stats
	}
	return summary
}

// profileTable builds the standalone per-column profile of one
// prepared side. The row count is passed in because a zero-column
// view cannot report its own.
func profileTable(t Table, rowCount int) TableProfile {
	profile := TableProfile{
		RowCount: rowCount,
		Columns:  make(map[string]ColumnProfile, len(t.Columns)),
	}
	for _, c := range t.Columns {
		p := ColumnProfile{
			Kind:     c.Kind().String(),
			Nulls:    nullCount(c.Values),
			Distinct: distinctCount(c.Values),
			Numeric:  c.IsNumeric(),
		}
		if p.Numeric {
			p.Sum, p.Mean, p.Std = numericAggregates(c.Values)
		}
		profile.Columns[c.Name] = p
	}
	return profile
}

func nullCount(values []interface{}) int {
	n := 0
	for _, v := range values {
		if v == nil {
			n++
		}
	}
	return n
}

func distinctCount(values []interface{}) int {
	seen := make(map[string]bool)
	for _, v := range values {
		if v == nil {
			continue
		}
		seen[formatValue(v)] = true
	}
	return len(seen)
}

// numericAggregates computes sum, mean and sample standard deviation
// over the non-null values. Mean and std are 0 for empty columns, std
// is 0 when fewer than two values are present.
func numericAggregates(values []interface{}) (sum, mean, std float64) {
	n := 0
	for _, v := range values {
		if v == nil {
			continue
		}
		f, ok := toFloat(v)
		if !ok {
			continue
		}
		sum += f
		n++
	}
	if n == 0 {
		return 0, 0, 0
	}
	mean = sum / float64(n)

	if n < 2 {
		return sum, mean, 0
	}
	var ss float64
	for _, v := range values {
		if v == nil {
			continue
		}
		f, ok := toFloat(v)
		if !ok {
			continue
		}
		d := f - mean
		ss += d * d
	}
	std = math.Sqrt(ss / float64(n-1))
	return sum, mean, std
}

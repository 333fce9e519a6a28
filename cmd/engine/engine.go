package engine

import (
	"fmt"
	"log/slog"
	"sort"
)

// Engine runs one comparison session between a source and a target
// table. It is created per comparison by the command layer and may be
// re-mapped and re-run, but a single instance must not be used from
// multiple goroutines at once.
type Engine struct {
	source Table
	target Table
	logger *slog.Logger

	mapping     []MappingEntry
	joinColumns []string
}

// New creates an engine over the given tables. The tables are never
// mutated; prepared views are built fresh on every run.
func New(source, target Table, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		source: source,
		target: target,
		logger: logger,
	}
}

// SetMapping installs the column mapping and the join column set,
// validating both at the boundary so that Compare can trust them.
func (e *Engine) SetMapping(mapping []MappingEntry, joinColumns []string) error {
	bySource := make(map[string]MappingEntry, len(mapping))
	targets := make(map[string]string, len(mapping))
	for _, entry := range mapping {
		if entry.Source == "" {
			return ErrSourceRequired
		}
		if _, ok := bySource[entry.Source]; ok {
			return fmt.Errorf("%w: %q", ErrDuplicateSource, entry.Source)
		}
		bySource[entry.Source] = entry

		if entry.Join && entry.Target == "" {
			return fmt.Errorf("%w: %q", ErrJoinWithoutTarget, entry.Source)
		}
		if entry.Exclude || entry.Target == "" {
			continue
		}
		if prev, ok := targets[entry.Target]; ok {
			return fmt.Errorf("%w: %q mapped from both %q and %q",
				ErrDuplicateTarget, entry.Target, prev, entry.Source)
		}
		targets[entry.Target] = entry.Source
	}

	// Join columns may come from the mapping's Join flags, from the
	// explicit list, or both. Either way they must name retained
	// mapping entries.
	joinSet := make(map[string]bool)
	for _, entry := range mapping {
		if entry.Join {
			joinSet[entry.Source] = true
		}
	}
	for _, name := range joinColumns {
		joinSet[name] = true
	}

	joined := make([]string, 0, len(joinSet))
	for name := range joinSet {
		entry, ok := bySource[name]
		if !ok {
			return fmt.Errorf("%w: %q", ErrJoinColumnUnknown, name)
		}
		if entry.Exclude {
			return fmt.Errorf("%w: %q", ErrJoinColumnExcluded, name)
		}
		if entry.Target == "" {
			return fmt.Errorf("%w: %q", ErrJoinWithoutTarget, name)
		}
		joined = append(joined, name)
	}
	sort.Strings(joined)

	e.mapping = mapping
	e.joinColumns = joined
	return nil
}

// JoinColumns returns the effective join column set after SetMapping
func (e *Engine) JoinColumns() []string {
	out := make([]string, len(e.joinColumns))
	copy(out, e.joinColumns)
	return out
}

// prepare builds the aligned views both analysis passes work on:
// excluded entries are dropped from both sides and retained target
// columns are renamed to their source names, so downstream code only
// ever sees the source vocabulary.
func (e *Engine) prepare() (Table, Table, error) {
	if e.mapping == nil {
		return Table{}, Table{}, ErrMappingNotSet
	}

	var srcCols, tgtCols []Column
	for _, entry := range e.mapping {
		if entry.Exclude {
			continue
		}
		sc, ok := e.source.Column(entry.Source)
		if !ok {
			return Table{}, Table{}, fmt.Errorf("%w: %q in source", ErrColumnNotFound, entry.Source)
		}
		tc, ok := e.target.Column(entry.Target)
		if !ok {
			return Table{}, Table{}, fmt.Errorf("%w: %q in target", ErrColumnNotFound, entry.Target)
		}
		srcCols = append(srcCols, sc)
		tgtCols = append(tgtCols, Column{Name: entry.Source, Values: tc.Values})
	}
	return Table{Columns: srcCols}, Table{Columns: tgtCols}, nil
}

// Compare runs the full comparison. It never returns an error: any
// failure, including a panic in an analysis pass, is reported through
// the result's Error field with MatchStatus false.
func (e *Engine) Compare() (result *ComparisonResult) {
	result = &ComparisonResult{
		RowCounts: RowCounts{SourceName: "Source", TargetName: "Target"},
	}
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("💥 Comparison failed", "panic", r)
			result.MatchStatus = false
			result.Error = fmt.Sprintf("comparison failed: %v", r)
			result.Report = "Comparison failed: " + result.Error
		}
	}()

	src, tgt, err := e.prepare()
	if err != nil {
		result.Error = err.Error()
		result.Report = "Comparison failed: " + err.Error()
		return result
	}

	// Column selection never drops rows, so the counts come from the
	// unprepared tables. A mapping that excludes every column leaves a
	// zero-column prepared view but must still report the row counts.
	result.RowCounts.SourceCount = e.source.NumRows()
	result.RowCounts.TargetCount = e.target.NumRows()
	result.ColumnsMatch = sameNameSet(src.ColumnNames(), tgt.ColumnNames())
	result.RowsMatch = result.RowCounts.SourceCount == result.RowCounts.TargetCount

	joinSet := make(map[string]bool, len(e.joinColumns))
	for _, name := range e.joinColumns {
		joinSet[name] = true
	}

	result.ColumnSummary = columnSummary(src, tgt, joinSet)
	result.DistinctValues = e.distinctValues(src, tgt, nil)
	result.SourceProfile = profileTable(src, result.RowCounts.SourceCount)
	result.TargetProfile = profileTable(tgt, result.RowCounts.TargetCount)

	if len(e.joinColumns) == 0 {
		e.logger.Warn("⚠️  No join columns set, skipping row reconciliation")
		return result
	}

	rec := reconcile(src, tgt, e.joinColumns)
	result.SourceUnmatched = rec.SourceOnly
	result.TargetUnmatched = rec.TargetOnly
	result.Report = buildReport(result, e.joinColumns)
	result.MatchStatus = result.ColumnsMatch && result.RowsMatch &&
		rec.SourceOnly.NumRows() == 0 && rec.TargetOnly.NumRows() == 0
	return result
}

// DistinctValues runs the distinct-value analysis on its own, outside
// a full Compare. Columns defaults to every non-numeric prepared
// column, join columns included.
func (e *Engine) DistinctValues(columns []string) (map[string]DistinctInfo, error) {
	src, tgt, err := e.prepare()
	if err != nil {
		return nil, err
	}
	return e.distinctValues(src, tgt, columns), nil
}

func (e *Engine) distinctValues(src, tgt Table, columns []string) map[string]DistinctInfo {
	if len(columns) == 0 {
		for _, c := range src.Columns {
			if !c.IsNumeric() {
				columns = append(columns, c.Name)
			}
		}
	}

	out := make(map[string]DistinctInfo, len(columns))
	for _, name := range columns {
		info, err := distinctColumn(src, tgt, name)
		if err != nil {
			// One bad column must not sink the whole analysis
			e.logger.Warn("⚠️  Skipping distinct analysis for column", "column", name, "error", err)
			continue
		}
		out[name] = info
	}
	return out
}

func distinctColumn(src, tgt Table, name string) (DistinctInfo, error) {
	sc, ok := src.Column(name)
	if !ok {
		return DistinctInfo{}, fmt.Errorf("%w: %q in source", ErrColumnNotFound, name)
	}
	tc, ok := tgt.Column(name)
	if !ok {
		return DistinctInfo{}, fmt.Errorf("%w: %q in target", ErrColumnNotFound, name)
	}

	info := DistinctInfo{
		SourceValues: histogram(sc.Values),
		TargetValues: histogram(tc.Values),
	}
	info.SourceCount = len(info.SourceValues)
	info.TargetCount = len(info.TargetValues)
	info.Matching = sameKeySet(info.SourceValues, info.TargetValues)
	return info, nil
}

// histogram counts occurrences of each non-null value by its
// canonical string form
func histogram(values []interface{}) map[string]int {
	counts := make(map[string]int)
	for _, v := range values {
		if v == nil {
			continue
		}
		counts[formatValue(v)]++
	}
	return counts
}

func sameNameSet(a, b []string) bool {
	setA := make(map[string]bool, len(a))
	for _, n := range a {
		setA[n] = true
	}
	setB := make(map[string]bool, len(b))
	for _, n := range b {
		setB[n] = true
	}
	if len(setA) != len(setB) {
		return false
	}
	for n := range setA {
		if !setB[n] {
			return false
		}
	}
	return true
}

func sameKeySet(a, b map[string]int) bool {
	if len(a) != len(b) {
		return false
	}
	for k := range a {
		if _, ok := b[k]; !ok {
			return false
		}
	}
	return true
}

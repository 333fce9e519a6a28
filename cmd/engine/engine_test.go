package engine

import (
	"errors"
	"io"
	"log/slog"
	"math"
	"strings"
	"testing"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func identityMapping(columns []string, joins ...string) []MappingEntry {
	joinSet := make(map[string]bool)
	for _, j := range joins {
		joinSet[j] = true
	}
	mapping := make([]MappingEntry, len(columns))
	for i, c := range columns {
		mapping[i] = MappingEntry{Source: c, Target: c, Join: joinSet[c]}
	}
	return mapping
}

func TestSetMapping(t *testing.T) {
	src := FromRows([]map[string]interface{}{{"id": 1, "v": "a"}}, []string{"id", "v"})
	tgt := FromRows([]map[string]interface{}{{"id": 1, "v": "a"}}, []string{"id", "v"})

	t.Run("valid mapping accepted", func(t *testing.T) {
		e := New(src, tgt, testLogger())
		if err := e.SetMapping(identityMapping([]string{"id", "v"}, "id"), nil); err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		joins := e.JoinColumns()
		if len(joins) != 1 || joins[0] != "id" {
			t.Errorf("Expected join set [id], got %v", joins)
		}
	})

	t.Run("empty source rejected", func(t *testing.T) {
		e := New(src, tgt, testLogger())
		err := e.SetMapping([]MappingEntry{{Source: "", Target: "id"}}, nil)
		if !errors.Is(err, ErrSourceRequired) {
			t.Fatalf("Expected ErrSourceRequired, got %v", err)
		}
	})

	t.Run("duplicate source rejected", func(t *testing.T) {
		e := New(src, tgt, testLogger())
		err := e.SetMapping([]MappingEntry{
			{Source: "id", Target: "id"},
			{Source: "id", Target: "v"},
		}, nil)
		if !errors.Is(err, ErrDuplicateSource) {
			t.Fatalf("Expected ErrDuplicateSource, got %v", err)
		}
	})

	t.Run("duplicate target rejected", func(t *testing.T) {
		e := New(src, tgt, testLogger())
		err := e.SetMapping([]MappingEntry{
			{Source: "id", Target: "id"},
			{Source: "v", Target: "id"},
		}, nil)
		if !errors.Is(err, ErrDuplicateTarget) {
			t.Fatalf("Expected ErrDuplicateTarget, got %v", err)
		}
	})

	t.Run("duplicate target allowed when one side excluded", func(t *testing.T) {
		e := New(src, tgt, testLogger())
		err := e.SetMapping([]MappingEntry{
			{Source: "id", Target: "id"},
			{Source: "v", Target: "id", Exclude: true},
		}, nil)
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
	})

	t.Run("join without target rejected", func(t *testing.T) {
		e := New(src, tgt, testLogger())
		err := e.SetMapping([]MappingEntry{{Source: "id", Target: "", Join: true}}, nil)
		if !errors.Is(err, ErrJoinWithoutTarget) {
			t.Fatalf("Expected ErrJoinWithoutTarget, got %v", err)
		}
	})

	t.Run("unknown join column rejected", func(t *testing.T) {
		e := New(src, tgt, testLogger())
		err := e.SetMapping(identityMapping([]string{"id", "v"}), []string{"nope"})
		if !errors.Is(err, ErrJoinColumnUnknown) {
			t.Fatalf("Expected ErrJoinColumnUnknown, got %v", err)
		}
	})

	t.Run("excluded join column rejected", func(t *testing.T) {
		e := New(src, tgt, testLogger())
		err := e.SetMapping([]MappingEntry{
			{Source: "id", Target: "id", Exclude: true},
			{Source: "v", Target: "v"},
		}, []string{"id"})
		if !errors.Is(err, ErrJoinColumnExcluded) {
			t.Fatalf("Expected ErrJoinColumnExcluded, got %v", err)
		}
	})
}

func TestCompareWithoutMapping(t *testing.T) {
	e := New(Table{}, Table{}, testLogger())
	result := e.Compare()
	if result.MatchStatus {
		t.Error("Expected MatchStatus false")
	}
	if result.Error == "" || !strings.Contains(result.Error, ErrMappingNotSet.Error()) {
		t.Errorf("Expected mapping-not-set error, got %q", result.Error)
	}
	if !strings.HasPrefix(result.Report, "Comparison failed") {
		t.Errorf("Expected failure report, got %q", result.Report)
	}
}

func TestCompareMissingColumn(t *testing.T) {
	src := FromRows([]map[string]interface{}{{"id": 1}}, []string{"id"})
	tgt := FromRows([]map[string]interface{}{{"other": 1}}, []string{"other"})

	e := New(src, tgt, testLogger())
	if err := e.SetMapping([]MappingEntry{{Source: "id", Target: "id", Join: true}}, nil); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	result := e.Compare()
	if result.MatchStatus {
		t.Error("Expected MatchStatus false")
	}
	if !strings.Contains(result.Error, ErrColumnNotFound.Error()) {
		t.Errorf("Expected column-not-found error, got %q", result.Error)
	}
}

// Identical datasets with a join column must come back fully matched
func TestCompareIdenticalTables(t *testing.T) {
	rows := []map[string]interface{}{
		{"id": 1, "name": "alpha", "amount": 10.0},
		{"id": 2, "name": "beta", "amount": 20.0},
		{"id": 3, "name": "gamma", "amount": 30.0},
	}
	src := FromRows(rows, []string{"id", "name", "amount"})
	tgt := FromRows(rows, []string{"id", "name", "amount"})

	e := New(src, tgt, testLogger())
	if err := e.SetMapping(identityMapping([]string{"id", "name", "amount"}, "id"), nil); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	result := e.Compare()

	if !result.MatchStatus {
		t.Error("Expected MatchStatus true")
	}
	if !result.RowsMatch || !result.ColumnsMatch {
		t.Error("Expected rows and columns to match")
	}
	if result.SourceUnmatched.NumRows() != 0 || result.TargetUnmatched.NumRows() != 0 {
		t.Errorf("Expected no unmatched rows, got %d/%d",
			result.SourceUnmatched.NumRows(), result.TargetUnmatched.NumRows())
	}
	if result.Error != "" {
		t.Errorf("Unexpected error: %q", result.Error)
	}
	if !strings.Contains(result.Report, "Source rows: 3") {
		t.Errorf("Expected row counts in report, got %q", result.Report)
	}
	if !strings.Contains(result.Report, "Unmatched in source: 0") {
		t.Errorf("Expected unmatched counts in report, got %q", result.Report)
	}
}

// Disjoint keys on both sides must surface as unmatched rows
func TestCompareDifferingRows(t *testing.T) {
	src := FromRows([]map[string]interface{}{
		{"id": 1, "name": "alpha"},
		{"id": 2, "name": "beta"},
		{"id": 3, "name": "gamma"},
	}, []string{"id", "name"})
	tgt := FromRows([]map[string]interface{}{
		{"id": 2, "name": "beta"},
		{"id": 3, "name": "gamma"},
		{"id": 4, "name": "delta"},
	}, []string{"id", "name"})

	e := New(src, tgt, testLogger())
	if err := e.SetMapping(identityMapping([]string{"id", "name"}, "id"), nil); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	result := e.Compare()

	if result.MatchStatus {
		t.Error("Expected MatchStatus false")
	}
	if !result.RowsMatch || !result.ColumnsMatch {
		t.Error("Expected rows_match and columns_match true despite key differences")
	}
	if result.SourceUnmatched.NumRows() != 1 {
		t.Fatalf("Expected 1 source-only row, got %d", result.SourceUnmatched.NumRows())
	}
	if result.TargetUnmatched.NumRows() != 1 {
		t.Fatalf("Expected 1 target-only row, got %d", result.TargetUnmatched.NumRows())
	}
	srcRow := result.SourceUnmatched.Row(0)
	if srcRow["id"] != 1 {
		t.Errorf("Expected source-only id 1, got %v", srcRow["id"])
	}
	tgtRow := result.TargetUnmatched.Row(0)
	if tgtRow["id"] != 4 {
		t.Errorf("Expected target-only id 4, got %v", tgtRow["id"])
	}
	if !strings.Contains(result.Report, "Unmatched in source: 1") {
		t.Errorf("Expected unmatched count in report, got %q", result.Report)
	}
}

// Matched keys are not diffed cell by cell: same keys with different
// values still reconcile clean
func TestCompareMatchedKeysIgnoreCellDifferences(t *testing.T) {
	src := FromRows([]map[string]interface{}{{"id": 1, "v": "a"}}, []string{"id", "v"})
	tgt := FromRows([]map[string]interface{}{{"id": 1, "v": "b"}}, []string{"id", "v"})

	e := New(src, tgt, testLogger())
	if err := e.SetMapping(identityMapping([]string{"id", "v"}, "id"), nil); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	result := e.Compare()
	if !result.MatchStatus {
		t.Error("Expected MatchStatus true for key-matched rows")
	}
	info, ok := result.DistinctValues["v"]
	if !ok {
		t.Fatal("Expected distinct analysis for column v")
	}
	if info.Matching {
		t.Error("Expected distinct sets of v to differ")
	}
}

// Without join columns there is no reconciliation and no report, but
// the profile sections are still populated
func TestCompareWithoutJoinColumns(t *testing.T) {
	rows := []map[string]interface{}{{"id": 1, "name": "alpha"}}
	src := FromRows(rows, []string{"id", "name"})
	tgt := FromRows(rows, []string{"id", "name"})

	e := New(src, tgt, testLogger())
	if err := e.SetMapping(identityMapping([]string{"id", "name"}), nil); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	result := e.Compare()

	if result.MatchStatus {
		t.Error("Expected MatchStatus false without join columns")
	}
	if result.Error != "" {
		t.Errorf("Unexpected error: %q", result.Error)
	}
	if result.Report != "" {
		t.Errorf("Expected empty report, got %q", result.Report)
	}
	if !result.RowsMatch || !result.ColumnsMatch {
		t.Error("Expected rows_match and columns_match true")
	}
	if result.RowCounts.SourceCount != 1 || result.RowCounts.TargetCount != 1 {
		t.Errorf("Expected populated row counts, got %+v", result.RowCounts)
	}
	if len(result.ColumnSummary) == 0 {
		t.Error("Expected column summary to be populated")
	}
}

// Numeric aggregates skip nulls and use the sample standard deviation
func TestCompareNumericSummary(t *testing.T) {
	src := FromRows([]map[string]interface{}{
		{"id": 1, "amount": 10.0},
		{"id": 2, "amount": 20.0},
		{"id": 3, "amount": nil},
		{"id": 4, "amount": 30.0},
	}, []string{"id", "amount"})
	tgt := FromRows([]map[string]interface{}{
		{"id": 1, "amount": 10.0},
		{"id": 2, "amount": 20.0},
		{"id": 3, "amount": 30.0},
		{"id": 4, "amount": 40.0},
	}, []string{"id", "amount"})

	e := New(src, tgt, testLogger())
	if err := e.SetMapping(identityMapping([]string{"id", "amount"}, "id"), nil); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	result := e.Compare()

	stats, ok := result.ColumnSummary["amount"]
	if !ok {
		t.Fatal("Expected summary for amount")
	}
	if !stats.Numeric {
		t.Fatal("Expected amount to be treated as numeric")
	}
	if stats.SourceNulls != 1 || stats.TargetNulls != 0 {
		t.Errorf("Expected null counts 1/0, got %d/%d", stats.SourceNulls, stats.TargetNulls)
	}
	if stats.SourceSum != 60.0 {
		t.Errorf("Expected source sum 60 skipping null, got %v", stats.SourceSum)
	}
	if stats.TargetSum != 100.0 {
		t.Errorf("Expected target sum 100, got %v", stats.TargetSum)
	}
	if stats.SourceMean != 20.0 {
		t.Errorf("Expected source mean 20, got %v", stats.SourceMean)
	}
	if math.Abs(stats.SourceStd-10.0) > 1e-9 {
		t.Errorf("Expected sample std 10, got %v", stats.SourceStd)
	}
	if stats.SourceDistinct != 3 || stats.TargetDistinct != 4 {
		t.Errorf("Expected distinct counts 3/4, got %d/%d", stats.SourceDistinct, stats.TargetDistinct)
	}

	if _, ok := result.ColumnSummary["id"]; ok {
		t.Error("Expected join column excluded from summary")
	}
}

func TestCompareExcludedColumns(t *testing.T) {
	src := FromRows([]map[string]interface{}{{"id": 1, "noise": "x", "v": "a"}}, []string{"id", "noise", "v"})
	tgt := FromRows([]map[string]interface{}{{"id": 1, "v": "a"}}, []string{"id", "v"})

	e := New(src, tgt, testLogger())
	mapping := []MappingEntry{
		{Source: "id", Target: "id", Join: true},
		{Source: "noise", Target: "", Exclude: true},
		{Source: "v", Target: "v"},
	}
	if err := e.SetMapping(mapping, nil); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	result := e.Compare()
	if !result.MatchStatus {
		t.Errorf("Expected match with excluded column dropped, error: %q", result.Error)
	}
	if _, ok := result.ColumnSummary["noise"]; ok {
		t.Error("Expected excluded column absent from summary")
	}
}

// Renaming: target columns are addressed by their own names and
// reported under the source vocabulary
func TestCompareRenamedColumns(t *testing.T) {
	src := FromRows([]map[string]interface{}{{"id": 1, "full_name": "alpha"}}, []string{"id", "full_name"})
	tgt := FromRows([]map[string]interface{}{{"ID": 1, "FullName": "alpha"}}, []string{"ID", "FullName"})

	e := New(src, tgt, testLogger())
	mapping := []MappingEntry{
		{Source: "id", Target: "ID", Join: true},
		{Source: "full_name", Target: "FullName"},
	}
	if err := e.SetMapping(mapping, nil); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	result := e.Compare()
	if !result.MatchStatus {
		t.Errorf("Expected match across renamed columns, error: %q", result.Error)
	}
	if _, ok := result.ColumnSummary["full_name"]; !ok {
		t.Error("Expected summary keyed by source name full_name")
	}
}

func TestCompareDoesNotMutateInputs(t *testing.T) {
	src := FromRows([]map[string]interface{}{{"id": 1, "v": "a"}}, []string{"id", "v"})
	tgt := FromRows([]map[string]interface{}{{"ID": 1, "V": "a"}}, []string{"ID", "V"})

	e := New(src, tgt, testLogger())
	mapping := []MappingEntry{
		{Source: "id", Target: "ID", Join: true},
		{Source: "v", Target: "V"},
	}
	if err := e.SetMapping(mapping, nil); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	e.Compare()

	if _, ok := tgt.Column("ID"); !ok {
		t.Error("Expected target column names untouched after Compare")
	}
	if _, ok := tgt.Column("id"); ok {
		t.Error("Expected no renamed column leaked into the input table")
	}
}

func TestCompareDuplicateKeys(t *testing.T) {
	src := FromRows([]map[string]interface{}{
		{"id": 1, "v": "a"},
		{"id": 1, "v": "b"},
		{"id": 2, "v": "c"},
	}, []string{"id", "v"})
	tgt := FromRows([]map[string]interface{}{
		{"id": 1, "v": "a"},
	}, []string{"id", "v"})

	e := New(src, tgt, testLogger())
	if err := e.SetMapping(identityMapping([]string{"id", "v"}, "id"), nil); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	result := e.Compare()
	if result.SourceUnmatched.NumRows() != 1 {
		t.Errorf("Expected only the id=2 row unmatched, got %d rows", result.SourceUnmatched.NumRows())
	}
	if result.RowsMatch {
		t.Error("Expected rows_match false for 3 vs 1 rows")
	}
}

func TestDistinctValues(t *testing.T) {
	src := FromRows([]map[string]interface{}{
		{"id": 1, "status": "open", "amount": 1.0},
		{"id": 2, "status": "closed", "amount": 2.0},
		{"id": 3, "status": "open", "amount": 3.0},
		{"id": 4, "status": nil, "amount": 4.0},
	}, []string{"id", "status", "amount"})
	tgt := FromRows([]map[string]interface{}{
		{"id": 1, "status": "open", "amount": 1.0},
		{"id": 2, "status": "pending", "amount": 2.0},
	}, []string{"id", "status", "amount"})

	e := New(src, tgt, testLogger())
	if err := e.SetMapping(identityMapping([]string{"id", "status", "amount"}, "id"), nil); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	t.Run("explicit column", func(t *testing.T) {
		values, err := e.DistinctValues([]string{"status"})
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		info := values["status"]
		if info.SourceCount != 2 {
			t.Errorf("Expected 2 distinct source values excluding null, got %d", info.SourceCount)
		}
		if info.SourceValues["open"] != 2 {
			t.Errorf("Expected open counted twice, got %d", info.SourceValues["open"])
		}
		if info.Matching {
			t.Error("Expected non-matching distinct sets")
		}
	})

	t.Run("defaults to non-numeric columns", func(t *testing.T) {
		values, err := e.DistinctValues(nil)
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if _, ok := values["status"]; !ok {
			t.Error("Expected status included by default")
		}
		if _, ok := values["amount"]; ok {
			t.Error("Expected numeric amount excluded by default")
		}
	})

	t.Run("without mapping", func(t *testing.T) {
		fresh := New(src, tgt, testLogger())
		if _, err := fresh.DistinctValues(nil); !errors.Is(err, ErrMappingNotSet) {
			t.Fatalf("Expected ErrMappingNotSet, got %v", err)
		}
	})

	t.Run("unknown column skipped with warning", func(t *testing.T) {
		values, err := e.DistinctValues([]string{"status", "bogus"})
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if _, ok := values["bogus"]; ok {
			t.Error("Expected unknown column to be skipped")
		}
		if _, ok := values["status"]; !ok {
			t.Error("Expected surviving column still analyzed")
		}
	})
}

// Remapping the same engine instance must behave like a fresh run
func TestEngineReusableAcrossMappings(t *testing.T) {
	src := FromRows([]map[string]interface{}{{"id": 1, "v": "a"}}, []string{"id", "v"})
	tgt := FromRows([]map[string]interface{}{{"id": 1, "v": "a"}}, []string{"id", "v"})

	e := New(src, tgt, testLogger())
	if err := e.SetMapping(identityMapping([]string{"id", "v"}, "id"), nil); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	first := e.Compare()
	if !first.MatchStatus {
		t.Fatal("Expected first run to match")
	}

	remap := []MappingEntry{
		{Source: "id", Target: "id", Join: true},
		{Source: "v", Target: "v", Exclude: true},
	}
	if err := e.SetMapping(remap, nil); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	second := e.Compare()
	if !second.MatchStatus {
		t.Fatal("Expected second run to match")
	}
	if _, ok := second.ColumnSummary["v"]; ok {
		t.Error("Expected newly excluded column dropped on rerun")
	}
}

// A mapping that excludes every column leaves nothing to compare, but
// the row counts of both sides must still be reported.
func TestCompareAllColumnsExcluded(t *testing.T) {
	src := FromRows([]map[string]interface{}{
		{"id": 1}, {"id": 2}, {"id": 3},
	}, []string{"id"})
	tgt := FromRows([]map[string]interface{}{
		{"id": 1}, {"id": 2},
	}, []string{"id"})

	e := New(src, tgt, testLogger())
	if err := e.SetMapping([]MappingEntry{{Source: "id", Exclude: true}}, nil); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	result := e.Compare()

	if result.Error != "" {
		t.Fatalf("Unexpected comparison error: %s", result.Error)
	}
	if result.RowCounts.SourceCount != 3 || result.RowCounts.TargetCount != 2 {
		t.Errorf("Expected row counts 3/2, got %d/%d",
			result.RowCounts.SourceCount, result.RowCounts.TargetCount)
	}
	if result.RowsMatch {
		t.Error("Expected rows_match false for 3 vs 2 rows")
	}
}

// Null join keys must not collide with empty-string join keys
func TestCompareNullKeyDistinctFromEmptyString(t *testing.T) {
	src := FromRows([]map[string]interface{}{
		{"id": nil, "v": "a"},
	}, []string{"id", "v"})
	tgt := FromRows([]map[string]interface{}{
		{"id": "", "v": "a"},
	}, []string{"id", "v"})

	e := New(src, tgt, testLogger())
	if err := e.SetMapping(identityMapping([]string{"id", "v"}, "id"), nil); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	result := e.Compare()

	if result.MatchStatus {
		t.Fatal("Expected null key and empty-string key not to reconcile")
	}
	if result.SourceUnmatched.NumRows() != 1 {
		t.Errorf("Expected null-keyed source row unmatched, got %d rows", result.SourceUnmatched.NumRows())
	}
	if result.TargetUnmatched.NumRows() != 1 {
		t.Errorf("Expected empty-keyed target row unmatched, got %d rows", result.TargetUnmatched.NumRows())
	}
}

func TestCompareProfiles(t *testing.T) {
	src := FromRows([]map[string]interface{}{
		{"id": 1, "amount": 10.0, "status": "open"},
		{"id": 2, "amount": 20.0, "status": "closed"},
		{"id": 3, "amount": nil, "status": "open"},
	}, []string{"id", "amount", "status"})
	tgt := FromRows([]map[string]interface{}{
		{"id": 1, "amount": 10.0, "status": "open"},
	}, []string{"id", "amount", "status"})

	e := New(src, tgt, testLogger())
	if err := e.SetMapping(identityMapping([]string{"id", "amount", "status"}, "id"), nil); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	result := e.Compare()

	if result.SourceProfile.RowCount != 3 || result.TargetProfile.RowCount != 1 {
		t.Errorf("Expected profile row counts 3/1, got %d/%d",
			result.SourceProfile.RowCount, result.TargetProfile.RowCount)
	}

	amount, ok := result.SourceProfile.Columns["amount"]
	if !ok {
		t.Fatal("Expected amount profiled on source side")
	}
	if amount.Kind != "float" || !amount.Numeric {
		t.Errorf("Expected numeric float profile, got %+v", amount)
	}
	if amount.Nulls != 1 || amount.Distinct != 2 {
		t.Errorf("Expected 1 null and 2 distinct, got %d and %d", amount.Nulls, amount.Distinct)
	}
	if amount.Sum != 30 || amount.Mean != 15 {
		t.Errorf("Expected null-skipping sum 30 mean 15, got %g and %g", amount.Sum, amount.Mean)
	}

	status := result.SourceProfile.Columns["status"]
	if status.Kind != "string" || status.Numeric {
		t.Errorf("Expected non-numeric string profile, got %+v", status)
	}
	if status.Sum != 0 {
		t.Errorf("Expected no aggregates for string column, got sum %g", status.Sum)
	}
}

package engine

// ComparisonResult is the full outcome of one Compare run. Error is
// empty on success; when set, MatchStatus is always false and Report
// carries a short failure line instead of the comparison report.
type ComparisonResult struct {
	MatchStatus  bool   `json:"match_status"`
	RowsMatch    bool   `json:"rows_match"`
	ColumnsMatch bool   `json:"columns_match"`
	Report       string `json:"datacompy_report"`
	Error        string `json:"error,omitempty"`

	SourceUnmatched Table `json:"-"`
	TargetUnmatched Table `json:"-"`

	SourceUnmatchedRows []map[string]interface{} `json:"source_unmatched_rows,omitempty"`
	TargetUnmatchedRows []map[string]interface{} `json:"target_unmatched_rows,omitempty"`

	ColumnSummary  map[string]ColumnStats  `json:"column_summary,omitempty"`
	RowCounts      RowCounts               `json:"row_counts"`
	DistinctValues map[string]DistinctInfo `json:"distinct_values,omitempty"`

	SourceProfile TableProfile `json:"source_profile"`
	TargetProfile TableProfile `json:"target_profile"`
}

// ForJSON fills the row-map mirrors of the unmatched tables so the
// result can be serialized whole
func (r *ComparisonResult) ForJSON() *ComparisonResult {
	r.SourceUnmatchedRows = r.SourceUnmatched.Rows()
	r.TargetUnmatchedRows = r.TargetUnmatched.Rows()
	return r
}

// ColumnStats summarizes one compared column on both sides. The
// aggregate fields are only meaningful when Numeric is true.
type ColumnStats struct {
	SourceNulls    int  `json:"source_null_count"`
	TargetNulls    int  `json:"target_null_count"`
	SourceDistinct int  `json:"source_unique_count"`
	TargetDistinct int  `json:"target_unique_count"`
	Numeric        bool `json:"numeric"`

	SourceSum  float64 `json:"source_sum,omitempty"`
	TargetSum  float64 `json:"target_sum,omitempty"`
	SourceMean float64 `json:"source_mean,omitempty"`
	TargetMean float64 `json:"target_mean,omitempty"`
	SourceStd  float64 `json:"source_std,omitempty"`
	TargetStd  float64 `json:"target_std,omitempty"`
}

// RowCounts carries the prepared row counts with display names
type RowCounts struct {
	SourceName  string `json:"source_name"`
	TargetName  string `json:"target_name"`
	SourceCount int    `json:"source_count"`
	TargetCount int    `json:"target_count"`
}

// TableProfile describes one side's prepared columns on their own,
// independent of the other side
type TableProfile struct {
	RowCount int                      `json:"row_count"`
	Columns  map[string]ColumnProfile `json:"columns"`
}

// ColumnProfile is the single-column profile of one side. The
// aggregate fields are only meaningful when Numeric is true.
type ColumnProfile struct {
	Kind     string  `json:"type"`
	Nulls    int     `json:"null_count"`
	Distinct int     `json:"unique_count"`
	Numeric  bool    `json:"numeric"`
	Sum      float64 `json:"sum,omitempty"`
	Mean     float64 `json:"mean,omitempty"`
	Std      float64 `json:"std,omitempty"`
}

// DistinctInfo is the distinct-value histogram of one column on both
// sides. Matching means the two distinct sets are equal, counts aside.
type DistinctInfo struct {
	SourceValues map[string]int `json:"source_values"`
	TargetValues map[string]int `json:"target_values"`
	SourceCount  int            `json:"source_count"`
	TargetCount  int            `json:"target_count"`
	Matching     bool           `json:"matching"`
}

package engine

import (
	"fmt"
	"sort"
	"strconv"
	"time"
)

// Kind is the inferred value type of a column
type Kind int

const (
	KindString Kind = iota
	KindInt
	KindFloat
	KindBool
	KindTime
)

// String returns the name used in mapping files for this kind
func (k Kind) String() string {
	switch k {
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindBool:
		return "bool"
	case KindTime:
		return "time"
	default:
		return "string"
	}
}

// Column is a named vector of values. Values may be nil (null).
type Column struct {
	Name   string
	Values []interface{}
}

// Kind infers the column type by scanning values. Integer and float
// values unify to float; any other mix falls back to string.
func (c Column) Kind() Kind {
	seen := make(map[Kind]bool)
	for _, v := range c.Values {
		if v == nil {
			continue
		}
		seen[valueKind(v)] = true
	}
	switch len(seen) {
	case 0:
		return KindString
	case 1:
		for k := range seen {
			return k
		}
	case 2:
		if seen[KindInt] && seen[KindFloat] {
			return KindFloat
		}
	}
	return KindString
}

// IsNumeric reports whether every non-nil value is an int or float
func (c Column) IsNumeric() bool {
	any := false
	for _, v := range c.Values {
		if v == nil {
			continue
		}
		if _, ok := toFloat(v); !ok {
			return false
		}
		any = true
	}
	return any
}

func valueKind(v interface{}) Kind {
	switch v.(type) {
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return KindInt
	case float32, float64:
		return KindFloat
	case bool:
		return KindBool
	case time.Time:
		return KindTime
	default:
		return KindString
	}
}

func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}

// formatValue renders a value as the canonical string used for join
// keys, distinct histograms and report cells. Nil renders as empty.
func formatValue(v interface{}) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'g', -1, 32)
	case bool:
		return strconv.FormatBool(x)
	case time.Time:
		return x.Format(time.RFC3339)
	default:
		return fmt.Sprintf("%v", x)
	}
}

// Table is an ordered set of equal-length columns
type Table struct {
	Columns []Column
}

// NewTable builds a table from columns, checking the length invariant
func NewTable(columns ...Column) (Table, error) {
	for i := 1; i < len(columns); i++ {
		if len(columns[i].Values) != len(columns[0].Values) {
			return Table{}, fmt.Errorf("%w: %q has %d rows, %q has %d",
				ErrColumnLengths, columns[i].Name, len(columns[i].Values),
				columns[0].Name, len(columns[0].Values))
		}
	}
	return Table{Columns: columns}, nil
}

// FromRows builds a table from row maps. Column order follows the
// columns argument when given, otherwise the sorted union of keys
// across all rows. Missing cells become nil.
func FromRows(rows []map[string]interface{}, columns []string) Table {
	if len(columns) == 0 {
		seen := make(map[string]bool)
		for _, row := range rows {
			for name := range row {
				if !seen[name] {
					seen[name] = true
					columns = append(columns, name)
				}
			}
		}
		sort.Strings(columns)
	}

	cols := make([]Column, len(columns))
	for i, name := range columns {
		values := make([]interface{}, len(rows))
		for j, row := range rows {
			values[j] = row[name]
		}
		cols[i] = Column{Name: name, Values: values}
	}
	return Table{Columns: cols}
}

// NumRows returns the row count
func (t Table) NumRows() int {
	if len(t.Columns) == 0 {
		return 0
	}
	return len(t.Columns[0].Values)
}

// NumColumns returns the column count
func (t Table) NumColumns() int {
	return len(t.Columns)
}

// ColumnNames returns the column names in table order
func (t Table) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}

// Column looks up a column by name
func (t Table) Column(name string) (Column, bool) {
	for _, c := range t.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}

// Row returns row i as a map keyed by column name
func (t Table) Row(i int) map[string]interface{} {
	row := make(map[string]interface{}, len(t.Columns))
	for _, c := range t.Columns {
		row[c.Name] = c.Values[i]
	}
	return row
}

// Rows materializes all rows as maps, preserving row order
func (t Table) Rows() []map[string]interface{} {
	rows := make([]map[string]interface{}, t.NumRows())
	for i := range rows {
		rows[i] = t.Row(i)
	}
	return rows
}

// Kinds returns the inferred kind of every column
func (t Table) Kinds() map[string]Kind {
	kinds := make(map[string]Kind, len(t.Columns))
	for _, c := range t.Columns {
		kinds[c.Name] = c.Kind()
	}
	return kinds
}

// pick returns a shallow row-reuse copy of the rows at the given
// indexes, keeping the table's column order
func (t Table) pick(indexes []int) Table {
	cols := make([]Column, len(t.Columns))
	for i, c := range t.Columns {
		values := make([]interface{}, len(indexes))
		for j, idx := range indexes {
			values[j] = c.Values[idx]
		}
		cols[i] = Column{Name: c.Name, Values: values}
	}
	return Table{Columns: cols}
}

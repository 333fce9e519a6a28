package engine

import "strings"

// reconciliation holds the outcome of the outer join on the key
// columns: rows whose key exists only on one side, in original row
// order. Rows keyed on both sides count as matched even when their
// non-key cells differ.
type reconciliation struct {
	SourceOnly Table
	TargetOnly Table
}

// reconcile performs the full outer join membership test. Keys are
// the join column values in canonical string form; with non-unique
// keys every occurrence of an unmatched key is carried over. Both
// key indexes are held in memory for the duration of the call.
func reconcile(src, tgt Table, joinColumns []string) reconciliation {
	srcKeys := keySet(src, joinColumns)
	tgtKeys := keySet(tgt, joinColumns)

	var srcOnly, tgtOnly []int
	for i := 0; i < src.NumRows(); i++ {
		if !tgtKeys[rowKey(src, joinColumns, i)] {
			srcOnly = append(srcOnly, i)
		}
	}
	for i := 0; i < tgt.NumRows(); i++ {
		if !srcKeys[rowKey(tgt, joinColumns, i)] {
			tgtOnly = append(tgtOnly, i)
		}
	}

	return reconciliation{
		SourceOnly: src.pick(srcOnly),
		TargetOnly: tgt.pick(tgtOnly),
	}
}

func keySet(t Table, joinColumns []string) map[string]bool {
	keys := make(map[string]bool, t.NumRows())
	for i := 0; i < t.NumRows(); i++ {
		keys[rowKey(t, joinColumns, i)] = true
	}
	return keys
}

// nullKey marks a nil key cell. formatValue renders nil as "", which
// would make null keys collide with empty-string keys.
const nullKey = "\x00"

// rowKey joins the key cells with a unit separator so multi-column
// keys cannot collide on concatenation
func rowKey(t Table, joinColumns []string, row int) string {
	parts := make([]string, len(joinColumns))
	for i, name := range joinColumns {
		c, _ := t.Column(name)
		if c.Values[row] == nil {
			parts[i] = nullKey
			continue
		}
		parts[i] = formatValue(c.Values[row])
	}
	return strings.Join(parts, "\x1f")
}

package engine

import (
	"strings"
	"unicode"
)

// MappingEntry links one source column to its target counterpart.
// Join marks the column as a reconciliation key, Exclude drops it from
// the comparison, DataType is an advisory hint only.
type MappingEntry struct {
	Source   string `yaml:"source" json:"source"`
	Target   string `yaml:"target" json:"target"`
	Join     bool   `yaml:"join" json:"join"`
	DataType string `yaml:"data_type,omitempty" json:"data_type,omitempty"`
	Exclude  bool   `yaml:"exclude" json:"exclude"`
}

// AutoMapColumns proposes a mapping for every source column. Matching
// is tried in order: exact name, case-insensitive, then names reduced
// to lowercase alphanumerics. Unmatched columns get an empty target.
// kinds may be nil; when present it fills the DataType hints.
func AutoMapColumns(sourceCols, targetCols []string, kinds map[string]Kind) []MappingEntry {
	exact := make(map[string]string, len(targetCols))
	folded := make(map[string]string, len(targetCols))
	stripped := make(map[string]string, len(targetCols))
	for _, t := range targetCols {
		exact[t] = t
		// First candidate wins so mapping stays deterministic
		key := strings.ToLower(t)
		if _, ok := folded[key]; !ok {
			folded[key] = t
		}
		key = normalizeName(t)
		if _, ok := stripped[key]; !ok {
			stripped[key] = t
		}
	}

	mapping := make([]MappingEntry, 0, len(sourceCols))
	for _, s := range sourceCols {
		target := ""
		if t, ok := exact[s]; ok {
			target = t
		} else if t, ok := folded[strings.ToLower(s)]; ok {
			target = t
		} else if t, ok := stripped[normalizeName(s)]; ok {
			target = t
		}

		entry := MappingEntry{Source: s, Target: target}
		if kinds != nil {
			entry.DataType = kinds[s].String()
		}
		mapping = append(mapping, entry)
	}
	return mapping
}

// normalizeName lowercases a column name and strips every character
// that is not a letter or digit
func normalizeName(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	for _, r := range name {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(unicode.ToLower(r))
		}
	}
	return b.String()
}

package pqcrypto

import "strings"

// ColumnPath identifies a column by its dot-separated path of field names,
// e.g. "address.city" for a nested struct field. It is a plain value type:
// two ColumnPaths with the same segments compare equal with ==, and paths
// sort lexicographically by segment, independent of any particular schema
// instance.
type ColumnPath string

// NewColumnPath joins path segments into a ColumnPath.
func NewColumnPath(segments ...string) ColumnPath {
	return ColumnPath(strings.Join(segments, "."))
}

// Segments splits the path back into its component field names.
func (p ColumnPath) Segments() []string {
	if p == "" {
		return nil
	}
	return strings.Split(string(p), ".")
}

// Less orders paths lexicographically by segment, for use in sorted column
// lists (e.g. deterministic iteration over a FileEncryptionProperties'
// configured columns).
func (p ColumnPath) Less(other ColumnPath) bool {
	ps, os := p.Segments(), other.Segments()
	for i := 0; i < len(ps) && i < len(os); i++ {
		if ps[i] != os[i] {
			return ps[i] < os[i]
		}
	}
	return len(ps) < len(os)
}

func (p ColumnPath) String() string { return string(p) }

package filter

import "slices"

// Identifier fields. Every record answers SortValue for both names with its id.
const (
	FieldID   = "id"
	FieldName = "name"
)

// IsIdentifier reports whether field sorts on the record id.
func IsIdentifier(field string) bool {
	return field == FieldID || field == FieldName || field == ""
}

// Descending is the console's sort-direction policy. Identifiers sort
// ascending unless reverse is set. Every other field (partition counts, lag,
// member counts...) sorts descending by default and reverse restores ascending.
func Descending(sortBy string, reverse bool) bool {
	if IsIdentifier(sortBy) {
		return reverse
	}
	return !reverse
}

// SortRecords returns a stably sorted copy of records ordered by sortBy.
// Records with equal values keep their input order in both directions.
func SortRecords[T Record](records []T, sortBy string, reverse bool) []T {
	if sortBy == "" {
		sortBy = FieldID
	}
	out := slices.Clone(records)
	if out == nil {
		out = []T{}
	}
	slices.SortStableFunc(out, func(a, b T) int {
		c := a.SortValue(sortBy).Compare(b.SortValue(sortBy))
		if reverse {
			return -c
		}
		return c
	})
	return out
}

// SortWithPolicy sorts records applying Descending to sortBy and reverse.
func SortWithPolicy[T Record](records []T, sortBy string, reverse bool) []T {
	return SortRecords(records, sortBy, Descending(sortBy, reverse))
}

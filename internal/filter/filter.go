// Package filter holds the list filtering and sorting steps shared by every
// listing surface of the console: topics, folders, consumer groups, brokers and
// configuration entries.
//
// Each step is pure. It never mutates the slice it is given and always returns
// a new one, so the steps compose freely:
//
//	matches, err := filter.FilterByName(topics, q, byRegexp, caseSensitive)
//	matches = filter.ExcludeBySuffix(matches, "-changelog", true)
//	sorted := filter.SortRecords(matches, "partitions", true)
package filter

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrInvalidPattern is returned by FilterByName when a regular expression
// query does not compile. The accompanying result is always empty.
var ErrInvalidPattern = errors.New("invalid pattern")

// Record is anything the engine can filter and sort.
type Record interface {
	RecordID() string
	SortValue(field string) Value
}

// FilterByName keeps the records whose id matches query.
//
// In regexp mode an empty query matches everything and caseSensitive=false
// compiles the pattern case-insensitively. A malformed pattern yields an empty
// slice and an error wrapping ErrInvalidPattern.
func FilterByName[T Record](records []T, query string, byRegexp, caseSensitive bool) ([]T, error) {
	if byRegexp {
		re, err := compilePattern(query, caseSensitive)
		if err != nil {
			return []T{}, err
		}
		return keep(records, func(r T) bool {
			return re.MatchString(r.RecordID())
		}), nil
	}

	if caseSensitive {
		return keep(records, func(r T) bool {
			return strings.Contains(r.RecordID(), query)
		}), nil
	}

	lowered := strings.ToLower(query)
	return keep(records, func(r T) bool {
		return strings.Contains(strings.ToLower(r.RecordID()), lowered)
	}), nil
}

func compilePattern(query string, caseSensitive bool) (*regexp.Regexp, error) {
	if query == "" {
		query = ".*"
	}
	if !caseSensitive {
		query = "(?i)" + query
	}
	re, err := regexp.Compile(query)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPattern, err)
	}
	return re, nil
}

// ExcludeBySuffix drops every record whose id ends with suffix. It is the
// identity when disabled or when suffix is empty.
func ExcludeBySuffix[T Record](records []T, suffix string, enabled bool) []T {
	if !enabled || suffix == "" {
		return keep(records, func(T) bool { return true })
	}
	return keep(records, func(r T) bool {
		return !strings.HasSuffix(r.RecordID(), suffix)
	})
}

// WithinFolder keeps the records living under folder: ids equal to folder or
// starting with folder followed by the delimiter. At the root (empty folder)
// every record is kept.
func WithinFolder[T Record](records []T, folder, delimiter string) []T {
	if folder == "" {
		return keep(records, func(T) bool { return true })
	}
	prefix := folder + delimiter
	return keep(records, func(r T) bool {
		id := r.RecordID()
		return id == folder || strings.HasPrefix(id, prefix)
	})
}

func keep[T any](records []T, pred func(T) bool) []T {
	out := make([]T, 0, len(records))
	for _, r := range records {
		if pred(r) {
			out = append(out, r)
		}
	}
	return out
}

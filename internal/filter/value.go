package filter

import (
	"cmp"
	"strings"
)

// Value is a single sortable field of a record. Numbers compare numerically,
// strings compare lexicographically. A missing field is the zero Value and
// sorts before everything else.
type Value struct {
	num  float64
	str  string
	kind valueKind
}

type valueKind uint8

const (
	kindNone valueKind = iota
	kindNumber
	kindString
)

// Number wraps any integer or float field.
func Number[N ~int | ~int32 | ~int64 | ~float64](n N) Value {
	return Value{num: float64(n), kind: kindNumber}
}

func String(s string) Value {
	return Value{str: s, kind: kindString}
}

// Compare orders missing values first, then numbers, then strings.
func (v Value) Compare(o Value) int {
	if v.kind != o.kind {
		return cmp.Compare(v.kind, o.kind)
	}
	switch v.kind {
	case kindNumber:
		return cmp.Compare(v.num, o.num)
	case kindString:
		return strings.Compare(v.str, o.str)
	default:
		return 0
	}
}

func (v Value) IsZero() bool {
	return v.kind == kindNone
}

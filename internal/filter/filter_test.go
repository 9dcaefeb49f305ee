package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type rec struct {
	id    string
	count int
	label string
}

func (r rec) RecordID() string { return r.id }

func (r rec) SortValue(field string) Value {
	switch field {
	case FieldID, FieldName:
		return String(r.id)
	case "count":
		return Number(r.count)
	case "label":
		return String(r.label)
	}
	return Value{}
}

func recs(ids ...string) []rec {
	out := make([]rec, len(ids))
	for i, id := range ids {
		out[i] = rec{id: id}
	}
	return out
}

func ids(records []rec) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.id
	}
	return out
}

func TestFilterByName(t *testing.T) {
	input := recs("orders", "order_archive", "users", "ORDERS-dlq")

	tests := []struct {
		name          string
		query         string
		byRegexp      bool
		caseSensitive bool
		want          []string
	}{
		{"substring case insensitive", "order", false, false, []string{"orders", "order_archive", "ORDERS-dlq"}},
		{"substring case sensitive", "order", false, true, []string{"orders", "order_archive"}},
		{"upper query insensitive", "USERS", false, false, []string{"users"}},
		{"empty substring keeps all", "", false, false, []string{"orders", "order_archive", "users", "ORDERS-dlq"}},
		{"empty regexp keeps all", "", true, true, []string{"orders", "order_archive", "users", "ORDERS-dlq"}},
		{"anchored regexp", "^order", true, true, []string{"orders", "order_archive"}},
		{"regexp case insensitive", "^orders", true, false, []string{"orders", "ORDERS-dlq"}},
		{"regexp alternation", "users|archive$", true, true, []string{"order_archive", "users"}},
		{"no match", "payments", false, false, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FilterByName(input, tt.query, tt.byRegexp, tt.caseSensitive)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ids(got))
		})
	}
}

func TestFilterByNameExample(t *testing.T) {
	got, err := FilterByName(recs("orders", "order_archive", "users"), "order", false, false)
	require.NoError(t, err)
	assert.Equal(t, []string{"orders", "order_archive"}, ids(got))
}

func TestFilterByNameInvalidPattern(t *testing.T) {
	for _, pattern := range []string{"(", "[a-", "*orders", "a{2,1}"} {
		t.Run(pattern, func(t *testing.T) {
			got, err := FilterByName(recs("orders", "users"), pattern, true, false)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidPattern)
			assert.NotNil(t, got)
			assert.Empty(t, got)
		})
	}

	// A malformed pattern is only a problem in regexp mode.
	got, err := FilterByName(recs("a(b", "ab"), "(", false, true)
	require.NoError(t, err)
	assert.Equal(t, []string{"a(b"}, ids(got))
}

func TestFilterByNameDoesNotMutate(t *testing.T) {
	input := recs("b", "a", "c")
	got, err := FilterByName(input, "", false, false)
	require.NoError(t, err)
	assert.Equal(t, ids(input), ids(got))

	got[0].id = "changed"
	assert.Equal(t, "b", input[0].id)
}

func TestExcludeBySuffix(t *testing.T) {
	input := recs("orders", "orders-changelog", "users-changelog", "changelog-index")

	assert.Equal(t, []string{"orders", "changelog-index"}, ids(ExcludeBySuffix(input, "-changelog", true)))
	assert.Equal(t, ids(input), ids(ExcludeBySuffix(input, "-changelog", false)))
	assert.Equal(t, ids(input), ids(ExcludeBySuffix(input, "", true)))
	assert.Empty(t, ExcludeBySuffix([]rec{}, "x", true))
}

func TestWithinFolder(t *testing.T) {
	input := recs("logs", "logs.app", "logs.app.error", "logsX.app", "metrics")

	assert.Equal(t, ids(input), ids(WithinFolder(input, "", ".")))
	assert.Equal(t, []string{"logs", "logs.app", "logs.app.error"}, ids(WithinFolder(input, "logs", ".")))
	assert.Equal(t, []string{"logs.app", "logs.app.error"}, ids(WithinFolder(input, "logs.app", ".")))
	assert.Empty(t, WithinFolder(input, "nope", "."))
}

func TestComposition(t *testing.T) {
	input := []rec{
		{id: "orders", count: 3},
		{id: "orders-changelog", count: 12},
		{id: "order_archive", count: 1},
		{id: "users", count: 6},
	}

	matched, err := FilterByName(input, "order", false, false)
	require.NoError(t, err)
	matched = ExcludeBySuffix(matched, "-changelog", true)
	sorted := SortRecords(matched, "count", false)

	assert.Equal(t, []string{"order_archive", "orders"}, ids(sorted))
	assert.Len(t, input, 4)
}

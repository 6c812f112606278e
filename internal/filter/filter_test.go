package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mapRow map[string]string

func (r mapRow) Text(key string) string { return r[key] }

func TestContains(t *testing.T) {
	f := &Contains{Key: "name", Text: "JO"}

	ok, err := f.Evaluate(mapRow{"name": "John"})
	require.NoError(t, err)
	assert.True(t, ok)

	ok, _ = f.Evaluate(mapRow{"name": "Bob"})
	assert.False(t, ok)

	ok, _ = (&Contains{Key: "name"}).Evaluate(mapRow{})
	assert.True(t, ok)
}

func TestColumnsSkipsEmptyText(t *testing.T) {
	cf := Columns([]string{"a", "b", "c"}, map[string]string{"a": "x", "b": "", "c": "z"})

	require.Len(t, cf.Filters, 2)
	assert.Equal(t, `(a ~ "x" AND c ~ "z")`, cf.Description())
}

func TestCompositeLogic(t *testing.T) {
	yes := &Contains{Key: "k", Text: "a"}
	no := &Contains{Key: "k", Text: "zzz"}
	row := mapRow{"k": "abc"}

	ok, err := (&CompositeFilter{Logic: LogicAND, Filters: []Filter{yes, no}}).Evaluate(row)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = (&CompositeFilter{Logic: LogicOR, Filters: []Filter{no, yes}}).Evaluate(row)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = (&CompositeFilter{}).Evaluate(row)
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = (&CompositeFilter{Logic: LogicOp(9), Filters: []Filter{yes}}).Evaluate(row)
	assert.ErrorIs(t, err, ErrInvalidFilter)
}

func TestParserExpressions(t *testing.T) {
	p := NewParser([]string{"name", "age", "city"})
	rows := []mapRow{
		{"name": "John", "age": "30", "city": "Oslo"},
		{"name": "Jane", "age": "9", "city": "Bergen"},
		{"name": "Bob", "age": "41", "city": "Oslo"},
	}

	tests := []struct {
		query string
		want  []string
	}{
		{"", []string{"John", "Jane", "Bob"}},
		{"age > 10", []string{"John", "Bob"}},
		{"AGE <= 30", []string{"John", "Jane"}},
		{"city = oslo AND age >= 40", []string{"Bob"}},
		{"name ~ ja OR city != Oslo", []string{"Jane"}},
		{"name = bob OR name = john and age < 31", []string{"John", "Bob"}},
		{"berg", []string{"Jane"}},
		{"name = 'Jane'", []string{"Jane"}},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			f, err := p.Parse(tt.query)
			require.NoError(t, err)

			var got []string
			for _, row := range rows {
				ok, err := f.Evaluate(row)
				require.NoError(t, err)
				if ok {
					got = append(got, row["name"])
				}
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParserErrors(t *testing.T) {
	p := NewParser([]string{"name"})

	for _, q := range []string{"height > 3", "AND name = x", "name = x AND", "name = x OR OR name = y"} {
		_, err := p.Parse(q)
		assert.ErrorIs(t, err, ErrInvalidFilter, q)
	}
}

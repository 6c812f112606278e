package datagrid

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sampleColumns returns the id/name/age columns used by most tests.
func sampleColumns() []Column[Record] {
	return []Column[Record]{
		{Key: "id", Label: "ID"},
		{Key: "name", Label: "Name"},
		{Key: "age", Label: "Age"},
	}
}

func ids(rows []Record) []any {
	out := make([]any, len(rows))
	for i, r := range rows {
		out[i] = r["id"]
	}
	return out
}

func newSampleModel(rows []Record) *Model[Record] {
	return NewModel(Options[Record]{
		Rows:       rows,
		Columns:    sampleColumns(),
		KeyFunc:    func(r Record) string { return fmt.Sprint(r["id"]) },
		Filterable: true,
		Exportable: true,
	})
}

func TestNewModelStartsUnsortedAndUnfiltered(t *testing.T) {
	rows := []Record{{"id": 2}, {"id": 1}}
	m := newSampleModel(rows)

	assert.False(t, m.SortState().IsSorted())
	assert.Empty(t, m.Filters())
	assert.Equal(t, []any{2, 1}, ids(m.Visible()))
	assert.Equal(t, 2, m.TotalCount())
}

func TestDefaultSortAppliedOnce(t *testing.T) {
	m := NewModel(Options[Record]{
		Rows:        []Record{{"id": 1, "age": 30}, {"id": 2, "age": 20}},
		Columns:     sampleColumns(),
		DefaultSort: &SortState{Key: "age", Direction: SortAscending},
	})
	assert.Equal(t, []any{2, 1}, ids(m.Visible()))

	m.ToggleSort("id")
	m.SetRows([]Record{{"id": 5, "age": 1}, {"id": 4, "age": 2}})
	assert.Equal(t, SortState{Key: "id", Direction: SortAscending}, m.SortState())
	assert.Equal(t, []any{4, 5}, ids(m.Visible()))
}

func TestToggleSortCycle(t *testing.T) {
	m := newSampleModel(nil)

	require.True(t, m.ToggleSort("age"))
	assert.Equal(t, SortState{Key: "age", Direction: SortAscending}, m.SortState())

	require.True(t, m.ToggleSort("age"))
	assert.Equal(t, SortState{Key: "age", Direction: SortDescending}, m.SortState())

	require.True(t, m.ToggleSort("age"))
	assert.Equal(t, SortState{Key: "age", Direction: SortAscending}, m.SortState())

	require.True(t, m.ToggleSort("name"))
	assert.Equal(t, SortState{Key: "name", Direction: SortAscending}, m.SortState())
}

func TestToggleSortIgnoresUnsortableAndUnknown(t *testing.T) {
	cols := sampleColumns()
	cols[1].Unsortable = true
	m := NewModel(Options[Record]{Columns: cols})

	assert.False(t, m.ToggleSort("name"))
	assert.False(t, m.ToggleSort("missing"))
	assert.False(t, m.SortState().IsSorted())
}

func TestSetFilterTouchesOneColumn(t *testing.T) {
	m := newSampleModel([]Record{
		{"id": 1, "name": "John", "age": 30},
		{"id": 2, "name": "Joanna", "age": 41},
		{"id": 3, "name": "Bob", "age": 30},
	})

	m.SetFilter("name", "jo")
	m.SetFilter("age", "30")
	assert.Equal(t, Filters{"name": "jo", "age": "30"}, m.Filters())
	assert.Equal(t, []any{1}, ids(m.Visible()))

	m.SetFilter("age", "")
	assert.Equal(t, Filters{"name": "jo"}, m.Filters())
	assert.Equal(t, []any{1, 2}, ids(m.Visible()))

	m.ClearFilters()
	assert.Equal(t, 3, m.VisibleCount())
}

func TestFilteringDisabledIgnoresState(t *testing.T) {
	m := NewModel(Options[Record]{
		Rows:    []Record{{"id": 1, "name": "John"}, {"id": 2, "name": "Bob"}},
		Columns: sampleColumns(),
	})
	m.SetFilter("name", "jo")

	assert.Equal(t, "jo", m.Filter("name"))
	assert.Equal(t, 2, m.VisibleCount())
}

func TestStateSurvivesRowReplacement(t *testing.T) {
	m := newSampleModel([]Record{{"id": 1, "name": "Ann", "age": 3}})
	m.SetFilter("name", "a")
	m.ToggleSort("age")
	m.ToggleSort("age")

	m.SetRows([]Record{
		{"id": 7, "name": "Amy", "age": 1},
		{"id": 8, "name": "Zed", "age": 9},
		{"id": 9, "name": "Kara", "age": 5},
	})

	assert.Equal(t, SortState{Key: "age", Direction: SortDescending}, m.SortState())
	assert.Equal(t, []any{9, 7}, ids(m.Visible()))
}

func TestKeysAndClick(t *testing.T) {
	var clicked Record
	m := NewModel(Options[Record]{
		Rows:       []Record{{"id": "b"}, {"id": "a"}},
		Columns:    sampleColumns(),
		KeyFunc:    func(r Record) string { return r["id"].(string) },
		OnRowClick: func(r Record) { clicked = r },
	})
	m.ToggleSort("id")

	assert.Equal(t, []string{"a", "b"}, m.Keys())
	require.True(t, m.Clickable())
	require.True(t, m.Click(1))
	assert.Equal(t, "b", clicked["id"])
	assert.False(t, m.Click(5))
}

func TestClickWithoutHandler(t *testing.T) {
	m := newSampleModel([]Record{{"id": 1}})
	assert.False(t, m.Clickable())
	assert.False(t, m.Click(0))
}

func TestVisibleRowOutOfRange(t *testing.T) {
	m := newSampleModel(nil)
	_, err := m.VisibleRow(0)
	assert.ErrorIs(t, err, ErrInvalidRow)
	assert.True(t, m.Empty())
}

func TestColumnLookup(t *testing.T) {
	m := newSampleModel(nil)
	col, err := m.Column("age")
	require.NoError(t, err)
	assert.Equal(t, "Age", col.Title())

	_, err = m.Column("nope")
	assert.ErrorIs(t, err, ErrColumnNotFound)
}

func TestRemovedSortColumnIsNoop(t *testing.T) {
	m := newSampleModel([]Record{{"id": 2, "age": 1}, {"id": 1, "age": 2}})
	m.ToggleSort("age")
	require.Equal(t, []any{2, 1}, ids(m.Visible()))

	m.SetColumns([]Column[Record]{{Key: "id"}})
	m.SetRows([]Record{{"id": 3, "age": 9}, {"id": 1, "age": 1}, {"id": 2, "age": 5}})
	assert.Equal(t, []any{3, 1, 2}, ids(m.Visible()))
}

func TestOnChangeNotifies(t *testing.T) {
	m := newSampleModel(nil)
	calls := 0
	m.OnChange(func() { calls++ })

	m.ToggleSort("id")
	m.SetFilter("name", "x")
	m.SetRows(nil)
	assert.Equal(t, 3, calls)
}

func TestExportName(t *testing.T) {
	m := NewModel(Options[Record]{ExportFilename: "census"})
	assert.Equal(t, "census.csv", m.ExportName())

	m = NewModel(Options[Record]{})
	assert.Equal(t, "export.csv", m.ExportName())
}

type person struct {
	Name string
	Age  *int
}

func TestTypedRowsWithAccessors(t *testing.T) {
	age := func(n int) *int { return &n }
	cols := []Column[person]{
		{Key: "name", Value: func(p person) any { return p.Name }},
		{Key: "age", Value: func(p person) any {
			if p.Age == nil {
				return nil
			}
			return *p.Age
		}},
	}
	m := NewModel(Options[person]{
		Rows:    []person{{"Zoe", age(40)}, {"Al", nil}, {"Bo", age(12)}},
		Columns: cols,
	})
	m.ToggleSort("age")
	m.ToggleSort("age")

	var names []string
	for _, p := range m.Visible() {
		names = append(names, p.Name)
	}
	assert.Equal(t, []string{"Zoe", "Bo", "Al"}, names)
}

// Copyright 2025 Magnus Pierre
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package datagrid

import (
	"fmt"
	"io"

	"golang.org/x/text/language"
)

// DefaultExportFilename is used when Options.ExportFilename is empty.
const DefaultExportFilename = "export"

// Options configures a Model. Rows and Columns may be replaced later;
// DefaultSort is only read by NewModel.
type Options[R any] struct {
	Rows    []R
	Columns []Column[R]

	// KeyFunc returns a stable identity for a row. It must be pure.
	KeyFunc func(R) string

	// OnRowClick, when set, makes rows activatable.
	OnRowClick func(R)

	// DefaultSort is applied once at construction.
	DefaultSort *SortState

	// Filterable enables per-column filtering. When false filter state is
	// kept but ignored.
	Filterable bool

	// Exportable enables the export control.
	Exportable bool

	// ExportFilename is the export base name without extension.
	ExportFilename string

	// Locale selects the collation for string ordering.
	Locale language.Tag
}

// Model holds the grid inputs and the transient sort and filter state,
// and keeps the derived visible row set up to date. A Model is owned by a
// single goroutine (the UI event loop).
type Model[R any] struct {
	opts    Options[R]
	rows    []R
	columns []Column[R]
	sort    SortState
	filters Filters
	cmp     *Comparator
	visible []R

	// columnsVersion counts SetColumns calls.
	columnsVersion uint64

	listeners []func()
}

// NewModel creates a model with empty filter state and the optional
// default sort.
func NewModel[R any](opts Options[R]) *Model[R] {
	m := &Model[R]{
		opts:    opts,
		rows:    opts.Rows,
		columns: opts.Columns,
		filters: make(Filters),
		cmp:     NewComparator(opts.Locale),
	}
	if opts.DefaultSort != nil {
		m.sort = *opts.DefaultSort
	}
	m.recompute()
	return m
}

// OnChange registers fn to be called after every state change.
func (m *Model[R]) OnChange(fn func()) {
	m.listeners = append(m.listeners, fn)
}

// recompute runs the filter then sort pipeline and notifies listeners.
func (m *Model[R]) recompute() {
	rows := m.rows
	if m.opts.Filterable {
		rows = ApplyFilters(rows, m.columns, m.filters)
	}
	m.visible = SortRows(rows, m.columns, m.sort, m.cmp)

	for _, fn := range m.listeners {
		fn()
	}
}

// SetRows replaces the row set. Sort and filter state are kept so a
// refreshed query keeps the user's view.
func (m *Model[R]) SetRows(rows []R) {
	m.rows = rows
	m.recompute()
}

// SetColumns replaces the column list. Sort and filter state are kept.
func (m *Model[R]) SetColumns(columns []Column[R]) {
	m.columns = columns
	m.columnsVersion++
	m.recompute()
}

// ColumnsVersion changes every time the column list is replaced, even
// when the new columns carry the same keys.
func (m *Model[R]) ColumnsVersion() uint64 {
	return m.columnsVersion
}

// Rows returns the unfiltered row set.
func (m *Model[R]) Rows() []R {
	return m.rows
}

// Columns returns the column list in display order.
func (m *Model[R]) Columns() []Column[R] {
	return m.columns
}

// Column returns the column with the given key.
func (m *Model[R]) Column(key string) (Column[R], error) {
	for _, col := range m.columns {
		if col.Key == key {
			return col, nil
		}
	}
	return Column[R]{}, fmt.Errorf("%w: %s", ErrColumnNotFound, key)
}

// ToggleSort handles activation of a column header. A new key sorts
// ascending; the current key flips direction. It returns false for
// unknown or unsortable columns.
func (m *Model[R]) ToggleSort(key string) bool {
	col, err := m.Column(key)
	if err != nil || !col.Sortable() {
		return false
	}

	if m.sort.Key == key && m.sort.Direction != SortNone {
		m.sort.Direction = m.sort.Direction.Flip()
	} else {
		m.sort = SortState{Key: key, Direction: SortAscending}
	}
	m.recompute()
	return true
}

// SetSort replaces the sort state. The zero SortState clears sorting.
func (m *Model[R]) SetSort(state SortState) {
	m.sort = state
	m.recompute()
}

// SortState returns the current sort state.
func (m *Model[R]) SortState() SortState {
	return m.sort
}

// SetFilter sets the filter text of one column. Other filters keep their
// values. Empty text removes the constraint.
func (m *Model[R]) SetFilter(key, text string) {
	if text == "" {
		delete(m.filters, key)
	} else {
		m.filters[key] = text
	}
	m.recompute()
}

// SetFilters replaces the whole filter state.
func (m *Model[R]) SetFilters(filters Filters) {
	m.filters = filters.Clone()
	m.recompute()
}

// Filter returns the filter text of one column.
func (m *Model[R]) Filter(key string) string {
	return m.filters[key]
}

// Filters returns a copy of the filter state.
func (m *Model[R]) Filters() Filters {
	return m.filters.Clone()
}

// ClearFilters removes every filter.
func (m *Model[R]) ClearFilters() {
	m.filters = make(Filters)
	m.recompute()
}

// Visible returns the filtered and sorted rows. The slice must not be
// modified.
func (m *Model[R]) Visible() []R {
	return m.visible
}

// VisibleCount returns the number of visible rows.
func (m *Model[R]) VisibleCount() int {
	return len(m.visible)
}

// TotalCount returns the number of rows before filtering.
func (m *Model[R]) TotalCount() int {
	return len(m.rows)
}

// Empty reports whether there is nothing to show.
func (m *Model[R]) Empty() bool {
	return len(m.visible) == 0
}

// VisibleRow returns the visible row at index i.
func (m *Model[R]) VisibleRow(i int) (R, error) {
	if i < 0 || i >= len(m.visible) {
		var zero R
		return zero, fmt.Errorf("%w: %d", ErrInvalidRow, i)
	}
	return m.visible[i], nil
}

// Keys returns the identity of every visible row. Without a KeyFunc the
// visible index is used.
func (m *Model[R]) Keys() []string {
	keys := make([]string, len(m.visible))
	for i, row := range m.visible {
		if m.opts.KeyFunc != nil {
			keys[i] = m.opts.KeyFunc(row)
		} else {
			keys[i] = fmt.Sprint(i)
		}
	}
	return keys
}

// Clickable reports whether rows are activatable.
func (m *Model[R]) Clickable() bool {
	return m.opts.OnRowClick != nil
}

// Click activates the visible row at index i. It returns false when rows
// are not clickable or the index is out of range.
func (m *Model[R]) Click(i int) bool {
	if m.opts.OnRowClick == nil {
		return false
	}
	row, err := m.VisibleRow(i)
	if err != nil {
		return false
	}
	m.opts.OnRowClick(row)
	return true
}

// Filterable reports whether filtering is enabled.
func (m *Model[R]) Filterable() bool {
	return m.opts.Filterable
}

// Exportable reports whether export is enabled.
func (m *Model[R]) Exportable() bool {
	return m.opts.Exportable
}

// ExportName returns the file name used for CSV export.
func (m *Model[R]) ExportName() string {
	base := m.opts.ExportFilename
	if base == "" {
		base = DefaultExportFilename
	}
	return base + CSVExtension
}

// WriteCSV writes the visible rows as CSV.
func (m *Model[R]) WriteCSV(w io.Writer) error {
	return WriteCSV(w, m.columns, m.visible)
}

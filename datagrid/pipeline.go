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
	"slices"

	"github.com/magpierre/ontogrid/internal/filter"
)

// rowText exposes a row to the filter package through the column list.
// Keys without a column fall back to the row's own fields.
type rowText[R any] struct {
	row     R
	columns map[string]Column[R]
}

func (r rowText[R]) Text(key string) string {
	if col, ok := r.columns[key]; ok {
		return String(col.ValueOf(r.row))
	}
	return String(lookup(r.row, key))
}

func columnIndex[R any](columns []Column[R]) map[string]Column[R] {
	index := make(map[string]Column[R], len(columns))
	for _, col := range columns {
		index[col.Key] = col
	}
	return index
}

// ApplyFilters returns the rows whose value contains the filter text for
// every non-empty entry of filters (case-insensitive). When no filter is
// active the input slice is returned as is.
func ApplyFilters[R any](rows []R, columns []Column[R], filters Filters) []R {
	if !filters.Active() {
		return rows
	}
	return Where(rows, columns, filter.Columns(sortedKeys(filters), filters))
}

// Where returns the rows that pass f. Rows for which f fails with an error
// are dropped.
func Where[R any](rows []R, columns []Column[R], f filter.Filter) []R {
	index := columnIndex(columns)
	out := make([]R, 0, len(rows))
	for _, row := range rows {
		ok, err := f.Evaluate(rowText[R]{row: row, columns: index})
		if err == nil && ok {
			out = append(out, row)
		}
	}
	return out
}

func sortedKeys(filters Filters) []string {
	keys := make([]string, 0, len(filters))
	for key := range filters {
		keys = append(keys, key)
	}
	slices.Sort(keys)
	return keys
}

// SortRows returns a stably sorted copy of rows. nil values rank last in
// both directions. Without an active sort state, when the key names no
// column, or when no row carries a value for it, the input slice is
// returned as is.
func SortRows[R any](rows []R, columns []Column[R], state SortState, cmp *Comparator) []R {
	if !state.IsSorted() || len(rows) < 2 {
		return rows
	}

	col, ok := columnIndex(columns)[state.Key]
	if !ok {
		return rows
	}

	type keyed struct {
		row   R
		value any
	}
	cells := make([]keyed, len(rows))
	present := false
	for i, row := range rows {
		v := col.ValueOf(row)
		cells[i] = keyed{row: row, value: v}
		present = present || v != nil
	}
	if !present {
		return rows
	}

	slices.SortStableFunc(cells, func(a, b keyed) int {
		return cmp.compareCells(a.value, b.value, state.Direction)
	})

	out := make([]R, len(cells))
	for i, c := range cells {
		out[i] = c.row
	}
	return out
}

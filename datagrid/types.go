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

// Package datagrid provides a toolkit-independent data grid model.
// It sorts, filters and exports an in-memory row set described by a list
// of column descriptors. Rendering is left to the host (see the widget
// package for a Fyne implementation).
package datagrid

import "fmt"

// DataType represents the type of data in a column.
type DataType int

const (
	// TypeString represents string data.
	TypeString DataType = iota
	// TypeNumber represents integer or floating-point data.
	TypeNumber
	// TypeBool represents boolean data.
	TypeBool
)

// String returns the string representation of a DataType.
func (dt DataType) String() string {
	switch dt {
	case TypeString:
		return "String"
	case TypeNumber:
		return "Number"
	case TypeBool:
		return "Bool"
	default:
		return fmt.Sprintf("Unknown(%d)", dt)
	}
}

// SortDirection specifies the direction of sorting.
type SortDirection int

const (
	// SortNone indicates no sorting.
	SortNone SortDirection = iota
	// SortAscending indicates ascending sort order.
	SortAscending
	// SortDescending indicates descending sort order.
	SortDescending
)

// String returns the string representation of a SortDirection.
func (sd SortDirection) String() string {
	switch sd {
	case SortNone:
		return "None"
	case SortAscending:
		return "Ascending"
	case SortDescending:
		return "Descending"
	default:
		return fmt.Sprintf("Unknown(%d)", sd)
	}
}

// Flip returns the opposite direction. SortNone flips to SortAscending.
func (sd SortDirection) Flip() SortDirection {
	if sd == SortAscending {
		return SortDescending
	}
	return SortAscending
}

// SortState represents the current sorting configuration.
// The zero value means unsorted.
type SortState struct {
	// Key is the field key of the sorted column.
	Key string `json:"key"`
	// Direction is the sort direction.
	Direction SortDirection `json:"direction"`
}

// IsSorted returns true if this state represents an active sort.
func (s SortState) IsSorted() bool {
	return s.Key != "" && s.Direction != SortNone
}

// Filters maps a column key to a case-insensitive substring.
// Absent keys and empty strings impose no constraint.
type Filters map[string]string

// Active reports whether at least one filter text is non-empty.
func (f Filters) Active() bool {
	for _, text := range f {
		if text != "" {
			return true
		}
	}
	return false
}

// Clone returns a copy without the empty entries.
func (f Filters) Clone() Filters {
	out := make(Filters, len(f))
	for key, text := range f {
		if text != "" {
			out[key] = text
		}
	}
	return out
}

// Fielder is implemented by rows that can look up a value by field key.
type Fielder interface {
	Field(key string) (any, bool)
}

// Record is a dynamically shaped row, as decoded from JSON, CSV or a
// GraphQL response.
type Record map[string]any

// Field implements Fielder.
func (r Record) Field(key string) (any, bool) {
	v, ok := r[key]
	return v, ok
}

// Formatter turns a raw cell value into its display representation.
type Formatter[R any] interface {
	Format(value any, row R) string
}

// FormatFunc adapts a function to the Formatter interface.
type FormatFunc[R any] func(value any, row R) string

// Format implements Formatter.
func (f FormatFunc[R]) Format(value any, row R) string {
	return f(value, row)
}

// Column describes how one field of a row is labeled, displayed and sorted.
// Columns are sortable unless Unsortable is set.
type Column[R any] struct {
	// Key is the field key used for lookup, sorting, filtering and export.
	Key string
	// Label is the header text. Key is used when empty.
	Label string
	// Unsortable disables header sort toggling for this column.
	Unsortable bool
	// Render optionally formats the cell for display. Export ignores it.
	Render Formatter[R]
	// Width is an optional display hint in toolkit units.
	Width float32
	// Value optionally extracts the cell value from a typed row.
	// When nil the row is asked through Fielder.
	Value func(R) any
}

// Sortable reports whether the column header toggles sorting.
func (c Column[R]) Sortable() bool {
	return !c.Unsortable
}

// Title returns the header label.
func (c Column[R]) Title() string {
	if c.Label != "" {
		return c.Label
	}
	return c.Key
}

// ValueOf returns the raw value of this column for row, or nil when the
// row has no such field.
func (c Column[R]) ValueOf(row R) any {
	if c.Value != nil {
		return c.Value(row)
	}
	return lookup(row, c.Key)
}

// Display returns the rendered cell text.
func (c Column[R]) Display(row R) string {
	v := c.ValueOf(row)
	if c.Render != nil {
		return c.Render.Format(v, row)
	}
	return String(v)
}

// lookup reads key from rows implementing Fielder.
func lookup[R any](row R, key string) any {
	f, ok := any(row).(Fielder)
	if !ok {
		return nil
	}
	v, _ := f.Field(key)
	return v
}

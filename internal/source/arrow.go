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

package source

import (
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"

	"github.com/magpierre/ontogrid/datagrid"
)

// FromArrowTable converts an Arrow table to grid records. Integer columns
// become int64, floating point columns float64, and everything that is not
// a string or bool is rendered through the array's string form.
func FromArrowTable(name string, table arrow.Table) (*Table, error) {
	if table == nil {
		return nil, fmt.Errorf("%w: nil arrow table", ErrEmptyData)
	}

	schema := table.Schema()
	numRows := int(table.NumRows())
	keys := make([]string, schema.NumFields())
	rows := make([]datagrid.Record, numRows)
	for i := range rows {
		rows[i] = make(datagrid.Record, len(keys))
	}

	for c := 0; c < int(table.NumCols()); c++ {
		key := schema.Field(c).Name
		keys[c] = key

		row := 0
		for _, chunk := range table.Column(c).Data().Chunks() {
			for pos := 0; pos < chunk.Len() && row < numRows; pos++ {
				rows[row][key] = typedValue(chunk, pos)
				row++
			}
		}
	}

	return newTable(name, keys, rows), nil
}

// typedValue returns the Go value at pos, or nil for nulls.
func typedValue(col arrow.Array, pos int) any {
	if col.IsNull(pos) {
		return nil
	}

	switch a := col.(type) {
	case *array.String:
		return a.Value(pos)
	case *array.LargeString:
		return a.Value(pos)
	case *array.Boolean:
		return a.Value(pos)
	case *array.Int8:
		return int64(a.Value(pos))
	case *array.Int16:
		return int64(a.Value(pos))
	case *array.Int32:
		return int64(a.Value(pos))
	case *array.Int64:
		return a.Value(pos)
	case *array.Uint8:
		return int64(a.Value(pos))
	case *array.Uint16:
		return int64(a.Value(pos))
	case *array.Uint32:
		return int64(a.Value(pos))
	case *array.Uint64:
		return a.Value(pos)
	case *array.Float32:
		return float64(a.Value(pos))
	case *array.Float64:
		return a.Value(pos)
	default:
		return col.ValueStr(pos)
	}
}

// QueryOptions narrows a loaded Arrow table.
type QueryOptions struct {
	// SelectedColumns keeps only the named columns. Empty keeps all.
	SelectedColumns []string
	// Limit caps the number of rows. Zero or negative means no limit.
	Limit int64
}

// ApplyQueryOptions applies column selection and row limiting to an Arrow
// table. The returned table must be released by the caller when it differs
// from the input.
func ApplyQueryOptions(table arrow.Table, options *QueryOptions) (arrow.Table, error) {
	if options == nil {
		return table, nil
	}
	input := table

	if len(options.SelectedColumns) > 0 {
		schema := table.Schema()
		wanted := make(map[string]bool, len(options.SelectedColumns))
		for _, name := range options.SelectedColumns {
			wanted[name] = true
		}

		var fields []arrow.Field
		var columns []arrow.Column
		for i, field := range schema.Fields() {
			if wanted[field.Name] {
				fields = append(fields, field)
				columns = append(columns, *table.Column(i))
			}
		}
		if len(fields) == 0 {
			return nil, fmt.Errorf("no matching columns found")
		}

		table = array.NewTable(arrow.NewSchema(fields, nil), columns, table.NumRows())
	}

	if options.Limit > 0 && options.Limit < table.NumRows() {
		columns := make([]arrow.Column, table.NumCols())
		for i := range columns {
			col := table.Column(i)
			var chunks []arrow.Array
			var count int64
			for _, chunk := range col.Data().Chunks() {
				if count >= options.Limit {
					break
				}
				remaining := options.Limit - count
				if int64(chunk.Len()) <= remaining {
					chunks = append(chunks, chunk)
					count += int64(chunk.Len())
					continue
				}
				chunks = append(chunks, array.NewSlice(chunk, 0, remaining))
				count += remaining
			}
			columns[i] = *arrow.NewColumn(col.Field(), arrow.NewChunked(col.DataType(), chunks))
		}
		limited := array.NewTable(table.Schema(), columns, options.Limit)
		if table != input {
			table.Release()
		}
		table = limited
	}

	return table, nil
}

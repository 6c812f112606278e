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

// Package source loads grid rows from files, Delta Sharing tables and
// GraphQL endpoints.
package source

import (
	"context"
	"errors"
	"time"

	"github.com/magpierre/ontogrid/datagrid"
)

// Common errors returned by the source package.
var (
	// ErrUnsupportedFile is returned when a file type cannot be detected.
	ErrUnsupportedFile = errors.New("unsupported file type")

	// ErrEmptyData is returned when a source yields no records where some
	// are required.
	ErrEmptyData = errors.New("data is empty")

	// ErrGraphQL is returned when a GraphQL response carries errors.
	ErrGraphQL = errors.New("graphql error")

	// ErrPathNotFound is returned when the result path does not lead to
	// a list of objects.
	ErrPathNotFound = errors.New("result path not found")
)

// ColumnInfo describes a column discovered in a source.
type ColumnInfo struct {
	Name string
	Type datagrid.DataType
}

// Table is a loaded, in-memory row set.
type Table struct {
	Name    string
	Columns []ColumnInfo
	Rows    []datagrid.Record
}

// Source loads a Table.
type Source interface {
	Load(ctx context.Context) (*Table, error)
}

// GridColumns returns one sortable column per discovered column.
func (t *Table) GridColumns() []datagrid.Column[datagrid.Record] {
	cols := make([]datagrid.Column[datagrid.Record], len(t.Columns))
	for i, info := range t.Columns {
		cols[i] = datagrid.Column[datagrid.Record]{Key: info.Name, Label: info.Name}
	}
	return cols
}

// ColumnNames returns the column names in order.
func (t *Table) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, info := range t.Columns {
		names[i] = info.Name
	}
	return names
}

// newTable builds a Table, deriving column types from the first non-nil
// value of each column.
func newTable(name string, keys []string, rows []datagrid.Record) *Table {
	cols := make([]ColumnInfo, len(keys))
	for i, key := range keys {
		cols[i] = ColumnInfo{Name: key, Type: datagrid.TypeString}
		for _, row := range rows {
			if v := row[key]; v != nil {
				cols[i].Type = datagrid.TypeOf(v)
				break
			}
		}
	}
	return &Table{Name: name, Columns: cols, Rows: rows}
}

// timeoutContext derives a context with the given timeout, defaulting to
// 60 seconds.
func timeoutContext(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return context.WithTimeout(ctx, timeout)
}

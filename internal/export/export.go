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

// Package export writes the visible rows of a grid to CSV, JSON or Parquet.
package export

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/apache/arrow-go/v18/parquet"
	"github.com/apache/arrow-go/v18/parquet/compress"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"

	"github.com/magpierre/ontogrid/datagrid"
)

// ErrUnknownFormat is returned for an unsupported export format name.
var ErrUnknownFormat = errors.New("unknown export format")

// Format represents the supported export formats
type Format int

const (
	FormatCSV Format = iota
	FormatJSON
	FormatParquet
)

// String returns the format name as accepted by ParseFormat.
func (f Format) String() string {
	switch f {
	case FormatCSV:
		return "csv"
	case FormatJSON:
		return "json"
	case FormatParquet:
		return "parquet"
	default:
		return fmt.Sprintf("format(%d)", int(f))
	}
}

// ParseFormat parses a format name, case-insensitively.
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(name, ".")) {
	case "csv":
		return FormatCSV, nil
	case "json":
		return FormatJSON, nil
	case "parquet":
		return FormatParquet, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownFormat, name)
	}
}

// Extension returns the file extension including the dot.
func (f Format) Extension() string {
	return "." + f.String()
}

// MimeType returns the media type of the format.
func (f Format) MimeType() string {
	switch f {
	case FormatCSV:
		return datagrid.CSVMimeType
	case FormatJSON:
		return "application/json"
	default:
		return "application/vnd.apache.parquet"
	}
}

// Write exports rows in the given format. Cells hold raw values.
func Write[R any](w io.Writer, format Format, columns []datagrid.Column[R], rows []R) error {
	switch format {
	case FormatCSV:
		return datagrid.WriteCSV(w, columns, rows)
	case FormatJSON:
		return WriteJSON(w, columns, rows)
	case FormatParquet:
		return WriteParquet(w, columns, rows)
	default:
		return fmt.Errorf("%w: %d", ErrUnknownFormat, int(format))
	}
}

// WriteJSON writes an indented array of objects keyed by column key.
func WriteJSON[R any](w io.Writer, columns []datagrid.Column[R], rows []R) error {
	records := make([]map[string]any, 0, len(rows))
	for _, row := range rows {
		record := make(map[string]any, len(columns))
		for _, col := range columns {
			record[col.Key] = col.ValueOf(row)
		}
		records = append(records, record)
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(records); err != nil {
		return fmt.Errorf("%w: failed to encode JSON: %w", datagrid.ErrExportFailed, err)
	}
	return nil
}

// WriteParquet writes rows as a single Snappy-compressed row group.
func WriteParquet[R any](w io.Writer, columns []datagrid.Column[R], rows []R) error {
	record := BuildRecord(memory.NewGoAllocator(), columns, rows)
	defer record.Release()

	props := parquet.NewWriterProperties(parquet.WithCompression(compress.Codecs.Snappy))
	arrowProps := pqarrow.NewArrowWriterProperties(pqarrow.WithStoreSchema())

	writer, err := pqarrow.NewFileWriter(record.Schema(), w, props, arrowProps)
	if err != nil {
		return fmt.Errorf("%w: failed to create parquet writer: %w", datagrid.ErrExportFailed, err)
	}

	if err := writer.Write(record); err != nil {
		writer.Close()
		return fmt.Errorf("%w: failed to write parquet record: %w", datagrid.ErrExportFailed, err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("%w: failed to close parquet writer: %w", datagrid.ErrExportFailed, err)
	}
	return nil
}

// BuildRecord converts rows to an Arrow record. Each column becomes
// float64 when every non-nil value is numeric, bool when every non-nil
// value is a bool, and string otherwise. nil values become nulls.
func BuildRecord[R any](mem memory.Allocator, columns []datagrid.Column[R], rows []R) arrow.Record {
	fields := make([]arrow.Field, len(columns))
	for i, col := range columns {
		fields[i] = arrow.Field{Name: col.Key, Type: inferType(col, rows), Nullable: true}
	}
	schema := arrow.NewSchema(fields, nil)

	builder := array.NewRecordBuilder(mem, schema)
	defer builder.Release()

	for i, col := range columns {
		for _, row := range rows {
			appendValue(builder.Field(i), col.ValueOf(row))
		}
	}

	return builder.NewRecord()
}

func inferType[R any](col datagrid.Column[R], rows []R) arrow.DataType {
	kind, seen := datagrid.TypeString, false
	for _, row := range rows {
		v := col.ValueOf(row)
		if v == nil {
			continue
		}
		t := datagrid.TypeOf(v)
		if seen && t != kind {
			return arrow.BinaryTypes.String
		}
		kind, seen = t, true
	}

	switch kind {
	case datagrid.TypeNumber:
		return arrow.PrimitiveTypes.Float64
	case datagrid.TypeBool:
		return arrow.FixedWidthTypes.Boolean
	default:
		return arrow.BinaryTypes.String
	}
}

// appendValue appends a raw cell value to a builder created by
// BuildRecord.
func appendValue(builder array.Builder, v any) {
	if v == nil {
		builder.AppendNull()
		return
	}

	switch b := builder.(type) {
	case *array.Float64Builder:
		f, _ := datagrid.Number(v)
		b.Append(f)
	case *array.BooleanBuilder:
		b.Append(v.(bool))
	case *array.StringBuilder:
		b.Append(datagrid.String(v))
	default:
		builder.AppendNull()
	}
}

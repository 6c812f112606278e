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
	"strings"
)

const (
	// CSVMimeType is the media type of exported files.
	CSVMimeType = "text/csv"
	// CSVExtension is appended to the export base name.
	CSVExtension = ".csv"
)

// EncodeCSV renders a header line of column labels followed by one line
// per row. Cells hold the raw value's string form, not the Render output.
// Lines are joined with "\n" and there is no trailing newline.
func EncodeCSV[R any](columns []Column[R], rows []R) string {
	var b strings.Builder

	fields := make([]string, len(columns))
	for i, col := range columns {
		fields[i] = escapeCSV(col.Title())
	}
	b.WriteString(strings.Join(fields, ","))

	for _, row := range rows {
		for i, col := range columns {
			fields[i] = escapeCSV(String(col.ValueOf(row)))
		}
		b.WriteByte('\n')
		b.WriteString(strings.Join(fields, ","))
	}

	return b.String()
}

// WriteCSV writes EncodeCSV output to w.
func WriteCSV[R any](w io.Writer, columns []Column[R], rows []R) error {
	if _, err := io.WriteString(w, EncodeCSV(columns, rows)); err != nil {
		return fmt.Errorf("%w: %w", ErrExportFailed, err)
	}
	return nil
}

// escapeCSV quotes fields containing a comma, a double quote or a line
// break, doubling embedded quotes.
func escapeCSV(s string) string {
	if !strings.ContainsAny(s, ",\"\n\r") {
		return s
	}
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

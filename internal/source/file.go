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
	"bufio"
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/apache/arrow-go/v18/parquet"
	"github.com/apache/arrow-go/v18/parquet/file"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"
	"go.uber.org/zap"

	"github.com/magpierre/ontogrid/datagrid"
)

// FileType represents the type of data file
type FileType int

const (
	FileTypeUnknown FileType = iota
	FileTypeCSV
	FileTypeParquet
	FileTypeJSON
	FileTypeDeltaSharingProfile
)

// String returns a short name for the file type.
func (t FileType) String() string {
	switch t {
	case FileTypeCSV:
		return "csv"
	case FileTypeParquet:
		return "parquet"
	case FileTypeJSON:
		return "json"
	case FileTypeDeltaSharingProfile:
		return "delta-sharing-profile"
	default:
		return "unknown"
	}
}

// DetectFileType determines the type of file based on extension and content.
// content may be empty, in which case JSON-like extensions are reported as
// JSON.
func DetectFileType(path string, content []byte) FileType {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv", ".tsv":
		return FileTypeCSV
	case ".parquet":
		return FileTypeParquet
	case ".json", ".share", ".txt":
		if IsDeltaSharingProfile(content) {
			return FileTypeDeltaSharingProfile
		}
		return FileTypeJSON
	default:
		return FileTypeUnknown
	}
}

// IsDeltaSharingProfile reports whether content looks like a Delta Sharing
// profile.
func IsDeltaSharingProfile(content []byte) bool {
	var profile map[string]any
	if err := json.Unmarshal(content, &profile); err != nil {
		return false
	}

	_, hasVersion := profile["shareCredentialsVersion"]
	_, hasEndpoint := profile["endpoint"]
	_, hasBearerToken := profile["bearerToken"]
	return hasVersion && hasEndpoint && hasBearerToken
}

// File loads rows from a CSV, JSON or Parquet file.
type File struct {
	Path   string
	Logger *zap.Logger
}

// Load reads the file and converts it to a Table named after its base name.
func (f *File) Load(ctx context.Context) (*Table, error) {
	logger := f.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	name := filepath.Base(f.Path)

	var content []byte
	switch strings.ToLower(filepath.Ext(f.Path)) {
	case ".json", ".share", ".txt":
		var err error
		content, err = os.ReadFile(f.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to read file: %w", err)
		}
	}

	fileType := DetectFileType(f.Path, content)
	logger.Debug("loading file", zap.String("path", f.Path), zap.Stringer("type", fileType))

	var (
		table *Table
		err   error
	)
	switch fileType {
	case FileTypeCSV:
		table, err = loadCSV(name, f.Path, logger)
	case FileTypeParquet:
		table, err = loadParquet(ctx, name, f.Path)
	case FileTypeJSON:
		table, err = loadJSON(name, content)
	case FileTypeDeltaSharingProfile:
		return nil, fmt.Errorf("%w: %s is a Delta Sharing profile", ErrUnsupportedFile, name)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFile, name)
	}
	if err != nil {
		return nil, err
	}

	logger.Info("loaded file",
		zap.String("name", name),
		zap.Int("rows", len(table.Rows)),
		zap.Int("columns", len(table.Columns)))
	return table, nil
}

// DetectCSVSeparator picks the most frequent of comma, semicolon, tab and
// pipe on the first line, defaulting to comma.
func DetectCSVSeparator(r io.Reader) rune {
	scanner := bufio.NewScanner(r)
	if !scanner.Scan() {
		return ','
	}
	firstLine := scanner.Text()

	detected, maxCount := ',', 0
	for _, sep := range []rune{',', ';', '\t', '|'} {
		if count := strings.Count(firstLine, string(sep)); count > maxCount {
			detected, maxCount = sep, count
		}
	}
	return detected
}

// SeparatorName returns a human-readable name for the separator
func SeparatorName(sep rune) string {
	switch sep {
	case ',':
		return "comma"
	case ';':
		return "semicolon"
	case '\t':
		return "tab"
	case '|':
		return "pipe"
	default:
		return string(sep)
	}
}

func loadCSV(name, path string, logger *zap.Logger) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	return parseCSV(name, data, logger)
}

func parseCSV(name string, data []byte, logger *zap.Logger) (*Table, error) {
	sep := DetectCSVSeparator(bytes.NewReader(data))
	logger.Debug("detected csv separator", zap.String("separator", SeparatorName(sep)))

	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = sep
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to load CSV file: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: %s has no header", ErrEmptyData, name)
	}

	keys := make([]string, len(records[0]))
	for i, h := range records[0] {
		keys[i] = strings.TrimSpace(h)
	}

	rows := make([]datagrid.Record, 0, len(records)-1)
	for _, record := range records[1:] {
		row := make(datagrid.Record, len(keys))
		for i, key := range keys {
			if i < len(record) {
				row[key] = parseCell(record[i])
			} else {
				row[key] = nil
			}
		}
		rows = append(rows, row)
	}

	return newTable(name, keys, rows), nil
}

// parseCell converts a CSV cell to int64, float64, bool or string. Empty
// cells become nil. Only finite decimal literals become float64; "NaN",
// "Inf" and hex floats stay text.
func parseCell(s string) any {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i
	}
	if !strings.ContainsAny(s, "xXpP") {
		if f, err := strconv.ParseFloat(s, 64); err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
			return f
		}
	}
	switch strings.ToLower(s) {
	case "true":
		return true
	case "false":
		return false
	}
	return s
}

func loadJSON(name string, content []byte) (*Table, error) {
	rows, keys, err := decodeObjects(content)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: JSON file has no records", ErrEmptyData)
	}
	return newTable(name, keys, rows), nil
}

func loadParquet(ctx context.Context, name, path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open parquet file: %w", err)
	}
	defer f.Close()

	pf, err := file.NewParquetReader(f, file.WithReadProps(parquet.NewReaderProperties(nil)))
	if err != nil {
		return nil, fmt.Errorf("failed to create parquet reader: %w", err)
	}
	defer pf.Close()

	mem := memory.NewGoAllocator()
	arrowReader, err := pqarrow.NewFileReader(pf, pqarrow.ArrowReadProperties{}, mem)
	if err != nil {
		return nil, fmt.Errorf("failed to create arrow reader: %w", err)
	}

	table, err := arrowReader.ReadTable(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read parquet data: %w", err)
	}
	defer table.Release()

	return FromArrowTable(name, table)
}

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

package config

import (
	"errors"
	"fmt"
	"os"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/magpierre/ontogrid/datagrid"
	"github.com/magpierre/ontogrid/internal/script"
)

// ErrInvalidColumns is returned for a malformed column definition file.
var ErrInvalidColumns = errors.New("invalid column definitions")

// ColumnDef is one entry of a column definition file.
//
//	columns:
//	  - key: age
//	    label: Age
//	    sortable: false
//	    width: 80
//	    render: fmt.Sprintf("%v yrs", value)
type ColumnDef struct {
	Key      string  `yaml:"key"`
	Label    string  `yaml:"label,omitempty"`
	Sortable *bool   `yaml:"sortable,omitempty"`
	Width    float32 `yaml:"width,omitempty"`
	Render   string  `yaml:"render,omitempty"`
}

type columnFile struct {
	Columns []ColumnDef `yaml:"columns"`
}

// LoadColumns reads a column definition file.
func LoadColumns(path string) ([]ColumnDef, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read column definitions: %w", err)
	}
	return ParseColumns(data)
}

// ParseColumns decodes column definitions from YAML.
func ParseColumns(data []byte) ([]ColumnDef, error) {
	var f columnFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidColumns, err)
	}
	for i, def := range f.Columns {
		if def.Key == "" {
			return nil, fmt.Errorf("%w: column %d has no key", ErrInvalidColumns, i+1)
		}
	}
	return f.Columns, nil
}

// BuildColumns turns definitions into grid columns, compiling render
// scripts. logger may be nil.
func BuildColumns(defs []ColumnDef, logger *zap.Logger) ([]datagrid.Column[datagrid.Record], error) {
	cols := make([]datagrid.Column[datagrid.Record], 0, len(defs))
	for _, def := range defs {
		col := datagrid.Column[datagrid.Record]{
			Key:        def.Key,
			Label:      def.Label,
			Unsortable: def.Sortable != nil && !*def.Sortable,
			Width:      def.Width,
		}
		if def.Render != "" {
			r, err := script.Compile(def.Render, logger)
			if err != nil {
				return nil, fmt.Errorf("column %q: %w", def.Key, err)
			}
			col.Render = r
		}
		cols = append(cols, col)
	}
	return cols, nil
}

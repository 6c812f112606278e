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

// Package filter implements row predicates over the string form of cells.
package filter

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidFilter is returned when a filter expression is invalid.
var ErrInvalidFilter = errors.New("invalid filter expression")

// Row gives a filter access to the string form of a cell by field key.
// Missing fields yield the empty string.
type Row interface {
	Text(key string) string
}

// Filter evaluates a row.
type Filter interface {
	// Evaluate reports whether the row passes.
	Evaluate(row Row) (bool, error)

	// Description returns a human readable form, used in status text.
	Description() string
}

// Contains passes rows whose cell text contains Text, ignoring case.
// An empty Text passes every row.
type Contains struct {
	Key  string
	Text string
}

// Evaluate implements the Filter interface.
func (f *Contains) Evaluate(row Row) (bool, error) {
	if f.Text == "" {
		return true, nil
	}
	return strings.Contains(strings.ToLower(row.Text(f.Key)), strings.ToLower(f.Text)), nil
}

// Description implements the Filter interface.
func (f *Contains) Description() string {
	return fmt.Sprintf("%s ~ %q", f.Key, f.Text)
}

// Columns builds the conjunction of one Contains filter per non-empty
// entry. Keys are visited in the order given so descriptions are stable.
func Columns(keys []string, texts map[string]string) *CompositeFilter {
	cf := &CompositeFilter{Logic: LogicAND}
	for _, key := range keys {
		if text := texts[key]; text != "" {
			cf.Filters = append(cf.Filters, &Contains{Key: key, Text: text})
		}
	}
	return cf
}

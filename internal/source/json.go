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
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"slices"

	"github.com/magpierre/ontogrid/datagrid"
)

// decodeObjects decodes a JSON array of objects, or a single object, into
// records. Nested objects are flattened into dotted keys and arrays are
// kept as their JSON text. Keys are returned in order of first appearance.
func decodeObjects(data []byte) ([]datagrid.Record, []string, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse JSON: %w", err)
	}

	c := &collector{seen: make(map[string]bool)}
	switch tok {
	case json.Delim('{'):
		if err := c.object(dec); err != nil {
			return nil, nil, err
		}
	case json.Delim('['):
		for dec.More() {
			tok, err := dec.Token()
			if err != nil {
				return nil, nil, fmt.Errorf("failed to parse JSON: %w", err)
			}
			if tok != json.Delim('{') {
				return nil, nil, fmt.Errorf("failed to parse JSON: expected object, got %v", tok)
			}
			if err := c.object(dec); err != nil {
				return nil, nil, err
			}
		}
		if _, err := dec.Token(); err != nil && err != io.EOF {
			return nil, nil, fmt.Errorf("failed to parse JSON: %w", err)
		}
	default:
		return nil, nil, fmt.Errorf("failed to parse JSON: expected object or array, got %v", tok)
	}

	return c.rows, c.keys, nil
}

type collector struct {
	rows []datagrid.Record
	keys []string
	seen map[string]bool
}

// object reads the remainder of an object whose opening brace was consumed.
func (c *collector) object(dec *json.Decoder) error {
	record := make(datagrid.Record)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return fmt.Errorf("failed to parse JSON: %w", err)
		}
		key, _ := tok.(string)

		var v any
		if err := dec.Decode(&v); err != nil {
			return fmt.Errorf("failed to parse JSON value for %q: %w", key, err)
		}
		c.put(record, key, v)
	}
	if _, err := dec.Token(); err != nil {
		return fmt.Errorf("failed to parse JSON: %w", err)
	}
	c.rows = append(c.rows, record)
	return nil
}

func (c *collector) put(record datagrid.Record, key string, v any) {
	if nested, ok := v.(map[string]any); ok {
		names := make([]string, 0, len(nested))
		for name := range nested {
			names = append(names, name)
		}
		slices.Sort(names)
		for _, name := range names {
			c.put(record, key+"."+name, nested[name])
		}
		return
	}

	if !c.seen[key] {
		c.seen[key] = true
		c.keys = append(c.keys, key)
	}
	record[key] = normalize(v)
}

// normalize converts decoded JSON values to grid cell values.
func normalize(v any) any {
	switch x := v.(type) {
	case json.Number:
		if i, err := x.Int64(); err == nil {
			return i
		}
		if f, err := x.Float64(); err == nil {
			return f
		}
		return x.String()
	case []any:
		b, err := json.Marshal(x)
		if err != nil {
			return fmt.Sprint(x)
		}
		return string(b)
	default:
		return x
	}
}

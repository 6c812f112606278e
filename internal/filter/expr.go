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

package filter

import (
	"fmt"
	"strconv"
	"strings"
)

// CompOp is a comparison operator in a where expression.
type CompOp int

const (
	OpEqual CompOp = iota
	OpNotEqual
	OpGreater
	OpLess
	OpGreaterEqual
	OpLessEqual
	OpContains
)

var opSymbols = []struct {
	op     CompOp
	symbol string
}{
	// longest symbols first so ">=" is not read as ">"
	{OpGreaterEqual, ">="},
	{OpLessEqual, "<="},
	{OpNotEqual, "!="},
	{OpEqual, "="},
	{OpGreater, ">"},
	{OpLess, "<"},
	{OpContains, "~"},
}

// String returns the operator symbol.
func (op CompOp) String() string {
	for _, s := range opSymbols {
		if s.op == op {
			return s.symbol
		}
	}
	return fmt.Sprintf("op(%d)", int(op))
}

// Comparison compares one cell against a literal. A Comparison with an
// empty Key and OpContains searches every key in AnyOf.
type Comparison struct {
	Key   string
	Op    CompOp
	Value string
	AnyOf []string
}

// Evaluate implements the Filter interface.
func (c *Comparison) Evaluate(row Row) (bool, error) {
	if c.Key == "" {
		needle := strings.ToLower(c.Value)
		for _, key := range c.AnyOf {
			if strings.Contains(strings.ToLower(row.Text(key)), needle) {
				return true, nil
			}
		}
		return false, nil
	}

	cell := row.Text(c.Key)
	switch c.Op {
	case OpEqual:
		return strings.EqualFold(cell, c.Value), nil
	case OpNotEqual:
		return !strings.EqualFold(cell, c.Value), nil
	case OpContains:
		return strings.Contains(strings.ToLower(cell), strings.ToLower(c.Value)), nil
	case OpGreater, OpLess, OpGreaterEqual, OpLessEqual:
		return compareOrdered(cell, c.Value, c.Op), nil
	default:
		return false, fmt.Errorf("%w: unknown operator %d", ErrInvalidFilter, c.Op)
	}
}

// Description implements the Filter interface.
func (c *Comparison) Description() string {
	if c.Key == "" {
		return fmt.Sprintf("* ~ %q", c.Value)
	}
	return fmt.Sprintf("%s %s %q", c.Key, c.Op, c.Value)
}

// compareOrdered compares numerically when both sides parse as numbers and
// falls back to a case-insensitive string comparison.
func compareOrdered(cell, literal string, op CompOp) bool {
	var cmp int
	a, err1 := strconv.ParseFloat(strings.TrimSpace(cell), 64)
	b, err2 := strconv.ParseFloat(strings.TrimSpace(literal), 64)
	if err1 == nil && err2 == nil {
		switch {
		case a < b:
			cmp = -1
		case a > b:
			cmp = 1
		}
	} else {
		cmp = strings.Compare(strings.ToLower(cell), strings.ToLower(literal))
	}

	switch op {
	case OpGreater:
		return cmp > 0
	case OpLess:
		return cmp < 0
	case OpGreaterEqual:
		return cmp >= 0
	case OpLessEqual:
		return cmp <= 0
	}
	return false
}

// Parser turns where expressions such as `age >= 30 AND name ~ jo` into
// filters. AND binds tighter than OR.
type Parser struct {
	keys    []string
	columns map[string]string // lower-cased name -> key
}

// NewParser creates a parser that accepts the given column keys,
// matched case-insensitively.
func NewParser(keys []string) *Parser {
	columns := make(map[string]string, len(keys))
	for _, key := range keys {
		columns[strings.ToLower(key)] = key
	}
	return &Parser{keys: keys, columns: columns}
}

type queryPart struct {
	text       string
	isOperator bool
}

// Parse parses a query string. An empty query yields a filter that passes
// every row.
func (p *Parser) Parse(query string) (Filter, error) {
	if strings.TrimSpace(query) == "" {
		return &CompositeFilter{Logic: LogicAND}, nil
	}

	parts := splitByLogicOps(query)
	or := &CompositeFilter{Logic: LogicOR}
	and := &CompositeFilter{Logic: LogicAND}
	expectExpr := true

	for _, part := range parts {
		if part.isOperator {
			if expectExpr {
				return nil, fmt.Errorf("%w: unexpected %s", ErrInvalidFilter, part.text)
			}
			if part.text == "OR" {
				or.Filters = append(or.Filters, and)
				and = &CompositeFilter{Logic: LogicAND}
			}
			expectExpr = true
			continue
		}
		if !expectExpr {
			return nil, fmt.Errorf("%w: missing operator before %q", ErrInvalidFilter, part.text)
		}
		cmp, err := p.parseExpression(part.text)
		if err != nil {
			return nil, err
		}
		and.Filters = append(and.Filters, cmp)
		expectExpr = false
	}
	if expectExpr {
		return nil, fmt.Errorf("%w: dangling operator", ErrInvalidFilter)
	}

	or.Filters = append(or.Filters, and)
	if len(or.Filters) == 1 {
		return and, nil
	}
	return or, nil
}

// splitByLogicOps splits query by AND/OR while preserving the operators.
func splitByLogicOps(query string) []queryPart {
	parts := make([]queryPart, 0)
	var current strings.Builder

	flush := func() {
		if text := strings.TrimSpace(current.String()); text != "" {
			parts = append(parts, queryPart{text: text})
		}
		current.Reset()
	}

	for i := 0; i < len(query); {
		matched := false
		for _, op := range []string{"AND", "OR"} {
			end := i + len(op)
			if end > len(query) || !strings.EqualFold(query[i:end], op) {
				continue
			}
			if (i == 0 || isWhitespace(query[i-1])) && (end == len(query) || isWhitespace(query[end])) {
				flush()
				parts = append(parts, queryPart{text: op, isOperator: true})
				i = end
				matched = true
				break
			}
		}
		if !matched {
			current.WriteByte(query[i])
			i++
		}
	}
	flush()

	return parts
}

func isWhitespace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

// parseExpression parses a single expression like "column = value".
// Text without an operator searches all columns.
func (p *Parser) parseExpression(text string) (*Comparison, error) {
	for _, opInfo := range opSymbols {
		idx := strings.Index(text, opInfo.symbol)
		if idx <= 0 {
			continue
		}
		name := strings.TrimSpace(text[:idx])
		value := strings.Trim(strings.TrimSpace(text[idx+len(opInfo.symbol):]), "\"'")

		key, ok := p.columns[strings.ToLower(name)]
		if !ok {
			return nil, fmt.Errorf("%w: unknown column %s", ErrInvalidFilter, name)
		}
		return &Comparison{Key: key, Op: opInfo.op, Value: value}, nil
	}

	return &Comparison{Op: OpContains, Value: strings.Trim(text, "\"'"), AnyOf: p.keys}, nil
}

package filter

import (
	"fmt"
	"strings"
)

// LogicOp represents a logical operator for combining filters.
type LogicOp int

const (
	// LogicAND requires all filters to pass.
	LogicAND LogicOp = iota
	// LogicOR requires at least one filter to pass.
	LogicOR
)

// String returns the string representation of a LogicOp.
func (op LogicOp) String() string {
	switch op {
	case LogicAND:
		return "AND"
	case LogicOR:
		return "OR"
	default:
		return fmt.Sprintf("unknown(%d)", op)
	}
}

// CompositeFilter combines filters with AND or OR logic.
// An empty composite passes every row.
type CompositeFilter struct {
	Filters []Filter
	Logic   LogicOp
}

// Evaluate implements the Filter interface. Evaluation stops at the first
// filter that decides the outcome: a failing one for AND, a passing one
// for OR.
func (f *CompositeFilter) Evaluate(row Row) (bool, error) {
	if len(f.Filters) == 0 {
		return true, nil
	}

	var decisive bool
	switch f.Logic {
	case LogicAND:
		decisive = false
	case LogicOR:
		decisive = true
	default:
		return false, fmt.Errorf("%w: unknown logic operator %d", ErrInvalidFilter, f.Logic)
	}

	for _, sub := range f.Filters {
		passes, err := sub.Evaluate(row)
		if err != nil {
			return false, err
		}
		if passes == decisive {
			return decisive, nil
		}
	}
	return !decisive, nil
}

// Description implements the Filter interface.
func (f *CompositeFilter) Description() string {
	switch len(f.Filters) {
	case 0:
		return "all rows"
	case 1:
		return f.Filters[0].Description()
	}

	parts := make([]string, len(f.Filters))
	for i, sub := range f.Filters {
		parts[i] = sub.Description()
	}
	return "(" + strings.Join(parts, " "+f.Logic.String()+" ") + ")"
}

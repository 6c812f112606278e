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
	"cmp"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// Comparator orders two non-nil cell values in ascending order.
// It is not safe for concurrent use because the collator keeps
// internal buffers.
type Comparator struct {
	coll *collate.Collator
}

// NewComparator creates a comparator whose string ordering follows the
// collation rules of tag. language.Und gives the root collation.
func NewComparator(tag language.Tag) *Comparator {
	return &Comparator{coll: collate.New(tag)}
}

// Compare returns a negative number when a sorts before b, zero when they
// are equal and a positive number otherwise. Two numbers compare by value,
// everything else by the collated string form. NaN orders before every
// other number.
func (c *Comparator) Compare(a, b any) int {
	an, aok := Number(a)
	bn, bok := Number(b)
	if aok && bok {
		return cmp.Compare(an, bn)
	}
	return c.coll.CompareString(String(a), String(b))
}

// compareCells applies the nil-last rule around Compare. nil ranks after
// every value in both directions.
func (c *Comparator) compareCells(a, b any, dir SortDirection) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return 1
	case b == nil:
		return -1
	}
	res := c.Compare(a, b)
	if dir == SortDescending {
		res = -res
	}
	return res
}

// Copyright 2010-2024 Google LLC
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

package mipmodel

import (
	"math"
	"math/big"
)

// Infinity and NegInfinity mark a missing upper and lower bound respectively.
const (
	Infinity    = math.MaxInt64
	NegInfinity = math.MinInt64
)

// ClosedInterval stores the closed interval `[start,end]`. If the `Start` is greater
// than the `End`, the interval is considered empty. A `Start` of NegInfinity or an `End`
// of Infinity leaves that side unbounded.
type ClosedInterval struct {
	Start int64
	End   int64
}

// checkOverflowAndAdd first checks if adding `delta` to `i` will cause an integer overflow.
// It will return the value of the summation if there is no overflow. Otherwise, it will
// return MaxInt64 or MinInt64 depending on the direction of the overflow.
func checkOverflowAndAdd(i, delta int64) int64 {
	if i == math.MinInt64 || i == math.MaxInt64 {
		return i
	}

	s := i + delta
	if delta < 0 && s > i {
		return math.MinInt64
	}
	if delta > 0 && s < i {
		return math.MaxInt64
	}

	return s
}

// Offset adds an offset to both the `Start` and `End` of the ClosedInterval `c`. If the `Start`
// is equal to MinInt or if `End` is equal to MaxInt, the offset does not get added since those
// values represent an unbounded side. Both `Start` and `End` are clamped at math.MinInt64 and
// Math.MaxInt64.
func (c ClosedInterval) Offset(delta int64) ClosedInterval {
	return ClosedInterval{checkOverflowAndAdd(c.Start, delta), checkOverflowAndAdd(c.End, delta)}
}

// IsEmpty reports whether no value lies in the interval.
func (c ClosedInterval) IsEmpty() bool {
	return c.Start > c.End
}

// HasLower reports whether the interval is bounded from below.
func (c ClosedInterval) HasLower() bool {
	return c.Start != NegInfinity
}

// HasUpper reports whether the interval is bounded from above.
func (c ClosedInterval) HasUpper() bool {
	return c.End != Infinity
}

// Contains reports whether the rational `v` lies in the interval.
func (c ClosedInterval) Contains(v *big.Rat) bool {
	if c.HasLower() && v.Cmp(new(big.Rat).SetInt64(c.Start)) < 0 {
		return false
	}
	if c.HasUpper() && v.Cmp(new(big.Rat).SetInt64(c.End)) > 0 {
		return false
	}
	return true
}

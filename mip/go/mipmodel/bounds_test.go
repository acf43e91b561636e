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
	"testing"
)

func TestClosedInterval_Offset(t *testing.T) {
	testCases := []struct {
		interval ClosedInterval
		delta    int64
		want     ClosedInterval
	}{
		{
			interval: ClosedInterval{1, 2},
			delta:    -2,
			want:     ClosedInterval{-1, 0},
		},
		{
			interval: ClosedInterval{math.MinInt64, 2},
			delta:    -2,
			want:     ClosedInterval{math.MinInt64, 0},
		},
		{
			interval: ClosedInterval{1, math.MaxInt64},
			delta:    2,
			want:     ClosedInterval{3, math.MaxInt64},
		},
		{
			interval: ClosedInterval{-1, 5},
			delta:    math.MaxInt64,
			want:     ClosedInterval{math.MaxInt64 - 1, math.MaxInt64},
		},
		{
			interval: ClosedInterval{-1, 5},
			delta:    math.MinInt64,
			want:     ClosedInterval{math.MinInt64, math.MinInt64 + 5},
		},
	}

	for _, test := range testCases {
		if got := test.interval.Offset(test.delta); got != test.want {
			t.Errorf("%#v.Offset(%v) return %#v, want %#v", test.interval, test.delta, got, test.want)
		}
	}
}

func TestClosedInterval_Contains(t *testing.T) {
	testCases := []struct {
		interval ClosedInterval
		value    *big.Rat
		want     bool
	}{
		{
			interval: ClosedInterval{0, 2},
			value:    big.NewRat(3, 2),
			want:     true,
		},
		{
			interval: ClosedInterval{0, 2},
			value:    big.NewRat(5, 2),
			want:     false,
		},
		{
			interval: ClosedInterval{NegInfinity, 0},
			value:    big.NewRat(-1000, 1),
			want:     true,
		},
		{
			interval: ClosedInterval{1, Infinity},
			value:    big.NewRat(1, 2),
			want:     false,
		},
	}

	for _, test := range testCases {
		if got := test.interval.Contains(test.value); got != test.want {
			t.Errorf("%#v.Contains(%v) = %v, want %v", test.interval, test.value, got, test.want)
		}
	}
}

func TestClosedInterval_IsEmpty(t *testing.T) {
	if !(ClosedInterval{3, 2}).IsEmpty() {
		t.Errorf("ClosedInterval{3, 2}.IsEmpty() = false, want true")
	}
	if (ClosedInterval{2, 2}).IsEmpty() {
		t.Errorf("ClosedInterval{2, 2}.IsEmpty() = true, want false")
	}
}

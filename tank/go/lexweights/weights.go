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

// Package lexweights turns an ordered list of soft objectives into a single weighted sum.
//
// Given items ranked from highest to lowest priority and a base strictly greater than the
// largest value any item can contribute, the weights `base^(n-1-rank)` make minimizing
// `sum_i w[i] * v[i]` equivalent to minimizing `v` lexicographically in priority order: one
// unit on an item outweighs every possible value of all lower-priority items combined.
// Weights are exact integers.
package lexweights

import (
	"errors"
	"fmt"
	"math/big"
	"sort"
)

// ErrBase is returned when the base cannot separate priority levels.
var ErrBase = errors.New("lexicographic base must be at least 2")

// Order returns the indices `0..n-1` sorted from highest to lowest priority. `less(i, j)`
// reports whether item i has strictly higher priority than item j; items of equal priority
// keep their index order.
func Order(n int, less func(i, j int) bool) []int {
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return less(order[a], order[b])
	})
	return order
}

// Ranks inverts an order: the result maps an item index to its rank.
func Ranks(order []int) []int {
	ranks := make([]int, len(order))
	for rank, item := range order {
		ranks[item] = rank
	}
	return ranks
}

// Weights returns the weight of every item, indexed by item: the item at rank r gets
// `base^(len(order)-1-r)`.
func Weights(order []int, base *big.Int) ([]*big.Int, error) {
	if base.Cmp(big.NewInt(2)) < 0 {
		return nil, fmt.Errorf("base %v: %w", base, ErrBase)
	}
	n := len(order)
	weights := make([]*big.Int, n)
	w := big.NewInt(1)
	for rank := n - 1; rank >= 0; rank-- {
		weights[order[rank]] = new(big.Int).Set(w)
		w.Mul(w, base)
	}
	return weights, nil
}

// Dominates reports whether, for every rank, the weight of the item at that rank is strictly
// larger than the largest combined contribution `sum w[j] * maxValues[j]` of all items ranked
// below it. This is the property that makes the weighted sum lexicographic for values that
// move in integral steps.
func Dominates(order []int, weights []*big.Int, maxValues []*big.Int) bool {
	tail := new(big.Int)
	term := new(big.Int)
	for rank := len(order) - 1; rank >= 0; rank-- {
		item := order[rank]
		if weights[item].Cmp(tail) <= 0 {
			return false
		}
		term.Mul(weights[item], maxValues[item])
		tail.Add(tail, term)
	}
	return true
}

// FitsInt64 reports whether every weight is representable as an int64.
func FitsInt64(weights []*big.Int) bool {
	for _, w := range weights {
		if !w.IsInt64() {
			return false
		}
	}
	return true
}

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

package allocator

import (
	"fmt"
	"strings"
	"time"
)

// Policy selects how stranded capacity is balanced against placed volume.
type Policy int32

const (
	// PolicyGated counts the stranded capacity of a tank only when it receives a demand. The
	// link between `stranded` and `use` is a Big-M encoding.
	PolicyGated Policy = iota
	// PolicyActive counts the full remaining spare capacity of every tank, used or not.
	PolicyActive
)

var policyNames = map[Policy]string{
	PolicyGated:  "gated",
	PolicyActive: "active",
}

func (p Policy) String() string {
	if s, ok := policyNames[p]; ok {
		return s
	}
	return fmt.Sprintf("Policy(%d)", int32(p))
}

// ParsePolicy returns the policy named `s`, case-insensitively.
func ParsePolicy(s string) (Policy, error) {
	for p, name := range policyNames {
		if strings.EqualFold(s, name) {
			return p, nil
		}
	}
	return 0, fmt.Errorf("unknown policy %q: %w", s, ErrInvalidInput)
}

// Options configures a single call to Solve. The zero value selects the gated policy, the
// default tie-break penalty, BigM equal to the largest spare capacity, no solver limits and
// the built-in solver.
type Options struct {
	Policy Policy

	// TieBreakPenalty is the objective cost of using one tank, in units where one volume unit of
	// stranded capacity in the lowest-priority tank costs 1. It must satisfy
	// `0 < TieBreakPenalty * n_tanks < 1`. Zero selects `1 / (n_tanks + 1)`.
	TieBreakPenalty float64

	// SolverTimeLimit is passed to the solver unchanged. Zero means no limit.
	SolverTimeLimit time.Duration

	// MaxNodes limits the number of branch-and-bound nodes explored. Zero means no limit.
	MaxNodes int64

	// BigM is the Big-M constant of the gated policy in input units. It must be at least the
	// largest spare capacity. Zero selects the largest spare capacity. Ignored by the active
	// policy.
	BigM float64

	// LogSearchProgress logs every improving solution found by the search.
	LogSearchProgress bool

	// Solver solves the built model. Nil selects DefaultSolver.
	Solver Solver
}

func (o *Options) validate() error {
	if _, ok := policyNames[o.Policy]; !ok {
		return fmt.Errorf("unknown policy %v: %w", o.Policy, ErrInvalidInput)
	}
	if o.SolverTimeLimit < 0 {
		return fmt.Errorf("negative solver time limit %v: %w", o.SolverTimeLimit, ErrInvalidInput)
	}
	if o.MaxNodes < 0 {
		return fmt.Errorf("negative node limit %d: %w", o.MaxNodes, ErrInvalidInput)
	}
	if o.TieBreakPenalty < 0 {
		return fmt.Errorf("negative tie-break penalty %v: %w", o.TieBreakPenalty, ErrInvalidInput)
	}
	if o.BigM < 0 {
		return fmt.Errorf("negative BigM %v: %w", o.BigM, ErrInvalidInput)
	}
	return nil
}

func (o *Options) solver() Solver {
	if o.Solver == nil {
		return DefaultSolver{}
	}
	return o.Solver
}

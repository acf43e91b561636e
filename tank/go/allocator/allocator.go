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

// Package allocator assigns liquid-volume demands to tanks so as to minimize stranded capacity,
// the free space left in tanks.
//
// Stranded capacity is minimized lexicographically: tanks are ranked by spare capacity, tightest
// first, and the stranded capacity of a tank is only traded against that of lower-ranked tanks
// once it cannot be reduced any further. Remaining ties favor using fewer tanks. The ordering is
// encoded into a single mixed-integer model with exact integer weights, see package lexweights.
//
// Two policies are available. PolicyGated counts only tanks that receive a demand, and
// PolicyActive counts every tank. The two have different optima; the caller chooses through
// Options.
package allocator

import (
	"context"

	log "github.com/golang/glog"
	"github.com/orlab/tankfill/mip/go/mipmodel"
)

// Solve allocates `demands` to `tanks`.
//
// Invalid inputs fail with ErrInvalidInput and unrepresentable volumes or weights with
// ErrOverflow; neither reaches the solver. A proven infeasible problem returns a Result with
// StatusInfeasible and a nil error. A solver that cannot prove optimality, for instance because
// `ctx` is done or the time limit is reached, returns a Result with StatusError and an error
// wrapping ErrSolver.
func Solve(ctx context.Context, tanks []Tank, demands []float64, opts Options) (*Result, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	c, err := NewCapacity(tanks, demands)
	if err != nil {
		return nil, err
	}
	f, err := BuildModel(c, opts)
	if err != nil {
		return nil, err
	}
	log.V(1).Infof("allocating %d demands to %d tanks with the %v policy (scale %d, BigM %d, penalty %v)",
		c.NumDemands(), c.NumTanks(), opts.Policy, c.Scale(), f.BigM, f.Penalty.RatString())

	params := &mipmodel.Parameters{
		MaxTime:           opts.SolverTimeLimit,
		MaxNodes:          opts.MaxNodes,
		LogSearchProgress: opts.LogSearchProgress,
	}
	res, solveErr := opts.solver().Solve(ctx, f.Model, params)
	result, err := Project(f, res, solveErr)
	if err != nil {
		log.Warningf("allocation of %d demands failed: %v", c.NumDemands(), err)
		return result, err
	}
	if result.Status == StatusOptimal {
		log.V(1).Infof("allocation optimal: total stranded %v, objective %v", result.Report.TotalStranded, result.Objective.RatString())
	} else {
		log.V(1).Infof("allocation %v", result.Status)
	}
	return result, nil
}

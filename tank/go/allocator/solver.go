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
	"context"

	"github.com/orlab/tankfill/mip/go/mipmodel"
)

// Solver solves a mixed-integer model. Any backend that reports OPTIMAL only for proven optima
// and INFEASIBLE only for proven infeasibility can be used.
type Solver interface {
	Solve(ctx context.Context, m *mipmodel.ModelProto, params *mipmodel.Parameters) (*mipmodel.Response, error)
}

// SolverFunc adapts a function to the Solver interface.
type SolverFunc func(ctx context.Context, m *mipmodel.ModelProto, params *mipmodel.Parameters) (*mipmodel.Response, error)

// Solve calls f.
func (f SolverFunc) Solve(ctx context.Context, m *mipmodel.ModelProto, params *mipmodel.Parameters) (*mipmodel.Response, error) {
	return f(ctx, m, params)
}

// DefaultSolver is the built-in exact branch-and-bound solver. Cancelling the context
// interrupts the search.
type DefaultSolver struct{}

// Solve implements Solver.
func (DefaultSolver) Solve(ctx context.Context, m *mipmodel.ModelProto, params *mipmodel.Parameters) (*mipmodel.Response, error) {
	return mipmodel.SolveMipModelInterruptibleWithParameters(m, params, ctx.Done())
}

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

import "errors"

var (
	// ErrInvalidInput is returned for malformed tanks, demands or options. It is reported before
	// any model is built.
	ErrInvalidInput = errors.New("invalid input")

	// ErrOverflow is returned when volumes or priority weights cannot be represented exactly by
	// the model's int64 coefficients.
	ErrOverflow = errors.New("value cannot be represented exactly")

	// ErrSolver is returned when the solver could not prove optimality or infeasibility, e.g.
	// because of a time limit or a backend failure. It is never used for an infeasible problem.
	ErrSolver = errors.New("solver failed")
)

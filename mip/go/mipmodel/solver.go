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
	"errors"
	"fmt"
	"math/big"
	"sync/atomic"
	"time"

	log "github.com/golang/glog"
)

// Status is the outcome of a solve.
type Status int32

// Possible solve statuses.
const (
	// StatusUnknown means a search limit was reached before any solution was found.
	StatusUnknown Status = iota
	// StatusModelInvalid means the model failed validation; see Response.SolutionInfo.
	StatusModelInvalid
	// StatusFeasible means a solution was found but a limit stopped the proof of optimality.
	StatusFeasible
	// StatusInfeasible means the model has been proven to have no solution.
	StatusInfeasible
	// StatusOptimal means the returned solution has been proven optimal.
	StatusOptimal
	// StatusUnbounded means the objective can be improved without limit.
	StatusUnbounded
)

var statusNames = map[Status]string{
	StatusUnknown:      "UNKNOWN",
	StatusModelInvalid: "MODEL_INVALID",
	StatusFeasible:     "FEASIBLE",
	StatusInfeasible:   "INFEASIBLE",
	StatusOptimal:      "OPTIMAL",
	StatusUnbounded:    "UNBOUNDED",
}

func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("Status(%d)", int32(s))
}

// Parameters holds the search limits of a solve. A nil *Parameters means no limits.
type Parameters struct {
	// MaxTime bounds the wall time of the search. Zero means no limit.
	MaxTime time.Duration
	// MaxNodes bounds the number of branch-and-bound nodes explored. Zero means no limit.
	MaxNodes int64
	// LogSearchProgress logs every improving solution at INFO level.
	LogSearchProgress bool
}

// GetMaxTime returns the time limit, or zero for a nil receiver.
func (p *Parameters) GetMaxTime() time.Duration {
	if p == nil {
		return 0
	}
	return p.MaxTime
}

// GetMaxNodes returns the node limit, or zero for a nil receiver.
func (p *Parameters) GetMaxNodes() int64 {
	if p == nil {
		return 0
	}
	return p.MaxNodes
}

// GetLogSearchProgress returns whether search progress is logged.
func (p *Parameters) GetLogSearchProgress() bool {
	return p != nil && p.LogSearchProgress
}

// Response is the result of a solve. Solution and Objective are only set when Status is
// StatusOptimal or StatusFeasible.
type Response struct {
	Status Status
	// Objective is the objective value of Solution, in the direction the model was built with.
	Objective *big.Rat
	// Solution holds one value per model variable.
	Solution        []*big.Rat
	NumBranches     int64
	NumLPIterations int64
	WallTime        time.Duration
	SolutionInfo    string
}

// GetStatus returns the status of the response.
func (r *Response) GetStatus() Status {
	if r == nil {
		return StatusUnknown
	}
	return r.Status
}

// GetObjectiveValue returns the objective value as a float64, or zero when there is no solution.
func (r *Response) GetObjectiveValue() float64 {
	if r == nil || r.Objective == nil {
		return 0
	}
	f, _ := r.Objective.Float64()
	return f
}

// ErrNilModel is returned when a nil model is submitted.
var ErrNilModel = errors.New("nil model")

// SolveMipModel solves a model with default parameters and returns a Response.
func SolveMipModel(input *ModelProto) (*Response, error) {
	return SolveMipModelWithParameters(input, nil)
}

// SolveMipModelWithParameters solves a model with the given solver parameters and returns a
// Response.
func SolveMipModelWithParameters(input *ModelProto, params *Parameters) (*Response, error) {
	return SolveMipModelInterruptibleWithParameters(input, params, nil)
}

// SolveMipModelInterruptibleWithParameters solves a model with the given parameters and returns
// a Response. The solve can be interrupted by triggering the `interrupt`; an interrupted solve
// reports StatusFeasible or StatusUnknown, as when a limit is reached.
func SolveMipModelInterruptibleWithParameters(input *ModelProto, params *Parameters, interrupt <-chan struct{}) (*Response, error) {
	if input == nil {
		return nil, ErrNilModel
	}
	start := time.Now()
	if err := input.Validate(); err != nil {
		return &Response{Status: StatusModelInvalid, SolutionInfo: err.Error()}, nil
	}

	var limitReached atomic.Bool
	solveDone := make(chan struct{})
	defer close(solveDone)
	if interrupt != nil {
		// Wait for either the solve to finish or the solve to be interrupted.
		go func() {
			select {
			case <-interrupt:
				limitReached.Store(true)
			case <-solveDone:
			}
		}()

		// An already closed `interrupt` must stop the search before it starts, whatever the
		// scheduler does with the goroutine above.
		select {
		case <-interrupt:
			limitReached.Store(true)
		default:
		}
	}

	var deadline time.Time
	if d := params.GetMaxTime(); d > 0 {
		deadline = start.Add(d)
	}
	stop := func() bool {
		if limitReached.Load() {
			return true
		}
		if !deadline.IsZero() && time.Now().After(deadline) {
			limitReached.Store(true)
			return true
		}
		return false
	}

	res := branchAndBound(input, params, stop)
	res.WallTime = time.Since(start)
	log.V(1).Infof("solved model %q: status %v, %d branches, %d LP iterations in %v",
		input.GetName(), res.Status, res.NumBranches, res.NumLPIterations, res.WallTime)
	return res, nil
}

// SolutionValue returns the exact value of LinearArgument `la` in the response.
func SolutionValue(r *Response, la LinearArgument) *big.Rat {
	return la.evaluateSolutionValue(r)
}

// SolutionFloatValue returns the value of LinearArgument `la` in the response as a float64.
func SolutionFloatValue(r *Response, la LinearArgument) float64 {
	f, _ := la.evaluateSolutionValue(r).Float64()
	return f
}

// SolutionBooleanValue returns the value of BoolVar `bv` in the response.
func SolutionBooleanValue(r *Response, bv BoolVar) bool {
	return bv.evaluateSolutionValue(r).Sign() != 0
}

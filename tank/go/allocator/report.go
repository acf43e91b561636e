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
	"math/big"
	"time"

	"github.com/orlab/tankfill/mip/go/mipmodel"
	"google.golang.org/protobuf/types/known/structpb"
)

// Status is the outcome of a solve.
type Status int32

const (
	// StatusOptimal means a proven optimal allocation was found.
	StatusOptimal Status = iota
	// StatusInfeasible means the solver proved that no allocation fits. It is not an error.
	StatusInfeasible
	// StatusError means the solver could not determine an answer.
	StatusError
)

var statusNames = map[Status]string{
	StatusOptimal:    "optimal",
	StatusInfeasible: "infeasible",
	StatusError:      "error",
}

func (s Status) String() string {
	if n, ok := statusNames[s]; ok {
		return n
	}
	return fmt.Sprintf("Status(%d)", int32(s))
}

// TankReport is the allocation of one tank. Volumes are in input units.
type TankReport struct {
	Index int
	Name  string
	// PlacedDemands lists the indices of the demands placed in the tank, ascending.
	PlacedDemands []int
	PlacedVolume  float64
	ResultingFill float64
	Stranded      float64
	Used          bool
}

// Report is an optimal allocation.
type Report struct {
	Policy Policy
	// PriorityOrder lists tank indices from highest to lowest priority.
	PriorityOrder []int
	Tanks         []TankReport
	TotalStranded float64
}

// Stats are search statistics of the solver.
type Stats struct {
	SolverStatus mipmodel.Status
	Branches     int64
	LPIterations int64
	WallTime     time.Duration
	SolutionInfo string
}

// Result is the outcome of Solve. Report and Objective are only set for StatusOptimal.
type Result struct {
	Status    Status
	Report    *Report
	Objective *big.Rat
	Stats     Stats
}

func statsOf(res *mipmodel.Response) Stats {
	if res == nil {
		return Stats{}
	}
	return Stats{
		SolverStatus: res.GetStatus(),
		Branches:     res.NumBranches,
		LPIterations: res.NumLPIterations,
		WallTime:     res.WallTime,
		SolutionInfo: res.SolutionInfo,
	}
}

// Project converts the solver output for `f` into a Result. `solveErr` is the error returned by
// the solver, if any.
//
// Only OPTIMAL produces a report. INFEASIBLE produces StatusInfeasible and no error. Anything
// else, including a solver error, a FEASIBLE solution that is not proven optimal, or an OPTIMAL
// response whose solution does not satisfy the model, produces StatusError and an error wrapping
// ErrSolver.
func Project(f *Formulation, res *mipmodel.Response, solveErr error) (*Result, error) {
	if solveErr != nil {
		return &Result{Status: StatusError, Stats: statsOf(res)}, fmt.Errorf("%w: %w", ErrSolver, solveErr)
	}
	if res == nil {
		return &Result{Status: StatusError}, fmt.Errorf("%w: no response", ErrSolver)
	}
	stats := statsOf(res)
	switch res.GetStatus() {
	case mipmodel.StatusOptimal:
		// An OPTIMAL response must carry an objective and a feasible value for every variable.
		if res.Objective == nil {
			return &Result{Status: StatusError, Stats: stats}, fmt.Errorf("solver returned status %v without an objective value: %w", res.GetStatus(), ErrSolver)
		}
		if err := f.Model.CheckSolution(res.Solution); err != nil {
			return &Result{Status: StatusError, Stats: stats}, fmt.Errorf("solver returned status %v with an invalid solution (%v): %w", res.GetStatus(), err, ErrSolver)
		}
	case mipmodel.StatusInfeasible:
		return &Result{Status: StatusInfeasible, Stats: stats}, nil
	default:
		err := fmt.Errorf("solver returned status %v: %w", res.GetStatus(), ErrSolver)
		if res.SolutionInfo != "" {
			err = fmt.Errorf("solver returned status %v (%s): %w", res.GetStatus(), res.SolutionInfo, ErrSolver)
		}
		return &Result{Status: StatusError, Stats: stats}, err
	}

	c := f.Capacity
	report := &Report{
		Policy:        f.Policy,
		PriorityOrder: append([]int(nil), f.Order...),
		Tanks:         make([]TankReport, c.NumTanks()),
	}
	total := new(big.Rat)
	for i := range report.Tanks {
		placedUnits := new(big.Rat)
		placed := []int{}
		for d, x := range f.Assign[i] {
			if mipmodel.SolutionBooleanValue(res, x) {
				placed = append(placed, d)
				placedUnits.Add(placedUnits, new(big.Rat).SetInt64(c.Demand(d)))
			}
		}
		stranded := mipmodel.SolutionValue(res, f.Stranded[i])
		total.Add(total, stranded)
		fill := new(big.Rat).Add(placedUnits, new(big.Rat).SetInt64(c.Current(i)))
		report.Tanks[i] = TankReport{
			Index:         i,
			Name:          c.Tank(i).Name,
			PlacedDemands: placed,
			PlacedVolume:  c.Volume(placedUnits),
			ResultingFill: c.Volume(fill),
			Stranded:      c.Volume(stranded),
			Used:          mipmodel.SolutionBooleanValue(res, f.Use[i]),
		}
	}
	report.TotalStranded = c.Volume(total)
	return &Result{Status: StatusOptimal, Report: report, Objective: res.Objective, Stats: stats}, nil
}

// Struct exports the report as a google.protobuf.Struct.
func (r *Report) Struct() (*structpb.Struct, error) {
	order := make([]any, len(r.PriorityOrder))
	for i, t := range r.PriorityOrder {
		order[i] = t
	}
	tanks := make([]any, len(r.Tanks))
	for i, t := range r.Tanks {
		placed := make([]any, len(t.PlacedDemands))
		for j, d := range t.PlacedDemands {
			placed[j] = d
		}
		tank := map[string]any{
			"index":          t.Index,
			"placed_demands": placed,
			"placed_volume":  t.PlacedVolume,
			"resulting_fill": t.ResultingFill,
			"stranded":       t.Stranded,
			"used":           t.Used,
		}
		if t.Name != "" {
			tank["name"] = t.Name
		}
		tanks[i] = tank
	}
	return structpb.NewStruct(map[string]any{
		"policy":         r.Policy.String(),
		"priority_order": order,
		"tanks":          tanks,
		"total_stranded": r.TotalStranded,
	})
}

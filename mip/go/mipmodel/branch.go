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
	"math/big"

	log "github.com/golang/glog"
)

// node is a subproblem of the branch-and-bound tree: the model with tightened variable bounds.
type node struct {
	lower, upper []int64
	depth        int
}

func (n *node) child(v int, lb, ub int64) *node {
	c := &node{
		lower: append([]int64(nil), n.lower...),
		upper: append([]int64(nil), n.upper...),
		depth: n.depth + 1,
	}
	c.lower[v], c.upper[v] = lb, ub
	return c
}

// relaxation builds the LP relaxation of `m` restricted to the bounds of `n`. Variables are
// shifted by their lower bound so that every LP column is non-negative. It returns false when
// the bounds alone are contradictory.
func relaxation(m *ModelProto, n *node) (*lpProblem, *big.Rat, bool) {
	numVars := len(m.Variables)
	p := &lpProblem{numCols: numVars, cost: newRatRow(numVars)}

	for j := 0; j < numVars; j++ {
		if n.upper[j] < n.lower[j] {
			return nil, nil, false
		}
		if n.upper[j] == Infinity {
			continue
		}
		coeffs := newRatRow(numVars)
		coeffs[j].SetInt64(1)
		rhs := new(big.Rat).SetInt64(n.upper[j])
		rhs.Sub(rhs, new(big.Rat).SetInt64(n.lower[j]))
		p.rows = append(p.rows, lpRow{coeffs: coeffs, sense: senseLE, rhs: rhs})
	}

	term := new(big.Rat)
	for _, c := range m.Constraints {
		if c.Bounds.IsEmpty() {
			return nil, nil, false
		}
		if !c.Bounds.HasLower() && !c.Bounds.HasUpper() {
			continue
		}
		coeffs := newRatRow(numVars)
		shift := new(big.Rat)
		for k, v := range c.Vars {
			term.SetInt64(c.Coeffs[k])
			coeffs[v].Add(coeffs[v], term)
			term.Mul(term, new(big.Rat).SetInt64(n.lower[v]))
			shift.Add(shift, term)
		}
		bound := func(b int64) *big.Rat {
			r := new(big.Rat).SetInt64(b)
			return r.Sub(r, shift)
		}
		switch {
		case c.Bounds.Start == c.Bounds.End:
			p.rows = append(p.rows, lpRow{coeffs: coeffs, sense: senseEQ, rhs: bound(c.Bounds.Start)})
		default:
			if c.Bounds.HasUpper() {
				p.rows = append(p.rows, lpRow{coeffs: coeffs, sense: senseLE, rhs: bound(c.Bounds.End)})
			}
			if c.Bounds.HasLower() {
				p.rows = append(p.rows, lpRow{coeffs: coeffs, sense: senseGE, rhs: bound(c.Bounds.Start)})
			}
		}
	}

	constant := new(big.Rat)
	if o := m.Objective; o != nil {
		constant.SetInt64(o.Offset)
		for k, v := range o.Vars {
			term.SetInt64(o.Coeffs[k])
			p.cost[v].Add(p.cost[v], term)
		}
		for j, c := range p.cost {
			if c.Sign() == 0 || n.lower[j] == 0 {
				continue
			}
			term.SetInt64(n.lower[j])
			term.Mul(term, c)
			constant.Add(constant, term)
		}
	}
	return p, constant, true
}

// firstFractional returns the index of the first integer variable whose value is not
// integral, or -1 if the assignment is integer feasible.
func firstFractional(m *ModelProto, x []*big.Rat) int {
	for j, v := range m.Variables {
		if v.IsInteger && !x[j].IsInt() {
			return j
		}
	}
	return -1
}

// floorRat returns the largest integer not greater than `r`.
func floorRat(r *big.Rat) int64 {
	// Rat denominators are positive, so Euclidean division rounds toward negative infinity.
	return new(big.Int).Div(r.Num(), r.Denom()).Int64()
}

// branchAndBound runs a depth-first branch-and-bound search on a validated model. The search
// stops early when `stop` reports true.
func branchAndBound(m *ModelProto, params *Parameters, stop func() bool) *Response {
	res := &Response{Status: StatusUnknown}
	logProgress := params.GetLogSearchProgress()

	root := &node{lower: make([]int64, len(m.Variables)), upper: make([]int64, len(m.Variables))}
	for j, v := range m.Variables {
		root.lower[j], root.upper[j] = v.Bounds.Start, v.Bounds.End
	}

	var incumbent *big.Rat
	var best []*big.Rat
	stack := []*node{root}
	limitReached := false
	for len(stack) > 0 {
		if stop() || (params.GetMaxNodes() > 0 && res.NumBranches >= params.GetMaxNodes()) {
			limitReached = true
			break
		}
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		res.NumBranches++

		p, constant, ok := relaxation(m, n)
		if !ok {
			continue
		}
		lp := solveLP(p, stop)
		res.NumLPIterations += lp.iterations
		switch lp.status {
		case lpInfeasible:
			continue
		case lpInterrupted:
			limitReached = true
			stack = append(stack, n)
		case lpUnbounded:
			res.Status = StatusUnbounded
			res.SolutionInfo = "the linear relaxation is unbounded"
			return res
		}
		if limitReached {
			break
		}

		bound := new(big.Rat).Add(lp.objective, constant)
		if incumbent != nil && bound.Cmp(incumbent) >= 0 {
			continue
		}

		x := make([]*big.Rat, len(lp.y))
		for j, y := range lp.y {
			x[j] = new(big.Rat).Add(y, new(big.Rat).SetInt64(n.lower[j]))
		}

		v := firstFractional(m, x)
		if v < 0 {
			incumbent, best = bound, x
			if logProgress {
				log.Infof("#%d new solution: objective %s at depth %d", res.NumBranches, bound.RatString(), n.depth)
			}
			continue
		}

		fl := floorRat(x[v])
		down := n.child(v, n.lower[v], fl)
		up := n.child(v, fl+1, n.upper[v])
		frac := new(big.Rat).Sub(x[v], new(big.Rat).SetInt64(fl))
		// The child closest to the relaxed value is explored first.
		if frac.Cmp(big.NewRat(1, 2)) >= 0 {
			stack = append(stack, down, up)
		} else {
			stack = append(stack, up, down)
		}
		log.V(2).Infof("branch on %q = %s at depth %d", m.Variables[v].Name, x[v].RatString(), n.depth)
	}

	switch {
	case incumbent == nil && limitReached:
		res.Status = StatusUnknown
		res.SolutionInfo = "search limit reached before any solution was found"
		return res
	case incumbent == nil:
		res.Status = StatusInfeasible
		return res
	case limitReached:
		res.Status = StatusFeasible
		res.SolutionInfo = "search limit reached before optimality was proven"
	default:
		res.Status = StatusOptimal
	}

	scaling := new(big.Rat).SetInt64(m.GetObjective().scaling())
	res.Objective = incumbent.Mul(incumbent, scaling)
	res.Solution = best
	return res
}

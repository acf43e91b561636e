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
)

type rowSense int8

const (
	senseLE rowSense = iota
	senseGE
	senseEQ
)

// lpRow is the dense row `coeffs . y (sense) rhs`.
type lpRow struct {
	coeffs []*big.Rat
	sense  rowSense
	rhs    *big.Rat
}

// lpProblem minimizes `cost . y` subject to the rows and `y >= 0`.
type lpProblem struct {
	numCols int
	rows    []lpRow
	cost    []*big.Rat
}

type lpStatus int

const (
	lpOptimal lpStatus = iota
	lpInfeasible
	lpUnbounded
	lpInterrupted
)

type lpResult struct {
	status     lpStatus
	y          []*big.Rat
	objective  *big.Rat
	iterations int64
}

// tableau is a dense simplex tableau. Rows 0..m-1 are constraints, row m holds the reduced
// costs, and the last column holds the right-hand side (the negated objective in row m).
type tableau struct {
	t          [][]*big.Rat
	basis      []int
	m          int
	width      int
	artStart   int
	iterations int64
	tmp        big.Rat
}

func newRatRow(n int) []*big.Rat {
	row := make([]*big.Rat, n)
	for j := range row {
		row[j] = new(big.Rat)
	}
	return row
}

func newTableau(p *lpProblem) *tableau {
	m, n := len(p.rows), p.numCols

	senses := make([]rowSense, m)
	numSlack, numArt := 0, 0
	for i, r := range p.rows {
		senses[i] = r.sense
		if r.rhs.Sign() < 0 {
			switch r.sense {
			case senseLE:
				senses[i] = senseGE
			case senseGE:
				senses[i] = senseLE
			}
		}
		if senses[i] != senseEQ {
			numSlack++
		}
		if senses[i] != senseLE {
			numArt++
		}
	}

	tb := &tableau{
		m:        m,
		width:    n + numSlack + numArt,
		artStart: n + numSlack,
		basis:    make([]int, m),
	}
	tb.t = make([][]*big.Rat, m+1)
	for i := range tb.t {
		tb.t[i] = newRatRow(tb.width + 1)
	}

	slack, art := n, tb.artStart
	for i, r := range p.rows {
		row := tb.t[i]
		for j, c := range r.coeffs {
			row[j].Set(c)
		}
		row[tb.width].Set(r.rhs)
		if r.rhs.Sign() < 0 {
			for j := 0; j <= tb.width; j++ {
				row[j].Neg(row[j])
			}
		}
		switch senses[i] {
		case senseLE:
			row[slack].SetInt64(1)
			tb.basis[i] = slack
			slack++
		case senseGE:
			row[slack].SetInt64(-1)
			slack++
			row[art].SetInt64(1)
			tb.basis[i] = art
			art++
		case senseEQ:
			row[art].SetInt64(1)
			tb.basis[i] = art
			art++
		}
	}
	return tb
}

func (tb *tableau) pivot(r, c int) {
	pivotRow := tb.t[r]
	pv := new(big.Rat).Set(pivotRow[c])
	for j := 0; j <= tb.width; j++ {
		if pivotRow[j].Sign() != 0 {
			pivotRow[j].Quo(pivotRow[j], pv)
		}
	}
	for i := 0; i <= tb.m; i++ {
		if i == r || tb.t[i][c].Sign() == 0 {
			continue
		}
		row := tb.t[i]
		f := new(big.Rat).Set(row[c])
		for j := 0; j <= tb.width; j++ {
			if pivotRow[j].Sign() == 0 {
				continue
			}
			tb.tmp.Mul(f, pivotRow[j])
			row[j].Sub(row[j], &tb.tmp)
		}
	}
	tb.basis[r] = c
	tb.iterations++
}

// iterate runs primal simplex pivots with Bland's rule until optimality. Only columns below
// `colLimit` may enter the basis.
func (tb *tableau) iterate(colLimit int, stop func() bool) lpStatus {
	obj := tb.t[tb.m]
	ratio, best := new(big.Rat), new(big.Rat)
	for {
		if stop() {
			return lpInterrupted
		}
		enter := -1
		for j := 0; j < colLimit; j++ {
			if obj[j].Sign() < 0 {
				enter = j
				break
			}
		}
		if enter < 0 {
			return lpOptimal
		}

		leave := -1
		for i := 0; i < tb.m; i++ {
			a := tb.t[i][enter]
			if a.Sign() <= 0 {
				continue
			}
			ratio.Quo(tb.t[i][tb.width], a)
			if leave < 0 {
				leave = i
				best.Set(ratio)
				continue
			}
			switch cmp := ratio.Cmp(best); {
			case cmp < 0, cmp == 0 && tb.basis[i] < tb.basis[leave]:
				leave = i
				best.Set(ratio)
			}
		}
		if leave < 0 {
			return lpUnbounded
		}
		tb.pivot(leave, enter)
	}
}

// setObjective loads `cost` (indexed by column, nil entries are zero) into the reduced-cost
// row and prices out the current basis.
func (tb *tableau) setObjective(cost func(col int) *big.Rat) {
	obj := tb.t[tb.m]
	for j := 0; j <= tb.width; j++ {
		if c := cost(j); j < tb.width && c != nil {
			obj[j].Set(c)
		} else {
			obj[j].SetInt64(0)
		}
	}
	for i := 0; i < tb.m; i++ {
		cb := cost(tb.basis[i])
		if cb == nil || cb.Sign() == 0 {
			continue
		}
		row := tb.t[i]
		for j := 0; j <= tb.width; j++ {
			if row[j].Sign() == 0 {
				continue
			}
			tb.tmp.Mul(cb, row[j])
			obj[j].Sub(obj[j], &tb.tmp)
		}
	}
}

// solveLP solves `p` exactly with the two-phase simplex method.
func solveLP(p *lpProblem, stop func() bool) lpResult {
	tb := newTableau(p)
	one := big.NewRat(1, 1)

	// Phase 1: minimize the sum of artificial variables.
	tb.setObjective(func(col int) *big.Rat {
		if col >= tb.artStart {
			return one
		}
		return nil
	})
	if st := tb.iterate(tb.width, stop); st != lpOptimal {
		return lpResult{status: st, iterations: tb.iterations}
	}
	if tb.t[tb.m][tb.width].Sign() != 0 {
		return lpResult{status: lpInfeasible, iterations: tb.iterations}
	}

	// Drive the remaining zero-valued artificial variables out of the basis. Rows where this is
	// impossible are redundant and stay untouched by later pivots.
	for i := 0; i < tb.m; i++ {
		if tb.basis[i] < tb.artStart {
			continue
		}
		for j := 0; j < tb.artStart; j++ {
			if tb.t[i][j].Sign() != 0 {
				tb.pivot(i, j)
				break
			}
		}
	}

	// Phase 2: minimize the real objective without artificial columns.
	tb.setObjective(func(col int) *big.Rat {
		if col < p.numCols {
			return p.cost[col]
		}
		return nil
	})
	if st := tb.iterate(tb.artStart, stop); st != lpOptimal {
		return lpResult{status: st, iterations: tb.iterations}
	}

	y := newRatRow(p.numCols)
	for i := 0; i < tb.m; i++ {
		if b := tb.basis[i]; b < p.numCols {
			y[b].Set(tb.t[i][tb.width])
		}
	}
	objective := new(big.Rat)
	for j, c := range p.cost {
		if c.Sign() != 0 && y[j].Sign() != 0 {
			tb.tmp.Mul(c, y[j])
			objective.Add(objective, &tb.tmp)
		}
	}
	return lpResult{status: lpOptimal, y: y, objective: objective, iterations: tb.iterations}
}

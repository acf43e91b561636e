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
	"math"
	"math/big"

	"github.com/orlab/tankfill/mip/go/mipmodel"
	"github.com/orlab/tankfill/tank/go/lexweights"
)

// Formulation is a built allocation model together with the variables and constants needed to
// read its solution back.
type Formulation struct {
	Model    *mipmodel.ModelProto
	Policy   Policy
	Capacity *Capacity

	// Order lists tank indices from highest to lowest priority.
	Order []int
	// Weights holds the lexicographic weight of every tank, indexed by tank.
	Weights []*big.Int
	// Penalty is the objective cost of one used tank, relative to a weight of 1.
	Penalty *big.Rat
	// BigM is the Big-M constant in volume units. Zero for the active policy.
	BigM int64

	Assign   [][]mipmodel.BoolVar // [tank][demand]
	Use      []mipmodel.BoolVar
	Stranded []mipmodel.NumVar
}

func (o *Options) penalty(numTanks int) (*big.Rat, error) {
	if o.TieBreakPenalty == 0 {
		return big.NewRat(1, int64(numTanks)+1), nil
	}
	p, err := exactRat(o.TieBreakPenalty)
	if err != nil {
		return nil, fmt.Errorf("tie-break penalty: %w", err)
	}
	total := new(big.Rat).Mul(p, new(big.Rat).SetInt64(int64(numTanks)))
	if p.Sign() <= 0 || total.Cmp(big.NewRat(1, 1)) >= 0 {
		return nil, fmt.Errorf("tie-break penalty %v for %d tanks can override the stranded capacity order: %w",
			o.TieBreakPenalty, numTanks, ErrInvalidInput)
	}
	return p, nil
}

func (o *Options) bigM(c *Capacity) (int64, error) {
	if o.Policy != PolicyGated {
		return 0, nil
	}
	maxSpare := c.MaxSpare()
	units := big.NewInt(maxSpare)
	if o.BigM != 0 {
		m, err := exactRat(o.BigM)
		if err != nil {
			return 0, fmt.Errorf("BigM: %w", err)
		}
		m.Mul(m, new(big.Rat).SetInt64(c.Scale()))
		// Round up to whole volume units.
		units.Add(m.Num(), m.Denom())
		units.Sub(units, big.NewInt(1))
		units.Quo(units, m.Denom())
		if units.Cmp(big.NewInt(maxSpare)) < 0 {
			return 0, fmt.Errorf("BigM %v is below the largest spare capacity: %w", o.BigM, ErrInvalidInput)
		}
	}
	// The gated rows use `spare + BigM` as a bound.
	if !units.IsInt64() || units.Int64() > math.MaxInt64-maxSpare {
		return 0, fmt.Errorf("BigM of %v volume units: %w", units, ErrOverflow)
	}
	return units.Int64(), nil
}

// objectiveCoeffs returns the int64 objective coefficients `w[i] * q` of the stranded variables
// and `p` of the use variables, where `p/q` is the penalty. It fails with ErrOverflow if a
// coefficient or the largest possible objective value does not fit an int64.
func objectiveCoeffs(c *Capacity, weights []*big.Int, penalty *big.Rat) ([]int64, int64, error) {
	q := penalty.Denom()
	p := penalty.Num()
	worst := new(big.Int).Mul(p, big.NewInt(int64(c.NumTanks())))
	coeffs := make([]int64, len(weights))
	for i, w := range weights {
		wq := new(big.Int).Mul(w, q)
		if !wq.IsInt64() {
			return nil, 0, fmt.Errorf("weight of tank %d is %v: %w", i, wq, ErrOverflow)
		}
		coeffs[i] = wq.Int64()
		worst.Add(worst, wq.Mul(wq, big.NewInt(c.Spare(i))))
	}
	if !p.IsInt64() || !worst.IsInt64() {
		return nil, 0, fmt.Errorf("objective can reach %v: %w", worst, ErrOverflow)
	}
	return coeffs, p.Int64(), nil
}

// PriorityOrder ranks tanks by spare capacity ascending, tightest first. Ties keep tank order.
func PriorityOrder(c *Capacity) []int {
	return lexweights.Order(c.NumTanks(), func(i, j int) bool {
		return c.Spare(i) < c.Spare(j)
	})
}

// BuildModel assembles the allocation model for `c` under `opts`. All weights and constants are
// checked before the first variable is created.
func BuildModel(c *Capacity, opts Options) (*Formulation, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	numTanks, numDemands := c.NumTanks(), c.NumDemands()

	order := PriorityOrder(c)
	base := new(big.Int).Add(c.TotalSpare(), big.NewInt(1))
	if base.Cmp(big.NewInt(2)) < 0 {
		// Every tank is full; any base separates zero-valued levels.
		base.SetInt64(2)
	}
	weights, err := lexweights.Weights(order, base)
	if err != nil {
		return nil, err
	}
	penalty, err := opts.penalty(numTanks)
	if err != nil {
		return nil, err
	}
	strandedCoeffs, useCoeff, err := objectiveCoeffs(c, weights, penalty)
	if err != nil {
		return nil, err
	}
	bigM, err := opts.bigM(c)
	if err != nil {
		return nil, err
	}

	f := &Formulation{
		Policy:   opts.Policy,
		Capacity: c,
		Order:    order,
		Weights:  weights,
		Penalty:  penalty,
		BigM:     bigM,
		Assign:   make([][]mipmodel.BoolVar, numTanks),
		Use:      make([]mipmodel.BoolVar, numTanks),
		Stranded: make([]mipmodel.NumVar, numTanks),
	}

	model := mipmodel.NewMipModelBuilder()
	model.SetName(fmt.Sprintf("tank_allocation_%v", opts.Policy))
	for i := 0; i < numTanks; i++ {
		f.Assign[i] = make([]mipmodel.BoolVar, numDemands)
		for d := 0; d < numDemands; d++ {
			f.Assign[i][d] = model.NewBoolVar().WithName(fmt.Sprintf("x_%d_%d", i, d))
		}
		f.Use[i] = model.NewBoolVar().WithName(fmt.Sprintf("use_%d", i))
		f.Stranded[i] = model.NewNumVar(0, c.Spare(i)).WithName(fmt.Sprintf("stranded_%d", i))
	}

	// Every demand goes to exactly one tank.
	for d := 0; d < numDemands; d++ {
		column := make([]mipmodel.BoolVar, numTanks)
		for i := range column {
			column[i] = f.Assign[i][d]
		}
		model.AddExactlyOne(column...).WithName(fmt.Sprintf("assign_%d", d))
	}

	objective := mipmodel.NewLinearExpr()
	for i := 0; i < numTanks; i++ {
		placed := mipmodel.NewLinearExpr()
		count := mipmodel.NewLinearExpr()
		for d := 0; d < numDemands; d++ {
			placed.AddTerm(f.Assign[i][d], c.Demand(d))
			count.Add(f.Assign[i][d])
		}
		spare := c.Spare(i)
		use, stranded := f.Use[i], f.Stranded[i]

		model.AddLessOrEqual(placed, mipmodel.NewConstant(spare)).WithName(fmt.Sprintf("capacity_%d", i))
		model.AddLessOrEqual(count, mipmodel.NewLinearExpr().AddTerm(use, int64(numDemands))).WithName(fmt.Sprintf("use_upper_%d", i))

		switch opts.Policy {
		case PolicyGated:
			model.AddGreaterOrEqual(count, use).WithName(fmt.Sprintf("use_lower_%d", i))
			// stranded >= spare - placed - M*(1-use)
			model.AddLinearConstraint(
				mipmodel.NewLinearExpr().Add(stranded).Add(placed).AddTerm(use, -bigM),
				spare-bigM, mipmodel.Infinity).WithName(fmt.Sprintf("stranded_lower_%d", i))
			// stranded <= spare - placed + M*(1-use)
			model.AddLinearConstraint(
				mipmodel.NewLinearExpr().Add(stranded).Add(placed).AddTerm(use, bigM),
				mipmodel.NegInfinity, spare+bigM).WithName(fmt.Sprintf("stranded_upper_%d", i))
			model.AddLessOrEqual(stranded, mipmodel.NewLinearExpr().AddTerm(use, bigM)).WithName(fmt.Sprintf("stranded_gate_%d", i))
		case PolicyActive:
			model.AddEquality(mipmodel.NewLinearExpr().Add(stranded).Add(placed), mipmodel.NewConstant(spare)).WithName(fmt.Sprintf("balance_%d", i))
		}

		objective.AddTerm(stranded, strandedCoeffs[i]).AddTerm(use, useCoeff)
	}
	model.Minimize(objective)

	m, err := model.Model()
	if err != nil {
		return nil, fmt.Errorf("building allocation model: %w", err)
	}
	f.Model = m
	return f, nil
}

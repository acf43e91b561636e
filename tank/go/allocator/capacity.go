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
	"strconv"
)

// Tank is the state of one tank before allocation.
type Tank struct {
	// Name is an optional label echoed in reports.
	Name         string
	CurrentLevel float64
	MaxLevel     float64
}

// Capacity holds validated tank state and demands in integer volume units. One input unit is
// `Scale()` volume units, where the scale is the smallest integer that makes every input exact.
// A Capacity is never modified after construction.
type Capacity struct {
	tanks   []Tank
	scale   int64
	current []int64
	max     []int64
	spare   []int64
	demands []int64
}

// exactRat interprets `v` by its shortest decimal representation, so that 0.1 is one tenth.
func exactRat(v float64) (*big.Rat, error) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil, fmt.Errorf("value %v is not finite: %w", v, ErrInvalidInput)
	}
	r, ok := new(big.Rat).SetString(strconv.FormatFloat(v, 'g', -1, 64))
	if !ok {
		return nil, fmt.Errorf("cannot parse %v: %w", v, ErrInvalidInput)
	}
	return r, nil
}

func lcm(a, b *big.Int) *big.Int {
	g := new(big.Int).GCD(nil, nil, a, b)
	out := new(big.Int).Quo(a, g)
	return out.Mul(out, b)
}

// NewCapacity validates `tanks` and `demands` and converts them to volume units.
//
// Every tank must satisfy `max_level >= current_level >= 0` and every demand must be positive;
// otherwise ErrInvalidInput is returned. ErrOverflow is returned when a scaled volume does not
// fit an int64.
func NewCapacity(tanks []Tank, demands []float64) (*Capacity, error) {
	levels := make([]*big.Rat, 0, 2*len(tanks))
	for i, t := range tanks {
		cur, err := exactRat(t.CurrentLevel)
		if err != nil {
			return nil, fmt.Errorf("tank %d current level: %w", i, err)
		}
		maxLevel, err := exactRat(t.MaxLevel)
		if err != nil {
			return nil, fmt.Errorf("tank %d max level: %w", i, err)
		}
		if cur.Sign() < 0 {
			return nil, fmt.Errorf("tank %d has negative current level %v: %w", i, t.CurrentLevel, ErrInvalidInput)
		}
		if cur.Cmp(maxLevel) > 0 {
			return nil, fmt.Errorf("tank %d current level %v exceeds max level %v: %w", i, t.CurrentLevel, t.MaxLevel, ErrInvalidInput)
		}
		levels = append(levels, cur, maxLevel)
	}
	volumes := make([]*big.Rat, len(demands))
	for d, v := range demands {
		r, err := exactRat(v)
		if err != nil {
			return nil, fmt.Errorf("demand %d: %w", d, err)
		}
		if r.Sign() <= 0 {
			return nil, fmt.Errorf("demand %d has non-positive volume %v: %w", d, v, ErrInvalidInput)
		}
		volumes[d] = r
	}

	scale := big.NewInt(1)
	for _, r := range append(append([]*big.Rat{}, levels...), volumes...) {
		scale = lcm(scale, r.Denom())
	}
	if !scale.IsInt64() {
		return nil, fmt.Errorf("volume scale %v: %w", scale, ErrOverflow)
	}
	toUnits := func(r *big.Rat, what string) (int64, error) {
		u := new(big.Int).Mul(r.Num(), scale)
		u.Quo(u, r.Denom())
		if !u.IsInt64() {
			return 0, fmt.Errorf("%s is %v volume units: %w", what, u, ErrOverflow)
		}
		return u.Int64(), nil
	}

	c := &Capacity{
		tanks:   append([]Tank(nil), tanks...),
		scale:   scale.Int64(),
		current: make([]int64, len(tanks)),
		max:     make([]int64, len(tanks)),
		spare:   make([]int64, len(tanks)),
		demands: make([]int64, len(demands)),
	}
	var err error
	for i := range tanks {
		if c.current[i], err = toUnits(levels[2*i], fmt.Sprintf("tank %d current level", i)); err != nil {
			return nil, err
		}
		if c.max[i], err = toUnits(levels[2*i+1], fmt.Sprintf("tank %d max level", i)); err != nil {
			return nil, err
		}
		// Both levels are non-negative, so the difference cannot overflow.
		c.spare[i] = c.max[i] - c.current[i]
	}
	for d, r := range volumes {
		if c.demands[d], err = toUnits(r, fmt.Sprintf("demand %d", d)); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// NumTanks returns the number of tanks.
func (c *Capacity) NumTanks() int { return len(c.tanks) }

// NumDemands returns the number of demands.
func (c *Capacity) NumDemands() int { return len(c.demands) }

// Tank returns tank `i` as supplied by the caller.
func (c *Capacity) Tank(i int) Tank { return c.tanks[i] }

// Scale returns the number of volume units per input unit.
func (c *Capacity) Scale() int64 { return c.scale }

// Current returns the current level of tank `i` in volume units.
func (c *Capacity) Current(i int) int64 { return c.current[i] }

// Spare returns `max_level - current_level` of tank `i` in volume units.
func (c *Capacity) Spare(i int) int64 { return c.spare[i] }

// Demand returns the volume of demand `d` in volume units.
func (c *Capacity) Demand(d int) int64 { return c.demands[d] }

// MaxSpare returns the largest spare capacity in volume units, or 0 without tanks.
func (c *Capacity) MaxSpare() int64 {
	var m int64
	for _, s := range c.spare {
		m = max(m, s)
	}
	return m
}

// TotalSpare returns the exact sum of all spare capacities in volume units.
func (c *Capacity) TotalSpare() *big.Int {
	total := new(big.Int)
	for _, s := range c.spare {
		total.Add(total, big.NewInt(s))
	}
	return total
}

// Volume converts an amount of volume units back to input units.
func (c *Capacity) Volume(units *big.Rat) float64 {
	f, _ := new(big.Rat).Quo(units, new(big.Rat).SetInt64(c.scale)).Float64()
	return f
}

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
	"fmt"
	"math/big"

	"google.golang.org/protobuf/types/known/structpb"
)

// VariableProto describes one decision variable of a mixed-integer model.
type VariableProto struct {
	Name string
	// Bounds of the variable. The lower bound must be finite.
	Bounds ClosedInterval
	// IsInteger restricts the variable to integral values.
	IsInteger bool
}

// LinearConstraintProto constrains `sum(Coeffs[k] * Vars[k])` to lie in `Bounds`.
type LinearConstraintProto struct {
	Name   string
	Vars   []int32
	Coeffs []int64
	Bounds ClosedInterval
}

// ObjectiveProto is always stored as a minimization of `sum(Coeffs[k] * Vars[k]) + Offset`.
// The reported objective value is that quantity multiplied by ScalingFactor, which is -1 for
// models built with Maximize.
type ObjectiveProto struct {
	Vars          []int32
	Coeffs        []int64
	Offset        int64
	ScalingFactor int64
}

// ModelProto is the solver-independent description of a mixed-integer linear program.
type ModelProto struct {
	Name        string
	Variables   []*VariableProto
	Constraints []*LinearConstraintProto
	Objective   *ObjectiveProto
}

// GetVariables returns the variables of the model, or nil for a nil model.
func (m *ModelProto) GetVariables() []*VariableProto {
	if m == nil {
		return nil
	}
	return m.Variables
}

// GetConstraints returns the constraints of the model, or nil for a nil model.
func (m *ModelProto) GetConstraints() []*LinearConstraintProto {
	if m == nil {
		return nil
	}
	return m.Constraints
}

// GetObjective returns the objective of the model, or nil when none was set.
func (m *ModelProto) GetObjective() *ObjectiveProto {
	if m == nil {
		return nil
	}
	return m.Objective
}

func (o *ObjectiveProto) scaling() int64 {
	if o == nil || o.ScalingFactor == 0 {
		return 1
	}
	return o.ScalingFactor
}

// Validate returns a non-nil error explaining the issue if the model is invalid.
func (m *ModelProto) Validate() error {
	if m == nil {
		return fmt.Errorf("nil model")
	}
	numVars := int32(len(m.Variables))
	for i, v := range m.Variables {
		if v == nil {
			return fmt.Errorf("variable #%d is nil", i)
		}
		if !v.Bounds.HasLower() {
			return fmt.Errorf("variable #%d (%q) has no finite lower bound", i, v.Name)
		}
		if v.Bounds.IsEmpty() {
			return fmt.Errorf("variable #%d (%q) has empty bounds [%d,%d]", i, v.Name, v.Bounds.Start, v.Bounds.End)
		}
	}
	checkTerms := func(what string, vars []int32, coeffs []int64) error {
		if len(vars) != len(coeffs) {
			return fmt.Errorf("%s has %d vars and %d coeffs", what, len(vars), len(coeffs))
		}
		for _, v := range vars {
			if v < 0 || v >= numVars {
				return fmt.Errorf("%s references unknown variable #%d", what, v)
			}
		}
		return nil
	}
	for i, c := range m.Constraints {
		if c == nil {
			return fmt.Errorf("constraint #%d is nil", i)
		}
		if err := checkTerms(fmt.Sprintf("constraint #%d (%q)", i, c.Name), c.Vars, c.Coeffs); err != nil {
			return err
		}
	}
	if o := m.Objective; o != nil {
		if err := checkTerms("objective", o.Vars, o.Coeffs); err != nil {
			return err
		}
		if s := o.ScalingFactor; s != 0 && s != 1 && s != -1 {
			return fmt.Errorf("objective scaling factor must be 1 or -1, got %d", s)
		}
	}
	return nil
}

// CheckSolution verifies that `values` holds one value per variable, within the variable bounds
// and integral for integer variables, and that every constraint is satisfied. The model must be
// valid.
func (m *ModelProto) CheckSolution(values []*big.Rat) error {
	if len(values) != len(m.GetVariables()) {
		return fmt.Errorf("solution has %d values for %d variables", len(values), len(m.GetVariables()))
	}
	for i, v := range m.GetVariables() {
		x := values[i]
		switch {
		case x == nil:
			return fmt.Errorf("variable #%d (%q) has no value", i, v.Name)
		case !v.Bounds.Contains(x):
			return fmt.Errorf("variable #%d (%q) = %s is out of bounds", i, v.Name, x.RatString())
		case v.IsInteger && !x.IsInt():
			return fmt.Errorf("integer variable #%d (%q) = %s is fractional", i, v.Name, x.RatString())
		}
	}
	activity, term := new(big.Rat), new(big.Rat)
	for i, c := range m.GetConstraints() {
		activity.SetInt64(0)
		for k, v := range c.Vars {
			term.SetInt64(c.Coeffs[k])
			activity.Add(activity, term.Mul(term, values[v]))
		}
		if !c.Bounds.Contains(activity) {
			return fmt.Errorf("constraint #%d (%q) is violated with activity %s", i, c.Name, activity.RatString())
		}
	}
	return nil
}

func boundsValue(c ClosedInterval) map[string]any {
	out := map[string]any{}
	if c.HasLower() {
		out["lower_bound"] = c.Start
	}
	if c.HasUpper() {
		out["upper_bound"] = c.End
	}
	return out
}

func termsValue(vars []int32, coeffs []int64) []any {
	terms := make([]any, len(vars))
	for k, v := range vars {
		terms[k] = map[string]any{"var_index": int64(v), "coefficient": coeffs[k]}
	}
	return terms
}

// Struct exports the model as a google.protobuf.Struct, which can be rendered with protojson
// for inspection or logging. Missing bounds are omitted.
func (m *ModelProto) Struct() (*structpb.Struct, error) {
	variables := make([]any, len(m.GetVariables()))
	for i, v := range m.GetVariables() {
		entry := boundsValue(v.Bounds)
		entry["name"] = v.Name
		entry["is_integer"] = v.IsInteger
		variables[i] = entry
	}
	constraints := make([]any, len(m.GetConstraints()))
	for i, c := range m.GetConstraints() {
		entry := boundsValue(c.Bounds)
		entry["name"] = c.Name
		entry["terms"] = termsValue(c.Vars, c.Coeffs)
		constraints[i] = entry
	}
	fields := map[string]any{
		"name":        m.GetName(),
		"variables":   variables,
		"constraints": constraints,
	}
	if o := m.GetObjective(); o != nil {
		fields["objective"] = map[string]any{
			"terms":          termsValue(o.Vars, o.Coeffs),
			"offset":         o.Offset,
			"scaling_factor": o.scaling(),
		}
	}
	s, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, fmt.Errorf("exporting model %q failed: %w", m.GetName(), err)
	}
	return s, nil
}

// GetName returns the name of the model.
func (m *ModelProto) GetName() string {
	if m == nil {
		return ""
	}
	return m.Name
}

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

// Package mipmodel offers a user-friendly API to build and solve mixed-integer linear programs.
//
// The `Builder` struct wraps a `ModelProto` and provides helper methods for adding variables,
// linear constraints and a linear objective to the model.
// The `IntVar`, `NumVar` and `BoolVar` structs are references to specific variables in the model
// and provide helpful methods for interacting with those variables.
// The `LinearExpr` struct provides helper methods for creating constraints and the objective
// from expressions with many variables and coefficients.
//
// Models are solved by `SolveMipModel` and its variants, which run a branch-and-bound search
// over an exact rational simplex. All coefficients are integers; variable values and the
// objective are reported as exact rationals.
package mipmodel

import (
	"errors"
	"fmt"
	"math/big"

	log "github.com/golang/glog"
)

// ErrMixedModels holds the error when elements added to a model are different.
var ErrMixedModels = errors.New("elements are not part of the same model")

type (
	// VarIndex is the index of a variable in the model proto, if positive. If this value is
	// negative, it represents the negation of a Boolean variable in the position (-1*VarIndex-1).
	VarIndex int32
	// ConstrIndex is the index of a constraint in the model proto.
	ConstrIndex int32
)

func (v VarIndex) positiveIndex() VarIndex {
	if v >= 0 {
		return v
	}
	return -1*v - 1
}

// LinearArgument provides an interface for BoolVar, IntVar, NumVar and LinearExpr.
type LinearArgument interface {
	addToLinearExpr(e *LinearExpr, c int64)
	evaluateSolutionValue(r *Response) *big.Rat
}

// LinearExpr is a container for a linear expression.
type LinearExpr struct {
	varCoeffs []varCoeff
	offset    int64
}

type varCoeff struct {
	ind   VarIndex
	coeff int64
}

// NewLinearExpr creates a new empty LinearExpr.
func NewLinearExpr() *LinearExpr {
	return &LinearExpr{}
}

// NewConstant creates and returns a LinearExpr containing the constant `c`.
func NewConstant(c int64) *LinearExpr {
	return &LinearExpr{offset: c}
}

// Add adds the linear argument term to the LinearExpr and returns itself.
func (l *LinearExpr) Add(la LinearArgument) *LinearExpr {
	l.AddTerm(la, 1)
	return l
}

// AddConstant adds the constant to the LinearExpr and returns itself.
func (l *LinearExpr) AddConstant(c int64) *LinearExpr {
	l.offset += c
	return l
}

// AddTerm adds the linear argument term with the given coefficient to the LinearExpr and returns itself.
func (l *LinearExpr) AddTerm(la LinearArgument, coeff int64) *LinearExpr {
	la.addToLinearExpr(l, coeff)
	return l
}

// AddSum adds the sum of the linear arguments to the LinearExpr and returns itself.
func (l *LinearExpr) AddSum(las ...LinearArgument) *LinearExpr {
	for _, la := range las {
		l.Add(la)
	}
	return l
}

// AddWeightedSum adds the linear arguments with the corresponding coefficients to the LinearExpr
// and returns itself.
func (l *LinearExpr) AddWeightedSum(las []LinearArgument, coeffs []int64) *LinearExpr {
	if len(coeffs) != len(las) {
		log.Fatalf("las and coeffs must be the same length: %v != %v", len(las), len(coeffs))
	}
	for i, la := range las {
		l.AddTerm(la, coeffs[i])
	}
	return l
}

func (l *LinearExpr) addToLinearExpr(e *LinearExpr, c int64) {
	for _, vc := range l.varCoeffs {
		e.varCoeffs = append(e.varCoeffs, varCoeff{ind: vc.ind, coeff: vc.coeff * c})
	}
	e.offset += l.offset * c
}

func (l *LinearExpr) evaluateSolutionValue(r *Response) *big.Rat {
	result := new(big.Rat).SetInt64(l.offset)

	term := new(big.Rat)
	for _, vc := range l.varCoeffs {
		term.SetInt64(vc.coeff)
		term.Mul(term, r.Solution[vc.ind])
		result.Add(result, term)
	}

	return result
}

// IntVar is a reference to an integer variable in the model.
type IntVar struct {
	ind VarIndex
	mb  *Builder
}

// Name returns the name of the variable.
func (i IntVar) Name() string {
	return i.mb.mpb.Variables[i.ind].Name
}

// Bounds returns the bounds of the variable.
func (i IntVar) Bounds() ClosedInterval {
	return i.mb.mpb.Variables[i.ind].Bounds
}

// Index returns the index of the variable.
func (i IntVar) Index() VarIndex {
	return i.ind
}

// WithName sets the name of the variable.
func (i IntVar) WithName(s string) IntVar {
	i.mb.mpb.Variables[i.ind].Name = s
	return i
}

func (i IntVar) addToLinearExpr(e *LinearExpr, c int64) {
	e.varCoeffs = append(e.varCoeffs, varCoeff{ind: i.ind, coeff: c})
}

func (i IntVar) evaluateSolutionValue(r *Response) *big.Rat {
	return new(big.Rat).Set(r.Solution[i.ind])
}

// NumVar is a reference to a continuous variable in the model.
type NumVar struct {
	ind VarIndex
	mb  *Builder
}

// Name returns the name of the variable.
func (n NumVar) Name() string {
	return n.mb.mpb.Variables[n.ind].Name
}

// Bounds returns the bounds of the variable.
func (n NumVar) Bounds() ClosedInterval {
	return n.mb.mpb.Variables[n.ind].Bounds
}

// Index returns the index of the variable.
func (n NumVar) Index() VarIndex {
	return n.ind
}

// WithName sets the name of the variable.
func (n NumVar) WithName(s string) NumVar {
	n.mb.mpb.Variables[n.ind].Name = s
	return n
}

func (n NumVar) addToLinearExpr(e *LinearExpr, c int64) {
	e.varCoeffs = append(e.varCoeffs, varCoeff{ind: n.ind, coeff: c})
}

func (n NumVar) evaluateSolutionValue(r *Response) *big.Rat {
	return new(big.Rat).Set(r.Solution[n.ind])
}

// BoolVar is a reference to a Boolean variable or the negation of a Boolean variable in the
// model. Boolean variables are integer variables with bounds `[0,1]`.
type BoolVar struct {
	ind VarIndex
	mb  *Builder
}

// Not returns the logical Not of the Boolean variable, usable as the linear term `1 - b`.
func (b BoolVar) Not() BoolVar {
	return BoolVar{ind: -1*b.ind - 1, mb: b.mb}
}

// Name returns the name of the variable.
func (b BoolVar) Name() string {
	return b.mb.mpb.Variables[b.ind.positiveIndex()].Name
}

// Index returns the index of the variable. If the variable is a negation of another variable v,
// its index is `-1*v.index-1`.
func (b BoolVar) Index() VarIndex {
	return b.ind
}

// WithName sets the name of the variable.
func (b BoolVar) WithName(s string) BoolVar {
	b.mb.mpb.Variables[b.ind.positiveIndex()].Name = s
	return b
}

func (b BoolVar) addToLinearExpr(e *LinearExpr, c int64) {
	if b.ind < 0 {
		e.varCoeffs = append(e.varCoeffs, varCoeff{ind: b.ind.positiveIndex(), coeff: -c})
		e.offset += c
	} else {
		e.varCoeffs = append(e.varCoeffs, varCoeff{ind: b.ind, coeff: c})
	}
}

func (b BoolVar) evaluateSolutionValue(r *Response) *big.Rat {
	v := r.Solution[b.ind.positiveIndex()]
	if b.ind < 0 {
		return new(big.Rat).Sub(big.NewRat(1, 1), v)
	}
	return new(big.Rat).Set(v)
}

// Constraint is a reference to a constraint in the model.
type Constraint struct {
	ind ConstrIndex
	mb  *Builder
}

// WithName sets the name of the constraint.
func (c Constraint) WithName(s string) Constraint {
	c.mb.mpb.Constraints[c.ind].Name = s
	return c
}

// Name returns the name of the constraint.
func (c Constraint) Name() string {
	return c.mb.mpb.Constraints[c.ind].Name
}

// Index returns the index of the constraint.
func (c Constraint) Index() ConstrIndex {
	return c.ind
}

// checkSameModelAndSetErrorf returns true if `mb` and `mb2` point to the same Builder.
// If false, an error with the error message `errString` is set on `mb` if `mb.err`
// is nil.
func (mb *Builder) checkSameModelAndSetErrorf(mb2 *Builder, format string, a ...any) bool {
	if mb == mb2 {
		return true
	}
	var args = make([]any, len(a)+1)
	copy(args, a)
	args[len(a)] = ErrMixedModels
	err := fmt.Errorf(format+": %w", args...)
	log.Errorf("%v; use `-log_backtrace_at` flag to get the error stack", err)
	if mb.err == nil {
		mb.err = err
	}
	return false
}

// Builder provides a wrapper for the ModelProto builder.
type Builder struct {
	mpb       *ModelProto
	constants map[int64]VarIndex
	// The first and only the first error is reported in Model.
	err error
}

// NewMipModelBuilder creates and returns a new model Builder.
func NewMipModelBuilder() *Builder {
	return &Builder{mpb: &ModelProto{}, constants: make(map[int64]VarIndex)}
}

// SetName sets the name of the model.
func (mb *Builder) SetName(name string) {
	mb.mpb.Name = name
}

func (mb *Builder) appendVariable(lb, ub int64, isInteger bool) VarIndex {
	ind := VarIndex(len(mb.mpb.Variables))
	mb.mpb.Variables = append(mb.mpb.Variables, &VariableProto{
		Bounds:    ClosedInterval{lb, ub},
		IsInteger: isInteger,
	})
	return ind
}

// NewIntVar creates a new integer variable with bounds `[lb,ub]` in the model proto.
func (mb *Builder) NewIntVar(lb, ub int64) IntVar {
	return IntVar{mb: mb, ind: mb.appendVariable(lb, ub, true)}
}

// NewNumVar creates a new continuous variable with bounds `[lb,ub]` in the model proto. Pass
// Infinity as `ub` for a variable without upper bound.
func (mb *Builder) NewNumVar(lb, ub int64) NumVar {
	return NumVar{mb: mb, ind: mb.appendVariable(lb, ub, false)}
}

// NewBoolVar creates a new BoolVar in the model proto.
func (mb *Builder) NewBoolVar() BoolVar {
	return BoolVar{mb: mb, ind: mb.appendVariable(0, 1, true)}
}

// NewConstant creates a constant variable. If this is called multiple times, the same variable will
// always be returned.
func (mb *Builder) NewConstant(v int64) IntVar {
	if i, ok := mb.constants[v]; ok {
		return IntVar{mb: mb, ind: i}
	}

	constVar := mb.NewIntVar(v, v)
	mb.constants[v] = constVar.ind
	return constVar
}

func (mb *Builder) checkExpr(le *LinearExpr, what string) {
	numVars := VarIndex(len(mb.mpb.Variables))
	for _, vc := range le.varCoeffs {
		if vc.ind >= numVars {
			mb.checkSameModelAndSetErrorf(nil, "invalid variable %v added to %s", vc.ind, what)
			return
		}
	}
}

// addLinearConstraint adds a linear constraint that enforces the value of `le` to be in the
// `interval`. The constant offset of `le` will be subtracted from the interval bounds.
func (mb *Builder) addLinearConstraint(le *LinearExpr, interval ClosedInterval) Constraint {
	ind := ConstrIndex(len(mb.mpb.Constraints))
	mb.checkExpr(le, fmt.Sprintf("constraint %v", ind))

	ct := &LinearConstraintProto{Bounds: interval.Offset(-le.offset)}
	for _, vc := range le.varCoeffs {
		ct.Vars = append(ct.Vars, int32(vc.ind))
		ct.Coeffs = append(ct.Coeffs, vc.coeff)
	}
	mb.mpb.Constraints = append(mb.mpb.Constraints, ct)

	return Constraint{ind: ind, mb: mb}
}

func (mb *Builder) linearArgumentOf(la LinearArgument, what string) *LinearExpr {
	switch v := la.(type) {
	case IntVar:
		mb.checkSameModelAndSetErrorf(v.mb, "invalid parameter intVar %v added to %s", v.Index(), what)
	case NumVar:
		mb.checkSameModelAndSetErrorf(v.mb, "invalid parameter numVar %v added to %s", v.Index(), what)
	case BoolVar:
		mb.checkSameModelAndSetErrorf(v.mb, "invalid parameter boolVar %v added to %s", v.Index(), what)
	}
	return NewLinearExpr().Add(la)
}

// AddLinearConstraint adds the linear constraint `lb <= expr <= ub`.
func (mb *Builder) AddLinearConstraint(expr LinearArgument, lb, ub int64) Constraint {
	linExpr := mb.linearArgumentOf(expr, "AddLinearConstraint")
	return mb.addLinearConstraint(linExpr, ClosedInterval{lb, ub})
}

func (mb *Builder) difference(lhs, rhs LinearArgument, what string) *LinearExpr {
	diff := mb.linearArgumentOf(lhs, what)
	return diff.AddTerm(mb.linearArgumentOf(rhs, what), -1)
}

// AddEquality adds the linear constraint `lhs == rhs`.
func (mb *Builder) AddEquality(lhs LinearArgument, rhs LinearArgument) Constraint {
	return mb.addLinearConstraint(mb.difference(lhs, rhs, "AddEquality"), ClosedInterval{0, 0})
}

// AddLessOrEqual adds the linear constraint `lhs <= rhs`.
func (mb *Builder) AddLessOrEqual(lhs LinearArgument, rhs LinearArgument) Constraint {
	return mb.addLinearConstraint(mb.difference(lhs, rhs, "AddLessOrEqual"), ClosedInterval{NegInfinity, 0})
}

// AddGreaterOrEqual adds the linear constraint `lhs >= rhs`.
func (mb *Builder) AddGreaterOrEqual(lhs LinearArgument, rhs LinearArgument) Constraint {
	return mb.addLinearConstraint(mb.difference(lhs, rhs, "AddGreaterOrEqual"), ClosedInterval{0, Infinity})
}

// AddExactlyOne adds the constraint that exactly one of the literals must be true.
func (mb *Builder) AddExactlyOne(bvs ...BoolVar) Constraint {
	sum := NewLinearExpr()
	for _, bv := range bvs {
		mb.checkSameModelAndSetErrorf(bv.mb, "invalid parameter boolVar %v added to AddExactlyOne", bv.Index())
		sum.Add(bv)
	}
	return mb.addLinearConstraint(sum, ClosedInterval{1, 1})
}

// AddImplication adds the constraint a => b.
func (mb *Builder) AddImplication(a, b BoolVar) Constraint {
	return mb.AddLessOrEqual(a, b)
}

func (mb *Builder) setObjective(obj LinearArgument, sign int64, what string) {
	o := mb.linearArgumentOf(obj, what)
	mb.checkExpr(o, "the objective")

	opb := &ObjectiveProto{ScalingFactor: sign}
	for _, varCoeff := range o.varCoeffs {
		opb.Vars = append(opb.Vars, int32(varCoeff.ind))
		opb.Coeffs = append(opb.Coeffs, sign*varCoeff.coeff)
	}
	opb.Offset = sign * o.offset

	mb.mpb.Objective = opb
}

// Minimize adds a linear minimization objective.
func (mb *Builder) Minimize(obj LinearArgument) {
	mb.setObjective(obj, 1, "Minimize")
}

// Maximize adds a linear maximization objective.
func (mb *Builder) Maximize(obj LinearArgument) {
	mb.setObjective(obj, -1, "Maximize")
}

// Model returns the built model proto. The proto returned is a pointer to the proto in Builder,
// and if modified, future calls to the Builder API can fail or result in an INVALID model.
//
// Model returns an error when invalid parameters have been used during model building (e.g.
// passing variables from other builders).
func (mb *Builder) Model() (*ModelProto, error) {
	if mb.err != nil {
		return nil, mb.err
	}
	return mb.mpb, nil
}

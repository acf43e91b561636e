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
	"testing"

	"github.com/google/go-cmp/cmp"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/testing/protocmp"
	"google.golang.org/protobuf/types/known/structpb"

	log "github.com/golang/glog"
)

func Example() {
	model := NewMipModelBuilder()

	x := model.NewIntVar(1, 10)
	y := model.NewIntVar(1, 10)

	model.AddEquality(NewLinearExpr().AddSum(x, y), NewConstant(15))
	model.Maximize(NewLinearExpr().AddTerm(x, 7).AddTerm(y, 1))
	m, err := model.Model()
	if err != nil {
		log.Fatalf("Building model returned with error %v", err)
	}

	res, err := SolveMipModel(m)
	if err != nil {
		log.Fatalf("MIP solver returned with unexpected err %v", err)
	}
	if res.GetStatus() != StatusOptimal {
		log.Fatalf("MIP solver returned with status %v", res.GetStatus())
	}

	fmt.Println("Objective:", res.Objective.RatString())
	fmt.Println("x:", SolutionValue(res, x).RatString())
	fmt.Println("y:", SolutionValue(res, y).RatString())
	// Output:
	// Objective: 75
	// x: 10
	// y: 5
}

func mustModel(t *testing.T, builder *Builder) *ModelProto {
	m, err := builder.Model()
	if err != nil {
		t.Fatalf("Model() returned with unexpected err %v", err)
	}
	return m
}

func TestBoolVar_Not(t *testing.T) {
	model := NewMipModelBuilder()

	bv1 := model.NewBoolVar().WithName("bv1")
	bv2 := bv1.Not()
	bv3 := bv2.Not()

	want := -1*bv1.Index() - 1
	if got := bv2.Index(); got != want {
		t.Errorf("Index() = %v, want %v", got, want)
	}
	want = bv1.Index()
	if got := bv3.Index(); got != want {
		t.Errorf("Index() = %v, want %v", got, want)
	}
	if got := bv2.Name(); got != "bv1" {
		t.Errorf("Not().Name() = %q, want %q", got, "bv1")
	}
}

func TestVar_Name(t *testing.T) {
	testCases := []struct {
		name    string
		varName func() string
		want    string
	}{
		{
			name: "IntVarName",
			varName: func() string {
				model := NewMipModelBuilder()
				return model.NewIntVar(0, 10).WithName("iv1").Name()
			},
			want: "iv1",
		},
		{
			name: "NumVarName",
			varName: func() string {
				model := NewMipModelBuilder()
				return model.NewNumVar(0, Infinity).WithName("nv1").Name()
			},
			want: "nv1",
		},
		{
			name: "BoolVarName",
			varName: func() string {
				model := NewMipModelBuilder()
				return model.NewBoolVar().WithName("bv1").Name()
			},
			want: "bv1",
		},
		{
			name: "ConstraintName",
			varName: func() string {
				model := NewMipModelBuilder()
				bv := model.NewBoolVar()
				return model.AddExactlyOne(bv).WithName("ct1").Name()
			},
			want: "ct1",
		},
	}

	for _, test := range testCases {
		t.Run(test.name, func(t *testing.T) {
			if got := test.varName(); got != test.want {
				t.Errorf("Name() returned %q, want %q", got, test.want)
			}
		})
	}
}

func TestVar_VariableProto(t *testing.T) {
	model := NewMipModelBuilder()

	iv := model.NewIntVar(-3, 7).WithName("iv")
	nv := model.NewNumVar(0, Infinity).WithName("nv")
	bv := model.NewBoolVar().WithName("bv")
	c := model.NewConstant(4)

	m := mustModel(t, model)
	want := []*VariableProto{
		{Name: "iv", Bounds: ClosedInterval{-3, 7}, IsInteger: true},
		{Name: "nv", Bounds: ClosedInterval{0, Infinity}},
		{Name: "bv", Bounds: ClosedInterval{0, 1}, IsInteger: true},
		{Bounds: ClosedInterval{4, 4}, IsInteger: true},
	}
	if diff := cmp.Diff(want, m.GetVariables()); diff != "" {
		t.Errorf("GetVariables() returned with unexpected diff (-want+got):\n%s", diff)
	}
	if got := []VarIndex{iv.Index(), nv.Index(), bv.Index(), c.Index()}; !cmp.Equal(got, []VarIndex{0, 1, 2, 3}) {
		t.Errorf("variable indices = %v, want [0 1 2 3]", got)
	}
	if again := model.NewConstant(4); again.Index() != c.Index() {
		t.Errorf("NewConstant(4) returned index %v, want cached index %v", again.Index(), c.Index())
	}
}

func TestLinearExpr(t *testing.T) {
	model := NewMipModelBuilder()

	iv1 := model.NewIntVar(2, 8).WithName("iv1")
	nv := model.NewNumVar(1, 5).WithName("nv")
	bv := model.NewBoolVar().WithName("bv1")
	lin := NewLinearExpr().AddWeightedSum([]LinearArgument{iv1, bv}, []int64{10, 20})

	testCases := []struct {
		name      string
		buildExpr func() *LinearExpr
		want      *LinearExpr
	}{
		{
			name:      "NewConstant",
			buildExpr: func() *LinearExpr { return NewConstant(42) },
			want:      &LinearExpr{varCoeffs: nil, offset: 42},
		},
		{
			name:      "AddIntVar",
			buildExpr: func() *LinearExpr { return NewLinearExpr().Add(iv1) },
			want: &LinearExpr{
				varCoeffs: []varCoeff{{ind: iv1.Index(), coeff: 1}},
				offset:    0},
		},
		{
			name:      "AddBoolVarNot",
			buildExpr: func() *LinearExpr { return NewLinearExpr().Add(bv.Not()) },
			want: &LinearExpr{
				varCoeffs: []varCoeff{{ind: bv.Index(), coeff: -1}},
				offset:    1},
		},
		{
			name:      "AddTermBoolVarNot",
			buildExpr: func() *LinearExpr { return NewLinearExpr().AddTerm(bv.Not(), 7) },
			want: &LinearExpr{
				varCoeffs: []varCoeff{{ind: bv.Index(), coeff: -7}},
				offset:    7},
		},
		{
			name:      "AddNumVar",
			buildExpr: func() *LinearExpr { return NewLinearExpr().AddTerm(nv, 3).AddConstant(-2) },
			want: &LinearExpr{
				varCoeffs: []varCoeff{{ind: nv.Index(), coeff: 3}},
				offset:    -2},
		},
		{
			name:      "AddScaledLinearExpr",
			buildExpr: func() *LinearExpr { return NewLinearExpr().AddTerm(lin, 2) },
			want: &LinearExpr{
				varCoeffs: []varCoeff{{ind: iv1.Index(), coeff: 20}, {ind: bv.Index(), coeff: 40}},
				offset:    0},
		},
		{
			name:      "AddSum",
			buildExpr: func() *LinearExpr { return NewLinearExpr().AddSum(iv1, nv, bv) },
			want: &LinearExpr{
				varCoeffs: []varCoeff{{ind: iv1.Index(), coeff: 1}, {ind: nv.Index(), coeff: 1}, {ind: bv.Index(), coeff: 1}},
				offset:    0},
		},
	}

	for _, test := range testCases {
		t.Run(test.name, func(t *testing.T) {
			got := test.buildExpr()
			if diff := cmp.Diff(test.want, got, cmp.AllowUnexported(LinearExpr{}, varCoeff{})); diff != "" {
				t.Errorf("buildExpr() returned with unexpected diff (-want+got):\n%s", diff)
			}
		})
	}
}

func TestMipModelBuilder_Constraints(t *testing.T) {
	model := NewMipModelBuilder()

	bv1 := model.NewBoolVar()
	bv2 := model.NewBoolVar()
	iv1 := model.NewIntVar(-10, 10)
	nv1 := model.NewNumVar(0, 10)

	testCases := []struct {
		name       string
		constraint func() *LinearConstraintProto
		want       *LinearConstraintProto
	}{
		{
			name: "AddLinearConstraint",
			constraint: func() *LinearConstraintProto {
				c := model.AddLinearConstraint(NewLinearExpr().AddTerm(iv1, 2).AddConstant(3), -1, 5)
				return mustModel(t, model).GetConstraints()[c.Index()]
			},
			want: &LinearConstraintProto{
				Vars:   []int32{int32(iv1.Index())},
				Coeffs: []int64{2},
				Bounds: ClosedInterval{-4, 2},
			},
		},
		{
			name: "AddEquality",
			constraint: func() *LinearConstraintProto {
				c := model.AddEquality(nv1, NewLinearExpr().AddTerm(iv1, 4).AddConstant(1))
				return mustModel(t, model).GetConstraints()[c.Index()]
			},
			want: &LinearConstraintProto{
				Vars:   []int32{int32(nv1.Index()), int32(iv1.Index())},
				Coeffs: []int64{1, -4},
				Bounds: ClosedInterval{1, 1},
			},
		},
		{
			name: "AddLessOrEqual",
			constraint: func() *LinearConstraintProto {
				c := model.AddLessOrEqual(nv1, NewLinearExpr().AddTerm(bv1.Not(), 10))
				return mustModel(t, model).GetConstraints()[c.Index()]
			},
			want: &LinearConstraintProto{
				Vars:   []int32{int32(nv1.Index()), int32(bv1.Index())},
				Coeffs: []int64{1, 10},
				Bounds: ClosedInterval{NegInfinity, 10},
			},
		},
		{
			name: "AddGreaterOrEqual",
			constraint: func() *LinearConstraintProto {
				c := model.AddGreaterOrEqual(NewLinearExpr().AddSum(bv1, bv2), bv2)
				return mustModel(t, model).GetConstraints()[c.Index()]
			},
			want: &LinearConstraintProto{
				Vars:   []int32{int32(bv1.Index()), int32(bv2.Index()), int32(bv2.Index())},
				Coeffs: []int64{1, 1, -1},
				Bounds: ClosedInterval{0, Infinity},
			},
		},
		{
			name: "AddExactlyOne",
			constraint: func() *LinearConstraintProto {
				c := model.AddExactlyOne(bv1, bv2.Not())
				return mustModel(t, model).GetConstraints()[c.Index()]
			},
			want: &LinearConstraintProto{
				Vars:   []int32{int32(bv1.Index()), int32(bv2.Index())},
				Coeffs: []int64{1, -1},
				Bounds: ClosedInterval{0, 0},
			},
		},
		{
			name: "AddImplication",
			constraint: func() *LinearConstraintProto {
				c := model.AddImplication(bv1, bv2)
				return mustModel(t, model).GetConstraints()[c.Index()]
			},
			want: &LinearConstraintProto{
				Vars:   []int32{int32(bv1.Index()), int32(bv2.Index())},
				Coeffs: []int64{1, -1},
				Bounds: ClosedInterval{NegInfinity, 0},
			},
		},
	}

	for _, test := range testCases {
		t.Run(test.name, func(t *testing.T) {
			got := test.constraint()
			if diff := cmp.Diff(test.want, got); diff != "" {
				t.Errorf("constraint() returned with unexpected diff (-want+got):\n%s", diff)
			}
		})
	}
}

func TestMipModelBuilder_Minimize(t *testing.T) {
	model := NewMipModelBuilder()

	iv1 := model.NewIntVar(-10, 10)
	iv2 := model.NewIntVar(-10, 10)

	model.Minimize(NewLinearExpr().AddTerm(iv1, 3).AddTerm(iv2, 5))

	m := mustModel(t, model)
	want := &ObjectiveProto{
		Vars:          []int32{int32(iv1.Index()), int32(iv2.Index())},
		Coeffs:        []int64{3, 5},
		ScalingFactor: 1,
	}
	if diff := cmp.Diff(want, m.GetObjective()); diff != "" {
		t.Errorf("GetObjective() returned unexpected diff (-want+got): %v", diff)
	}
}

func TestMipModelBuilder_Maximize(t *testing.T) {
	model := NewMipModelBuilder()

	iv1 := model.NewIntVar(-10, 10)
	iv2 := model.NewIntVar(-10, 10)

	model.Maximize(NewLinearExpr().AddTerm(iv1, 3).AddTerm(iv2, 5).AddConstant(7))
	want := &ObjectiveProto{
		Vars:          []int32{int32(iv1.Index()), int32(iv2.Index())},
		Coeffs:        []int64{-3, -5},
		ScalingFactor: -1,
		Offset:        -7,
	}

	m := mustModel(t, model)
	if diff := cmp.Diff(want, m.GetObjective()); diff != "" {
		t.Errorf("GetObjective() returned unexpected diff (-want+got): %v", diff)
	}
}

func TestMipModelBuilder_ErrorHandling(t *testing.T) {
	testCases := []struct {
		name    string
		builder func() *Builder
	}{
		{
			name: "AddEquality",
			builder: func() *Builder {
				model1 := NewMipModelBuilder()
				model2 := NewMipModelBuilder()
				model1.AddEquality(model1.NewIntVar(0, 1), model2.NewIntVar(0, 1))
				return model1
			},
		},
		{
			name: "AddExactlyOne",
			builder: func() *Builder {
				model1 := NewMipModelBuilder()
				model2 := NewMipModelBuilder()
				model1.AddExactlyOne(model2.NewBoolVar())
				return model1
			},
		},
		{
			name: "Minimize",
			builder: func() *Builder {
				model1 := NewMipModelBuilder()
				model2 := NewMipModelBuilder()
				model1.Minimize(model2.NewNumVar(0, 1))
				return model1
			},
		},
		{
			name: "UnknownVariableInExpr",
			builder: func() *Builder {
				model1 := NewMipModelBuilder()
				model2 := NewMipModelBuilder()
				model2.NewIntVar(0, 1)
				model1.AddLinearConstraint(NewLinearExpr().Add(model2.NewIntVar(0, 1)), 0, 1)
				return model1
			},
		},
	}

	for _, test := range testCases {
		t.Run(test.name, func(t *testing.T) {
			got, err := test.builder().Model()
			if !errors.Is(err, ErrMixedModels) {
				t.Errorf("test.Model() returned with unexpected error %v; want ErrMixedModels error", err)
			}
			if got != nil {
				t.Errorf("test.Model() returned with unexpected model %v; want nil", got)
			}
		})
	}
}

func TestModelProto_Validate(t *testing.T) {
	testCases := []struct {
		name  string
		model *ModelProto
	}{
		{
			name:  "EmptyBounds",
			model: &ModelProto{Variables: []*VariableProto{{Bounds: ClosedInterval{0, -1}}}},
		},
		{
			name:  "NoLowerBound",
			model: &ModelProto{Variables: []*VariableProto{{Bounds: ClosedInterval{NegInfinity, 0}}}},
		},
		{
			name: "UnknownVariable",
			model: &ModelProto{
				Variables:   []*VariableProto{{Bounds: ClosedInterval{0, 1}}},
				Constraints: []*LinearConstraintProto{{Vars: []int32{1}, Coeffs: []int64{1}, Bounds: ClosedInterval{0, 1}}},
			},
		},
		{
			name: "MismatchedTerms",
			model: &ModelProto{
				Variables: []*VariableProto{{Bounds: ClosedInterval{0, 1}}},
				Objective: &ObjectiveProto{Vars: []int32{0}},
			},
		},
		{
			name: "BadScalingFactor",
			model: &ModelProto{
				Variables: []*VariableProto{{Bounds: ClosedInterval{0, 1}}},
				Objective: &ObjectiveProto{Vars: []int32{0}, Coeffs: []int64{1}, ScalingFactor: 2},
			},
		},
	}

	for _, test := range testCases {
		t.Run(test.name, func(t *testing.T) {
			if err := test.model.Validate(); err == nil {
				t.Errorf("Validate() returned nil error, want an error")
			}
		})
	}
}

func TestModelProto_CheckSolution(t *testing.T) {
	model := NewMipModelBuilder()
	x := model.NewIntVar(0, 3).WithName("x")
	y := model.NewNumVar(0, 10).WithName("y")
	model.AddLessOrEqual(NewLinearExpr().Add(x).AddTerm(y, 2), NewConstant(5)).WithName("limit")
	m := mustModel(t, model)

	rats := func(vs ...*big.Rat) []*big.Rat { return vs }
	testCases := []struct {
		name    string
		values  []*big.Rat
		wantErr bool
	}{
		{
			name:   "Valid",
			values: rats(big.NewRat(1, 1), big.NewRat(2, 1)),
		},
		{
			name:   "FractionalContinuous",
			values: rats(big.NewRat(0, 1), big.NewRat(5, 2)),
		},
		{
			name:    "Empty",
			wantErr: true,
		},
		{
			name:    "Short",
			values:  rats(big.NewRat(1, 1)),
			wantErr: true,
		},
		{
			name:    "MissingValue",
			values:  rats(nil, big.NewRat(0, 1)),
			wantErr: true,
		},
		{
			name:    "OutOfBounds",
			values:  rats(big.NewRat(4, 1), big.NewRat(0, 1)),
			wantErr: true,
		},
		{
			name:    "FractionalInteger",
			values:  rats(big.NewRat(1, 2), big.NewRat(0, 1)),
			wantErr: true,
		},
		{
			name:    "ViolatedConstraint",
			values:  rats(big.NewRat(3, 1), big.NewRat(2, 1)),
			wantErr: true,
		},
	}

	for _, test := range testCases {
		t.Run(test.name, func(t *testing.T) {
			err := m.CheckSolution(test.values)
			if gotErr := err != nil; gotErr != test.wantErr {
				t.Errorf("CheckSolution() returned error %v, want error %v", err, test.wantErr)
			}
		})
	}
}

func TestModelProto_Struct(t *testing.T) {
	model := NewMipModelBuilder()
	model.SetName("tiny")
	x := model.NewIntVar(0, 3).WithName("x")
	model.AddLessOrEqual(x, NewConstant(2)).WithName("cap")
	model.Minimize(x)

	got, err := mustModel(t, model).Struct()
	if err != nil {
		t.Fatalf("Struct() returned with unexpected error %v", err)
	}

	want := &structpb.Struct{}
	if err := protojson.Unmarshal([]byte(`{
		"name": "tiny",
		"variables": [{"name": "x", "is_integer": true, "lower_bound": 0, "upper_bound": 3}],
		"constraints": [{"name": "cap", "upper_bound": 2, "terms": [{"var_index": 0, "coefficient": 1}]}],
		"objective": {"terms": [{"var_index": 0, "coefficient": 1}], "offset": 0, "scaling_factor": 1}
	}`), want); err != nil {
		t.Fatalf("protojson.Unmarshal() returned with unexpected error %v", err)
	}
	if diff := cmp.Diff(want, got, protocmp.Transform()); diff != "" {
		t.Errorf("Struct() returned unexpected diff (-want+got):\n%s", diff)
	}
}

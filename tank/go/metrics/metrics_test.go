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

package metrics

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/orlab/tankfill/tank/go/allocator"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestStatusLabel(t *testing.T) {
	testCases := []struct {
		name string
		res  *allocator.Result
		err  error
		want string
	}{
		{
			name: "Optimal",
			res:  &allocator.Result{Status: allocator.StatusOptimal},
			want: "optimal",
		},
		{
			name: "SolverError",
			res:  &allocator.Result{Status: allocator.StatusError},
			err:  allocator.ErrSolver,
			want: "error",
		},
		{
			name: "Invalid",
			err:  fmt.Errorf("demand 0: %w", allocator.ErrInvalidInput),
			want: StatusInvalid,
		},
		{
			name: "Overflow",
			err:  fmt.Errorf("weights: %w", allocator.ErrOverflow),
			want: StatusOverflow,
		},
	}

	for _, test := range testCases {
		t.Run(test.name, func(t *testing.T) {
			if got := StatusLabel(test.res, test.err); got != test.want {
				t.Errorf("StatusLabel() = %q, want %q", got, test.want)
			}
		})
	}
}

func TestRecorder_Observe(t *testing.T) {
	r := NewRecorder(false)

	optimal := &allocator.Result{
		Status: allocator.StatusOptimal,
		Report: &allocator.Report{TotalStranded: 2},
		Stats:  allocator.Stats{Branches: 5},
	}
	r.Observe(allocator.PolicyActive, optimal, nil, 20*time.Millisecond)
	r.Observe(allocator.PolicyActive, optimal, nil, 30*time.Millisecond)
	r.Observe(allocator.PolicyGated, &allocator.Result{Status: allocator.StatusInfeasible}, nil, time.Millisecond)
	r.Observe(allocator.PolicyGated, nil, allocator.ErrInvalidInput, 0)

	if got := testutil.ToFloat64(r.solves.WithLabelValues("active", "optimal")); got != 2 {
		t.Errorf("active/optimal solves = %v, want 2", got)
	}
	if got := r.Solves(allocator.PolicyGated, "infeasible"); got != 1 {
		t.Errorf("Solves(gated, infeasible) = %v, want 1", got)
	}
	if got := r.Solves(allocator.PolicyGated, StatusInvalid); got != 1 {
		t.Errorf("Solves(gated, invalid) = %v, want 1", got)
	}
	if got := r.Solves(allocator.PolicyActive, "error"); got != 0 {
		t.Errorf("Solves(active, error) = %v, want 0", got)
	}

	// Branches are recorded for every solve that reached the solver, stranded volume only for
	// optimal ones.
	if got, want := testutil.CollectAndCount(r.branches), 2; got != want {
		t.Errorf("branches series = %d, want %d", got, want)
	}
	if got, want := testutil.CollectAndCount(r.stranded), 1; got != want {
		t.Errorf("stranded series = %d, want %d", got, want)
	}

	want := `
# HELP tankfill_solves_total Allocation solves by policy and status.
# TYPE tankfill_solves_total counter
tankfill_solves_total{policy="active",status="optimal"} 2
tankfill_solves_total{policy="gated",status="infeasible"} 1
tankfill_solves_total{policy="gated",status="invalid"} 1
`
	if err := testutil.GatherAndCompare(r.Registry, strings.NewReader(want), "tankfill_solves_total"); err != nil {
		t.Errorf("GatherAndCompare() returned unexpected error: %v", err)
	}
}

func TestNewRecorder_Runtime(t *testing.T) {
	r := NewRecorder(true)
	families, err := r.Registry.Gather()
	if err != nil {
		t.Fatalf("Gather() returned with unexpected error %v", err)
	}
	found := false
	for _, f := range families {
		if strings.HasPrefix(f.GetName(), "go_") {
			found = true
			break
		}
	}
	if !found {
		t.Errorf("Gather() returned no Go runtime metrics")
	}
}

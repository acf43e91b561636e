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

// The tank_allocation_sample command solves a batch of tank allocation scenarios and prints the
// allocation of every scenario followed by a summary.
//
// Without --scenarios it solves the base case: four tanks filled to 95 at most, holding
// [20, 0, 80, 0], and the demands [56, 2, 18, 40] in two different orders.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"time"

	log "github.com/golang/glog"
	"github.com/google/uuid"
	"github.com/orlab/tankfill/tank/go/allocator"
	"github.com/orlab/tankfill/tank/go/metrics"
	"github.com/orlab/tankfill/tank/go/scenario"
	"google.golang.org/protobuf/encoding/protojson"
)

var (
	scenariosPath = flag.String("scenarios", "", "YAML scenario file; the base case when empty")
	policyFlag    = flag.String("policy", "", "overrides the policy of every scenario (gated or active)")
	timeLimit     = flag.Duration("time_limit", 0, "overrides the solver time limit of every scenario")
	workers       = flag.Int("workers", 0, "maximum number of concurrent solves; 0 uses GOMAXPROCS")
	printModel    = flag.Bool("print_model", false, "prints the model of every scenario as JSON")
)

func baseCase() []scenario.Case {
	tanks := []allocator.Tank{
		{Name: "tank_0", CurrentLevel: 20, MaxLevel: 95},
		{Name: "tank_1", CurrentLevel: 0, MaxLevel: 95},
		{Name: "tank_2", CurrentLevel: 80, MaxLevel: 95},
		{Name: "tank_3", CurrentLevel: 0, MaxLevel: 95},
	}
	opts := allocator.Options{Policy: allocator.PolicyActive}
	return []scenario.Case{
		{ID: uuid.NewString(), Name: "base_case_1", Tanks: tanks, Demands: []float64{56, 2, 18, 40}, Options: opts},
		{ID: uuid.NewString(), Name: "base_case_2", Tanks: tanks, Demands: []float64{56, 18, 2, 40}, Options: opts},
	}
}

func loadCases() ([]scenario.Case, error) {
	cases := baseCase()
	if *scenariosPath != "" {
		f, err := scenario.LoadFile(*scenariosPath)
		if err != nil {
			return nil, err
		}
		if cases, err = f.Cases(); err != nil {
			return nil, err
		}
	}
	for i := range cases {
		if *policyFlag != "" {
			p, err := allocator.ParsePolicy(*policyFlag)
			if err != nil {
				return nil, err
			}
			cases[i].Options.Policy = p
		}
		if *timeLimit > 0 {
			cases[i].Options.SolverTimeLimit = *timeLimit
		}
	}
	return cases, nil
}

func printCaseModel(c scenario.Case) error {
	capacity, err := allocator.NewCapacity(c.Tanks, c.Demands)
	if err != nil {
		return err
	}
	f, err := allocator.BuildModel(capacity, c.Options)
	if err != nil {
		return err
	}
	s, err := f.Model.Struct()
	if err != nil {
		return err
	}
	b, err := protojson.MarshalOptions{Multiline: true}.Marshal(s)
	if err != nil {
		return err
	}
	fmt.Printf("Model of %s:\n%s\n", c.Name, b)
	return nil
}

func printOutcome(iteration int, o scenario.Outcome) error {
	fmt.Printf("Scenario %d (%s, %v policy)\n", iteration, o.Case.Name, o.Case.Options.Policy)
	if !o.OK() {
		fmt.Printf("Solver failed to find an optimal solution: %v\n", metrics.StatusLabel(o.Result, o.Err))
		if o.Err != nil {
			fmt.Printf("  %v\n", o.Err)
		}
		return nil
	}
	for _, t := range o.Result.Report.Tanks {
		fmt.Printf("  %-8s demands %-10v placed %6v  new level %6v  stranded %6v\n",
			t.Name, t.PlacedDemands, t.PlacedVolume, t.ResultingFill, t.Stranded)
	}
	s, err := o.Result.Report.Struct()
	if err != nil {
		return err
	}
	b, err := protojson.Marshal(s)
	if err != nil {
		return err
	}
	log.V(1).Infof("report of %s: %s", o.Case.Name, b)
	fmt.Printf("  branches: %d, LP iterations: %d, wall time: %v\n",
		o.Result.Stats.Branches, o.Result.Stats.LPIterations, o.Elapsed.Round(time.Millisecond))
	return nil
}

func tankAllocationSample(ctx context.Context) error {
	cases, err := loadCases()
	if err != nil {
		return fmt.Errorf("failed to load scenarios: %w", err)
	}
	if *printModel {
		for _, c := range cases {
			if err := printCaseModel(c); err != nil {
				return fmt.Errorf("failed to build the model of %s: %w", c.Name, err)
			}
		}
	}

	recorder := metrics.NewRecorder(false)
	runner := &scenario.Runner{Workers: *workers, Recorder: recorder}
	outcomes, diag, err := runner.Run(ctx, cases)
	for i, o := range outcomes {
		if err := printOutcome(i+1, o); err != nil {
			return err
		}
	}
	if err != nil {
		return err
	}

	fmt.Println()
	fmt.Println("Summary:")
	fmt.Println(" ", diag)

	families, err := recorder.Registry.Gather()
	if err != nil {
		return fmt.Errorf("failed to gather metrics: %w", err)
	}
	for _, f := range families {
		log.Infof("metric %s: %d series", f.GetName(), len(f.GetMetric()))
	}
	return nil
}

func main() {
	flag.Parse()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := tankAllocationSample(ctx); err != nil {
		log.Exitf("tankAllocationSample returned with error: %v", err)
	}
}

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

package scenario

import (
	"context"
	"fmt"
	"runtime"
	"time"

	log "github.com/golang/glog"
	"github.com/orlab/tankfill/tank/go/allocator"
	"github.com/orlab/tankfill/tank/go/metrics"
	"golang.org/x/sync/errgroup"
)

// Outcome is the result of solving one Case.
type Outcome struct {
	Case    Case
	Result  *allocator.Result
	Err     error
	Elapsed time.Duration
}

// OK reports whether the case was solved to optimality.
func (o Outcome) OK() bool {
	return o.Err == nil && o.Result != nil && o.Result.Status == allocator.StatusOptimal
}

// Diagnostics summarizes a batch of outcomes.
type Diagnostics struct {
	// OK is true if every case was solved to optimality.
	OK bool
	// TotalStranded is the total stranded volume of the last optimal case in input order. It is
	// only meaningful when HasStranded is set.
	TotalStranded float64
	HasStranded   bool
	// Iterations is the number of cases that were run.
	Iterations int
}

func (d Diagnostics) String() string {
	stranded := "none"
	if d.HasStranded {
		stranded = fmt.Sprint(d.TotalStranded)
	}
	return fmt.Sprintf("ok=%v total_stranded=%s iterations=%d", d.OK, stranded, d.Iterations)
}

// Summarize computes the diagnostics of `outcomes`, which must be in input order.
func Summarize(outcomes []Outcome) Diagnostics {
	d := Diagnostics{OK: true, Iterations: len(outcomes)}
	for _, o := range outcomes {
		if !o.OK() {
			d.OK = false
			continue
		}
		d.TotalStranded = o.Result.Report.TotalStranded
		d.HasStranded = true
	}
	return d
}

// Runner solves cases in parallel. Every case gets its own model and nothing is shared between
// solves. The zero value is ready to use.
type Runner struct {
	// Workers bounds the number of concurrent solves. Zero means runtime.GOMAXPROCS(0).
	Workers int
	// Recorder, if set, records every solve.
	Recorder *metrics.Recorder
	// Solver, if set, replaces the solver of every case.
	Solver allocator.Solver
}

// Run solves `cases` and returns their outcomes in input order with their diagnostics. Solve
// failures are reported per outcome. Run only returns an error if `ctx` is done before every case
// was started; the outcomes of the cases that ran are still returned.
func (r *Runner) Run(ctx context.Context, cases []Case) ([]Outcome, Diagnostics, error) {
	workers := r.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	outcomes := make([]Outcome, len(cases))
	started := make([]bool, len(cases))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := range cases {
		if gctx.Err() != nil {
			break
		}
		started[i] = true
		i := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				started[i] = false
				return err
			}
			outcomes[i] = r.solve(gctx, cases[i])
			return nil
		})
	}
	err := g.Wait()

	ran := make([]Outcome, 0, len(cases))
	for i, o := range outcomes {
		if started[i] {
			ran = append(ran, o)
		}
	}
	d := Summarize(ran)
	if err == nil && len(ran) < len(cases) {
		err = ctx.Err()
	}
	if err != nil {
		return ran, d, fmt.Errorf("scenario run stopped after %d of %d cases: %w", len(ran), len(cases), err)
	}
	return ran, d, nil
}

func (r *Runner) solve(ctx context.Context, c Case) Outcome {
	opts := c.Options
	if r.Solver != nil {
		opts.Solver = r.Solver
	}
	start := time.Now()
	res, err := allocator.Solve(ctx, c.Tanks, c.Demands, opts)
	elapsed := time.Since(start)
	if r.Recorder != nil {
		r.Recorder.Observe(opts.Policy, res, err, elapsed)
	}
	if err != nil {
		log.Warningf("scenario %s (%s) failed: %v", c.Name, c.ID, err)
	} else {
		log.V(1).Infof("scenario %s (%s): %v in %v", c.Name, c.ID, res.Status, elapsed)
	}
	return Outcome{Case: c, Result: res, Err: err, Elapsed: elapsed}
}

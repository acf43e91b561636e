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

// Package metrics exports Prometheus metrics about allocation solves.
package metrics

import (
	"errors"
	"time"

	"github.com/orlab/tankfill/tank/go/allocator"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const solvesName = "tankfill_solves_total"

// Status labels for solves rejected before reaching the solver.
const (
	StatusInvalid  = "invalid"
	StatusOverflow = "overflow"
)

// Recorder records solve outcomes on its own registry. A Recorder is safe for concurrent use.
type Recorder struct {
	// Registry holds the collectors of the Recorder.
	Registry *prometheus.Registry

	solves   *prometheus.CounterVec
	duration *prometheus.HistogramVec
	branches *prometheus.HistogramVec
	stranded *prometheus.HistogramVec
}

// NewRecorder creates a Recorder with a dedicated registry. With `runtime` set, Go runtime and
// process collectors are registered as well.
func NewRecorder(runtime bool) *Recorder {
	r := &Recorder{
		Registry: prometheus.NewRegistry(),
		solves: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: solvesName, Help: "Allocation solves by policy and status."},
			[]string{"policy", "status"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{Name: "tankfill_solve_duration_seconds", Help: "Allocation solve duration in seconds.", Buckets: prometheus.DefBuckets},
			[]string{"policy", "status"},
		),
		branches: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{Name: "tankfill_solve_branches", Help: "Branch-and-bound nodes explored per solve.", Buckets: prometheus.ExponentialBuckets(1, 4, 10)},
			[]string{"policy"},
		),
		stranded: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{Name: "tankfill_stranded_volume", Help: "Total stranded volume of optimal allocations.", Buckets: prometheus.ExponentialBuckets(1, 2, 12)},
			[]string{"policy"},
		),
	}
	r.Registry.MustRegister(r.solves, r.duration, r.branches, r.stranded)
	if runtime {
		r.Registry.MustRegister(collectors.NewGoCollector())
		r.Registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	}
	return r
}

// StatusLabel returns the status label of a solve outcome.
func StatusLabel(res *allocator.Result, err error) string {
	switch {
	case res != nil:
		return res.Status.String()
	case errors.Is(err, allocator.ErrOverflow):
		return StatusOverflow
	default:
		return StatusInvalid
	}
}

// Observe records the outcome of one call to allocator.Solve that took `elapsed`.
func (r *Recorder) Observe(policy allocator.Policy, res *allocator.Result, err error, elapsed time.Duration) {
	p, status := policy.String(), StatusLabel(res, err)
	r.solves.WithLabelValues(p, status).Inc()
	r.duration.WithLabelValues(p, status).Observe(elapsed.Seconds())
	if res == nil {
		return
	}
	r.branches.WithLabelValues(p).Observe(float64(res.Stats.Branches))
	if res.Status == allocator.StatusOptimal {
		r.stranded.WithLabelValues(p).Observe(res.Report.TotalStranded)
	}
}

// Solves returns the number of recorded solves with the given labels. It reads the registry and
// does not create missing series.
func (r *Recorder) Solves(policy allocator.Policy, status string) float64 {
	families, err := r.Registry.Gather()
	if err != nil {
		return 0
	}
	for _, f := range families {
		if f.GetName() != solvesName {
			continue
		}
		for _, m := range f.GetMetric() {
			labels := map[string]string{}
			for _, l := range m.GetLabel() {
				labels[l.GetName()] = l.GetValue()
			}
			if labels["policy"] == policy.String() && labels["status"] == status {
				return m.GetCounter().GetValue()
			}
		}
	}
	return 0
}

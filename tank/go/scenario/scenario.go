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

// Package scenario runs batches of independent allocation problems described in YAML files.
//
// A scenario file looks like:
//
//	settings:
//	  policy: active
//	  time_limit: 30s
//	tank_sets:
//	  base_case:
//	    - {name: tank_0, current_level: 20, max_level: 95}
//	    - {name: tank_1, current_level: 0, max_level: 95}
//	scenarios:
//	  - name: first
//	    tank_set: base_case
//	    demands: [56, 2]
//	  - name: second
//	    tanks: [{current_level: 0, max_level: 5}]
//	    demands: [10]
//	    policy: gated
package scenario

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/orlab/tankfill/tank/go/allocator"
	"gopkg.in/yaml.v3"
)

// ErrInvalidFile is returned for scenario files that cannot be turned into cases.
var ErrInvalidFile = errors.New("invalid scenario file")

// TankSpec is a tank in a scenario file.
type TankSpec struct {
	Name         string  `yaml:"name"`
	CurrentLevel float64 `yaml:"current_level"`
	MaxLevel     float64 `yaml:"max_level"`
}

// Settings are solve options. In a scenario, non-zero fields override the file settings.
type Settings struct {
	Policy          string        `yaml:"policy"`
	TimeLimit       time.Duration `yaml:"time_limit"`
	TieBreakPenalty float64       `yaml:"tie_break_penalty"`
	BigM            float64       `yaml:"big_m"`
	MaxNodes        int64         `yaml:"max_nodes"`
}

// Scenario is one allocation problem. Exactly one of Tanks and TankSet must be set.
type Scenario struct {
	Name     string     `yaml:"name"`
	Tanks    []TankSpec `yaml:"tanks"`
	TankSet  string     `yaml:"tank_set"`
	Demands  []float64  `yaml:"demands"`
	Settings `yaml:",inline"`
}

// File is the content of a scenario file.
type File struct {
	Settings  Settings              `yaml:"settings"`
	TankSets  map[string][]TankSpec `yaml:"tank_sets"`
	Scenarios []Scenario            `yaml:"scenarios"`
}

// Case is a resolved scenario, ready to be solved.
type Case struct {
	// ID identifies the case in logs.
	ID      string
	Name    string
	Tanks   []allocator.Tank
	Demands []float64
	Options allocator.Options
}

// Load decodes a scenario file. Unknown fields are rejected.
func Load(r io.Reader) (*File, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	f := &File{}
	if err := dec.Decode(f); err != nil {
		if errors.Is(err, io.EOF) {
			return f, nil
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidFile, err)
	}
	return f, nil
}

// LoadFile decodes the scenario file at `path`.
func LoadFile(path string) (*File, error) {
	r, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	f, err := Load(r)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return f, nil
}

func (s Settings) merge(override Settings) Settings {
	if override.Policy != "" {
		s.Policy = override.Policy
	}
	if override.TimeLimit != 0 {
		s.TimeLimit = override.TimeLimit
	}
	if override.TieBreakPenalty != 0 {
		s.TieBreakPenalty = override.TieBreakPenalty
	}
	if override.BigM != 0 {
		s.BigM = override.BigM
	}
	if override.MaxNodes != 0 {
		s.MaxNodes = override.MaxNodes
	}
	return s
}

// Options converts settings to allocator options. An empty policy selects the gated policy.
func (s Settings) Options() (allocator.Options, error) {
	opts := allocator.Options{
		SolverTimeLimit: s.TimeLimit,
		TieBreakPenalty: s.TieBreakPenalty,
		BigM:            s.BigM,
		MaxNodes:        s.MaxNodes,
	}
	if s.Policy != "" {
		p, err := allocator.ParsePolicy(s.Policy)
		if err != nil {
			return allocator.Options{}, err
		}
		opts.Policy = p
	}
	return opts, nil
}

func tanksOf(specs []TankSpec) []allocator.Tank {
	tanks := make([]allocator.Tank, len(specs))
	for i, s := range specs {
		tanks[i] = allocator.Tank{Name: s.Name, CurrentLevel: s.CurrentLevel, MaxLevel: s.MaxLevel}
		if tanks[i].Name == "" {
			tanks[i].Name = fmt.Sprintf("tank_%d", i)
		}
	}
	return tanks
}

// Cases resolves tank sets and settings into one Case per scenario, in file order. Tank and
// demand values are checked later, by the allocator.
func (f *File) Cases() ([]Case, error) {
	cases := make([]Case, 0, len(f.Scenarios))
	for i, s := range f.Scenarios {
		name := s.Name
		if name == "" {
			name = fmt.Sprintf("scenario_%d", i+1)
		}
		specs := s.Tanks
		switch {
		case s.TankSet != "" && len(s.Tanks) > 0:
			return nil, fmt.Errorf("%w: scenario %q sets both tanks and tank_set", ErrInvalidFile, name)
		case s.TankSet != "":
			set, ok := f.TankSets[s.TankSet]
			if !ok {
				return nil, fmt.Errorf("%w: scenario %q uses unknown tank set %q", ErrInvalidFile, name, s.TankSet)
			}
			specs = set
		}
		opts, err := f.Settings.merge(s.Settings).Options()
		if err != nil {
			return nil, fmt.Errorf("%w: scenario %q: %v", ErrInvalidFile, name, err)
		}
		cases = append(cases, Case{
			ID:      uuid.NewString(),
			Name:    name,
			Tanks:   tanksOf(specs),
			Demands: append([]float64(nil), s.Demands...),
			Options: opts,
		})
	}
	return cases, nil
}

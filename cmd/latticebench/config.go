// Copyright 2026 The go-lattice Authors. SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/samber/lo"
	"gopkg.in/yaml.v3"

	"github.com/ajroetker/go-lattice/lattice"
	"github.com/ajroetker/go-lattice/lattice/comm"
	"github.com/ajroetker/go-lattice/lattice/dslash"
)

// Config is the benchmark description read from YAML.
type Config struct {
	Lattice  LatticeConfig  `yaml:"lattice"`
	Operator OperatorConfig `yaml:"operator"`
	Run      RunConfig      `yaml:"run"`
}

// LatticeConfig sets the global volume and its split over ranks.
type LatticeConfig struct {
	Global []int `yaml:"global"`
	Grid   []int `yaml:"grid"`
	// Ls is the fifth-dimension extent of domain-wall fields.
	Ls int `yaml:"ls"`
}

// OperatorConfig selects the stencil and its coefficients.
type OperatorConfig struct {
	Family         string    `yaml:"family"`
	Parity         string    `yaml:"parity"`
	Dagger         bool      `yaml:"dagger"`
	Preconditioned bool      `yaml:"preconditioned"`
	Asymmetric     bool      `yaml:"asymmetric"`
	Xpay           bool      `yaml:"xpay"`
	A              float64   `yaml:"a"`
	B              float64   `yaml:"b"`
	C              float64   `yaml:"c"`
	Mf             float64   `yaml:"mf"`
	B5             []float64 `yaml:"b5"`
	DisableComms   []int     `yaml:"disable_comms"`
}

// RunConfig controls the timed loop.
type RunConfig struct {
	Iterations int     `yaml:"iterations"`
	Warmup     int     `yaml:"warmup"`
	Workers    int     `yaml:"workers"`
	Precision  string  `yaml:"precision"`
	Seed       uint64  `yaml:"seed"`
	Verify     bool    `yaml:"verify"`
	Tolerance  float64 `yaml:"tolerance"`
}

// DefaultConfig returns a single-rank 8^4 Wilson run.
func DefaultConfig() *Config {
	return &Config{
		Lattice: LatticeConfig{
			Global: []int{8, 8, 8, 8},
			Grid:   []int{1, 1, 1, 1},
			Ls:     1,
		},
		Operator: OperatorConfig{
			Family: dslash.Wilson.String(),
			Parity: lattice.Even.String(),
			A:      0.125,
		},
		Run: RunConfig{
			Iterations: 10,
			Warmup:     1,
			Workers:    lattice.DefaultWorkers(),
			Precision:  comm.Double.String(),
			Seed:       1,
		},
	}
}

// LoadConfig reads path over the defaults. An empty path returns the
// defaults.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the configuration for consistency.
func (c *Config) Validate() error {
	global, err := dims("lattice.global", c.Lattice.Global)
	if err != nil {
		return err
	}
	grid, err := dims("lattice.grid", c.Lattice.Grid)
	if err != nil {
		return err
	}
	if _, err := lattice.NewGeometry(global, grid, [lattice.NDim]int{}); err != nil {
		return fmt.Errorf("lattice: %w", err)
	}
	if c.Lattice.Ls < 1 {
		return fmt.Errorf("lattice.ls must be positive, got %d", c.Lattice.Ls)
	}

	family, err := parseFamily(c.Operator.Family)
	if err != nil {
		return err
	}
	parity, err := parseParity(c.Operator.Parity)
	if err != nil {
		return err
	}
	switch {
	case c.Operator.Preconditioned && parity == lattice.Full:
		return fmt.Errorf("operator.preconditioned requires an even or odd parity")
	case family == dslash.DomainWall && parity != lattice.Full:
		return fmt.Errorf("operator.family %s requires parity %s", family, lattice.Full)
	case family == dslash.NdegTwistedMass && c.Lattice.Ls != 2:
		return fmt.Errorf("operator.family %s requires lattice.ls 2, got %d", family, c.Lattice.Ls)
	case family == dslash.Mobius4D && len(c.Operator.B5) != 0 && len(c.Operator.B5) != c.Lattice.Ls:
		return fmt.Errorf("operator.b5 has %d entries, want lattice.ls = %d", len(c.Operator.B5), c.Lattice.Ls)
	}
	for _, d := range c.Operator.DisableComms {
		if d < 0 || d >= lattice.NDim {
			return fmt.Errorf("operator.disable_comms: dimension %d out of range", d)
		}
	}

	if c.Run.Iterations < 1 {
		return fmt.Errorf("run.iterations must be positive, got %d", c.Run.Iterations)
	}
	if c.Run.Warmup < 0 {
		return fmt.Errorf("run.warmup must not be negative, got %d", c.Run.Warmup)
	}
	if c.Run.Workers < 1 {
		return fmt.Errorf("run.workers must be positive, got %d", c.Run.Workers)
	}
	if _, err := parsePrecision(c.Run.Precision); err != nil {
		return err
	}
	return nil
}

// operator converts the operator section into an engine Operator.
func (c *Config) operator() (dslash.Operator, error) {
	family, err := parseFamily(c.Operator.Family)
	if err != nil {
		return dslash.Operator{}, err
	}
	parity, err := parseParity(c.Operator.Parity)
	if err != nil {
		return dslash.Operator{}, err
	}
	op := dslash.Operator{
		Family:         family,
		Dagger:         c.Operator.Dagger,
		Preconditioned: c.Operator.Preconditioned,
		Asymmetric:     c.Operator.Asymmetric,
		Xpay:           c.Operator.Xpay,
		A:              c.Operator.A,
		B:              c.Operator.B,
		C:              c.Operator.C,
		Mf:             c.Operator.Mf,
		Parity:         parity,
	}
	if family == dslash.Mobius4D {
		op.B5 = lo.Times(c.Lattice.Ls, func(s int) complex128 {
			if len(c.Operator.B5) == 0 {
				return 1
			}
			return complex(c.Operator.B5[s], 0)
		})
	}
	for _, d := range c.Operator.DisableComms {
		op.DisableComms[d] = true
	}
	return op, nil
}

// tolerance returns the largest acceptable difference against the
// single-process reference, scaled to the wire precision when unset.
func (c *Config) tolerance() float64 {
	if c.Run.Tolerance > 0 {
		return c.Run.Tolerance
	}
	p, _ := parsePrecision(c.Run.Precision)
	switch p {
	case comm.Half:
		return 5e-2
	case comm.Single:
		return 1e-5
	default:
		return 1e-9
	}
}

func dims(name string, v []int) ([lattice.NDim]int, error) {
	var d [lattice.NDim]int
	if len(v) != lattice.NDim {
		return d, fmt.Errorf("%s must have %d entries, got %d", name, lattice.NDim, len(v))
	}
	copy(d[:], v)
	return d, nil
}

func families() []dslash.Family {
	return lo.RangeFrom(dslash.Wilson, int(dslash.ImprovedStaggered)+1)
}

func familyNames() []string {
	return lo.Map(families(), func(f dslash.Family, _ int) string { return f.String() })
}

func parseFamily(name string) (dslash.Family, error) {
	f, ok := lo.Find(families(), func(f dslash.Family) bool {
		return f.String() == strings.ToLower(name)
	})
	if !ok {
		return 0, fmt.Errorf("unknown operator.family %q, want one of %s", name,
			strings.Join(familyNames(), ", "))
	}
	return f, nil
}

func parseParity(name string) (lattice.Parity, error) {
	p, ok := lo.Find([]lattice.Parity{lattice.Even, lattice.Odd, lattice.Full}, func(p lattice.Parity) bool {
		return p.String() == strings.ToLower(name)
	})
	if !ok {
		return 0, fmt.Errorf("unknown operator.parity %q, want even, odd or full", name)
	}
	return p, nil
}

func parsePrecision(name string) (comm.Precision, error) {
	p, ok := lo.Find([]comm.Precision{comm.Double, comm.Single, comm.Half}, func(p comm.Precision) bool {
		return p.String() == strings.ToLower(name)
	})
	if !ok {
		return 0, fmt.Errorf("unknown run.precision %q, want double, single or half", name)
	}
	return p, nil
}

// Copyright 2026 The go-lattice Authors. SPDX-License-Identifier: Apache-2.0

package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"

	"github.com/ajroetker/go-lattice/lattice"
	"github.com/ajroetker/go-lattice/lattice/comm"
	"github.com/ajroetker/go-lattice/lattice/dslash"
	"github.com/ajroetker/go-lattice/lattice/field"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m, goleak.IgnoreAnyFunction("os/signal.loop"))
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "bench.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	op, err := cfg.operator()
	require.NoError(t, err)
	assert.Equal(t, dslash.Wilson, op.Family)
	assert.Equal(t, lattice.Even, op.Parity)
	assert.InDelta(t, 1e-9, cfg.tolerance(), 0)
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, `
lattice:
  global: [4, 4, 4, 8]
  grid: [1, 1, 1, 2]
  ls: 4
operator:
  family: Mobius-4D
  parity: odd
  dagger: true
  a: 0.2
  b5: [1.5, 1.5, 1.25, 1.0]
  disable_comms: [2]
run:
  iterations: 3
  precision: half
`)
	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, []int{1, 1, 1, 2}, cfg.Lattice.Grid)
	assert.Equal(t, 1, cfg.Run.Warmup, "unset keys keep their defaults")

	op, err := cfg.operator()
	require.NoError(t, err)
	assert.Equal(t, dslash.Mobius4D, op.Family)
	assert.Equal(t, lattice.Odd, op.Parity)
	assert.True(t, op.Dagger)
	assert.Equal(t, []complex128{1.5, 1.5, 1.25, 1}, op.B5)
	assert.Equal(t, [lattice.NDim]bool{false, false, true, false}, op.DisableComms)
	assert.InDelta(t, 5e-2, cfg.tolerance(), 0)
}

func TestLoadConfigErrors(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)

	_, err = LoadConfig(writeConfig(t, "lattice: [unterminated"))
	require.Error(t, err)
}

func TestMobiusDefaultsB5(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Operator.Family = dslash.Mobius4D.String()
	cfg.Lattice.Ls = 3
	op, err := cfg.operator()
	require.NoError(t, err)
	assert.Equal(t, []complex128{1, 1, 1}, op.B5)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"short global", func(c *Config) { c.Lattice.Global = []int{4, 4, 4} }},
		{"indivisible grid", func(c *Config) { c.Lattice.Grid = []int{1, 1, 1, 3} }},
		{"odd local extent", func(c *Config) { c.Lattice.Global = []int{4, 4, 4, 6}; c.Lattice.Grid = []int{1, 1, 1, 2} }},
		{"zero ls", func(c *Config) { c.Lattice.Ls = 0 }},
		{"unknown family", func(c *Config) { c.Operator.Family = "overlap" }},
		{"unknown parity", func(c *Config) { c.Operator.Parity = "both" }},
		{"preconditioned full", func(c *Config) { c.Operator.Preconditioned = true; c.Operator.Parity = "full" }},
		{"domain wall even", func(c *Config) { c.Operator.Family = dslash.DomainWall.String() }},
		{"ndeg ls", func(c *Config) { c.Operator.Family = dslash.NdegTwistedMass.String() }},
		{"b5 length", func(c *Config) {
			c.Operator.Family = dslash.Mobius4D.String()
			c.Lattice.Ls = 4
			c.Operator.B5 = []float64{1, 1}
		}},
		{"disable comms dim", func(c *Config) { c.Operator.DisableComms = []int{4} }},
		{"zero iterations", func(c *Config) { c.Run.Iterations = 0 }},
		{"negative warmup", func(c *Config) { c.Run.Warmup = -1 }},
		{"zero workers", func(c *Config) { c.Run.Workers = 0 }},
		{"unknown precision", func(c *Config) { c.Run.Precision = "quad" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestParseNames(t *testing.T) {
	for _, f := range families() {
		got, err := parseFamily(f.String())
		require.NoError(t, err)
		assert.Equal(t, f, got)
	}
	assert.Len(t, familyNames(), int(dslash.ImprovedStaggered)+1)

	p, err := parseParity("FULL")
	require.NoError(t, err)
	assert.Equal(t, lattice.Full, p)

	prec, err := parsePrecision("Single")
	require.NoError(t, err)
	assert.Equal(t, comm.Single, prec)
}

// benchConfig is an even-parity Wilson run over four ranks.
func benchConfig() *Config {
	cfg := DefaultConfig()
	cfg.Lattice.Global = []int{4, 4, 8, 8}
	cfg.Lattice.Grid = []int{1, 1, 2, 2}
	cfg.Operator.Xpay = true
	cfg.Operator.B = 0.3
	cfg.Run.Iterations = 2
	cfg.Run.Workers = 2
	return cfg
}

func TestBenchmarkMatchesReference(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"wilson", func(c *Config) {}},
		{"wilson-clover-preconditioned", func(c *Config) {
			c.Operator.Family = dslash.WilsonClover.String()
			c.Operator.Preconditioned = true
		}},
		{"twisted-clover-dagger", func(c *Config) {
			c.Operator.Family = dslash.TwistedClover.String()
			c.Operator.Dagger = true
		}},
		{"improved-staggered", func(c *Config) {
			c.Operator.Family = dslash.ImprovedStaggered.String()
			c.Operator.Parity = lattice.Odd.String()
		}},
		{"domain-wall", func(c *Config) {
			c.Operator.Family = dslash.DomainWall.String()
			c.Operator.Parity = lattice.Full.String()
			c.Operator.Mf = 0.05
			c.Lattice.Ls = 4
		}},
		{"single precision", func(c *Config) { c.Run.Precision = comm.Single.String() }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := benchConfig()
			tt.modify(cfg)
			require.NoError(t, cfg.Validate())

			b, err := newBenchmark(cfg, zap.NewNop())
			require.NoError(t, err)
			ctx := context.Background()
			rep, err := b.run(ctx, nil)
			require.NoError(t, err)
			require.Len(t, rep.ranks, 4)
			for _, r := range rep.ranks {
				assert.Equal(t, cfg.Run.Iterations, r.timer.Count("total"))
			}

			want, err := b.reference(ctx)
			require.NoError(t, err)
			assert.Less(t, field.MaxDiff(want, rep.out), cfg.tolerance())
		})
	}
}

func TestCommands(t *testing.T) {
	path := writeConfig(t, `
lattice:
  global: [4, 4, 4, 8]
run:
  iterations: 2
  workers: 2
`)
	var out bytes.Buffer
	cmd := rootCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"run", "--config", path, "--grid", "1,1,1,2", "--family", "twisted-mass", "--verify", "--metrics"})
	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "twisted-mass even")
	assert.Contains(t, out.String(), "latticebench_interval_seconds")
	assert.Contains(t, out.String(), "max |diff|")

	out.Reset()
	cmd = rootCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"info"})
	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "families:")
	assert.Contains(t, out.String(), dslash.ImprovedStaggered.String())

	cmd = rootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs([]string{"run", "--config", path, "--grid", "1,1,3,1"})
	assert.Error(t, cmd.Execute())
}

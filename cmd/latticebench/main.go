// Copyright 2026 The go-lattice Authors. SPDX-License-Identifier: Apache-2.0

// Command latticebench times stencil applications on an in-process mesh of
// ranks and checks the gathered result against a single-process run.
//
// Usage:
//
//	latticebench run --config bench.yaml --grid 1,1,2,2 --verify
//	latticebench info
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/ajroetker/go-lattice/lattice"
	"github.com/ajroetker/go-lattice/lattice/field"
	"github.com/ajroetker/go-lattice/lattice/profile"
)

var (
	verbose    bool
	configPath string
	logger     *zap.Logger
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "latticebench: panic: %v\n", r)
			os.Exit(2)
		}
	}()
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "latticebench",
		Short:        "Benchmark lattice stencil operators",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			config := zap.NewProductionConfig()
			if verbose {
				config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
			}
			var err error
			logger, err = config.Build()
			if err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if logger != nil {
				_ = logger.Sync()
			}
		},
	}
	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "YAML benchmark description")
	cmd.AddCommand(runCmd(), infoCmd())
	return cmd
}

func runCmd() *cobra.Command {
	var (
		family     string
		parity     string
		grid       []int
		iterations int
		precision  string
		dagger     bool
		verify     bool
		metrics    bool
		packT      bool
	)
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Apply an operator repeatedly and report interval timings",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := LoadConfig(configPath)
			if err != nil {
				return err
			}
			flags := cmd.Flags()
			if flags.Changed("family") {
				cfg.Operator.Family = family
			}
			if flags.Changed("parity") {
				cfg.Operator.Parity = parity
			}
			if flags.Changed("grid") {
				cfg.Lattice.Grid = grid
			}
			if flags.Changed("iterations") {
				cfg.Run.Iterations = iterations
			}
			if flags.Changed("precision") {
				cfg.Run.Precision = precision
			}
			if flags.Changed("dagger") {
				cfg.Operator.Dagger = dagger
			}
			if flags.Changed("verify") {
				cfg.Run.Verify = verify
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}
			if flags.Changed("pack-t") {
				defer lattice.PushKernelPackT(packT).Restore()
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runBenchmark(ctx, cmd, cfg, metrics)
		},
	}
	flags := cmd.Flags()
	flags.StringVar(&family, "family", "", "operator family")
	flags.StringVar(&parity, "parity", "", "output parity: even, odd or full")
	flags.IntSliceVar(&grid, "grid", nil, "process grid, four comma-separated extents")
	flags.IntVarP(&iterations, "iterations", "n", 0, "timed applications per rank")
	flags.StringVar(&precision, "precision", "", "halo wire precision: double, single or half")
	flags.BoolVar(&dagger, "dagger", false, "apply the daggered operator")
	flags.BoolVar(&verify, "verify", false, "compare against a single-process application")
	flags.BoolVar(&metrics, "metrics", false, "print the Prometheus interval histograms")
	flags.BoolVar(&packT, "pack-t", false, "pack the T face with the parallel kernel")
	return cmd
}

func runBenchmark(ctx context.Context, cmd *cobra.Command, cfg *Config, metrics bool) error {
	b, err := newBenchmark(cfg, logger)
	if err != nil {
		return err
	}
	var prom *profile.Prometheus
	reg := prometheus.NewRegistry()
	if metrics {
		if prom, err = profile.NewPrometheus(reg, "latticebench"); err != nil {
			return err
		}
	}
	logger.Info("benchmark starting",
		zap.Stringer("family", b.op.Family),
		zap.Ints("grid", cfg.Lattice.Grid),
		zap.Int("iterations", cfg.Run.Iterations),
		zap.String("precision", cfg.Run.Precision))

	rep, err := b.run(ctx, prom)
	if err != nil {
		return err
	}
	w := cmd.OutOrStdout()
	rep.print(w, b)
	if metrics {
		if err := printHistograms(w, reg); err != nil {
			return err
		}
	}
	if !cfg.Run.Verify {
		return nil
	}

	want, err := b.reference(ctx)
	if err != nil {
		return fmt.Errorf("reference: %w", err)
	}
	diff := field.MaxDiff(want, rep.out)
	tol := cfg.tolerance()
	logger.Info("verified", zap.Float64("max_diff", diff), zap.Float64("tolerance", tol))
	fmt.Fprintf(w, "max |diff| against single process: %.3g (tolerance %.3g)\n", diff, tol)
	if diff > tol {
		return fmt.Errorf("result differs from single-process reference by %g", diff)
	}
	return nil
}

func infoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Print host features and engine defaults",
		RunE: func(cmd *cobra.Command, args []string) error {
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "cpu features:  %s\n", strings.Join(lattice.CPUFeatures(), " "))
			fmt.Fprintf(w, "workers:       %d\n", lattice.DefaultWorkers())
			fmt.Fprintf(w, "kernel pack T: %v\n", lattice.KernelPackT())
			fmt.Fprintf(w, "families:      %s\n", strings.Join(familyNames(), " "))
			return nil
		},
	}
}

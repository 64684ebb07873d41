// Copyright 2026 The go-lattice Authors. SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"io"
	"math/rand/v2"
	"slices"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/samber/lo"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ajroetker/go-lattice/lattice"
	"github.com/ajroetker/go-lattice/lattice/comm"
	"github.com/ajroetker/go-lattice/lattice/dslash"
	"github.com/ajroetker/go-lattice/lattice/field"
	"github.com/ajroetker/go-lattice/lattice/profile"
)

// benchmark holds the global fields of one run. Every rank restricts them to
// its own sub-volume, so a multi-rank run can be checked against a
// single-process application on the same data.
type benchmark struct {
	cfg    *Config
	op     dslash.Operator
	codec  comm.Codec
	logger *zap.Logger

	geom   *lattice.Geometry
	grid   [lattice.NDim]int
	in, x  *field.ColorSpinor
	u      *field.Gauge
	long   *field.Gauge
	clover *field.Clover
}

// rankResult is what one rank reports after its timed loop.
type rankResult struct {
	timer *profile.Timer
	out   *field.ColorSpinor
}

// report summarises a run.
type report struct {
	elapsed time.Duration
	ranks   []rankResult
	out     *field.ColorSpinor
}

func newBenchmark(cfg *Config, logger *zap.Logger) (*benchmark, error) {
	op, err := cfg.operator()
	if err != nil {
		return nil, err
	}
	precision, err := parsePrecision(cfg.Run.Precision)
	if err != nil {
		return nil, err
	}
	global, _ := dims("lattice.global", cfg.Lattice.Global)
	grid, _ := dims("lattice.grid", cfg.Lattice.Grid)
	g, err := lattice.NewLocalGeometry(global)
	if err != nil {
		return nil, err
	}

	b := &benchmark{cfg: cfg, op: op, codec: comm.Codec{Precision: precision}, logger: logger, geom: g, grid: grid}
	rng := rand.New(rand.NewPCG(cfg.Run.Seed, 0x1a77))
	shape := b.shape()
	inParity := op.Parity.Opposite()
	if b.in, err = field.NewColorSpinor(g, field.SpinorParams{Parity: inParity, NSpin: shape.NSpin, Ls: shape.Ls, NFace: shape.NFace}); err != nil {
		return nil, err
	}
	field.RandomSpinor(rng, b.in)
	if b.x, err = field.NewColorSpinor(g, shape); err != nil {
		return nil, err
	}
	field.RandomSpinor(rng, b.x)

	if b.u, err = field.NewGauge(g, shape.NFace); err != nil {
		return nil, err
	}
	field.RandomGauge(rng, b.u)
	if op.Family == dslash.Staggered || op.Family == dslash.ImprovedStaggered {
		field.ApplyStaggeredPhases(b.u)
	}
	if op.Family == dslash.ImprovedStaggered {
		if b.long, err = field.NewGauge(g, shape.NFace); err != nil {
			return nil, err
		}
		field.RandomGauge(rng, b.long)
		field.ApplyStaggeredPhases(b.long)
	}
	if op.Family == dslash.WilsonClover || op.Family == dslash.TwistedClover {
		if b.clover, err = field.NewClover(g); err != nil {
			return nil, err
		}
		field.RandomClover(rng, b.clover, 0.1)
		twist := 0.0
		if op.Family == dslash.TwistedClover {
			twist = op.B
		}
		if err := b.clover.ComputeInverse(twist); err != nil {
			return nil, err
		}
	}
	logger.Debug("global fields ready",
		zap.Stringer("family", op.Family),
		zap.Stringer("parity", op.Parity),
		zap.Ints("global", cfg.Lattice.Global),
		zap.Int("sites", g.Volume()))
	return b, nil
}

// shape is the layout of the output and accumulator fields.
func (b *benchmark) shape() field.SpinorParams {
	p := field.SpinorParams{Parity: b.op.Parity, NSpin: 4, Ls: b.cfg.Lattice.Ls, NFace: 1}
	switch b.op.Family {
	case dslash.Staggered:
		p.NSpin, p.Ls = 1, 1
	case dslash.ImprovedStaggered:
		p.NSpin, p.Ls, p.NFace = 1, 1, 3
	case dslash.DomainWall, dslash.DomainWall4D, dslash.Mobius4D, dslash.NdegTwistedMass:
	default:
		p.Ls = 1
	}
	return p
}

// run executes the timed loop on every rank of an in-process mesh. Each
// rank's intervals go to its own Timer and to a fork of prom, when set.
func (b *benchmark) run(ctx context.Context, prom *profile.Prometheus) (*report, error) {
	mesh, err := comm.NewMesh(b.grid)
	if err != nil {
		return nil, err
	}
	results := make([]rankResult, mesh.Size())
	start := time.Now()
	eg, ctx := errgroup.WithContext(ctx)
	for r := range mesh.Size() {
		eg.Go(func() error {
			res, err := b.runRank(ctx, mesh.Endpoint(r), prom)
			if err != nil {
				return fmt.Errorf("rank %d: %w", r, err)
			}
			results[r] = res
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	rep := &report{elapsed: time.Since(start), ranks: results}
	if rep.out, err = field.Gather(b.geom, lo.Map(results, func(r rankResult, _ int) *field.ColorSpinor { return r.out })); err != nil {
		return nil, err
	}
	return rep, nil
}

func (b *benchmark) runRank(ctx context.Context, ep *comm.Endpoint, prom *profile.Prometheus) (rankResult, error) {
	res := rankResult{timer: profile.NewTimer()}
	lg, err := lattice.NewGeometry(b.geom.Global(), b.grid, ep.ProcCoords())
	if err != nil {
		return res, err
	}
	logger := b.logger.With(zap.Int("rank", ep.Rank()))
	e := dslash.New(ep,
		dslash.WithWorkers(b.cfg.Run.Workers),
		dslash.WithCodec(b.codec),
		dslash.WithLogger(logger))
	defer e.Close()

	args := dslash.Args{Profile: res.timer}
	if prom != nil {
		args.Profile = profile.Multi{res.timer, prom.Fork()}
	}
	if args.Gauge, err = field.RestrictGauge(b.u, lg); err != nil {
		return res, err
	}
	if err := e.ExchangeGauge(ctx, args.Gauge, 1); err != nil {
		return res, err
	}
	if b.long != nil {
		if args.Long, err = field.RestrictGauge(b.long, lg); err != nil {
			return res, err
		}
		if err := e.ExchangeGauge(ctx, args.Long, 3); err != nil {
			return res, err
		}
	}
	if b.clover != nil {
		if args.Clover, err = field.RestrictClover(b.clover, lg); err != nil {
			return res, err
		}
	}
	if args.In, err = field.Restrict(b.in, lg); err != nil {
		return res, err
	}
	if args.X, err = field.Restrict(b.x, lg); err != nil {
		return res, err
	}
	args.Out = field.Like(args.X, b.op.Parity)

	warm := args
	warm.Profile = nil
	for range b.cfg.Run.Warmup {
		if err := e.Apply(ctx, b.op, warm); err != nil {
			return res, err
		}
	}
	for range b.cfg.Run.Iterations {
		if err := e.Apply(ctx, b.op, args); err != nil {
			return res, err
		}
	}
	logger.Debug("rank done", zap.Duration("total", res.timer.Total(profile.Total)))
	res.out = args.Out
	return res, nil
}

// reference applies the operator once on a single process.
func (b *benchmark) reference(ctx context.Context) (*field.ColorSpinor, error) {
	e := dslash.New(nil, dslash.WithWorkers(b.cfg.Run.Workers), dslash.WithLogger(b.logger))
	defer e.Close()
	out := field.Like(b.x, b.op.Parity)
	err := e.Apply(ctx, b.op, dslash.Args{Out: out, In: b.in, X: b.x, Gauge: b.u, Long: b.long, Clover: b.clover})
	return out, err
}

// print writes the per-interval totals summed over ranks, followed by the
// site throughput of the timed loop.
func (rep *report) print(w io.Writer, b *benchmark) {
	timers := lo.Map(rep.ranks, func(r rankResult, _ int) *profile.Timer { return r.timer })
	names := lo.Uniq(lo.FlatMap(timers, func(t *profile.Timer, _ int) []string { return t.Names() }))
	slices.Sort(names)

	fmt.Fprintf(w, "%s %s dagger=%v precond=%v ranks=%d iterations=%d\n",
		b.op.Family, b.op.Parity, b.op.Dagger, b.op.Preconditioned, len(rep.ranks), b.cfg.Run.Iterations)
	fmt.Fprintf(w, "%-10s %8s %14s %14s\n", "interval", "count", "total", "mean")
	for _, name := range names {
		count := lo.SumBy(timers, func(t *profile.Timer) int { return t.Count(name) })
		total := lo.SumBy(timers, func(t *profile.Timer) time.Duration { return t.Total(name) })
		mean := time.Duration(0)
		if count > 0 {
			mean = total / time.Duration(count)
		}
		fmt.Fprintf(w, "%-10s %8d %14s %14s\n", name, count, total, mean)
	}
	sites := float64(b.geom.Sites(b.op.Parity)*b.shape().Ls) * float64(b.cfg.Run.Iterations)
	fmt.Fprintf(w, "elapsed %s, %.3g sites/s\n", rep.elapsed, sites/rep.elapsed.Seconds())
}

// printHistograms writes the sample count of every interval histogram in reg.
func printHistograms(w io.Writer, reg *prometheus.Registry) error {
	families, err := reg.Gather()
	if err != nil {
		return err
	}
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			var labels []string
			for _, l := range m.GetLabel() {
				labels = append(labels, l.GetName()+"="+l.GetValue())
			}
			h := m.GetHistogram()
			fmt.Fprintf(w, "%s%v count=%d sum=%.6fs\n", mf.GetName(), labels, h.GetSampleCount(), h.GetSampleSum())
		}
	}
	return nil
}

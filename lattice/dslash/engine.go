// Copyright 2026 The go-lattice Authors. SPDX-License-Identifier: Apache-2.0

package dslash

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"go.uber.org/zap"

	"github.com/ajroetker/go-lattice/lattice"
	"github.com/ajroetker/go-lattice/lattice/comm"
	"github.com/ajroetker/go-lattice/lattice/dslash5"
	"github.com/ajroetker/go-lattice/lattice/field"
	"github.com/ajroetker/go-lattice/lattice/halo"
	"github.com/ajroetker/go-lattice/lattice/linalg"
	"github.com/ajroetker/go-lattice/lattice/overlap"
	"github.com/ajroetker/go-lattice/lattice/profile"
	"github.com/ajroetker/go-lattice/lattice/workerpool"
)

// Engine applies stencil operators on the sub-volume of one process. It is
// safe for concurrent use on distinct output fields; applications that share
// an input must not run concurrently when they exchange its halo.
type Engine struct {
	transport comm.Transport
	pool      *workerpool.Pool
	ownPool   bool
	workers   int
	codec     comm.Codec
	logger    *zap.Logger
	observer  overlap.Observer
	sched     *overlap.Scheduler

	mu    sync.Mutex
	plans map[planKey]*plan
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger used for dispatch and transport messages.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithPool runs the site kernels on an existing pool, which the Engine does
// not close.
func WithPool(p *workerpool.Pool) Option {
	return func(e *Engine) { e.pool = p }
}

// WithWorkers sets the size of the pool the Engine creates for itself.
func WithWorkers(n int) Option {
	return func(e *Engine) { e.workers = n }
}

// WithCodec sets the wire precision of encoded halos.
func WithCodec(c comm.Codec) Option {
	return func(e *Engine) { e.codec = c }
}

// WithObserver receives the exchange events of every application.
func WithObserver(o overlap.Observer) Option {
	return func(e *Engine) { e.observer = o }
}

// New returns an Engine that exchanges halos through t. A nil transport runs
// every dimension on local wrap-around data.
func New(t comm.Transport, opts ...Option) *Engine {
	e := &Engine{
		transport: t,
		logger:    zap.NewNop(),
		workers:   lattice.DefaultWorkers(),
		plans:     make(map[planKey]*plan),
	}
	for _, o := range opts {
		o(e)
	}
	if e.pool == nil {
		e.pool = workerpool.New(e.workers)
		e.ownPool = true
	}
	e.sched = overlap.New(t, e.pool,
		overlap.WithCodec(e.codec),
		overlap.WithLogger(e.logger),
		overlap.WithObserver(e.observer))
	e.logger.Debug("engine started",
		zap.Int("workers", e.pool.Workers()),
		zap.Strings("cpu", lattice.CPUFeatures()),
		zap.Bool("kernel_pack_t", lattice.KernelPackT()))
	return e
}

// Close releases the worker pool when the Engine created it.
func (e *Engine) Close() {
	if e.ownPool {
		e.pool.Close()
	}
}

// Pool returns the worker pool shared by every kernel of the Engine.
func (e *Engine) Pool() *workerpool.Pool { return e.pool }

// familySpec is one row of the dispatch table.
type familySpec struct {
	nSpin      int
	depth      int
	staggered  bool
	needClover bool
	// twisted families accept the Asymmetric modifier.
	twisted bool
	setup   func(op *Operator, args *Args, st *stencil, cb *combiner) error
}

var families = [...]familySpec{
	Wilson:            {nSpin: linalg.NSpin, depth: 1, setup: setupPlain},
	WilsonClover:      {nSpin: linalg.NSpin, depth: 1, needClover: true, setup: setupWilsonClover},
	TwistedMass:       {nSpin: linalg.NSpin, depth: 1, twisted: true, setup: setupTwistedMass},
	NdegTwistedMass:   {nSpin: linalg.NSpin, depth: 1, twisted: true, setup: setupNdegTwistedMass},
	TwistedClover:     {nSpin: linalg.NSpin, depth: 1, needClover: true, setup: setupTwistedClover},
	DomainWall:        {nSpin: linalg.NSpin, depth: 1, setup: setupDomainWall},
	DomainWall4D:      {nSpin: linalg.NSpin, depth: 1, setup: setupPlain},
	Mobius4D:          {nSpin: linalg.NSpin, depth: 1, setup: setupMobius4D},
	Staggered:         {nSpin: 1, depth: 1, staggered: true, setup: setupStaggered},
	ImprovedStaggered: {nSpin: 1, depth: 3, staggered: true, setup: setupStaggered},
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{lattice.ErrInvalidArgument}, args...)...)
}

func (e *Engine) validate(op *Operator, args *Args) (*familySpec, error) {
	if op.Family < Wilson || int(op.Family) >= len(families) {
		return nil, invalid("unknown family %d", int(op.Family))
	}
	spec := &families[op.Family]
	out, in := args.Out, args.In
	switch {
	case out == nil || in == nil:
		return nil, invalid("nil spinor field")
	case args.Gauge == nil:
		return nil, invalid("%v needs a gauge field", op.Family)
	case out == in:
		return nil, invalid("output aliases input")
	case !op.Parity.Valid():
		return nil, invalid("parity %d", int(op.Parity))
	case op.Parity == lattice.Full && op.Preconditioned:
		return nil, invalid("preconditioned %v on a full field", op.Family)
	case !out.ShapeOf(in):
		return nil, invalid("output %v does not match input %v", out, in)
	case out.Parity() != op.Parity:
		return nil, invalid("output parity %v, operator parity %v", out.Parity(), op.Parity)
	case in.Parity() != inParityOf(op.Parity):
		return nil, invalid("input parity %v, want %v", in.Parity(), inParityOf(op.Parity))
	case in.NSpin() != spec.nSpin:
		return nil, invalid("%v needs %d spins, got %d", op.Family, spec.nSpin, in.NSpin())
	case !in.Geometry().Equal(args.Gauge.Geometry()):
		return nil, invalid("gauge field lives on a different geometry")
	case op.Asymmetric && !(spec.twisted && op.Preconditioned):
		return nil, invalid("asymmetric applies to preconditioned twisted-mass operators only")
	}
	if op.Xpay {
		if args.X == nil {
			return nil, invalid("xpay requested without x")
		}
		if !args.X.ShapeOf(out) || args.X.Parity() != out.Parity() {
			return nil, invalid("x %v does not match output %v", args.X, out)
		}
	}
	if spec.needClover {
		if args.Clover == nil {
			return nil, invalid("%v needs a clover field", op.Family)
		}
		if !args.Clover.Geometry().Equal(in.Geometry()) {
			return nil, invalid("clover field lives on a different geometry")
		}
	}
	if op.Family == ImprovedStaggered {
		if args.Long == nil {
			return nil, invalid("improved staggered needs long links")
		}
		if !args.Long.Geometry().Equal(in.Geometry()) {
			return nil, invalid("long links live on a different geometry")
		}
	}
	return spec, nil
}

// Apply runs one stencil application described by op on args.
func (e *Engine) Apply(ctx context.Context, op Operator, args Args) error {
	prof := profile.OrNop(args.Profile)
	prof.Start(profile.Total)
	defer prof.Stop(profile.Total)

	spec, err := e.validate(&op, &args)
	if err != nil {
		return err
	}
	op.B5 = slices.Clone(op.B5)
	op.C5 = slices.Clone(op.C5)

	in := args.In
	g := in.Geometry()
	opts := overlap.Options{Depth: spec.depth, Disable: op.DisableComms, Profile: prof}
	var comms [lattice.NDim]bool
	var dims []int
	for d := range lattice.NDim {
		comms[d] = e.sched.Communicating(d, opts)
		if comms[d] {
			dims = append(dims, d)
		}
	}
	if len(dims) > 0 {
		if in.GhostCapacity() < spec.depth {
			return invalid("input ghost capacity %d, %v needs %d", in.GhostCapacity(), op.Family, spec.depth)
		}
		if args.Gauge.ExchangedDepth() < 1 {
			return invalid("gauge halo not exchanged")
		}
		if op.Family == ImprovedStaggered && args.Long.ExchangedDepth() < 3 {
			return invalid("long-link halo exchanged to depth %d, need 3", args.Long.ExchangedDepth())
		}
	}

	sl := in.SiteLen()
	cb := &combiner{
		out:  args.Out,
		in:   in,
		x:    args.X,
		a:    complex(op.A, 0),
		xpay: op.Xpay,
		ls:   in.Ls(),
		sl:   sl,
	}
	st := &stencil{
		geom:      g,
		plan:      e.plan(g, op.Parity, comms, spec.depth),
		comb:      cb,
		in:        in,
		fat:       args.Gauge,
		long:      args.Long,
		staggered: spec.staggered,
		dagger:    op.Dagger,
		comms:     comms,
		pool:      e.pool,
		ls:        in.Ls(),
		sl:        sl,
	}
	if err := spec.setup(&op, &args, st, cb); err != nil {
		return err
	}
	if st.pre != nil {
		opts.Transform = st.pre
	}
	e.logger.Debug("dslash",
		zap.Stringer("family", op.Family),
		zap.Stringer("parity", op.Parity),
		zap.Bool("dagger", op.Dagger),
		zap.Bool("preconditioned", op.Preconditioned),
		zap.Ints("comms", dims))
	return e.sched.Run(ctx, in, opts, st)
}

// plan returns the cached plan for the extents of g, building it on first
// use. Geometries with equal extents share one plan.
func (e *Engine) plan(g *lattice.Geometry, parity lattice.Parity, comms [lattice.NDim]bool, depth int) *plan {
	k := planKey{global: g.Global(), grid: g.Grid(), proc: g.ProcCoords(), parity: parity, comms: comms, depth: depth}
	e.mu.Lock()
	defer e.mu.Unlock()
	p, ok := e.plans[k]
	if !ok {
		p = buildPlan(g, k)
		e.plans[k] = p
	}
	return p
}

// ExchangeGauge fills the ghost region of u to the given depth in every
// communicating dimension. It must be called after the links change and
// before they are used by an application that communicates.
func (e *Engine) ExchangeGauge(ctx context.Context, u *field.Gauge, depth int) error {
	if u == nil {
		return invalid("nil gauge field")
	}
	if depth < 1 || depth > u.GhostCapacity() {
		return invalid("gauge exchange depth %d outside [1,%d]", depth, u.GhostCapacity())
	}
	u.Invalidate()
	if err := e.sched.Exchange(ctx, u, overlap.Options{Depth: depth}); err != nil {
		return err
	}
	u.MarkExchanged(depth)
	return nil
}

// ApplyDslash5 applies the fifth-dimension operator typ with the mass and
// Mobius coefficients of op to args.In. It never communicates.
func (e *Engine) ApplyDslash5(ctx context.Context, typ dslash5.Type, op Operator, args Args) error {
	prof := profile.OrNop(args.Profile)
	prof.Start(profile.Dslash5)
	defer prof.Stop(profile.Dslash5)
	return dslash5.Apply(ctx, e.pool, args.Out, args.In, args.X, dslash5.Params{
		Type:   typ,
		Mf:     op.Mf,
		M5:     op.M5,
		B5:     slices.Clone(op.B5),
		C5:     slices.Clone(op.C5),
		A:      complex(op.A, 0),
		Xpay:   op.Xpay,
		Dagger: op.Dagger,
	})
}

func setupPlain(*Operator, *Args, *stencil, *combiner) error { return nil }

// twistSign returns b, or -b for the adjoint.
func twistSign(b float64, dagger bool) float64 {
	if dagger {
		return -b
	}
	return b
}

func setupWilsonClover(op *Operator, args *Args, st *stencil, cb *combiner) error {
	cl := args.Clover
	if !op.Preconditioned {
		cb.local = cloverOp(cb.ls, cl)
		return nil
	}
	if !cl.HasInverse() || cl.InverseTwist() != 0 {
		return fmt.Errorf("%w: preconditioned clover needs the plain clover inverse", lattice.ErrParameter)
	}
	cb.transform = cloverInverseOp(cb.ls, cl, op.Dagger)
	return nil
}

func setupTwistedMass(op *Operator, args *Args, st *stencil, cb *combiner) error {
	if !op.Preconditioned {
		cb.local = twistOp(cb.ls, twistSign(op.B, op.Dagger))
		return nil
	}
	return setupTwist(op, st, cb, twistOp(cb.ls, op.B), twistOp(cb.ls, -op.B))
}

func setupNdegTwistedMass(op *Operator, args *Args, st *stencil, cb *combiner) error {
	if args.In.Ls() != 2 {
		return invalid("non-degenerate twisted mass needs a flavour doublet, got Ls=%d", args.In.Ls())
	}
	if !op.Preconditioned {
		cb.local = flavorTwistOp(twistSign(op.B, op.Dagger), op.C, false)
		return nil
	}
	return setupTwist(op, st, cb, flavorTwistOp(op.B, op.C, false), flavorTwistOp(-op.B, op.C, false))
}

// setupTwist wires the preconditioned twisted-mass compositions. Without
// dagger T follows D. With dagger the asymmetric form keeps that order with
// T^dagger D^dagger; otherwise a*T^dagger is applied to the input, folded
// into halo packing for the sites that travel.
func setupTwist(op *Operator, st *stencil, cb *combiner, twist, adjoint siteOp) error {
	switch {
	case !op.Dagger:
		cb.transform = twist
	case op.Asymmetric:
		cb.transform = adjoint
	default:
		st.pre = columnTransform(adjoint, cb.a)
		cb.a = 1
	}
	return nil
}

func setupTwistedClover(op *Operator, args *Args, st *stencil, cb *combiner) error {
	cl := args.Clover
	if !op.Preconditioned {
		cb.local = cloverTwistOp(cb.ls, cl, twistSign(op.B, op.Dagger))
		return nil
	}
	if !cl.HasInverse() || cl.InverseTwist() != op.B {
		return fmt.Errorf("%w: preconditioned twisted clover needs the inverse of C + i*%g*gamma_5, have twist %g",
			lattice.ErrParameter, op.B, cl.InverseTwist())
	}
	cb.transform = cloverInverseOp(cb.ls, cl, op.Dagger)
	return nil
}

func setupDomainWall(op *Operator, args *Args, st *stencil, cb *combiner) error {
	if op.Parity != lattice.Full {
		return invalid("five-dimensional domain wall works on full fields, got %v", op.Parity)
	}
	cb.fifth = true
	cb.mf = op.Mf
	cb.dagger = op.Dagger
	return nil
}

func setupMobius4D(op *Operator, args *Args, st *stencil, cb *combiner) error {
	if len(op.B5) != cb.ls {
		return fmt.Errorf("%w: mobius needs %d b_5 coefficients, got %d", lattice.ErrParameter, cb.ls, len(op.B5))
	}
	cb.transform = sliceScaleOp(cb.sl, op.B5, op.Dagger)
	return nil
}

// setupStaggered uses D^dagger = -D.
func setupStaggered(op *Operator, args *Args, st *stencil, cb *combiner) error {
	if op.Dagger {
		cb.a = -cb.a
	}
	return nil
}

var _ overlap.Work = (*stencil)(nil)
var _ halo.Field = (*field.ColorSpinor)(nil)

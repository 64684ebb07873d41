// Copyright 2026 The go-lattice Authors. SPDX-License-Identifier: Apache-2.0

package dslash

import (
	"context"

	"github.com/ajroetker/go-lattice/lattice/field"
)

// The entry points below fill an Operator for one family and call Apply.
// A non-nil x selects the xpay form.

func (f Flags) operator(family Family, a float64, x *field.ColorSpinor) Operator {
	return Operator{
		Family:       family,
		Dagger:       f.Dagger,
		Xpay:         x != nil,
		A:            a,
		Parity:       f.Parity,
		DisableComms: f.DisableComms,
	}
}

func (f Flags) args(out, in, x *field.ColorSpinor, u *field.Gauge) Args {
	return Args{Out: out, In: in, X: x, Gauge: u, Profile: f.Profile}
}

// ApplyWilson sets out = kappa*D in [+ x].
func (e *Engine) ApplyWilson(ctx context.Context, out, in *field.ColorSpinor, u *field.Gauge, kappa float64, x *field.ColorSpinor, f Flags) error {
	return e.Apply(ctx, f.operator(Wilson, kappa, x), f.args(out, in, x, u))
}

// ApplyWilsonClover sets out = a*D in [+ C x].
func (e *Engine) ApplyWilsonClover(ctx context.Context, out, in *field.ColorSpinor, u *field.Gauge, cl *field.Clover, a float64, x *field.ColorSpinor, f Flags) error {
	args := f.args(out, in, x, u)
	args.Clover = cl
	return e.Apply(ctx, f.operator(WilsonClover, a, x), args)
}

// ApplyWilsonCloverPreconditioned sets out = a*C^-1 D in [+ x], or
// a*C^-dagger D^dagger in [+ x] with Dagger set.
func (e *Engine) ApplyWilsonCloverPreconditioned(ctx context.Context, out, in *field.ColorSpinor, u *field.Gauge, cl *field.Clover, a float64, x *field.ColorSpinor, f Flags) error {
	op := f.operator(WilsonClover, a, x)
	op.Preconditioned = true
	args := f.args(out, in, x, u)
	args.Clover = cl
	return e.Apply(ctx, op, args)
}

// ApplyTwistedMass sets out = a*D in [+ (1 +- i*b*gamma_5) x].
func (e *Engine) ApplyTwistedMass(ctx context.Context, out, in *field.ColorSpinor, u *field.Gauge, a, b float64, x *field.ColorSpinor, f Flags) error {
	op := f.operator(TwistedMass, a, x)
	op.B = b
	return e.Apply(ctx, op, f.args(out, in, x, u))
}

// ApplyTwistedMassPreconditioned sets out = a*(1 + i*b*gamma_5) D in [+ x].
// With Dagger set it applies D^dagger a(1 - i*b*gamma_5) in, or with
// asymmetric a(1 - i*b*gamma_5) D^dagger in.
func (e *Engine) ApplyTwistedMassPreconditioned(ctx context.Context, out, in *field.ColorSpinor, u *field.Gauge, a, b float64, asymmetric bool, x *field.ColorSpinor, f Flags) error {
	op := f.operator(TwistedMass, a, x)
	op.B = b
	op.Preconditioned = true
	op.Asymmetric = asymmetric
	return e.Apply(ctx, op, f.args(out, in, x, u))
}

// ApplyNdegTwistedMass sets out = a*D in [+ (1 +- i*b*gamma_5*tau_3 + c*tau_1) x]
// on a flavour doublet stored as Ls = 2.
func (e *Engine) ApplyNdegTwistedMass(ctx context.Context, out, in *field.ColorSpinor, u *field.Gauge, a, b, c float64, x *field.ColorSpinor, f Flags) error {
	op := f.operator(NdegTwistedMass, a, x)
	op.B, op.C = b, c
	return e.Apply(ctx, op, f.args(out, in, x, u))
}

// ApplyNdegTwistedMassPreconditioned is the doublet form of
// ApplyTwistedMassPreconditioned.
func (e *Engine) ApplyNdegTwistedMassPreconditioned(ctx context.Context, out, in *field.ColorSpinor, u *field.Gauge, a, b, c float64, asymmetric bool, x *field.ColorSpinor, f Flags) error {
	op := f.operator(NdegTwistedMass, a, x)
	op.B, op.C = b, c
	op.Preconditioned = true
	op.Asymmetric = asymmetric
	return e.Apply(ctx, op, f.args(out, in, x, u))
}

// ApplyTwistedClover sets out = a*D in [+ (C +- i*b*gamma_5) x].
func (e *Engine) ApplyTwistedClover(ctx context.Context, out, in *field.ColorSpinor, u *field.Gauge, cl *field.Clover, a, b float64, x *field.ColorSpinor, f Flags) error {
	op := f.operator(TwistedClover, a, x)
	op.B = b
	args := f.args(out, in, x, u)
	args.Clover = cl
	return e.Apply(ctx, op, args)
}

// ApplyTwistedCloverPreconditioned sets out = a*(C + i*b*gamma_5)^-1 D in [+ x].
// cl must hold the inverse computed with twist b.
func (e *Engine) ApplyTwistedCloverPreconditioned(ctx context.Context, out, in *field.ColorSpinor, u *field.Gauge, cl *field.Clover, a, b float64, x *field.ColorSpinor, f Flags) error {
	op := f.operator(TwistedClover, a, x)
	op.B = b
	op.Preconditioned = true
	args := f.args(out, in, x, u)
	args.Clover = cl
	return e.Apply(ctx, op, args)
}

// ApplyDomainWall sets out = a*(D_4 + H_mf) in [+ x] on full five-dimensional
// fields.
func (e *Engine) ApplyDomainWall(ctx context.Context, out, in *field.ColorSpinor, u *field.Gauge, a, mf float64, x *field.ColorSpinor, f Flags) error {
	op := f.operator(DomainWall, a, x)
	op.Mf = mf
	return e.Apply(ctx, op, f.args(out, in, x, u))
}

// ApplyDomainWall4D sets out_s = a*D_4 in_s [+ x_s] for every slice.
func (e *Engine) ApplyDomainWall4D(ctx context.Context, out, in *field.ColorSpinor, u *field.Gauge, a float64, x *field.ColorSpinor, f Flags) error {
	return e.Apply(ctx, f.operator(DomainWall4D, a, x), f.args(out, in, x, u))
}

// ApplyMobius4D sets out_s = a*b5[s]*D_4 in_s [+ x_s].
func (e *Engine) ApplyMobius4D(ctx context.Context, out, in *field.ColorSpinor, u *field.Gauge, a float64, b5 []complex128, x *field.ColorSpinor, f Flags) error {
	op := f.operator(Mobius4D, a, x)
	op.B5 = b5
	return e.Apply(ctx, op, f.args(out, in, x, u))
}

// ApplyStaggered sets out = a*D in [+ x]. A non-nil long selects the
// improved operator with its three-hop term.
func (e *Engine) ApplyStaggered(ctx context.Context, out, in *field.ColorSpinor, fat, long *field.Gauge, a float64, x *field.ColorSpinor, f Flags) error {
	family := Staggered
	if long != nil {
		family = ImprovedStaggered
	}
	args := f.args(out, in, x, fat)
	args.Long = long
	return e.Apply(ctx, f.operator(family, a, x), args)
}

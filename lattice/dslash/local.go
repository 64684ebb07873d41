// Copyright 2026 The go-lattice Authors. SPDX-License-Identifier: Apache-2.0

package dslash

import (
	"context"

	"github.com/ajroetker/go-lattice/lattice/field"
	"github.com/ajroetker/go-lattice/lattice/linalg"
	"github.com/ajroetker/go-lattice/lattice/profile"
)

// Twist describes a twisted-mass rotation 1 + i*B*gamma_5, or for a flavour
// doublet 1 + i*B*gamma_5*tau_3 + C*tau_1.
type Twist struct {
	B, C    float64
	Doublet bool
	Dagger  bool
	Inverse bool
}

// op returns the site operator of the rotation for columns of ls slices.
func (tw Twist) op(ls int) siteOp {
	b := twistSign(tw.B, tw.Dagger)
	if tw.Doublet {
		return flavorTwistOp(b, tw.C, tw.Inverse)
	}
	if !tw.Inverse {
		return twistOp(ls, b)
	}
	// (1 + i*b*gamma_5)^-1 = (1 - i*b*gamma_5) / (1 + b^2)
	scale := complex(1/(1+b*b), 0)
	return perSlice(ls, func(dst, src []complex128, _ int) {
		linalg.Twist(dst, src, -b)
		linalg.Scale(dst, scale)
	})
}

// applyLocal runs op over every site of in and writes out. out may alias in.
func (e *Engine) applyLocal(ctx context.Context, out, in *field.ColorSpinor, prof profile.Profile, op siteOp) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	prof = profile.OrNop(prof)
	prof.Start(profile.Local)
	defer prof.Stop(profile.Local)

	g := in.Geometry()
	p := in.Parity()
	ls, sl := in.Ls(), in.SiteLen()
	return e.pool.Range(in.Sites(), func(start, end int) {
		src := make([]complex128, ls*sl)
		dst := make([]complex128, ls*sl)
		for i := start; i < end; i++ {
			for s := range ls {
				copy(src[s*sl:(s+1)*sl], in.Site(s, i))
			}
			op(dst, src, g.LocalIndex(g.SiteCoord(p, i)))
			for s := range ls {
				copy(out.Site(s, i), dst[s*sl:(s+1)*sl])
			}
		}
	})
}

func checkSpinors(out, in *field.ColorSpinor) error {
	if out == nil || in == nil {
		return invalid("nil spinor field")
	}
	if !out.ShapeOf(in) || out.Parity() != in.Parity() {
		return invalid("output %v does not match input %v", out, in)
	}
	if in.NSpin() != linalg.NSpin {
		return invalid("local spin operators need four spins, got %d", in.NSpin())
	}
	return nil
}

func checkClover(cl *field.Clover, in *field.ColorSpinor) error {
	if cl == nil {
		return invalid("nil clover field")
	}
	if !cl.Geometry().Equal(in.Geometry()) {
		return invalid("clover field lives on a different geometry")
	}
	return nil
}

// ApplyClover sets out = C in, or C^-1 in when inverse is set. The inverse
// must have been computed with zero twist.
func (e *Engine) ApplyClover(ctx context.Context, out, in *field.ColorSpinor, cl *field.Clover, inverse bool, prof profile.Profile) error {
	if err := checkSpinors(out, in); err != nil {
		return err
	}
	if err := checkClover(cl, in); err != nil {
		return err
	}
	if !inverse {
		return e.applyLocal(ctx, out, in, prof, cloverOp(in.Ls(), cl))
	}
	if !cl.HasInverse() || cl.InverseTwist() != 0 {
		return invalid("clover inverse not computed with zero twist")
	}
	return e.applyLocal(ctx, out, in, prof, cloverInverseOp(in.Ls(), cl, false))
}

// ApplyTwistGamma applies the twisted-mass rotation tw, its adjoint or its
// inverse to in. Doublet rotations need Ls = 2.
func (e *Engine) ApplyTwistGamma(ctx context.Context, out, in *field.ColorSpinor, tw Twist, prof profile.Profile) error {
	if err := checkSpinors(out, in); err != nil {
		return err
	}
	if tw.Doublet && in.Ls() != 2 {
		return invalid("flavour doublet needs Ls=2, got %d", in.Ls())
	}
	return e.applyLocal(ctx, out, in, prof, tw.op(in.Ls()))
}

// ApplyTwistClover applies C + i*B*gamma_5, its adjoint, or with Inverse set
// the stored inverse or its adjoint. The inverse must have been computed
// with twist B. Doublet is not supported.
func (e *Engine) ApplyTwistClover(ctx context.Context, out, in *field.ColorSpinor, cl *field.Clover, tw Twist, prof profile.Profile) error {
	if err := checkSpinors(out, in); err != nil {
		return err
	}
	if err := checkClover(cl, in); err != nil {
		return err
	}
	if tw.Doublet {
		return invalid("twisted clover does not act on flavour doublets")
	}
	if !tw.Inverse {
		return e.applyLocal(ctx, out, in, prof, cloverTwistOp(in.Ls(), cl, twistSign(tw.B, tw.Dagger)))
	}
	if !cl.HasInverse() || cl.InverseTwist() != tw.B {
		return invalid("clover inverse computed with twist %g, need %g", cl.InverseTwist(), tw.B)
	}
	return e.applyLocal(ctx, out, in, prof, cloverInverseOp(in.Ls(), cl, tw.Dagger))
}

// Gamma5 sets out = gamma_5 in. out may alias in.
func (e *Engine) Gamma5(ctx context.Context, out, in *field.ColorSpinor) error {
	if err := checkSpinors(out, in); err != nil {
		return err
	}
	return e.applyLocal(ctx, out, in, nil, perSlice(in.Ls(), func(dst, src []complex128, _ int) {
		linalg.Gamma5(dst, src)
	}))
}

// Copyright 2026 The go-lattice Authors. SPDX-License-Identifier: Apache-2.0

package dslash

import (
	"math/cmplx"

	"github.com/ajroetker/go-lattice/lattice/dslash5"
	"github.com/ajroetker/go-lattice/lattice/field"
	"github.com/ajroetker/go-lattice/lattice/linalg"
)

// siteOp applies a local operator to the Ls column of one site. lex is the
// lexicographic site index, used by operators that read a clover field. dst
// and src do not alias.
type siteOp func(dst, src []complex128, lex int)

// combiner finishes one output site once its hopping sum is complete:
//
//	out = a * T(sum [+ H_mf in]) [+ L(x) | + x]
//
// T and L are optional. No full-field intermediate is formed.
type combiner struct {
	out, in, x *field.ColorSpinor
	a          complex128
	transform  siteOp
	local      siteOp
	xpay       bool

	// fifth adds the fifth-dimension hop of the 5D domain-wall operator.
	fifth  bool
	mf     float64
	dagger bool

	ls, sl int
}

func (cb *combiner) finalize(i, lex int, sum []complex128, ws *workspace) {
	ls, sl := cb.ls, cb.sl
	r := sum
	if cb.fifth {
		for s := range ls {
			copy(ws.in[s*sl:(s+1)*sl], cb.in.Site(s, i))
		}
		dslash5.Hop(ws.h, ws.in, ls, cb.mf, cb.dagger)
		for k := range r {
			r[k] += ws.h[k]
		}
	}
	if cb.transform != nil {
		cb.transform(ws.t, r, lex)
		r = ws.t
	}
	var add []complex128
	if cb.xpay {
		for s := range ls {
			copy(ws.x[s*sl:(s+1)*sl], cb.x.Site(s, i))
		}
		add = ws.x
		if cb.local != nil {
			cb.local(ws.l, ws.x, lex)
			add = ws.l
		}
	}
	for s := range ls {
		o := cb.out.Site(s, i)
		rs := r[s*sl : (s+1)*sl]
		if add == nil {
			for k := range o {
				o[k] = cb.a * rs[k]
			}
			continue
		}
		as := add[s*sl : (s+1)*sl]
		for k := range o {
			o[k] = cb.a*rs[k] + as[k]
		}
	}
}

// perSlice lifts a spinor operator to a column of ls slices.
func perSlice(ls int, fn func(dst, src []complex128, lex int)) siteOp {
	return func(dst, src []complex128, lex int) {
		for s := range ls {
			o := s * linalg.SpinorLen
			fn(dst[o:o+linalg.SpinorLen], src[o:o+linalg.SpinorLen], lex)
		}
	}
}

func twistOp(ls int, b float64) siteOp {
	return perSlice(ls, func(dst, src []complex128, _ int) {
		linalg.Twist(dst, src, b)
	})
}

// flavorTwistOp treats the two slices of a column as the flavour doublet.
func flavorTwistOp(b, c float64, inverse bool) siteOp {
	if inverse {
		return func(dst, src []complex128, _ int) {
			linalg.InverseFlavorTwist(dst, src, b, c)
		}
	}
	return func(dst, src []complex128, _ int) {
		linalg.FlavorTwist(dst, src, b, c)
	}
}

func cloverOp(ls int, cl *field.Clover) siteOp {
	return perSlice(ls, func(dst, src []complex128, lex int) {
		linalg.CloverApply(dst, cl.Site(lex), src)
	})
}

func cloverTwistOp(ls int, cl *field.Clover, b float64) siteOp {
	return perSlice(ls, func(dst, src []complex128, lex int) {
		linalg.CloverTwistApply(dst, cl.Site(lex), src, b)
	})
}

// cloverInverseOp applies the stored inverse, or its adjoint.
func cloverInverseOp(ls int, cl *field.Clover, adjoint bool) siteOp {
	if adjoint {
		return perSlice(ls, func(dst, src []complex128, lex int) {
			linalg.CloverAdjointApply(dst, cl.InverseSite(lex), src)
		})
	}
	return perSlice(ls, func(dst, src []complex128, lex int) {
		linalg.CloverApply(dst, cl.InverseSite(lex), src)
	})
}

// sliceScaleOp multiplies slice s by coeff[s], conjugated when dagger is set.
func sliceScaleOp(sl int, coeff []complex128, dagger bool) siteOp {
	return func(dst, src []complex128, _ int) {
		for s, c := range coeff {
			if dagger {
				c = cmplx.Conj(c)
			}
			for k := s * sl; k < (s+1)*sl; k++ {
				dst[k] = c * src[k]
			}
		}
	}
}

// columnTransform drops the site index of an operator that does not use it,
// for folding into halo packing.
func columnTransform(op siteOp, a complex128) func(dst, src []complex128) {
	return func(dst, src []complex128) {
		op(dst, src, 0)
		linalg.Scale(dst[:len(src)], a)
	}
}

// Copyright 2026 The go-lattice Authors. SPDX-License-Identifier: Apache-2.0

// Package dslash5 applies the operators that act along the fifth dimension
// of domain-wall fermions. They couple the Ls slices of each 4D site and
// never communicate.
//
// With P+ and P- the chiral projectors onto the upper and lower spin
// components, the hop H is
//
//	(H psi)_s = P- psi_{s+1} + P+ psi_{s-1}
//
// with the wrap-around terms (s+1 = Ls and s-1 = -1) multiplied by -m_f.
package dslash5

//go:generate go tool stringer -type=Type -linecomment -output=type_string.go

import (
	"context"
	"fmt"
	"math/cmplx"

	"github.com/ajroetker/go-lattice/lattice"
	"github.com/ajroetker/go-lattice/lattice/field"
	"github.com/ajroetker/go-lattice/lattice/linalg"
	"github.com/ajroetker/go-lattice/lattice/workerpool"
)

// Type selects the fifth-dimension operator.
type Type int

const (
	// DWF applies H.
	DWF Type = iota // dwf
	// MobiusPre applies b_5 + c_5 H.
	MobiusPre // mobius-pre
	// Mobius applies 1 + kappa_s H.
	Mobius // mobius
	// M5InvDWF applies (1 + kappa H)^-1 with kappa = -1/(5+m_5).
	M5InvDWF // m5inv-dwf
	// M5InvMobius applies (1 + kappa H)^-1 for uniform Mobius coefficients.
	M5InvMobius // m5inv-mobius
	// M5InvZMobius applies (1 + kappa_s H)^-1 for per-slice complex
	// coefficients.
	M5InvZMobius // m5inv-zmobius
)

// Params describes one application. B5 and C5 are read during the call
// only and must have one entry per slice for every type but DWF and
// M5InvDWF.
type Params struct {
	Type   Type
	Mf     float64
	M5     float64
	B5, C5 []complex128
	// A scales the result when Xpay is set: out = x + A*result.
	A      complex128
	Xpay   bool
	Dagger bool
}

// half is the number of values in one chirality of a spinor.
const half = linalg.SpinorLen / 2

// Kappa returns kappa_s = (c_s(4+m_5) - 1) / (b_s(4+m_5) + 1) for every
// slice, with b = 1, c = 0 for the DWF types.
func Kappa(p Params, ls int) ([]complex128, error) {
	b, c := p.B5, p.C5
	switch p.Type {
	case DWF, M5InvDWF:
		b, c = nil, nil
	default:
		if len(b) != ls || len(c) != ls {
			return nil, fmt.Errorf("%w: %v needs %d b_5 and c_5 coefficients, got %d and %d",
				lattice.ErrParameter, p.Type, ls, len(b), len(c))
		}
	}
	m := complex(4+p.M5, 0)
	k := make([]complex128, ls)
	for s := range ls {
		bs, cs := complex128(1), complex128(0)
		if b != nil {
			bs, cs = b[s], c[s]
		}
		den := bs*m + 1
		if den == 0 {
			return nil, fmt.Errorf("%w: b_5(4+m_5)+1 vanishes on slice %d", lattice.ErrParameter, s)
		}
		k[s] = (cs*m - 1) / den
	}
	if p.Type == M5InvMobius {
		for s := 1; s < ls; s++ {
			if b[s] != b[0] || c[s] != c[0] {
				return nil, fmt.Errorf("%w: %v needs uniform coefficients, slice %d differs", lattice.ErrParameter, p.Type, s)
			}
		}
	}
	return k, nil
}

// Hop sets dst = H src, or H^dagger src, for one 4D site. src and dst hold
// ls spinors, one per slice, and must not alias.
func Hop(dst, src []complex128, ls int, mf float64, dagger bool) {
	w := complex(-mf, 0)
	for s := range ls {
		up, down := (s+ls-1)%ls, (s+1)%ls
		wUp, wDown := complex128(1), complex128(1)
		if s == 0 {
			wUp = w
		}
		if s == ls-1 {
			wDown = w
		}
		d := dst[s*linalg.SpinorLen : (s+1)*linalg.SpinorLen]
		// H: upper chirality from s-1, lower from s+1. H^dagger swaps them.
		upSrc, downSrc := up, down
		if dagger {
			upSrc, downSrc = down, up
			wUp, wDown = wDown, wUp
		}
		su := src[upSrc*linalg.SpinorLen:]
		sd := src[downSrc*linalg.SpinorLen:]
		for i := range half {
			d[i] = wUp * su[i]
			d[half+i] = wDown * sd[half+i]
		}
	}
}

func validate(out, in, x *field.ColorSpinor, p Params) error {
	if out == nil || in == nil {
		return fmt.Errorf("%w: nil field", lattice.ErrInvalidArgument)
	}
	if out == in {
		return fmt.Errorf("%w: output aliases input", lattice.ErrInvalidArgument)
	}
	if in.NSpin() != linalg.NSpin {
		return fmt.Errorf("%w: fifth-dimension operators need four spins", lattice.ErrInvalidArgument)
	}
	if !out.ShapeOf(in) || out.Parity() != in.Parity() {
		return fmt.Errorf("%w: output %v does not match input %v", lattice.ErrInvalidArgument, out, in)
	}
	if p.Xpay {
		if x == nil {
			return fmt.Errorf("%w: xpay requested without x", lattice.ErrInvalidArgument)
		}
		if !x.ShapeOf(in) || x.Parity() != in.Parity() {
			return fmt.Errorf("%w: x %v does not match input %v", lattice.ErrInvalidArgument, x, in)
		}
	}
	if p.Type < DWF || p.Type > M5InvZMobius {
		return fmt.Errorf("%w: unknown type %v", lattice.ErrInvalidArgument, p.Type)
	}
	return nil
}

// Apply sets out to the operator selected by p applied to in, plus x when
// p.Xpay is set. x may alias out. pool may be nil.
func Apply(ctx context.Context, pool *workerpool.Pool, out, in, x *field.ColorSpinor, p Params) error {
	if err := validate(out, in, x, p); err != nil {
		return err
	}
	ls := in.Ls()
	kappa, err := Kappa(p, ls)
	if err != nil {
		return err
	}
	var up, down []complex128
	if p.Type >= M5InvDWF {
		up, down = inverseCoefficients(kappa, p.Mf, p.Dagger)
		if err := checkSolvable(up, down); err != nil {
			return err
		}
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	kernel := func(start, end int) {
		n := ls * linalg.SpinorLen
		col := make([]complex128, n)
		res := make([]complex128, n)
		tmp := make([]complex128, n)
		for site := start; site < end; site++ {
			for s := range ls {
				copy(col[s*linalg.SpinorLen:(s+1)*linalg.SpinorLen], in.Site(s, site))
			}
			applyColumn(res, col, tmp, kappa, up, down, p)
			for s := range ls {
				o := out.Site(s, site)
				r := res[s*linalg.SpinorLen : (s+1)*linalg.SpinorLen]
				if p.Xpay {
					xs := x.Site(s, site)
					for i := range o {
						o[i] = xs[i] + p.A*r[i]
					}
				} else {
					copy(o, r)
				}
			}
		}
	}
	if pool == nil {
		kernel(0, in.Sites())
		return nil
	}
	return pool.Range(in.Sites(), kernel)
}

// applyColumn evaluates the operator on the ls spinors of one site.
func applyColumn(res, col, tmp, kappa, up, down []complex128, p Params) {
	ls := len(kappa)
	sl := linalg.SpinorLen
	switch p.Type {
	case DWF:
		Hop(res, col, ls, p.Mf, p.Dagger)
	case MobiusPre:
		b, c := p.B5, p.C5
		if !p.Dagger {
			Hop(res, col, ls, p.Mf, false)
			for s := range ls {
				for i := range sl {
					res[s*sl+i] = b[s]*col[s*sl+i] + c[s]*res[s*sl+i]
				}
			}
			return
		}
		for s := range ls {
			for i := range sl {
				tmp[s*sl+i] = cmplx.Conj(c[s]) * col[s*sl+i]
			}
		}
		Hop(res, tmp, ls, p.Mf, true)
		for s := range ls {
			for i := range sl {
				res[s*sl+i] += cmplx.Conj(b[s]) * col[s*sl+i]
			}
		}
	case Mobius:
		if !p.Dagger {
			Hop(res, col, ls, p.Mf, false)
			for s := range ls {
				for i := range sl {
					res[s*sl+i] = col[s*sl+i] + kappa[s]*res[s*sl+i]
				}
			}
			return
		}
		for s := range ls {
			for i := range sl {
				tmp[s*sl+i] = cmplx.Conj(kappa[s]) * col[s*sl+i]
			}
		}
		Hop(res, tmp, ls, p.Mf, true)
		for i := range res {
			res[i] += col[i]
		}
	default:
		solveCyclic(res, col, up, 0, !p.Dagger)
		solveCyclic(res, col, down, half, p.Dagger)
	}
}

// Copyright 2026 The go-lattice Authors. SPDX-License-Identifier: Apache-2.0

package field

import (
	"fmt"
	"math"
	"math/cmplx"

	"github.com/ajroetker/go-lattice/lattice"
)

func sameShape(a, b *ColorSpinor) error {
	if !a.ShapeOf(b) || a.parity != b.parity {
		return fmt.Errorf("%w: %v and %v differ in shape", lattice.ErrInvalidArgument, a, b)
	}
	return nil
}

// Zero clears the site data of f. The ghost region is left untouched.
func Zero(f *ColorSpinor) { clear(f.data) }

// Copy sets dst = src.
func Copy(dst, src *ColorSpinor) error {
	if err := sameShape(dst, src); err != nil {
		return err
	}
	copy(dst.data, src.data)
	return nil
}

// Clone returns a deep copy of the site data of f with a fresh ghost region.
func Clone(f *ColorSpinor) *ColorSpinor {
	c := MustColorSpinor(f.geom, SpinorParams{Parity: f.parity, NSpin: f.nSpin, Ls: f.ls, NFace: f.nFace})
	copy(c.data, f.data)
	return c
}

// Like returns a zeroed field with the shape of f and parity p.
func Like(f *ColorSpinor, p lattice.Parity) *ColorSpinor {
	return MustColorSpinor(f.geom, SpinorParams{Parity: p, NSpin: f.nSpin, Ls: f.ls, NFace: f.nFace})
}

// Axpy sets y += a*x.
func Axpy(y *ColorSpinor, a complex128, x *ColorSpinor) error {
	if err := sameShape(y, x); err != nil {
		return err
	}
	for i, v := range x.data {
		y.data[i] += a * v
	}
	return nil
}

// Scale multiplies f by a.
func Scale(f *ColorSpinor, a complex128) {
	for i := range f.data {
		f.data[i] *= a
	}
}

// Norm2 returns the squared 2-norm of the local site data.
func Norm2(f *ColorSpinor) float64 {
	var n float64
	for _, v := range f.data {
		n += real(v)*real(v) + imag(v)*imag(v)
	}
	return n
}

// Dot returns the local inner product <a, b> = sum conj(a_i) b_i.
func Dot(a, b *ColorSpinor) (complex128, error) {
	if err := sameShape(a, b); err != nil {
		return 0, err
	}
	var s complex128
	for i, v := range a.data {
		s += cmplx.Conj(v) * b.data[i]
	}
	return s, nil
}

// MaxDiff returns the largest element-wise distance between two fields of
// the same shape, or +Inf when the shapes differ.
func MaxDiff(a, b *ColorSpinor) float64 {
	if sameShape(a, b) != nil {
		return math.Inf(1)
	}
	var m float64
	for i, v := range a.data {
		m = max(m, cmplx.Abs(v-b.data[i]))
	}
	return m
}

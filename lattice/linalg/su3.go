// Copyright 2026 The go-lattice Authors. SPDX-License-Identifier: Apache-2.0

package linalg

import (
	"math"
	"math/cmplx"
)

const (
	// NColor is the number of colours.
	NColor = 3
	// MatrixLen is the length of a colour matrix.
	MatrixLen = NColor * NColor
)

// MatVec sets dst = m * v.
func MatVec(dst, m, v []complex128) {
	_ = dst[2]
	_ = m[8]
	v0, v1, v2 := v[0], v[1], v[2]
	dst[0] = m[0]*v0 + m[1]*v1 + m[2]*v2
	dst[1] = m[3]*v0 + m[4]*v1 + m[5]*v2
	dst[2] = m[6]*v0 + m[7]*v1 + m[8]*v2
}

// AdjMatVec sets dst = m^dagger * v.
func AdjMatVec(dst, m, v []complex128) {
	_ = dst[2]
	_ = m[8]
	v0, v1, v2 := v[0], v[1], v[2]
	dst[0] = cmplx.Conj(m[0])*v0 + cmplx.Conj(m[3])*v1 + cmplx.Conj(m[6])*v2
	dst[1] = cmplx.Conj(m[1])*v0 + cmplx.Conj(m[4])*v1 + cmplx.Conj(m[7])*v2
	dst[2] = cmplx.Conj(m[2])*v0 + cmplx.Conj(m[5])*v1 + cmplx.Conj(m[8])*v2
}

// LinkApply sets dst = m * src, or m^dagger * src when adjoint is set, for
// every colour vector packed in src (nSpin of them).
func LinkApply(dst, m, src []complex128, nSpin int, adjoint bool) {
	for s := range nSpin {
		o := s * NColor
		if adjoint {
			AdjMatVec(dst[o:o+NColor], m, src[o:o+NColor])
		} else {
			MatVec(dst[o:o+NColor], m, src[o:o+NColor])
		}
	}
}

// MatMul sets dst = a * b. dst must not alias a or b.
func MatMul(dst, a, b []complex128) {
	for i := range NColor {
		for j := range NColor {
			var s complex128
			for k := range NColor {
				s += a[i*NColor+k] * b[k*NColor+j]
			}
			dst[i*NColor+j] = s
		}
	}
}

// Adjoint sets dst = m^dagger. dst must not alias m.
func Adjoint(dst, m []complex128) {
	for i := range NColor {
		for j := range NColor {
			dst[j*NColor+i] = cmplx.Conj(m[i*NColor+j])
		}
	}
}

// Det returns the determinant of a colour matrix.
func Det(m []complex128) complex128 {
	return m[0]*(m[4]*m[8]-m[5]*m[7]) -
		m[1]*(m[3]*m[8]-m[5]*m[6]) +
		m[2]*(m[3]*m[7]-m[4]*m[6])
}

// Identity writes the colour identity into m.
func Identity(m []complex128) {
	clear(m[:MatrixLen])
	m[0], m[4], m[8] = 1, 1, 1
}

// Unitarize projects m onto SU(3) in place by Gram-Schmidt on the first two
// rows, completing the third as the conjugate cross product.
func Unitarize(m []complex128) {
	r0, r1, r2 := m[0:3], m[3:6], m[6:9]
	normalize(r0)
	var p complex128
	for i := range NColor {
		p += cmplx.Conj(r0[i]) * r1[i]
	}
	for i := range NColor {
		r1[i] -= p * r0[i]
	}
	normalize(r1)
	r2[0] = cmplx.Conj(r0[1]*r1[2] - r0[2]*r1[1])
	r2[1] = cmplx.Conj(r0[2]*r1[0] - r0[0]*r1[2])
	r2[2] = cmplx.Conj(r0[0]*r1[1] - r0[1]*r1[0])
}

func normalize(v []complex128) {
	var n float64
	for _, x := range v {
		n += real(x)*real(x) + imag(x)*imag(x)
	}
	if n == 0 {
		return
	}
	inv := complex(1/math.Sqrt(n), 0)
	for i := range v {
		v[i] *= inv
	}
}

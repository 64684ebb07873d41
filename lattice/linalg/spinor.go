// Copyright 2026 The go-lattice Authors. SPDX-License-Identifier: Apache-2.0

package linalg

const (
	// NSpin is the number of spin components of a Wilson-type spinor.
	NSpin = 4
	// SpinorLen is the length of a Wilson-type spinor.
	SpinorLen = NSpin * NColor
)

// gamma is a matrix with exactly one non-zero entry per row, which holds for
// every gamma matrix in a chiral basis: row r of gamma*psi is
// phase[r] * psi[col[r]].
type gamma struct {
	col   [NSpin]int
	phase [NSpin]complex128
}

// gammas holds gamma_1..gamma_4 (dimensions x, y, z, t) followed by gamma_5.
var gammas = [5]gamma{
	{col: [4]int{3, 2, 1, 0}, phase: [4]complex128{1i, 1i, -1i, -1i}},
	{col: [4]int{3, 2, 1, 0}, phase: [4]complex128{-1, 1, 1, -1}},
	{col: [4]int{2, 3, 0, 1}, phase: [4]complex128{1i, -1i, -1i, 1i}},
	{col: [4]int{2, 3, 0, 1}, phase: [4]complex128{1, 1, 1, 1}},
	{col: [4]int{0, 1, 2, 3}, phase: [4]complex128{1, 1, -1, -1}},
}

// Gamma5Index selects gamma_5 in ApplyGamma.
const Gamma5Index = 4

// GammaEntry returns row r, column c of gamma matrix mu (0..3, or 4 for
// gamma_5).
func GammaEntry(mu, r, c int) complex128 {
	g := &gammas[mu]
	if g.col[r] == c {
		return g.phase[r]
	}
	return 0
}

// ApplyGamma sets dst = gamma_mu * src. dst must not alias src.
func ApplyGamma(dst, src []complex128, mu int) {
	g := &gammas[mu]
	for r := range NSpin {
		c := g.col[r]
		ph := g.phase[r]
		for k := range NColor {
			dst[r*NColor+k] = ph * src[c*NColor+k]
		}
	}
}

// Gamma5 sets dst = gamma_5 * src. dst may alias src.
func Gamma5(dst, src []complex128) {
	_ = src[SpinorLen-1]
	for i := range SpinorLen / 2 {
		dst[i] = src[i]
	}
	for i := SpinorLen / 2; i < SpinorLen; i++ {
		dst[i] = -src[i]
	}
}

// ProjectAdd accumulates dst += (1 + sign*gamma_mu) * src for mu in 0..3 and
// sign = +1 or -1.
func ProjectAdd(dst, src []complex128, mu int, sign float64) {
	g := &gammas[mu]
	s := complex(sign, 0)
	for r := range NSpin {
		ph := s * g.phase[r]
		c := g.col[r]
		for k := range NColor {
			dst[r*NColor+k] += src[r*NColor+k] + ph*src[c*NColor+k]
		}
	}
}

// Chirality returns +1 for spins 0 and 1 and -1 for spins 2 and 3.
func Chirality(spin int) float64 {
	if spin < NSpin/2 {
		return 1
	}
	return -1
}

// Twist sets dst = (1 + i*b*gamma_5) * src over a Wilson spinor. dst may
// alias src.
func Twist(dst, src []complex128, b float64) {
	up := complex(1, b)
	down := complex(1, -b)
	for i := range SpinorLen / 2 {
		dst[i] = up * src[i]
	}
	for i := SpinorLen / 2; i < SpinorLen; i++ {
		dst[i] = down * src[i]
	}
}

// FlavorTwist sets dst = (1 + i*b*gamma_5*tau_3 + c*tau_1) * src for a
// two-flavour spinor pair laid out as [flavour][spinor]. tau_3 is +1 on
// flavour 0 and -1 on flavour 1. dst must not alias src.
func FlavorTwist(dst, src []complex128, b, c float64) {
	s0, s1 := src[:SpinorLen], src[SpinorLen:2*SpinorLen]
	d0, d1 := dst[:SpinorLen], dst[SpinorLen:2*SpinorLen]
	Twist(d0, s0, b)
	Twist(d1, s1, -b)
	cc := complex(c, 0)
	for i := range SpinorLen {
		d0[i] += cc * s1[i]
		d1[i] += cc * s0[i]
	}
}

// InverseFlavorTwist sets dst = (1 + i*b*gamma_5*tau_3 + c*tau_1)^-1 * src,
// which equals (1 - i*b*gamma_5*tau_3 - c*tau_1) / (1 + b^2 - c^2). dst must
// not alias src.
func InverseFlavorTwist(dst, src []complex128, b, c float64) {
	FlavorTwist(dst, src, -b, -c)
	Scale(dst[:2*SpinorLen], complex(1/(1+b*b-c*c), 0))
}

// Scale multiplies every element of v by a.
func Scale(v []complex128, a complex128) {
	for i := range v {
		v[i] *= a
	}
}

// Axpy sets y += a*x.
func Axpy(y []complex128, a complex128, x []complex128) {
	for i, xv := range x {
		y[i] += a * xv
	}
}

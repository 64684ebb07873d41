// Copyright 2026 The go-lattice Authors. SPDX-License-Identifier: Apache-2.0

package linalg

import (
	"math/cmplx"
	"math/rand/v2"
	"testing"

	"github.com/google/go-cmp/cmp"
)

const tol = 1e-12

var approx = cmp.Comparer(func(a, b complex128) bool {
	return cmplx.Abs(a-b) <= tol*(1+cmplx.Abs(a)+cmplx.Abs(b))
})

func randomVec(rng *rand.Rand, n int) []complex128 {
	v := make([]complex128, n)
	for i := range v {
		v[i] = complex(rng.NormFloat64(), rng.NormFloat64())
	}
	return v
}

func gammaMatrix(mu int) [NSpin][NSpin]complex128 {
	var m [NSpin][NSpin]complex128
	for r := range NSpin {
		for c := range NSpin {
			m[r][c] = GammaEntry(mu, r, c)
		}
	}
	return m
}

func mul4(a, b [NSpin][NSpin]complex128) [NSpin][NSpin]complex128 {
	var m [NSpin][NSpin]complex128
	for i := range NSpin {
		for j := range NSpin {
			for k := range NSpin {
				m[i][j] += a[i][k] * b[k][j]
			}
		}
	}
	return m
}

func TestGammaAlgebra(t *testing.T) {
	for mu := range 4 {
		for nu := range 4 {
			a := mul4(gammaMatrix(mu), gammaMatrix(nu))
			b := mul4(gammaMatrix(nu), gammaMatrix(mu))
			for i := range NSpin {
				for j := range NSpin {
					want := complex128(0)
					if mu == nu && i == j {
						want = 2
					}
					if got := a[i][j] + b[i][j]; got != want {
						t.Errorf("{gamma_%d, gamma_%d}[%d][%d] = %v, want %v", mu, nu, i, j, got, want)
					}
				}
			}
		}
	}
}

func TestGammaHermitian(t *testing.T) {
	for mu := range 5 {
		g := gammaMatrix(mu)
		for i := range NSpin {
			for j := range NSpin {
				if g[i][j] != cmplx.Conj(g[j][i]) {
					t.Errorf("gamma_%d not Hermitian at [%d][%d]", mu, i, j)
				}
			}
		}
	}
}

func TestGamma5Product(t *testing.T) {
	p := mul4(mul4(gammaMatrix(0), gammaMatrix(1)), mul4(gammaMatrix(2), gammaMatrix(3)))
	g5 := gammaMatrix(Gamma5Index)
	if p != g5 {
		t.Errorf("gamma_1 gamma_2 gamma_3 gamma_4 = %v, want %v", p, g5)
	}
}

func TestApplyGammaMatchesEntries(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	src := randomVec(rng, SpinorLen)
	dst := make([]complex128, SpinorLen)
	for mu := range 5 {
		ApplyGamma(dst, src, mu)
		want := make([]complex128, SpinorLen)
		for r := range NSpin {
			for c := range NSpin {
				for k := range NColor {
					want[r*NColor+k] += GammaEntry(mu, r, c) * src[c*NColor+k]
				}
			}
		}
		if diff := cmp.Diff(want, dst, approx); diff != "" {
			t.Errorf("ApplyGamma(mu=%d) mismatch (-want +got):\n%s", mu, diff)
		}
	}
	want := append([]complex128(nil), dst...)
	Gamma5(src, src)
	if diff := cmp.Diff(want, src, approx); diff != "" {
		t.Errorf("Gamma5 in place mismatch (-want +got):\n%s", diff)
	}
}

func TestProjectAdd(t *testing.T) {
	rng := rand.New(rand.NewPCG(3, 4))
	src := randomVec(rng, SpinorLen)
	g := make([]complex128, SpinorLen)
	for mu := range 4 {
		for _, sign := range []float64{1, -1} {
			dst := make([]complex128, SpinorLen)
			ProjectAdd(dst, src, mu, sign)
			ApplyGamma(g, src, mu)
			want := make([]complex128, SpinorLen)
			for i := range want {
				want[i] = src[i] + complex(sign, 0)*g[i]
			}
			if diff := cmp.Diff(want, dst, approx); diff != "" {
				t.Errorf("ProjectAdd(mu=%d, sign=%v) mismatch (-want +got):\n%s", mu, sign, diff)
			}
		}
	}
}

func TestTwistInverse(t *testing.T) {
	rng := rand.New(rand.NewPCG(5, 6))
	src := randomVec(rng, 2*SpinorLen)
	fwd := make([]complex128, 2*SpinorLen)
	back := make([]complex128, 2*SpinorLen)
	FlavorTwist(fwd, src, 0.3, 0.2)
	InverseFlavorTwist(back, fwd, 0.3, 0.2)
	if diff := cmp.Diff(src, back, approx); diff != "" {
		t.Errorf("InverseFlavorTwist(FlavorTwist(x)) mismatch (-want +got):\n%s", diff)
	}

	// (1 + i b g5)(1 - i b g5) = 1 + b^2.
	one := append([]complex128(nil), src[:SpinorLen]...)
	Twist(one, one, 0.4)
	Twist(one, one, -0.4)
	Scale(one, complex(1/(1+0.16), 0))
	if diff := cmp.Diff(src[:SpinorLen], one, approx); diff != "" {
		t.Errorf("Twist(-b) Twist(b) mismatch (-want +got):\n%s", diff)
	}
}

func TestUnitarize(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 8))
	m := randomVec(rng, MatrixLen)
	Unitarize(m)
	adj := make([]complex128, MatrixLen)
	prod := make([]complex128, MatrixLen)
	id := make([]complex128, MatrixLen)
	Adjoint(adj, m)
	MatMul(prod, adj, m)
	Identity(id)
	if diff := cmp.Diff(id, prod, approx); diff != "" {
		t.Errorf("U^dagger U mismatch (-want +got):\n%s", diff)
	}
	if d := Det(m); cmplx.Abs(d-1) > 1e-12 {
		t.Errorf("Det(U) = %v, want 1", d)
	}
}

func TestLinkApplyAdjoint(t *testing.T) {
	rng := rand.New(rand.NewPCG(9, 10))
	m := randomVec(rng, MatrixLen)
	Unitarize(m)
	src := randomVec(rng, SpinorLen)
	fwd := make([]complex128, SpinorLen)
	back := make([]complex128, SpinorLen)
	LinkApply(fwd, m, src, NSpin, false)
	LinkApply(back, m, fwd, NSpin, true)
	if diff := cmp.Diff(src, back, approx); diff != "" {
		t.Errorf("U^dagger U psi mismatch (-want +got):\n%s", diff)
	}
}

func randomClover(rng *rand.Rand) []complex128 {
	c := make([]complex128, CloverLen)
	for chi := range 2 {
		blk := c[chi*BlockLen : (chi+1)*BlockLen]
		for i := range BlockDim {
			blk[i*BlockDim+i] = complex(1+0.1*rng.NormFloat64(), 0)
			for j := i + 1; j < BlockDim; j++ {
				v := complex(0.1*rng.NormFloat64(), 0.1*rng.NormFloat64())
				blk[i*BlockDim+j] = v
				blk[j*BlockDim+i] = cmplx.Conj(v)
			}
		}
	}
	return c
}

func TestInvertClover(t *testing.T) {
	rng := rand.New(rand.NewPCG(11, 12))
	c := randomClover(rng)
	for chi := range 2 {
		if !IsHermitianBlock(c[chi*BlockLen:], tol) {
			t.Fatalf("block %d not Hermitian", chi)
		}
	}
	src := randomVec(rng, SpinorLen)
	for _, b := range []float64{0, 0.25} {
		inv := make([]complex128, CloverLen)
		if err := InvertClover(inv, c, b); err != nil {
			t.Fatalf("InvertClover(b=%v): %v", b, err)
		}
		fwd := make([]complex128, SpinorLen)
		back := make([]complex128, SpinorLen)
		CloverTwistApply(fwd, c, src, b)
		CloverApply(back, inv, fwd)
		if diff := cmp.Diff(src, back, approx); diff != "" {
			t.Errorf("(C + i b g5)^-1 (C + i b g5) psi, b=%v, mismatch (-want +got):\n%s", b, diff)
		}
	}
}

func TestCloverAdjointApply(t *testing.T) {
	rng := rand.New(rand.NewPCG(13, 14))
	c := randomClover(rng)
	src := randomVec(rng, SpinorLen)
	a := make([]complex128, SpinorLen)
	b := make([]complex128, SpinorLen)
	CloverApply(a, c, src)
	CloverAdjointApply(b, c, src)
	if diff := cmp.Diff(a, b, approx); diff != "" {
		t.Errorf("Hermitian clover: C psi != C^dagger psi (-want +got):\n%s", diff)
	}
}

func TestInvertCloverSingular(t *testing.T) {
	c := make([]complex128, CloverLen)
	inv := make([]complex128, CloverLen)
	if err := InvertClover(inv, c, 0); err != ErrSingular {
		t.Errorf("InvertClover(0) error = %v, want %v", err, ErrSingular)
	}
}

func BenchmarkProjectAdd(b *testing.B) {
	rng := rand.New(rand.NewPCG(1, 1))
	src := randomVec(rng, SpinorLen)
	dst := make([]complex128, SpinorLen)
	for b.Loop() {
		for mu := range 4 {
			ProjectAdd(dst, src, mu, 1)
		}
	}
}

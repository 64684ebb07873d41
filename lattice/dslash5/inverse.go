// Copyright 2026 The go-lattice Authors. SPDX-License-Identifier: Apache-2.0

package dslash5

import (
	"fmt"
	"math/cmplx"

	"github.com/ajroetker/go-lattice/lattice"
	"github.com/ajroetker/go-lattice/lattice/linalg"
)

// On each chirality 1 + K H is cyclic bidiagonal: every slice couples to one
// neighbour only. Writing it as psi_s + c_s psi_{n(s)} = phi_s, the solution
// is found by expressing every psi_s as alpha_s + beta_s psi_first, closing
// the cycle for psi_first, and running the recursion once more.

// inverseCoefficients returns c_s for the upper and lower chirality.
//
//	1 + K H:        upper c_s = kappa_s w_s  (n(s) = s-1)
//	                lower c_s = kappa_s w'_s (n(s) = s+1)
//	1 + H^dag K^*:  upper c_s = w'_s conj(kappa_{s+1}) (n(s) = s+1)
//	                lower c_s = w_s conj(kappa_{s-1})  (n(s) = s-1)
//
// where w_0 = -m_f, w'_{Ls-1} = -m_f and all other weights are 1.
func inverseCoefficients(kappa []complex128, mf float64, dagger bool) (up, down []complex128) {
	ls := len(kappa)
	up = make([]complex128, ls)
	down = make([]complex128, ls)
	for s := range ls {
		w, wp := complex128(1), complex128(1)
		if s == 0 {
			w = complex(-mf, 0)
		}
		if s == ls-1 {
			wp = complex(-mf, 0)
		}
		if !dagger {
			up[s] = kappa[s] * w
			down[s] = kappa[s] * wp
		} else {
			up[s] = wp * cmplx.Conj(kappa[(s+1)%ls])
			down[s] = w * cmplx.Conj(kappa[(s+ls-1)%ls])
		}
	}
	return up, down
}

// closure returns 1 + c_0 prod_{s>0}(-c_s), the pivot of the cycle, which is
// the same whichever slice the chain starts from. The system is singular
// when it vanishes.
func closure(c []complex128) complex128 {
	beta := complex128(1)
	for _, v := range c[1:] {
		beta *= -v
	}
	return 1 + c[0]*beta
}

func checkSolvable(up, down []complex128) error {
	if closure(up) == 0 || closure(down) == 0 {
		return fmt.Errorf("%w: 1 + kappa H is singular", lattice.ErrParameter)
	}
	return nil
}

// solveCyclic solves psi_s + c_s psi_{n(s)} = phi_s on the half spinor at
// offset off of every slice. n(s) = s-1 when prev is set, s+1 otherwise.
func solveCyclic(psi, phi, c []complex128, off int, prev bool) {
	ls := len(c)
	sl := linalg.SpinorLen
	first, step := 0, 1
	if !prev {
		first, step = ls-1, -1
	}
	var alpha, next [half]complex128
	beta := complex128(1)
	// alpha_first = 0, beta_first = 1.
	for k := 1; k < ls; k++ {
		s := first + k*step
		f := phi[s*sl+off:]
		for i := range half {
			next[i] = f[i] - c[s]*alpha[i]
		}
		alpha = next
		beta *= -c[s]
	}
	den := 1 + c[first]*beta
	p0 := psi[first*sl+off:]
	f0 := phi[first*sl+off:]
	for i := range half {
		p0[i] = (f0[i] - c[first]*alpha[i]) / den
	}
	for k := 1; k < ls; k++ {
		s := first + k*step
		ps := psi[s*sl+off:]
		pn := psi[(s-step)*sl+off:]
		fs := phi[s*sl+off:]
		for i := range half {
			ps[i] = fs[i] - c[s]*pn[i]
		}
	}
}

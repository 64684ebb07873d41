// Copyright 2026 The go-lattice Authors. SPDX-License-Identifier: Apache-2.0

package linalg

import (
	"errors"
	"math/cmplx"
)

const (
	// BlockDim is the dimension of one chiral clover block.
	BlockDim = 6
	// BlockLen is the length of one chiral clover block.
	BlockLen = BlockDim * BlockDim
	// CloverLen is the length of a clover site (two chiral blocks).
	CloverLen = 2 * BlockLen
)

// ErrSingular is returned when a clover block cannot be inverted.
var ErrSingular = errors.New("linalg: singular clover block")

// CloverApply sets dst = C * src for one clover site and one spinor. dst must
// not alias src.
func CloverApply(dst, clover, src []complex128) {
	for chi := range 2 {
		blk := clover[chi*BlockLen : (chi+1)*BlockLen]
		in := src[chi*BlockDim : (chi+1)*BlockDim]
		out := dst[chi*BlockDim : (chi+1)*BlockDim]
		for i := range BlockDim {
			var s complex128
			row := blk[i*BlockDim : (i+1)*BlockDim]
			for j, v := range in {
				s += row[j] * v
			}
			out[i] = s
		}
	}
}

// CloverTwistApply sets dst = (C + i*b*gamma_5) * src. dst must not alias src.
func CloverTwistApply(dst, clover, src []complex128, b float64) {
	CloverApply(dst, clover, src)
	ib := complex(0, b)
	for i := range BlockDim {
		dst[i] += ib * src[i]
		dst[BlockDim+i] -= ib * src[BlockDim+i]
	}
}

// CloverAdjointApply sets dst = C^dagger * src. dst must not alias src.
func CloverAdjointApply(dst, clover, src []complex128) {
	for chi := range 2 {
		blk := clover[chi*BlockLen : (chi+1)*BlockLen]
		in := src[chi*BlockDim : (chi+1)*BlockDim]
		out := dst[chi*BlockDim : (chi+1)*BlockDim]
		for i := range BlockDim {
			var s complex128
			for j, v := range in {
				s += cmplx.Conj(blk[j*BlockDim+i]) * v
			}
			out[i] = s
		}
	}
}

// InvertClover writes (C + i*b*gamma_5)^-1 for one clover site into dst. For
// b = 0 this is the plain clover inverse.
func InvertClover(dst, clover []complex128, b float64) error {
	var work [BlockLen]complex128
	for chi := range 2 {
		copy(work[:], clover[chi*BlockLen:(chi+1)*BlockLen])
		shift := complex(0, b*Chirality(2*chi))
		for i := range BlockDim {
			work[i*BlockDim+i] += shift
		}
		if err := invertBlock(dst[chi*BlockLen:(chi+1)*BlockLen], work[:]); err != nil {
			return err
		}
	}
	return nil
}

// invertBlock inverts a 6x6 matrix by Gauss-Jordan elimination with partial
// pivoting. a is destroyed.
func invertBlock(dst, a []complex128) error {
	Identity6(dst)
	for col := range BlockDim {
		pivot := col
		best := cmplx.Abs(a[col*BlockDim+col])
		for r := col + 1; r < BlockDim; r++ {
			if v := cmplx.Abs(a[r*BlockDim+col]); v > best {
				pivot, best = r, v
			}
		}
		if best < 1e-300 {
			return ErrSingular
		}
		if pivot != col {
			swapRows(a, pivot, col)
			swapRows(dst, pivot, col)
		}
		inv := 1 / a[col*BlockDim+col]
		for j := range BlockDim {
			a[col*BlockDim+j] *= inv
			dst[col*BlockDim+j] *= inv
		}
		for r := range BlockDim {
			if r == col {
				continue
			}
			f := a[r*BlockDim+col]
			if f == 0 {
				continue
			}
			for j := range BlockDim {
				a[r*BlockDim+j] -= f * a[col*BlockDim+j]
				dst[r*BlockDim+j] -= f * dst[col*BlockDim+j]
			}
		}
	}
	return nil
}

func swapRows(m []complex128, i, j int) {
	for k := range BlockDim {
		m[i*BlockDim+k], m[j*BlockDim+k] = m[j*BlockDim+k], m[i*BlockDim+k]
	}
}

// Identity6 writes the 6x6 identity into m.
func Identity6(m []complex128) {
	clear(m[:BlockLen])
	for i := range BlockDim {
		m[i*BlockDim+i] = 1
	}
}

// IsHermitianBlock reports whether a 6x6 block is Hermitian within tol.
func IsHermitianBlock(m []complex128, tol float64) bool {
	for i := range BlockDim {
		for j := i; j < BlockDim; j++ {
			if cmplx.Abs(m[i*BlockDim+j]-cmplx.Conj(m[j*BlockDim+i])) > tol {
				return false
			}
		}
	}
	return true
}

// Copyright 2026 The go-lattice Authors. SPDX-License-Identifier: Apache-2.0

package field

import (
	"math/rand/v2"

	"github.com/ajroetker/go-lattice/lattice"
	"github.com/ajroetker/go-lattice/lattice/linalg"
)

// RandomSpinor fills f with Gaussian complex noise.
func RandomSpinor(rng *rand.Rand, f *ColorSpinor) {
	for i := range f.data {
		f.data[i] = complex(rng.NormFloat64(), rng.NormFloat64())
	}
}

// RandomGauge fills u with random SU(3) links.
func RandomGauge(rng *rand.Rand, u *Gauge) {
	for i := range u.data {
		u.data[i] = complex(rng.NormFloat64(), rng.NormFloat64())
	}
	for o := 0; o < len(u.data); o += linalg.MatrixLen {
		linalg.Unitarize(u.data[o : o+linalg.MatrixLen])
	}
	u.Invalidate()
}

// UnitGauge sets every link of u to the identity.
func UnitGauge(u *Gauge) {
	for o := 0; o < len(u.data); o += linalg.MatrixLen {
		linalg.Identity(u.data[o : o+linalg.MatrixLen])
	}
	u.Invalidate()
}

// RandomClover fills c with 1 + eps*H per chiral block, H a random Hermitian
// matrix, which keeps every block invertible for small eps.
func RandomClover(rng *rand.Rand, c *Clover, eps float64) {
	for o := 0; o < len(c.data); o += linalg.BlockLen {
		blk := c.data[o : o+linalg.BlockLen]
		for i := range linalg.BlockDim {
			blk[i*linalg.BlockDim+i] = complex(1+eps*rng.NormFloat64(), 0)
			for j := i + 1; j < linalg.BlockDim; j++ {
				v := complex(eps*rng.NormFloat64(), eps*rng.NormFloat64())
				blk[i*linalg.BlockDim+j] = v
				blk[j*linalg.BlockDim+i] = complex(real(v), -imag(v))
			}
		}
	}
	c.inv = nil
}

// ApplyStaggeredPhases multiplies link mu at global coordinate x by the
// Kogut-Susskind phase eta_mu(x) = (-1)^(x_0 + ... + x_{mu-1}).
func ApplyStaggeredPhases(u *Gauge) {
	g := u.geom
	for i := range g.Volume() {
		gc := g.GlobalCoord(g.CoordOf(i))
		sum := 0
		for mu := range lattice.NDim {
			if sum&1 == 1 {
				linalg.Scale(u.Link(i, mu), -1)
			}
			sum += gc[mu]
		}
	}
	u.Invalidate()
}

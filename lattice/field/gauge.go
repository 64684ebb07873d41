// Copyright 2026 The go-lattice Authors. SPDX-License-Identifier: Apache-2.0

package field

import (
	"fmt"
	"sync/atomic"

	"github.com/ajroetker/go-lattice/lattice"
	"github.com/ajroetker/go-lattice/lattice/linalg"
)

// GaugeSiteLen is the number of complex values per gauge site: one colour
// matrix for each of the four dimensions.
const GaugeSiteLen = lattice.NDim * linalg.MatrixLen

// Gauge holds one colour matrix per site and dimension over the full local
// volume. Link mu at x connects x to x+mu. Operators treat it as read-only;
// only ExchangeGauge writes its ghost region.
type Gauge struct {
	geom  *lattice.Geometry
	nFace int
	data  []complex128
	ghost [lattice.NDim][2][]complex128

	exchanged atomic.Int32
}

// NewGauge allocates a zeroed gauge field whose ghost region holds nFace
// slabs (1 for fat links, 3 for long links).
func NewGauge(g *lattice.Geometry, nFace int) (*Gauge, error) {
	if g == nil {
		return nil, fmt.Errorf("%w: nil geometry", lattice.ErrInvalidArgument)
	}
	if nFace < 1 {
		nFace = 1
	}
	for d := range lattice.NDim {
		if nFace > g.Local()[d] {
			return nil, fmt.Errorf("%w: nFace %d exceeds local extent %d in dimension %d",
				lattice.ErrInvalidArgument, nFace, g.Local()[d], d)
		}
	}
	u := &Gauge{
		geom:  g,
		nFace: nFace,
		data:  make([]complex128, g.Volume()*GaugeSiteLen),
	}
	allocGhosts(&u.ghost, g, lattice.Full, nFace*GaugeSiteLen)
	return u, nil
}

// MustGauge is NewGauge for shapes known to be valid.
func MustGauge(g *lattice.Geometry, nFace int) *Gauge {
	u, err := NewGauge(g, nFace)
	if err != nil {
		panic(err)
	}
	return u
}

func (u *Gauge) Geometry() *lattice.Geometry { return u.geom }
func (u *Gauge) Parity() lattice.Parity      { return lattice.Full }
func (u *Gauge) Ls() int                     { return 1 }
func (u *Gauge) SiteLen() int                { return GaugeSiteLen }
func (u *Gauge) GhostCapacity() int          { return u.nFace }
func (u *Gauge) Data() []complex128          { return u.data }

// Slice returns the site data. Gauge fields have a single slice.
func (u *Gauge) Slice(int) []complex128 { return u.data }

// Ghost returns the ghost region filled from the neighbour in direction dir.
func (u *Gauge) Ghost(dim int, dir lattice.Direction) []complex128 {
	return u.ghost[dim][dir]
}

// Link returns the matrix of dimension mu at lexicographic site idx.
func (u *Gauge) Link(idx, mu int) []complex128 {
	o := idx*GaugeSiteLen + mu*linalg.MatrixLen
	return u.data[o : o+linalg.MatrixLen : o+linalg.MatrixLen]
}

// GhostLink returns link mu of the ghost site at (slab, faceIdx) received
// from the neighbour in direction dir.
func (u *Gauge) GhostLink(dim int, dir lattice.Direction, slab, faceIdx, mu int) []complex128 {
	o := ((slab*u.geom.FaceVolume(dim)+faceIdx)*GaugeSiteLen + mu*linalg.MatrixLen)
	return u.ghost[dim][dir][o : o+linalg.MatrixLen : o+linalg.MatrixLen]
}

// ExchangedDepth returns the number of ghost slabs made valid by the last
// exchange, or zero if the ghosts were never filled.
func (u *Gauge) ExchangedDepth() int { return int(u.exchanged.Load()) }

// MarkExchanged records that the ghost region holds depth valid slabs.
func (u *Gauge) MarkExchanged(depth int) { u.exchanged.Store(int32(depth)) }

// Invalidate marks the ghost region stale, for use after the links change.
func (u *Gauge) Invalidate() { u.exchanged.Store(0) }

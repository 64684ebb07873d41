// Copyright 2026 The go-lattice Authors. SPDX-License-Identifier: Apache-2.0

// Package field holds the lattice fields consumed by the stencil operators:
// colour-spinors, gauge links and clover terms, together with the helpers
// used to build, split and compare them.
//
// Site data is stored lexicographically over the local volume (x fastest).
// Checkerboarded fields store half the volume, site i of parity p being the
// site whose lexicographic index is 2i or 2i+1. Fifth-dimension slices of a
// ColorSpinor are stored one after another.
//
// Fields own a ghost region per (dimension, direction) that is filled by halo
// exchange. Applications that share an input field must not exchange its
// halo concurrently.
package field

import (
	"fmt"

	"github.com/ajroetker/go-lattice/lattice"
	"github.com/ajroetker/go-lattice/lattice/linalg"
)

// SpinorParams describes the shape of a ColorSpinor. Zero values select the
// Wilson defaults: four spins, one fifth-dimension slice, one ghost slab.
type SpinorParams struct {
	Parity lattice.Parity
	NSpin  int // 4 for Wilson-type, 1 for staggered
	Ls     int // fifth-dimension extent, or 2 for a flavour doublet
	NFace  int // ghost capacity in slabs
}

// ColorSpinor is a field with nSpin colour vectors per site.
type ColorSpinor struct {
	geom   *lattice.Geometry
	parity lattice.Parity
	nSpin  int
	ls     int
	nFace  int
	sites  int
	data   []complex128
	ghost  [lattice.NDim][2][]complex128
}

// NewColorSpinor allocates a zeroed spinor field on g.
func NewColorSpinor(g *lattice.Geometry, p SpinorParams) (*ColorSpinor, error) {
	if g == nil {
		return nil, fmt.Errorf("%w: nil geometry", lattice.ErrInvalidArgument)
	}
	if p.NSpin == 0 {
		p.NSpin = linalg.NSpin
	}
	if p.Ls == 0 {
		p.Ls = 1
	}
	if p.NFace == 0 {
		p.NFace = 1
	}
	if !p.Parity.Valid() {
		return nil, fmt.Errorf("%w: parity %d", lattice.ErrInvalidArgument, int(p.Parity))
	}
	if p.NSpin != 1 && p.NSpin != linalg.NSpin {
		return nil, fmt.Errorf("%w: nSpin %d, want 1 or 4", lattice.ErrInvalidArgument, p.NSpin)
	}
	if p.Ls < 1 || p.NFace < 1 {
		return nil, fmt.Errorf("%w: Ls %d, nFace %d", lattice.ErrInvalidArgument, p.Ls, p.NFace)
	}
	for d := range lattice.NDim {
		if p.NFace > g.Local()[d] {
			return nil, fmt.Errorf("%w: nFace %d exceeds local extent %d in dimension %d",
				lattice.ErrInvalidArgument, p.NFace, g.Local()[d], d)
		}
	}
	f := &ColorSpinor{
		geom:   g,
		parity: p.Parity,
		nSpin:  p.NSpin,
		ls:     p.Ls,
		nFace:  p.NFace,
		sites:  g.Sites(p.Parity),
	}
	f.data = make([]complex128, f.ls*f.sites*f.SiteLen())
	allocGhosts(&f.ghost, g, f.parity, f.ls*f.nFace*f.SiteLen())
	return f, nil
}

func allocGhosts(gh *[lattice.NDim][2][]complex128, g *lattice.Geometry, p lattice.Parity, perSite int) {
	for d := range lattice.NDim {
		n := g.FaceSites(d, p) * perSite
		for dir := range 2 {
			gh[d][dir] = make([]complex128, n)
		}
	}
}

// MustColorSpinor is NewColorSpinor for shapes known to be valid.
func MustColorSpinor(g *lattice.Geometry, p SpinorParams) *ColorSpinor {
	f, err := NewColorSpinor(g, p)
	if err != nil {
		panic(err)
	}
	return f
}

// Geometry returns the sub-volume the field lives on.
func (f *ColorSpinor) Geometry() *lattice.Geometry { return f.geom }

// Parity returns the checkerboard class stored by the field.
func (f *ColorSpinor) Parity() lattice.Parity { return f.parity }

// NSpin returns the number of spin components.
func (f *ColorSpinor) NSpin() int { return f.nSpin }

// Ls returns the fifth-dimension extent.
func (f *ColorSpinor) Ls() int { return f.ls }

// SiteLen returns the number of complex values per site and slice.
func (f *ColorSpinor) SiteLen() int { return f.nSpin * linalg.NColor }

// Sites returns the number of 4D sites stored per slice.
func (f *ColorSpinor) Sites() int { return f.sites }

// GhostCapacity returns the number of ghost slabs per face.
func (f *ColorSpinor) GhostCapacity() int { return f.nFace }

// Data returns the backing array.
func (f *ColorSpinor) Data() []complex128 { return f.data }

// Slice returns the contiguous data of fifth-dimension slice s.
func (f *ColorSpinor) Slice(s int) []complex128 {
	n := f.sites * f.SiteLen()
	return f.data[s*n : (s+1)*n]
}

// Site returns the values of site idx in slice s.
func (f *ColorSpinor) Site(s, idx int) []complex128 {
	sl := f.SiteLen()
	o := (s*f.sites + idx) * sl
	return f.data[o : o+sl : o+sl]
}

// Ghost returns the ghost region filled from the neighbour in direction dir.
func (f *ColorSpinor) Ghost(dim int, dir lattice.Direction) []complex128 {
	return f.ghost[dim][dir]
}

// ShapeOf reports whether two spinors have the same geometry and site shape.
// Parities are not compared.
func (f *ColorSpinor) ShapeOf(o *ColorSpinor) bool {
	return f.geom.Equal(o.geom) && f.nSpin == o.nSpin && f.ls == o.ls
}

// String describes the shape for log messages.
func (f *ColorSpinor) String() string {
	return fmt.Sprintf("spinor{local=%v parity=%v nSpin=%d Ls=%d nFace=%d}",
		f.geom.Local(), f.parity, f.nSpin, f.ls, f.nFace)
}

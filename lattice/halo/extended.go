// Copyright 2026 The go-lattice Authors. SPDX-License-Identifier: Apache-2.0

package halo

import (
	"fmt"

	"github.com/ajroetker/go-lattice/lattice"
)

// Extended fields carry their halo inline: the local volume is padded by
// R[d] sites on both sides of every dimension d, and the border is filled by
// exchange instead of a separate ghost region. Slabs are ordered by
// increasing coordinate on both the packing and the unpacking side.

func checkExtended(f Field, dim int, r [lattice.NDim]int, depth int) error {
	if f.Parity() != lattice.Full {
		return fmt.Errorf("%w: extended fields must be full parity", lattice.ErrInvalidArgument)
	}
	if dim < 0 || dim >= lattice.NDim {
		return fmt.Errorf("%w: dimension %d", lattice.ErrInvalidArgument, dim)
	}
	if depth < 1 || depth > r[dim] || 3*r[dim] > f.Geometry().Local()[dim] {
		return fmt.Errorf("%w: depth %d with border %d in extent %d",
			lattice.ErrInvalidArgument, depth, r[dim], f.Geometry().Local()[dim])
	}
	return nil
}

// extendedSlab returns the coordinate along dim of slab k when packing in
// dir (interior slabs) or unpacking on side dir (border slabs).
func extendedSlab(l, r, depth, k int, dir lattice.Direction, border bool) int {
	switch {
	case !border && dir == lattice.Backward:
		return r + k
	case !border:
		return l - r - depth + k
	case dir == lattice.Forward:
		return l - r + k
	default:
		return r - depth + k
	}
}

func extendedLen(f Field, dim, depth int) int {
	return f.Ls() * depth * f.Geometry().FaceVolume(dim) * f.SiteLen()
}

// copyExtended moves one slab's worth of sites between buffer data and the
// field. Every face site index maps to one site of the padded volume.
func (p *Packer) copyExtended(f Field, dim, depth int, coord func(k int) int, data []complex128, toField bool) error {
	g := f.Geometry()
	fs := g.FaceVolume(dim)
	sl := f.SiteLen()
	return p.parallel(depth*fs, func(start, end int) {
		for item := start; item < end; item++ {
			k, fi := item/fs, item%fs
			o := g.LocalIndex(g.FaceCoord(fi, dim, coord(k))) * sl
			for s := range f.Ls() {
				b := data[(s*depth*fs+item)*sl : (s*depth*fs+item+1)*sl]
				if toField {
					copy(f.Slice(s)[o:o+sl], b)
				} else {
					copy(b, f.Slice(s)[o:o+sl])
				}
			}
		}
	})
}

// PackExtended packs depth interior slabs of an extended field that face
// direction dir. With unpack set the slabs are also written into the
// opposite border of f itself, which completes a periodic wrap for a
// dimension that is not partitioned.
func (p *Packer) PackExtended(f Field, dim int, dir lattice.Direction, r [lattice.NDim]int, depth int, unpack bool) (Buffer, error) {
	if err := checkExtended(f, dim, r, depth); err != nil {
		return Buffer{}, err
	}
	l := f.Geometry().Local()[dim]
	buf := Buffer{Dim: dim, Dir: dir, Depth: depth, Location: Local, Data: make([]complex128, extendedLen(f, dim, depth))}
	err := p.copyExtended(f, dim, depth, func(k int) int {
		return extendedSlab(l, r[dim], depth, k, dir, false)
	}, buf.Data, false)
	if err != nil || !unpack {
		return buf, err
	}
	return buf, p.UnpackExtended(buf, f, dim, dir.Reverse(), r)
}

// UnpackExtended writes buf into the border of f on side dir.
func (p *Packer) UnpackExtended(buf Buffer, f Field, dim int, dir lattice.Direction, r [lattice.NDim]int) error {
	if err := checkExtended(f, dim, r, buf.Depth); err != nil {
		return err
	}
	if want := extendedLen(f, dim, buf.Depth); len(buf.Data) != want {
		return fmt.Errorf("%w: extended dimension %d %v: got %d values, want %d",
			ErrBufferSize, dim, dir, len(buf.Data), want)
	}
	l := f.Geometry().Local()[dim]
	return p.copyExtended(f, dim, buf.Depth, func(k int) int {
		return extendedSlab(l, r[dim], buf.Depth, k, dir, true)
	}, buf.Data, true)
}

// Copyright 2026 The go-lattice Authors. SPDX-License-Identifier: Apache-2.0

// Package halo copies the boundary slabs of a field into contiguous buffers
// for exchange, and copies received buffers into the field's ghost region.
//
// A buffer packed in direction dir holds the slabs nearest the face in that
// direction, ordered by distance from the face: slab s of a Backward buffer
// is the local slab at coordinate s, slab s of a Forward buffer the local
// slab at L-1-s. The receiving process stores it in the ghost on the
// opposite side, so ghost slab s always sits s sites beyond the boundary.
//
// Buffers and ghosts are laid out as [slice][slab][face site][site value].
package halo

//go:generate go tool stringer -type=Location -linecomment -output=location_string.go

import (
	"fmt"

	"github.com/ajroetker/go-lattice/lattice"
	"github.com/ajroetker/go-lattice/lattice/workerpool"
)

// Field is the view of a lattice field needed to pack and unpack its halo.
type Field interface {
	Geometry() *lattice.Geometry
	Parity() lattice.Parity
	// Ls is the number of fifth-dimension slices.
	Ls() int
	// SiteLen is the number of complex values per site and slice.
	SiteLen() int
	// Slice returns the contiguous site data of slice s.
	Slice(s int) []complex128
	// Ghost returns the ghost region filled from the neighbour in dir.
	Ghost(dim int, dir lattice.Direction) []complex128
	// GhostCapacity is the number of slabs each ghost region holds.
	GhostCapacity() int
}

// Location is where a packed buffer is destined.
type Location int

const (
	Local        Location = iota // local
	HostStaging                  // host-staging
	RemoteDirect                 // remote-direct
)

// Buffer is one packed face. It is owned by the call that packed it.
type Buffer struct {
	Dim      int
	Dir      lattice.Direction // side of the local volume the slabs were taken from
	Depth    int
	Location Location
	Data     []complex128
}

// SiteTransform rewrites the values of one site before they are packed. src
// and dst hold every fifth-dimension slice of the site, one after another,
// and do not alias.
type SiteTransform func(dst, src []complex128)

// ErrBufferSize reports a buffer whose length does not match the face it is
// unpacked into.
var ErrBufferSize = fmt.Errorf("%w: halo buffer size mismatch", lattice.ErrInvalidArgument)

// ExpectedLen returns the number of complex values in a buffer holding depth
// slabs of the face of f orthogonal to dim.
func ExpectedLen(f Field, dim, depth int) int {
	return f.Ls() * depth * f.Geometry().FaceSites(dim, f.Parity()) * f.SiteLen()
}

// GhostSite returns ghost site faceIdx of slab slab in slice s.
func GhostSite(f Field, dim int, dir lattice.Direction, s, slab, faceIdx int) []complex128 {
	fs := f.Geometry().FaceSites(dim, f.Parity())
	sl := f.SiteLen()
	o := ((s*f.GhostCapacity()+slab)*fs + faceIdx) * sl
	return f.Ghost(dim, dir)[o : o+sl : o+sl]
}

// Packer packs and unpacks faces. The zero value packs on the calling
// goroutine without a transform.
type Packer struct {
	// Pool runs the packing kernels. Nil runs them inline.
	Pool *workerpool.Pool
	// Transform, when set, is applied to every site as it is packed.
	Transform SiteTransform
}

func (p *Packer) parallel(n int, fn func(start, end int)) error {
	if p.Pool == nil {
		fn(0, n)
		return nil
	}
	return p.Pool.Range(n, fn)
}

func checkFace(f Field, dim, depth int) error {
	if dim < 0 || dim >= lattice.NDim {
		return fmt.Errorf("%w: dimension %d", lattice.ErrInvalidArgument, dim)
	}
	if depth < 1 || depth > f.GhostCapacity() || depth > f.Geometry().Local()[dim] {
		return fmt.Errorf("%w: depth %d outside [1,%d]", lattice.ErrInvalidArgument, depth, f.GhostCapacity())
	}
	return nil
}

// slabCoord returns the coordinate along dim of slab s of a face packed in dir.
func slabCoord(l, s int, dir lattice.Direction) int {
	if dir == lattice.Backward {
		return s
	}
	return l - 1 - s
}

// Pack copies depth slabs of the face of f in direction dir into a new buffer.
// The T face is copied as contiguous blocks unless lattice.KernelPackT is set
// or a transform is requested.
func (p *Packer) Pack(f Field, dim int, dir lattice.Direction, depth int, loc Location) (Buffer, error) {
	if err := checkFace(f, dim, depth); err != nil {
		return Buffer{}, err
	}
	buf := Buffer{
		Dim:      dim,
		Dir:      dir,
		Depth:    depth,
		Location: loc,
		Data:     make([]complex128, ExpectedLen(f, dim, depth)),
	}
	if dim == lattice.NDim-1 && p.Transform == nil && !lattice.KernelPackT() {
		packContiguous(f, dir, depth, buf.Data)
		return buf, nil
	}

	g := f.Geometry()
	par := f.Parity()
	fs := g.FaceSites(dim, par)
	sl := f.SiteLen()
	ls := f.Ls()
	l := g.Local()[dim]
	err := p.parallel(depth*fs, func(start, end int) {
		var src, dst []complex128
		if p.Transform != nil {
			src = make([]complex128, ls*sl)
			dst = make([]complex128, ls*sl)
		}
		for item := start; item < end; item++ {
			slab, fi := item/fs, item%fs
			c := g.FaceSiteCoord(fi, dim, slabCoord(l, slab, dir), par)
			o := g.SiteIndex(c, par) * sl
			if p.Transform == nil {
				for s := range ls {
					copy(buf.Data[((s*depth*fs+item)*sl):], f.Slice(s)[o:o+sl])
				}
				continue
			}
			for s := range ls {
				copy(src[s*sl:], f.Slice(s)[o:o+sl])
			}
			p.Transform(dst, src)
			for s := range ls {
				copy(buf.Data[((s*depth*fs+item)*sl):], dst[s*sl:(s+1)*sl])
			}
		}
	})
	return buf, err
}

// packContiguous copies T slabs, each of which is a contiguous run of sites.
func packContiguous(f Field, dir lattice.Direction, depth int, data []complex128) {
	g := f.Geometry()
	dim := lattice.NDim - 1
	n := g.FaceSites(dim, f.Parity()) * f.SiteLen()
	l := g.Local()[dim]
	for s := range f.Ls() {
		slice := f.Slice(s)
		for slab := range depth {
			t := slabCoord(l, slab, dir)
			copy(data[(s*depth+slab)*n:(s*depth+slab+1)*n], slice[t*n:(t+1)*n])
		}
	}
}

// Unpack copies buf into the ghost region of f on side dir, which is the
// side the neighbour that sent it lies on.
func Unpack(buf Buffer, f Field, dim int, dir lattice.Direction) error {
	if err := checkFace(f, dim, buf.Depth); err != nil {
		return err
	}
	if want := ExpectedLen(f, dim, buf.Depth); len(buf.Data) != want {
		return fmt.Errorf("%w: dimension %d %v: got %d values, want %d",
			ErrBufferSize, dim, dir, len(buf.Data), want)
	}
	n := f.Geometry().FaceSites(dim, f.Parity()) * f.SiteLen()
	ghost := f.Ghost(dim, dir)
	capacity := f.GhostCapacity()
	for s := range f.Ls() {
		for slab := range buf.Depth {
			copy(ghost[(s*capacity+slab)*n:(s*capacity+slab+1)*n], buf.Data[(s*buf.Depth+slab)*n:])
		}
	}
	return nil
}

// Pack packs with a zero Packer.
func Pack(f Field, dim int, dir lattice.Direction, depth int, loc Location) (Buffer, error) {
	var p Packer
	return p.Pack(f, dim, dir, depth, loc)
}

// Copyright 2026 The go-lattice Authors. SPDX-License-Identifier: Apache-2.0

package lattice

import "fmt"

// Coord is a site position, either local to a process or global.
type Coord [NDim]int

// Geometry is the local sub-volume owned by one process of a process grid.
// It is immutable after construction and safe for concurrent use.
type Geometry struct {
	global [NDim]int
	grid   [NDim]int
	proc   [NDim]int
	local  [NDim]int
	origin [NDim]int

	volume   int
	face     [NDim]int
	oddShift int // parity of the origin coordinate sum
}

// NewLocalGeometry returns the geometry of a single process that owns the
// whole lattice.
func NewLocalGeometry(dims [NDim]int) (*Geometry, error) {
	return NewGeometry(dims, [NDim]int{1, 1, 1, 1}, [NDim]int{})
}

// NewGeometry splits the global extents over a process grid and returns the
// sub-volume owned by the process at procCoords.
//
// Every local extent must be even so that checkerboarded indexing is a
// bijection per parity.
func NewGeometry(global, grid, procCoords [NDim]int) (*Geometry, error) {
	g := &Geometry{global: global, grid: grid, proc: procCoords}
	g.volume = 1
	for d := range NDim {
		if global[d] <= 0 || grid[d] <= 0 {
			return nil, fmt.Errorf("%w: dimension %d has extent %d over %d processes",
				ErrInvalidArgument, d, global[d], grid[d])
		}
		if global[d]%grid[d] != 0 {
			return nil, fmt.Errorf("%w: global extent %d in dimension %d is not divisible by %d processes",
				ErrInvalidArgument, global[d], d, grid[d])
		}
		if procCoords[d] < 0 || procCoords[d] >= grid[d] {
			return nil, fmt.Errorf("%w: process coordinate %d out of range [0,%d) in dimension %d",
				ErrInvalidArgument, procCoords[d], grid[d], d)
		}
		g.local[d] = global[d] / grid[d]
		if g.local[d]%2 != 0 {
			return nil, fmt.Errorf("%w: local extent %d in dimension %d must be even",
				ErrInvalidArgument, g.local[d], d)
		}
		g.origin[d] = procCoords[d] * g.local[d]
		g.volume *= g.local[d]
		g.oddShift += g.origin[d]
	}
	g.oddShift &= 1
	for d := range NDim {
		g.face[d] = g.volume / g.local[d]
	}
	return g, nil
}

// Local returns the local extents.
func (g *Geometry) Local() [NDim]int { return g.local }

// Global returns the global extents.
func (g *Geometry) Global() [NDim]int { return g.global }

// Grid returns the process grid extents.
func (g *Geometry) Grid() [NDim]int { return g.grid }

// ProcCoords returns the coordinates of the owning process in the grid.
func (g *Geometry) ProcCoords() [NDim]int { return g.proc }

// Origin returns the global coordinate of local site (0,0,0,0).
func (g *Geometry) Origin() Coord { return g.origin }

// Volume is the number of local sites.
func (g *Geometry) Volume() int { return g.volume }

// VolumeCB is the number of local sites of one parity.
func (g *Geometry) VolumeCB() int { return g.volume / 2 }

// FaceVolume is the number of sites in one slab orthogonal to dim.
func (g *Geometry) FaceVolume(dim int) int { return g.face[dim] }

// Partitioned reports whether dim is split across more than one process.
func (g *Geometry) Partitioned(dim int) bool { return g.grid[dim] > 1 }

// Equal reports whether two geometries describe the same sub-volume.
func (g *Geometry) Equal(o *Geometry) bool {
	if g == o {
		return true
	}
	if g == nil || o == nil {
		return false
	}
	return g.global == o.global && g.grid == o.grid && g.proc == o.proc
}

// Sites returns the number of sites stored by a field of parity p.
func (g *Geometry) Sites(p Parity) int {
	if p == Full {
		return g.volume
	}
	return g.volume / 2
}

// LocalIndex returns the lexicographic index of a local coordinate.
func (g *Geometry) LocalIndex(c Coord) int {
	return ((c[3]*g.local[2]+c[2])*g.local[1]+c[1])*g.local[0] + c[0]
}

// CoordOf inverts LocalIndex.
func (g *Geometry) CoordOf(idx int) Coord {
	var c Coord
	for d := range NDim {
		c[d] = idx % g.local[d]
		idx /= g.local[d]
	}
	return c
}

// ParityOf returns the checkerboard class of a local coordinate, computed from
// its global position.
func (g *Geometry) ParityOf(c Coord) Parity {
	return Parity((c[0] + c[1] + c[2] + c[3] + g.oddShift) & 1)
}

// CBIndex returns the parity of a site and its index within that parity.
func (g *Geometry) CBIndex(c Coord) (Parity, int) {
	return g.ParityOf(c), g.LocalIndex(c) / 2
}

// CoordCB inverts CBIndex.
func (g *Geometry) CoordCB(p Parity, cb int) Coord {
	half := g.local[0] / 2
	var c Coord
	x0h := cb % half
	row := cb / half
	c[1] = row % g.local[1]
	row /= g.local[1]
	c[2] = row % g.local[2]
	c[3] = row / g.local[2]
	c[0] = 2*x0h + ((int(p) + c[1] + c[2] + c[3] + g.oddShift) & 1)
	return c
}

// SiteIndex returns the storage index of c in a field of parity p. The caller
// guarantees that c belongs to p when p is not Full.
func (g *Geometry) SiteIndex(c Coord, p Parity) int {
	if p == Full {
		return g.LocalIndex(c)
	}
	return g.LocalIndex(c) / 2
}

// SiteCoord inverts SiteIndex.
func (g *Geometry) SiteCoord(p Parity, idx int) Coord {
	if p == Full {
		return g.CoordOf(idx)
	}
	return g.CoordCB(p, idx)
}

// FaceIndex returns the lexicographic index of c over the three dimensions
// other than dim.
func (g *Geometry) FaceIndex(c Coord, dim int) int {
	idx := 0
	for d := NDim - 1; d >= 0; d-- {
		if d == dim {
			continue
		}
		idx = idx*g.local[d] + c[d]
	}
	return idx
}

// FaceCoord inverts FaceIndex, placing slab at coordinate x[dim].
func (g *Geometry) FaceCoord(idx, dim, slab int) Coord {
	var c Coord
	for d := range NDim {
		if d == dim {
			c[d] = slab
			continue
		}
		c[d] = idx % g.local[d]
		idx /= g.local[d]
	}
	return c
}

// FaceSiteCoord inverts FaceSiteIndex: it returns the coordinate of site idx
// of parity p within the slab at coordinate slab along dim.
func (g *Geometry) FaceSiteCoord(idx, dim, slab int, p Parity) Coord {
	if p == Full {
		return g.FaceCoord(idx, dim, slab)
	}
	c := g.FaceCoord(2*idx, dim, slab)
	if g.ParityOf(c) != p {
		c = g.FaceCoord(2*idx+1, dim, slab)
	}
	return c
}

// FaceSites returns the number of sites of one slab orthogonal to dim stored
// by a field of parity p.
func (g *Geometry) FaceSites(dim int, p Parity) int {
	if p == Full {
		return g.face[dim]
	}
	return g.face[dim] / 2
}

// FaceSiteIndex returns the position of c within its slab for a field of
// parity p.
func (g *Geometry) FaceSiteIndex(c Coord, dim int, p Parity) int {
	if p == Full {
		return g.FaceIndex(c, dim)
	}
	return g.FaceIndex(c, dim) / 2
}

// IsBoundary reports whether c lies on either face of dim.
func (g *Geometry) IsBoundary(c Coord, dim int) bool {
	return g.IsBoundaryDepth(c, dim, 1)
}

// IsBoundaryDepth reports whether c lies within depth slabs of either face of
// dim, which is exactly the set of sites whose hops of length up to depth
// leave the local volume.
func (g *Geometry) IsBoundaryDepth(c Coord, dim, depth int) bool {
	return c[dim] < depth || c[dim] >= g.local[dim]-depth
}

// Neighbor returns c displaced by delta along dim, wrapped into the local
// volume, and whether the displacement crossed the local boundary.
func (g *Geometry) Neighbor(c Coord, dim, delta int) (Coord, bool) {
	n := c
	x := c[dim] + delta
	l := g.local[dim]
	if x >= 0 && x < l {
		n[dim] = x
		return n, false
	}
	n[dim] = ((x % l) + l) % l
	return n, true
}

// GhostSlab returns the ghost direction and slab that hold the site reached by
// moving delta along dim from c, when that hop leaves the local volume. Slab 0
// is adjacent to the boundary.
func (g *Geometry) GhostSlab(c Coord, dim, delta int) (Direction, int, bool) {
	x := c[dim] + delta
	switch {
	case x < 0:
		return Backward, -x - 1, true
	case x >= g.local[dim]:
		return Forward, x - g.local[dim], true
	default:
		return Forward, 0, false
	}
}

// GlobalCoord converts a local coordinate to a global one.
func (g *Geometry) GlobalCoord(c Coord) Coord {
	for d := range NDim {
		c[d] += g.origin[d]
	}
	return c
}

// GlobalIndex returns the lexicographic index of a global coordinate over the
// global extents.
func (g *Geometry) GlobalIndex(gc Coord) int {
	return ((gc[3]*g.global[2]+gc[2])*g.global[1]+gc[1])*g.global[0] + gc[0]
}

// LocalCoord converts a global coordinate owned by this process into a local
// one. The second result is false when another process owns it.
func (g *Geometry) LocalCoord(gc Coord) (Coord, bool) {
	var c Coord
	for d := range NDim {
		c[d] = gc[d] - g.origin[d]
		if c[d] < 0 || c[d] >= g.local[d] {
			return c, false
		}
	}
	return c, true
}

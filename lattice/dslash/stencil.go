// Copyright 2026 The go-lattice Authors. SPDX-License-Identifier: Apache-2.0

package dslash

import (
	"context"

	"github.com/ajroetker/go-lattice/lattice"
	"github.com/ajroetker/go-lattice/lattice/field"
	"github.com/ajroetker/go-lattice/lattice/halo"
	"github.com/ajroetker/go-lattice/lattice/linalg"
	"github.com/ajroetker/go-lattice/lattice/workerpool"
)

// workspace is the per-chunk scratch of the site kernels. Columns hold the
// values of one 4D site for every fifth-dimension slice.
type workspace struct {
	col, pcol, sum []complex128
	tmp            []complex128
	t, l, x, in, h []complex128
}

func newWorkspace(ls, sl int) *workspace {
	n := ls * sl
	buf := make([]complex128, 8*n+sl)
	return &workspace{
		col:  buf[0*n : 1*n],
		pcol: buf[1*n : 2*n],
		sum:  buf[2*n : 3*n],
		t:    buf[3*n : 4*n],
		l:    buf[4*n : 5*n],
		x:    buf[5*n : 6*n],
		in:   buf[6*n : 7*n],
		h:    buf[7*n : 8*n],
		tmp:  buf[8*n:],
	}
}

// stencil is the overlap.Work of one application of the 4D hopping term.
type stencil struct {
	geom      *lattice.Geometry
	plan      *plan
	in        *field.ColorSpinor
	fat, long *field.Gauge
	staggered bool
	dagger    bool
	comms     [lattice.NDim]bool
	// pre is applied to neighbour columns read from the local volume. Ghost
	// columns arrive with it already applied.
	pre  halo.SiteTransform
	comb *combiner
	pool *workerpool.Pool

	ls, sl  int
	scratch []complex128
	pending []int8
}

func (st *stencil) parallel(n int, fn func(start, end int)) error {
	if st.pool == nil {
		fn(0, n)
		return nil
	}
	return st.pool.Range(n, fn)
}

// Interior accumulates every hop that stays in the local volume and finishes
// the sites that read no ghost.
func (st *stencil) Interior(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	st.pending = append([]int8(nil), st.plan.pending...)
	st.scratch = make([]complex128, len(st.plan.sites)*st.ls*st.sl)
	g := st.geom
	return st.parallel(len(st.plan.slot), func(start, end int) {
		ws := newWorkspace(st.ls, st.sl)
		for i := start; i < end; i++ {
			c := g.SiteCoord(st.plan.outParity, i)
			lex := g.LocalIndex(c)
			sum := ws.sum
			if slot := st.plan.slot[i]; slot >= 0 {
				sum = st.slotSum(slot)
			}
			clear(sum)
			for mu := range lattice.NDim {
				for _, h := range st.plan.hops {
					for _, delta := range [2]int{h, -h} {
						if st.comms[mu] {
							if _, _, ghost := g.GhostSlab(c, mu, delta); ghost {
								continue
							}
						}
						st.hop(sum, c, lex, mu, delta, false, ws)
					}
				}
			}
			if st.plan.slot[i] < 0 {
				st.comb.finalize(i, lex, sum, ws)
			}
		}
	})
}

// Exterior adds the hops that read the ghost on side dir of dim and finishes
// every site for which it was the last outstanding face.
func (st *stencil) Exterior(ctx context.Context, dim int, dir lattice.Direction) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	slots := st.plan.faces[dim][dir]
	g := st.geom
	return st.parallel(len(slots), func(start, end int) {
		ws := newWorkspace(st.ls, st.sl)
		for _, slot := range slots[start:end] {
			i := int(st.plan.sites[slot])
			c := g.SiteCoord(st.plan.outParity, i)
			lex := g.LocalIndex(c)
			sum := st.slotSum(slot)
			for _, h := range st.plan.hops {
				delta := h * dir.Sign()
				if side, _, ghost := g.GhostSlab(c, dim, delta); ghost && side == dir {
					st.hop(sum, c, lex, dim, delta, true, ws)
				}
			}
			st.pending[slot]--
			if st.pending[slot] == 0 {
				st.comb.finalize(i, lex, sum, ws)
			}
		}
	})
}

func (st *stencil) slotSum(slot int32) []complex128 {
	n := st.ls * st.sl
	return st.scratch[int(slot)*n : (int(slot)+1)*n]
}

// hop adds the contribution of the neighbour delta sites along mu to sum.
func (st *stencil) hop(sum []complex128, c lattice.Coord, lex, mu, delta int, ghost bool, ws *workspace) {
	g := st.geom
	h := delta
	if h < 0 {
		h = -h
	}
	links := st.fat
	if h == 3 {
		links = st.long
	}

	col := ws.col
	if ghost {
		side, slab, _ := g.GhostSlab(c, mu, delta)
		fi := g.FaceSiteIndex(c, mu, st.plan.inParity)
		for s := range st.ls {
			copy(col[s*st.sl:(s+1)*st.sl], halo.GhostSite(st.in, mu, side, s, slab, fi))
		}
	} else {
		n, _ := g.Neighbor(c, mu, delta)
		idx := g.SiteIndex(n, st.plan.inParity)
		for s := range st.ls {
			copy(col[s*st.sl:(s+1)*st.sl], st.in.Site(s, idx))
		}
		if st.pre != nil {
			st.pre(ws.pcol, col)
			col = ws.pcol
		}
	}

	// Forward hops use the link at x, backward hops the adjoint of the link
	// at x-h.
	var m []complex128
	adjoint := delta < 0
	if !adjoint {
		m = links.Link(lex, mu)
	} else if side, slab, out := g.GhostSlab(c, mu, delta); out && st.comms[mu] {
		m = links.GhostLink(mu, side, slab, g.FaceIndex(c, mu), mu)
	} else {
		n, _ := g.Neighbor(c, mu, delta)
		m = links.Link(g.LocalIndex(n), mu)
	}

	nSpin := st.sl / linalg.NColor
	for s := range st.ls {
		src := col[s*st.sl : (s+1)*st.sl]
		dst := sum[s*st.sl : (s+1)*st.sl]
		linalg.LinkApply(ws.tmp, m, src, nSpin, adjoint)
		if st.staggered {
			if adjoint {
				linalg.Axpy(dst, -1, ws.tmp[:st.sl])
			} else {
				linalg.Axpy(dst, 1, ws.tmp[:st.sl])
			}
			continue
		}
		// Non-dagger: (1 - gamma_mu) forward, (1 + gamma_mu) backward.
		sign := -1.0
		if adjoint {
			sign = 1
		}
		if st.dagger {
			sign = -sign
		}
		linalg.ProjectAdd(dst, ws.tmp, mu, sign)
	}
}

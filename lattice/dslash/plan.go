// Copyright 2026 The go-lattice Authors. SPDX-License-Identifier: Apache-2.0

package dslash

import (
	"github.com/ajroetker/go-lattice/lattice"
)

// plan classifies the output sites of one (geometry, parity, comms, depth)
// combination. Sites whose hops all stay local are finished by the interior
// pass; the rest get a slot in the boundary scratch and a count of the ghost
// faces they still wait for.
type plan struct {
	outParity lattice.Parity
	inParity  lattice.Parity
	hops      []int

	slot    []int32 // per output site, -1 for interior sites
	sites   []int32 // per slot, the output site
	pending []int8  // per slot, distinct ghost faces read
	faces   [lattice.NDim][2][]int32
}

// planKey identifies a plan by value, so that a geometry rebuilt with the
// same extents reuses the plan of the first.
type planKey struct {
	global [lattice.NDim]int
	grid   [lattice.NDim]int
	proc   [lattice.NDim]int
	parity lattice.Parity
	comms  [lattice.NDim]bool
	depth  int
}

func hopsFor(depth int) []int {
	if depth == 3 {
		return []int{1, 3}
	}
	return []int{1}
}

func inParityOf(out lattice.Parity) lattice.Parity {
	if out == lattice.Full {
		return lattice.Full
	}
	return out.Opposite()
}

func buildPlan(g *lattice.Geometry, k planKey) *plan {
	p := &plan{
		outParity: k.parity,
		inParity:  inParityOf(k.parity),
		hops:      hopsFor(k.depth),
	}
	n := g.Sites(k.parity)
	p.slot = make([]int32, n)
	for i := range n {
		c := g.SiteCoord(k.parity, i)
		var reads [lattice.NDim][2]bool
		count := int8(0)
		for mu := range lattice.NDim {
			if !k.comms[mu] {
				continue
			}
			for _, h := range p.hops {
				for _, delta := range [2]int{-h, h} {
					dir, _, ok := g.GhostSlab(c, mu, delta)
					if ok && !reads[mu][dir] {
						reads[mu][dir] = true
						count++
					}
				}
			}
		}
		if count == 0 {
			p.slot[i] = -1
			continue
		}
		s := int32(len(p.sites))
		p.slot[i] = s
		p.sites = append(p.sites, int32(i))
		p.pending = append(p.pending, count)
		for mu := range lattice.NDim {
			for dir := range 2 {
				if reads[mu][dir] {
					p.faces[mu][dir] = append(p.faces[mu][dir], s)
				}
			}
		}
	}
	return p
}

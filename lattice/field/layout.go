// Copyright 2026 The go-lattice Authors. SPDX-License-Identifier: Apache-2.0

package field

import (
	"fmt"

	"github.com/ajroetker/go-lattice/lattice"
)

// Extract copies the sites of parity p out of a full field.
func Extract(full *ColorSpinor, p lattice.Parity) (*ColorSpinor, error) {
	if full.parity != lattice.Full || p == lattice.Full {
		return nil, fmt.Errorf("%w: extract %v from %v field", lattice.ErrInvalidArgument, p, full.parity)
	}
	out := Like(full, p)
	g := full.geom
	for s := range full.ls {
		for cb := range out.sites {
			c := g.CoordCB(p, cb)
			copy(out.Site(s, cb), full.Site(s, g.LocalIndex(c)))
		}
	}
	return out, nil
}

// Combine interleaves an even and an odd field into a full one.
func Combine(even, odd *ColorSpinor) (*ColorSpinor, error) {
	if even.parity != lattice.Even || odd.parity != lattice.Odd || !even.ShapeOf(odd) {
		return nil, fmt.Errorf("%w: combine %v with %v", lattice.ErrInvalidArgument, even, odd)
	}
	out := Like(even, lattice.Full)
	g := even.geom
	for _, half := range []*ColorSpinor{even, odd} {
		for s := range half.ls {
			for cb := range half.sites {
				c := g.CoordCB(half.parity, cb)
				copy(out.Site(s, g.LocalIndex(c)), half.Site(s, cb))
			}
		}
	}
	return out, nil
}

// Restrict copies the part of a single-process field owned by the process
// with geometry local.
func Restrict(global *ColorSpinor, local *lattice.Geometry) (*ColorSpinor, error) {
	gg := global.geom
	if gg.Global() != local.Global() || gg.Partitioned(0) || gg.Partitioned(1) || gg.Partitioned(2) || gg.Partitioned(3) {
		return nil, fmt.Errorf("%w: cannot restrict %v to local %v", lattice.ErrInvalidArgument, global, local.Local())
	}
	out := MustColorSpinor(local, SpinorParams{Parity: global.parity, NSpin: global.nSpin, Ls: global.ls, NFace: min(global.nFace, minExtent(local))})
	for s := range out.ls {
		for i := range out.sites {
			c := local.SiteCoord(out.parity, i)
			copy(out.Site(s, i), global.Site(s, gg.SiteIndex(local.GlobalCoord(c), out.parity)))
		}
	}
	return out, nil
}

// Gather assembles the per-process fields of a decomposed lattice into a
// single-process field.
func Gather(global *lattice.Geometry, locals []*ColorSpinor) (*ColorSpinor, error) {
	if len(locals) == 0 {
		return nil, fmt.Errorf("%w: nothing to gather", lattice.ErrInvalidArgument)
	}
	l0 := locals[0]
	out := MustColorSpinor(global, SpinorParams{Parity: l0.parity, NSpin: l0.nSpin, Ls: l0.ls, NFace: l0.nFace})
	for _, f := range locals {
		if f.parity != l0.parity || f.nSpin != l0.nSpin || f.ls != l0.ls || f.geom.Global() != global.Global() {
			return nil, fmt.Errorf("%w: gather %v with %v", lattice.ErrInvalidArgument, f, l0)
		}
		for s := range f.ls {
			for i := range f.sites {
				c := f.geom.SiteCoord(f.parity, i)
				copy(out.Site(s, global.SiteIndex(f.geom.GlobalCoord(c), f.parity)), f.Site(s, i))
			}
		}
	}
	return out, nil
}

// RestrictGauge copies the links owned by the process with geometry local.
func RestrictGauge(global *Gauge, local *lattice.Geometry) (*Gauge, error) {
	if global.geom.Global() != local.Global() {
		return nil, fmt.Errorf("%w: gauge global extents %v, want %v",
			lattice.ErrInvalidArgument, global.geom.Global(), local.Global())
	}
	out, err := NewGauge(local, min(global.nFace, minExtent(local)))
	if err != nil {
		return nil, err
	}
	for i := range local.Volume() {
		gc := local.GlobalCoord(local.CoordOf(i))
		o := global.geom.LocalIndex(gc) * GaugeSiteLen
		copy(out.data[i*GaugeSiteLen:(i+1)*GaugeSiteLen], global.data[o:o+GaugeSiteLen])
	}
	return out, nil
}

// RestrictClover copies the clover terms owned by the process with geometry
// local, including the inverse when present.
func RestrictClover(global *Clover, local *lattice.Geometry) (*Clover, error) {
	if global.geom.Global() != local.Global() {
		return nil, fmt.Errorf("%w: clover global extents %v, want %v",
			lattice.ErrInvalidArgument, global.geom.Global(), local.Global())
	}
	out, err := NewClover(local)
	if err != nil {
		return nil, err
	}
	if global.HasInverse() {
		out.inv = make([]complex128, len(out.data))
		out.invTwist = global.invTwist
	}
	for i := range local.Volume() {
		gi := global.geom.LocalIndex(local.GlobalCoord(local.CoordOf(i)))
		copy(out.Site(i), global.Site(gi))
		if out.inv != nil {
			copy(out.InverseSite(i), global.InverseSite(gi))
		}
	}
	return out, nil
}

func minExtent(g *lattice.Geometry) int {
	l := g.Local()
	return min(l[0], l[1], l[2], l[3])
}

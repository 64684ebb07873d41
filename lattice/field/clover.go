// Copyright 2026 The go-lattice Authors. SPDX-License-Identifier: Apache-2.0

package field

import (
	"fmt"

	"github.com/ajroetker/go-lattice/lattice"
	"github.com/ajroetker/go-lattice/lattice/linalg"
)

// Clover holds the two Hermitian 6x6 chiral blocks of the clover term at every
// local site, and optionally their inverse.
type Clover struct {
	geom     *lattice.Geometry
	data     []complex128
	inv      []complex128
	invTwist float64
}

// NewClover allocates a zeroed clover field.
func NewClover(g *lattice.Geometry) (*Clover, error) {
	if g == nil {
		return nil, fmt.Errorf("%w: nil geometry", lattice.ErrInvalidArgument)
	}
	return &Clover{
		geom: g,
		data: make([]complex128, g.Volume()*linalg.CloverLen),
	}, nil
}

func (c *Clover) Geometry() *lattice.Geometry { return c.geom }
func (c *Clover) Data() []complex128          { return c.data }

// Site returns the clover term at lexicographic site idx.
func (c *Clover) Site(idx int) []complex128 {
	o := idx * linalg.CloverLen
	return c.data[o : o+linalg.CloverLen : o+linalg.CloverLen]
}

// HasInverse reports whether ComputeInverse has been called.
func (c *Clover) HasInverse() bool { return c.inv != nil }

// InverseTwist returns the twist b the inverse was computed with: the stored
// inverse is (C + i*b*gamma_5)^-1.
func (c *Clover) InverseTwist() float64 { return c.invTwist }

// InverseSite returns the stored inverse at lexicographic site idx.
func (c *Clover) InverseSite(idx int) []complex128 {
	o := idx * linalg.CloverLen
	return c.inv[o : o+linalg.CloverLen : o+linalg.CloverLen]
}

// ComputeInverse stores (C + i*b*gamma_5)^-1 for every site. b = 0 gives the
// plain clover inverse.
func (c *Clover) ComputeInverse(b float64) error {
	inv := make([]complex128, len(c.data))
	for idx := range c.geom.Volume() {
		o := idx * linalg.CloverLen
		if err := linalg.InvertClover(inv[o:o+linalg.CloverLen], c.data[o:o+linalg.CloverLen], b); err != nil {
			return fmt.Errorf("%w: clover site %d: %v", lattice.ErrParameter, idx, err)
		}
	}
	c.inv = inv
	c.invTwist = b
	return nil
}

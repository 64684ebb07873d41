// Copyright 2026 The go-lattice Authors. SPDX-License-Identifier: Apache-2.0

package lattice

//go:generate go tool stringer -type=Parity,Direction -linecomment -output=parity_string.go

// NDim is the number of lattice dimensions that may be partitioned across
// processes. A fifth dimension, when present, is always process-local.
const NDim = 4

// Parity selects the checkerboard class of a site, or both classes for fields
// that store the full volume.
type Parity int

const (
	Even Parity = iota // even
	Odd                // odd
	Full               // full
)

// Opposite returns the other checkerboard class. Full is its own opposite.
func (p Parity) Opposite() Parity {
	switch p {
	case Even:
		return Odd
	case Odd:
		return Even
	default:
		return p
	}
}

// Valid reports whether p is one of the defined parities.
func (p Parity) Valid() bool {
	return p >= Even && p <= Full
}

// Direction is the orientation of a hop or a face along one dimension.
type Direction int

const (
	Backward Direction = iota // backward
	Forward                   // forward
)

// Sign returns -1 for Backward and +1 for Forward.
func (d Direction) Sign() int {
	if d == Backward {
		return -1
	}
	return 1
}

// Reverse returns the opposite direction.
func (d Direction) Reverse() Direction {
	return 1 - d
}

// Directions lists both directions in the canonical order used to index
// per-(dimension, direction) arrays.
var Directions = [2]Direction{Backward, Forward}

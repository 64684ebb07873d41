// Copyright 2026 The go-lattice Authors. SPDX-License-Identifier: Apache-2.0

package dslash

//go:generate go tool stringer -type=Family -linecomment -output=family_string.go

import (
	"github.com/ajroetker/go-lattice/lattice"
	"github.com/ajroetker/go-lattice/lattice/field"
	"github.com/ajroetker/go-lattice/lattice/profile"
)

// Family selects the algebraic variant of the stencil.
type Family int

const (
	Wilson            Family = iota // wilson
	WilsonClover                    // wilson-clover
	TwistedMass                     // twisted-mass
	NdegTwistedMass                 // ndeg-twisted-mass
	TwistedClover                   // twisted-clover
	DomainWall                      // domain-wall
	DomainWall4D                    // domain-wall-4d
	Mobius4D                        // mobius-4d
	Staggered                       // staggered
	ImprovedStaggered               // improved-staggered
)

// Operator describes one application. It is read once at the start of the
// call; B5 and C5 are copied.
type Operator struct {
	Family Family
	Dagger bool
	// Preconditioned selects out = A*T*D in + x, T being the inverse or
	// twisted local term of the family, instead of out = A*D in + L x.
	Preconditioned bool
	// Asymmetric applies the twist after D^dagger for the twisted-mass
	// families with Dagger set, instead of before it. It combines with
	// Xpay, giving out = A*T^dagger*D^dagger in + x.
	Asymmetric bool
	Xpay       bool

	// A scales the hopping term; B is the twist; C the flavour mixing of the
	// non-degenerate doublet.
	A, B, C float64
	Mf, M5  float64
	B5, C5  []complex128

	// Parity is the parity of the output, or Full for unpreconditioned
	// full-lattice fields.
	Parity lattice.Parity
	// DisableComms turns off halo exchange in a dimension; its hops wrap
	// around the local volume instead.
	DisableComms [lattice.NDim]bool
}

// Args are the fields of one application. Out is written; every other field
// is only read, apart from the ghost region of In.
type Args struct {
	Out, In, X *field.ColorSpinor
	Gauge      *field.Gauge
	// Long holds the three-hop links of improved staggered fermions.
	Long    *field.Gauge
	Clover  *field.Clover
	Profile profile.Profile
}

// Flags carries the modifiers shared by the family entry points.
type Flags struct {
	Parity       lattice.Parity
	Dagger       bool
	DisableComms [lattice.NDim]bool
	Profile      profile.Profile
}

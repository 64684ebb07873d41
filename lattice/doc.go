// Copyright 2026 The go-lattice Authors. SPDX-License-Identifier: Apache-2.0

// Package lattice describes how a global four-dimensional lattice is split
// across a grid of processes, and holds the process-wide knobs shared by the
// stencil engine.
//
// # Decomposition
//
// A Geometry maps the local sub-volume of one process to lexicographic site
// indices, with x running fastest:
//
//	idx = ((t*Lz + z)*Ly + y)*Lx + x
//
// Sites are coloured by the checkerboard rule, the parity of a site being the
// sum of its global coordinates mod 2. Single-parity ("checkerboarded") fields
// store site idx at position idx/2, which is a bijection for each parity class
// because every local extent is required to be even.
//
// # Faces
//
// The face of dimension d is the set of sites with a fixed x[d]. Face sites are
// indexed lexicographically over the three remaining coordinates, and halved
// for checkerboarded fields exactly as the volume is. Halo packing, ghost
// lookups and the boundary classification of IsBoundary all use this one
// convention.
//
// # Configuration
//
// The kernel-packed-T toggle decides whether the T face is packed with a
// parallel kernel or copied inline (it is contiguous in memory). It is read
// from LATTICE_KERNEL_PACK_T at start-up and may be overridden in a scope:
//
//	guard := lattice.PushKernelPackT(true)
//	defer guard.Restore()
package lattice

// Copyright 2026 The go-lattice Authors. SPDX-License-Identifier: Apache-2.0

// Package linalg holds the site-local arithmetic used by the stencil kernels:
// SU(3) colour matrices, four-spinors, gamma matrices and spin projectors,
// twist rotations and chiral clover blocks.
//
// All routines work on caller-owned []complex128 slices and never allocate.
//
//   - colour vector: 3 elements
//   - colour matrix: 9 elements, row-major
//   - spinor: 12 elements, index spin*3 + colour
//   - clover site: 72 elements, two 6x6 row-major blocks, block 0 acting on
//     spins 0 and 1 (gamma5 = +1) and block 1 on spins 2 and 3 (gamma5 = -1)
//
// Gamma matrices follow the DeGrand-Rossi basis, in which gamma5 is
// diag(1, 1, -1, -1).
package linalg

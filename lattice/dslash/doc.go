// Copyright 2026 The go-lattice Authors. SPDX-License-Identifier: Apache-2.0

// Package dslash applies the nearest-neighbour lattice Dirac operators to
// colour-spinor fields, one process sub-volume at a time.
//
// Every family shares a single stencil: for each output site the engine
// sums the hops along the four dimensions, reading the neighbours either
// from the local volume or, for dimensions split across processes, from
// the ghost region filled by halo exchange. The family only decides the
// spin structure of a hop and the local operator applied when the site is
// finished:
//
//	out = a * D in + L x          (unpreconditioned)
//	out = a * T D in + x          (preconditioned)
//
// L and T being the clover term, the twisted-mass rotation or their
// inverses. The finishing step is fused with the stencil, so no
// intermediate field is formed.
//
// Output sites are split once per (geometry, parity, comms) into interior
// sites, finished while halos are in flight, and boundary sites, which
// keep a partial sum until the last ghost they read has been unpacked:
//
//	e := dslash.New(transport)
//	defer e.Close()
//	if err := e.ExchangeGauge(ctx, u, 1); err != nil {
//	    return err
//	}
//	err := e.ApplyWilson(ctx, out, in, u, kappa, nil, dslash.Flags{Parity: lattice.Even})
package dslash

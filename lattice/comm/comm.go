// Copyright 2026 The go-lattice Authors. SPDX-License-Identifier: Apache-2.0

// Package comm moves packed halo faces between neighbouring processes of a
// process grid.
//
// A Transport is addressed by (dimension, direction) from the point of view
// of the caller: Send(dim, dir) delivers to the neighbour in direction dir,
// and Recv(dim, dir) receives from the neighbour in direction dir. A face
// sent forward is therefore received by the forward neighbour with
// Recv(dim, Backward). Both calls return immediately with a Request that
// completes when the transfer has finished.
package comm

import (
	"context"
	"fmt"

	"github.com/ajroetker/go-lattice/lattice"
)

// Request tracks one asynchronous transfer.
type Request interface {
	// Test reports whether the transfer has completed, successfully or not.
	Test() bool
	// Wait blocks until the transfer completes or ctx is done.
	Wait(ctx context.Context) error
}

// Transport exchanges encoded faces with the neighbours of one process.
type Transport interface {
	// Partitioned reports whether dim is split across processes, that is
	// whether halos in dim must travel through the transport at all.
	Partitioned(dim int) bool
	Send(ctx context.Context, dim int, dir lattice.Direction, data []byte) (Request, error)
	// Recv fills data, which must have exactly the length of the message.
	Recv(ctx context.Context, dim int, dir lattice.Direction, data []byte) (Request, error)
}

// DirectTransport can move faces without encoding them, for neighbours that
// share an address space.
type DirectTransport interface {
	Transport
	SendDirect(ctx context.Context, dim int, dir lattice.Direction, data []complex128) (Request, error)
	RecvDirect(ctx context.Context, dim int, dir lattice.Direction, data []complex128) (Request, error)
}

// request is a Request completed by a single call to finish.
type request struct {
	done chan struct{}
	err  error
}

func newRequest() *request {
	return &request{done: make(chan struct{})}
}

func (r *request) finish(err error) {
	r.err = err
	close(r.done)
}

func (r *request) Test() bool {
	select {
	case <-r.done:
		return true
	default:
		return false
	}
}

func (r *request) Wait(ctx context.Context) error {
	select {
	case <-r.done:
		return r.err
	case <-ctx.Done():
		return fmt.Errorf("%w: %w", lattice.ErrTransport, ctx.Err())
	}
}

// Completed returns a Request that has already finished with err.
func Completed(err error) Request {
	r := newRequest()
	r.finish(err)
	return r
}

// RankOf returns the lexicographic rank of procCoords in grid, x fastest.
func RankOf(grid, procCoords [lattice.NDim]int) int {
	r := 0
	for d := lattice.NDim - 1; d >= 0; d-- {
		r = r*grid[d] + procCoords[d]
	}
	return r
}

// CoordsOf inverts RankOf.
func CoordsOf(grid [lattice.NDim]int, rank int) [lattice.NDim]int {
	var c [lattice.NDim]int
	for d := range lattice.NDim {
		c[d] = rank % grid[d]
		rank /= grid[d]
	}
	return c
}

// Size returns the number of processes in grid.
func Size(grid [lattice.NDim]int) int {
	return grid[0] * grid[1] * grid[2] * grid[3]
}

// NeighborRank returns the rank of the periodic neighbour of procCoords in
// direction dir along dim.
func NeighborRank(grid, procCoords [lattice.NDim]int, dim int, dir lattice.Direction) int {
	c := procCoords
	c[dim] = (c[dim] + dir.Sign() + grid[dim]) % grid[dim]
	return RankOf(grid, c)
}

func checkDim(dim int) error {
	if dim < 0 || dim >= lattice.NDim {
		return fmt.Errorf("%w: dimension %d", lattice.ErrInvalidArgument, dim)
	}
	return nil
}

// Copyright 2026 The go-lattice Authors. SPDX-License-Identifier: Apache-2.0

package comm

import (
	"context"
	"fmt"

	"github.com/ajroetker/go-lattice/lattice"
)

// meshDepth bounds the messages in flight on one link before Send blocks.
const meshDepth = 8

type message struct {
	bytes  []byte
	direct []complex128
}

// Mesh connects the ranks of a process grid that live in one address space,
// for tests and single-node runs. Links are periodic in every dimension.
type Mesh struct {
	grid [lattice.NDim]int
	// inbox[rank][dim][dir] carries messages from the neighbour of rank in
	// direction dir.
	inbox [][lattice.NDim][2]chan message
}

// NewMesh connects every rank of grid.
func NewMesh(grid [lattice.NDim]int) (*Mesh, error) {
	for d, n := range grid {
		if n < 1 {
			return nil, fmt.Errorf("%w: grid extent %d in dimension %d", lattice.ErrInvalidArgument, n, d)
		}
	}
	m := &Mesh{grid: grid, inbox: make([][lattice.NDim][2]chan message, Size(grid))}
	for r := range m.inbox {
		for d := range lattice.NDim {
			for dir := range 2 {
				m.inbox[r][d][dir] = make(chan message, meshDepth)
			}
		}
	}
	return m, nil
}

// Grid returns the process grid.
func (m *Mesh) Grid() [lattice.NDim]int { return m.grid }

// Size returns the number of ranks.
func (m *Mesh) Size() int { return len(m.inbox) }

// Endpoint returns the transport of one rank.
func (m *Mesh) Endpoint(rank int) *Endpoint {
	e := &Endpoint{mesh: m, rank: rank, coords: CoordsOf(m.grid, rank)}
	for d, n := range m.grid {
		e.partitioned[d] = n > 1
	}
	return e
}

// Endpoint is the transport of one rank of a Mesh.
type Endpoint struct {
	mesh        *Mesh
	rank        int
	coords      [lattice.NDim]int
	partitioned [lattice.NDim]bool
}

// Rank returns the rank of the endpoint.
func (e *Endpoint) Rank() int { return e.rank }

// ProcCoords returns the position of the endpoint in the grid.
func (e *Endpoint) ProcCoords() [lattice.NDim]int { return e.coords }

func (e *Endpoint) Partitioned(dim int) bool { return e.partitioned[dim] }

func (e *Endpoint) outbox(dim int, dir lattice.Direction) chan message {
	n := NeighborRank(e.mesh.grid, e.coords, dim, dir)
	return e.mesh.inbox[n][dim][dir.Reverse()]
}

func (e *Endpoint) send(ctx context.Context, dim int, dir lattice.Direction, msg message) (Request, error) {
	if err := checkDim(dim); err != nil {
		return nil, err
	}
	ch := e.outbox(dim, dir)
	select {
	case ch <- msg:
		return Completed(nil), nil
	default:
	}
	r := newRequest()
	go func() {
		select {
		case ch <- msg:
			r.finish(nil)
		case <-ctx.Done():
			r.finish(fmt.Errorf("%w: send dimension %d %v: %w", lattice.ErrTransport, dim, dir, ctx.Err()))
		}
	}()
	return r, nil
}

func (e *Endpoint) recv(ctx context.Context, dim int, dir lattice.Direction, deliver func(message) error) (Request, error) {
	if err := checkDim(dim); err != nil {
		return nil, err
	}
	ch := e.mesh.inbox[e.rank][dim][dir]
	r := newRequest()
	go func() {
		select {
		case msg := <-ch:
			r.finish(deliver(msg))
		case <-ctx.Done():
			r.finish(fmt.Errorf("%w: recv dimension %d %v: %w", lattice.ErrTransport, dim, dir, ctx.Err()))
		}
	}()
	return r, nil
}

// Send copies data and delivers it to the neighbour in direction dir.
func (e *Endpoint) Send(ctx context.Context, dim int, dir lattice.Direction, data []byte) (Request, error) {
	return e.send(ctx, dim, dir, message{bytes: append([]byte(nil), data...)})
}

// Recv receives the next message from the neighbour in direction dir.
func (e *Endpoint) Recv(ctx context.Context, dim int, dir lattice.Direction, data []byte) (Request, error) {
	return e.recv(ctx, dim, dir, func(msg message) error {
		if len(msg.bytes) != len(data) {
			return fmt.Errorf("%w: dimension %d %v: received %d bytes, want %d",
				lattice.ErrTransport, dim, dir, len(msg.bytes), len(data))
		}
		copy(data, msg.bytes)
		return nil
	})
}

// SendDirect copies data and delivers it without encoding.
func (e *Endpoint) SendDirect(ctx context.Context, dim int, dir lattice.Direction, data []complex128) (Request, error) {
	return e.send(ctx, dim, dir, message{direct: append([]complex128(nil), data...)})
}

// RecvDirect receives a message sent with SendDirect.
func (e *Endpoint) RecvDirect(ctx context.Context, dim int, dir lattice.Direction, data []complex128) (Request, error) {
	return e.recv(ctx, dim, dir, func(msg message) error {
		if len(msg.direct) != len(data) {
			return fmt.Errorf("%w: dimension %d %v: received %d values, want %d",
				lattice.ErrTransport, dim, dir, len(msg.direct), len(data))
		}
		copy(data, msg.direct)
		return nil
	})
}

// NewLoopback returns the transport of a single process that is its own
// neighbour in every dimension. The listed dimensions report as
// partitioned, so their halos travel through the transport instead of being
// read from the local volume.
func NewLoopback(dims ...int) *Endpoint {
	m, _ := NewMesh([lattice.NDim]int{1, 1, 1, 1})
	e := m.Endpoint(0)
	for _, d := range dims {
		e.partitioned[d] = true
	}
	return e
}

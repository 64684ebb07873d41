// Copyright 2026 The go-lattice Authors. SPDX-License-Identifier: Apache-2.0

package comm

import (
	"context"
	"fmt"
	"sync"

	"github.com/nats-io/nats.go"

	"github.com/ajroetker/go-lattice/lattice"
)

// natsDepth is the per-link buffer of received messages.
const natsDepth = 16

// NATSTransport exchanges faces through a NATS server. Each process
// subscribes to one subject per (dimension, direction):
//
//	<prefix>.<rank>.<dim>.<dir>
//
// where dir names the side the sender lies on. Every process of a grid must
// use the same prefix, and all of them must be subscribed before the first
// Send, which Barrier-style startup (for example a Flush on every
// connection) provides.
type NATSTransport struct {
	nc     *nats.Conn
	prefix string
	grid   [lattice.NDim]int
	coords [lattice.NDim]int
	rank   int

	subs  [lattice.NDim][2]*nats.Subscription
	inbox [lattice.NDim][2]chan *nats.Msg

	closeOnce sync.Once
}

// NewNATSTransport subscribes the process at procCoords of grid to its
// inbound subjects.
func NewNATSTransport(nc *nats.Conn, prefix string, grid, procCoords [lattice.NDim]int) (*NATSTransport, error) {
	t := &NATSTransport{
		nc:     nc,
		prefix: prefix,
		grid:   grid,
		coords: procCoords,
		rank:   RankOf(grid, procCoords),
	}
	for d := range lattice.NDim {
		if !t.Partitioned(d) {
			continue
		}
		for _, dir := range lattice.Directions {
			ch := make(chan *nats.Msg, natsDepth)
			sub, err := nc.ChanSubscribe(t.subject(t.rank, d, dir), ch)
			if err != nil {
				t.Close()
				return nil, fmt.Errorf("%w: subscribe dimension %d %v: %w", lattice.ErrTransport, d, dir, err)
			}
			t.subs[d][dir] = sub
			t.inbox[d][dir] = ch
		}
	}
	if err := nc.Flush(); err != nil {
		t.Close()
		return nil, fmt.Errorf("%w: flush subscriptions: %w", lattice.ErrTransport, err)
	}
	return t, nil
}

func (t *NATSTransport) subject(rank, dim int, dir lattice.Direction) string {
	return fmt.Sprintf("%s.%d.%d.%s", t.prefix, rank, dim, dir)
}

// Rank returns the rank of the process.
func (t *NATSTransport) Rank() int { return t.rank }

func (t *NATSTransport) Partitioned(dim int) bool { return t.grid[dim] > 1 }

// Send publishes data to the neighbour in direction dir. The request is
// complete once the message has been handed to the connection.
func (t *NATSTransport) Send(ctx context.Context, dim int, dir lattice.Direction, data []byte) (Request, error) {
	if err := checkDim(dim); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", lattice.ErrTransport, err)
	}
	n := NeighborRank(t.grid, t.coords, dim, dir)
	if err := t.nc.Publish(t.subject(n, dim, dir.Reverse()), data); err != nil {
		return nil, fmt.Errorf("%w: publish dimension %d %v: %w", lattice.ErrTransport, dim, dir, err)
	}
	return Completed(nil), nil
}

// Recv waits for the next message from the neighbour in direction dir.
func (t *NATSTransport) Recv(ctx context.Context, dim int, dir lattice.Direction, data []byte) (Request, error) {
	if err := checkDim(dim); err != nil {
		return nil, err
	}
	ch := t.inbox[dim][dir]
	if ch == nil {
		return nil, fmt.Errorf("%w: dimension %d is not partitioned", lattice.ErrInvalidArgument, dim)
	}
	r := newRequest()
	go func() {
		select {
		case msg := <-ch:
			if len(msg.Data) != len(data) {
				r.finish(fmt.Errorf("%w: dimension %d %v: received %d bytes, want %d",
					lattice.ErrTransport, dim, dir, len(msg.Data), len(data)))
				return
			}
			copy(data, msg.Data)
			r.finish(nil)
		case <-ctx.Done():
			r.finish(fmt.Errorf("%w: recv dimension %d %v: %w", lattice.ErrTransport, dim, dir, ctx.Err()))
		}
	}()
	return r, nil
}

// Close unsubscribes from every subject. The connection stays open.
func (t *NATSTransport) Close() {
	t.closeOnce.Do(func() {
		for d := range lattice.NDim {
			for dir := range 2 {
				if s := t.subs[d][dir]; s != nil {
					_ = s.Unsubscribe()
				}
			}
		}
	})
}

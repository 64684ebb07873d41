// Copyright 2026 The go-lattice Authors. SPDX-License-Identifier: Apache-2.0

// Package overlap runs a stencil application with its halo exchange hidden
// behind interior compute.
//
// For each call the Scheduler posts a receive for every communicating
// (dimension, direction), packs and sends every face, and then runs the
// interior on the calling goroutine while the receives complete in the
// background. Each arrived face is unpacked into the field's ghost region
// and only then handed to the exterior kernel of that direction. Exterior
// kernels run one at a time, in arrival order.
package overlap

//go:generate go tool stringer -type=Event -linecomment -output=event_string.go

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ajroetker/go-lattice/lattice"
	"github.com/ajroetker/go-lattice/lattice/comm"
	"github.com/ajroetker/go-lattice/lattice/halo"
	"github.com/ajroetker/go-lattice/lattice/profile"
	"github.com/ajroetker/go-lattice/lattice/workerpool"
)

// Work is the compute side of one application.
type Work interface {
	// Interior computes every contribution that does not read a ghost
	// region, including hops across dimensions that do not communicate.
	Interior(ctx context.Context) error
	// Exterior adds the contributions that read the ghost filled from the
	// neighbour in direction dir along dim.
	Exterior(ctx context.Context, dim int, dir lattice.Direction) error
}

// Event marks a step of the exchange of one (dimension, direction).
type Event int

const (
	Packed       Event = iota // packed
	Sent                      // sent
	Arrived                   // arrived
	Unpacked                  // unpacked
	InteriorDone              // interior
	ExteriorDone              // exterior
)

// Observer is told about every event. Packed and Sent carry the direction the
// face was sent in; Arrived, Unpacked and ExteriorDone the side of the ghost.
// InteriorDone carries dim -1. It may be called from several goroutines.
type Observer func(ev Event, dim int, dir lattice.Direction)

// Options configures one call.
type Options struct {
	// Depth is the number of slabs exchanged per face.
	Depth int
	// Disable turns off communication in a dimension even when it is
	// partitioned; its hops then wrap around the local volume.
	Disable [lattice.NDim]bool
	// Transform is applied to every site as it is packed.
	Transform halo.SiteTransform
	// Profile receives the pack, comms and interior intervals.
	Profile profile.Profile
}

// Scheduler overlaps halo exchange with compute. It holds no per-call state
// and is safe for concurrent use on distinct fields.
type Scheduler struct {
	transport comm.Transport
	pool      *workerpool.Pool
	codec     comm.Codec
	logger    *zap.Logger
	observer  Observer
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithCodec sets the wire precision for transports that need encoding.
func WithCodec(c comm.Codec) Option {
	return func(s *Scheduler) { s.codec = c }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Scheduler) { s.logger = l }
}

// WithObserver installs an event observer.
func WithObserver(o Observer) Option {
	return func(s *Scheduler) { s.observer = o }
}

// New returns a Scheduler that exchanges through t and packs on pool.
func New(t comm.Transport, pool *workerpool.Pool, opts ...Option) *Scheduler {
	s := &Scheduler{
		transport: t,
		pool:      pool,
		logger:    zap.NewNop(),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Communicating reports whether dim exchanges halos under opts.
func (s *Scheduler) Communicating(dim int, opts Options) bool {
	return s.transport != nil && !opts.Disable[dim] && s.transport.Partitioned(dim)
}

func (s *Scheduler) emit(ev Event, dim int, dir lattice.Direction) {
	if s.observer != nil {
		s.observer(ev, dim, dir)
	}
}

type face struct {
	dim int
	dir lattice.Direction
}

// Run performs one application of work on f.
func (s *Scheduler) Run(ctx context.Context, f halo.Field, opts Options, work Work) error {
	prof := profile.OrNop(opts.Profile)
	var dims []int
	for d := range lattice.NDim {
		if s.Communicating(d, opts) {
			dims = append(dims, d)
		}
	}
	if len(dims) == 0 {
		prof.Start(profile.Interior)
		err := work.Interior(ctx)
		prof.Stop(profile.Interior)
		s.emit(InteriorDone, -1, lattice.Backward)
		return err
	}
	s.logger.Debug("halo exchange",
		zap.Ints("dims", dims),
		zap.Int("depth", opts.Depth),
		zap.Int("faces", 2*len(dims)))

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)
	ready := make(chan face, 2*len(dims))
	direct, isDirect := s.transport.(comm.DirectTransport)

	for _, d := range dims {
		for _, dir := range lattice.Directions {
			if err := s.postRecv(gctx, g, f, face{d, dir}, opts.Depth, direct, isDirect, ready); err != nil {
				cancel()
				_ = g.Wait()
				return err
			}
		}
	}

	packer := &halo.Packer{Pool: s.pool, Transform: opts.Transform}
	prof.Start(profile.Pack)
	for _, d := range dims {
		for _, dir := range lattice.Directions {
			if err := s.send(gctx, g, packer, f, face{d, dir}, opts.Depth, direct, isDirect); err != nil {
				prof.Stop(profile.Pack)
				cancel()
				_ = g.Wait()
				return err
			}
		}
	}
	prof.Stop(profile.Pack)

	prof.Start(profile.Interior)
	err := work.Interior(gctx)
	prof.Stop(profile.Interior)
	if err != nil {
		return s.abort(gctx, cancel, g, err)
	}
	s.emit(InteriorDone, -1, lattice.Backward)

	prof.Start(profile.Exterior)
	defer prof.Stop(profile.Exterior)
	for remaining := 2 * len(dims); remaining > 0; remaining-- {
		select {
		case fc := <-ready:
			if err := work.Exterior(gctx, fc.dim, fc.dir); err != nil {
				return s.abort(gctx, cancel, g, err)
			}
			s.emit(ExteriorDone, fc.dim, fc.dir)
		case <-gctx.Done():
			err := g.Wait()
			if err == nil {
				err = fmt.Errorf("%w: %w", lattice.ErrTransport, gctx.Err())
			}
			s.logger.Warn("halo exchange failed", zap.Error(err))
			return err
		}
	}
	if err := g.Wait(); err != nil {
		s.logger.Warn("halo exchange failed", zap.Error(err))
		return err
	}
	return nil
}

// abort stops the exchange after compute failed with err. When the exchange
// had already failed, compute most likely saw the cancellation, so the
// exchange error is returned instead.
func (s *Scheduler) abort(gctx context.Context, cancel context.CancelFunc, g *errgroup.Group, err error) error {
	exchangeFailed := gctx.Err() != nil
	cancel()
	if gerr := g.Wait(); exchangeFailed && gerr != nil {
		s.logger.Warn("halo exchange failed", zap.Error(gerr))
		return gerr
	}
	return err
}

// postRecv posts the receive of the ghost on side fc.dir and starts the
// goroutine that unpacks it once it arrives.
func (s *Scheduler) postRecv(ctx context.Context, g *errgroup.Group, f halo.Field, fc face, depth int,
	direct comm.DirectTransport, isDirect bool, ready chan<- face) error {
	n := halo.ExpectedLen(f, fc.dim, depth)
	buf := halo.Buffer{Dim: fc.dim, Dir: fc.dir.Reverse(), Depth: depth, Location: halo.HostStaging}
	var (
		req  comm.Request
		wire []byte
		err  error
	)
	if isDirect {
		buf.Location = halo.RemoteDirect
		buf.Data = make([]complex128, n)
		req, err = direct.RecvDirect(ctx, fc.dim, fc.dir, buf.Data)
	} else {
		wire = make([]byte, s.codec.EncodedLen(n))
		req, err = s.transport.Recv(ctx, fc.dim, fc.dir, wire)
	}
	if err != nil {
		return fmt.Errorf("recv dimension %d %v: %w", fc.dim, fc.dir, err)
	}
	g.Go(func() error {
		if err := req.Wait(ctx); err != nil {
			return err
		}
		s.emit(Arrived, fc.dim, fc.dir)
		if wire != nil {
			buf.Data = make([]complex128, n)
			if err := s.codec.Decode(buf.Data, wire); err != nil {
				return err
			}
		}
		if err := halo.Unpack(buf, f, fc.dim, fc.dir); err != nil {
			return err
		}
		s.emit(Unpacked, fc.dim, fc.dir)
		ready <- fc
		return nil
	})
	return nil
}

// send packs the face in direction fc.dir and hands it to the transport.
func (s *Scheduler) send(ctx context.Context, g *errgroup.Group, packer *halo.Packer, f halo.Field, fc face, depth int,
	direct comm.DirectTransport, isDirect bool) error {
	loc := halo.HostStaging
	if isDirect {
		loc = halo.RemoteDirect
	}
	buf, err := packer.Pack(f, fc.dim, fc.dir, depth, loc)
	if err != nil {
		return err
	}
	s.emit(Packed, fc.dim, fc.dir)
	var req comm.Request
	if isDirect {
		req, err = direct.SendDirect(ctx, fc.dim, fc.dir, buf.Data)
	} else {
		req, err = s.transport.Send(ctx, fc.dim, fc.dir, s.codec.Encode(make([]byte, 0, s.codec.EncodedLen(len(buf.Data))), buf.Data))
	}
	if err != nil {
		return fmt.Errorf("send dimension %d %v: %w", fc.dim, fc.dir, err)
	}
	s.emit(Sent, fc.dim, fc.dir)
	g.Go(func() error { return req.Wait(ctx) })
	return nil
}

type exchangeOnly struct{}

func (exchangeOnly) Interior(context.Context) error                         { return nil }
func (exchangeOnly) Exterior(context.Context, int, lattice.Direction) error { return nil }

// Exchange fills the ghost regions of f without any compute, as needed for
// gauge fields before their first use.
func (s *Scheduler) Exchange(ctx context.Context, f halo.Field, opts Options) error {
	return s.Run(ctx, f, opts, exchangeOnly{})
}

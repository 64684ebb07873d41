// Copyright 2026 The go-lattice Authors. SPDX-License-Identifier: Apache-2.0

package comm

import (
	"context"
	"errors"
	"math"
	"math/cmplx"
	"testing"
	"time"

	"github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/ajroetker/go-lattice/lattice"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m, goleak.IgnoreAnyContainingPkg("github.com/nats-io/nats-server/v2"))
}

func TestCodecRoundTrip(t *testing.T) {
	src := []complex128{1 + 2i, -0.5 + 0.25i, complex(math.Pi, -math.E), 0}
	tests := []struct {
		prec Precision
		tol  float64
	}{
		{Double, 0},
		{Single, 1e-6},
		{Half, 2e-3},
	}
	for _, tt := range tests {
		t.Run(tt.prec.String(), func(t *testing.T) {
			c := Codec{Precision: tt.prec}
			b := c.Encode(nil, src)
			require.Len(t, b, c.EncodedLen(len(src)))
			got := make([]complex128, len(src))
			require.NoError(t, c.Decode(got, b))
			for i := range src {
				if d := cmplx.Abs(got[i] - src[i]); d > tt.tol*cmplx.Abs(src[i]) {
					t.Errorf("Decode(Encode(%v)) = %v, error %g", src[i], got[i], d)
				}
			}
			require.ErrorIs(t, c.Decode(got, b[1:]), lattice.ErrInvalidArgument)
		})
	}
}

func TestRanks(t *testing.T) {
	grid := [4]int{2, 3, 1, 2}
	for r := range Size(grid) {
		c := CoordsOf(grid, r)
		if got := RankOf(grid, c); got != r {
			t.Errorf("RankOf(CoordsOf(%d)) = %d", r, got)
		}
	}
	assert.Equal(t, RankOf(grid, [4]int{0, 2, 0, 1}), NeighborRank(grid, [4]int{0, 0, 0, 1}, 1, lattice.Backward))
	assert.Equal(t, RankOf(grid, [4]int{1, 0, 0, 0}), NeighborRank(grid, [4]int{1, 0, 0, 1}, 3, lattice.Forward))
}

func TestMeshExchange(t *testing.T) {
	ctx := context.Background()
	m, err := NewMesh([4]int{3, 1, 1, 1})
	require.NoError(t, err)
	e0, e1, e2 := m.Endpoint(0), m.Endpoint(1), m.Endpoint(2)
	require.True(t, e0.Partitioned(0))
	require.False(t, e0.Partitioned(1))

	// Rank 0 sends forward, so rank 1 receives it from its backward side;
	// rank 0 sends backward, which wraps to rank 2's forward side.
	s1, err := e0.Send(ctx, 0, lattice.Forward, []byte("fwd"))
	require.NoError(t, err)
	s2, err := e0.Send(ctx, 0, lattice.Backward, []byte("bwd"))
	require.NoError(t, err)
	require.NoError(t, s1.Wait(ctx))
	require.NoError(t, s2.Wait(ctx))

	got1 := make([]byte, 3)
	r1, err := e1.Recv(ctx, 0, lattice.Backward, got1)
	require.NoError(t, err)
	got2 := make([]byte, 3)
	r2, err := e2.Recv(ctx, 0, lattice.Forward, got2)
	require.NoError(t, err)
	require.NoError(t, r1.Wait(ctx))
	require.NoError(t, r2.Wait(ctx))
	assert.True(t, r1.Test())
	assert.Equal(t, "fwd", string(got1))
	assert.Equal(t, "bwd", string(got2))
}

func TestMeshDirect(t *testing.T) {
	ctx := context.Background()
	e := NewLoopback(2)
	require.True(t, e.Partitioned(2))
	require.False(t, e.Partitioned(3))
	data := []complex128{1i, 2}
	_, err := e.SendDirect(ctx, 2, lattice.Forward, data)
	require.NoError(t, err)
	data[0] = 0
	got := make([]complex128, 2)
	r, err := e.RecvDirect(ctx, 2, lattice.Backward, got)
	require.NoError(t, err)
	require.NoError(t, r.Wait(ctx))
	assert.Equal(t, []complex128{1i, 2}, got)
}

func TestMeshSizeMismatch(t *testing.T) {
	ctx := context.Background()
	e := NewLoopback(0)
	_, err := e.Send(ctx, 0, lattice.Backward, []byte{1, 2})
	require.NoError(t, err)
	r, err := e.Recv(ctx, 0, lattice.Forward, make([]byte, 3))
	require.NoError(t, err)
	require.ErrorIs(t, r.Wait(ctx), lattice.ErrTransport)
}

func TestRecvCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	e := NewLoopback(1)
	r, err := e.Recv(ctx, 1, lattice.Forward, make([]byte, 1))
	require.NoError(t, err)
	assert.False(t, r.Test())
	cancel()
	require.ErrorIs(t, r.Wait(context.Background()), lattice.ErrTransport)
	_, err = e.Recv(ctx, 7, lattice.Forward, nil)
	require.ErrorIs(t, err, lattice.ErrInvalidArgument)
}

func TestFaulty(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("link down")
	f := &Faulty{
		Transport: NewLoopback(0, 3),
		FailSend: func(dim int, _ lattice.Direction) error {
			if dim == 3 {
				return boom
			}
			return nil
		},
		Delay: func(int, lattice.Direction) time.Duration { return 20 * time.Millisecond },
	}
	s, err := f.Send(ctx, 3, lattice.Forward, []byte{1})
	require.NoError(t, err)
	err = s.Wait(ctx)
	require.ErrorIs(t, err, lattice.ErrTransport)
	require.ErrorIs(t, err, boom)

	start := time.Now()
	_, err = f.Send(ctx, 0, lattice.Forward, []byte{9})
	require.NoError(t, err)
	got := make([]byte, 1)
	r, err := f.Recv(ctx, 0, lattice.Backward, got)
	require.NoError(t, err)
	require.NoError(t, r.Wait(ctx))
	assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)
	assert.Equal(t, byte(9), got[0])
}

// runNATSServer starts an in-process server on a random port and returns a
// connection to it.
func runNATSServer(t *testing.T) *nats.Conn {
	t.Helper()
	ns, err := server.NewServer(&server.Options{Host: "127.0.0.1", Port: -1, NoLog: true, NoSigs: true})
	require.NoError(t, err)
	go ns.Start()
	t.Cleanup(func() {
		ns.Shutdown()
		ns.WaitForShutdown()
	})
	if !ns.ReadyForConnections(5 * time.Second) {
		t.Fatal("nats server not ready")
	}
	nc, err := nats.Connect(ns.ClientURL())
	require.NoError(t, err)
	t.Cleanup(nc.Close)
	return nc
}

func TestNATSTransport(t *testing.T) {
	nc := runNATSServer(t)
	grid := [4]int{1, 1, 1, 2}
	prefix := "lattice.test." + nats.NewInbox()[len(nats.InboxPrefix):]
	t0, err := NewNATSTransport(nc, prefix, grid, [4]int{0, 0, 0, 0})
	require.NoError(t, err)
	defer t0.Close()
	t1, err := NewNATSTransport(nc, prefix, grid, [4]int{0, 0, 0, 1})
	require.NoError(t, err)
	defer t1.Close()
	assert.Equal(t, 1, t1.Rank())
	assert.True(t, t0.Partitioned(3))
	assert.False(t, t0.Partitioned(0))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	t.Run("exchange", func(t *testing.T) {
		fromT0 := make([]byte, 4)
		r1, err := t1.Recv(ctx, 3, lattice.Backward, fromT0)
		require.NoError(t, err)
		fromT1 := make([]byte, 4)
		r0, err := t0.Recv(ctx, 3, lattice.Forward, fromT1)
		require.NoError(t, err)
		require.NoError(t, nc.Flush())

		s0, err := t0.Send(ctx, 3, lattice.Forward, []byte("face"))
		require.NoError(t, err)
		s1, err := t1.Send(ctx, 3, lattice.Backward, []byte("back"))
		require.NoError(t, err)
		for _, r := range []Request{s0, s1, r0, r1} {
			require.NoError(t, r.Wait(ctx))
		}
		assert.Equal(t, "face", string(fromT0))
		assert.Equal(t, "back", string(fromT1))
	})

	t.Run("wrong length", func(t *testing.T) {
		got := make([]byte, 4)
		r, err := t1.Recv(ctx, 3, lattice.Backward, got)
		require.NoError(t, err)
		_, err = t0.Send(ctx, 3, lattice.Forward, []byte("abc"))
		require.NoError(t, err)
		err = r.Wait(ctx)
		require.ErrorIs(t, err, lattice.ErrTransport)
		assert.Contains(t, err.Error(), "received 3 bytes, want 4")
	})

	t.Run("not partitioned", func(t *testing.T) {
		_, err := t0.Recv(ctx, 0, lattice.Forward, make([]byte, 4))
		require.ErrorIs(t, err, lattice.ErrInvalidArgument)
	})

	t.Run("cancelled", func(t *testing.T) {
		cctx, ccancel := context.WithCancel(ctx)
		r, err := t0.Recv(cctx, 3, lattice.Forward, make([]byte, 4))
		require.NoError(t, err)
		ccancel()
		require.ErrorIs(t, r.Wait(ctx), lattice.ErrTransport)
	})
}

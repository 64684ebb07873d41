// Copyright 2026 The go-lattice Authors. SPDX-License-Identifier: Apache-2.0

package field

import (
	"math/cmplx"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajroetker/go-lattice/lattice"
	"github.com/ajroetker/go-lattice/lattice/linalg"
)

func newGeom(t *testing.T, dims [lattice.NDim]int) *lattice.Geometry {
	t.Helper()
	g, err := lattice.NewLocalGeometry(dims)
	require.NoError(t, err)
	return g
}

func TestNewColorSpinorDefaults(t *testing.T) {
	g := newGeom(t, [4]int{4, 4, 4, 4})
	f, err := NewColorSpinor(g, SpinorParams{Parity: lattice.Even})
	require.NoError(t, err)
	assert.Equal(t, 4, f.NSpin())
	assert.Equal(t, 1, f.Ls())
	assert.Equal(t, 12, f.SiteLen())
	assert.Equal(t, 128, f.Sites())
	assert.Len(t, f.Data(), 128*12)
	assert.Len(t, f.Ghost(3, lattice.Forward), g.FaceSites(3, lattice.Even)*12)
}

func TestNewColorSpinorErrors(t *testing.T) {
	g := newGeom(t, [4]int{4, 4, 4, 4})
	tests := []struct {
		name string
		p    SpinorParams
	}{
		{"bad nSpin", SpinorParams{NSpin: 2}},
		{"bad parity", SpinorParams{Parity: lattice.Parity(7)}},
		{"too deep", SpinorParams{NFace: 5}},
		{"negative Ls", SpinorParams{Ls: -1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewColorSpinor(g, tt.p)
			require.ErrorIs(t, err, lattice.ErrInvalidArgument)
		})
	}
	_, err := NewColorSpinor(nil, SpinorParams{})
	require.ErrorIs(t, err, lattice.ErrInvalidArgument)
}

func TestExtractCombine(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	g := newGeom(t, [4]int{4, 2, 4, 2})
	full := MustColorSpinor(g, SpinorParams{Parity: lattice.Full, Ls: 2})
	RandomSpinor(rng, full)

	even, err := Extract(full, lattice.Even)
	require.NoError(t, err)
	odd, err := Extract(full, lattice.Odd)
	require.NoError(t, err)
	for cb := range even.Sites() {
		c := g.CoordCB(lattice.Even, cb)
		require.Equal(t, lattice.Even, g.ParityOf(c))
		assert.Equal(t, full.Site(1, g.LocalIndex(c)), even.Site(1, cb))
	}
	back, err := Combine(even, odd)
	require.NoError(t, err)
	assert.Zero(t, MaxDiff(full, back))

	_, err = Extract(even, lattice.Odd)
	require.ErrorIs(t, err, lattice.ErrInvalidArgument)
	_, err = Combine(odd, even)
	require.ErrorIs(t, err, lattice.ErrInvalidArgument)
}

func TestRestrictGather(t *testing.T) {
	rng := rand.New(rand.NewPCG(3, 4))
	dims := [4]int{4, 4, 4, 8}
	grid := [4]int{2, 1, 1, 2}
	gg := newGeom(t, dims)
	for _, p := range []lattice.Parity{lattice.Even, lattice.Odd, lattice.Full} {
		global := MustColorSpinor(gg, SpinorParams{Parity: p})
		RandomSpinor(rng, global)

		var locals []*ColorSpinor
		for px := range grid[0] {
			for pt := range grid[3] {
				lg, err := lattice.NewGeometry(dims, grid, [4]int{px, 0, 0, pt})
				require.NoError(t, err)
				l, err := Restrict(global, lg)
				require.NoError(t, err)
				locals = append(locals, l)
			}
		}
		back, err := Gather(gg, locals)
		require.NoError(t, err)
		assert.Zero(t, MaxDiff(global, back), "parity %v", p)
	}
}

func TestRestrictGauge(t *testing.T) {
	rng := rand.New(rand.NewPCG(5, 6))
	dims := [4]int{4, 4, 4, 4}
	u := MustGauge(newGeom(t, dims), 1)
	RandomGauge(rng, u)
	lg, err := lattice.NewGeometry(dims, [4]int{1, 1, 2, 1}, [4]int{0, 0, 1, 0})
	require.NoError(t, err)
	lu, err := RestrictGauge(u, lg)
	require.NoError(t, err)
	c := lattice.Coord{1, 2, 0, 3}
	gc := lg.GlobalCoord(c)
	assert.Equal(t, u.Link(u.Geometry().LocalIndex(gc), 2), lu.Link(lg.LocalIndex(c), 2))
}

func TestRandomGaugeIsSU3(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 8))
	u := MustGauge(newGeom(t, [4]int{2, 2, 2, 2}), 1)
	RandomGauge(rng, u)
	for i := range u.Geometry().Volume() {
		for mu := range lattice.NDim {
			if d := linalg.Det(u.Link(i, mu)); cmplx.Abs(d-1) > 1e-12 {
				t.Fatalf("det U(%d,%d) = %v, want 1", i, mu, d)
			}
		}
	}
}

func TestStaggeredPhasesInvolution(t *testing.T) {
	rng := rand.New(rand.NewPCG(9, 10))
	u := MustGauge(newGeom(t, [4]int{2, 2, 2, 2}), 1)
	RandomGauge(rng, u)
	orig := append([]complex128(nil), u.Data()...)
	ApplyStaggeredPhases(u)
	// eta_t at (1,0,0,0) is -1.
	idx := u.Geometry().LocalIndex(lattice.Coord{1, 0, 0, 0})
	assert.Equal(t, -orig[idx*GaugeSiteLen+3*linalg.MatrixLen], u.Link(idx, 3)[0])
	ApplyStaggeredPhases(u)
	assert.Equal(t, orig, u.Data())
}

func TestCloverInverse(t *testing.T) {
	rng := rand.New(rand.NewPCG(11, 12))
	g := newGeom(t, [4]int{2, 2, 2, 2})
	c, err := NewClover(g)
	require.NoError(t, err)
	RandomClover(rng, c, 0.1)
	require.False(t, c.HasInverse())
	require.NoError(t, c.ComputeInverse(0.3))
	require.True(t, c.HasInverse())
	assert.Equal(t, 0.3, c.InverseTwist())

	src := make([]complex128, linalg.SpinorLen)
	for i := range src {
		src[i] = complex(float64(i), 1)
	}
	tmp := make([]complex128, linalg.SpinorLen)
	got := make([]complex128, linalg.SpinorLen)
	linalg.CloverTwistApply(tmp, c.Site(5), src, 0.3)
	linalg.CloverApply(got, c.InverseSite(5), tmp)
	for i := range src {
		if cmplx.Abs(got[i]-src[i]) > 1e-10 {
			t.Fatalf("inverse mismatch at %d: %v, want %v", i, got[i], src[i])
		}
	}

	zero, err := NewClover(g)
	require.NoError(t, err)
	require.ErrorIs(t, zero.ComputeInverse(0), lattice.ErrParameter)
}

func TestDotNorm(t *testing.T) {
	rng := rand.New(rand.NewPCG(13, 14))
	g := newGeom(t, [4]int{2, 2, 2, 2})
	a := MustColorSpinor(g, SpinorParams{Parity: lattice.Odd})
	RandomSpinor(rng, a)
	d, err := Dot(a, a)
	require.NoError(t, err)
	assert.InDelta(t, Norm2(a), real(d), 1e-9)
	assert.InDelta(t, 0, imag(d), 1e-9)

	b := Clone(a)
	require.NoError(t, Axpy(b, -1, a))
	assert.Zero(t, Norm2(b))

	_, err = Dot(a, Like(a, lattice.Even))
	require.ErrorIs(t, err, lattice.ErrInvalidArgument)
}

// Copyright 2026 The go-lattice Authors. SPDX-License-Identifier: Apache-2.0

package dslash5

import (
	"context"
	"math/cmplx"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajroetker/go-lattice/lattice"
	"github.com/ajroetker/go-lattice/lattice/field"
	"github.com/ajroetker/go-lattice/lattice/workerpool"
)

const ls = 6

func newSpinors(t *testing.T, n int, seed uint64) []*field.ColorSpinor {
	t.Helper()
	g, err := lattice.NewLocalGeometry([4]int{2, 2, 2, 4})
	require.NoError(t, err)
	rng := rand.New(rand.NewPCG(seed, 99))
	fs := make([]*field.ColorSpinor, n)
	for i := range fs {
		fs[i] = field.MustColorSpinor(g, field.SpinorParams{Parity: lattice.Even, Ls: ls})
		field.RandomSpinor(rng, fs[i])
	}
	return fs
}

func uniform(v complex128) []complex128 {
	s := make([]complex128, ls)
	for i := range s {
		s[i] = v
	}
	return s
}

func zmobius() (b, c []complex128) {
	b, c = make([]complex128, ls), make([]complex128, ls)
	for s := range ls {
		b[s] = complex(1.5+0.1*float64(s), 0.05*float64(s))
		c[s] = complex(0.5-0.05*float64(s), -0.02*float64(s))
	}
	return b, c
}

func apply(t *testing.T, out, in, x *field.ColorSpinor, p Params) {
	t.Helper()
	require.NoError(t, Apply(context.Background(), nil, out, in, x, p))
}

func TestHopAdjoint(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	n := ls * 12
	phi, psi := make([]complex128, n), make([]complex128, n)
	for i := range n {
		phi[i] = complex(rng.NormFloat64(), rng.NormFloat64())
		psi[i] = complex(rng.NormFloat64(), rng.NormFloat64())
	}
	h, hd := make([]complex128, n), make([]complex128, n)
	Hop(h, psi, ls, 0.1, false)
	Hop(hd, phi, ls, 0.1, true)
	var lhs, rhs complex128
	for i := range n {
		lhs += cmplx.Conj(phi[i]) * h[i]
		rhs += cmplx.Conj(hd[i]) * psi[i]
	}
	if cmplx.Abs(lhs-rhs) > 1e-10 {
		t.Errorf("<phi, H psi> = %v, <H^dag phi, psi> = %v", lhs, rhs)
	}
}

func TestForwardThenInverse(t *testing.T) {
	bz, cz := zmobius()
	tests := []struct {
		name     string
		fwd, inv Params
	}{
		{
			name: "dwf",
			fwd:  Params{Type: Mobius, Mf: 0.05, M5: -1.8, B5: uniform(1), C5: uniform(0)},
			inv:  Params{Type: M5InvDWF, Mf: 0.05, M5: -1.8},
		},
		{
			name: "mobius",
			fwd:  Params{Type: Mobius, Mf: 0.02, M5: -1.6, B5: uniform(1.5), C5: uniform(0.5)},
			inv:  Params{Type: M5InvMobius, Mf: 0.02, M5: -1.6, B5: uniform(1.5), C5: uniform(0.5)},
		},
		{
			name: "zmobius",
			fwd:  Params{Type: Mobius, Mf: 0.1, M5: -1.4, B5: bz, C5: cz},
			inv:  Params{Type: M5InvZMobius, Mf: 0.1, M5: -1.4, B5: bz, C5: cz},
		},
	}
	pool := workerpool.New(3)
	defer pool.Close()
	for _, tt := range tests {
		for _, dagger := range []bool{false, true} {
			fs := newSpinors(t, 3, 7)
			in, mid, back := fs[0], fs[1], fs[2]
			tt.fwd.Dagger, tt.inv.Dagger = dagger, dagger
			require.NoError(t, Apply(context.Background(), pool, mid, in, nil, tt.fwd))
			require.NoError(t, Apply(context.Background(), pool, back, mid, nil, tt.inv))
			if d := field.MaxDiff(in, back); d > 1e-12 {
				t.Errorf("%s dagger=%v: inverse(forward(x)) differs from x by %g", tt.name, dagger, d)
			}
		}
	}
}

func TestDaggerIsAdjoint(t *testing.T) {
	bz, cz := zmobius()
	for _, p := range []Params{
		{Type: DWF, Mf: 0.1},
		{Type: MobiusPre, Mf: 0.1, M5: -1.5, B5: bz, C5: cz},
		{Type: Mobius, Mf: 0.1, M5: -1.5, B5: bz, C5: cz},
		{Type: M5InvZMobius, Mf: 0.1, M5: -1.5, B5: bz, C5: cz},
		{Type: M5InvDWF, Mf: 0.3, M5: -1.8},
	} {
		fs := newSpinors(t, 4, 11)
		phi, psi, opPsi, opPhi := fs[0], fs[1], fs[2], fs[3]
		apply(t, opPsi, psi, nil, p)
		p.Dagger = true
		apply(t, opPhi, phi, nil, p)
		lhs, err := field.Dot(phi, opPsi)
		require.NoError(t, err)
		rhs, err := field.Dot(opPhi, psi)
		require.NoError(t, err)
		if cmplx.Abs(lhs-rhs) > 1e-9*cmplx.Abs(lhs) {
			t.Errorf("%v: <phi, M psi> = %v, <M^dag phi, psi> = %v", p.Type, lhs, rhs)
		}
	}
}

func TestMobiusPre(t *testing.T) {
	fs := newSpinors(t, 3, 13)
	in, out, hop := fs[0], fs[1], fs[2]
	apply(t, out, in, nil, Params{Type: MobiusPre, Mf: 0.2, B5: uniform(2), C5: uniform(0.5)})
	apply(t, hop, in, nil, Params{Type: DWF, Mf: 0.2})
	for i, v := range out.Data() {
		want := 2*in.Data()[i] + 0.5*hop.Data()[i]
		if cmplx.Abs(v-want) > 1e-12 {
			t.Fatalf("out[%d] = %v, want %v", i, v, want)
		}
	}
}

func TestXpay(t *testing.T) {
	bz, cz := zmobius()
	for _, typ := range []Type{DWF, MobiusPre, Mobius, M5InvDWF, M5InvZMobius} {
		fs := newSpinors(t, 4, 17)
		in, x, plain, xpay := fs[0], fs[1], fs[2], fs[3]
		p := Params{Type: typ, Mf: 0.1, M5: -1.5, B5: bz, C5: cz, A: 0.3 - 0.2i}
		apply(t, plain, in, nil, p)
		p.Xpay = true
		apply(t, xpay, in, x, p)
		require.NoError(t, field.Axpy(x, p.A, plain))
		assert.Less(t, field.MaxDiff(x, xpay), 1e-12, "%v", typ)
	}
}

func TestXpayAliasesOutput(t *testing.T) {
	fs := newSpinors(t, 3, 19)
	in, x, ref := fs[0], fs[1], fs[2]
	p := Params{Type: DWF, Mf: 0.1, A: 2, Xpay: true}
	apply(t, ref, in, x, p)
	apply(t, x, in, x, p)
	assert.Zero(t, field.MaxDiff(ref, x))
}

func TestErrors(t *testing.T) {
	fs := newSpinors(t, 3, 23)
	in, out, x := fs[0], fs[1], fs[2]
	ctx := context.Background()
	tests := []struct {
		name string
		out  *field.ColorSpinor
		x    *field.ColorSpinor
		p    Params
		want error
	}{
		{"short b5", out, nil, Params{Type: Mobius, B5: uniform(1)[:2], C5: uniform(0)}, lattice.ErrParameter},
		{"nonuniform", out, nil, Params{Type: M5InvMobius, B5: func() []complex128 { b, _ := zmobius(); return b }(), C5: uniform(0)}, lattice.ErrParameter},
		{"alias", in, nil, Params{Type: DWF}, lattice.ErrInvalidArgument},
		{"xpay without x", out, nil, Params{Type: DWF, Xpay: true}, lattice.ErrInvalidArgument},
		{"bad type", out, x, Params{Type: Type(42)}, lattice.ErrInvalidArgument},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.ErrorIs(t, Apply(ctx, nil, tt.out, in, tt.x, tt.p), tt.want)
		})
	}

	g, err := lattice.NewLocalGeometry([4]int{2, 2, 2, 2})
	require.NoError(t, err)
	one := field.MustColorSpinor(g, field.SpinorParams{Parity: lattice.Odd, Ls: 1})
	res := field.MustColorSpinor(g, field.SpinorParams{Parity: lattice.Odd, Ls: 1})
	// kappa = -1/4 and -m_f = 4 make the single-slice system 1 - 1 = 0.
	singular := Params{Type: M5InvDWF, Mf: -4, M5: -1}
	require.ErrorIs(t, Apply(ctx, nil, res, one, nil, singular), lattice.ErrParameter)
	require.NoError(t, Apply(ctx, nil, out, in, nil, singular))

	stag := field.MustColorSpinor(g, field.SpinorParams{Parity: lattice.Odd, NSpin: 1})
	require.ErrorIs(t, Apply(ctx, nil, field.Like(stag, lattice.Odd), stag, nil, Params{}), lattice.ErrInvalidArgument)
}

func TestTypeString(t *testing.T) {
	assert.Equal(t, "m5inv-zmobius", M5InvZMobius.String())
	assert.Equal(t, "mobius-pre", MobiusPre.String())
}

func BenchmarkM5Inv(b *testing.B) {
	g, _ := lattice.NewLocalGeometry([4]int{4, 4, 4, 4})
	in := field.MustColorSpinor(g, field.SpinorParams{Parity: lattice.Even, Ls: 8})
	out := field.Like(in, lattice.Even)
	p := Params{Type: M5InvDWF, Mf: 0.01, M5: -1.8}
	for b.Loop() {
		_ = Apply(context.Background(), nil, out, in, nil, p)
	}
}

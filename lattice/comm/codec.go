// Copyright 2026 The go-lattice Authors. SPDX-License-Identifier: Apache-2.0

package comm

//go:generate go tool stringer -type=Precision -linecomment -output=precision_string.go

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/x448/float16"

	"github.com/ajroetker/go-lattice/lattice"
)

// Precision is the width of each real component on the wire.
type Precision int

const (
	Double Precision = iota // double
	Single                  // single
	Half                    // half
)

// Bytes returns the encoded size of one real component.
func (p Precision) Bytes() int {
	switch p {
	case Single:
		return 4
	case Half:
		return 2
	default:
		return 8
	}
}

// Codec converts packed faces to and from their wire form. Components are
// little-endian; Half uses IEEE 754 binary16.
type Codec struct {
	Precision Precision
}

// EncodedLen returns the wire size of n complex values.
func (c Codec) EncodedLen(n int) int {
	return 2 * n * c.Precision.Bytes()
}

// Encode appends the wire form of src to dst and returns the result.
func (c Codec) Encode(dst []byte, src []complex128) []byte {
	for _, v := range src {
		dst = c.appendReal(dst, real(v))
		dst = c.appendReal(dst, imag(v))
	}
	return dst
}

func (c Codec) appendReal(dst []byte, x float64) []byte {
	switch c.Precision {
	case Single:
		return binary.LittleEndian.AppendUint32(dst, math.Float32bits(float32(x)))
	case Half:
		return binary.LittleEndian.AppendUint16(dst, float16.Fromfloat32(float32(x)).Bits())
	default:
		return binary.LittleEndian.AppendUint64(dst, math.Float64bits(x))
	}
}

// Decode fills dst from its wire form.
func (c Codec) Decode(dst []complex128, src []byte) error {
	if len(src) != c.EncodedLen(len(dst)) {
		return fmt.Errorf("%w: %d bytes for %d %v values", lattice.ErrInvalidArgument, len(src), len(dst), c.Precision)
	}
	w := c.Precision.Bytes()
	for i := range dst {
		re := c.real(src[2*i*w:])
		im := c.real(src[(2*i+1)*w:])
		dst[i] = complex(re, im)
	}
	return nil
}

func (c Codec) real(b []byte) float64 {
	switch c.Precision {
	case Single:
		return float64(math.Float32frombits(binary.LittleEndian.Uint32(b)))
	case Half:
		return float64(float16.Frombits(binary.LittleEndian.Uint16(b)).Float32())
	default:
		return math.Float64frombits(binary.LittleEndian.Uint64(b))
	}
}

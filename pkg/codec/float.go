package codec

import (
	"io"
	"math"
)

const (
	floatMask32 uint32 = 1<<31 - 1
	floatSign32 uint32 = 1 << 31
	floatMask64 uint64 = 1<<63 - 1
	floatSign64 uint64 = 1 << 63
)

// Float32Codec encodes float32 values so that unsigned byte comparison of
// the encoding matches IEEE-754 order: negative values are complemented
// into the lower half of the range (in reverse-magnitude order), positive
// values are shifted into the upper half (in ascending order). -0.0 and
// +0.0 are distinct, adjacent encodings; NaN bit patterns pass through the
// same transform with unspecified but deterministic relative order.
type Float32Codec struct{}

// EncodeFloat32 appends the 4-byte order-preserving encoding of v to w.
func EncodeFloat32(w io.Writer, v float32) error {
	b := math.Float32bits(v)
	return appendBigEndianUnsigned(w, uint64(encodeFloatBits32(b)), 4)
}

// DecodeFloat32 reads the 4-byte order-preserving encoding from r. The
// bits are reconstructed then passed through Float32frombits, which on Go
// is already a true single-precision conversion with no extra-precision
// carryover to narrow away.
func DecodeFloat32(r io.Reader) (float32, error) {
	u, err := readBigEndianUnsigned(r, 4)
	if err != nil {
		return 0, err
	}
	return math.Float32frombits(decodeFloatBits32(uint32(u))), nil
}

func encodeFloatBits32(b uint32) uint32 {
	m := b & floatMask32
	if b&floatSign32 != 0 {
		return floatMask32 - m
	}
	return floatSign32 | m
}

func decodeFloatBits32(e uint32) uint32 {
	m := e & floatMask32
	if e&floatSign32 == 0 {
		return (floatMask32 - m) | floatSign32
	}
	return m
}

func (Float32Codec) Encode(w io.Writer, v any) error { return EncodeFloat32(w, v.(float32)) }
func (Float32Codec) Decode(r io.Reader) (any, error) { return DecodeFloat32(r) }
func (Float32Codec) Width() int                      { return 4 }

// Float64Codec is the binary64 analogue of Float32Codec.
type Float64Codec struct{}

// EncodeFloat64 appends the 8-byte order-preserving encoding of v to w.
func EncodeFloat64(w io.Writer, v float64) error {
	b := math.Float64bits(v)
	return appendBigEndianUnsigned(w, encodeFloatBits64(b), 8)
}

// DecodeFloat64 reads the 8-byte order-preserving encoding from r.
func DecodeFloat64(r io.Reader) (float64, error) {
	u, err := readBigEndianUnsigned(r, 8)
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(decodeFloatBits64(u)), nil
}

func encodeFloatBits64(b uint64) uint64 {
	m := b & floatMask64
	if b&floatSign64 != 0 {
		return floatMask64 - m
	}
	return floatSign64 | m
}

func decodeFloatBits64(e uint64) uint64 {
	m := e & floatMask64
	if e&floatSign64 == 0 {
		return (floatMask64 - m) | floatSign64
	}
	return m
}

func (Float64Codec) Encode(w io.Writer, v any) error { return EncodeFloat64(w, v.(float64)) }
func (Float64Codec) Decode(r io.Reader) (any, error) { return DecodeFloat64(r) }
func (Float64Codec) Width() int                      { return 8 }

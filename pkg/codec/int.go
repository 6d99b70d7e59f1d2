package codec

import "io"

const (
	signBit32 uint32 = 1 << 31
	signBit64 uint64 = 1 << 63
)

// Int32Codec encodes int32 values by flipping the sign bit, which maps the
// signed range monotonically onto the unsigned range: adding 2^31 modulo
// 2^32 only ever touches the top bit, since every lower bit of 2^31 is
// zero, so it is equivalent to (and implemented as) an XOR of the sign bit.
type Int32Codec struct{}

// EncodeInt32 appends the 4-byte sign-biased encoding of v to w.
func EncodeInt32(w io.Writer, v int32) error {
	return appendBigEndianUnsigned(w, uint64(uint32(v)^signBit32), 4)
}

// DecodeInt32 reads the 4-byte sign-biased encoding from r.
func DecodeInt32(r io.Reader) (int32, error) {
	u, err := readBigEndianUnsigned(r, 4)
	if err != nil {
		return 0, err
	}
	return int32(uint32(u) ^ signBit32), nil
}

func (Int32Codec) Encode(w io.Writer, v any) error { return EncodeInt32(w, v.(int32)) }
func (Int32Codec) Decode(r io.Reader) (any, error) { return DecodeInt32(r) }
func (Int32Codec) Width() int                      { return 4 }

// Int64Codec encodes int64 values by flipping the sign bit (see Int32Codec).
type Int64Codec struct{}

// EncodeInt64 appends the 8-byte sign-biased encoding of v to w.
func EncodeInt64(w io.Writer, v int64) error {
	return appendBigEndianUnsigned(w, uint64(v)^signBit64, 8)
}

// DecodeInt64 reads the 8-byte sign-biased encoding from r.
func DecodeInt64(r io.Reader) (int64, error) {
	u, err := readBigEndianUnsigned(r, 8)
	if err != nil {
		return 0, err
	}
	return int64(u ^ signBit64), nil
}

func (Int64Codec) Encode(w io.Writer, v any) error { return EncodeInt64(w, v.(int64)) }
func (Int64Codec) Decode(r io.Reader) (any, error) { return DecodeInt64(r) }
func (Int64Codec) Width() int                      { return 8 }

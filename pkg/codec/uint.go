package codec

import "io"

// Uint32Codec encodes uint32 values as 4 big-endian bytes. Unsigned
// natural order already coincides with unsigned byte order, so no
// transform is needed.
type Uint32Codec struct{}

// EncodeUint32 appends the 4-byte big-endian encoding of v to w.
func EncodeUint32(w io.Writer, v uint32) error {
	return appendBigEndianUnsigned(w, uint64(v), 4)
}

// DecodeUint32 reads the 4-byte big-endian encoding from r.
func DecodeUint32(r io.Reader) (uint32, error) {
	v, err := readBigEndianUnsigned(r, 4)
	if err != nil {
		return 0, err
	}
	return uint32(v), nil
}

func (Uint32Codec) Encode(w io.Writer, v any) error { return EncodeUint32(w, v.(uint32)) }
func (Uint32Codec) Decode(r io.Reader) (any, error) { return DecodeUint32(r) }
func (Uint32Codec) Width() int                      { return 4 }

// Uint64Codec encodes uint64 values as 8 big-endian bytes.
type Uint64Codec struct{}

// EncodeUint64 appends the 8-byte big-endian encoding of v to w.
func EncodeUint64(w io.Writer, v uint64) error {
	return appendBigEndianUnsigned(w, v, 8)
}

// DecodeUint64 reads the 8-byte big-endian encoding from r.
func DecodeUint64(r io.Reader) (uint64, error) {
	return readBigEndianUnsigned(r, 8)
}

func (Uint64Codec) Encode(w io.Writer, v any) error { return EncodeUint64(w, v.(uint64)) }
func (Uint64Codec) Decode(r io.Reader) (any, error) { return DecodeUint64(r) }
func (Uint64Codec) Width() int                      { return 8 }

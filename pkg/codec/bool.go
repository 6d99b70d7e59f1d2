package codec

import "io"

// BoolCodec encodes Go bools as a single order-preserving byte: false
// sorts before true because 0x00 < 0x01.
type BoolCodec struct{}

// EncodeBool appends the 1-byte encoding of v to w.
func EncodeBool(w io.Writer, v bool) error {
	b := byte(0x00)
	if v {
		b = 0x01
	}
	_, err := w.Write([]byte{b})
	return err
}

// DecodeBool reads the 1-byte encoding from r. Any nonzero byte decodes to
// true; only Encode's own output (0x00/0x01) round-trips byte-for-byte.
func DecodeBool(r io.Reader) (bool, error) {
	var buf [1]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return false, wrapShortRead(err, 1)
	}
	return buf[0] != 0x00, nil
}

func (BoolCodec) Encode(w io.Writer, v any) error {
	return EncodeBool(w, v.(bool))
}

func (BoolCodec) Decode(r io.Reader) (any, error) {
	return DecodeBool(r)
}

func (BoolCodec) Width() int { return 1 }

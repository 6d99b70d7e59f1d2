package codec

import (
	"fmt"
	"io"
)

// ErrCorruptKey is returned when a decoded ordinal index falls outside its
// variant table. It is the only decode failure this codec family can
// produce that isn't a short read.
var ErrCorruptKey = fmt.Errorf("codec: corrupt key")

// OrdinalCodec encodes values of an ordered, discrete enumeration as their
// 2-byte big-endian index within a declared variant table. Byte order of
// the encoded keys equals the declared variant order — this is the
// canonical strategy for user-defined ordered types.
//
// An OrdinalCodec is built once per enumeration and shared; the variant
// table is read-only after construction.
type OrdinalCodec[T comparable] struct {
	variants []T
	index    map[T]uint16
}

// NewOrdinalCodec builds an OrdinalCodec over variants in their declared
// order. It returns an error if variants is empty, contains duplicates, or
// has 2^16 or more entries (the index would not fit in 2 bytes).
func NewOrdinalCodec[T comparable](variants []T) (*OrdinalCodec[T], error) {
	if len(variants) == 0 {
		return nil, fmt.Errorf("codec: ordinal variant table must not be empty")
	}
	if len(variants) > 1<<16-1 {
		return nil, fmt.Errorf("codec: ordinal variant table too large: %d entries", len(variants))
	}

	index := make(map[T]uint16, len(variants))
	for i, v := range variants {
		if _, dup := index[v]; dup {
			return nil, fmt.Errorf("codec: duplicate ordinal variant %v", v)
		}
		index[v] = uint16(i)
	}

	return &OrdinalCodec[T]{
		variants: append([]T(nil), variants...),
		index:    index,
	}, nil
}

// Len returns the number of variants in the table.
func (c *OrdinalCodec[T]) Len() int { return len(c.variants) }

// EncodeOrdinal appends the 2-byte big-endian index of v within the
// variant table to w. v must be one of the declared variants.
func (c *OrdinalCodec[T]) EncodeOrdinal(w io.Writer, v T) error {
	i, ok := c.index[v]
	if !ok {
		return fmt.Errorf("codec: value %v is not a declared ordinal variant", v)
	}
	return appendBigEndianUnsigned(w, uint64(i), 2)
}

// DecodeOrdinal reads a 2-byte big-endian index from r and returns the
// corresponding variant. Returns ErrCorruptKey if the index is out of
// range for the variant table.
func (c *OrdinalCodec[T]) DecodeOrdinal(r io.Reader) (T, error) {
	var zero T
	u, err := readBigEndianUnsigned(r, 2)
	if err != nil {
		return zero, err
	}
	if u >= uint64(len(c.variants)) {
		return zero, fmt.Errorf("%w: ordinal index %d >= %d variants", ErrCorruptKey, u, len(c.variants))
	}
	return c.variants[u], nil
}

func (c *OrdinalCodec[T]) Encode(w io.Writer, v any) error {
	return c.EncodeOrdinal(w, v.(T))
}

func (c *OrdinalCodec[T]) Decode(r io.Reader) (any, error) {
	return c.DecodeOrdinal(r)
}

func (c *OrdinalCodec[T]) Width() int { return 2 }

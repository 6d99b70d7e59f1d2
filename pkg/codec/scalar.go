package codec

import "io"

// ScalarCodec is the uniform capability every ordered scalar codec in this
// family exposes: append a value's ordered byte representation to a
// writer, or reconstruct a value by consuming exactly Width() bytes from a
// reader. Implementations are stateless (except OrdinalCodec, which is
// parameterized by its variant table) and safe for concurrent use.
//
// This is a closed set of implementations (BoolCodec, Uint32Codec,
// Uint64Codec, Int32Codec, Int64Codec, Float32Codec, Float64Codec, and
// *OrdinalCodec[T]) dispatched through Kind, not an open hierarchy.
type ScalarCodec interface {
	// Encode appends the ordered byte representation of v to w. v must be
	// the concrete Go type the codec was built for; any other type is a
	// caller bug and Encode will panic via a failed type assertion.
	Encode(w io.Writer, v any) error
	// Decode consumes exactly Width() bytes from r and reconstructs the
	// original value.
	Decode(r io.Reader) (any, error)
	// Width is the fixed number of bytes this codec reads and writes.
	Width() int
}

// Kind identifies the scalar type a ScalarCodec is bound to, for callers
// that need to select a codec by a runtime type tag (e.g. a secondary
// index choosing how to encode a field's declared type).
type Kind int

const (
	KindBool Kind = iota
	KindUint32
	KindUint64
	KindInt32
	KindInt64
	KindFloat32
	KindFloat64
	KindOrdinal
)

// Codecs is the stateless registry of fixed scalar codecs, keyed by Kind.
// It does not include KindOrdinal, since an ordinal codec is parameterized
// by a caller-supplied variant table and must be constructed with
// NewOrdinalCodec.
var Codecs = map[Kind]ScalarCodec{
	KindBool:    BoolCodec{},
	KindUint32:  Uint32Codec{},
	KindUint64:  Uint64Codec{},
	KindInt32:   Int32Codec{},
	KindInt64:   Int64Codec{},
	KindFloat32: Float32Codec{},
	KindFloat64: Float64Codec{},
}

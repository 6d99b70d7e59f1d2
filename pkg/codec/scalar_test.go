package codec

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCodecsRegistry_Dispatch(t *testing.T) {
	cases := []struct {
		kind Kind
		v    any
	}{
		{KindBool, true},
		{KindUint32, uint32(42)},
		{KindUint64, uint64(42)},
		{KindInt32, int32(-7)},
		{KindInt64, int64(-7)},
		{KindFloat32, float32(3.5)},
		{KindFloat64, 3.5},
	}
	for _, tc := range cases {
		c, ok := Codecs[tc.kind]
		require.True(t, ok)

		var buf bytes.Buffer
		require.NoError(t, c.Encode(&buf, tc.v))
		assert.Equal(t, c.Width(), buf.Len())

		got, err := c.Decode(&buf)
		require.NoError(t, err)
		assert.Equal(t, tc.v, got)
	}
}

// TestCompositeKeyOrderPreservation exercises spec.md P5: a composite key
// formed by concatenating two fixed-width scalar encodings orders the same
// way as the typed tuple it was built from, because each component is
// fixed-width and order-preserving on its own.
func TestCompositeKeyOrderPreservation(t *testing.T) {
	type tuple struct {
		a int32
		b uint32
	}
	encode := func(tu tuple) []byte {
		var buf bytes.Buffer
		require.NoError(t, EncodeInt32(&buf, tu.a))
		require.NoError(t, EncodeUint32(&buf, tu.b))
		return buf.Bytes()
	}
	compareTuple := func(x, y tuple) int {
		if x.a != y.a {
			if x.a < y.a {
				return -1
			}
			return 1
		}
		switch {
		case x.b < y.b:
			return -1
		case x.b > y.b:
			return 1
		default:
			return 0
		}
	}

	tuples := []tuple{
		{-5, 0}, {-5, 1}, {-5, 100},
		{0, 0}, {0, 1},
		{5, 0}, {5, 100},
	}
	assertMonotoneOrder(t, tuples, encode, compareTuple)
}

func TestCompositeKey_ConcreteBytes(t *testing.T) {
	// (int32(-1), uint32(0)) should byte-compare less than (int32(0), uint32(0))
	// purely from the int32 component, since both have identical uint32 suffixes.
	var lo, hi bytes.Buffer
	require.NoError(t, EncodeInt32(&lo, -1))
	require.NoError(t, EncodeUint32(&lo, 0))
	require.NoError(t, EncodeInt32(&hi, 0))
	require.NoError(t, EncodeUint32(&hi, 0))

	assert.Less(t, bytes.Compare(lo.Bytes(), hi.Bytes()), 0)
}

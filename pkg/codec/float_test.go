package codec

import (
	"bytes"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFloat32Codec_ConcreteScenarios(t *testing.T) {
	cases := []struct {
		name string
		v    float32
		want []byte
	}{
		{"-inf", float32(math.Inf(-1)), []byte{0x00, 0x7F, 0xFF, 0xFF}},
		{"-1.0", -1.0, []byte{0x40, 0x7F, 0xFF, 0xFF}},
		{"-0.0", float32(math.Copysign(0, -1)), []byte{0x7F, 0xFF, 0xFF, 0xFF}},
		{"+0.0", 0.0, []byte{0x80, 0x00, 0x00, 0x00}},
		{"+1.0", 1.0, []byte{0xBF, 0x80, 0x00, 0x00}},
		{"+inf", float32(math.Inf(1)), []byte{0xFF, 0x80, 0x00, 0x00}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, EncodeFloat32(&buf, tc.v))
			assert.Equal(t, tc.want, buf.Bytes())
		})
	}
}

func TestFloat32Codec_ZeroSignDistinction(t *testing.T) {
	// spec.md §4.5 / P2: -0.0 and +0.0 encode to distinct byte strings and
	// compare unequal under byte order, despite comparing equal under ==.
	var neg, pos bytes.Buffer
	require.NoError(t, EncodeFloat32(&neg, float32(math.Copysign(0, -1))))
	require.NoError(t, EncodeFloat32(&pos, 0.0))

	assert.NotEqual(t, neg.Bytes(), pos.Bytes())
	assert.Less(t, bytes.Compare(neg.Bytes(), pos.Bytes()), 0)
	assert.True(t, float32(math.Copysign(0, -1)) == 0.0) // IEEE == still holds
}

func TestFloat32Codec_RoundTrip(t *testing.T) {
	values := []float32{
		float32(math.Inf(-1)), -math.MaxFloat32, -1.0,
		-float32(math.SmallestNonzeroFloat32), float32(math.Copysign(0, -1)), 0.0,
		float32(math.SmallestNonzeroFloat32), 1.0, math.MaxFloat32, float32(math.Inf(1)),
	}
	for _, v := range values {
		var buf bytes.Buffer
		require.NoError(t, EncodeFloat32(&buf, v))
		assert.Len(t, buf.Bytes(), 4)

		got, err := DecodeFloat32(&buf)
		require.NoError(t, err)
		assert.Equal(t, v, got)
	}
}

func TestFloat32Codec_OrderPreservation(t *testing.T) {
	values := []float32{
		float32(math.Inf(-1)), -math.MaxFloat32, -1.0, -0.5,
		-float32(math.SmallestNonzeroFloat32),
		float32(math.Copysign(0, -1)), 0.0,
		float32(math.SmallestNonzeroFloat32),
		0.5, 1.0, math.MaxFloat32, float32(math.Inf(1)),
	}
	assertMonotoneOrder(t, values, func(v float32) []byte {
		var buf bytes.Buffer
		require.NoError(t, EncodeFloat32(&buf, v))
		return buf.Bytes()
	}, func(a, b float32) int {
		switch {
		case a < b:
			return -1
		case a > b:
			return 1
		case math.Signbit(float64(a)) && !math.Signbit(float64(b)):
			return -1 // -0.0 sorts before +0.0 under byte order (P2)
		case !math.Signbit(float64(a)) && math.Signbit(float64(b)):
			return 1
		default:
			return 0
		}
	})
}

func TestFloat32Codec_NaNDoesNotCrash(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, EncodeFloat32(&buf, float32(math.NaN())))
	assert.Len(t, buf.Bytes(), 4)

	_, err := DecodeFloat32(&buf)
	require.NoError(t, err)
}

func TestFloat64Codec_ConcreteScenarios(t *testing.T) {
	cases := []struct {
		name string
		v    float64
	}{
		{"-inf", math.Inf(-1)},
		{"-1.0", -1.0},
		{"-0.5", -0.5},
		{"-0.0", math.Copysign(0, -1)},
		{"+0.0", 0.0},
		{"+0.5", 0.5},
		{"+1.0", 1.0},
		{"+inf", math.Inf(1)},
	}
	for _, tc := range cases {
		var buf bytes.Buffer
		require.NoError(t, EncodeFloat64(&buf, tc.v))
		assert.Len(t, buf.Bytes(), 8)
	}

	// §8 scenario 5: strictly increasing byte order across this sequence.
	var negOne, negHalf, posHalf, posOne bytes.Buffer
	require.NoError(t, EncodeFloat64(&negOne, -1.0))
	require.NoError(t, EncodeFloat64(&negHalf, -0.5))
	require.NoError(t, EncodeFloat64(&posHalf, 0.5))
	require.NoError(t, EncodeFloat64(&posOne, 1.0))
	assert.Less(t, bytes.Compare(negOne.Bytes(), negHalf.Bytes()), 0)
	assert.Less(t, bytes.Compare(negHalf.Bytes(), posHalf.Bytes()), 0)
	assert.Less(t, bytes.Compare(posHalf.Bytes(), posOne.Bytes()), 0)
}

func TestFloat64Codec_RoundTrip(t *testing.T) {
	values := []float64{
		math.Inf(-1), -math.MaxFloat64, -1.0,
		-math.SmallestNonzeroFloat64, math.Copysign(0, -1), 0.0,
		math.SmallestNonzeroFloat64, 1.0, math.MaxFloat64, math.Inf(1),
	}
	for _, v := range values {
		var buf bytes.Buffer
		require.NoError(t, EncodeFloat64(&buf, v))
		got, err := DecodeFloat64(&buf)
		require.NoError(t, err)
		assert.Equal(t, v, got)
	}
}

func TestFloat64Codec_NaNDoesNotCrash(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, EncodeFloat64(&buf, math.NaN()))
	_, err := DecodeFloat64(&buf)
	require.NoError(t, err)
}

package coerce

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hemashushu/xiaoxuan-core-assembly-sub000/image"
)

func TestToI32Truncates(t *testing.T) {
	require.Equal(t, uint32(0x42), ToI32(0x42))
}

func TestToF64RoundTrips(t *testing.T) {
	bits := ToF64(3.5)
	require.NotZero(t, bits)
}

func TestBytesLittleEndian(t *testing.T) {
	b := Bytes(image.I32, 0x11223344)
	require.Equal(t, []byte{0x44, 0x33, 0x22, 0x11}, b)
}

func TestPadOrTruncate(t *testing.T) {
	require.Equal(t, []byte{1, 2, 0, 0}, PadOrTruncate([]byte{1, 2}, 4))
	require.Equal(t, []byte{1, 2}, PadOrTruncate([]byte{1, 2, 3}, 2))
}

func TestFitsInteger(t *testing.T) {
	require.True(t, FitsInteger(image.I32))
	require.False(t, FitsInteger(image.F32))
}

package hpack

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// RFC 7541 §C.1 worked examples.
func TestAppendIntFitsInPrefix(t *testing.T) {
	dst := appendInt(nil, 0, 5, 10)
	require.Equal(t, []byte{10}, dst)
}

func TestAppendIntOverflowsPrefix(t *testing.T) {
	dst := appendInt(nil, 0, 5, 1337)
	require.Equal(t, []byte{31, 154, 10}, dst)
}

func TestAppendIntSevenBitPrefix(t *testing.T) {
	dst := appendInt(nil, 0, 7, 122)
	require.Equal(t, []byte{122}, dst)
}

func TestReadIntRoundTrip(t *testing.T) {
	for _, v := range []uint64{0, 10, 127, 128, 1337, 1 << 20} {
		dst := appendInt(nil, 0x40, 6, v)
		got, first, rest, err := readInt(6, dst)
		require.NoError(t, err)
		require.Equal(t, v, got)
		require.Equal(t, byte(0x40), first&0x40)
		require.Empty(t, rest)
	}
}

func TestReadIntTruncated(t *testing.T) {
	_, _, _, err := readInt(5, []byte{31})
	require.ErrorIs(t, err, ErrUnexpectedEOF)
}

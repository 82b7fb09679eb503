package wire

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestUint24RoundTrip(t *testing.T) {
	b := make([]byte, 3)
	Uint24ToBytes(b, 0xabcdef)
	require.Equal(t, uint32(0xabcdef), BytesToUint24(b))
}

func TestUint32RoundTrip(t *testing.T) {
	b := make([]byte, 4)
	Uint32ToBytes(b, 0xdeadbeef)
	require.Equal(t, uint32(0xdeadbeef), BytesToUint32(b))
	require.Equal(t, b, AppendUint32(nil, 0xdeadbeef))
}

func TestEqualFold(t *testing.T) {
	require.True(t, EqualFold([]byte("Content-Length"), []byte("content-length")))
	require.False(t, EqualFold([]byte("Content-Length"), []byte("content-type")))
	require.False(t, EqualFold([]byte("short"), []byte("shorter")))
}

func TestResizeGrowsAndReuses(t *testing.T) {
	b := make([]byte, 2, 8)
	b = Resize(b, 5)
	require.Len(t, b, 5)
	require.Equal(t, 8, cap(b))
}

func TestB2SS2BRoundTrip(t *testing.T) {
	s := "round-trip"
	require.Equal(t, s, B2S(S2B(s)))
}

package hpack

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHuffmanRoundTrip(t *testing.T) {
	cases := []string{
		"",
		"www.example.com",
		"no-cache",
		"custom-key",
		"custom-value",
		"Mon, 21 Oct 2013 20:13:21 GMT",
		"https://www.example.com",
		"gzip",
	}
	for _, s := range cases {
		enc := huffmanEncode(nil, s)
		require.Equal(t, huffmanEncodedLen(s), len(enc))
		dec, err := huffmanDecode(enc)
		require.NoError(t, err, "case %q", s)
		require.Equal(t, s, dec, "case %q", s)
	}
}

func TestHuffmanShorterThanRaw(t *testing.T) {
	s := "www.example.com"
	require.Less(t, huffmanEncodedLen(s), len(s))
}

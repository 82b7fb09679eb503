package http1

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDechunkerContentLength(t *testing.T) {
	d := NewDechunker(BodyContentLength, 5, 0)
	body, done, err := d.Feed([]byte("hel"))
	require.NoError(t, err)
	require.False(t, done)
	require.Equal(t, "hel", string(body))

	body, done, err = d.Feed([]byte("lo"))
	require.NoError(t, err)
	require.True(t, done)
	require.Equal(t, "lo", string(body))
}

func TestDechunkerContentLengthOverflow(t *testing.T) {
	d := NewDechunker(BodyContentLength, 2, 0)
	_, _, err := d.Feed([]byte("abc"))
	require.ErrorIs(t, err, ErrBodyOverflow)
}

func TestDechunkerChunkedSinglePass(t *testing.T) {
	d := NewDechunker(BodyChunked, 0, 0)
	raw := "5\r\nhello\r\n6\r\n world\r\n0\r\n\r\n"
	body, done, err := d.Feed([]byte(raw))
	require.NoError(t, err)
	require.True(t, done)
	require.Equal(t, "hello world", string(body))
}

func TestDechunkerChunkedAcrossFeeds(t *testing.T) {
	d := NewDechunker(BodyChunked, 0, 0)
	var all []byte

	body, done, err := d.Feed([]byte("5\r\nhel"))
	require.NoError(t, err)
	require.False(t, done)
	all = append(all, body...)

	body, done, err = d.Feed([]byte("lo\r\n0\r\n\r\n"))
	require.NoError(t, err)
	require.True(t, done)
	all = append(all, body...)

	require.Equal(t, "hello", string(all))
}

func TestDechunkerWithTrailer(t *testing.T) {
	d := NewDechunker(BodyChunked, 0, 0)
	raw := "3\r\nabc\r\n0\r\nX-Trace: done\r\n\r\n"
	_, done, err := d.Feed([]byte(raw))
	require.NoError(t, err)
	require.True(t, done)
	v, ok := d.Trailer.GetFirst("x-trace")
	require.True(t, ok)
	require.Equal(t, "done", v)
}

func TestDechunkerRejectsOversizedChunk(t *testing.T) {
	d := NewDechunker(BodyChunked, 0, 4)
	_, _, err := d.Feed([]byte("ff\r\n"))
	require.ErrorIs(t, err, ErrChunkTooBig)
}

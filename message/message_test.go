package message

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMessageLockFreezesHeaders(t *testing.T) {
	req := NewRequest()
	req.Headers.Add("host", "example.com")
	req.Lock()
	require.True(t, req.Locked())
	require.ErrorIs(t, req.Headers.Add("x", "y"), ErrLocked)
	require.ErrorIs(t, req.Attach("k", 1), ErrLocked)
}

func TestMessagePairing(t *testing.T) {
	req := NewRequest()
	res := NewResponse()
	Pair(req, res)

	paired, ok := req.PairedResponse()
	require.True(t, ok)
	require.Same(t, res, paired)

	pairedReq, ok := res.PairedRequest()
	require.True(t, ok)
	require.Same(t, req, pairedReq)
}

func TestValidMethodChecksEveryByte(t *testing.T) {
	require.True(t, ValidMethod([]byte("GET")))
	require.True(t, ValidMethod([]byte("PROPFIND")))
	require.False(t, ValidMethod([]byte("")))
	require.False(t, ValidMethod([]byte("G\x00T")))
	require.False(t, ValidMethod([]byte("GET ")))
}

func TestValidPath(t *testing.T) {
	require.True(t, ValidPath([]byte("/")))
	require.True(t, ValidPath([]byte("*")))
	require.False(t, ValidPath([]byte("")))
	require.False(t, ValidPath([]byte("relative")))
	require.False(t, ValidPath([]byte("/a b")))
}

func TestValidAuthority(t *testing.T) {
	require.True(t, ValidAuthority([]byte("example.com")))
	require.True(t, ValidAuthority([]byte("example.com:8080")))
	require.False(t, ValidAuthority([]byte("example.com:")))
	require.False(t, ValidAuthority([]byte("example.com:abc")))
	require.False(t, ValidAuthority([]byte("")))
}

func TestResponseHasBody(t *testing.T) {
	res := NewResponse()
	res.Status = 204
	require.False(t, res.HasBody("GET"))
	res.Status = 200
	require.False(t, res.HasBody("HEAD"))
	require.True(t, res.HasBody("GET"))
}

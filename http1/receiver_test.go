package http1

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestReceiverParsesRequestInOnePiece(t *testing.T) {
	r := NewReceiver(ModeRequest, 0)
	raw := "GET /index.html HTTP/1.1\r\nHost: example.com\r\nContent-Length: 5\r\n\r\nhello"
	head, tail, err := r.Feed([]byte(raw))
	require.NoError(t, err)
	require.NotNil(t, head)
	require.Equal(t, "GET", head.Method)
	require.Equal(t, "/index.html", head.Target)
	require.Equal(t, BodyContentLength, head.Framing)
	require.EqualValues(t, 5, head.ContentLength)
	require.Equal(t, "hello", string(tail))
}

func TestReceiverHandlesSplitAcrossFeeds(t *testing.T) {
	r := NewReceiver(ModeRequest, 0)
	head, tail, err := r.Feed([]byte("GET / HTTP/1.1\r\nHost: e"))
	require.NoError(t, err)
	require.Nil(t, head)
	require.Nil(t, tail)

	head, tail, err = r.Feed([]byte("xample.com\r\n\r\n"))
	require.NoError(t, err)
	require.NotNil(t, head)
	require.Equal(t, "example.com", mustGet(head, "host"))
	require.Empty(t, tail)
}

func TestReceiverRejectsOversizedHead(t *testing.T) {
	r := NewReceiver(ModeRequest, 16)
	_, _, err := r.Feed([]byte("GET / HTTP/1.1\r\nHost: example.com\r\n\r\n"))
	require.ErrorIs(t, err, ErrHeaderTooLarge)
}

func TestReceiverParsesResponseWithChunkedFraming(t *testing.T) {
	r := NewReceiver(ModeResponse, 0)
	raw := "HTTP/1.1 200 OK\r\nTransfer-Encoding: chunked\r\n\r\n"
	head, _, err := r.Feed([]byte(raw))
	require.NoError(t, err)
	require.Equal(t, 200, head.Status)
	require.Equal(t, "OK", head.Reason)
	require.Equal(t, BodyChunked, head.Framing)
}

func TestReceiverResponseUntilClose(t *testing.T) {
	r := NewReceiver(ModeResponse, 0)
	raw := "HTTP/1.0 200 OK\r\n\r\n"
	head, _, err := r.Feed([]byte(raw))
	require.NoError(t, err)
	require.Equal(t, BodyUntilClose, head.Framing)
}

func TestReceiverRejectsMalformedMethod(t *testing.T) {
	r := NewReceiver(ModeRequest, 0)
	_, _, err := r.Feed([]byte("G T / HTTP/1.1\r\n\r\n"))
	require.Error(t, err)
}

func mustGet(h *Head, name string) string {
	v, _ := h.Headers.GetFirst(name)
	return v
}

package http1

import (
	"testing"

	"github.com/omegazero-org/omz-http-lib/message"
	"github.com/stretchr/testify/require"
)

type fakeWritable struct {
	closed bool
	out    []byte
}

func (w *fakeWritable) Write(p []byte) (int, error) { w.out = append(w.out, p...); return len(p), nil }
func (w *fakeWritable) Flush() error                { return nil }
func (w *fakeWritable) IsConnected() bool           { return !w.closed }
func (w *fakeWritable) IsWritable() bool            { return true }
func (w *fakeWritable) RemoteName() string          { return "test" }
func (w *fakeWritable) Close() error                { w.closed = true; return nil }

type recordingHandler struct {
	heads    []*Head
	msgs     []*message.Message
	data     [][]byte
	lastSeen []bool
	trailers []*message.Headers
	errs     []error
}

func (h *recordingHandler) OnMessage(c *Connection, head *Head, msg *message.Message) {
	h.heads = append(h.heads, head)
	h.msgs = append(h.msgs, msg)
}
func (h *recordingHandler) OnData(c *Connection, data []byte, last bool) {
	h.data = append(h.data, append([]byte(nil), data...))
	h.lastSeen = append(h.lastSeen, last)
}
func (h *recordingHandler) OnTrailers(c *Connection, trailers *message.Headers) {
	h.trailers = append(h.trailers, trailers)
}
func (h *recordingHandler) OnError(c *Connection, err error) { h.errs = append(h.errs, err) }

func TestConnectionFeedsRequestWithBody(t *testing.T) {
	h := &recordingHandler{}
	c := NewConnection(ModeRequest, &fakeWritable{}, h, 0)

	raw := "POST /upload HTTP/1.1\r\nHost: example.com\r\nContent-Length: 5\r\n\r\nhello"
	require.NoError(t, c.Feed([]byte(raw)))

	require.Len(t, h.msgs, 1)
	require.Empty(t, h.errs)
	require.Equal(t, "/upload", h.heads[0].Target)
	require.True(t, h.lastSeen[len(h.lastSeen)-1])
	require.Equal(t, "hello", string(h.data[len(h.data)-1]))

	body := h.msgs[0].Body()
	require.NotNil(t, body)
	require.Equal(t, "hello", string(body.Bytes()))
}

func TestConnectionParsesAbsoluteFormTarget(t *testing.T) {
	h := &recordingHandler{}
	c := NewConnection(ModeRequest, &fakeWritable{}, h, 0)

	raw := "GET http://example.com:8080/a/b HTTP/1.1\r\nHost: example.com:8080\r\n\r\n"
	require.NoError(t, c.Feed([]byte(raw)))

	require.Equal(t, "example.com:8080", h.heads[0].Authority)
	require.Equal(t, "/a/b", h.heads[0].Target)
}

func TestConnectionClosesAfterConnectionCloseHeader(t *testing.T) {
	h := &recordingHandler{}
	w := &fakeWritable{}
	c := NewConnection(ModeRequest, w, h, 0)

	raw := "GET / HTTP/1.1\r\nHost: example.com\r\nConnection: close\r\n\r\n"
	require.NoError(t, c.Feed([]byte(raw)))
	require.True(t, w.closed)
}

func TestConnectionHandlesChunkedBodyAndTrailer(t *testing.T) {
	h := &recordingHandler{}
	c := NewConnection(ModeRequest, &fakeWritable{}, h, 0)

	raw := "POST /x HTTP/1.1\r\nHost: e\r\nTransfer-Encoding: chunked\r\n\r\n" +
		"5\r\nhello\r\n0\r\nX-Trace: done\r\n\r\n"
	require.NoError(t, c.Feed([]byte(raw)))

	require.Equal(t, "hello", string(h.msgs[0].Body().Bytes()))
	require.Len(t, h.trailers, 1)
	v, ok := h.trailers[0].GetFirst("x-trace")
	require.True(t, ok)
	require.Equal(t, "done", v)
}

package http2

import (
	"testing"

	"github.com/omegazero-org/omz-http-lib/message"
	"github.com/stretchr/testify/require"
)

type stubWritable struct{ out []byte }

func (w *stubWritable) Write(p []byte) (int, error) { w.out = append(w.out, p...); return len(p), nil }
func (w *stubWritable) Flush() error                { return nil }
func (w *stubWritable) IsConnected() bool           { return true }
func (w *stubWritable) IsWritable() bool            { return true }
func (w *stubWritable) RemoteName() string          { return "test" }
func (w *stubWritable) Close() error                { return nil }

type flushHandler struct{ flushed int }

func (h *flushHandler) OnMessage(s *Stream, msg *message.Message)              {}
func (h *flushHandler) OnData(s *Stream, data []byte, last bool)               {}
func (h *flushHandler) OnTrailers(s *Stream, trailers *message.Headers)        {}
func (h *flushHandler) OnPushPromise(s *Stream, req *message.Request)          {}
func (h *flushHandler) OnDataFlushed(s *Stream)                                { h.flushed++ }
func (h *flushHandler) OnError(s *Stream, err error)                           {}
func (h *flushHandler) OnClosed(s *Stream, reason CloseReason, code ErrorCode) {}

// TestSendDataReportsBackpressure covers Testable Scenario S5: a write
// that cannot be fully drained against the current send window must
// return false and land on the stream's backlog instead of silently
// succeeding.
func TestSendDataReportsBackpressure(t *testing.T) {
	h := &flushHandler{}
	ep := NewClientEndpoint(&stubWritable{}, EndpointOptions{Handler: h})
	s := ep.CreateRequestStream()

	s.sendWindow = 0
	ok := s.SendData([]byte("hello"), true)
	require.False(t, ok)

	s.mu.Lock()
	backlogLen := len(s.backlog)
	s.mu.Unlock()
	require.Equal(t, 1, backlogLen)
	require.Equal(t, 0, h.flushed)

	s.mu.Lock()
	s.sendWindow = 1 << 16
	s.mu.Unlock()
	ep.drainBacklog(s)

	require.Equal(t, 1, h.flushed)
	s.mu.Lock()
	defer s.mu.Unlock()
	require.Empty(t, s.backlog)
}

// TestSendDataDrainsImmediatelyWhenWindowAllows covers the non-blocked
// half of S5: a write within the current window returns true and never
// touches the backlog.
func TestSendDataDrainsImmediatelyWhenWindowAllows(t *testing.T) {
	h := &flushHandler{}
	ep := NewClientEndpoint(&stubWritable{}, EndpointOptions{Handler: h})
	s := ep.CreateRequestStream()

	ok := s.SendData([]byte("hello"), true)
	require.True(t, ok)

	s.mu.Lock()
	defer s.mu.Unlock()
	require.Empty(t, s.backlog)
}

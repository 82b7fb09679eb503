package http2

import "github.com/omegazero-org/omz-http-lib/message"

// StreamHandler receives the events an Endpoint produces for one
// message stream. All methods are called synchronously from whichever
// goroutine is feeding the Endpoint bytes (the core has no goroutines
// of its own) — an embedder running multiple connections concurrently
// must not call into the same Endpoint from two goroutines at once.
//
// Handlers are registered per endpoint (typically by a server wanting
// to route inbound requests, or a client matching responses to the
// request that solicited them) rather than per stream, since on the
// server side the stream doesn't exist yet when routing must happen.
type StreamHandler interface {
	// OnMessage is invoked once the first HEADERS block (plus any
	// CONTINUATION frames) of a stream has been fully received and
	// HPACK-decoded. msg is a *message.Request on a server endpoint
	// and a *message.Response on a client endpoint.
	OnMessage(s *Stream, msg *message.Message)

	// OnData delivers a chunk of body bytes. last is true on the
	// chunk that carries END_STREAM. data is only valid for the
	// duration of the call — the underlying frame is pooled and may be
	// reused the moment OnData returns, so a handler that needs the
	// bytes afterward must copy them.
	OnData(s *Stream, data []byte, last bool)

	// OnTrailers is invoked for a second HEADERS block on the same
	// stream (always carrying END_STREAM).
	OnTrailers(s *Stream, trailers *message.Headers)

	// OnPushPromise previews a server push before its response
	// headers arrive; req is synthesized from the PUSH_PROMISE header
	// block. Only ever invoked on a client endpoint.
	OnPushPromise(s *Stream, req *message.Request)

	// OnDataFlushed is invoked when a stream's outbound backlog drains
	// to empty, the signal an application waiting on send backpressure
	// should use to resume writing.
	OnDataFlushed(s *Stream)

	// OnError reports a stream-scoped failure that did not by itself
	// require tearing down the connection.
	OnError(s *Stream, err error)

	// OnClosed is invoked exactly once per stream, when it reaches
	// CLOSED, with the reason and (if known) the ErrorCode that
	// accompanied the close.
	OnClosed(s *Stream, reason CloseReason, code ErrorCode)
}

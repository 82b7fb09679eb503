package http2

import (
	"sync"
	"time"

	"github.com/omegazero-org/omz-http-lib/message"
)

// StreamState is a message stream's position in the RFC 7540 §5.1 state
// machine (spec component K), extended with the RESERVED_LOCAL split
// server push needs to distinguish "we promised this" from "peer
// promised this".
type StreamState int8

const (
	StreamIdle StreamState = iota
	StreamOpen
	StreamReservedLocal
	StreamReserved
	StreamHalfClosedLocal
	StreamHalfClosed
	StreamClosed
)

func (ss StreamState) String() string {
	switch ss {
	case StreamIdle:
		return "IDLE"
	case StreamOpen:
		return "OPEN"
	case StreamReservedLocal:
		return "RESERVED_LOCAL"
	case StreamReserved:
		return "RESERVED"
	case StreamHalfClosedLocal:
		return "HALF_CLOSED_LOCAL"
	case StreamHalfClosed:
		return "HALF_CLOSED"
	case StreamClosed:
		return "CLOSED"
	}
	return "UNKNOWN"
}

type pendingWrite struct {
	data      []byte
	sent      int
	endStream bool
}

// Stream is one HTTP/2 message stream: spec components I (flow-control
// bookkeeping) and K (full request/response lifecycle) are folded into
// a single type here, since in this port they're the same fields under
// one mutex rather than a separately embedded base — Go composition
// wouldn't buy anything a plain field wouldn't.
//
// sendWindow is how many octets of DATA we may still emit before
// waiting for a WINDOW_UPDATE from the peer (RFC 7540 §6.9's
// "receiver-advertised" window from our point of view as a sender).
// recvWindow is how many octets the peer may still send us before we
// must top it up with an outbound WINDOW_UPDATE.
type Stream struct {
	mu sync.Mutex

	id            uint32
	state         StreamState
	peerInitiated bool
	outgoingClose bool
	closedAt      time.Time
	closeCode     ErrorCode
	closeReason   CloseReason

	sendWindow int64
	recvWindow int64

	headerBuf          []byte
	expectContinuation bool
	pendingEndStream   bool
	sawFirstMessage    bool

	msg *message.Message

	recvPaused bool
	backlog    []*pendingWrite

	promisedStream uint32 // PUSH_PROMISE attachment: the even stream id promised

	handler StreamHandler
	ep      *Endpoint
}

func newStream(id uint32, recvWindow, sendWindow uint32) *Stream {
	return &Stream{
		id:         id,
		state:      StreamIdle,
		sendWindow: int64(sendWindow),
		recvWindow: int64(recvWindow),
	}
}

func (s *Stream) ID() uint32 { return s.id }

func (s *Stream) State() StreamState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Stream) setState(state StreamState) {
	s.state = state
}

// PeerInitiated reports whether the peer opened this stream (a request
// on a server endpoint, a pushed stream on a client endpoint).
func (s *Stream) PeerInitiated() bool {
	return s.peerInitiated
}

// Message returns the request or response this stream carries, once
// OnMessage has fired; nil before then.
func (s *Stream) Message() *message.Message {
	return s.msg
}

// Pause stops emitting WINDOW_UPDATE frames after inbound DATA,
// letting the peer's send window run down as natural backpressure.
func (s *Stream) Pause() {
	s.mu.Lock()
	s.recvPaused = true
	s.mu.Unlock()
}

// Resume re-enables automatic WINDOW_UPDATEs and immediately tops the
// receive window back up to the stream's configured initial size.
func (s *Stream) Resume() {
	s.mu.Lock()
	s.recvPaused = false
	inc := int64(s.ep.localSettings.MaxWindowSize()) - s.recvWindow
	s.mu.Unlock()
	if inc > 0 {
		s.sendWindowSizeUpdate(uint32(inc))
	}
}

// sendWindowSizeUpdate increases recvWindow (the window we advertise to
// the peer) and emits a WINDOW_UPDATE frame for it.
func (s *Stream) sendWindowSizeUpdate(inc uint32) {
	if inc == 0 {
		return
	}
	s.mu.Lock()
	s.recvWindow += int64(inc)
	s.mu.Unlock()

	wu := AcquireFrame(FrameWindowUpdate).(*WindowUpdate)
	wu.SetIncrement(int(inc))
	s.ep.writeFrame(s.id, wu)
}

// applyWindowUpdate handles an inbound WINDOW_UPDATE: it grows how much
// we may still send.
func (s *Stream) applyWindowUpdate(inc uint32) error {
	s.mu.Lock()
	next := s.sendWindow + int64(inc)
	if next > 1<<31-1 {
		s.mu.Unlock()
		return NewStreamError(s.id, FlowControlError, "window update overflow")
	}
	s.sendWindow = next
	s.mu.Unlock()

	s.ep.drainBacklog(s)
	return nil
}

// canSendEndStream reports whether the stream's current state is OPEN,
// RESERVED or RESERVED_LOCAL.
func (s *Stream) canSendEndStream() bool {
	switch s.state {
	case StreamOpen, StreamReserved, StreamReservedLocal:
		return true
	default:
		return false
	}
}

// close transitions the stream to CLOSED, records bookkeeping for the
// close-wait GC, and invokes OnClosed exactly once.
func (s *Stream) close(reason CloseReason, code ErrorCode, outgoing bool) {
	s.mu.Lock()
	if s.state == StreamClosed {
		s.mu.Unlock()
		return
	}
	s.state = StreamClosed
	s.outgoingClose = outgoing
	s.closedAt = time.Now()
	s.closeCode = code
	s.closeReason = reason
	s.mu.Unlock()

	if s.handler != nil {
		s.handler.OnClosed(s, reason, code)
	}
}

// Close sends RST_STREAM with code and closes the stream locally,
// corresponding to spec's `rst(code)` operation.
func (s *Stream) Close(code ErrorCode) {
	s.mu.Lock()
	already := s.state == StreamClosed
	s.mu.Unlock()
	if already {
		return
	}

	if s.ep.writable.IsConnected() {
		rst := AcquireFrame(FrameResetStream).(*RstStream)
		rst.SetCode(code)
		s.ep.writeFrame(s.id, rst)
	}

	s.close(closeReasonFromCode(code), code, true)
}

package http2

import (
	"github.com/omegazero-org/omz-http-lib/hpack"
	"github.com/omegazero-org/omz-http-lib/message"
)

// deliver routes a single frame already known to belong to this stream
// to the matching recv* handler (spec component K). Called by Endpoint
// from its dispatch loop, never directly by an embedder.
func (s *Stream) deliver(frh *FrameHeader) error {
	switch frh.Type() {
	case FrameHeaders:
		return s.recvHeaders(frh)
	case FrameContinuation:
		return s.recvContinuation(frh)
	case FrameData:
		return s.recvData(frh)
	case FrameResetStream:
		return s.recvRstStream(frh)
	case FrameWindowUpdate:
		return s.recvWindowUpdate(frh)
	case FramePriority:
		return nil // structurally validated by Priority.Deserialize; reprioritization itself is not implemented
	case FramePushPromise:
		return s.recvPushPromise(frh)
	default:
		return NewStreamError(s.id, ProtocolError, "frame type not valid on a message stream")
	}
}

func (s *Stream) recvHeaders(frh *FrameHeader) error {
	h := frh.Body().(*Headers)

	s.mu.Lock()
	switch s.state {
	case StreamIdle:
		s.state = StreamOpen
	case StreamReserved:
		s.state = StreamHalfClosedLocal
	case StreamOpen, StreamHalfClosedLocal:
		// the first message (HalfClosedLocal: the response to a request
		// that already carried END_STREAM) or trailers. A HEADERS after
		// the peer's END_STREAM (HalfClosed) is rejected below.
	default:
		s.mu.Unlock()
		return NewStreamError(s.id, StreamClosedError, "HEADERS on a stream that cannot receive one")
	}
	s.headerBuf = append(s.headerBuf[:0], h.Headers()...)
	s.expectContinuation = !h.EndHeaders()
	s.pendingEndStream = h.EndStream()
	s.mu.Unlock()

	if s.expectContinuation {
		return nil
	}
	return s.finishHeaders()
}

func (s *Stream) recvContinuation(frh *FrameHeader) error {
	s.mu.Lock()
	if !s.expectContinuation {
		s.mu.Unlock()
		return NewError(ProtocolError, "unexpected CONTINUATION")
	}
	c := frh.Body().(*Continuation)
	s.headerBuf = append(s.headerBuf, c.Headers()...)
	tooLarge := len(s.headerBuf) > s.ep.maxHeaderListBytes()
	done := c.EndHeaders()
	if done {
		s.expectContinuation = false
	}
	s.mu.Unlock()

	if tooLarge {
		return NewStreamError(s.id, EnhanceYourCalm, "header block exceeds max header list size")
	}
	if !done {
		return nil
	}
	return s.finishHeaders()
}

// finishHeaders runs once a header block (HEADERS possibly followed by
// CONTINUATION frames) has been fully reassembled: it HPACK-decodes the
// block and dispatches either OnMessage or OnTrailers.
func (s *Stream) finishHeaders() error {
	s.mu.Lock()
	block := append([]byte(nil), s.headerBuf...)
	s.headerBuf = s.headerBuf[:0]
	endStream := s.pendingEndStream
	isTrailers := s.sawFirstMessage
	s.mu.Unlock()

	fields, err := s.ep.dec.Decode(block)
	if err != nil {
		return NewError(CompressionError, err.Error())
	}

	if isTrailers {
		if !endStream {
			return NewStreamError(s.id, ProtocolError, "trailers without END_STREAM")
		}
		tr := message.NewTrailers(s.msg)
		for _, f := range fields {
			tr.Headers.Add(f.Name, f.Value)
		}
		if s.handler != nil {
			s.handler.OnTrailers(s, tr.Headers)
		}
	} else {
		var msg *message.Message
		if s.ep.isServer {
			req, ferr := fieldsToRequest(fields)
			if ferr != nil {
				return NewStreamError(s.id, codeOf(ferr), ferr.(*Error).Message)
			}
			s.msg = &req.Message
			msg = s.msg
		} else {
			res, ferr := fieldsToResponse(fields)
			if ferr != nil {
				return NewStreamError(s.id, codeOf(ferr), ferr.(*Error).Message)
			}
			s.msg = &res.Message
			msg = s.msg
		}
		s.mu.Lock()
		s.sawFirstMessage = true
		s.mu.Unlock()
		if s.handler != nil {
			s.handler.OnMessage(s, msg)
		}
	}

	if endStream {
		s.handleEndStreamRecv()
	}
	return nil
}

func (s *Stream) recvData(frh *FrameHeader) error {
	d := frh.Body().(*Data)

	s.mu.Lock()
	if s.state != StreamOpen && s.state != StreamHalfClosedLocal {
		s.mu.Unlock()
		return NewStreamError(s.id, StreamClosedError, "DATA on a stream that isn't open for it")
	}
	recvLen := int64(frh.Len())
	s.recvWindow -= recvLen
	paused := s.recvPaused
	endStream := d.EndStream()
	s.mu.Unlock()

	s.ep.accountConnRecv(recvLen)

	if s.handler != nil {
		s.handler.OnData(s, d.Data(), endStream)
	}

	if !paused && recvLen > 0 {
		s.sendWindowSizeUpdate(uint32(recvLen))
	}

	if endStream {
		s.handleEndStreamRecv()
	}
	return nil
}

func (s *Stream) recvRstStream(frh *FrameHeader) error {
	rst := frh.Body().(*RstStream)
	s.close(closeReasonFromCode(rst.Code()), rst.Code(), false)
	return nil
}

func (s *Stream) recvWindowUpdate(frh *FrameHeader) error {
	wu := frh.Body().(*WindowUpdate)
	if wu.Increment() == 0 {
		return NewStreamError(s.id, ProtocolError, "WINDOW_UPDATE with a zero increment")
	}
	return s.applyWindowUpdate(uint32(wu.Increment()))
}

// recvPushPromise arrives on the request stream s is associated with; it
// registers the newly promised stream (carried in the frame, not s's own
// id) in RESERVED state and previews it to the handler.
func (s *Stream) recvPushPromise(frh *FrameHeader) error {
	if s.ep.isServer {
		return NewError(ProtocolError, "PUSH_PROMISE received by a server")
	}
	pp := frh.Body().(*PushPromise)

	fields, err := s.ep.dec.Decode(pp.header)
	if err != nil {
		return NewError(CompressionError, err.Error())
	}
	req, err := fieldsToRequest(fields)
	if err != nil {
		return err
	}

	pushed := newStream(pp.stream, s.ep.localSettings.MaxWindowSize(), s.ep.peerSettings.MaxWindowSize())
	pushed.state = StreamReserved
	pushed.peerInitiated = true
	pushed.ep = s.ep
	pushed.handler = s.ep.handler
	s.ep.streams.Insert(pushed)
	if pp.stream > s.ep.highestStreamID {
		s.ep.highestStreamID = pp.stream
	}

	if s.handler != nil {
		s.handler.OnPushPromise(pushed, req)
	}
	return nil
}

// --- stream-state transitions on send/receive of END_STREAM ---

// handleEndStreamRecv applies the receive-side half of RFC 7540 §5.1's
// state machine once END_STREAM has been observed.
func (s *Stream) handleEndStreamRecv() {
	s.mu.Lock()
	switch s.state {
	case StreamOpen:
		s.state = StreamHalfClosed
		s.mu.Unlock()
	case StreamHalfClosedLocal:
		s.mu.Unlock()
		s.close(CloseNormal, NoError, false)
	default:
		s.mu.Unlock()
	}
}

// handleEndStreamSend applies the send-side half of the state machine
// once this endpoint has emitted END_STREAM.
func (s *Stream) handleEndStreamSend() {
	s.mu.Lock()
	switch s.state {
	case StreamOpen:
		s.state = StreamHalfClosedLocal
		s.mu.Unlock()
	case StreamHalfClosed:
		s.mu.Unlock()
		s.close(CloseNormal, NoError, true)
	default:
		s.mu.Unlock()
	}
}

// --- outbound ---

// SendPushPromise reserves a new server-initiated stream for promisedReq
// and writes a PUSH_PROMISE frame on s associating it with the request
// that solicited the push. The returned Stream is in RESERVED_LOCAL
// state; the caller sends the pushed response on it with SendResponse
// once ready, same as any other stream.
func (s *Stream) SendPushPromise(promisedReq *message.Request) (*Stream, error) {
	if !s.ep.isServer {
		return nil, NewError(ProtocolError, "only a server endpoint may push")
	}
	if !s.ep.peerSettings.Push() {
		return nil, NewError(ProtocolError, "peer has disabled server push")
	}

	s.ep.mu.Lock()
	id := s.ep.nextStreamID
	s.ep.nextStreamID += 2
	s.ep.mu.Unlock()

	promisedReq.Lock()
	fields := fieldsFromRequest(promisedReq)

	s.ep.mu.Lock()
	block := s.ep.enc.Encode(nil, fields)
	maxFrame := int(s.ep.peerSettings.MaxFrameSize())
	s.ep.mu.Unlock()

	first := block
	if len(first) > maxFrame {
		first = first[:maxFrame]
	}
	pp := AcquireFrame(FramePushPromise).(*PushPromise)
	pp.stream = id
	pp.SetHeader(first)
	pp.ended = len(first) == len(block)
	s.ep.writeFrame(s.id, pp)

	rest := block[len(first):]
	for len(rest) > 0 {
		chunk := rest
		if len(chunk) > maxFrame {
			chunk = chunk[:maxFrame]
		}
		c := AcquireFrame(FrameContinuation).(*Continuation)
		c.SetHeader(chunk)
		c.SetEndHeaders(len(chunk) == len(rest))
		s.ep.writeFrame(s.id, c)
		rest = rest[len(chunk):]
	}

	pushed := newStream(id, s.ep.localSettings.MaxWindowSize(), s.ep.peerSettings.MaxWindowSize())
	pushed.state = StreamReservedLocal
	pushed.ep = s.ep
	pushed.handler = s.ep.handler
	s.ep.streams.Insert(pushed)
	if id > s.ep.highestStreamID {
		s.ep.highestStreamID = id
	}
	return pushed, nil
}

// SendRequest encodes req as a HEADERS (+ CONTINUATION) block and writes
// it as this stream's opening message. Only valid on a client endpoint.
func (s *Stream) SendRequest(req *message.Request, endStream bool) error {
	req.Lock()
	return s.sendHeaderBlock(fieldsFromRequest(req), endStream)
}

// SendResponse is SendRequest's server-side counterpart.
func (s *Stream) SendResponse(res *message.Response, endStream bool) error {
	res.Lock()
	return s.sendHeaderBlock(fieldsFromResponse(res), endStream)
}

// SendTrailers sends a second, END_STREAM-terminated HEADERS block.
func (s *Stream) SendTrailers(h *message.Headers) error {
	h.Lock()
	return s.sendHeaderBlock(fieldsFromHeaders(h), true)
}

// sendHeaderBlock HPACK-encodes fields and splits the result across a
// HEADERS frame and as many CONTINUATION frames as the peer's
// SETTINGS_MAX_FRAME_SIZE requires (RFC 7540 §6.10).
func (s *Stream) sendHeaderBlock(fields []hpack.Field, endStream bool) error {
	s.ep.mu.Lock()
	buf := s.ep.enc.Encode(nil, fields)
	maxFrame := int(s.ep.peerSettings.MaxFrameSize())
	s.ep.mu.Unlock()

	first := buf
	if len(first) > maxFrame {
		first = first[:maxFrame]
	}
	h := AcquireFrame(FrameHeaders).(*Headers)
	h.SetHeaders(first)
	h.SetEndStream(endStream)
	h.SetEndHeaders(len(first) == len(buf))
	s.ep.writeFrame(s.id, h)

	rest := buf[len(first):]
	for len(rest) > 0 {
		chunk := rest
		if len(chunk) > maxFrame {
			chunk = chunk[:maxFrame]
		}
		c := AcquireFrame(FrameContinuation).(*Continuation)
		c.SetHeader(chunk)
		c.SetEndHeaders(len(chunk) == len(rest))
		s.ep.writeFrame(s.id, c)
		rest = rest[len(chunk):]
	}

	if endStream {
		s.handleEndStreamSend()
	}
	return nil
}

// SendData queues (or, if the backlog is already empty and the window
// allows it, immediately sends) a chunk of body bytes, splitting it
// across as many DATA frames as flow control and SETTINGS_MAX_FRAME_SIZE
// require. It returns false if the write could not be fully drained and
// was queued on the stream's backlog — the caller's signal to apply
// backpressure and wait for OnDataFlushed before sending more.
func (s *Stream) SendData(data []byte, endStream bool) bool {
	pw := &pendingWrite{data: append([]byte(nil), data...), endStream: endStream}

	s.mu.Lock()
	queued := len(s.backlog) > 0
	if queued {
		s.backlog = append(s.backlog, pw)
	}
	s.mu.Unlock()

	if queued {
		return false
	}

	blocked := s.drainOne(pw)
	if blocked {
		s.mu.Lock()
		s.backlog = append(s.backlog, pw)
		s.mu.Unlock()
	}
	return !blocked
}

// drainOne pushes as much of pw as the current send window (stream and
// connection) and the peer's max frame size allow. It reports whether
// pw is still incomplete (blocked on window) when it returns.
func (s *Stream) drainOne(pw *pendingWrite) bool {
	for {
		s.mu.Lock()
		remaining := int64(len(pw.data) - pw.sent)
		if remaining == 0 {
			s.mu.Unlock()
			if pw.endStream {
				s.handleEndStreamSend()
			}
			return false
		}
		avail := s.sendWindow
		s.mu.Unlock()

		connAvail := s.ep.connSendWindowAvail()
		maxFrame := int64(s.ep.peerSettings.MaxFrameSize())

		n := remaining
		if n > avail {
			n = avail
		}
		if n > connAvail {
			n = connAvail
		}
		if n > maxFrame {
			n = maxFrame
		}
		if n <= 0 {
			return true
		}

		s.mu.Lock()
		chunk := append([]byte(nil), pw.data[pw.sent:pw.sent+int(n)]...)
		pw.sent += int(n)
		s.sendWindow -= n
		last := pw.sent == len(pw.data)
		s.mu.Unlock()

		s.ep.consumeConnSendWindow(n)

		d := AcquireFrame(FrameData).(*Data)
		d.SetData(chunk)
		d.SetEndStream(last && pw.endStream)
		s.ep.writeFrame(s.id, d)
	}
}

// drainBacklog is invoked whenever the send window may have grown
// (WINDOW_UPDATE on this stream, or the connection-level window) to
// resume queued writes in order, stopping at the first write that's
// still blocked so ordering on the wire is preserved.
func (ep *Endpoint) drainBacklog(s *Stream) {
	for {
		s.mu.Lock()
		if len(s.backlog) == 0 {
			s.mu.Unlock()
			return
		}
		pw := s.backlog[0]
		s.mu.Unlock()

		if s.drainOne(pw) {
			return
		}

		s.mu.Lock()
		s.backlog = s.backlog[1:]
		flushed := len(s.backlog) == 0
		s.mu.Unlock()
		if flushed && s.handler != nil {
			s.handler.OnDataFlushed(s)
		}
	}
}

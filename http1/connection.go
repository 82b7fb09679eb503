package http1

import (
	"strings"

	"github.com/omegazero-org/omz-http-lib/message"
)

// Writable is the byte-sink contract a Connection writes its outbound
// bytes through. It has the same shape as the HTTP/2 Endpoint's
// Writable, kept as its own type here so http1 has no dependency on
// the HTTP/2 package.
type Writable interface {
	Write(p []byte) (n int, err error)
	Flush() error
	IsConnected() bool
	IsWritable() bool
	RemoteName() string
	Close() error
}

// Handler receives the events a Connection produces for the message
// currently in flight. Unlike HTTP/2's StreamHandler, only one message
// is ever in flight at a time: OnMessage is never called again until
// the previous message's body (if any) has fully ended.
type Handler interface {
	// OnMessage is invoked once a complete start-line/header block has
	// been parsed. head carries the parsed request-target/status-line
	// fields; msg is the *message.Request (server Connection) or
	// *message.Response (client Connection) built from it, with its
	// Headers already populated.
	OnMessage(c *Connection, head *Head, msg *message.Message)

	// OnData delivers a chunk of dechunked body bytes as they arrive.
	// last is true on the chunk that completes the body.
	OnData(c *Connection, data []byte, last bool)

	// OnTrailers is invoked once per message, when it completes: right
	// after OnData's final chunk, right after OnMessage for a message
	// with no body, or from Close for a body that ends with the
	// connection. trailers holds a chunked body's trailer fields (empty,
	// not nil, when it carried none) and is nil when the body wasn't
	// chunked.
	OnTrailers(c *Connection, trailers *message.Headers)

	// OnError reports a parse or framing failure. The Connection
	// should be treated as unusable afterward; the embedder is
	// expected to close the underlying transport.
	OnError(c *Connection, err error)
}

// Connection is a sans-I/O HTTP/1.x engine built on Receiver,
// Dechunker and the WriteRequestLine/WriteStatusLine/WriteChunk
// serializers: Feed drives it with inbound bytes and it reports parsed
// messages through Handler; SendHead/SendData drive outbound bytes
// through Writable the same way Endpoint's writeFrame does for
// HTTP/2.
type Connection struct {
	mode     Mode
	w        Writable
	handler  Handler
	receiver *Receiver

	dechunker *Dechunker
	body      *message.Body
	msg       *message.Message
	keepAlive bool
}

// NewConnection returns a Connection for the given Mode (ModeRequest
// for a server parsing requests, ModeResponse for a client parsing
// responses), writing outbound bytes to w and reporting inbound events
// to handler. maxHeaderSize bounds the head block exactly like
// Receiver's.
func NewConnection(mode Mode, w Writable, handler Handler, maxHeaderSize int) *Connection {
	return &Connection{
		mode:     mode,
		w:        w,
		handler:  handler,
		receiver: NewReceiver(mode, maxHeaderSize),
	}
}

// Feed appends inbound bytes and drives parsing, invoking Handler
// callbacks for as much of the message stream as data completes.
func (c *Connection) Feed(data []byte) error {
	for len(data) > 0 || c.dechunker == nil {
		if c.dechunker == nil {
			head, tail, err := c.receiver.Feed(data)
			if err != nil {
				c.handler.OnError(c, err)
				return err
			}
			if head == nil {
				return nil
			}
			c.beginMessage(head)
			data = tail
			continue
		}

		// A content-length body has a known end; anything past it in
		// data already belongs to the next pipelined message and must
		// not be handed to this Dechunker, which treats overflow as
		// ErrBodyOverflow rather than a message boundary.
		feed, leftover := data, []byte(nil)
		if c.dechunker.framing == BodyContentLength && int64(len(feed)) > c.dechunker.remaining {
			feed, leftover = feed[:c.dechunker.remaining], feed[c.dechunker.remaining:]
		}

		body, done, err := c.dechunker.Feed(feed)
		if err != nil {
			c.handler.OnError(c, err)
			return err
		}
		data = leftover
		if len(body) > 0 {
			c.body.Write(body)
		}
		c.handler.OnData(c, body, done)
		if !done {
			return nil
		}
		c.finishMessage()
	}
	return nil
}

// Close signals that the underlying transport closed, which only
// matters for a response whose body runs BodyUntilClose.
func (c *Connection) Close() {
	if c.dechunker == nil {
		return
	}
	if c.dechunker.Close() {
		c.finishMessage()
	}
}

func (c *Connection) beginMessage(head *Head) {
	c.keepAlive = !hasConnectionClose(head.Headers) && head.Version != "HTTP/1.0"
	c.dechunker = NewDechunker(head.Framing, head.ContentLength, 0)
	c.body = message.NewBody()

	var msg *message.Message
	if c.mode == ModeRequest {
		req := message.NewRequest()
		req.Version = head.Version
		req.Method = head.Method
		req.Path = head.Target
		req.Authority = head.Authority
		req.Headers = head.Headers
		req.Chunked = head.Framing == BodyChunked
		msg = &req.Message
	} else {
		res := message.NewResponse()
		res.Version = head.Version
		res.Status = head.Status
		res.Headers = head.Headers
		res.Chunked = head.Framing == BodyChunked
		msg = &res.Message
	}
	c.msg = msg
	c.handler.OnMessage(c, head, msg)

	if head.Framing == BodyNone {
		c.finishMessage()
	}
}

// finishMessage completes the in-flight message: the fully buffered
// body is attached to it with SetBody (the handler can read it back
// via msg.Body() for as long as it needs it, then call Release()),
// trailers are reported, and a non-keep-alive connection is closed.
func (c *Connection) finishMessage() {
	trailer := c.dechunker.Trailer
	if err := c.msg.SetBody(c.body, c.msg.Headers); err != nil {
		c.handler.OnError(c, err)
	}
	c.body = nil
	c.msg = nil
	c.dechunker = nil
	c.receiver.Reset()
	c.handler.OnTrailers(c, trailer)
	if !c.keepAlive {
		c.w.Close()
	}
}

// SendHead writes a request (ModeRequest) or response (ModeResponse)
// start-line and header block built from head.
func (c *Connection) SendHead(head *Head) error {
	var buf []byte
	if c.mode == ModeRequest {
		buf = WriteRequestLine(buf, head.Method, head.Target, head.Version, head.Headers)
	} else {
		buf = WriteStatusLine(buf, head.Version, head.Status, head.Reason, head.Headers)
	}
	_, err := c.w.Write(buf)
	return err
}

// SendData writes a body chunk. When chunked is true it is framed
// with chunked transfer-coding (WriteChunk); otherwise the raw bytes
// are written as-is, matching a Content-Length-framed or
// until-close body.
func (c *Connection) SendData(data []byte, last bool, chunked bool, trailers *message.Headers) error {
	var buf []byte
	if chunked {
		if len(data) > 0 {
			buf = WriteChunk(buf, data, nil)
		}
		if last {
			buf = WriteChunk(buf, nil, trailers)
		}
	} else {
		buf = append(buf, data...)
	}
	if len(buf) == 0 {
		return nil
	}
	_, err := c.w.Write(buf)
	return err
}

func hasConnectionClose(h *message.Headers) bool {
	v, ok := h.GetFirst("connection")
	return ok && strings.EqualFold(strings.TrimSpace(v), "close")
}

package message

import (
	"time"
)

// Kind distinguishes a Request from a Response at the Message base.
type Kind uint8

const (
	KindRequest Kind = iota
	KindResponse
)

// Message is the data shared by every request and response: its headers,
// framing mode, creation time, and an opaque attachment slot for carrying
// bookkeeping alongside the message without polluting its public shape
// (the engines in this module do not use it themselves).
//
// A Message is owned by a single goroutine at a time, same as everything
// else reachable from one connection (see the concurrency notes on
// Endpoint); nothing here is safe for concurrent use.
type Message struct {
	Kind    Kind
	Version string // e.g. "HTTP/1.1", "HTTP/2"
	Headers *Headers

	// Chunked is true when the body is or will be framed with HTTP/1
	// chunked transfer-coding rather than a known Content-Length.
	Chunked bool

	CreatedAt time.Time

	locked      bool
	attachments map[string]interface{}
	paired      interface{} // *Request or *Response, whichever this message is NOT
	body        *Body
}

func newMessage(kind Kind) Message {
	return Message{
		Kind:      kind,
		Headers:   NewHeaders(),
		CreatedAt: time.Now(),
	}
}

// Locked reports whether the message (and its Headers) have been frozen.
func (m *Message) Locked() bool {
	return m.locked
}

// Lock freezes the message: its Headers become immutable and Attach starts
// returning ErrLocked. The HTTP/2 send paths lock a message as they send
// it, so later code cannot retroactively change what a peer already saw;
// received messages are not locked.
func (m *Message) Lock() {
	m.locked = true
	m.Headers.Lock()
}

// Body returns the message's buffered body, or nil if SetBody was never
// called (e.g. the message has no body, or its body is being delivered
// incrementally via Data chunks rather than buffered).
func (m *Message) Body() *Body {
	return m.body
}

// Attach stores an opaque value under key, for the engine's or the
// embedder's own bookkeeping. Re-attaching the same key overwrites it.
func (m *Message) Attach(key string, v interface{}) error {
	if m.locked {
		return ErrLocked
	}
	if m.attachments == nil {
		m.attachments = make(map[string]interface{})
	}
	m.attachments[key] = v
	return nil
}

// Attachment returns the value stored under key, if any.
func (m *Message) Attachment(key string) (interface{}, bool) {
	if m.attachments == nil {
		return nil, false
	}
	v, ok := m.attachments[key]
	return v, ok
}

// Pair links two messages as request/response counterparts of the same
// exchange.
func Pair(req *Request, res *Response) {
	req.paired = res
	res.paired = req
}

// Data is a chunk of message body, as delivered to or produced by the
// engine incrementally rather than all at once. Last marks the final chunk
// of the body (end of stream / end of chunked encoding).
type Data struct {
	Body []byte
	Last bool
}

package message

import (
	"fmt"
	"strconv"

	"github.com/valyala/bytebufferpool"
)

// Body is a pooled, growable buffer backing a fully-buffered message body.
// Using bytebufferpool keeps body buffers recyclable across messages the
// same way the teacher backs fasthttp request/response bodies, instead of
// letting every message body allocate its own slice.
type Body struct {
	buf *bytebufferpool.ByteBuffer
}

// NewBody returns a Body backed by a buffer taken from the shared pool.
func NewBody() *Body {
	return &Body{buf: bytebufferpool.Get()}
}

// Release returns the backing buffer to the shared pool. b must not be used
// afterward.
func (b *Body) Release() {
	if b.buf != nil {
		bytebufferpool.Put(b.buf)
		b.buf = nil
	}
}

// Bytes returns the body content accumulated so far.
func (b *Body) Bytes() []byte {
	return b.buf.Bytes()
}

// Len returns the number of bytes currently buffered.
func (b *Body) Len() int {
	return b.buf.Len()
}

// Write appends chunk to the body.
func (b *Body) Write(chunk []byte) (int, error) {
	return b.buf.Write(chunk)
}

// SetBody replaces the body contents outright. If m is not using
// chunked transfer encoding and already declares a Content-Length header,
// the new body's length must match it exactly — a Content-Length framed
// message is a fixed-size contract, and a mismatched body would either
// truncate what the peer reads or leave bytes the peer will misinterpret
// as the start of the next message.
func (m *Message) SetBody(body *Body, headers *Headers) error {
	if !m.Chunked {
		if cl, ok := headers.GetFirst("content-length"); ok {
			n, err := strconv.Atoi(cl)
			if err != nil {
				return fmt.Errorf("message: invalid content-length %q: %w", cl, err)
			}
			if n != body.Len() {
				return fmt.Errorf("message: body length %d does not match content-length %d", body.Len(), n)
			}
		}
	}
	m.body = body
	return nil
}

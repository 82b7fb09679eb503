// Package http1 implements the HTTP/1.x wire format as a sans-I/O
// incremental parser and serializer: it consumes and produces byte slices
// only, and never touches a socket. Reassembly across partial reads is the
// caller's responsibility to feed back in; this package does the
// buffering needed to wait for a complete start-line/header block.
package http1

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/omegazero-org/omz-http-lib/message"
)

// Mode selects whether a Receiver parses request or response start-lines.
type Mode int

const (
	ModeRequest Mode = iota
	ModeResponse
)

// BodyFraming identifies how a message's body is delimited.
type BodyFraming int

const (
	// BodyNone means the message has no body (e.g. a request with neither
	// Content-Length nor Transfer-Encoding, or a 1xx/204/304 response).
	// A response to a HEAD request is not detected: the Receiver does not
	// know the request method.
	BodyNone BodyFraming = iota
	// BodyContentLength means the body is exactly ContentLength bytes.
	BodyContentLength
	// BodyChunked means the body uses chunked transfer-coding (RFC 7230
	// §4.1) and must be fed through a Dechunker.
	BodyChunked
	// BodyUntilClose means the body runs until the connection closes;
	// only legal for a response with neither Transfer-Encoding nor
	// Content-Length, per RFC 7230 §3.3.3 rule 7.
	BodyUntilClose
)

// Head is a fully parsed HTTP/1 start-line plus header block.
type Head struct {
	Mode    Mode
	Version string

	// Request fields (Mode == ModeRequest).
	Method string
	Target string // path component (origin-form) or the literal "*"/authority
	// Authority is set when the request-target was absolute-form
	// (scheme://authority/path, as an HTTP/1 proxy receives) or
	// authority-form (CONNECT host:port); empty for origin-form and
	// asterisk-form targets, where the Host header carries it instead.
	Authority string

	// Response fields (Mode == ModeResponse).
	Status int
	Reason string

	Headers *message.Headers

	Framing       BodyFraming
	ContentLength int64
}

var (
	// ErrHeaderTooLarge is returned once the accumulated, not-yet-complete
	// start-line/header block exceeds the Receiver's configured budget.
	// Spillover bytes count against the budget at the point they are
	// buffered, not only once a terminator is found — a peer that never
	// sends the blank line terminating the header block must still be cut
	// off before it exhausts memory.
	ErrHeaderTooLarge  = errors.New("http1: header block exceeds maximum size")
	ErrMalformedStart  = errors.New("http1: malformed start-line")
	ErrMalformedHeader = errors.New("http1: malformed header field")
	ErrFolding         = errors.New("http1: obsolete header line folding is not supported")
)

// Receiver incrementally parses a start-line and header block out of a
// byte stream, buffering across Feed calls until a complete block (ending
// in the blank line after the last header) is available.
type Receiver struct {
	mode          Mode
	maxHeaderSize int
	buf           []byte
}

// NewReceiver returns a Receiver for the given Mode. maxHeaderSize bounds
// the accumulated start-line+header block; zero means unbounded.
func NewReceiver(mode Mode, maxHeaderSize int) *Receiver {
	return &Receiver{mode: mode, maxHeaderSize: maxHeaderSize}
}

// Reset discards any buffered partial head, preparing the Receiver to
// parse the next message on the same connection (HTTP/1 keep-alive).
func (r *Receiver) Reset() {
	r.buf = r.buf[:0]
}

// Feed appends data to the Receiver's internal buffer and attempts to
// parse a complete start-line/header block.
//
// If the block is not yet complete, head is nil and bodyTail is nil: the
// caller should Feed more data later. Once complete, head is returned
// together with bodyTail, the slice of data (if any) that followed the
// blank line terminating the header block and therefore belongs to the
// message body, not the head.
func (r *Receiver) Feed(data []byte) (head *Head, bodyTail []byte, err error) {
	r.buf = append(r.buf, data...)
	idx := bytes.Index(r.buf, []byte("\r\n\r\n"))
	headLen := len(r.buf)
	if idx >= 0 {
		headLen = idx + 4
	}
	if r.maxHeaderSize > 0 && headLen > r.maxHeaderSize {
		return nil, nil, ErrHeaderTooLarge
	}

	if idx < 0 {
		return nil, nil, nil
	}

	head, err = parseHead(r.mode, r.buf[:idx+2])
	if err != nil {
		return nil, nil, err
	}
	tail := r.buf[idx+4:]
	if len(tail) > 0 {
		bodyTail = append([]byte(nil), tail...)
	}
	r.buf = r.buf[:0]

	head.Framing, head.ContentLength, err = determineFraming(r.mode, head)
	if err != nil {
		return nil, nil, err
	}
	return head, bodyTail, nil
}

func parseHead(mode Mode, block []byte) (*Head, error) {
	lines := bytes.Split(block, []byte("\r\n"))
	if len(lines) < 1 {
		return nil, ErrMalformedStart
	}

	h := &Head{Mode: mode, Headers: message.NewHeaders()}
	if err := parseStartLine(mode, lines[0], h); err != nil {
		return nil, err
	}

	for _, line := range lines[1:] {
		if len(line) == 0 {
			continue
		}
		if line[0] == ' ' || line[0] == '\t' {
			return nil, ErrFolding
		}
		colon := bytes.IndexByte(line, ':')
		if colon <= 0 {
			return nil, ErrMalformedHeader
		}
		name := line[:colon]
		for _, c := range name {
			if c <= 0x20 || c == 0x7f {
				return nil, ErrMalformedHeader
			}
		}
		value := bytes.Trim(line[colon+1:], " \t")
		h.Headers.Add(string(name), string(value))
	}
	return h, nil
}

func parseStartLine(mode Mode, line []byte, h *Head) error {
	if mode == ModeRequest {
		parts := bytes.SplitN(line, []byte(" "), 3)
		if len(parts) != 3 {
			return ErrMalformedStart
		}
		if !message.ValidMethod(parts[0]) {
			return ErrMalformedStart
		}
		h.Method = string(parts[0])
		h.Version = string(parts[2])
		return parseRequestTarget(h.Method, parts[1], h)
	}

	parts := bytes.SplitN(line, []byte(" "), 3)
	if len(parts) < 2 {
		return ErrMalformedStart
	}
	h.Version = string(parts[0])
	status, err := strconv.Atoi(string(parts[1]))
	if err != nil || status < 100 || status > 599 {
		return ErrMalformedStart
	}
	h.Status = status
	if len(parts) == 3 {
		h.Reason = string(parts[2])
	}
	return nil
}

// parseRequestTarget parses the request-target (RFC 7230 §5.3) into h,
// recognizing all four forms: origin-form ("/path"), absolute-form
// ("scheme://authority/path", the form an HTTP/1 proxy receives),
// authority-form ("host:port", CONNECT only), and asterisk-form ("*",
// OPTIONS only).
func parseRequestTarget(method string, target []byte, h *Head) error {
	switch {
	case len(target) == 0:
		return ErrMalformedStart

	case method == "CONNECT":
		if !message.ValidAuthority(target) {
			return ErrMalformedStart
		}
		h.Authority = string(target)
		h.Target = h.Authority

	case len(target) == 1 && target[0] == '*':
		if method != "OPTIONS" {
			return ErrMalformedStart
		}
		h.Target = "*"

	case target[0] == '/':
		if !message.ValidPath(target) {
			return ErrMalformedStart
		}
		h.Target = string(target)

	default:
		idx := bytes.Index(target, []byte("://"))
		if idx <= 0 {
			return ErrMalformedStart
		}
		rest := target[idx+3:]
		path := []byte("/")
		authority := rest
		if slash := bytes.IndexByte(rest, '/'); slash >= 0 {
			authority = rest[:slash]
			path = rest[slash:]
		}
		if !message.ValidAuthority(authority) || !message.ValidPath(path) {
			return ErrMalformedStart
		}
		h.Authority = string(authority)
		h.Target = string(path)
	}
	return nil
}

func determineFraming(mode Mode, h *Head) (BodyFraming, int64, error) {
	if te, ok := h.Headers.GetFirst("transfer-encoding"); ok {
		if strings.EqualFold(strings.TrimSpace(lastToken(te)), "chunked") {
			return BodyChunked, 0, nil
		}
	}
	if cl, ok := h.Headers.GetFirst("content-length"); ok {
		n, err := strconv.ParseInt(cl, 10, 64)
		if err != nil || n < 0 {
			return BodyNone, 0, fmt.Errorf("%w: invalid content-length %q", ErrMalformedHeader, cl)
		}
		return BodyContentLength, n, nil
	}
	if mode == ModeResponse {
		if h.IsNoBodyStatus() {
			return BodyNone, 0, nil
		}
		return BodyUntilClose, 0, nil
	}
	return BodyNone, 0, nil
}

// IsNoBodyStatus reports whether h's status code never carries a body
// regardless of framing headers (1xx, 204, 304).
func (h *Head) IsNoBodyStatus() bool {
	return (h.Status >= 100 && h.Status < 200) || h.Status == 204 || h.Status == 304
}

func lastToken(s string) string {
	if i := strings.LastIndexByte(s, ','); i >= 0 {
		return s[i+1:]
	}
	return s
}

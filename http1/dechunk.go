package http1

import (
	"bytes"
	"errors"

	"github.com/omegazero-org/omz-http-lib/message"
)

var (
	ErrChunkSyntax  = errors.New("http1: malformed chunk size line")
	ErrChunkTooBig  = errors.New("http1: chunk size exceeds maximum")
	ErrBodyOverflow = errors.New("http1: body exceeds declared content-length")
)

type dechunkState int

const (
	stateChunkSize dechunkState = iota
	stateChunkData
	stateChunkDataCRLF
	stateTrailer
	stateDone
)

// Dechunker incrementally removes HTTP/1 chunked transfer-coding (RFC 7230
// §4.1) from a byte stream, or simply counts down a known Content-Length,
// or passes everything through until the caller signals the connection
// closed — the body-framing modes a Receiver can produce besides
// BodyNone, for which Feed reports the body done at once.
type Dechunker struct {
	framing   BodyFraming
	remaining int64 // for BodyContentLength
	maxChunk  int64

	state   dechunkState
	buf     []byte
	needed  int64 // bytes still needed for the current chunk's data
	Trailer *message.Headers
}

// NewDechunker returns a Dechunker for the given framing mode. For
// BodyContentLength, length is the declared body size. maxChunk bounds any
// single chunk-size in BodyChunked mode (0 means unbounded) — without a
// bound, a malicious chunk-size line could claim an enormous chunk and
// have the receiver hold an unbounded amount of expectation state.
func NewDechunker(framing BodyFraming, length int64, maxChunk int64) *Dechunker {
	d := &Dechunker{framing: framing, remaining: length, maxChunk: maxChunk}
	if framing == BodyChunked {
		d.Trailer = message.NewHeaders()
	}
	return d
}

// Feed consumes data (which may be a partial chunk, several chunks, or
// span a chunk boundary) and returns the body bytes decoded from it plus
// whether the body has now ended.
func (d *Dechunker) Feed(data []byte) (body []byte, done bool, err error) {
	switch d.framing {
	case BodyNone:
		return nil, true, nil
	case BodyUntilClose:
		return data, false, nil
	case BodyContentLength:
		return d.feedContentLength(data)
	case BodyChunked:
		return d.feedChunked(data)
	}
	return nil, false, nil
}

// Close signals that the underlying connection has been closed, which for
// BodyUntilClose framing is what marks the body complete. A Content-Length
// or chunked body that has not reached its end is reported incomplete.
func (d *Dechunker) Close() (done bool) {
	switch d.framing {
	case BodyNone, BodyUntilClose:
		return true
	case BodyContentLength:
		return d.remaining == 0
	default:
		return d.state == stateDone
	}
}

func (d *Dechunker) feedContentLength(data []byte) ([]byte, bool, error) {
	if int64(len(data)) > d.remaining {
		return nil, false, ErrBodyOverflow
	}
	d.remaining -= int64(len(data))
	return data, d.remaining == 0, nil
}

func (d *Dechunker) feedChunked(data []byte) ([]byte, bool, error) {
	d.buf = append(d.buf, data...)
	var out []byte

	for {
		switch d.state {
		case stateChunkSize:
			idx := bytes.Index(d.buf, []byte("\r\n"))
			if idx < 0 {
				if len(d.buf) > 32 {
					return out, false, ErrChunkSyntax
				}
				return out, false, nil
			}
			line := d.buf[:idx]
			if semi := bytes.IndexByte(line, ';'); semi >= 0 {
				line = line[:semi] // chunk extensions are ignored
			}
			n, ok := parseHexInt64(line)
			if !ok {
				return out, false, ErrChunkSyntax
			}
			if d.maxChunk > 0 && n > d.maxChunk {
				return out, false, ErrChunkTooBig
			}
			d.buf = d.buf[idx+2:]
			if n == 0 {
				d.state = stateTrailer
			} else {
				d.needed = n
				d.state = stateChunkData
			}

		case stateChunkData:
			if int64(len(d.buf)) < d.needed {
				out = append(out, d.buf...)
				d.needed -= int64(len(d.buf))
				d.buf = d.buf[:0]
				return out, false, nil
			}
			out = append(out, d.buf[:d.needed]...)
			d.buf = d.buf[d.needed:]
			d.needed = 0
			d.state = stateChunkDataCRLF

		case stateChunkDataCRLF:
			if len(d.buf) < 2 {
				return out, false, nil
			}
			if d.buf[0] != '\r' || d.buf[1] != '\n' {
				return out, false, ErrChunkSyntax
			}
			d.buf = d.buf[2:]
			d.state = stateChunkSize

		case stateTrailer:
			idx := bytes.Index(d.buf, []byte("\r\n"))
			if idx < 0 {
				return out, false, nil
			}
			line := d.buf[:idx]
			d.buf = d.buf[idx+2:]
			if len(line) == 0 {
				d.state = stateDone
				return out, true, nil
			}
			colon := bytes.IndexByte(line, ':')
			if colon <= 0 {
				return out, false, ErrChunkSyntax
			}
			value := bytes.Trim(line[colon+1:], " \t")
			d.Trailer.Add(string(line[:colon]), string(value))

		case stateDone:
			return out, true, nil
		}
	}
}

func parseHexInt64(b []byte) (int64, bool) {
	if len(b) == 0 {
		return 0, false
	}
	var n int64
	for _, c := range b {
		var v int64
		switch {
		case c >= '0' && c <= '9':
			v = int64(c - '0')
		case c >= 'a' && c <= 'f':
			v = int64(c-'a') + 10
		case c >= 'A' && c <= 'F':
			v = int64(c-'A') + 10
		default:
			return 0, false
		}
		n = n<<4 | v
		if n < 0 {
			return 0, false
		}
	}
	return n, true
}

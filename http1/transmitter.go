package http1

import (
	"strconv"

	"github.com/omegazero-org/omz-http-lib/message"
)

// WriteRequestLine appends a request-line and its header block to dst,
// ending with the blank line that terminates the head, ready to be
// followed immediately by a body (or nothing).
func WriteRequestLine(dst []byte, method, target, version string, headers *message.Headers) []byte {
	dst = append(dst, method...)
	dst = append(dst, ' ')
	dst = append(dst, target...)
	dst = append(dst, ' ')
	dst = append(dst, version...)
	dst = append(dst, "\r\n"...)
	return writeHeaderBlock(dst, headers)
}

// WriteStatusLine appends a status-line and its header block to dst, ending
// with the blank line that terminates the head.
func WriteStatusLine(dst []byte, version string, status int, reason string, headers *message.Headers) []byte {
	dst = append(dst, version...)
	dst = append(dst, ' ')
	dst = strconv.AppendInt(dst, int64(status), 10)
	dst = append(dst, ' ')
	dst = append(dst, reason...)
	dst = append(dst, "\r\n"...)
	return writeHeaderBlock(dst, headers)
}

func writeHeaderBlock(dst []byte, headers *message.Headers) []byte {
	for _, p := range headers.All() {
		dst = append(dst, p.Name...)
		dst = append(dst, ':', ' ')
		dst = append(dst, p.Value...)
		dst = append(dst, "\r\n"...)
	}
	dst = append(dst, "\r\n"...)
	return dst
}

// WriteChunk appends a single chunked-transfer-coding chunk carrying body
// to dst. A zero-length body writes the terminating zero-size chunk; pass
// trailers (nil is fine) to append a trailer section before the final
// CRLF, matching RFC 7230 §4.1.
func WriteChunk(dst []byte, body []byte, trailers *message.Headers) []byte {
	if len(body) > 0 {
		dst = strconv.AppendInt(dst, int64(len(body)), 16)
		dst = append(dst, "\r\n"...)
		dst = append(dst, body...)
		dst = append(dst, "\r\n"...)
		return dst
	}
	dst = append(dst, '0')
	dst = append(dst, "\r\n"...)
	if trailers != nil {
		for _, p := range trailers.All() {
			dst = append(dst, p.Name...)
			dst = append(dst, ':', ' ')
			dst = append(dst, p.Value...)
			dst = append(dst, "\r\n"...)
		}
	}
	dst = append(dst, "\r\n"...)
	return dst
}

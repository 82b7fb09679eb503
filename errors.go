package http2

import (
	"errors"
	"fmt"
)

// ErrorCode is the 32-bit error code carried by RST_STREAM and GOAWAY
// frames.
//
// https://tools.ietf.org/html/rfc7540#section-7
type ErrorCode uint32

const (
	NoError            ErrorCode = 0x0
	ProtocolError      ErrorCode = 0x1
	InternalError      ErrorCode = 0x2
	FlowControlError   ErrorCode = 0x3
	SettingsTimeoutErr ErrorCode = 0x4
	StreamClosedError  ErrorCode = 0x5
	FrameSizeError     ErrorCode = 0x6
	RefusedStreamError ErrorCode = 0x7
	CancelError        ErrorCode = 0x8
	CompressionError   ErrorCode = 0x9
	ConnectError       ErrorCode = 0xa
	EnhanceYourCalm    ErrorCode = 0xb
	InadequateSecurity ErrorCode = 0xc
	HTTP11Required     ErrorCode = 0xd
)

func (e ErrorCode) String() string {
	switch e {
	case NoError:
		return "NO_ERROR"
	case ProtocolError:
		return "PROTOCOL_ERROR"
	case InternalError:
		return "INTERNAL_ERROR"
	case FlowControlError:
		return "FLOW_CONTROL_ERROR"
	case SettingsTimeoutErr:
		return "SETTINGS_TIMEOUT"
	case StreamClosedError:
		return "STREAM_CLOSED"
	case FrameSizeError:
		return "FRAME_SIZE_ERROR"
	case RefusedStreamError:
		return "REFUSED_STREAM"
	case CancelError:
		return "CANCEL"
	case CompressionError:
		return "COMPRESSION_ERROR"
	case ConnectError:
		return "CONNECT_ERROR"
	case EnhanceYourCalm:
		return "ENHANCE_YOUR_CALM"
	case InadequateSecurity:
		return "INADEQUATE_SECURITY"
	case HTTP11Required:
		return "HTTP_1_1_REQUIRED"
	default:
		return fmt.Sprintf("UNKNOWN_ERROR_CODE(0x%x)", uint32(e))
	}
}

// Error is a protocol error tagged with the ErrorCode that should be
// reported to the peer (in a RST_STREAM or GOAWAY frame) if the embedder
// chooses to. Stream returns the offending stream ID, or 0 for a
// connection-level error.
type Error struct {
	Code    ErrorCode
	Stream  uint32
	Message string
}

// NewError builds a connection-level Error (Stream 0) with the given
// code and message.
func NewError(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

// NewStreamError builds a stream-level Error.
func NewStreamError(stream uint32, code ErrorCode, message string) *Error {
	return &Error{Code: code, Stream: stream, Message: message}
}

func (e *Error) Error() string {
	if e.Message == "" {
		if e.Stream != 0 {
			return fmt.Sprintf("stream %d: %s", e.Stream, e.Code)
		}
		return e.Code.String()
	}
	if e.Stream != 0 {
		return fmt.Sprintf("stream %d: %s: %s", e.Stream, e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// IsConnectionLevel reports whether the error must close the whole
// connection (RFC 7540 §5.4.1) rather than just resetting one stream.
func (e *Error) IsConnectionLevel() bool {
	return e.Stream == 0
}

// Sentinel frame-parsing errors, shared by every frame type's
// Deserialize implementation.
var (
	ErrMissingBytes    = errors.New("http2: frame payload shorter than its frame type requires")
	ErrPayloadExceeds  = errors.New("http2: frame payload exceeds the negotiated maximum frame size")
	ErrUnknowFrameType = errors.New("http2: unknown frame type")
)

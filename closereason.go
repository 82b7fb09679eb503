package http2

// CloseReason classifies why a message stream or the endpoint itself
// was closed, independent of the wire ErrorCode that may or may not
// have accompanied it (e.g. a locally-initiated close has no incoming
// RST_STREAM/GOAWAY code to report).
type CloseReason uint8

const (
	CloseUnknown CloseReason = iota
	CloseNormal
	CloseProtocolError
	CloseInternalError
	CloseCancel
	CloseRefused
	CloseEnhanceYourCalm
	CloseProtocolDowngrade
)

func (r CloseReason) String() string {
	switch r {
	case CloseNormal:
		return "NORMAL"
	case CloseProtocolError:
		return "PROTOCOL_ERROR"
	case CloseInternalError:
		return "INTERNAL_ERROR"
	case CloseCancel:
		return "CANCEL"
	case CloseRefused:
		return "REFUSED"
	case CloseEnhanceYourCalm:
		return "ENHANCE_YOUR_CALM"
	case CloseProtocolDowngrade:
		return "PROTOCOL_DOWNGRADE"
	default:
		return "UNKNOWN"
	}
}

// closeReasonFromCode maps a wire ErrorCode to the CloseReason an
// onClosed callback reports, so application code doesn't need to
// switch on every RFC 7540 §7 code itself.
func closeReasonFromCode(code ErrorCode) CloseReason {
	switch code {
	case NoError:
		return CloseNormal
	case ProtocolError, FrameSizeError, CompressionError, FlowControlError:
		return CloseProtocolError
	case InternalError:
		return CloseInternalError
	case CancelError:
		return CloseCancel
	case RefusedStreamError:
		return CloseRefused
	case EnhanceYourCalm:
		return CloseEnhanceYourCalm
	case HTTP11Required:
		return CloseProtocolDowngrade
	default:
		return CloseUnknown
	}
}

package message

import "strings"

// Response is a Message specialized with the HTTP status code.
type Response struct {
	Message

	Status int
}

// NewResponse returns an empty, unlocked response.
func NewResponse() *Response {
	return &Response{Message: newMessage(KindResponse)}
}

// PairedRequest returns the Request paired with this Response, if any.
func (r *Response) PairedRequest() (*Request, bool) {
	req, ok := r.paired.(*Request)
	return req, ok
}

// IsIntermediate reports whether Status is a 1xx informational response,
// which is not a final response to the request and never carries a body.
func (r *Response) IsIntermediate() bool {
	return r.Status >= 100 && r.Status < 200
}

// HasBody reports whether a response with this status, to a request with
// the given method, is expected to carry a body (RFC 7230 §3.3.3 / RFC
// 7231 §4.3.2). 204 No Content, 304 Not Modified, 1xx responses, any
// response to a HEAD request, and a 2xx response to CONNECT (which
// switches the connection to tunnel mode rather than framing a body)
// never have one.
func (r *Response) HasBody(requestMethod string) bool {
	if r.IsIntermediate() || r.Status == 204 || r.Status == 304 {
		return false
	}
	method := strings.ToUpper(requestMethod)
	if method == "HEAD" {
		return false
	}
	if method == "CONNECT" && r.Status >= 200 && r.Status < 300 {
		return false
	}
	return true
}

package http2

import (
	"strconv"
	"strings"

	"github.com/omegazero-org/omz-http-lib/hpack"
	"github.com/omegazero-org/omz-http-lib/message"
)

// fieldsToRequest builds a *message.Request out of a decoded HPACK field
// list, extracting the :method/:scheme/:authority/:path pseudo-headers
// (RFC 7540 §8.1.2.3) and folding everything else into regular headers.
func fieldsToRequest(fields []hpack.Field) (*message.Request, error) {
	req := message.NewRequest()
	req.Version = "HTTP/2"

	seenRegular := false
	for _, f := range fields {
		if strings.HasPrefix(f.Name, ":") {
			if seenRegular {
				return nil, NewError(ProtocolError, "pseudo-header after regular header")
			}
			switch f.Name {
			case ":method":
				req.Method = f.Value
			case ":scheme":
				req.Scheme = f.Value
			case ":authority":
				req.Authority = f.Value
			case ":path":
				req.Path = f.Value
			default:
				return nil, NewError(ProtocolError, "unknown pseudo-header "+f.Name)
			}
			continue
		}
		seenRegular = true
		if f.Name == "host" && req.Authority == "" {
			req.Authority = f.Value
			continue
		}
		if f.Name == "cookie" {
			req.Headers.AppendWithSeparator("cookie", f.Value, "; ")
			continue
		}
		req.Headers.Add(f.Name, f.Value)
	}

	if req.Method == "" || req.Scheme == "" || req.Path == "" {
		return nil, NewError(ProtocolError, "request missing required pseudo-headers")
	}
	if !message.ValidMethod([]byte(req.Method)) {
		return nil, NewError(ProtocolError, "invalid :method")
	}
	if !message.ValidScheme(req.Scheme) {
		return nil, NewError(ProtocolError, "invalid :scheme")
	}
	if !message.ValidPath([]byte(req.Path)) {
		return nil, NewError(ProtocolError, "invalid :path")
	}
	if req.Authority != "" && !message.ValidAuthority([]byte(req.Authority)) {
		return nil, NewError(ProtocolError, "invalid :authority")
	}

	return req, nil
}

// fieldsToResponse mirrors fieldsToRequest for the :status pseudo-header
// (RFC 7540 §8.1.2.4).
func fieldsToResponse(fields []hpack.Field) (*message.Response, error) {
	res := message.NewResponse()
	res.Version = "HTTP/2"

	seenRegular := false
	seenStatus := false
	for _, f := range fields {
		if strings.HasPrefix(f.Name, ":") {
			if seenRegular {
				return nil, NewError(ProtocolError, "pseudo-header after regular header")
			}
			if f.Name != ":status" {
				return nil, NewError(ProtocolError, "unknown pseudo-header "+f.Name)
			}
			n, err := strconv.Atoi(f.Value)
			if err != nil || n < 100 || n > 599 {
				return nil, NewError(ProtocolError, "invalid :status")
			}
			res.Status = n
			seenStatus = true
			continue
		}
		seenRegular = true
		res.Headers.Add(f.Name, f.Value)
	}

	if !seenStatus {
		return nil, NewError(ProtocolError, "response missing :status")
	}
	return res, nil
}

// fieldsFromRequest renders a request's pseudo-headers and headers into
// the ordered field list an Encoder expects, pseudo-headers first per
// RFC 7540 §8.1.2.1.
func fieldsFromRequest(req *message.Request) []hpack.Field {
	fields := make([]hpack.Field, 0, 4+len(req.Headers.All()))
	fields = append(fields,
		hpack.Field{Name: ":method", Value: req.Method},
		hpack.Field{Name: ":scheme", Value: req.Scheme},
		hpack.Field{Name: ":path", Value: req.Path},
	)
	if req.Authority != "" {
		fields = append(fields, hpack.Field{Name: ":authority", Value: req.Authority})
	}
	for _, p := range req.Headers.All() {
		fields = append(fields, hpack.Field{Name: p.Name, Value: p.Value})
	}
	return fields
}

// fieldsFromResponse mirrors fieldsFromRequest for a response.
func fieldsFromResponse(res *message.Response) []hpack.Field {
	fields := make([]hpack.Field, 0, 1+len(res.Headers.All()))
	fields = append(fields, hpack.Field{Name: ":status", Value: strconv.Itoa(res.Status)})
	for _, p := range res.Headers.All() {
		fields = append(fields, hpack.Field{Name: p.Name, Value: p.Value})
	}
	return fields
}

func fieldsFromHeaders(h *message.Headers) []hpack.Field {
	all := h.All()
	fields := make([]hpack.Field, len(all))
	for i, p := range all {
		fields[i] = hpack.Field{Name: p.Name, Value: p.Value}
	}
	return fields
}

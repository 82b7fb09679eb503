package http2

import "sync"

// FrameType is the 8-bit frame type field of a frame header.
//
// https://tools.ietf.org/html/rfc7540#section-11.2
type FrameType uint8

// FrameFlags is the 8-bit flags field of a frame header. Which bits are
// meaningful depends on the frame's Type; see the Flag* constants
// defined alongside each frame type.
type FrameFlags uint8

// Has reports whether all bits of other are set in f.
func (f FrameFlags) Has(other FrameFlags) bool {
	return f&other == other
}

// Add returns f with the bits of other set.
func (f FrameFlags) Add(other FrameFlags) FrameFlags {
	return f | other
}

// Frame is a single HTTP/2 frame payload, independent of its
// FrameHeader (the 9-byte length/type/flags/stream prefix shared by
// every frame type). Deserialize fills the Frame from a FrameHeader
// whose payload bytes have already been read; Serialize writes the
// Frame's fields into the FrameHeader's payload so it can be flushed.
//
// https://tools.ietf.org/html/rfc7540#section-4.1
type Frame interface {
	Type() FrameType
	Reset()
	Deserialize(fr *FrameHeader) error
	Serialize(fr *FrameHeader)
}

var framePools = [...]sync.Pool{
	FrameData:         {New: func() interface{} { return &Data{} }},
	FrameHeaders:      {New: func() interface{} { return &Headers{} }},
	FramePriority:     {New: func() interface{} { return &Priority{} }},
	FrameResetStream:  {New: func() interface{} { return &RstStream{} }},
	FrameSettings:     {New: func() interface{} { return &Settings{} }},
	FramePushPromise:  {New: func() interface{} { return &PushPromise{} }},
	FramePing:         {New: func() interface{} { return &Ping{} }},
	FrameGoAway:       {New: func() interface{} { return &GoAway{} }},
	FrameWindowUpdate: {New: func() interface{} { return &WindowUpdate{} }},
	FrameContinuation: {New: func() interface{} { return &Continuation{} }},
}

// AcquireFrame returns a pooled Frame implementation for kind, ready to
// be filled by Deserialize or by its setters before Serialize.
//
// kind must be one of the Frame* constants (callers that read kind off
// the wire should reject anything above FrameContinuation before
// calling this, per RFC 7540 §4.1's "implementations MUST ignore and
// discard any frame that has a type that is unknown").
func AcquireFrame(kind FrameType) Frame {
	fr := framePools[kind].Get().(Frame)
	fr.Reset()
	return fr
}

// ReleaseFrame returns fr to its type's pool.
func ReleaseFrame(fr Frame) {
	if fr == nil {
		return
	}
	framePools[fr.Type()].Put(fr)
}

package http2

const FramePing FrameType = 0x6

var _ Frame = &Ping{}

// Ping carries 8 opaque bytes a peer echoes back with FlagAck set,
// used by Endpoint.handlePing to answer RFC 7540 §6.7 keepalives
// without involving any stream.
//
// https://tools.ietf.org/html/rfc7540#section-6.7
type Ping struct {
	ack  bool
	data [8]byte
}

func (ping *Ping) Type() FrameType {
	return FramePing
}

func (ping *Ping) Reset() {
	ping.ack = false
}

// Write copies b (only the first 8 bytes matter) into the opaque data
// field, mirroring Continuation/Data's io.Writer-style setter.
func (ping *Ping) Write(b []byte) (n int, err error) {
	copy(ping.data[:], b)
	return len(b), nil
}

func (ping *Ping) SetData(b []byte) {
	copy(ping.data[:], b)
}

func (ping *Ping) Deserialize(frh *FrameHeader) error {
	ping.ack = frh.Flags().Has(FlagAck)
	ping.SetData(frh.payload)
	return nil
}

func (ping *Ping) Data() []byte {
	return ping.data[:]
}

// Serialize writes the ack flag (if set) and the opaque payload back
// out, unchanged, the way Endpoint.handlePing builds its PING ack.
func (ping *Ping) Serialize(fr *FrameHeader) {
	if ping.ack {
		fr.SetFlags(fr.Flags().Add(FlagAck))
	}

	fr.setPayload(ping.data[:])
}

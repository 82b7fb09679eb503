package http2

import (
	"sync"
	"time"

	"github.com/omegazero-org/omz-http-lib/hpack"
	"github.com/omegazero-org/omz-http-lib/http2utils"
)

const (
	clientPreface = "PRI * HTTP/2.0\r\n\r\nSM\r\n\r\n"

	// initialConnWindow is the connection-level flow-control window
	// both sides start with before any WINDOW_UPDATE (RFC 7540 §6.9.2).
	initialConnWindow = 1<<16 - 1

	// connWindowFloor is the low-water mark that triggers an unsolicited
	// connection-level WINDOW_UPDATE topping the window back up to
	// connWindowTarget.
	connWindowFloor  = 1 << 24
	connWindowTarget = 1 << 24

	// closeWaitGrace is how long a CLOSED stream's id is kept around so a
	// frame already in flight for it is recognized as "closed", not
	// "never existed" (spec §4.L).
	closeWaitGrace = 2 * time.Second

	// maxConsecutiveWriteErrors bounds how many frame writes in a row may
	// fail or leave the socket unwritable before the connection is torn down as
	// a defensive measure against a peer that reads nothing back.
	maxConsecutiveWriteErrors = 500

	// closeWaitSlack bounds how far the stream registry (including
	// streams lingering in closeWaitGrace) may outgrow
	// MAX_CONCURRENT_STREAMS before it's treated the same as the
	// consecutive-write-error guard: streams.size()>>closeWaitSlack
	// reaching the concurrency cap means a peer is cycling streams fast
	// enough that close-wait bookkeeping alone can't keep the registry
	// bounded. 4 (i.e. a 16x slack factor) is a heuristic; exposed as a
	// constant so it can be tuned without touching the check itself.
	closeWaitSlack = 4
)

// EndpointOptions configures a new Endpoint. A nil field takes the
// documented default.
type EndpointOptions struct {
	// Settings holds the local SETTINGS this endpoint advertises at
	// connection start. Nil advertises RFC 7540 defaults; whenever
	// MAX_CONCURRENT_STREAMS or MAX_HEADER_LIST_SIZE is absent, the
	// Endpoint still enforces 100 peer-initiated streams and a 1 MiB
	// header block locally.
	Settings *Settings

	// NeverIndex, if set, is shared HPACK never-index policy — typically
	// one instance shared by every Endpoint in a process so a name like
	// "authorization" never gets indexed on any connection.
	NeverIndex *hpack.NeverIndexSet

	Handler StreamHandler
	Logger  Logger
}

// Endpoint is one side (client or server) of a single HTTP/2 connection:
// spec component L. It never touches a socket; bytes come in through
// Feed and go out through the Writable it's constructed with.
//
// An Endpoint is single-threaded per connection: the embedder must
// serialize calls to Feed and to any Stream's Send* methods for one
// Endpoint, same as a plain net.Conn reader/writer pair would require
// external synchronization to interleave safely. The internal mutex
// exists only to make frame header+payload writes atomic if a caller
// defies that contract, and to guard the close-wait GC if it runs off a
// separate timer.
type Endpoint struct {
	mu       sync.Mutex
	writable Writable
	isServer bool
	handler  StreamHandler
	logger   Logger

	enc *hpack.Encoder
	dec *hpack.Decoder

	localSettings *Settings
	peerSettings  *Settings
	settingsSent  bool
	prefaceSeen   bool
	prefaceBuf    []byte

	streams         Streams
	nextStreamID    uint32
	highestStreamID uint32

	connSendWindow int64
	connRecvWindow int64

	scratch    []byte
	scratchLen int
	needed     int

	consecutiveWriteErrors int
	closed                 bool
}

// NewServerEndpoint constructs an Endpoint that expects to see the
// client connection preface before any framing.
func NewServerEndpoint(w Writable, opts EndpointOptions) *Endpoint {
	ep := newEndpoint(w, true, opts)
	return ep
}

// NewClientEndpoint constructs an Endpoint that writes the client
// connection preface and an initial SETTINGS frame immediately.
func NewClientEndpoint(w Writable, opts EndpointOptions) *Endpoint {
	ep := newEndpoint(w, false, opts)
	ep.prefaceSeen = true // a client never waits for its own preface
	ep.writable.Write([]byte(clientPreface))
	ep.sendSettings()
	return ep
}

func newEndpoint(w Writable, isServer bool, opts EndpointOptions) *Endpoint {
	local := opts.Settings
	if local == nil {
		local = &Settings{}
	}

	ep := &Endpoint{
		writable:        w,
		isServer:        isServer,
		handler:         opts.Handler,
		logger:          opts.Logger,
		localSettings:   local,
		peerSettings:    &Settings{},
		connSendWindow:  initialConnWindow,
		connRecvWindow:  initialConnWindow,
		scratch:         make([]byte, defaultMaxLen+frameHeaderLen),
		nextStreamID:    1,
		highestStreamID: 0,
	}
	if isServer {
		ep.nextStreamID = 2 // server-initiated (push) streams are even
	}

	neverIndex := opts.NeverIndex
	if neverIndex == nil {
		neverIndex = hpack.NewNeverIndexSet("authorization", "cookie", "set-cookie")
	}
	ep.enc = hpack.NewEncoder(int(local.HeaderTableSize()))
	ep.enc.SetNeverIndexSet(neverIndex)
	ep.dec = hpack.NewDecoder(int(local.HeaderTableSize()))
	ep.dec.SetNeverIndexSet(neverIndex)

	if ep.logger == nil {
		ep.logger = defaultLogger
	}

	return ep
}

const frameHeaderLen = 9

func (ep *Endpoint) maxFrameSize() uint32 {
	return ep.localSettings.MaxFrameSize()
}

func (ep *Endpoint) maxHeaderListBytes() int {
	if n, ok := ep.localSettings.MaxHeaderListSize(); ok {
		return int(n)
	}
	return 1 << 20 // an unbounded peer default would make the header-block
	// reassembly buffer itself an amplification vector; 1 MiB matches
	// what most deployed servers cap it to absent an explicit setting.
}

func (ep *Endpoint) localMaxConcurrentStreams() uint32 {
	if n, ok := ep.localSettings.MaxConcurrentStreams(); ok {
		return n
	}
	return 100
}

// Feed hands the Endpoint a chunk of bytes read from the connection. It
// may invoke any number of StreamHandler callbacks before returning. A
// non-nil error is always connection-fatal; the caller should stop
// feeding and close the transport after observing one (the Endpoint has
// already attempted to send GOAWAY).
func (ep *Endpoint) Feed(data []byte) error {
	if ep.closed {
		return nil
	}

	if ep.isServer && !ep.prefaceSeen {
		n := len(clientPreface)
		ep.prefaceBuf = append(ep.prefaceBuf, data...)
		if len(ep.prefaceBuf) < n {
			return nil
		}
		if string(ep.prefaceBuf[:n]) != clientPreface {
			ep.teardown(ProtocolError, "missing HTTP/2 connection preface")
			return NewError(ProtocolError, "missing HTTP/2 connection preface")
		}
		ep.prefaceSeen = true
		ep.sendSettings()
		data = ep.prefaceBuf[n:]
		ep.prefaceBuf = nil
	}

	for len(data) > 0 {
		if ep.needed == 0 {
			want := frameHeaderLen - ep.scratchLen
			if want > len(data) {
				want = len(data)
			}
			copy(ep.scratch[ep.scratchLen:frameHeaderLen], data[:want])
			ep.scratchLen += want
			data = data[want:]
			if ep.scratchLen < frameHeaderLen {
				return nil
			}

			length := int(http2utils.BytesToUint24(ep.scratch[:3]))
			if length > int(ep.maxFrameSize()) {
				ep.teardown(FrameSizeError, "frame exceeds SETTINGS_MAX_FRAME_SIZE")
				return NewError(FrameSizeError, "frame exceeds SETTINGS_MAX_FRAME_SIZE")
			}
			ep.needed = frameHeaderLen + length
			if cap(ep.scratch) < ep.needed {
				grown := make([]byte, ep.needed)
				copy(grown, ep.scratch[:ep.scratchLen])
				ep.scratch = grown
			}
			ep.scratch = ep.scratch[:cap(ep.scratch)]
		}

		want := ep.needed - ep.scratchLen
		if want > len(data) {
			want = len(data)
		}
		copy(ep.scratch[ep.scratchLen:ep.needed], data[:want])
		ep.scratchLen += want
		data = data[want:]
		if ep.scratchLen < ep.needed {
			return nil
		}

		raw := ep.scratch[:ep.needed]
		ep.needed = 0
		ep.scratchLen = 0

		if err := ep.dispatchRaw(raw); err != nil {
			ep.teardown(codeOf(err), err.Error())
			return err
		}

		ep.streams.EachClosedBefore(func(s *Stream) bool {
			return time.Since(s.closedAt) > closeWaitGrace
		}, func(*Stream) {})
	}
	return nil
}

func codeOf(err error) ErrorCode {
	if e, ok := err.(*Error); ok {
		return e.Code
	}
	return InternalError
}

func (ep *Endpoint) dispatchRaw(raw []byte) error {
	frh := AcquireFrameHeader()
	frh.maxLen = ep.maxFrameSize()
	frh.parseValues(raw[:frameHeaderLen])

	if frh.kind > FrameContinuation {
		ReleaseFrameHeader(frh) // RFC 7540 §4.1: ignore unknown frame types
		return nil
	}

	frh.fr = AcquireFrame(frh.kind)
	payload := raw[frameHeaderLen:]
	frh.payload = append(frh.payload[:0], payload...)
	frh.length = len(payload)

	if err := frh.fr.Deserialize(frh); err != nil {
		ReleaseFrameHeader(frh)
		return NewError(ProtocolError, err.Error())
	}

	err := ep.dispatch(frh)
	ReleaseFrameHeader(frh)
	return err
}

func (ep *Endpoint) dispatch(frh *FrameHeader) error {
	sid := frh.Stream()
	if sid == 0 {
		return ep.handleControlFrame(frh)
	}

	s := ep.streams.Get(sid)
	if s != nil {
		if s.State() == StreamClosed {
			if frh.Type() == FramePriority || frh.Type() == FrameWindowUpdate {
				return nil
			}
			return nil // within the close-wait grace window: ignore, not an error
		}
		if err := s.deliver(frh); err != nil {
			if se, ok := err.(*Error); ok && !se.IsConnectionLevel() {
				ep.resetStream(s, se.Code)
				if ep.handler != nil {
					ep.handler.OnError(s, err)
				}
				return nil
			}
			return err
		}
		return nil
	}

	if sid < ep.highestStreamID {
		if frh.Type() == FramePriority {
			return nil
		}
		return NewError(ProtocolError, "frame for a stream id below the highest seen")
	}

	ns, err := ep.newStreamForFrame(frh)
	if err != nil {
		return err
	}
	if ns == nil {
		if frh.Type() == FramePriority || frh.Type() == FrameWindowUpdate || frh.Type() == FrameResetStream {
			return nil
		}
		if frh.Type() == FrameHeaders && !ep.closed {
			return nil // refused past MAX_CONCURRENT_STREAMS; RST_STREAM already sent
		}
		return NewError(ProtocolError, "frame opens no stream and targets none existing")
	}
	return ns.deliver(frh)
}

// newStreamForFrame creates a peer-initiated stream when frh is the
// HEADERS that opens one, enforcing the local MAX_CONCURRENT_STREAMS
// cap. Returns (nil, nil) when frh legitimately doesn't open a stream
// (e.g. a stray WINDOW_UPDATE/PRIORITY for a never-opened id, which RFC
// 7540 tolerates for PRIORITY and which this engine tolerates broadly
// rather than treating as fatal), and also when it refuses the HEADERS
// with RST_STREAM(REFUSED_STREAM) or tears the connection down.
func (ep *Endpoint) newStreamForFrame(frh *FrameHeader) (*Stream, error) {
	if frh.Type() != FrameHeaders {
		return nil, nil
	}
	sid := frh.Stream()
	if ep.isServer {
		if sid%2 == 0 {
			return nil, NewError(ProtocolError, "even stream id opened by client")
		}
	} else {
		return nil, NewError(ProtocolError, "unexpected HEADERS opening an unknown stream")
	}

	if ep.peerInitiatedCount() >= int(ep.localMaxConcurrentStreams()) {
		rst := AcquireFrame(FrameResetStream).(*RstStream)
		rst.SetCode(RefusedStreamError)
		ep.writeFrame(sid, rst)
		return nil, nil
	}

	if ep.streams.Len()>>closeWaitSlack >= int(ep.localMaxConcurrentStreams()) {
		ep.teardown(EnhanceYourCalm, "stream registry outgrew MAX_CONCURRENT_STREAMS slack")
		return nil, nil
	}

	s := newStream(sid, ep.localSettings.MaxWindowSize(), ep.peerSettings.MaxWindowSize())
	s.peerInitiated = true
	s.ep = ep
	s.handler = ep.handler
	ep.streams.Insert(s)
	if sid > ep.highestStreamID {
		ep.highestStreamID = sid
	}
	return s, nil
}

func (ep *Endpoint) peerInitiatedCount() int {
	n := 0
	ep.streams.mu.Lock()
	for _, s := range ep.streams.list {
		if s.peerInitiated && s.State() != StreamClosed {
			n++
		}
	}
	ep.streams.mu.Unlock()
	return n
}

func (ep *Endpoint) resetStream(s *Stream, code ErrorCode) {
	rst := AcquireFrame(FrameResetStream).(*RstStream)
	rst.SetCode(code)
	ep.writeFrame(s.id, rst)
	s.close(closeReasonFromCode(code), code, true)
}

// writeFrame serializes body as a complete frame for stream id and
// writes it out, under the write mutex so header+payload stay atomic.
func (ep *Endpoint) writeFrame(id uint32, body Frame) {
	ep.mu.Lock()
	defer ep.mu.Unlock()

	frh := AcquireFrameHeader()
	frh.SetBody(body)
	frh.SetStream(id)
	body.Serialize(frh)
	frh.length = len(frh.payload)

	var header [frameHeaderLen]byte
	frh.parseHeader(header[:])

	if !ep.writable.IsConnected() {
		ReleaseFrameHeader(frh)
		return
	}

	_, err1 := ep.writable.Write(header[:])
	_, err2 := ep.writable.Write(frh.payload)
	ep.writable.Flush()
	ReleaseFrameHeader(frh)

	if err1 != nil || err2 != nil || !ep.writable.IsWritable() {
		ep.consecutiveWriteErrors++
		if ep.consecutiveWriteErrors > maxConsecutiveWriteErrors {
			ep.logger.Printf("%s: %d consecutive write failures, tearing down", ep.writable.RemoteName(), ep.consecutiveWriteErrors)
			ep.teardown(EnhanceYourCalm, "too many consecutive write failures")
		}
		return
	}
	ep.consecutiveWriteErrors = 0
}

func (ep *Endpoint) sendSettings() {
	st := AcquireFrame(FrameSettings).(*Settings)
	ep.localSettings.CopyTo(st)
	ep.writeFrame(0, st)
	ep.settingsSent = true
}

// connSendWindowAvail reports how many octets of DATA this endpoint may
// still emit across all streams before the connection-level window is
// exhausted.
func (ep *Endpoint) connSendWindowAvail() int64 {
	ep.mu.Lock()
	defer ep.mu.Unlock()
	return ep.connSendWindow
}

func (ep *Endpoint) consumeConnSendWindow(n int64) {
	ep.mu.Lock()
	ep.connSendWindow -= n
	ep.mu.Unlock()
}

// accountConnRecv debits the connection-level receive window as DATA
// arrives and tops it back up with an unsolicited WINDOW_UPDATE once it
// runs low, so a single connection's aggregate inbound DATA rate isn't
// throttled to the initial 64 KiB window for the whole connection.
func (ep *Endpoint) accountConnRecv(n int64) {
	ep.mu.Lock()
	ep.connRecvWindow -= n
	low := ep.connRecvWindow < connWindowFloor
	inc := int64(connWindowTarget) - ep.connRecvWindow
	if low {
		ep.connRecvWindow += inc
	}
	ep.mu.Unlock()

	if low && inc > 0 {
		wu := AcquireFrame(FrameWindowUpdate).(*WindowUpdate)
		wu.SetIncrement(int(inc))
		ep.writeFrame(0, wu)
	}
}

// teardown sends GOAWAY (if still writable) and marks the connection
// closed; Feed becomes a no-op afterward.
func (ep *Endpoint) teardown(code ErrorCode, reason string) {
	if ep.closed {
		return
	}
	ep.closed = true

	if ep.writable.IsConnected() {
		ga := AcquireFrame(FrameGoAway).(*GoAway)
		ga.SetStream(ep.highestStreamID)
		ga.SetCode(code)
		ep.writeFrame(0, ga)
	}

	ep.streams.mu.Lock()
	list := append([]*Stream(nil), ep.streams.list...)
	ep.streams.mu.Unlock()
	for _, s := range list {
		s.close(closeReasonFromCode(code), code, true)
	}
}

// CreateRequestStream allocates a new client-initiated stream. The
// caller sends the request on it with Stream.SendRequest.
func (ep *Endpoint) CreateRequestStream() *Stream {
	ep.mu.Lock()
	id := ep.nextStreamID
	ep.nextStreamID += 2
	ep.mu.Unlock()

	s := newStream(id, ep.localSettings.MaxWindowSize(), ep.peerSettings.MaxWindowSize())
	s.state = StreamOpen
	s.ep = ep
	s.handler = ep.handler
	ep.streams.Insert(s)
	if id > ep.highestStreamID {
		ep.highestStreamID = id
	}
	return s
}

// Close sends GOAWAY with NoError and stops accepting further Feed
// calls, the graceful-shutdown path (as opposed to teardown, which is
// error-triggered).
func (ep *Endpoint) Close() {
	ep.teardown(NoError, "")
}

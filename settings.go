package http2

import (
	"github.com/omegazero-org/omz-http-lib/http2utils"
)

const FrameSettings FrameType = 0x4

// Settings parameter identifiers.
//
// https://tools.ietf.org/html/rfc7540#section-6.5.2
const (
	SettingHeaderTableSize      uint16 = 0x1
	SettingEnablePush           uint16 = 0x2
	SettingMaxConcurrentStreams uint16 = 0x3
	SettingInitialWindowSize    uint16 = 0x4
	SettingMaxFrameSize         uint16 = 0x5
	SettingMaxHeaderListSize    uint16 = 0x6
)

const (
	defaultHeaderTableSize   = 4096
	defaultInitialWindowSize = 1<<16 - 1
)

var _ Frame = &Settings{}

type settingPair struct {
	id    uint16
	value uint32
}

// Settings represents a SETTINGS frame (RFC 7540 §6.5): either a batch
// of parameter changes, or (when IsAck is true) the empty acknowledgment
// of a previously sent batch. Only parameters explicitly Set are
// present in pairs; an absent parameter means "unchanged from whatever
// was last negotiated", not zero.
type Settings struct {
	ack   bool
	pairs []settingPair
}

func (st *Settings) Type() FrameType {
	return FrameSettings
}

func (st *Settings) Reset() {
	st.ack = false
	st.pairs = st.pairs[:0]
}

func (st *Settings) CopyTo(other *Settings) {
	other.ack = st.ack
	other.pairs = append(other.pairs[:0], st.pairs...)
}

// IsAck reports whether this is a SETTINGS acknowledgment.
func (st *Settings) IsAck() bool {
	return st.ack
}

func (st *Settings) SetAck(v bool) {
	st.ack = v
}

func (st *Settings) get(id uint16) (uint32, bool) {
	for _, p := range st.pairs {
		if p.id == id {
			return p.value, true
		}
	}
	return 0, false
}

func (st *Settings) set(id uint16, value uint32) {
	for i, p := range st.pairs {
		if p.id == id {
			st.pairs[i].value = value
			return
		}
	}
	st.pairs = append(st.pairs, settingPair{id, value})
}

// Each lets a caller iterate every parameter present in this frame, in
// wire order, without allocating.
func (st *Settings) Each(f func(id uint16, value uint32)) {
	for _, p := range st.pairs {
		f(p.id, p.value)
	}
}

// HeaderTableSize returns SETTINGS_HEADER_TABLE_SIZE, or the RFC
// default of 4096 if this frame doesn't set it.
func (st *Settings) HeaderTableSize() uint32 {
	v, ok := st.get(SettingHeaderTableSize)
	if !ok {
		return defaultHeaderTableSize
	}
	return v
}

func (st *Settings) SetHeaderTableSize(v uint32) {
	st.set(SettingHeaderTableSize, v)
}

// Push returns SETTINGS_ENABLE_PUSH, defaulting to enabled (RFC says a
// default of 1, i.e. enabled, until told otherwise).
func (st *Settings) Push() bool {
	v, ok := st.get(SettingEnablePush)
	if !ok {
		return true
	}
	return v != 0
}

func (st *Settings) SetPush(enable bool) {
	v := uint32(0)
	if enable {
		v = 1
	}
	st.set(SettingEnablePush, v)
}

// MaxConcurrentStreams returns SETTINGS_MAX_CONCURRENT_STREAMS and
// whether it was present; the RFC default is "unlimited", which this
// engine represents as the absence of the setting rather than a magic
// sentinel value.
func (st *Settings) MaxConcurrentStreams() (uint32, bool) {
	return st.get(SettingMaxConcurrentStreams)
}

func (st *Settings) SetMaxConcurrentStreams(v uint32) {
	st.set(SettingMaxConcurrentStreams, v)
}

// MaxWindowSize returns SETTINGS_INITIAL_WINDOW_SIZE, defaulting to
// 65535 per RFC 7540 §6.5.2.
func (st *Settings) MaxWindowSize() uint32 {
	v, ok := st.get(SettingInitialWindowSize)
	if !ok {
		return defaultInitialWindowSize
	}
	return v
}

func (st *Settings) SetMaxWindowSize(v uint32) {
	st.set(SettingInitialWindowSize, v)
}

// MaxFrameSize returns SETTINGS_MAX_FRAME_SIZE, defaulting to 16384.
func (st *Settings) MaxFrameSize() uint32 {
	v, ok := st.get(SettingMaxFrameSize)
	if !ok {
		return defaultMaxLen
	}
	return v
}

func (st *Settings) SetMaxFrameSize(v uint32) {
	st.set(SettingMaxFrameSize, v)
}

// MaxHeaderListSize returns SETTINGS_MAX_HEADER_LIST_SIZE and whether
// it was present; absent means the peer hasn't advertised a limit.
func (st *Settings) MaxHeaderListSize() (uint32, bool) {
	return st.get(SettingMaxHeaderListSize)
}

func (st *Settings) SetMaxHeaderListSize(v uint32) {
	st.set(SettingMaxHeaderListSize, v)
}

func (st *Settings) Deserialize(fr *FrameHeader) error {
	st.ack = fr.Flags().Has(FlagAck)
	if st.ack {
		if len(fr.payload) != 0 {
			return ErrPayloadExceeds
		}
		return nil
	}

	if len(fr.payload)%6 != 0 {
		return ErrMissingBytes
	}

	st.pairs = st.pairs[:0]
	for i := 0; i+6 <= len(fr.payload); i += 6 {
		id := uint16(fr.payload[i])<<8 | uint16(fr.payload[i+1])
		value := http2utils.BytesToUint32(fr.payload[i+2 : i+6])
		st.pairs = append(st.pairs, settingPair{id, value})
	}

	return nil
}

func (st *Settings) Serialize(fr *FrameHeader) {
	fr.payload = fr.payload[:0]

	if st.ack {
		fr.SetFlags(fr.Flags().Add(FlagAck))
		return
	}

	for _, p := range st.pairs {
		fr.payload = append(fr.payload, byte(p.id>>8), byte(p.id))
		fr.payload = http2utils.AppendUint32Bytes(fr.payload, p.value)
	}
}

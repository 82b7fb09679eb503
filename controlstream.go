package http2

// handleControlFrame processes a frame addressed to stream 0: spec
// component J. HEADERS/DATA/CONTINUATION/PUSH_PROMISE/RST_STREAM on
// stream 0 are protocol errors — they only make sense on a message
// stream.
func (ep *Endpoint) handleControlFrame(frh *FrameHeader) error {
	switch frh.Type() {
	case FrameSettings:
		return ep.handleSettings(frh)
	case FramePing:
		return ep.handlePing(frh)
	case FrameGoAway:
		return ep.handleGoAway(frh)
	case FrameWindowUpdate:
		return ep.handleConnectionWindowUpdate(frh)
	case FramePriority:
		return nil
	default:
		return NewError(ProtocolError, "frame type not valid on stream 0")
	}
}

func (ep *Endpoint) handleSettings(frh *FrameHeader) error {
	st := frh.Body().(*Settings)
	if st.IsAck() {
		return nil
	}

	var rangeErr error
	st.Each(func(id uint16, value uint32) {
		if rangeErr != nil {
			return
		}
		switch id {
		case SettingEnablePush:
			if value > 1 {
				rangeErr = NewError(ProtocolError, "SETTINGS_ENABLE_PUSH must be 0 or 1")
			}
		case SettingInitialWindowSize:
			if value > 1<<31-1 {
				rangeErr = NewError(FlowControlError, "SETTINGS_INITIAL_WINDOW_SIZE out of range")
			}
		case SettingMaxFrameSize:
			if value < defaultMaxLen || value > 1<<24-1 {
				rangeErr = NewError(ProtocolError, "SETTINGS_MAX_FRAME_SIZE out of range")
			}
		}
	})
	if rangeErr != nil {
		return rangeErr
	}

	prevWindow := ep.peerSettings.MaxWindowSize()
	st.Each(func(id uint16, value uint32) { ep.peerSettings.set(id, value) })
	ep.enc.SetMaxTableSize(int(ep.peerSettings.HeaderTableSize()))

	if delta := int64(ep.peerSettings.MaxWindowSize()) - int64(prevWindow); delta != 0 {
		ep.applyInitialWindowDelta(delta)
	}

	ack := AcquireFrame(FrameSettings).(*Settings)
	ack.SetAck(true)
	ep.writeFrame(0, ack)
	return nil
}

// applyInitialWindowDelta adjusts every open stream's send window by
// delta when SETTINGS_INITIAL_WINDOW_SIZE changes (RFC 7540 §6.9.2):
// the change affects the space available to all existing streams, not
// just ones opened after it.
func (ep *Endpoint) applyInitialWindowDelta(delta int64) {
	ep.streams.mu.Lock()
	list := append([]*Stream(nil), ep.streams.list...)
	ep.streams.mu.Unlock()

	for _, s := range list {
		s.mu.Lock()
		s.sendWindow += delta
		s.mu.Unlock()
		ep.drainBacklog(s)
	}
}

func (ep *Endpoint) handlePing(frh *FrameHeader) error {
	p := frh.Body().(*Ping)
	if p.ack {
		return nil
	}
	pong := AcquireFrame(FramePing).(*Ping)
	pong.SetData(p.Data())
	pong.ack = true
	ep.writeFrame(0, pong)
	return nil
}

func (ep *Endpoint) handleGoAway(frh *FrameHeader) error {
	ga := frh.Body().(*GoAway)
	ep.logger.Printf("%s: received GOAWAY stream=%d code=%s", ep.writable.RemoteName(), ga.Stream(), ga.Code())
	ep.teardown(NoError, "")
	return nil
}

func (ep *Endpoint) handleConnectionWindowUpdate(frh *FrameHeader) error {
	wu := frh.Body().(*WindowUpdate)
	if wu.Increment() == 0 {
		return NewError(ProtocolError, "connection WINDOW_UPDATE with a zero increment")
	}

	ep.mu.Lock()
	next := ep.connSendWindow + int64(wu.Increment())
	overflow := next > 1<<31-1
	if !overflow {
		ep.connSendWindow = next
	}
	ep.mu.Unlock()

	if overflow {
		return NewError(FlowControlError, "connection window update overflow")
	}

	ep.streams.mu.Lock()
	list := append([]*Stream(nil), ep.streams.list...)
	ep.streams.mu.Unlock()
	for _, s := range list {
		ep.drainBacklog(s)
	}
	return nil
}

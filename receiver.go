package hudp

// gapScanIntervalMs is the fixed cadence of the periodic gap-skip scanner,
// independent of GapSkipTimeoutMs (which is the tolerance threshold the
// scanner checks against, not its polling period).
const gapScanIntervalMs = 50

// handleReliableData implements the receiver side of the reliable channel:
// unconditional per-arrival ACK, then in-order delivery, out-of-order
// buffering, duplicate suppression, or outright discard depending on where
// the sequence number falls relative to expected.
func (t *Transport) handleReliableData(p *peerState, hdr Header, payload []byte) {
	now := t.clk.nowMs()
	t.transmit(p, Header{Channel: ChannelReliable, Flags: FlagACK, Seq: hdr.Seq, TsMs: now}, nil)
	t.emitEvent(Event{Kind: EventAckTx, Channel: ChannelReliable, Peer: p.key, Seq: hdr.Seq})

	rc := &p.recv
	switch {
	case hdr.Seq == rc.expected:
		t.deliverAndAdvance(p, hdr.Seq, payload, false)
		t.drainBuffered(p)
		t.updateGapState(p, now)
	case seqLT(hdr.Seq, rc.expected):
		// Duplicate of an already-delivered (or already-skipped-past)
		// sequence number. The ACK sent above is all it gets.
	case seqInWindow(hdr.Seq, rc.expected, t.config.RecvWindowSize):
		if _, exists := rc.buffer[hdr.Seq]; !exists {
			rc.buffer[hdr.Seq] = payload
		}
		if !rc.gapHasPending {
			rc.gapFirstSeen = now
			rc.gapHasPending = true
		}
	default:
		// Outside the receive window: too far ahead to buffer. Discarded.
	}
}

// deliverAndAdvance hands one payload to the application and advances
// expected past it.
func (t *Transport) deliverAndAdvance(p *peerState, seq uint16, payload []byte, skipped bool) {
	rc := &p.recv
	rc.expected = seq + 1
	t.emitEvent(Event{Kind: EventDeliver, Channel: ChannelReliable, Peer: p.key, Seq: seq, InOrder: !skipped, Skipped: skipped})
	t.deliver(p, Delivery{Channel: ChannelReliable, Peer: p.key, Seq: seq, Payload: payload, InOrder: !skipped, Skipped: skipped})
}

// drainBuffered delivers every contiguous run starting at expected that is
// already sitting in the out-of-order buffer.
func (t *Transport) drainBuffered(p *peerState) {
	rc := &p.recv
	for {
		seq := rc.expected
		payload, ok := rc.buffer[seq]
		if !ok {
			break
		}
		delete(rc.buffer, seq)
		t.deliverAndAdvance(p, seq, payload, false)
	}
}

// updateGapState keeps gapFirstSeen/gapHasPending in sync with whether
// anything above expected is currently buffered.
func (t *Transport) updateGapState(p *peerState, now uint32) {
	rc := &p.recv
	if len(rc.buffer) == 0 {
		rc.gapHasPending = false
		return
	}
	if !rc.gapHasPending {
		rc.gapFirstSeen = now
		rc.gapHasPending = true
	}
}

// gapScanOnce is the recurring timer job: check every peer's receive
// channel for a gap that has outlasted GapSkipTimeoutMs, then reschedule
// itself.
func (t *Transport) gapScanOnce() {
	now := t.clk.nowMs()
	for _, p := range t.peers {
		t.gapScanPeer(p, now)
	}
	t.timers.push(int64(now)+gapScanIntervalMs, t.gapScanOnce)
}

// gapScanPeer skips one peer's receive cursor past a persistent gap once
// it has waited at least GapSkipTimeoutMs, delivering the sequence it
// skips to as out-of-order.
func (t *Transport) gapScanPeer(p *peerState, now uint32) {
	rc := &p.recv
	if !rc.gapHasPending {
		return
	}
	waited := diffMs(now, rc.gapFirstSeen)
	if waited < int64(t.config.GapSkipTimeoutMs) {
		return
	}

	next, found := t.smallestBufferedAbove(rc)
	if !found {
		rc.gapHasPending = false
		return
	}

	from := rc.expected
	payload := rc.buffer[next]
	delete(rc.buffer, next)
	t.emitEvent(Event{Kind: EventSkipGap, Channel: ChannelReliable, Peer: p.key, FromSeq: from, ToSeq: next, WaitedMs: waited})
	t.deliverAndAdvance(p, next, payload, true)
	t.drainBuffered(p)
	t.updateGapState(p, now)
}

// smallestBufferedAbove scans the receive window for the nearest buffered
// sequence number strictly ahead of expected.
func (t *Transport) smallestBufferedAbove(rc *recvChannel) (uint16, bool) {
	for i := 1; i < t.config.RecvWindowSize; i++ {
		seq := rc.expected + uint16(i)
		if _, ok := rc.buffer[seq]; ok {
			return seq, true
		}
	}
	return 0, false
}

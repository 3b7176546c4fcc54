package hudp

// trySendReliable runs on the engine goroutine: admits the payload
// immediately if the send window has room, otherwise queues the caller as
// a waiter until a slot frees up (via ACK or drop) or the transport closes
// (which fails the waiter with ErrClosed).
func (t *Transport) trySendReliable(peerKey string, payload []byte, resultCh chan error) {
	p, ok := t.peers[peerKey]
	if !ok {
		resultCh <- ErrUnknownPeer
		return
	}
	sc := &p.send
	if sc.windowFull(t.config.SendWindowSize) {
		sc.waiters = append(sc.waiters, &sendWaiter{payload: payload, resultCh: resultCh})
		return
	}
	t.admitSend(p, payload, resultCh)
}

// admitSend allocates the next sequence number, transmits the packet,
// arms its retransmission timer, and resolves the caller's Send.
func (t *Transport) admitSend(p *peerState, payload []byte, resultCh chan error) {
	sc := &p.send
	seq := sc.nextSeq
	sc.nextSeq++

	now := t.clk.nowMs()
	entry := &inFlightEntry{payload: payload, sentAtMs: now, txCount: 1}
	sc.inFlight[seq] = entry

	t.transmit(p, Header{Channel: ChannelReliable, Seq: seq, TsMs: now}, payload)
	entry.timer = t.timers.push(int64(now)+int64(t.config.RetxTimeoutMs), func() {
		t.onRetxDeadline(p, seq)
	})
	t.emitEvent(Event{Kind: EventTxData, Channel: ChannelReliable, Peer: p.key, Seq: seq})
	resultCh <- nil
}

// cancelWaiter removes a still-queued waiter and fails it with
// ErrBackpressureCancelled. If the waiter has already been admitted
// (removed by wakeOneWaiter before this command ran), it is a no-op: the
// caller's resultCh already has its value.
func (t *Transport) cancelWaiter(peerKey string, resultCh chan error) {
	p, ok := t.peers[peerKey]
	if !ok {
		return
	}
	sc := &p.send
	for i, w := range sc.waiters {
		if w.resultCh == resultCh {
			sc.waiters = append(sc.waiters[:i], sc.waiters[i+1:]...)
			w.resultCh <- ErrBackpressureCancelled
			return
		}
	}
}

// wakeOneWaiter admits the longest-waiting blocked Send, if any, now that a
// window slot has freed up.
func (t *Transport) wakeOneWaiter(p *peerState) {
	sc := &p.send
	if len(sc.waiters) == 0 {
		return
	}
	w := sc.waiters[0]
	sc.waiters = sc.waiters[1:]
	t.admitSend(p, w.payload, w.resultCh)
}

// handleAck retires an in-flight entry, slides sendBase, samples RTT, and
// wakes the next blocked waiter.
func (t *Transport) handleAck(p *peerState, hdr Header) {
	sc := &p.send
	entry, ok := sc.inFlight[hdr.Seq]
	if !ok {
		return // late, duplicate, or already-dropped ack
	}
	now := t.clk.nowMs()
	t.timers.remove(entry.timer)
	delete(sc.inFlight, hdr.Seq)
	sc.advanceSendBase()

	rtt := diffMs(now, entry.sentAtMs)
	if entry.txCount == 1 {
		// Karn's algorithm: only sample RTT from packets that were never
		// retransmitted, since a retransmitted packet's ACK is ambiguous
		// about which transmission it answers.
		sc.updateRTT(rtt)
	}
	t.emitEvent(Event{Kind: EventAckRx, Channel: ChannelReliable, Peer: p.key, Seq: hdr.Seq, RTTMs: rtt})
	t.wakeOneWaiter(p)
}

// onRetxDeadline fires when an in-flight packet's retransmission timer
// expires without an ACK. It either retransmits or, past MaxRetx attempts,
// drops the packet and frees its window slot without ever notifying the
// caller (who already got a nil error when the packet was admitted).
func (t *Transport) onRetxDeadline(p *peerState, seq uint16) {
	sc := &p.send
	entry, ok := sc.inFlight[seq]
	if !ok {
		return
	}
	if entry.txCount >= t.config.MaxRetx {
		delete(sc.inFlight, seq)
		sc.advanceSendBase()
		t.emitEvent(Event{Kind: EventDropMaxRetx, Channel: ChannelReliable, Peer: p.key, Seq: seq, Count: entry.txCount})
		t.wakeOneWaiter(p)
		return
	}

	now := t.clk.nowMs()
	entry.txCount++
	entry.timer = t.timers.push(int64(now)+int64(t.config.RetxTimeoutMs), func() {
		t.onRetxDeadline(p, seq)
	})
	t.transmit(p, Header{Channel: ChannelReliable, Flags: FlagRETX, Seq: seq, TsMs: now}, entry.payload)
	t.emitEvent(Event{Kind: EventRetx, Channel: ChannelReliable, Peer: p.key, Seq: seq, Count: entry.txCount})
}

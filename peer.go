package hudp

import "net"

// inFlightEntry is one reliable packet a sender has transmitted at least
// once and is still waiting to have ACKed.
type inFlightEntry struct {
	payload  []byte
	sentAtMs uint32
	txCount  int
	timer    *timerItem
}

// sendWaiter is a reliable Send call blocked on send-window capacity.
type sendWaiter struct {
	payload  []byte
	resultCh chan error
}

// sendChannel is the per-peer sender side of the reliable channel: a
// sliding window of in-flight packets plus a FIFO of callers waiting for a
// free window slot.
//
// Invariant: sendBase equals the smallest sequence number with an entry in
// inFlight, or nextSeq when inFlight is empty.
type sendChannel struct {
	nextSeq  uint16
	sendBase uint16
	inFlight map[uint16]*inFlightEntry
	waiters  []*sendWaiter

	rttEstimateMs int64
	rttVarMs      int64
}

func newSendChannel() sendChannel {
	return sendChannel{inFlight: make(map[uint16]*inFlightEntry)}
}

// updateRTT folds one RTT sample into a smoothed estimate, in the style of
// a standard SRTT/RTTVAR estimator. The estimate is kept as internal state
// only: nothing reads it back, EventAckRx carries the raw per-ACK sample
// rather than the estimate, and the retransmission timeout is fixed, not
// adaptive.
func (sc *sendChannel) updateRTT(sampleMs int64) {
	if sc.rttEstimateMs == 0 {
		sc.rttEstimateMs = sampleMs
		sc.rttVarMs = sampleMs / 2
		return
	}
	diff := sampleMs - sc.rttEstimateMs
	sc.rttEstimateMs += diff / 8
	if diff < 0 {
		diff = -diff
	}
	sc.rttVarMs += (diff - sc.rttVarMs) / 4
}

// recvChannel is the per-peer receiver side of the reliable channel: the
// next sequence number expected in order, an out-of-order buffer of
// already-arrived-but-not-yet-deliverable packets, and the gap-skip clock.
type recvChannel struct {
	expected      uint16
	buffer        map[uint16][]byte
	gapFirstSeen  uint32
	gapHasPending bool // true iff gapFirstSeen is meaningful
}

func newRecvChannel() recvChannel {
	return recvChannel{buffer: make(map[uint16][]byte)}
}

// unreliableOut tracks the independent, ACK-free sequence counter used for
// the unreliable channel. It exists only to give observability/ordering
// diagnostics a monotonically increasing number; the receiver does nothing
// with it beyond decoding.
type unreliableOut struct {
	nextSeq uint16
}

// peerState is the complete per-remote-address session: one reliable
// sender, one reliable receiver, and one unreliable sequence counter. A
// Client has exactly one peerState (the server); a Server holds one per
// distinct remote address it has heard from.
type peerState struct {
	key            string
	addr           *net.UDPAddr
	send           sendChannel
	recv           recvChannel
	unrel          unreliableOut
	lastActivityMs uint32
}

func newPeerState(key string, addr *net.UDPAddr, nowMs uint32) *peerState {
	return &peerState{
		key:            key,
		addr:           addr,
		send:           newSendChannel(),
		recv:           newRecvChannel(),
		lastActivityMs: nowMs,
	}
}

// advanceSendBase moves sendBase forward past every sequence number that no
// longer has an in-flight entry (because it was ACKed or dropped), stopping
// at the oldest remaining in-flight entry or at nextSeq if none remain.
func (sc *sendChannel) advanceSendBase() {
	for sc.sendBase != sc.nextSeq {
		if _, ok := sc.inFlight[sc.sendBase]; ok {
			break
		}
		sc.sendBase++
	}
}

// windowFull reports whether the sender currently has capacity-many
// packets in flight.
func (sc *sendChannel) windowFull(capacity int) bool {
	return len(sc.inFlight) >= capacity
}

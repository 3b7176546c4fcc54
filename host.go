package hudp

import (
	"context"
	"math/rand"
	"net"
	"sync"
	"sync/atomic"
	"time"
)

// inboundPacket is a raw datagram handed from the socket-reading goroutine
// to the engine goroutine.
type inboundPacket struct {
	data []byte
	addr *net.UDPAddr
}

// maxDatagramSize is large enough for any UDP payload a peer could send us,
// independent of our own configured MTU.
const maxDatagramSize = 65535

// Transport is the single owner of a UDP socket and all reliability state
// for every peer it talks to. All mutation of peer/timer state happens on
// one goroutine (run); the public Send/Close methods hand work to it over
// channels instead of taking locks. Client and Server are thin wrappers
// that give this shared engine a client-shaped or server-shaped API.
type Transport struct {
	conn     *net.UDPConn
	isServer bool
	config   Config
	logger   Logger
	onRecv   RecvCallback
	onEvent  EventCallback

	clk    *clock
	timers *timerQueue
	peers  map[string]*peerState
	rng    *rand.Rand

	cmdCh     chan func()
	inboundCh chan inboundPacket
	closeCh   chan struct{}
	closed    int32
	wg        sync.WaitGroup
}

type transportOptions struct {
	config   Config
	logger   Logger
	onRecv   RecvCallback
	onEvent  EventCallback
	isServer bool
}

func newTransport(conn *net.UDPConn, opts transportOptions) *Transport {
	cfg := opts.config.withDefaults()
	logger := opts.logger
	if logger == nil {
		logger = defaultLogger()
	}
	t := &Transport{
		conn:      conn,
		isServer:  opts.isServer,
		config:    cfg,
		logger:    logger,
		onRecv:    opts.onRecv,
		onEvent:   opts.onEvent,
		clk:       newClock(),
		timers:    newTimerQueue(),
		peers:     make(map[string]*peerState),
		rng:       rand.New(rand.NewSource(1)),
		cmdCh:     make(chan func()),
		inboundCh: make(chan inboundPacket, 256),
		closeCh:   make(chan struct{}),
	}
	return t
}

// start applies socket buffer sizing and launches the reader and engine
// goroutines.
func (t *Transport) start() {
	if t.config.SocketRcvBuf > 0 {
		if err := t.conn.SetReadBuffer(t.config.SocketRcvBuf); err != nil {
			t.logger.Warn("set read buffer failed", map[string]interface{}{"err": err.Error()})
		}
	}
	if t.config.SocketSndBuf > 0 {
		if err := t.conn.SetWriteBuffer(t.config.SocketSndBuf); err != nil {
			t.logger.Warn("set write buffer failed", map[string]interface{}{"err": err.Error()})
		}
	}
	t.wg.Add(2)
	go t.readLoop()
	go t.run()
}

// readLoop does nothing but pull datagrams off the socket and hand them to
// the engine goroutine; it holds no reliability state of its own.
func (t *Transport) readLoop() {
	defer t.wg.Done()
	buf := make([]byte, maxDatagramSize)
	for {
		n, addr, err := t.conn.ReadFromUDP(buf)
		if err != nil {
			select {
			case <-t.closeCh:
				return
			default:
			}
			// A read error other than our own Close is not fatal: log it,
			// emit it as an observable event, and retry on the next pass
			// through the loop.
			t.logger.Warn("socket read error, retrying", map[string]interface{}{"err": err.Error()})
			select {
			case t.cmdCh <- func() { t.emitEvent(Event{Kind: EventSocketError, Err: err}) }:
			case <-t.closeCh:
				return
			}
			continue
		}
		data := make([]byte, n)
		copy(data, buf[:n])
		select {
		case t.inboundCh <- inboundPacket{data: data, addr: addr}:
		case <-t.closeCh:
			return
		}
	}
}

// run is the single engine goroutine: every read and write of peer state,
// timer state, and the socket's write side happens here, in the order
// events are observed. No mutex is needed because nothing else touches
// this state.
func (t *Transport) run() {
	defer t.wg.Done()
	t.timers.push(int64(t.clk.nowMs())+gapScanIntervalMs, t.gapScanOnce)

	for {
		var timerC <-chan time.Time
		var tm *time.Timer
		if deadline, ok := t.timers.peekDeadlineMs(); ok {
			wait := time.Duration(deadline-int64(t.clk.nowMs())) * time.Millisecond
			if wait < 0 {
				wait = 0
			}
			tm = time.NewTimer(wait)
			timerC = tm.C
		}

		select {
		case <-t.closeCh:
			if tm != nil {
				tm.Stop()
			}
			t.shutdown()
			return
		case pkt := <-t.inboundCh:
			if tm != nil {
				tm.Stop()
			}
			t.handleInbound(pkt)
		case cmd := <-t.cmdCh:
			if tm != nil {
				tm.Stop()
			}
			cmd()
		case <-timerC:
			t.runDueTimers()
		}
	}
}

func (t *Transport) runDueTimers() {
	now := int64(t.clk.nowMs())
	for _, cb := range t.timers.popDue(now) {
		cb()
	}
}

// shutdown runs once, on the engine goroutine, when Close has signalled
// closeCh: it closes the socket and fails every still-blocked reliable
// Send with ErrClosed.
func (t *Transport) shutdown() {
	_ = t.conn.Close()
	for _, p := range t.peers {
		for _, w := range p.send.waiters {
			w.resultCh <- ErrClosed
		}
		p.send.waiters = nil
	}
}

// Close shuts the transport down and waits for both goroutines to exit. It
// is safe to call more than once.
func (t *Transport) Close() error {
	if !atomic.CompareAndSwapInt32(&t.closed, 0, 1) {
		return nil
	}
	close(t.closeCh)
	t.wg.Wait()
	return nil
}

func (t *Transport) isClosed() bool {
	return atomic.LoadInt32(&t.closed) != 0
}

// addPeer registers a peer up front. Used by a Client to create its single
// implicit peer (the server) at construction time, since a client cannot
// wait for an inbound datagram to learn who its peer is.
func (t *Transport) addPeer(key string, addr *net.UDPAddr) {
	done := make(chan struct{})
	select {
	case t.cmdCh <- func() {
		if _, ok := t.peers[key]; !ok {
			t.peers[key] = newPeerState(key, addr, t.clk.nowMs())
		}
		close(done)
	}:
	case <-t.closeCh:
		return
	}
	select {
	case <-done:
	case <-t.closeCh:
	}
}

// handleInbound runs on the engine goroutine for every datagram the reader
// goroutine delivers.
func (t *Transport) handleInbound(pkt inboundPacket) {
	hdr, payload, err := decode(pkt.data)
	if err != nil {
		t.logger.Debug("dropped malformed packet", map[string]interface{}{"from": pkt.addr.String()})
		return
	}

	key := pkt.addr.String()
	p, ok := t.peers[key]
	if !ok {
		if !t.isServer {
			// A client has exactly one peer, created at construction; a
			// datagram from any other address is not ours.
			return
		}
		p = newPeerState(key, pkt.addr, t.clk.nowMs())
		t.peers[key] = p
		t.logger.Debug("new peer", map[string]interface{}{"peer": key})
	}
	p.lastActivityMs = t.clk.nowMs()

	switch hdr.Channel {
	case ChannelUnreliable:
		t.emitEvent(Event{Kind: EventRxData, Channel: ChannelUnreliable, Peer: key, Seq: hdr.Seq})
		t.deliver(p, Delivery{Channel: ChannelUnreliable, Peer: key, Seq: hdr.Seq, TsMs: hdr.TsMs, Payload: payload})
	case ChannelReliable:
		if hdr.IsACK() {
			t.handleAck(p, hdr)
			return
		}
		t.emitEvent(Event{Kind: EventRxData, Channel: ChannelReliable, Peer: key, Seq: hdr.Seq})
		t.handleReliableData(p, hdr, payload)
	}
}

func (t *Transport) deliver(p *peerState, d Delivery) {
	if t.onRecv != nil {
		t.onRecv(d)
	}
}

func (t *Transport) emitEvent(e Event) {
	if t.onEvent != nil {
		t.onEvent(e)
	}
}

// transmit encodes and writes one datagram, applying the egress-only
// loss_prob/jitter_ms testing hooks. Jittered writes are dispatched from a
// timer so the engine goroutine never blocks on them; *net.UDPConn is safe
// for concurrent use, so no additional synchronization is needed.
func (t *Transport) transmit(p *peerState, hdr Header, payload []byte) {
	data := encode(hdr, payload)

	if t.config.LossProb > 0 && t.rng.Float64() < t.config.LossProb {
		t.emitEvent(Event{Kind: EventSimulatedLoss, Channel: hdr.Channel, Peer: p.key, Seq: hdr.Seq})
		return
	}

	if t.config.JitterMs > 0 {
		delay := time.Duration(t.rng.Int63n(int64(t.config.JitterMs)+1)) * time.Millisecond
		conn, addr := t.conn, p.addr
		time.AfterFunc(delay, func() {
			_, _ = conn.WriteToUDP(data, addr)
		})
		return
	}

	if _, err := t.conn.WriteToUDP(data, p.addr); err != nil {
		t.logger.Warn("socket write error", map[string]interface{}{"err": err.Error()})
		t.emitEvent(Event{Kind: EventSocketError, Peer: p.key, Err: err})
	}
}

// sendUnreliable is the unreliable-channel half of the public Send API:
// stateless except for its own sequence counter, never blocks, never
// retransmits.
func (t *Transport) sendUnreliable(peerKey string, payload []byte) error {
	if t.isClosed() {
		return ErrClosed
	}
	if HeaderSize+len(payload) > t.config.MTU {
		return ErrPayloadTooLarge
	}

	resultCh := make(chan error, 1)
	select {
	case t.cmdCh <- func() {
		p, ok := t.peers[peerKey]
		if !ok {
			resultCh <- ErrUnknownPeer
			return
		}
		seq := p.unrel.nextSeq
		p.unrel.nextSeq++
		t.transmit(p, Header{Channel: ChannelUnreliable, Seq: seq, TsMs: t.clk.nowMs()}, payload)
		t.emitEvent(Event{Kind: EventTxData, Channel: ChannelUnreliable, Peer: peerKey, Seq: seq})
		resultCh <- nil
	}:
	case <-t.closeCh:
		return ErrClosed
	}

	select {
	case err := <-resultCh:
		return err
	case <-t.closeCh:
		return ErrClosed
	}
}

// sendReliable is the reliable-channel half of the public Send API: it
// admits immediately if the send window has room, otherwise blocks until a
// slot frees up, the transport closes, or ctx is cancelled.
func (t *Transport) sendReliable(ctx context.Context, peerKey string, payload []byte) error {
	if t.isClosed() {
		return ErrClosed
	}
	if HeaderSize+len(payload) > t.config.MTU {
		return ErrPayloadTooLarge
	}

	resultCh := make(chan error, 1)
	select {
	case t.cmdCh <- func() { t.trySendReliable(peerKey, payload, resultCh) }:
	case <-t.closeCh:
		return ErrClosed
	}

	select {
	case err := <-resultCh:
		return err
	case <-t.closeCh:
		return ErrClosed
	case <-ctx.Done():
		done := make(chan struct{})
		select {
		case t.cmdCh <- func() { t.cancelWaiter(peerKey, resultCh); close(done) }:
		case <-t.closeCh:
			return ErrClosed
		}
		select {
		case <-done:
		case <-t.closeCh:
			return ErrClosed
		}
		select {
		case err := <-resultCh:
			return err
		case <-t.closeCh:
			return ErrClosed
		}
	}
}

// evictIdlePeers drops peer state (and fails any blocked Send on it with
// ErrClosed) for every peer whose last activity is older than idleFor.
// Only meaningful on a Server: a Client's single peer is never evicted.
func (t *Transport) evictIdlePeers(idleFor time.Duration) {
	done := make(chan struct{})
	select {
	case t.cmdCh <- func() {
		now := t.clk.nowMs()
		for key, p := range t.peers {
			if diffMs(now, p.lastActivityMs) < idleFor.Milliseconds() {
				continue
			}
			for _, w := range p.send.waiters {
				w.resultCh <- ErrClosed
			}
			delete(t.peers, key)
			t.logger.Debug("evicted idle peer", map[string]interface{}{"peer": key})
		}
		close(done)
	}:
	case <-t.closeCh:
		return
	}
	select {
	case <-done:
	case <-t.closeCh:
	}
}

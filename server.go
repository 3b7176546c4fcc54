package hudp

import (
	"context"
	"net"
	"time"
)

// Server is the application-facing handle for the server side of an H-UDP
// session: one UDP socket shared by every peer that has sent it a
// datagram. A peer entry is created lazily on first contact and, unless
// EvictIdlePeers is called, kept for the lifetime of the server.
type Server struct {
	t *Transport
}

// NewServer binds bindAddr and starts the server's engine goroutine.
// onRecv is called for every payload delivered from any peer on either
// channel; onEvent, if non-nil, receives the full diagnostic event stream.
func NewServer(bindAddr string, cfg Config, onRecv RecvCallback, onEvent EventCallback) (*Server, error) {
	addr, err := net.ResolveUDPAddr("udp", bindAddr)
	if err != nil {
		return nil, err
	}
	if err := cfg.withDefaults().validate(); err != nil {
		return nil, err
	}

	conn, err := net.ListenUDP("udp", addr)
	if err != nil {
		return nil, err
	}

	t := newTransport(conn, transportOptions{
		config:   cfg,
		logger:   cfg.Logger,
		onRecv:   onRecv,
		onEvent:  onEvent,
		isServer: true,
	})
	t.start()

	return &Server{t: t}, nil
}

// Send transmits payload to the peer at peerAddr. peerAddr must be the
// address of a peer the server has already heard from; a server never
// originates a session, so sending to an unknown address fails with
// ErrUnknownPeer rather than creating one.
func (s *Server) Send(ctx context.Context, peerAddr string, payload []byte, reliable bool) error {
	addr, err := net.ResolveUDPAddr("udp", peerAddr)
	if err != nil {
		return err
	}
	key := addr.String()
	if reliable {
		return s.t.sendReliable(ctx, key, payload)
	}
	return s.t.sendUnreliable(key, payload)
}

// Close stops the server's engine and closes its socket.
func (s *Server) Close() error {
	return s.t.Close()
}

// LocalAddr reports the address the server bound.
func (s *Server) LocalAddr() net.Addr {
	return s.t.conn.LocalAddr()
}

// EvictIdlePeers drops all per-peer state (send window, receive buffer,
// sequence counters) for any peer whose last activity is older than
// idleFor. Any Send currently blocked on an evicted peer's send window
// fails with ErrClosed. This is a supplemental operation beyond the base
// peer-table design, which never evicts during a run; long-lived servers
// need it to bound memory as clients come and go.
func (s *Server) EvictIdlePeers(idleFor time.Duration) {
	s.t.evictIdlePeers(idleFor)
}

package hudp

import (
	"context"
	"net"
)

// Client is the application-facing handle for the client side of an H-UDP
// session: one UDP socket, one peer (the server), and both channels.
type Client struct {
	t         *Transport
	serverKey string
}

// NewClient dials remoteAddr over UDP and starts the client's engine
// goroutine. onRecv is called for every payload delivered on either
// channel; onEvent, if non-nil, receives the full diagnostic event stream.
// Either callback may be nil.
func NewClient(remoteAddr string, cfg Config, onRecv RecvCallback, onEvent EventCallback) (*Client, error) {
	addr, err := net.ResolveUDPAddr("udp", remoteAddr)
	if err != nil {
		return nil, err
	}
	if err := cfg.withDefaults().validate(); err != nil {
		return nil, err
	}

	conn, err := net.ListenUDP("udp", nil)
	if err != nil {
		return nil, err
	}

	t := newTransport(conn, transportOptions{
		config:   cfg,
		logger:   cfg.Logger,
		onRecv:   onRecv,
		onEvent:  onEvent,
		isServer: false,
	})
	t.start()
	t.addPeer(addr.String(), addr)

	return &Client{t: t, serverKey: addr.String()}, nil
}

// Send transmits payload to the server on the unreliable or reliable
// channel. A reliable Send blocks until the packet is handed to the
// socket (i.e. admitted into the send window), ctx is cancelled, or the
// client is closed; an unreliable Send never blocks on backpressure.
func (c *Client) Send(ctx context.Context, payload []byte, reliable bool) error {
	if reliable {
		return c.t.sendReliable(ctx, c.serverKey, payload)
	}
	return c.t.sendUnreliable(c.serverKey, payload)
}

// Close stops the client's engine and closes its socket.
func (c *Client) Close() error {
	return c.t.Close()
}

// LocalAddr reports the ephemeral local address the client bound.
func (c *Client) LocalAddr() net.Addr {
	return c.t.conn.LocalAddr()
}

package hudp

import "errors"

// Sentinel errors returned from the public API. MalformedPacket is never
// surfaced this way: malformed datagrams are dropped silently at the
// transport boundary, observable only via logging.
var (
	// ErrPayloadTooLarge is returned when a payload plus header would
	// exceed the configured MTU.
	ErrPayloadTooLarge = errors.New("hudp: payload exceeds configured MTU")

	// ErrBackpressureCancelled is returned from a reliable Send when the
	// caller's context is cancelled while the send is blocked waiting for
	// send-window capacity.
	ErrBackpressureCancelled = errors.New("hudp: send cancelled while blocked on window")

	// ErrClosed is returned from every Send made after the transport has
	// been closed, and from a Send still waiting when it closes. Close
	// itself never returns it.
	ErrClosed = errors.New("hudp: transport closed")

	// ErrUnknownPeer is returned by Server.Send when no peer is known for
	// the given address; the server only learns of a peer from an inbound
	// datagram, so it cannot originate a session.
	ErrUnknownPeer = errors.New("hudp: unknown peer")

	// ErrMalformedPacket marks an inbound datagram that fails header
	// validation. It is used internally by decode and is never returned
	// to a Send/Recv caller.
	ErrMalformedPacket = errors.New("hudp: malformed packet")
)

// Config validation errors, returned from NewClient/NewServer.
var (
	errMTUTooSmall       = errors.New("hudp: MTU too small to carry a header")
	errWindowOutOfRange  = errors.New("hudp: window size must be in (0, 32768)")
	errMaxRetxOutOfRange = errors.New("hudp: max retx must be positive")
)

package hudp

// Config bundles every tunable knob for a Transport. Zero-value fields are
// filled in from DefaultConfig by NewClient/NewServer.
type Config struct {
	// MTU bounds HeaderSize+len(payload) for any single datagram.
	MTU int

	// RetxTimeoutMs is the fixed (non-adaptive) retransmission timeout
	// applied to every in-flight reliable packet.
	RetxTimeoutMs uint32

	// SendWindowSize bounds the number of un-ACKed reliable packets a
	// sender may have in flight at once.
	SendWindowSize int

	// RecvWindowSize bounds how far ahead of the expected sequence number
	// the receiver will buffer out-of-order reliable packets.
	RecvWindowSize int

	// MaxRetx is the number of transmission attempts (including the
	// first) before an in-flight packet is dropped and its window slot
	// freed without ever being acknowledged.
	MaxRetx int

	// GapSkipTimeoutMs is how long the receiver tolerates a gap at the
	// expected sequence number before skipping ahead to the next
	// contiguous run it has buffered.
	GapSkipTimeoutMs uint32

	// SocketRcvBuf and SocketSndBuf size the OS socket buffers via
	// SetReadBuffer/SetWriteBuffer.
	SocketRcvBuf int
	SocketSndBuf int

	// LossProb and JitterMs are egress-only testing hooks: LossProb
	// randomly drops outbound datagrams before the syscall, and JitterMs
	// randomly delays them up to that many milliseconds. Neither affects
	// inbound traffic.
	LossProb float64
	JitterMs uint32

	// Logger receives structured diagnostics from the Transport. Left
	// nil, NewClient/NewServer fall back to defaultLogger.
	Logger Logger
}

// DefaultConfig returns the baseline configuration used when a field is
// left at its zero value.
func DefaultConfig() Config {
	return Config{
		MTU:              1200,
		RetxTimeoutMs:    200,
		SendWindowSize:   64,
		RecvWindowSize:   64,
		MaxRetx:          10,
		GapSkipTimeoutMs: 200,
		SocketRcvBuf:     1 << 20,
		SocketSndBuf:     1 << 20,
		LossProb:         0,
		JitterMs:         0,
	}
}

// withDefaults fills any zero-valued field of c from DefaultConfig.
func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.MTU == 0 {
		c.MTU = d.MTU
	}
	if c.RetxTimeoutMs == 0 {
		c.RetxTimeoutMs = d.RetxTimeoutMs
	}
	if c.SendWindowSize == 0 {
		c.SendWindowSize = d.SendWindowSize
	}
	if c.RecvWindowSize == 0 {
		c.RecvWindowSize = d.RecvWindowSize
	}
	if c.MaxRetx == 0 {
		c.MaxRetx = d.MaxRetx
	}
	if c.GapSkipTimeoutMs == 0 {
		c.GapSkipTimeoutMs = d.GapSkipTimeoutMs
	}
	if c.SocketRcvBuf == 0 {
		c.SocketRcvBuf = d.SocketRcvBuf
	}
	if c.SocketSndBuf == 0 {
		c.SocketSndBuf = d.SocketSndBuf
	}
	return c
}

func (c Config) validate() error {
	if c.MTU <= HeaderSize {
		return errMTUTooSmall
	}
	if c.SendWindowSize <= 0 || c.SendWindowSize >= 0x8000 {
		return errWindowOutOfRange
	}
	if c.RecvWindowSize <= 0 || c.RecvWindowSize >= 0x8000 {
		return errWindowOutOfRange
	}
	if c.MaxRetx <= 0 {
		return errMaxRetxOutOfRange
	}
	return nil
}

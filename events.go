package hudp

// EventKind identifies the observable events a Transport emits during
// normal operation. These exist purely for diagnostics and testing; the
// application-facing contract is Send/Close plus the receive callback.
type EventKind int

const (
	EventTxData EventKind = iota
	EventRxData
	EventAckTx
	EventAckRx
	EventRetx
	EventDeliver
	EventSkipGap
	EventDropMaxRetx
	EventSimulatedLoss
	EventSocketError
)

func (k EventKind) String() string {
	switch k {
	case EventTxData:
		return "tx_data"
	case EventRxData:
		return "rx_data"
	case EventAckTx:
		return "ack_tx"
	case EventAckRx:
		return "ack_rx"
	case EventRetx:
		return "retx"
	case EventDeliver:
		return "deliver"
	case EventSkipGap:
		return "skip_gap"
	case EventDropMaxRetx:
		return "drop_max_retx"
	case EventSimulatedLoss:
		return "simulated_loss"
	case EventSocketError:
		return "socket_error"
	default:
		return "unknown"
	}
}

// Event is a single observable occurrence inside a Transport's engine.
// Fields not meaningful to Kind are left at their zero value.
type Event struct {
	Kind    EventKind
	Channel Channel
	Peer    string
	Seq     uint16

	// AckRx only.
	RTTMs int64

	// Retx and DropMaxRetx only: number of transmissions so far, including
	// the original.
	Count int

	// Deliver only.
	InOrder bool
	Skipped bool

	// SkipGap only.
	FromSeq  uint16
	ToSeq    uint16
	WaitedMs int64

	// SocketError only.
	Err error
}

// EventCallback receives a stream of Events from a Transport's engine
// goroutine. It must not block or call back into the Transport.
type EventCallback func(Event)

// Delivery is handed to a Transport's receive callback for every payload
// that crosses the application boundary, on either channel.
type Delivery struct {
	Channel Channel
	Peer    string
	Seq     uint16
	TsMs    uint32
	Payload []byte

	// InOrder and Skipped are meaningful only for ChannelReliable.
	InOrder bool
	Skipped bool

	// RTTMs is a best-effort round-trip estimate, meaningful only for
	// ChannelReliable. RTT is sampled on the sender's side of the
	// reliable channel when an ACK arrives, not at delivery time, so the
	// receiver has nothing to report here: always nil.
	RTTMs *int64
}

// RecvCallback receives every delivered payload. It must not block or call
// back into the Transport from the engine goroutine.
type RecvCallback func(Delivery)

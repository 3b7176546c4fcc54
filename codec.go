package hudp

import "encoding/binary"

// HeaderSize is the fixed on-wire header length in bytes.
const HeaderSize = 8

// Channel identifies which of the two multiplexed channels a packet
// belongs to.
type Channel uint8

const (
	ChannelUnreliable Channel = 0
	ChannelReliable   Channel = 1
)

func (c Channel) String() string {
	switch c {
	case ChannelUnreliable:
		return "unreliable"
	case ChannelReliable:
		return "reliable"
	default:
		return "invalid"
	}
}

// Flag is a bitmask of per-packet flags carried in the header.
type Flag uint8

const (
	// FlagACK marks a packet as an acknowledgment for Seq rather than data.
	FlagACK Flag = 1 << 0
	// FlagNACK is reserved for a future negative-acknowledgment extension
	// and is never set by this implementation.
	FlagNACK Flag = 1 << 1
	// FlagRETX marks a data packet as a retransmission, for diagnostics
	// only; it does not change receiver behavior.
	FlagRETX Flag = 1 << 2
)

// Header is the fixed 8-byte packet header:
//
//	channel uint8
//	flags   uint8
//	seq     uint16 (big-endian)
//	ts_ms   uint32 (big-endian)
type Header struct {
	Channel Channel
	Flags   Flag
	Seq     uint16
	TsMs    uint32
}

func (h Header) IsACK() bool  { return h.Flags&FlagACK != 0 }
func (h Header) IsRetx() bool { return h.Flags&FlagRETX != 0 }

func encodeHeader(h Header, dst []byte) {
	dst[0] = byte(h.Channel)
	dst[1] = byte(h.Flags)
	binary.BigEndian.PutUint16(dst[2:4], h.Seq)
	binary.BigEndian.PutUint32(dst[4:8], h.TsMs)
}

// encode renders a header and payload into a single wire datagram.
func encode(h Header, payload []byte) []byte {
	buf := make([]byte, HeaderSize+len(payload))
	encodeHeader(h, buf)
	copy(buf[HeaderSize:], payload)
	return buf
}

// decode parses a wire datagram. Any datagram shorter than HeaderSize or
// carrying a channel value outside {0,1} is malformed and must be dropped
// silently by the caller.
func decode(data []byte) (Header, []byte, error) {
	if len(data) < HeaderSize {
		return Header{}, nil, ErrMalformedPacket
	}
	ch := Channel(data[0])
	if ch != ChannelUnreliable && ch != ChannelReliable {
		return Header{}, nil, ErrMalformedPacket
	}
	h := Header{
		Channel: ch,
		Flags:   Flag(data[1]),
		Seq:     binary.BigEndian.Uint16(data[2:4]),
		TsMs:    binary.BigEndian.Uint32(data[4:8]),
	}
	return h, data[HeaderSize:], nil
}

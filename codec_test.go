package hudp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	hdr := Header{Channel: ChannelReliable, Flags: FlagACK, Seq: 4242, TsMs: 123456789}
	payload := []byte("hello h-udp")

	wire := encode(hdr, payload)
	require.Len(t, wire, HeaderSize+len(payload))

	got, body, err := decode(wire)
	require.NoError(t, err)
	assert.Equal(t, hdr, got)
	assert.Equal(t, payload, body)
}

func TestDecodeEmptyPayload(t *testing.T) {
	hdr := Header{Channel: ChannelReliable, Flags: FlagACK, Seq: 7, TsMs: 1}
	wire := encode(hdr, nil)
	require.Len(t, wire, HeaderSize)

	got, body, err := decode(wire)
	require.NoError(t, err)
	assert.Equal(t, hdr, got)
	assert.Empty(t, body)
}

func TestDecodeRejectsShortPacket(t *testing.T) {
	_, _, err := decode([]byte{0, 0, 0})
	assert.ErrorIs(t, err, ErrMalformedPacket)
}

func TestDecodeRejectsUnknownChannel(t *testing.T) {
	wire := make([]byte, HeaderSize)
	wire[0] = 2 // neither ChannelUnreliable nor ChannelReliable
	_, _, err := decode(wire)
	assert.ErrorIs(t, err, ErrMalformedPacket)
}

func TestHeaderFlagHelpers(t *testing.T) {
	ack := Header{Flags: FlagACK}
	assert.True(t, ack.IsACK())
	assert.False(t, ack.IsRetx())

	retx := Header{Flags: FlagRETX}
	assert.True(t, retx.IsRetx())
	assert.False(t, retx.IsACK())
}

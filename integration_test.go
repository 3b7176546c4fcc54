package hudp

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// collector is a concurrency-safe sink for Delivery values, used by the
// integration tests since onRecv runs on the Transport's engine goroutine,
// not the test goroutine.
type collector struct {
	mu   sync.Mutex
	recv []Delivery
}

func (c *collector) onRecv(d Delivery) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.recv = append(c.recv, d)
}

func (c *collector) snapshot() []Delivery {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Delivery, len(c.recv))
	copy(out, c.recv)
	return out
}

func waitForCount(t *testing.T, c *collector, n int, timeout time.Duration) []Delivery {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if snap := c.snapshot(); len(snap) >= n {
			return snap
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %d deliveries, got %d", n, len(c.snapshot()))
	return nil
}

func TestReliableLosslessDeliveryInOrder(t *testing.T) {
	server := &collector{}
	srv, err := NewServer("127.0.0.1:0", DefaultConfig(), server.onRecv, nil)
	require.NoError(t, err)
	defer srv.Close()

	cli, err := NewClient(srv.LocalAddr().String(), DefaultConfig(), nil, nil)
	require.NoError(t, err)
	defer cli.Close()

	const n = 50
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	for i := 0; i < n; i++ {
		require.NoError(t, cli.Send(ctx, []byte(fmt.Sprintf("msg-%d", i)), true))
	}

	got := waitForCount(t, server, n, 5*time.Second)
	require.Len(t, got, n)
	for i, d := range got {
		assert.Equal(t, fmt.Sprintf("msg-%d", i), string(d.Payload))
		assert.True(t, d.InOrder)
		assert.False(t, d.Skipped)
	}
}

func TestUnreliableLosslessDelivery(t *testing.T) {
	server := &collector{}
	srv, err := NewServer("127.0.0.1:0", DefaultConfig(), server.onRecv, nil)
	require.NoError(t, err)
	defer srv.Close()

	cli, err := NewClient(srv.LocalAddr().String(), DefaultConfig(), nil, nil)
	require.NoError(t, err)
	defer cli.Close()

	const n = 30
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	for i := 0; i < n; i++ {
		require.NoError(t, cli.Send(ctx, []byte(fmt.Sprintf("u-%d", i)), false))
	}

	got := waitForCount(t, server, n, 5*time.Second)
	assert.Len(t, got, n)
	for _, d := range got {
		assert.Equal(t, ChannelUnreliable, d.Channel)
	}
}

func TestReliableDeliveryUnderModerateLoss(t *testing.T) {
	cfg := DefaultConfig()
	cfg.LossProb = 0.2
	cfg.RetxTimeoutMs = 50

	server := &collector{}
	srv, err := NewServer("127.0.0.1:0", cfg, server.onRecv, nil)
	require.NoError(t, err)
	defer srv.Close()

	cli, err := NewClient(srv.LocalAddr().String(), cfg, nil, nil)
	require.NoError(t, err)
	defer cli.Close()

	const n = 40
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for i := 0; i < n; i++ {
		require.NoError(t, cli.Send(ctx, []byte(fmt.Sprintf("r-%d", i)), true))
	}

	got := waitForCount(t, server, n, 10*time.Second)
	require.Len(t, got, n)
	for i, d := range got {
		assert.Equal(t, fmt.Sprintf("r-%d", i), string(d.Payload))
	}
}

func TestServerEchoesToCorrectPeer(t *testing.T) {
	var srv *Server
	onServerRecv := func(d Delivery) {
		// onRecv runs on the engine goroutine, which Send hands its work
		// to, so the echo has to be sent from another goroutine.
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			_ = srv.Send(ctx, d.Peer, d.Payload, true)
		}()
	}
	var err error
	srv, err = NewServer("127.0.0.1:0", DefaultConfig(), onServerRecv, nil)
	require.NoError(t, err)
	defer srv.Close()

	clientColl := &collector{}
	cli, err := NewClient(srv.LocalAddr().String(), DefaultConfig(), clientColl.onRecv, nil)
	require.NoError(t, err)
	defer cli.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, cli.Send(ctx, []byte("ping"), true))

	got := waitForCount(t, clientColl, 1, 5*time.Second)
	require.Len(t, got, 1)
	assert.Equal(t, "ping", string(got[0].Payload))
}

func TestSendRejectsOversizedPayload(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MTU = 16
	srv, err := NewServer("127.0.0.1:0", cfg, nil, nil)
	require.NoError(t, err)
	defer srv.Close()

	cli, err := NewClient(srv.LocalAddr().String(), cfg, nil, nil)
	require.NoError(t, err)
	defer cli.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	err = cli.Send(ctx, make([]byte, 64), true)
	assert.ErrorIs(t, err, ErrPayloadTooLarge)
}

func TestCloseFailsSubsequentSend(t *testing.T) {
	srv, err := NewServer("127.0.0.1:0", DefaultConfig(), nil, nil)
	require.NoError(t, err)

	cli, err := NewClient(srv.LocalAddr().String(), DefaultConfig(), nil, nil)
	require.NoError(t, err)
	require.NoError(t, cli.Close())
	require.NoError(t, srv.Close())

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	err = cli.Send(ctx, []byte("late"), true)
	assert.ErrorIs(t, err, ErrClosed)
}

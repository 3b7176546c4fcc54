// Command hudp-server echoes every payload it receives back to its
// sender, on whichever channel it arrived on, for manual testing and as a
// usage example.
package main

import (
	"context"
	"os"
	"os/signal"
	"time"

	"github.com/rs/zerolog"
	flag "github.com/spf13/pflag"

	"github.com/hudp-go/hudp"
)

func installSignal() chan os.Signal {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt)
	return c
}

func panicIfError(err error) {
	if err != nil {
		panic(err)
	}
}

func main() {
	bind := flag.String("bind", "127.0.0.1:19191", "address to listen on")
	lossProb := flag.Float64("loss-prob", 0, "egress packet-loss probability, for testing")
	jitterMs := flag.Uint32("jitter-ms", 0, "egress jitter in milliseconds, for testing")
	idleTimeout := flag.Duration("idle-timeout", 0, "evict peers idle longer than this (0 disables eviction)")
	flag.Parse()

	logger := zerolog.New(os.Stderr).With().Timestamp().Str("role", "server").Logger()

	cfg := hudp.DefaultConfig()
	cfg.LossProb = *lossProb
	cfg.JitterMs = *jitterMs

	var s *hudp.Server

	onEvent := func(ev hudp.Event) {
		logger.Debug().Str("kind", ev.Kind.String()).Str("peer", ev.Peer).Uint16("seq", ev.Seq).Msg("event")
	}
	onRecv := func(d hudp.Delivery) {
		logger.Info().Str("peer", d.Peer).Str("channel", d.Channel.String()).
			Uint16("seq", d.Seq).Bytes("payload", d.Payload).Msg("received, echoing")
		// onRecv runs on the server's engine goroutine, which Send hands its
		// work to, so the echo is sent from another goroutine.
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			if err := s.Send(ctx, d.Peer, d.Payload, d.Channel == hudp.ChannelReliable); err != nil {
				logger.Warn().Err(err).Str("peer", d.Peer).Msg("echo failed")
			}
		}()
	}

	var err error
	s, err = hudp.NewServer(*bind, cfg, onRecv, onEvent)
	panicIfError(err)
	defer s.Close()

	logger.Info().Str("local", s.LocalAddr().String()).Msg("listening")

	if *idleTimeout > 0 {
		go func() {
			ticker := time.NewTicker(*idleTimeout / 2)
			defer ticker.Stop()
			for range ticker.C {
				s.EvictIdlePeers(*idleTimeout)
			}
		}()
	}

	<-installSignal()
	logger.Info().Msg("shutting down")
}

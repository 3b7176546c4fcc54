// Command hudp-client sends a stream of messages to a hudp-server on one
// channel (reliable by default, unreliable with --unreliable), for manual
// testing and as a usage example.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	flag "github.com/spf13/pflag"
	"golang.org/x/time/rate"

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
	server := flag.String("server", "127.0.0.1:19191", "hudp-server address to send to")
	rateFlag := flag.Float64("rate", 20, "messages per second")
	lossProb := flag.Float64("loss-prob", 0, "egress packet-loss probability, for testing")
	jitterMs := flag.Uint32("jitter-ms", 0, "egress jitter in milliseconds, for testing")
	unreliable := flag.Bool("unreliable", false, "send on the unreliable channel instead of the reliable one")
	flag.Parse()

	logger := zerolog.New(os.Stderr).With().Timestamp().Str("role", "client").Logger()
	sessionID := uuid.New().String()

	cfg := hudp.DefaultConfig()
	cfg.LossProb = *lossProb
	cfg.JitterMs = *jitterMs

	onEvent := func(ev hudp.Event) {
		logger.Debug().Str("kind", ev.Kind.String()).Uint16("seq", ev.Seq).Msg("event")
	}
	onRecv := func(d hudp.Delivery) {
		logger.Info().Str("channel", d.Channel.String()).Uint16("seq", d.Seq).
			Bytes("payload", d.Payload).Msg("received")
	}

	c, err := hudp.NewClient(*server, cfg, onRecv, onEvent)
	panicIfError(err)
	defer c.Close()

	logger.Info().Str("session", sessionID).Str("local", c.LocalAddr().String()).Msg("started")

	limiter := rate.NewLimiter(rate.Limit(*rateFlag), 1)
	sig := installSignal()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		<-sig
		cancel()
	}()

	var n int
	for {
		if err := limiter.Wait(ctx); err != nil {
			logger.Info().Msg("shutting down")
			return
		}
		payload := []byte(fmt.Sprintf("%s#%d", sessionID, n))
		n++
		sendCtx, done := context.WithTimeout(ctx, 2*time.Second)
		err := c.Send(sendCtx, payload, !*unreliable)
		done()
		if err != nil {
			logger.Warn().Err(err).Msg("send failed")
		}
	}
}

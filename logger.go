package hudp

import (
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Logger is the structured logging sink used by a Transport for everything
// that is not already surfaced through EventCallback: socket setup,
// malformed-packet drops, and peer creation and eviction. Socket read and
// write errors are logged here and also emitted as EventSocketError. The
// default Logger wraps the global zerolog logger.
type Logger interface {
	Debug(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, err error, fields map[string]interface{})
}

type zerologLogger struct {
	l zerolog.Logger
}

// NewZerologLogger wraps an existing zerolog.Logger for use as a Transport
// Logger.
func NewZerologLogger(l zerolog.Logger) Logger {
	return &zerologLogger{l: l}
}

func withFields(e *zerolog.Event, fields map[string]interface{}) *zerolog.Event {
	for k, v := range fields {
		e = e.Interface(k, v)
	}
	return e
}

func (z *zerologLogger) Debug(msg string, fields map[string]interface{}) {
	withFields(z.l.Debug(), fields).Msg(msg)
}

func (z *zerologLogger) Warn(msg string, fields map[string]interface{}) {
	withFields(z.l.Warn(), fields).Msg(msg)
}

func (z *zerologLogger) Error(msg string, err error, fields map[string]interface{}) {
	withFields(z.l.Error().Err(err), fields).Msg(msg)
}

// defaultLogger returns a Logger backed by zerolog's global logger, used
// when NewClient/NewServer are not given one explicitly.
func defaultLogger() Logger {
	return NewZerologLogger(log.Logger)
}

// Package webrtc hosts the peer connection that carries driver commands over a data channel.
package webrtc

import (
	"fmt"
	"sync/atomic"

	"github.com/pion/logging"
	"github.com/rs/zerolog"
)

// debugPion controls whether pion debug and trace logs are forwarded.
var debugPion atomic.Bool

// SetDebugLogging enables/disables verbose pion debug logs.
func SetDebugLogging(enabled bool) {
	debugPion.Store(enabled)
}

// loggerFactory routes pion logs into zerolog.
type loggerFactory struct {
	log zerolog.Logger
}

// NewLogger returns a scoped logger for one pion subsystem.
func (f loggerFactory) NewLogger(scope string) logging.LeveledLogger {
	return scopedLogger{log: f.log.With().Str("scope", scope).Logger()}
}

type scopedLogger struct {
	log zerolog.Logger
}

func (l scopedLogger) verbose(level zerolog.Level, msg string) {
	if debugPion.Load() {
		l.log.WithLevel(level).Msg(msg)
	}
}

func (l scopedLogger) Trace(msg string) {
	l.verbose(zerolog.TraceLevel, msg)
}

func (l scopedLogger) Tracef(format string, args ...any) {
	l.verbose(zerolog.TraceLevel, fmt.Sprintf(format, args...))
}

func (l scopedLogger) Debug(msg string) {
	l.verbose(zerolog.DebugLevel, msg)
}

func (l scopedLogger) Debugf(format string, args ...any) {
	l.verbose(zerolog.DebugLevel, fmt.Sprintf(format, args...))
}

func (l scopedLogger) Info(msg string) {
	l.log.Info().Msg(msg)
}

func (l scopedLogger) Infof(format string, args ...any) {
	l.log.Info().Msgf(format, args...)
}

func (l scopedLogger) Warn(msg string) {
	l.log.Warn().Msg(msg)
}

func (l scopedLogger) Warnf(format string, args ...any) {
	l.log.Warn().Msgf(format, args...)
}

func (l scopedLogger) Error(msg string) {
	l.log.Error().Msg(msg)
}

func (l scopedLogger) Errorf(format string, args ...any) {
	l.log.Error().Msgf(format, args...)
}

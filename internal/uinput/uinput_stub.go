//go:build !linux

package uinput

import (
	"github.com/frudas24/qaagent/internal/event"
	"github.com/frudas24/qaagent/internal/geom"
	"github.com/rs/zerolog"
)

// Sink is unavailable outside Linux.
type Sink struct{}

// NewSink returns ErrUnsupported.
func NewSink(origin geom.Point, width, height int, log zerolog.Logger) (*Sink, error) {
	return nil, ErrUnsupported
}

// EmitTouch returns ErrUnsupported.
func (s *Sink) EmitTouch(event.TouchEvent) error {
	return ErrUnsupported
}

// EmitMouse returns ErrUnsupported.
func (s *Sink) EmitMouse(event.MouseEvent) error {
	return ErrUnsupported
}

// EmitKey returns ErrUnsupported.
func (s *Sink) EmitKey(event.KeyEvent) error {
	return ErrUnsupported
}

// Close is a no-op.
func (s *Sink) Close() error {
	return nil
}

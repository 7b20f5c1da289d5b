//go:build !windows

package wininput

import (
	"github.com/frudas24/qaagent/internal/event"
	"github.com/frudas24/qaagent/internal/geom"
	"github.com/rs/zerolog"
)

// Sink is a placeholder for non-Windows builds.
type Sink struct{}

// NewSink returns ErrUnsupported on non-Windows platforms.
func NewSink(origin geom.Point, log zerolog.Logger) (*Sink, error) {
	_ = origin
	_ = log
	return nil, ErrUnsupported
}

// EmitMouse returns ErrUnsupported.
func (s *Sink) EmitMouse(event.MouseEvent) error {
	return ErrUnsupported
}

// EmitTouch returns ErrUnsupported.
func (s *Sink) EmitTouch(event.TouchEvent) error {
	return ErrUnsupported
}

// EmitKey returns ErrUnsupported.
func (s *Sink) EmitKey(event.KeyEvent) error {
	return ErrUnsupported
}

// Activator is a placeholder for non-Windows builds.
type Activator struct{}

// NewActivator returns ErrUnsupported on non-Windows platforms.
func NewActivator(title string) (*Activator, error) {
	_ = title
	return nil, ErrUnsupported
}

// ActivateWindow returns ErrUnsupported.
func (a *Activator) ActivateWindow() error {
	return ErrUnsupported
}

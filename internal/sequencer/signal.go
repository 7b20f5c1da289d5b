// Package sequencer replays action programs on a worker goroutine and reports
// primitive press/move/release/key signals in order.
package sequencer

import (
	"context"
	"fmt"

	"github.com/frudas24/qaagent/internal/geom"
)

// SignalKind identifies a primitive signal.
type SignalKind int

// Signal kinds. Finished is always the last signal of a run.
const (
	Pressed SignalKind = iota + 1
	Moved
	Released
	KeyDown
	KeyUp
	Finished
)

// String returns the signal name.
func (k SignalKind) String() string {
	switch k {
	case Pressed:
		return "pressed"
	case Moved:
		return "moved"
	case Released:
		return "released"
	case KeyDown:
		return "keyDown"
	case KeyUp:
		return "keyUp"
	case Finished:
		return "finished"
	default:
		return fmt.Sprintf("signal(%d)", int(k))
	}
}

// Signal is one primitive emitted by a worker.
// Button is the WebDriver button number for pointer signals (0 for plain touch
// programs), Value the key value for key signals and Err the outcome of Finished.
type Signal struct {
	Kind   SignalKind
	Point  geom.Point
	Button int
	Value  string
	Err    error
}

// Resolver maps an element handle to its current absolute geometry.
// It is called from worker goroutines and must be safe for concurrent use.
type Resolver interface {
	Resolve(ctx context.Context, element string) (geom.Rect, error)
}

// ResolverFunc adapts a function to Resolver.
type ResolverFunc func(ctx context.Context, element string) (geom.Rect, error)

// Resolve calls f.
func (f ResolverFunc) Resolve(ctx context.Context, element string) (geom.Rect, error) {
	return f(ctx, element)
}

package gesture

import (
	"time"

	"github.com/frudas24/qaagent/internal/action"
)

// Gesture defaults.
const (
	DefaultHold         = 1200 * time.Millisecond
	DefaultDragDelay    = 1200 * time.Millisecond
	DefaultMoveDuration = 500 * time.Millisecond
	DefaultMoveSteps    = 20
	DefaultReleaseDelay = 600 * time.Millisecond
	ClickDwell          = 200 * time.Millisecond
)

// Timing shapes drag and move gestures. Zero fields take the defaults.
type Timing struct {
	Delay        time.Duration
	Duration     time.Duration
	Steps        int
	ReleaseDelay time.Duration
}

// DefaultTiming returns the drag/move defaults.
func DefaultTiming() Timing {
	return Timing{
		Delay:        DefaultDragDelay,
		Duration:     DefaultMoveDuration,
		Steps:        DefaultMoveSteps,
		ReleaseDelay: DefaultReleaseDelay,
	}
}

func (t Timing) withDefaults() Timing {
	d := DefaultTiming()
	if t.Delay <= 0 {
		t.Delay = d.Delay
	}
	if t.Duration <= 0 {
		t.Duration = d.Duration
	}
	if t.Steps <= 0 {
		t.Steps = d.Steps
	}
	if t.ReleaseDelay <= 0 {
		t.ReleaseDelay = d.ReleaseDelay
	}
	return t
}

// ClickList is press, dwell, release.
func ClickList(at action.Target) action.List {
	return action.List{
		action.Press(at),
		action.Wait(ClickDwell),
		action.Release(),
	}
}

// PressAndHoldList is a long press held for hold, then a release.
func PressAndHoldList(at action.Target, hold time.Duration) action.List {
	if hold <= 0 {
		hold = DefaultHold
	}
	return action.List{
		action.LongPress(at, 0),
		action.Wait(hold),
		action.Release(),
	}
}

// DragList is long press, delay, move, release delay, release.
func DragList(from, to action.Target, t Timing) action.List {
	t = t.withDefaults()
	return action.List{
		action.LongPress(from, 0),
		action.Wait(t.Delay),
		action.MoveTo(to, t.Duration, t.Steps),
		action.Wait(t.ReleaseDelay),
		action.Release(),
	}
}

// MoveList is press, move, release delay, release. t.Delay is ignored.
func MoveList(from, to action.Target, t Timing) action.List {
	t = t.withDefaults()
	return action.List{
		action.Press(from),
		action.MoveTo(to, t.Duration, t.Steps),
		action.Wait(t.ReleaseDelay),
		action.Release(),
	}
}

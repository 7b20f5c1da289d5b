package sequencer

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/frudas24/qaagent/internal/action"
	"github.com/frudas24/qaagent/internal/clock"
	"github.com/frudas24/qaagent/internal/geom"
	"github.com/frudas24/qaagent/internal/motion"
	"github.com/rs/zerolog"
)

var (
	// ErrTimelineMismatch reports a chain whose key and pointer timelines differ in length.
	ErrTimelineMismatch = errors.New("chained action timelines differ in length")
	// ErrEmptyChain reports a chain with no steps at all.
	ErrEmptyChain = errors.New("chained action set is empty")
	// ErrAlreadyRun reports a second run on a single-shot worker.
	ErrAlreadyRun = errors.New("worker already ran")
)

// State is the lifecycle of a worker.
type State int32

// Worker states.
const (
	Idle State = iota
	Running
	Done
)

// Worker replays exactly one action list or chain, then finishes.
type Worker struct {
	clock    clock.Clock
	resolver Resolver
	emit     func(Signal)
	log      zerolog.Logger
	state    atomic.Int32
}

// New returns an idle worker. emit receives every signal in order from the
// goroutine that calls Run or RunChain. resolver may be nil when no step
// references elements.
func New(clk clock.Clock, resolver Resolver, emit func(Signal), log zerolog.Logger) *Worker {
	return &Worker{clock: clk, resolver: resolver, emit: emit, log: log}
}

// State returns the current lifecycle state.
func (w *Worker) State() State {
	return State(w.state.Load())
}

// Run replays list on the calling goroutine and emits Finished exactly once.
// The returned error is the one carried by Finished.
func (w *Worker) Run(ctx context.Context, list action.List) error {
	if !w.state.CompareAndSwap(int32(Idle), int32(Running)) {
		return ErrAlreadyRun
	}
	err := w.runList(ctx, list)
	w.finish(err)
	return err
}

// RunChain replays both timelines of chain in lockstep and emits Finished exactly once.
// Malformed chains finish immediately without executing any step.
func (w *Worker) RunChain(ctx context.Context, chain action.Chain) error {
	if !w.state.CompareAndSwap(int32(Idle), int32(Running)) {
		return ErrAlreadyRun
	}
	err := w.runChain(ctx, chain)
	w.finish(err)
	return err
}

func (w *Worker) finish(err error) {
	w.state.Store(int32(Done))
	w.emit(Signal{Kind: Finished, Err: err})
}

// runList walks the action list, keeping the current contact position.
func (w *Worker) runList(ctx context.Context, list action.List) error {
	var cur geom.Point
	for i, a := range list {
		if err := ctx.Err(); err != nil {
			return err
		}
		switch a.Kind {
		case action.KindWait:
			if err := w.clock.Sleep(ctx, a.Duration); err != nil {
				return err
			}

		case action.KindPress:
			p, ok := w.resolve(ctx, i, a.Target)
			if !ok {
				continue
			}
			w.emit(Signal{Kind: Pressed, Point: p})
			cur = p

		case action.KindLongPress:
			p, ok := w.resolve(ctx, i, a.Target)
			if !ok {
				continue
			}
			w.emit(Signal{Kind: Pressed, Point: p})
			cur = p
			if err := w.clock.Sleep(ctx, a.Duration); err != nil {
				return err
			}

		case action.KindMoveTo:
			p, ok := w.resolve(ctx, i, a.Target)
			if !ok {
				continue
			}
			last, err := w.moveAlong(ctx, cur, p, a.Duration, a.Steps, 0)
			cur = last
			if err != nil {
				return err
			}

		case action.KindRelease:
			p := cur
			if a.Target.HasPoint {
				p = a.Target.Point
			}
			w.emit(Signal{Kind: Released, Point: p})
			cur = p

		case action.KindTap:
			p, ok := w.resolve(ctx, i, a.Target)
			if !ok {
				continue
			}
			for n := 0; n < a.Count; n++ {
				w.emit(Signal{Kind: Pressed, Point: p})
				if err := w.clock.Sleep(ctx, action.TapDwell); err != nil {
					w.emit(Signal{Kind: Released, Point: p})
					return err
				}
				w.emit(Signal{Kind: Released, Point: p})
			}
			cur = p

		default:
			w.log.Warn().Int("step", i).Str("action", string(a.Kind)).Msg("unknown action, skipping")
		}
	}
	return nil
}

// runChain walks the key and pointer timelines index by index.
func (w *Worker) runChain(ctx context.Context, chain action.Chain) error {
	keysN, pointerN := len(chain.Keys), len(chain.Pointer)
	if keysN == 0 && pointerN == 0 {
		w.log.Error().Msg("chained actions: both timelines are empty")
		return ErrEmptyChain
	}
	if keysN != pointerN {
		w.log.Error().Int("keys", keysN).Int("pointer", pointerN).Msg("chained actions: timeline length mismatch")
		return ErrTimelineMismatch
	}

	var (
		prev    geom.Point
		hasPrev bool
	)
	for i := 0; i < keysN; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		k := chain.Keys[i]
		switch k.Kind {
		case action.StepPause:
			if err := w.clock.Sleep(ctx, k.Duration); err != nil {
				return err
			}
		case action.StepKeyDown:
			w.emit(Signal{Kind: KeyDown, Value: k.Value})
		case action.StepKeyUp:
			w.emit(Signal{Kind: KeyUp, Value: k.Value})
		default:
			w.log.Warn().Int("step", i).Str("type", string(k.Kind)).Msg("unknown key action, skipping")
		}

		p := chain.Pointer[i]
		switch p.Kind {
		case action.StepPause:
			if err := w.clock.Sleep(ctx, p.Duration); err != nil {
				return err
			}
		case action.StepPointerMove:
			target, ok := w.moveTarget(ctx, i, p, prev)
			if !ok {
				continue
			}
			if !hasPrev {
				w.emit(Signal{Kind: Moved, Point: target, Button: p.Button})
			} else if _, err := w.moveAlong(ctx, prev, target, p.Duration, action.ChainMoveSteps, p.Button); err != nil {
				return err
			}
			prev, hasPrev = target, true
		case action.StepPointerDown:
			w.emit(Signal{Kind: Pressed, Point: prev, Button: p.Button})
		case action.StepPointerUp:
			w.emit(Signal{Kind: Released, Point: prev, Button: p.Button})
			hasPrev = false
		default:
			w.log.Warn().Int("step", i).Str("type", string(p.Kind)).Msg("unknown pointer action, skipping")
		}
	}
	return nil
}

// moveAlong emits one Moved per interpolated point spread evenly over d and returns the last point reached.
func (w *Worker) moveAlong(ctx context.Context, from, to geom.Point, d time.Duration, steps int, button int) (geom.Point, error) {
	pts := motion.Interpolate(from, to, steps)
	interval := d / time.Duration(len(pts))
	cur := from
	for _, pt := range pts {
		if interval > 0 {
			if err := w.clock.Sleep(ctx, interval); err != nil {
				return cur, err
			}
		}
		w.emit(Signal{Kind: Moved, Point: pt, Button: button})
		cur = pt
	}
	return cur, nil
}

// moveTarget resolves a pointerMove destination against its origin.
func (w *Worker) moveTarget(ctx context.Context, step int, p action.PointerStep, prev geom.Point) (geom.Point, bool) {
	switch p.Origin {
	case action.OriginPointer:
		return prev.Add(p.Point), true
	case action.OriginElement:
		center, ok := w.resolve(ctx, step, action.On(p.Element))
		if !ok {
			return geom.Point{}, false
		}
		return center.Add(p.Point), true
	default:
		return p.Point, true
	}
}

// resolve returns the absolute point of a target, looking elements up at call time.
func (w *Worker) resolve(ctx context.Context, step int, t action.Target) (geom.Point, bool) {
	if t.Element == "" {
		return t.Point, true
	}
	if w.resolver == nil {
		w.log.Warn().Int("step", step).Str("element", t.Element).Msg("no element resolver, skipping step")
		return geom.Point{}, false
	}
	rect, err := w.resolver.Resolve(ctx, t.Element)
	if err != nil {
		w.log.Warn().Err(err).Int("step", step).Str("element", t.Element).Msg("element not resolved, skipping step")
		return geom.Point{}, false
	}
	return rect.Center(), true
}

package gesture

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/frudas24/qaagent/internal/action"
	"github.com/frudas24/qaagent/internal/clock"
	"github.com/frudas24/qaagent/internal/contact"
	"github.com/frudas24/qaagent/internal/event"
	"github.com/frudas24/qaagent/internal/geom"
	"github.com/frudas24/qaagent/internal/keys"
	"github.com/frudas24/qaagent/internal/logging"
	"github.com/frudas24/qaagent/internal/mainloop"
	"github.com/frudas24/qaagent/internal/pending"
	"github.com/frudas24/qaagent/internal/sequencer"
	"github.com/rs/zerolog"
)

// DefaultSettleDelay is observed after activating the host window.
const DefaultSettleDelay = 100 * time.Millisecond

// ErrClosed is returned for gestures requested after Close.
var ErrClosed = errors.New("gesture engine closed")

// Activator raises the host window before input is delivered.
type Activator interface {
	ActivateWindow() error
}

// Options configures an Engine.
type Options struct {
	Mode InputMode
	// Embedded targets skip window activation.
	Embedded  bool
	Activator Activator
	// SettleDelay defaults to DefaultSettleDelay when zero.
	SettleDelay time.Duration
	// Clock defaults to a new monotonic clock.
	Clock clock.Clock
	// Origin is added to local points to produce global mouse coordinates.
	Origin geom.Point
	Logger *zerolog.Logger
}

// Engine owns the contact registry and the modifier and button masks.
// That state is only touched by tasks running on the main loop.
type Engine struct {
	loop     *mainloop.Loop
	sink     event.Sink
	resolver sequencer.Resolver
	opts     Options
	clock    clock.Clock
	log      zerolog.Logger

	ctx    context.Context
	cancel context.CancelFunc

	nextSource atomic.Uint64

	// main-loop state
	contacts *contact.Registry
	mods     keys.Modifiers
	buttons  keys.Button
}

// NewEngine returns an engine that delivers events to sink through loop.
// resolver may be nil when no gesture references elements.
func NewEngine(loop *mainloop.Loop, sink event.Sink, resolver sequencer.Resolver, opts Options) *Engine {
	if opts.SettleDelay == 0 {
		opts.SettleDelay = DefaultSettleDelay
	}
	clk := opts.Clock
	if clk == nil {
		clk = clock.NewMonotonic()
	}
	log := logging.For("gesture")
	if opts.Logger != nil {
		log = *opts.Logger
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Engine{
		loop:     loop,
		sink:     sink,
		resolver: resolver,
		opts:     opts,
		clock:    clk,
		log:      log,
		ctx:      ctx,
		cancel:   cancel,
		contacts: contact.NewRegistry(),
	}
}

// Mode returns the configured input mode.
func (e *Engine) Mode() InputMode {
	return e.opts.Mode
}

// Clock returns the clock used for waits and event timestamps.
func (e *Engine) Clock() clock.Clock {
	return e.clock
}

// Close cancels every in-flight sequencer. Their operations complete with the context error.
func (e *Engine) Close() {
	e.cancel()
}

// Click taps at the target.
func (e *Engine) Click(at action.Target) *pending.Operation {
	return e.PerformTouchAction(ClickList(at))
}

// PressAndHold presses at the target, holds for hold and releases.
func (e *Engine) PressAndHold(at action.Target, hold time.Duration) *pending.Operation {
	return e.PerformTouchAction(PressAndHoldList(at, hold))
}

// Drag long-presses at from, then moves to to and releases.
func (e *Engine) Drag(from, to action.Target, t Timing) *pending.Operation {
	return e.PerformTouchAction(DragList(from, to, t))
}

// Move presses at from, moves to to and releases.
func (e *Engine) Move(from, to action.Target, t Timing) *pending.Operation {
	return e.PerformTouchAction(MoveList(from, to, t))
}

// PerformTouchAction replays a caller-supplied action list on one sequencer.
func (e *Engine) PerformTouchAction(list action.List) *pending.Operation {
	op := pending.New()
	if err := e.ctx.Err(); err != nil {
		op.Complete(ErrClosed)
		return op
	}
	go func() {
		e.prepare()
		e.spawn(completer(op), func(w *sequencer.Worker) error {
			return w.Run(e.ctx, list)
		})
	}()
	return op
}

// PerformMultiAction replays each list on its own sequencer, one simulated
// finger per list, and completes once every sequencer has finished.
func (e *Engine) PerformMultiAction(lists []action.List) *pending.Operation {
	op := pending.New()
	if err := e.ctx.Err(); err != nil {
		op.Complete(ErrClosed)
		return op
	}
	join := pending.NewJoin(op, len(lists))
	if len(lists) == 0 {
		return op
	}
	go func() {
		e.prepare()
		if e.opts.Mode == TouchMode {
			if err := e.loop.Post(e.clearContacts); err != nil {
				for range lists {
					join.Arrive(err)
				}
				return
			}
		}
		for _, list := range lists {
			list := list
			e.spawn(join.Arrive, func(w *sequencer.Worker) error {
				return w.Run(e.ctx, list)
			})
		}
	}()
	return op
}

// PerformChainActions replays a key and a pointer timeline in lockstep.
func (e *Engine) PerformChainActions(chain action.Chain) *pending.Operation {
	op := pending.New()
	if err := e.ctx.Err(); err != nil {
		op.Complete(ErrClosed)
		return op
	}
	go func() {
		e.prepare()
		e.spawn(completer(op), func(w *sequencer.Worker) error {
			return w.RunChain(e.ctx, chain)
		})
	}()
	return op
}

// PressEnter activates the host window when needed and sends Enter down and up.
// The key carries a newline and no modifiers, whatever the sticky mask holds.
func (e *Engine) PressEnter() *pending.Operation {
	op := pending.New()
	if err := e.ctx.Err(); err != nil {
		op.Complete(ErrClosed)
		return op
	}
	go func() {
		e.prepare()
		err := e.loop.Post(func() {
			e.emitKey(event.KeyPress, keys.Enter, "\n", 0)
			e.emitKey(event.KeyRelease, keys.Enter, "\n", 0)
			op.Complete(nil)
		})
		if err != nil {
			op.Complete(err)
		}
	}()
	return op
}

// prepare raises the host window on the main loop, when an activator is set,
// and lets focus settle. Non-embedded targets always wait SettleDelay.
func (e *Engine) prepare() {
	if e.opts.Embedded {
		return
	}
	if e.opts.Activator != nil {
		var actErr error
		err := e.loop.Call(e.ctx, func() { actErr = e.opts.Activator.ActivateWindow() })
		switch {
		case err != nil:
			e.log.Warn().Err(err).Msg("window activation not delivered")
		case actErr != nil:
			e.log.Warn().Err(actErr).Msg("window activation failed")
		}
	}
	_ = e.clock.Sleep(e.ctx, e.opts.SettleDelay)
}

// completer adapts an operation to the sequencer finish callback.
func completer(op *pending.Operation) func(error) {
	return func(err error) {
		op.Complete(err)
	}
}

// spawn starts one sequencer on its own goroutine. finished runs on the main
// loop after every event of the run has been delivered.
func (e *Engine) spawn(finished func(error), run func(*sequencer.Worker) error) {
	src := contact.Source(e.nextSource.Add(1))
	log := e.log.With().Uint64("source", uint64(src)).Logger()
	w := sequencer.New(e.clock, e.resolver, func(s sequencer.Signal) {
		e.deliver(src, s, finished)
	}, log)
	go func() {
		_ = run(w)
	}()
}

// deliver hands a signal to the main loop.
func (e *Engine) deliver(src contact.Source, s sequencer.Signal, finished func(error)) {
	err := e.loop.Post(func() {
		if s.Kind == sequencer.Finished {
			finished(s.Err)
			return
		}
		e.translate(src, s)
	})
	if err != nil && s.Kind == sequencer.Finished {
		finished(err)
	}
}

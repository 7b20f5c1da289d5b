package sequencer

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/frudas24/qaagent/internal/action"
	"github.com/frudas24/qaagent/internal/clock"
	"github.com/frudas24/qaagent/internal/geom"
	"github.com/rs/zerolog"
)

type recorder struct {
	mu      sync.Mutex
	signals []Signal
}

func (r *recorder) emit(s Signal) {
	r.mu.Lock()
	r.signals = append(r.signals, s)
	r.mu.Unlock()
}

func (r *recorder) kinds() []SignalKind {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]SignalKind, 0, len(r.signals))
	for _, s := range r.signals {
		out = append(out, s.Kind)
	}
	return out
}

var errMissing = errors.New("missing")

func staticResolver(rects map[string]geom.Rect) Resolver {
	return ResolverFunc(func(_ context.Context, id string) (geom.Rect, error) {
		r, ok := rects[id]
		if !ok {
			return geom.Rect{}, errMissing
		}
		return r, nil
	})
}

func newWorker(rec *recorder, clk clock.Clock, res Resolver) *Worker {
	return New(clk, res, rec.emit, zerolog.Nop())
}

func sameKinds(a, b []SignalKind) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// TestRun_ClickOrder verifies press, dwell and release precede finished.
func TestRun_ClickOrder(t *testing.T) {
	rec := &recorder{}
	clk := clock.NewVirtual()
	w := newWorker(rec, clk, nil)
	p := geom.Pt(5, 6)
	list := action.List{action.Press(action.At(p)), action.Wait(200 * time.Millisecond), action.Release()}
	if err := w.Run(context.Background(), list); err != nil {
		t.Fatalf("run failed: %v", err)
	}
	want := []SignalKind{Pressed, Released, Finished}
	if got := rec.kinds(); !sameKinds(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	if rec.signals[0].Point != p || rec.signals[1].Point != p {
		t.Fatalf("unexpected points: %+v", rec.signals)
	}
	if clk.Elapsed() != 200*time.Millisecond {
		t.Fatalf("expected 200ms elapsed, got %v", clk.Elapsed())
	}
	if w.State() != Done {
		t.Fatalf("expected Done state")
	}
}

// TestRun_SingleShot verifies a worker cannot be restarted.
func TestRun_SingleShot(t *testing.T) {
	rec := &recorder{}
	w := newWorker(rec, clock.NewVirtual(), nil)
	_ = w.Run(context.Background(), action.List{})
	if err := w.Run(context.Background(), action.List{}); !errors.Is(err, ErrAlreadyRun) {
		t.Fatalf("expected ErrAlreadyRun, got %v", err)
	}
	if got := rec.kinds(); !sameKinds(got, []SignalKind{Finished}) {
		t.Fatalf("expected a single finished, got %v", got)
	}
}

// TestRun_MoveToSpacing verifies interpolated moves and their total duration.
func TestRun_MoveToSpacing(t *testing.T) {
	rec := &recorder{}
	clk := clock.NewVirtual()
	w := newWorker(rec, clk, nil)
	list := action.List{
		action.Press(action.At(geom.Pt(10, 10))),
		action.MoveTo(action.At(geom.Pt(50, 50)), 200*time.Millisecond, 4),
		action.Release(),
	}
	if err := w.Run(context.Background(), list); err != nil {
		t.Fatalf("run failed: %v", err)
	}
	want := []SignalKind{Pressed, Moved, Moved, Moved, Moved, Released, Finished}
	if got := rec.kinds(); !sameKinds(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	if rec.signals[4].Point != geom.Pt(50, 50) || rec.signals[5].Point != geom.Pt(50, 50) {
		t.Fatalf("expected last move and release at target, got %+v", rec.signals)
	}
	if clk.Elapsed() != 200*time.Millisecond {
		t.Fatalf("expected 200ms, got %v", clk.Elapsed())
	}
}

// TestRun_TapRepeats verifies tap count and dwell.
func TestRun_TapRepeats(t *testing.T) {
	rec := &recorder{}
	clk := clock.NewVirtual()
	w := newWorker(rec, clk, nil)
	if err := w.Run(context.Background(), action.List{action.Tap(action.At(geom.Pt(1, 1)), 3)}); err != nil {
		t.Fatalf("run failed: %v", err)
	}
	want := []SignalKind{Pressed, Released, Pressed, Released, Pressed, Released, Finished}
	if got := rec.kinds(); !sameKinds(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	if clk.Elapsed() != 3*action.TapDwell {
		t.Fatalf("expected %v, got %v", 3*action.TapDwell, clk.Elapsed())
	}
}

// TestRun_LongPressDoesNotRelease verifies a lone long press keeps the contact down.
func TestRun_LongPressDoesNotRelease(t *testing.T) {
	rec := &recorder{}
	clk := clock.NewVirtual()
	w := newWorker(rec, clk, nil)
	_ = w.Run(context.Background(), action.List{action.LongPress(action.At(geom.Pt(1, 1)), time.Second)})
	if got := rec.kinds(); !sameKinds(got, []SignalKind{Pressed, Finished}) {
		t.Fatalf("expected press then finished, got %v", got)
	}
	if clk.Elapsed() != time.Second {
		t.Fatalf("expected hold of 1s, got %v", clk.Elapsed())
	}
}

// TestRun_ReleaseUsesExplicitPoint verifies explicit release coordinates win.
func TestRun_ReleaseUsesExplicitPoint(t *testing.T) {
	rec := &recorder{}
	w := newWorker(rec, clock.NewVirtual(), nil)
	_ = w.Run(context.Background(), action.List{
		action.Press(action.At(geom.Pt(1, 1))),
		action.ReleaseAt(geom.Pt(9, 9)),
	})
	if rec.signals[1].Kind != Released || rec.signals[1].Point != geom.Pt(9, 9) {
		t.Fatalf("unexpected release: %+v", rec.signals[1])
	}
}

// TestRun_UnknownAndUnresolvedSkipped verifies failures skip the step and continue.
func TestRun_UnknownAndUnresolvedSkipped(t *testing.T) {
	rec := &recorder{}
	res := staticResolver(map[string]geom.Rect{"ok": {X: 100, Y: 100, W: 20, H: 10}})
	w := newWorker(rec, clock.NewVirtual(), res)
	list := action.List{
		{Kind: action.Kind("wiggle")},
		action.Press(action.On("gone")),
		action.Press(action.On("ok")),
		action.Release(),
	}
	if err := w.Run(context.Background(), list); err != nil {
		t.Fatalf("run failed: %v", err)
	}
	want := []SignalKind{Pressed, Released, Finished}
	if got := rec.kinds(); !sameKinds(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	if rec.signals[0].Point != geom.Pt(110, 105) {
		t.Fatalf("expected element centre, got %+v", rec.signals[0].Point)
	}
}

// TestRun_LateBoundElement verifies element geometry is read when the step executes.
func TestRun_LateBoundElement(t *testing.T) {
	rec := &recorder{}
	var mu sync.Mutex
	rect := geom.Rect{X: 0, Y: 0, W: 10, H: 10}
	res := ResolverFunc(func(context.Context, string) (geom.Rect, error) {
		mu.Lock()
		defer mu.Unlock()
		return rect, nil
	})
	list := action.List{action.Press(action.On("el")), action.Release()}
	mu.Lock()
	rect = geom.Rect{X: 200, Y: 200, W: 10, H: 10}
	mu.Unlock()

	w := newWorker(rec, clock.NewVirtual(), res)
	_ = w.Run(context.Background(), list)
	if rec.signals[0].Point != geom.Pt(205, 205) {
		t.Fatalf("expected geometry at execution time, got %+v", rec.signals[0].Point)
	}
}

// TestRun_Cancelled verifies cancellation still finishes once with the context error.
func TestRun_Cancelled(t *testing.T) {
	rec := &recorder{}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	w := newWorker(rec, clock.NewVirtual(), nil)
	err := w.Run(ctx, action.List{action.Press(action.At(geom.Pt(1, 1)))})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if got := rec.kinds(); !sameKinds(got, []SignalKind{Finished}) || !errors.Is(rec.signals[0].Err, context.Canceled) {
		t.Fatalf("unexpected signals %+v", rec.signals)
	}
}

// TestRunChain_Mismatch verifies unequal timelines finish without executing any step.
func TestRunChain_Mismatch(t *testing.T) {
	rec := &recorder{}
	w := newWorker(rec, clock.NewVirtual(), nil)
	chain := action.Chain{
		Keys:    []action.KeyStep{action.KeyDown("a"), action.KeyUp("a"), action.Pause(0)},
		Pointer: []action.PointerStep{action.PointerMove(geom.Pt(1, 1)), action.PointerDown(0)},
	}
	err := w.RunChain(context.Background(), chain)
	if !errors.Is(err, ErrTimelineMismatch) {
		t.Fatalf("expected ErrTimelineMismatch, got %v", err)
	}
	if got := rec.kinds(); !sameKinds(got, []SignalKind{Finished}) {
		t.Fatalf("expected only finished, got %v", got)
	}
	if !errors.Is(rec.signals[0].Err, ErrTimelineMismatch) {
		t.Fatalf("expected mismatch on finished, got %v", rec.signals[0].Err)
	}
}

// TestRunChain_Empty verifies an empty chain finishes with an error.
func TestRunChain_Empty(t *testing.T) {
	rec := &recorder{}
	w := newWorker(rec, clock.NewVirtual(), nil)
	if err := w.RunChain(context.Background(), action.Chain{}); !errors.Is(err, ErrEmptyChain) {
		t.Fatalf("expected ErrEmptyChain, got %v", err)
	}
	if got := rec.kinds(); !sameKinds(got, []SignalKind{Finished}) {
		t.Fatalf("expected only finished, got %v", got)
	}
}

// TestRunChain_Lockstep verifies key then pointer sub-steps at each index.
func TestRunChain_Lockstep(t *testing.T) {
	rec := &recorder{}
	clk := clock.NewVirtual()
	w := newWorker(rec, clk, nil)
	chain := action.Chain{
		Keys: []action.KeyStep{
			action.KeyDown("Shift"), action.Pause(0), action.Pause(0), action.KeyUp("Shift"),
		},
		Pointer: []action.PointerStep{
			action.PointerMove(geom.Pt(10, 10)), action.PointerDown(0), action.PointerUp(0), action.PointerPause(30 * time.Millisecond),
		},
	}
	if err := w.RunChain(context.Background(), chain); err != nil {
		t.Fatalf("run failed: %v", err)
	}
	want := []SignalKind{KeyDown, Moved, Pressed, Released, KeyUp, Finished}
	if got := rec.kinds(); !sameKinds(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	if rec.signals[1].Point != geom.Pt(10, 10) || rec.signals[2].Point != geom.Pt(10, 10) {
		t.Fatalf("expected first move to jump to target: %+v", rec.signals)
	}
	if clk.Elapsed() != 30*time.Millisecond {
		t.Fatalf("expected 30ms, got %v", clk.Elapsed())
	}
}

// TestRunChain_MoveInterpolatesFromPrevious verifies later moves follow a path.
func TestRunChain_MoveInterpolatesFromPrevious(t *testing.T) {
	rec := &recorder{}
	res := staticResolver(map[string]geom.Rect{"target": {X: 190, Y: 0, W: 20, H: 20}})
	w := newWorker(rec, clock.NewVirtual(), res)
	chain := action.Chain{
		Keys: []action.KeyStep{action.Pause(0), action.Pause(0), action.Pause(0)},
		Pointer: []action.PointerStep{
			action.PointerMove(geom.Pt(0, 10)),
			action.PointerMoveElement("target", geom.Pt(0, 0)),
			action.PointerMoveElement("missing", geom.Pt(0, 0)),
		},
	}
	if err := w.RunChain(context.Background(), chain); err != nil {
		t.Fatalf("run failed: %v", err)
	}
	moves := 0
	var last geom.Point
	for _, s := range rec.signals {
		if s.Kind == Moved {
			moves++
			last = s.Point
		}
	}
	if moves != 1+action.ChainMoveSteps {
		t.Fatalf("expected %d moves, got %d", 1+action.ChainMoveSteps, moves)
	}
	if last != geom.Pt(200, 10) {
		t.Fatalf("expected to end at element centre, got %+v", last)
	}
}

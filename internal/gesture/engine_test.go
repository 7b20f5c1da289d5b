package gesture

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/frudas24/qaagent/internal/action"
	"github.com/frudas24/qaagent/internal/clock"
	"github.com/frudas24/qaagent/internal/contact"
	"github.com/frudas24/qaagent/internal/event"
	"github.com/frudas24/qaagent/internal/geom"
	"github.com/frudas24/qaagent/internal/keys"
	"github.com/frudas24/qaagent/internal/mainloop"
	"github.com/frudas24/qaagent/internal/sequencer"
	"github.com/frudas24/qaagent/internal/testutil"
)

type harness struct {
	engine *Engine
	sink   *testutil.FakeSink
	clock  *clock.Virtual
}

func newHarness(t *testing.T, opts Options, resolver sequencer.Resolver) *harness {
	t.Helper()
	loop := mainloop.New(0)
	ctx, cancel := context.WithCancel(context.Background())
	go func() { _ = loop.Run(ctx) }()

	clk := clock.NewVirtual()
	opts.Clock = clk
	sink := &testutil.FakeSink{}
	e := NewEngine(loop, sink, resolver, opts)
	t.Cleanup(func() {
		e.Close()
		cancel()
	})
	return &harness{engine: e, sink: sink, clock: clk}
}

func wait(t *testing.T, op interface {
	Wait(context.Context, time.Duration) error
}) error {
	t.Helper()
	return op.Wait(context.Background(), 2*time.Second)
}

// TestEngine_DragScenarioTouch verifies the drag event sequence in touch mode.
func TestEngine_DragScenarioTouch(t *testing.T) {
	h := newHarness(t, Options{Mode: TouchMode, Embedded: true}, nil)
	op := h.engine.Drag(action.At(geom.Pt(10, 10)), action.At(geom.Pt(50, 50)), Timing{
		Delay:        100 * time.Millisecond,
		Duration:     200 * time.Millisecond,
		Steps:        4,
		ReleaseDelay: 50 * time.Millisecond,
	})
	if err := wait(t, op); err != nil {
		t.Fatalf("drag failed: %v", err)
	}

	touches := h.sink.Touches()
	if len(touches) != 6 {
		t.Fatalf("expected 6 touch events, got %d", len(touches))
	}
	first := touches[0]
	if first.Type != event.TouchBegin || len(first.Points) != 1 {
		t.Fatalf("unexpected begin: %+v", first)
	}
	if first.Points[0].ID != 1 || first.Points[0].Pos != geom.Pt(10, 10) || first.Points[0].State != contact.Pressed {
		t.Fatalf("unexpected first contact: %+v", first.Points[0])
	}
	for i := 1; i <= 4; i++ {
		if touches[i].Type != event.TouchUpdate || touches[i].Points[0].State != contact.Moved {
			t.Fatalf("event %d: expected update/moved, got %+v", i, touches[i])
		}
	}
	if touches[4].Points[0].Pos != geom.Pt(50, 50) {
		t.Fatalf("expected last move at target, got %+v", touches[4].Points[0].Pos)
	}
	end := touches[5]
	if end.Type != event.TouchEnd || end.Points[0].State != contact.Released || end.Points[0].Pressure != 0 {
		t.Fatalf("unexpected end: %+v", end)
	}
	if h.clock.Elapsed() < 350*time.Millisecond {
		t.Fatalf("expected >= 350ms synthetic time, got %v", h.clock.Elapsed())
	}
	st, err := h.engine.Snapshot(context.Background())
	if err != nil || len(st.Contacts) != 0 {
		t.Fatalf("expected contact freed, got %+v err=%v", st.Contacts, err)
	}
}

// TestEngine_ClickPointer verifies mouse press/release with button masks and global coordinates.
func TestEngine_ClickPointer(t *testing.T) {
	h := newHarness(t, Options{Mode: PointerMode, Embedded: true, Origin: geom.Pt(100, 200)}, nil)
	if err := wait(t, h.engine.Click(action.At(geom.Pt(5, 6)))); err != nil {
		t.Fatalf("click failed: %v", err)
	}
	mice := h.sink.Mice()
	if len(mice) != 2 {
		t.Fatalf("expected 2 mouse events, got %d", len(mice))
	}
	press, release := mice[0], mice[1]
	if press.Type != event.MousePress || press.Button != keys.ButtonLeft || press.Buttons != keys.ButtonLeft {
		t.Fatalf("unexpected press: %+v", press)
	}
	if press.Pos != geom.Pt(5, 6) || press.Global != geom.Pt(105, 206) {
		t.Fatalf("unexpected press coordinates: %+v", press)
	}
	if release.Type != event.MouseRelease || release.Button != keys.ButtonLeft || release.Buttons != keys.ButtonNone {
		t.Fatalf("unexpected release: %+v", release)
	}
}

// TestEngine_MultiActionJoin verifies the operation waits for every finger.
func TestEngine_MultiActionJoin(t *testing.T) {
	gate := make(chan struct{})
	res := sequencer.ResolverFunc(func(ctx context.Context, id string) (geom.Rect, error) {
		<-gate
		return geom.Rect{X: 90, Y: 90, W: 20, H: 20}, nil
	})
	h := newHarness(t, Options{Mode: TouchMode, Embedded: true}, res)
	op := h.engine.PerformMultiAction([]action.List{
		{action.Press(action.At(geom.Pt(1, 1))), action.Release()},
		{action.Press(action.On("slow")), action.Release()},
	})

	deadline := time.Now().Add(2 * time.Second)
	for len(h.sink.Touches()) < 2 {
		if time.Now().After(deadline) {
			t.Fatalf("first finger never finished")
		}
		time.Sleep(time.Millisecond)
	}
	time.Sleep(20 * time.Millisecond)
	select {
	case <-op.Done():
		t.Fatalf("operation completed before every finger finished")
	default:
	}

	close(gate)
	if err := wait(t, op); err != nil {
		t.Fatalf("multi action failed: %v", err)
	}
	touches := h.sink.Touches()
	if len(touches) != 4 {
		t.Fatalf("expected 4 touch events, got %d", len(touches))
	}
	if touches[2].Points[0].Pos != geom.Pt(100, 100) || touches[2].Points[0].ID != 2 {
		t.Fatalf("unexpected second finger: %+v", touches[2].Points)
	}
}

// TestEngine_MultiActionEmpty verifies an empty multi action completes immediately.
func TestEngine_MultiActionEmpty(t *testing.T) {
	h := newHarness(t, Options{Mode: TouchMode, Embedded: true}, nil)
	op := h.engine.PerformMultiAction(nil)
	select {
	case <-op.Done():
	default:
		t.Fatalf("expected immediate completion")
	}
}

// TestEngine_ChainMismatch verifies the chain reports the mismatch and emits nothing.
func TestEngine_ChainMismatch(t *testing.T) {
	h := newHarness(t, Options{Mode: PointerMode, Embedded: true}, nil)
	op := h.engine.PerformChainActions(action.Chain{
		Keys:    []action.KeyStep{action.KeyDown("a"), action.KeyUp("a"), action.Pause(0)},
		Pointer: []action.PointerStep{action.PointerMove(geom.Pt(1, 1)), action.PointerDown(0)},
	})
	if err := wait(t, op); !errors.Is(err, sequencer.ErrTimelineMismatch) {
		t.Fatalf("expected ErrTimelineMismatch, got %v", err)
	}
	if n := len(h.sink.Records()); n != 0 {
		t.Fatalf("expected no events, got %d", n)
	}
}

// TestEngine_ModifierToggle verifies modifier bits flip on press and release of a modifier key.
func TestEngine_ModifierToggle(t *testing.T) {
	h := newHarness(t, Options{Mode: PointerMode, Embedded: true}, nil)
	op := h.engine.PerformChainActions(action.Chain{
		Keys: []action.KeyStep{
			action.KeyDown("Control"), action.KeyDown("a"), action.KeyUp("a"), action.KeyUp("Control"),
		},
		Pointer: []action.PointerStep{
			action.PointerPause(0), action.PointerPause(0), action.PointerPause(0), action.PointerPause(0),
		},
	})
	if err := wait(t, op); err != nil {
		t.Fatalf("chain failed: %v", err)
	}
	ks := h.sink.Keys()
	if len(ks) != 4 {
		t.Fatalf("expected 4 key events, got %d", len(ks))
	}
	if ks[0].Key != keys.Control || !ks[0].Modifiers.Has(keys.ModControl) {
		t.Fatalf("unexpected control press: %+v", ks[0])
	}
	if ks[1].Text != "a" || ks[1].Type != event.KeyPress || !ks[1].Modifiers.Has(keys.ModControl) {
		t.Fatalf("expected 'a' press with control, got %+v", ks[1])
	}
	if !ks[2].Modifiers.Has(keys.ModControl) {
		t.Fatalf("expected control still set on 'a' release")
	}
	if ks[3].Type != event.KeyRelease || ks[3].Modifiers != 0 {
		t.Fatalf("expected empty mask after control release, got %+v", ks[3])
	}
	st, _ := h.engine.Snapshot(context.Background())
	if st.Modifiers != 0 {
		t.Fatalf("expected empty engine mask, got %v", st.Modifiers)
	}
}

// TestEngine_ChainButtons verifies pointer buttons compose into the mask.
func TestEngine_ChainButtons(t *testing.T) {
	h := newHarness(t, Options{Mode: PointerMode, Embedded: true}, nil)
	op := h.engine.PerformChainActions(action.Chain{
		Keys: []action.KeyStep{action.Pause(0), action.Pause(0), action.Pause(0)},
		Pointer: []action.PointerStep{
			action.PointerMove(geom.Pt(3, 4)), action.PointerDown(2), action.PointerUp(2),
		},
	})
	if err := wait(t, op); err != nil {
		t.Fatalf("chain failed: %v", err)
	}
	mice := h.sink.Mice()
	if len(mice) != 3 {
		t.Fatalf("expected 3 mouse events, got %d", len(mice))
	}
	if mice[0].Type != event.MouseMove || mice[0].Button != keys.ButtonNone {
		t.Fatalf("unexpected move: %+v", mice[0])
	}
	if mice[1].Button != keys.ButtonRight || mice[1].Buttons != keys.ButtonRight || mice[1].Pos != geom.Pt(3, 4) {
		t.Fatalf("unexpected press: %+v", mice[1])
	}
	if mice[2].Buttons != keys.ButtonNone {
		t.Fatalf("expected mask cleared on release: %+v", mice[2])
	}
}

// TestEngine_PressEnterActivates verifies activation, settle and the Enter pair.
func TestEngine_PressEnterActivates(t *testing.T) {
	act := &testutil.FakeActivator{}
	h := newHarness(t, Options{Mode: PointerMode, Activator: act}, nil)
	if err := wait(t, h.engine.PressEnter()); err != nil {
		t.Fatalf("press enter failed: %v", err)
	}
	if act.Calls() != 1 {
		t.Fatalf("expected one activation, got %d", act.Calls())
	}
	if h.clock.Elapsed() < DefaultSettleDelay {
		t.Fatalf("expected settle delay, got %v", h.clock.Elapsed())
	}
	ks := h.sink.Keys()
	if len(ks) != 2 || ks[0].Key != keys.Enter || ks[0].Type != event.KeyPress || ks[1].Type != event.KeyRelease {
		t.Fatalf("unexpected key events: %+v", ks)
	}
}

// TestEngine_PressEnterSettlesWithoutActivator verifies the settle delay applies with no window to raise.
func TestEngine_PressEnterSettlesWithoutActivator(t *testing.T) {
	h := newHarness(t, Options{Mode: PointerMode}, nil)
	if err := wait(t, h.engine.PressEnter()); err != nil {
		t.Fatalf("press enter failed: %v", err)
	}
	if h.clock.Elapsed() < DefaultSettleDelay {
		t.Fatalf("expected settle delay, got %v", h.clock.Elapsed())
	}
	if len(h.sink.Keys()) != 2 {
		t.Fatalf("expected the Enter pair, got %+v", h.sink.Keys())
	}
}

// TestEngine_PressEnterIgnoresStickyModifiers verifies Enter carries a newline and no modifiers.
func TestEngine_PressEnterIgnoresStickyModifiers(t *testing.T) {
	h := newHarness(t, Options{Mode: PointerMode, Embedded: true}, nil)
	op := h.engine.PerformChainActions(action.Chain{
		Keys:    []action.KeyStep{action.KeyDown("Control")},
		Pointer: []action.PointerStep{action.PointerPause(0)},
	})
	if err := wait(t, op); err != nil {
		t.Fatalf("chain failed: %v", err)
	}
	if err := wait(t, h.engine.PressEnter()); err != nil {
		t.Fatalf("press enter failed: %v", err)
	}
	ks := h.sink.Keys()
	if len(ks) != 3 {
		t.Fatalf("expected 3 key events, got %+v", ks)
	}
	for _, k := range ks[1:] {
		if k.Key != keys.Enter || k.Text != "\n" || k.Modifiers != 0 {
			t.Fatalf("unexpected enter event: %+v", k)
		}
	}
	st, err := h.engine.Snapshot(context.Background())
	if err != nil || !st.Modifiers.Has(keys.ModControl) {
		t.Fatalf("sticky control should survive enter, got %v err=%v", st.Modifiers, err)
	}
}

// TestEngine_EmbeddedSkipsActivation verifies embedded targets are never activated.
func TestEngine_EmbeddedSkipsActivation(t *testing.T) {
	act := &testutil.FakeActivator{}
	h := newHarness(t, Options{Mode: TouchMode, Embedded: true, Activator: act}, nil)
	if err := wait(t, h.engine.Click(action.At(geom.Pt(1, 1)))); err != nil {
		t.Fatalf("click failed: %v", err)
	}
	if act.Calls() != 0 {
		t.Fatalf("expected no activation, got %d", act.Calls())
	}
}

// TestEngine_ActivationFailureContinues verifies a failed activation does not block the gesture.
func TestEngine_ActivationFailureContinues(t *testing.T) {
	act := &testutil.FakeActivator{Err: errors.New("no window")}
	h := newHarness(t, Options{Mode: PointerMode, Activator: act}, nil)
	if err := wait(t, h.engine.Click(action.At(geom.Pt(1, 1)))); err != nil {
		t.Fatalf("click failed: %v", err)
	}
	if len(h.sink.Mice()) != 2 {
		t.Fatalf("expected click events despite activation failure")
	}
}

// TestEngine_Closed verifies gestures after Close fail immediately.
func TestEngine_Closed(t *testing.T) {
	h := newHarness(t, Options{Mode: TouchMode, Embedded: true}, nil)
	h.engine.Close()
	if err := wait(t, h.engine.Click(action.At(geom.Pt(1, 1)))); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
}

// TestTranslateTouch_IDsNotReused verifies a third finger never reuses a live id.
func TestTranslateTouch_IDsNotReused(t *testing.T) {
	sink := &testutil.FakeSink{}
	e := NewEngine(mainloop.New(0), sink, nil, Options{Mode: TouchMode, Clock: clock.NewVirtual()})
	e.translate(1, sequencer.Signal{Kind: sequencer.Pressed, Point: geom.Pt(1, 1)})
	e.translate(2, sequencer.Signal{Kind: sequencer.Pressed, Point: geom.Pt(2, 2)})
	e.translate(1, sequencer.Signal{Kind: sequencer.Released, Point: geom.Pt(1, 1)})
	e.translate(3, sequencer.Signal{Kind: sequencer.Pressed, Point: geom.Pt(3, 3)})

	touches := sink.Touches()
	types := []event.TouchType{event.TouchBegin, event.TouchUpdate, event.TouchUpdate, event.TouchUpdate}
	for i, want := range types {
		if touches[i].Type != want {
			t.Fatalf("event %d: expected %v, got %v", i, want, touches[i].Type)
		}
	}
	second := touches[1].Points
	if len(second) != 2 || second[0].State != contact.Stationary || second[1].State != contact.Pressed {
		t.Fatalf("unexpected batch: %+v", second)
	}
	third := touches[3].Points
	if len(third) != 2 || third[1].ID == 2 || third[1].ID == 1 {
		t.Fatalf("expected a fresh id, got %+v", third)
	}
}

// TestTranslateTouch_MoveWithoutContact verifies stray moves are dropped.
func TestTranslateTouch_MoveWithoutContact(t *testing.T) {
	sink := &testutil.FakeSink{}
	e := NewEngine(mainloop.New(0), sink, nil, Options{Mode: TouchMode, Clock: clock.NewVirtual()})
	e.translate(1, sequencer.Signal{Kind: sequencer.Moved, Point: geom.Pt(1, 1)})
	e.translate(1, sequencer.Signal{Kind: sequencer.Released, Point: geom.Pt(1, 1)})
	if n := len(sink.Records()); n != 0 {
		t.Fatalf("expected nothing emitted, got %d", n)
	}
}

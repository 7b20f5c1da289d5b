package gesture

import (
	"context"

	"github.com/frudas24/qaagent/internal/clock"
	"github.com/frudas24/qaagent/internal/contact"
	"github.com/frudas24/qaagent/internal/event"
	"github.com/frudas24/qaagent/internal/keys"
	"github.com/frudas24/qaagent/internal/sequencer"
)

// translate converts one sequencer signal into native events. Main loop only.
func (e *Engine) translate(src contact.Source, s sequencer.Signal) {
	switch s.Kind {
	case sequencer.KeyDown, sequencer.KeyUp:
		e.translateKey(s)
	case sequencer.Pressed, sequencer.Moved, sequencer.Released:
		if e.opts.Mode == TouchMode {
			e.translateTouch(src, s)
		} else {
			e.translateMouse(s)
		}
	}
}

func (e *Engine) translateTouch(src contact.Source, s sequencer.Signal) {
	var (
		typ   event.TouchType
		batch []contact.Point
	)
	switch s.Kind {
	case sequencer.Pressed:
		_, batch = e.contacts.Press(src, s.Point)
		typ = event.TouchUpdate
		if len(batch) == 1 {
			typ = event.TouchBegin
		}
	case sequencer.Moved:
		var ok bool
		_, batch, ok = e.contacts.Move(src, s.Point)
		if !ok {
			e.log.Debug().Uint64("source", uint64(src)).Msg("move without a live contact, dropped")
			return
		}
		typ = event.TouchUpdate
	case sequencer.Released:
		var ok, last bool
		_, batch, last, ok = e.contacts.Release(src, s.Point)
		if !ok {
			e.log.Debug().Uint64("source", uint64(src)).Msg("release without a live contact, dropped")
			return
		}
		typ = event.TouchUpdate
		if last {
			typ = event.TouchEnd
		}
	}
	ev := event.TouchEvent{
		Type:      typ,
		Points:    batch,
		Modifiers: e.mods,
		Timestamp: clock.Millis(e.clock),
	}
	if err := e.sink.EmitTouch(ev); err != nil {
		e.log.Warn().Err(err).Str("type", typ.String()).Msg("touch event not delivered")
	}
}

func (e *Engine) translateMouse(s sequencer.Signal) {
	ev := event.MouseEvent{
		Pos:       s.Point,
		Global:    s.Point.Add(e.opts.Origin),
		Modifiers: e.mods,
		Timestamp: clock.Millis(e.clock),
	}
	switch s.Kind {
	case sequencer.Pressed:
		ev.Type = event.MousePress
		ev.Button = keys.ButtonFor(s.Button)
		e.buttons |= ev.Button
	case sequencer.Moved:
		ev.Type = event.MouseMove
		ev.Button = keys.ButtonNone
	case sequencer.Released:
		ev.Type = event.MouseRelease
		ev.Button = keys.ButtonFor(s.Button)
		e.buttons &^= ev.Button
	}
	ev.Buttons = e.buttons
	if err := e.sink.EmitMouse(ev); err != nil {
		e.log.Warn().Err(err).Str("type", ev.Type.String()).Msg("mouse event not delivered")
	}
}

// translateKey toggles the modifier mask on both press and release of a
// modifier key, then emits the key event carrying the updated mask.
func (e *Engine) translateKey(s sequencer.Signal) {
	code, text := keys.Lookup(s.Value)
	e.mods ^= keys.ModifierFor(code)
	typ := event.KeyPress
	if s.Kind == sequencer.KeyUp {
		typ = event.KeyRelease
	}
	e.emitKey(typ, code, text, e.mods)
}

func (e *Engine) emitKey(typ event.KeyType, code keys.Code, text string, mods keys.Modifiers) {
	ev := event.KeyEvent{
		Type:      typ,
		Key:       code,
		Modifiers: mods,
		Text:      text,
		Timestamp: clock.Millis(e.clock),
	}
	if err := e.sink.EmitKey(ev); err != nil {
		e.log.Warn().Err(err).Str("type", typ.String()).Msg("key event not delivered")
	}
}

// clearContacts drops stale contacts before a multi-finger gesture. Main loop only.
func (e *Engine) clearContacts() {
	if n := e.contacts.Clear(); n > 0 {
		e.log.Debug().Int("dropped", n).Msg("cleared stale contacts")
	}
}

// State is a snapshot of the engine's main-loop state.
type State struct {
	Contacts  []contact.Point
	Modifiers keys.Modifiers
	Buttons   keys.Button
}

// Snapshot reads the main-loop state. It must not be called from the main loop.
func (e *Engine) Snapshot(ctx context.Context) (State, error) {
	var st State
	err := e.loop.Call(ctx, func() {
		st = State{Contacts: e.contacts.Live(), Modifiers: e.mods, Buttons: e.buttons}
	})
	return st, err
}

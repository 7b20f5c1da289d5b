//go:build windows

package wininput

import (
	"unicode/utf16"

	"github.com/frudas24/qaagent/internal/contact"
	"github.com/frudas24/qaagent/internal/event"
	"github.com/frudas24/qaagent/internal/geom"
	"github.com/frudas24/qaagent/internal/keys"
	"github.com/lxn/win"
	"github.com/rs/zerolog"
)

// Sink injects events into the interactive desktop.
type Sink struct {
	origin geom.Point
	log    zerolog.Logger
}

// NewSink returns a SendInput sink. origin is added to touch positions, which
// arrive window-local.
func NewSink(origin geom.Point, log zerolog.Logger) (*Sink, error) {
	return &Sink{origin: origin, log: log}, nil
}

// EmitMouse moves the cursor and presses or releases the event button.
func (s *Sink) EmitMouse(ev event.MouseEvent) error {
	var b mouseBatch
	b.moveTo(screenPoint(ev.Global))
	switch ev.Type {
	case event.MousePress:
		flags, data := buttonFlags(ev.Button, true)
		b.add(flags, 0, 0, data)
	case event.MouseRelease:
		flags, data := buttonFlags(ev.Button, false)
		b.add(flags, 0, 0, data)
	}
	return b.send()
}

// EmitTouch drives the cursor with the primary contact of the batch.
func (s *Sink) EmitTouch(ev event.TouchEvent) error {
	primary, ok := primaryContact(ev.Points)
	if !ok || primary.State == contact.Stationary {
		return nil
	}
	var b mouseBatch
	b.moveTo(screenPoint(primary.Pos.Add(s.origin)))
	switch primary.State {
	case contact.Pressed:
		b.add(win.MOUSEEVENTF_LEFTDOWN, 0, 0, 0)
	case contact.Released:
		b.add(win.MOUSEEVENTF_LEFTUP, 0, 0, 0)
	}
	return b.send()
}

// EmitKey sends a virtual key, or the event text as unicode input.
func (s *Sink) EmitKey(ev event.KeyEvent) error {
	var up uint32
	if ev.Type == event.KeyRelease {
		up = win.KEYEVENTF_KEYUP
	}
	if vk, ok := virtualKey(ev.Key); ok {
		return sendKeys([]win.KEYBDINPUT{{WVk: vk, DwFlags: up}})
	}
	if ev.Text == "" {
		s.log.Debug().Int("key", int(ev.Key)).Msg("key has no virtual key or text, dropped")
		return nil
	}
	units := utf16.Encode([]rune(ev.Text))
	inputs := make([]win.KEYBDINPUT, 0, len(units))
	for _, code := range units {
		inputs = append(inputs, win.KEYBDINPUT{WScan: code, DwFlags: win.KEYEVENTF_UNICODE | up})
	}
	return sendKeys(inputs)
}

// buttonFlags maps a button to its SendInput flags and mouse data.
func buttonFlags(b keys.Button, down bool) (uint32, uint32) {
	switch b {
	case keys.ButtonRight:
		if down {
			return win.MOUSEEVENTF_RIGHTDOWN, 0
		}
		return win.MOUSEEVENTF_RIGHTUP, 0
	case keys.ButtonMiddle:
		if down {
			return win.MOUSEEVENTF_MIDDLEDOWN, 0
		}
		return win.MOUSEEVENTF_MIDDLEUP, 0
	case keys.ButtonBack, keys.ButtonFwd:
		data := uint32(win.XBUTTON1)
		if b == keys.ButtonFwd {
			data = win.XBUTTON2
		}
		if down {
			return win.MOUSEEVENTF_XDOWN, data
		}
		return win.MOUSEEVENTF_XUP, data
	default:
		if down {
			return win.MOUSEEVENTF_LEFTDOWN, 0
		}
		return win.MOUSEEVENTF_LEFTUP, 0
	}
}

// virtualKey maps a key code to a Windows virtual-key code.
func virtualKey(code keys.Code) (uint16, bool) {
	if keys.IsLetter(code) {
		return uint16('A' + (code - keys.LetterA)), true
	}
	if code >= keys.Digit0 && code <= keys.Digit9 {
		return uint16(win.VK_NUMPAD0 + int(code-keys.Digit0)), true
	}
	if code >= keys.F1 && code <= keys.F12 {
		return uint16(win.VK_F1 + int(code-keys.F1)), true
	}
	vk, ok := virtualKeys[code]
	return vk, ok
}

var virtualKeys = map[keys.Code]uint16{
	keys.Cancel:    win.VK_CANCEL,
	keys.Help:      win.VK_HELP,
	keys.Backspace: win.VK_BACK,
	keys.Tab:       win.VK_TAB,
	keys.Clear:     win.VK_CLEAR,
	keys.Return:    win.VK_RETURN,
	keys.Enter:     win.VK_RETURN,
	keys.Shift:     win.VK_SHIFT,
	keys.Control:   win.VK_CONTROL,
	keys.Alt:       win.VK_MENU,
	keys.Pause:     win.VK_PAUSE,
	keys.Escape:    win.VK_ESCAPE,
	keys.Space:     win.VK_SPACE,
	keys.PageUp:    win.VK_PRIOR,
	keys.PageDown:  win.VK_NEXT,
	keys.End:       win.VK_END,
	keys.Home:      win.VK_HOME,
	keys.Left:      win.VK_LEFT,
	keys.Up:        win.VK_UP,
	keys.Right:     win.VK_RIGHT,
	keys.Down:      win.VK_DOWN,
	keys.Insert:    win.VK_INSERT,
	keys.Delete:    win.VK_DELETE,
	keys.Semicolon: win.VK_OEM_1,
	keys.Equal:     win.VK_OEM_PLUS,
	keys.Asterisk:  win.VK_MULTIPLY,
	keys.Plus:      win.VK_ADD,
	keys.Colon:     win.VK_SEPARATOR,
	keys.Minus:     win.VK_SUBTRACT,
	keys.Period:    win.VK_DECIMAL,
	keys.Slash:     win.VK_DIVIDE,
	keys.Meta:      win.VK_LWIN,
}

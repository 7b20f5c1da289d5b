//go:build windows

package wininput

import (
	"fmt"
	"syscall"
	"unsafe"

	"github.com/lxn/win"
)

// absoluteRange is the normalized coordinate span of MOUSEEVENTF_ABSOLUTE.
const absoluteRange = 65535

// mouseBatch collects mouse inputs delivered by a single SendInput call, so a
// cursor move and its button transition reach the desktop back to back.
type mouseBatch []win.MOUSE_INPUT

// moveTo appends an absolute move to a virtual-desktop pixel.
func (b *mouseBatch) moveTo(x, y int) {
	dx, dy := normalize(x, y, virtualDesktop())
	b.add(win.MOUSEEVENTF_MOVE|win.MOUSEEVENTF_ABSOLUTE|win.MOUSEEVENTF_VIRTUALDESK, dx, dy, 0)
}

// add appends one raw mouse input.
func (b *mouseBatch) add(flags uint32, dx, dy int32, data uint32) {
	*b = append(*b, win.MOUSE_INPUT{
		Type: win.INPUT_MOUSE,
		Mi: win.MOUSEINPUT{
			Dx:        dx,
			Dy:        dy,
			MouseData: data,
			DwFlags:   flags,
		},
	})
}

// send delivers the batch and reports partial delivery.
func (b mouseBatch) send() error {
	if len(b) == 0 {
		return nil
	}
	n := win.SendInput(uint32(len(b)), unsafe.Pointer(&b[0]), int32(unsafe.Sizeof(b[0])))
	if int(n) != len(b) {
		return fmt.Errorf("SendInput mouse: %d of %d delivered: %w", n, len(b), syscall.Errno(win.GetLastError()))
	}
	return nil
}

// sendKeys delivers keyboard inputs in one SendInput call.
func sendKeys(inputs []win.KEYBDINPUT) error {
	if len(inputs) == 0 {
		return nil
	}
	batch := make([]win.KEYBD_INPUT, len(inputs))
	for i, ki := range inputs {
		batch[i] = win.KEYBD_INPUT{Type: win.INPUT_KEYBOARD, Ki: ki}
	}
	n := win.SendInput(uint32(len(batch)), unsafe.Pointer(&batch[0]), int32(unsafe.Sizeof(batch[0])))
	if int(n) != len(batch) {
		return fmt.Errorf("SendInput keyboard: %d of %d delivered: %w", n, len(batch), syscall.Errno(win.GetLastError()))
	}
	return nil
}

// desktop is the virtual screen rectangle spanning every monitor.
type desktop struct {
	x, y, w, h int32
}

func virtualDesktop() desktop {
	return desktop{
		x: win.GetSystemMetrics(win.SM_XVIRTUALSCREEN),
		y: win.GetSystemMetrics(win.SM_YVIRTUALSCREEN),
		w: win.GetSystemMetrics(win.SM_CXVIRTUALSCREEN),
		h: win.GetSystemMetrics(win.SM_CYVIRTUALSCREEN),
	}
}

// normalize maps a pixel onto the absolute range of the virtual desktop.
func normalize(x, y int, d desktop) (int32, int32) {
	w, h := int64(d.w), int64(d.h)
	if w < 2 {
		w = 2
	}
	if h < 2 {
		h = 2
	}
	dx := (int64(x) - int64(d.x)) * absoluteRange / (w - 1)
	dy := (int64(y) - int64(d.y)) * absoluteRange / (h - 1)
	return int32(dx), int32(dy)
}

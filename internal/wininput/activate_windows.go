//go:build windows

package wininput

import (
	"fmt"
	"syscall"

	"github.com/lxn/win"
)

// Activator raises a top-level window found by title.
type Activator struct {
	title string
}

// NewActivator returns an activator for the window titled title.
// An empty title activates whatever window is already in the foreground.
func NewActivator(title string) (*Activator, error) {
	return &Activator{title: title}, nil
}

// ActivateWindow restores the window when minimised and brings it to the foreground.
func (a *Activator) ActivateWindow() error {
	hwnd := win.GetForegroundWindow()
	if a.title != "" {
		name, err := syscall.UTF16PtrFromString(a.title)
		if err != nil {
			return err
		}
		hwnd = win.FindWindow(nil, name)
	}
	if hwnd == 0 {
		return fmt.Errorf("%w: %q", ErrWindowNotFound, a.title)
	}
	if win.IsIconic(hwnd) {
		win.ShowWindow(hwnd, win.SW_RESTORE)
	}
	win.BringWindowToTop(hwnd)
	if !win.SetForegroundWindow(hwnd) {
		return fmt.Errorf("set foreground window %q failed", a.title)
	}
	return nil
}

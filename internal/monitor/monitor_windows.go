//go:build windows

package monitor

import (
	"fmt"
	"syscall"
	"unsafe"

	"github.com/lxn/win"
	"golang.org/x/sys/windows"
)

var (
	user32                  = windows.NewLazySystemDLL("user32.dll")
	procEnumDisplayMonitors = user32.NewProc("EnumDisplayMonitors")
)

// ListMonitors enumerates displays with EnumDisplayMonitors, numbering them from 1.
func ListMonitors() (Layout, error) {
	var list Layout
	callback := syscall.NewCallback(func(h win.HMONITOR, _ win.HDC, _ *win.RECT, _ uintptr) uintptr {
		var info win.MONITORINFO
		info.CbSize = uint32(unsafe.Sizeof(info))
		if win.GetMonitorInfo(h, &info) {
			list = append(list, fromInfo(len(list)+1, info))
		}
		return 1
	})
	ret, _, err := procEnumDisplayMonitors.Call(0, 0, callback, 0)
	if ret == 0 {
		return nil, fmt.Errorf("EnumDisplayMonitors failed: %w", err)
	}
	if len(list) == 0 {
		return nil, ErrNoMonitors
	}
	return list, nil
}

// fromInfo converts a MONITORINFO into a Monitor.
func fromInfo(idx int, info win.MONITORINFO) Monitor {
	r := info.RcMonitor
	return Monitor{
		Index:   idx,
		X:       int(r.Left),
		Y:       int(r.Top),
		W:       int(r.Right - r.Left),
		H:       int(r.Bottom - r.Top),
		Primary: info.DwFlags&win.MONITORINFOF_PRIMARY != 0,
	}
}
